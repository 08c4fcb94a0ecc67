package combo

import (
	"math/rand"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// twoTriangles returns two disconnected 3-cliques on nodes 0-2 and 3-5.
func twoTriangles() []Edge {
	return []Edge{
		{0, 1, 1}, {1, 2, 1}, {2, 0, 1},
		{3, 4, 1}, {4, 5, 1}, {5, 3, 1},
	}
}

// caveman returns k cliques of size s joined in a ring by single edges.
func caveman(k, s int) (int, []Edge) {
	var edges []Edge
	for c := 0; c < k; c++ {
		base := c * s
		for i := 0; i < s; i++ {
			for j := i + 1; j < s; j++ {
				edges = append(edges, Edge{base + i, base + j, 1})
			}
		}
		if k > 1 {
			next := ((c + 1) % k) * s
			edges = append(edges, Edge{base + s - 1, next, 1})
		}
	}
	return k * s, edges
}

// randomEdges builds a reproducible random weighted graph.
func randomEdges(seed int64, n int, density float64) []Edge {
	rng := rand.New(rand.NewSource(seed))
	var edges []Edge
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if rng.Float64() < density {
				edges = append(edges, Edge{i, j, 0.5 + rng.Float64()})
			}
		}
	}
	return edges
}

func mustGraph(t testing.TB, size int, edges []Edge) *Graph {
	t.Helper()
	g, err := NewGraphFromEdges(size, edges, false, 1.0, false)
	require.NoError(t, err)
	return g
}

func quietConfig(seed int64) *Config {
	config := NewConfig()
	config.Set("algorithm.random_seed", seed)
	return config
}

func newQuietAlgorithm(t testing.TB, config *Config, opts ...Option) *Algorithm {
	t.Helper()
	opts = append([]Option{WithLogger(zerolog.Nop())}, opts...)
	algo, err := NewAlgorithm(config, opts...)
	require.NoError(t, err)
	return algo
}

func countDistinct(labels []int) int {
	seen := make(map[int]bool)
	for _, l := range labels {
		seen[l] = true
	}
	return len(seen)
}

// contiguous reports whether labels use exactly the values 0..k-1.
func contiguous(labels []int) bool {
	k := countDistinct(labels)
	for _, l := range labels {
		if l < 0 || l >= k {
			return false
		}
	}
	return true
}
