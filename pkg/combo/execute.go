package combo

import (
	"fmt"

	"github.com/gilchrisn/combo-clustering/pkg/parser"
)

// FailedModularity is the modularity reported alongside an empty labeling
// when the input or configuration is rejected.
const FailedModularity = -1.0

// LoadGraph reads a Pajek or edge-list file and builds its graph.
func LoadGraph(path string, resolution float64, treatAsModularity bool) (*Graph, error) {
	data, err := parser.ReadGraphFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	edges := make([]Edge, len(data.Edges))
	for i, e := range data.Edges {
		edges[i] = Edge{From: e.From, To: e.To, Weight: e.Weight}
	}
	return NewGraphFromEdges(data.NumNodes, edges, data.Directed, resolution, treatAsModularity)
}

// ExecuteFromFile partitions the graph stored at path.
func ExecuteFromFile(path string, config *Config, opts ...Option) ([]int, float64, error) {
	if config == nil {
		config = NewConfig()
	}
	if err := config.Validate(); err != nil {
		return []int{}, FailedModularity, err
	}
	g, err := LoadGraph(path, config.Resolution(), config.TreatAsModularity())
	if err != nil {
		return []int{}, FailedModularity, err
	}
	return execute(g, config, opts)
}

// ExecuteFromMatrix partitions the graph given by a dense weight matrix, or
// by B itself when algorithm.treat_as_modularity is set.
func ExecuteFromMatrix(matrix [][]float64, config *Config, opts ...Option) ([]int, float64, error) {
	if config == nil {
		config = NewConfig()
	}
	if err := config.Validate(); err != nil {
		return []int{}, FailedModularity, err
	}
	g, err := NewGraphFromMatrix(matrix, config.Resolution(), config.TreatAsModularity())
	if err != nil {
		return []int{}, FailedModularity, err
	}
	return execute(g, config, opts)
}

// Execute partitions a graph of size nodes given as an edge list.
func Execute(size int, edges []Edge, directed bool, config *Config, opts ...Option) ([]int, float64, error) {
	if config == nil {
		config = NewConfig()
	}
	if err := config.Validate(); err != nil {
		return []int{}, FailedModularity, err
	}
	g, err := NewGraphFromEdges(size, edges, directed, config.Resolution(), config.TreatAsModularity())
	if err != nil {
		return []int{}, FailedModularity, err
	}
	return execute(g, config, opts)
}

func execute(g *Graph, config *Config, opts []Option) ([]int, float64, error) {
	algo, err := NewAlgorithm(config, opts...)
	if err != nil {
		return []int{}, FailedModularity, err
	}
	result, err := algo.Run(g)
	if err != nil {
		return []int{}, FailedModularity, err
	}
	return result.Labels, result.Modularity, nil
}
