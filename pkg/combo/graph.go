package combo

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/mat"
)

var (
	// ErrInvalidInput marks graphs that cannot be built: no nodes, a non-square
	// matrix, out-of-range edge endpoints or non-finite weights.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmptyGraph is returned when a run is started on a graph without nodes.
	ErrEmptyGraph = fmt.Errorf("%w: graph has no nodes", ErrInvalidInput)
)

// Edge is a weighted (source, target) pair of node indices.
type Edge struct {
	From   int     `json:"from"`
	To     int     `json:"to"`
	Weight float64 `json:"weight"`
}

// Graph holds the weighted adjacency of a graph together with its modularity
// matrix. B is dense and symmetric, so memory and construction time are both
// quadratic in the number of nodes.
type Graph struct {
	numNodes          int
	directed          bool
	resolution        float64
	treatAsModularity bool
	totalWeight       float64

	adjacency  *mat.Dense
	modularity *mat.SymDense
}

// NewGraphFromMatrix builds a graph from a dense square weight matrix. An
// asymmetric matrix is read as a directed graph.
func NewGraphFromMatrix(matrix [][]float64, resolution float64, treatAsModularity bool) (*Graph, error) {
	n := len(matrix)
	if n == 0 {
		return nil, ErrEmptyGraph
	}

	adjacency := mat.NewDense(n, n, nil)
	for i, row := range matrix {
		if len(row) != n {
			return nil, fmt.Errorf("%w: row %d has %d entries, expected %d", ErrInvalidInput, i, len(row), n)
		}
		for j, w := range row {
			if math.IsNaN(w) || math.IsInf(w, 0) {
				return nil, fmt.Errorf("%w: non-finite weight at (%d, %d)", ErrInvalidInput, i, j)
			}
			adjacency.Set(i, j, w)
		}
	}

	return newGraph(adjacency, !mat.Equal(adjacency, adjacency.T()), resolution, treatAsModularity), nil
}

// NewGraphFromEdges builds a graph with size nodes from a list of weighted
// edges. Undirected edges are stored in both directions and an undirected
// self-loop contributes twice its weight to the node's degree.
func NewGraphFromEdges(size int, edges []Edge, directed bool, resolution float64, treatAsModularity bool) (*Graph, error) {
	if size <= 0 {
		return nil, ErrEmptyGraph
	}

	adjacency := mat.NewDense(size, size, nil)
	for k, e := range edges {
		if e.From < 0 || e.From >= size || e.To < 0 || e.To >= size {
			return nil, fmt.Errorf("%w: edge %d (%d -> %d) out of range for %d nodes", ErrInvalidInput, k, e.From, e.To, size)
		}
		if math.IsNaN(e.Weight) || math.IsInf(e.Weight, 0) {
			return nil, fmt.Errorf("%w: edge %d has non-finite weight", ErrInvalidInput, k)
		}

		adjacency.Set(e.From, e.To, adjacency.At(e.From, e.To)+e.Weight)
		if !directed {
			// The second increment doubles an undirected self-loop.
			adjacency.Set(e.To, e.From, adjacency.At(e.To, e.From)+e.Weight)
		}
	}

	return newGraph(adjacency, directed, resolution, treatAsModularity), nil
}

func newGraph(adjacency *mat.Dense, directed bool, resolution float64, treatAsModularity bool) *Graph {
	n, _ := adjacency.Dims()
	g := &Graph{
		numNodes:          n,
		directed:          directed,
		resolution:        resolution,
		treatAsModularity: treatAsModularity,
		adjacency:         adjacency,
		modularity:        mat.NewSymDense(n, nil),
	}

	outDegree := make([]float64, n)
	inDegree := make([]float64, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			w := adjacency.At(i, j)
			outDegree[i] += w
			inDegree[j] += w
			g.totalWeight += w
		}
	}

	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			if treatAsModularity {
				g.modularity.SetSym(i, j, (adjacency.At(i, j)+adjacency.At(j, i))/2)
				continue
			}
			if g.totalWeight == 0 {
				continue
			}
			m := g.totalWeight
			bij := adjacency.At(i, j)/m - resolution*outDegree[i]*inDegree[j]/(m*m)
			bji := adjacency.At(j, i)/m - resolution*outDegree[j]*inDegree[i]/(m*m)
			g.modularity.SetSym(i, j, (bij+bji)/2)
		}
	}

	return g
}

// Size returns the number of nodes.
func (g *Graph) Size() int {
	return g.numNodes
}

// Directed reports whether the adjacency is asymmetric or was built from
// directed edges.
func (g *Graph) Directed() bool {
	return g.directed
}

// TotalWeight returns the sum of all adjacency entries.
func (g *Graph) TotalWeight() float64 {
	return g.totalWeight
}

// Resolution returns the null-model scaling used to derive the matrix.
func (g *Graph) Resolution() float64 {
	return g.resolution
}

// TreatAsModularity reports whether the input was used as B directly.
func (g *Graph) TreatAsModularity() bool {
	return g.treatAsModularity
}

// At returns B[i][j].
func (g *Graph) At(i, j int) float64 {
	return g.modularity.At(i, j)
}

// ModularityMatrix returns a read-only view of B.
func (g *Graph) ModularityMatrix() mat.Symmetric {
	return g.modularity
}

// Modularity evaluates the objective of an arbitrary labeling. Labels must
// have one entry per node.
func (g *Graph) Modularity(labels []int) float64 {
	if len(labels) != g.numNodes {
		return math.NaN()
	}

	q := 0.0
	for i := 0; i < g.numNodes; i++ {
		for j := 0; j < g.numNodes; j++ {
			if labels[i] == labels[j] {
				q += g.modularity.At(i, j)
			}
		}
	}
	return q
}

// WeightedUndirected exports the symmetrized adjacency as a gonum graph.
// Self-loops are dropped since simple graphs cannot hold them.
func (g *Graph) WeightedUndirected() *simple.WeightedUndirectedGraph {
	wg := simple.NewWeightedUndirectedGraph(0, 0)
	for i := 0; i < g.numNodes; i++ {
		wg.AddNode(simple.Node(i))
	}
	for i := 0; i < g.numNodes; i++ {
		for j := i + 1; j < g.numNodes; j++ {
			w := g.adjacency.At(i, j)
			if g.directed {
				w += g.adjacency.At(j, i)
			}
			if w != 0 {
				wg.SetWeightedEdge(wg.NewWeightedEdge(simple.Node(i), simple.Node(j), w))
			}
		}
	}
	return wg
}
