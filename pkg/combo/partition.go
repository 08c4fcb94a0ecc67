package combo

import (
	"fmt"
	"sort"
)

// Partition assigns every node of a graph to exactly one community and keeps
// the sum of B over each community's member pairs, so modularity is available
// in O(#communities). Community ids may become sparse while searching; Labels
// compacts them.
type Partition struct {
	graph    *Graph
	labels   []int     // labels[i] = community id of node i
	members  [][]int   // members[c] = nodes of community c, possibly empty
	internal []float64 // internal[c] = sum of B[i][j] for i, j in c
}

// NewPartition seeds a partition with every node in one community, or with
// every node in its own community when separate is set.
func NewPartition(g *Graph, separate bool) *Partition {
	labels := make([]int, g.Size())
	if separate {
		for i := range labels {
			labels[i] = i
		}
	}
	p, _ := NewPartitionFromLabels(g, labels)
	return p
}

// NewPartitionFromLabels seeds a partition from an existing labeling. Label
// values must be non-negative; they need not be contiguous.
func NewPartitionFromLabels(g *Graph, labels []int) (*Partition, error) {
	if len(labels) != g.Size() {
		return nil, fmt.Errorf("%w: %d labels for %d nodes", ErrInvalidInput, len(labels), g.Size())
	}

	p := &Partition{
		graph:  g,
		labels: make([]int, len(labels)),
	}
	maxLabel := -1
	for i, c := range labels {
		if c < 0 {
			return nil, fmt.Errorf("%w: negative label %d for node %d", ErrInvalidInput, c, i)
		}
		if c > maxLabel {
			maxLabel = c
		}
	}

	p.members = make([][]int, maxLabel+1)
	p.internal = make([]float64, maxLabel+1)
	for i, c := range labels {
		p.labels[i] = c
		p.members[c] = append(p.members[c], i)
	}
	p.Recompute()
	return p, nil
}

// Graph returns the graph the partition is defined over.
func (p *Partition) Graph() *Graph {
	return p.graph
}

// Community returns the community id of node v.
func (p *Partition) Community(v int) int {
	return p.labels[v]
}

// Members returns the nodes of community c. The slice must not be modified.
func (p *Partition) Members(c int) []int {
	if c < 0 || c >= len(p.members) {
		return nil
	}
	return p.members[c]
}

// Size returns the number of nodes in community c.
func (p *Partition) Size(c int) int {
	return len(p.Members(c))
}

// Internal returns the cached B-sum of community c.
func (p *Partition) Internal(c int) float64 {
	return p.internal[c]
}

// Active returns the ids of non-empty communities in ascending order.
func (p *Partition) Active() []int {
	active := make([]int, 0, len(p.members))
	for c, nodes := range p.members {
		if len(nodes) > 0 {
			active = append(active, c)
		}
	}
	return active
}

// NumCommunities returns the number of non-empty communities.
func (p *Partition) NumCommunities() int {
	count := 0
	for _, nodes := range p.members {
		if len(nodes) > 0 {
			count++
		}
	}
	return count
}

// Modularity returns the sum of the cached community aggregates.
func (p *Partition) Modularity() float64 {
	q := 0.0
	for _, in := range p.internal {
		q += in
	}
	return q
}

// NewCommunity returns the id of an empty community, reusing a free slot
// when one exists.
func (p *Partition) NewCommunity() int {
	for c, nodes := range p.members {
		if len(nodes) == 0 {
			return c
		}
	}
	p.members = append(p.members, nil)
	p.internal = append(p.internal, 0)
	return len(p.members) - 1
}

// SumTo returns the B-sum between node v and the members of community c,
// excluding B[v][v].
func (p *Partition) SumTo(v, c int) float64 {
	sum := 0.0
	for _, u := range p.Members(c) {
		if u != v {
			sum += p.graph.At(v, u)
		}
	}
	return sum
}

// Between returns the B-sum over pairs (i, j) with i in c1 and j in c2.
func (p *Partition) Between(c1, c2 int) float64 {
	sum := 0.0
	for _, i := range p.Members(c1) {
		for _, j := range p.Members(c2) {
			sum += p.graph.At(i, j)
		}
	}
	return sum
}

// Move reassigns nodes, which must all belong to the same community, to dest
// and returns the modularity change. The aggregates of both communities are
// updated incrementally.
func (p *Partition) Move(nodes []int, dest int) float64 {
	if len(nodes) == 0 {
		return 0
	}
	origin := p.labels[nodes[0]]
	if origin == dest {
		return 0
	}
	for dest >= len(p.members) {
		p.members = append(p.members, nil)
		p.internal = append(p.internal, 0)
	}

	moving := make(map[int]bool, len(nodes))
	for _, v := range nodes {
		moving[v] = true
	}

	var toRest, toDest, within float64
	for _, v := range nodes {
		for _, u := range p.members[origin] {
			if moving[u] {
				within += p.graph.At(v, u)
			} else {
				toRest += p.graph.At(v, u)
			}
		}
		for _, u := range p.members[dest] {
			toDest += p.graph.At(v, u)
		}
	}

	p.internal[origin] -= 2*toRest + within
	p.internal[dest] += 2*toDest + within

	remaining := p.members[origin][:0]
	for _, u := range p.members[origin] {
		if !moving[u] {
			remaining = append(remaining, u)
		}
	}
	p.members[origin] = remaining
	if len(remaining) == 0 {
		p.internal[origin] = 0
	}
	for _, v := range nodes {
		p.labels[v] = dest
		p.members[dest] = append(p.members[dest], v)
	}
	sort.Ints(p.members[dest])

	return 2 * (toDest - toRest)
}

// Merge moves every member of src into dst and returns the modularity change.
func (p *Partition) Merge(dst, src int) float64 {
	nodes := append([]int(nil), p.Members(src)...)
	return p.Move(nodes, dst)
}

// Recompute rebuilds every community aggregate from the labels and B.
func (p *Partition) Recompute() {
	for c := range p.internal {
		p.internal[c] = 0
	}
	for c, nodes := range p.members {
		for _, i := range nodes {
			for _, j := range nodes {
				p.internal[c] += p.graph.At(i, j)
			}
		}
	}
}

// Labels returns the community of every node, renumbered to [0, k) in order
// of first appearance.
func (p *Partition) Labels() []int {
	remap := make(map[int]int)
	labels := make([]int, len(p.labels))
	for i, c := range p.labels {
		id, ok := remap[c]
		if !ok {
			id = len(remap)
			remap[c] = id
		}
		labels[i] = id
	}
	return labels
}

// Clone returns an independent copy sharing the graph.
func (p *Partition) Clone() *Partition {
	clone := &Partition{
		graph:    p.graph,
		labels:   append([]int(nil), p.labels...),
		members:  make([][]int, len(p.members)),
		internal: append([]float64(nil), p.internal...),
	}
	for c, nodes := range p.members {
		clone.members[c] = append([]int(nil), nodes...)
	}
	return clone
}
