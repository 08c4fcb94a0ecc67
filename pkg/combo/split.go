package combo

import (
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// NewCommunity as a destination asks the refiner for a split into a fresh
// community rather than a reassignment into an existing one.
const NewCommunity = -1

// minGain is the smallest modularity change treated as an improvement.
const minGain = 1e-10

// eigenLimit caps the community size for which the eigenvector seed is
// computed; larger communities fall back to the individual-gain seed.
const eigenLimit = 2000

// seedKind enumerates the deterministic initial bipartitions.
type seedKind int

const (
	seedEigenvector seedKind = iota
	seedAll
	seedIndividualGain
	seedAlternating
	seedFirstHalf
	seedEmpty
	numSeedKinds
)

func (k seedKind) String() string {
	switch k {
	case seedEigenvector:
		return "eigenvector"
	case seedAll:
		return "all"
	case seedIndividualGain:
		return "individual_gain"
	case seedAlternating:
		return "alternating"
	case seedFirstHalf:
		return "first_half"
	case seedEmpty:
		return "empty"
	}
	return "random"
}

// Move is a proposed transfer of Nodes from Origin into Dest.
type Move struct {
	Origin int
	Dest   int
	Nodes  []int
	Gain   float64
}

// SplitRefiner searches for a subset of a community whose transfer to a new
// or existing community increases modularity.
type SplitRefiner struct {
	attempts  int
	fixedStep int
	rng       *rand.Rand
}

// NewSplitRefiner returns a refiner making one deterministic attempt plus
// attempts restarts. With fixedStep > 0 every fixedStep-th restart uses a
// fixed seed instead of a random one.
func NewSplitRefiner(attempts, fixedStep int, rng *rand.Rand) *SplitRefiner {
	return &SplitRefiner{
		attempts:  attempts,
		fixedStep: fixedStep,
		rng:       rng,
	}
}

// trial is the local-search state for one origin/dest pair. side[k] tells
// whether nodes[k] is moved; the three sums exclude the node itself.
type trial struct {
	graph   *Graph
	nodes   []int
	side    []bool
	toDest  []float64
	toStay  []float64
	toMoved []float64
}

func newTrial(p *Partition, origin, dest int) *trial {
	nodes := append([]int(nil), p.Members(origin)...)
	t := &trial{
		graph:   p.graph,
		nodes:   nodes,
		side:    make([]bool, len(nodes)),
		toDest:  make([]float64, len(nodes)),
		toStay:  make([]float64, len(nodes)),
		toMoved: make([]float64, len(nodes)),
	}
	if dest != NewCommunity {
		for k, v := range nodes {
			t.toDest[k] = p.SumTo(v, dest)
		}
	}
	return t
}

// reset installs a bipartition and rebuilds the side sums.
func (t *trial) reset(side []bool) {
	copy(t.side, side)
	for k, v := range t.nodes {
		t.toStay[k], t.toMoved[k] = 0, 0
		for l, u := range t.nodes {
			if l == k {
				continue
			}
			if t.side[l] {
				t.toMoved[k] += t.graph.At(v, u)
			} else {
				t.toStay[k] += t.graph.At(v, u)
			}
		}
	}
}

// delta is the gain change of flipping nodes[k] to the other side.
func (t *trial) delta(k int) float64 {
	d := 2 * (t.toDest[k] + t.toMoved[k] - t.toStay[k])
	if t.side[k] {
		return -d
	}
	return d
}

func (t *trial) flip(k int) {
	v := t.nodes[k]
	t.side[k] = !t.side[k]
	for l, u := range t.nodes {
		if l == k {
			continue
		}
		w := t.graph.At(u, v)
		if t.side[k] {
			t.toStay[l] -= w
			t.toMoved[l] += w
		} else {
			t.toMoved[l] -= w
			t.toStay[l] += w
		}
	}
}

// gain returns 2*(B(S, dest) - B(S, origin minus S)) for the moved set S.
func (t *trial) gain() float64 {
	g := 0.0
	for k := range t.nodes {
		if t.side[k] {
			g += 2 * (t.toDest[k] - t.toStay[k])
		}
	}
	return g
}

// climb applies the best strictly improving flip until none is left.
func (t *trial) climb() {
	for {
		best, bestDelta := -1, minGain
		for k := range t.nodes {
			if d := t.delta(k); d > bestDelta {
				best, bestDelta = k, d
			}
		}
		if best < 0 {
			return
		}
		t.flip(best)
	}
}

func (t *trial) moved() []int {
	var nodes []int
	for k, v := range t.nodes {
		if t.side[k] {
			nodes = append(nodes, v)
		}
	}
	return nodes
}

// Refine proposes moving part of origin into dest, where dest is an existing
// community id or NewCommunity. ok is false when no attempt finds a transfer
// with a gain above minGain.
func (r *SplitRefiner) Refine(p *Partition, origin, dest int) (Move, bool) {
	size := p.Size(origin)
	if dest == NewCommunity && size <= 1 {
		return Move{}, false
	}
	if size == 0 || origin == dest || (dest != NewCommunity && p.Size(dest) == 0) {
		return Move{}, false
	}

	t := newTrial(p, origin, dest)
	first := seedEigenvector
	if dest != NewCommunity {
		first = seedIndividualGain
	}

	var best []bool
	bestGain := minGain
	fixed := 0
	for attempt := 0; attempt <= r.attempts; attempt++ {
		var side []bool
		switch {
		case attempt == 0:
			side = t.seed(first)
		case r.fixedStep > 0 && attempt%r.fixedStep == 0:
			side = t.seed(seedKind(fixed % int(numSeedKinds)))
			fixed++
		default:
			side = t.randomSeed(r.rng)
		}

		t.reset(side)
		t.climb()

		g := t.gain()
		if dest == NewCommunity && t.allMoved() {
			continue
		}
		if g > bestGain {
			bestGain = g
			best = append(best[:0], t.side...)
		}
	}

	if best == nil {
		return Move{}, false
	}
	t.reset(best)
	return Move{Origin: origin, Dest: dest, Nodes: t.moved(), Gain: bestGain}, true
}

func (t *trial) allMoved() bool {
	for _, s := range t.side {
		if !s {
			return false
		}
	}
	return true
}

func (t *trial) randomSeed(rng *rand.Rand) []bool {
	side := make([]bool, len(t.nodes))
	for k := range side {
		side[k] = rng.Intn(2) == 1
	}
	return side
}

func (t *trial) seed(kind seedKind) []bool {
	n := len(t.nodes)
	side := make([]bool, n)
	switch kind {
	case seedEigenvector:
		if n > eigenLimit || !t.eigenvectorSeed(side) {
			return t.seed(seedIndividualGain)
		}
	case seedAll:
		for k := range side {
			side[k] = true
		}
	case seedIndividualGain:
		t.reset(side)
		for k := range side {
			side[k] = t.toDest[k]-t.toStay[k] > 0
		}
	case seedAlternating:
		for k := range side {
			side[k] = k%2 == 1
		}
	case seedFirstHalf:
		for k := 0; k < n/2; k++ {
			side[k] = true
		}
	case seedEmpty:
	}
	return side
}

// eigenvectorSeed splits by the sign of the leading eigenvector of B
// restricted to the trial nodes.
func (t *trial) eigenvectorSeed(side []bool) bool {
	n := len(t.nodes)
	sub := mat.NewSymDense(n, nil)
	for k, v := range t.nodes {
		for l := k; l < n; l++ {
			sub.SetSym(k, l, t.graph.At(v, t.nodes[l]))
		}
	}

	var eig mat.EigenSym
	if !eig.Factorize(sub, true) {
		return false
	}
	var vectors mat.Dense
	eig.VectorsTo(&vectors)

	// Eigenvalues are ascending, so the leading vector is the last column.
	for k := range side {
		side[k] = vectors.At(k, n-1) > 0
	}
	return true
}
