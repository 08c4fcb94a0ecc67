package combo

import "math"

// MergeEvaluator scans community pairs for merges. Merging c1 and c2 changes
// modularity by 2*B(c1, c2), so one pass over B yields every candidate.
type MergeEvaluator struct{}

// NewMergeEvaluator returns a merge evaluator.
func NewMergeEvaluator() *MergeEvaluator {
	return &MergeEvaluator{}
}

// Merge is a candidate merge of Src into Dst.
type Merge struct {
	Dst  int
	Src  int
	Gain float64
}

// Best returns the merge with the largest gain above minGain.
func (m *MergeEvaluator) Best(p *Partition) (Merge, bool) {
	best, ok := m.Cheapest(p)
	if !ok || best.Gain <= minGain {
		return Merge{}, false
	}
	return best, true
}

// Cheapest returns the merge with the largest gain whatever its sign. It is
// used to bring a seed partition under the community ceiling.
func (m *MergeEvaluator) Cheapest(p *Partition) (Merge, bool) {
	active := p.Active()
	if len(active) < 2 {
		return Merge{}, false
	}

	index := make(map[int]int, len(active))
	for k, c := range active {
		index[c] = k
	}
	between := make([][]float64, len(active))
	for k := range between {
		between[k] = make([]float64, len(active))
	}

	n := p.graph.Size()
	for i := 0; i < n; i++ {
		ci := index[p.Community(i)]
		for j := i + 1; j < n; j++ {
			cj := index[p.Community(j)]
			if ci != cj {
				between[ci][cj] += p.graph.At(i, j)
				between[cj][ci] += p.graph.At(i, j)
			}
		}
	}

	best := Merge{Gain: math.Inf(-1)}
	for a := 0; a < len(active); a++ {
		for b := a + 1; b < len(active); b++ {
			if g := 2 * between[a][b]; g > best.Gain {
				best = Merge{Dst: active[a], Src: active[b], Gain: g}
			}
		}
	}
	return best, true
}
