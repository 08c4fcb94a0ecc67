package combo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBestMergeJoinsCliqueMembers(t *testing.T) {
	g := mustGraph(t, 6, twoTriangles())
	p := NewPartition(g, true)
	merger := NewMergeEvaluator()

	m, ok := merger.Best(p)
	require.True(t, ok)
	assert.InDelta(t, 2*(1.0/12-4.0/144), m.Gain, 1e-12)
	assert.Equal(t, m.Dst < 3, m.Src < 3, "merge must stay inside one triangle")

	before := p.Modularity()
	delta := p.Merge(m.Dst, m.Src)
	assert.InDelta(t, m.Gain, delta, 1e-12)
	assert.InDelta(t, before+m.Gain, p.Modularity(), 1e-12)
}

func TestBestMergeNoneWhenOptimal(t *testing.T) {
	g := mustGraph(t, 6, twoTriangles())
	p, err := NewPartitionFromLabels(g, []int{0, 0, 0, 1, 1, 1})
	require.NoError(t, err)
	merger := NewMergeEvaluator()

	_, ok := merger.Best(p)
	assert.False(t, ok)

	m, ok := merger.Cheapest(p)
	require.True(t, ok)
	assert.InDelta(t, -0.5, m.Gain, 1e-12)
}

func TestMergeRequiresTwoCommunities(t *testing.T) {
	g := mustGraph(t, 6, twoTriangles())
	merger := NewMergeEvaluator()

	_, ok := merger.Cheapest(NewPartition(g, false))
	assert.False(t, ok)
}

func TestMergeGainMatchesBetween(t *testing.T) {
	n, edges := caveman(3, 4)
	g := mustGraph(t, n, edges)
	p := NewPartition(g, true)
	merger := NewMergeEvaluator()

	m, ok := merger.Cheapest(p)
	require.True(t, ok)
	assert.InDelta(t, 2*p.Between(m.Dst, m.Src), m.Gain, 1e-12)
}
