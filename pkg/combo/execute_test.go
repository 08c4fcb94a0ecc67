package combo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var quiet = WithLogger(zerolog.Nop())

func TestExecuteEdgeList(t *testing.T) {
	labels, modularity, err := Execute(6, twoTriangles(), false, quietConfig(1), quiet)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0, 0, 1, 1, 1}, labels)
	assert.InDelta(t, 0.5, modularity, 1e-9)
}

func TestExecuteDirectedEdgeList(t *testing.T) {
	var edges []Edge
	for _, e := range twoTriangles() {
		edges = append(edges, e, Edge{From: e.To, To: e.From, Weight: e.Weight})
	}
	labels, modularity, err := Execute(6, edges, true, quietConfig(1), quiet)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0, 0, 1, 1, 1}, labels)
	assert.InDelta(t, 0.5, modularity, 1e-9)
}

func TestExecuteFromMatrix(t *testing.T) {
	matrix := [][]float64{
		{0, 1, 1, 0, 0, 0},
		{1, 0, 1, 0, 0, 0},
		{1, 1, 0, 0, 0, 0},
		{0, 0, 0, 0, 1, 1},
		{0, 0, 0, 1, 0, 1},
		{0, 0, 0, 1, 1, 0},
	}
	labels, modularity, err := ExecuteFromMatrix(matrix, quietConfig(1), quiet)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0, 0, 1, 1, 1}, labels)
	assert.InDelta(t, 0.5, modularity, 1e-9)
}

func TestExecuteFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "triangles.net")
	content := "*Vertices 6\n1 \"a\"\n2 \"b\"\n3 \"c\"\n4 \"d\"\n5 \"e\"\n6 \"f\"\n*Edges\n1 2 1\n2 3 1\n3 1 1\n4 5 1\n5 6 1\n6 4 1\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	labels, modularity, err := ExecuteFromFile(path, quietConfig(1), quiet)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0, 0, 1, 1, 1}, labels)
	assert.InDelta(t, 0.5, modularity, 1e-9)
}

func TestExecuteSentinelResults(t *testing.T) {
	emptyFile := filepath.Join(t.TempDir(), "empty.net")
	require.NoError(t, os.WriteFile(emptyFile, []byte("*Vertices 0\n"), 0o644))

	badConfig := NewConfig()
	badConfig.Set("algorithm.modularity_resolution", -1.0)

	tests := []struct {
		name string
		run  func() ([]int, float64, error)
		want error
	}{
		{"empty file", func() ([]int, float64, error) { return ExecuteFromFile(emptyFile, quietConfig(1), quiet) }, ErrInvalidInput},
		{"missing file", func() ([]int, float64, error) {
			return ExecuteFromFile(filepath.Join(t.TempDir(), "nope.net"), quietConfig(1), quiet)
		}, ErrInvalidInput},
		{"empty matrix", func() ([]int, float64, error) { return ExecuteFromMatrix(nil, quietConfig(1), quiet) }, ErrInvalidInput},
		{"zero size", func() ([]int, float64, error) { return Execute(0, nil, false, quietConfig(1), quiet) }, ErrInvalidInput},
		{"bad edge", func() ([]int, float64, error) {
			return Execute(2, []Edge{{From: 0, To: 5, Weight: 1}}, false, quietConfig(1), quiet)
		}, ErrInvalidInput},
		{"bad config", func() ([]int, float64, error) { return Execute(6, twoTriangles(), false, badConfig, quiet) }, ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			labels, modularity, err := tt.run()
			assert.ErrorIs(t, err, tt.want)
			assert.NotNil(t, labels)
			assert.Empty(t, labels)
			assert.Equal(t, FailedModularity, modularity)
		})
	}
}
