package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/gilchrisn/combo-clustering/pkg/combo"
)

const trianglesNet = `*Vertices 6
*Edges
1 2
2 3
3 1
4 5
5 6
6 4
`

func writeGraph(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "triangles.net")
	require.NoError(t, os.WriteFile(path, []byte(trianglesNet), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append(args, "--log-level", "disabled"))
	err := root.Execute()
	return out.String(), err
}

func TestRootCmd_Definition(t *testing.T) {
	root := newRootCmd()
	assert.Equal(t, "combo", root.Use)

	for name := range flagKeys {
		assert.NotNil(t, root.PersistentFlags().Lookup(name), name)
	}

	names := make([]string, 0)
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Contains(t, names, "partition")
	assert.Contains(t, names, "serve")
}

func TestPartitionCmd_Text(t *testing.T) {
	out, err := execute(t, "partition", writeGraph(t), "--seed", "3")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 8)
	assert.Equal(t, "# communities: 2", lines[0])
	assert.Equal(t, "# modularity: 0.500000", lines[1])
	assert.Equal(t, "0 0", lines[2])
	assert.Equal(t, "5 1", lines[7])
}

func TestPartitionCmd_JSON(t *testing.T) {
	out, err := execute(t, "partition", writeGraph(t), "--format", "json")
	require.NoError(t, err)

	var result combo.Result
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, []int{0, 0, 0, 1, 1, 1}, result.Labels)
	assert.InDelta(t, 0.5, result.Modularity, 1e-9)
}

func TestPartitionCmd_YAMLToFile(t *testing.T) {
	output := filepath.Join(t.TempDir(), "result.yaml")
	out, err := execute(t, "partition", writeGraph(t), "-f", "yaml", "-o", output, "--max-communities", "1")
	require.NoError(t, err)
	assert.Empty(t, out)

	content, err := os.ReadFile(output)
	require.NoError(t, err)

	var result combo.Result
	require.NoError(t, yaml.Unmarshal(content, &result))
	assert.Equal(t, 1, result.NumCommunities)
	assert.Equal(t, []int{0, 0, 0, 0, 0, 0}, result.Labels)
}

func TestPartitionCmd_ConfigFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "combo.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("algorithm:\n  max_communities: 1\n"), 0o644))

	out, err := execute(t, "partition", writeGraph(t), "--config", configPath)
	require.NoError(t, err)
	assert.Contains(t, out, "# communities: 1")

	out, err = execute(t, "partition", writeGraph(t), "--config", configPath, "--max-communities=-1")
	require.NoError(t, err)
	assert.Contains(t, out, "# communities: 2")
}

func TestPartitionCmd_IntermediateResults(t *testing.T) {
	progress := filepath.Join(t.TempDir(), "progress.jsonl")
	_, err := execute(t, "partition", writeGraph(t), "--intermediate-results", progress, "--start-separate")
	require.NoError(t, err)

	content, err := os.ReadFile(progress)
	require.NoError(t, err)
	assert.NotEmpty(t, strings.TrimSpace(string(content)))
}

func TestPartitionCmd_Errors(t *testing.T) {
	graph := writeGraph(t)
	tests := []struct {
		name string
		args []string
	}{
		{"missing argument", []string{"partition"}},
		{"missing file", []string{"partition", filepath.Join(t.TempDir(), "none.net")}},
		{"bad format", []string{"partition", graph, "--format", "xml"}},
		{"bad resolution", []string{"partition", graph, "--resolution", "0"}},
		{"bad ceiling", []string{"partition", graph, "--max-communities", "0"}},
		{"missing config", []string{"partition", graph, "--config", filepath.Join(t.TempDir(), "none.yaml")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestServeCmd_RejectsInvalidMaxNodes(t *testing.T) {
	serveCmd := newServeCmd()
	flag := serveCmd.Flags().Lookup("max-nodes")
	require.NotNil(t, flag)
	assert.Equal(t, "5000", flag.DefValue)

	_, err := execute(t, "serve", "--addr", "127.0.0.1:0", "--max-nodes", "0")
	assert.ErrorIs(t, err, combo.ErrInvalidConfig)
}

func TestServe_GracefulShutdown(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	require.NoError(t, listener.Close())

	server := &http.Server{
		Addr: addr,
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}),
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, server) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusNoContent
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestServe_ListenError(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	server := &http.Server{Addr: listener.Addr().String(), Handler: http.NotFoundHandler()}
	assert.Error(t, serve(context.Background(), server))
}
