package combo

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// Snapshot is the state of a run right after an accepted move.
type Snapshot struct {
	RunID       string  `json:"run_id"`
	Round       int     `json:"round"`
	MoveNumber  int     `json:"move"`
	Kind        string  `json:"kind"`
	Origin      int     `json:"origin"`
	Dest        int     `json:"dest"`
	Moved       int     `json:"moved"`
	Gain        float64 `json:"gain"`
	Modularity  float64 `json:"modularity"`
	Communities int     `json:"communities"`
	Labels      []int   `json:"labels"`
	Timestamp   int64   `json:"timestamp"`
}

// Sink receives intermediate results.
type Sink interface {
	Record(s Snapshot) error
}

// FileTracker appends one JSON line per snapshot to a file.
type FileTracker struct {
	file    *os.File
	encoder *json.Encoder
}

// NewFileTracker creates (or truncates) path.
func NewFileTracker(path string) (*FileTracker, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create intermediate results file: %w", err)
	}

	return &FileTracker{
		file:    file,
		encoder: json.NewEncoder(file),
	}, nil
}

func (ft *FileTracker) Record(s Snapshot) error {
	if ft == nil {
		return nil
	}
	if s.Timestamp == 0 {
		s.Timestamp = time.Now().Unix()
	}
	return ft.encoder.Encode(s)
}

func (ft *FileTracker) Close() error {
	if ft != nil && ft.file != nil {
		return ft.file.Close()
	}
	return nil
}

// MemoryTracker keeps snapshots in memory.
type MemoryTracker struct {
	mu        sync.Mutex
	snapshots []Snapshot
}

func NewMemoryTracker() *MemoryTracker {
	return &MemoryTracker{}
}

func (mt *MemoryTracker) Record(s Snapshot) error {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	s.Labels = append([]int(nil), s.Labels...)
	mt.snapshots = append(mt.snapshots, s)
	return nil
}

// Snapshots returns a copy of everything recorded so far.
func (mt *MemoryTracker) Snapshots() []Snapshot {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	return append([]Snapshot(nil), mt.snapshots...)
}
