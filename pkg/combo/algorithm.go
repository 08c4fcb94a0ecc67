package combo

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Move kinds reported in snapshots and trace lines.
const (
	KindSplit        = "split"
	KindReassignment = "reassignment"
	KindMerge        = "merge"
	KindCeilingMerge = "ceiling_merge"
)

// Result represents the algorithm output
type Result struct {
	RunID          string     `json:"run_id" yaml:"run_id"`
	Labels         []int      `json:"labels" yaml:"labels"`
	Modularity     float64    `json:"modularity" yaml:"modularity"`
	NumCommunities int        `json:"num_communities" yaml:"num_communities"`
	Statistics     Statistics `json:"statistics" yaml:"statistics"`
}

// Statistics contains algorithm performance metrics
type Statistics struct {
	Seed              int64   `json:"seed" yaml:"seed"`
	Rounds            int     `json:"rounds" yaml:"rounds"`
	Moves             int     `json:"moves" yaml:"moves"`
	Splits            int     `json:"splits" yaml:"splits"`
	Reassignments     int     `json:"reassignments" yaml:"reassignments"`
	Merges            int     `json:"merges" yaml:"merges"`
	InitialModularity float64 `json:"initial_modularity" yaml:"initial_modularity"`
	RuntimeMS         int64   `json:"runtime_ms" yaml:"runtime_ms"`
}

// Algorithm runs the split/merge search. It keeps no state between runs
// unless a shared random source is injected with WithRand.
type Algorithm struct {
	config *Config
	logger zerolog.Logger
	sink   Sink
	rng    *rand.Rand
}

// Option customizes an Algorithm.
type Option func(*Algorithm)

// WithSink sends a snapshot after every improving move. It takes precedence
// over output.intermediate_results_path.
func WithSink(s Sink) Option {
	return func(a *Algorithm) { a.sink = s }
}

// WithLogger replaces the logger built from the config.
func WithLogger(l zerolog.Logger) Option {
	return func(a *Algorithm) { a.logger = l }
}

// WithRand fixes the random source instead of seeding one per run.
func WithRand(rng *rand.Rand) Option {
	return func(a *Algorithm) { a.rng = rng }
}

// NewAlgorithm validates config and returns an algorithm ready to run.
func NewAlgorithm(config *Config, opts ...Option) (*Algorithm, error) {
	if config == nil {
		config = NewConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	a := &Algorithm{
		config: config,
		logger: config.CreateLogger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// run holds the per-call state of one optimization.
type run struct {
	*Algorithm
	id        string
	graph     *Graph
	partition *Partition
	refiner   *SplitRefiner
	merger    *MergeEvaluator
	sink      Sink
	ceiling   int
	round     int
	stats     Statistics
}

// Run optimizes g from the configured seed partition.
func (a *Algorithm) Run(g *Graph) (*Result, error) {
	if g == nil || g.Size() == 0 {
		return nil, ErrEmptyGraph
	}
	return a.optimize(g, NewPartition(g, a.config.StartSeparate()))
}

// RunFrom optimizes g starting from an existing labeling.
func (a *Algorithm) RunFrom(g *Graph, labels []int) (*Result, error) {
	if g == nil || g.Size() == 0 {
		return nil, ErrEmptyGraph
	}
	p, err := NewPartitionFromLabels(g, labels)
	if err != nil {
		return nil, err
	}
	return a.optimize(g, p)
}

func (a *Algorithm) optimize(g *Graph, p *Partition) (*Result, error) {
	startTime := time.Now()

	r := &run{
		Algorithm: a,
		id:        uuid.New().String(),
		graph:     g,
		partition: p,
		merger:    NewMergeEvaluator(),
		sink:      a.sink,
		ceiling:   a.config.ceiling(g.Size()),
	}

	rng := a.rng
	if rng == nil {
		r.stats.Seed = a.config.RandomSeed()
		rng = rand.New(rand.NewSource(r.stats.Seed))
	}
	r.refiner = NewSplitRefiner(a.config.NumSplitAttempts(), a.config.FixedSplitStep(), rng)

	if r.sink == nil {
		if path := a.config.IntermediateResultsPath(); path != "" {
			tracker, err := NewFileTracker(path)
			if err != nil {
				return nil, err
			}
			defer tracker.Close()
			r.sink = tracker
		}
	}

	a.lifecycle().
		Str("run_id", r.id).
		Int("nodes", g.Size()).
		Float64("total_weight", g.TotalWeight()).
		Int("max_communities", r.ceiling).
		Msg("Starting Combo algorithm")

	r.enforceCeiling()
	r.stats.InitialModularity = p.Modularity()

	for {
		r.round++
		accepted := r.improvingRound()
		r.trace(zerolog.DebugLevel).
			Int("round", r.round).
			Int("accepted", accepted).
			Int("communities", p.NumCommunities()).
			Float64("modularity", p.Modularity()).
			Msg("Round completed")
		if accepted == 0 {
			break
		}
	}
	r.stats.Rounds = r.round

	p.Recompute()
	result := &Result{
		RunID:          r.id,
		Labels:         p.Labels(),
		Modularity:     p.Modularity(),
		NumCommunities: p.NumCommunities(),
		Statistics:     r.stats,
	}
	result.Statistics.RuntimeMS = time.Since(startTime).Milliseconds()

	a.lifecycle().
		Str("run_id", r.id).
		Int("communities", result.NumCommunities).
		Int("moves", result.Statistics.Moves).
		Float64("modularity", result.Modularity).
		Int64("runtime_ms", result.Statistics.RuntimeMS).
		Msg("Combo algorithm completed")

	return result, nil
}

// enforceCeiling merges the least harmful pairs until a seed that exceeds
// the community ceiling fits under it.
func (r *run) enforceCeiling() {
	for r.partition.NumCommunities() > r.ceiling {
		m, ok := r.merger.Cheapest(r.partition)
		if !ok {
			return
		}
		gain := r.partition.Merge(m.Dst, m.Src)
		r.trace(zerolog.DebugLevel).
			Str("kind", KindCeilingMerge).
			Int("dst", m.Dst).
			Int("src", m.Src).
			Float64("gain", gain).
			Msg("Merged to respect community ceiling")
	}
}

// improvingRound tries every community once, then the best merge, and
// returns the number of accepted moves.
func (r *run) improvingRound() int {
	accepted := 0
	for _, c := range r.partition.Active() {
		if r.partition.Size(c) == 0 {
			continue
		}
		move, kind, ok := r.bestTransfer(c)
		if !ok {
			continue
		}
		if move.Dest == NewCommunity {
			move.Dest = r.partition.NewCommunity()
		}
		gain := r.partition.Move(move.Nodes, move.Dest)
		if kind == KindSplit {
			r.stats.Splits++
		} else {
			r.stats.Reassignments++
		}
		r.report(kind, move.Origin, move.Dest, len(move.Nodes), gain)
		accepted++
	}

	if m, ok := r.merger.Best(r.partition); ok {
		moved := r.partition.Size(m.Src)
		gain := r.partition.Merge(m.Dst, m.Src)
		r.stats.Merges++
		r.report(KindMerge, m.Src, m.Dst, moved, gain)
		accepted++
	}
	return accepted
}

// bestTransfer picks the best of a split of c (while under the ceiling) and
// a partial or full reassignment of c into every other community.
func (r *run) bestTransfer(c int) (Move, string, bool) {
	var best Move
	kind := ""
	if r.partition.NumCommunities() < r.ceiling {
		if m, ok := r.refiner.Refine(r.partition, c, NewCommunity); ok {
			best, kind = m, KindSplit
		}
	}
	for _, d := range r.partition.Active() {
		if d == c {
			continue
		}
		if m, ok := r.refiner.Refine(r.partition, c, d); ok && (kind == "" || m.Gain > best.Gain) {
			best, kind = m, KindReassignment
		}
	}
	return best, kind, kind != ""
}

func (r *run) report(kind string, origin, dest, moved int, gain float64) {
	r.stats.Moves++
	q := r.partition.Modularity()

	r.trace(zerolog.InfoLevel).
		Int("round", r.round).
		Str("kind", kind).
		Int("origin", origin).
		Int("dest", dest).
		Int("moved", moved).
		Float64("gain", gain).
		Float64("modularity", q).
		Msg("Accepted move")

	if r.sink == nil {
		return
	}
	err := r.sink.Record(Snapshot{
		RunID:       r.id,
		Round:       r.round,
		MoveNumber:  r.stats.Moves,
		Kind:        kind,
		Origin:      origin,
		Dest:        dest,
		Moved:       moved,
		Gain:        gain,
		Modularity:  q,
		Communities: r.partition.NumCommunities(),
		Labels:      r.partition.Labels(),
	})
	if err != nil {
		r.logger.Warn().Err(err).Str("run_id", r.id).Msg("Failed to record intermediate result")
	}
}

// lifecycle returns the event for run start and completion lines: Info when
// tracing, Debug otherwise.
func (a *Algorithm) lifecycle() *zerolog.Event {
	if a.config.Verbose() > 0 {
		return a.logger.Info()
	}
	return a.logger.Debug()
}

// trace returns a log event only when verbose tracing is on. A nil event
// discards everything chained onto it.
func (r *run) trace(level zerolog.Level) *zerolog.Event {
	if r.config.Verbose() <= 0 {
		return nil
	}
	return r.logger.WithLevel(level)
}

// String summarizes a result for logs and the CLI.
func (res *Result) String() string {
	return fmt.Sprintf("%d communities, modularity %.6f", res.NumCommunities, res.Modularity)
}
