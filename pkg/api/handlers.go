package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/gilchrisn/combo-clustering/pkg/combo"
)

// maxRequestBytes bounds a partition request body.
const maxRequestBytes = 64 << 20

// PartitionRequest carries a graph either as an edge list over Size nodes or
// as a dense Matrix. Options override the server configuration for this
// request only.
type PartitionRequest struct {
	Size     int              `json:"size" validate:"gte=0"`
	Edges    []combo.Edge     `json:"edges"`
	Directed bool             `json:"directed"`
	Matrix   [][]float64      `json:"matrix"`
	Options  PartitionOptions `json:"options"`
}

// PartitionOptions mirror the algorithm.* configuration keys.
type PartitionOptions struct {
	ModularityResolution *float64 `json:"modularity_resolution" validate:"omitempty,gt=0"`
	MaxCommunities       *int     `json:"max_communities" validate:"omitempty,eq=-1|gte=1"`
	NumSplitAttempts     *int     `json:"num_split_attempts" validate:"omitempty,gte=0"`
	FixedSplitStep       *int     `json:"fixed_split_step" validate:"omitempty,gte=0"`
	StartSeparate        *bool    `json:"start_separate"`
	TreatAsModularity    *bool    `json:"treat_as_modularity"`
	RandomSeed           *int64   `json:"random_seed"`
}

// Handlers contains HTTP request handlers
type Handlers struct {
	config    *combo.Config
	logger    zerolog.Logger
	validate  *validator.Validate
	startedAt time.Time
}

// NewHandlers creates handlers that start every request from config. Graphs
// larger than config.MaxNodes() are rejected before any matrix is allocated.
func NewHandlers(config *combo.Config, logger zerolog.Logger) *Handlers {
	if config == nil {
		config = combo.NewConfig()
	}
	return &Handlers{
		config:    config,
		logger:    logger,
		validate:  validator.New(),
		startedAt: time.Now(),
	}
}

// Partition runs the algorithm on the posted graph.
func (h *Handlers) Partition(w http.ResponseWriter, r *http.Request) {
	var req PartitionRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "Invalid JSON request body", err)
		return
	}

	if fieldErrors := h.validateRequest(&req); len(fieldErrors) > 0 {
		WriteValidationErrorResponse(w, "Invalid partition request", fieldErrors)
		return
	}

	config := h.requestConfig(req.Options)
	if err := config.Validate(); err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "Invalid algorithm options", err)
		return
	}

	var (
		graph *combo.Graph
		err   error
	)
	if req.Matrix != nil {
		graph, err = combo.NewGraphFromMatrix(req.Matrix, config.Resolution(), config.TreatAsModularity())
	} else {
		graph, err = combo.NewGraphFromEdges(req.Size, req.Edges, req.Directed, config.Resolution(), config.TreatAsModularity())
	}
	if err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "Invalid graph", err)
		return
	}

	algo, err := combo.NewAlgorithm(config, combo.WithLogger(h.logger))
	if err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "Invalid algorithm options", err)
		return
	}

	result, err := algo.Run(graph)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, combo.ErrInvalidInput) {
			status = http.StatusBadRequest
		}
		h.logger.Error().Err(err).Int("nodes", graph.Size()).Msg("Partition failed")
		WriteErrorResponse(w, status, "Partition failed", err)
		return
	}

	WriteSuccessResponse(w, "Partition completed", result)
}

// HealthCheck reports that the server is up.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	WriteSuccessResponse(w, "Service is healthy", map[string]interface{}{
		"status":     "healthy",
		"uptime_sec": int64(time.Since(h.startedAt).Seconds()),
	})
}

func (h *Handlers) validateRequest(req *PartitionRequest) FieldErrors {
	fieldErrors := make(FieldErrors)

	if err := h.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			fieldErrors["request"] = err.Error()
			return fieldErrors
		}
		for _, fe := range verrs {
			fieldErrors[fe.Namespace()] = fe.Tag()
		}
	}

	switch {
	case req.Matrix == nil && req.Size == 0:
		fieldErrors["PartitionRequest.Size"] = "required_without_matrix"
	case req.Matrix != nil && (req.Size != 0 || len(req.Edges) > 0):
		fieldErrors["PartitionRequest.Matrix"] = "excluded_with_edges"
	}

	limit := h.config.MaxNodes()
	if req.Size > limit {
		fieldErrors["PartitionRequest.Size"] = fmt.Sprintf("lte=%d", limit)
	}
	if len(req.Matrix) > limit {
		fieldErrors["PartitionRequest.Matrix"] = fmt.Sprintf("lte=%d", limit)
	}
	return fieldErrors
}

// requestConfig layers the request options over the server configuration.
// Snapshot files are never written for HTTP requests.
func (h *Handlers) requestConfig(opts PartitionOptions) *combo.Config {
	config := h.config.Clone()
	config.Set("output.intermediate_results_path", "")

	if opts.ModularityResolution != nil {
		config.Set("algorithm.modularity_resolution", *opts.ModularityResolution)
	}
	if opts.MaxCommunities != nil {
		config.Set("algorithm.max_communities", *opts.MaxCommunities)
	}
	if opts.NumSplitAttempts != nil {
		config.Set("algorithm.num_split_attempts", *opts.NumSplitAttempts)
	}
	if opts.FixedSplitStep != nil {
		config.Set("algorithm.fixed_split_step", *opts.FixedSplitStep)
	}
	if opts.StartSeparate != nil {
		config.Set("algorithm.start_separate", *opts.StartSeparate)
	}
	if opts.TreatAsModularity != nil {
		config.Set("algorithm.treat_as_modularity", *opts.TreatAsModularity)
	}
	if opts.RandomSeed != nil {
		config.Set("algorithm.random_seed", *opts.RandomSeed)
	}
	return config
}
