package api

import (
	"net/http"
	"strconv"

	"goposterior/app"
	"goposterior/domain/core"
	"goposterior/domain/posterior"
	"goposterior/domain/run"
	"goposterior/internal"
	apperrors "goposterior/internal/errors"
	"goposterior/internal/updater"

	"github.com/gin-gonic/gin"
)

// Defaults fills request fields the caller leaves out
type Defaults struct {
	Seed       int64
	Draws      int
	Bins       int
	FallbackSD float64
	MaxDraws   int
}

// Handler serves the posterior JSON API
type Handler struct {
	engine   *updater.Engine
	sampler  *updater.Sampler
	comparer *updater.Comparer
	analysis *app.AnalysisService
	events   *RunHub
	defaults Defaults
	logger   *internal.Logger
}

// NewHandler creates a handler. analysis may be nil, in which case the run
// endpoints answer 503.
func NewHandler(engine *updater.Engine, sampler *updater.Sampler, comparer *updater.Comparer,
	analysis *app.AnalysisService, events *RunHub, defaults Defaults) *Handler {
	if defaults.MaxDraws <= 0 {
		defaults.MaxDraws = 100000
	}
	return &Handler{
		engine:   engine,
		sampler:  sampler,
		comparer: comparer,
		analysis: analysis,
		events:   events,
		defaults: defaults,
		logger:   internal.DefaultLogger.With("API"),
	}
}

// Health reports liveness
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "credible_z": updater.CredibleZ()})
}

// UpdateOne applies the method named in the path
func (h *Handler) UpdateOne(c *gin.Context) {
	method, err := posterior.ParseMethod(c.Param("method"))
	if err != nil {
		h.writeError(c, apperrors.InvalidInput(err))
		return
	}

	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error(), "code": apperrors.CodeInvalidInput})
		return
	}
	prior, obs, err := req.specs()
	if err != nil {
		h.writeError(c, err)
		return
	}

	result, err := h.engine.Update(method, prior, obs)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// UpdateAll applies every method whose inputs are present
func (h *Handler) UpdateAll(c *gin.Context) {
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error(), "code": apperrors.CodeInvalidInput})
		return
	}
	prior, obs, err := req.specs()
	if err != nil {
		h.writeError(c, err)
		return
	}

	batch, err := h.engine.UpdateAll(prior, obs)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, batch)
}

// Samples draws from one method's posterior
func (h *Handler) Samples(c *gin.Context) {
	var req SamplesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error(), "code": apperrors.CodeInvalidInput})
		return
	}
	method, err := posterior.ParseMethod(req.Method)
	if err != nil {
		h.writeError(c, apperrors.InvalidInput(err))
		return
	}
	n := req.N
	if n == 0 {
		n = h.defaults.Draws
	}
	if n > h.defaults.MaxDraws {
		c.JSON(http.StatusBadRequest, gin.H{"error": "n exceeds the draw limit of " + strconv.Itoa(h.defaults.MaxDraws), "code": apperrors.CodeInvalidInput})
		return
	}
	seed := h.defaults.Seed
	if req.Seed != nil {
		seed = *req.Seed
	}
	fallback := req.FallbackSD
	if fallback == 0 {
		fallback = h.defaults.FallbackSD
	}

	prior, obs, err := req.specs()
	if err != nil {
		h.writeError(c, err)
		return
	}
	result, err := h.engine.Update(method, prior, obs)
	if err != nil {
		h.writeError(c, err)
		return
	}

	substituted := false
	if !result.HasSD() && fallback > 0 {
		if result, err = h.engine.WithExternalSD(result, fallback); err != nil {
			h.writeError(c, err)
			return
		}
		substituted = true
	}

	draws, err := h.sampler.Draw(c.Request.Context(), result, n, seed)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, SamplesResponse{
		Method:        method,
		Seed:          seed,
		Mean:          result.Mean,
		SD:            *result.SD,
		SubstitutedSD: substituted,
		Samples:       draws,
	})
}

// Compare lays every applicable posterior on a shared density axis
func (h *Handler) Compare(c *gin.Context) {
	var req CompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error(), "code": apperrors.CodeInvalidInput})
		return
	}
	prior, obs, err := req.specs()
	if err != nil {
		h.writeError(c, err)
		return
	}

	opts := updater.DefaultCompareOptions()
	opts.Seed = h.defaults.Seed
	if req.Seed != nil {
		opts.Seed = *req.Seed
	}
	opts.Draws = firstPositive(req.Draws, h.defaults.Draws, opts.Draws)
	opts.Bins = firstPositive(req.Bins, h.defaults.Bins, opts.Bins)
	opts.FallbackSD = req.FallbackSD
	if opts.FallbackSD == 0 {
		opts.FallbackSD = h.defaults.FallbackSD
	}
	if opts.Draws > h.defaults.MaxDraws {
		c.JSON(http.StatusBadRequest, gin.H{"error": "draws exceeds the draw limit of " + strconv.Itoa(h.defaults.MaxDraws), "code": apperrors.CodeInvalidInput})
		return
	}

	batch, err := h.engine.UpdateAll(prior, obs)
	if err != nil {
		h.writeError(c, err)
		return
	}
	cmp, err := h.comparer.Compare(c.Request.Context(), batch.Results, opts)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"batch": batch, "comparison": cmp})
}

// CreateRun runs an analysis against the configured data file and stores it
func (h *Handler) CreateRun(c *gin.Context) {
	if h.analysis == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Analysis service not configured", "code": apperrors.CodeConfigInvalid})
		return
	}

	req := run.Request{Seed: h.defaults.Seed, FallbackSD: h.defaults.FallbackSD}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error(), "code": apperrors.CodeInvalidInput})
		return
	}

	res, err := h.analysis.Run(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if h.events != nil {
		h.events.Broadcast(NewRunEvent(res.Run))
	}
	c.JSON(http.StatusCreated, res)
}

// ListRuns returns stored runs, newest first
func (h *Handler) ListRuns(c *gin.Context) {
	if h.analysis == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Analysis service not configured", "code": apperrors.CodeConfigInvalid})
		return
	}

	limit := 20
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer", "code": apperrors.CodeInvalidInput})
			return
		}
		limit = parsed
	}

	runs, err := h.analysis.ListRuns(c.Request.Context(), limit)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs, "count": len(runs)})
}

// GetRun returns one stored run
func (h *Handler) GetRun(c *gin.Context) {
	if h.analysis == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Analysis service not configured", "code": apperrors.CodeConfigInvalid})
		return
	}

	id, err := core.ParseRunID(c.Param("id"))
	if err != nil {
		h.writeError(c, apperrors.InvalidInput(err))
		return
	}
	r, err := h.analysis.GetRun(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// writeError maps an error's code to an HTTP status
func (h *Handler) writeError(c *gin.Context, err error) {
	code := apperrors.GetCode(err)
	if code == "UNKNOWN" {
		code = apperrors.FromDomain(err)
	}
	status := StatusFor(code)
	if status >= http.StatusInternalServerError {
		h.logger.Error("%s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(status, gin.H{"error": err.Error(), "code": code})
}

// StatusFor returns the HTTP status for an application error code
func StatusFor(code string) int {
	switch code {
	case apperrors.CodeInvalidInput:
		return http.StatusBadRequest
	case apperrors.CodeNumericalDegeneracy, apperrors.CodeInsufficientData:
		return http.StatusUnprocessableEntity
	case apperrors.CodeNotFound:
		return http.StatusNotFound
	case apperrors.CodeConfigInvalid:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func firstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}
