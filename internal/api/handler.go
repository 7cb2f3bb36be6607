// Package api exposes AIS computation and stored results over HTTP.
package api

import (
	"net/http"
	"strconv"
	"time"

	"infodyn/app"
	"infodyn/domain/core"
	"infodyn/internal"
	"infodyn/internal/errors"
	"infodyn/internal/report"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ComputeRequest is the body of POST /api/ais
type ComputeRequest struct {
	Source         string        `json:"source"`
	Series         [][]float64   `json:"series"`
	Realisations   [][][]float64 `json:"realisations"`
	Standardise    bool          `json:"standardise"`
	Estimator      string        `json:"estimator" binding:"omitempty,oneof=gaussian kraskov ksg"`
	K              int           `json:"k" binding:"min=0"`
	Tau            int           `json:"tau" binding:"min=0"`
	BiasCorrection *bool         `json:"bias_correction"`
	Significance   string        `json:"significance" binding:"omitempty,oneof=auto analytic permutation none"`
	Permutations   int           `json:"permutations" binding:"min=0"`
	Seed           int64         `json:"seed"`
	Alpha          float64       `json:"alpha" binding:"min=0,lt=1"`
	Locals         bool          `json:"locals"`
}

func (r ComputeRequest) toAnalysis() app.AnalysisRequest {
	return app.AnalysisRequest{
		Source:         r.Source,
		Series:         r.Series,
		Realisations:   r.Realisations,
		Standardise:    r.Standardise,
		Estimator:      r.Estimator,
		K:              r.K,
		Tau:            r.Tau,
		BiasCorrection: r.BiasCorrection,
		Significance:   app.SignificanceMode(r.Significance),
		Permutations:   r.Permutations,
		Seed:           r.Seed,
		Alpha:          r.Alpha,
		IncludeLocals:  r.Locals,
	}
}

// Handler serves the AIS endpoints
type Handler struct {
	svc    *app.AISService
	logger *internal.Logger
}

// NewHandler creates a handler over the AIS service
func NewHandler(svc *app.AISService, logger *internal.Logger) *Handler {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Handler{svc: svc, logger: logger.WithComponent("API")}
}

// UIPrefix is where NewRouter mounts the HTML UI
const UIPrefix = "/ui"

// NewRouter builds the gin engine with every route registered. A non-nil ui
// handler is mounted under UIPrefix.
func NewRouter(svc *app.AISService, logger *internal.Logger, ui http.Handler) *gin.Engine {
	h := NewHandler(svc, logger)
	router := gin.New()
	router.Use(gin.Recovery(), h.requestLogger())
	h.RegisterRoutes(router)
	if ui != nil {
		router.Any(UIPrefix+"/*path", gin.WrapH(http.StripPrefix(UIPrefix, ui)))
	}
	return router
}

// RegisterRoutes adds the handler's routes to router
func (h *Handler) RegisterRoutes(router gin.IRouter) {
	router.GET("/healthz", h.health)

	api := router.Group("/api")
	api.POST("/ais", h.compute)
	api.GET("/results", h.listResults)
	api.GET("/results/:id", h.getResult)
	api.GET("/results/:id/report", h.getReport)
}

func (h *Handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		h.logger.Debug("%s %s %d %.2fms", c.Request.Method, c.Request.URL.Path,
			c.Writer.Status(), float64(time.Since(start).Microseconds())/1000)
	}
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) compute(c *gin.Context) {
	var req ComputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, errors.ValidationError(err.Error()))
		return
	}

	out, err := h.svc.Compute(c.Request.Context(), req.toAnalysis())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

func (h *Handler) listResults(c *gin.Context) {
	limit := 50
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			h.writeError(c, errors.InvalidInput("limit must be a non-negative integer"))
			return
		}
		limit = n
	}

	results, err := h.svc.ListResults(c.Request.Context(), limit)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results, "count": len(results)})
}

func (h *Handler) getResult(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	res, err := h.svc.GetResult(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) getReport(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	res, err := h.svc.GetResult(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	md := report.Markdown(res, report.Details{})
	c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(md))
}

func (h *Handler) parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := core.ParseResultID(c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return uuid.Nil, false
	}
	return id, true
}

// writeError answers with the status mapped from the error's code
func (h *Handler) writeError(c *gin.Context, err error) {
	appErr := errors.FromDomain(err)
	status := errors.HTTPStatus(appErr.Code)
	if status >= http.StatusInternalServerError {
		h.logger.Error("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, gin.H{
		"error": gin.H{
			"code":    appErr.Code,
			"message": appErr.Error(),
		},
	})
}
