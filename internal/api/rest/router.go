package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/oshokin/sos-sentinel/internal/domain/monitoring"
	"github.com/oshokin/sos-sentinel/internal/logger"
)

// Service abstracts the daemon operations the routes depend on.
type Service interface {
	State(ctx context.Context) *monitoring.State
	SetArmed(ctx context.Context, actor *monitoring.Actor, armed bool) (*monitoring.State, error)
	ReportToggle(ctx context.Context, timestampMs int64) bool
	Trigger(ctx context.Context)
}

// StateResponse is the JSON form of the monitoring flag.
type StateResponse struct {
	Armed     bool       `json:"armed"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
	Hostname  string     `json:"hostname,omitempty"`
	Username  string     `json:"username,omitempty"`
}

// SetMonitoringRequest is the body of PUT /v1/monitoring.
type SetMonitoringRequest struct {
	Armed    *bool  `json:"armed" binding:"required"`
	Hostname string `json:"hostname"`
	Username string `json:"username"`
}

// ToggleRequest is the optional body of POST /v1/toggles.
type ToggleRequest struct {
	// TimestampMs is when the screen toggled; zero or missing means now.
	TimestampMs int64 `json:"timestamp_ms" binding:"gte=0"`
}

// ToggleResponse reports whether the toggle completed the gesture.
type ToggleResponse struct {
	Fired bool `json:"fired"`
}

// errorResponse is the body of every failed request.
type errorResponse struct {
	Error string `json:"error"`
}

// handler binds routes to a Service.
type handler struct {
	service Service
}

// NewRouter builds the gin engine. ctx carries the base logger for requests.
func NewRouter(ctx context.Context, service Service) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(ctx))

	h := &handler{service: service}

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/v1")
	{
		v1.GET("/monitoring", h.getMonitoring)
		v1.PUT("/monitoring", h.setMonitoring)
		v1.POST("/toggles", h.reportToggle)
		v1.POST("/trigger", h.trigger)
	}

	return router
}

// GET /v1/monitoring.
func (h *handler) getMonitoring(c *gin.Context) {
	c.JSON(http.StatusOK, toResponse(h.service.State(c.Request.Context())))
}

// PUT /v1/monitoring.
func (h *handler) setMonitoring(c *gin.Context) {
	var req SetMonitoringRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})

		return
	}

	var actor *monitoring.Actor
	if req.Hostname != "" || req.Username != "" {
		actor = &monitoring.Actor{Hostname: req.Hostname, Username: req.Username}
	}

	state, err := h.service.SetArmed(c.Request.Context(), actor, *req.Armed)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "unable to persist monitoring state"})

		return
	}

	c.JSON(http.StatusOK, toResponse(state))
}

// POST /v1/toggles.
func (h *handler) reportToggle(c *gin.Context) {
	var req ToggleRequest

	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})

			return
		}
	}

	fired := h.service.ReportToggle(c.Request.Context(), req.TimestampMs)

	c.JSON(http.StatusOK, ToggleResponse{Fired: fired})
}

// POST /v1/trigger.
func (h *handler) trigger(c *gin.Context) {
	h.service.Trigger(c.Request.Context())

	c.JSON(http.StatusAccepted, gin.H{"status": "dispatched"})
}

func toResponse(state *monitoring.State) StateResponse {
	resp := StateResponse{Armed: state.IsArmed()}

	if state == nil {
		return resp
	}

	if !state.Timestamp.IsZero() {
		timestamp := state.Timestamp.UTC()
		resp.Timestamp = &timestamp
	}

	if state.LastActor != nil {
		resp.Hostname = state.LastActor.Hostname
		resp.Username = state.LastActor.Username
	}

	return resp
}

// requestLogger writes one debug entry per request through the context logger.
func requestLogger(ctx context.Context) gin.HandlerFunc {
	ctx = logger.WithName(ctx, "http")

	return func(c *gin.Context) {
		start := time.Now()

		c.Request = c.Request.WithContext(logger.ToContext(c.Request.Context(), logger.FromContext(ctx)))

		c.Next()

		logger.DebugKV(ctx, "HTTP request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"client_ip", c.ClientIP(),
			"latency", time.Since(start).String())
	}
}
