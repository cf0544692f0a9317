package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"lessonarchiver/internal/contextutil"
)

// HealthCheck probes one dependency.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// HealthHandler handles HTTP requests for health checks.
type HealthHandler struct {
	checks             []HealthCheck
	pending            func(ctx context.Context) (int64, error)
	healthCheckTimeout time.Duration
}

// NewHealthHandler creates a new HealthHandler. pending reports the number of
// index tasks waiting for delivery and may be nil.
func NewHealthHandler(checks []HealthCheck, pending func(ctx context.Context) (int64, error)) *HealthHandler {
	return &HealthHandler{
		checks:             checks,
		pending:            pending,
		healthCheckTimeout: 5 * time.Second,
	}
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	// Overall health status: "healthy" or "unhealthy"
	Status string `json:"status"`

	// Timestamp of the health check
	Timestamp string `json:"timestamp"`

	// Individual check results
	Checks map[string]string `json:"checks"`

	// Index tasks still waiting for delivery
	PendingIndexTasks int64 `json:"pendingIndexTasks"`

	// List of issues (only present if status is unhealthy)
	Issues []string `json:"issues,omitempty"`
}

// ServeHTTP handles HTTP requests for health checks.
//
// Returns 200 OK if every dependency answers, 503 Service Unavailable otherwise.
// A backlog of index tasks is reported but does not make the service unhealthy.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodGet {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	checkCtx, cancel := context.WithTimeout(ctx, h.healthCheckTimeout)
	defer cancel()

	checks := make(map[string]string, len(h.checks))
	var issues []string
	for _, check := range h.checks {
		if h.runCheck(checkCtx, logger, check) {
			checks[check.Name] = "ok"
		} else {
			checks[check.Name] = "error"
			issues = append(issues, check.Name+"_unavailable")
		}
	}

	status := "healthy"
	httpStatus := http.StatusOK
	if len(issues) > 0 {
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}

	response := HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
		Issues:    issues,
	}
	if h.pending != nil {
		n, err := h.pending(checkCtx)
		if err != nil {
			logger.WarnContext(ctx, "failed to count pending index tasks", "error", err)
		}
		response.PendingIndexTasks = n
	}

	writeJSON(ctx, w, httpStatus, response)
}

func (h *HealthHandler) runCheck(ctx context.Context, logger *slog.Logger, check HealthCheck) bool {
	if err := check.Check(ctx); err != nil {
		logger.WarnContext(ctx, "health check failed", "check", check.Name, "error", err)
		return false
	}
	return true
}
