package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/upb/ai-translator/utils"
	"go.uber.org/zap"
)

const readinessTimeout = 5 * time.Second

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// Check is an extra readiness probe reported under its name
type Check func(ctx context.Context) error

// HealthHandler serves liveness and readiness probes
type HealthHandler struct {
	db     *sql.DB
	checks map[string]Check
	logger *zap.Logger
}

// NewHealthHandler creates a HealthHandler. A nil db means evaluations and
// feedback are kept in memory and the database check is skipped.
func NewHealthHandler(db *sql.DB, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		db:     db,
		checks: make(map[string]Check),
		logger: logger,
	}
}

// AddCheck registers an additional readiness probe
func (h *HealthHandler) AddCheck(name string, check Check) {
	h.checks[name] = check
}

// HandleHealth handles GET /healthz
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	_ = utils.WriteOK(w, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// HandleReadiness handles GET /readyz
func (h *HealthHandler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	checks := make(map[string]string, len(h.checks)+1)
	healthy := true

	if h.db == nil {
		checks["storage"] = "memory"
	} else if err := checkDatabase(ctx, h.db); err != nil {
		h.logger.Warn("database readiness check failed", zap.Error(err))
		checks["database"] = "unhealthy"
		healthy = false
	} else {
		checks["database"] = "healthy"
	}

	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			h.logger.Warn("readiness check failed", zap.String("check", name), zap.Error(err))
			checks[name] = "unhealthy"
			healthy = false
			continue
		}
		checks[name] = "healthy"
	}

	status, code := "healthy", http.StatusOK
	if !healthy {
		status, code = "unhealthy", http.StatusServiceUnavailable
	}

	if err := utils.WriteJSON(w, code, utils.SuccessResponse{Data: HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	}}); err != nil {
		h.logger.Error("failed to write readiness response", zap.Error(err))
	}
}

func checkDatabase(ctx context.Context, db *sql.DB) error {
	if err := db.PingContext(ctx); err != nil {
		return err
	}
	var one int
	return db.QueryRowContext(ctx, "SELECT 1").Scan(&one)
}
