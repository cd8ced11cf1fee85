package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cygnusterm/cygnus/internal/infrastructure/logging"
	"github.com/cygnusterm/cygnus/internal/infrastructure/monitoring"
	"github.com/cygnusterm/cygnus/internal/shell"
)

// Handlers contains all HTTP handlers for the shell service.
type Handlers struct {
	shell   *shell.Manager
	metrics *monitoring.Metrics
	logger  *logging.Logger
	started time.Time
}

// NewHandlers creates a new handler set.
func NewHandlers(manager *shell.Manager, metrics *monitoring.Metrics, logger *logging.Logger) *Handlers {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Handlers{
		shell:   manager,
		metrics: metrics,
		logger:  logger,
		started: time.Now(),
	}
}

// Root handles the service banner.
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "Cygnus Shell Service",
		"version": "0.3.0",
	})
}

// Health handles detailed health check.
func (h *Handlers) Health(c *gin.Context) {
	state := h.shell.State()
	status := "healthy"
	if state == shell.StateCrashed {
		status = "degraded"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":         status,
		"busy":           h.shell.Busy(),
		"session_state":  state.String(),
		"uptime_seconds": int64(time.Since(h.started).Seconds()),
	})
}

// Execute runs one shell command to completion and streams its output to
// history and the live event stream while this request is in flight.
func (h *Handlers) Execute(c *gin.Context) {
	var req shell.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	result, err := h.shell.Execute(req)
	if err != nil {
		switch {
		case errors.Is(err, shell.ErrEmptyCommand):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Command cannot be empty"})
		case errors.Is(err, shell.ErrInvalidPath):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, shell.ErrBusy):
			c.JSON(http.StatusConflict, gin.H{"error": "Command already running"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

// Cancel sends an interrupt to the running command.
func (h *Handlers) Cancel(c *gin.Context) {
	if err := h.shell.Cancel(); err != nil {
		if errors.Is(err, shell.ErrNotRunning) {
			c.JSON(http.StatusConflict, gin.H{"error": "No command currently running"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "interrupt sent"})
}

// History returns a full snapshot of the history buffer.
func (h *Handlers) History(c *gin.Context) {
	lines := h.shell.History()
	c.JSON(http.StatusOK, gin.H{
		"lines": lines,
		"count": len(lines),
	})
}

// Cwd returns the session's current working directory.
func (h *Handlers) Cwd(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"cwd": h.shell.Cwd()})
}

// ChangeDirectory updates the session working directory.
func (h *Handlers) ChangeDirectory(c *gin.Context) {
	var req struct {
		Path string `json:"path" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	cwd, err := h.shell.ChangeDirectory(req.Path)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"cwd": cwd})
}

// Home returns the user's home directory.
func (h *Handlers) Home(c *gin.Context) {
	home, err := h.shell.HomeDir()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"home": home})
}

// MetricsJSON returns a small JSON snapshot of service counters.
func (h *Handlers) MetricsJSON(c *gin.Context) {
	c.JSON(http.StatusOK, h.metrics.GetSnapshot())
}
