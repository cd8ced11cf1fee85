package ws

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/cygnusterm/cygnus/internal/infrastructure/logging"
	"github.com/cygnusterm/cygnus/internal/infrastructure/monitoring"
	"github.com/cygnusterm/cygnus/internal/shell"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 50 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Same-host display layer; origins filtered by CORS upstream
	},
}

// Handler streams live output-line and shell-notification events to
// connected display clients. Delivery is at-most-once: a slow client's
// events are dropped by the hub and the client catches up via GET /history.
type Handler struct {
	shell   *shell.Manager
	metrics *monitoring.Metrics
	logger  *logging.Logger
}

// NewHandler creates a new WebSocket handler.
func NewHandler(manager *shell.Manager, metrics *monitoring.Metrics, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Handler{shell: manager, metrics: metrics, logger: logger}
}

// HandleConnection upgrades the request and pumps events until the client
// disconnects.
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	sub := h.shell.Subscribe()
	defer h.shell.Unsubscribe(sub)

	if h.metrics != nil {
		h.metrics.ConnectionOpened()
		defer h.metrics.ConnectionClosed()
	}
	h.logger.Info("Live event subscriber connected", zap.String("remote", conn.RemoteAddr().String()))

	hello := map[string]interface{}{
		"event":   "system",
		"message": "Connected to Cygnus Shell Service",
	}
	if err := h.write(conn, hello); err != nil {
		return
	}

	// Reader goroutine: we expect no client messages, but the read loop
	// surfaces disconnects and answers protocol pings.
	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadLimit(512)
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			conn.SetReadDeadline(time.Now().Add(pongWait))
			return nil
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-sub.C:
			if !ok {
				return
			}
			if err := h.write(conn, ev); err != nil {
				h.logger.Debug("Live event write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func (h *Handler) write(conn *websocket.Conn, data interface{}) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(data)
}
