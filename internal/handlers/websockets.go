package handlers

import (
	"context"
	"net/http"
	"time"

	"todo_service/internal/logger"
	"todo_service/internal/metrics"
	"todo_service/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait       = 10 * time.Second
	pongWait        = 60 * time.Second
	pingPeriod      = (pongWait * 9) / 10
	maxMsgSize      = 1 << 12
	defaultInterval = time.Second
	maxInterval     = 10 * time.Second
)

// Message types sent on the feed.
const (
	feedTodos = "todos"
	feedError = "error"
)

type wsEnvelope struct {
	Type  string `json:"type"`
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

// Requests are already authenticated by bearer token, so any origin may connect.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// @Summary      Live todo feed
// @Description  WebSocket stream of the caller's todo list, sent on connect and every interval (?interval=2s, max 10s).
// @Tags         todos
// @Param        interval  query  string  false  "Push interval, e.g. 2s"
// @Success      101
// @Failure      401  {object}  map[string]string
// @Router       /ws/todos [get]
// @Security     BearerAuth
func (h *Handler) todoFeed(c *gin.Context) {
	interval := feedInterval(c.Query("interval"))
	userID := callerID(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Errorw("ws_upgrade_failed", "user_id", userID, "err", err)
		return
	}
	defer func() { _ = conn.Close() }()

	metrics.FeedConnections.Inc()
	defer metrics.FeedConnections.Dec()

	f := &feed{conn: conn, todos: h.services, log: h.log, userID: userID}
	f.run(c.Request.Context(), interval)
}

// feedInterval parses a positive duration up to maxInterval; anything else
// yields the default.
func feedInterval(raw string) time.Duration {
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 || d > maxInterval {
		return defaultInterval
	}
	return d
}

// feed is one subscriber's connection. Only run's goroutine writes to conn.
type feed struct {
	conn   *websocket.Conn
	todos  service.Todo
	log    *logger.Logger
	userID string
}

func (f *feed) run(ctx context.Context, interval time.Duration) {
	f.conn.SetReadLimit(maxMsgSize)
	_ = f.conn.SetReadDeadline(time.Now().Add(pongWait))
	f.conn.SetPongHandler(func(string) error {
		return f.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	closed := f.watchClose()

	if err := f.push(ctx); err != nil {
		f.log.Infow("ws_push_failed", "user_id", f.userID, "err", err)
		return
	}

	push := time.NewTicker(interval)
	defer push.Stop()
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		var err error
		select {
		case <-closed:
			return
		case <-ctx.Done():
			return
		case <-ping.C:
			err = f.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
		case <-push.C:
			err = f.push(ctx)
		}
		if err != nil {
			f.log.Infow("ws_push_failed", "user_id", f.userID, "err", err)
			return
		}
	}
}

// watchClose discards client frames so control messages are processed and
// closes the returned channel once the peer goes away.
func (f *feed) watchClose() <-chan struct{} {
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := f.conn.NextReader(); err != nil {
				f.log.Debugw("ws_read_closed", "user_id", f.userID, "err", err)
				return
			}
		}
	}()
	return closed
}

// push writes the caller's current list. A lookup failure is reported to the
// client as an error envelope before the connection is dropped.
func (f *feed) push(ctx context.Context) error {
	todos, err := f.todos.List(ctx, f.userID)
	_ = f.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err != nil {
		f.log.Errorw("ws_list_todos_failed", "user_id", f.userID, "err", err)
		_ = f.conn.WriteJSON(wsEnvelope{Type: feedError, Error: errInternal})
		return err
	}
	return f.conn.WriteJSON(wsEnvelope{Type: feedTodos, Data: todos})
}
