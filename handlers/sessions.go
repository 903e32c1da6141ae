package handlers

import (
	"context"
	"net/http"
	"time"

	"daresni/models"
	"daresni/services/identity"
	"daresni/services/metrics"
	"daresni/services/sessions"
	"daresni/utils"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	feedWriteWait  = 10 * time.Second
	feedPongWait   = 60 * time.Second
	feedPingPeriod = feedPongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// FeedMessage is one frame of a live sessions feed.
type FeedMessage struct {
	Type     string               `json:"type"`
	Sessions []models.SessionView `json:"sessions,omitempty"`
	Error    string               `json:"error,omitempty"`
}

// SessionHandler serves the upcoming, history and request lists, one-shot
// and as WebSocket feeds.
type SessionHandler struct {
	Service sessions.SessionService
	Metrics *metrics.Service
	Logger  *zap.Logger
}

func NewSessionHandler(svc sessions.SessionService, m *metrics.Service, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{Service: svc, Metrics: m, Logger: logger}
}

type listFunc func(ctx context.Context, id *identity.Identity) ([]models.SessionView, error)

type watchFunc func(ctx context.Context, id *identity.Identity) (*sessions.Feed, error)

func (h *SessionHandler) UpcomingHandler(c *gin.Context) {
	h.list(c, func(ctx context.Context, id *identity.Identity) ([]models.SessionView, error) {
		return h.Service.UpcomingFor(ctx, id.Role, id.UID)
	})
}

func (h *SessionHandler) HistoryHandler(c *gin.Context) {
	h.list(c, func(ctx context.Context, id *identity.Identity) ([]models.SessionView, error) {
		return h.Service.HistoryFor(ctx, id.Role, id.UID)
	})
}

func (h *SessionHandler) RequestsHandler(c *gin.Context) {
	h.list(c, func(ctx context.Context, id *identity.Identity) ([]models.SessionView, error) {
		return h.Service.RequestsFor(ctx, id.UID)
	})
}

func (h *SessionHandler) UpcomingLiveHandler(c *gin.Context) {
	h.live(c, "upcoming", func(ctx context.Context, id *identity.Identity) (*sessions.Feed, error) {
		return h.Service.WatchUpcoming(ctx, id.Role, id.UID)
	})
}

func (h *SessionHandler) HistoryLiveHandler(c *gin.Context) {
	h.live(c, "history", func(ctx context.Context, id *identity.Identity) (*sessions.Feed, error) {
		return h.Service.WatchHistory(ctx, id.Role, id.UID)
	})
}

func (h *SessionHandler) RequestsLiveHandler(c *gin.Context) {
	h.live(c, "requests", func(ctx context.Context, id *identity.Identity) (*sessions.Feed, error) {
		return h.Service.WatchRequests(ctx, id.UID)
	})
}

func (h *SessionHandler) list(c *gin.Context, fetch listFunc) {
	id, ok := mustIdentity(c, h.Logger)
	if !ok {
		return
	}
	views, err := fetch(c.Request.Context(), id)
	if err != nil {
		utils.JSONError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": views, "count": len(views)})
}

// live opens the feed before upgrading so that scope and store errors are
// still answered as JSON. The feed is released when the client goes away.
func (h *SessionHandler) live(c *gin.Context, view string, open watchFunc) {
	id, ok := mustIdentity(c, h.Logger)
	if !ok {
		return
	}
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	feed, err := open(ctx, id)
	if err != nil {
		utils.JSONError(c, h.Logger, err)
		return
	}
	defer feed.Close()

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.Logger.Warn("WebSocket upgrade failed", zap.String("view", view), zap.Error(err))
		return
	}
	defer conn.Close()

	done := h.Metrics.LiveFeedOpened()
	defer done()
	logger := h.Logger.With(zap.String("view", view), zap.String("uid", id.UID))
	logger.Info("Live sessions feed opened")

	go readUntilClosed(conn, cancel)

	ticker := time.NewTicker(feedPingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Info("Live sessions feed closed")
			return
		case views, ok := <-feed.Updates():
			if !ok {
				msg := FeedMessage{Type: "closed"}
				if err := feed.Err(); err != nil {
					logger.Error("Live sessions feed failed", zap.Error(err))
					msg = FeedMessage{Type: "error", Error: "live updates are unavailable"}
				}
				_ = writeFrame(conn, msg)
				return
			}
			if err := writeFrame(conn, FeedMessage{Type: "snapshot", Sessions: views}); err != nil {
				logger.Debug("Live sessions write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(feedWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func writeFrame(conn *websocket.Conn, msg FeedMessage) error {
	_ = conn.SetWriteDeadline(time.Now().Add(feedWriteWait))
	return conn.WriteJSON(msg)
}

// readUntilClosed drains client frames so pongs and close frames are
// processed, and cancels the feed once the connection drops.
func readUntilClosed(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	_ = conn.SetReadDeadline(time.Now().Add(feedPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(feedPongWait))
	})
	for {
		if _, _, err := conn.NextReader(); err != nil {
			return
		}
	}
}
