package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/hirelink/internal/events"
	"github.com/yoockh/hirelink/internal/services"
)

const (
	feedWriteWait  = 10 * time.Second
	feedPongWait   = 60 * time.Second
	feedPingPeriod = feedPongWait * 9 / 10
)

// FeedHandler streams a posting's application events to its owner.
type FeedHandler struct {
	apps     services.ApplicationService
	redis    *redis.Client
	log      *logrus.Logger
	upgrader websocket.Upgrader
}

func NewFeedHandler(apps services.ApplicationService, rdb *redis.Client, log *logrus.Logger, allowedOrigins []string) *FeedHandler {
	return &FeedHandler{
		apps:  apps,
		redis: rdb,
		log:   log,
		upgrader: websocket.Upgrader{
			CheckOrigin: originChecker(allowedOrigins),
		},
	}
}

type feedConn struct {
	c  *websocket.Conn
	mu sync.Mutex
}

func (w *feedConn) write(kind int, b []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.c.SetWriteDeadline(time.Now().Add(feedWriteWait))
	return w.c.WriteMessage(kind, b)
}

func (h *FeedHandler) PostingApplications(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	posting, err := h.apps.OwnedPosting(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// upgrader already wrote the response
		return
	}
	defer conn.Close()

	wc := &feedConn{c: conn}
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	channel := events.PostingApplicationsChannel(posting.ID.Hex())
	pubsub := h.redis.Subscribe(ctx, channel)
	defer pubsub.Close()

	log := h.log.WithFields(logrus.Fields{"posting_id": posting.ID.Hex(), "user_id": userID})
	log.Debug("feed subscriber connected")

	// reader only drains control frames; clients send nothing
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		_ = conn.SetReadDeadline(time.Now().Add(feedPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(feedPongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(feedPingPeriod)
	defer ticker.Stop()

	msgs := pubsub.Channel()
	for {
		select {
		case <-readDone:
			log.Debug("feed subscriber disconnected")
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := wc.write(websocket.PingMessage, nil); err != nil {
				return
			}
		case m, ok := <-msgs:
			if !ok {
				return
			}
			if err := wc.write(websocket.TextMessage, []byte(m.Payload)); err != nil {
				return
			}
		}
	}
}

// originChecker allows any origin when the list is empty.
func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}
