package handlers

import (
	"context"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/zenarog/zenarog-engine/pkg/auth"
	"github.com/zenarog/zenarog-engine/pkg/repositories"
)

const (
	// Time allowed to write a message to the peer.
	streamWriteWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	streamPongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than streamPongWait.
	streamPingPeriod = (streamPongWait * 9) / 10

	// Clients only send control frames.
	streamMaxMessageSize = 4 * 1024
)

// StreamMessage is one push to a subscriber: the full current result of the
// subscribed query.
type StreamMessage struct {
	Type       string `json:"type"`
	Collection string `json:"collection"`
	Documents  any    `json:"documents"`
}

// StreamSource resolves a collection name to something that can be watched.
type StreamSource interface {
	Stream(name string) (repositories.Stream, bool)
}

// StreamHandler pushes live snapshots of the user's documents over websockets.
type StreamHandler struct {
	source   StreamSource
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewStreamHandler creates a new stream handler. Cross-origin upgrades are
// accepted only from allowedOrigins; with none configured only same-origin
// requests are accepted.
func NewStreamHandler(source StreamSource, allowedOrigins []string, logger *zap.Logger) *StreamHandler {
	h := &StreamHandler{
		source: source,
		logger: logger,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
	}
	if len(allowedOrigins) > 0 {
		h.upgrader.CheckOrigin = originChecker(allowedOrigins)
	}
	return h
}

// RegisterRoutes registers the stream handler's routes on the given mux.
func (h *StreamHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("GET /api/stream/{collection}", authMiddleware.RequireAuth(h.Subscribe))
}

// Subscribe handles GET /api/stream/{collection}?date=YYYY-MM-DD
// The first message is the current snapshot; each later message replaces it.
func (h *StreamHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r, h.logger)
	if !ok {
		return
	}

	name := r.PathValue("collection")
	stream, ok := h.source.Stream(name)
	if !ok {
		writeError(w, h.logger, http.StatusNotFound, "not_found", "Unknown collection")
		return
	}

	q := repositories.Query{UserID: userID}
	if date := r.URL.Query().Get("date"); date != "" {
		q.Where = append(q.Where, repositories.Eq("date", date))
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already answered the client.
		h.logger.Debug("Websocket upgrade failed", zap.String("collection", name), zap.Error(err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	snapshots, err := stream.WatchSnapshots(ctx, q)
	if err != nil {
		h.logger.Error("Failed to watch collection",
			zap.String("user_id", userID),
			zap.String("collection", name),
			zap.Error(err))
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "watch failed"),
			time.Now().Add(streamWriteWait))
		return
	}

	h.logger.Debug("Stream subscribed", zap.String("user_id", userID), zap.String("collection", name))

	go h.readPump(conn, cancel)
	h.writePump(ctx, conn, name, snapshots)

	h.logger.Debug("Stream closed", zap.String("user_id", userID), zap.String("collection", name))
}

// readPump discards client messages and cancels the subscription when the
// peer goes away.
func (h *StreamHandler) readPump(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()

	conn.SetReadLimit(streamMaxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(streamPongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("Stream read error", zap.Error(err))
			}
			return
		}
	}
}

func (h *StreamHandler) writePump(ctx context.Context, conn *websocket.Conn, name string, snapshots <-chan any) {
	ticker := time.NewTicker(streamPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case docs, ok := <-snapshots:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(streamWriteWait))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteJSON(StreamMessage{Type: "snapshot", Collection: name, Documents: docs}); err != nil {
				h.logger.Debug("Stream write failed", zap.String("collection", name), zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// originChecker accepts requests without an Origin header (non-browser
// clients), same-origin requests and the configured origins.
func originChecker(allowed []string) func(r *http.Request) bool {
	normalized := make([]string, 0, len(allowed))
	for _, o := range allowed {
		normalized = append(normalized, strings.TrimRight(strings.ToLower(o), "/"))
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		if strings.EqualFold(u.Host, r.Host) {
			return true
		}
		return slices.Contains(normalized, strings.ToLower(u.Scheme+"://"+u.Host))
	}
}
