// Package democlient is a minimal stand-in for a registered client node: it
// accepts the websocket connection internal/transport.WSNode dials out to,
// decodes the push envelope and replies with an ack frame. cmd/pushcore does
// not mount it: `serve --websocket` only switches the transport to WSNode,
// which dials each subscriber's source address.
package democlient

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/regpush/pushcore/internal/generator"
)

const (
	writeWait = 10 * time.Second
	pongWait  = 60 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Listener upgrades incoming connections and acks every push frame it
// receives, decoding it just enough to log a human-readable summary.
type Listener struct {
	decoder *generator.Default
	logger  *zap.Logger
}

// New creates a Listener. decoder may be the same *generator.Default the
// server side uses to encode, since CreatePushData/DecodePushData share a
// wire format.
func New(decoder *generator.Default, logger *zap.Logger) *Listener {
	return &Listener{decoder: decoder, logger: logger}
}

// ServeHTTP implements http.Handler: one upgrade per call, serving exactly
// one client connection's lifetime.
func (l *Listener) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		l.logger.Error("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))

	for {
		msgType, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				l.logger.Debug("demo client read error", zap.Error(err))
			}
			return
		}
		if msgType != websocket.BinaryMessage {
			continue
		}

		dataInfoID, pushVersion, subscriberCount, err := l.decoder.DecodePushData(payload)
		if err != nil {
			l.logger.Warn("demo client failed to decode push", zap.Error(err))
			continue
		}
		l.logger.Info("demo client received push",
			zap.String("dataInfoId", dataInfoID),
			zap.Int64("pushVersion", pushVersion),
			zap.Int("subscribers", subscriberCount),
		)

		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, []byte("ack")); err != nil {
			l.logger.Debug("demo client ack write failed", zap.Error(err))
			return
		}
	}
}
