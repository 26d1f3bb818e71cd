package transport

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// WSNode is a ClientNodeService that delivers push payloads over a real
// websocket connection: addr names a previously-established connection
// (keyed by the client's registration address), and the callback fires on
// receipt of a single ack frame or on timeout.
//
// Each call dials fresh rather than pooling connections; this is a demo
// transport standing in for a registry's persistent per-client channel.
type WSNode struct {
	dialer      *websocket.Dialer
	exchangeTTL time.Duration
	logger      *zap.Logger

	mu    sync.Mutex
	conns map[string]*websocket.Conn
}

// NewWSNode creates a WSNode whose per-push exchange must complete within
// exchangeTTL, mirroring SessionServerConfig.ClientNodeExchangeTimeOut.
func NewWSNode(exchangeTTL time.Duration, logger *zap.Logger) *WSNode {
	return &WSNode{
		dialer:      websocket.DefaultDialer,
		exchangeTTL: exchangeTTL,
		logger:      logger,
		conns:       make(map[string]*websocket.Conn),
	}
}

// Register associates addr with an already-upgraded server-side connection,
// so PushWithCallback can deliver to a client that dialed in rather than
// dialing out itself. Demo clients that instead expose their own websocket
// listener never call this; PushWithCallback dials addr directly for them.
func (n *WSNode) Register(addr string, conn *websocket.Conn) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.conns[addr] = conn
}

// Unregister drops a previously-registered connection.
func (n *WSNode) Unregister(addr string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.conns, addr)
}

func (n *WSNode) connFor(addr string) (*websocket.Conn, error) {
	n.mu.Lock()
	conn, ok := n.conns[addr]
	n.mu.Unlock()
	if ok {
		return conn, nil
	}

	conn, _, err := n.dialer.Dial(addr, nil)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", addr, err)
	}
	return conn, nil
}

// PushWithCallback implements transport.ClientNodeService.
func (n *WSNode) PushWithCallback(ctx context.Context, payload []byte, addr string, cb Callback, executor Executor) {
	conn, err := n.connFor(addr)
	if err != nil {
		executor.Execute(func() { cb.OnException(err, false) })
		return
	}

	go func() {
		if err := conn.WriteMessage(websocket.BinaryMessage, payload); err != nil {
			executor.Execute(func() { cb.OnException(fmt.Errorf("writing push frame: %w", err), false) })
			return
		}

		_ = conn.SetReadDeadline(time.Now().Add(n.exchangeTTL))
		_, ack, err := conn.ReadMessage()
		if err != nil {
			executor.Execute(func() { cb.OnException(ErrInvokeTimeout, true) })
			return
		}

		n.logger.Debug("push acked", zap.String("addr", addr), zap.Int("ackBytes", len(ack)))
		executor.Execute(func() { cb.OnSuccess(ack) })
	}()
}
