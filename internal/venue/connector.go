package venue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"bookmerge/pkg/types"
)

const (
	pingInterval     = 20 * time.Second
	readTimeout      = 60 * time.Second
	maxReconnectWait = 30 * time.Second
	writeTimeout     = 10 * time.Second
	frameBufferSize  = 256
)

// wsConn wraps one websocket connection with a write mutex and
// deadline-based read/write/ping discipline, shared by both venue
// connectors so the dial/backoff/ping implementation is written once.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func dialWS(ctx context.Context, url string) (*wsConn, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", ErrConnect, url, err)
	}
	return &wsConn{conn: conn}, nil
}

func (w *wsConn) writeJSON(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return w.conn.WriteJSON(v)
}

func (w *wsConn) readMessage() ([]byte, error) {
	w.conn.SetReadDeadline(time.Now().Add(readTimeout))
	_, data, err := w.conn.ReadMessage()
	return data, err
}

func (w *wsConn) ping() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return w.conn.WriteMessage(websocket.PingMessage, nil)
}

func (w *wsConn) close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.Close()
}

// runWithBackoff repeatedly invokes connect until ctx is canceled, waiting
// an exponentially growing backoff (capped at maxReconnectWait) between
// failed attempts.
func runWithBackoff(ctx context.Context, logger *slog.Logger, connect func(ctx context.Context) error) error {
	backoff := time.Second

	for {
		err := connect(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		logger.Warn("connector disconnected, reconnecting", "error", err, "backoff", backoff)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}

		backoff *= 2
		if backoff > maxReconnectWait {
			backoff = maxReconnectWait
		}
	}
}

// stateTracker holds a connector's current types.ConnState so it can be
// read concurrently by a status/health reporter while the fetcher goroutine
// moves it through Connecting -> Syncing -> Live (and back to Disconnected
// on every reconnect).
type stateTracker struct {
	state int32 // atomic, holds a types.ConnState value
}

func (t *stateTracker) set(s types.ConnState, logger *slog.Logger) {
	atomic.StoreInt32(&t.state, int32(s))
	logger.Info("connector state change", "state", s)
}

// State returns the connector's current lifecycle state, for dashboard and
// log observability (see pkg/types.ConnState).
func (t *stateTracker) State() types.ConnState {
	return types.ConnState(atomic.LoadInt32(&t.state))
}

func pingLoop(ctx context.Context, w *wsConn, logger *slog.Logger) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.ping(); err != nil {
				logger.Warn("ping failed", "error", err)
				return
			}
		}
	}
}
