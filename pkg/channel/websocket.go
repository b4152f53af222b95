package channel

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"headsup-server/pkg/protocol"
)

const (
	writeWait  = time.Second * 10
	pongWait   = time.Second * 60
	pingPeriod = pongWait * 9 / 10
)

// WebSocket is a Channel backed by a websocket connection to the relay server
type WebSocket struct {
	conn   *websocket.Conn
	log    logrus.FieldLogger
	send   chan []byte
	close  chan bool
	closed bool

	handlers map[int]Handler
	nextID   int
	lock     sync.Mutex

	done chan bool
}

var _ Channel = (*WebSocket)(nil)

// GameURL returns the websocket URL of a game on the relay at base
func GameURL(base, gameID string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}

	u.Path = strings.TrimRight(u.Path, "/") + "/game/" + url.PathEscape(gameID) + "/ws"
	return u.String(), nil
}

// Dial connects to the relay. Failed attempts are retried with an exponential backoff
// until maxElapsed has passed
func Dial(ctx context.Context, base, gameID string, maxElapsed time.Duration, log logrus.FieldLogger) (*WebSocket, error) {
	wsURL, err := GameURL(base, gameID)
	if err != nil {
		return nil, err
	}

	log = log.WithField("url", wsURL)
	conn, err := backoff.Retry(ctx, func() (*websocket.Conn, error) {
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
		return conn, err
	},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(maxElapsed),
		backoff.WithNotify(func(err error, next time.Duration) {
			log.WithError(err).WithField("retryIn", next).Warn("could not connect to relay")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("could not connect to %s: %w", wsURL, err)
	}

	return NewWebSocket(conn, log), nil
}

// NewWebSocket wraps an established connection and starts its read and write loops
func NewWebSocket(conn *websocket.Conn, log logrus.FieldLogger) *WebSocket {
	ws := &WebSocket{
		conn:     conn,
		log:      log,
		send:     make(chan []byte, subscriberBuffer),
		close:    make(chan bool),
		handlers: make(map[int]Handler),
		done:     make(chan bool),
	}

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	go ws.writeLoop()
	go ws.readLoop()
	return ws
}

// Publish queues the envelope for sending. ErrClosed is returned once the socket has
// been closed or the relay has hung up
func (w *WebSocket) Publish(ctx context.Context, e *protocol.Envelope) error {
	b, err := e.Encode()
	if err != nil {
		return err
	}

	w.lock.Lock()
	defer w.lock.Unlock()

	if w.closed {
		return ErrClosed
	}

	select {
	case <-w.done:
		return ErrClosed
	default:
	}

	select {
	case w.send <- b:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return fmt.Errorf("send queue is full, dropping %s", e.Type)
	}
}

// Subscribe registers fn for every envelope received from the relay
func (w *WebSocket) Subscribe(fn Handler) func() {
	w.lock.Lock()
	defer w.lock.Unlock()

	id := w.nextID
	w.nextID++
	w.handlers[id] = fn

	return func() {
		w.lock.Lock()
		defer w.lock.Unlock()

		delete(w.handlers, id)
	}
}

// Close sends a close frame and waits briefly for the relay to hang up
func (w *WebSocket) Close() error {
	w.lock.Lock()
	if w.closed {
		w.lock.Unlock()
		return nil
	}

	w.closed = true
	close(w.close)
	w.lock.Unlock()

	select {
	case <-w.done:
	case <-time.After(time.Second):
	}

	return w.conn.Close()
}

// Done is closed when the connection is gone
func (w *WebSocket) Done() <-chan bool {
	return w.done
}

func (w *WebSocket) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_ = w.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := w.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-w.close:
			_ = w.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = w.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"))
			return
		case <-w.done:
			return
		case msg := <-w.send:
			w.log.WithField("message", string(msg)).Trace("sending message to relay")

			_ = w.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := w.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				w.log.WithError(err).Error("could not write message")
				return
			}
		}
	}
}

func (w *WebSocket) readLoop() {
	defer close(w.done)

	for {
		_, msg, err := w.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				w.log.WithError(err).Error("connection to relay closed")
			}

			return
		}

		e, err := protocol.Decode(msg)
		if err != nil {
			w.log.WithError(err).Warn("could not decode message")
			continue
		}

		w.log.WithField("type", e.Type).Trace("received message from relay")

		w.lock.Lock()
		handlers := make([]Handler, 0, len(w.handlers))
		for _, fn := range w.handlers {
			handlers = append(handlers, fn)
		}
		w.lock.Unlock()

		for _, fn := range handlers {
			fn(e)
		}
	}
}
