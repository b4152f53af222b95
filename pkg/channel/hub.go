package channel

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"headsup-server/pkg/protocol"
)

const subscriberBuffer = 256

// LossFunc decides whether an envelope is dropped on its way to a subscriber
type LossFunc func(e *protocol.Envelope) bool

// Hub holds one in-memory topic per game
type Hub struct {
	// Loss, if set, is consulted for every delivery
	Loss LossFunc

	topics map[string]*Topic
	lock   sync.Mutex
}

// NewHub returns a new hub
func NewHub() *Hub {
	return &Hub{
		topics: make(map[string]*Topic),
	}
}

// Join returns a channel endpoint attached to the game's topic
func (h *Hub) Join(gameID string) *Endpoint {
	h.lock.Lock()
	defer h.lock.Unlock()

	t, ok := h.topics[gameID]
	if !ok {
		t = &Topic{
			hub:         h,
			gameID:      gameID,
			subscribers: make(map[*subscriber]bool),
		}

		h.topics[gameID] = t
	}

	t.endpoints++
	return &Endpoint{topic: t}
}

// Topics returns the number of games with at least one endpoint
func (h *Hub) Topics() int {
	h.lock.Lock()
	defer h.lock.Unlock()

	return len(h.topics)
}

func (h *Hub) leave(t *Topic) {
	h.lock.Lock()
	defer h.lock.Unlock()

	t.endpoints--
	if t.endpoints <= 0 {
		delete(h.topics, t.gameID)
	}
}

// Topic broadcasts every published envelope to every subscriber of a game
type Topic struct {
	hub         *Hub
	gameID      string
	endpoints   int
	subscribers map[*subscriber]bool
	lock        sync.RWMutex
}

func (t *Topic) publish(e *protocol.Envelope) {
	t.lock.RLock()
	defer t.lock.RUnlock()

	for sub := range t.subscribers {
		if t.hub.Loss != nil && t.hub.Loss(e) {
			logrus.WithFields(logrus.Fields{"gameId": t.gameID, "type": e.Type}).Trace("dropping message")
			continue
		}

		sub.send(e)
	}
}

func (t *Topic) subscribe(fn Handler) *subscriber {
	sub := &subscriber{
		fn:    fn,
		queue: make(chan *protocol.Envelope, subscriberBuffer),
		done:  make(chan bool),
	}

	t.lock.Lock()
	t.subscribers[sub] = true
	t.lock.Unlock()

	go sub.runLoop()
	return sub
}

func (t *Topic) unsubscribe(sub *subscriber) {
	t.lock.Lock()
	_, found := t.subscribers[sub]
	delete(t.subscribers, sub)
	t.lock.Unlock()

	if found {
		close(sub.done)
	}
}

type subscriber struct {
	fn    Handler
	queue chan *protocol.Envelope
	done  chan bool
}

func (s *subscriber) send(e *protocol.Envelope) {
	select {
	case s.queue <- e:
	default:
		logrus.WithField("type", e.Type).Warn("subscriber queue is full, dropping message")
	}
}

func (s *subscriber) runLoop() {
	for {
		select {
		case e := <-s.queue:
			s.fn(e)
		case <-s.done:
			return
		}
	}
}

// Endpoint is one participant's view of a Topic
type Endpoint struct {
	topic  *Topic
	subs   []*subscriber
	closed bool
	lock   sync.Mutex
}

var _ Channel = (*Endpoint)(nil)

// Publish sends the envelope to every subscriber of the topic
func (e *Endpoint) Publish(ctx context.Context, env *protocol.Envelope) error {
	e.lock.Lock()
	closed := e.closed
	e.lock.Unlock()

	if closed {
		return ErrClosed
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	e.topic.publish(env)
	return nil
}

// Subscribe registers fn for every envelope published on the topic
func (e *Endpoint) Subscribe(fn Handler) func() {
	e.lock.Lock()
	defer e.lock.Unlock()

	if e.closed {
		return func() {}
	}

	sub := e.topic.subscribe(fn)
	e.subs = append(e.subs, sub)

	return func() {
		e.topic.unsubscribe(sub)
	}
}

// Close removes every subscription made through the endpoint
func (e *Endpoint) Close() error {
	e.lock.Lock()
	defer e.lock.Unlock()

	if e.closed {
		return nil
	}

	e.closed = true
	for _, sub := range e.subs {
		e.topic.unsubscribe(sub)
	}

	e.subs = nil
	e.topic.hub.leave(e.topic)
	return nil
}
