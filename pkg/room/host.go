package room

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"headsup-server/internal/rng"
	"headsup-server/pkg/channel"
	"headsup-server/pkg/deck"
	"headsup-server/pkg/holdem"
	"headsup-server/pkg/protocol"
	"headsup-server/pkg/session"
)

// timer names
const (
	timerRebroadcast = "rebroadcast"
	timerNextHand    = "nextHand"
	timerResend      = "resendAction"
	timerSnapshot    = "requestSnapshot"
)

// HostOptions configures a Host
type HostOptions struct {
	GameID string

	// Seat is the local player's seat. Remote actions for this seat are ignored
	Seat holdem.Seat

	Rules     holdem.Rules
	Timing    Timing
	Channel   channel.Channel
	Store     session.Store
	Generator rng.Generator
	Logger    logrus.FieldLogger

	// OnState is called from the run loop with every new state
	OnState func(state holdem.HostState, history []holdem.HandLogSnapshot)
}

// Host is the single writer of a match. Every event, whether a local action, an inbound
// message, or a timer, runs on the host's run loop
type Host struct {
	opts HostOptions
	id   string
	log  logrus.FieldLogger

	state   holdem.HostState
	history []holdem.HandLogSnapshot
	lock    sync.RWMutex

	scheduler     *Scheduler
	unsubscribe   func()
	execInRunLoop chan func()
	close         chan bool
	done          chan bool
	started       bool
	closeOnce     sync.Once
}

// NewHost returns a host. Call Start to deal or restore the match
func NewHost(opts HostOptions) (*Host, error) {
	if opts.GameID == "" {
		return nil, errors.New("game id is required")
	}

	if !opts.Seat.Valid() {
		return nil, errors.New("host seat must be top or bottom")
	}

	if opts.Channel == nil || opts.Store == nil {
		return nil, errors.New("channel and store are required")
	}

	if err := opts.Rules.Validate(); err != nil {
		return nil, err
	}

	if opts.Generator == nil {
		opts.Generator = rng.Crypto{}
	}

	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}

	h := &Host{
		opts:          opts,
		id:            uuid.New().String(),
		execInRunLoop: make(chan func(), 256),
		close:         make(chan bool),
		done:          make(chan bool),
	}

	h.log = opts.Logger.WithFields(logrus.Fields{
		"gameId": opts.GameID,
		"role":   session.RoleHost,
		"seat":   opts.Seat,
	})
	h.scheduler = NewScheduler(h.exec)

	return h, nil
}

// ID is the sender identity of the host's messages
func (h *Host) ID() string {
	return h.id
}

// Start restores the match from the store, or deals a new one, and begins serving
func (h *Host) Start(ctx context.Context) error {
	rec, err := h.opts.Store.Load(ctx, session.Key{GameID: h.opts.GameID, Role: session.RoleHost})
	switch {
	case err == nil:
		h.log.WithFields(logrus.Fields{"handId": rec.State.HandID, "revision": rec.State.Revision}).Info("restoring match")
	case errors.Is(err, session.ErrNotFound):
		rec = nil
	case errors.Is(err, session.ErrVersionMismatch):
		h.log.WithError(err).Warn("discarding saved match")
		rec = nil
	default:
		return err
	}

	var state holdem.HostState
	var history []holdem.HandLogSnapshot
	if rec != nil {
		state, history = rec.State, rec.History
	} else {
		cards, err := deck.Deal9(h.opts.Generator)
		if err != nil {
			return err
		}

		dealer := holdem.Seats[h.opts.Generator.Intn(len(holdem.Seats))]
		state, err = holdem.NewMatch(h.opts.Rules, dealer, cards)
		if err != nil {
			return err
		}
	}

	h.started = true
	go h.runLoop()
	h.unsubscribe = h.opts.Channel.Subscribe(func(e *protocol.Envelope) {
		h.exec(func() {
			h.receivedMessage(e)
		})
	})

	done := make(chan bool)
	h.exec(func() {
		defer close(done)

		// a restored state is broadcast as is: the cards are never dealt again
		h.emit(state, history, rec == nil)
	})

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Host) runLoop() {
	defer close(h.done)

	h.log.Debug("starting host run loop")
	for {
		select {
		case fn := <-h.execInRunLoop:
			fn()
		case <-h.close:
			h.log.Debug("terminating host run loop")
			return
		}
	}
}

func (h *Host) exec(fn func()) {
	select {
	case h.execInRunLoop <- fn:
	case <-h.close:
	}
}

// State returns the current state
func (h *Host) State() holdem.HostState {
	h.lock.RLock()
	defer h.lock.RUnlock()

	return h.state.Clone()
}

// History returns the completed hands, oldest first
func (h *Host) History() []holdem.HandLogSnapshot {
	h.lock.RLock()
	defer h.lock.RUnlock()

	history := make([]holdem.HandLogSnapshot, len(h.history))
	copy(history, h.history)
	return history
}

// Dispatch applies an action for seat. Illegal actions are dropped
func (h *Host) Dispatch(seat holdem.Seat, action holdem.Action) {
	h.exec(func() {
		h.apply(seat, action, 0)
	})
}

// ShowHand reveals seat's cards after the hand if the rules allow it
func (h *Host) ShowHand(seat holdem.Seat) {
	h.exec(func() {
		h.showHand(seat)
	})
}

// Close cancels every timer, tells the joiner the host is leaving, and stops the run loop.
// The channel and store are left open
func (h *Host) Close() error {
	h.closeOnce.Do(func() {
		h.scheduler.Stop()
		if h.unsubscribe != nil {
			h.unsubscribe()
		}

		h.publish(func() (*protocol.Envelope, error) {
			return protocol.NewPlayerLeft(h.opts.GameID, h.id, h.opts.Seat, "host closed")
		})

		close(h.close)
		if h.started {
			<-h.done
		}
	})

	return nil
}

// NOTE: must only be called from the run loop
func (h *Host) receivedMessage(e *protocol.Envelope) {
	if e.FromSelf(h.id) || e.GameID != h.opts.GameID {
		return
	}

	log := h.log.WithFields(logrus.Fields{"type": e.Type, "sender": e.Sender})
	log.Trace("received message")

	switch e.Type {
	case protocol.TypeRequestSnapshot:
		h.broadcast()
	case protocol.TypeAction:
		msg, action, err := e.DecodeAction()
		if err != nil {
			log.WithError(err).Warn("could not decode action")
			return
		}

		if msg.Seat == h.opts.Seat {
			log.WithField("actionSeat", msg.Seat).Debug("ignoring remote action for the host's seat")
			return
		}

		h.apply(msg.Seat, action, msg.Revision)
	case protocol.TypeShowHand:
		msg, err := e.DecodeShowHand()
		if err != nil {
			log.WithError(err).Warn("could not decode show hand")
			return
		}

		if msg.Seat == h.opts.Seat {
			return
		}

		h.showHand(msg.Seat)
	case protocol.TypePlayerLeft:
		msg, err := e.DecodePlayerLeft()
		if err != nil {
			log.WithError(err).Warn("could not decode player left")
			return
		}

		log.WithFields(logrus.Fields{"leftSeat": msg.Seat, "reason": msg.Reason}).Info("player left")
	case protocol.TypeFullState:
		log.Warn("ignoring state from another host")
	}
}

// NOTE: must only be called from the run loop
func (h *Host) apply(seat holdem.Seat, action holdem.Action, revision int64) {
	log := h.log.WithFields(logrus.Fields{"actionSeat": seat, "action": action})
	if revision != 0 && revision != h.state.Revision {
		log.WithFields(logrus.Fields{"revision": revision, "current": h.state.Revision}).Debug("dropping stale action")
		return
	}

	next, ok := holdem.Apply(h.state, seat, action)
	if !ok {
		log.Debug("dropping illegal action")
		return
	}

	h.emit(next, h.history, false)
}

// NOTE: must only be called from the run loop
func (h *Host) showHand(seat holdem.Seat) {
	next, ok := holdem.ShowHand(h.state, seat)
	if !ok {
		h.log.WithField("showSeat", seat).Debug("dropping show hand")
		return
	}

	h.emit(next, holdem.AppendHistory(h.history, holdem.NewHandLog(next)), false)
}

// emit makes state current, saves it, and broadcasts it. When a hand has ended it is
// added to the history and the next hand is scheduled
// NOTE: must only be called from the run loop
func (h *Host) emit(state holdem.HostState, history []holdem.HandLogSnapshot, handStarted bool) {
	prev := h.state
	if state.HandResult.Status == holdem.StatusEnded && (prev.HandID != state.HandID || prev.HandResult.Status != holdem.StatusEnded) {
		history = holdem.AppendHistory(history, holdem.NewHandLog(state))
	}

	h.lock.Lock()
	h.state = state
	h.history = history
	h.lock.Unlock()

	log := h.log.WithFields(logrus.Fields{"handId": state.HandID, "revision": state.Revision})
	if handStarted {
		log.WithField("dealer", state.DealerSeat).Info("dealt new hand")
	}

	h.persist()
	h.broadcast()
	h.scheduleRebroadcast(0)

	if state.HandResult.Status == holdem.StatusEnded {
		if state.GameOver {
			log.WithField("winner", state.MatchWinner).Info("match is over")
			h.scheduler.Cancel(timerNextHand)
		} else if !h.scheduler.Pending(timerNextHand) {
			h.scheduler.After(timerNextHand, h.opts.Timing.nextHandDelay(state.RunOut), h.nextHand)
		}
	}

	if h.opts.OnState != nil {
		h.opts.OnState(state.Clone(), history)
	}
}

// NOTE: must only be called from the run loop
func (h *Host) nextHand() {
	cards, err := deck.Deal9(h.opts.Generator)
	if err != nil {
		h.log.WithError(err).Error("could not deal")
		return
	}

	next, err := holdem.NextHand(h.state, h.opts.Rules, cards)
	if err != nil {
		h.log.WithError(err).Warn("could not start next hand")
		return
	}

	h.emit(next, h.history, true)
}

// NOTE: must only be called from the run loop
func (h *Host) persist() {
	rec := &session.Record{
		GameID:  h.opts.GameID,
		Role:    session.RoleHost,
		Seat:    h.opts.Seat,
		State:   h.state,
		History: h.history,
	}

	if err := h.opts.Store.Save(context.Background(), rec); err != nil {
		h.log.WithError(err).Error("could not save session")
	}
}

// NOTE: must only be called from the run loop
func (h *Host) broadcast() {
	state, history := h.state, h.history
	h.publish(func() (*protocol.Envelope, error) {
		return protocol.NewFullState(h.opts.GameID, h.id, state, history)
	})
}

// scheduleRebroadcast sends the current state again on the resend schedule. A new
// state replaces the pending timer
// NOTE: must only be called from the run loop
func (h *Host) scheduleRebroadcast(attempt int) {
	delays := h.opts.Timing.Resend.Delays()
	if attempt >= len(delays) {
		return
	}

	h.scheduler.After(timerRebroadcast, delays[attempt], func() {
		h.broadcast()
		h.scheduleRebroadcast(attempt + 1)
	})
}

func (h *Host) publish(build func() (*protocol.Envelope, error)) {
	e, err := build()
	if err != nil {
		h.log.WithError(err).Error("could not build message")
		return
	}

	if err := h.opts.Channel.Publish(context.Background(), e); err != nil {
		h.log.WithError(err).WithField("type", e.Type).Warn("could not publish message")
	}
}
