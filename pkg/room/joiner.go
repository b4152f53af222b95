package room

import (
	"context"
	"errors"
	"sync"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"headsup-server/pkg/channel"
	"headsup-server/pkg/holdem"
	"headsup-server/pkg/protocol"
	"headsup-server/pkg/session"
)

var errNoSnapshot = errors.New("no snapshot received yet")

// JoinerOptions configures a Joiner
type JoinerOptions struct {
	GameID  string
	Seat    holdem.Seat
	Timing  Timing
	Channel channel.Channel
	Store   session.Store
	Logger  logrus.FieldLogger

	// OnState is called from the run loop whenever the displayed state changes
	OnState func(state holdem.HostState, history []holdem.HandLogSnapshot)
}

// Joiner displays the host's state and forwards the local player's actions. It never
// evaluates a hand or changes betting state itself
type Joiner struct {
	opts JoinerOptions
	id   string
	log  logrus.FieldLogger

	state    holdem.HostState
	history  []holdem.HandLogSnapshot
	hasState bool
	fresh    bool
	lock     sync.RWMutex

	received     chan bool
	receivedOnce sync.Once

	retryCtx    context.Context
	cancelRetry context.CancelFunc

	scheduler     *Scheduler
	unsubscribe   func()
	execInRunLoop chan func()
	close         chan bool
	done          chan bool
	started       bool
	closeOnce     sync.Once
}

// NewJoiner returns a joiner. Call Start to subscribe and request a snapshot
func NewJoiner(opts JoinerOptions) (*Joiner, error) {
	if opts.GameID == "" {
		return nil, errors.New("game id is required")
	}

	if !opts.Seat.Valid() {
		return nil, errors.New("joiner seat must be top or bottom")
	}

	if opts.Channel == nil || opts.Store == nil {
		return nil, errors.New("channel and store are required")
	}

	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}

	j := &Joiner{
		opts:          opts,
		id:            uuid.New().String(),
		received:      make(chan bool),
		execInRunLoop: make(chan func(), 256),
		close:         make(chan bool),
		done:          make(chan bool),
	}

	j.log = opts.Logger.WithFields(logrus.Fields{
		"gameId": opts.GameID,
		"role":   session.RoleJoiner,
		"seat":   opts.Seat,
	})
	j.scheduler = NewScheduler(j.exec)
	j.retryCtx, j.cancelRetry = context.WithCancel(context.Background())

	return j, nil
}

// ID is the sender identity of the joiner's messages
func (j *Joiner) ID() string {
	return j.id
}

// Start shows the cached state, if there is one, subscribes to the channel, and asks the
// host for a snapshot once SubscribeDelay has passed
func (j *Joiner) Start(ctx context.Context) error {
	rec, err := j.opts.Store.Load(ctx, session.Key{GameID: j.opts.GameID, Role: session.RoleJoiner})
	switch {
	case err == nil:
		j.log.WithField("revision", rec.State.Revision).Info("showing cached state until the host responds")
	case errors.Is(err, session.ErrNotFound):
		rec = nil
	case errors.Is(err, session.ErrVersionMismatch):
		j.log.WithError(err).Warn("discarding cached state")
		rec = nil
	default:
		return err
	}

	j.started = true
	go j.runLoop()
	j.unsubscribe = j.opts.Channel.Subscribe(func(e *protocol.Envelope) {
		j.exec(func() {
			j.receivedMessage(e)
		})
	})

	if rec != nil {
		j.exec(func() {
			j.replace(rec.State, rec.History, false)
		})
	}

	j.scheduler.After(timerSnapshot, j.opts.Timing.SubscribeDelay, j.startRetry)
	return nil
}

func (j *Joiner) runLoop() {
	defer close(j.done)

	j.log.Debug("starting joiner run loop")
	for {
		select {
		case fn := <-j.execInRunLoop:
			fn()
		case <-j.close:
			j.log.Debug("terminating joiner run loop")
			return
		}
	}
}

func (j *Joiner) exec(fn func()) {
	select {
	case j.execInRunLoop <- fn:
	case <-j.close:
	}
}

// Resync discards the freshness of the displayed state and asks the host for a new
// snapshot. Use it when the display looks stale
func (j *Joiner) Resync() {
	j.lock.Lock()
	j.fresh = false
	j.lock.Unlock()

	j.startRetry()
}

// startRetry asks the host for a snapshot, retrying with backoff until one arrives or
// Timing.SnapshotRetry has passed
func (j *Joiner) startRetry() {
	go func() {
		_, err := backoff.Retry(j.retryCtx, j.requestSnapshot,
			backoff.WithBackOff(j.opts.Timing.Resend.NewBackOff()),
			backoff.WithMaxElapsedTime(j.opts.Timing.SnapshotRetry),
		)

		if err != nil && j.retryCtx.Err() == nil {
			j.log.WithError(err).Warn("host did not send a snapshot")
		}
	}()
}

func (j *Joiner) requestSnapshot() (bool, error) {
	j.lock.RLock()
	fresh := j.fresh
	j.lock.RUnlock()

	if fresh {
		return true, nil
	}

	e, err := protocol.NewRequestSnapshot(j.opts.GameID, j.id, j.opts.Seat)
	if err != nil {
		return false, backoff.Permanent(err)
	}

	if err := j.opts.Channel.Publish(j.retryCtx, e); err != nil {
		if errors.Is(err, channel.ErrClosed) {
			return false, backoff.Permanent(err)
		}

		j.log.WithError(err).Warn("could not request snapshot")
	}

	return false, errNoSnapshot
}

// WaitForSnapshot blocks until the first snapshot from the host has been applied
func (j *Joiner) WaitForSnapshot(ctx context.Context) error {
	select {
	case <-j.received:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// State returns the displayed state. The second value is false until the joiner has a
// state, either cached or from the host
func (j *Joiner) State() (holdem.HostState, bool) {
	j.lock.RLock()
	defer j.lock.RUnlock()

	return j.state.Clone(), j.hasState
}

// History returns the completed hands, oldest first
func (j *Joiner) History() []holdem.HandLogSnapshot {
	j.lock.RLock()
	defer j.lock.RUnlock()

	history := make([]holdem.HandLogSnapshot, len(j.history))
	copy(history, j.history)
	return history
}

// Dispatch forwards an action for the joiner's seat to the host. The action takes
// effect when the host's next snapshot arrives. It is resent on the resend schedule
// until a newer snapshot shows up
func (j *Joiner) Dispatch(action holdem.Action) {
	j.exec(func() {
		revision := j.state.Revision
		e, err := protocol.NewAction(j.opts.GameID, j.id, j.opts.Seat, action, revision)
		if err != nil {
			j.log.WithError(err).Warn("could not build action")
			return
		}

		j.publish(e)
		j.scheduleResend(e, revision, 0)
	})
}

// NOTE: must only be called from the run loop
func (j *Joiner) scheduleResend(e *protocol.Envelope, revision int64, attempt int) {
	delays := j.opts.Timing.Resend.Delays()
	if attempt >= len(delays) {
		return
	}

	j.scheduler.After(timerResend, delays[attempt], func() {
		if j.state.Revision != revision {
			return
		}

		j.publish(e)
		j.scheduleResend(e, revision, attempt+1)
	})
}

// ShowHand asks the host to reveal the joiner's cards
func (j *Joiner) ShowHand() {
	e, err := protocol.NewShowHand(j.opts.GameID, j.id, j.opts.Seat)
	if err != nil {
		j.log.WithError(err).Warn("could not build show hand")
		return
	}

	j.publish(e)
}

// Close announces that the joiner is leaving, cancels every timer, and stops the run loop.
// The channel and store are left open
func (j *Joiner) Close() error {
	j.closeOnce.Do(func() {
		j.cancelRetry()
		j.scheduler.Stop()
		if j.unsubscribe != nil {
			j.unsubscribe()
		}

		e, err := protocol.NewPlayerLeft(j.opts.GameID, j.id, j.opts.Seat, "joiner closed")
		if err == nil {
			j.publish(e)
		}

		close(j.close)
		if j.started {
			<-j.done
		}
	})

	return nil
}

// NOTE: must only be called from the run loop
func (j *Joiner) receivedMessage(e *protocol.Envelope) {
	if e.FromSelf(j.id) || e.GameID != j.opts.GameID {
		return
	}

	log := j.log.WithFields(logrus.Fields{"type": e.Type, "sender": e.Sender})
	log.Trace("received message")

	switch e.Type {
	case protocol.TypeFullState:
		fs, err := e.DecodeFullState()
		if err != nil {
			log.WithError(err).Warn("could not decode state")
			return
		}

		j.replace(fs.State, fs.History, true)
	case protocol.TypePlayerLeft:
		msg, err := e.DecodePlayerLeft()
		if err != nil {
			log.WithError(err).Warn("could not decode player left")
			return
		}

		log.WithFields(logrus.Fields{"leftSeat": msg.Seat, "reason": msg.Reason}).Info("player left")
	}
}

// replace swaps the displayed state for state. Snapshots older than the displayed one are
// ignored, so applying the same snapshot any number of times leaves the display unchanged
// NOTE: must only be called from the run loop
func (j *Joiner) replace(state holdem.HostState, history []holdem.HandLogSnapshot, fromHost bool) {
	j.lock.Lock()

	// the first snapshot from the host always replaces a cached state
	replaceStale := fromHost && !j.fresh
	if j.hasState && !replaceStale && j.state.NewerThan(state) {
		j.lock.Unlock()
		return
	}

	changed := !j.hasState || state.HandID != j.state.HandID || state.Revision != j.state.Revision
	j.state = state
	j.history = history
	j.hasState = true
	if fromHost {
		j.fresh = true
	}
	j.lock.Unlock()

	if fromHost {
		j.receivedOnce.Do(func() {
			close(j.received)
		})
	}

	if !changed {
		return
	}

	if fromHost {
		rec := &session.Record{
			GameID:  j.opts.GameID,
			Role:    session.RoleJoiner,
			Seat:    j.opts.Seat,
			State:   state,
			History: history,
		}

		if err := j.opts.Store.Save(context.Background(), rec); err != nil {
			j.log.WithError(err).Error("could not save session")
		}
	}

	if j.opts.OnState != nil {
		j.opts.OnState(state.Clone(), history)
	}
}

func (j *Joiner) publish(e *protocol.Envelope) {
	if err := j.opts.Channel.Publish(context.Background(), e); err != nil {
		j.log.WithError(err).WithField("type", e.Type).Warn("could not publish message")
	}
}
