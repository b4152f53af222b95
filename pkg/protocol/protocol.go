package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"headsup-server/pkg/holdem"
)

// Version is the envelope version this build speaks
const Version = 1

// errors
var (
	ErrUnknownType        = errors.New("unknown message type")
	ErrUnsupportedVersion = errors.New("unsupported protocol version")
	ErrWrongType          = errors.New("message has a different type")
)

// Type is a message type
type Type string

// message types
const (
	// TypeRequestSnapshot is sent by a joiner until it receives a FULL_STATE
	TypeRequestSnapshot Type = "REQUEST_SNAPSHOT"

	// TypeFullState carries the host's entire state. It is never a delta
	TypeFullState Type = "FULL_STATE"

	// TypeAction carries a seat's intended action to the host
	TypeAction Type = "ACTION"

	// TypeShowHand asks the host to reveal a seat's cards after the hand
	TypeShowHand Type = "SHOW_HAND"

	// TypePlayerLeft is informational and never changes game state
	TypePlayerLeft Type = "PLAYER_LEFT"
)

// Valid returns true if t is a known type
func (t Type) Valid() bool {
	switch t {
	case TypeRequestSnapshot, TypeFullState, TypeAction, TypeShowHand, TypePlayerLeft:
		return true
	}

	return false
}

var now = time.Now

// Envelope wraps every message published on a game channel
type Envelope struct {
	V       int             `json:"v"`
	ID      string          `json:"id"`
	Type    Type            `json:"type"`
	GameID  string          `json:"gameId"`
	Sender  string          `json:"sender"`
	SentAt  time.Time       `json:"sentAt"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// RequestSnapshot is the payload of a REQUEST_SNAPSHOT message
type RequestSnapshot struct {
	Seat holdem.Seat `json:"seat"`
}

// FullState is the payload of a FULL_STATE message
type FullState struct {
	State   holdem.HostState         `json:"state"`
	History []holdem.HandLogSnapshot `json:"history"`
}

// ActionMsg is the payload of an ACTION message. Revision is the revision of the state
// the action was chosen from; the host drops actions chosen from any other revision
type ActionMsg struct {
	Seat     holdem.Seat       `json:"seat"`
	Action   holdem.WireAction `json:"action"`
	Revision int64             `json:"revision,omitempty"`
}

// ShowHand is the payload of a SHOW_HAND message
type ShowHand struct {
	Seat holdem.Seat `json:"seat"`
}

// PlayerLeft is the payload of a PLAYER_LEFT message
type PlayerLeft struct {
	Seat   holdem.Seat `json:"seat"`
	Reason string      `json:"reason,omitempty"`
}

func newEnvelope(t Type, gameID, sender string, payload interface{}) (*Envelope, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("could not encode %s payload: %w", t, err)
	}

	return &Envelope{
		V:       Version,
		ID:      uuid.New().String(),
		Type:    t,
		GameID:  gameID,
		Sender:  sender,
		SentAt:  now().UTC(),
		Payload: b,
	}, nil
}

// NewRequestSnapshot builds a REQUEST_SNAPSHOT message
func NewRequestSnapshot(gameID, sender string, seat holdem.Seat) (*Envelope, error) {
	return newEnvelope(TypeRequestSnapshot, gameID, sender, RequestSnapshot{Seat: seat})
}

// NewFullState builds a FULL_STATE message
func NewFullState(gameID, sender string, state holdem.HostState, history []holdem.HandLogSnapshot) (*Envelope, error) {
	return newEnvelope(TypeFullState, gameID, sender, FullState{State: state, History: history})
}

// NewAction builds an ACTION message
func NewAction(gameID, sender string, seat holdem.Seat, action holdem.Action, revision int64) (*Envelope, error) {
	if action == nil {
		return nil, holdem.ErrUnknownAction
	}

	return newEnvelope(TypeAction, gameID, sender, ActionMsg{
		Seat:     seat,
		Action:   holdem.ToWire(action),
		Revision: revision,
	})
}

// NewShowHand builds a SHOW_HAND message
func NewShowHand(gameID, sender string, seat holdem.Seat) (*Envelope, error) {
	return newEnvelope(TypeShowHand, gameID, sender, ShowHand{Seat: seat})
}

// NewPlayerLeft builds a PLAYER_LEFT message
func NewPlayerLeft(gameID, sender string, seat holdem.Seat, reason string) (*Envelope, error) {
	return newEnvelope(TypePlayerLeft, gameID, sender, PlayerLeft{Seat: seat, Reason: reason})
}

// FromSelf returns true if the envelope was sent by sender
func (e *Envelope) FromSelf(sender string) bool {
	return e.Sender == sender
}

// Validate checks the version and type
func (e *Envelope) Validate() error {
	if e.V != Version {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, e.V)
	}

	if !e.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownType, e.Type)
	}

	return nil
}

// Encode encodes the envelope as JSON
func (e *Envelope) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// Decode decodes and validates an envelope
func Decode(b []byte) (*Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(b, &e); err != nil {
		return nil, err
	}

	if err := e.Validate(); err != nil {
		return nil, err
	}

	return &e, nil
}

func (e *Envelope) decode(t Type, v interface{}) error {
	if e.Type != t {
		return fmt.Errorf("%w: want %s, got %s", ErrWrongType, t, e.Type)
	}

	return json.Unmarshal(e.Payload, v)
}

// DecodeRequestSnapshot returns the REQUEST_SNAPSHOT payload
func (e *Envelope) DecodeRequestSnapshot() (RequestSnapshot, error) {
	var p RequestSnapshot
	err := e.decode(TypeRequestSnapshot, &p)
	return p, err
}

// DecodeFullState returns the FULL_STATE payload
func (e *Envelope) DecodeFullState() (FullState, error) {
	var p FullState
	err := e.decode(TypeFullState, &p)
	return p, err
}

// DecodeAction returns the payload and the decoded action of an ACTION message
func (e *Envelope) DecodeAction() (ActionMsg, holdem.Action, error) {
	var p ActionMsg
	if err := e.decode(TypeAction, &p); err != nil {
		return p, nil, err
	}

	action, err := p.Action.Action()
	if err != nil {
		return p, nil, err
	}

	return p, action, nil
}

// DecodeShowHand returns the SHOW_HAND payload
func (e *Envelope) DecodeShowHand() (ShowHand, error) {
	var p ShowHand
	err := e.decode(TypeShowHand, &p)
	return p, err
}

// DecodePlayerLeft returns the PLAYER_LEFT payload
func (e *Envelope) DecodePlayerLeft() (PlayerLeft, error) {
	var p PlayerLeft
	err := e.decode(TypePlayerLeft, &p)
	return p, err
}
