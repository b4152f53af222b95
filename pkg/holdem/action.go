package holdem

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrUnknownAction is returned when an action cannot be decoded
var ErrUnknownAction = errors.New("unknown action")

// Kind identifies an action
type Kind string

// action kinds
const (
	KindFold       Kind = "fold"
	KindCheck      Kind = "check"
	KindCall       Kind = "call"
	KindBetRaiseTo Kind = "bet_raise_to"
)

// Action is one of Fold, Check, Call, or BetRaiseTo
type Action interface {
	Kind() Kind
	String() string
	isAction()
}

// Fold gives up the hand
type Fold struct{}

// Check passes without committing chips
type Check struct{}

// Call matches the opponent's bet, or as much of it as the stack allows
type Call struct{}

// BetRaiseTo makes the seat's total bet for the street Amount
type BetRaiseTo struct {
	Amount Money
}

// Kind returns KindFold
func (Fold) Kind() Kind { return KindFold }

// Kind returns KindCheck
func (Check) Kind() Kind { return KindCheck }

// Kind returns KindCall
func (Call) Kind() Kind { return KindCall }

// Kind returns KindBetRaiseTo
func (BetRaiseTo) Kind() Kind { return KindBetRaiseTo }

func (Fold) String() string  { return "fold" }
func (Check) String() string { return "check" }
func (Call) String() string  { return "call" }
func (b BetRaiseTo) String() string {
	return fmt.Sprintf("bet %s", b.Amount)
}

func (Fold) isAction()       {}
func (Check) isAction()      {}
func (Call) isAction()       {}
func (BetRaiseTo) isAction() {}

// WireAction is the serializable form of an Action
type WireAction struct {
	Kind   Kind  `json:"kind"`
	Amount Money `json:"amount,omitempty"`
}

// ToWire converts an action into its serializable form
func ToWire(a Action) WireAction {
	switch a := a.(type) {
	case BetRaiseTo:
		return WireAction{Kind: KindBetRaiseTo, Amount: a.Amount.Round()}
	case nil:
		return WireAction{}
	default:
		return WireAction{Kind: a.Kind()}
	}
}

// Action converts the wire form back into an Action
func (w WireAction) Action() (Action, error) {
	switch w.Kind {
	case KindFold:
		return Fold{}, nil
	case KindCheck:
		return Check{}, nil
	case KindCall:
		return Call{}, nil
	case KindBetRaiseTo:
		return BetRaiseTo{Amount: w.Amount.Round()}, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownAction, w.Kind)
}

// MarshalAction encodes an action as JSON
func MarshalAction(a Action) ([]byte, error) {
	if a == nil {
		return nil, ErrUnknownAction
	}

	return json.Marshal(ToWire(a))
}

// UnmarshalAction decodes an action from JSON
func UnmarshalAction(b []byte) (Action, error) {
	var w WireAction
	if err := json.Unmarshal(b, &w); err != nil {
		return nil, err
	}

	return w.Action()
}

// ParseAction parses typed input such as "fold", "call", or "raise 12.5"
func ParseAction(s string) (Action, error) {
	fields := strings.Fields(strings.ToLower(s))
	if len(fields) == 0 {
		return nil, ErrUnknownAction
	}

	switch fields[0] {
	case "fold", "f":
		return Fold{}, nil
	case "check", "x":
		return Check{}, nil
	case "call", "c":
		return Call{}, nil
	case "bet", "raise", "b", "r":
		if len(fields) != 2 {
			return nil, fmt.Errorf("%s requires an amount", fields[0])
		}

		amount, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid amount %q: %w", fields[1], err)
		}

		if math.IsNaN(amount) || math.IsInf(amount, 0) {
			return nil, fmt.Errorf("invalid amount %q", fields[1])
		}

		if amount <= 0 {
			return nil, errors.New("amount must be greater than zero")
		}

		return BetRaiseTo{Amount: Money(amount).Round()}, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownAction, fields[0])
}
