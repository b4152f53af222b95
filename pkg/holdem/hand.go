package holdem

import (
	"errors"
	"fmt"

	"headsup-server/pkg/deck"
)

// errors returned when a hand cannot be started
var (
	ErrHandInProgress = errors.New("hand is still in progress")
	ErrGameOver       = errors.New("game is over")
)

// NewMatch starts the first hand of a match
func NewMatch(rules Rules, dealer Seat, cards [deck.DealSize]deck.Card) (HostState, error) {
	if err := rules.Validate(); err != nil {
		return HostState{}, err
	}

	if !dealer.Valid() {
		return HostState{}, fmt.Errorf("invalid dealer seat: %d", dealer)
	}

	s := HostState{
		SchemaVersion: SchemaVersion,
		Revision:      1,
		HandID:        1,
		DealerSeat:    dealer,
		MatchWinner:   NoSeat,
		Game: GameState{
			Stacks: BySeat[Money]{Top: rules.StartingStack.Round(), Bottom: rules.StartingStack.Round()},
		},
	}

	return startHand(s, rules, cards), nil
}

// NextHand starts the hand after prev. The button moves to the other seat
func NextHand(prev HostState, rules Rules, cards [deck.DealSize]deck.Card) (HostState, error) {
	if prev.GameOver {
		return prev, ErrGameOver
	}

	if prev.HandResult.Status != StatusEnded {
		return prev, ErrHandInProgress
	}

	if err := rules.Validate(); err != nil {
		return prev, err
	}

	s := HostState{
		SchemaVersion: SchemaVersion,
		Revision:      prev.Revision + 1,
		HandID:        prev.HandID + 1,
		DealerSeat:    prev.DealerSeat.Other(),
		MatchWinner:   NoSeat,
		Game: GameState{
			Stacks: prev.Game.Stacks,
		},
	}

	return startHand(s, rules, cards), nil
}

// startHand scales the stacks when a new blind level begins, then posts the blinds.
// The order matters: blinds are always taken from the scaled stacks
func startHand(s HostState, rules Rules, cards [deck.DealSize]deck.Card) HostState {
	if rules.isLevelUp(s.HandID) {
		for _, seat := range Seats {
			scaled := (s.Game.Stacks.Get(seat) * Money(rules.StackScale)).Round()
			s.Game.Stacks.Set(seat, scaled)
		}
	}

	s.Cards = cards
	s.BigBlind = rules.BigBlind.Round()
	s.HandStartStacks = s.Game.Stacks
	s.AuthoritativeState = AuthoritativeState{
		Street:              Preflop,
		ToAct:               s.DealerSeat,
		ActionLog:           []LogEntry{},
		HandResult:          HandResult{Status: StatusPlaying},
		LastAggressor:       NoSeat,
		LastToActAfterAggro: NoSeat,
		LastRaiseSize:       s.BigBlind,
		StreetBettor:        NoSeat,
	}

	dealer := s.DealerSeat
	bigBlind := dealer.Other()
	s.post(dealer, rules.SmallBlind(), "small blind")
	s.post(bigBlind, s.BigBlind, "big blind")

	// a blind that put a seat all-in settles the hand without any betting
	for _, seat := range Seats {
		if s.Game.Stacks.Get(seat) > 0 {
			continue
		}

		if s.Game.Bets.Get(seat) <= s.Game.Bets.Get(seat.Other()) {
			s.refundUncalled()
			return s.runOut()
		}
	}

	return s
}

func (s *HostState) post(seat Seat, amount Money, name string) {
	stack := s.Game.Stacks.Get(seat)
	amount = Min(amount, stack)
	s.Game.Stacks.Set(seat, Sub(stack, amount))
	s.Game.Bets.Set(seat, amount)

	text := fmt.Sprintf("posts %s %s", name, amount)
	if s.Game.Stacks.Get(seat) == 0 {
		text += " (all-in)"
	}

	s.log(seat, text)
}

// refundUncalled returns the part of the larger bet the other seat could not match
func (s *HostState) refundUncalled() {
	top, bottom := s.Game.Bets.Top, s.Game.Bets.Bottom
	if top == bottom {
		return
	}

	seat := Top
	if bottom > top {
		seat = Bottom
	}

	excess := Sub(s.Game.Bets.Get(seat), s.Game.Bets.Get(seat.Other()))
	s.Game.Bets.Set(seat, Sub(s.Game.Bets.Get(seat), excess))
	s.Game.Stacks.Set(seat, Add(s.Game.Stacks.Get(seat), excess))
	s.log(seat, fmt.Sprintf("uncalled %s returned", excess))
}

func (s *HostState) log(seat Seat, text string) {
	s.ActionLog = append(s.ActionLog, LogEntry{
		Sequence: len(s.ActionLog) + 1,
		Street:   s.Street,
		Seat:     seat,
		Text:     text,
	})
}
