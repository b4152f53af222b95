package holdem

import (
	"fmt"

	"headsup-server/pkg/deck"
	"headsup-server/pkg/poker"
)

// Apply applies an action for seat and returns the next state. Illegal actions return
// the input state unchanged and false; the caller is expected to gate on the predicates
// in legality.go
func Apply(state HostState, seat Seat, action Action) (HostState, bool) {
	if !CanAct(state, seat) {
		return state, false
	}

	s := state.Clone()
	var ok bool
	switch a := action.(type) {
	case Fold:
		ok = s.fold(seat)
	case Check:
		ok = s.check(seat)
	case Call:
		ok = s.call(seat)
	case BetRaiseTo:
		ok = a.Amount.Finite() && s.betOrRaiseTo(seat, a.Amount.Round())
	}

	if !ok {
		return state, false
	}

	s.Revision++
	return s, true
}

func (s *HostState) fold(seat Seat) bool {
	s.log(seat, "folds")

	winner := seat.Other()
	won := Add(s.Game.Pot, Add(s.Game.Bets.Top, s.Game.Bets.Bottom))
	s.Game.Stacks.Set(winner, Add(s.Game.Stacks.Get(winner), won))

	var payouts BySeat[Money]
	payouts.Set(winner, won)

	s.HandResult = HandResult{
		Status:  StatusEnded,
		Winner:  winnerOf(winner),
		Reason:  ReasonFold,
		PotWon:  won,
		Payouts: payouts,
	}
	s.CanShow = BySeat[bool]{Top: true, Bottom: true}
	s.log(winner, fmt.Sprintf("wins %s", won))
	s.endHand()
	return true
}

func (s *HostState) check(seat Seat) bool {
	if s.Game.Bets.Top != s.Game.Bets.Bottom {
		return false
	}

	s.log(seat, "checks")
	s.Checked.Set(seat, true)
	s.ActionsThisStreet++

	if (s.Checked.Top && s.Checked.Bottom) || (s.Street == Preflop && s.SawCallThisStreet) {
		s.closeStreet()
		return true
	}

	s.ToAct = seat.Other()
	return true
}

func (s *HostState) call(seat Seat) bool {
	other := seat.Other()
	myBet, oppBet := s.Game.Bets.Get(seat), s.Game.Bets.Get(other)
	if oppBet <= myBet {
		return false
	}

	stack := s.Game.Stacks.Get(seat)
	amount := Min(Sub(oppBet, myBet), stack)
	s.Game.Stacks.Set(seat, Sub(stack, amount))
	s.Game.Bets.Set(seat, Add(myBet, amount))

	text := fmt.Sprintf("calls %s", amount)
	if s.Game.Stacks.Get(seat) == 0 {
		text += " (all-in)"
	}

	s.log(seat, text)
	s.refundUncalled()

	s.SawCallThisStreet = true
	s.ActionsThisStreet++

	if s.Game.Stacks.Top == 0 || s.Game.Stacks.Bottom == 0 || s.ActionsThisStreet >= 2 {
		s.closeStreet()
		return true
	}

	s.ToAct = other
	return true
}

func (s *HostState) betOrRaiseTo(seat Seat, amount Money) bool {
	other := seat.Other()
	oppBet := s.Game.Bets.Get(other)
	facing := oppBet > s.Game.Bets.Get(seat)

	maxTo := MaxRaiseTo(*s, seat)
	minTo := MinRaiseTo(*s, seat)

	target := amount
	if target < minTo {
		target = minTo
	}

	if target > maxTo {
		target = maxTo
	}

	if target <= oppBet {
		if facing {
			return s.call(seat)
		}

		return s.check(seat)
	}

	myBet := s.Game.Bets.Get(seat)
	s.Game.Stacks.Set(seat, Sub(s.Game.Stacks.Get(seat), Sub(target, myBet)))
	s.Game.Bets.Set(seat, target)

	if raise := Sub(target, oppBet); raise > s.LastRaiseSize {
		s.LastRaiseSize = raise
	}

	verb := "raises to"
	if oppBet == 0 {
		verb = "bets"
	}

	text := fmt.Sprintf("%s %s", verb, target)
	if s.Game.Stacks.Get(seat) == 0 {
		text += " (all-in)"
	}

	s.log(seat, text)

	s.LastAggressor = seat
	s.LastToActAfterAggro = other
	s.StreetBettor = seat
	s.Checked = BySeat[bool]{}
	s.SawCallThisStreet = false
	s.ActionsThisStreet++
	s.ToAct = other
	return true
}

// closeStreet sweeps the bets into the pot and moves to the next street, the
// showdown, or the all-in runout
func (s *HostState) closeStreet() {
	s.Game.Pot = Add(s.Game.Pot, Add(s.Game.Bets.Top, s.Game.Bets.Bottom))
	s.Game.Bets = BySeat[Money]{}

	if s.Street == River {
		s.showdown()
		return
	}

	if s.Game.Stacks.Top == 0 || s.Game.Stacks.Bottom == 0 {
		*s = s.runOut()
		return
	}

	s.Street = s.Street.Next()
	s.ToAct = s.NonDealer()
	s.Checked = BySeat[bool]{}
	s.ActionsThisStreet = 0
	s.SawCallThisStreet = false
	s.LastRaiseSize = s.BigBlind
	s.StreetBettor = NoSeat
	s.LastToActAfterAggro = NoSeat
}

// runOut deals the rest of the board and goes straight to the showdown
func (s HostState) runOut() HostState {
	s.Game.Pot = Add(s.Game.Pot, Add(s.Game.Bets.Top, s.Game.Bets.Bottom))
	s.Game.Bets = BySeat[Money]{}
	s.RunOut = true
	s.Street = River
	s.showdown()
	return s
}

func (s *HostState) showdown() {
	s.ToAct = NoSeat

	var scores BySeat[poker.Score]
	var best BySeat[deck.Hand]
	for _, seat := range Seats {
		five, score := poker.Best5From7(append(s.HoleCards(seat), s.FullBoard()...))
		scores.Set(seat, score)
		best.Set(seat, poker.DisplayOrder(five, score))
		s.HandResult.HandRanks.Set(seat, poker.Describe(score))
	}

	shows := func(seat Seat) string {
		return fmt.Sprintf("shows %s (%s: %s)", s.HoleCards(seat), s.HandResult.HandRanks.Get(seat), best.Get(seat))
	}

	first := s.StreetBettor
	if !first.Valid() {
		first = s.NonDealer()
	}

	second := first.Other()
	s.Showed.Set(first, true)
	s.log(first, shows(first))

	if poker.Compare(scores.Get(second), scores.Get(first)) >= 0 {
		s.Showed.Set(second, true)
		s.log(second, shows(second))
	} else {
		s.Mucked.Set(second, true)
		s.CanShow.Set(second, true)
		s.log(second, "mucks")
	}

	pot := s.Game.Pot
	var payouts BySeat[Money]
	winner := WinnerTie
	switch cmp := poker.Compare(scores.Top, scores.Bottom); {
	case cmp > 0:
		winner = WinnerTop
		payouts.Top = pot
	case cmp < 0:
		winner = WinnerBottom
		payouts.Bottom = pot
	default:
		payouts = splitPot(pot, s.NonDealer())
	}

	for _, seat := range Seats {
		if won := payouts.Get(seat); won > 0 {
			s.Game.Stacks.Set(seat, Add(s.Game.Stacks.Get(seat), won))
			s.log(seat, fmt.Sprintf("wins %s", won))
		}
	}

	s.HandResult.Status = StatusEnded
	s.HandResult.Winner = winner
	s.HandResult.Reason = ReasonShowdown
	s.HandResult.PotWon = pot
	s.HandResult.Payouts = payouts
	s.endHand()
}

// splitPot divides the pot in whole cents. An odd cent goes to oddChip
func splitPot(pot Money, oddChip Seat) BySeat[Money] {
	cents := pot.Cents()
	half := cents / 2

	var payouts BySeat[Money]
	payouts.Set(oddChip, MoneyFromCents(half+cents%2))
	payouts.Set(oddChip.Other(), MoneyFromCents(half))
	return payouts
}

func (s *HostState) endHand() {
	s.Game.Pot = 0
	s.Game.Bets = BySeat[Money]{}
	s.ToAct = NoSeat

	for _, seat := range Seats {
		if s.Game.Stacks.Get(seat) <= 0 {
			s.GameOver = true
			s.MatchWinner = seat.Other()
		}
	}
}

// ShowHand voluntarily reveals a seat's cards after the hand has ended
func ShowHand(state HostState, seat Seat) (HostState, bool) {
	if !seat.Valid() || state.HandResult.Status != StatusEnded {
		return state, false
	}

	if !state.CanShow.Get(seat) || state.Showed.Get(seat) {
		return state, false
	}

	s := state.Clone()
	s.Showed.Set(seat, true)
	s.Mucked.Set(seat, false)
	s.CanShow.Set(seat, false)
	s.log(seat, fmt.Sprintf("shows %s", s.HoleCards(seat)))
	s.Revision++
	return s, true
}
