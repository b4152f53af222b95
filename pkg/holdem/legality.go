package holdem

// CanAct returns true if seat is the one to act in a hand that is still being bet
func CanAct(s HostState, seat Seat) bool {
	return seat.Valid() && s.Playing() && !s.RunOut && s.ToAct == seat
}

// CanCheck returns true if seat may check
func CanCheck(s HostState, seat Seat) bool {
	return CanAct(s, seat) && s.Game.Bets.Top == s.Game.Bets.Bottom
}

// CanCall returns true if seat is facing a bet
func CanCall(s HostState, seat Seat) bool {
	return CanAct(s, seat) && s.Game.Bets.Get(seat.Other()) > s.Game.Bets.Get(seat)
}

// CallAmount is how much seat would add by calling
func CallAmount(s HostState, seat Seat) Money {
	toCall := Sub(s.Game.Bets.Get(seat.Other()), s.Game.Bets.Get(seat))
	if toCall <= 0 {
		return 0
	}

	return Min(toCall, s.Game.Stacks.Get(seat))
}

// CanBetOrRaise returns true if seat can put in more than the opponent's bet
func CanBetOrRaise(s HostState, seat Seat) bool {
	return CanAct(s, seat) && MaxRaiseTo(s, seat) > s.Game.Bets.Get(seat.Other())
}

// MaxRaiseTo is the largest total bet seat can make. A seat can never bet more than
// the opponent is able to call
func MaxRaiseTo(s HostState, seat Seat) Money {
	mine := Add(s.Game.Bets.Get(seat), s.Game.Stacks.Get(seat))
	theirs := Add(s.Game.Bets.Get(seat.Other()), s.Game.Stacks.Get(seat.Other()))
	return Min(mine, theirs)
}

// MinRaiseTo is the smallest total bet seat can make. A seat facing a bet must raise
// by at least the size of the last raise; otherwise the minimum is a big blind more than
// the opponent's bet. A short stack may always go all-in for less
func MinRaiseTo(s HostState, seat Seat) Money {
	oppBet := s.Game.Bets.Get(seat.Other())

	var minTo Money
	if oppBet > s.Game.Bets.Get(seat) {
		minTo = Add(oppBet, s.LastRaiseSize)
	} else {
		minTo = Add(oppBet, s.BigBlind)
	}

	return Min(minTo, MaxRaiseTo(s, seat))
}

// LegalActions lists the kinds of action seat may take
func LegalActions(s HostState, seat Seat) []Kind {
	if !CanAct(s, seat) {
		return nil
	}

	kinds := []Kind{KindFold}
	if CanCheck(s, seat) {
		kinds = append(kinds, KindCheck)
	}

	if CanCall(s, seat) {
		kinds = append(kinds, KindCall)
	}

	if CanBetOrRaise(s, seat) {
		kinds = append(kinds, KindBetRaiseTo)
	}

	return kinds
}
