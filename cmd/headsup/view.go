package main

import (
	"fmt"
	"strings"

	"headsup-server/pkg/holdem"
)

// summary is the one line status shown to the player in seat after every state change
func summary(s holdem.HostState, seat holdem.Seat) string {
	opp := seat.Other()

	parts := []string{
		fmt.Sprintf("hand %d", s.HandID),
		s.Street.String(),
		"board " + s.Board().Pretty(),
		fmt.Sprintf("you %s (%s, bet %s)", s.HoleCards(seat).Pretty(), s.Game.Stacks.Get(seat), s.Game.Bets.Get(seat)),
	}

	oppCards := "?? ??"
	if s.OppRevealed(seat) {
		oppCards = s.HoleCards(opp).Pretty()
	}

	parts = append(parts,
		fmt.Sprintf("opp %s (%s, bet %s)", oppCards, s.Game.Stacks.Get(opp), s.Game.Bets.Get(opp)),
		fmt.Sprintf("pot %s", s.Game.Pot),
	)

	switch {
	case s.GameOver:
		if s.MatchWinner == seat {
			parts = append(parts, "you won the match")
		} else {
			parts = append(parts, "you lost the match")
		}
	case !s.Playing():
		parts = append(parts, resultString(s.HandResult, seat))
		if s.CanShow.Get(seat) {
			parts = append(parts, "type 'show' to reveal your hand")
		}
	case holdem.CanAct(s, seat):
		parts = append(parts, "your turn: "+legalString(s, seat))
	default:
		parts = append(parts, "waiting for opponent")
	}

	return strings.Join(parts, " | ")
}

func resultString(r holdem.HandResult, seat holdem.Seat) string {
	var who string
	switch r.Winner {
	case holdem.WinnerTie:
		return fmt.Sprintf("split pot of %s", r.PotWon)
	case holdem.Winner(seat.String()):
		who = "you win"
	default:
		who = "opponent wins"
	}

	s := fmt.Sprintf("%s %s by %s", who, r.PotWon, r.Reason)
	if rank := r.HandRanks.Get(seat); rank != "" {
		s += " (you: " + rank + ")"
	}

	return s
}

func legalString(s holdem.HostState, seat holdem.Seat) string {
	kinds := holdem.LegalActions(s, seat)
	opts := make([]string, 0, len(kinds))
	for _, k := range kinds {
		switch k {
		case holdem.KindCall:
			opts = append(opts, fmt.Sprintf("call %s", holdem.CallAmount(s, seat)))
		case holdem.KindBetRaiseTo:
			opts = append(opts, fmt.Sprintf("raise %s-%s", holdem.MinRaiseTo(s, seat), holdem.MaxRaiseTo(s, seat)))
		default:
			opts = append(opts, string(k))
		}
	}

	return strings.Join(opts, ", ")
}
