package holdem

import (
	"headsup-server/pkg/deck"
)

// SchemaVersion is the version of the serialized HostState. Bump it whenever the
// shape of the state changes so persisted snapshots from an older build are discarded
const SchemaVersion = 1

// Status is the status of a hand
type Status string

// Status constants
const (
	StatusPlaying Status = "playing"
	StatusEnded   Status = "ended"
)

// Winner is the outcome of a hand
type Winner string

// Winner constants
const (
	WinnerNone   Winner = ""
	WinnerTop    Winner = "top"
	WinnerBottom Winner = "bottom"
	WinnerTie    Winner = "tie"
)

func winnerOf(s Seat) Winner {
	if s == Bottom {
		return WinnerBottom
	}

	return WinnerTop
}

// Reason is why a hand ended
type Reason string

// Reason constants
const (
	ReasonNone     Reason = ""
	ReasonFold     Reason = "fold"
	ReasonShowdown Reason = "showdown"
)

// LogEntry is a single line in the hand's action log
type LogEntry struct {
	Sequence int    `json:"sequence"`
	Street   Street `json:"street"`
	Seat     Seat   `json:"seat"`
	Text     string `json:"text"`
}

// HandResult describes how a hand ended
type HandResult struct {
	Status    Status         `json:"status"`
	Winner    Winner         `json:"winner"`
	Reason    Reason         `json:"reason"`
	PotWon    Money          `json:"potWon"`
	Payouts   BySeat[Money]  `json:"payouts"`
	HandRanks BySeat[string] `json:"handRanks"`
}

// GameState is the money on the table
type GameState struct {
	Stacks BySeat[Money] `json:"stacks"`
	Bets   BySeat[Money] `json:"bets"`
	Pot    Money         `json:"pot"`
}

// Total is every chip on the table
func (g GameState) Total() Money {
	return Add(Add(Add(Add(g.Stacks.Top, g.Stacks.Bottom), g.Bets.Top), g.Bets.Bottom), g.Pot)
}

// AuthoritativeState is the betting state of a single hand
type AuthoritativeState struct {
	Street     Street     `json:"street"`
	ToAct      Seat       `json:"toAct"`
	ActionLog  []LogEntry `json:"actionLog"`
	HandResult HandResult `json:"handResult"`

	LastAggressor       Seat         `json:"lastAggressor"`
	LastToActAfterAggro Seat         `json:"lastToActAfterAggro"`
	ActionsThisStreet   int          `json:"actionsThisStreet"`
	SawCallThisStreet   bool         `json:"sawCallThisStreet"`
	LastRaiseSize       Money        `json:"lastRaiseSize"`
	Checked             BySeat[bool] `json:"checked"`

	// StreetBettor is the aggressor on the current street. It decides who reveals first
	StreetBettor Seat         `json:"streetBettor"`
	CanShow      BySeat[bool] `json:"canShow"`
	Showed       BySeat[bool] `json:"showed"`
	Mucked       BySeat[bool] `json:"mucked"`
}

// HostState is everything the host broadcasts. A HostState is never modified after it
// has been emitted; every transition returns a new value
type HostState struct {
	SchemaVersion int                      `json:"schemaVersion"`
	Revision      int64                    `json:"revision"`
	HandID        int                      `json:"handId"`
	DealerSeat    Seat                     `json:"dealerSeat"`
	BigBlind      Money                    `json:"bigBlind"`
	Game          GameState                `json:"game"`
	Cards         [deck.DealSize]deck.Card `json:"cards"`

	AuthoritativeState

	HandStartStacks BySeat[Money] `json:"handStartStacks"`

	// RunOut is set when an all-in skipped the remaining betting and the board was dealt out
	RunOut      bool `json:"runOut"`
	GameOver    bool `json:"gameOver"`
	MatchWinner Seat `json:"matchWinner"`
}

// Clone returns a deep copy
func (s HostState) Clone() HostState {
	c := s
	if s.ActionLog != nil {
		c.ActionLog = make([]LogEntry, len(s.ActionLog))
		copy(c.ActionLog, s.ActionLog)
	}

	return c
}

// Playing returns true while the hand accepts betting actions
func (s HostState) Playing() bool {
	return s.HandResult.Status == StatusPlaying && !s.GameOver
}

// NonDealer returns the seat out of position
func (s HostState) NonDealer() Seat {
	return s.DealerSeat.Other()
}

// HoleCards returns the seat's two private cards
func (s HostState) HoleCards(seat Seat) deck.Hand {
	if seat == Bottom {
		return deck.Hand{s.Cards[2], s.Cards[3]}
	}

	return deck.Hand{s.Cards[0], s.Cards[1]}
}

// Board returns the revealed community cards
func (s HostState) Board() deck.Hand {
	board := make(deck.Hand, int(s.Street))
	copy(board, s.Cards[4:4+int(s.Street)])
	return board
}

// FullBoard returns all five community cards, revealed or not
func (s HostState) FullBoard() deck.Hand {
	board := make(deck.Hand, 5)
	copy(board, s.Cards[4:])
	return board
}

// OppRevealed returns true if the viewer's opponent has shown their cards
func (s HostState) OppRevealed(viewer Seat) bool {
	return s.Showed.Get(viewer.Other())
}

// YouMucked returns true if the viewer's cards were mucked at showdown
func (s HostState) YouMucked(viewer Seat) bool {
	return s.Mucked.Get(viewer)
}

// NewerThan returns true if s supersedes other
func (s HostState) NewerThan(other HostState) bool {
	if s.HandID != other.HandID {
		return s.HandID > other.HandID
	}

	return s.Revision > other.Revision
}
