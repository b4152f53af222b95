package holdem

import (
	"headsup-server/pkg/deck"
)

// HistoryLimit is the number of completed hands kept for review
const HistoryLimit = 30

// HandLogSnapshot is the record of a completed hand
type HandLogSnapshot struct {
	HandID      int               `json:"handId"`
	DealerSeat  Seat              `json:"dealerSeat"`
	Street      Street            `json:"street"`
	Board       deck.Hand         `json:"board"`
	ActionLog   []LogEntry        `json:"actionLog"`
	HoleCards   BySeat[deck.Hand] `json:"holeCards"`
	Showed      BySeat[bool]      `json:"showed"`
	Mucked      BySeat[bool]      `json:"mucked"`
	StartStacks BySeat[Money]     `json:"startStacks"`
	HandRanks   BySeat[string]    `json:"handRanks"`
	Result      HandResult        `json:"result"`
}

// NewHandLog freezes an ended hand into a HandLogSnapshot
func NewHandLog(s HostState) HandLogSnapshot {
	log := make([]LogEntry, len(s.ActionLog))
	copy(log, s.ActionLog)

	return HandLogSnapshot{
		HandID:      s.HandID,
		DealerSeat:  s.DealerSeat,
		Street:      s.Street,
		Board:       s.Board(),
		ActionLog:   log,
		HoleCards:   BySeat[deck.Hand]{Top: s.HoleCards(Top), Bottom: s.HoleCards(Bottom)},
		Showed:      s.Showed,
		Mucked:      s.Mucked,
		StartStacks: s.HandStartStacks,
		HandRanks:   s.HandResult.HandRanks,
		Result:      s.HandResult,
	}
}

// AppendHistory returns a new history with snap appended. Only the newest HistoryLimit
// hands are kept. A hand that is already recorded replaces the earlier record
func AppendHistory(history []HandLogSnapshot, snap HandLogSnapshot) []HandLogSnapshot {
	out := make([]HandLogSnapshot, 0, len(history)+1)
	for _, h := range history {
		if h.HandID != snap.HandID {
			out = append(out, h)
		}
	}

	out = append(out, snap)
	if len(out) > HistoryLimit {
		out = out[len(out)-HistoryLimit:]
	}

	return out
}
