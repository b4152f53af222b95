package holdem

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"headsup-server/internal/rng"
	"headsup-server/pkg/deck"
	"headsup-server/pkg/snapshot"
)

// top holds a pair of aces, bottom holds seven high
const defaultDeal = "14s,14h,2c,7d,13c,9d,5h,3s,8c"

func dealFromString(s string) [deck.DealSize]deck.Card {
	var cards [deck.DealSize]deck.Card
	copy(cards[:], deck.CardsFromString(s))
	return cards
}

func newHand(t *testing.T, top, bottom Money, dealer Seat) HostState {
	t.Helper()

	s := HostState{
		SchemaVersion: SchemaVersion,
		Revision:      1,
		HandID:        1,
		DealerSeat:    dealer,
		MatchWinner:   NoSeat,
		Game:          GameState{Stacks: BySeat[Money]{Top: top, Bottom: bottom}},
	}

	return startHand(s, DefaultRules(), dealFromString(defaultDeal))
}

func mustApply(t *testing.T, s HostState, seat Seat, a Action) HostState {
	t.Helper()

	next, ok := Apply(s, seat, a)
	require.True(t, ok, "%s: %s should be legal", seat, a)
	return next
}

func TestNewMatch(t *testing.T) {
	s, err := NewMatch(DefaultRules(), Bottom, dealFromString(defaultDeal))
	require.NoError(t, err)

	assert.Equal(t, 1, s.HandID)
	assert.Equal(t, Bottom, s.DealerSeat)
	assert.Equal(t, Preflop, s.Street)
	assert.Equal(t, Bottom, s.ToAct)
	assert.Equal(t, BySeat[Money]{Top: 1, Bottom: 0.5}, s.Game.Bets)
	assert.Equal(t, BySeat[Money]{Top: 99, Bottom: 99.5}, s.Game.Stacks)
	assert.Equal(t, BySeat[Money]{Top: 100, Bottom: 100}, s.HandStartStacks)
	assert.Equal(t, StatusPlaying, s.HandResult.Status)
	assert.Len(t, s.ActionLog, 2)
	assert.Equal(t, "posts small blind 0.5", s.ActionLog[0].Text)
	assert.Equal(t, "posts big blind 1", s.ActionLog[1].Text)

	_, err = NewMatch(Rules{}, Bottom, dealFromString(defaultDeal))
	assert.Error(t, err)

	_, err = NewMatch(DefaultRules(), NoSeat, dealFromString(defaultDeal))
	assert.Error(t, err)
}

func TestApply_limpAndCheck(t *testing.T) {
	s := newHand(t, 100, 100, Bottom)

	s = mustApply(t, s, Bottom, Call{})
	assert.Equal(t, Preflop, s.Street)
	assert.Equal(t, Top, s.ToAct)
	assert.Equal(t, BySeat[Money]{Top: 1, Bottom: 1}, s.Game.Bets)

	s = mustApply(t, s, Top, Check{})
	assert.Equal(t, Flop, s.Street)
	assert.Equal(t, Money(2), s.Game.Pot)
	assert.Equal(t, BySeat[Money]{}, s.Game.Bets)
	assert.Equal(t, Top, s.ToAct, "non-dealer acts first after the flop")
	assert.Len(t, s.Board(), 3)

	s = mustApply(t, s, Top, Check{})
	assert.Equal(t, Flop, s.Street)
	s = mustApply(t, s, Bottom, Check{})
	assert.Equal(t, Turn, s.Street)
	s = mustApply(t, s, Top, Check{})
	s = mustApply(t, s, Bottom, Check{})
	assert.Equal(t, River, s.Street)
	s = mustApply(t, s, Top, Check{})
	s = mustApply(t, s, Bottom, Check{})

	assert.Equal(t, StatusEnded, s.HandResult.Status)
	assert.Equal(t, ReasonShowdown, s.HandResult.Reason)
	assert.Equal(t, WinnerTop, s.HandResult.Winner)
	assert.Equal(t, Money(2), s.HandResult.PotWon)
	assert.Equal(t, BySeat[Money]{Top: 101, Bottom: 99}, s.Game.Stacks)
	assert.Equal(t, Money(0), s.Game.Pot)

	// river checked through: the non-dealer shows first, bottom cannot beat it
	assert.True(t, s.Showed.Top)
	assert.False(t, s.Showed.Bottom)
	assert.True(t, s.YouMucked(Bottom))
	assert.True(t, s.OppRevealed(Bottom))
	assert.False(t, s.OppRevealed(Top))
	assert.Equal(t, "Pair of Aces", s.HandResult.HandRanks.Top)

	var shown []string
	for _, entry := range s.ActionLog {
		if strings.HasPrefix(entry.Text, "shows") {
			shown = append(shown, entry.Text)
		}
	}

	// the best five lead with the pair, then the kickers high to low
	require.Len(t, shown, 1)
	assert.True(t, strings.HasPrefix(shown[0], "shows 14s,14h (Pair of Aces: 14"), shown[0])
	assert.True(t, strings.HasSuffix(shown[0], ",13c,9d,8c)"), shown[0])
}

func TestApply_bigBlindOption(t *testing.T) {
	s := newHand(t, 100, 100, Bottom)
	s = mustApply(t, s, Bottom, Call{})

	assert.Equal(t, Money(2), MinRaiseTo(s, Top))
	s = mustApply(t, s, Top, BetRaiseTo{Amount: 1.5})
	assert.Equal(t, Money(2), s.Game.Bets.Top, "raise is clamped up to the minimum")
	assert.Equal(t, Bottom, s.ToAct)
	assert.Equal(t, Top, s.LastAggressor)
	assert.Equal(t, "raises to 2", s.ActionLog[len(s.ActionLog)-1].Text)

	s = mustApply(t, s, Bottom, Call{})
	assert.Equal(t, Flop, s.Street)
	assert.Equal(t, Money(4), s.Game.Pot)
}

func TestApply_minimumRaise(t *testing.T) {
	s := newHand(t, 100, 100, Bottom)

	s = mustApply(t, s, Bottom, BetRaiseTo{Amount: 3})
	assert.Equal(t, Money(2), s.LastRaiseSize)
	assert.Equal(t, Money(5), MinRaiseTo(s, Top))
	assert.Equal(t, Money(100), MaxRaiseTo(s, Top))

	s = mustApply(t, s, Top, BetRaiseTo{Amount: 4})
	assert.Equal(t, Money(5), s.Game.Bets.Top)

	s = mustApply(t, s, Bottom, BetRaiseTo{Amount: 12})
	assert.Equal(t, Money(7), s.LastRaiseSize)
	assert.Equal(t, Money(19), MinRaiseTo(s, Top))

	s = mustApply(t, s, Top, BetRaiseTo{Amount: 0.5})
	assert.Equal(t, Money(19), s.Game.Bets.Top, "amounts below the minimum are raised to it")
	assert.Equal(t, Bottom, s.ToAct)
}

func TestApply_betIsCappedByOpponentStack(t *testing.T) {
	s := newHand(t, 20, 100, Bottom)
	s = mustApply(t, s, Bottom, Call{})
	s = mustApply(t, s, Top, Check{})

	s = mustApply(t, s, Top, BetRaiseTo{Amount: 7})
	assert.Equal(t, "bets 7", s.ActionLog[len(s.ActionLog)-1].Text)
	s = mustApply(t, s, Bottom, Call{})
	assert.Equal(t, Turn, s.Street)

	s = mustApply(t, s, Top, BetRaiseTo{Amount: 6})
	s = mustApply(t, s, Bottom, Call{})
	assert.Equal(t, River, s.Street)
	assert.Equal(t, Money(6), s.Game.Stacks.Top)
	assert.Equal(t, Money(28), s.Game.Pot)

	s = mustApply(t, s, Top, Check{})
	s = mustApply(t, s, Bottom, BetRaiseTo{Amount: 10})
	assert.Equal(t, Money(6), s.Game.Bets.Bottom)
	assert.Equal(t, Money(80), s.Game.Stacks.Bottom)
	assert.False(t, CanBetOrRaise(s, Top))
	assert.Equal(t, []Kind{KindFold, KindCall}, LegalActions(s, Top))

	s = mustApply(t, s, Top, Call{})
	assert.Equal(t, StatusEnded, s.HandResult.Status)
	assert.Equal(t, Money(40), s.HandResult.PotWon)
	assert.Equal(t, BySeat[Money]{Top: 40, Bottom: 80}, s.Game.Stacks)
	assert.True(t, s.Showed.Bottom, "the river bettor shows first")
	assert.True(t, s.Showed.Top)
}

func TestApply_shortCallRefund(t *testing.T) {
	s := HostState{
		SchemaVersion: SchemaVersion,
		HandID:        3,
		DealerSeat:    Bottom,
		BigBlind:      1,
		MatchWinner:   NoSeat,
		Cards:         dealFromString(defaultDeal),
		Game: GameState{
			Stacks: BySeat[Money]{Top: 6, Bottom: 76},
			Bets:   BySeat[Money]{Bottom: 10},
			Pot:    28,
		},
		AuthoritativeState: AuthoritativeState{
			Street:              River,
			ToAct:               Top,
			HandResult:          HandResult{Status: StatusPlaying},
			LastAggressor:       Bottom,
			LastToActAfterAggro: Top,
			StreetBettor:        Bottom,
			LastRaiseSize:       10,
			ActionsThisStreet:   2,
		},
	}
	total := s.Game.Total()

	next := mustApply(t, s, Top, Call{})
	assert.Equal(t, StatusEnded, next.HandResult.Status)
	assert.Equal(t, Money(40), next.HandResult.PotWon, "only the matched amount is contested")
	assert.Equal(t, BySeat[Money]{Top: 40, Bottom: 80}, next.Game.Stacks)
	assert.Equal(t, total, next.Game.Total())

	var texts []string
	for _, entry := range next.ActionLog {
		texts = append(texts, entry.Text)
	}

	assert.Contains(t, texts, "calls 6 (all-in)")
	assert.Contains(t, texts, "uncalled 4 returned")

	// the input is never modified
	assert.Equal(t, Money(10), s.Game.Bets.Bottom)
	assert.Empty(t, s.ActionLog)
}

func TestApply_allInPreflop(t *testing.T) {
	s := newHand(t, 100, 100, Bottom)

	s = mustApply(t, s, Bottom, BetRaiseTo{Amount: 500})
	assert.Equal(t, Money(100), s.Game.Bets.Bottom)
	assert.Equal(t, "raises to 100 (all-in)", s.ActionLog[len(s.ActionLog)-1].Text)

	s = mustApply(t, s, Top, Call{})
	assert.True(t, s.RunOut)
	assert.Equal(t, River, s.Street)
	assert.Len(t, s.Board(), 5)
	assert.Equal(t, StatusEnded, s.HandResult.Status)
	assert.Equal(t, Money(200), s.HandResult.PotWon)
	assert.Equal(t, BySeat[Money]{Top: 200, Bottom: 0}, s.Game.Stacks)
	assert.True(t, s.GameOver)
	assert.Equal(t, Top, s.MatchWinner)
	assert.Nil(t, LegalActions(s, Top))
	assert.Nil(t, LegalActions(s, Bottom))

	_, err := NextHand(s, DefaultRules(), dealFromString(defaultDeal))
	assert.Equal(t, ErrGameOver, err)
}

func TestApply_fold(t *testing.T) {
	s := newHand(t, 100, 100, Top)
	assert.Equal(t, Top, s.ToAct)

	s = mustApply(t, s, Top, Fold{})
	assert.Equal(t, StatusEnded, s.HandResult.Status)
	assert.Equal(t, ReasonFold, s.HandResult.Reason)
	assert.Equal(t, WinnerBottom, s.HandResult.Winner)
	assert.Equal(t, Money(1.5), s.HandResult.PotWon)
	assert.Equal(t, BySeat[Money]{Top: 99.5, Bottom: 100.5}, s.Game.Stacks)
	assert.Equal(t, NoSeat, s.ToAct)
	assert.False(t, s.GameOver)

	shown, ok := ShowHand(s, Top)
	assert.True(t, ok)
	assert.True(t, shown.Showed.Top)
	assert.True(t, shown.OppRevealed(Bottom))
	assert.Equal(t, s.Revision+1, shown.Revision)

	_, ok = ShowHand(shown, Top)
	assert.False(t, ok)
}

func TestApply_illegal(t *testing.T) {
	s := newHand(t, 100, 100, Bottom)

	for _, tc := range []struct {
		seat   Seat
		action Action
	}{
		{Top, Call{}},
		{Top, Fold{}},
		{Bottom, Check{}},
		{NoSeat, Fold{}},
		{Bottom, nil},
		{Bottom, BetRaiseTo{Amount: Money(math.NaN())}},
		{Bottom, BetRaiseTo{Amount: Money(math.Inf(1))}},
		{Bottom, BetRaiseTo{Amount: Money(math.Inf(-1))}},
	} {
		next, ok := Apply(s, tc.seat, tc.action)
		assert.False(t, ok, "%s %v", tc.seat, tc.action)
		assert.Equal(t, s, next)
	}

	s = mustApply(t, s, Bottom, Call{})
	_, ok := Apply(s, Top, Call{})
	assert.False(t, ok, "nothing to call")

	ended := mustApply(t, s, Top, Fold{})
	_, ok = Apply(ended, Bottom, Check{})
	assert.False(t, ok)
}

func TestApply_duplicateAction(t *testing.T) {
	s := newHand(t, 100, 100, Bottom)
	s = mustApply(t, s, Bottom, Call{})

	_, ok := Apply(s, Bottom, Call{})
	assert.False(t, ok, "a delayed duplicate from the seat that already moved is dropped")
}

func TestApply_splitPot(t *testing.T) {
	s := HostState{
		SchemaVersion: SchemaVersion,
		HandID:        4,
		DealerSeat:    Bottom,
		BigBlind:      1,
		MatchWinner:   NoSeat,
		Cards:         dealFromString("2c,3d,2h,3s,14c,13c,12c,11c,10c"),
		Game: GameState{
			Stacks: BySeat[Money]{Top: 50, Bottom: 47.99},
			Pot:    2.01,
		},
		AuthoritativeState: AuthoritativeState{
			Street:        River,
			ToAct:         Top,
			HandResult:    HandResult{Status: StatusPlaying},
			LastAggressor: NoSeat,
			StreetBettor:  NoSeat,
			LastRaiseSize: 1,
		},
	}

	s = mustApply(t, s, Top, Check{})
	s = mustApply(t, s, Bottom, Check{})
	assert.Equal(t, WinnerTie, s.HandResult.Winner)
	assert.Equal(t, BySeat[Money]{Top: 1.01, Bottom: 1}, s.HandResult.Payouts)
	assert.Equal(t, BySeat[Money]{Top: 51.01, Bottom: 48.99}, s.Game.Stacks)
	assert.True(t, s.Showed.Top)
	assert.True(t, s.Showed.Bottom, "a tying hand is shown")
	assert.Equal(t, "Royal flush", s.HandResult.HandRanks.Bottom)
}

func TestSplitPot(t *testing.T) {
	assert.Equal(t, BySeat[Money]{Top: 1, Bottom: 1}, splitPot(2, Top))
	assert.Equal(t, BySeat[Money]{Top: 0.5, Bottom: 0.51}, splitPot(1.01, Bottom))
	assert.Equal(t, BySeat[Money]{Top: 0.01, Bottom: 0}, splitPot(0.01, Top))
}

func TestStartHand_shortBlind(t *testing.T) {
	s := newHand(t, 100, 0.3, Bottom)

	assert.True(t, s.RunOut)
	assert.Equal(t, StatusEnded, s.HandResult.Status)
	assert.Equal(t, Money(0.6), s.HandResult.PotWon)
	assert.Equal(t, BySeat[Money]{Top: 100.3, Bottom: 0}, s.Game.Stacks)
	assert.True(t, s.GameOver)
	assert.Equal(t, Top, s.MatchWinner)

	// big blind all-in for more than the small blind still gives the dealer a decision
	s = newHand(t, 0.8, 100, Bottom)
	assert.False(t, s.RunOut)
	assert.Equal(t, Bottom, s.ToAct)
	assert.Equal(t, []Kind{KindFold, KindCall}, LegalActions(s, Bottom))

	s = mustApply(t, s, Bottom, BetRaiseTo{Amount: 10})
	assert.Equal(t, Money(0.8), s.Game.Bets.Bottom, "raise degrades to a call")
	assert.True(t, s.RunOut)
	assert.Equal(t, StatusEnded, s.HandResult.Status)
}

func TestNextHand(t *testing.T) {
	rules := DefaultRules()
	s, err := NewMatch(rules, Bottom, dealFromString(defaultDeal))
	require.NoError(t, err)

	_, err = NextHand(s, rules, dealFromString(defaultDeal))
	assert.Equal(t, ErrHandInProgress, err)

	s = mustApply(t, s, Bottom, Fold{})
	next, err := NextHand(s, rules, dealFromString(defaultDeal))
	require.NoError(t, err)
	assert.Equal(t, 2, next.HandID)
	assert.Equal(t, Top, next.DealerSeat)
	assert.Equal(t, Top, next.ToAct)
	assert.Equal(t, s.Revision+1, next.Revision)
	assert.True(t, next.NewerThan(s))
	assert.False(t, s.NewerThan(next))
	assert.Equal(t, BySeat[Money]{Top: 100.5, Bottom: 99.5}, next.HandStartStacks)
	assert.Equal(t, BySeat[Money]{Top: 100, Bottom: 98.5}, next.Game.Stacks)
	assert.Equal(t, BySeat[bool]{}, next.Showed)
}

func TestNextHand_blindIncrease(t *testing.T) {
	rules := DefaultRules()
	s := HostState{
		SchemaVersion: SchemaVersion,
		HandID:        10,
		DealerSeat:    Top,
		MatchWinner:   NoSeat,
		Game:          GameState{Stacks: BySeat[Money]{Top: 120, Bottom: 80}},
		AuthoritativeState: AuthoritativeState{
			HandResult: HandResult{Status: StatusEnded},
		},
	}

	next, err := NextHand(s, rules, dealFromString(defaultDeal))
	require.NoError(t, err)
	assert.Equal(t, 11, next.HandID)
	assert.Equal(t, BySeat[Money]{Top: 90, Bottom: 60}, next.HandStartStacks, "stacks are scaled before blinds")
	assert.Equal(t, BySeat[Money]{Top: 89, Bottom: 59.5}, next.Game.Stacks)

	s.HandID = 11
	next, err = NextHand(s, rules, dealFromString(defaultDeal))
	require.NoError(t, err)
	assert.Equal(t, BySeat[Money]{Top: 120, Bottom: 80}, next.HandStartStacks)
}

func TestHandLog(t *testing.T) {
	s := newHand(t, 100, 100, Bottom)
	s = mustApply(t, s, Bottom, Call{})
	s = mustApply(t, s, Top, BetRaiseTo{Amount: 4})
	s = mustApply(t, s, Bottom, Fold{})

	log := NewHandLog(s)
	assert.Equal(t, 1, log.HandID)
	assert.Equal(t, Preflop, log.Street)
	assert.Empty(t, log.Board)
	assert.Equal(t, "14s,14h", deck.CardsToString(log.HoleCards.Top))
	assert.Equal(t, "2c,7d", deck.CardsToString(log.HoleCards.Bottom))
	assert.Equal(t, BySeat[Money]{Top: 100, Bottom: 100}, log.StartStacks)
	assert.Equal(t, WinnerTop, log.Result.Winner)
	assert.Len(t, log.ActionLog, len(s.ActionLog))
	snapshot.ValidateSnapshot(t, log)

	var history []HandLogSnapshot
	for i := 1; i <= HistoryLimit+5; i++ {
		log.HandID = i
		history = AppendHistory(history, log)
	}

	assert.Len(t, history, HistoryLimit)
	assert.Equal(t, 6, history[0].HandID)
	assert.Equal(t, HistoryLimit+5, history[len(history)-1].HandID)

	log.Showed.Top = true
	updated := AppendHistory(history, log)
	assert.Len(t, updated, HistoryLimit)
	assert.True(t, updated[len(updated)-1].Showed.Top)
	assert.False(t, history[len(history)-1].Showed.Top)
}

// TestConservation plays whole matches with random legal actions and checks that no
// chips are created or lost and that raises respect the minimum
func TestConservation(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		gen := rng.NewSeeded(seed)
		rules := DefaultRules()

		cards, err := deck.Deal9(gen)
		require.NoError(t, err)

		s, err := NewMatch(rules, Seat(seed%2), cards)
		require.NoError(t, err)

		total := s.Game.Total()
		for hand := 0; hand < 200 && !s.GameOver; hand++ {
			for steps := 0; s.Playing() && steps < 1000; steps++ {
				seat := s.ToAct
				kinds := LegalActions(s, seat)
				require.NotEmpty(t, kinds)

				var action Action
				switch kinds[gen.Intn(len(kinds))] {
				case KindFold:
					// folding too often ends every hand preflop
					if gen.Intn(4) != 0 {
						action = Call{}
						if CanCheck(s, seat) {
							action = Check{}
						}
					} else {
						action = Fold{}
					}
				case KindCheck:
					action = Check{}
				case KindCall:
					action = Call{}
				case KindBetRaiseTo:
					lo, hi := MinRaiseTo(s, seat).Cents(), MaxRaiseTo(s, seat).Cents()
					action = BetRaiseTo{Amount: MoneyFromCents(lo + int64(gen.Intn(int(hi-lo)+1)))}
				}

				maxTo := MaxRaiseTo(s, seat)
				oppBet := s.Game.Bets.Get(seat.Other())
				facing := oppBet > s.Game.Bets.Get(seat)
				minTo := Add(oppBet, s.BigBlind)
				if facing {
					minTo = Add(oppBet, s.LastRaiseSize)
				}

				next := mustApply(t, s, seat, action)
				require.Equal(t, total, next.Game.Total(), "seed %d hand %d", seed, s.HandID)

				if _, ok := action.(BetRaiseTo); ok && next.Playing() && next.Street == s.Street {
					bet := next.Game.Bets.Get(seat)
					if bet > oppBet {
						assert.True(t, bet >= minTo || bet == maxTo, "seed %d: raise to %s below %s", seed, bet, minTo)
					}
				}

				s = next
			}

			require.Equal(t, StatusEnded, s.HandResult.Status)
			require.Equal(t, total, Add(s.Game.Stacks.Top, s.Game.Stacks.Bottom))
			require.Equal(t, Money(0), s.Game.Pot)

			if s.GameOver {
				break
			}

			cards, err := deck.Deal9(gen)
			require.NoError(t, err)

			s, err = NextHand(s, rules, cards)
			require.NoError(t, err)
			total = s.Game.Total()
		}
	}
}
