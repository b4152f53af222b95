package poker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"headsup-server/pkg/deck"
)

func score(s string) Score {
	return Evaluate(deck.CardsFromString(s))
}

func TestHandAnalyzer_GetFourOfAKind(t *testing.T) {
	h := NewHandAnalyzer(deck.CardsFromString("2c,3c,3d,3h,3s"))
	r, ok := h.GetFourOfAKind()
	assert.True(t, ok)
	assert.Equal(t, 3, r)
	_, ok = h.GetThreeOfAKind()
	assert.False(t, ok)
	_, ok = h.GetPair()
	assert.False(t, ok)
	assert.Equal(t, Score{7, 3, 2}, h.GetScore())

	h = NewHandAnalyzer(deck.CardsFromString("9s,4h,5c,4d,4c"))
	r, ok = h.GetFourOfAKind()
	assert.False(t, ok)
	assert.Equal(t, 0, r)
}

func TestHandAnalyzer_GetFullHouse(t *testing.T) {
	h := NewHandAnalyzer(deck.CardsFromString("14c,2c,14d,5c,14h,2d,5h"))
	r, ok := h.GetFullHouse()
	assert.True(t, ok)
	assert.Equal(t, []int{14, 5}, r)
	assert.Equal(t, Score{6, 14, 5}, h.GetScore())

	// two sets of trips
	h = NewHandAnalyzer(deck.CardsFromString("3c,3d,3h,4c,4d,4h,5c"))
	r, ok = h.GetFullHouse()
	assert.True(t, ok)
	assert.Equal(t, []int{4, 3}, r)

	h = NewHandAnalyzer(deck.CardsFromString("3c,3d,3h,4c,5d,6h,9c"))
	_, ok = h.GetFullHouse()
	assert.False(t, ok)
}

func TestHandAnalyzer_GetFlush(t *testing.T) {
	h := NewHandAnalyzer(deck.CardsFromString("2c,3c,4c,5c,9c,7d,13c"))
	r, ok := h.GetFlush()
	assert.True(t, ok)
	assert.Equal(t, []int{13, 9, 5, 4, 3}, r)

	h = NewHandAnalyzer(deck.CardsFromString("2c,3c,4c,5c,6d"))
	_, ok = h.GetFlush()
	assert.False(t, ok)
}

// nolint:dupl
func TestHandAnalyzer_GetStraightFlush(t *testing.T) {
	h := NewHandAnalyzer(deck.CardsFromString("2c,3c,4c,5c,6c"))
	r, ok := h.GetStraightFlush()
	assert.True(t, ok)
	assert.Equal(t, 6, r)

	h = NewHandAnalyzer(deck.CardsFromString("12c,2d,4h,5h,6h,7h,8h"))
	r, ok = h.GetStraightFlush()
	assert.True(t, ok)
	assert.Equal(t, 8, r)

	h = NewHandAnalyzer(deck.CardsFromString("2s,3s,4s,5s,14s"))
	r, ok = h.GetStraightFlush()
	assert.True(t, ok)
	assert.Equal(t, 5, r)

	// a straight and a flush that are not a straight flush
	h = NewHandAnalyzer(deck.CardsFromString("2s,3s,4s,5s,6d,10s"))
	_, ok = h.GetStraightFlush()
	assert.False(t, ok)
	assert.Equal(t, Flush, h.GetCategory())
}

// nolint:dupl
func TestHandAnalyzer_GetStraight(t *testing.T) {
	h := NewHandAnalyzer(deck.CardsFromString("2c,3d,4h,5s,6c"))
	r, ok := h.GetStraight()
	assert.True(t, ok)
	assert.Equal(t, 6, r)

	h = NewHandAnalyzer(deck.CardsFromString("12c,2d,4h,5s,6c,7d,8h"))
	r, ok = h.GetStraight()
	assert.True(t, ok)
	assert.Equal(t, 8, r)

	h = NewHandAnalyzer(deck.CardsFromString("2c,3d,4s,5h,14s"))
	r, ok = h.GetStraight()
	assert.True(t, ok)
	assert.Equal(t, 5, r)
	assert.Equal(t, Score{4, 5}, h.GetScore())

	h = NewHandAnalyzer(deck.CardsFromString("10c,11d,12s,13h,14s"))
	r, ok = h.GetStraight()
	assert.True(t, ok)
	assert.Equal(t, 14, r)

	// no wrap around
	h = NewHandAnalyzer(deck.CardsFromString("12c,13d,14s,2h,3s"))
	_, ok = h.GetStraight()
	assert.False(t, ok)
}

func TestHandAnalyzer_GetCategory(t *testing.T) {
	tests := []struct {
		cards    string
		category Category
		name     string
	}{
		{"2c,2d,2h,2s,3h", FourOfAKind, "Four of a kind"},
		{"2c,2d,2h,3c,3h", FullHouse, "Full house"},
		{"2c,2h,3c,3h,4c,5c,8c", Flush, "Flush"},
		{"2c,2d,2h,3c,4h", ThreeOfAKind, "Three of a kind"},
		{"2c,2d,3c,3d,4h", TwoPair, "Two pair"},
		{"2c,2d,3c,4c,5h", OnePair, "Pair"},
		{"2c,4c,13c,5c,8h", HighCard, "High card"},
		{"3c,4d,5h,6s,7c", Straight, "Straight"},
		{"3c,4c,5c,6c,7c", StraightFlush, "Straight flush"},
	}

	for _, test := range tests {
		h := NewHandAnalyzer(deck.CardsFromString(test.cards))
		assert.Equal(t, test.category, h.GetCategory(), test.cards)
		assert.Equal(t, test.name, h.GetCategory().String(), test.cards)
	}

	assert.PanicsWithValue(t, "unknown category: -1", func() {
		_ = Category(-1).String()
	})
}

func TestEvaluate_kickers(t *testing.T) {
	assert.Equal(t, Score{3, 9, 14, 12}, score("9c,9d,9h,14s,12c,2d,3h"))
	assert.Equal(t, Score{2, 13, 12, 14}, score("13c,13d,12h,12s,5c,5d,14h"))
	assert.Equal(t, Score{2, 13, 12, 8}, score("13c,13d,12h,12s,8c,8d,3h"))
	assert.Equal(t, Score{1, 7, 14, 11, 9}, score("7c,7d,14h,11s,9c,3d,2h"))
	assert.Equal(t, Score{0, 14, 11, 9, 7, 6}, score("14h,11s,9c,7d,6h,3d,2h"))
	assert.Equal(t, Score{7, 5, 13}, score("5c,5d,5h,5s,13c,13d,12h"))

	// fewer than five cards only produce groups and high cards
	assert.Equal(t, Score{1, 14, 13}, score("14c,14d,13s"))
	assert.Equal(t, Score{0, 13, 12}, score("13c,12d"))
}

func TestCompare_ranking(t *testing.T) {
	ordered := []string{
		"10s,11s,12s,13s,14s", // royal flush
		"5d,6d,7d,8d,9d",      // straight flush
		"14d,2d,3d,4d,5d",     // steel wheel
		"4c,4d,4h,4s,2c",      // quads
		"13c,13d,13h,2s,2c",   // full house
		"2h,5h,9h,11h,13h",    // flush
		"10c,11d,12h,13s,14c", // broadway
		"14c,2d,3h,4s,5c",     // wheel
		"8c,8d,8h,13s,2c",     // trips
		"13c,13d,4h,4s,2c",    // two pair
		"14c,14d,5h,4s,2c",    // pair
		"14c,13d,5h,4s,2c",    // high card
		"7c,5d,4h,3s,2c",      // worst high card
	}

	scores := make([]Score, len(ordered))
	for i, cards := range ordered {
		scores[i] = score(cards)
	}

	for i := 0; i < len(scores)-1; i++ {
		assert.Equal(t, 1, Compare(scores[i], scores[i+1]), "%v vs %v", ordered[i], ordered[i+1])
		assert.Equal(t, -1, Compare(scores[i+1], scores[i]), "%v vs %v", ordered[i+1], ordered[i])
	}

	assert.Equal(t, 0, Compare(score("2c,2d,5h,9s,13c"), score("2h,2s,5c,9d,13h")))
	assert.True(t, score("14c,14d,13h,5s,3c").Beats(score("14h,14s,12c,11d,10h")))
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "Royal flush", Describe(score("10s,11s,12s,13s,14s")))
	assert.Equal(t, "Straight flush, Nine high", Describe(score("5d,6d,7d,8d,9d")))
	assert.Equal(t, "Full house, Kings full of Twos", Describe(score("13c,13d,13h,2s,2c")))
	assert.Equal(t, "Two pair, Sixes and Fours", Describe(score("6c,6d,4h,4s,2c")))
	assert.Equal(t, "Straight, Five high", Describe(score("14c,2d,3h,4s,5c")))
	assert.Equal(t, "Pair of Aces", Describe(score("14c,14d,5h,4s,2c")))
	assert.Equal(t, "High card", Describe(nil))
}

func BenchmarkEvaluate(b *testing.B) {
	cards := deck.CardsFromString("3s,5s,6h,7h,11c,12c,14h")
	for i := 0; i < b.N; i++ {
		Evaluate(cards)
	}
}
