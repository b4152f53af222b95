package poker

import (
	"sort"

	"headsup-server/pkg/deck"
)

// handSize is the number of cards that make a poker hand
const handSize = 5

// HandAnalyzer can analyze a set of two to seven cards
type HandAnalyzer struct {
	cards         []deck.Card
	quads         []int
	trips         []int
	pairs         []int
	singles       []int
	flush         []int
	straightFlush int
	straight      int

	score Score
}

// NewHandAnalyzer will return a new HandAnalyzer instance
func NewHandAnalyzer(cards []deck.Card) *HandAnalyzer {
	newCards := make([]deck.Card, len(cards))
	copy(newCards, cards)

	sort.Sort(sort.Reverse(sortByRank(newCards)))

	h := &HandAnalyzer{
		cards: newCards,
	}

	// the method order here is required
	h.analyzeHand()
	h.calculateScore()

	return h
}

// Evaluate scores five to seven cards. With more than five cards the score is
// that of the best five card hand the cards can make
func Evaluate(cards []deck.Card) Score {
	return NewHandAnalyzer(cards).GetScore()
}

// analyzeHand groups the cards by rank and suit and finds straights
// This method should only be called once from the constructor
func (h *HandAnalyzer) analyzeHand() {
	suitRanks := make(map[deck.Suit][]int)
	var ranks [deck.Ace + 1]bool

	prevRank := -1
	numOfRank := 0
	for i, card := range h.cards {
		ranks[card.Rank] = true
		suitRanks[card.Suit] = append(suitRanks[card.Suit], card.Rank)

		if card.Rank == prevRank {
			numOfRank++
		} else {
			h.recordGroup(prevRank, numOfRank)
			numOfRank = 1
		}

		prevRank = card.Rank
		if i+1 == len(h.cards) {
			h.recordGroup(prevRank, numOfRank)
		}
	}

	h.straight = highestStraight(ranks)

	for _, suit := range deck.Suits {
		suited := suitRanks[suit]
		if len(suited) < handSize {
			continue
		}

		// cards are sorted, so the suited ranks are too
		h.flush = suited[:handSize]

		var suitedRanks [deck.Ace + 1]bool
		for _, rank := range suited {
			suitedRanks[rank] = true
		}

		h.straightFlush = highestStraight(suitedRanks)
	}
}

func (h *HandAnalyzer) recordGroup(rank, count int) {
	switch count {
	case 0:
		return
	case 1:
		h.singles = append(h.singles, rank)
	case 2:
		h.pairs = append(h.pairs, rank)
	case 3:
		h.trips = append(h.trips, rank)
	default:
		h.quads = append(h.quads, rank)
	}
}

// highestStraight returns the high card of the best straight or 0
// An ace plays both high and low, so the wheel (A-2-3-4-5) returns 5
func highestStraight(ranks [deck.Ace + 1]bool) int {
	has := func(rank int) bool {
		if rank == deck.LowAce {
			return ranks[deck.Ace]
		}

		return ranks[rank]
	}

	for high := deck.Ace; high >= 5; high-- {
		found := true
		for rank := high; rank > high-handSize; rank-- {
			if !has(rank) {
				found = false
				break
			}
		}

		if found {
			return high
		}
	}

	return 0
}

// GetScore returns the comparable score of the cards
func (h *HandAnalyzer) GetScore() Score {
	return h.score
}

// GetCategory returns the category of the best hand
func (h *HandAnalyzer) GetCategory() Category {
	return h.score.Category()
}

// GetStraightFlush will return the best straight flush, if possible
func (h *HandAnalyzer) GetStraightFlush() (int, bool) {
	return h.straightFlush, h.straightFlush > 0
}

// GetFourOfAKind will return the best four of a kind, if possible
func (h *HandAnalyzer) GetFourOfAKind() (int, bool) {
	if len(h.quads) > 0 {
		return h.quads[0], true
	}

	return 0, false
}

// GetFullHouse will return the best full house, if possible
func (h *HandAnalyzer) GetFullHouse() ([]int, bool) {
	if len(h.trips) == 0 {
		return nil, false
	}

	trips := h.trips[0]

	pair, ok := h.GetPair()
	if !ok {
		if len(h.trips) == 1 {
			// could not find a pair from a second set of trips
			return nil, false
		}

		pair = h.trips[1]
	} else if len(h.trips) >= 2 && h.trips[1] > pair {
		// two sets of trips and a pair, the second trips makes the better pair
		pair = h.trips[1]
	}

	return []int{trips, pair}, true
}

// GetFlush will return the five best ranks of a flush, if possible
func (h *HandAnalyzer) GetFlush() ([]int, bool) {
	if h.flush != nil {
		return h.flush, true
	}

	return nil, false
}

// GetStraight will return the best straight, if possible
func (h *HandAnalyzer) GetStraight() (int, bool) {
	return h.straight, h.straight > 0
}

// GetThreeOfAKind will return the best three of a kind, if possible
func (h *HandAnalyzer) GetThreeOfAKind() (int, bool) {
	if len(h.trips) > 0 {
		return h.trips[0], true
	}

	return 0, false
}

// GetTwoPair will return the best two pairs, if possible
func (h *HandAnalyzer) GetTwoPair() ([]int, bool) {
	if len(h.pairs) >= 2 {
		return h.pairs[0:2], true
	}

	return nil, false
}

// GetPair will return the best pair, if possible
func (h *HandAnalyzer) GetPair() (int, bool) {
	if len(h.pairs) > 0 {
		return h.pairs[0], true
	}

	return 0, false
}

// kickers returns the highest ranks not in exclude, at most n of them
func (h *HandAnalyzer) kickers(n int, exclude ...int) []int {
	kickers := make([]int, 0, n)
	prev := -1
	for _, card := range h.cards {
		if len(kickers) == n {
			break
		}

		if card.Rank == prev || containsRank(exclude, card.Rank) {
			continue
		}

		prev = card.Rank
		kickers = append(kickers, card.Rank)
	}

	return kickers
}

// calculateScore resolves the best category, strongest first
// This must be called after analyzeHand() has been called
func (h *HandAnalyzer) calculateScore() {
	if high, ok := h.GetStraightFlush(); ok {
		h.score = Score{int(StraightFlush), high}
	} else if quads, ok := h.GetFourOfAKind(); ok {
		h.score = append(Score{int(FourOfAKind), quads}, h.kickers(1, quads)...)
	} else if fh, ok := h.GetFullHouse(); ok {
		h.score = Score{int(FullHouse), fh[0], fh[1]}
	} else if flush, ok := h.GetFlush(); ok {
		h.score = append(Score{int(Flush)}, flush...)
	} else if high, ok := h.GetStraight(); ok {
		h.score = Score{int(Straight), high}
	} else if trips, ok := h.GetThreeOfAKind(); ok {
		h.score = append(Score{int(ThreeOfAKind), trips}, h.kickers(2, trips)...)
	} else if pairs, ok := h.GetTwoPair(); ok {
		h.score = append(Score{int(TwoPair), pairs[0], pairs[1]}, h.kickers(1, pairs...)...)
	} else if pair, ok := h.GetPair(); ok {
		h.score = append(Score{int(OnePair), pair}, h.kickers(3, pair)...)
	} else {
		h.score = append(Score{int(HighCard)}, h.kickers(handSize)...)
	}
}

func containsRank(ranks []int, rank int) bool {
	for _, r := range ranks {
		if r == rank {
			return true
		}
	}

	return false
}
