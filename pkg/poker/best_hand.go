package poker

import (
	"fmt"
	"sort"

	"headsup-server/pkg/deck"
)

// Best5From7 evaluates every five card subset of the cards (C(7,5) = 21 for seven cards)
// and returns the strongest one along with its score. Five and six card inputs are
// accepted as well. When two subsets score the same, the first one found is kept
func Best5From7(cards []deck.Card) ([]deck.Card, Score) {
	n := len(cards)
	if n < handSize || n > 7 {
		panic(fmt.Sprintf("cannot pick five cards from %d", n))
	}

	var best []deck.Card
	var bestScore Score

	idx := make([]int, handSize)
	var walk func(start, depth int)
	walk = func(start, depth int) {
		if depth == handSize {
			five := make([]deck.Card, handSize)
			for i, j := range idx {
				five[i] = cards[j]
			}

			if score := Evaluate(five); best == nil || score.Beats(bestScore) {
				best = five
				bestScore = score
			}

			return
		}

		for i := start; i <= n-(handSize-depth); i++ {
			idx[depth] = i
			walk(i+1, depth+1)
		}
	}

	walk(0, 0)
	return best, bestScore
}

// DisplayOrder returns the five cards arranged for presentation: straights run high to
// low (the wheel ends with its ace), and grouped hands lead with the group that decides
// the score's first tiebreak, i.e., quads before their kicker
func DisplayOrder(five []deck.Card, score Score) []deck.Card {
	sorted := make([]deck.Card, len(five))
	copy(sorted, five)
	sort.Sort(sort.Reverse(sortByRank(sorted)))

	switch score.Category() {
	case Straight, StraightFlush:
		if len(score) < 2 {
			return sorted
		}

		return sequenceStraight(sorted, score[1])
	}

	ordered := make([]deck.Card, 0, len(sorted))
	used := make([]bool, len(sorted))
	for _, rank := range score.Tiebreaks() {
		for i, card := range sorted {
			if !used[i] && card.Rank == rank {
				used[i] = true
				ordered = append(ordered, card)
			}
		}
	}

	// anything the tiebreaks did not name keeps its rank order
	for i, card := range sorted {
		if !used[i] {
			ordered = append(ordered, card)
		}
	}

	return ordered
}

func sequenceStraight(sorted []deck.Card, high int) []deck.Card {
	ordered := make([]deck.Card, 0, len(sorted))
	used := make([]bool, len(sorted))
	for rank := high; rank > high-handSize; rank-- {
		want := rank
		if want == deck.LowAce {
			want = deck.Ace
		}

		for i, card := range sorted {
			if !used[i] && card.Rank == want {
				used[i] = true
				ordered = append(ordered, card)
				break
			}
		}
	}

	for i, card := range sorted {
		if !used[i] {
			ordered = append(ordered, card)
		}
	}

	return ordered
}
