package poker

import "headsup-server/pkg/deck"

type sortByRank []deck.Card

func (s sortByRank) Len() int {
	return len(s)
}

// suit breaks rank ties so the order never depends on the input order
func (s sortByRank) Less(i, j int) bool {
	if s[i].Rank != s[j].Rank {
		return s[i].Rank < s[j].Rank
	}

	return s[i].Suit < s[j].Suit
}

func (s sortByRank) Swap(i, j int) {
	s[i], s[j] = s[j], s[i]
}
