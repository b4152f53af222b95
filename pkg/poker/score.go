package poker

import (
	"fmt"
	"strings"

	"headsup-server/pkg/deck"
)

// Score is a comparable hand strength: the category followed by its tiebreak ranks.
// Scores compare lexicographically
type Score []int

// Category returns the category of the score
func (s Score) Category() Category {
	if len(s) == 0 {
		return HighCard
	}

	return Category(s[0])
}

// Tiebreaks returns the ranks after the category
func (s Score) Tiebreaks() []int {
	if len(s) == 0 {
		return nil
	}

	return s[1:]
}

// Beats returns true if s is strictly stronger than other
func (s Score) Beats(other Score) bool {
	return Compare(s, other) > 0
}

// Compare returns 1 if a is stronger, -1 if b is stronger, and 0 for a tie
func Compare(a, b Score) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	for i := 0; i < n; i++ {
		if a[i] > b[i] {
			return 1
		} else if a[i] < b[i] {
			return -1
		}
	}

	switch {
	case len(a) > len(b):
		return 1
	case len(a) < len(b):
		return -1
	}

	return 0
}

// Describe returns a human readable summary, i.e., "Full house, Kings full of Fives"
func Describe(s Score) string {
	if len(s) < 2 {
		return s.Category().String()
	}

	t := s.Tiebreaks()
	switch s.Category() {
	case StraightFlush:
		if t[0] == deck.Ace {
			return "Royal flush"
		}

		return fmt.Sprintf("Straight flush, %s high", rankWord(t[0]))
	case FourOfAKind:
		return fmt.Sprintf("Four of a kind, %s", plural(t[0]))
	case FullHouse:
		return fmt.Sprintf("Full house, %s full of %s", plural(t[0]), plural(t[1]))
	case Flush:
		return fmt.Sprintf("Flush, %s high", rankWord(t[0]))
	case Straight:
		return fmt.Sprintf("Straight, %s high", rankWord(t[0]))
	case ThreeOfAKind:
		return fmt.Sprintf("Three of a kind, %s", plural(t[0]))
	case TwoPair:
		return fmt.Sprintf("Two pair, %s and %s", plural(t[0]), plural(t[1]))
	case OnePair:
		return fmt.Sprintf("Pair of %s", plural(t[0]))
	}

	return fmt.Sprintf("High card, %s", rankWord(t[0]))
}

var rankWords = map[int]string{
	2:          "Two",
	3:          "Three",
	4:          "Four",
	5:          "Five",
	6:          "Six",
	7:          "Seven",
	8:          "Eight",
	9:          "Nine",
	10:         "Ten",
	deck.Jack:  "Jack",
	deck.Queen: "Queen",
	deck.King:  "King",
	deck.Ace:   "Ace",
}

func rankWord(rank int) string {
	if w, ok := rankWords[rank]; ok {
		return w
	}

	return deck.RankName(rank)
}

func plural(rank int) string {
	w := rankWord(rank)
	if strings.HasSuffix(w, "x") {
		return w + "es"
	}

	return w + "s"
}
