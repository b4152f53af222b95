package deck

import "strings"

// Hand represents a collection of cards
type Hand []Card

// HasCard returns true if the hand contains the specified card
func (h Hand) HasCard(card Card) bool {
	for _, c := range h {
		if c == card {
			return true
		}
	}

	return false
}

func (h Hand) String() string {
	return CardsToString(h)
}

// Pretty returns the cards with suit symbols separated by spaces, or "-" if the hand is empty
func (h Hand) Pretty() string {
	if len(h) == 0 {
		return "-"
	}

	s := make([]string, len(h))
	for i, c := range h {
		s[i] = c.String()
	}

	return strings.Join(s, " ")
}
