package holdem

import "errors"

// Rules configures a match
type Rules struct {
	StartingStack Money
	BigBlind      Money

	// BlindIncreaseEvery is how many hands are played per blind level. Zero disables increases
	BlindIncreaseEvery int

	// StackScale multiplies both stacks when a new blind level starts. Shrinking the stacks
	// against a fixed big blind is how a blind increase is played out
	StackScale float64
}

// DefaultRules returns the default rules
func DefaultRules() Rules {
	return Rules{
		StartingStack:      100,
		BigBlind:           1,
		BlindIncreaseEvery: 10,
		StackScale:         0.75,
	}
}

// SmallBlind is half the big blind
func (r Rules) SmallBlind() Money {
	return (r.BigBlind / 2).Round()
}

// Validate checks the rules
func (r Rules) Validate() error {
	if r.BigBlind <= 0 {
		return errors.New("big blind must be > 0")
	}

	if r.SmallBlind() <= 0 {
		return errors.New("small blind must be at least 0.01")
	}

	if r.StartingStack < r.BigBlind {
		return errors.New("starting stack must be at least the big blind")
	}

	if r.BlindIncreaseEvery < 0 {
		return errors.New("blind increase interval must be >= 0")
	}

	if r.BlindIncreaseEvery > 0 && (r.StackScale <= 0 || r.StackScale > 1) {
		return errors.New("stack scale must be in (0, 1]")
	}

	return nil
}

// isLevelUp returns true if the hand starts a new blind level
func (r Rules) isLevelUp(handID int) bool {
	return r.BlindIncreaseEvery > 0 && handID > 1 && (handID-1)%r.BlindIncreaseEvery == 0
}
