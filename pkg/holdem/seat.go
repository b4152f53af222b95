package holdem

import (
	"encoding/json"
	"fmt"
)

// Seat is one of the two playing positions
type Seat int

// Seat constants. NoSeat marks an unset seat, i.e., no aggressor yet
const (
	NoSeat Seat = iota - 1
	Top
	Bottom
)

// Seats lists both seats
var Seats = []Seat{Top, Bottom}

// Other returns the opponent's seat
func (s Seat) Other() Seat {
	switch s {
	case Top:
		return Bottom
	case Bottom:
		return Top
	}

	return NoSeat
}

// Valid returns true for Top and Bottom
func (s Seat) Valid() bool {
	return s == Top || s == Bottom
}

func (s Seat) String() string {
	switch s {
	case Top:
		return "top"
	case Bottom:
		return "bottom"
	}

	return ""
}

// MarshalText encodes the seat as its name
func (s Seat) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a seat name
func (s *Seat) UnmarshalText(b []byte) error {
	seat, err := SeatFromString(string(b))
	if err != nil {
		return err
	}

	*s = seat
	return nil
}

// SeatFromString parses "top", "bottom", or "" (NoSeat)
func SeatFromString(str string) (Seat, error) {
	switch str {
	case "top":
		return Top, nil
	case "bottom":
		return Bottom, nil
	case "":
		return NoSeat, nil
	}

	return NoSeat, fmt.Errorf("invalid seat: %s", str)
}

// BySeat holds one value per seat
type BySeat[T any] struct {
	Top    T `json:"top"`
	Bottom T `json:"bottom"`
}

// Get returns the value for the seat
func (b BySeat[T]) Get(s Seat) T {
	if s == Bottom {
		return b.Bottom
	}

	return b.Top
}

// Set sets the value for the seat
func (b *BySeat[T]) Set(s Seat, v T) {
	if s == Bottom {
		b.Bottom = v
		return
	}

	b.Top = v
}

// Street is a betting round. Its value is the number of revealed board cards
type Street int

// Street constants
const (
	Preflop Street = 0
	Flop    Street = 3
	Turn    Street = 4
	River   Street = 5
)

// Next returns the following street. The river has no next street
func (s Street) Next() Street {
	switch s {
	case Preflop:
		return Flop
	case Flop:
		return Turn
	}

	return River
}

func (s Street) String() string {
	switch s {
	case Preflop:
		return "preflop"
	case Flop:
		return "flop"
	case Turn:
		return "turn"
	case River:
		return "river"
	}

	return fmt.Sprintf("street(%d)", int(s))
}

// MarshalJSON encodes the street with both its tag and name
func (s Street) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	}{
		ID:   int(s),
		Name: s.String(),
	})
}

// UnmarshalJSON accepts either the encoded object or a bare number
func (s *Street) UnmarshalJSON(b []byte) error {
	var obj struct {
		ID int `json:"id"`
	}

	if err := json.Unmarshal(b, &obj); err != nil {
		var id int
		if err := json.Unmarshal(b, &id); err != nil {
			return err
		}

		obj.ID = id
	}

	switch Street(obj.ID) {
	case Preflop, Flop, Turn, River:
		*s = Street(obj.ID)
		return nil
	}

	return fmt.Errorf("invalid street: %d", obj.ID)
}
