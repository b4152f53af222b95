package protocol

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"headsup-server/pkg/deck"
	"headsup-server/pkg/holdem"
)

func fixedClock(t *testing.T) {
	t.Helper()

	now = func() time.Time {
		return time.Date(2021, 3, 4, 5, 6, 7, 0, time.UTC)
	}

	t.Cleanup(func() {
		now = time.Now
	})
}

func TestNewAction(t *testing.T) {
	fixedClock(t)

	e, err := NewAction("game-1", "joiner-1", holdem.Top, holdem.BetRaiseTo{Amount: 4.5}, 7)
	require.NoError(t, err)
	assert.Equal(t, Version, e.V)
	assert.Equal(t, TypeAction, e.Type)
	assert.Equal(t, "game-1", e.GameID)
	assert.NotEmpty(t, e.ID)
	assert.True(t, e.FromSelf("joiner-1"))
	assert.False(t, e.FromSelf("host-1"))
	assert.JSONEq(t, `{"seat":"top","action":{"kind":"bet_raise_to","amount":4.5},"revision":7}`, string(e.Payload))

	b, err := e.Encode()
	require.NoError(t, err)

	decoded, err := Decode(b)
	require.NoError(t, err)
	assert.Equal(t, "2021-03-04T05:06:07Z", decoded.SentAt.Format(time.RFC3339))

	msg, action, err := decoded.DecodeAction()
	require.NoError(t, err)
	assert.Equal(t, holdem.Top, msg.Seat)
	assert.Equal(t, int64(7), msg.Revision)
	assert.Equal(t, holdem.BetRaiseTo{Amount: 4.5}, action)

	_, err = decoded.DecodeShowHand()
	assert.True(t, errors.Is(err, ErrWrongType))

	_, err = NewAction("game-1", "joiner-1", holdem.Top, nil, 0)
	assert.Equal(t, holdem.ErrUnknownAction, err)
}

func TestNewFullState(t *testing.T) {
	var cards [deck.DealSize]deck.Card
	copy(cards[:], deck.CardsFromString("14s,14h,2c,7d,13c,9d,5h,3s,8c"))

	state, err := holdem.NewMatch(holdem.DefaultRules(), holdem.Bottom, cards)
	require.NoError(t, err)

	e, err := NewFullState("game-1", "host-1", state, nil)
	require.NoError(t, err)

	b, err := e.Encode()
	require.NoError(t, err)

	decoded, err := Decode(b)
	require.NoError(t, err)

	fs, err := decoded.DecodeFullState()
	require.NoError(t, err)
	assert.Equal(t, state, fs.State)
	assert.Empty(t, fs.History)
}

func TestOtherMessages(t *testing.T) {
	e, err := NewRequestSnapshot("g", "j", holdem.Bottom)
	require.NoError(t, err)
	rs, err := e.DecodeRequestSnapshot()
	require.NoError(t, err)
	assert.Equal(t, holdem.Bottom, rs.Seat)

	e, err = NewShowHand("g", "j", holdem.Top)
	require.NoError(t, err)
	sh, err := e.DecodeShowHand()
	require.NoError(t, err)
	assert.Equal(t, holdem.Top, sh.Seat)

	e, err = NewPlayerLeft("g", "j", holdem.Top, "quit")
	require.NoError(t, err)
	pl, err := e.DecodePlayerLeft()
	require.NoError(t, err)
	assert.Equal(t, PlayerLeft{Seat: holdem.Top, Reason: "quit"}, pl)
}

func TestDecode_invalid(t *testing.T) {
	_, err := Decode([]byte(`{`))
	assert.Error(t, err)

	b, _ := json.Marshal(Envelope{V: 2, Type: TypeAction})
	_, err = Decode(b)
	assert.True(t, errors.Is(err, ErrUnsupportedVersion))

	b, _ = json.Marshal(Envelope{V: Version, Type: "CHAT"})
	_, err = Decode(b)
	assert.True(t, errors.Is(err, ErrUnknownType))

	b, _ = json.Marshal(Envelope{V: Version, Type: TypeAction, Payload: json.RawMessage(`{"seat":"top","action":{"kind":"shove"}}`)})
	e, err := Decode(b)
	require.NoError(t, err)
	_, _, err = e.DecodeAction()
	assert.True(t, errors.Is(err, holdem.ErrUnknownAction))
}

func TestResendPolicy_Delays(t *testing.T) {
	p := ResendPolicy{
		Initial:     100 * time.Millisecond,
		Multiplier:  2,
		MaxInterval: 500 * time.Millisecond,
		Attempts:    5,
	}

	assert.Equal(t, []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		400 * time.Millisecond,
		500 * time.Millisecond,
		500 * time.Millisecond,
	}, p.Delays())

	assert.Equal(t, p.Delays(), p.Delays(), "delays carry no jitter")
	assert.Nil(t, ResendPolicy{}.Delays())
	assert.Len(t, DefaultResendPolicy().Delays(), 5)
}
