package mux

import (
	"net/http/httptest"
	"testing"

	"github.com/bmizerany/assert"

	"headsup-server/pkg/channel"
)

func TestHealthHandler(t *testing.T) {
	hub := channel.NewHub()
	ts := httptest.NewServer(NewMux("v1.2.3", hub))
	defer ts.Close()

	var expects healthResponse
	assertGet(t, ts, "/health", &expects, 200)
	assert.Equal(t, "OK", expects.Status)
	assert.Equal(t, "v1.2.3", expects.Version)
	assert.Equal(t, 0, expects.Games)

	endpoint := hub.Join("game")
	defer endpoint.Close()

	assertGet(t, ts, "/health", &expects, 200)
	assert.Equal(t, 1, expects.Games)
}
