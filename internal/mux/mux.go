package mux

import (
	"net/http"

	gmux "github.com/gorilla/mux"

	"headsup-server/pkg/channel"
)

// Mux handles HTTP requests
type Mux struct {
	*gmux.Router
	version string
	hub     *channel.Hub
}

// NewMux returns a new HTTP mux that relays game channels through hub
func NewMux(version string, hub *channel.Hub) *Mux {
	this := &Mux{
		Router:  gmux.NewRouter(),
		version: version,
		hub:     hub,
	}

	{
		r := this.Router
		r.Methods(http.MethodGet).Path("/health").Handler(this.getHealth())

		gr := r.PathPrefix("/game/{gameId:[A-Za-z0-9_-]{1,64}}").Subrouter()
		gr.Methods(http.MethodGet).Path("/ws").Handler(this.getGameWS())
	}

	return this
}
