package mux

import (
	"context"
	"net/http"
	"time"

	gmux "github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"headsup-server/pkg/channel"
	"headsup-server/pkg/protocol"
)

const writeWait = time.Second * 10
const pongWait = time.Second * 60
const pingPeriod = pongWait * 9 / 10

const clientSendBuffer = 256

// relayClient is one websocket connection attached to a game topic
type relayClient struct {
	conn     *websocket.Conn
	endpoint *channel.Endpoint
	gameID   string
	log      logrus.FieldLogger

	send chan []byte
}

func (m *Mux) getGameWS() http.HandlerFunc {
	upgrader := &websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		gameID := gmux.Vars(r)["gameId"]

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logrus.WithError(err).Error("could not upgrade connection")
			return
		}

		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			_ = conn.SetReadDeadline(time.Now().Add(pongWait))
			return nil
		})

		client := &relayClient{
			conn:     conn,
			endpoint: m.hub.Join(gameID),
			gameID:   gameID,
			log:      logrus.WithFields(logrus.Fields{"gameId": gameID, "remoteAddr": remoteAddr(r)}),
			send:     make(chan []byte, clientSendBuffer),
		}

		client.log.Info("client connected")

		client.endpoint.Subscribe(client.deliver)

		done := make(chan bool)
		defer func() {
			_ = client.endpoint.Close()
			_ = conn.Close()
			close(done)
			client.log.Info("client disconnected")
		}()

		go m.webSocketWriteLoop(client, done)
		m.webSocketReadLoop(client)
	}
}

// deliver queues an envelope from the topic for the client
func (c *relayClient) deliver(e *protocol.Envelope) {
	b, err := e.Encode()
	if err != nil {
		c.log.WithError(err).Error("could not encode message")
		return
	}

	select {
	case c.send <- b:
	default:
		c.log.WithField("type", e.Type).Warn("client send queue is full, dropping message")
	}
}

func (m *Mux) webSocketWriteLoop(client *relayClient, done chan bool) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = client.conn.Close()
	}()

	for {
		select {
		case <-ticker.C:
			_ = client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case msg := <-client.send:
			client.log.WithField("message", string(msg)).Trace("sending message to client")

			_ = client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				client.log.WithError(err).Error("could not write message")
				return
			}
		case <-done:
			return
		}
	}
}

func (m *Mux) webSocketReadLoop(client *relayClient) {
	for {
		_, msg, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				client.log.WithError(err).Error("could not read message")
			}

			return
		}

		e, err := protocol.Decode(msg)
		if err != nil {
			client.log.WithError(err).Warn("dropping invalid message")
			continue
		}

		if e.GameID != client.gameID {
			client.log.WithField("messageGameId", e.GameID).Warn("dropping message for another game")
			continue
		}

		if err := client.endpoint.Publish(context.Background(), e); err != nil {
			client.log.WithError(err).Error("could not publish message")
			return
		}
	}
}
