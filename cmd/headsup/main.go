package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"golang.org/x/term"

	"headsup-server/internal/config"
	"headsup-server/internal/rng"
	"headsup-server/internal/util"
	"headsup-server/pkg/channel"
	"headsup-server/pkg/holdem"
	"headsup-server/pkg/room"
	"headsup-server/pkg/session"
)

const purgeInterval = time.Minute * 10

var (
	role     = flag.String("role", "host", "host or join")
	gameID   = flag.String("game", "", "the game id, a new one is generated for hosts if empty")
	seatName = flag.String("seat", "", "top or bottom, defaults to top for hosts and bottom for joiners")
	relayURL = flag.String("relay", "", "the relay server URL, defaults to relay.url from the config")
)

// player is what the command loop drives, regardless of role
type player interface {
	Start(ctx context.Context) error
	Close() error
	Seat() holdem.Seat
	Dispatch(action holdem.Action)
	ShowHand()
	Resync()
	State() (holdem.HostState, bool)
}

type hostPlayer struct {
	*room.Host
	seat holdem.Seat
}

func (h hostPlayer) Seat() holdem.Seat               { return h.seat }
func (h hostPlayer) Dispatch(action holdem.Action)   { h.Host.Dispatch(h.seat, action) }
func (h hostPlayer) ShowHand()                       { h.Host.ShowHand(h.seat) }
func (h hostPlayer) Resync()                         {}
func (h hostPlayer) State() (holdem.HostState, bool) { return h.Host.State(), true }

type joinerPlayer struct {
	*room.Joiner
	seat holdem.Seat
}

func (j joinerPlayer) Seat() holdem.Seat { return j.seat }

func main() {
	flag.Parse()

	// a missing .env is fine
	_ = godotenv.Load()
	setupLogger()

	cfg := config.Instance()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, relayDone, closeAll, err := newPlayer(ctx, cfg)
	if err != nil {
		logrus.WithError(err).Fatal("could not start")
	}
	defer closeAll()

	// the session is saved after every state, so running again resumes where this left off
	go func() {
		select {
		case <-relayDone:
			logrus.Warn("lost the connection to the relay, run again to resume the game")
			stop()
		case <-ctx.Done():
		}
	}()

	if err := p.Start(ctx); err != nil {
		logrus.WithError(err).Fatal("could not start match")
	}

	if err := commandLoop(ctx, p, os.Stdin, os.Stdout); err != nil && !errors.Is(err, io.EOF) {
		logrus.WithError(err).Error("command loop failed")
	}
}

func newPlayer(ctx context.Context, cfg config.Config) (player, <-chan bool, func(), error) {
	isHost := *role == "host"
	if !isHost && *role != "join" {
		return nil, nil, nil, fmt.Errorf("unknown role %q", *role)
	}

	if *gameID == "" {
		if !isHost {
			return nil, nil, nil, errors.New("-game is required to join")
		}

		*gameID = util.NewGameID()
	}

	seat := holdem.Top
	if !isHost {
		seat = holdem.Bottom
	}

	if *seatName != "" {
		var err error
		if seat, err = holdem.SeatFromString(*seatName); err != nil {
			return nil, nil, nil, err
		}
	}

	base := cfg.Relay.URL
	if *relayURL != "" {
		base = *relayURL
	}

	log := logrus.WithField("gameId", *gameID)
	log.WithFields(logrus.Fields{"role": *role, "seat": seat, "relay": base}).Info("starting")

	store, err := session.Open(ctx, cfg.SessionOptions())
	if err != nil {
		return nil, nil, nil, err
	}

	ws, err := channel.Dial(ctx, base, *gameID, cfg.Protocol.SnapshotRetryMaxElapsed, log)
	if err != nil {
		_ = store.Close()
		return nil, nil, nil, err
	}

	onState := func(state holdem.HostState, history []holdem.HandLogSnapshot) {
		fmt.Println(summary(state, seat))
	}

	var p player
	if isHost {
		h, err := room.NewHost(room.HostOptions{
			GameID:    *gameID,
			Seat:      seat,
			Rules:     cfg.Rules(),
			Timing:    cfg.Timing(),
			Channel:   ws,
			Store:     store,
			Generator: rng.Crypto{},
			Logger:    logrus.StandardLogger(),
			OnState:   onState,
		})
		if err != nil {
			_ = ws.Close()
			_ = store.Close()
			return nil, nil, nil, err
		}

		fmt.Printf("hosting game %s\n", *gameID)
		p = hostPlayer{Host: h, seat: seat}
	} else {
		j, err := room.NewJoiner(room.JoinerOptions{
			GameID:  *gameID,
			Seat:    seat,
			Timing:  cfg.Timing(),
			Channel: ws,
			Store:   store,
			Logger:  logrus.StandardLogger(),
			OnState: onState,
		})
		if err != nil {
			_ = ws.Close()
			_ = store.Close()
			return nil, nil, nil, err
		}

		p = joinerPlayer{Joiner: j, seat: seat}
	}

	purgeCtx, cancelPurge := context.WithCancel(ctx)
	go purgeLoop(purgeCtx, store)

	return p, ws.Done(), func() {
		cancelPurge()
		if err := p.Close(); err != nil {
			logrus.WithError(err).Warn("could not close cleanly")
		}

		_ = ws.Close()
		_ = store.Close()
	}, nil
}

func purgeLoop(ctx context.Context, store session.Store) {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := store.Purge(ctx)
			if err != nil {
				logrus.WithError(err).Warn("could not purge expired sessions")
				continue
			}

			if n > 0 {
				logrus.WithField("purged", n).Debug("purged expired sessions")
			}
		}
	}
}

const helpText = `commands:
  fold | check | call | bet N | raise N    act
  show                                     reveal your hand after winning uncontested
  state                                    print the current state
  sync                                     ask the host for a fresh snapshot
  quit                                     leave the game`

func commandLoop(ctx context.Context, p player, in *os.File, out io.Writer) error {
	interactive := term.IsTerminal(int(in.Fd()))

	lines := make(chan string)
	errs := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}

		if err := scanner.Err(); err != nil {
			errs <- err
			return
		}

		errs <- io.EOF
	}()

	for {
		if interactive {
			_, _ = fmt.Fprint(out, "> ")
		}

		select {
		case <-ctx.Done():
			return nil
		case err := <-errs:
			return err
		case line := <-lines:
			if quit := runCommand(p, strings.TrimSpace(line), out); quit {
				return nil
			}
		}
	}
}

// runCommand executes a single line of input and returns true if the player asked to quit
func runCommand(p player, line string, out io.Writer) bool {
	switch strings.ToLower(line) {
	case "":
		return false
	case "quit", "exit", "q":
		return true
	case "help", "?":
		_, _ = fmt.Fprintln(out, helpText)
		return false
	case "show":
		p.ShowHand()
		return false
	case "sync":
		p.Resync()
		return false
	case "state":
		state, ok := p.State()
		if !ok {
			_, _ = fmt.Fprintln(out, "waiting for the host")
			return false
		}

		_, _ = fmt.Fprintln(out, summary(state, p.Seat()))
		for _, entry := range state.ActionLog {
			_, _ = fmt.Fprintf(out, "  %d. [%s] %s\n", entry.Sequence, entry.Street, entry.Text)
		}

		return false
	}

	action, err := holdem.ParseAction(line)
	if err != nil {
		_, _ = fmt.Fprintf(out, "%s (type 'help' for commands)\n", err)
		return false
	}

	if state, ok := p.State(); ok && !holdem.CanAct(state, p.Seat()) {
		_, _ = fmt.Fprintln(out, "it is not your turn")
		return false
	}

	p.Dispatch(action)
	return false
}

func setupLogger() {
	// stdout belongs to the game
	logrus.SetOutput(os.Stderr)

	if lvl := config.Instance().Log.Level; lvl != "" {
		level, err := logrus.ParseLevel(lvl)
		if err != nil {
			logrus.WithError(err).Fatal("could not parse level")
		}

		logrus.SetLevel(level)
	}

	if strings.ToLower(config.Instance().Log.Format) == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}
}
