package main

import (
	"flag"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gorilla/handlers"
	"github.com/joho/godotenv"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"headsup-server/internal/config"
	"headsup-server/internal/mux"
	"headsup-server/pkg/channel"
)

const readTimeout = time.Second * 5

// Version is the server version
var Version = "v0.0.0-dev"

var addr = flag.String("addr", "", "the listen address, defaults to relay.addr from the config")

func main() {
	flag.Parse()

	// a missing .env is fine
	_ = godotenv.Load()
	setupLogger()

	listen := config.Instance().Relay.Addr
	if *addr != "" {
		listen = *addr
	}

	c := cors.New(cors.Options{
		AllowedHeaders: []string{"Origin", "Accept", "Content-Type", "X-Requested-With"},
		AllowedMethods: []string{http.MethodGet},
	})

	// no write timeout: websocket connections are long lived and manage their own deadlines
	srv := &http.Server{
		Addr:        listen,
		Handler:     loggingHandler(c.Handler(mux.NewMux(Version, channel.NewHub()))),
		ReadTimeout: readTimeout,
	}

	logrus.WithField("addr", srv.Addr).Info("listening")
	logrus.Fatal(srv.ListenAndServe())
}

func loggingHandler(next http.Handler) http.Handler {
	if config.Instance().Log.DisableAccessLogs {
		return next
	}

	return handlers.CombinedLoggingHandler(os.Stdout, next)
}

func setupLogger() {
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
