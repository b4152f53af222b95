package config

import (
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"headsup-server/internal/util"
	"headsup-server/pkg/holdem"
	"headsup-server/pkg/protocol"
	"headsup-server/pkg/room"
	"headsup-server/pkg/session"
)

// Config provides configuration for the relay server and the client
type Config struct {
	loaded bool

	Log struct {
		Level             string `yaml:"level"`
		Format            string `yaml:"format"`
		DisableAccessLogs bool   `yaml:"disableAccessLogs" envconfig:"disable_access_logs"`
	} `yaml:"log"`

	Relay struct {
		Addr string `yaml:"addr"`
		URL  string `yaml:"url"`
	} `yaml:"relay"`

	Store struct {
		Driver         string        `yaml:"driver"`
		DSN            string        `yaml:"dsn"`
		MigrationsPath string        `yaml:"migrationsPath" envconfig:"migrations_path"`
		TTL            time.Duration `yaml:"ttl"`
	} `yaml:"store"`

	Game struct {
		StartingStack      float64       `yaml:"startingStack" envconfig:"starting_stack"`
		BigBlind           float64       `yaml:"bigBlind" envconfig:"big_blind"`
		BlindIncreaseEvery int           `yaml:"blindIncreaseEvery" envconfig:"blind_increase_every"`
		StackScale         float64       `yaml:"stackScale" envconfig:"stack_scale"`
		NextHandDelay      time.Duration `yaml:"nextHandDelay" envconfig:"next_hand_delay"`
		AllInNextHandDelay time.Duration `yaml:"allInNextHandDelay" envconfig:"all_in_next_hand_delay"`
	} `yaml:"game"`

	Protocol struct {
		SubscribeDelay          time.Duration `yaml:"subscribeDelay" envconfig:"subscribe_delay"`
		ResendInitial           time.Duration `yaml:"resendInitial" envconfig:"resend_initial"`
		ResendMultiplier        float64       `yaml:"resendMultiplier" envconfig:"resend_multiplier"`
		ResendMaxInterval       time.Duration `yaml:"resendMaxInterval" envconfig:"resend_max_interval"`
		ResendAttempts          int           `yaml:"resendAttempts" envconfig:"resend_attempts"`
		SnapshotRetryMaxElapsed time.Duration `yaml:"snapshotRetryMaxElapsed" envconfig:"snapshot_retry_max_elapsed"`
	} `yaml:"protocol"`
}

var config Config

// DefaultConfig returns a configuration with every value set
func DefaultConfig() Config {
	var c Config

	c.Log.Level = "info"
	c.Log.Format = "text"

	c.Relay.Addr = ":5000"
	c.Relay.URL = "http://localhost:5000"

	c.Store.Driver = session.Memory
	c.Store.DSN = "headsup.db"
	c.Store.MigrationsPath = "./sql"
	c.Store.TTL = session.DefaultTTL

	rules := holdem.DefaultRules()
	c.Game.StartingStack = float64(rules.StartingStack)
	c.Game.BigBlind = float64(rules.BigBlind)
	c.Game.BlindIncreaseEvery = rules.BlindIncreaseEvery
	c.Game.StackScale = rules.StackScale

	timing := room.DefaultTiming()
	c.Game.NextHandDelay = timing.NextHandDelay
	c.Game.AllInNextHandDelay = timing.AllInNextHandDelay
	c.Protocol.SubscribeDelay = timing.SubscribeDelay
	c.Protocol.ResendInitial = timing.Resend.Initial
	c.Protocol.ResendMultiplier = timing.Resend.Multiplier
	c.Protocol.ResendMaxInterval = timing.Resend.MaxInterval
	c.Protocol.ResendAttempts = timing.Resend.Attempts
	c.Protocol.SnapshotRetryMaxElapsed = timing.SnapshotRetry

	return c
}

// Instance returns a singleton instance
// If the config hasn't been loaded, it will be loaded
func Instance() Config {
	if !config.loaded {
		if err := Load(); err != nil {
			panic(err)
		}
	}

	return config
}

// Load will load the configuration. Values missing from the file keep their defaults,
// and a missing file leaves every default in place. The environment is applied last
func Load() error {
	cfg := DefaultConfig()

	configFile := util.Getenv("HEADSUP_CONFIG_FILE", "config.yaml")
	file, err := os.Open(configFile)
	if err != nil && !os.IsNotExist(err) {
		return err
	}

	if err == nil {
		defer file.Close()
		if err := yaml.NewDecoder(file).Decode(&cfg); err != nil {
			return err
		}
	}

	if err := envconfig.Process("headsup", &cfg); err != nil {
		return err
	}

	cfg.loaded = true
	config = cfg
	return nil
}

// Rules returns the match rules
func (c Config) Rules() holdem.Rules {
	return holdem.Rules{
		StartingStack:      holdem.Money(c.Game.StartingStack).Round(),
		BigBlind:           holdem.Money(c.Game.BigBlind).Round(),
		BlindIncreaseEvery: c.Game.BlindIncreaseEvery,
		StackScale:         c.Game.StackScale,
	}
}

// Timing returns the controller timing
func (c Config) Timing() room.Timing {
	return room.Timing{
		NextHandDelay:      c.Game.NextHandDelay,
		AllInNextHandDelay: c.Game.AllInNextHandDelay,
		SubscribeDelay:     c.Protocol.SubscribeDelay,
		Resend: protocol.ResendPolicy{
			Initial:     c.Protocol.ResendInitial,
			Multiplier:  c.Protocol.ResendMultiplier,
			MaxInterval: c.Protocol.ResendMaxInterval,
			Attempts:    c.Protocol.ResendAttempts,
		},
		SnapshotRetry: c.Protocol.SnapshotRetryMaxElapsed,
	}
}

// SessionOptions returns the session store options
func (c Config) SessionOptions() session.Options {
	return session.Options{
		Driver:         c.Store.Driver,
		DSN:            c.Store.DSN,
		MigrationsPath: c.Store.MigrationsPath,
		TTL:            c.Store.TTL,
	}
}
