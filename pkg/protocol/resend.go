package protocol

import (
	"time"

	"github.com/cenkalti/backoff/v5"
)

// ResendPolicy describes how often a message is sent again when delivery is not
// acknowledged. Every interval is Multiplier times the last, capped at MaxInterval
type ResendPolicy struct {
	Initial     time.Duration `yaml:"initial"`
	Multiplier  float64       `yaml:"multiplier"`
	MaxInterval time.Duration `yaml:"maxInterval"`
	Attempts    int           `yaml:"attempts"`
}

// DefaultResendPolicy returns the default policy
func DefaultResendPolicy() ResendPolicy {
	return ResendPolicy{
		Initial:     250 * time.Millisecond,
		Multiplier:  2,
		MaxInterval: 4 * time.Second,
		Attempts:    5,
	}
}

// NewBackOff returns an exponential backoff without jitter that follows the policy
func (p ResendPolicy) NewBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.Initial
	b.Multiplier = p.Multiplier
	b.MaxInterval = p.MaxInterval
	b.RandomizationFactor = 0
	b.Reset()
	return b
}

// Delays returns the wait before each of the Attempts resends
func (p ResendPolicy) Delays() []time.Duration {
	if p.Attempts <= 0 || p.Initial <= 0 {
		return nil
	}

	b := p.NewBackOff()
	delays := make([]time.Duration, p.Attempts)
	for i := range delays {
		delays[i] = b.NextBackOff()
	}

	return delays
}
