// Package resilience provides retry and circuit breaker patterns for calls
// to text-generation providers.
package resilience

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
)

// BreakerState is the position of a Breaker.
type BreakerState int

const (
	// BreakerClosed lets every call through.
	BreakerClosed BreakerState = iota
	// BreakerOpen rejects calls until the cooldown elapses.
	BreakerOpen
	// BreakerProbing lets one call through to test whether the provider
	// has recovered.
	BreakerProbing
)

func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerProbing:
		return "probing"
	default:
		return "unknown"
	}
}

// ErrBreakerOpen is returned for calls rejected by an open breaker.
var ErrBreakerOpen = eris.New("resilience: breaker open")

const (
	defaultBreakerThreshold = 5
	defaultBreakerCooldown  = 60 * time.Second
)

// BreakerConfig controls a Breaker.
type BreakerConfig struct {
	// Threshold is the number of consecutive tripping failures that opens
	// the breaker.
	Threshold int
	// Cooldown is how long the breaker stays open before a probe.
	Cooldown time.Duration
	// Trips selects the errors that count as failures. Other errors count
	// as successes. Nil counts every error.
	Trips func(err error) bool
	// OnChange is called on every state change, under the breaker lock.
	OnChange func(from, to BreakerState)
}

// BreakerFromSettings builds a config from the integer settings in the
// configuration file. Non-positive values take the defaults.
func BreakerFromSettings(threshold, cooldownSecs int) BreakerConfig {
	cfg := BreakerConfig{Threshold: threshold, Cooldown: time.Duration(cooldownSecs) * time.Second}
	if cfg.Threshold <= 0 {
		cfg.Threshold = defaultBreakerThreshold
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = defaultBreakerCooldown
	}
	return cfg
}

// TripOnPermanent counts only permanent failures, so throttling and network
// blips never open the breaker.
func TripOnPermanent(err error) bool {
	return err != nil && !IsTransient(err)
}

// BreakerStats is a snapshot of breaker counters.
type BreakerStats struct {
	State    BreakerState
	Failures int
	Opened   int
	Rejected int
}

// Breaker stops calling a provider after a run of permanent failures.
type Breaker struct {
	cfg BreakerConfig
	now func() time.Time

	mu       sync.Mutex
	state    BreakerState
	failures int
	openedAt time.Time
	probing  bool
	opened   int
	rejected int
}

// NewBreaker creates a closed Breaker.
func NewBreaker(cfg BreakerConfig) *Breaker {
	if cfg.Threshold <= 0 {
		cfg.Threshold = defaultBreakerThreshold
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = defaultBreakerCooldown
	}
	if cfg.Trips == nil {
		cfg.Trips = func(err error) bool { return err != nil }
	}
	return &Breaker{cfg: cfg, now: time.Now}
}

// Guard runs fn unless b rejects the call, and records the outcome.
func Guard[T any](ctx context.Context, b *Breaker, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if err := b.admit(); err != nil {
		return zero, err
	}
	val, err := fn(ctx)
	b.record(err)
	return val, err
}

// State returns the current state.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Stats returns a snapshot of the counters.
func (b *Breaker) Stats() BreakerStats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return BreakerStats{State: b.state, Failures: b.failures, Opened: b.opened, Rejected: b.rejected}
}

func (b *Breaker) admit() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BreakerOpen:
		if b.now().Sub(b.openedAt) < b.cfg.Cooldown {
			b.rejected++
			return ErrBreakerOpen
		}
		b.setState(BreakerProbing)
		b.probing = true
		return nil
	case BreakerProbing:
		if b.probing {
			b.rejected++
			return ErrBreakerOpen
		}
		b.probing = true
		return nil
	default:
		return nil
	}
}

func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.probing = false
	if !b.cfg.Trips(err) {
		b.failures = 0
		if b.state != BreakerClosed {
			b.setState(BreakerClosed)
		}
		return
	}

	b.failures++
	if b.state == BreakerProbing || b.failures >= b.cfg.Threshold {
		b.openedAt = b.now()
		b.opened++
		if b.state != BreakerOpen {
			b.setState(BreakerOpen)
		}
	}
}

func (b *Breaker) setState(to BreakerState) {
	from := b.state
	b.state = to
	if b.cfg.OnChange != nil {
		b.cfg.OnChange(from, to)
	}
}
