package resilience

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// State is a breaker's position.
type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	}
	return "unknown"
}

// ErrOpen is returned without calling the upstream while its breaker is open.
var ErrOpen = eris.New("circuit open")

const (
	defaultThreshold = 5
	defaultCooldown  = 30 * time.Second
)

// BreakerConfig tunes a Breaker. Zero fields take the defaults.
type BreakerConfig struct {
	// Threshold is the number of consecutive failures that opens the
	// breaker. Default 5.
	Threshold int
	// Cooldown is how long an open breaker rejects calls before it lets a
	// single trial through. Default 30s.
	Cooldown time.Duration
}

func (c BreakerConfig) withDefaults() BreakerConfig {
	if c.Threshold <= 0 {
		c.Threshold = defaultThreshold
	}
	if c.Cooldown <= 0 {
		c.Cooldown = defaultCooldown
	}
	return c
}

// Breaker stops calling an upstream after repeated failures. While
// half-open exactly one trial is in flight; other callers get ErrOpen until
// it settles.
type Breaker struct {
	name string
	cfg  BreakerConfig
	now  func() time.Time

	mu       sync.Mutex
	state    State
	failures int
	openedAt time.Time
	inTrial  bool
}

// NewBreaker creates a closed breaker for the named upstream.
func NewBreaker(name string, cfg BreakerConfig) *Breaker {
	return &Breaker{name: name, cfg: cfg.withDefaults(), now: time.Now}
}

// Call runs fn through b. A failure caused by the caller's own context
// ending is not held against the upstream.
func Call[T any](ctx context.Context, b *Breaker, fn func(context.Context) (T, error)) (T, error) {
	trial, err := b.acquire()
	if err != nil {
		var zero T
		return zero, eris.Wrap(err, b.name)
	}
	v, err := fn(ctx)
	b.settle(trial, err, err != nil && ctx.Err() != nil)
	return v, err
}

// State reports the breaker's position. An open breaker whose cooldown has
// passed reports HalfOpen.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == Open && b.now().Sub(b.openedAt) >= b.cfg.Cooldown {
		return HalfOpen
	}
	return b.state
}

func (b *Breaker) acquire() (trial bool, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Closed:
		return false, nil
	case Open:
		if b.now().Sub(b.openedAt) < b.cfg.Cooldown {
			return false, ErrOpen
		}
		b.setState(HalfOpen)
	}

	if b.inTrial {
		return false, ErrOpen
	}
	b.inTrial = true
	return true, nil
}

func (b *Breaker) settle(trial bool, err error, abandoned bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if trial {
		b.inTrial = false
	}

	switch {
	case abandoned:
		// A half-open breaker waits for the next trial.
	case err == nil:
		b.failures = 0
		if b.state != Closed {
			b.setState(Closed)
		}
	default:
		b.failures++
		if b.state == HalfOpen || b.failures >= b.cfg.Threshold {
			b.openedAt = b.now()
			if b.state != Open {
				b.setState(Open)
			}
		}
	}
}

func (b *Breaker) setState(to State) {
	zap.L().Warn("circuit state change",
		zap.String("upstream", b.name),
		zap.Stringer("from", b.state),
		zap.Stringer("to", to),
		zap.Int("failures", b.failures),
	)
	b.state = to
}

// Breakers hands out one Breaker per upstream name.
type Breakers struct {
	cfg BreakerConfig

	mu sync.Mutex
	m  map[string]*Breaker
}

// NewBreakers creates an empty registry whose breakers share cfg.
func NewBreakers(cfg BreakerConfig) *Breakers {
	return &Breakers{cfg: cfg, m: make(map[string]*Breaker)}
}

// For returns the breaker for name, creating it on first use.
func (bs *Breakers) For(name string) *Breaker {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	b, ok := bs.m[name]
	if !ok {
		b = NewBreaker(name, bs.cfg)
		bs.m[name] = b
	}
	return b
}

// States reports every known breaker's position by name.
func (bs *Breakers) States() map[string]string {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	out := make(map[string]string, len(bs.m))
	for name, b := range bs.m {
		out[name] = b.State().String()
	}
	return out
}
