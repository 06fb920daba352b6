// Package circuitbreaker отключает обращения к зависимости после серии ошибок.
//
// Closed → (FailureThreshold ошибок подряд) → Open → (OpenTimeout) → HalfOpen.
// В HalfOpen пропускается один пробный вызов: успех закрывает цепь,
// ошибка снова открывает её.
package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"time"
)

// State of a breaker.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrOpen is returned while the breaker rejects calls.
var ErrOpen = errors.New("circuit breaker is open")

// ══════════════════════════════════════════════════════════════════════════════
// CONFIG
// ══════════════════════════════════════════════════════════════════════════════

// Config of a breaker.
type Config struct {
	FailureThreshold int
	OpenTimeout      time.Duration
	// IsFailure decides which errors count. Context cancellation never does.
	IsFailure     func(error) bool
	OnStateChange func(name string, from, to State)
}

// Option mutates a Config.
type Option func(*Config)

func WithFailureThreshold(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.FailureThreshold = n
		}
	}
}

func WithOpenTimeout(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.OpenTimeout = d
		}
	}
}

func WithIsFailure(fn func(error) bool) Option {
	return func(c *Config) { c.IsFailure = fn }
}

func WithOnStateChange(fn func(name string, from, to State)) Option {
	return func(c *Config) { c.OnStateChange = fn }
}

// ══════════════════════════════════════════════════════════════════════════════
// BREAKER
// ══════════════════════════════════════════════════════════════════════════════

// Breaker is safe for concurrent use.
type Breaker struct {
	name string
	cfg  Config
	now  func() time.Time

	mu       sync.Mutex
	state    State
	failures int
	openedAt time.Time
	probing  bool
}

// New creates a closed breaker. Defaults: 5 failures, 30s open.
func New(name string, opts ...Option) *Breaker {
	cfg := Config{FailureThreshold: 5, OpenTimeout: 30 * time.Second}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Breaker{name: name, cfg: cfg, now: time.Now}
}

// Name of the breaker.
func (b *Breaker) Name() string { return b.name }

// State returns the current state, moving Open to HalfOpen once the timeout passed.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tick()
	return b.state
}

// Execute runs fn unless the breaker is open.
func (b *Breaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	if err := b.allow(); err != nil {
		return err
	}
	err := fn(ctx)
	b.record(err)
	return err
}

func (b *Breaker) allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tick()
	switch b.state {
	case StateOpen:
		return ErrOpen
	case StateHalfOpen:
		if b.probing {
			return ErrOpen
		}
		b.probing = true
	}
	return nil
}

func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	failed := err != nil && !errors.Is(err, context.Canceled)
	if failed && b.cfg.IsFailure != nil {
		failed = b.cfg.IsFailure(err)
	}

	if b.state == StateHalfOpen {
		b.probing = false
		if failed {
			b.open()
		} else {
			b.failures = 0
			b.set(StateClosed)
		}
		return
	}

	if !failed {
		b.failures = 0
		return
	}
	b.failures++
	if b.failures >= b.cfg.FailureThreshold {
		b.open()
	}
}

func (b *Breaker) tick() {
	if b.state == StateOpen && b.now().Sub(b.openedAt) >= b.cfg.OpenTimeout {
		b.set(StateHalfOpen)
	}
}

func (b *Breaker) open() {
	b.openedAt = b.now()
	b.failures = 0
	b.set(StateOpen)
}

func (b *Breaker) set(to State) {
	if b.state == to {
		return
	}
	from := b.state
	b.state = to
	if b.cfg.OnStateChange != nil {
		b.cfg.OnStateChange(b.name, from, to)
	}
}
