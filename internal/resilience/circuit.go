// Package resilience provides retry, error classification and provider
// circuit breaking for calls to external services.
package resilience

import (
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrCircuitOpen is returned when a provider is skipped because its
// breaker is open.
var ErrCircuitOpen = eris.New("circuit breaker is open")

// Breaker stops calling a provider after Threshold consecutive failures
// until Cooldown has elapsed. A batch run therefore stops paying retry
// cost for a provider that is down for every debtor.
type Breaker struct {
	name      string
	threshold int
	cooldown  time.Duration
	log       *zap.Logger

	mu       sync.Mutex
	failures int
	openedAt time.Time
	now      func() time.Time
}

// NewBreaker creates a breaker for the named provider.
func NewBreaker(name string, threshold int, cooldown time.Duration, log *zap.Logger) *Breaker {
	if threshold <= 0 {
		threshold = 5
	}
	if cooldown <= 0 {
		cooldown = 5 * time.Minute
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Breaker{name: name, threshold: threshold, cooldown: cooldown, log: log, now: time.Now}
}

// Allow returns ErrCircuitOpen while the breaker is open.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failures < b.threshold {
		return nil
	}
	if b.now().Sub(b.openedAt) >= b.cooldown {
		// half-open: let one probe through
		b.failures = b.threshold - 1
		return nil
	}
	return eris.Wrap(ErrCircuitOpen, b.name)
}

// Record counts err against the breaker. Configuration and shape errors
// say nothing about provider health and are ignored.
func (b *Breaker) Record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil {
		b.failures = 0
		return
	}
	if IsConfiguration(err) || IsShape(err) {
		return
	}
	b.failures++
	if b.failures == b.threshold {
		b.openedAt = b.now()
		b.log.Warn("provider circuit opened",
			zap.String("provider", b.name),
			zap.Int("failures", b.failures),
			zap.Duration("cooldown", b.cooldown),
		)
	}
}

// Open reports whether calls are currently rejected.
func (b *Breaker) Open() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures >= b.threshold && b.now().Sub(b.openedAt) < b.cooldown
}

// Breakers holds one Breaker per provider name.
type Breakers struct {
	mu        sync.Mutex
	threshold int
	cooldown  time.Duration
	log       *zap.Logger
	m         map[string]*Breaker
}

// NewBreakers creates an empty registry sharing threshold and cooldown.
func NewBreakers(threshold int, cooldown time.Duration, log *zap.Logger) *Breakers {
	return &Breakers{threshold: threshold, cooldown: cooldown, log: log, m: make(map[string]*Breaker)}
}

// Get returns the breaker for name, creating it on first use.
// A nil registry returns a breaker that never opens.
func (r *Breakers) Get(name string) *Breaker {
	if r == nil {
		return &Breaker{name: name, threshold: int(^uint(0) >> 1), log: zap.NewNop(), now: time.Now}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.m[name]
	if !ok {
		b = NewBreaker(name, r.threshold, r.cooldown, r.log)
		r.m[name] = b
	}
	return b
}

// Call runs fn through the named breaker.
func Call[T any](r *Breakers, name string, fn func() (T, error)) (T, error) {
	b := r.Get(name)
	if err := b.Allow(); err != nil {
		var zero T
		return zero, err
	}
	v, err := fn()
	b.Record(err)
	return v, err
}
