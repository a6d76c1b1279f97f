package access

import (
	"errors"
	"math"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultMaxClients bounds the number of tracked client buckets.
const DefaultMaxClients = 10000

// tokenBucket allows bursts up to capacity while refilling at rate tokens
// per second. Callers hold the Limiter lock.
type tokenBucket struct {
	capacity   float64
	tokens     float64
	rate       float64
	lastRefill time.Time
}

func newTokenBucket(capacity, rate float64, now time.Time) *tokenBucket {
	return &tokenBucket{
		capacity:   capacity,
		tokens:     capacity,
		rate:       rate,
		lastRefill: now,
	}
}

// take consumes one token, or reports how long until one is available.
func (tb *tokenBucket) take(now time.Time) (bool, time.Duration) {
	if elapsed := now.Sub(tb.lastRefill); elapsed > 0 {
		tb.tokens = math.Min(tb.capacity, tb.tokens+elapsed.Seconds()*tb.rate)
		tb.lastRefill = now
	}

	if tb.tokens >= 1 {
		tb.tokens--
		return true, 0
	}
	wait := (1 - tb.tokens) / tb.rate
	return false, time.Duration(math.Ceil(wait * float64(time.Second)))
}

// LimiterConfig configures a Limiter.
type LimiterConfig struct {
	// Rate is the sustained number of requests per second per client.
	Rate float64

	// Burst is the number of requests a client may make at once.
	// Default: max(1, ceil(Rate))
	Burst int

	// MaxClients bounds the tracked buckets. The least recently seen client
	// is forgotten first and starts again with a full bucket.
	// Default: DefaultMaxClients
	MaxClients int
}

// Limiter rate limits clients independently.
type Limiter struct {
	mu      sync.Mutex
	rate    float64
	burst   float64
	buckets *lru.Cache[string, *tokenBucket]
	now     func() time.Time
}

// NewLimiter validates cfg and creates a Limiter.
func NewLimiter(cfg LimiterConfig) (*Limiter, error) {
	if cfg.Rate <= 0 {
		return nil, errors.New("rate must be positive")
	}
	if cfg.Burst < 0 {
		return nil, errors.New("burst must be non-negative")
	}
	if cfg.Burst == 0 {
		cfg.Burst = int(math.Max(1, math.Ceil(cfg.Rate)))
	}
	if cfg.MaxClients <= 0 {
		cfg.MaxClients = DefaultMaxClients
	}

	buckets, err := lru.New[string, *tokenBucket](cfg.MaxClients)
	if err != nil {
		return nil, err
	}
	return &Limiter{
		rate:    cfg.Rate,
		burst:   float64(cfg.Burst),
		buckets: buckets,
		now:     time.Now,
	}, nil
}

// Allow takes one token from client's bucket. When the bucket is empty it
// returns false and the time until the next token.
func (l *Limiter) Allow(client string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets.Get(client)
	if !ok {
		b = newTokenBucket(l.burst, l.rate, now)
		l.buckets.Add(client, b)
	}
	return b.take(now)
}

// Clients returns the number of tracked clients.
func (l *Limiter) Clients() int {
	return l.buckets.Len()
}
