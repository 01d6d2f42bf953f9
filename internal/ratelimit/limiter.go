// Package ratelimit throttles API calls per authenticated user.
package ratelimit

import (
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// PerUser keeps one token bucket per user ID.
type PerUser struct {
	every rate.Limit
	burst int

	mu    sync.Mutex
	users map[string]*entry
	now   func() time.Time
}

// NewPerUser allows perMinute requests per user with the given burst.
func NewPerUser(perMinute, burst int) (*PerUser, error) {
	if perMinute <= 0 {
		return nil, eris.New("ratelimit: requests per minute must be > 0")
	}
	if burst <= 0 {
		burst = 1
	}
	return &PerUser{
		every: rate.Every(time.Minute / time.Duration(perMinute)),
		burst: burst,
		users: make(map[string]*entry),
		now:   time.Now,
	}, nil
}

// Allow consumes a token for user and reports whether the call may proceed.
func (p *PerUser) Allow(user string) bool {
	now := p.now()

	p.mu.Lock()
	e, ok := p.users[user]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(p.every, p.burst)}
		p.users[user] = e
	}
	e.lastSeen = now
	p.mu.Unlock()

	return e.limiter.AllowN(now, 1)
}

// RetryAfter estimates how long user must wait for the next token.
func (p *PerUser) RetryAfter(user string) time.Duration {
	p.mu.Lock()
	e, ok := p.users[user]
	p.mu.Unlock()
	if !ok {
		return 0
	}
	now := p.now()
	r := e.limiter.ReserveN(now, 1)
	defer r.CancelAt(now)
	return r.DelayFrom(now)
}

// Prune forgets users idle longer than idle and returns how many.
func (p *PerUser) Prune(idle time.Duration) int {
	cutoff := p.now().Add(-idle)
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for user, e := range p.users {
		if e.lastSeen.Before(cutoff) {
			delete(p.users, user)
			n++
		}
	}
	return n
}

// Len returns the number of tracked users.
func (p *PerUser) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.users)
}
