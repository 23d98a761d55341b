package api

import (
	"sync"

	"golang.org/x/time/rate"
)

// clientLimiter keeps one token bucket per caller for the generation
// endpoint, which is the only computationally heavy operation.
type clientLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      rate.Limit
	burst    int
}

func newClientLimiter(rps float64, burst int) *clientLimiter {
	if rps <= 0 {
		rps = 2
	}
	if burst < 1 {
		burst = 1
	}
	return &clientLimiter{
		limiters: map[string]*rate.Limiter{},
		rps:      rate.Limit(rps),
		burst:    burst,
	}
}

func (c *clientLimiter) allow(client string) bool {
	c.mu.Lock()
	l, ok := c.limiters[client]
	if !ok {
		l = rate.NewLimiter(c.rps, c.burst)
		c.limiters[client] = l
	}
	c.mu.Unlock()
	return l.Allow()
}
