package validate

import (
	"sync"
)

// circuitBreaker counts a provider's consecutive probe failures. Once the
// count reaches maxConsecutiveErrors, further probes are short-circuited
// with a "provider limited" outcome until any success resets the counter.
// Adapted from the teacher's internal/core/embeddings.CircuitBreaker, which
// is time-window based; spec.md §4.6.1 has no reset-after window, only a
// reset-on-success rule, so the timer fields are dropped here.
type circuitBreaker struct {
	mu       sync.Mutex
	failures int
}

func (cb *circuitBreaker) Limited() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return cb.failures >= maxConsecutiveErrors
}

func (cb *circuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures = 0
}

func (cb *circuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures++
}

// circuitBreakers holds one breaker per provider tag, created lazily.
type circuitBreakers struct {
	mu       sync.Mutex
	byTag    map[string]*circuitBreaker
}

func newCircuitBreakers() *circuitBreakers {
	return &circuitBreakers{byTag: make(map[string]*circuitBreaker)}
}

func (c *circuitBreakers) get(provider string) *circuitBreaker {
	c.mu.Lock()
	defer c.mu.Unlock()

	cb, ok := c.byTag[provider]
	if !ok {
		cb = &circuitBreaker{}
		c.byTag[provider] = cb
	}

	return cb
}
