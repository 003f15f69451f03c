package validate

import "time"

// ProviderLimit is one provider's concurrency cap and randomized probe delay
// range, per spec.md §4.6.1.
type ProviderLimit struct {
	MaxConcurrent int
	DelayMin      time.Duration
	DelayMax      time.Duration
}

// limits is the authoritative provider limits table.
var limits = map[string]ProviderLimit{
	"百度网盘":  {MaxConcurrent: 3, DelayMin: 1000 * time.Millisecond, DelayMax: 3000 * time.Millisecond},
	"夸克网盘":  {MaxConcurrent: 5, DelayMin: 500 * time.Millisecond, DelayMax: 2000 * time.Millisecond},
	"阿里云盘":  {MaxConcurrent: 4, DelayMin: 1000 * time.Millisecond, DelayMax: 2500 * time.Millisecond},
	"115网盘": {MaxConcurrent: 2, DelayMin: 2000 * time.Millisecond, DelayMax: 4000 * time.Millisecond},
	"天翼云盘":  {MaxConcurrent: 3, DelayMin: 1000 * time.Millisecond, DelayMax: 3000 * time.Millisecond},
	"123云盘": {MaxConcurrent: 3, DelayMin: 1000 * time.Millisecond, DelayMax: 2000 * time.Millisecond},
	"UC网盘":  {MaxConcurrent: 3, DelayMin: 1000 * time.Millisecond, DelayMax: 2000 * time.Millisecond},
	"迅雷":    {MaxConcurrent: 3, DelayMin: 1000 * time.Millisecond, DelayMax: 2000 * time.Millisecond},
	"unknown": {MaxConcurrent: 2, DelayMin: 2000 * time.Millisecond, DelayMax: 4000 * time.Millisecond},
}

// limitFor returns the provider's limit, falling back to "unknown".
func limitFor(provider string) ProviderLimit {
	if l, ok := limits[provider]; ok {
		return l
	}

	return limits["unknown"]
}

// Global safety caps (spec.md §4.6.1).
const (
	maxURLsPerTask          = 1000
	maxConcurrentGlobal     = 10
	maxConcurrentFullHistory = 3
	maxConsecutiveErrors    = 10
)

// effectiveConcurrency resolves the per-provider concurrency cap against the
// task's requested max_concurrent and, for full-history runs, the extra cap
// of 3.
func effectiveConcurrency(provider string, taskMaxConcurrent int, fullHistory bool) int {
	c := limitFor(provider).MaxConcurrent
	if taskMaxConcurrent > 0 && taskMaxConcurrent < c {
		c = taskMaxConcurrent
	}

	if fullHistory && c > maxConcurrentFullHistory {
		c = maxConcurrentFullHistory
	}

	return c
}

// CheckSafetyLimits rejects tasks exceeding the global caps.
func CheckSafetyLimits(urlCount, maxConcurrent int) bool {
	if urlCount > maxURLsPerTask {
		return false
	}

	if maxConcurrent > maxConcurrentGlobal {
		return false
	}

	return true
}
