package validate

import (
	"context"
	"time"
)

const (
	maxRetries = 3
	retryDelay = 2 * time.Second
)

// RetryFailed runs one retry pass over the retryable-reason subset of
// results, up to 3 attempts each with a 2s pause, stopping early on success
// or a terminal outcome. Non-retryable results pass through unchanged.
// Grounded on link_validator.py::retry_failed_links.
func (v *Validator) RetryFailed(ctx context.Context, results []ProbeResult) []ProbeResult {
	out := make([]ProbeResult, len(results))
	copy(out, results)

	for i, r := range out {
		if r.IsValid || !IsRetryable(r.ErrorReason) {
			continue
		}

		out[i] = v.retryOne(ctx, r.URL)
	}

	return out
}

func (v *Validator) retryOne(ctx context.Context, url string) ProbeResult {
	var last ProbeResult

	for attempt := 1; attempt <= maxRetries; attempt++ {
		select {
		case <-time.After(retryDelay):
		case <-ctx.Done():
			return ProbeResult{URL: url, ErrorReason: ReasonCheckException}
		}

		last = v.CheckSingleLink(ctx, url)

		if last.IsValid || !IsRetryable(last.ErrorReason) {
			break
		}
	}

	return last
}
