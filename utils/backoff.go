package utils

import (
	"math/rand/v2"
	"time"
)

// CalculateBackoff returns randomized exponential backoff for retrying
// transient API failures. The base delay doubles per attempt, is capped at
// 60 seconds, and carries up to ±25% jitter.
func CalculateBackoff(baseDelay time.Duration, attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	if attempt > 30 {
		attempt = 30
	}
	backoff := baseDelay * time.Duration(1<<uint(attempt))
	if backoff > 60*time.Second {
		backoff = 60 * time.Second
	}
	jitter := time.Duration(rand.Int64N(int64(backoff)/2)) - backoff/4
	return backoff + jitter
}
