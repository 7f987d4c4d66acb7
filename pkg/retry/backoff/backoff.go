// Package backoff provides delay strategies for retry.
package backoff

import (
	"math"
	"time"
)

// Strategy returns how long to wait before the next attempt. attempts starts
// at 1.
type Strategy func(attempts uint) time.Duration

// Constant waits interval between every attempt. Confirmation polling uses it.
func Constant(interval time.Duration) Strategy {
	return func(_ uint) time.Duration {
		return interval
	}
}

// Exponential multiplies baseDelay by base for every attempt after the first:
//
//	delay = baseDelay * base^(attempts - 1)
//
// Exponential(2*time.Second, 3) yields 2s, 6s, 18s, 54s, ...
// Delays that don't fit in a time.Duration saturate rather than overflow.
func Exponential(baseDelay time.Duration, base float64) Strategy {
	return func(attempts uint) time.Duration {
		if attempts == 0 {
			attempts = 1
		}

		delay := float64(baseDelay) * math.Pow(base, float64(attempts-1))
		if delay >= math.MaxInt64 || math.IsInf(delay, 0) || math.IsNaN(delay) {
			return math.MaxInt64
		}
		if delay < 0 {
			return 0
		}
		return time.Duration(delay)
	}
}

// BinaryExponential doubles baseDelay on every attempt: 2s, 4s, 8s, ... for a
// baseDelay of 2s. Rate limited RPC calls back off with it.
func BinaryExponential(baseDelay time.Duration) Strategy {
	return Exponential(baseDelay, 2)
}
