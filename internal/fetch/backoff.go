package fetch

import (
	"math"
	"time"
)

// backoffDelay returns initial × multiplier^(attempt-1), capped at max.
// Pattern with the defaults: 1s, 2s, 4s, ... up to 30s.
func backoffDelay(initial, max time.Duration, multiplier float64, attempt int) time.Duration {
	if multiplier <= 1 {
		multiplier = 2
	}
	delay := float64(initial) * math.Pow(multiplier, float64(attempt-1))
	if delay > float64(max) {
		delay = float64(max)
	}
	return time.Duration(delay)
}
