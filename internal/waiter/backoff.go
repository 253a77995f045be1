package waiter

import (
	"math"
	"time"
)

const maxBackoff = time.Hour

// Backoff returns the delay before the poke that follows attempt. Without
// exponential backoff it is always interval; with it the delay grows as
// interval * 2^(attempt-1), capped at one hour.
func Backoff(interval time.Duration, attempt int, exponential bool) time.Duration {
	if interval <= 0 {
		return 0
	}
	if !exponential || attempt <= 1 {
		return interval
	}
	d := float64(interval) * math.Pow(2, float64(attempt-1))
	if d > float64(maxBackoff) {
		return maxBackoff
	}
	return time.Duration(d)
}
