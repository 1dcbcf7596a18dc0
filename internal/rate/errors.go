package rate

import "errors"

var (
	// ErrRateLimited marks attempts beyond the fixed-window budget.
	ErrRateLimited = errors.New("rate limited")
	// ErrRedisUnavailable wraps transport-level Redis failures.
	ErrRedisUnavailable = errors.New("redis unavailable")
)
