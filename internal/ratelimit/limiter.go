package ratelimit

import "context"

// RateLimiter bounds how often an action may run per key. The workflow uses
// it to throttle OTP resends per applicant mobile; a denied budget is
// reported to the caller, never waited out.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}
