// Package ratelimit enforces the shared request-rate budget for the
// Chronicling America API.
//
// A single limiter instance is shared by reference across every concurrent
// query and download worker; Acquire is the only blocking synchronization
// point between them. The limiter tracks a sliding window of permit
// timestamps: at no instant may more than MaxCalls permits fall within the
// trailing Window. Permits are never returned early; throttling is purely
// time-based with no per-caller quotas.
//
// Usage:
//
//	limiter, err := ratelimit.NewSlidingWindow(ratelimit.Budget{
//		MaxCalls: 20,
//		Window:   time.Minute,
//	})
//	if err != nil {
//		// non-positive budget
//	}
//
//	if err := limiter.Acquire(ctx); err != nil {
//		return err // ctx cancelled while waiting
//	}
//	// issue exactly one remote call
//
// The loc.gov API documents two overlapping budgets (20 requests per minute
// and 20 requests per 10 seconds); NewMulti composes limiters so both hold:
//
//	limiter, err := ratelimit.NewMulti(
//		ratelimit.Budget{MaxCalls: 20, Window: time.Minute},
//		ratelimit.Budget{MaxCalls: 20, Window: 10 * time.Second},
//	)
package ratelimit
