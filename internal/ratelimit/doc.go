// Package ratelimit provides fixed-window rate limiting with pluggable
// counter stores: in-memory for single instances, Redis for distributed
// deployments, and SQL for deployments that already run a database but no
// Redis.
//
// All stores share one contract: checking the limit and recording the
// attempt happen as a single atomic operation, and rejected attempts never
// consume budget. A client that keeps hammering a limited endpoint therefore
// stays blocked only until its window rolls over, not indefinitely.
//
// # Basic Usage
//
//	store := ratelimit.NewMemoryStore()
//	limiter, err := ratelimit.New(store, ratelimit.Policy{
//		Limit:  10,
//		Window: time.Minute,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	decision := limiter.Check(ctx, "ip:203.0.113.7")
//	if !decision.Allowed {
//		// Attempt denied; budget renews at decision.ResetTime
//		return
//	}
//
// # HTTP Middleware
//
// The limiter wraps HTTP handlers and answers denied requests with 429 and
// the standard X-RateLimit headers:
//
//	middleware := limiter.HTTPMiddleware(ratelimit.KeyForScope(limiter.Policy().Scope))
//	router.Handle("/api/optimize", middleware(optimizeHandler))
//
// # Failure Policy
//
// When the counter store is unreachable, the policy decides: FailOpen admits
// the request (availability over protection, suited for general API limits),
// FailClosed denies it (protection over availability, suited for login and
// other abuse-sensitive endpoints). Store errors are logged but never
// surface to clients as 5xx responses.
package ratelimit
