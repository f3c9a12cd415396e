package app

import (
	"fmt"
	"strconv"
	"time"

	"resume-optimizer/internal/common/logging"
	"resume-optimizer/internal/ratelimit"
)

// Per-endpoint policies layered on top of the configured default: credential
// endpoints get a tight budget to slow down stuffing attacks, optimization
// runs are capped because each one burns AI quota. Both deny when the
// counter store is unreachable.
const (
	authLimit  = 5
	authWindow = 15 * time.Minute

	optimizeLimit  = 10
	optimizeWindow = time.Hour
)

// initializeRateLimiting builds the counter store for the configured backend
// and starts the purge job.
func (app *App) initializeRateLimiting() error {
	if !app.Config.RateLimitEnabled {
		app.Logger.Warn("Rate limiting is disabled")
		return nil
	}

	store, err := app.newRateLimitStore()
	if err != nil {
		return err
	}
	app.RateLimitStore = store

	retention, err := time.ParseDuration(app.Config.RateLimitRetention)
	if err != nil {
		return fmt.Errorf("invalid rate limit retention: %w", err)
	}

	var lock distributedLock
	if app.RedisClient != nil {
		lock = app.RedisClient
	}
	app.purge = newPurgeJob(store, lock, retention)
	app.purge.Start()

	app.Logger.Info("Rate limiting initialized",
		logging.Field{Key: "backend", Value: app.Config.RateLimitBackend},
		logging.Field{Key: "retention", Value: retention.String()})
	return nil
}

func (app *App) newRateLimitStore() (ratelimit.Store, error) {
	switch app.Config.RateLimitBackend {
	case "memory":
		return ratelimit.NewMemoryStore(), nil
	case "redis":
		if app.RedisClient == nil {
			return nil, fmt.Errorf("rate limit backend is redis but redis is not available")
		}
		return ratelimit.NewRedisStore(app.RedisClient, ""), nil
	case "database":
		return ratelimit.NewDatabaseStore(app.DB.DB, app.DB.Dialect()), nil
	default:
		return nil, fmt.Errorf("unknown rate limit backend %q", app.Config.RateLimitBackend)
	}
}

// defaultPolicy is the baseline API limit from configuration.
func (app *App) defaultPolicy() ratelimit.Policy {
	limit, _ := strconv.Atoi(app.Config.RateLimitDefault)
	window, _ := time.ParseDuration(app.Config.RateLimitWindow)
	storeTimeout, _ := time.ParseDuration(app.Config.RateLimitStoreTimeout)

	return ratelimit.Policy{
		Limit:         limit,
		Window:        window,
		Scope:         ratelimit.ScopeGlobal,
		FailurePolicy: ratelimit.FailurePolicy(app.Config.RateLimitFailurePolicy),
		StoreTimeout:  storeTimeout,
	}
}

func (app *App) authPolicy() ratelimit.Policy {
	policy := app.defaultPolicy()
	policy.Limit = authLimit
	policy.Window = authWindow
	policy.Scope = ratelimit.ScopePerEndpoint
	policy.FailurePolicy = ratelimit.FailClosed
	return policy
}

// optimizePolicy is mounted on the single optimize route and keyed by user,
// so a global scope already yields a per-user budget for that endpoint.
func (app *App) optimizePolicy() ratelimit.Policy {
	policy := app.defaultPolicy()
	policy.Limit = optimizeLimit
	policy.Window = optimizeWindow
	policy.Scope = ratelimit.ScopeGlobal
	policy.FailurePolicy = ratelimit.FailClosed
	return policy
}

// newLimiter builds a limiter over the shared store, or nil when rate
// limiting is disabled.
func (app *App) newLimiter(policy ratelimit.Policy) (*ratelimit.Limiter, error) {
	if app.RateLimitStore == nil {
		return nil, nil
	}
	return ratelimit.New(app.RateLimitStore, policy)
}
