package ratelimit

import (
	"context"
	"time"

	"resume-optimizer/internal/common/errors"
	"resume-optimizer/internal/common/logging"
)

// FailurePolicy controls the decision when the counter store is unreachable.
type FailurePolicy string

const (
	// FailOpen admits requests when the store cannot be reached
	FailOpen FailurePolicy = "open"
	// FailClosed denies requests when the store cannot be reached
	FailClosed FailurePolicy = "closed"
)

// Scope controls how request identities are derived by the HTTP middleware.
type Scope string

const (
	// ScopeGlobal shares one budget per client across all endpoints
	ScopeGlobal Scope = "global"
	// ScopePerEndpoint gives each client an independent budget per endpoint
	ScopePerEndpoint Scope = "per_endpoint"
)

// Policy describes one rate limit: how many attempts an identity may make
// within a window, and how the limiter behaves at the edges.
type Policy struct {
	// Limit is the maximum admitted attempts per window. Zero is valid and
	// denies every attempt.
	Limit int `json:"limit"`

	// Window is the length of the counting window
	Window time.Duration `json:"window"`

	// Scope controls identity derivation in the HTTP middleware
	Scope Scope `json:"scope"`

	// FailurePolicy controls behavior when the store is unreachable
	FailurePolicy FailurePolicy `json:"failure_policy"`

	// StoreTimeout bounds each store call so a slow store cannot stall requests
	StoreTimeout time.Duration `json:"store_timeout"`
}

// Validate checks the policy and fills in defaults for optional fields.
func (p *Policy) Validate() error {
	if p.Limit < 0 {
		return errors.ValidationError("rate limit must not be negative")
	}
	if p.Window <= 0 {
		return errors.ValidationError("rate limit window must be positive")
	}
	if p.Scope == "" {
		p.Scope = ScopeGlobal
	}
	if p.Scope != ScopeGlobal && p.Scope != ScopePerEndpoint {
		return errors.ValidationError("rate limit scope must be 'global' or 'per_endpoint'")
	}
	if p.FailurePolicy == "" {
		p.FailurePolicy = FailClosed
	}
	if p.FailurePolicy != FailOpen && p.FailurePolicy != FailClosed {
		return errors.ValidationError("rate limit failure policy must be 'open' or 'closed'")
	}
	if p.StoreTimeout <= 0 {
		p.StoreTimeout = 2 * time.Second
	}
	return nil
}

// Decision is the outcome of checking one attempt against a policy.
type Decision struct {
	Allowed   bool      `json:"allowed"`
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	ResetTime time.Time `json:"reset_time"`
}

// Limiter applies one policy against a counter store. The store performs the
// check-and-record atomically; the limiter only interprets the outcome and
// applies the failure policy on store errors.
type Limiter struct {
	store  Store
	policy Policy
	logger logging.Logger
}

// New creates a limiter for the given store and policy.
func New(store Store, policy Policy) (*Limiter, error) {
	if store == nil {
		return nil, errors.ValidationError("rate limit store is required")
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	return &Limiter{
		store:  store,
		policy: policy,
		logger: logging.GetGlobalLogger(),
	}, nil
}

// Policy returns the limiter's policy with defaults applied.
func (l *Limiter) Policy() Policy {
	return l.policy
}

// Check records one attempt for the identity and decides whether to admit
// it. Rejected attempts do not consume budget. Store failures never surface
// to the caller: the failure policy decides and the error is logged.
func (l *Limiter) Check(ctx context.Context, identity string) *Decision {
	if l.policy.Limit == 0 {
		return &Decision{
			Allowed:   false,
			Limit:     0,
			Remaining: 0,
			ResetTime: time.Now().Add(l.policy.Window),
		}
	}

	ctx, cancel := context.WithTimeout(ctx, l.policy.StoreTimeout)
	defer cancel()

	entry, allowed, err := l.store.RecordAttempt(ctx, identity, l.policy.Limit, l.policy.Window)
	if err != nil {
		failOpen := l.policy.FailurePolicy == FailOpen
		l.logger.Warn("Rate limit store unavailable",
			logging.Field{Key: "identity", Value: identity},
			logging.Field{Key: "fail_open", Value: failOpen},
			logging.Err(err),
		)

		return &Decision{
			Allowed:   failOpen,
			Limit:     l.policy.Limit,
			Remaining: 0,
			ResetTime: time.Now().Add(l.policy.Window),
		}
	}

	remaining := l.policy.Limit - entry.Count
	if remaining < 0 {
		remaining = 0
	}

	return &Decision{
		Allowed:   allowed,
		Limit:     l.policy.Limit,
		Remaining: remaining,
		ResetTime: entry.WindowStart.Add(l.policy.Window),
	}
}
