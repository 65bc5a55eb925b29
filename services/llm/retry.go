package llm

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"

	"pdfquiz/logger"
)

const defaultInitialBackoff = 500 * time.Millisecond

type RetryPolicy struct {
	// MaxRetries is the number of extra attempts after the first failure.
	MaxRetries     int
	AttemptTimeout time.Duration
	InitialBackoff time.Duration
}

// Retrying re-issues a failed upstream call with exponential backoff. Only
// transport-level failures reach it: a response that arrives but cannot be
// parsed is handled by the caller and never retried here.
type Retrying struct {
	next   Generator
	policy RetryPolicy
	log    *logger.Logger
}

func NewRetrying(next Generator, policy RetryPolicy, log *logger.Logger) *Retrying {
	if log == nil {
		log = logger.Nop()
	}
	if policy.MaxRetries < 0 {
		policy.MaxRetries = 0
	}
	return &Retrying{next: next, policy: policy, log: log}
}

func (r *Retrying) Generate(ctx context.Context, prompt string) (string, error) {
	attempt := 0
	operation := func() (string, error) {
		attempt++
		out, err := r.attempt(ctx, prompt)
		if err == nil {
			return out, nil
		}
		if ctx.Err() != nil {
			return "", backoff.Permanent(err)
		}
		return "", err
	}

	b := backoff.NewExponentialBackOff()
	if r.policy.InitialBackoff > 0 {
		b.InitialInterval = r.policy.InitialBackoff
	}

	out, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(r.policy.MaxRetries+1)),
		backoff.WithNotify(func(err error, wait time.Duration) {
			r.log.Warn("Upstream call failed, retrying",
				"attempt", attempt,
				"wait", wait.String(),
				"error", err,
			)
		}),
	)
	if err != nil {
		r.log.Error("Upstream call failed", "attempts", attempt, "error", err)
		return "", err
	}
	return out, nil
}

func (r *Retrying) attempt(ctx context.Context, prompt string) (string, error) {
	if r.policy.AttemptTimeout <= 0 {
		return r.next.Generate(ctx, prompt)
	}
	actx, cancel := context.WithTimeout(ctx, r.policy.AttemptTimeout)
	defer cancel()
	return r.next.Generate(actx, prompt)
}
