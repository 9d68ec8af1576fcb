package keypool

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
)

// Operation is one logical call against a bound client. It must not retain
// the client past its return and must not mutate pool state itself.
type Operation[C, T any] func(ctx context.Context, client C) (T, error)

// Execute drives op across up to the pool's configured attempts, rotating
// credentials between temporary failures.
//
// Permanent failures propagate immediately without quarantining anything:
// a malformed request is not the credential's fault. A context cancelled
// or expired before a classifiable provider error likewise leaves the
// credential unmarked. Temporary failures quarantine the credential and,
// when attempts remain, wait an exponentially growing backoff before the
// next rotation. The pool lock is never held across the call, the limiter
// wait, or the backoff sleep.
func Execute[C, T any](ctx context.Context, p *Pool[C], op Operation[C, T]) (T, error) {
	var zero T
	var lastErr error

	opID := uuid.NewString()

	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		credential, err := p.Select()
		if err != nil {
			// Nothing to rotate to; retrying cannot help.
			return zero, err
		}
		selectionsTotal.WithLabelValues(p.service).Inc()

		client, err := p.Client(credential)
		if err != nil {
			// Standing construction failure: quarantine without
			// spending provider quota on a doomed call.
			p.RecordFailure(credential)
			quarantinesTotal.WithLabelValues(p.service).Inc()
			lastErr = err
			continue
		}

		if p.limiter != nil {
			if err := p.limiter.Wait(ctx); err != nil {
				return zero, err
			}
		}

		start := time.Now()
		result, err := op(ctx, client)
		operationLatency.WithLabelValues(p.service).Observe(time.Since(start).Seconds())

		if err == nil {
			p.RecordSuccess(credential)
			attemptsTotal.WithLabelValues(p.service, "success").Inc()
			return result, nil
		}

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			// Caller-side impatience, not a credential problem.
			attemptsTotal.WithLabelValues(p.service, "cancelled").Inc()
			return zero, err
		}

		if !IsTemporary(err) {
			attemptsTotal.WithLabelValues(p.service, "permanent").Inc()
			return zero, err
		}

		p.RecordFailure(credential)
		attemptsTotal.WithLabelValues(p.service, "temporary").Inc()
		quarantinesTotal.WithLabelValues(p.service).Inc()
		lastErr = err

		slog.Warn("credential quarantined",
			"service", p.service,
			"credential", Mask(credential),
			"op", opID,
			"attempt", attempt,
			"error", err,
		)

		if attempt < p.maxAttempts {
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(backoffDelay(attempt, p.baseDelay, p.maxDelay)):
			}
		}
	}

	return zero, &RetryError{Service: p.service, Attempts: p.maxAttempts, Last: lastErr}
}

func backoffDelay(attempt int, base, max time.Duration) time.Duration {
	delay := float64(base) * math.Pow(2, float64(attempt-1))
	if delay > float64(max) {
		delay = float64(max)
	}
	return time.Duration(delay)
}
