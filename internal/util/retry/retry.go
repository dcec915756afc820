package retry

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/go-logr/logr"
)

// Policy describes how an operation is retried.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first one.
	MaxAttempts int
	// InitialDelay is the sleep after the first failed attempt.
	InitialDelay time.Duration
	// Multiplier scales the delay after every further failed attempt.
	Multiplier float64
	// MaxDelay caps a single delay. Zero means no cap.
	MaxDelay time.Duration
	// RetryIf selects retryable errors. Nil retries every non-fatal error.
	RetryIf func(error) bool
}

// Option is a functional option for building a Policy.
type Option func(*Policy)

// NewPolicy returns the default policy (5 attempts, 1s initial delay,
// doubling, capped at 30s) with opts applied.
func NewPolicy(opts ...Option) Policy {
	p := Policy{
		MaxAttempts:  5,
		InitialDelay: 1 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// WithMaxAttempts sets the total number of attempts.
func WithMaxAttempts(n int) Option {
	return func(p *Policy) {
		p.MaxAttempts = n
	}
}

// WithInitialDelay sets the delay after the first failed attempt.
func WithInitialDelay(d time.Duration) Option {
	return func(p *Policy) {
		p.InitialDelay = d
	}
}

// WithMaxDelay sets the maximum delay between attempts.
func WithMaxDelay(d time.Duration) Option {
	return func(p *Policy) {
		p.MaxDelay = d
	}
}

// WithMultiplier sets the backoff multiplier.
func WithMultiplier(m float64) Option {
	return func(p *Policy) {
		p.Multiplier = m
	}
}

// WithRetryIf restricts retries to errors matching pred.
func WithRetryIf(pred func(error) bool) Option {
	return func(p *Policy) {
		p.RetryIf = pred
	}
}

// Delay returns the sleep that follows failed attempt n (1-indexed):
// InitialDelay × Multiplier^(n-1), capped by MaxDelay.
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	mult := p.Multiplier
	if mult <= 0 {
		mult = 1
	}
	d := time.Duration(float64(p.InitialDelay) * math.Pow(mult, float64(attempt-1)))
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}

func (p Policy) retryable(err error) bool {
	if IsFatal(err) {
		return false
	}
	if p.RetryIf == nil {
		return true
	}
	return p.RetryIf(err)
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

func contextSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type doOptions struct {
	sleep  Sleeper
	logger logr.Logger
	name   string
}

// DoOption configures a single Do call.
type DoOption func(*doOptions)

// WithSleeper replaces the context-aware timer sleep, mainly for tests.
func WithSleeper(s Sleeper) DoOption {
	return func(o *doOptions) {
		o.sleep = s
	}
}

// WithLogger logs every failed attempt.
func WithLogger(l logr.Logger) DoOption {
	return func(o *doOptions) {
		o.logger = l
	}
}

// WithName names the operation in log lines.
func WithName(name string) DoOption {
	return func(o *doOptions) {
		o.name = name
	}
}

// Do runs operation under policy p.
//
// A non-retryable error is returned immediately and unchanged. When every
// attempt fails, the error of the last attempt is returned unchanged.
// Context cancellation during a backoff sleep returns the context error.
func Do(ctx context.Context, p Policy, operation func(context.Context) error, opts ...DoOption) error {
	o := doOptions{
		sleep:  contextSleep,
		logger: logr.Discard(),
		name:   "operation",
	}
	for _, opt := range opts {
		opt(&o)
	}

	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := operation(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if !p.retryable(err) {
			return err
		}
		if attempt == attempts {
			break
		}

		delay := p.Delay(attempt)
		o.logger.Info("attempt failed, retrying",
			"operation", o.name, "attempt", attempt, "maxAttempts", attempts, "delay", delay, "error", err.Error())
		if sleepErr := o.sleep(ctx, delay); sleepErr != nil {
			return sleepErr
		}
	}

	o.logger.Info("giving up", "operation", o.name, "attempts", attempts)
	return lastErr
}

// OnType returns a predicate matching errors that are, or wrap, an E.
// E is typically a pointer type such as *ocp.CommandFailedError.
func OnType[E error]() func(error) bool {
	return func(err error) bool {
		var target E
		return errors.As(err, &target)
	}
}

// OnErrors returns a predicate matching errors that are, or wrap, any of targets.
func OnErrors(targets ...error) func(error) bool {
	return func(err error) bool {
		for _, t := range targets {
			if errors.Is(err, t) {
				return true
			}
		}
		return false
	}
}

// FatalError wraps an error to mark it as fatal (non-retryable).
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string {
	return e.Err.Error()
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// Fatal marks an error as fatal (non-retryable).
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &FatalError{Err: err}
}

// IsFatal checks if an error is fatal (non-retryable).
func IsFatal(err error) bool {
	var fatalErr *FatalError
	return errors.As(err, &fatalErr)
}
