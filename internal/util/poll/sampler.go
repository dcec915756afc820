package poll

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/go-logr/logr"
	"k8s.io/utils/clock"
)

// Func is a single sampling attempt.
type Func[T any] func(ctx context.Context) (T, error)

type options struct {
	clock       clock.Clock
	logger      logr.Logger
	description string
}

// Option configures a Sampler.
type Option func(*options)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(c clock.Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

// WithLogger sets the logger used to report failed attempts.
func WithLogger(l logr.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithDescription sets the human-readable call description carried by TimeoutError.
func WithDescription(format string, args ...any) Option {
	return func(o *options) {
		o.description = fmt.Sprintf(format, args...)
	}
}

// Sampler repeatedly invokes an operation until its consumer is satisfied or
// the timeout elapses.
type Sampler[T any] struct {
	timeout  time.Duration
	interval time.Duration
	fn       Func[T]
	opts     options
}

// New creates a Sampler. The configuration is validated immediately so that an
// invalid poll never reaches its first attempt.
func New[T any](timeout, interval time.Duration, fn Func[T], opts ...Option) (*Sampler[T], error) {
	if fn == nil {
		return nil, fmt.Errorf("%w: nil operation", ErrInvalidConfig)
	}
	if interval <= 0 {
		return nil, fmt.Errorf("%w: poll interval must be positive, got %s", ErrInvalidConfig, interval)
	}
	if timeout < interval {
		return nil, fmt.Errorf("%w: timeout %s is shorter than poll interval %s", ErrInvalidConfig, timeout, interval)
	}

	o := options{
		clock:       clock.RealClock{},
		logger:      logr.Discard(),
		description: "operation",
	}
	for _, opt := range opts {
		opt(&o)
	}

	return &Sampler[T]{
		timeout:  timeout,
		interval: interval,
		fn:       fn,
		opts:     o,
	}, nil
}

// Timeout returns the configured timeout.
func (s *Sampler[T]) Timeout() time.Duration { return s.timeout }

// Interval returns the configured poll interval.
func (s *Sampler[T]) Interval() time.Duration { return s.interval }

// Description returns the call description used in timeout errors.
func (s *Sampler[T]) Description() string { return s.opts.description }

// Samples returns the lazy sequence of successful results. The timer starts
// when iteration starts. Failed attempts are logged and yield nothing.
// When the timeout is reached the sequence yields a *TimeoutError and ends;
// a cancelled context ends it with the context error.
//
// Elapsed time is checked before and after every attempt, so the worst-case
// overrun is one attempt plus one interval.
func (s *Sampler[T]) Samples(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		start := s.opts.clock.Now()
		attempt := 0

		for {
			if err := s.expired(start); err != nil {
				yield(zero, err)
				return
			}
			if err := ctx.Err(); err != nil {
				yield(zero, err)
				return
			}

			attempt++
			value, err := s.fn(ctx)
			if err != nil {
				s.opts.logger.Info("attempt failed, will retry",
					"call", s.opts.description, "attempt", attempt, "error", err.Error())
			} else if !yield(value, nil) {
				return
			}

			if err := s.expired(start); err != nil {
				yield(zero, err)
				return
			}

			s.opts.logger.V(1).Info("sleeping before next attempt", "call", s.opts.description, "interval", s.interval)
			s.opts.clock.Sleep(s.interval)
		}
	}
}

func (s *Sampler[T]) expired(start time.Time) error {
	elapsed := s.opts.clock.Since(start)
	if elapsed < s.timeout {
		return nil
	}
	return &TimeoutError{
		Timeout: s.timeout,
		Elapsed: elapsed,
		Call:    s.opts.description,
	}
}

// WaitFor consumes samples until pred returns true and returns that sample.
func WaitFor[T any](ctx context.Context, s *Sampler[T], pred func(T) bool) (T, error) {
	var zero T
	for value, err := range s.Samples(ctx) {
		if err != nil {
			return zero, err
		}
		if pred(value) {
			return value, nil
		}
	}
	// Unreachable: the sequence only ends through a yielded error or a consumer break.
	return zero, fmt.Errorf("poll for %s ended without a result", s.opts.description)
}

// WaitForValue consumes samples until one equals target.
func WaitForValue[T comparable](ctx context.Context, s *Sampler[T], target T) error {
	_, err := WaitFor(ctx, s, func(v T) bool { return v == target })
	if err != nil && IsTimeout(err) {
		s.opts.logger.Error(err, "operation never returned the expected value",
			"call", s.opts.description, "expected", target, "timeout", s.timeout)
	}
	return err
}

// WaitForStatus is WaitForValue for callers that branch instead of failing:
// it reports whether target was observed before the timeout.
func WaitForStatus[T comparable](ctx context.Context, s *Sampler[T], target T) bool {
	return WaitForValue(ctx, s, target) == nil
}
