package poll

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	testingclock "k8s.io/utils/clock/testing"
)

func fakeClock() *testingclock.FakeClock {
	return testingclock.NewFakeClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
}

func TestNew_RejectsTimeoutShorterThanInterval(t *testing.T) {
	t.Parallel()
	calls := 0
	fn := func(_ context.Context) (int, error) {
		calls++
		return 0, nil
	}

	s, err := New(time.Second, 5*time.Second, fn)

	require.Error(t, err)
	assert.Nil(t, s)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Equal(t, 0, calls, "invalid configuration must never reach the first attempt")
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()
	fn := func(_ context.Context) (int, error) { return 0, nil }

	tests := []struct {
		name     string
		timeout  time.Duration
		interval time.Duration
		fn       Func[int]
		wantErr  bool
	}{
		{name: "equal timeout and interval", timeout: time.Second, interval: time.Second, fn: fn},
		{name: "zero interval", timeout: time.Second, interval: 0, fn: fn, wantErr: true},
		{name: "negative interval", timeout: time.Second, interval: -time.Second, fn: fn, wantErr: true},
		{name: "nil operation", timeout: time.Second, interval: time.Second, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := New(tt.timeout, tt.interval, tt.fn)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestWaitForValue_StopsAtMatchingAttempt(t *testing.T) {
	t.Parallel()
	clk := fakeClock()
	calls := 0
	fn := func(_ context.Context) (int, error) {
		calls++
		return calls, nil
	}

	s, err := New(time.Minute, time.Second, fn, WithClock(clk))
	require.NoError(t, err)

	require.NoError(t, WaitForValue(context.Background(), s, 4))
	assert.Equal(t, 4, calls, "operation must not run again after the target was observed")
}

func TestWaitForValue_TransientErrorsEndInTimeout(t *testing.T) {
	t.Parallel()
	clk := fakeClock()
	transient := errors.New("connection refused")
	calls := 0
	fn := func(_ context.Context) (string, error) {
		calls++
		return "", transient
	}

	s, err := New(10*time.Second, time.Second, fn, WithClock(clk), WithDescription("getPhase(%q)", "csv"))
	require.NoError(t, err)

	err = WaitForValue(context.Background(), s, "Succeeded")
	require.Error(t, err)

	var te *TimeoutError
	require.ErrorAs(t, err, &te)
	assert.NotErrorIs(t, err, transient)
	assert.Equal(t, 10*time.Second, te.Timeout)
	assert.GreaterOrEqual(t, te.Elapsed, 10*time.Second)
	assert.Equal(t, `getPhase("csv")`, te.Call)
	assert.Contains(t, err.Error(), `getPhase("csv")`)
	assert.Equal(t, 10, calls)
}

func TestSamples_PostAttemptCheckBoundsOverrun(t *testing.T) {
	t.Parallel()
	clk := fakeClock()
	calls := 0
	fn := func(_ context.Context) (bool, error) {
		calls++
		// A slow attempt that alone exceeds the timeout.
		clk.Step(30 * time.Second)
		return false, nil
	}

	s, err := New(20*time.Second, 5*time.Second, fn, WithClock(clk))
	require.NoError(t, err)

	var samples []bool
	var lastErr error
	for v, err := range s.Samples(context.Background()) {
		if err != nil {
			lastErr = err
			break
		}
		samples = append(samples, v)
	}

	assert.Equal(t, 1, calls)
	assert.Equal(t, []bool{false}, samples)
	assert.True(t, IsTimeout(lastErr))
}

func TestSamples_ConsumerBreakStopsPolling(t *testing.T) {
	t.Parallel()
	clk := fakeClock()
	calls := 0
	fn := func(_ context.Context) (int, error) {
		calls++
		return calls, nil
	}

	s, err := New(time.Hour, time.Second, fn, WithClock(clk))
	require.NoError(t, err)

	for v, err := range s.Samples(context.Background()) {
		require.NoError(t, err)
		if v == 2 {
			break
		}
	}
	assert.Equal(t, 2, calls)
}

func TestSamples_CancelledContext(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s, err := New(time.Minute, time.Second, func(_ context.Context) (int, error) {
		t.Fatal("operation must not run with a cancelled context")
		return 0, nil
	}, WithClock(fakeClock()))
	require.NoError(t, err)

	_, err = WaitFor(ctx, s, func(int) bool { return true })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWaitFor_ReturnsSatisfyingSample(t *testing.T) {
	t.Parallel()
	values := []string{"Pending", "Installing", "Succeeded"}
	i := 0
	s, err := New(time.Minute, time.Second, func(_ context.Context) (string, error) {
		v := values[i]
		i++
		return v, nil
	}, WithClock(fakeClock()))
	require.NoError(t, err)

	got, err := WaitFor(context.Background(), s, func(v string) bool { return v != "Pending" })
	require.NoError(t, err)
	assert.Equal(t, "Installing", got)
}

func TestWaitForStatus(t *testing.T) {
	t.Parallel()

	t.Run("satisfied", func(t *testing.T) {
		t.Parallel()
		calls := 0
		s, err := New(time.Minute, time.Second, func(_ context.Context) (bool, error) {
			calls++
			return calls == 3, nil
		}, WithClock(fakeClock()))
		require.NoError(t, err)
		assert.True(t, WaitForStatus(context.Background(), s, true))
	})

	t.Run("timeout is swallowed", func(t *testing.T) {
		t.Parallel()
		s, err := New(3*time.Second, time.Second, func(_ context.Context) (bool, error) {
			return false, nil
		}, WithClock(fakeClock()))
		require.NoError(t, err)
		assert.False(t, WaitForStatus(context.Background(), s, true))
	})
}

func TestSampler_Accessors(t *testing.T) {
	t.Parallel()
	s, err := New(time.Minute, 5*time.Second, func(_ context.Context) (int, error) { return 0, nil },
		WithDescription("noop"))
	require.NoError(t, err)

	assert.Equal(t, time.Minute, s.Timeout())
	assert.Equal(t, 5*time.Second, s.Interval())
	assert.Equal(t, "noop", s.Description())
}
