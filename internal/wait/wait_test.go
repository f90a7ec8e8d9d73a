package wait

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/golemhq/golem-sub001/internal/ports/portstest"
	"github.com/golemhq/golem-sub001/internal/selector"
	"github.com/golemhq/golem-sub001/pkg/apperr"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const poll = 50 * time.Millisecond

func newTestWaiter() *Waiter {
	return NewWaiter(clockwork.NewRealClock(), poll, zap.NewNop())
}

func TestRun_AlwaysFalseSoftWaitTakesTwoAttempts(t *testing.T) {
	w := newTestWaiter()

	start := time.Now()
	res, err := w.Run(context.Background(), Spec{Timeout: 2 * poll, PollInterval: poll, Condition: Never})
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.False(t, res.Met)
	assert.Equal(t, 2, res.Attempts)
	assert.GreaterOrEqual(t, elapsed, 2*poll)
	assert.Less(t, elapsed, 2*poll+poll*5)
}

func TestRun_ZeroTimeoutSingleAttempt(t *testing.T) {
	w := newTestWaiter()

	start := time.Now()
	res, err := w.Run(context.Background(), Spec{Timeout: 0, Condition: Never})

	require.NoError(t, err)
	assert.False(t, res.Met)
	assert.Equal(t, 1, res.Attempts)
	assert.Less(t, time.Since(start), poll)
}

func TestRun_ConditionMetLater(t *testing.T) {
	w := newTestWaiter()
	readyAt := time.Now().Add(3 * poll)

	res, err := w.Run(context.Background(), Spec{
		Timeout: 10 * poll,
		Condition: func(context.Context) (bool, error) {
			return !time.Now().Before(readyAt), nil
		},
	})

	require.NoError(t, err)
	assert.True(t, res.Met)
	assert.GreaterOrEqual(t, res.Elapsed, 3*poll)
	assert.Less(t, res.Elapsed, 3*poll+poll*4)
}

func TestRun_ConditionErrorAbortsImmediately(t *testing.T) {
	w := newTestWaiter()
	boom := errors.New("protocol failure")
	calls := 0

	res, err := w.Run(context.Background(), Spec{
		Timeout: time.Second,
		Condition: func(context.Context) (bool, error) {
			calls++
			return false, boom
		},
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, res.Attempts)
}

func TestRun_SlowConditionEatsBudget(t *testing.T) {
	w := newTestWaiter()

	res, err := w.Run(context.Background(), Spec{
		Timeout: 4 * poll,
		Condition: func(context.Context) (bool, error) {
			time.Sleep(2 * poll)
			return false, nil
		},
	})

	require.NoError(t, err)
	assert.False(t, res.Met)
	// Each iteration costs three intervals: two evaluating plus one sleeping.
	assert.Equal(t, 2, res.Attempts)
}

func TestRun_ContextCancelled(t *testing.T) {
	w := newTestWaiter()
	ctx, cancel := context.WithTimeout(context.Background(), 2*poll)
	defer cancel()

	_, err := w.Run(ctx, Spec{Timeout: time.Minute, Condition: Never})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSoftAndHard(t *testing.T) {
	w := newTestWaiter()
	ctx := context.Background()

	ok, err := w.Soft(ctx, poll, Never)
	require.NoError(t, err)
	assert.False(t, ok)

	err = w.Hard(ctx, poll, Never, func() error {
		return apperr.AssertionError("test", "never happened", true, false)
	})
	assert.True(t, apperr.HasCode(err, apperr.CodeAssertionFailed))

	assert.NoError(t, w.Hard(ctx, poll, Always, func() error { return errors.New("unreachable") }))
}

func TestNewWaiter_Defaults(t *testing.T) {
	w := NewWaiter(nil, 0, nil)

	assert.Equal(t, DefaultPollInterval, w.PollInterval())
	assert.NotNil(t, w.Clock())
}

func TestParseTimeout(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want time.Duration
	}{
		{name: "int seconds", in: 3, want: 3 * time.Second},
		{name: "float seconds", in: 1.5, want: 1500 * time.Millisecond},
		{name: "numeric string", in: "2", want: 2 * time.Second},
		{name: "padded numeric string", in: " 0.5 ", want: 500 * time.Millisecond},
		{name: "duration", in: 250 * time.Millisecond, want: 250 * time.Millisecond},
		{name: "duration string", in: "750ms", want: 750 * time.Millisecond},
		{name: "zero", in: 0, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTimeout(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseTimeout_Invalid(t *testing.T) {
	for _, in := range []any{"ten", "", -1, "-2", nil, true, []int{1}, "1e12", 1e12, int64(math.MaxInt64)} {
		_, err := ParseTimeout(in)
		assert.True(t, apperr.HasCode(err, apperr.CodeInvalidTimeout), "input %v", in)
	}
}

func TestPredicates_Element(t *testing.T) {
	ctx := context.Background()
	node := &portstest.Node{
		Content:  "Welcome back, Ana",
		Val:      "ana",
		Attrs:    map[string]string{"role": "banner"},
		Options:  []portstest.Option{{Text: "One", Value: "1"}, {Text: "Two", Value: "2"}},
		Selected: 1,
	}

	check := func(c Condition) bool {
		ok, err := c(ctx)
		require.NoError(t, err)
		return ok
	}

	assert.True(t, check(Visible(node)))
	assert.False(t, check(NotVisible(node)))
	assert.True(t, check(Enabled(node)))
	assert.False(t, check(Selected(node)))
	assert.True(t, check(NotSelected(node)))
	assert.True(t, check(TextInElement(node, "back")))
	assert.False(t, check(TextIs(node, "back")))
	assert.True(t, check(ValueIs(node, "ana")))
	assert.True(t, check(AttributeIs(node, "role", "banner")))
	assert.True(t, check(OptionSelectedByText(node, "Two")))
	assert.True(t, check(OptionSelectedByValue(node, "2")))

	node.SetHidden(true)
	node.SetDisabled(true)
	assert.True(t, check(NotVisible(node)))
	assert.True(t, check(NotEnabled(node)))
}

func TestPredicates_Page(t *testing.T) {
	ctx := context.Background()
	drv := portstest.NewDriver()
	drv.SetSource(`<html><head><script>var x = "hidden text";</script></head>
<body><h1>Order
   confirmed</h1><p>Thanks</p></body></html>`)
	drv.TitleText = "Checkout"

	sel := selector.MustNew(selector.Css, ".item", "")
	drv.Add(selector.Css, ".item", &portstest.Node{})

	check := func(c Condition) bool {
		ok, err := c(ctx)
		require.NoError(t, err)
		return ok
	}

	assert.True(t, check(TextInPage(drv, "Order confirmed")))
	assert.False(t, check(TextInPage(drv, "hidden text")))
	assert.True(t, check(TextNotInPage(drv, "Payment failed")))
	assert.True(t, check(Present(drv, sel)))
	assert.True(t, check(NotPresent(drv, selector.MustNew(selector.Id, "missing", ""))))
	assert.True(t, check(TitleIs(drv, "Checkout")))
	assert.True(t, check(TitleContains(drv, "Check")))
	assert.True(t, check(URLIs(drv, "about:blank")))
	assert.True(t, check(URLContains(drv, "blank")))

	assert.True(t, check(AlertNotPresent(drv)))
	drv.OpenAlert("are you sure?")
	assert.True(t, check(AlertPresent(drv)))
}

func TestPresent_PropagatesBackendError(t *testing.T) {
	drv := portstest.NewDriver()
	boom := errors.New("session deleted")
	drv.FailWith(boom)

	_, err := Present(drv, selector.MustNew(selector.Css, "a", ""))(context.Background())
	assert.ErrorIs(t, err, boom)
}
