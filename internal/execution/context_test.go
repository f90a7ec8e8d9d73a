package execution

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/golemhq/golem-sub001/internal/config"
	"github.com/golemhq/golem-sub001/internal/entity"
	"github.com/golemhq/golem-sub001/internal/ports/portstest"
	"github.com/golemhq/golem-sub001/pkg/apperr"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newContext(t *testing.T, settings Settings) (*Context, *portstest.Factory) {
	t.Helper()

	f := portstest.NewFactory()
	c := New(Params{
		TestName: "login",
		Settings: settings,
		Factory:  f,
		Logger:   zap.NewNop(),
		Row:      entity.DataRow{"user": "ana"},
	})

	return c, f
}

func TestSettingsFromConfig(t *testing.T) {
	s := SettingsFromConfig(&config.ExecutionConfig{
		ImplicitWait:     2.5,
		PollInterval:     0.25,
		WaitDisplayed:    true,
		ScreenshotOnStep: true,
		ScreenshotDir:    "shots",
	})

	assert.Equal(t, "2.5s", s.ImplicitWait.String())
	assert.Equal(t, "250ms", s.PollInterval.String())
	assert.True(t, s.WaitDisplayed)
	assert.True(t, s.ScreenshotOnStep)
	assert.Equal(t, "shots", s.ScreenshotDir)
}

func TestBrowser_OpensLazilyOnce(t *testing.T) {
	c, f := newContext(t, Settings{})
	ctx := context.Background()

	assert.False(t, c.HasBrowser())

	a, err := c.Browser(ctx)
	require.NoError(t, err)
	b, err := c.Browser(ctx)
	require.NoError(t, err)

	assert.Same(t, a, b)
	assert.Len(t, f.Drivers[DefaultSlot], 1)
	assert.Equal(t, []string{DefaultSlot}, c.Slots())
}

func TestBrowserSlots(t *testing.T) {
	c, f := newContext(t, Settings{})
	ctx := context.Background()

	_, err := c.Browser(ctx)
	require.NoError(t, err)

	second, err := c.OpenBrowser(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, "admin", c.ActiveSlot())

	current, err := c.Browser(ctx)
	require.NoError(t, err)
	assert.Same(t, second, current)

	_, err = c.OpenBrowser(ctx, "admin")
	assert.Equal(t, apperr.CodeInvalidArgument, apperr.Code(err))

	require.NoError(t, c.ActivateBrowser(DefaultSlot))
	assert.Equal(t, DefaultSlot, c.ActiveSlot())

	err = c.ActivateBrowser("ghost")
	assert.Equal(t, apperr.CodeNotFound, apperr.Code(err))

	require.NoError(t, c.CloseBrowser(ctx))
	assert.True(t, f.Last(DefaultSlot).Closed())
	assert.Equal(t, "admin", c.ActiveSlot())

	require.NoError(t, c.CloseAll(ctx))
	assert.True(t, f.Last("admin").Closed())
	assert.False(t, c.HasBrowser())
}

func TestOpenBrowser_FactoryFailure(t *testing.T) {
	c, f := newContext(t, Settings{})
	f.Err = errors.New("executable missing")

	_, err := c.Browser(context.Background())
	assert.Equal(t, apperr.CodeBrowserNotReady, apperr.Code(err))
	assert.ErrorIs(t, err, f.Err)

	noFactory := New(Params{TestName: "x"})
	_, err = noFactory.Browser(context.Background())
	assert.Equal(t, apperr.CodeBrowserNotReady, apperr.Code(err))
}

func TestStoredDataAndLookup(t *testing.T) {
	c, _ := newContext(t, Settings{})

	c.Store("order", 42)
	c.Store("user", "stored-user")

	v, ok := c.Retrieve("order")
	require.True(t, ok)
	assert.Equal(t, 42, v)

	_, ok = c.Retrieve("missing")
	assert.False(t, ok)

	got, ok := c.Lookup("user")
	assert.True(t, ok)
	assert.Equal(t, "ana", got)

	got, ok = c.Lookup("order")
	assert.True(t, ok)
	assert.Equal(t, "42", got)

	assert.Equal(t, []string{"order", "user"}, c.StoredKeys())

	row := c.Row()
	row["user"] = "mutated"
	assert.Equal(t, "ana", c.Row()["user"])
}

func TestStep_AppendsInOrder(t *testing.T) {
	c, f := newContext(t, Settings{})
	ctx := context.Background()

	c.Step(ctx, "Navigate to 'https://example.test'")
	c.Step(ctx, "Click login button")

	steps := c.Steps()
	require.Len(t, steps, 2)
	assert.Equal(t, "Navigate to 'https://example.test'", steps[0].Message)
	assert.Equal(t, "Click login button", steps[1].Message)
	assert.Empty(t, steps[0].Screenshot)
	assert.NotEqual(t, steps[0].ID, steps[1].ID)
	assert.Empty(t, f.Drivers)
}

func TestStep_TimestampsFollowClock(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	c := New(Params{TestName: "login", Factory: portstest.NewFactory(), Clock: clock})
	ctx := context.Background()

	c.Step(ctx, "Open login page")
	clock.Advance(1500 * time.Millisecond)
	c.Step(ctx, "Click login button")

	steps := c.Steps()
	require.Len(t, steps, 2)
	assert.Equal(t, time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC), steps[0].Timestamp)
	assert.Equal(t, 1500*time.Millisecond, steps[1].Timestamp.Sub(steps[0].Timestamp))
	assert.Same(t, clock, c.Clock())
}

func TestStep_ScreenshotOnStep(t *testing.T) {
	dir := t.TempDir()
	c, f := newContext(t, Settings{ScreenshotOnStep: true, ScreenshotDir: dir})
	ctx := context.Background()

	before := c.Step(ctx, "no browser yet")
	assert.Empty(t, before.Screenshot)

	_, err := c.Browser(ctx)
	require.NoError(t, err)

	step := c.Step(ctx, "with browser")
	require.NotEmpty(t, step.Screenshot)
	assert.Equal(t, 1, f.Last(DefaultSlot).Screenshots())

	data, err := os.ReadFile(step.Screenshot)
	require.NoError(t, err)
	assert.Equal(t, "page-png", string(data))
}

func TestAttachScreenshot(t *testing.T) {
	c, _ := newContext(t, Settings{ScreenshotDir: t.TempDir()})

	step, err := c.AttachScreenshot(context.Background(), "Take screenshot")
	require.NoError(t, err)
	assert.FileExists(t, step.Screenshot)
	assert.Len(t, c.Steps(), 1)
}

func TestDescription(t *testing.T) {
	c, _ := newContext(t, Settings{})
	c.SetDescription("logs in with valid credentials")

	assert.Equal(t, "logs in with valid credentials", c.Description())
	assert.Equal(t, "login", c.TestName())
	assert.NotEmpty(t, c.RunID().String())
}
