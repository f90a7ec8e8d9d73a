// Package execution holds the per-test state every action reads and
// mutates: browser slots, settings, the step log and stored data.
package execution

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/golemhq/golem-sub001/internal/config"
	"github.com/golemhq/golem-sub001/internal/entity"
	"github.com/golemhq/golem-sub001/internal/metrics"
	"github.com/golemhq/golem-sub001/internal/ports"
	"github.com/golemhq/golem-sub001/pkg/apperr"
	"github.com/golemhq/golem-sub001/pkg/logg"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// DefaultSlot is the browser slot used when a test never names one.
const DefaultSlot = "main"

// Settings is the immutable configuration snapshot a test starts with.
type Settings struct {
	ImplicitWait     time.Duration
	PollInterval     time.Duration
	WaitDisplayed    bool
	ScreenshotOnStep bool
	ScreenshotDir    string
}

func SettingsFromConfig(c *config.ExecutionConfig) Settings {
	return Settings{
		ImplicitWait:     config.Seconds(c.ImplicitWait),
		PollInterval:     config.Seconds(c.PollInterval),
		WaitDisplayed:    c.WaitDisplayed,
		ScreenshotOnStep: c.ScreenshotOnStep,
		ScreenshotDir:    c.ScreenshotDir,
	}
}

// Context is created when a test instance starts and torn down when it
// ends. It is owned by a single goroutine and is not shared between tests.
// The mutex only guards readers such as a reporter snapshotting the log.
type Context struct {
	mu sync.Mutex

	runID    uuid.UUID
	testName string
	settings Settings
	factory  ports.BrowserFactory
	clock    clockwork.Clock
	logger   *zap.Logger

	browsers    map[string]ports.Driver
	activeSlot  string
	opened      []string
	steps       []entity.Step
	data        map[string]any
	row         entity.DataRow
	description string
}

type Params struct {
	TestName string
	Settings Settings
	Factory  ports.BrowserFactory
	Clock    clockwork.Clock
	Logger   *zap.Logger
	Row      entity.DataRow
}

func New(p Params) *Context {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	clock := p.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	runID := uuid.New()

	row := entity.DataRow{}
	for k, v := range p.Row {
		row[k] = v
	}

	return &Context{
		runID:      runID,
		testName:   p.TestName,
		settings:   p.Settings,
		factory:    p.Factory,
		clock:      clock,
		logger:     logger.With(zap.String(logg.TestName, p.TestName), zap.String(logg.RunID, runID.String())),
		browsers:   make(map[string]ports.Driver),
		activeSlot: DefaultSlot,
		data:       make(map[string]any),
		row:        row,
	}
}

func (c *Context) RunID() uuid.UUID {
	return c.runID
}

func (c *Context) TestName() string {
	return c.testName
}

func (c *Context) Settings() Settings {
	return c.settings
}

// Clock is the time source for step timestamps and every wait of the test.
func (c *Context) Clock() clockwork.Clock {
	return c.clock
}

func (c *Context) Logger() *zap.Logger {
	return c.logger
}

// Row returns a copy of the data row the test runs with.
func (c *Context) Row() entity.DataRow {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(entity.DataRow, len(c.row))
	for k, v := range c.row {
		out[k] = v
	}

	return out
}

func (c *Context) SetDescription(d string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.description = d
}

func (c *Context) Description() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.description
}

// Store saves a value for later steps of the same test.
func (c *Context) Store(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data[key] = value
}

func (c *Context) Retrieve(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.data[key]

	return v, ok
}

func (c *Context) StoredKeys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]string, 0, len(c.data))
	for k := range c.data {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}

// Lookup resolves a key from the data row first, then from stored data.
func (c *Context) Lookup(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if v, ok := c.row[key]; ok {
		return v, true
	}

	if v, ok := c.data[key]; ok {
		return fmt.Sprint(v), true
	}

	return "", false
}

// Browser returns the driver of the active slot, opening it on first use.
func (c *Context) Browser(ctx context.Context) (ports.Driver, error) {
	c.mu.Lock()
	slot := c.activeSlot
	d, ok := c.browsers[slot]
	c.mu.Unlock()

	if ok {
		return d, nil
	}

	return c.OpenBrowser(ctx, slot)
}

// HasBrowser reports whether the active slot already holds a session.
func (c *Context) HasBrowser() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.browsers[c.activeSlot]

	return ok
}

// OpenBrowser opens a session in slot and makes it the active one.
func (c *Context) OpenBrowser(ctx context.Context, slot string) (ports.Driver, error) {
	const op = "OpenBrowser"

	if slot == "" {
		slot = DefaultSlot
	}

	c.mu.Lock()
	_, exists := c.browsers[slot]
	c.mu.Unlock()

	if exists {
		return nil, apperr.Wrap(op, apperr.CodeInvalidArgument, fmt.Errorf("browser slot %q is already open", slot), map[string]any{
			apperr.MetaReason: "slot_in_use",
			apperr.MetaSlot:   slot,
		})
	}

	if c.factory == nil {
		return nil, apperr.WrapErrorWithReason(op, apperr.CodeBrowserNotReady, "no_browser_factory")
	}

	d, err := c.factory.Open(ctx, slot)
	if err != nil {
		return nil, apperr.Wrap(op, apperr.CodeBrowserNotReady, err, map[string]any{
			apperr.MetaReason: "open_failed",
			apperr.MetaSlot:   slot,
		})
	}

	c.mu.Lock()
	c.browsers[slot] = d
	c.activeSlot = slot
	c.opened = append(c.opened, slot)
	c.mu.Unlock()

	c.logger.Debug("Browser opened", zap.String(logg.Slot, slot))

	return d, nil
}

// ActivateBrowser switches the active slot to an already open session.
func (c *Context) ActivateBrowser(slot string) error {
	const op = "ActivateBrowser"

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.browsers[slot]; !ok {
		return apperr.Wrap(op, apperr.CodeNotFound, fmt.Errorf("no open browser in slot %q", slot), map[string]any{
			apperr.MetaReason: "unknown_slot",
			apperr.MetaSlot:   slot,
		})
	}

	c.activeSlot = slot

	return nil
}

func (c *Context) ActiveSlot() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.activeSlot
}

// Slots lists every slot opened during the test, in opening order.
func (c *Context) Slots() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]string(nil), c.opened...)
}

// CloseBrowser closes the active slot's session. Another open slot, if any,
// becomes active.
func (c *Context) CloseBrowser(ctx context.Context) error {
	c.mu.Lock()
	slot := c.activeSlot
	d, ok := c.browsers[slot]
	delete(c.browsers, slot)

	for other := range c.browsers {
		c.activeSlot = other
		break
	}
	c.mu.Unlock()

	if !ok {
		return nil
	}

	return d.Close(ctx)
}

// CloseAll closes every open session. It is called at test teardown and
// returns the first close error.
func (c *Context) CloseAll(ctx context.Context) error {
	c.mu.Lock()
	browsers := c.browsers
	c.browsers = make(map[string]ports.Driver)
	c.activeSlot = DefaultSlot
	c.mu.Unlock()

	var firstErr error

	for slot, d := range browsers {
		if err := d.Close(ctx); err != nil {
			c.logger.Warn("Failed to close browser", zap.String(logg.Slot, slot), zap.Error(err))

			if firstErr == nil {
				firstErr = err
			}
		}
	}

	return firstErr
}

// Step appends a message to the execution log. When screenshots on every
// step are enabled and a browser is open, a screenshot is attached.
func (c *Context) Step(ctx context.Context, message string) entity.Step {
	step := entity.Step{
		ID:        uuid.New(),
		Message:   message,
		Timestamp: c.clock.Now(),
	}

	if c.settings.ScreenshotOnStep && c.HasBrowser() {
		if file, err := c.Screenshot(ctx, step.ID.String()); err != nil {
			c.logger.Warn("Failed to capture step screenshot", zap.Error(err))
		} else {
			step.Screenshot = file
		}
	}

	c.mu.Lock()
	c.steps = append(c.steps, step)
	c.mu.Unlock()

	metrics.RecordStep(step.Screenshot != "")
	c.logger.Info(message)

	return step
}

// Screenshot captures the active browser into the screenshot directory and
// returns the written file path.
func (c *Context) Screenshot(ctx context.Context, name string) (string, error) {
	const op = "Screenshot"

	d, err := c.Browser(ctx)
	if err != nil {
		return "", err
	}

	img, err := d.Screenshot(ctx)
	if err != nil {
		return "", apperr.Wrap(op, apperr.CodeBackend, err, map[string]any{
			apperr.MetaReason: "screenshot_failed",
			apperr.MetaStage:  apperr.StageScreenshot,
		})
	}

	dir := filepath.Join(c.settings.ScreenshotDir, c.runID.String())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "mkdir_failed",
			apperr.MetaStage:  apperr.StageScreenshot,
		})
	}

	path := filepath.Join(dir, name+".png")
	if err := os.WriteFile(path, img, 0o644); err != nil {
		return "", apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "write_failed",
			apperr.MetaStage:  apperr.StageScreenshot,
		})
	}

	return path, nil
}

// AttachScreenshot records a step that carries an explicitly taken screenshot.
func (c *Context) AttachScreenshot(ctx context.Context, message string) (entity.Step, error) {
	step := entity.Step{
		ID:        uuid.New(),
		Message:   message,
		Timestamp: c.clock.Now(),
	}

	file, err := c.Screenshot(ctx, step.ID.String())
	if err != nil {
		return entity.Step{}, err
	}

	step.Screenshot = file

	c.mu.Lock()
	c.steps = append(c.steps, step)
	c.mu.Unlock()

	metrics.RecordStep(true)
	c.logger.Info(message)

	return step, nil
}

// Steps returns a copy of the execution log.
func (c *Context) Steps() []entity.Step {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]entity.Step(nil), c.steps...)
}
