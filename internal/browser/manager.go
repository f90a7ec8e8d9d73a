package browser

import (
	"context"
	"fmt"
	"sync"

	"github.com/golemhq/golem-sub001/internal/config"
	"github.com/golemhq/golem-sub001/internal/ports"
	"github.com/golemhq/golem-sub001/pkg/apperr"
	"github.com/golemhq/golem-sub001/pkg/logg"
	"github.com/golemhq/golem-sub001/pkg/tracing"
	"github.com/playwright-community/playwright-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	browserManagerName = "BrowserManager"
	browserTracer      = "browser.manager"
)

// Manager owns the playwright process and one launched browser. Every
// execution slot gets its own isolated context and page through Open.
type Manager struct {
	config *config.BrowserConfig
	logger *zap.Logger
	tracer trace.Tracer

	mu         sync.Mutex
	playwright *playwright.Playwright
	browser    playwright.Browser
	ready      bool
}

type Params struct {
	fx.In

	Config *config.Config
	Logger *zap.Logger
}

func NewManager(params Params) *Manager {
	return &Manager{
		config: params.Config.BrowserConfig,
		logger: params.Logger.With(zap.String(logg.Layer, browserManagerName)),
		tracer: otel.Tracer(browserTracer),
	}
}

func (m *Manager) Launch(ctx context.Context) (err error) {
	const op = "Launch"
	logger := m.logger.With(zap.String(logg.Operation, op), zap.String("engine", m.config.Engine))

	_, step := tracing.StartSpan(ctx, m.tracer, logger, op, attribute.String("engine", m.config.Engine))
	defer func() {
		step.End(err)
	}()

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ready {
		return nil
	}

	logger.Info("Launching browser...")

	if !m.config.SkipInstall {
		step.AddEvent("installing playwright")

		err = playwright.Install(&playwright.RunOptions{
			Browsers: []string{m.config.Engine},
		})
		if err != nil {
			return apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
				apperr.MetaReason: "playwright_install_failed",
				apperr.MetaStage:  apperr.StageBrowser,
			})
		}
	}

	step.AddEvent("starting playwright")

	pw, err := playwright.Run()
	if err != nil {
		return apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "playwright_start_failed",
			apperr.MetaStage:  apperr.StageBrowser,
		})
	}

	browserType, err := engine(pw, m.config.Engine)
	if err != nil {
		_ = pw.Stop()

		return apperr.Wrap(op, apperr.CodeInvalidArgument, err, map[string]any{
			apperr.MetaReason: "unknown_engine",
			apperr.MetaStage:  apperr.StageBrowser,
		})
	}

	browser, err := browserType.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(m.config.Headless),
		SlowMo:   playwright.Float(float64(m.config.SlowMo)),
	})
	if err != nil {
		_ = pw.Stop()

		return apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "browser_launch_failed",
			apperr.MetaStage:  apperr.StageBrowser,
		})
	}

	m.playwright = pw
	m.browser = browser
	m.ready = true

	logger.Info("Browser launched successfully", zap.String("version", browser.Version()))

	return nil
}

func engine(pw *playwright.Playwright, name string) (playwright.BrowserType, error) {
	switch name {
	case "chromium", "":
		return pw.Chromium, nil
	case "firefox":
		return pw.Firefox, nil
	case "webkit":
		return pw.WebKit, nil
	default:
		return nil, fmt.Errorf("unsupported browser engine %q", name)
	}
}

// Open creates a fresh browser context and page for slot.
func (m *Manager) Open(ctx context.Context, slot string) (d ports.Driver, err error) {
	const op = "Open"
	logger := m.logger.With(zap.String(logg.Operation, op), zap.String(logg.Slot, slot))

	_, step := tracing.StartSpan(ctx, m.tracer, logger, op, attribute.String("slot", slot))
	defer func() {
		step.End(err)
	}()

	m.mu.Lock()
	browser, ready := m.browser, m.ready
	m.mu.Unlock()

	if !ready {
		return nil, apperr.WrapErrorWithReason(op, apperr.CodeBrowserNotReady, "browser_not_ready")
	}

	bctx, err := browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  m.config.ViewportWidth,
			Height: m.config.ViewportHeight,
		},
	})
	if err != nil {
		return nil, apperr.Wrap(op, apperr.CodeBrowserNotReady, err, map[string]any{
			apperr.MetaReason: "new_context_failed",
			apperr.MetaStage:  apperr.StageBrowser,
			apperr.MetaSlot:   slot,
		})
	}

	page, err := bctx.NewPage()
	if err != nil {
		_ = bctx.Close()

		return nil, apperr.Wrap(op, apperr.CodeBrowserNotReady, err, map[string]any{
			apperr.MetaReason: "new_page_failed",
			apperr.MetaStage:  apperr.StageBrowser,
			apperr.MetaSlot:   slot,
		})
	}

	timeout := float64(m.config.Timeout)
	page.SetDefaultTimeout(timeout)

	step.AddEvent("page created")
	logger.Debug("Browser session opened")

	return newDriver(slot, bctx, page, timeout, m.logger, m.tracer), nil
}

func (m *Manager) Close(ctx context.Context) (err error) {
	const op = "Close"
	logger := m.logger.With(zap.String(logg.Operation, op))

	_, step := tracing.StartSpan(ctx, m.tracer, logger, op)
	defer func() {
		step.End(err)
	}()

	m.mu.Lock()
	defer m.mu.Unlock()

	logger.Info("Closing browser...")

	if m.browser != nil {
		if closeErr := m.browser.Close(); closeErr != nil {
			logger.Warn("Failed to close browser", zap.Error(closeErr))
		}
		m.browser = nil
	}

	if m.playwright != nil {
		if stopErr := m.playwright.Stop(); stopErr != nil {
			err = apperr.Wrap(op, apperr.CodeInternal, stopErr, map[string]any{
				apperr.MetaReason: "playwright_stop_failed",
				apperr.MetaStage:  apperr.StageBrowser,
			})
		}
		m.playwright = nil
	}

	m.ready = false

	return err
}

func (m *Manager) IsReady() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.ready
}

var _ ports.BrowserFactory = (*Manager)(nil)
