package bootstrap

import (
	"time"

	"github.com/golemhq/golem-sub001/internal/browser"
	"github.com/golemhq/golem-sub001/internal/config"
	"github.com/golemhq/golem-sub001/internal/console"
	"github.com/golemhq/golem-sub001/internal/ports"
	"github.com/golemhq/golem-sub001/internal/runner"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// RunOptions carries the command line; zero values keep the configured
// defaults.
type RunOptions struct {
	SuitePath   string
	Workers     int
	ReportPath  string
	MetricsAddr string

	// Interactive starts the step console instead of running a suite.
	Interactive bool
	PagesDir    string
}

func NewApp(opts RunOptions) *fx.App {
	entry := fx.Invoke(runSuite)
	if opts.Interactive {
		entry = fx.Invoke(runConsole)
	}

	return fx.New(
		fx.Supply(opts),

		fx.Provide(
			newConfig,
			newLogger,

			fx.Annotate(browser.NewManager, fx.As(fx.Self()), fx.As(new(ports.BrowserFactory))),

			runner.NewRunner,
			console.NewInterface,
		),

		fx.WithLogger(func(logger *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger.WithOptions(zap.IncreaseLevel(zap.WarnLevel))}
		}),

		fx.Invoke(
			setupTracing,
			serveMetrics,
		),
		entry,

		fx.StartTimeout(5*time.Minute),
	)
}

func newConfig(opts RunOptions) (*config.Config, error) {
	conf, err := config.GetConfig()
	if err != nil {
		return nil, err
	}

	if opts.Workers > 0 {
		conf.ExecutionConfig.Workers = opts.Workers
	}

	if opts.ReportPath != "" {
		conf.ExecutionConfig.ReportPath = opts.ReportPath
	}

	if opts.MetricsAddr != "" {
		conf.ExecutionConfig.MetricsAddr = opts.MetricsAddr
	}

	return conf, nil
}
