package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/golemhq/golem-sub001/internal/browser"
	"github.com/golemhq/golem-sub001/internal/config"
	"github.com/golemhq/golem-sub001/internal/metrics"
	"github.com/golemhq/golem-sub001/internal/pageobject"
	"github.com/golemhq/golem-sub001/internal/report"
	"github.com/golemhq/golem-sub001/internal/runner"
	"github.com/golemhq/golem-sub001/internal/script"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Process exit codes.
const (
	ExitPassed = 0
	ExitFailed = 1
	ExitError  = 2
)

func runSuite(
	lc fx.Lifecycle,
	shutdowner fx.Shutdowner,
	opts RunOptions,
	config *config.Config,
	manager *browser.Manager,
	r *runner.Runner,
	logger *zap.Logger,
) {
	runCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			suite, err := script.Load(opts.SuitePath)
			if err != nil {
				logger.Error("Failed to load suite", zap.String("path", opts.SuitePath), zap.Error(err))

				return err
			}

			pages := pageobject.NewRegistry()
			if dir := suite.PagesDir(); dir != "" {
				if pages, err = pageobject.LoadDir(dir); err != nil {
					logger.Error("Failed to load page objects", zap.String("dir", dir), zap.Error(err))

					return err
				}
			}

			logger.Info("Launching browser...")

			if err := manager.Launch(ctx); err != nil {
				logger.Error("Failed to launch browser", zap.Error(err))

				return err
			}

			go func() {
				defer close(done)

				code := execute(runCtx, suite, script.NewDispatcher(pages), r, config.ExecutionConfig.ReportPath, logger)

				if err := shutdowner.Shutdown(fx.ExitCode(code)); err != nil {
					logger.Error("Failed to request shutdown", zap.Error(err))
				}
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Shutting down...")

			cancel()

			select {
			case <-done:
			case <-ctx.Done():
				logger.Warn("Suite did not stop in time")
			}

			if err := manager.Close(ctx); err != nil {
				logger.Error("Failed to close browser", zap.Error(err))
			}

			return nil
		},
	})
}

func execute(ctx context.Context, suite *script.Suite, disp *script.Dispatcher, r *runner.Runner, reportPath string, logger *zap.Logger) int {
	started := time.Now()

	results, err := r.Run(ctx, suite, disp)
	if err != nil {
		logger.Error("Suite run interrupted", zap.Error(err))
	}

	rep := report.New(suite.Name, started, results)

	if reportPath != "" {
		if werr := rep.WriteFile(reportPath); werr != nil {
			logger.Error("Failed to write report", zap.String("path", reportPath), zap.Error(werr))

			return ExitError
		}

		logger.Info("Report written", zap.String("path", reportPath))
	}

	for _, res := range results {
		line := fmt.Sprintf("%-8s %s", res.Status, res.Name)
		if len(res.Data) > 0 {
			line += fmt.Sprintf(" [set %d]", res.SetIndex)
		}

		if res.Error != "" {
			line += ": " + res.Error
		}

		fmt.Fprintln(os.Stdout, line)
	}

	fmt.Fprintln(os.Stdout, rep.Summary())

	switch {
	case err != nil:
		return ExitError
	case rep.Passed():
		return ExitPassed
	default:
		return ExitFailed
	}
}

// serveMetrics exposes the Prometheus registry while the app runs.
func serveMetrics(lc fx.Lifecycle, config *config.Config, logger *zap.Logger) {
	addr := config.ExecutionConfig.MetricsAddr
	if addr == "" {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("Metrics server stopped", zap.Error(err))
				}
			}()

			logger.Info("Serving metrics", zap.String("addr", addr))

			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}
