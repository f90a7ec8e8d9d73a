package bootstrap

import (
	"context"
	"os"

	"github.com/golemhq/golem-sub001/internal/browser"
	"github.com/golemhq/golem-sub001/internal/console"
	"github.com/golemhq/golem-sub001/internal/pageobject"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func runConsole(
	lc fx.Lifecycle,
	shutdowner fx.Shutdowner,
	opts RunOptions,
	consoleInterface *console.Interface,
	manager *browser.Manager,
	logger *zap.Logger,
) {
	runCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("Starting interactive console...")

			pages := pageobject.NewRegistry()
			if opts.PagesDir != "" {
				var err error
				if pages, err = pageobject.LoadDir(opts.PagesDir); err != nil {
					logger.Error("Failed to load page objects", zap.String("dir", opts.PagesDir), zap.Error(err))

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

				if err := consoleInterface.Run(runCtx, os.Stdin, os.Stdout, pages); err != nil {
					logger.Error("Console interface error", zap.Error(err))
				}

				if err := shutdowner.Shutdown(); err != nil {
					logger.Error("Failed to request shutdown", zap.Error(err))
				}
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Shutting down console...")

			cancel()

			select {
			case <-done:
			case <-ctx.Done():
			}

			if err := manager.Close(ctx); err != nil {
				logger.Error("Failed to close browser", zap.Error(err))
			}

			return nil
		},
	})
}
