package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/golemhq/golem-sub001/internal/bootstrap"
	"github.com/golemhq/golem-sub001/internal/script"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(bootstrap.ExitError)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "webtest",
		Short:        "Run browser test suites written in YAML",
		SilenceUsage: true,
	}

	root.AddCommand(runCmd(), shellCmd(), actionsCmd())

	return root
}

func runCmd() *cobra.Command {
	var opts bootstrap.RunOptions

	cmd := &cobra.Command{
		Use:   "run <suite.yaml>",
		Short: "Execute every test of a suite",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.SuitePath = args[0]

			os.Exit(run(opts))

			return nil
		},
	}

	flags := cmd.Flags()
	flags.IntVarP(&opts.Workers, "workers", "w", 0, "Number of tests run in parallel (default EXEC_WORKERS)")
	flags.StringVarP(&opts.ReportPath, "report", "r", "", "Write a JSON report to this file")
	flags.StringVar(&opts.MetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9090")

	return cmd
}

func shellCmd() *cobra.Command {
	opts := bootstrap.RunOptions{Interactive: true}

	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Run steps one at a time against a live browser",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			os.Exit(run(opts))

			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.PagesDir, "pages", "p", "", "Directory of page object files")

	return cmd
}

func run(opts bootstrap.RunOptions) int {
	app := bootstrap.NewApp(opts)

	startCtx, cancel := context.WithTimeout(context.Background(), app.StartTimeout())
	defer cancel()

	if err := app.Start(startCtx); err != nil {
		fmt.Fprintln(os.Stderr, "webtest:", err)

		return bootstrap.ExitError
	}

	sig := <-app.Wait()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()

	if err := app.Stop(stopCtx); err != nil {
		fmt.Fprintln(os.Stderr, "webtest:", err)
	}

	return sig.ExitCode
}

func actionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "actions",
		Short: "List the actions a suite step may use",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(script.Actions(), "\n"))
		},
	}
}
