// Package runner executes suite tests, one execution context per test
// instance, on a bounded pool of workers.
package runner

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/golemhq/golem-sub001/internal/actions"
	"github.com/golemhq/golem-sub001/internal/config"
	"github.com/golemhq/golem-sub001/internal/entity"
	"github.com/golemhq/golem-sub001/internal/execution"
	"github.com/golemhq/golem-sub001/internal/metrics"
	"github.com/golemhq/golem-sub001/internal/ports"
	"github.com/golemhq/golem-sub001/internal/script"
	"github.com/golemhq/golem-sub001/pkg/apperr"
	"github.com/golemhq/golem-sub001/pkg/logg"
	"github.com/golemhq/golem-sub001/pkg/tracing"
	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	runnerName   = "Runner"
	runnerTracer = "kernel.runner"
)

type Runner struct {
	settings execution.Settings
	workers  int
	factory  ports.BrowserFactory
	clock    clockwork.Clock
	client   *http.Client
	logger   *zap.Logger
	tracer   trace.Tracer
}

type Params struct {
	fx.In

	Config     *config.Config
	Logger     *zap.Logger
	Factory    ports.BrowserFactory
	Clock      clockwork.Clock `optional:"true"`
	HTTPClient *http.Client    `optional:"true"`
}

func NewRunner(params Params) *Runner {
	workers := params.Config.ExecutionConfig.Workers
	if workers < 1 {
		workers = 1
	}

	return &Runner{
		settings: execution.SettingsFromConfig(params.Config.ExecutionConfig),
		workers:  workers,
		factory:  params.Factory,
		clock:    params.Clock,
		client:   params.HTTPClient,
		logger:   params.Logger.With(zap.String(logg.Layer, runnerName)),
		tracer:   otel.Tracer(runnerTracer),
	}
}

type instance struct {
	test     script.Test
	setIndex int
	row      entity.DataRow
}

// Run executes every test of suite once per data row. Results come back in
// suite order regardless of which worker finished first. The returned error
// is only set when ctx ends before all instances ran.
func (r *Runner) Run(ctx context.Context, suite *script.Suite, disp *script.Dispatcher) (results []entity.TestResult, err error) {
	const op = "Run"
	logger := r.logger.With(zap.String(logg.Operation, op), zap.String("suite", suite.Name))

	ctx, step := tracing.StartSpan(ctx, r.tracer, logger, op,
		attribute.String("suite", suite.Name),
		attribute.Int("workers", r.workers))
	defer func() {
		step.End(err)
	}()

	var instances []instance

	for _, t := range suite.Tests {
		for i, row := range t.Rows() {
			instances = append(instances, instance{test: t, setIndex: i, row: row})
		}
	}

	logger.Info("Running suite", zap.Int("instances", len(instances)), zap.Int("workers", r.workers))

	results = make([]entity.TestResult, len(instances))

	var g errgroup.Group
	g.SetLimit(r.workers)

	for i, inst := range instances {
		if ctx.Err() != nil {
			results[i] = cancelled(inst, ctx.Err())

			continue
		}

		g.Go(func() error {
			results[i] = r.runInstance(ctx, inst, disp)

			return nil
		})
	}

	_ = g.Wait()

	step.AddEvent("suite finished")

	if ctx.Err() != nil {
		return results, apperr.Wrap(op, apperr.CodeUnavailable, ctx.Err(), map[string]any{
			apperr.MetaReason: "run_cancelled",
			apperr.MetaStage:  apperr.StageExecution,
		})
	}

	return results, nil
}

func (r *Runner) runInstance(ctx context.Context, inst instance, disp *script.Dispatcher) (res entity.TestResult) {
	const op = "runInstance"

	ec := execution.New(execution.Params{
		TestName: inst.test.Name,
		Settings: r.settings,
		Factory:  r.factory,
		Clock:    r.clock,
		Logger:   r.logger,
		Row:      inst.row,
	})

	logger := ec.Logger().With(zap.String(logg.Operation, op), zap.Int("set_index", inst.setIndex))

	ctx, span := tracing.StartSpan(ctx, r.tracer, logger, op,
		attribute.String("test", inst.test.Name),
		attribute.Int("set_index", inst.setIndex))

	started := time.Now()
	res = entity.TestResult{
		RunID:     ec.RunID(),
		Name:      inst.test.Name,
		SetIndex:  inst.setIndex,
		Data:      ec.Row(),
		Status:    entity.ResultStatusPending,
		StartedAt: started,
	}

	if inst.test.Description != "" {
		ec.SetDescription(inst.test.Description)
	}

	a := actions.New(actions.Params{Exec: ec, Clock: r.clock, HTTPClient: r.client})

	logger.Info("Test started")

	var stack string

	err := r.phase(ctx, a, disp, "setup", inst.test.Setup, &stack)
	if err == nil {
		err = r.phase(ctx, a, disp, "steps", inst.test.Steps, &stack)
	}

	// Teardown always runs; its own failure only surfaces when the test had
	// none.
	if tdErr := r.phase(context.WithoutCancel(ctx), a, disp, "teardown", inst.test.Teardown, &stack); tdErr != nil {
		if err == nil {
			err = tdErr
		} else {
			logger.Warn("Teardown failed", zap.Error(tdErr))
		}
	}

	res.Browsers = ec.Slots()

	if closeErr := ec.CloseAll(context.WithoutCancel(ctx)); closeErr != nil {
		logger.Warn("Failed to close browsers", zap.Error(closeErr))
	}

	res.Status = Status(err)
	res.Description = ec.Description()
	res.Steps = ec.Steps()
	res.Duration = time.Since(started)
	res.Trace = stack

	if err != nil {
		res.Error = err.Error()
		res.ErrorCode = apperr.Code(err)
		res.ErrorMeta = errorMeta(err)
	}

	metrics.RecordTest(string(res.Status), res.Duration)
	span.End(err)

	logger.Info("Test finished",
		zap.String("status", string(res.Status)),
		zap.Duration("duration", res.Duration))

	return res
}

// phase runs calls in order and stops at the first error. A panic inside an
// action is converted into an error and the goroutine stack is recorded.
func (r *Runner) phase(ctx context.Context, a *actions.Actions, disp *script.Dispatcher, name string, calls []script.Call, stack *string) (err error) {
	const op = "phase"

	defer func() {
		if p := recover(); p != nil {
			*stack = string(debug.Stack())
			err = apperr.Wrap(op, apperr.CodeInternal, fmt.Errorf("panic in %s: %v", name, p), map[string]any{
				apperr.MetaReason: "panic",
				apperr.MetaStage:  apperr.StageExecution,
			})
		}
	}()

	for _, call := range calls {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := disp.Run(ctx, a, call); err != nil {
			a.Exec().Logger().Debug("Action failed",
				zap.String(logg.Action, call.Action),
				zap.String("phase", name),
				zap.Error(err))

			return err
		}
	}

	return nil
}

// Status classifies a test outcome: verification mismatches are failures,
// anything else that went wrong is an error.
func Status(err error) entity.ResultStatus {
	switch {
	case err == nil:
		return entity.ResultStatusSuccess
	case apperr.HasCode(err, apperr.CodeAssertionFailed), apperr.HasCode(err, apperr.CodeTextNotPresent):
		return entity.ResultStatusFailure
	default:
		return entity.ResultStatusError
	}
}

func errorMeta(err error) map[string]any {
	out := make(map[string]any)

	for err != nil {
		var e *apperr.Error
		if !errors.As(err, &e) {
			break
		}

		for k, v := range e.Metadata {
			if _, ok := out[k]; !ok {
				out[k] = v
			}
		}

		err = e.Err
	}

	if len(out) == 0 {
		return nil
	}

	return out
}

func cancelled(inst instance, err error) entity.TestResult {
	return entity.TestResult{
		Name:      inst.test.Name,
		SetIndex:  inst.setIndex,
		Data:      inst.row,
		Status:    entity.ResultStatusError,
		Error:     err.Error(),
		StartedAt: time.Now(),
	}
}
