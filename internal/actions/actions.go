// Package actions is the verb layer test scripts call: every action resolves
// its target, performs the browser operation and appends a readable step.
package actions

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/golemhq/golem-sub001/internal/execution"
	"github.com/golemhq/golem-sub001/internal/ports"
	"github.com/golemhq/golem-sub001/internal/resolver"
	"github.com/golemhq/golem-sub001/internal/selector"
	"github.com/golemhq/golem-sub001/internal/wait"
	"github.com/golemhq/golem-sub001/pkg/apperr"
	"github.com/golemhq/golem-sub001/pkg/logg"
	"github.com/golemhq/golem-sub001/pkg/tracing"
	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	actionsName   = "Actions"
	actionsTracer = "kernel.actions"

	// LastResponseKey is the stored data key the HTTP actions write to.
	LastResponseKey = "last_response"
)

type Actions struct {
	exec     *execution.Context
	resolver *resolver.Resolver
	waiter   *wait.Waiter
	client   *http.Client
	logger   *zap.Logger
	tracer   trace.Tracer
}

type Params struct {
	Exec       *execution.Context
	Clock      clockwork.Clock
	HTTPClient *http.Client
}

func New(p Params) *Actions {
	settings := p.Exec.Settings()
	logger := p.Exec.Logger().With(zap.String(logg.Layer, actionsName))

	clock := p.Clock
	if clock == nil {
		clock = p.Exec.Clock()
	}

	waiter := wait.NewWaiter(clock, settings.PollInterval, logger)

	client := p.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	return &Actions{
		exec: p.Exec,
		resolver: resolver.New(waiter, resolver.Options{
			ImplicitWait:  settings.ImplicitWait,
			WaitDisplayed: settings.WaitDisplayed,
		}, logger),
		waiter: waiter,
		client: client,
		logger: logger,
		tracer: otel.Tracer(actionsTracer),
	}
}

func (a *Actions) Exec() *execution.Context {
	return a.exec
}

func (a *Actions) Resolver() *resolver.Resolver {
	return a.resolver
}

// Option tunes a single action call.
type Option func(*callOptions)

type callOptions struct {
	timeout    any
	hasTimeout bool
}

// Timeout overrides the implicit wait for one call. Numbers and numeric
// strings are seconds; durations are taken as is.
func Timeout(v any) Option {
	return func(o *callOptions) {
		o.timeout = v
		o.hasTimeout = true
	}
}

// budget returns the call's timeout, or def when none was given. An invalid
// timeout fails before any polling starts.
func budget(opts []Option, def time.Duration) (time.Duration, error) {
	var o callOptions
	for _, opt := range opts {
		opt(&o)
	}

	if !o.hasTimeout {
		return def, nil
	}

	return wait.ParseTimeout(o.timeout)
}

func (a *Actions) do(ctx context.Context, op string, fn func(ctx context.Context) error) (err error) {
	logger := a.logger.With(zap.String(logg.Operation, op))

	ctx, step := tracing.StartSpan(ctx, a.tracer, logger, op)
	defer func() {
		step.End(err)
	}()

	return fn(ctx)
}

func (a *Actions) driver(ctx context.Context) (ports.Driver, error) {
	return a.exec.Browser(ctx)
}

func (a *Actions) page(ctx context.Context) (*resolver.Page, error) {
	d, err := a.driver(ctx)
	if err != nil {
		return nil, err
	}

	return a.resolver.Page(d), nil
}

// element resolves input on the active browser using the call's timeout,
// falling back to the implicit wait.
func (a *Actions) element(ctx context.Context, input any, opts []Option) (*resolver.Element, error) {
	timeout, err := budget(opts, resolver.UseDefault)
	if err != nil {
		return nil, err
	}

	page, err := a.page(ctx)
	if err != nil {
		return nil, err
	}

	return page.Find(ctx, input, timeout)
}

// Find exposes element resolution to scripts that need a handle for nested
// lookups.
func (a *Actions) Find(ctx context.Context, input any, opts ...Option) (el *resolver.Element, err error) {
	err = a.do(ctx, "Find", func(ctx context.Context) error {
		el, err = a.element(ctx, input, opts)
		return err
	})

	return el, err
}

func (a *Actions) FindAll(ctx context.Context, input any) (els []*resolver.Element, err error) {
	err = a.do(ctx, "FindAll", func(ctx context.Context) error {
		page, err := a.page(ctx)
		if err != nil {
			return err
		}

		els, err = page.FindAll(ctx, input)

		return err
	})

	return els, err
}

func (a *Actions) step(ctx context.Context, format string, args ...any) {
	a.exec.Step(ctx, fmt.Sprintf(format, args...))
}

// mask hides a secret behind one asterisk per character.
func mask(s string) string {
	return strings.Repeat("*", utf8.RuneCountInString(s))
}

func selectorMeta(sel selector.Selector) map[string]any {
	return map[string]any{
		apperr.MetaKind:        string(sel.Kind()),
		apperr.MetaSelector:    sel.Value(),
		apperr.MetaDisplayName: sel.DisplayName(),
	}
}

// nativeErr wraps a failed browser operation on el.
func nativeErr(op string, el *resolver.Element, err error) error {
	if err == nil {
		return nil
	}

	meta := selectorMeta(el.Selector())
	meta[apperr.MetaReason] = "native_op_failed"
	meta[apperr.MetaStage] = apperr.StageInteraction
	meta[apperr.MetaAction] = op

	return apperr.Wrap(op, apperr.CodeActionFailed, err, meta)
}

// browserErr wraps a failed page level operation.
func browserErr(op, stage string, err error) error {
	if err == nil {
		return nil
	}

	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}

	return apperr.Wrap(op, apperr.CodeBackend, err, map[string]any{
		apperr.MetaReason: "browser_op_failed",
		apperr.MetaStage:  stage,
		apperr.MetaAction: op,
	})
}
