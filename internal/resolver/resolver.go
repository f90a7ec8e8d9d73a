// Package resolver turns selectors into live elements by polling the
// automation backend.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golemhq/golem-sub001/internal/metrics"
	"github.com/golemhq/golem-sub001/internal/ports"
	"github.com/golemhq/golem-sub001/internal/selector"
	"github.com/golemhq/golem-sub001/internal/wait"
	"github.com/golemhq/golem-sub001/pkg/apperr"
	"github.com/golemhq/golem-sub001/pkg/logg"
	"github.com/golemhq/golem-sub001/pkg/tracing"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	resolverName   = "Resolver"
	resolverTracer = "kernel.resolver"
)

type Options struct {
	// ImplicitWait is the budget used when a caller passes UseDefault.
	ImplicitWait time.Duration
	// WaitDisplayed spends the remaining budget waiting for a found element
	// to become displayed.
	WaitDisplayed bool
}

type Resolver struct {
	waiter *wait.Waiter
	opts   Options
	logger *zap.Logger
	tracer trace.Tracer
}

func New(waiter *wait.Waiter, opts Options, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Resolver{
		waiter: waiter,
		opts:   opts,
		logger: logger.With(zap.String(logg.Layer, resolverName)),
		tracer: otel.Tracer(resolverTracer),
	}
}

func (r *Resolver) ImplicitWait() time.Duration {
	return r.opts.ImplicitWait
}

// Page wraps a driver as a Findable lookup root.
func (r *Resolver) Page(d ports.Driver) *Page {
	return &Page{Driver: d, resolver: r}
}

// Find normalizes input and resolves it under root. An already resolved
// *Element is returned untouched.
func (r *Resolver) Find(ctx context.Context, root ports.Searcher, input any, timeout time.Duration) (*Element, error) {
	if el, ok := input.(*Element); ok && el != nil {
		return el, nil
	}

	sel, err := selector.Normalize(input)
	if err != nil {
		return nil, err
	}

	return r.ResolveOne(ctx, root, sel, timeout)
}

// FindAll normalizes input and returns every current match under root.
func (r *Resolver) FindAll(ctx context.Context, root ports.Searcher, input any) ([]*Element, error) {
	if el, ok := input.(*Element); ok && el != nil {
		return []*Element{el}, nil
	}

	sel, err := selector.Normalize(input)
	if err != nil {
		return nil, err
	}

	return r.ResolveAll(ctx, root, sel)
}

// ResolveOne polls root until sel matches or the timeout budget is spent.
// Once found, whatever budget is left is spent waiting for the element to be
// displayed; an element that never shows up is still returned.
func (r *Resolver) ResolveOne(ctx context.Context, root ports.Searcher, sel selector.Selector, timeout time.Duration) (el *Element, err error) {
	const op = "ResolveOne"

	if timeout < 0 {
		timeout = r.opts.ImplicitWait
	}

	logger := r.logger.With(
		zap.String(logg.Operation, op),
		zap.String(logg.Kind, string(sel.Kind())),
		zap.String(logg.Selector, sel.Value()))

	ctx, step := tracing.StartSpan(ctx, r.tracer, logger, op,
		append(tracing.SelectorAttrs(string(sel.Kind()), sel.Value(), sel.DisplayName()),
			attribute.String("timeout", timeout.String()))...)
	defer func() {
		step.End(err)
	}()

	clock := r.waiter.Clock()
	start := clock.Now()

	var node ports.Node

	res, err := r.waiter.Run(ctx, wait.Spec{
		Timeout: timeout,
		Condition: func(ctx context.Context) (bool, error) {
			n, lookupErr := root.FindOne(ctx, sel.Kind(), sel.Value())
			if lookupErr != nil {
				metrics.RecordLookup(string(sel.Kind()), metrics.LookupError)

				return false, backendError(op, sel, root, lookupErr)
			}

			if n == nil {
				metrics.RecordLookup(string(sel.Kind()), metrics.LookupMissing)

				return false, nil
			}

			metrics.RecordLookup(string(sel.Kind()), metrics.LookupFound)
			node = n

			return true, nil
		},
	})
	if err != nil {
		return nil, err
	}

	if !res.Met {
		return nil, elementNotFound(op, sel, root, timeout, res.Attempts)
	}

	step.AddEvent("element found", attribute.Int("attempts", res.Attempts))

	if r.opts.WaitDisplayed {
		if remaining := timeout - clock.Since(start); remaining > 0 {
			visible, visErr := r.waiter.Until(ctx, remaining, node.IsDisplayed)

			switch {
			case visErr != nil && ctx.Err() != nil:
				return nil, visErr
			case visErr != nil:
				logger.Debug("Visibility check failed, continuing with element", zap.Error(visErr))
			case !visible:
				logger.Debug("Element found but not displayed, continuing")
			}
		}
	}

	return &Element{Node: node, sel: sel, root: root, resolver: r}, nil
}

// ResolveAll performs a single lookup. No match is an empty, non-nil slice.
func (r *Resolver) ResolveAll(ctx context.Context, root ports.Searcher, sel selector.Selector) (els []*Element, err error) {
	const op = "ResolveAll"

	logger := r.logger.With(
		zap.String(logg.Operation, op),
		zap.String(logg.Kind, string(sel.Kind())),
		zap.String(logg.Selector, sel.Value()))

	ctx, step := tracing.StartSpan(ctx, r.tracer, logger, op,
		tracing.SelectorAttrs(string(sel.Kind()), sel.Value(), sel.DisplayName())...)
	defer func() {
		step.End(err)
	}()

	nodes, err := root.FindAll(ctx, sel.Kind(), sel.Value())
	if err != nil {
		metrics.RecordLookup(string(sel.Kind()), metrics.LookupError)

		return nil, backendError(op, sel, root, err)
	}

	els = make([]*Element, 0, len(nodes))
	for _, n := range nodes {
		els = append(els, &Element{Node: n, sel: sel, root: root, resolver: r})
	}

	result := metrics.LookupFound
	if len(els) == 0 {
		result = metrics.LookupMissing
	}

	metrics.RecordLookup(string(sel.Kind()), result)
	step.SetAttributes(attribute.Int("matches", len(els)))

	return els, nil
}

func describeRoot(root ports.Searcher) string {
	switch v := root.(type) {
	case selector.Resolved:
		return v.Selector().String()
	case ports.Driver:
		return "browser"
	default:
		return fmt.Sprintf("%T", root)
	}
}

func selectorMeta(sel selector.Selector, root ports.Searcher) map[string]any {
	return map[string]any{
		apperr.MetaKind:        string(sel.Kind()),
		apperr.MetaSelector:    sel.Value(),
		apperr.MetaDisplayName: sel.DisplayName(),
		apperr.MetaRoot:        describeRoot(root),
		apperr.MetaStage:       apperr.StageResolution,
	}
}

func elementNotFound(op string, sel selector.Selector, root ports.Searcher, timeout time.Duration, attempts int) error {
	meta := selectorMeta(sel, root)
	meta[apperr.MetaReason] = "element_not_found"
	meta[apperr.MetaTimeout] = timeout.String()

	return apperr.Wrap(op, apperr.CodeElementNotFound,
		fmt.Errorf("element %s not found in %s after %s (%d attempts)", sel, describeRoot(root), timeout, attempts),
		meta)
}

func backendError(op string, sel selector.Selector, root ports.Searcher, err error) error {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}

	meta := selectorMeta(sel, root)
	meta[apperr.MetaReason] = "lookup_failed"

	return apperr.Wrap(op, apperr.CodeBackend, err, meta)
}
