package actions

import (
	"context"

	"github.com/golemhq/golem-sub001/internal/ports"
	"github.com/golemhq/golem-sub001/internal/resolver"
	"github.com/golemhq/golem-sub001/internal/selector"
	"github.com/golemhq/golem-sub001/internal/wait"
)

// probe re-runs a single-shot lookup on every poll so element waits share one
// budget for "exists" and for the state check. A probe built from an already
// resolved element never looks up again.
type probe struct {
	root  ports.Searcher
	sel   selector.Selector
	node  ports.Node
	fixed bool
}

func (a *Actions) probe(ctx context.Context, input any) (*probe, error) {
	if el, ok := input.(*resolver.Element); ok && el != nil {
		return &probe{sel: el.Selector(), node: el.Node, fixed: true}, nil
	}

	sel, err := selector.Normalize(input)
	if err != nil {
		return nil, err
	}

	d, err := a.driver(ctx)
	if err != nil {
		return nil, err
	}

	return &probe{root: d, sel: sel}, nil
}

func (p *probe) lookup(ctx context.Context) error {
	if p.fixed {
		return nil
	}

	p.release(ctx)

	n, err := p.root.FindOne(ctx, p.sel.Kind(), p.sel.Value())
	if err != nil {
		return err
	}

	p.node = n

	return nil
}

// release frees the node found by the previous lookup. Nodes passed in by
// the caller are left alone.
func (p *probe) release(ctx context.Context) {
	if p.fixed || p.node == nil {
		return
	}

	if r, ok := p.node.(ports.Releaser); ok {
		_ = r.Release(ctx)
	}

	p.node = nil
}

// holds builds a condition applying check to the current node. An absent
// node satisfies the condition only when absentOK is set.
func (p *probe) holds(check func(wait.State) wait.Condition, absentOK bool) wait.Condition {
	return func(ctx context.Context) (bool, error) {
		if err := p.lookup(ctx); err != nil {
			return false, err
		}

		if p.node == nil {
			return absentOK, nil
		}

		return check(p.node)(ctx)
	}
}

func (p *probe) found() bool {
	return p.node != nil
}
