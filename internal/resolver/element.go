package resolver

import (
	"context"
	"time"

	"github.com/golemhq/golem-sub001/internal/ports"
	"github.com/golemhq/golem-sub001/internal/selector"
)

// Findable is implemented by every lookup root, the browser page as well as
// resolved elements, so nested lookups look the same as top level ones.
type Findable interface {
	Find(ctx context.Context, input any, timeout time.Duration) (*Element, error)
	FindAll(ctx context.Context, input any) ([]*Element, error)
}

// UseDefault as a timeout selects the resolver's implicit wait.
const UseDefault time.Duration = -1

// Element is a live node decorated with the selector that produced it. It
// belongs to the action that resolved it and is not reused across actions.
type Element struct {
	ports.Node

	sel      selector.Selector
	root     ports.Searcher
	resolver *Resolver
}

// Selector returns the zero Selector for a nil element.
func (e *Element) Selector() selector.Selector {
	if e == nil {
		return selector.Selector{}
	}

	return e.sel
}

func (e *Element) DisplayName() string {
	return e.sel.DisplayName()
}

// Parent returns the searcher the element was resolved under.
func (e *Element) Parent() ports.Searcher {
	return e.root
}

// AsRoot exposes the element as a lookup root for nested searches.
func (e *Element) AsRoot() ports.Searcher {
	return elementRoot{el: e}
}

// Find resolves input using this element as the lookup root.
func (e *Element) Find(ctx context.Context, input any, timeout time.Duration) (*Element, error) {
	return e.resolver.Find(ctx, e.AsRoot(), input, timeout)
}

func (e *Element) FindAll(ctx context.Context, input any) ([]*Element, error) {
	return e.resolver.FindAll(ctx, e.AsRoot(), input)
}

type elementRoot struct {
	el *Element
}

func (r elementRoot) FindOne(ctx context.Context, kind selector.Kind, value string) (ports.Node, error) {
	return r.el.Node.FindOne(ctx, kind, value)
}

func (r elementRoot) FindAll(ctx context.Context, kind selector.Kind, value string) ([]ports.Node, error) {
	return r.el.Node.FindAll(ctx, kind, value)
}

func (r elementRoot) Selector() selector.Selector {
	return r.el.sel
}

// Page is the browser level lookup root.
type Page struct {
	ports.Driver

	resolver *Resolver
}

func (p *Page) Find(ctx context.Context, input any, timeout time.Duration) (*Element, error) {
	return p.resolver.Find(ctx, p.Driver, input, timeout)
}

func (p *Page) FindAll(ctx context.Context, input any) ([]*Element, error) {
	return p.resolver.FindAll(ctx, p.Driver, input)
}

var (
	_ Findable          = (*Element)(nil)
	_ Findable          = (*Page)(nil)
	_ selector.Resolved = (*Element)(nil)
)
