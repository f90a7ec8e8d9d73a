// Package portstest provides an in-memory automation backend for tests.
package portstest

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/golemhq/golem-sub001/internal/entity"
	"github.com/golemhq/golem-sub001/internal/ports"
	"github.com/golemhq/golem-sub001/internal/selector"
)

var ErrNoAlert = errors.New("no alert open")

type entry struct {
	kind     selector.Kind
	value    string
	node     *Node
	appearAt time.Time
}

// DOM is a flat list of (kind, value) -> node registrations. Nodes added
// with AddAfter only become visible to lookups once their delay elapsed.
type DOM struct {
	mu      sync.Mutex
	entries []entry
	lookups map[string]int
	err     error
}

func NewDOM() *DOM {
	return &DOM{lookups: make(map[string]int)}
}

func key(kind selector.Kind, value string) string {
	return string(kind) + "=" + value
}

func (d *DOM) Add(kind selector.Kind, value string, nodes ...*Node) {
	d.AddAfter(0, kind, value, nodes...)
}

func (d *DOM) AddAfter(delay time.Duration, kind selector.Kind, value string, nodes ...*Node) {
	d.mu.Lock()
	defer d.mu.Unlock()

	at := time.Now().Add(delay)
	for _, n := range nodes {
		d.entries = append(d.entries, entry{kind: kind, value: value, node: n, appearAt: at})
	}
}

func (d *DOM) Remove(kind selector.Kind, value string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	kept := d.entries[:0]
	for _, e := range d.entries {
		if e.kind != kind || e.value != value {
			kept = append(kept, e)
		}
	}

	d.entries = kept
}

// FailWith makes every subsequent lookup return err.
func (d *DOM) FailWith(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.err = err
}

// Lookups reports how many single-shot lookups hit (kind, value).
func (d *DOM) Lookups(kind selector.Kind, value string) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.lookups[key(kind, value)]
}

func (d *DOM) matches(kind selector.Kind, value string) ([]ports.Node, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.lookups[key(kind, value)]++

	if d.err != nil {
		return nil, d.err
	}

	now := time.Now()

	var out []ports.Node
	for _, e := range d.entries {
		if e.kind == kind && e.value == value && !now.Before(e.appearAt) {
			out = append(out, e.node)
		}
	}

	return out, nil
}

func (d *DOM) FindOne(_ context.Context, kind selector.Kind, value string) (ports.Node, error) {
	nodes, err := d.matches(kind, value)
	if err != nil || len(nodes) == 0 {
		return nil, err
	}

	return nodes[0], nil
}

func (d *DOM) FindAll(_ context.Context, kind selector.Kind, value string) ([]ports.Node, error) {
	nodes, err := d.matches(kind, value)
	if err != nil {
		return nil, err
	}

	if nodes == nil {
		nodes = []ports.Node{}
	}

	return nodes, nil
}

type Option struct {
	Text  string
	Value string
}

// Node is a fake element. Zero value is a visible, enabled, empty <div>.
type Node struct {
	mu sync.Mutex

	ID        string
	Tag       string
	Content   string
	Attrs     map[string]string
	Val       string
	Hidden    bool
	Disabled  bool
	Checked   bool
	Options   []Option
	Selected  int
	ShownAt   time.Time
	ClickErr  error
	children  *DOM
	clicks    int
	dblClicks int
	hovered   bool
	keys      []string
	releases  int
}

func (n *Node) Children() *DOM {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.children == nil {
		n.children = NewDOM()
	}

	return n.children
}

func (n *Node) FindOne(ctx context.Context, kind selector.Kind, value string) (ports.Node, error) {
	return n.Children().FindOne(ctx, kind, value)
}

func (n *Node) FindAll(ctx context.Context, kind selector.Kind, value string) ([]ports.Node, error) {
	return n.Children().FindAll(ctx, kind, value)
}

func (n *Node) SetHidden(hidden bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.Hidden = hidden
}

func (n *Node) SetDisabled(disabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.Disabled = disabled
}

func (n *Node) IsDisplayed(context.Context) (bool, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	return !n.Hidden && !time.Now().Before(n.ShownAt), nil
}

func (n *Node) IsEnabled(context.Context) (bool, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	return !n.Disabled, nil
}

func (n *Node) IsSelected(context.Context) (bool, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	return n.Checked, nil
}

func (n *Node) Text(context.Context) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	return n.Content, nil
}

func (n *Node) Attribute(_ context.Context, name string) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	return n.Attrs[name], nil
}

func (n *Node) Value(context.Context) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	return n.Val, nil
}

func (n *Node) TagName(context.Context) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.Tag == "" {
		return "div", nil
	}

	return n.Tag, nil
}

func (n *Node) SelectedOption(context.Context) (string, string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.Selected < 0 || n.Selected >= len(n.Options) {
		return "", "", fmt.Errorf("no option selected")
	}

	o := n.Options[n.Selected]

	return o.Text, o.Value, nil
}

func (n *Node) Click(context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.ClickErr != nil {
		return n.ClickErr
	}

	n.clicks++

	return nil
}

func (n *Node) DoubleClick(context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.dblClicks++

	return nil
}

func (n *Node) Hover(context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.hovered = true

	return nil
}

func (n *Node) SendKeys(_ context.Context, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.keys = append(n.keys, text)
	n.Val += text

	return nil
}

func (n *Node) Clear(context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.Val = ""

	return nil
}

func (n *Node) Press(_ context.Context, key string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.keys = append(n.keys, "<"+key+">")

	return nil
}

func (n *Node) SetChecked(_ context.Context, checked bool) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.Checked = checked

	return nil
}

func (n *Node) SelectOption(_ context.Context, by ports.SelectBy, value string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	for i, o := range n.Options {
		switch by {
		case ports.SelectByIndex:
			if strconv.Itoa(i) == value {
				n.Selected = i
				return nil
			}
		case ports.SelectByText:
			if o.Text == value {
				n.Selected = i
				return nil
			}
		case ports.SelectByValue:
			if o.Value == value {
				n.Selected = i
				return nil
			}
		}
	}

	return fmt.Errorf("option %s=%q not found", by, value)
}

func (n *Node) Screenshot(context.Context) ([]byte, error) {
	return []byte("element-png"), nil
}

func (n *Node) Release(context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.releases++

	return nil
}

// Releases counts how often a lookup result for this node was released.
func (n *Node) Releases() int {
	n.mu.Lock()
	defer n.mu.Unlock()

	return n.releases
}

func (n *Node) Clicks() int {
	n.mu.Lock()
	defer n.mu.Unlock()

	return n.clicks
}

func (n *Node) DoubleClicks() int {
	n.mu.Lock()
	defer n.mu.Unlock()

	return n.dblClicks
}

func (n *Node) Hovered() bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	return n.hovered
}

func (n *Node) Keys() []string {
	n.mu.Lock()
	defer n.mu.Unlock()

	return append([]string(nil), n.keys...)
}

// Driver is a fake browser session over a DOM.
type Driver struct {
	*DOM

	mu          sync.Mutex
	Slot        string
	url         string
	history     []string
	TitleText   string
	Source      string
	Size        entity.WindowSize
	cookies     []entity.Cookie
	alert       *string
	lastPrompt  string
	Scripts     []string
	screenshots int
	closed      bool
}

func NewDriver() *Driver {
	return &Driver{DOM: NewDOM(), url: "about:blank"}
}

func (d *Driver) Navigate(_ context.Context, url string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.history = append(d.history, d.url)
	d.url = url

	return nil
}

func (d *Driver) Refresh(context.Context) error { return nil }

func (d *Driver) Back(context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.history) > 0 {
		d.url = d.history[len(d.history)-1]
		d.history = d.history[:len(d.history)-1]
	}

	return nil
}

func (d *Driver) Forward(context.Context) error { return nil }

func (d *Driver) URL() string {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.url
}

func (d *Driver) Title(context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.TitleText, nil
}

func (d *Driver) SetSource(html string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.Source = html
}

func (d *Driver) PageSource(context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.Source, nil
}

func (d *Driver) SetWindowSize(_ context.Context, size entity.WindowSize) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.Size = size

	return nil
}

func (d *Driver) Cookies(context.Context) ([]entity.Cookie, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	return append([]entity.Cookie(nil), d.cookies...), nil
}

func (d *Driver) AddCookie(_ context.Context, c entity.Cookie) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.cookies = append(d.cookies, c)

	return nil
}

func (d *Driver) DeleteCookie(_ context.Context, name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	kept := d.cookies[:0]
	for _, c := range d.cookies {
		if c.Name != name {
			kept = append(kept, c)
		}
	}

	d.cookies = kept

	return nil
}

func (d *Driver) DeleteAllCookies(context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.cookies = nil

	return nil
}

// OpenAlert simulates a page dialog with the given message.
func (d *Driver) OpenAlert(message string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.alert = &message
}

func (d *Driver) AlertPresent(context.Context) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.alert != nil
}

func (d *Driver) AlertText(context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.alert == nil {
		return "", ErrNoAlert
	}

	return *d.alert, nil
}

func (d *Driver) AcceptAlert(_ context.Context, promptText string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.alert == nil {
		return ErrNoAlert
	}

	d.alert = nil
	d.lastPrompt = promptText

	return nil
}

func (d *Driver) DismissAlert(context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.alert == nil {
		return ErrNoAlert
	}

	d.alert = nil

	return nil
}

func (d *Driver) LastPrompt() string {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.lastPrompt
}

func (d *Driver) ExecuteScript(_ context.Context, script string, _ ...any) (any, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.Scripts = append(d.Scripts, script)

	return nil, nil
}

func (d *Driver) Screenshot(context.Context) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.screenshots++

	return []byte("page-png"), nil
}

func (d *Driver) Screenshots() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.screenshots
}

func (d *Driver) Close(context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.closed = true

	return nil
}

func (d *Driver) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.closed
}

// Factory hands out fake drivers and remembers them per slot.
type Factory struct {
	mu      sync.Mutex
	Drivers map[string][]*Driver
	Prepare func(slot string, d *Driver)
	Err     error
}

func NewFactory() *Factory {
	return &Factory{Drivers: make(map[string][]*Driver)}
}

func (f *Factory) Open(_ context.Context, slot string) (ports.Driver, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.Err != nil {
		return nil, f.Err
	}

	d := NewDriver()
	d.Slot = slot

	if f.Prepare != nil {
		f.Prepare(slot, d)
	}

	f.Drivers[slot] = append(f.Drivers[slot], d)

	return d, nil
}

// Last returns the most recently opened driver for slot.
func (f *Factory) Last(slot string) *Driver {
	f.mu.Lock()
	defer f.mu.Unlock()

	ds := f.Drivers[slot]
	if len(ds) == 0 {
		return nil
	}

	return ds[len(ds)-1]
}

var (
	_ ports.Driver         = (*Driver)(nil)
	_ ports.Node           = (*Node)(nil)
	_ ports.BrowserFactory = (*Factory)(nil)
)
