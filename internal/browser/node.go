package browser

import (
	"context"
	"fmt"
	"strconv"

	"github.com/golemhq/golem-sub001/internal/ports"
	"github.com/golemhq/golem-sub001/internal/selector"
	"github.com/playwright-community/playwright-go"
)

// Node adapts a playwright element handle to ports.Node.
type Node struct {
	handle playwright.ElementHandle
}

func newNode(h playwright.ElementHandle) *Node {
	return &Node{handle: h}
}

func (n *Node) FindOne(_ context.Context, kind selector.Kind, value string) (ports.Node, error) {
	loc, err := Locator(kind, value)
	if err != nil {
		return nil, err
	}

	h, err := n.handle.QuerySelector(loc)
	if err != nil || h == nil {
		return nil, err
	}

	return newNode(h), nil
}

func (n *Node) FindAll(_ context.Context, kind selector.Kind, value string) ([]ports.Node, error) {
	loc, err := Locator(kind, value)
	if err != nil {
		return nil, err
	}

	handles, err := n.handle.QuerySelectorAll(loc)
	if err != nil {
		return nil, err
	}

	return wrapAll(handles), nil
}

func wrapAll(handles []playwright.ElementHandle) []ports.Node {
	nodes := make([]ports.Node, 0, len(handles))
	for _, h := range handles {
		nodes = append(nodes, newNode(h))
	}

	return nodes
}

// Release disposes the remote element handle.
func (n *Node) Release(context.Context) error {
	return n.handle.Dispose()
}

func (n *Node) IsDisplayed(context.Context) (bool, error) {
	return n.handle.IsVisible()
}

func (n *Node) IsEnabled(context.Context) (bool, error) {
	return n.handle.IsEnabled()
}

func (n *Node) IsSelected(context.Context) (bool, error) {
	return n.handle.IsChecked()
}

func (n *Node) Text(context.Context) (string, error) {
	return n.handle.InnerText()
}

func (n *Node) Attribute(_ context.Context, name string) (string, error) {
	return n.handle.GetAttribute(name)
}

// Value reads the live value of form controls and falls back to the value
// attribute for everything else.
func (n *Node) Value(context.Context) (string, error) {
	v, err := n.handle.InputValue()
	if err == nil {
		return v, nil
	}

	return n.handle.GetAttribute("value")
}

func (n *Node) TagName(context.Context) (string, error) {
	res, err := n.handle.Evaluate(tagNameScript)
	if err != nil {
		return "", err
	}

	tag, _ := res.(string)

	return tag, nil
}

func (n *Node) SelectedOption(context.Context) (string, string, error) {
	res, err := n.handle.Evaluate(selectedOptionScript)
	if err != nil {
		return "", "", err
	}

	opt, ok := res.(map[string]interface{})
	if !ok {
		return "", "", fmt.Errorf("element has no selected option")
	}

	return getString(opt, "text"), getString(opt, "value"), nil
}

func (n *Node) Click(context.Context) error {
	return n.handle.Click()
}

func (n *Node) DoubleClick(context.Context) error {
	return n.handle.Dblclick()
}

func (n *Node) Hover(context.Context) error {
	return n.handle.Hover()
}

func (n *Node) SendKeys(_ context.Context, text string) error {
	return n.handle.Type(text)
}

func (n *Node) Clear(context.Context) error {
	return n.handle.Fill("")
}

func (n *Node) Press(_ context.Context, key string) error {
	return n.handle.Press(key)
}

func (n *Node) SetChecked(_ context.Context, checked bool) error {
	return n.handle.SetChecked(checked)
}

func (n *Node) SelectOption(_ context.Context, by ports.SelectBy, value string) error {
	var values playwright.SelectOptionValues

	switch by {
	case ports.SelectByIndex:
		idx, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid option index %q: %w", value, err)
		}

		values.Indexes = &[]int{idx}
	case ports.SelectByText:
		values.Labels = &[]string{value}
	case ports.SelectByValue:
		values.Values = &[]string{value}
	default:
		return fmt.Errorf("unsupported option lookup %q", by)
	}

	_, err := n.handle.SelectOption(values)

	return err
}

func (n *Node) Screenshot(context.Context) ([]byte, error) {
	return n.handle.Screenshot(playwright.ElementHandleScreenshotOptions{
		Type: playwright.ScreenshotTypePng,
	})
}

var (
	_ ports.Node     = (*Node)(nil)
	_ ports.Releaser = (*Node)(nil)
)
