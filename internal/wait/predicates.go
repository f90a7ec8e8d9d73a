package wait

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/golemhq/golem-sub001/internal/ports"
	"github.com/golemhq/golem-sub001/internal/selector"
)

// State is the subset of a live element the element predicates read.
type State interface {
	IsDisplayed(ctx context.Context) (bool, error)
	IsEnabled(ctx context.Context) (bool, error)
	IsSelected(ctx context.Context) (bool, error)
	Text(ctx context.Context) (string, error)
	Attribute(ctx context.Context, name string) (string, error)
	Value(ctx context.Context) (string, error)
	SelectedOption(ctx context.Context) (text, value string, err error)
}

type sourceReader interface {
	PageSource(ctx context.Context) (string, error)
}

type alertReader interface {
	AlertPresent(ctx context.Context) bool
}

type titleReader interface {
	Title(ctx context.Context) (string, error)
}

type urlReader interface {
	URL() string
}

func Not(c Condition) Condition {
	return func(ctx context.Context) (bool, error) {
		ok, err := c(ctx)
		return !ok, err
	}
}

func Always(ctx context.Context) (bool, error) { return true, nil }

func Never(ctx context.Context) (bool, error) { return false, nil }

func Visible(el State) Condition { return el.IsDisplayed }

func NotVisible(el State) Condition { return Not(el.IsDisplayed) }

func Enabled(el State) Condition { return el.IsEnabled }

func NotEnabled(el State) Condition { return Not(el.IsEnabled) }

func Selected(el State) Condition { return el.IsSelected }

func NotSelected(el State) Condition { return Not(el.IsSelected) }

// Present holds once a single-shot lookup under root finds a node. A node may
// be present and still hidden.
func Present(root ports.Searcher, sel selector.Selector) Condition {
	return func(ctx context.Context) (bool, error) {
		node, err := root.FindOne(ctx, sel.Kind(), sel.Value())
		if err != nil {
			return false, err
		}

		return node != nil, nil
	}
}

func NotPresent(root ports.Searcher, sel selector.Selector) Condition {
	return Not(Present(root, sel))
}

// TextInElement holds when the element text contains text.
func TextInElement(el State, text string) Condition {
	return func(ctx context.Context) (bool, error) {
		got, err := el.Text(ctx)
		if err != nil {
			return false, err
		}

		return strings.Contains(got, text), nil
	}
}

// TextIs holds when the trimmed element text equals text.
func TextIs(el State, text string) Condition {
	return func(ctx context.Context) (bool, error) {
		got, err := el.Text(ctx)
		if err != nil {
			return false, err
		}

		return strings.TrimSpace(got) == text, nil
	}
}

func ValueIs(el State, value string) Condition {
	return func(ctx context.Context) (bool, error) {
		got, err := el.Value(ctx)
		if err != nil {
			return false, err
		}

		return got == value, nil
	}
}

func AttributeIs(el State, name, value string) Condition {
	return func(ctx context.Context) (bool, error) {
		got, err := el.Attribute(ctx, name)
		if err != nil {
			return false, err
		}

		return got == value, nil
	}
}

func OptionSelectedByText(el State, text string) Condition {
	return func(ctx context.Context) (bool, error) {
		got, _, err := el.SelectedOption(ctx)
		if err != nil {
			return false, err
		}

		return strings.TrimSpace(got) == text, nil
	}
}

func OptionSelectedByValue(el State, value string) Condition {
	return func(ctx context.Context) (bool, error) {
		_, got, err := el.SelectedOption(ctx)
		if err != nil {
			return false, err
		}

		return got == value, nil
	}
}

// TextInPage holds when the rendered document text contains text. Both
// sides are whitespace-collapsed so markup line breaks do not matter.
func TextInPage(page sourceReader, text string) Condition {
	return func(ctx context.Context) (bool, error) {
		src, err := page.PageSource(ctx)
		if err != nil {
			return false, err
		}

		return strings.Contains(DocumentText(src), collapse(text)), nil
	}
}

func TextNotInPage(page sourceReader, text string) Condition {
	return Not(TextInPage(page, text))
}

func AlertPresent(page alertReader) Condition {
	return func(ctx context.Context) (bool, error) {
		return page.AlertPresent(ctx), nil
	}
}

func AlertNotPresent(page alertReader) Condition {
	return Not(AlertPresent(page))
}

func TitleIs(page titleReader, title string) Condition {
	return func(ctx context.Context) (bool, error) {
		got, err := page.Title(ctx)
		if err != nil {
			return false, err
		}

		return got == title, nil
	}
}

func TitleContains(page titleReader, partial string) Condition {
	return func(ctx context.Context) (bool, error) {
		got, err := page.Title(ctx)
		if err != nil {
			return false, err
		}

		return strings.Contains(got, partial), nil
	}
}

func URLIs(page urlReader, url string) Condition {
	return func(context.Context) (bool, error) {
		return page.URL() == url, nil
	}
}

func URLContains(page urlReader, partial string) Condition {
	return func(context.Context) (bool, error) {
		return strings.Contains(page.URL(), partial), nil
	}
}

// DocumentText extracts the whitespace-collapsed text of an HTML document,
// ignoring script and style contents. Unparseable input is returned as is.
func DocumentText(src string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(src))
	if err != nil {
		return collapse(src)
	}

	doc.Find("script, style, noscript").Remove()

	return collapse(doc.Text())
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
