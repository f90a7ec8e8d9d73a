package ports

import (
	"context"

	"github.com/golemhq/golem-sub001/internal/entity"
	"github.com/golemhq/golem-sub001/internal/selector"
)

// Searcher performs single-shot lookups. FindOne returns (nil, nil) when
// nothing matches; FindAll returns matches in document order.
type Searcher interface {
	FindOne(ctx context.Context, kind selector.Kind, value string) (Node, error)
	FindAll(ctx context.Context, kind selector.Kind, value string) ([]Node, error)
}

type SelectBy string

const (
	SelectByIndex SelectBy = "index"
	SelectByText  SelectBy = "text"
	SelectByValue SelectBy = "value"
)

// Node is a live DOM element owned by the automation backend.
type Node interface {
	Searcher

	IsDisplayed(ctx context.Context) (bool, error)
	IsEnabled(ctx context.Context) (bool, error)
	IsSelected(ctx context.Context) (bool, error)

	Text(ctx context.Context) (string, error)
	Attribute(ctx context.Context, name string) (string, error)
	Value(ctx context.Context) (string, error)
	TagName(ctx context.Context) (string, error)
	SelectedOption(ctx context.Context) (text, value string, err error)

	Click(ctx context.Context) error
	DoubleClick(ctx context.Context) error
	Hover(ctx context.Context) error
	SendKeys(ctx context.Context, text string) error
	Clear(ctx context.Context) error
	Press(ctx context.Context, key string) error
	SetChecked(ctx context.Context, checked bool) error
	SelectOption(ctx context.Context, by SelectBy, value string) error
	Screenshot(ctx context.Context) ([]byte, error)
}

// Releaser is implemented by nodes backed by a remote handle that has to be
// freed once the node is dropped.
type Releaser interface {
	Release(ctx context.Context) error
}

// Driver is one browser session: a page plus its cookie jar and dialogs.
type Driver interface {
	Searcher

	Navigate(ctx context.Context, url string) error
	Refresh(ctx context.Context) error
	Back(ctx context.Context) error
	Forward(ctx context.Context) error
	URL() string
	Title(ctx context.Context) (string, error)
	PageSource(ctx context.Context) (string, error)
	SetWindowSize(ctx context.Context, size entity.WindowSize) error

	Cookies(ctx context.Context) ([]entity.Cookie, error)
	AddCookie(ctx context.Context, cookie entity.Cookie) error
	DeleteCookie(ctx context.Context, name string) error
	DeleteAllCookies(ctx context.Context) error

	AlertPresent(ctx context.Context) bool
	AlertText(ctx context.Context) (string, error)
	AcceptAlert(ctx context.Context, promptText string) error
	DismissAlert(ctx context.Context) error

	ExecuteScript(ctx context.Context, script string, args ...any) (any, error)
	Screenshot(ctx context.Context) ([]byte, error)
	Close(ctx context.Context) error
}

// BrowserFactory opens a new browser session for an execution slot.
type BrowserFactory interface {
	Open(ctx context.Context, slot string) (Driver, error)
}
