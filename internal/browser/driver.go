package browser

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/golemhq/golem-sub001/internal/entity"
	"github.com/golemhq/golem-sub001/internal/ports"
	"github.com/golemhq/golem-sub001/internal/selector"
	"github.com/golemhq/golem-sub001/pkg/apperr"
	"github.com/golemhq/golem-sub001/pkg/logg"
	"github.com/golemhq/golem-sub001/pkg/tracing"
	"github.com/playwright-community/playwright-go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var ErrNoAlert = errors.New("no alert is open")

// Driver is one browser session: an isolated playwright context with a
// single page. Dialogs opened by the page stay pending until an alert action
// handles them.
type Driver struct {
	slot       string
	bctx       playwright.BrowserContext
	page       playwright.Page
	navTimeout float64
	logger     *zap.Logger
	tracer     trace.Tracer

	mu     sync.Mutex
	dialog playwright.Dialog
}

func newDriver(slot string, bctx playwright.BrowserContext, page playwright.Page, navTimeout float64, logger *zap.Logger, tracer trace.Tracer) *Driver {
	d := &Driver{
		slot:       slot,
		bctx:       bctx,
		page:       page,
		navTimeout: navTimeout,
		logger:     logger.With(zap.String(logg.Slot, slot)),
		tracer:     tracer,
	}

	page.OnDialog(func(dialog playwright.Dialog) {
		d.mu.Lock()
		defer d.mu.Unlock()

		d.dialog = dialog
		d.logger.Debug("Dialog opened", zap.String("type", dialog.Type()))
	})

	return d
}

func (d *Driver) FindOne(_ context.Context, kind selector.Kind, value string) (ports.Node, error) {
	loc, err := Locator(kind, value)
	if err != nil {
		return nil, err
	}

	h, err := d.page.QuerySelector(loc)
	if err != nil || h == nil {
		return nil, err
	}

	return newNode(h), nil
}

func (d *Driver) FindAll(_ context.Context, kind selector.Kind, value string) ([]ports.Node, error) {
	loc, err := Locator(kind, value)
	if err != nil {
		return nil, err
	}

	handles, err := d.page.QuerySelectorAll(loc)
	if err != nil {
		return nil, err
	}

	return wrapAll(handles), nil
}

func (d *Driver) Navigate(ctx context.Context, url string) (err error) {
	const op = "Navigate"
	logger := d.logger.With(zap.String(logg.Operation, op), zap.String(logg.URL, url))

	_, step := tracing.StartSpan(ctx, d.tracer, logger, op, attribute.String("url", url))
	defer func() {
		step.End(err)
	}()

	_, err = d.page.Goto(url, playwright.PageGotoOptions{
		Timeout:   playwright.Float(d.navTimeout),
		WaitUntil: playwright.WaitUntilStateLoad,
	})
	if err != nil {
		return apperr.Wrap(op, apperr.CodeUnavailable, err, map[string]any{
			apperr.MetaReason: "goto_failed",
			apperr.MetaStage:  apperr.StageNavigation,
			apperr.MetaURL:    url,
		})
	}

	step.AddEvent("navigation completed")

	return nil
}

func (d *Driver) Refresh(context.Context) error {
	_, err := d.page.Reload()

	return err
}

func (d *Driver) Back(context.Context) error {
	_, err := d.page.GoBack()

	return err
}

func (d *Driver) Forward(context.Context) error {
	_, err := d.page.GoForward()

	return err
}

func (d *Driver) URL() string {
	return d.page.URL()
}

func (d *Driver) Title(context.Context) (string, error) {
	return d.page.Title()
}

func (d *Driver) PageSource(context.Context) (string, error) {
	return d.page.Content()
}

func (d *Driver) SetWindowSize(_ context.Context, size entity.WindowSize) error {
	return d.page.SetViewportSize(size.Width, size.Height)
}

func (d *Driver) Cookies(context.Context) ([]entity.Cookie, error) {
	raw, err := d.bctx.Cookies()
	if err != nil {
		return nil, err
	}

	out := make([]entity.Cookie, 0, len(raw))
	for _, c := range raw {
		out = append(out, fromPlaywrightCookie(c))
	}

	return out, nil
}

func (d *Driver) AddCookie(_ context.Context, cookie entity.Cookie) error {
	return d.bctx.AddCookies([]playwright.OptionalCookie{d.toPlaywrightCookie(cookie)})
}

// DeleteCookie removes a single cookie by clearing the jar and restoring the
// others.
func (d *Driver) DeleteCookie(ctx context.Context, name string) error {
	all, err := d.Cookies(ctx)
	if err != nil {
		return err
	}

	if err := d.bctx.ClearCookies(); err != nil {
		return err
	}

	keep := make([]playwright.OptionalCookie, 0, len(all))
	for _, c := range all {
		if c.Name != name {
			keep = append(keep, d.toPlaywrightCookie(c))
		}
	}

	if len(keep) == 0 {
		return nil
	}

	return d.bctx.AddCookies(keep)
}

func (d *Driver) DeleteAllCookies(context.Context) error {
	return d.bctx.ClearCookies()
}

func (d *Driver) AlertPresent(context.Context) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.dialog != nil
}

func (d *Driver) AlertText(context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.dialog == nil {
		return "", ErrNoAlert
	}

	return d.dialog.Message(), nil
}

func (d *Driver) takeDialog() (playwright.Dialog, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	dialog := d.dialog
	d.dialog = nil

	if dialog == nil {
		return nil, ErrNoAlert
	}

	return dialog, nil
}

func (d *Driver) AcceptAlert(_ context.Context, promptText string) error {
	dialog, err := d.takeDialog()
	if err != nil {
		return err
	}

	if promptText != "" {
		return dialog.Accept(promptText)
	}

	return dialog.Accept()
}

func (d *Driver) DismissAlert(context.Context) error {
	dialog, err := d.takeDialog()
	if err != nil {
		return err
	}

	return dialog.Dismiss()
}

func (d *Driver) ExecuteScript(_ context.Context, script string, args ...any) (any, error) {
	if args == nil {
		args = []any{}
	}

	return d.page.Evaluate(userScript(script), args)
}

func (d *Driver) Screenshot(ctx context.Context) (img []byte, err error) {
	const op = "Screenshot"
	logger := d.logger.With(zap.String(logg.Operation, op))

	_, step := tracing.StartSpan(ctx, d.tracer, logger, op)
	defer func() {
		step.End(err)
	}()

	return d.page.Screenshot(playwright.PageScreenshotOptions{
		FullPage: playwright.Bool(false),
		Type:     playwright.ScreenshotTypePng,
	})
}

func (d *Driver) Close(ctx context.Context) (err error) {
	const op = "Close"
	logger := d.logger.With(zap.String(logg.Operation, op))

	_, step := tracing.StartSpan(ctx, d.tracer, logger, op)
	defer func() {
		step.End(err)
	}()

	if err := d.bctx.Close(); err != nil {
		return apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "context_close_failed",
			apperr.MetaStage:  apperr.StageBrowser,
			apperr.MetaSlot:   d.slot,
		})
	}

	logger.Debug("Browser session closed")

	return nil
}

func fromPlaywrightCookie(c playwright.Cookie) entity.Cookie {
	out := entity.Cookie{
		Name:     c.Name,
		Value:    c.Value,
		Domain:   c.Domain,
		Path:     c.Path,
		HTTPOnly: c.HttpOnly,
		Secure:   c.Secure,
		SameSite: sameSiteOf(c.SameSite),
	}

	// Session cookies report -1.
	if c.Expires > 0 {
		sec := int64(c.Expires)
		out.Expires = time.Unix(sec, int64((c.Expires-float64(sec))*float64(time.Second)))
	}

	return out
}

func sameSiteOf(v any) entity.SameSite {
	switch s := v.(type) {
	case *playwright.SameSiteAttribute:
		if s != nil {
			return entity.SameSite(*s)
		}
	case playwright.SameSiteAttribute:
		return entity.SameSite(s)
	}

	return ""
}

func sameSiteAttribute(s entity.SameSite) *playwright.SameSiteAttribute {
	switch s {
	case entity.SameSiteStrict:
		return playwright.SameSiteAttributeStrict
	case entity.SameSiteLax:
		return playwright.SameSiteAttributeLax
	case entity.SameSiteNone:
		return playwright.SameSiteAttributeNone
	}

	return nil
}

// toPlaywrightCookie scopes cookies without a domain to the current page.
func (d *Driver) toPlaywrightCookie(c entity.Cookie) playwright.OptionalCookie {
	out := playwright.OptionalCookie{
		Name:     c.Name,
		Value:    c.Value,
		HttpOnly: playwright.Bool(c.HTTPOnly),
		Secure:   playwright.Bool(c.Secure),
		SameSite: sameSiteAttribute(c.SameSite),
	}

	if c.Domain != "" {
		path := c.Path
		if path == "" {
			path = "/"
		}

		out.Domain = playwright.String(c.Domain)
		out.Path = playwright.String(path)
	} else {
		out.URL = playwright.String(d.page.URL())
	}

	if !c.Expires.IsZero() {
		out.Expires = playwright.Float(float64(c.Expires.UnixNano()) / float64(time.Second))
	}

	return out
}

var _ ports.Driver = (*Driver)(nil)
