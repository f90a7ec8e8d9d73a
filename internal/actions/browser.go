package actions

import (
	"context"
	"fmt"

	"github.com/golemhq/golem-sub001/internal/entity"
	"github.com/golemhq/golem-sub001/internal/wait"
	"github.com/golemhq/golem-sub001/pkg/apperr"
)

func (a *Actions) Navigate(ctx context.Context, url string) error {
	const op = "Navigate"

	return a.do(ctx, op, func(ctx context.Context) error {
		d, err := a.driver(ctx)
		if err != nil {
			return err
		}

		if err := d.Navigate(ctx, url); err != nil {
			return apperr.Wrap(op, apperr.CodeBackend, err, map[string]any{
				apperr.MetaReason: "navigation_failed",
				apperr.MetaStage:  apperr.StageNavigation,
				apperr.MetaURL:    url,
			})
		}

		a.step(ctx, "Navigate to: '%s'", url)

		return nil
	})
}

func (a *Actions) Refresh(ctx context.Context) error {
	const op = "Refresh"

	return a.do(ctx, op, func(ctx context.Context) error {
		d, err := a.driver(ctx)
		if err != nil {
			return err
		}

		if err := d.Refresh(ctx); err != nil {
			return browserErr(op, apperr.StageNavigation, err)
		}

		a.step(ctx, "Refresh page")

		return nil
	})
}

func (a *Actions) GoBack(ctx context.Context) error {
	const op = "GoBack"

	return a.do(ctx, op, func(ctx context.Context) error {
		d, err := a.driver(ctx)
		if err != nil {
			return err
		}

		if err := d.Back(ctx); err != nil {
			return browserErr(op, apperr.StageNavigation, err)
		}

		a.step(ctx, "Go back")

		return nil
	})
}

func (a *Actions) GoForward(ctx context.Context) error {
	const op = "GoForward"

	return a.do(ctx, op, func(ctx context.Context) error {
		d, err := a.driver(ctx)
		if err != nil {
			return err
		}

		if err := d.Forward(ctx); err != nil {
			return browserErr(op, apperr.StageNavigation, err)
		}

		a.step(ctx, "Go forward")

		return nil
	})
}

// OpenBrowser opens a new session in slot and makes it active. An empty slot
// means the default one.
func (a *Actions) OpenBrowser(ctx context.Context, slot string) error {
	return a.do(ctx, "OpenBrowser", func(ctx context.Context) error {
		if _, err := a.exec.OpenBrowser(ctx, slot); err != nil {
			return err
		}

		if slot == "" {
			a.step(ctx, "Open browser")
		} else {
			a.step(ctx, "Open browser '%s'", slot)
		}

		return nil
	})
}

func (a *Actions) ActivateBrowser(ctx context.Context, slot string) error {
	return a.do(ctx, "ActivateBrowser", func(ctx context.Context) error {
		if err := a.exec.ActivateBrowser(slot); err != nil {
			return err
		}

		a.step(ctx, "Activate browser '%s'", slot)

		return nil
	})
}

func (a *Actions) CloseBrowser(ctx context.Context) error {
	const op = "CloseBrowser"

	return a.do(ctx, op, func(ctx context.Context) error {
		if err := a.exec.CloseBrowser(ctx); err != nil {
			return browserErr(op, apperr.StageBrowser, err)
		}

		a.step(ctx, "Close browser")

		return nil
	})
}

func (a *Actions) SetWindowSize(ctx context.Context, width, height int) error {
	const op = "SetWindowSize"

	return a.do(ctx, op, func(ctx context.Context) error {
		if width <= 0 || height <= 0 {
			return apperr.InvalidReqError(op, "size", fmt.Errorf("window size must be positive, got %dx%d", width, height))
		}

		d, err := a.driver(ctx)
		if err != nil {
			return err
		}

		if err := d.SetWindowSize(ctx, entity.WindowSize{Width: width, Height: height}); err != nil {
			return browserErr(op, apperr.StageBrowser, err)
		}

		a.step(ctx, "Set browser window size to %dx%d", width, height)

		return nil
	})
}

func (a *Actions) AddCookie(ctx context.Context, cookie entity.Cookie) error {
	const op = "AddCookie"

	return a.do(ctx, op, func(ctx context.Context) error {
		if cookie.Name == "" {
			return apperr.InvalidReqError(op, "name", fmt.Errorf("cookie name is required"))
		}

		d, err := a.driver(ctx)
		if err != nil {
			return err
		}

		if err := d.AddCookie(ctx, cookie); err != nil {
			return browserErr(op, apperr.StageBrowser, err)
		}

		a.step(ctx, "Add cookie: %s", cookie.Name)

		return nil
	})
}

// GetCookie returns the named cookie, or nil when the browser has none.
func (a *Actions) GetCookie(ctx context.Context, name string) (cookie *entity.Cookie, err error) {
	const op = "GetCookie"

	err = a.do(ctx, op, func(ctx context.Context) error {
		d, err := a.driver(ctx)
		if err != nil {
			return err
		}

		all, err := d.Cookies(ctx)
		if err != nil {
			return browserErr(op, apperr.StageBrowser, err)
		}

		for i := range all {
			if all[i].Name == name {
				cookie = &all[i]
				break
			}
		}

		a.step(ctx, "Get cookie '%s'", name)

		return nil
	})

	return cookie, err
}

func (a *Actions) GetCookies(ctx context.Context) (cookies []entity.Cookie, err error) {
	const op = "GetCookies"

	err = a.do(ctx, op, func(ctx context.Context) error {
		d, err := a.driver(ctx)
		if err != nil {
			return err
		}

		cookies, err = d.Cookies(ctx)
		if err != nil {
			return browserErr(op, apperr.StageBrowser, err)
		}

		a.step(ctx, "Get all cookies")

		return nil
	})

	return cookies, err
}

func (a *Actions) DeleteCookie(ctx context.Context, name string) error {
	const op = "DeleteCookie"

	return a.do(ctx, op, func(ctx context.Context) error {
		d, err := a.driver(ctx)
		if err != nil {
			return err
		}

		if err := d.DeleteCookie(ctx, name); err != nil {
			return browserErr(op, apperr.StageBrowser, err)
		}

		a.step(ctx, "Delete cookie '%s'", name)

		return nil
	})
}

func (a *Actions) DeleteAllCookies(ctx context.Context) error {
	const op = "DeleteAllCookies"

	return a.do(ctx, op, func(ctx context.Context) error {
		d, err := a.driver(ctx)
		if err != nil {
			return err
		}

		if err := d.DeleteAllCookies(ctx); err != nil {
			return browserErr(op, apperr.StageBrowser, err)
		}

		a.step(ctx, "Delete all cookies")

		return nil
	})
}

// awaitAlert waits for a dialog to be open before an alert action runs. The
// budget defaults to zero: alert actions expect the dialog to be up already.
func (a *Actions) awaitAlert(ctx context.Context, op string, opts []Option) error {
	timeout, err := budget(opts, 0)
	if err != nil {
		return err
	}

	d, err := a.driver(ctx)
	if err != nil {
		return err
	}

	return a.waiter.Hard(ctx, timeout, wait.AlertPresent(d), func() error {
		return apperr.Wrap(op, apperr.CodeNotFound, fmt.Errorf("no alert present after %s", timeout), map[string]any{
			apperr.MetaReason:  "alert_not_present",
			apperr.MetaStage:   apperr.StageInteraction,
			apperr.MetaTimeout: timeout.String(),
		})
	})
}

func (a *Actions) AcceptAlert(ctx context.Context, opts ...Option) error {
	const op = "AcceptAlert"

	return a.do(ctx, op, func(ctx context.Context) error {
		if err := a.awaitAlert(ctx, op, opts); err != nil {
			return err
		}

		d, err := a.driver(ctx)
		if err != nil {
			return err
		}

		if err := d.AcceptAlert(ctx, ""); err != nil {
			return browserErr(op, apperr.StageInteraction, err)
		}

		a.step(ctx, "Accept alert")

		return nil
	})
}

func (a *Actions) DismissAlert(ctx context.Context, opts ...Option) error {
	const op = "DismissAlert"

	return a.do(ctx, op, func(ctx context.Context) error {
		if err := a.awaitAlert(ctx, op, opts); err != nil {
			return err
		}

		d, err := a.driver(ctx)
		if err != nil {
			return err
		}

		if err := d.DismissAlert(ctx); err != nil {
			return browserErr(op, apperr.StageInteraction, err)
		}

		a.step(ctx, "Dismiss alert")

		return nil
	})
}

func (a *Actions) GetAlertText(ctx context.Context, opts ...Option) (text string, err error) {
	const op = "GetAlertText"

	err = a.do(ctx, op, func(ctx context.Context) error {
		if err := a.awaitAlert(ctx, op, opts); err != nil {
			return err
		}

		d, err := a.driver(ctx)
		if err != nil {
			return err
		}

		text, err = d.AlertText(ctx)
		if err != nil {
			return browserErr(op, apperr.StageInteraction, err)
		}

		a.step(ctx, "Get alert text")

		return nil
	})

	return text, err
}

// SubmitPromptAlert types text into an open prompt dialog and accepts it.
func (a *Actions) SubmitPromptAlert(ctx context.Context, text string, opts ...Option) error {
	const op = "SubmitPromptAlert"

	return a.do(ctx, op, func(ctx context.Context) error {
		if err := a.awaitAlert(ctx, op, opts); err != nil {
			return err
		}

		d, err := a.driver(ctx)
		if err != nil {
			return err
		}

		if err := d.AcceptAlert(ctx, text); err != nil {
			return browserErr(op, apperr.StageInteraction, err)
		}

		a.step(ctx, "Submit alert with text '%s'", text)

		return nil
	})
}

func (a *Actions) ExecuteJS(ctx context.Context, script string, args ...any) (result any, err error) {
	const op = "ExecuteJS"

	err = a.do(ctx, op, func(ctx context.Context) error {
		d, err := a.driver(ctx)
		if err != nil {
			return err
		}

		result, err = d.ExecuteScript(ctx, script, args...)
		if err != nil {
			return browserErr(op, apperr.StageExecution, err)
		}

		a.step(ctx, "Execute JavaScript code '%s'", script)

		return nil
	})

	return result, err
}

// TakeScreenshot attaches a screenshot of the active browser to a new step.
func (a *Actions) TakeScreenshot(ctx context.Context, message string) error {
	return a.do(ctx, "TakeScreenshot", func(ctx context.Context) error {
		if message == "" {
			message = "Take screenshot"
		}

		_, err := a.exec.AttachScreenshot(ctx, message)

		return err
	})
}

// Step adds a free-form message to the execution log.
func (a *Actions) Step(ctx context.Context, message string) {
	a.exec.Step(ctx, message)
}

// Wait pauses the test for the given number of seconds.
func (a *Actions) Wait(ctx context.Context, seconds any) error {
	return a.do(ctx, "Wait", func(ctx context.Context) error {
		d, err := wait.ParseTimeout(seconds)
		if err != nil {
			return err
		}

		a.step(ctx, "Wait for %v seconds", d.Seconds())

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-a.waiter.Clock().After(d):
			return nil
		}
	})
}

func (a *Actions) GetTitle(ctx context.Context) (title string, err error) {
	const op = "GetTitle"

	err = a.do(ctx, op, func(ctx context.Context) error {
		d, err := a.driver(ctx)
		if err != nil {
			return err
		}

		title, err = d.Title(ctx)

		return browserErr(op, apperr.StageBrowser, err)
	})

	return title, err
}

func (a *Actions) GetURL(ctx context.Context) (url string, err error) {
	err = a.do(ctx, "GetURL", func(ctx context.Context) error {
		d, err := a.driver(ctx)
		if err != nil {
			return err
		}

		url = d.URL()

		return nil
	})

	return url, err
}
