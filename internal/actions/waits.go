package actions

import (
	"context"

	"github.com/golemhq/golem-sub001/internal/wait"
	"github.com/golemhq/golem-sub001/pkg/apperr"
)

// The WaitFor family are best-effort synchronization points: running out of
// time returns false without an error. Invalid selectors, invalid timeouts and
// backend failures are still returned.

func (a *Actions) softElement(ctx context.Context, op string, input any, opts []Option, check func(wait.State) wait.Condition, absentOK bool, what string) (met bool, err error) {
	err = a.do(ctx, op, func(ctx context.Context) error {
		timeout, err := budget(opts, a.resolver.ImplicitWait())
		if err != nil {
			return err
		}

		p, err := a.probe(ctx, input)
		if err != nil {
			return err
		}
		defer p.release(ctx)

		met, err = a.waiter.Soft(ctx, timeout, p.holds(check, absentOK))
		if err != nil {
			return browserErr(op, apperr.StageWait, err)
		}

		a.step(ctx, "Wait for element %s %s", p.sel.DisplayName(), what)

		return nil
	})

	return met, err
}

func (a *Actions) softPage(ctx context.Context, op string, opts []Option, cond func(d pageState) wait.Condition, message string) (met bool, err error) {
	err = a.do(ctx, op, func(ctx context.Context) error {
		timeout, err := budget(opts, a.resolver.ImplicitWait())
		if err != nil {
			return err
		}

		d, err := a.driver(ctx)
		if err != nil {
			return err
		}

		met, err = a.waiter.Soft(ctx, timeout, cond(d))
		if err != nil {
			return browserErr(op, apperr.StageWait, err)
		}

		a.step(ctx, "%s", message)

		return nil
	})

	return met, err
}

func present(wait.State) wait.Condition {
	return wait.Always
}

func (a *Actions) WaitForElementPresent(ctx context.Context, element any, opts ...Option) (bool, error) {
	return a.softElement(ctx, "WaitForElementPresent", element, opts, present, false, "to be present")
}

func (a *Actions) WaitForElementNotPresent(ctx context.Context, element any, opts ...Option) (bool, error) {
	return a.softElement(ctx, "WaitForElementNotPresent", element, opts, func(wait.State) wait.Condition {
		return wait.Never
	}, true, "to not be present")
}

func (a *Actions) WaitForElementVisible(ctx context.Context, element any, opts ...Option) (bool, error) {
	return a.softElement(ctx, "WaitForElementVisible", element, opts, wait.Visible, false, "to be visible")
}

func (a *Actions) WaitForElementNotVisible(ctx context.Context, element any, opts ...Option) (bool, error) {
	return a.softElement(ctx, "WaitForElementNotVisible", element, opts, wait.NotVisible, true, "to be not visible")
}

func (a *Actions) WaitForElementEnabled(ctx context.Context, element any, opts ...Option) (bool, error) {
	return a.softElement(ctx, "WaitForElementEnabled", element, opts, wait.Enabled, false, "to be enabled")
}

func (a *Actions) WaitForElementNotEnabled(ctx context.Context, element any, opts ...Option) (bool, error) {
	return a.softElement(ctx, "WaitForElementNotEnabled", element, opts, wait.NotEnabled, false, "to be not enabled")
}

func (a *Actions) WaitForElementChecked(ctx context.Context, element any, opts ...Option) (bool, error) {
	return a.softElement(ctx, "WaitForElementChecked", element, opts, wait.Selected, false, "to be checked")
}

func (a *Actions) WaitForElementNotChecked(ctx context.Context, element any, opts ...Option) (bool, error) {
	return a.softElement(ctx, "WaitForElementNotChecked", element, opts, wait.NotSelected, false, "to be not checked")
}

func (a *Actions) WaitForElementText(ctx context.Context, element any, text string, opts ...Option) (bool, error) {
	return a.softElement(ctx, "WaitForElementText", element, opts, func(s wait.State) wait.Condition {
		return wait.TextIs(s, text)
	}, false, "text to be '"+text+"'")
}

func (a *Actions) WaitForElementTextContains(ctx context.Context, element any, text string, opts ...Option) (bool, error) {
	return a.softElement(ctx, "WaitForElementTextContains", element, opts, func(s wait.State) wait.Condition {
		return wait.TextInElement(s, text)
	}, false, "text to contain '"+text+"'")
}

func (a *Actions) WaitForElementValue(ctx context.Context, element any, value string, opts ...Option) (bool, error) {
	return a.softElement(ctx, "WaitForElementValue", element, opts, func(s wait.State) wait.Condition {
		return wait.ValueIs(s, value)
	}, false, "value to be '"+value+"'")
}

func (a *Actions) WaitForSelectedOptionByText(ctx context.Context, element any, text string, opts ...Option) (bool, error) {
	return a.softElement(ctx, "WaitForSelectedOptionByText", element, opts, func(s wait.State) wait.Condition {
		return wait.OptionSelectedByText(s, text)
	}, false, "selected option text to be '"+text+"'")
}

func (a *Actions) WaitForSelectedOptionByValue(ctx context.Context, element any, value string, opts ...Option) (bool, error) {
	return a.softElement(ctx, "WaitForSelectedOptionByValue", element, opts, func(s wait.State) wait.Condition {
		return wait.OptionSelectedByValue(s, value)
	}, false, "selected option value to be '"+value+"'")
}

func (a *Actions) WaitForElementHasAttribute(ctx context.Context, element any, name, value string, opts ...Option) (bool, error) {
	return a.softElement(ctx, "WaitForElementHasAttribute", element, opts, func(s wait.State) wait.Condition {
		return wait.AttributeIs(s, name, value)
	}, false, "attribute "+name+" to be '"+value+"'")
}

func (a *Actions) WaitForTextInPage(ctx context.Context, text string, opts ...Option) (bool, error) {
	return a.softPage(ctx, "WaitForTextInPage", opts, func(d pageState) wait.Condition {
		return wait.TextInPage(d, text)
	}, "Wait for text '"+text+"' to be present in page")
}

func (a *Actions) WaitForTextNotInPage(ctx context.Context, text string, opts ...Option) (bool, error) {
	return a.softPage(ctx, "WaitForTextNotInPage", opts, func(d pageState) wait.Condition {
		return wait.TextNotInPage(d, text)
	}, "Wait for text '"+text+"' to not be present in page")
}

func (a *Actions) WaitForAlertPresent(ctx context.Context, opts ...Option) (bool, error) {
	return a.softPage(ctx, "WaitForAlertPresent", opts, func(d pageState) wait.Condition {
		return wait.AlertPresent(d)
	}, "Wait for alert to be present")
}

func (a *Actions) WaitForAlertNotPresent(ctx context.Context, opts ...Option) (bool, error) {
	return a.softPage(ctx, "WaitForAlertNotPresent", opts, func(d pageState) wait.Condition {
		return wait.AlertNotPresent(d)
	}, "Wait for alert to not be present")
}

func (a *Actions) WaitForTitle(ctx context.Context, title string, opts ...Option) (bool, error) {
	return a.softPage(ctx, "WaitForTitle", opts, func(d pageState) wait.Condition {
		return wait.TitleIs(d, title)
	}, "Wait for title to be '"+title+"'")
}

func (a *Actions) WaitForTitleContains(ctx context.Context, partial string, opts ...Option) (bool, error) {
	return a.softPage(ctx, "WaitForTitleContains", opts, func(d pageState) wait.Condition {
		return wait.TitleContains(d, partial)
	}, "Wait for title to contain '"+partial+"'")
}

func (a *Actions) WaitForURL(ctx context.Context, url string, opts ...Option) (bool, error) {
	return a.softPage(ctx, "WaitForURL", opts, func(d pageState) wait.Condition {
		return wait.URLIs(d, url)
	}, "Wait for URL to be '"+url+"'")
}

func (a *Actions) WaitForURLContains(ctx context.Context, partial string, opts ...Option) (bool, error) {
	return a.softPage(ctx, "WaitForURLContains", opts, func(d pageState) wait.Condition {
		return wait.URLContains(d, partial)
	}, "Wait for URL to contain '"+partial+"'")
}

// pageState is what the page level predicates read from a driver.
type pageState interface {
	PageSource(ctx context.Context) (string, error)
	AlertPresent(ctx context.Context) bool
	Title(ctx context.Context) (string, error)
	URL() string
}
