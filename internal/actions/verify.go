package actions

import (
	"context"
	"fmt"
	"time"

	"github.com/golemhq/golem-sub001/internal/selector"
	"github.com/golemhq/golem-sub001/internal/wait"
	"github.com/golemhq/golem-sub001/pkg/apperr"
)

// The Verify family are correctness checks: the condition is polled within
// the call's budget and a typed error is returned when it never holds.

func elementNotFound(op string, sel selector.Selector, timeout time.Duration) error {
	meta := selectorMeta(sel)
	meta[apperr.MetaReason] = "element_not_found"
	meta[apperr.MetaStage] = apperr.StageVerify
	meta[apperr.MetaTimeout] = timeout.String()

	return apperr.Wrap(op, apperr.CodeElementNotFound, fmt.Errorf("element %s not found after %s", sel, timeout), meta)
}

func elementMismatch(op string, sel selector.Selector, message string, expected, actual any) error {
	err := apperr.AssertionError(op, message, expected, actual).(*apperr.Error)
	for k, v := range selectorMeta(sel) {
		err.Metadata[k] = v
	}

	return err
}

// mismatchFunc builds the failure of an element check once the budget is
// spent and the element was found at the last poll.
type mismatchFunc func(ctx context.Context, p *probe) error

func (a *Actions) verifyElement(ctx context.Context, op string, input any, opts []Option, check func(wait.State) wait.Condition, absentOK bool, what string, mismatch mismatchFunc) error {
	return a.do(ctx, op, func(ctx context.Context) error {
		timeout, err := budget(opts, a.resolver.ImplicitWait())
		if err != nil {
			return err
		}

		p, err := a.probe(ctx, input)
		if err != nil {
			return err
		}
		defer p.release(ctx)

		a.step(ctx, "Verify element %s %s", p.sel.DisplayName(), what)

		err = a.waiter.Hard(ctx, timeout, p.holds(check, absentOK), func() error {
			if !p.found() {
				return elementNotFound(op, p.sel, timeout)
			}

			return mismatch(ctx, p)
		})

		return browserErr(op, apperr.StageVerify, err)
	})
}

func (a *Actions) verifyPage(ctx context.Context, op string, opts []Option, cond func(d pageState) wait.Condition, message string, failure func(ctx context.Context, d pageState) error) error {
	return a.do(ctx, op, func(ctx context.Context) error {
		timeout, err := budget(opts, a.resolver.ImplicitWait())
		if err != nil {
			return err
		}

		d, err := a.driver(ctx)
		if err != nil {
			return err
		}

		a.step(ctx, "%s", message)

		err = a.waiter.Hard(ctx, timeout, cond(d), func() error {
			return failure(ctx, d)
		})

		return browserErr(op, apperr.StageVerify, err)
	})
}

func stateMismatch(op, message string, expected, actual bool) mismatchFunc {
	return func(_ context.Context, p *probe) error {
		return elementMismatch(op, p.sel, fmt.Sprintf("element %s %s", p.sel.DisplayName(), message), expected, actual)
	}
}

func (a *Actions) VerifyElementPresent(ctx context.Context, element any, opts ...Option) error {
	const op = "VerifyElementPresent"

	return a.verifyElement(ctx, op, element, opts, present, false, "is present", stateMismatch(op, "is not present", true, false))
}

func (a *Actions) VerifyElementNotPresent(ctx context.Context, element any, opts ...Option) error {
	const op = "VerifyElementNotPresent"

	return a.verifyElement(ctx, op, element, opts, func(wait.State) wait.Condition {
		return wait.Never
	}, true, "is not present", stateMismatch(op, "is present", false, true))
}

func (a *Actions) VerifyElementVisible(ctx context.Context, element any, opts ...Option) error {
	const op = "VerifyElementVisible"

	return a.verifyElement(ctx, op, element, opts, wait.Visible, false, "is visible", stateMismatch(op, "is not visible", true, false))
}

func (a *Actions) VerifyElementNotVisible(ctx context.Context, element any, opts ...Option) error {
	const op = "VerifyElementNotVisible"

	return a.verifyElement(ctx, op, element, opts, wait.NotVisible, true, "is not visible", stateMismatch(op, "is visible", false, true))
}

func (a *Actions) VerifyElementEnabled(ctx context.Context, element any, opts ...Option) error {
	const op = "VerifyElementEnabled"

	return a.verifyElement(ctx, op, element, opts, wait.Enabled, false, "is enabled", stateMismatch(op, "is not enabled", true, false))
}

func (a *Actions) VerifyElementNotEnabled(ctx context.Context, element any, opts ...Option) error {
	const op = "VerifyElementNotEnabled"

	return a.verifyElement(ctx, op, element, opts, wait.NotEnabled, false, "is not enabled", stateMismatch(op, "is enabled", false, true))
}

func (a *Actions) VerifyElementChecked(ctx context.Context, element any, opts ...Option) error {
	const op = "VerifyElementChecked"

	return a.verifyElement(ctx, op, element, opts, wait.Selected, false, "is checked", stateMismatch(op, "is not checked", true, false))
}

func (a *Actions) VerifyElementNotChecked(ctx context.Context, element any, opts ...Option) error {
	const op = "VerifyElementNotChecked"

	return a.verifyElement(ctx, op, element, opts, wait.NotSelected, false, "is not checked", stateMismatch(op, "is checked", false, true))
}

func (a *Actions) VerifyElementText(ctx context.Context, element any, text string, opts ...Option) error {
	const op = "VerifyElementText"

	return a.verifyElement(ctx, op, element, opts, func(s wait.State) wait.Condition {
		return wait.TextIs(s, text)
	}, false, "text is '"+text+"'", func(ctx context.Context, p *probe) error {
		actual, _ := p.node.Text(ctx)

		return elementMismatch(op, p.sel, fmt.Sprintf("expected element %s text to be %q but was %q", p.sel.DisplayName(), text, actual), text, actual)
	})
}

func (a *Actions) VerifyElementTextContains(ctx context.Context, element any, text string, opts ...Option) error {
	const op = "VerifyElementTextContains"

	return a.verifyElement(ctx, op, element, opts, func(s wait.State) wait.Condition {
		return wait.TextInElement(s, text)
	}, false, "contains text '"+text+"'", func(ctx context.Context, p *probe) error {
		actual, _ := p.node.Text(ctx)
		meta := selectorMeta(p.sel)
		meta[apperr.MetaReason] = "text_not_in_element"
		meta[apperr.MetaStage] = apperr.StageVerify
		meta[apperr.MetaExpected] = text
		meta[apperr.MetaActual] = actual

		return apperr.Wrap(op, apperr.CodeTextNotPresent,
			fmt.Errorf("expected element %s text %q to contain %q", p.sel.DisplayName(), actual, text), meta)
	})
}

func (a *Actions) VerifyElementValue(ctx context.Context, element any, value string, opts ...Option) error {
	const op = "VerifyElementValue"

	return a.verifyElement(ctx, op, element, opts, func(s wait.State) wait.Condition {
		return wait.ValueIs(s, value)
	}, false, "value is '"+value+"'", func(ctx context.Context, p *probe) error {
		actual, _ := p.node.Value(ctx)

		return elementMismatch(op, p.sel, fmt.Sprintf("expected element %s value to be %q but was %q", p.sel.DisplayName(), value, actual), value, actual)
	})
}

func (a *Actions) VerifyElementAttribute(ctx context.Context, element any, name, value string, opts ...Option) error {
	const op = "VerifyElementAttribute"

	return a.verifyElement(ctx, op, element, opts, func(s wait.State) wait.Condition {
		return wait.AttributeIs(s, name, value)
	}, false, "attribute "+name+" is '"+value+"'", func(ctx context.Context, p *probe) error {
		actual, _ := p.node.Attribute(ctx, name)

		return elementMismatch(op, p.sel, fmt.Sprintf("expected element %s attribute %s to be %q but was %q", p.sel.DisplayName(), name, value, actual), value, actual)
	})
}

func (a *Actions) VerifySelectedOptionByText(ctx context.Context, element any, text string, opts ...Option) error {
	const op = "VerifySelectedOptionByText"

	return a.verifyElement(ctx, op, element, opts, func(s wait.State) wait.Condition {
		return wait.OptionSelectedByText(s, text)
	}, false, "has option '"+text+"' selected", func(ctx context.Context, p *probe) error {
		actual, _, _ := p.node.SelectedOption(ctx)

		return elementMismatch(op, p.sel, fmt.Sprintf("expected element %s selected option to be %q but was %q", p.sel.DisplayName(), text, actual), text, actual)
	})
}

func (a *Actions) VerifySelectedOptionByValue(ctx context.Context, element any, value string, opts ...Option) error {
	const op = "VerifySelectedOptionByValue"

	return a.verifyElement(ctx, op, element, opts, func(s wait.State) wait.Condition {
		return wait.OptionSelectedByValue(s, value)
	}, false, "has option with value '"+value+"' selected", func(ctx context.Context, p *probe) error {
		_, actual, _ := p.node.SelectedOption(ctx)

		return elementMismatch(op, p.sel, fmt.Sprintf("expected element %s selected value to be %q but was %q", p.sel.DisplayName(), value, actual), value, actual)
	})
}

// VerifyTextInPage fails with TextNotPresent when the rendered page text
// never contains text.
func (a *Actions) VerifyTextInPage(ctx context.Context, text string, opts ...Option) error {
	const op = "VerifyTextInPage"

	return a.verifyPage(ctx, op, opts, func(d pageState) wait.Condition {
		return wait.TextInPage(d, text)
	}, "Verify '"+text+"' is present in page", func(context.Context, pageState) error {
		return apperr.Wrap(op, apperr.CodeTextNotPresent, fmt.Errorf("text %q was not found in the page", text), map[string]any{
			apperr.MetaReason:   "text_not_in_page",
			apperr.MetaStage:    apperr.StageVerify,
			apperr.MetaExpected: text,
		})
	})
}

func (a *Actions) VerifyTextNotInPage(ctx context.Context, text string, opts ...Option) error {
	const op = "VerifyTextNotInPage"

	return a.verifyPage(ctx, op, opts, func(d pageState) wait.Condition {
		return wait.TextNotInPage(d, text)
	}, "Verify '"+text+"' is not present in page", func(context.Context, pageState) error {
		return apperr.AssertionError(op, fmt.Sprintf("text %q was found in the page", text), "absent", "present")
	})
}

func (a *Actions) VerifyTitle(ctx context.Context, title string, opts ...Option) error {
	const op = "VerifyTitle"

	return a.verifyPage(ctx, op, opts, func(d pageState) wait.Condition {
		return wait.TitleIs(d, title)
	}, "Verify page title is '"+title+"'", func(ctx context.Context, d pageState) error {
		actual, _ := d.Title(ctx)

		return apperr.AssertionError(op, fmt.Sprintf("expected title to be %q but was %q", title, actual), title, actual)
	})
}

func (a *Actions) VerifyTitleContains(ctx context.Context, partial string, opts ...Option) error {
	const op = "VerifyTitleContains"

	return a.verifyPage(ctx, op, opts, func(d pageState) wait.Condition {
		return wait.TitleContains(d, partial)
	}, "Verify page title contains '"+partial+"'", func(ctx context.Context, d pageState) error {
		actual, _ := d.Title(ctx)

		return apperr.AssertionError(op, fmt.Sprintf("expected title %q to contain %q", actual, partial), partial, actual)
	})
}

func (a *Actions) VerifyURL(ctx context.Context, url string, opts ...Option) error {
	const op = "VerifyURL"

	return a.verifyPage(ctx, op, opts, func(d pageState) wait.Condition {
		return wait.URLIs(d, url)
	}, "Verify URL is '"+url+"'", func(_ context.Context, d pageState) error {
		actual := d.URL()

		return apperr.AssertionError(op, fmt.Sprintf("expected URL to be %q but was %q", url, actual), url, actual)
	})
}

func (a *Actions) VerifyURLContains(ctx context.Context, partial string, opts ...Option) error {
	const op = "VerifyURLContains"

	return a.verifyPage(ctx, op, opts, func(d pageState) wait.Condition {
		return wait.URLContains(d, partial)
	}, "Verify URL contains '"+partial+"'", func(_ context.Context, d pageState) error {
		actual := d.URL()

		return apperr.AssertionError(op, fmt.Sprintf("expected URL %q to contain %q", actual, partial), partial, actual)
	})
}

func (a *Actions) VerifyAlertPresent(ctx context.Context, opts ...Option) error {
	const op = "VerifyAlertPresent"

	return a.verifyPage(ctx, op, opts, func(d pageState) wait.Condition {
		return wait.AlertPresent(d)
	}, "Verify an alert is present", func(context.Context, pageState) error {
		return apperr.AssertionError(op, "an alert was not present", true, false)
	})
}

func (a *Actions) VerifyAlertNotPresent(ctx context.Context, opts ...Option) error {
	const op = "VerifyAlertNotPresent"

	return a.verifyPage(ctx, op, opts, func(d pageState) wait.Condition {
		return wait.AlertNotPresent(d)
	}, "Verify an alert is not present", func(context.Context, pageState) error {
		return apperr.AssertionError(op, "an alert was present", false, true)
	})
}
