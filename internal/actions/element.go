package actions

import (
	"context"
	"strconv"

	"github.com/golemhq/golem-sub001/internal/ports"
	"github.com/golemhq/golem-sub001/internal/resolver"
)

func (a *Actions) Click(ctx context.Context, element any, opts ...Option) error {
	const op = "Click"

	return a.do(ctx, op, func(ctx context.Context) error {
		el, err := a.element(ctx, element, opts)
		if err != nil {
			return err
		}

		if err := el.Click(ctx); err != nil {
			return nativeErr(op, el, err)
		}

		a.step(ctx, "Click %s", el.DisplayName())

		return nil
	})
}

func (a *Actions) DoubleClick(ctx context.Context, element any, opts ...Option) error {
	const op = "DoubleClick"

	return a.do(ctx, op, func(ctx context.Context) error {
		el, err := a.element(ctx, element, opts)
		if err != nil {
			return err
		}

		if err := el.DoubleClick(ctx); err != nil {
			return nativeErr(op, el, err)
		}

		a.step(ctx, "Double click %s", el.DisplayName())

		return nil
	})
}

func (a *Actions) MouseHover(ctx context.Context, element any, opts ...Option) error {
	const op = "MouseHover"

	return a.do(ctx, op, func(ctx context.Context) error {
		el, err := a.element(ctx, element, opts)
		if err != nil {
			return err
		}

		if err := el.Hover(ctx); err != nil {
			return nativeErr(op, el, err)
		}

		a.step(ctx, "Mouse hover element %s", el.DisplayName())

		return nil
	})
}

func (a *Actions) SendKeys(ctx context.Context, element any, text string, opts ...Option) error {
	return a.sendKeys(ctx, "SendKeys", element, text, false, opts)
}

// SendSecureKeys types text like SendKeys but never writes it to the log.
func (a *Actions) SendSecureKeys(ctx context.Context, element any, text string, opts ...Option) error {
	return a.sendKeys(ctx, "SendSecureKeys", element, text, true, opts)
}

func (a *Actions) sendKeys(ctx context.Context, op string, element any, text string, secure bool, opts []Option) error {
	return a.do(ctx, op, func(ctx context.Context) error {
		el, err := a.element(ctx, element, opts)
		if err != nil {
			return err
		}

		if err := el.SendKeys(ctx, text); err != nil {
			return nativeErr(op, el, err)
		}

		shown := text
		if secure {
			shown = mask(text)
		}

		a.step(ctx, "Write '%s' in element %s", shown, el.DisplayName())

		return nil
	})
}

func (a *Actions) Clear(ctx context.Context, element any, opts ...Option) error {
	const op = "Clear"

	return a.do(ctx, op, func(ctx context.Context) error {
		el, err := a.element(ctx, element, opts)
		if err != nil {
			return err
		}

		if err := el.Clear(ctx); err != nil {
			return nativeErr(op, el, err)
		}

		a.step(ctx, "Clear element %s", el.DisplayName())

		return nil
	})
}

// PressKey sends a named key ("Enter", "Tab", "Control+A") to the element.
func (a *Actions) PressKey(ctx context.Context, element any, key string, opts ...Option) error {
	const op = "PressKey"

	return a.do(ctx, op, func(ctx context.Context) error {
		el, err := a.element(ctx, element, opts)
		if err != nil {
			return err
		}

		if err := el.Press(ctx, key); err != nil {
			return nativeErr(op, el, err)
		}

		a.step(ctx, "Press key: %s in element %s", key, el.DisplayName())

		return nil
	})
}

func (a *Actions) Check(ctx context.Context, element any, opts ...Option) error {
	return a.setChecked(ctx, "Check", element, true, opts)
}

func (a *Actions) Uncheck(ctx context.Context, element any, opts ...Option) error {
	return a.setChecked(ctx, "Uncheck", element, false, opts)
}

func (a *Actions) setChecked(ctx context.Context, op string, element any, checked bool, opts []Option) error {
	return a.do(ctx, op, func(ctx context.Context) error {
		el, err := a.element(ctx, element, opts)
		if err != nil {
			return err
		}

		if err := el.SetChecked(ctx, checked); err != nil {
			return nativeErr(op, el, err)
		}

		verb := "Check"
		if !checked {
			verb = "Uncheck"
		}

		a.step(ctx, "%s element %s", verb, el.DisplayName())

		return nil
	})
}

func (a *Actions) SelectByIndex(ctx context.Context, element any, index int, opts ...Option) error {
	const op = "SelectByIndex"

	return a.selectOption(ctx, op, element, ports.SelectByIndex, strconv.Itoa(index), opts, func(el *resolver.Element) {
		a.step(ctx, "Select option of index %d from element %s", index, el.DisplayName())
	})
}

func (a *Actions) SelectByText(ctx context.Context, element any, text string, opts ...Option) error {
	const op = "SelectByText"

	return a.selectOption(ctx, op, element, ports.SelectByText, text, opts, func(el *resolver.Element) {
		a.step(ctx, "Select '%s' from element %s", text, el.DisplayName())
	})
}

func (a *Actions) SelectByValue(ctx context.Context, element any, value string, opts ...Option) error {
	const op = "SelectByValue"

	return a.selectOption(ctx, op, element, ports.SelectByValue, value, opts, func(el *resolver.Element) {
		a.step(ctx, "Select option with value '%s' from element %s", value, el.DisplayName())
	})
}

func (a *Actions) selectOption(ctx context.Context, op string, element any, by ports.SelectBy, value string, opts []Option, describe func(*resolver.Element)) error {
	return a.do(ctx, op, func(ctx context.Context) error {
		el, err := a.element(ctx, element, opts)
		if err != nil {
			return err
		}

		if err := el.SelectOption(ctx, by, value); err != nil {
			return nativeErr(op, el, err)
		}

		describe(el)

		return nil
	})
}

func (a *Actions) GetText(ctx context.Context, element any, opts ...Option) (text string, err error) {
	const op = "GetText"

	err = a.do(ctx, op, func(ctx context.Context) error {
		el, err := a.element(ctx, element, opts)
		if err != nil {
			return err
		}

		text, err = el.Text(ctx)

		return nativeErr(op, el, err)
	})

	return text, err
}

func (a *Actions) GetAttribute(ctx context.Context, element any, name string, opts ...Option) (value string, err error) {
	const op = "GetAttribute"

	err = a.do(ctx, op, func(ctx context.Context) error {
		el, err := a.element(ctx, element, opts)
		if err != nil {
			return err
		}

		value, err = el.Attribute(ctx, name)

		return nativeErr(op, el, err)
	})

	return value, err
}

func (a *Actions) GetValue(ctx context.Context, element any, opts ...Option) (value string, err error) {
	const op = "GetValue"

	err = a.do(ctx, op, func(ctx context.Context) error {
		el, err := a.element(ctx, element, opts)
		if err != nil {
			return err
		}

		value, err = el.Value(ctx)

		return nativeErr(op, el, err)
	})

	return value, err
}
