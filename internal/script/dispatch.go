package script

import (
	"context"
	"fmt"
	"sort"

	"github.com/golemhq/golem-sub001/internal/actions"
	"github.com/golemhq/golem-sub001/internal/pageobject"
	"github.com/golemhq/golem-sub001/pkg/apperr"
	"github.com/golemhq/golem-sub001/pkg/logg"
	"go.uber.org/zap"
)

const (
	defaultRandomLength = 10
	defaultRandomMax    = 100
)

type runFunc func(ctx context.Context, a *actions.Actions, in args, opts []actions.Option) (any, error)

type verb struct {
	args     []argKind
	required int
	variadic bool
	timed    bool
	run      runFunc
}

// Dispatcher maps scripted action names onto the action façade.
type Dispatcher struct {
	pages *pageobject.Registry
}

// NewDispatcher resolves "page.element" arguments through pages, which may be
// nil.
func NewDispatcher(pages *pageobject.Registry) *Dispatcher {
	return &Dispatcher{pages: pages}
}

// Actions lists every action name a script may use.
func Actions() []string {
	names := make([]string, 0, len(verbs))
	for n := range verbs {
		names = append(names, n)
	}

	sort.Strings(names)

	return names
}

// Run executes one call. Placeholders are expanded right before the call so
// values stored by earlier steps are visible.
func (d *Dispatcher) Run(ctx context.Context, a *actions.Actions, call Call) (err error) {
	const op = "script.Run"
	logger := a.Exec().Logger().With(zap.String(logg.Operation, op), zap.String(logg.Action, call.Action))

	v, ok := verbs[call.Action]
	if !ok {
		return apperr.Wrap(op, apperr.CodeInvalidArgument, fmt.Errorf("unknown action %q", call.Action), map[string]any{
			apperr.MetaReason: "unknown_action",
			apperr.MetaAction: call.Action,
		})
	}

	if len(call.Args) < v.required || (!v.variadic && len(call.Args) > len(v.args)) {
		return apperr.Wrap(op, apperr.CodeInvalidArgument, fmt.Errorf("%s: %s takes %s, got %d", call, call.Action, v.arity(), len(call.Args)), map[string]any{
			apperr.MetaReason: "wrong_arity",
			apperr.MetaAction: call.Action,
		})
	}

	in := make(args, len(call.Args))

	for i, raw := range call.Args {
		val, err := expand(a.Exec(), raw)
		if err != nil {
			return err
		}

		kind := argAny
		if i < len(v.args) {
			kind = v.args[i]
		}

		conv, err := convert(kind, val, d.pages)
		if err != nil {
			return apperr.Wrap(op, apperr.CodeInvalidArgument, fmt.Errorf("%s: argument %d: %w", call, i+1, err), map[string]any{
				apperr.MetaReason: "invalid_argument",
				apperr.MetaAction: call.Action,
				apperr.MetaField:  fmt.Sprint(i + 1),
			})
		}

		in[i] = conv
	}

	var opts []actions.Option

	if call.Timeout != nil {
		if !v.timed {
			return apperr.InvalidReqError(op, "timeout", fmt.Errorf("%s: %s does not take a timeout", call, call.Action))
		}

		t, err := expand(a.Exec(), call.Timeout)
		if err != nil {
			return err
		}

		opts = append(opts, actions.Timeout(t))
	}

	logger.Debug("Running action", zap.Int("line", call.Line))

	res, err := v.run(ctx, a, in, opts)
	if err != nil {
		return err
	}

	if call.Store != "" {
		a.Exec().Store(call.Store, res)
	}

	return nil
}

func (v verb) arity() string {
	switch {
	case v.variadic:
		return fmt.Sprintf("at least %d arguments", v.required)
	case v.required == len(v.args):
		return fmt.Sprintf("%d arguments", v.required)
	default:
		return fmt.Sprintf("%d to %d arguments", v.required, len(v.args))
	}
}

type (
	pageFn            func(*actions.Actions, context.Context, ...actions.Option) error
	pageWaitFn        func(*actions.Actions, context.Context, ...actions.Option) (bool, error)
	pageTextFn        func(*actions.Actions, context.Context, string, ...actions.Option) error
	pageTextWaitFn    func(*actions.Actions, context.Context, string, ...actions.Option) (bool, error)
	elementFn         func(*actions.Actions, context.Context, any, ...actions.Option) error
	elementWaitFn     func(*actions.Actions, context.Context, any, ...actions.Option) (bool, error)
	elementTextFn     func(*actions.Actions, context.Context, any, string, ...actions.Option) error
	elementTextWaitFn func(*actions.Actions, context.Context, any, string, ...actions.Option) (bool, error)
	elementPairFn     func(*actions.Actions, context.Context, any, string, string, ...actions.Option) error
	elementPairWaitFn func(*actions.Actions, context.Context, any, string, string, ...actions.Option) (bool, error)
)

func page(fn pageFn) verb {
	return verb{timed: true, run: func(ctx context.Context, a *actions.Actions, _ args, opts []actions.Option) (any, error) {
		return nil, fn(a, ctx, opts...)
	}}
}

func pageWait(fn pageWaitFn) verb {
	return verb{timed: true, run: func(ctx context.Context, a *actions.Actions, _ args, opts []actions.Option) (any, error) {
		return fn(a, ctx, opts...)
	}}
}

func pageText(fn pageTextFn) verb {
	return verb{args: []argKind{argString}, required: 1, timed: true, run: func(ctx context.Context, a *actions.Actions, in args, opts []actions.Option) (any, error) {
		return nil, fn(a, ctx, in.str(0), opts...)
	}}
}

func pageTextWait(fn pageTextWaitFn) verb {
	return verb{args: []argKind{argString}, required: 1, timed: true, run: func(ctx context.Context, a *actions.Actions, in args, opts []actions.Option) (any, error) {
		return fn(a, ctx, in.str(0), opts...)
	}}
}

func element(fn elementFn) verb {
	return verb{args: []argKind{argElement}, required: 1, timed: true, run: func(ctx context.Context, a *actions.Actions, in args, opts []actions.Option) (any, error) {
		return nil, fn(a, ctx, in.value(0), opts...)
	}}
}

func elementWait(fn elementWaitFn) verb {
	return verb{args: []argKind{argElement}, required: 1, timed: true, run: func(ctx context.Context, a *actions.Actions, in args, opts []actions.Option) (any, error) {
		return fn(a, ctx, in.value(0), opts...)
	}}
}

func elementText(fn elementTextFn) verb {
	return verb{args: []argKind{argElement, argString}, required: 2, timed: true, run: func(ctx context.Context, a *actions.Actions, in args, opts []actions.Option) (any, error) {
		return nil, fn(a, ctx, in.value(0), in.str(1), opts...)
	}}
}

func elementTextWait(fn elementTextWaitFn) verb {
	return verb{args: []argKind{argElement, argString}, required: 2, timed: true, run: func(ctx context.Context, a *actions.Actions, in args, opts []actions.Option) (any, error) {
		return fn(a, ctx, in.value(0), in.str(1), opts...)
	}}
}

func elementPair(fn elementPairFn) verb {
	return verb{args: []argKind{argElement, argString, argString}, required: 3, timed: true, run: func(ctx context.Context, a *actions.Actions, in args, opts []actions.Option) (any, error) {
		return nil, fn(a, ctx, in.value(0), in.str(1), in.str(2), opts...)
	}}
}

func elementPairWait(fn elementPairWaitFn) verb {
	return verb{args: []argKind{argElement, argString, argString}, required: 3, timed: true, run: func(ctx context.Context, a *actions.Actions, in args, opts []actions.Option) (any, error) {
		return fn(a, ctx, in.value(0), in.str(1), in.str(2), opts...)
	}}
}

// plain wraps verbs whose action takes neither a timeout nor arguments.
func plain(fn func(*actions.Actions, context.Context) error) verb {
	return verb{run: func(ctx context.Context, a *actions.Actions, _ args, _ []actions.Option) (any, error) {
		return nil, fn(a, ctx)
	}}
}

func text(fn func(*actions.Actions, context.Context, string) error) verb {
	return verb{args: []argKind{argString}, required: 1, run: func(ctx context.Context, a *actions.Actions, in args, _ []actions.Option) (any, error) {
		return nil, fn(a, ctx, in.str(0))
	}}
}

var verbs = map[string]verb{
	// browser
	"navigate":   text((*actions.Actions).Navigate),
	"refresh":    plain((*actions.Actions).Refresh),
	"go_back":    plain((*actions.Actions).GoBack),
	"go_forward": plain((*actions.Actions).GoForward),
	"open_browser": {args: []argKind{argString}, run: func(ctx context.Context, a *actions.Actions, in args, _ []actions.Option) (any, error) {
		return nil, a.OpenBrowser(ctx, in.str(0))
	}},
	"activate_browser": text((*actions.Actions).ActivateBrowser),
	"close_browser":    plain((*actions.Actions).CloseBrowser),
	"set_window_size": {args: []argKind{argInt, argInt}, required: 2, run: func(ctx context.Context, a *actions.Actions, in args, _ []actions.Option) (any, error) {
		return nil, a.SetWindowSize(ctx, in.num(0), in.num(1))
	}},
	"get_title": {run: func(ctx context.Context, a *actions.Actions, _ args, _ []actions.Option) (any, error) {
		return a.GetTitle(ctx)
	}},
	"get_url": {run: func(ctx context.Context, a *actions.Actions, _ args, _ []actions.Option) (any, error) {
		return a.GetURL(ctx)
	}},
	"execute_javascript": {args: []argKind{argString}, required: 1, variadic: true, run: func(ctx context.Context, a *actions.Actions, in args, _ []actions.Option) (any, error) {
		return a.ExecuteJS(ctx, in.str(0), in.rest(1)...)
	}},
	"take_screenshot": {args: []argKind{argString}, run: func(ctx context.Context, a *actions.Actions, in args, _ []actions.Option) (any, error) {
		return nil, a.TakeScreenshot(ctx, in.str(0))
	}},
	"step": {args: []argKind{argString}, required: 1, run: func(ctx context.Context, a *actions.Actions, in args, _ []actions.Option) (any, error) {
		a.Step(ctx, in.str(0))

		return nil, nil
	}},
	"wait": {args: []argKind{argAny}, required: 1, run: func(ctx context.Context, a *actions.Actions, in args, _ []actions.Option) (any, error) {
		return nil, a.Wait(ctx, in.value(0))
	}},

	// cookies
	"add_cookie": {args: []argKind{argMap}, required: 1, run: func(ctx context.Context, a *actions.Actions, in args, _ []actions.Option) (any, error) {
		c, err := cookie(in.mapping(0))
		if err != nil {
			return nil, err
		}

		return nil, a.AddCookie(ctx, c)
	}},
	"get_cookie": {args: []argKind{argString}, required: 1, run: func(ctx context.Context, a *actions.Actions, in args, _ []actions.Option) (any, error) {
		return a.GetCookie(ctx, in.str(0))
	}},
	"get_cookies": {run: func(ctx context.Context, a *actions.Actions, _ args, _ []actions.Option) (any, error) {
		return a.GetCookies(ctx)
	}},
	"delete_cookie":      text((*actions.Actions).DeleteCookie),
	"delete_all_cookies": plain((*actions.Actions).DeleteAllCookies),

	// alerts
	"accept_alert":  page((*actions.Actions).AcceptAlert),
	"dismiss_alert": page((*actions.Actions).DismissAlert),
	"get_alert_text": {timed: true, run: func(ctx context.Context, a *actions.Actions, _ args, opts []actions.Option) (any, error) {
		return a.GetAlertText(ctx, opts...)
	}},
	"submit_prompt_alert": pageText((*actions.Actions).SubmitPromptAlert),

	// element interaction
	"click":            element((*actions.Actions).Click),
	"double_click":     element((*actions.Actions).DoubleClick),
	"mouse_hover":      element((*actions.Actions).MouseHover),
	"clear_element":    element((*actions.Actions).Clear),
	"check_element":    element((*actions.Actions).Check),
	"uncheck_element":  element((*actions.Actions).Uncheck),
	"send_keys":        elementText((*actions.Actions).SendKeys),
	"send_secure_keys": elementText((*actions.Actions).SendSecureKeys),
	"press_key":        elementText((*actions.Actions).PressKey),
	"select_option_by_index": {args: []argKind{argElement, argInt}, required: 2, timed: true, run: func(ctx context.Context, a *actions.Actions, in args, opts []actions.Option) (any, error) {
		return nil, a.SelectByIndex(ctx, in.value(0), in.num(1), opts...)
	}},
	"select_option_by_text":  elementText((*actions.Actions).SelectByText),
	"select_option_by_value": elementText((*actions.Actions).SelectByValue),
	"get_element_text": {args: []argKind{argElement}, required: 1, timed: true, run: func(ctx context.Context, a *actions.Actions, in args, opts []actions.Option) (any, error) {
		return a.GetText(ctx, in.value(0), opts...)
	}},
	"get_element_value": {args: []argKind{argElement}, required: 1, timed: true, run: func(ctx context.Context, a *actions.Actions, in args, opts []actions.Option) (any, error) {
		return a.GetValue(ctx, in.value(0), opts...)
	}},
	"get_element_attribute": {args: []argKind{argElement, argString}, required: 2, timed: true, run: func(ctx context.Context, a *actions.Actions, in args, opts []actions.Option) (any, error) {
		return a.GetAttribute(ctx, in.value(0), in.str(1), opts...)
	}},

	// hard checks
	"verify_element_present":          element((*actions.Actions).VerifyElementPresent),
	"verify_element_not_present":      element((*actions.Actions).VerifyElementNotPresent),
	"verify_element_visible":          element((*actions.Actions).VerifyElementVisible),
	"verify_element_not_visible":      element((*actions.Actions).VerifyElementNotVisible),
	"verify_element_enabled":          element((*actions.Actions).VerifyElementEnabled),
	"verify_element_not_enabled":      element((*actions.Actions).VerifyElementNotEnabled),
	"verify_element_checked":          element((*actions.Actions).VerifyElementChecked),
	"verify_element_not_checked":      element((*actions.Actions).VerifyElementNotChecked),
	"verify_element_text":             elementText((*actions.Actions).VerifyElementText),
	"verify_element_text_contains":    elementText((*actions.Actions).VerifyElementTextContains),
	"verify_element_value":            elementText((*actions.Actions).VerifyElementValue),
	"verify_element_attribute":        elementPair((*actions.Actions).VerifyElementAttribute),
	"verify_selected_option_by_text":  elementText((*actions.Actions).VerifySelectedOptionByText),
	"verify_selected_option_by_value": elementText((*actions.Actions).VerifySelectedOptionByValue),
	"verify_text_in_page":             pageText((*actions.Actions).VerifyTextInPage),
	"verify_text_not_in_page":         pageText((*actions.Actions).VerifyTextNotInPage),
	"verify_title":                    pageText((*actions.Actions).VerifyTitle),
	"verify_title_contains":           pageText((*actions.Actions).VerifyTitleContains),
	"verify_url":                      pageText((*actions.Actions).VerifyURL),
	"verify_url_contains":             pageText((*actions.Actions).VerifyURLContains),
	"verify_alert_present":            page((*actions.Actions).VerifyAlertPresent),
	"verify_alert_not_present":        page((*actions.Actions).VerifyAlertNotPresent),

	// soft waits
	"wait_for_element_present":          elementWait((*actions.Actions).WaitForElementPresent),
	"wait_for_element_not_present":      elementWait((*actions.Actions).WaitForElementNotPresent),
	"wait_for_element_visible":          elementWait((*actions.Actions).WaitForElementVisible),
	"wait_for_element_not_visible":      elementWait((*actions.Actions).WaitForElementNotVisible),
	"wait_for_element_enabled":          elementWait((*actions.Actions).WaitForElementEnabled),
	"wait_for_element_not_enabled":      elementWait((*actions.Actions).WaitForElementNotEnabled),
	"wait_for_element_checked":          elementWait((*actions.Actions).WaitForElementChecked),
	"wait_for_element_not_checked":      elementWait((*actions.Actions).WaitForElementNotChecked),
	"wait_for_element_text":             elementTextWait((*actions.Actions).WaitForElementText),
	"wait_for_element_text_contains":    elementTextWait((*actions.Actions).WaitForElementTextContains),
	"wait_for_element_value":            elementTextWait((*actions.Actions).WaitForElementValue),
	"wait_for_element_has_attribute":    elementPairWait((*actions.Actions).WaitForElementHasAttribute),
	"wait_for_selected_option_by_text":  elementTextWait((*actions.Actions).WaitForSelectedOptionByText),
	"wait_for_selected_option_by_value": elementTextWait((*actions.Actions).WaitForSelectedOptionByValue),
	"wait_for_text_in_page":             pageTextWait((*actions.Actions).WaitForTextInPage),
	"wait_for_text_not_in_page":         pageTextWait((*actions.Actions).WaitForTextNotInPage),
	"wait_for_alert_present":            pageWait((*actions.Actions).WaitForAlertPresent),
	"wait_for_alert_not_present":        pageWait((*actions.Actions).WaitForAlertNotPresent),
	"wait_for_title":                    pageTextWait((*actions.Actions).WaitForTitle),
	"wait_for_title_contains":           pageTextWait((*actions.Actions).WaitForTitleContains),
	"wait_for_url":                      pageTextWait((*actions.Actions).WaitForURL),
	"wait_for_url_contains":             pageTextWait((*actions.Actions).WaitForURLContains),

	// data and assertions
	"http_get": {args: []argKind{argString, argMap}, required: 1, run: func(ctx context.Context, a *actions.Actions, in args, _ []actions.Option) (any, error) {
		return a.HTTPGet(ctx, in.str(0), in.headers(1))
	}},
	"http_post": {args: []argKind{argString, argAny, argMap}, required: 1, run: func(ctx context.Context, a *actions.Actions, in args, _ []actions.Option) (any, error) {
		return a.HTTPPost(ctx, in.str(0), in.value(1), in.headers(2))
	}},
	"random_str": {args: []argKind{argInt, argString}, run: func(_ context.Context, a *actions.Actions, in args, _ []actions.Option) (any, error) {
		length := defaultRandomLength
		if in.has(0) {
			length = in.num(0)
		}

		return a.RandomString(length, in.str(1)), nil
	}},
	"random_int": {args: []argKind{argInt, argInt}, run: func(_ context.Context, a *actions.Actions, in args, _ []actions.Option) (any, error) {
		hi := defaultRandomMax
		if in.has(1) {
			hi = in.num(1)
		}

		return a.RandomInt(in.num(0), hi), nil
	}},
	"store": {args: []argKind{argString, argAny}, required: 2, run: func(ctx context.Context, a *actions.Actions, in args, _ []actions.Option) (any, error) {
		a.Store(ctx, in.str(0), in.value(1))

		return in.value(1), nil
	}},
	"description": {args: []argKind{argString}, required: 1, run: func(_ context.Context, a *actions.Actions, in args, _ []actions.Option) (any, error) {
		a.Description(in.str(0))

		return nil, nil
	}},
	"assert_equals": {args: []argKind{argAny, argAny}, required: 2, run: func(ctx context.Context, a *actions.Actions, in args, _ []actions.Option) (any, error) {
		return nil, a.AssertEqual(ctx, in.value(0), in.value(1))
	}},
	"assert_not_equals": {args: []argKind{argAny, argAny}, required: 2, run: func(ctx context.Context, a *actions.Actions, in args, _ []actions.Option) (any, error) {
		return nil, a.AssertNotEqual(ctx, in.value(0), in.value(1))
	}},
	"assert_contains": {args: []argKind{argAny, argString}, required: 2, run: func(ctx context.Context, a *actions.Actions, in args, _ []actions.Option) (any, error) {
		return nil, a.AssertContains(ctx, in.value(0), in.str(1))
	}},
	"assert_true": {args: []argKind{argBool, argString}, required: 1, run: func(ctx context.Context, a *actions.Actions, in args, _ []actions.Option) (any, error) {
		return nil, a.AssertTrue(ctx, in.flag(0), message(in, 1))
	}},
	"assert_false": {args: []argKind{argBool, argString}, required: 1, run: func(ctx context.Context, a *actions.Actions, in args, _ []actions.Option) (any, error) {
		return nil, a.AssertFalse(ctx, in.flag(0), message(in, 1))
	}},
}

func message(in args, i int) string {
	if in.has(i) {
		return in.str(i)
	}

	return "condition"
}
