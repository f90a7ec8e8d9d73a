package actions

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golemhq/golem-sub001/internal/entity"
	"github.com/golemhq/golem-sub001/internal/execution"
	"github.com/golemhq/golem-sub001/internal/ports/portstest"
	"github.com/golemhq/golem-sub001/internal/selector"
	"github.com/golemhq/golem-sub001/pkg/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const poll = 50 * time.Millisecond

var (
	loginButton = selector.MustNew(selector.Css, "#login", "login button")
	password    = selector.MustNew(selector.Id, "password", "password")
	username    = selector.MustNew(selector.Name, "username", "username")
)

func newActions(t *testing.T, settings execution.Settings) (*Actions, *portstest.Driver) {
	t.Helper()

	if settings.PollInterval == 0 {
		settings.PollInterval = poll
	}

	ec := execution.New(execution.Params{
		TestName: "login",
		Settings: settings,
		Factory:  portstest.NewFactory(),
		Logger:   zap.NewNop(),
	})

	a := New(Params{Exec: ec})

	d, err := ec.Browser(context.Background())
	require.NoError(t, err)

	return a, d.(*portstest.Driver)
}

func defaultSettings() execution.Settings {
	return execution.Settings{ImplicitWait: 2 * poll, PollInterval: poll, WaitDisplayed: true}
}

func messages(a *Actions) []string {
	var out []string
	for _, s := range a.Exec().Steps() {
		out = append(out, s.Message)
	}

	return out
}

func TestClick_AppendsStepWithDisplayName(t *testing.T) {
	a, drv := newActions(t, defaultSettings())
	node := &portstest.Node{}
	drv.Add(selector.Css, "#login", node)

	require.NoError(t, a.Click(context.Background(), loginButton))

	assert.Equal(t, 1, node.Clicks())
	assert.Equal(t, []string{"Click login button"}, messages(a))
}

func TestClick_ElementNotFoundAbortsWithoutStep(t *testing.T) {
	a, drv := newActions(t, defaultSettings())

	err := a.Click(context.Background(), loginButton, Timeout(0))

	assert.Equal(t, apperr.CodeElementNotFound, apperr.Code(err))
	assert.Equal(t, 1, drv.Lookups(selector.Css, "#login"))
	assert.Empty(t, a.Exec().Steps())
}

func TestClick_BackendFailure(t *testing.T) {
	a, drv := newActions(t, defaultSettings())
	boom := errors.New("element detached")
	drv.Add(selector.Css, "#login", &portstest.Node{ClickErr: boom})

	err := a.Click(context.Background(), loginButton)

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, apperr.CodeActionFailed, apperr.Code(err))
	name, _ := apperr.Meta(err, apperr.MetaDisplayName)
	assert.Equal(t, "login button", name)
}

func TestInvalidTimeoutFailsBeforeLookup(t *testing.T) {
	a, drv := newActions(t, defaultSettings())

	err := a.Click(context.Background(), loginButton, Timeout("soon"))
	assert.Equal(t, apperr.CodeInvalidTimeout, apperr.Code(err))

	_, err = a.WaitForElementVisible(context.Background(), loginButton, Timeout("soon"))
	assert.Equal(t, apperr.CodeInvalidTimeout, apperr.Code(err))

	assert.Zero(t, drv.Lookups(selector.Css, "#login"))
}

func TestTimeoutOptionAcceptsNumericStrings(t *testing.T) {
	a, drv := newActions(t, defaultSettings())

	start := time.Now()
	err := a.Click(context.Background(), loginButton, Timeout("0.1"))

	assert.True(t, apperr.HasCode(err, apperr.CodeElementNotFound))
	assert.GreaterOrEqual(t, time.Since(start), 2*poll)
	assert.Equal(t, 2, drv.Lookups(selector.Css, "#login"))
}

func TestSendKeys(t *testing.T) {
	a, drv := newActions(t, defaultSettings())
	node := &portstest.Node{}
	drv.Add(selector.Name, "username", node)

	require.NoError(t, a.SendKeys(context.Background(), username, "ana"))

	assert.Equal(t, "ana", node.Val)
	assert.Equal(t, []string{"Write 'ana' in element username"}, messages(a))
}

func TestSendSecureKeys_MasksEveryCharacter(t *testing.T) {
	a, drv := newActions(t, defaultSettings())
	node := &portstest.Node{}
	drv.Add(selector.Id, "password", node)

	secret := "s3cr3t!pä"
	require.NoError(t, a.SendSecureKeys(context.Background(), password, secret))

	assert.Equal(t, secret, node.Val)

	msgs := messages(a)
	require.Len(t, msgs, 1)
	assert.Equal(t, "Write '*********' in element password", msgs[0])
	assert.NotContains(t, msgs[0], "s3cr3t")
}

func TestMask(t *testing.T) {
	assert.Equal(t, "", mask(""))
	assert.Equal(t, "****", mask("abcd"))
	assert.Equal(t, "***", mask("日本語"))
}

func TestElementInteractions(t *testing.T) {
	a, drv := newActions(t, defaultSettings())
	ctx := context.Background()

	field := &portstest.Node{Val: "old"}
	box := &portstest.Node{}
	menu := &portstest.Node{}
	list := &portstest.Node{Options: []portstest.Option{{Text: "Red", Value: "r"}, {Text: "Blue", Value: "b"}}}

	drv.Add(selector.Id, "field", field)
	drv.Add(selector.Id, "terms", box)
	drv.Add(selector.Id, "menu", menu)
	drv.Add(selector.Id, "color", list)

	require.NoError(t, a.Clear(ctx, []string{"id", "field"}))
	require.NoError(t, a.PressKey(ctx, []string{"id", "field"}, "Enter"))
	require.NoError(t, a.Check(ctx, []string{"id", "terms", "terms checkbox"}))
	require.NoError(t, a.VerifyElementChecked(ctx, []string{"id", "terms"}))
	require.NoError(t, a.Uncheck(ctx, []string{"id", "terms", "terms checkbox"}))
	require.NoError(t, a.MouseHover(ctx, []string{"id", "menu"}))
	require.NoError(t, a.DoubleClick(ctx, []string{"id", "menu"}))
	require.NoError(t, a.SelectByText(ctx, []string{"id", "color"}, "Blue"))
	require.NoError(t, a.VerifySelectedOptionByValue(ctx, []string{"id", "color"}, "b"))
	require.NoError(t, a.SelectByIndex(ctx, []string{"id", "color"}, 0))
	require.NoError(t, a.VerifySelectedOptionByText(ctx, []string{"id", "color"}, "Red"))
	require.NoError(t, a.SelectByValue(ctx, []string{"id", "color"}, "b"))

	assert.Empty(t, field.Val)
	assert.Equal(t, []string{"<Enter>"}, field.Keys())
	assert.False(t, box.Checked)
	assert.True(t, menu.Hovered())
	assert.Equal(t, 1, menu.DoubleClicks())
	assert.Equal(t, 1, list.Selected)

	assert.Equal(t, []string{
		"Clear element field",
		"Press key: Enter in element field",
		"Check element terms checkbox",
		"Verify element terms is checked",
		"Uncheck element terms checkbox",
		"Mouse hover element menu",
		"Double click menu",
		"Select 'Blue' from element color",
		"Verify element color has option with value 'b' selected",
		"Select option of index 0 from element color",
		"Verify element color has option 'Red' selected",
		"Select option with value 'b' from element color",
	}, messages(a))
}

func TestSelectMissingOptionFails(t *testing.T) {
	a, drv := newActions(t, defaultSettings())
	drv.Add(selector.Id, "color", &portstest.Node{Options: []portstest.Option{{Text: "Red", Value: "r"}}})

	err := a.SelectByText(context.Background(), []string{"id", "color"}, "Green")
	assert.Equal(t, apperr.CodeActionFailed, apperr.Code(err))
}

func TestGetters(t *testing.T) {
	a, drv := newActions(t, defaultSettings())
	ctx := context.Background()
	drv.Add(selector.Css, ".greeting", &portstest.Node{
		Content: "Hello Ana",
		Val:     "v",
		Attrs:   map[string]string{"data-id": "7"},
	})

	text, err := a.GetText(ctx, ".greeting")
	require.NoError(t, err)
	assert.Equal(t, "Hello Ana", text)

	attr, err := a.GetAttribute(ctx, ".greeting", "data-id")
	require.NoError(t, err)
	assert.Equal(t, "7", attr)

	val, err := a.GetValue(ctx, ".greeting")
	require.NoError(t, err)
	assert.Equal(t, "v", val)
}

func TestNestedElementsAreAccepted(t *testing.T) {
	a, drv := newActions(t, defaultSettings())
	ctx := context.Background()

	form := &portstest.Node{}
	submit := &portstest.Node{}
	form.Children().Add(selector.Css, "button", submit)
	drv.Add(selector.Id, "login-form", form)

	formEl, err := a.Find(ctx, []string{"id", "login-form", "login form"})
	require.NoError(t, err)

	btn, err := formEl.Find(ctx, []string{"css", "button", "submit"}, 0)
	require.NoError(t, err)

	require.NoError(t, a.Click(ctx, btn))
	require.NoError(t, a.VerifyElementVisible(ctx, btn))

	assert.Equal(t, 1, submit.Clicks())
	assert.Equal(t, []string{"Click submit", "Verify element submit is visible"}, messages(a))
}

func TestWaitFor_SoftNeverRaises(t *testing.T) {
	a, drv := newActions(t, defaultSettings())
	ctx := context.Background()
	drv.Add(selector.Css, ".spinner", &portstest.Node{})

	start := time.Now()
	met, err := a.WaitForElementNotVisible(ctx, ".spinner", Timeout(2*poll))

	require.NoError(t, err)
	assert.False(t, met)
	assert.GreaterOrEqual(t, time.Since(start), 2*poll)

	met, err = a.WaitForElementVisible(ctx, "#never", Timeout(0))
	require.NoError(t, err)
	assert.False(t, met)

	met, err = a.WaitForTextInPage(ctx, "Done", Timeout(0))
	require.NoError(t, err)
	assert.False(t, met)
}

func TestWaitFor_MetConditions(t *testing.T) {
	a, drv := newActions(t, defaultSettings())
	ctx := context.Background()

	toast := &portstest.Node{Content: " Saved ", Attrs: map[string]string{"role": "status"}}
	drv.AddAfter(poll, selector.Css, ".toast", toast)
	drv.SetSource("<html><body><p>Saved</p></body></html>")
	drv.TitleText = "Dashboard"
	require.NoError(t, drv.Navigate(ctx, "https://app.test/dashboard"))

	checks := []struct {
		name string
		run  func() (bool, error)
	}{
		{name: "present", run: func() (bool, error) { return a.WaitForElementPresent(ctx, ".toast", Timeout(4*poll)) }},
		{name: "visible", run: func() (bool, error) { return a.WaitForElementVisible(ctx, ".toast") }},
		{name: "enabled", run: func() (bool, error) { return a.WaitForElementEnabled(ctx, ".toast") }},
		{name: "text", run: func() (bool, error) { return a.WaitForElementText(ctx, ".toast", "Saved") }},
		{name: "text contains", run: func() (bool, error) { return a.WaitForElementTextContains(ctx, ".toast", "av") }},
		{name: "attribute", run: func() (bool, error) { return a.WaitForElementHasAttribute(ctx, ".toast", "role", "status") }},
		{name: "not present", run: func() (bool, error) { return a.WaitForElementNotPresent(ctx, ".error") }},
		{name: "text in page", run: func() (bool, error) { return a.WaitForTextInPage(ctx, "Saved") }},
		{name: "text not in page", run: func() (bool, error) { return a.WaitForTextNotInPage(ctx, "Error") }},
		{name: "title", run: func() (bool, error) { return a.WaitForTitle(ctx, "Dashboard") }},
		{name: "title contains", run: func() (bool, error) { return a.WaitForTitleContains(ctx, "Dash") }},
		{name: "url", run: func() (bool, error) { return a.WaitForURL(ctx, "https://app.test/dashboard") }},
		{name: "url contains", run: func() (bool, error) { return a.WaitForURLContains(ctx, "/dashboard") }},
	}

	for _, c := range checks {
		met, err := c.run()
		require.NoError(t, err, c.name)
		assert.True(t, met, c.name)
	}
}

func TestWaitFor_CheckedOptionsAndAlerts(t *testing.T) {
	a, drv := newActions(t, defaultSettings())
	ctx := context.Background()

	drv.Add(selector.Css, "#terms", &portstest.Node{Tag: "input", Checked: true})
	drv.Add(selector.Css, "#news", &portstest.Node{Tag: "input"})
	drv.Add(selector.Css, "#country", &portstest.Node{
		Tag:      "select",
		Val:      "pt",
		Options:  []portstest.Option{{Text: "Spain", Value: "es"}, {Text: "Portugal", Value: "pt"}},
		Selected: 1,
	})

	checks := []struct {
		name string
		run  func() (bool, error)
		want bool
	}{
		{name: "checked", run: func() (bool, error) { return a.WaitForElementChecked(ctx, "#terms") }, want: true},
		{name: "not checked", run: func() (bool, error) { return a.WaitForElementNotChecked(ctx, "#news") }, want: true},
		{name: "checked times out", run: func() (bool, error) { return a.WaitForElementChecked(ctx, "#news", Timeout(0)) }},
		{name: "value", run: func() (bool, error) { return a.WaitForElementValue(ctx, "#country", "pt") }, want: true},
		{name: "option text", run: func() (bool, error) { return a.WaitForSelectedOptionByText(ctx, "#country", "Portugal") }, want: true},
		{name: "option value", run: func() (bool, error) { return a.WaitForSelectedOptionByValue(ctx, "#country", "pt") }, want: true},
		{name: "option text times out", run: func() (bool, error) {
			return a.WaitForSelectedOptionByText(ctx, "#country", "Spain", Timeout(0))
		}},
		{name: "no alert", run: func() (bool, error) { return a.WaitForAlertNotPresent(ctx, Timeout(0)) }, want: true},
	}

	for _, c := range checks {
		met, err := c.run()
		require.NoError(t, err, c.name)
		assert.Equal(t, c.want, met, c.name)
	}

	drv.OpenAlert("Are you sure?")

	met, err := a.WaitForAlertNotPresent(ctx, Timeout(0))
	require.NoError(t, err)
	assert.False(t, met)

	assert.Contains(t, messages(a), "Wait for element #terms to be checked")
	assert.Contains(t, messages(a), "Wait for alert to not be present")
}

func TestVerify_ReleasesEveryPolledNode(t *testing.T) {
	a, drv := newActions(t, defaultSettings())
	ctx := context.Background()

	banner := &portstest.Node{Hidden: true}
	drv.Add(selector.Css, "#banner", banner)

	err := a.VerifyElementVisible(ctx, "#banner", Timeout(2*poll))
	assert.Equal(t, apperr.CodeAssertionFailed, apperr.Code(err))

	lookups := drv.Lookups(selector.Css, "#banner")
	assert.Greater(t, lookups, 1)
	assert.Equal(t, lookups, banner.Releases())

	met, err := a.WaitForElementNotVisible(ctx, "#banner", Timeout(0))
	require.NoError(t, err)
	assert.True(t, met)
	assert.Equal(t, lookups+1, banner.Releases())
}

func TestWaitFor_PropagatesBackendErrors(t *testing.T) {
	a, drv := newActions(t, defaultSettings())
	boom := errors.New("session gone")
	drv.FailWith(boom)

	_, err := a.WaitForElementVisible(context.Background(), ".x", Timeout(0))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, apperr.CodeBackend, apperr.Code(err))
}

func TestVerify_HardRaises(t *testing.T) {
	a, drv := newActions(t, defaultSettings())
	ctx := context.Background()
	drv.Add(selector.Css, ".hidden", &portstest.Node{Hidden: true})

	err := a.VerifyElementVisible(ctx, []string{"css", ".hidden", "banner"}, Timeout(poll))
	assert.Equal(t, apperr.CodeAssertionFailed, apperr.Code(err))
	name, _ := apperr.Meta(err, apperr.MetaDisplayName)
	assert.Equal(t, "banner", name)

	err = a.VerifyElementVisible(ctx, "#missing", Timeout(0))
	assert.Equal(t, apperr.CodeElementNotFound, apperr.Code(err))

	err = a.VerifyElementPresent(ctx, "#missing", Timeout(0))
	assert.Equal(t, apperr.CodeElementNotFound, apperr.Code(err))

	err = a.VerifyElementNotPresent(ctx, ".hidden", Timeout(0))
	assert.Equal(t, apperr.CodeAssertionFailed, apperr.Code(err))

	require.NoError(t, a.VerifyElementNotVisible(ctx, ".hidden", Timeout(0)))
	require.NoError(t, a.VerifyElementNotVisible(ctx, "#missing", Timeout(0)))
}

func TestVerify_ElementValuesCarryExpectedAndActual(t *testing.T) {
	a, drv := newActions(t, defaultSettings())
	ctx := context.Background()
	drv.Add(selector.Css, "h1", &portstest.Node{Content: "Welcome", Val: "x", Attrs: map[string]string{"lang": "en"}})

	err := a.VerifyElementText(ctx, "h1", "Goodbye", Timeout(0))
	assert.Equal(t, apperr.CodeAssertionFailed, apperr.Code(err))
	expected, _ := apperr.Meta(err, apperr.MetaExpected)
	actual, _ := apperr.Meta(err, apperr.MetaActual)
	assert.Equal(t, "Goodbye", expected)
	assert.Equal(t, "Welcome", actual)

	err = a.VerifyElementTextContains(ctx, "h1", "bye", Timeout(0))
	assert.Equal(t, apperr.CodeTextNotPresent, apperr.Code(err))

	err = a.VerifyElementValue(ctx, "h1", "y", Timeout(0))
	assert.Equal(t, apperr.CodeAssertionFailed, apperr.Code(err))

	err = a.VerifyElementAttribute(ctx, "h1", "lang", "fr", Timeout(0))
	actual, _ = apperr.Meta(err, apperr.MetaActual)
	assert.Equal(t, "en", actual)

	require.NoError(t, a.VerifyElementText(ctx, "h1", "Welcome"))
	require.NoError(t, a.VerifyElementTextContains(ctx, "h1", "elc"))
	require.NoError(t, a.VerifyElementValue(ctx, "h1", "x"))
	require.NoError(t, a.VerifyElementAttribute(ctx, "h1", "lang", "en"))
	require.NoError(t, a.VerifyElementEnabled(ctx, "h1"))
}

func TestVerify_EnabledStates(t *testing.T) {
	a, drv := newActions(t, defaultSettings())
	ctx := context.Background()
	btn := &portstest.Node{Disabled: true}
	drv.Add(selector.Id, "save", btn)

	require.NoError(t, a.VerifyElementNotEnabled(ctx, []string{"id", "save"}))

	err := a.VerifyElementEnabled(ctx, []string{"id", "save"}, Timeout(0))
	assert.Equal(t, apperr.CodeAssertionFailed, apperr.Code(err))

	err = a.VerifyElementNotChecked(ctx, []string{"id", "save"}, Timeout(0))
	require.NoError(t, err)
}

func TestVerify_PageChecks(t *testing.T) {
	a, drv := newActions(t, defaultSettings())
	ctx := context.Background()
	drv.SetSource("<html><body><h1>Order confirmed</h1></body></html>")
	drv.TitleText = "Checkout"
	require.NoError(t, drv.Navigate(ctx, "https://shop.test/done"))

	require.NoError(t, a.VerifyTextInPage(ctx, "Order confirmed"))
	require.NoError(t, a.VerifyTextNotInPage(ctx, "Payment failed"))
	require.NoError(t, a.VerifyTitle(ctx, "Checkout"))
	require.NoError(t, a.VerifyTitleContains(ctx, "Check"))
	require.NoError(t, a.VerifyURL(ctx, "https://shop.test/done"))
	require.NoError(t, a.VerifyURLContains(ctx, "/done"))
	require.NoError(t, a.VerifyAlertNotPresent(ctx))

	err := a.VerifyTextInPage(ctx, "Payment failed", Timeout(0))
	assert.Equal(t, apperr.CodeTextNotPresent, apperr.Code(err))
	expected, _ := apperr.Meta(err, apperr.MetaExpected)
	assert.Equal(t, "Payment failed", expected)

	err = a.VerifyTextNotInPage(ctx, "Order", Timeout(0))
	assert.Equal(t, apperr.CodeAssertionFailed, apperr.Code(err))

	err = a.VerifyTitle(ctx, "Cart", Timeout(0))
	actual, _ := apperr.Meta(err, apperr.MetaActual)
	assert.Equal(t, "Checkout", actual)

	err = a.VerifyURL(ctx, "https://shop.test/cart", Timeout(0))
	assert.Equal(t, apperr.CodeAssertionFailed, apperr.Code(err))

	err = a.VerifyAlertPresent(ctx, Timeout(0))
	assert.Equal(t, apperr.CodeAssertionFailed, apperr.Code(err))
}

func TestNavigation(t *testing.T) {
	a, drv := newActions(t, defaultSettings())
	ctx := context.Background()

	require.NoError(t, a.Navigate(ctx, "https://app.test/a"))
	require.NoError(t, a.Navigate(ctx, "https://app.test/b"))
	require.NoError(t, a.GoBack(ctx))
	require.NoError(t, a.Refresh(ctx))
	require.NoError(t, a.GoForward(ctx))

	url, err := a.GetURL(ctx)
	require.NoError(t, err)
	assert.Equal(t, "https://app.test/a", url)
	assert.Equal(t, "https://app.test/a", drv.URL())

	assert.Equal(t, []string{
		"Navigate to: 'https://app.test/a'",
		"Navigate to: 'https://app.test/b'",
		"Go back",
		"Refresh page",
		"Go forward",
	}, messages(a))
}

func TestBrowserSlots(t *testing.T) {
	a, first := newActions(t, defaultSettings())
	ctx := context.Background()

	require.NoError(t, a.OpenBrowser(ctx, "second"))
	require.NoError(t, a.Navigate(ctx, "https://second.test"))
	assert.Equal(t, "about:blank", first.URL())

	require.NoError(t, a.ActivateBrowser(ctx, execution.DefaultSlot))
	require.NoError(t, a.Navigate(ctx, "https://first.test"))
	assert.Equal(t, "https://first.test", first.URL())

	require.NoError(t, a.CloseBrowser(ctx))
	assert.True(t, first.Closed())
	assert.Equal(t, "second", a.Exec().ActiveSlot())

	err := a.ActivateBrowser(ctx, "ghost")
	assert.Equal(t, apperr.CodeNotFound, apperr.Code(err))
}

func TestSetWindowSize(t *testing.T) {
	a, drv := newActions(t, defaultSettings())

	require.NoError(t, a.SetWindowSize(context.Background(), 1024, 768))
	assert.Equal(t, entity.WindowSize{Width: 1024, Height: 768}, drv.Size)

	err := a.SetWindowSize(context.Background(), 0, 768)
	assert.Equal(t, apperr.CodeInvalidArgument, apperr.Code(err))
}

func TestCookies(t *testing.T) {
	a, _ := newActions(t, defaultSettings())
	ctx := context.Background()

	require.NoError(t, a.AddCookie(ctx, entity.Cookie{Name: "session", Value: "abc"}))
	require.NoError(t, a.AddCookie(ctx, entity.Cookie{Name: "theme", Value: "dark"}))

	c, err := a.GetCookie(ctx, "session")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "abc", c.Value)

	missing, err := a.GetCookie(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, a.DeleteCookie(ctx, "session"))
	all, err := a.GetCookies(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "theme", all[0].Name)

	require.NoError(t, a.DeleteAllCookies(ctx))
	all, err = a.GetCookies(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	err = a.AddCookie(ctx, entity.Cookie{Value: "x"})
	assert.Equal(t, apperr.CodeInvalidArgument, apperr.Code(err))
}

func TestAlerts(t *testing.T) {
	a, drv := newActions(t, defaultSettings())
	ctx := context.Background()

	err := a.AcceptAlert(ctx)
	assert.Equal(t, apperr.CodeNotFound, apperr.Code(err))

	drv.OpenAlert("Delete item?")
	require.NoError(t, a.VerifyAlertPresent(ctx))

	text, err := a.GetAlertText(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Delete item?", text)

	require.NoError(t, a.DismissAlert(ctx))
	assert.False(t, drv.AlertPresent(ctx))

	drv.OpenAlert("Your name?")
	require.NoError(t, a.SubmitPromptAlert(ctx, "Ana"))
	assert.Equal(t, "Ana", drv.LastPrompt())

	drv.OpenAlert("ok?")
	require.NoError(t, a.AcceptAlert(ctx))

	met, err := a.WaitForAlertPresent(ctx, Timeout(0))
	require.NoError(t, err)
	assert.False(t, met)
}

func TestHTTPRequestsStoreLastResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Method", r.Method)

		if r.Method == http.MethodPost {
			w.WriteHeader(http.StatusCreated)
			fmt.Fprint(w, r.Header.Get("Content-Type"))

			return
		}

		fmt.Fprint(w, "pong")
	}))
	defer srv.Close()

	a, _ := newActions(t, defaultSettings())
	ctx := context.Background()

	resp, err := a.HTTPGet(ctx, srv.URL+"/ping", map[string]string{"Accept": "text/plain"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "pong", resp.Body)

	stored, ok := a.Retrieve(LastResponseKey)
	require.True(t, ok)
	assert.Equal(t, resp, stored)

	resp, err = a.HTTPPost(ctx, srv.URL+"/items", map[string]any{"name": "x"}, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Body)

	stored, _ = a.Retrieve(LastResponseKey)
	assert.Equal(t, http.StatusCreated, stored.(entity.HTTPResponse).StatusCode)

	_, err = a.HTTPGet(ctx, "http://127.0.0.1:0/unreachable", nil)
	assert.Equal(t, apperr.CodeUnavailable, apperr.Code(err))
}

func TestRandomHelpers(t *testing.T) {
	a, _ := newActions(t, defaultSettings())

	s := a.RandomString(12, "user_")
	assert.Len(t, s, 17)
	assert.True(t, strings.HasPrefix(s, "user_"))

	for range 50 {
		n := a.RandomInt(10, 3)
		assert.GreaterOrEqual(t, n, 3)
		assert.LessOrEqual(t, n, 10)
	}
}

func TestStoreAndAssertions(t *testing.T) {
	a, _ := newActions(t, defaultSettings())
	ctx := context.Background()

	a.Store(ctx, "order_id", 42)
	v, ok := a.Retrieve("order_id")
	require.True(t, ok)

	require.NoError(t, a.AssertEqual(ctx, v, "42"))
	require.NoError(t, a.AssertNotEqual(ctx, v, 41))
	require.NoError(t, a.AssertContains(ctx, "order 42 created", "42"))
	require.NoError(t, a.AssertTrue(ctx, true, "order exists"))
	require.NoError(t, a.AssertFalse(ctx, false, "order deleted"))

	err := a.AssertEqual(ctx, 1, 2)
	assert.Equal(t, apperr.CodeAssertionFailed, apperr.Code(err))
	expected, _ := apperr.Meta(err, apperr.MetaExpected)
	assert.Equal(t, 2, expected)

	assert.Error(t, a.AssertNotEqual(ctx, "a", "a"))
	assert.Error(t, a.AssertContains(ctx, "abc", "z"))
	assert.Error(t, a.AssertTrue(ctx, false, "flag"))
	assert.Error(t, a.AssertFalse(ctx, true, "flag"))

	assert.Equal(t, "Store value '42' in key 'order_id'", messages(a)[0])
}

func TestExecuteJSAndScreenshots(t *testing.T) {
	dir := t.TempDir()
	settings := defaultSettings()
	settings.ScreenshotOnStep = true
	settings.ScreenshotDir = dir

	a, drv := newActions(t, settings)
	ctx := context.Background()

	_, err := a.ExecuteJS(ctx, "return document.title")
	require.NoError(t, err)
	assert.Equal(t, []string{"return document.title"}, drv.Scripts)

	require.NoError(t, a.TakeScreenshot(ctx, ""))
	a.Step(ctx, "custom note")

	steps := a.Exec().Steps()
	require.Len(t, steps, 3)

	for _, s := range steps {
		assert.FileExists(t, s.Screenshot)
	}

	assert.Equal(t, "Take screenshot", steps[1].Message)
	assert.Equal(t, 3, drv.Screenshots())
}

func TestWait(t *testing.T) {
	a, _ := newActions(t, defaultSettings())

	start := time.Now()
	require.NoError(t, a.Wait(context.Background(), "0.05"))
	assert.GreaterOrEqual(t, time.Since(start), poll)

	err := a.Wait(context.Background(), "a while")
	assert.Equal(t, apperr.CodeInvalidTimeout, apperr.Code(err))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, a.Wait(ctx, 5), context.Canceled)
}

func TestLoginScenario(t *testing.T) {
	a, drv := newActions(t, execution.Settings{ImplicitWait: 3 * poll * 4, PollInterval: poll, WaitDisplayed: true})
	ctx := context.Background()

	drv.Add(selector.Name, "username", &portstest.Node{})
	drv.Add(selector.Id, "password", &portstest.Node{})
	button := &portstest.Node{}
	drv.AddAfter(poll*12/5, selector.Css, "#login", button)

	require.NoError(t, a.Navigate(ctx, "https://app.test/login"))
	require.NoError(t, a.SendKeys(ctx, username, "ana"))
	require.NoError(t, a.SendSecureKeys(ctx, password, "hunter2"))
	require.NoError(t, a.Click(ctx, loginButton))

	assert.Equal(t, 1, button.Clicks())
	assert.Equal(t, []string{
		"Navigate to: 'https://app.test/login'",
		"Write 'ana' in element username",
		"Write '*******' in element password",
		"Click login button",
	}, messages(a))
}
