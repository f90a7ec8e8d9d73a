package selector

import (
	"testing"

	"github.com/golemhq/golem-sub001/pkg/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type resolvedStub struct{ sel Selector }

func (r resolvedStub) Selector() Selector { return r.sel }

func TestNormalize_RoundTripsEveryKind(t *testing.T) {
	for _, kind := range Kinds {
		t.Run(string(kind), func(t *testing.T) {
			sel, err := New(kind, "value", "")
			require.NoError(t, err)

			got, err := Normalize(sel)
			require.NoError(t, err)
			assert.Equal(t, kind, got.Kind())

			got, err = Normalize([]string{string(kind), "value"})
			require.NoError(t, err)
			assert.Equal(t, kind, got.Kind())
			assert.Equal(t, "value", got.DisplayName())
		})
	}
}

func TestNormalize_InputForms(t *testing.T) {
	login := MustNew(Css, "#login", "login button")

	tests := []struct {
		name    string
		input   any
		kind    Kind
		value   string
		display string
	}{
		{name: "bare string is css", input: ".item", kind: Css, value: ".item", display: ".item"},
		{name: "selector value", input: login, kind: Css, value: "#login", display: "login button"},
		{name: "selector pointer", input: &login, kind: Css, value: "#login", display: "login button"},
		{name: "pair", input: [2]string{"id", "user"}, kind: Id, value: "user", display: "user"},
		{name: "triple", input: [3]string{"xpath", "//a", "first link"}, kind: XPath, value: "//a", display: "first link"},
		{name: "slice triple", input: []string{"link_text", "Home", "home link"}, kind: LinkText, value: "Home", display: "home link"},
		{name: "any slice from yaml", input: []any{"name", "q"}, kind: Name, value: "q", display: "q"},
		{name: "definition", input: Definition{Kind: "tag_name", Value: "h1", Name: "title"}, kind: TagName, value: "h1", display: "title"},
		{name: "alias spelling", input: []string{"Partial-Link-Text", "Sign"}, kind: PartialLinkText, value: "Sign", display: "Sign"},
		{name: "resolved element passes through", input: resolvedStub{sel: login}, kind: Css, value: "#login", display: "login button"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, got.Kind())
			assert.Equal(t, tt.value, got.Value())
			assert.Equal(t, tt.display, got.DisplayName())
		})
	}
}

func TestNormalize_RejectsUnsupported(t *testing.T) {
	tests := []struct {
		name  string
		input any
	}{
		{name: "unknown kind", input: []string{"class_name", "btn"}},
		{name: "empty kind", input: [2]string{"", "btn"}},
		{name: "wrong arity", input: []string{"css"}},
		{name: "number", input: 42},
		{name: "nil", input: nil},
		{name: "zero selector", input: Selector{}},
		{name: "non-string tuple member", input: []any{"css", 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(tt.input)
			require.Error(t, err)
			assert.Equal(t, apperr.CodeInvalidSelectorKind, apperr.Code(err))
		})
	}
}

func TestNew_EmptyValue(t *testing.T) {
	_, err := New(Css, "", "x")
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, apperr.CodeInvalidArgument))
}

func TestKind_UnmarshalText(t *testing.T) {
	var k Kind
	require.NoError(t, k.UnmarshalText([]byte("XPATH")))
	assert.Equal(t, XPath, k)

	err := k.UnmarshalText([]byte("shadow"))
	assert.True(t, apperr.HasCode(err, apperr.CodeInvalidSelectorKind))
}

func TestSelector_String(t *testing.T) {
	assert.Equal(t, "css=.item", MustNew(Css, ".item", "").String())
	assert.Equal(t, "login button (css=#login)", MustNew(Css, "#login", "login button").String())
}
