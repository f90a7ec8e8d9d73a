package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCode_PrefersTaxonomyCode(t *testing.T) {
	inner := Wrap("ResolveOne", CodeElementNotFound, errors.New("no such element"), nil)
	outer := Wrap("Click", CodeActionFailed, inner, nil)

	assert.Equal(t, CodeElementNotFound, Code(outer))
	assert.True(t, HasCode(outer, CodeActionFailed))
	assert.True(t, HasCode(outer, CodeElementNotFound))
	assert.False(t, HasCode(outer, CodeTextNotPresent))
}

func TestCode_FallsBackToOutermost(t *testing.T) {
	err := Wrap("Navigate", CodeBackend, Wrap("goto", CodeInternal, errors.New("boom"), nil), nil)

	assert.Equal(t, CodeBackend, Code(err))
	assert.Equal(t, "", Code(errors.New("plain")))
	assert.Equal(t, "", Code(nil))
}

func TestCode_ThroughFmtWrapping(t *testing.T) {
	err := fmt.Errorf("step 3: %w", AssertionError("VerifyTitle", "title mismatch", "Home", "Login"))

	assert.Equal(t, CodeAssertionFailed, Code(err))

	expected, ok := Meta(err, MetaExpected)
	assert.True(t, ok)
	assert.Equal(t, "Home", expected)

	actual, ok := Meta(err, MetaActual)
	assert.True(t, ok)
	assert.Equal(t, "Login", actual)
}

func TestError_Message(t *testing.T) {
	err := WrapErrorWithReason("Open", CodeBrowserNotReady, "browser_not_ready")

	assert.Equal(t, "Open: browser_not_ready", err.Error())

	var e *Error
	assert.True(t, errors.As(err, &e))
	assert.Equal(t, "browser_not_ready", e.Metadata[MetaReason])
}
