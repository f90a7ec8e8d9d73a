package apperr

import (
	"errors"
	"fmt"
)

const (
	MetaReason      = "reason"
	MetaStage       = "stage"
	MetaField       = "field"
	MetaTestName    = "test_name"
	MetaAction      = "action"
	MetaSelector    = "selector"
	MetaKind        = "selector_kind"
	MetaDisplayName = "display_name"
	MetaRoot        = "root"
	MetaURL         = "url"
	MetaExpected    = "expected"
	MetaActual      = "actual"
	MetaTimeout     = "timeout"
	MetaSlot        = "browser_slot"

	StagePreparation = "preparation"
	StageBrowser     = "browser"
	StageResolution  = "resolution"
	StageWait        = "wait"
	StageExecution   = "execution"
	StageScreenshot  = "screenshot"
	StageNavigation  = "navigation"
	StageInteraction = "interaction"
	StageVerify      = "verify"
	StageHTTP        = "http"

	CodeInternal        = "internal"
	CodeInvalidArgument = "invalid_argument"
	CodeNotFound        = "not_found"
	CodeUnavailable     = "unavailable"
	CodeTimeout         = "timeout"
	CodeBrowserNotReady = "browser_not_ready"
	CodeActionFailed    = "action_failed"
	CodeBackend         = "backend_error"

	CodeInvalidSelectorKind = "invalid_selector_kind"
	CodeElementNotFound     = "element_not_found"
	CodeTextNotPresent      = "text_not_present"
	CodeAssertionFailed     = "assertion_failed"
	CodeInvalidTimeout      = "invalid_timeout"
)

type Error struct {
	Op       string
	Code     string
	Err      error
	Metadata map[string]any
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}

	return e.Op
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Wrap(op, code string, err error, metadata map[string]any) error {
	if metadata == nil {
		metadata = make(map[string]any)
	}

	return &Error{
		Op:       op,
		Code:     code,
		Err:      err,
		Metadata: metadata,
	}
}

func WrapWithReason(op, code string, err error, reason string) error {
	return Wrap(op, code, err, map[string]any{
		MetaReason: reason,
	})
}

func WrapErrorWithReason(op, code, reason string) error {
	return Wrap(op, code, errors.New(reason), map[string]any{
		MetaReason: reason,
	})
}

func InvalidReqError(op, field string, err error) error {
	return Wrap(op, CodeInvalidArgument, err, map[string]any{
		MetaField:  field,
		MetaReason: "invalid_request",
	})
}

func NotFoundError(op string, err error) error {
	return Wrap(op, CodeNotFound, err, map[string]any{
		MetaReason: "not_found",
	})
}

// AssertionError reports an expected/actual mismatch.
func AssertionError(op, message string, expected, actual any) error {
	return Wrap(op, CodeAssertionFailed, errors.New(message), map[string]any{
		MetaReason:   "assertion_failed",
		MetaStage:    StageVerify,
		MetaExpected: expected,
		MetaActual:   actual,
	})
}

// Code returns the code of the outermost *Error in the chain whose code is
// one of the kernel taxonomy codes, falling back to the outermost code.
func Code(err error) string {
	var outer string

	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			break
		}

		if outer == "" {
			outer = e.Code
		}

		if isTaxonomy(e.Code) {
			return e.Code
		}

		err = e.Err
	}

	return outer
}

// HasCode reports whether any *Error in the chain carries code.
func HasCode(err error, code string) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}

		if e.Code == code {
			return true
		}

		err = e.Err
	}

	return false
}

// Meta returns the first metadata value stored under key along the chain.
func Meta(err error, key string) (any, bool) {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return nil, false
		}

		if v, ok := e.Metadata[key]; ok {
			return v, true
		}

		err = e.Err
	}

	return nil, false
}

func isTaxonomy(code string) bool {
	switch code {
	case CodeInvalidSelectorKind, CodeElementNotFound, CodeTextNotPresent, CodeAssertionFailed, CodeInvalidTimeout:
		return true
	}

	return false
}
