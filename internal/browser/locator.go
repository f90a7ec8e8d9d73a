package browser

import (
	"fmt"
	"strconv"

	"github.com/golemhq/golem-sub001/internal/selector"
	"github.com/golemhq/golem-sub001/pkg/apperr"
)

// Locator translates a selector kind and value into a playwright selector.
func Locator(kind selector.Kind, value string) (string, error) {
	const op = "Locator"

	switch kind {
	case selector.Id:
		return "id=" + value, nil
	case selector.Css, selector.TagName:
		return "css=" + value, nil
	case selector.XPath:
		return "xpath=" + value, nil
	case selector.LinkText:
		return "css=a:text-is(" + strconv.Quote(value) + ")", nil
	case selector.PartialLinkText:
		return "css=a:has-text(" + strconv.Quote(value) + ")", nil
	case selector.Name:
		return "css=[name=" + strconv.Quote(value) + "]", nil
	case selector.Text:
		return "text=" + strconv.Quote(value), nil
	default:
		return "", apperr.Wrap(op, apperr.CodeInvalidSelectorKind, fmt.Errorf("unsupported selector kind %q", kind), map[string]any{
			apperr.MetaReason:   "unsupported_kind",
			apperr.MetaKind:     string(kind),
			apperr.MetaSelector: value,
		})
	}
}
