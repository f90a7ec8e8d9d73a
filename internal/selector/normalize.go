package selector

import (
	"fmt"

	"github.com/golemhq/golem-sub001/pkg/apperr"
)

// Normalize builds a Selector from any accepted input form:
//
//   - Selector or *Selector
//   - a bare string, treated as CSS
//   - a (kind, value[, name]) triple as []string, [2]string or [3]string
//   - a Definition
//   - a Resolved element, whose own selector is returned
func Normalize(input any) (Selector, error) {
	const op = "Normalize"

	switch v := input.(type) {
	case Selector:
		if v.IsZero() {
			return Selector{}, invalidInput(op, input)
		}

		return New(v.kind, v.value, v.displayName)
	case *Selector:
		if v == nil {
			return Selector{}, invalidInput(op, input)
		}

		return Normalize(*v)
	case Resolved:
		sel := v.Selector()
		if sel.IsZero() {
			return Selector{}, invalidInput(op, input)
		}

		return sel, nil
	case string:
		return New(Css, v, "")
	case Definition:
		return fromParts(v.Kind, v.Value, v.Name)
	case *Definition:
		if v == nil {
			return Selector{}, invalidInput(op, input)
		}

		return fromParts(v.Kind, v.Value, v.Name)
	case [2]string:
		return fromParts(v[0], v[1], "")
	case [3]string:
		return fromParts(v[0], v[1], v[2])
	case []string:
		switch len(v) {
		case 2:
			return fromParts(v[0], v[1], "")
		case 3:
			return fromParts(v[0], v[1], v[2])
		}
	case []any:
		parts := make([]string, 0, len(v))

		for _, p := range v {
			s, ok := p.(string)
			if !ok {
				return Selector{}, invalidInput(op, input)
			}

			parts = append(parts, s)
		}

		return Normalize(parts)
	}

	return Selector{}, invalidInput(op, input)
}

func fromParts(kind, value, name string) (Selector, error) {
	k, err := ParseKind(kind)
	if err != nil {
		return Selector{}, err
	}

	return New(k, value, name)
}

func invalidInput(op string, input any) error {
	return apperr.Wrap(op, apperr.CodeInvalidSelectorKind, fmt.Errorf("cannot build a selector from %T", input), map[string]any{
		apperr.MetaReason: "unsupported_input",
	})
}
