package script

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/golemhq/golem-sub001/internal/execution"
	"github.com/golemhq/golem-sub001/pkg/apperr"
)

var inlineRef = regexp.MustCompile(`\$\{([A-Za-z0-9_.-]+)\}`)

// expand substitutes data placeholders in v. A string that is exactly "$key"
// becomes the value itself (keeping stored values typed); "${key}" is
// interpolated anywhere inside a string. "$$" escapes a literal dollar.
// Keys resolve from the data row first, then from stored data.
func expand(ec *execution.Context, v any) (any, error) {
	const op = "script.expand"

	switch t := v.(type) {
	case string:
		if strings.HasPrefix(t, "$$") {
			return t[1:], nil
		}

		if key, ok := wholeRef(t); ok {
			if row, ok := ec.Row()[key]; ok {
				return row, nil
			}

			if stored, ok := ec.Retrieve(key); ok {
				return stored, nil
			}

			return nil, unknownKey(op, key)
		}

		var missing string

		out := inlineRef.ReplaceAllStringFunc(t, func(m string) string {
			key := m[2 : len(m)-1]

			val, ok := ec.Lookup(key)
			if !ok && missing == "" {
				missing = key
			}

			return val
		})

		if missing != "" {
			return nil, unknownKey(op, missing)
		}

		return out, nil
	case []any:
		out := make([]any, len(t))

		for i, item := range t {
			e, err := expand(ec, item)
			if err != nil {
				return nil, err
			}

			out[i] = e
		}

		return out, nil
	case map[string]any:
		out := make(map[string]any, len(t))

		for k, item := range t {
			e, err := expand(ec, item)
			if err != nil {
				return nil, err
			}

			out[k] = e
		}

		return out, nil
	default:
		return v, nil
	}
}

func wholeRef(s string) (string, bool) {
	if len(s) < 2 || s[0] != '$' || s[1] == '{' {
		return "", false
	}

	key := s[1:]
	if strings.ContainsAny(key, " \t$") {
		return "", false
	}

	return key, true
}

func unknownKey(op, key string) error {
	return apperr.Wrap(op, apperr.CodeNotFound, fmt.Errorf("no data or stored value for $%s", key), map[string]any{
		apperr.MetaReason: "unknown_placeholder",
		apperr.MetaField:  key,
	})
}
