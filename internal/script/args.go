package script

import (
	"fmt"
	"math"
	"strconv"

	"github.com/golemhq/golem-sub001/internal/entity"
	"github.com/golemhq/golem-sub001/internal/pageobject"
	"github.com/golemhq/golem-sub001/internal/selector"
	"github.com/golemhq/golem-sub001/pkg/apperr"
	"gopkg.in/yaml.v3"
)

type argKind int

const (
	argAny argKind = iota
	argString
	argInt
	argBool
	argElement
	argMap
)

func (k argKind) String() string {
	switch k {
	case argString:
		return "string"
	case argInt:
		return "integer"
	case argBool:
		return "boolean"
	case argElement:
		return "element"
	case argMap:
		return "mapping"
	default:
		return "value"
	}
}

// args holds converted call arguments. Accessors return the zero value for
// omitted optional arguments.
type args []any

func (a args) has(i int) bool {
	return i < len(a)
}

func (a args) value(i int) any {
	if !a.has(i) {
		return nil
	}

	return a[i]
}

func (a args) str(i int) string {
	s, _ := a.value(i).(string)

	return s
}

func (a args) num(i int) int {
	n, _ := a.value(i).(int)

	return n
}

func (a args) flag(i int) bool {
	b, _ := a.value(i).(bool)

	return b
}

func (a args) mapping(i int) map[string]any {
	m, _ := a.value(i).(map[string]any)

	return m
}

func (a args) headers(i int) map[string]string {
	m := a.mapping(i)
	if m == nil {
		return nil
	}

	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = fmt.Sprint(v)
	}

	return out
}

func (a args) rest(i int) []any {
	if !a.has(i) {
		return nil
	}

	return a[i:]
}

func convert(kind argKind, v any, pages *pageobject.Registry) (any, error) {
	switch kind {
	case argString:
		switch t := v.(type) {
		case string:
			return t, nil
		case int, int64, float64, bool:
			return fmt.Sprint(t), nil
		}
	case argInt:
		switch t := v.(type) {
		case int:
			return t, nil
		case int64:
			return int(t), nil
		case float64:
			if t == math.Trunc(t) {
				return int(t), nil
			}
		case string:
			if n, err := strconv.Atoi(t); err == nil {
				return n, nil
			}
		}
	case argBool:
		switch t := v.(type) {
		case bool:
			return t, nil
		case string:
			if b, err := strconv.ParseBool(t); err == nil {
				return b, nil
			}
		}
	case argMap:
		if m, ok := v.(map[string]any); ok {
			return m, nil
		}
	case argElement:
		return toElement(v, pages)
	default:
		return v, nil
	}

	return nil, fmt.Errorf("expected %s, got %T", kind, v)
}

// toElement turns a "page.element" reference into its selector. Everything else
// is handed to the resolver as written.
func toElement(v any, pages *pageobject.Registry) (any, error) {
	switch t := v.(type) {
	case string:
		if pages == nil {
			return t, nil
		}

		sel, ok, err := pages.Lookup(t)
		if err != nil {
			return nil, err
		}

		if ok {
			return sel, nil
		}

		return t, nil
	case map[string]any:
		// Absent or non-string fields stay empty so the selector is rejected
		// when normalized.
		kind, _ := t["kind"].(string)
		value, _ := t["value"].(string)
		name, _ := t["name"].(string)

		return selector.Definition{Kind: kind, Value: value, Name: name}, nil
	case []any:
		return t, nil
	case selector.Selector:
		return t, nil
	}

	return nil, fmt.Errorf("expected element, got %T", v)
}

// cookie builds a cookie from a mapping argument such as
// {name: session, value: abc, domain: example.com}.
func cookie(m map[string]any) (entity.Cookie, error) {
	const op = "script.cookie"

	raw, err := yaml.Marshal(m)
	if err != nil {
		return entity.Cookie{}, err
	}

	var c entity.Cookie
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return entity.Cookie{}, apperr.InvalidReqError(op, "cookie", err)
	}

	return c, nil
}
