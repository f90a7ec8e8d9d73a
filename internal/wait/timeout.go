package wait

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/golemhq/golem-sub001/pkg/apperr"
)

// ParseTimeout converts a caller supplied timeout into a duration. Plain
// numbers, and strings holding plain numbers, are seconds. Durations and
// duration strings ("1500ms") are taken as is. Anything else, including
// negative or non-finite values, is an InvalidTimeout error.
func ParseTimeout(v any) (time.Duration, error) {
	const op = "ParseTimeout"

	var secs float64

	switch t := v.(type) {
	case time.Duration:
		if t < 0 {
			return 0, invalidTimeout(op, v)
		}

		return t, nil
	case int:
		secs = float64(t)
	case int32:
		secs = float64(t)
	case int64:
		secs = float64(t)
	case uint:
		secs = float64(t)
	case float32:
		secs = float64(t)
	case float64:
		secs = t
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0, invalidTimeout(op, v)
		}

		secs = f
	case string:
		s := strings.TrimSpace(t)

		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			d, derr := time.ParseDuration(s)
			if derr != nil || d < 0 {
				return 0, invalidTimeout(op, v)
			}

			return d, nil
		}

		secs = f
	default:
		return 0, invalidTimeout(op, v)
	}

	if math.IsNaN(secs) || math.IsInf(secs, 0) || secs < 0 {
		return 0, invalidTimeout(op, v)
	}

	if secs >= maxSeconds {
		return 0, invalidTimeout(op, v)
	}

	return time.Duration(secs * float64(time.Second)), nil
}

// maxSeconds is the largest budget a time.Duration can hold.
var maxSeconds = float64(math.MaxInt64) / float64(time.Second)

func invalidTimeout(op string, v any) error {
	return apperr.Wrap(op, apperr.CodeInvalidTimeout, fmt.Errorf("invalid timeout %v (%T)", v, v), map[string]any{
		apperr.MetaReason:  "not_numeric",
		apperr.MetaTimeout: fmt.Sprint(v),
	})
}
