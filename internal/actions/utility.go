package actions

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"strings"

	"github.com/golemhq/golem-sub001/internal/entity"
	"github.com/golemhq/golem-sub001/pkg/apperr"
	"github.com/golemhq/golem-sub001/pkg/logg"
	"go.uber.org/zap"
)

const randomAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// HTTPGet performs a GET request and stores the response under
// LastResponseKey.
func (a *Actions) HTTPGet(ctx context.Context, url string, headers map[string]string) (resp entity.HTTPResponse, err error) {
	err = a.do(ctx, "HTTPGet", func(ctx context.Context) error {
		resp, err = a.request(ctx, "HTTPGet", http.MethodGet, url, nil, headers)
		if err != nil {
			return err
		}

		a.step(ctx, "Make a GET request to %s", url)

		return nil
	})

	return resp, err
}

// HTTPPost sends body as is when it is a string or []byte, and as JSON
// otherwise. The response is stored under LastResponseKey.
func (a *Actions) HTTPPost(ctx context.Context, url string, body any, headers map[string]string) (resp entity.HTTPResponse, err error) {
	const op = "HTTPPost"

	err = a.do(ctx, op, func(ctx context.Context) error {
		var payload []byte

		switch b := body.(type) {
		case nil:
		case string:
			payload = []byte(b)
		case []byte:
			payload = b
		default:
			payload, err = json.Marshal(b)
			if err != nil {
				return apperr.InvalidReqError(op, "body", err)
			}

			headers = withDefault(headers, "Content-Type", "application/json")
		}

		resp, err = a.request(ctx, op, http.MethodPost, url, payload, headers)
		if err != nil {
			return err
		}

		a.step(ctx, "Make a POST request to %s", url)

		return nil
	})

	return resp, err
}

func withDefault(headers map[string]string, key, value string) map[string]string {
	out := make(map[string]string, len(headers)+1)
	for k, v := range headers {
		out[k] = v
	}

	if _, ok := out[key]; !ok {
		out[key] = value
	}

	return out
}

func (a *Actions) request(ctx context.Context, op, method, url string, body []byte, headers map[string]string) (entity.HTTPResponse, error) {
	logger := a.logger.With(zap.String(logg.Operation, op), zap.String(logg.URL, url))

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return entity.HTTPResponse{}, apperr.InvalidReqError(op, "url", err)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	res, err := a.client.Do(req)
	if err != nil {
		return entity.HTTPResponse{}, apperr.Wrap(op, apperr.CodeUnavailable, err, map[string]any{
			apperr.MetaReason: "request_failed",
			apperr.MetaStage:  apperr.StageHTTP,
			apperr.MetaURL:    url,
		})
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return entity.HTTPResponse{}, apperr.Wrap(op, apperr.CodeUnavailable, err, map[string]any{
			apperr.MetaReason: "read_body_failed",
			apperr.MetaStage:  apperr.StageHTTP,
			apperr.MetaURL:    url,
		})
	}

	resp := entity.HTTPResponse{
		URL:        url,
		StatusCode: res.StatusCode,
		Header:     res.Header,
		Body:       string(data),
	}

	a.exec.Store(LastResponseKey, resp)
	logger.Debug("HTTP request done", zap.Int("status", res.StatusCode))

	return resp, nil
}

// RandomString returns prefix followed by length random alphanumerics.
func (a *Actions) RandomString(length int, prefix string) string {
	var sb strings.Builder

	sb.WriteString(prefix)

	for range length {
		sb.WriteByte(randomAlphabet[rand.IntN(len(randomAlphabet))])
	}

	return sb.String()
}

// RandomInt returns a number in [min, max]. Swapped bounds are accepted.
func (a *Actions) RandomInt(lo, hi int) int {
	if lo > hi {
		lo, hi = hi, lo
	}

	return lo + rand.IntN(hi-lo+1)
}

func (a *Actions) Store(ctx context.Context, key string, value any) {
	a.exec.Store(key, value)
	a.step(ctx, "Store value '%v' in key '%s'", value, key)
}

func (a *Actions) Retrieve(key string) (any, bool) {
	return a.exec.Retrieve(key)
}

// Description sets the human readable description of the running test.
func (a *Actions) Description(description string) {
	a.exec.SetDescription(description)
}

// AssertEqual fails with an assertion error when actual and expected differ.
// Values are compared by their printed form so "3" equals 3.
func (a *Actions) AssertEqual(ctx context.Context, actual, expected any) error {
	const op = "AssertEqual"

	return a.do(ctx, op, func(ctx context.Context) error {
		a.step(ctx, "Assert that %v equals %v", actual, expected)

		if fmt.Sprint(actual) != fmt.Sprint(expected) {
			return apperr.AssertionError(op, fmt.Sprintf("expected %v to equal %v", actual, expected), expected, actual)
		}

		return nil
	})
}

func (a *Actions) AssertNotEqual(ctx context.Context, actual, unexpected any) error {
	const op = "AssertNotEqual"

	return a.do(ctx, op, func(ctx context.Context) error {
		a.step(ctx, "Assert that %v does not equal %v", actual, unexpected)

		if fmt.Sprint(actual) == fmt.Sprint(unexpected) {
			return apperr.AssertionError(op, fmt.Sprintf("expected %v to not equal %v", actual, unexpected), unexpected, actual)
		}

		return nil
	})
}

func (a *Actions) AssertContains(ctx context.Context, container any, item string) error {
	const op = "AssertContains"

	return a.do(ctx, op, func(ctx context.Context) error {
		a.step(ctx, "Assert that %v contains %s", container, item)

		got := fmt.Sprint(container)
		if !strings.Contains(got, item) {
			return apperr.AssertionError(op, fmt.Sprintf("expected %q to contain %q", got, item), item, got)
		}

		return nil
	})
}

func (a *Actions) AssertTrue(ctx context.Context, condition bool, message string) error {
	const op = "AssertTrue"

	return a.do(ctx, op, func(ctx context.Context) error {
		a.step(ctx, "Assert that %s is true", message)

		if !condition {
			return apperr.AssertionError(op, message+" is false", true, false)
		}

		return nil
	})
}

func (a *Actions) AssertFalse(ctx context.Context, condition bool, message string) error {
	const op = "AssertFalse"

	return a.do(ctx, op, func(ctx context.Context) error {
		a.step(ctx, "Assert that %s is false", message)

		if condition {
			return apperr.AssertionError(op, message+" is true", false, true)
		}

		return nil
	})
}
