// Package report writes suite results as a JSON document.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/golemhq/golem-sub001/internal/entity"
	"github.com/golemhq/golem-sub001/pkg/apperr"
	"github.com/google/uuid"
)

type Totals struct {
	Total   int `json:"total"`
	Success int `json:"success"`
	Failure int `json:"failure"`
	Error   int `json:"error"`
}

type Report struct {
	ID         uuid.UUID           `json:"id"`
	Suite      string              `json:"suite"`
	StartedAt  time.Time           `json:"started_at"`
	FinishedAt time.Time           `json:"finished_at"`
	Totals     Totals              `json:"totals"`
	Results    []entity.TestResult `json:"results"`
}

func New(suite string, started time.Time, results []entity.TestResult) *Report {
	r := &Report{
		ID:         uuid.New(),
		Suite:      suite,
		StartedAt:  started,
		FinishedAt: time.Now(),
		Results:    results,
	}

	for _, res := range results {
		r.Totals.Total++

		switch res.Status {
		case entity.ResultStatusSuccess:
			r.Totals.Success++
		case entity.ResultStatusFailure:
			r.Totals.Failure++
		default:
			r.Totals.Error++
		}
	}

	return r
}

// Passed reports whether every test instance succeeded.
func (r *Report) Passed() bool {
	return r.Totals.Success == r.Totals.Total
}

func (r *Report) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(r)
}

// WriteFile writes the report to path, creating parent directories.
func (r *Report) WriteFile(path string) error {
	const op = "report.WriteFile"

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "mkdir_failed",
			apperr.MetaField:  path,
		})
	}

	f, err := os.Create(path)
	if err != nil {
		return apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "create_failed",
			apperr.MetaField:  path,
		})
	}
	defer f.Close()

	if err := r.Encode(f); err != nil {
		return apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "encode_failed",
			apperr.MetaField:  path,
		})
	}

	return nil
}

// Summary is the one-line outcome printed by the CLI.
func (r *Report) Summary() string {
	return fmt.Sprintf("%s: %d tests, %d passed, %d failed, %d errors in %s",
		r.Suite, r.Totals.Total, r.Totals.Success, r.Totals.Failure, r.Totals.Error,
		r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))
}
