package entity

import (
	"time"

	"github.com/google/uuid"
)

// Step is one entry of a test's execution log. Steps are never modified
// after being appended.
type Step struct {
	ID         uuid.UUID `json:"id"`
	Message    string    `json:"message"`
	Timestamp  time.Time `json:"timestamp"`
	Screenshot string    `json:"screenshot,omitempty"`
}

// DataRow is the input data set a single test instance runs with.
type DataRow map[string]string

type ResultStatus string

const (
	ResultStatusPending ResultStatus = "pending"
	ResultStatusSuccess ResultStatus = "success"
	ResultStatusFailure ResultStatus = "failure"
	ResultStatusError   ResultStatus = "error"
)

// TestResult is the record produced for every executed test instance.
type TestResult struct {
	RunID       uuid.UUID      `json:"run_id"`
	Name        string         `json:"name"`
	SetIndex    int            `json:"set_index"`
	Data        DataRow        `json:"data,omitempty"`
	Description string         `json:"description,omitempty"`
	Status      ResultStatus   `json:"status"`
	Steps       []Step         `json:"steps"`
	Error       string         `json:"error,omitempty"`
	ErrorCode   string         `json:"error_code,omitempty"`
	ErrorMeta   map[string]any `json:"error_meta,omitempty"`
	Trace       string         `json:"trace,omitempty"`
	Browsers    []string       `json:"browsers,omitempty"`
	StartedAt   time.Time      `json:"started_at"`
	Duration    time.Duration  `json:"duration"`
}

type SameSite string

const (
	SameSiteStrict SameSite = "Strict"
	SameSiteLax    SameSite = "Lax"
	SameSiteNone   SameSite = "None"
)

type Cookie struct {
	Name     string    `json:"name" yaml:"name"`
	Value    string    `json:"value" yaml:"value"`
	Domain   string    `json:"domain,omitempty" yaml:"domain,omitempty"`
	Path     string    `json:"path,omitempty" yaml:"path,omitempty"`
	Expires  time.Time `json:"expires,omitempty" yaml:"expires,omitempty"`
	HTTPOnly bool      `json:"http_only,omitempty" yaml:"http_only,omitempty"`
	Secure   bool      `json:"secure,omitempty" yaml:"secure,omitempty"`
	SameSite SameSite  `json:"same_site,omitempty" yaml:"same_site,omitempty"`
}

// HTTPResponse is what the HTTP helper actions store for later steps.
type HTTPResponse struct {
	URL        string              `json:"url"`
	StatusCode int                 `json:"status_code"`
	Header     map[string][]string `json:"header"`
	Body       string              `json:"body"`
}

type WindowSize struct {
	Width  int
	Height int
}
