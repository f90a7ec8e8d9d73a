// Package selector turns the different ways a test can point at an element
// into one canonical (kind, value, display name) descriptor.
package selector

import (
	"fmt"
	"strings"

	"github.com/golemhq/golem-sub001/pkg/apperr"
)

type Kind string

const (
	Id              Kind = "id"
	Css             Kind = "css"
	XPath           Kind = "xpath"
	LinkText        Kind = "link_text"
	PartialLinkText Kind = "partial_link_text"
	Name            Kind = "name"
	TagName         Kind = "tag_name"
	Text            Kind = "text"
)

// Kinds lists every supported selector kind.
var Kinds = []Kind{Id, Css, XPath, LinkText, PartialLinkText, Name, TagName, Text}

func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}

	return false
}

// ParseKind accepts kind names case-insensitively, with '-' or ' ' in place of '_'.
func ParseKind(s string) (Kind, error) {
	const op = "ParseKind"

	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer("-", "_", " ", "_").Replace(norm)

	k := Kind(norm)
	if !k.Valid() {
		return "", apperr.Wrap(op, apperr.CodeInvalidSelectorKind, fmt.Errorf("unsupported selector kind %q", s), map[string]any{
			apperr.MetaReason: "unsupported_kind",
			apperr.MetaKind:   s,
		})
	}

	return k, nil
}

// UnmarshalText lets YAML and flag parsing produce a validated Kind.
func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}

	*k = parsed

	return nil
}

// Selector is immutable once built by New or Normalize.
type Selector struct {
	kind        Kind
	value       string
	displayName string
}

// New validates kind and value. An empty displayName falls back to value.
func New(kind Kind, value, displayName string) (Selector, error) {
	const op = "New"

	if !kind.Valid() {
		parsed, err := ParseKind(string(kind))
		if err != nil {
			return Selector{}, err
		}

		kind = parsed
	}

	if value == "" {
		return Selector{}, apperr.Wrap(op, apperr.CodeInvalidArgument, fmt.Errorf("selector value is empty"), map[string]any{
			apperr.MetaReason: "empty_value",
			apperr.MetaKind:   string(kind),
		})
	}

	if displayName == "" {
		displayName = value
	}

	return Selector{kind: kind, value: value, displayName: displayName}, nil
}

// MustNew is New for package-level page object literals.
func MustNew(kind Kind, value, displayName string) Selector {
	s, err := New(kind, value, displayName)
	if err != nil {
		panic(err)
	}

	return s
}

func (s Selector) Kind() Kind { return s.kind }

func (s Selector) Value() string { return s.value }

func (s Selector) DisplayName() string { return s.displayName }

func (s Selector) IsZero() bool { return s.kind == "" && s.value == "" }

// WithName returns a copy carrying a different display name.
func (s Selector) WithName(n string) Selector {
	if n != "" {
		s.displayName = n
	}

	return s
}

func (s Selector) String() string {
	if s.displayName != s.value {
		return fmt.Sprintf("%s (%s=%s)", s.displayName, s.kind, s.value)
	}

	return fmt.Sprintf("%s=%s", s.kind, s.value)
}

// Definition is the serialized form of a selector used in page object files.
type Definition struct {
	Kind  string `yaml:"kind" json:"kind"`
	Value string `yaml:"value" json:"value"`
	Name  string `yaml:"name,omitempty" json:"name,omitempty"`
}

// Resolved is implemented by live element handles; Normalize reuses their
// selector instead of deriving a new one.
type Resolved interface {
	Selector() Selector
}
