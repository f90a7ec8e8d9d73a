// Package script models YAML test suites and runs their steps against the
// action façade.
package script

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/golemhq/golem-sub001/internal/entity"
	"github.com/golemhq/golem-sub001/pkg/apperr"
	"gopkg.in/yaml.v3"
)

// Suite is a set of tests sharing the same page objects.
//
//	name: login
//	pages: ./pages
//	tests:
//	  - name: valid login
//	    data:
//	      - {user: admin, pass: secret}
//	    steps:
//	      - navigate: http://localhost/login
//	      - send_keys: [login.username, $user]
//	      - click: login.submit
//	        timeout: 5
//	      - get_element_text: header.greeting
//	        store: greeting
type Suite struct {
	Name  string `yaml:"name"`
	Pages string `yaml:"pages"`
	Tests []Test `yaml:"tests"`

	dir string
}

type Test struct {
	Name        string           `yaml:"name"`
	Description string           `yaml:"description"`
	Data        []entity.DataRow `yaml:"data"`
	Setup       []Call           `yaml:"setup"`
	Steps       []Call           `yaml:"steps"`
	Teardown    []Call           `yaml:"teardown"`
}

// Rows returns the data sets the test runs with; a test without data runs
// once with an empty row.
func (t Test) Rows() []entity.DataRow {
	if len(t.Data) == 0 {
		return []entity.DataRow{{}}
	}

	return t.Data
}

// Call is one scripted action with its raw arguments.
type Call struct {
	Action  string
	Args    []any
	Timeout any
	Store   string
	Line    int
}

func (c Call) String() string {
	return fmt.Sprintf("%s (line %d)", c.Action, c.Line)
}

// UnmarshalYAML accepts "- refresh", "- click: sel" and
// "- send_keys: [sel, text]", plus the optional timeout and store keys.
func (c *Call) UnmarshalYAML(node *yaml.Node) error {
	c.Line = node.Line

	switch node.Kind {
	case yaml.ScalarNode:
		c.Action = node.Value

		return nil
	case yaml.MappingNode:
	default:
		return fmt.Errorf("line %d: step must be an action name or a mapping", node.Line)
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]

		switch key.Value {
		case "timeout":
			var t any
			if err := val.Decode(&t); err != nil {
				return err
			}

			c.Timeout = t
		case "store":
			c.Store = val.Value
		default:
			if c.Action != "" {
				return fmt.Errorf("line %d: step has two actions: %s and %s", key.Line, c.Action, key.Value)
			}

			c.Action = key.Value

			args, err := decodeArgs(val)
			if err != nil {
				return fmt.Errorf("line %d: %w", val.Line, err)
			}

			c.Args = args
		}
	}

	if c.Action == "" {
		return fmt.Errorf("line %d: step has no action", node.Line)
	}

	return nil
}

func decodeArgs(node *yaml.Node) ([]any, error) {
	switch {
	case node.Kind == yaml.ScalarNode && node.Tag == "!!null":
		return nil, nil
	case node.Kind == yaml.SequenceNode:
		var args []any
		if err := node.Decode(&args); err != nil {
			return nil, err
		}

		return args, nil
	default:
		var arg any
		if err := node.Decode(&arg); err != nil {
			return nil, err
		}

		return []any{arg}, nil
	}
}

// ParseCall decodes a single step written as YAML, e.g. "click: login.submit".
func ParseCall(line string) (Call, error) {
	const op = "script.ParseCall"

	var c Call
	if err := yaml.Unmarshal([]byte(line), &c); err != nil {
		return Call{}, apperr.Wrap(op, apperr.CodeInvalidArgument, err, map[string]any{
			apperr.MetaReason: "invalid_step",
		})
	}

	if c.Action == "" {
		return Call{}, apperr.InvalidReqError(op, "action", fmt.Errorf("empty step"))
	}

	return c, nil
}

func Parse(data []byte) (*Suite, error) {
	const op = "script.Parse"

	var s Suite
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, apperr.Wrap(op, apperr.CodeInvalidArgument, err, map[string]any{
			apperr.MetaReason: "invalid_suite",
		})
	}

	for i, t := range s.Tests {
		if t.Name == "" {
			return nil, apperr.InvalidReqError(op, fmt.Sprintf("tests[%d].name", i), fmt.Errorf("test name is required"))
		}
	}

	return &s, nil
}

// Load reads a suite file. A relative pages directory is resolved against the
// suite's own directory.
func Load(path string) (*Suite, error) {
	const op = "script.Load"

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperr.Wrap(op, apperr.CodeNotFound, err, map[string]any{
			apperr.MetaReason: "read_failed",
			apperr.MetaField:  path,
		})
	}

	s, err := Parse(data)
	if err != nil {
		return nil, err
	}

	s.dir = filepath.Dir(path)

	if s.Name == "" {
		s.Name = filepath.Base(path)
	}

	return s, nil
}

// PagesDir returns the page object directory, or "" when the suite has none.
func (s *Suite) PagesDir() string {
	if s.Pages == "" || filepath.IsAbs(s.Pages) {
		return s.Pages
	}

	return filepath.Join(s.dir, s.Pages)
}
