// Package pageobject loads named element selectors from YAML page files.
//
// A page file maps element names to selectors, either as a mapping or as a
// [kind, value, display name] list:
//
//	elements:
//	  username: {kind: id, value: user, name: username input}
//	  submit: [css, "#submit", Submit button]
package pageobject

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/golemhq/golem-sub001/internal/selector"
	"github.com/golemhq/golem-sub001/pkg/apperr"
	"gopkg.in/yaml.v3"
)

type Page struct {
	Name     string
	elements map[string]selector.Selector
}

type file struct {
	Elements map[string]yaml.Node `yaml:"elements"`
}

// Parse decodes a page document. Elements without a display name are shown by
// their key.
func Parse(name string, data []byte) (*Page, error) {
	const op = "pageobject.Parse"

	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, apperr.Wrap(op, apperr.CodeInvalidArgument, err, map[string]any{
			apperr.MetaReason: "invalid_yaml",
			apperr.MetaField:  name,
		})
	}

	p := &Page{
		Name:     name,
		elements: make(map[string]selector.Selector, len(f.Elements)),
	}

	for key, node := range f.Elements {
		sel, err := decodeElement(&node)
		if err != nil {
			return nil, apperr.Wrap(op, apperr.CodeInvalidArgument, err, map[string]any{
				apperr.MetaReason: "invalid_element",
				apperr.MetaField:  name + "." + key,
			})
		}

		if sel.DisplayName() == sel.Value() {
			sel = sel.WithName(key)
		}

		p.elements[key] = sel
	}

	return p, nil
}

func decodeElement(node *yaml.Node) (selector.Selector, error) {
	switch node.Kind {
	case yaml.SequenceNode:
		var parts []string
		if err := node.Decode(&parts); err != nil {
			return selector.Selector{}, err
		}

		return selector.Normalize(parts)
	case yaml.MappingNode:
		var def selector.Definition
		if err := node.Decode(&def); err != nil {
			return selector.Selector{}, err
		}

		return selector.Normalize(def)
	default:
		return selector.Selector{}, fmt.Errorf("line %d: element must be a list or a mapping", node.Line)
	}
}

// Load reads one page file; the page is named after the file.
func Load(path string) (*Page, error) {
	const op = "pageobject.Load"

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperr.Wrap(op, apperr.CodeNotFound, err, map[string]any{
			apperr.MetaReason: "read_failed",
			apperr.MetaField:  path,
		})
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	return Parse(name, data)
}

func (p *Page) Element(name string) (selector.Selector, bool) {
	sel, ok := p.elements[name]

	return sel, ok
}

func (p *Page) Names() []string {
	names := make([]string, 0, len(p.elements))
	for n := range p.elements {
		names = append(names, n)
	}

	sort.Strings(names)

	return names
}

// Registry resolves "page.element" references.
type Registry struct {
	pages map[string]*Page
}

func NewRegistry(pages ...*Page) *Registry {
	r := &Registry{pages: make(map[string]*Page, len(pages))}
	for _, p := range pages {
		r.Add(p)
	}

	return r
}

func (r *Registry) Add(p *Page) {
	r.pages[p.Name] = p
}

func (r *Registry) Page(name string) (*Page, bool) {
	p, ok := r.pages[name]

	return p, ok
}

// LoadDir loads every .yaml and .yml file in dir.
func LoadDir(dir string) (*Registry, error) {
	const op = "pageobject.LoadDir"

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, apperr.Wrap(op, apperr.CodeNotFound, err, map[string]any{
			apperr.MetaReason: "read_dir_failed",
			apperr.MetaField:  dir,
		})
	}

	r := NewRegistry()

	for _, e := range entries {
		ext := filepath.Ext(e.Name())
		if e.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}

		p, err := Load(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}

		r.Add(p)
	}

	return r, nil
}

// Lookup resolves ref as "page.element". The second result is false when ref
// does not have that shape or names an unknown page.
func (r *Registry) Lookup(ref string) (selector.Selector, bool, error) {
	const op = "pageobject.Lookup"

	pageName, elem, ok := strings.Cut(ref, ".")
	if !ok || elem == "" {
		return selector.Selector{}, false, nil
	}

	p, ok := r.pages[pageName]
	if !ok {
		return selector.Selector{}, false, nil
	}

	sel, ok := p.Element(elem)
	if !ok {
		return selector.Selector{}, true, apperr.Wrap(op, apperr.CodeNotFound, fmt.Errorf("page %q has no element %q", pageName, elem), map[string]any{
			apperr.MetaReason: "unknown_element",
			apperr.MetaField:  ref,
		})
	}

	return sel, true, nil
}
