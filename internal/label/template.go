// Package label compiles and renders label templates.
//
// A template is plain text with three kinds of substitution:
//
//	${NAME}   configuration metadata
//	$${NAME}  per-atom property (per-frame metadata for frame labels)
//	$(EXPR)   an expression over the same names, see [Eval]
//
// Any other '$' is literal. config_n always resolves to the frame index.
package label

import (
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"strings"
	"sync"

	"github.com/san-kum/atomscene/internal/atoms"
	"github.com/san-kum/atomscene/internal/errs"
)

type partKind int

const (
	partText partKind = iota
	partMeta
	partProp
	partExpr
)

type part struct {
	kind partKind
	text string
	expr ast.Expr
}

// Template is a compiled label template.
type Template struct {
	src   string
	parts []part
}

func (t *Template) String() string { return t.src }

// AtomScoped reports whether the template reads per-atom properties and so
// must be rendered once per atom.
func (t *Template) AtomScoped() bool {
	for _, p := range t.parts {
		if p.kind == partProp || p.kind == partExpr {
			return true
		}
	}
	return false
}

// Compile parses tmpl. Unterminated substitutions and expressions outside
// the supported subset fail with ErrExpression.
func Compile(tmpl string) (*Template, error) {
	t := &Template{src: tmpl}
	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			t.parts = append(t.parts, part{kind: partText, text: lit.String()})
			lit.Reset()
		}
	}

	for i := 0; i < len(tmpl); {
		rest := tmpl[i:]
		switch {
		case strings.HasPrefix(rest, "$${"):
			end := strings.IndexByte(rest, '}')
			if end < 0 {
				return nil, fmt.Errorf("%w: unterminated $${ in %q", errs.ErrExpression, tmpl)
			}
			flush()
			t.parts = append(t.parts, part{kind: partProp, text: rest[3:end]})
			i += end + 1
		case strings.HasPrefix(rest, "${"):
			end := strings.IndexByte(rest, '}')
			if end < 0 {
				return nil, fmt.Errorf("%w: unterminated ${ in %q", errs.ErrExpression, tmpl)
			}
			flush()
			t.parts = append(t.parts, part{kind: partMeta, text: rest[2:end]})
			i += end + 1
		case strings.HasPrefix(rest, "$("):
			end := closingParen(rest[1:])
			if end < 0 {
				return nil, fmt.Errorf("%w: unterminated $( in %q", errs.ErrExpression, tmpl)
			}
			src := rest[2 : end+1]
			e, err := parseExpr(src)
			if err != nil {
				return nil, err
			}
			flush()
			t.parts = append(t.parts, part{kind: partExpr, text: src, expr: e})
			i += end + 2
		default:
			lit.WriteByte(tmpl[i])
			i++
		}
	}
	flush()
	return t, nil
}

// closingParen returns the index of the ')' matching the '(' at s[0],
// skipping string literals, or -1.
func closingParen(s string) int {
	depth := 0
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'', '`':
			quote = c
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func parseExpr(src string) (ast.Expr, error) {
	e, err := parser.ParseExpr(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", errs.ErrExpression, src, err)
	}
	if err := check(e); err != nil {
		return nil, err
	}
	return e, nil
}

// Scope is the explicitly enumerated set of names a template may read.
type Scope struct {
	Meta  atoms.Properties
	Props atoms.Properties
	Frame int
	// Index is the atom index, or -1 for frame labels.
	Index   int
	Species string
	// Default replaces unresolved names when set.
	Default *string
}

func (s Scope) lookup(name string, props bool) (atoms.Value, error) {
	switch name {
	case "config_n":
		return atoms.Scalar(float64(s.Frame)), nil
	case "i":
		if s.Index >= 0 {
			return atoms.Scalar(float64(s.Index)), nil
		}
	case "species":
		if s.Index >= 0 {
			return atoms.String(s.Species), nil
		}
	}
	if props && s.Props != nil {
		if v, ok := s.Props[name]; ok {
			return v, nil
		}
	}
	return s.Meta.Lookup(name)
}

// Render substitutes s into the template.
func (t *Template) Render(s Scope) (string, error) {
	var b strings.Builder
	for _, p := range t.parts {
		switch p.kind {
		case partText:
			b.WriteString(p.text)
		case partMeta, partProp:
			v, err := s.lookup(p.text, p.kind == partProp)
			if err != nil {
				if s.Default == nil {
					return "", err
				}
				b.WriteString(*s.Default)
				continue
			}
			b.WriteString(v.String())
		case partExpr:
			v, err := eval(p.expr, s)
			if err != nil {
				if s.Default == nil || !errors.Is(err, errs.ErrMissingProperty) {
					return "", err
				}
				b.WriteString(*s.Default)
				continue
			}
			b.WriteString(format(v))
		}
	}
	return b.String(), nil
}

// Cache holds compiled templates for one settings revision. A lookup with a
// different revision drops every entry.
type Cache struct {
	mu        sync.Mutex
	revision  uint64
	templates map[string]*Template
}

func NewCache() *Cache {
	return &Cache{templates: make(map[string]*Template)}
}

func (c *Cache) Get(revision uint64, tmpl string) (*Template, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if revision != c.revision {
		c.revision = revision
		c.templates = make(map[string]*Template)
	}
	if t, ok := c.templates[tmpl]; ok {
		return t, nil
	}
	t, err := Compile(tmpl)
	if err != nil {
		return nil, err
	}
	c.templates[tmpl] = t
	return t, nil
}

// Len returns the number of cached templates.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.templates)
}
