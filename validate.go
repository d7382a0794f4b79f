package portabletext

import (
	"fmt"

	"go.uber.org/multierr"
)

// ValidationOptions controls what Validate checks.
type ValidationOptions struct {
	RequireKeys      bool // Require _key on all blocks
	CheckMarkDefRefs bool // Verify mark references exist in markDefs
	AllowEmptyText   bool // Allow empty text in spans
}

// decorators are marks that never reference a markDef.
var decorators = map[string]bool{
	"strong":    true,
	"em":        true,
	"strike":    true,
	"underline": true,
	"code":      true,
}

// IsDecorator reports whether mark is a built-in decorator rather than a
// markDef key.
func IsDecorator(mark string) bool { return decorators[mark] }

// ValidationError represents a validation error with context.
type ValidationError struct {
	Path    string
	Message string
	Node    *Node // Optional reference to problematic node
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Validate performs optional, opt-in checks. Unknown node types are never errors.
func Validate(doc Document) []error {
	return ValidateWithOptions(doc, ValidationOptions{})
}

// ValidateDocument runs ValidateWithOptions and folds the findings into a
// single error, nil when the document is clean.
func ValidateDocument(doc Document, opts ValidationOptions) error {
	return multierr.Combine(ValidateWithOptions(doc, opts)...)
}

// ValidateWithOptions performs validation with custom options.
func ValidateWithOptions(doc Document, opts ValidationOptions) []error {
	v := validator{opts: opts}
	for i := range doc {
		v.node(&doc[i], fmt.Sprintf("[%d]", i))
	}
	return v.errs
}

type validator struct {
	opts ValidationOptions
	errs []error
}

func (v *validator) fail(n *Node, path, format string, args ...any) {
	v.errs = append(v.errs, &ValidationError{
		Path:    path,
		Message: fmt.Sprintf(format, args...),
		Node:    n,
	})
}

func (v *validator) node(n *Node, path string) {
	if n.Type == "" {
		v.fail(n, path, "missing _type")
		return
	}
	if v.opts.RequireKeys && n.Key == "" {
		v.fail(n, path, "missing _key")
	}

	switch n.Type {
	case TypeBlock:
		if n.Code != nil || n.Language != nil {
			v.fail(n, path, "block carries code fields")
		}
		if n.Level != nil && *n.Level < 1 {
			v.fail(n, path, "level must be positive, got %d", *n.Level)
		}
		v.block(n, path)
	case TypeCode:
		if n.Style != nil {
			v.fail(n, path, "code block carries a style")
		}
		if n.Code == nil {
			v.fail(n, path, "code block missing code")
		}
	}
}

func (v *validator) block(n *Node, path string) {
	var known map[string]bool
	if v.opts.CheckMarkDefRefs {
		known = make(map[string]bool, len(n.MarkDefs))
		for _, md := range n.MarkDefs {
			known[md.Key] = true
		}
	}

	for j := range n.Children {
		c := &n.Children[j]
		cpath := fmt.Sprintf("%s.children[%d]", path, j)
		if c.Type == "" {
			v.fail(n, cpath, "missing _type")
			continue
		}
		if c.Type == TypeSpan {
			if c.Text == nil {
				v.fail(n, cpath, "span missing text")
			} else if !v.opts.AllowEmptyText && *c.Text == "" {
				v.fail(n, cpath, "span has empty text")
			}
		}
		if v.opts.CheckMarkDefRefs {
			for _, mark := range c.Marks {
				if !IsDecorator(mark) && !known[mark] {
					v.fail(n, cpath, "mark '%s' not found in markDefs", mark)
				}
			}
		}
	}

	seen := make(map[string]bool, len(n.MarkDefs))
	for j := range n.MarkDefs {
		md := &n.MarkDefs[j]
		mdpath := fmt.Sprintf("%s.markDefs[%d]", path, j)
		if md.Type == "" {
			v.fail(n, mdpath, "markDef missing _type")
		}
		if md.Key == "" {
			v.fail(n, mdpath, "markDef missing _key")
		} else if seen[md.Key] {
			v.fail(n, mdpath, "duplicate markDef _key '%s'", md.Key)
		}
		seen[md.Key] = true
		if md.Type == TypeImage && md.Src() == "" {
			v.fail(n, mdpath, "image markDef missing src")
		}
	}
}
