package convert

// DecoratorKind tells static decorators apart from mark definition
// references.
type DecoratorKind uint8

const (
	DecoratorEmphasis DecoratorKind = iota + 1
	DecoratorStrong
	DecoratorStrike
	DecoratorUnderline
	DecoratorCode
	DecoratorLink
	DecoratorAsset
)

// Decorator is an inline formatting attribute attached to a span. Values
// compare with ==; two references are equal only if their keys match.
type Decorator struct {
	Kind DecoratorKind
	Key  string // DecoratorLink and DecoratorAsset only
}

var (
	MarkEmphasis  = Decorator{Kind: DecoratorEmphasis}
	MarkStrong    = Decorator{Kind: DecoratorStrong}
	MarkStrike    = Decorator{Kind: DecoratorStrike}
	MarkUnderline = Decorator{Kind: DecoratorUnderline}
	MarkCode      = Decorator{Kind: DecoratorCode}
)

// LinkReference returns the decorator referencing a link mark definition.
func LinkReference(key string) Decorator { return Decorator{Kind: DecoratorLink, Key: key} }

// AssetReference returns the decorator referencing an image mark definition.
func AssetReference(key string) Decorator { return Decorator{Kind: DecoratorAsset, Key: key} }

// IsReference reports whether d points at a mark definition.
func (d Decorator) IsReference() bool {
	return d.Kind == DecoratorLink || d.Kind == DecoratorAsset
}

// Value returns the wire form of the mark.
func (d Decorator) Value() string {
	switch d.Kind {
	case DecoratorEmphasis:
		return "em"
	case DecoratorStrong:
		return "strong"
	case DecoratorStrike:
		return "strike"
	case DecoratorUnderline:
		return "underline"
	case DecoratorCode:
		return "code"
	}
	return d.Key
}

func (d Decorator) String() string {
	switch d.Kind {
	case DecoratorLink:
		return "link:" + d.Key
	case DecoratorAsset:
		return "asset:" + d.Key
	}
	return d.Value()
}

// Marks is an ordered decorator set, outermost first.
type Marks []Decorator

// Values returns the wire form of every mark.
func (m Marks) Values() []string {
	out := make([]string, len(m))
	for i, d := range m {
		out[i] = d.Value()
	}
	return out
}

// Equal reports whether both sets hold the same decorators in the same order.
func (m Marks) Equal(o Marks) bool {
	if len(m) != len(o) {
		return false
	}
	for i := range m {
		if m[i] != o[i] {
			return false
		}
	}
	return true
}

// markStack holds the decorators currently open. Ranges may close out of
// nesting order (an image inside a link), so removal is by value.
type markStack struct {
	marks Marks
}

func (s *markStack) push(d Decorator) { s.marks = append(s.marks, d) }

// remove drops the innermost occurrence of d and reports whether one was found.
func (s *markStack) remove(d Decorator) bool {
	for i := len(s.marks) - 1; i >= 0; i-- {
		if s.marks[i] == d {
			s.marks = append(s.marks[:i], s.marks[i+1:]...)
			return true
		}
	}
	return false
}

func (s *markStack) empty() bool { return len(s.marks) == 0 }

func (s *markStack) len() int { return len(s.marks) }

// snapshot copies the stack, optionally followed by extra decorators.
func (s *markStack) snapshot(extra ...Decorator) Marks {
	out := make(Marks, 0, len(s.marks)+len(extra))
	out = append(out, s.marks...)
	return append(out, extra...)
}
