package portabletext

import (
	"encoding/json"
	"strings"
)

// WalkContext provides context during tree traversal.
type WalkContext struct {
	Index      int
	Depth      int
	BlockCount int
}

// Walk visits all top-level nodes in order; stops early on fn error.
func Walk(doc Document, fn func(*Node) error) error {
	for i := range doc {
		if err := fn(&doc[i]); err != nil {
			return err
		}
	}
	return nil
}

// WalkWithContext visits all top-level nodes with additional context.
// Depth is the list level for list items and 0 otherwise.
func WalkWithContext(doc Document, fn func(*Node, WalkContext) error) error {
	blockCount := 0
	for i := range doc {
		ctx := WalkContext{Index: i, BlockCount: blockCount}
		if doc[i].IsListItem() {
			ctx.Depth = doc[i].GetListLevel()
		}
		if doc[i].IsBlock() || doc[i].IsCode() {
			blockCount++
		}
		if err := fn(&doc[i], ctx); err != nil {
			return err
		}
	}
	return nil
}

// Filter returns a new document with nodes matching the predicate.
func Filter(doc Document, pred func(*Node) bool) Document {
	result := make(Document, 0)
	for i := range doc {
		if pred(&doc[i]) {
			result = append(result, *doc[i].Clone())
		}
	}
	return result
}

// Transform applies fn to each node, returning a new document.
// If fn returns nil, the node is excluded from the result.
func Transform(doc Document, fn func(*Node) *Node) Document {
	result := make(Document, 0, len(doc))
	for i := range doc {
		if transformed := fn(doc[i].Clone()); transformed != nil {
			result = append(result, *transformed)
		}
	}
	return result
}

// PlainText renders the document as text, one line per block. List items
// are indented by level and code is emitted verbatim.
func PlainText(doc Document) string {
	var buf strings.Builder
	for i := range doc {
		n := &doc[i]
		switch {
		case n.IsCode():
			buf.WriteString(strings.TrimSuffix(n.GetText(), "\n"))
		case n.IsListItem():
			buf.WriteString(strings.Repeat("  ", n.GetListLevel()-1))
			buf.WriteString("- ")
			buf.WriteString(n.GetText())
		case n.IsBlock():
			buf.WriteString(n.GetText())
		default:
			continue
		}
		buf.WriteByte('\n')
	}
	return buf.String()
}

// LinkRef is a link or image annotation together with the text it marks.
type LinkRef struct {
	Block int
	Key   string
	Type  string
	Href  string
	Text  string
}

// Links collects link and image mark definitions in document order.
// Href is the link target or the resolved image source.
func Links(doc Document) []LinkRef {
	var out []LinkRef
	for i := range doc {
		n := &doc[i]
		for j := range n.MarkDefs {
			md := &n.MarkDefs[j]
			ref := LinkRef{Block: i, Key: md.Key, Type: md.Type}
			switch md.Type {
			case TypeLink:
				ref.Href = md.Href()
			case TypeImage:
				ref.Href = md.Src()
			default:
				continue
			}
			var text strings.Builder
			for _, c := range n.Children {
				if c.HasMark(md.Key) && c.Text != nil {
					text.WriteString(*c.Text)
				}
			}
			ref.Text = text.String()
			out = append(out, ref)
		}
	}
	return out
}

// Heading is one table of contents entry.
type Heading struct {
	Level int
	Text  string
}

// Headings returns all h1..h6 blocks with at most maxLevel.
func Headings(doc Document, maxLevel int) []Heading {
	var toc []Heading
	for i := range doc {
		n := &doc[i]
		if !n.IsBlock() {
			continue
		}
		style := n.GetStyle()
		if len(style) != 2 || style[0] != 'h' || style[1] < '1' || style[1] > '6' {
			continue
		}
		level := int(style[1] - '0')
		if level <= maxLevel {
			toc = append(toc, Heading{Level: level, Text: n.GetText()})
		}
	}
	return toc
}

//
// Deep copy helpers (for Clone)
//

// Clone deep-copies the node, including Raw and nested slices/maps.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	out := *n

	out.Style = cloneString(n.Style)
	out.ListItem = cloneString(n.ListItem)
	out.Language = cloneString(n.Language)
	out.Code = cloneString(n.Code)
	if n.Level != nil {
		l := *n.Level
		out.Level = &l
	}

	out.Children = cloneSpans(n.Children)
	out.MarkDefs = cloneMarkDefs(n.MarkDefs)
	out.Raw = deepCopyMap(n.Raw)

	return &out
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

func cloneSpans(in []Span) []Span {
	if in == nil {
		return nil
	}
	out := make([]Span, len(in))
	for i := range in {
		out[i] = in[i]
		out[i].Text = cloneString(in[i].Text)
		if in[i].Marks != nil {
			out[i].Marks = append([]string(nil), in[i].Marks...)
		}
		out[i].Raw = deepCopyMap(in[i].Raw)
	}
	return out
}

func cloneMarkDefs(in []MarkDef) []MarkDef {
	if in == nil {
		return nil
	}
	out := make([]MarkDef, len(in))
	for i := range in {
		out[i] = in[i]
		out[i].Raw = deepCopyMap(in[i].Raw)
	}
	return out
}

func deepCopyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = deepCopyAny(v)
	}
	return out
}

func deepCopyAny(v any) any {
	switch x := v.(type) {
	case map[string]any:
		return deepCopyMap(x)
	case []any:
		out := make([]any, len(x))
		for i := range x {
			out[i] = deepCopyAny(x[i])
		}
		return out
	case Picture:
		if x.Sources != nil {
			x.Sources = append(make([]PictureSource, 0, len(x.Sources)), x.Sources...)
		}
		return x
	case json.RawMessage:
		return append(json.RawMessage(nil), x...)
	case []byte:
		return append([]byte(nil), x...)
	default:
		// primitives (string, bool, nil, json.Number, etc.)
		return x
	}
}
