package convert

import (
	portabletext "github.com/derickschaefer/go-portabletext"
)

// Span types emitted by the converter.
const (
	SpanText     = portabletext.TypeSpan
	SpanImageAlt = "image-alt"
)

// Span is one run of inline text.
type Span struct {
	Type  string
	Text  string
	Marks Marks
}

// MarkDef is out-of-line data referenced by key from spans of the same
// block. It is either a LinkDef or an ImageDef.
type MarkDef interface {
	MarkKey() string
	wire() portabletext.MarkDef
}

// LinkDef is the target of a link.
type LinkDef struct {
	Key   string
	Href  string
	Title string
}

func (d LinkDef) MarkKey() string { return d.Key }

func (d LinkDef) wire() portabletext.MarkDef {
	raw := map[string]any{"href": d.Href}
	if d.Title != "" {
		raw["title"] = d.Title
	}
	return portabletext.MarkDef{Key: d.Key, Type: portabletext.TypeLink, Raw: raw}
}

// ImageDef is a resolved image.
type ImageDef struct {
	Key     string
	Src     string
	Picture portabletext.Picture
	Caption string
}

func (d ImageDef) MarkKey() string { return d.Key }

func (d ImageDef) wire() portabletext.MarkDef {
	raw := map[string]any{"src": d.Src, "picture": d.Picture}
	if d.Caption != "" {
		raw["caption"] = d.Caption
	}
	return portabletext.MarkDef{Key: d.Key, Type: portabletext.TypeImage, Raw: raw}
}

// Block is one top-level unit of output: *TextBlock, *ListItem or
// *CodeBlock.
type Block interface {
	// Node returns the Portable Text form of the block.
	Node() portabletext.Node
	// inline returns the span container, nil for blocks without one.
	inline() *Inline
}

// Inline holds the spans of a prose block and the mark definitions they
// reference.
type Inline struct {
	Children []Span
	MarkDefs []MarkDef
}

// LastSpan returns the final span or nil.
func (in *Inline) LastSpan() *Span {
	if len(in.Children) == 0 {
		return nil
	}
	return &in.Children[len(in.Children)-1]
}

// MarkDef returns the definition registered under key, or nil.
func (in *Inline) MarkDef(key string) MarkDef {
	for _, md := range in.MarkDefs {
		if md.MarkKey() == key {
			return md
		}
	}
	return nil
}

// Text concatenates the text of all spans.
func (in *Inline) Text() string {
	var n int
	for _, s := range in.Children {
		n += len(s.Text)
	}
	b := make([]byte, 0, n)
	for _, s := range in.Children {
		b = append(b, s.Text...)
	}
	return string(b)
}

func (in *Inline) fill(n *portabletext.Node) {
	for _, s := range in.Children {
		n.AddTypedSpan(s.Type, s.Text, s.Marks.Values()...)
	}
	for _, md := range in.MarkDefs {
		n.MarkDefs = append(n.MarkDefs, md.wire())
	}
}

// TextBlock is a paragraph, heading or block quote.
type TextBlock struct {
	Style string
	Inline
}

func (b *TextBlock) inline() *Inline { return &b.Inline }

func (b *TextBlock) Node() portabletext.Node {
	n := portabletext.NewBlock(b.Style)
	b.fill(n)
	return *n
}

// ListItem is a block inside a list at the given nesting level.
type ListItem struct {
	TextBlock
	Level int
	Type  ListType
}

func (b *ListItem) Node() portabletext.Node {
	n := portabletext.NewListItem(b.Type.Value(), b.Level)
	style := b.Style
	n.Style = &style
	b.fill(n)
	return *n
}

// CodeBlock is a fenced or indented code block. It never holds spans; its
// node form carries empty children and markDefs.
type CodeBlock struct {
	Language string
	Code     string
}

func (b *CodeBlock) inline() *Inline { return nil }

func (b *CodeBlock) Node() portabletext.Node {
	return *portabletext.NewCodeBlock(b.Language, b.Code)
}

// Result is the ordered output of one conversion.
type Result []Block

// Document returns the Portable Text document for the result.
func (r Result) Document() portabletext.Document {
	doc := make(portabletext.Document, 0, len(r))
	for _, b := range r {
		doc = append(doc, b.Node())
	}
	return doc
}
