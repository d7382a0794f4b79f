package portabletext

import (
	"errors"
	"fmt"
	"strings"
)

//
// Public API
//

// Document is an ordered list of Portable Text nodes.
// Document is not safe for concurrent modification.
// For concurrent reads, no synchronization is needed.
type Document []Node

// Well-known _type values.
const (
	TypeBlock = "block"
	TypeCode  = "code"
	TypeSpan  = "span"
	TypeLink  = "link"
	TypeImage = "image"
)

// Node represents a Portable Text node (block, code block or custom object).
// Known fields are modeled; unknown/custom fields are preserved in Raw.
type Node struct {
	// Required
	Type string `json:"_type"`
	Key  string `json:"_key,omitempty"`

	// Common block fields
	Style    *string   `json:"style,omitempty"`
	Children []Span    `json:"children,omitempty"`
	MarkDefs []MarkDef `json:"markDefs,omitempty"`

	// List-related fields
	ListItem *string `json:"listItem,omitempty"`
	Level    *int    `json:"level,omitempty"`

	// Code block fields, never set together with Style
	Language *string `json:"language,omitempty"`
	Code     *string `json:"code,omitempty"`

	// Raw holds unknown/custom fields and preserves explicit nulls.
	Raw map[string]any `json:"-"`
}

// Span represents an inline node in a block's children array.
// Usually _type == "span"; converters may emit other inline types
// (for example "image-alt") that still carry text and marks.
type Span struct {
	Type  string   `json:"_type"`
	Text  *string  `json:"text,omitempty"`
	Marks []string `json:"marks,omitempty"`

	Raw map[string]any `json:"-"`
}

// MarkDef represents an annotation definition (links, images).
// Everything except _key and _type lives in Raw.
type MarkDef struct {
	Key  string `json:"_key"`
	Type string `json:"_type"`

	Raw map[string]any `json:"-"`
}

// Picture describes a resolved image and its responsive sources.
type Picture struct {
	Src     string          `json:"src"`
	Alt     string          `json:"alt"`
	Width   int             `json:"width"`
	Height  int             `json:"height"`
	Sources []PictureSource `json:"sources"`
}

// PictureSource is one <source> candidate of a Picture.
type PictureSource struct {
	Srcset string `json:"srcset"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Type   string `json:"type"`
	Media  string `json:"media,omitempty"`
}

// IsBlock reports whether this node is a Portable Text "block".
func (n *Node) IsBlock() bool { return n != nil && n.Type == TypeBlock }

// IsCode reports whether this node is a code block.
func (n *Node) IsCode() bool { return n != nil && n.Type == TypeCode }

// IsListItem reports whether the block belongs to a list.
func (n *Node) IsListItem() bool { return n.IsBlock() && n.ListItem != nil }

// GetStyle returns the style or a default value.
func (n *Node) GetStyle() string {
	if n.Style != nil {
		return *n.Style
	}
	return "normal"
}

// GetText concatenates all span text in a block. For code blocks the code
// itself is returned.
func (n *Node) GetText() string {
	if n.IsCode() && n.Code != nil {
		return *n.Code
	}
	var buf strings.Builder
	for _, child := range n.Children {
		if child.Text != nil {
			buf.WriteString(*child.Text)
		}
	}
	return buf.String()
}

// GetListLevel returns the list level or 1 if not set.
func (n *Node) GetListLevel() int {
	if n.Level != nil {
		return *n.Level
	}
	return 1
}

// GetLanguage returns the code block language or "" if not set.
func (n *Node) GetLanguage() string {
	if n.Language != nil {
		return *n.Language
	}
	return ""
}

// FindMarkDef returns the mark definition with the given key, or nil.
func (n *Node) FindMarkDef(key string) *MarkDef {
	for i := range n.MarkDefs {
		if n.MarkDefs[i].Key == key {
			return &n.MarkDefs[i]
		}
	}
	return nil
}

// AddSpan adds a text span to a block node.
func (n *Node) AddSpan(text string, marks ...string) *Node {
	return n.AddTypedSpan(TypeSpan, text, marks...)
}

// AddTypedSpan adds an inline node of the given type carrying text.
func (n *Node) AddTypedSpan(spanType, text string, marks ...string) *Node {
	if marks == nil {
		marks = []string{}
	}
	n.Children = append(n.Children, Span{
		Type:  spanType,
		Text:  &text,
		Marks: marks,
		Raw:   map[string]any{},
	})
	return n
}

// AddMarkDef adds a mark definition to a block node.
func (n *Node) AddMarkDef(key, markType string, raw map[string]any) *Node {
	md := MarkDef{
		Key:  key,
		Type: markType,
		Raw:  raw,
	}
	if md.Raw == nil {
		md.Raw = map[string]any{}
	}
	n.MarkDefs = append(n.MarkDefs, md)
	return n
}

// AddLink registers a link annotation.
func (n *Node) AddLink(key, href string) *Node {
	return n.AddMarkDef(key, TypeLink, map[string]any{"href": href})
}

// AddImage registers an image annotation. An empty caption is omitted.
func (n *Node) AddImage(key, src string, pic Picture, caption string) *Node {
	raw := map[string]any{"src": src, "picture": pic}
	if caption != "" {
		raw["caption"] = caption
	}
	return n.AddMarkDef(key, TypeImage, raw)
}

// HasMark checks if a span has a specific mark.
func (s *Span) HasMark(mark string) bool {
	for _, m := range s.Marks {
		if m == mark {
			return true
		}
	}
	return false
}

// Href returns the link target of a link mark definition.
func (md *MarkDef) Href() string { return md.str("href") }

// Src returns the resolved source of an image mark definition.
func (md *MarkDef) Src() string { return md.str("src") }

// Caption returns the caption of an image mark definition, if any.
func (md *MarkDef) Caption() string { return md.str("caption") }

// Picture returns the picture descriptor of an image mark definition. It
// understands both typed values and values decoded from JSON.
func (md *MarkDef) Picture() (Picture, bool) {
	switch p := md.Raw["picture"].(type) {
	case Picture:
		return p, true
	case *Picture:
		if p != nil {
			return *p, true
		}
	case map[string]any:
		return pictureFromMap(p), true
	}
	return Picture{}, false
}

func (md *MarkDef) str(field string) string {
	s, _ := md.Raw[field].(string)
	return s
}

// NewBlock creates a basic block node.
func NewBlock(style string) *Node {
	return &Node{
		Type:     TypeBlock,
		Style:    &style,
		Children: []Span{},
		MarkDefs: []MarkDef{},
		Raw:      map[string]any{},
	}
}

// NewListItem creates a list item block ("bullet" or "number").
func NewListItem(listItem string, level int) *Node {
	n := NewBlock("normal")
	n.ListItem = &listItem
	n.Level = &level
	return n
}

// NewCodeBlock creates a code node. It has no style; children and markDefs
// are present but always empty.
func NewCodeBlock(language, code string) *Node {
	return &Node{
		Type:     TypeCode,
		Children: []Span{},
		MarkDefs: []MarkDef{},
		Language: &language,
		Code:     &code,
		Raw:      map[string]any{},
	}
}

// NewNode creates a custom node with the given type.
func NewNode(nodeType string) *Node {
	return &Node{
		Type: nodeType,
		Raw:  map[string]any{},
	}
}

//
// Errors (typed + path aware)
//

var (
	ErrMissingType     = errors.New("missing _type")
	ErrInvalidType     = errors.New("invalid _type")
	ErrExpectedObject  = errors.New("expected JSON object")
	ErrExpectedArray   = errors.New("expected JSON array")
	ErrInvalidMarks    = errors.New("marks must be an array of strings")
	ErrInvalidNumber   = errors.New("invalid number")
	ErrUnexpectedToken = errors.New("unexpected JSON token")
)

type Error struct {
	Op   string // "decode", "node", "span", "markDef"
	Path string // e.g. "[3].children[1].marks"
	Err  error
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("portabletext %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("portabletext %s at %s: %v", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func wrap(op, path string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Path: path, Err: err}
}
