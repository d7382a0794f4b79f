package convert

import (
	"fmt"
	"strconv"
)

// EventKind identifies the shape of an Event.
type EventKind int

const (
	StartEvent EventKind = iota
	EndEvent
	TextEvent
	CodeEvent
	SoftBreakEvent
	HardBreakEvent
	HTMLEvent
	FootnoteReferenceEvent
	RuleEvent
	TaskListMarkerEvent
)

var eventKindNames = [...]string{
	StartEvent:             "Start",
	EndEvent:               "End",
	TextEvent:              "Text",
	CodeEvent:              "Code",
	SoftBreakEvent:         "SoftBreak",
	HardBreakEvent:         "HardBreak",
	HTMLEvent:              "Html",
	FootnoteReferenceEvent: "FootnoteReference",
	RuleEvent:              "Rule",
	TaskListMarkerEvent:    "TaskListMarker",
}

func (k EventKind) String() string {
	if k >= 0 && int(k) < len(eventKindNames) {
		return eventKindNames[k]
	}
	return "EventKind(" + strconv.Itoa(int(k)) + ")"
}

// TagKind identifies the markup element a Start or End event delimits.
type TagKind int

const (
	TagParagraph TagKind = iota
	TagBlockQuote
	TagCodeBlock
	TagHeading
	TagList
	TagItem
	TagLink
	TagImage
	TagStrong
	TagEmphasis
	TagStrikethrough
	TagFootnoteDefinition
	TagTable
	TagTableHead
	TagTableRow
	TagTableCell
)

var tagKindNames = [...]string{
	TagParagraph:          "Paragraph",
	TagBlockQuote:         "BlockQuote",
	TagCodeBlock:          "CodeBlock",
	TagHeading:            "Heading",
	TagList:               "List",
	TagItem:               "Item",
	TagLink:               "Link",
	TagImage:              "Image",
	TagStrong:             "Strong",
	TagEmphasis:           "Emphasis",
	TagStrikethrough:      "Strikethrough",
	TagFootnoteDefinition: "FootnoteDefinition",
	TagTable:              "Table",
	TagTableHead:          "TableHead",
	TagTableRow:           "TableRow",
	TagTableCell:          "TableCell",
}

func (k TagKind) String() string {
	if k >= 0 && int(k) < len(tagKindNames) {
		return tagKindNames[k]
	}
	return "TagKind(" + strconv.Itoa(int(k)) + ")"
}

// Tag carries the attributes of a Start or End event. Only the fields
// relevant to Kind are meaningful.
type Tag struct {
	Kind TagKind

	Level    int    // Heading: 1..6
	Ordered  bool   // List
	Fenced   bool   // CodeBlock
	Language string // CodeBlock, fenced only
	Href     string // Link, Image
	Title    string // Link, Image
	Label    string // FootnoteDefinition
}

// Paragraph delimits a paragraph.
func Paragraph() Tag { return Tag{Kind: TagParagraph} }

// BlockQuote delimits a block quote.
func BlockQuote() Tag { return Tag{Kind: TagBlockQuote} }

// Item delimits one list item.
func Item() Tag { return Tag{Kind: TagItem} }

// Strong delimits strong emphasis.
func Strong() Tag { return Tag{Kind: TagStrong} }

// Emphasis delimits emphasis.
func Emphasis() Tag { return Tag{Kind: TagEmphasis} }

// Strikethrough delimits struck out text.
func Strikethrough() Tag { return Tag{Kind: TagStrikethrough} }

// IndentedCode delimits an indented code block.
func IndentedCode() Tag { return Tag{Kind: TagCodeBlock} }

// Table delimits a table.
func Table() Tag { return Tag{Kind: TagTable} }

// TableHead delimits the header row of a table.
func TableHead() Tag { return Tag{Kind: TagTableHead} }

// TableRow delimits a table row.
func TableRow() Tag { return Tag{Kind: TagTableRow} }

// TableCell delimits a table cell.
func TableCell() Tag { return Tag{Kind: TagTableCell} }

// Heading delimits a heading of the given level.
func Heading(level int) Tag { return Tag{Kind: TagHeading, Level: level} }

// List delimits a bullet or, when ordered, a numbered list.
func List(ordered bool) Tag { return Tag{Kind: TagList, Ordered: ordered} }

// FencedCode delimits a fenced code block; language may be empty.
func FencedCode(language string) Tag { return Tag{Kind: TagCodeBlock, Fenced: true, Language: language} }

// Link delimits the text of a link.
func Link(href, title string) Tag { return Tag{Kind: TagLink, Href: href, Title: title} }

// Image delimits the alt text of an image.
func Image(href, title string) Tag { return Tag{Kind: TagImage, Href: href, Title: title} }

// FootnoteDefinition delimits the body of a footnote.
func FootnoteDefinition(label string) Tag {
	return Tag{Kind: TagFootnoteDefinition, Label: label}
}

func (t Tag) String() string {
	switch t.Kind {
	case TagHeading:
		return fmt.Sprintf("Heading(%d)", t.Level)
	case TagList:
		if t.Ordered {
			return "List(ordered)"
		}
		return "List"
	case TagCodeBlock:
		if t.Fenced {
			return fmt.Sprintf("CodeBlock(fenced %q)", t.Language)
		}
		return "CodeBlock(indented)"
	case TagLink, TagImage:
		return fmt.Sprintf("%s(%q)", t.Kind, t.Href)
	}
	return t.Kind.String()
}

// Event is one item of the markup event stream.
type Event struct {
	Kind    EventKind
	Tag     Tag    // Start, End
	Text    string // Text, Code, Html, FootnoteReference label
	Checked bool   // TaskListMarker
}

// Start opens the range described by t.
func Start(t Tag) Event { return Event{Kind: StartEvent, Tag: t} }

// End closes the range described by t.
func End(t Tag) Event { return Event{Kind: EndEvent, Tag: t} }

// Text carries literal text.
func Text(s string) Event { return Event{Kind: TextEvent, Text: s} }

// Code carries inline code.
func Code(s string) Event { return Event{Kind: CodeEvent, Text: s} }

// HTML carries raw inline or block html.
func HTML(s string) Event { return Event{Kind: HTMLEvent, Text: s} }

// SoftBreak is a line ending inside a paragraph.
func SoftBreak() Event { return Event{Kind: SoftBreakEvent} }

// HardBreak is a forced line break.
func HardBreak() Event { return Event{Kind: HardBreakEvent} }

// Rule is a thematic break.
func Rule() Event { return Event{Kind: RuleEvent} }

// FootnoteReference marks a reference to a footnote.
func FootnoteReference(label string) Event {
	return Event{Kind: FootnoteReferenceEvent, Text: label}
}

// TaskListMarker is the checkbox of a task list item.
func TaskListMarker(checked bool) Event {
	return Event{Kind: TaskListMarkerEvent, Checked: checked}
}

func (e Event) String() string {
	switch e.Kind {
	case StartEvent, EndEvent:
		return fmt.Sprintf("%s(%s)", e.Kind, e.Tag)
	case TextEvent, CodeEvent, HTMLEvent, FootnoteReferenceEvent:
		return fmt.Sprintf("%s(%q)", e.Kind, e.Text)
	case TaskListMarkerEvent:
		return fmt.Sprintf("%s(%t)", e.Kind, e.Checked)
	}
	return e.Kind.String()
}

// Source is a forward-only sequence of events. Next reports false once the
// sequence is exhausted.
type Source interface {
	Next() (Event, bool)
}

// SliceSource replays a fixed slice of events.
type SliceSource struct {
	events []Event
	pos    int
}

// Events returns a Source over the given events.
func Events(events ...Event) *SliceSource {
	return &SliceSource{events: events}
}

// Next returns the next event.
func (s *SliceSource) Next() (Event, bool) {
	if s.pos >= len(s.events) {
		return Event{}, false
	}
	e := s.events[s.pos]
	s.pos++
	return e, true
}

// Len returns the number of events not yet consumed.
func (s *SliceSource) Len() int { return len(s.events) - s.pos }
