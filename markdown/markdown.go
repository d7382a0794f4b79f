// Package markdown tokenizes CommonMark with gomarkdown and feeds the
// resulting event stream to package convert.
package markdown

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/gomarkdown/markdown/ast"
	"github.com/gomarkdown/markdown/parser"

	"github.com/derickschaefer/go-portabletext/convert"
)

// DefaultExtensions are the parser extensions used by Events and Convert.
const DefaultExtensions = parser.CommonExtensions | parser.Footnotes

var extensionNames = map[string]parser.Extensions{
	"common":               parser.CommonExtensions,
	"no_intra_emphasis":    parser.NoIntraEmphasis,
	"tables":               parser.Tables,
	"fenced_code":          parser.FencedCode,
	"autolink":             parser.Autolink,
	"strikethrough":        parser.Strikethrough,
	"lax_html_blocks":      parser.LaxHTMLBlocks,
	"space_headings":       parser.SpaceHeadings,
	"hard_line_break":      parser.HardLineBreak,
	"footnotes":            parser.Footnotes,
	"heading_ids":          parser.HeadingIDs,
	"auto_heading_ids":     parser.AutoHeadingIDs,
	"backslash_line_break": parser.BackslashLineBreak,
	"definition_lists":     parser.DefinitionLists,
}

// ExtensionNames lists the names understood by ParseExtensions.
func ExtensionNames() []string {
	names := make([]string, 0, len(extensionNames))
	for name := range extensionNames {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParseExtensions combines named parser extensions. An empty list yields
// DefaultExtensions.
func ParseExtensions(names []string) (parser.Extensions, error) {
	if len(names) == 0 {
		return DefaultExtensions, nil
	}
	var ext parser.Extensions
	for _, name := range names {
		e, ok := extensionNames[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return 0, fmt.Errorf("unknown markdown extension %q", name)
		}
		ext |= e
	}
	return ext, nil
}

// Tokenizer produces convert events from markdown source. The zero value
// parses with no extensions enabled.
type Tokenizer struct {
	Extensions parser.Extensions
}

// New returns a Tokenizer using ext.
func New(ext parser.Extensions) *Tokenizer {
	return &Tokenizer{Extensions: ext}
}

// Parse returns the gomarkdown tree for src. Parsers keep state, so a new
// one is built for every call.
func (t *Tokenizer) Parse(src []byte) ast.Node {
	return parser.NewWithExtensions(t.Extensions).Parse(normalizeListIndent(src))
}

// Events tokenizes src.
func (t *Tokenizer) Events(src []byte) *convert.SliceSource {
	return convert.Events(Flatten(t.Parse(src))...)
}

// Convert tokenizes src and converts the events.
func (t *Tokenizer) Convert(src []byte, opts ...convert.Option) (convert.Result, error) {
	return convert.Convert(t.Events(src), opts...)
}

// Events tokenizes src with DefaultExtensions.
func Events(src []byte) *convert.SliceSource {
	return New(DefaultExtensions).Events(src)
}

// Convert tokenizes src with DefaultExtensions and converts the events.
func Convert(src []byte, opts ...convert.Option) (convert.Result, error) {
	return New(DefaultExtensions).Convert(src, opts...)
}

// Flatten walks a gomarkdown tree and returns the equivalent event stream.
func Flatten(root ast.Node) []convert.Event {
	var f flattener
	ast.WalkFunc(root, f.visit)
	return f.events
}

type flattener struct {
	events []convert.Event
}

func (f *flattener) emit(e ...convert.Event) { f.events = append(f.events, e...) }

func (f *flattener) span(entering bool, tag convert.Tag) {
	if entering {
		f.emit(convert.Start(tag))
	} else {
		f.emit(convert.End(tag))
	}
}

// block is span for tags owning a text block. The line ending closing the
// block is not a soft break.
func (f *flattener) block(entering bool, tag convert.Tag) {
	if !entering {
		for n := len(f.events); n > 0 && f.events[n-1].Kind == convert.SoftBreakEvent; n-- {
			f.events = f.events[:n-1]
		}
	}
	f.span(entering, tag)
}

func (f *flattener) visit(node ast.Node, entering bool) ast.WalkStatus {
	switch n := node.(type) {
	case *ast.Document, *ast.TableBody, *ast.TableFooter:
	case *ast.Paragraph:
		f.block(entering, convert.Paragraph())
	case *ast.Heading:
		f.block(entering, convert.Heading(n.Level))
	case *ast.BlockQuote, *ast.Aside:
		f.span(entering, convert.BlockQuote())
	case *ast.List:
		if n.IsFootnotesList {
			f.span(entering, convert.FootnoteDefinition(""))
			break
		}
		f.span(entering, convert.List(n.ListFlags&ast.ListTypeOrdered != 0))
	case *ast.ListItem:
		f.block(entering, convert.Item())
	case *ast.Emph:
		f.span(entering, convert.Emphasis())
	case *ast.Strong:
		f.span(entering, convert.Strong())
	case *ast.Del:
		f.span(entering, convert.Strikethrough())
	case *ast.Link:
		if n.NoteID != 0 {
			if entering {
				f.emit(convert.FootnoteReference(fmt.Sprint(n.NoteID)))
			}
			return ast.SkipChildren
		}
		f.span(entering, convert.Link(string(n.Destination), string(n.Title)))
	case *ast.Image:
		f.span(entering, convert.Image(string(n.Destination), string(n.Title)))
	case *ast.Table:
		f.span(entering, convert.Table())
	case *ast.TableHeader:
		f.span(entering, convert.TableHead())
	case *ast.TableRow:
		f.span(entering, convert.TableRow())
	case *ast.TableCell:
		f.span(entering, convert.TableCell())
	case *ast.CodeBlock:
		tag := convert.IndentedCode()
		if n.IsFenced {
			tag = convert.FencedCode(infoLanguage(n.Info))
		}
		f.emit(convert.Start(tag))
		if len(n.Literal) > 0 {
			f.emit(convert.Text(string(n.Literal)))
		}
		f.emit(convert.End(tag))
	case *ast.Code:
		f.emit(convert.Code(string(n.Literal)))
	case *ast.Text:
		f.text(n.Literal)
	case *ast.Softbreak:
		f.emit(convert.SoftBreak())
	case *ast.Hardbreak:
		f.emit(convert.HardBreak())
	case *ast.NonBlockingSpace:
		f.emit(convert.Text(" "))
	case *ast.HTMLSpan:
		f.emit(convert.HTML(string(n.Literal)))
	case *ast.HTMLBlock:
		f.emit(convert.HTML(string(n.Literal)))
	case *ast.HorizontalRule:
		f.emit(convert.Rule())
	}
	return ast.GoToNext
}

// text splits a literal on line breaks; every newline inside a paragraph is
// a soft break. Spaces around a break belong to the source layout.
func (f *flattener) text(lit []byte) {
	lines := bytes.Split(lit, []byte{'\n'})
	for i, line := range lines {
		if i > 0 {
			f.emit(convert.SoftBreak())
			line = bytes.TrimLeft(line, " \t")
		}
		if i < len(lines)-1 {
			line = bytes.TrimRight(line, " \t")
		}
		if len(line) > 0 {
			f.emit(convert.Text(string(line)))
		}
	}
}

// infoLanguage returns the first word of a fence info string.
func infoLanguage(info []byte) string {
	if fields := strings.Fields(string(info)); len(fields) > 0 {
		return fields[0]
	}
	return ""
}
