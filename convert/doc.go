/*
Package convert turns a stream of markup parsing events into Portable Text.

The input is a forward-only Source of Events: Start/End pairs delimiting
paragraphs, headings, block quotes, code blocks, lists, items, links,
images and inline emphasis, plus Text, Code and break events in between.
Any tokenizer can produce it; package markdown does so for CommonMark.

	res, err := convert.Convert(convert.Events(
		convert.Start(convert.Heading(1)),
		convert.Text("Hey"),
		convert.End(convert.Heading(1)),
	), convert.WithKeys(convert.NewCounterKeys("")))
	if err != nil {
		log.Fatal(err)
	}
	doc := res.Document() // portabletext.Document

# Output

A Result is an ordered list of blocks, each one of *TextBlock, *ListItem
or *CodeBlock. Prose blocks hold Spans whose Marks list the decorators that
were open when the text arrived, outermost first. Links and images are
stored as mark definitions (LinkDef, ImageDef) on the block that contains
them and referenced from spans by key.

Consecutive text carrying the same marks is merged into one span and soft
breaks become a single space, so "new line\ncontinues" yields one span.

# Keys and assets

Mark definition keys come from a KeyGenerator. UUIDKeys is the default;
NewCounterKeys gives deterministic output for tests. Images are resolved
through an AssetResolver, IdentityResolver by default.

# Errors

Conversions are all-or-nothing. An unmatched End, a stream ending with
open ranges, or a failing resolver returns an *Error carrying the event
index and one of ErrStructuralImbalance, ErrUnresolvedMarkReference or
ErrResolverFailure, which errors.Is understands.

Tables, footnote definitions, HTML, rules and task list markers produce no
output.
*/
package convert
