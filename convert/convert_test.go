package convert

import (
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	portabletext "github.com/derickschaefer/go-portabletext"
)

func run(t *testing.T, events ...Event) Result {
	t.Helper()
	res, err := Convert(Events(events...),
		WithKeys(NewCounterKeys("")),
		WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	return res
}

func runErr(t *testing.T, opts []Option, events ...Event) *Error {
	t.Helper()
	opts = append([]Option{WithKeys(NewCounterKeys("")), WithLogger(zaptest.NewLogger(t))}, opts...)
	res, err := Convert(Events(events...), opts...)
	require.Error(t, err)
	assert.Nil(t, res)
	var cerr *Error
	require.True(t, errors.As(err, &cerr), "want *Error, got %T", err)
	return cerr
}

func text(s string, marks ...Decorator) Span {
	if marks == nil {
		marks = Marks{}
	}
	return Span{Type: SpanText, Text: s, Marks: marks}
}

func para(children ...Span) *TextBlock {
	return &TextBlock{Style: "normal", Inline: Inline{Children: children}}
}

func assertResult(t *testing.T, want, got Result) {
	t.Helper()
	if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}
}

// ========================================
// Block Tests
// ========================================

func TestHeading(t *testing.T) {
	got := run(t,
		Start(Heading(1)), Text("Hey"), End(Heading(1)),
	)
	assertResult(t, Result{
		&TextBlock{Style: "h1", Inline: Inline{Children: []Span{text("Hey")}}},
	}, got)
}

func TestHeadings(t *testing.T) {
	got := run(t,
		Start(Heading(1)), Text("Hey"), End(Heading(1)),
		Start(Heading(2)), Text("HeyHey"), End(Heading(2)),
		Start(Heading(9)), Text("Deep"), End(Heading(9)),
	)
	require.Len(t, got, 3)
	styles := []string{}
	for _, b := range got {
		styles = append(styles, b.(*TextBlock).Style)
	}
	assert.Equal(t, []string{"h1", "h2", "h6"}, styles)
}

func TestBlockQuote(t *testing.T) {
	got := run(t,
		Start(BlockQuote()),
		Start(Paragraph()), Text("Okay, pep talk!"), End(Paragraph()),
		End(BlockQuote()),
		Start(Paragraph()), Text("Hi there"), End(Paragraph()),
	)
	assertResult(t, Result{
		&TextBlock{Style: "blockquote", Inline: Inline{Children: []Span{text("Okay, pep talk!")}}},
		para(text("Hi there")),
	}, got)
}

func TestBlockQuoteParagraphs(t *testing.T) {
	got := run(t,
		Start(BlockQuote()),
		Start(Paragraph()), Text("one"), End(Paragraph()),
		Start(Paragraph()), Text("two"), End(Paragraph()),
		End(BlockQuote()),
	)
	require.Len(t, got, 2)
	for _, b := range got {
		assert.Equal(t, "blockquote", b.(*TextBlock).Style)
	}
}

func TestBlockQuoteStartingWithList(t *testing.T) {
	got := run(t,
		Start(BlockQuote()),
		Start(List(false)), Start(Item()), Text("q"), End(Item()), End(List(false)),
		End(BlockQuote()),
	)
	assertResult(t, Result{item(1, Bullet, text("q"))}, got)
}

func TestBlockQuoteStartingWithCode(t *testing.T) {
	got := run(t,
		Start(BlockQuote()),
		Start(FencedCode("sh")), Text("ls\n"), End(FencedCode("sh")),
		Start(Paragraph()), Text("after"), End(Paragraph()),
		End(BlockQuote()),
	)
	assertResult(t, Result{
		&CodeBlock{Language: "sh", Code: "ls\n"},
		&TextBlock{Style: "blockquote", Inline: Inline{Children: []Span{text("after")}}},
	}, got)
}

func TestEmptyBlockQuoteIsDropped(t *testing.T) {
	got := run(t, Start(BlockQuote()), End(BlockQuote()))
	assert.Empty(t, got)
}

func TestCodeBlocks(t *testing.T) {
	got := run(t,
		Start(FencedCode("go")),
		Text("package main\n"), Text("func main() {}\n"),
		End(FencedCode("go")),
		Start(IndentedCode()), Text("plain\n"), End(IndentedCode()),
		Start(Paragraph()), Text("after"), End(Paragraph()),
	)
	assertResult(t, Result{
		&CodeBlock{Language: "go", Code: "package main\nfunc main() {}\n"},
		&CodeBlock{Language: "text", Code: "plain\n"},
		para(text("after")),
	}, got)
}

func TestTextOutsideBlockIsDropped(t *testing.T) {
	got := run(t, Text("stray"), SoftBreak(), Code("x"))
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

// ========================================
// Span Merging Tests
// ========================================

func TestConsecutiveTextMerges(t *testing.T) {
	got := run(t,
		Start(Paragraph()), Text("Hello "), Text("world"), End(Paragraph()),
	)
	assertResult(t, Result{para(text("Hello world"))}, got)
}

func TestSoftBreakJoinsWithSpace(t *testing.T) {
	got := run(t,
		Start(Paragraph()), Text("new line"), SoftBreak(), Text("continues"), End(Paragraph()),
	)
	assertResult(t, Result{para(text("new line continues"))}, got)
}

func TestHardBreakKeepsNewline(t *testing.T) {
	got := run(t,
		Start(Paragraph()), Text("one"), HardBreak(), Text("two"), End(Paragraph()),
	)
	assertResult(t, Result{para(text("one\ntwo"))}, got)
}

func TestMixedMarks(t *testing.T) {
	got := run(t,
		Start(Paragraph()),
		Text("Hello world, this is a "),
		Start(Strikethrough()), Text("complicated"), End(Strikethrough()),
		Text(" "),
		Start(Emphasis()), Text("very simple"), End(Emphasis()),
		Text(" example."),
		End(Paragraph()),
	)
	assertResult(t, Result{para(
		text("Hello world, this is a "),
		text("complicated", MarkStrike),
		text(" "),
		text("very simple", MarkEmphasis),
		text(" example."),
	)}, got)
}

func TestNestedMarkOrder(t *testing.T) {
	got := run(t,
		Start(Paragraph()),
		Start(Strong()), Text("strong "),
		Start(Emphasis()), Text("emp"), End(Emphasis()),
		End(Strong()),
		End(Paragraph()),
	)
	assertResult(t, Result{para(
		text("strong ", MarkStrong),
		text("emp", MarkStrong, MarkEmphasis),
	)}, got)
}

func TestSameMarksMerge(t *testing.T) {
	got := run(t,
		Start(Paragraph()),
		Start(Strong()), Text("a"), SoftBreak(), Text("b"), End(Strong()),
		End(Paragraph()),
	)
	assertResult(t, Result{para(text("a b", MarkStrong))}, got)
}

func TestInlineCodeNeverMerges(t *testing.T) {
	got := run(t,
		Start(Paragraph()),
		Text("use "), Code("fmt"), Code("log"), Text(" now"),
		End(Paragraph()),
	)
	assertResult(t, Result{para(
		text("use "),
		text("fmt", MarkCode),
		text("log", MarkCode),
		text(" now"),
	)}, got)
}

// ========================================
// List Tests
// ========================================

func item(level int, typ ListType, children ...Span) *ListItem {
	return &ListItem{
		TextBlock: TextBlock{Style: "normal", Inline: Inline{Children: children}},
		Level:     level,
		Type:      typ,
	}
}

func TestListsUnordered(t *testing.T) {
	got := run(t,
		Start(List(false)),
		Start(Item()), Text("Item 1"),
		Start(List(false)),
		Start(Item()), Text("Item 1.1"), End(Item()),
		End(List(false)),
		End(Item()),
		Start(Item()), Text("Item 2"), End(Item()),
		End(List(false)),
	)
	assertResult(t, Result{
		item(1, Bullet, text("Item 1")),
		item(2, Bullet, text("Item 1.1")),
		item(1, Bullet, text("Item 2")),
	}, got)
}

func TestListsOrderedLoose(t *testing.T) {
	got := run(t,
		Start(List(true)),
		Start(Item()),
		Start(Paragraph()), Text("Item 1"), End(Paragraph()),
		Start(List(true)),
		Start(Item()), Start(Paragraph()), Text("Item 1.1"), End(Paragraph()), End(Item()),
		End(List(true)),
		End(Item()),
		Start(Item()), Start(Paragraph()), Text("Item 2"), End(Paragraph()), End(Item()),
		End(List(true)),
	)
	assertResult(t, Result{
		item(1, Numbered, text("Item 1")),
		item(2, Numbered, text("Item 1.1")),
		item(1, Numbered, text("Item 2")),
	}, got)
}

func TestListLevelIndependentOfSiblings(t *testing.T) {
	events := []Event{Start(List(false))}
	for i := 0; i < 5; i++ {
		events = append(events, Start(Item()), Text("x"), End(Item()))
	}
	events = append(events,
		Start(Item()), Text("parent"),
		Start(List(true)),
		Start(Item()), Text("child"),
		Start(List(false)), Start(Item()), Text("grandchild"), End(Item()), End(List(false)),
		End(Item()),
		End(List(true)),
		End(Item()),
		End(List(false)),
	)
	got := run(t, events...)
	require.Len(t, got, 8)
	for _, b := range got[:6] {
		assert.Equal(t, 1, b.(*ListItem).Level)
	}
	assert.Equal(t, 2, got[6].(*ListItem).Level)
	assert.Equal(t, Numbered, got[6].(*ListItem).Type)
	assert.Equal(t, 3, got[7].(*ListItem).Level)
	assert.Equal(t, Bullet, got[7].(*ListItem).Type)
}

// ========================================
// Link and Image Tests
// ========================================

func TestLinkInsideEmphasis(t *testing.T) {
	got := run(t,
		Start(Paragraph()),
		Text("This is a "),
		Start(Emphasis()),
		Start(Link("https://example.com", "")), Text("a link"), End(Link("https://example.com", "")),
		End(Emphasis()),
		End(Paragraph()),
	)
	assertResult(t, Result{&TextBlock{Style: "normal", Inline: Inline{
		Children: []Span{
			text("This is a "),
			text("a link", MarkEmphasis, LinkReference("k1")),
		},
		MarkDefs: []MarkDef{LinkDef{Key: "k1", Href: "https://example.com"}},
	}}}, got)
}

func TestLinksSharingHref(t *testing.T) {
	href := "https://example.com"
	got := run(t,
		Start(Paragraph()),
		Start(Link(href, "")), Text("one"), End(Link(href, "")),
		Text(" and "),
		Start(Link(href, "second")), Text("two"), End(Link(href, "second")),
		End(Paragraph()),
	)
	assertResult(t, Result{&TextBlock{Style: "normal", Inline: Inline{
		Children: []Span{
			text("one", LinkReference("k1")),
			text(" and "),
			text("two", LinkReference("k2")),
		},
		MarkDefs: []MarkDef{
			LinkDef{Key: "k1", Href: href},
			LinkDef{Key: "k2", Href: href, Title: "second"},
		},
	}}}, got)
}

func TestImageWithCaption(t *testing.T) {
	src := "/assets/images/san-juan-mountains.jpg"
	got := run(t,
		Start(Paragraph()),
		Start(Image(src, "San Juan Mountains")),
		Text("The San Juan Mountains are "), Start(Emphasis()), Text("beautiful"), End(Emphasis()), Text("!"),
		End(Image(src, "San Juan Mountains")),
		End(Paragraph()),
	)
	alt := "The San Juan Mountains are beautiful!"
	assertResult(t, Result{&TextBlock{Style: "normal", Inline: Inline{
		Children: []Span{{Type: SpanImageAlt, Text: alt, Marks: Marks{AssetReference("k1")}}},
		MarkDefs: []MarkDef{ImageDef{
			Key:     "k1",
			Src:     src,
			Picture: PlaceholderPicture(src, alt),
			Caption: "San Juan Mountains",
		}},
	}}}, got)
}

func TestImageInsideLink(t *testing.T) {
	href := "https://www.flickr.com/photos/beaurogers/31833779864"
	src := "/assets/images/shiprock.jpg"
	got := run(t,
		Start(Paragraph()),
		Text("A running text that then links: "),
		Start(Link(href, "")),
		Start(Image(src, "")), Text("An old rock"), SoftBreak(), Text("in the desert"), End(Image(src, "")),
		End(Link(href, "")),
		Text(" and continues here"),
		End(Paragraph()),
	)
	require.Len(t, got, 1)
	blk := got[0].(*TextBlock)
	assert.Equal(t, []Span{
		text("A running text that then links: "),
		{Type: SpanImageAlt, Text: "An old rock in the desert", Marks: Marks{LinkReference("k1"), AssetReference("k2")}},
		text(" and continues here"),
	}, blk.Children)
	require.Len(t, blk.MarkDefs, 2)
	assert.Equal(t, LinkDef{Key: "k1", Href: href}, blk.MarkDefs[0])
	img := blk.MarkDefs[1].(ImageDef)
	assert.Equal(t, "", img.Caption)
	assert.Equal(t, src, img.Src)
}

func TestResolverIsConsulted(t *testing.T) {
	var seen []string
	resolver := ResolverFuncs{
		ResolveFunc: func(ref string) (string, error) {
			seen = append(seen, "resolve:"+ref)
			return "https://cdn.example.com" + ref, nil
		},
		ResolvePictureFunc: func(ref, alt string) (portabletext.Picture, error) {
			seen = append(seen, "picture:"+ref+":"+alt)
			return portabletext.Picture{Src: ref, Alt: alt, Width: 640, Height: 480}, nil
		},
	}
	res, err := Convert(Events(
		Start(Paragraph()), Start(Image("/a.png", "")), Text("alt"), End(Image("/a.png", "")), End(Paragraph()),
	), WithResolver(resolver), WithKeys(NewCounterKeys("img")))
	require.NoError(t, err)
	assert.Equal(t, []string{"resolve:/a.png", "picture:/a.png:alt"}, seen)

	img := res[0].(*TextBlock).MarkDefs[0].(ImageDef)
	assert.Equal(t, "img1", img.Key)
	assert.Equal(t, "https://cdn.example.com/a.png", img.Src)
	assert.Equal(t, 640, img.Picture.Width)
}

func TestKeyCollisionsAreRegenerated(t *testing.T) {
	keys := []string{"same", "same", "", "other"}
	gen := KeyFunc(func() string {
		k := keys[0]
		keys = keys[1:]
		return k
	})
	res, err := Convert(Events(
		Start(Paragraph()),
		Start(Link("a", "")), Text("a"), End(Link("a", "")),
		Start(Link("b", "")), Text("b"), End(Link("b", "")),
		End(Paragraph()),
	), WithKeys(gen))
	require.NoError(t, err)
	defs := res[0].(*TextBlock).MarkDefs
	require.Len(t, defs, 2)
	assert.Equal(t, "same", defs[0].MarkKey())
	assert.Equal(t, "other", defs[1].MarkKey())
}

// ========================================
// Ignored Event Tests
// ========================================

func TestIgnoredEvents(t *testing.T) {
	got := run(t,
		Start(Table()),
		Start(TableHead()), Start(TableCell()), Text("h"), End(TableCell()), End(TableHead()),
		Start(TableRow()), Start(TableCell()), Text("c"), End(TableCell()), End(TableRow()),
		End(Table()),
		Start(Paragraph()),
		Text("before"), HTML("<b>"), FootnoteReference("1"), TaskListMarker(true), Text(" after"),
		End(Paragraph()),
		Rule(),
		Start(FootnoteDefinition("1")),
		Start(Paragraph()), Text("note body"), End(Paragraph()),
		End(FootnoteDefinition("1")),
	)
	assertResult(t, Result{para(text("before after"))}, got)
}

// ========================================
// Error Tests
// ========================================

func TestStructuralErrors(t *testing.T) {
	tests := []struct {
		name   string
		events []Event
		index  int
	}{
		{
			name:   "unmatched strong",
			events: []Event{Start(Paragraph()), Text("x"), End(Strong())},
			index:  2,
		},
		{
			name:   "mismatched decorator",
			events: []Event{Start(Paragraph()), Start(Emphasis()), End(Strikethrough())},
			index:  2,
		},
		{
			name:   "list end without list",
			events: []Event{End(List(false))},
			index:  0,
		},
		{
			name:   "item outside list",
			events: []Event{Start(Item())},
			index:  0,
		},
		{
			name:   "link end without link",
			events: []Event{Start(Paragraph()), End(Link("x", ""))},
			index:  1,
		},
		{
			name:   "stray image end",
			events: []Event{Start(Paragraph()), End(Image("x", ""))},
			index:  1,
		},
		{
			name:   "link outside block",
			events: []Event{Start(Link("x", ""))},
			index:  0,
		},
		{
			name:   "code block closed by other tag",
			events: []Event{Start(FencedCode("go")), Text("x"), End(Paragraph())},
			index:  2,
		},
		{
			name:   "stream ends inside image",
			events: []Event{Start(Paragraph()), Start(Image("x", "")), Text("alt")},
			index:  -1,
		},
		{
			name:   "stream ends with open emphasis",
			events: []Event{Start(Paragraph()), Start(Emphasis()), Text("x"), End(Paragraph())},
			index:  -1,
		},
		{
			name:   "stream ends with open list",
			events: []Event{Start(List(true)), Start(Item()), Text("x"), End(Item())},
			index:  -1,
		},
		{
			name:   "paragraph closed twice",
			events: []Event{Start(Paragraph()), Text("a"), End(Paragraph()), End(Paragraph())},
			index:  3,
		},
		{
			name:   "stray heading end",
			events: []Event{End(Heading(2))},
			index:  0,
		},
		{
			name:   "item end outside list",
			events: []Event{Start(Paragraph()), Text("a"), End(Paragraph()), End(Item())},
			index:  3,
		},
		{
			name:   "heading closed as paragraph",
			events: []Event{Start(Heading(1)), Text("a"), End(Paragraph())},
			index:  2,
		},
		{
			name:   "stream ends with open paragraph",
			events: []Event{Start(Paragraph()), Text("a")},
			index:  -1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := runErr(t, nil, tt.events...)
			assert.True(t, errors.Is(err, ErrStructuralImbalance), "got %v", err)
			assert.Equal(t, tt.index, err.Index)
			if tt.index >= 0 {
				assert.Equal(t, tt.events[tt.index], err.Event)
			}
		})
	}
}

func TestUnresolvedLink(t *testing.T) {
	err := runErr(t, nil,
		Start(Paragraph()),
		Start(Link("https://example.com", "")), Text("x"),
		End(Paragraph()),
		End(Link("https://example.com", "")),
	)
	assert.True(t, errors.Is(err, ErrUnresolvedMarkReference))
	assert.False(t, errors.Is(err, ErrStructuralImbalance))
	assert.Equal(t, 4, err.Index)
	assert.Contains(t, err.Error(), "k1")
}

func TestResolverFailure(t *testing.T) {
	cause := errors.New("asset store offline")
	resolver := ResolverFuncs{
		ResolvePictureFunc: func(string, string) (portabletext.Picture, error) {
			return portabletext.Picture{}, cause
		},
	}
	err := runErr(t, []Option{WithResolver(resolver)},
		Start(Paragraph()), Start(Image("/x.png", "")), Text("alt"), End(Image("/x.png", "")), End(Paragraph()),
	)
	assert.True(t, errors.Is(err, ErrResolverFailure))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, 1, err.Index)
	assert.Contains(t, err.Error(), "asset store offline")
}

func TestKeyExhaustion(t *testing.T) {
	err := runErr(t, []Option{WithKeys(KeyFunc(func() string { return "dup" }))},
		Start(Paragraph()),
		Start(Link("a", "")), Text("a"), End(Link("a", "")),
		Start(Link("b", "")),
	)
	assert.True(t, errors.Is(err, ErrStructuralImbalance))
	assert.Equal(t, 4, err.Index)
}

// ========================================
// Property Tests
// ========================================

func sampleEvents() []Event {
	return []Event{
		Start(Heading(2)), Text("Title "), Start(Emphasis()), Text("here"), End(Emphasis()), End(Heading(2)),
		Start(Paragraph()),
		Start(Link("https://a.example", "")), Text("a"), End(Link("https://a.example", "")),
		Text(" "),
		Start(Link("https://b.example", "")),
		Start(Image("/i.png", "cap")), Text("img"), End(Image("/i.png", "cap")),
		End(Link("https://b.example", "")),
		End(Paragraph()),
		Start(List(false)),
		Start(Item()), Start(Strong()), Start(Link("https://c.example", "")), Text("c"), End(Link("https://c.example", "")), End(Strong()), End(Item()),
		End(List(false)),
		Start(FencedCode("sh")), Text("echo hi\n"), End(FencedCode("sh")),
	}
}

func TestReferencesBindToOwnBlock(t *testing.T) {
	got := run(t, sampleEvents()...)
	for i, b := range got {
		in := b.inline()
		if in == nil {
			continue
		}
		for _, s := range in.Children {
			for _, m := range s.Marks {
				if !m.IsReference() {
					continue
				}
				n := 0
				for _, md := range in.MarkDefs {
					if md.MarkKey() == m.Key {
						n++
					}
				}
				assert.Equal(t, 1, n, "block %d mark %s", i, m)
			}
		}
	}

	errs := portabletext.ValidateWithOptions(got.Document(), portabletext.ValidationOptions{CheckMarkDefRefs: true})
	assert.Empty(t, errs)
}

func TestBlockExclusivity(t *testing.T) {
	doc := run(t, sampleEvents()...).Document()
	require.Len(t, doc, 4)
	for _, n := range doc {
		assert.False(t, n.Style != nil && n.Code != nil, "node %s has style and code", n.Type)
	}
	assert.True(t, doc[3].IsCode())
	assert.Equal(t, "sh", doc[3].GetLanguage())
}

func TestConcurrentConversions(t *testing.T) {
	c := New()
	var wg sync.WaitGroup
	results := make([]Result, 8)
	errs := make([]error, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = c.Convert(Events(sampleEvents()...))
		}(i)
	}
	wg.Wait()
	for i := range results {
		require.NoError(t, errs[i])
		assert.Len(t, results[i], 4)
	}
}

// ========================================
// Document Tests
// ========================================

func TestDocumentWireFormat(t *testing.T) {
	res := run(t,
		Start(Heading(1)), Text("Hey"), End(Heading(1)),
		Start(List(true)), Start(Item()), Text("one"), End(Item()), End(List(true)),
		Start(Paragraph()),
		Start(Link("https://example.com", "")), Text("link"), End(Link("https://example.com", "")),
		Start(Image("/a.png", "A")), Text("alt"), End(Image("/a.png", "A")),
		End(Paragraph()),
		Start(FencedCode("go")), Text("x := 1\n"), End(FencedCode("go")),
	)
	out, err := portabletext.EncodeString(res.Document())
	require.NoError(t, err)

	assert.JSONEq(t, `[
		{"_type":"block","style":"h1","markDefs":[],
		 "children":[{"_type":"span","text":"Hey","marks":[]}]},
		{"_type":"block","style":"normal","listItem":"number","level":1,"markDefs":[],
		 "children":[{"_type":"span","text":"one","marks":[]}]},
		{"_type":"block","style":"normal",
		 "children":[
			{"_type":"span","text":"link","marks":["k1"]},
			{"_type":"image-alt","text":"alt","marks":["k2"]}],
		 "markDefs":[
			{"_key":"k1","_type":"link","href":"https://example.com"},
			{"_key":"k2","_type":"image","src":"/a.png","caption":"A",
			 "picture":{"src":"/a.png","alt":"alt","width":0,"height":0,"sources":[]}}]},
		{"_type":"code","language":"go","code":"x := 1\n","children":[],"markDefs":[]}
	]`, out)
}
