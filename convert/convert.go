package convert

import (
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Option configures a Converter.
type Option func(*Converter)

// WithResolver sets the asset resolver used for images.
func WithResolver(r AssetResolver) Option {
	return func(c *Converter) {
		if r != nil {
			c.resolver = r
		}
	}
}

// WithKeys sets the mark definition key generator.
func WithKeys(k KeyGenerator) Option {
	return func(c *Converter) {
		if k != nil {
			c.keys = k
		}
	}
}

// WithLogger sets the logger. Conversions log at debug level only.
func WithLogger(l *zap.Logger) Option {
	return func(c *Converter) {
		if l != nil {
			c.log = l
		}
	}
}

// Converter turns markup event streams into Portable Text blocks. It holds
// configuration only and may be shared; every Convert call owns its state.
type Converter struct {
	resolver AssetResolver
	keys     KeyGenerator
	log      *zap.Logger
}

// New returns a Converter using IdentityResolver, UUIDKeys and a no-op
// logger unless overridden.
func New(opts ...Option) *Converter {
	c := &Converter{
		resolver: IdentityResolver{},
		keys:     UUIDKeys{},
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Convert is a shortcut for New(opts...).Convert(src).
func Convert(src Source, opts ...Option) (Result, error) {
	return New(opts...).Convert(src)
}

// Convert consumes src until it is exhausted. Any structural error discards
// the partial result.
func (c *Converter) Convert(src Source) (Result, error) {
	cv := &conversion{
		Converter: c,
		src:       src,
		index:     -1,
		b:         builder{log: c.log},
	}
	if err := cv.run(); err != nil {
		c.log.Debug("Conversion failed", zap.Error(err))
		return nil, err
	}
	c.log.Debug("Conversion finished",
		zap.Int("events", cv.index+1),
		zap.Int("blocks", len(cv.b.blocks)),
		zap.Int("dropped", cv.b.dropped))
	if cv.b.blocks == nil {
		return Result{}, nil
	}
	return cv.b.blocks, nil
}

// conversion is the per call state.
type conversion struct {
	*Converter

	src   Source
	index int // position of the last event pulled from src

	b      builder
	marks  markStack
	lists  listStack
	links  []string  // keys of links opened and not yet closed
	quotes int       // block quote depth
	open   []TagKind // paragraphs, headings and items not yet closed
}

func (cv *conversion) next() (Event, bool) {
	e, ok := cv.src.Next()
	if ok {
		cv.index++
	}
	return e, ok
}

func (cv *conversion) run() error {
	for {
		e, ok := cv.next()
		if !ok {
			break
		}
		at := cv.index
		if err := cv.dispatch(e); err != nil {
			if !err.located {
				err.Index, err.Event, err.located = at, e, true
			}
			return err
		}
	}
	if err := cv.finish(); err != nil {
		return err
	}
	return nil
}

func (cv *conversion) dispatch(e Event) *Error {
	switch e.Kind {
	case StartEvent:
		return cv.start(e.Tag)
	case EndEvent:
		return cv.end(e.Tag)
	case TextEvent:
		cv.b.mergeText(e.Text, cv.marks.snapshot())
	case CodeEvent:
		cv.b.appendSpan(SpanText, e.Text, cv.marks.snapshot(MarkCode))
	case SoftBreakEvent:
		cv.b.extendLast(" ")
	case HardBreakEvent:
		cv.b.extendLast("\n")
	case HTMLEvent, FootnoteReferenceEvent, RuleEvent, TaskListMarkerEvent:
		cv.log.Debug("Ignoring event", zap.Stringer("event", e))
	}
	return nil
}

func (cv *conversion) start(tag Tag) *Error {
	switch tag.Kind {
	case TagParagraph, TagHeading, TagItem:
		if err := cv.openBlock(tag); err != nil {
			return err
		}
	case TagBlockQuote:
		cv.quotes++
		cv.b.openQuote(&TextBlock{Style: "blockquote"})
	case TagCodeBlock:
		code, err := cv.consumeInner(tag.Kind)
		if err != nil {
			return err
		}
		lang := tag.Language
		if lang == "" {
			lang = "text"
		}
		cv.b.seal(&CodeBlock{Language: lang, Code: code})
	case TagList:
		if tag.Ordered {
			cv.lists.push(Numbered)
		} else {
			cv.lists.push(Bullet)
		}
	case TagLink:
		key, err := cv.b.register(cv.keys, func(key string) MarkDef {
			return LinkDef{Key: key, Href: tag.Href, Title: tag.Title}
		})
		if err != nil {
			return err
		}
		cv.marks.push(LinkReference(key))
		cv.links = append(cv.links, key)
	case TagImage:
		return cv.image(tag)
	case TagStrong:
		cv.marks.push(MarkStrong)
	case TagEmphasis:
		cv.marks.push(MarkEmphasis)
	case TagStrikethrough:
		cv.marks.push(MarkStrike)
	case TagFootnoteDefinition, TagTable, TagTableHead, TagTableRow, TagTableCell:
		// no structured output, swallow the whole range
		if _, err := cv.consumeInner(tag.Kind); err != nil {
			return err
		}
		cv.log.Debug("Skipped unsupported range", zap.Stringer("tag", tag))
	}
	return nil
}

// openBlock handles the tags that own a text block. Nested paragraphs reuse
// the block already open.
func (cv *conversion) openBlock(tag Tag) *Error {
	switch tag.Kind {
	case TagParagraph:
		style := "normal"
		if cv.quotes > 0 {
			style = "blockquote"
		}
		cv.b.openIfNone(&TextBlock{Style: style})
	case TagHeading:
		cv.b.openIfNone(&TextBlock{Style: headingStyle(tag.Level)})
	case TagItem:
		typ, level, ok := cv.lists.top()
		if !ok {
			return imbalance("list item outside of a list")
		}
		cv.b.start(&ListItem{TextBlock: TextBlock{Style: "normal"}, Level: level, Type: typ})
	}
	cv.open = append(cv.open, tag.Kind)
	return nil
}

// closeBlock requires kind to be the innermost open block tag.
func (cv *conversion) closeBlock(kind TagKind) *Error {
	n := len(cv.open)
	if n == 0 {
		return imbalance("%s closed but none is open", kind)
	}
	if top := cv.open[n-1]; top != kind {
		return imbalance("%s closed while %s is open", kind, top)
	}
	cv.open = cv.open[:n-1]
	cv.b.close()
	return nil
}

func (cv *conversion) image(tag Tag) *Error {
	alt, err := cv.consumeInner(tag.Kind)
	if err != nil {
		return err
	}
	src, rerr := cv.resolver.Resolve(tag.Href)
	if rerr != nil {
		return resolverFailure(rerr, "resolve %q", tag.Href)
	}
	pic, rerr := cv.resolver.ResolvePicture(tag.Href, alt)
	if rerr != nil {
		return resolverFailure(rerr, "resolve picture %q", tag.Href)
	}
	key, err := cv.b.register(cv.keys, func(key string) MarkDef {
		return ImageDef{Key: key, Src: src, Picture: pic, Caption: tag.Title}
	})
	if err != nil {
		return err
	}
	ref := AssetReference(key)
	cv.marks.push(ref)
	cv.b.appendSpan(SpanImageAlt, alt, cv.marks.snapshot())
	cv.marks.remove(ref)
	return nil
}

func (cv *conversion) end(tag Tag) *Error {
	switch tag.Kind {
	case TagParagraph, TagHeading, TagItem:
		return cv.closeBlock(tag.Kind)
	case TagBlockQuote:
		if cv.quotes == 0 {
			return imbalance("block quote closed but none is open")
		}
		cv.quotes--
		cv.b.close()
	case TagList:
		if !cv.lists.pop() {
			return imbalance("list closed but none is open")
		}
	case TagStrong:
		return cv.unmark(MarkStrong)
	case TagEmphasis:
		return cv.unmark(MarkEmphasis)
	case TagStrikethrough:
		return cv.unmark(MarkStrike)
	case TagLink:
		if len(cv.links) == 0 {
			return imbalance("link closed but none is open")
		}
		key := cv.links[len(cv.links)-1]
		cv.links = cv.links[:len(cv.links)-1]
		if !cv.b.lookup(key) {
			return unresolved("link %s is not registered in the open block", key)
		}
		return cv.unmark(LinkReference(key))
	case TagCodeBlock, TagImage:
		return imbalance("%s closed without a matching start", tag.Kind)
	default:
		cv.log.Debug("Ignoring end of unsupported range", zap.Stringer("tag", tag))
	}
	return nil
}

func (cv *conversion) unmark(d Decorator) *Error {
	if !cv.marks.remove(d) {
		return imbalance("no open %s decorator", d)
	}
	return nil
}

// consumeInner flattens the events up to and including the End closing the
// range opened by kind. Text, code and html are concatenated, breaks and
// rules become a single space.
func (cv *conversion) consumeInner(kind TagKind) (string, *Error) {
	var buf strings.Builder
	nest := 0
	for {
		e, ok := cv.next()
		if !ok {
			return "", &Error{
				Index:   -1,
				Kind:    ErrStructuralImbalance,
				Reason:  "stream ended inside " + kind.String(),
				located: true,
			}
		}
		switch e.Kind {
		case StartEvent:
			nest++
		case EndEvent:
			if nest > 0 {
				nest--
				continue
			}
			if e.Tag.Kind != kind {
				return "", &Error{
					Index:   cv.index,
					Event:   e,
					Kind:    ErrStructuralImbalance,
					Reason:  kind.String() + " closed by " + e.Tag.Kind.String(),
					located: true,
				}
			}
			return buf.String(), nil
		case TextEvent, CodeEvent, HTMLEvent:
			buf.WriteString(e.Text)
		case SoftBreakEvent, HardBreakEvent, RuleEvent:
			buf.WriteByte(' ')
		}
	}
}

// finish rejects streams that end with open ranges.
func (cv *conversion) finish() *Error {
	var open []string
	if !cv.marks.empty() {
		open = append(open, strconv.Itoa(cv.marks.len())+" decorators")
	}
	if n := cv.lists.level(); n > 0 {
		open = append(open, strconv.Itoa(n)+" lists")
	}
	if cv.quotes > 0 {
		open = append(open, strconv.Itoa(cv.quotes)+" block quotes")
	}
	if n := len(cv.open); n > 0 {
		open = append(open, strconv.Itoa(n)+" blocks")
	}
	if len(open) == 0 {
		return nil
	}
	return &Error{
		Index:   -1,
		Kind:    ErrStructuralImbalance,
		Reason:  "stream ended with open " + strings.Join(open, ", "),
		located: true,
	}
}

func headingStyle(level int) string {
	switch {
	case level < 1:
		level = 1
	case level > 6:
		level = 6
	}
	return "h" + strconv.Itoa(level)
}
