package convert

import (
	"go.uber.org/zap"
)

// builder owns the output sequence. Only the last block may be open.
type builder struct {
	blocks  Result
	open    bool
	quote   bool // open block was opened by a block quote
	dropped int
	log     *zap.Logger
}

// current returns the span container of the open block, nil when none is
// open or the open block holds no spans.
func (b *builder) current() *Inline {
	if !b.open || len(b.blocks) == 0 {
		return nil
	}
	return b.blocks[len(b.blocks)-1].inline()
}

// openIfNone appends blk and opens it unless a block is already open.
func (b *builder) openIfNone(blk Block) bool {
	if b.open {
		return false
	}
	b.blocks = append(b.blocks, blk)
	b.open = true
	return true
}

// openQuote opens blk for a block quote. The block is discarded if it is
// closed before receiving any spans or mark definitions.
func (b *builder) openQuote(blk Block) {
	if b.openIfNone(blk) {
		b.quote = true
	}
}

// start closes whatever is open and opens blk.
func (b *builder) start(blk Block) {
	b.close()
	b.openIfNone(blk)
}

// seal appends a block that never receives children.
func (b *builder) seal(blk Block) {
	b.close()
	b.blocks = append(b.blocks, blk)
}

func (b *builder) close() {
	if in := b.current(); b.quote && in != nil && len(in.Children) == 0 && len(in.MarkDefs) == 0 {
		b.blocks = b.blocks[:len(b.blocks)-1]
	}
	b.open = false
	b.quote = false
}

func (b *builder) appendSpan(typ, text string, marks Marks) {
	in := b.current()
	if in == nil {
		b.drop(text)
		return
	}
	in.Children = append(in.Children, Span{Type: typ, Text: text, Marks: marks})
}

func (b *builder) extendLast(suffix string) {
	in := b.current()
	if in == nil {
		b.drop(suffix)
		return
	}
	if last := in.LastSpan(); last != nil {
		last.Text += suffix
	}
}

// mergeText extends the previous span when it is a plain span with exactly
// the same marks, otherwise it starts a new span.
func (b *builder) mergeText(text string, marks Marks) {
	in := b.current()
	if in == nil {
		b.drop(text)
		return
	}
	if last := in.LastSpan(); last != nil && last.Type == SpanText && last.Marks.Equal(marks) {
		last.Text += text
		return
	}
	in.Children = append(in.Children, Span{Type: SpanText, Text: text, Marks: marks})
}

func (b *builder) drop(text string) {
	b.dropped++
	b.log.Debug("Dropping text outside of a block", zap.String("text", text))
}
