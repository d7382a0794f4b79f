package markdown

import (
	"bytes"
)

// listColumn is an open list item: the column its content starts at in the
// source and after rewriting.
type listColumn struct {
	orig, norm int
}

// normalizeListIndent re-indents list item lines so that nesting follows the
// content column of the enclosing item. An item marker indented less than
// that column starts a sibling of an outer item, not a child. gomarkdown
// nests any indented marker, so lines are rewritten to the indentation it
// expects for the intended tree. Block quote lines and fenced code bodies
// are shifted with their item but never inspected.
func normalizeListIndent(src []byte) []byte {
	lines := bytes.SplitAfter(src, []byte{'\n'})
	out := make([]byte, 0, len(src))

	var (
		stack []listColumn
		fence []byte
		blank bool
	)
	for _, line := range lines {
		body := bytes.TrimRight(line, "\r\n")
		indent := leadingSpaces(body)
		rest := body[indent:]

		switch {
		case fence != nil:
			if bytes.HasPrefix(rest, fence) {
				fence = nil
			}
			out = appendShifted(out, line, indent, stack)
			continue
		case len(bytes.TrimSpace(body)) == 0:
			out = append(out, line...)
			blank = true
			continue
		}

		if w := markerWidth(rest); w > 0 && (len(stack) > 0 || indent < 4) &&
			(len(stack) == 0 || indent < stack[len(stack)-1].orig+4) {
			for len(stack) > 0 && indent < stack[len(stack)-1].orig {
				stack = stack[:len(stack)-1]
			}
			base := 0
			if len(stack) > 0 {
				base = stack[len(stack)-1].norm
			}
			stack = append(stack, listColumn{orig: indent + w, norm: base + w})
			out = append(out, bytes.Repeat([]byte{' '}, base)...)
			out = append(out, line[indent:]...)
			blank = false
			continue
		}

		if blank {
			for len(stack) > 0 && indent < stack[len(stack)-1].orig {
				stack = stack[:len(stack)-1]
			}
		}
		if f := fenceMarker(rest); f != nil {
			fence = f
		}
		out = appendShifted(out, line, indent, stack)
		blank = false
	}
	return out
}

// appendShifted moves a line belonging to the innermost open item by the
// same amount its marker was moved. Lazy continuation lines are kept.
func appendShifted(out, line []byte, indent int, stack []listColumn) []byte {
	if len(stack) == 0 {
		return append(out, line...)
	}
	top := stack[len(stack)-1]
	if indent < top.orig || top.orig == top.norm {
		return append(out, line...)
	}
	out = append(out, bytes.Repeat([]byte{' '}, indent-top.orig+top.norm)...)
	return append(out, line[indent:]...)
}

func leadingSpaces(b []byte) int {
	n := 0
	for n < len(b) && b[n] == ' ' {
		n++
	}
	return n
}

// markerWidth returns the width of a list marker and the spaces following it
// at the start of b, 0 when b does not start a list item.
func markerWidth(b []byte) int {
	if len(b) == 0 || isThematicBreak(b) {
		return 0
	}
	n := 0
	switch c := b[0]; {
	case c == '-' || c == '*' || c == '+':
		n = 1
	case c >= '0' && c <= '9':
		for n < len(b) && n < 9 && b[n] >= '0' && b[n] <= '9' {
			n++
		}
		if n == len(b) || (b[n] != '.' && b[n] != ')') {
			return 0
		}
		n++
	default:
		return 0
	}
	if n == len(b) {
		return n + 1
	}
	if b[n] != ' ' {
		return 0
	}
	spaces := leadingSpaces(b[n:])
	if spaces > 4 || n+spaces == len(b) {
		spaces = 1
	}
	return n + spaces
}

// isThematicBreak reports lines like "* * *" or "---".
func isThematicBreak(b []byte) bool {
	c := b[0]
	if c != '-' && c != '*' && c != '_' {
		return false
	}
	count := 0
	for _, r := range b {
		switch r {
		case c:
			count++
		case ' ', '\t':
		default:
			return false
		}
	}
	return count >= 3
}

// fenceMarker returns the backtick or tilde run opening a code fence.
func fenceMarker(b []byte) []byte {
	if len(b) < 3 || (b[0] != '`' && b[0] != '~') {
		return nil
	}
	n := 0
	for n < len(b) && b[n] == b[0] {
		n++
	}
	if n < 3 {
		return nil
	}
	return bytes.Clone(b[:n])
}
