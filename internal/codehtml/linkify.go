package codehtml

import (
	"bytes"
	"html"
	"strings"
	"unicode/utf8"

	nethtml "golang.org/x/net/html"
)

// LinkFunc wraps the already-rendered HTML inner in a link to target.
type LinkFunc func(target, inner string) string

type linkState int

const (
	outside linkState = iota
	// pending: inside a span but no text has been captured yet.
	pending
	capturing
)

type openTag struct {
	name string
	raw  string
}

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true, "hr": true,
	"img": true, "input": true, "link": true, "meta": true, "source": true, "wbr": true,
}

type linkifier struct {
	out   bytes.Buffer
	stack []openTag
	pos   int

	spans []Span
	idx   int
	link  LinkFunc

	state   linkState
	capAt   int // buffer offset where the capture begins
	capBase int // stack depth when the capture began
	pieces  [][2]int
}

// Linkify splices spans into highlighted, an HTML rendering of the same text
// the spans were extracted from. Each span's HTML is passed to link. Where a
// span boundary falls inside a highlighting element, the element is closed
// before the link and reopened after it, so the result stays well nested and
// a span may end up as several adjacent links. Spans past the end of the text
// and spans overlapping an earlier one are ignored.
func Linkify(highlighted string, spans []Span, link LinkFunc) string {
	l := &linkifier{spans: spans, link: link}
	l.skip()

	z := nethtml.NewTokenizer(strings.NewReader(highlighted))
	for {
		switch z.Next() {
		case nethtml.ErrorToken:
			l.finish()
			return l.out.String()
		case nethtml.TextToken:
			l.text(string(z.Text()))
		case nethtml.StartTagToken:
			name, raw := renderTag(z, false)
			l.startTag(name, raw, voidElements[name])
		case nethtml.SelfClosingTagToken:
			name, raw := renderTag(z, true)
			l.startTag(name, raw, true)
		case nethtml.EndTagToken:
			name, _ := z.TagName()
			l.endTag(string(name))
		default:
			l.out.Write(z.Raw())
		}
	}
}

func renderTag(z *nethtml.Tokenizer, selfClosing bool) (string, string) {
	name, hasAttr := z.TagName()
	var b strings.Builder
	b.WriteByte('<')
	b.Write(name)
	for hasAttr {
		var k, v []byte
		k, v, hasAttr = z.TagAttr()
		b.WriteByte(' ')
		b.Write(k)
		b.WriteString(`="`)
		b.WriteString(html.EscapeString(string(v)))
		b.WriteByte('"')
	}
	if selfClosing {
		b.WriteByte('/')
	}
	b.WriteByte('>')
	return string(name), b.String()
}

func (l *linkifier) span() (Span, bool) {
	if l.idx >= len(l.spans) {
		return Span{}, false
	}
	return l.spans[l.idx], true
}

// skip moves past spans that are empty or start before the current position.
func (l *linkifier) skip() {
	for l.idx < len(l.spans) {
		s := l.spans[l.idx]
		if s.End > s.Start && s.Start >= l.pos {
			return
		}
		l.idx++
	}
}

// mark starts (or, while no text was captured, moves) the capture to the
// current output position.
func (l *linkifier) mark() {
	l.state = pending
	l.capAt = l.out.Len()
	l.capBase = len(l.stack)
}

// sync brings the state up to date with pos before the next event.
func (l *linkifier) sync() {
	s, ok := l.span()
	if !ok {
		return
	}
	switch l.state {
	case capturing:
		if s.End <= l.pos {
			l.wrap(true)
			l.sync()
		}
	case outside:
		if s.Start <= l.pos {
			l.mark()
		}
	}
}

// wrap ends the current capture. Elements opened inside the capture are
// closed before and reopened after it. A final wrap links every piece of the
// span; otherwise the piece is kept aside and the span continues in a new
// capture, so a span that never ends stays unlinked.
func (l *linkifier) wrap(final bool) {
	open := l.stack[l.capBase:]
	for i := len(open) - 1; i >= 0; i-- {
		l.out.WriteString("</" + open[i].name + ">")
	}
	l.pieces = append(l.pieces, [2]int{l.capAt, l.out.Len()})
	for _, t := range open {
		l.out.WriteString(t.raw)
	}
	if !final {
		l.mark()
		return
	}

	s, _ := l.span()
	for i := len(l.pieces) - 1; i >= 0; i-- {
		l.splice(l.pieces[i][0], l.pieces[i][1], s.Target)
	}
	l.pieces = l.pieces[:0]
	l.state = outside
	l.idx++
	l.skip()
}

func (l *linkifier) splice(start, end int, target string) {
	b := l.out.Bytes()
	inner := string(b[start:end])
	tail := append([]byte(nil), b[end:]...)
	l.out.Truncate(start)
	l.out.WriteString(l.link(target, inner))
	l.out.Write(tail)
}

func (l *linkifier) startTag(name, raw string, void bool) {
	l.sync()
	if l.state == pending {
		l.mark()
	}
	l.out.WriteString(raw)
	if !void {
		l.stack = append(l.stack, openTag{name: name, raw: raw})
	}
}

func (l *linkifier) endTag(name string) {
	depth := -1
	for i := len(l.stack) - 1; i >= 0; i-- {
		if l.stack[i].name == name {
			depth = i
			break
		}
	}
	if depth < 0 {
		// Stray end tag; nothing to pop.
		l.out.WriteString("</" + name + ">")
		return
	}

	if l.state == outside || depth >= l.capBase {
		// The element belongs to the capture (or there is none).
		l.out.WriteString("</" + name + ">")
		l.stack = l.stack[:depth]
		if l.state == capturing {
			l.sync()
		}
		return
	}

	// The element was opened before the capture began.
	s, _ := l.span()
	switch {
	case l.state == pending:
	case s.End <= l.pos:
		l.wrap(true)
	default:
		l.wrap(false)
	}
	l.out.WriteString("</" + name + ">")
	l.stack = l.stack[:depth]
	if l.state == pending {
		l.mark()
	}
}

func (l *linkifier) text(s string) {
	for s != "" {
		l.sync()
		n := utf8.RuneCountInString(s)
		if sp, ok := l.span(); ok {
			limit := sp.Start
			if l.state != outside {
				limit = sp.End
			}
			if d := limit - l.pos; d < n {
				n = d
			}
		}
		cut := len(s)
		if n < utf8.RuneCountInString(s) {
			cut = byteOffset(s, n)
		}
		l.out.WriteString(html.EscapeString(s[:cut]))
		l.pos += n
		s = s[cut:]
		if l.state == pending {
			l.state = capturing
		}
	}
}

func (l *linkifier) finish() {
	s, ok := l.span()
	if ok && l.state == capturing && s.End <= l.pos {
		l.wrap(true)
	}
}

func byteOffset(s string, runes int) int {
	i := 0
	for runes > 0 && i < len(s) {
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
		runes--
	}
	return i
}
