package normalize

import (
	"fmt"
	"strings"
)

// ListSyntaxError describes where a bracketed list literal stopped parsing.
type ListSyntaxError struct {
	Pos    int
	Reason string
}

func (e *ListSyntaxError) Error() string {
	return fmt.Sprintf("list syntax at offset %d: %s", e.Pos, e.Reason)
}

// ParseList parses a list column.
//
// Grammar for bracketed input:
//
//	list  := '[' ws [ elem ( ws ',' ws elem )* [ ws ',' ] ] ws ']' ws
//	elem  := squote | dquote | bare
//	bare  := one or more characters other than , [ ] ' " (trimmed)
//
// Quoted strings accept the escapes \\ \' \" \n and \t. Input that does not
// start with '[' is split on commas; items are trimmed and empty items
// dropped. Empty input yields an empty, non-nil list.
func ParseList(value string) ([]string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return []string{}, nil
	}
	if trimmed[0] != '[' {
		return splitBare(trimmed), nil
	}
	p := &listParser{src: trimmed}
	return p.parse()
}

func splitBare(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if item := strings.TrimSpace(part); item != "" {
			out = append(out, item)
		}
	}
	return out
}

type listParser struct {
	src string
	pos int
}

func (p *listParser) fail(reason string) error {
	return &ListSyntaxError{Pos: p.pos, Reason: reason}
}

func (p *listParser) eof() bool { return p.pos >= len(p.src) }

func (p *listParser) peek() byte { return p.src[p.pos] }

func (p *listParser) skipSpace() {
	for !p.eof() {
		switch p.peek() {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *listParser) parse() ([]string, error) {
	p.pos++ // '['
	items := []string{}
	p.skipSpace()
	if p.eof() {
		return nil, p.fail("missing closing bracket")
	}
	if p.peek() == ']' {
		p.pos++
		return items, p.finish()
	}
	for {
		p.skipSpace()
		item, err := p.element()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		p.skipSpace()
		if p.eof() {
			return nil, p.fail("missing closing bracket")
		}
		switch p.peek() {
		case ']':
			p.pos++
			return items, p.finish()
		case ',':
			p.pos++
			p.skipSpace()
			if p.eof() {
				return nil, p.fail("missing closing bracket")
			}
			if p.peek() == ']' {
				p.pos++
				return items, p.finish()
			}
		default:
			return nil, p.fail(fmt.Sprintf("unexpected %q after element", p.peek()))
		}
	}
}

func (p *listParser) finish() error {
	p.skipSpace()
	if !p.eof() {
		return p.fail("trailing characters after closing bracket")
	}
	return nil
}

func (p *listParser) element() (string, error) {
	if p.eof() {
		return "", p.fail("missing element")
	}
	switch c := p.peek(); c {
	case '\'', '"':
		return p.quoted(c)
	case '[':
		return "", p.fail("nested lists are not supported")
	case ',', ']':
		return "", p.fail("empty element")
	default:
		return p.bare()
	}
}

func (p *listParser) quoted(quote byte) (string, error) {
	start := p.pos
	p.pos++
	var b strings.Builder
	for !p.eof() {
		c := p.peek()
		switch {
		case c == quote:
			p.pos++
			return b.String(), nil
		case c == '\\':
			p.pos++
			if p.eof() {
				p.pos = start
				return "", p.fail("unterminated string")
			}
			switch esc := p.peek(); esc {
			case '\\', '\'', '"':
				b.WriteByte(esc)
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			default:
				b.WriteByte('\\')
				b.WriteByte(esc)
			}
			p.pos++
		default:
			b.WriteByte(c)
			p.pos++
		}
	}
	p.pos = start
	return "", p.fail("unterminated string")
}

func (p *listParser) bare() (string, error) {
	start := p.pos
	for !p.eof() {
		switch p.peek() {
		case ',', ']':
			return strings.TrimSpace(p.src[start:p.pos]), nil
		case '[', '\'', '"':
			return "", p.fail(fmt.Sprintf("unexpected %q inside unquoted element", p.peek()))
		}
		p.pos++
	}
	return "", p.fail("missing closing bracket")
}
