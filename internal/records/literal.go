// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package records

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// List cells are written in Python list-literal syntax because the
// dashboard reads them back with a literal parser, not a JSON decoder:
//
//	['MIT', "King's College"]

// FormatList renders items as a list literal.
func FormatList(items []string) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, item := range items {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(QuoteString(item))
	}
	b.WriteByte(']')
	return b.String()
}

// QuoteString renders s as a string literal. Single quotes are used unless
// s contains a single quote and no double quote.
func QuoteString(s string) string {
	quote := '\''
	if strings.ContainsRune(s, '\'') && !strings.ContainsRune(s, '"') {
		quote = '"'
	}

	var b strings.Builder
	b.WriteRune(quote)
	for _, r := range s {
		switch {
		case r == quote || r == '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		case r == '\t':
			b.WriteString(`\t`)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r < ' ' || r == 0x7f:
			fmt.Fprintf(&b, `\x%02x`, r)
		case r < utf8.RuneSelf || unicode.IsPrint(r):
			b.WriteRune(r)
		case r <= 0xff:
			fmt.Fprintf(&b, `\x%02x`, r)
		case r <= 0xffff:
			fmt.Fprintf(&b, `\u%04x`, r)
		default:
			fmt.Fprintf(&b, `\U%08x`, r)
		}
	}
	b.WriteRune(quote)
	return b.String()
}

// ErrNotList is returned by ParseList for text that is not a list literal
// of strings.
var ErrNotList = errors.New("not a list literal")

// ParseList parses a list literal of strings as written by FormatList.
// A trailing comma is accepted.
func ParseList(s string) ([]string, error) {
	p := &literalParser{src: strings.TrimSpace(s)}
	if !p.consume('[') {
		return nil, ErrNotList
	}
	items := []string{}
	p.skipSpace()
	if p.consume(']') {
		return items, p.end()
	}
	for {
		p.skipSpace()
		item, err := p.str()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		p.skipSpace()
		if p.consume(']') {
			return items, p.end()
		}
		if !p.consume(',') {
			return nil, fmt.Errorf("%w: expected ',' at offset %d", ErrNotList, p.pos)
		}
		p.skipSpace()
		if p.consume(']') {
			return items, p.end()
		}
	}
}

type literalParser struct {
	src string
	pos int
}

func (p *literalParser) skipSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t' || p.src[p.pos] == '\n' || p.src[p.pos] == '\r') {
		p.pos++
	}
}

func (p *literalParser) consume(c byte) bool {
	if p.pos < len(p.src) && p.src[p.pos] == c {
		p.pos++
		return true
	}
	return false
}

func (p *literalParser) end() error {
	if p.pos != len(p.src) {
		return fmt.Errorf("%w: trailing text at offset %d", ErrNotList, p.pos)
	}
	return nil
}

func (p *literalParser) str() (string, error) {
	if p.pos >= len(p.src) || (p.src[p.pos] != '\'' && p.src[p.pos] != '"') {
		return "", fmt.Errorf("%w: expected string at offset %d", ErrNotList, p.pos)
	}
	quote := p.src[p.pos]
	p.pos++

	var b strings.Builder
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch {
		case c == quote:
			p.pos++
			return b.String(), nil
		case c == '\\':
			if err := p.escape(&b); err != nil {
				return "", err
			}
		case c == '\n':
			return "", fmt.Errorf("%w: newline in string at offset %d", ErrNotList, p.pos)
		default:
			b.WriteByte(c)
			p.pos++
		}
	}
	return "", fmt.Errorf("%w: unterminated string", ErrNotList)
}

func (p *literalParser) escape(b *strings.Builder) error {
	if p.pos+1 >= len(p.src) {
		return fmt.Errorf("%w: dangling escape", ErrNotList)
	}
	c := p.src[p.pos+1]
	p.pos += 2
	switch c {
	case '\\', '\'', '"':
		b.WriteByte(c)
	case 'n':
		b.WriteByte('\n')
	case 't':
		b.WriteByte('\t')
	case 'r':
		b.WriteByte('\r')
	case '0':
		b.WriteByte(0)
	case 'x':
		return p.hexRune(b, 2)
	case 'u':
		return p.hexRune(b, 4)
	case 'U':
		return p.hexRune(b, 8)
	default:
		// Unknown escapes are kept verbatim.
		b.WriteByte('\\')
		b.WriteByte(c)
	}
	return nil
}

func (p *literalParser) hexRune(b *strings.Builder, digits int) error {
	if p.pos+digits > len(p.src) {
		return fmt.Errorf("%w: short hex escape", ErrNotList)
	}
	v, err := strconv.ParseUint(p.src[p.pos:p.pos+digits], 16, 32)
	if err != nil {
		return fmt.Errorf("%w: bad hex escape: %v", ErrNotList, err)
	}
	p.pos += digits
	b.WriteRune(rune(v))
	return nil
}
