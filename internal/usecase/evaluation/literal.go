package evaluation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

var errUnterminated = errors.New("unterminated string")

// parseLiteral reads a printed Python value: dicts, lists, tuples, strings in
// either quote style, numbers, True, False and None. Dicts decode to
// map[string]any, sequences to []any and numbers to float64, matching what
// encoding/json produces.
func parseLiteral(s string) (any, error) {
	p := &literalParser{src: s}
	p.skipSpace()
	v, err := p.value()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, fmt.Errorf("unexpected %q at offset %d", p.src[p.pos], p.pos)
	}
	return v, nil
}

type literalParser struct {
	src string
	pos int
}

func (p *literalParser) value() (any, error) {
	if p.pos >= len(p.src) {
		return nil, errors.New("unexpected end of input")
	}
	switch c := p.src[p.pos]; {
	case c == '{':
		return p.dict()
	case c == '[':
		return p.sequence(']')
	case c == '(':
		return p.sequence(')')
	case c == '\'' || c == '"':
		return p.str()
	case c == '-' || c == '+' || c == '.' || c >= '0' && c <= '9':
		return p.number()
	default:
		return p.keyword()
	}
}

func (p *literalParser) dict() (map[string]any, error) {
	p.pos++
	out := map[string]any{}
	for {
		p.skipSpace()
		if p.consume('}') {
			return out, nil
		}
		key, err := p.value()
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		if !p.consume(':') {
			return nil, fmt.Errorf("expected ':' at offset %d", p.pos)
		}
		p.skipSpace()
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		k, ok := key.(string)
		if !ok {
			k = fmt.Sprint(key)
		}
		out[k] = v
		if err := p.separator('}'); err != nil {
			return nil, err
		}
	}
}

func (p *literalParser) sequence(closer byte) ([]any, error) {
	p.pos++
	out := []any{}
	for {
		p.skipSpace()
		if p.consume(closer) {
			return out, nil
		}
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
		if err := p.separator(closer); err != nil {
			return nil, err
		}
	}
}

// separator consumes the comma after an element. A closer is left for the
// caller so trailing commas are accepted.
func (p *literalParser) separator(closer byte) error {
	p.skipSpace()
	if p.consume(',') {
		return nil
	}
	if p.pos < len(p.src) && p.src[p.pos] == closer {
		return nil
	}
	return fmt.Errorf("expected ',' or %q at offset %d", closer, p.pos)
}

func (p *literalParser) str() (string, error) {
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
		default:
			b.WriteByte(c)
			p.pos++
		}
	}
	return "", errUnterminated
}

// escape decodes the backslash sequence at pos. Unknown sequences are kept
// verbatim, as Python does.
func (p *literalParser) escape(b *strings.Builder) error {
	if p.pos+1 >= len(p.src) {
		return errUnterminated
	}
	c := p.src[p.pos+1]
	p.pos += 2
	switch c {
	case '\\', '\'', '"':
		b.WriteByte(c)
	case 'n':
		b.WriteByte('\n')
	case 'r':
		b.WriteByte('\r')
	case 't':
		b.WriteByte('\t')
	case 'x':
		return p.codePoint(b, 2)
	case 'u':
		return p.codePoint(b, 4)
	case 'U':
		return p.codePoint(b, 8)
	default:
		b.WriteByte('\\')
		b.WriteByte(c)
	}
	return nil
}

func (p *literalParser) codePoint(b *strings.Builder, digits int) error {
	if p.pos+digits > len(p.src) {
		return errUnterminated
	}
	n, err := strconv.ParseUint(p.src[p.pos:p.pos+digits], 16, 32)
	if err != nil || !utf8.ValidRune(rune(n)) {
		return fmt.Errorf("bad escape %q at offset %d", p.src[p.pos:p.pos+digits], p.pos)
	}
	b.WriteRune(rune(n))
	p.pos += digits
	return nil
}

func (p *literalParser) number() (float64, error) {
	start := p.pos
	for p.pos < len(p.src) && strings.IndexByte("+-.0123456789eE_", p.src[p.pos]) >= 0 {
		p.pos++
	}
	text := strings.ReplaceAll(p.src[start:p.pos], "_", "")
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, fmt.Errorf("bad number %q at offset %d", p.src[start:p.pos], start)
	}
	return f, nil
}

func (p *literalParser) keyword() (any, error) {
	start := p.pos
	for p.pos < len(p.src) && identByte(p.src[p.pos]) {
		p.pos++
	}
	switch word := p.src[start:p.pos]; word {
	case "True":
		return true, nil
	case "False":
		return false, nil
	case "None":
		return nil, nil
	case "":
		return nil, fmt.Errorf("unexpected %q at offset %d", p.src[start], start)
	default:
		return nil, fmt.Errorf("unknown name %q at offset %d", word, start)
	}
}

func (p *literalParser) consume(c byte) bool {
	if p.pos < len(p.src) && p.src[p.pos] == c {
		p.pos++
		return true
	}
	return false
}

func (p *literalParser) skipSpace() {
	for p.pos < len(p.src) && strings.IndexByte(" \t\r\n", p.src[p.pos]) >= 0 {
		p.pos++
	}
}

func identByte(c byte) bool {
	return c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}
