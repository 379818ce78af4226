package chat

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	retrievaluc "github.com/kailas-cloud/croptalk/internal/usecase/retrieval"
)

// argOrder fixes the key order of serialized tool inputs.
var argOrder = []string{
	retrievaluc.ArgQuery,
	retrievaluc.ArgDocCategory,
	retrievaluc.ArgCommodity,
	retrievaluc.ArgCounty,
	retrievaluc.ArgState,
	retrievaluc.ArgTopK,
	retrievaluc.ArgIncludeCommon,
}

// repr serializes v the way a Python tool runtime prints values:
// {'query': 'x', 'top_k': 3}, ['<doc ...>...</doc>'], True, None.
func repr(v any) string {
	var b strings.Builder
	writeRepr(&b, v)
	return b.String()
}

func writeRepr(b *strings.Builder, v any) {
	switch x := v.(type) {
	case nil:
		b.WriteString("None")
	case bool:
		if x {
			b.WriteString("True")
		} else {
			b.WriteString("False")
		}
	case string:
		writeStringRepr(b, x)
	case int:
		b.WriteString(strconv.Itoa(x))
	case float64:
		if x == math.Trunc(x) && math.Abs(x) < 1e15 {
			b.WriteString(strconv.FormatInt(int64(x), 10))
		} else {
			b.WriteString(strconv.FormatFloat(x, 'g', -1, 64))
		}
	case []string:
		b.WriteByte('[')
		for i, s := range x {
			if i > 0 {
				b.WriteString(", ")
			}
			writeStringRepr(b, s)
		}
		b.WriteByte(']')
	case []any:
		b.WriteByte('[')
		for i, e := range x {
			if i > 0 {
				b.WriteString(", ")
			}
			writeRepr(b, e)
		}
		b.WriteByte(']')
	case map[string]any:
		b.WriteByte('{')
		for i, k := range orderedKeys(x) {
			if i > 0 {
				b.WriteString(", ")
			}
			writeStringRepr(b, k)
			b.WriteString(": ")
			writeRepr(b, x[k])
		}
		b.WriteByte('}')
	default:
		writeStringRepr(b, fmt.Sprint(x))
	}
}

// writeStringRepr quotes with single quotes unless the string holds a single
// quote and no double quote, in which case double quotes avoid escaping.
func writeStringRepr(b *strings.Builder, s string) {
	quote := '\''
	if strings.ContainsRune(s, '\'') && !strings.ContainsRune(s, '"') {
		quote = '"'
	}
	b.WriteRune(quote)
	for _, r := range s {
		switch {
		case r == quote || r == '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r == '\t':
			b.WriteString(`\t`)
		case r < 0x20 || r == 0x7f:
			fmt.Fprintf(b, `\x%02x`, r)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteRune(quote)
}

// orderedKeys puts the known tool arguments first, in schema order, then the
// rest sorted.
func orderedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for _, k := range argOrder {
		if _, ok := m[k]; ok {
			keys = append(keys, k)
		}
	}
	var rest []string
	for k := range m {
		if !slices.Contains(argOrder, k) {
			rest = append(rest, k)
		}
	}
	slices.Sort(rest)
	return append(keys, rest...)
}
