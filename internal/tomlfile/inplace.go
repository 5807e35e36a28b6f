package tomlfile

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/pelletier/go-toml/v2"
	"github.com/pelletier/go-toml/v2/unstable"
)

// SetInPlace replaces the scalar value stored at keyChain in the raw TOML
// document, leaving every other byte untouched. It reports false when the
// key is not a plain key/value in a standard table (missing keys, inline
// tables, arrays of tables, array or table values) so the caller can fall
// back to a full rewrite.
func SetInPlace(data []byte, keyChain []string, value any) ([]byte, bool, error) {
	if len(keyChain) == 0 || isStructured(value) {
		return data, false, nil
	}

	var p unstable.Parser
	p.Reset(data)

	var table []string

	addressable := true

	for p.NextExpression() {
		expr := p.Expression()

		switch expr.Kind {
		case unstable.Table:
			table, addressable = keyParts(expr.Key()), true
			continue
		case unstable.ArrayTable:
			table, addressable = nil, false
			continue
		case unstable.KeyValue:
		default:
			continue
		}

		if !addressable {
			continue
		}

		full := append(append([]string{}, table...), keyParts(expr.Key())...)
		if !equalChain(full, keyChain) {
			continue
		}

		node := expr.Value()

		start, end, ok := scalarRange(&p, node)
		if !ok {
			return data, false, nil
		}

		literal, err := encodeScalar(value, data[start:end])
		if err != nil {
			return data, false, err
		}

		out := make([]byte, 0, len(data)-(end-start)+len(literal))
		out = append(out, data[:start]...)
		out = append(out, literal...)
		out = append(out, data[end:]...)

		return out, true, nil
	}

	if err := p.Error(); err != nil {
		return data, false, fmt.Errorf("failed to parse TOML: %w", err)
	}

	return data, false, nil
}

func keyParts(it unstable.Iterator) []string {
	var parts []string
	for it.Next() {
		parts = append(parts, string(it.Node().Data))
	}

	return parts
}

func equalChain(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}

func isStructured(v any) bool {
	switch v.(type) {
	case map[string]any, []any, []map[string]any:
		return true
	}

	return false
}

// scalarRange returns the byte offsets of a scalar value node.
func scalarRange(p *unstable.Parser, n *unstable.Node) (int, int, bool) {
	var r unstable.Range

	switch n.Kind {
	case unstable.String, unstable.Integer, unstable.Float:
		r = n.Raw
	case unstable.Bool, unstable.LocalDate, unstable.LocalTime, unstable.LocalDateTime, unstable.DateTime:
		if len(n.Data) == 0 {
			return 0, 0, false
		}

		r = p.Range(n.Data)
	default:
		return 0, 0, false
	}

	if r.Length == 0 {
		return 0, 0, false
	}

	return int(r.Offset), int(r.Offset + r.Length), true
}

// encodeScalar renders value as a TOML literal. Strings keep the quote
// style of the literal they replace.
func encodeScalar(value any, previous []byte) ([]byte, error) {
	if s, ok := value.(string); ok {
		literal := bytes.HasPrefix(previous, []byte("'")) && !bytes.HasPrefix(previous, []byte("'''"))
		if literal && !strings.ContainsAny(s, "'\r\n") {
			return []byte("'" + s + "'"), nil
		}

		return []byte(basicString(s)), nil
	}

	out, err := toml.Marshal(map[string]any{"v": value})
	if err != nil {
		return nil, fmt.Errorf("failed to encode TOML value: %w", err)
	}

	_, lit, ok := bytes.Cut(bytes.TrimSpace(out), []byte("="))
	if !ok {
		return nil, fmt.Errorf("failed to encode TOML value %v", value)
	}

	return bytes.TrimSpace(lit), nil
}

func basicString(s string) string {
	var b strings.Builder

	b.WriteByte('"')

	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if r < 0x20 || r == 0x7f || r == utf8.RuneError {
				fmt.Fprintf(&b, `\u%04X`, r)
				continue
			}

			b.WriteRune(r)
		}
	}

	b.WriteByte('"')

	return b.String()
}
