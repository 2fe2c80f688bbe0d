package canon

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"
)

// Marshal produces RFC 8785 canonical JSON for v.
//
// Supported values: string, bool, int, int64, json.Number (integers only),
// []any and map[string]any built from those. Null and floats are rejected
// because they have no single canonical spelling.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := encode(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FromJSON decodes arbitrary JSON into the value shapes Marshal accepts.
// Numbers are kept as json.Number so large integers survive untouched.
func FromJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	return v, nil
}

// FromStruct converts a JSON-taggable Go value into canonical JSON via its
// standard encoding. Omitted optional fields stay omitted.
func FromStruct(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode struct: %w", err)
	}
	generic, err := FromJSON(raw)
	if err != nil {
		return nil, err
	}
	return Marshal(generic)
}

func encode(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case nil:
		return fmt.Errorf("null is forbidden in canonical JSON")
	case string:
		return encodeString(buf, val)
	case bool:
		if val {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
		return nil
	case int:
		fmt.Fprintf(buf, "%d", val)
		return nil
	case int64:
		fmt.Fprintf(buf, "%d", val)
		return nil
	case json.Number:
		if _, err := val.Int64(); err != nil {
			return fmt.Errorf("non-integer number %q is forbidden in canonical JSON", val.String())
		}
		buf.WriteString(val.String())
		return nil
	case []any:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encode(buf, elem); err != nil {
				return fmt.Errorf("array[%d]: %w", i, err)
			}
		}
		buf.WriteByte(']')
		return nil
	case map[string]any:
		buf.WriteByte('{')
		for i, k := range sortedKeys(val) {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeString(buf, k); err != nil {
				return fmt.Errorf("key %q: %w", k, err)
			}
			buf.WriteByte(':')
			if err := encode(buf, val[k]); err != nil {
				return fmt.Errorf("value for key %q: %w", k, err)
			}
		}
		buf.WriteByte('}')
		return nil
	case float32, float64:
		return fmt.Errorf("floats are forbidden in canonical JSON: %v", val)
	default:
		return fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
}

// encodeString writes s NFC-normalised, with only the escapes RFC 8785 requires.
func encodeString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(norm.NFC.String(s)); err != nil {
		return err
	}
	out := bytes.TrimSuffix(tmp.Bytes(), []byte{'\n'})

	// encoding/json escapes U+2028 and U+2029 for JavaScript; RFC 8785 does not.
	for i := 0; i < len(out); i++ {
		if out[i] != '\\' || i+1 >= len(out) {
			buf.WriteByte(out[i])
			continue
		}
		if out[i+1] == 'u' && i+5 < len(out) {
			switch string(out[i+2 : i+6]) {
			case "2028":
				buf.WriteString("\u2028")
				i += 5
				continue
			case "2029":
				buf.WriteString("\u2029")
				i += 5
				continue
			}
		}
		buf.Write(out[i : i+2])
		i++
	}
	return nil
}

// sortedKeys orders keys by UTF-16 code units as RFC 8785 requires.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b string) int {
		if a == b {
			return 0
		}
		return slices.Compare(utf16.Encode([]rune(a)), utf16.Encode([]rune(b)))
	})
	return keys
}
