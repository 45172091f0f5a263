package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical produces RFC 8785 style canonical JSON for hashing.
//
// Differences from json.Marshal:
//  1. Object keys sorted by UTF-16 code units
//  2. No HTML escaping
//  3. Strings are NFC normalized
//  4. No floats and no null
//
// Supported values: string, int, int64, bool, []any, map[string]any and
// ModelRecords.
func MarshalCanonical(v any) ([]byte, error) {
	if m, ok := v.(ModelRecords); ok {
		v = m.canonicalValue()
	}
	var buf bytes.Buffer
	if err := marshalCanonical(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func marshalCanonical(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case nil:
		return fmt.Errorf("null is forbidden in canonical JSON")
	case string:
		return marshalCanonicalString(buf, val)
	case int:
		fmt.Fprintf(buf, "%d", val)
	case int64:
		fmt.Fprintf(buf, "%d", val)
	case bool:
		if val {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case []any:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := marshalCanonical(buf, elem); err != nil {
				return fmt.Errorf("array[%d]: %w", i, err)
			}
		}
		buf.WriteByte(']')
	case map[string]any:
		buf.WriteByte('{')
		for i, k := range sortedKeys(val) {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := marshalCanonicalString(buf, k); err != nil {
				return fmt.Errorf("key %q: %w", k, err)
			}
			buf.WriteByte(':')
			if err := marshalCanonical(buf, val[k]); err != nil {
				return fmt.Errorf("value for key %q: %w", k, err)
			}
		}
		buf.WriteByte('}')
	case float32, float64:
		return fmt.Errorf("floats are forbidden in canonical JSON: %v", val)
	default:
		return fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
	return nil
}

// marshalCanonicalString writes an NFC normalized JSON string without HTML escaping.
func marshalCanonicalString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(norm.NFC.String(s)); err != nil {
		return err
	}
	// json.Encoder appends a newline
	buf.Write(bytes.TrimSuffix(tmp.Bytes(), []byte{'\n'}))
	return nil
}

// sortedKeys orders keys by UTF-16 code units.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return lessUTF16(keys[i], keys[j])
	})
	return keys
}

func lessUTF16(a, b string) bool {
	ua := utf16.Encode([]rune(a))
	ub := utf16.Encode([]rune(b))
	for i := 0; i < len(ua) && i < len(ub); i++ {
		if ua[i] != ub[i] {
			return ua[i] < ub[i]
		}
	}
	return len(ua) < len(ub)
}

// canonicalValue converts the record set to plain maps and slices.
// Record order is kept; source line numbers are not part of the identity.
func (m ModelRecords) canonicalValue() map[string]any {
	blocks := make([]any, len(m.Blocks))
	for i, b := range m.Blocks {
		params := make(map[string]any, len(b.Params))
		for k, v := range b.Params {
			params[k] = v
		}
		blocks[i] = map[string]any{
			"id":        b.ID,
			"name":      b.Name,
			"kind":      b.Kind,
			"port":      b.Port,
			"port_name": b.PortName,
			"params":    params,
		}
	}
	lines := make([]any, len(m.Lines))
	for i, l := range m.Lines {
		line := map[string]any{
			"src":      endpointValue(l.Src),
			"branches": branchValues(l.Branches),
		}
		if l.Dst != nil {
			line["dst"] = endpointValue(*l.Dst)
		}
		lines[i] = line
	}
	return map[string]any{
		"blocks": blocks,
		"lines":  lines,
	}
}

func endpointValue(e Endpoint) map[string]any {
	return map[string]any{"block": e.Block, "port": e.Port}
}

func branchValues(branches []BranchRecord) []any {
	out := make([]any, len(branches))
	for i, b := range branches {
		v := map[string]any{"branches": branchValues(b.Branches)}
		if b.Dst != nil {
			v["dst"] = endpointValue(*b.Dst)
		}
		out[i] = v
	}
	return out
}
