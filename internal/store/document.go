package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
)

// Document is one stored row. Keys keeps the column order the row was
// ingested with; the first document's Keys is the collection's schema.
type Document struct {
	Keys   []string
	Values map[string]any
}

// Set assigns key, appending it to Keys the first time it is seen.
func (d *Document) Set(key string, value any) {
	if d.Values == nil {
		d.Values = make(map[string]any)
	}
	if _, ok := d.Values[key]; !ok {
		d.Keys = append(d.Keys, key)
	}
	d.Values[key] = value
}

// Get returns the value stored under key.
func (d Document) Get(key string) (any, bool) {
	v, ok := d.Values[key]
	return v, ok
}

// Without returns a copy of d without fields.
func (d Document) Without(fields ...string) Document {
	out := Document{Values: make(map[string]any, len(d.Values))}
	for _, k := range d.Keys {
		if slices.Contains(fields, k) {
			continue
		}
		out.Keys = append(out.Keys, k)
		out.Values[k] = d.Values[k]
	}
	return out
}

// MarshalJSON encodes d as a JSON object in key order.
func (d Document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range d.Keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeJSON(&buf, k); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		if err := writeJSON(&buf, d.Values[k]); err != nil {
			return nil, fmt.Errorf("encode %q: %w", k, err)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeJSON(buf *bytes.Buffer, v any) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return err
	}
	// Encode terminates every value with a newline
	buf.Truncate(buf.Len() - 1)
	return nil
}

// UnmarshalJSON decodes a JSON object, keeping its key order. Integral
// numbers decode to int64, others to float64.
func (d *Document) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("decode document: expected object, got %v", tok)
	}

	*d = Document{Values: map[string]any{}}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("decode document: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("decode document: expected key, got %v", tok)
		}
		var v any
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("decode %q: %w", key, err)
		}
		d.Set(key, fromJSONNumber(v))
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	return nil
}

func fromJSONNumber(v any) any {
	n, ok := v.(json.Number)
	if !ok {
		return v
	}
	if i, err := n.Int64(); err == nil {
		return i
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}
