package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// UnknownKeyError reports a variant or size key outside the closed sets.
type UnknownKeyError struct {
	Kind string
	Key  string
}

func (e *UnknownKeyError) Error() string {
	return fmt.Sprintf("unknown %s %q", e.Kind, e.Key)
}

// Counts holds one variant's stock, indexed by Size.
type Counts [SizeCount]int

func (c Counts) Total() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}

// MarshalJSON writes {"150cm": n, ..., "XXL": n} in garment order.
func (c Counts) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, n := range c {
		if i > 0 {
			buf.WriteByte(',')
		}
		fmt.Fprintf(&buf, "%q:%d", sizeTags[i], n)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON zero-fills missing sizes and rejects unknown ones.
func (c *Counts) UnmarshalJSON(b []byte) error {
	var raw map[string]int
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	var out Counts
	for key, n := range raw {
		size, ok := ParseSize(key)
		if !ok {
			return &UnknownKeyError{Kind: "size", Key: key}
		}
		out[size] = n
	}
	*c = out
	return nil
}

// Inventory is the full variant × size grid for one date. Being a fixed
// array it always covers every variant and size, and copies by value.
type Inventory [VariantCount]Counts

func (inv Inventory) Get(v Variant, s Size) int {
	return inv[v][s]
}

func (inv *Inventory) Set(v Variant, s Size, n int) {
	inv[v][s] = n
}

// Negative returns the first cell holding a negative count, if any.
func (inv Inventory) Negative() (Variant, Size, bool) {
	for v, counts := range inv {
		for s, n := range counts {
			if n < 0 {
				return Variant(v), Size(s), true
			}
		}
	}
	return 0, 0, false
}

// MarshalJSON writes {variantLabel: Counts} in canonical variant order.
func (inv Inventory) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, counts := range inv {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(variants[i].label)
		if err != nil {
			return nil, err
		}
		val, err := counts.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON zero-fills missing variants and rejects unknown ones.
func (inv *Inventory) UnmarshalJSON(b []byte) error {
	var raw map[string]Counts
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	var out Inventory
	for key, counts := range raw {
		v, ok := parseVariantLabel(key)
		if !ok {
			return &UnknownKeyError{Kind: "variant", Key: key}
		}
		out[v] = counts
	}
	*inv = out
	return nil
}

func parseVariantLabel(label string) (Variant, bool) {
	for i, info := range variants {
		if info.label == label {
			return Variant(i), true
		}
	}
	return 0, false
}
