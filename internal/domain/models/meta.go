package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// MetaKind identifies which variant a MetaValue holds.
type MetaKind uint8

const (
	MetaNull MetaKind = iota
	MetaFloat
	MetaInt
	MetaString
	MetaBool
	// MetaRaw carries nested JSON written by other tools, kept verbatim.
	MetaRaw
)

// MetaValue is one scalar (or null) entry of a bar's meta mapping.
type MetaValue struct {
	kind MetaKind
	f    float64
	i    int64
	s    string
	b    bool
	raw  json.RawMessage
}

func Null() MetaValue { return MetaValue{} }
func Float(v float64) MetaValue { return MetaValue{kind: MetaFloat, f: v} }
func Int(v int64) MetaValue { return MetaValue{kind: MetaInt, i: v} }
func Str(v string) MetaValue { return MetaValue{kind: MetaString, s: v} }
func Bool(v bool) MetaValue { return MetaValue{kind: MetaBool, b: v} }
func (v MetaValue) Kind() MetaKind { return v.kind }
func (v MetaValue) IsNull() bool { return v.kind == MetaNull }

// OptFloat maps a missing value to null.
func OptFloat(v *float64) MetaValue {
	if v == nil {
		return Null()
	}
	return Float(*v)
}

// OptInt maps a missing value to null.
func OptInt(v *int64) MetaValue {
	if v == nil {
		return Null()
	}
	return Int(*v)
}

// Float64 returns the numeric value for float and int variants.
func (v MetaValue) Float64() (float64, bool) {
	switch v.kind {
	case MetaFloat:
		return v.f, true
	case MetaInt:
		return float64(v.i), true
	}
	return 0, false
}

// Int64 returns the value of an int variant, or a float variant with no
// fractional part that fits in an int64.
func (v MetaValue) Int64() (int64, bool) {
	switch v.kind {
	case MetaInt:
		return v.i, true
	case MetaFloat:
		if v.f == math.Trunc(v.f) && v.f >= math.MinInt64 && v.f < -math.MinInt64 {
			return int64(v.f), true
		}
	}
	return 0, false
}

func (v MetaValue) Text() (string, bool) {
	if v.kind != MetaString {
		return "", false
	}
	return v.s, true
}

func (v MetaValue) Boolean() (bool, bool) {
	if v.kind != MetaBool {
		return false, false
	}
	return v.b, true
}

func (v MetaValue) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case MetaFloat:
		// JSON has no NaN or Infinity.
		if math.IsNaN(v.f) || math.IsInf(v.f, 0) {
			return []byte("null"), nil
		}
		return appendFloat(nil, v.f), nil
	case MetaInt:
		return strconv.AppendInt(nil, v.i, 10), nil
	case MetaString:
		return encodeJSON(v.s)
	case MetaBool:
		return strconv.AppendBool(nil, v.b), nil
	case MetaRaw:
		return v.raw, nil
	default:
		return []byte("null"), nil
	}
}

func (v *MetaValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("meta value: empty input")
	}
	switch data[0] {
	case 'n':
		*v = Null()
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return fmt.Errorf("meta value: %w", err)
		}
		*v = Bool(b)
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("meta value: %w", err)
		}
		*v = Str(s)
	case '{', '[':
		var buf bytes.Buffer
		if err := json.Compact(&buf, data); err != nil {
			return fmt.Errorf("meta value: %w", err)
		}
		*v = MetaValue{kind: MetaRaw, raw: buf.Bytes()}
	default:
		text := string(data)
		if i, err := strconv.ParseInt(text, 10, 64); err == nil {
			*v = Int(i)
			return nil
		}
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return fmt.Errorf("meta value: %w", err)
		}
		*v = Float(f)
	}
	return nil
}

// Meta holds source-specific extras of a bar keyed by name.
type Meta map[string]MetaValue

// Get returns the value for key and whether it is present.
func (m Meta) Get(key string) (MetaValue, bool) {
	v, ok := m[key]
	return v, ok
}

// JSON encodes the mapping as compact JSON. Keys are sorted and HTML
// characters are left unescaped.
func (m Meta) JSON() ([]byte, error) {
	return encodeJSON(map[string]MetaValue(m))
}

// Value stores an empty mapping as SQL NULL.
func (m Meta) Value() (driver.Value, error) {
	if len(m) == 0 {
		return nil, nil
	}
	b, err := m.JSON()
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (m *Meta) Scan(src any) error {
	var data []byte
	switch t := src.(type) {
	case nil:
		*m = nil
		return nil
	case []byte:
		data = t
	case string:
		data = []byte(t)
	default:
		return fmt.Errorf("meta: unsupported scan type %T", src)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		*m = nil
		return nil
	}
	var out Meta
	if err := json.Unmarshal(data, &out); err != nil {
		return fmt.Errorf("meta: %w", err)
	}
	*m = out
	return nil
}

func encodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// appendFloat follows the encoding/json number style: plain decimal for
// ordinary magnitudes, exponent form for very small or large ones.
func appendFloat(b []byte, f float64) []byte {
	abs := math.Abs(f)
	format := byte('f')
	if abs != 0 && (abs < 1e-6 || abs >= 1e21) {
		format = 'e'
	}
	return strconv.AppendFloat(b, f, format, -1, 64)
}
