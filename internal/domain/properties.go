package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
)

// ValueKind discriminates the scalar type held by a Value.
type ValueKind int

const (
	KindNumber ValueKind = iota
	KindString
	KindBool
)

// Value is a tagged scalar: number, string, or boolean. Event properties and
// variant configuration payloads are schema-less, so values arrive as
// arbitrary JSON scalars and are normalized into this union.
type Value struct {
	Kind ValueKind
	Num  float64
	Str  string
	Bool bool
}

// Number constructs a numeric Value.
func Number(f float64) Value { return Value{Kind: KindNumber, Num: f} }

// String constructs a string Value.
func String(s string) Value { return Value{Kind: KindString, Str: s} }

// Boolean constructs a boolean Value.
func Boolean(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// MarshalJSON encodes the value as a bare JSON scalar.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindNumber:
		return json.Marshal(v.Num)
	case KindBool:
		return json.Marshal(v.Bool)
	default:
		return json.Marshal(v.Str)
	}
}

// UnmarshalJSON decodes a JSON scalar into the union. Non-scalar values
// (objects, arrays, null) are preserved as their raw JSON text in string
// form rather than rejected, since property payloads are caller-defined.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch x := raw.(type) {
	case float64:
		*v = Number(x)
	case bool:
		*v = Boolean(x)
	case string:
		*v = String(x)
	default:
		*v = String(string(data))
	}
	return nil
}

// Float returns the numeric value. Strings that parse as numbers are
// coerced; everything else reports ok=false.
func (v Value) Float() (float64, bool) {
	switch v.Kind {
	case KindNumber:
		return v.Num, true
	case KindString:
		if f, err := strconv.ParseFloat(v.Str, 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

// Properties is an open string-keyed map of scalar values attached to
// events and variant configurations.
type Properties map[string]Value

// Number returns the numeric value stored under key. Absent keys and
// non-numeric values yield 0; metric extraction treats both as "no
// contribution", never as an error.
func (p Properties) Number(key string) float64 {
	v, ok := p[key]
	if !ok {
		return 0
	}
	f, ok := v.Float()
	if !ok {
		return 0
	}
	return f
}

// Value implements driver.Valuer so properties persist as JSONB.
func (p Properties) Value() (driver.Value, error) {
	if p == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(p)
}

// Scan implements sql.Scanner for JSONB columns.
func (p *Properties) Scan(src any) error {
	switch data := src.(type) {
	case nil:
		*p = Properties{}
		return nil
	case []byte:
		return json.Unmarshal(data, p)
	case string:
		return json.Unmarshal([]byte(data), p)
	default:
		return fmt.Errorf("cannot scan %T into Properties", src)
	}
}
