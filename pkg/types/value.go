package types

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
)

// ValueKind tags the scalar held by a Value.
type ValueKind uint8

// Value kinds. The zero kind marks an unset Value.
const (
	KindUnset ValueKind = iota
	KindBool
	KindInt
	KindLong
	KindDouble
	KindString
)

// Value is a tagged scalar holding exactly one of bool, int32, int64,
// float64 or string. The As* coercions are lossy and fall back to a default
// when the held scalar cannot be converted; CanCastTo* report whether a
// numeric coercion is lossless with respect to range.
type Value struct {
	kind ValueKind
	b    bool
	i    int64
	f    float64
	s    string
}

// BoolValue returns a Value holding b.
func BoolValue(b bool) Value { return Value{kind: KindBool, b: b} }

// IntValue returns a Value holding the 32-bit integer i.
func IntValue(i int32) Value { return Value{kind: KindInt, i: int64(i)} }

// LongValue returns a Value holding the 64-bit integer i.
func LongValue(i int64) Value { return Value{kind: KindLong, i: i} }

// DoubleValue returns a Value holding f.
func DoubleValue(f float64) Value { return Value{kind: KindDouble, f: f} }

// StringValue returns a Value holding s.
func StringValue(s string) Value { return Value{kind: KindString, s: s} }

// ValueOf wraps a Go scalar. It returns false for unsupported types.
func ValueOf(v any) (Value, bool) {
	switch x := v.(type) {
	case bool:
		return BoolValue(x), true
	case int32:
		return IntValue(x), true
	case int:
		return LongValue(int64(x)), true
	case int64:
		return LongValue(x), true
	case float64:
		return DoubleValue(x), true
	case float32:
		return DoubleValue(float64(x)), true
	case string:
		return StringValue(x), true
	default:
		return Value{}, false
	}
}

// Kind returns the tag of the held scalar.
func (v Value) Kind() ValueKind { return v.kind }

// Raw returns the held scalar as a Go value, or nil for an unset Value.
func (v Value) Raw() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindInt:
		return int32(v.i)
	case KindLong:
		return v.i
	case KindDouble:
		return v.f
	case KindString:
		return v.s
	default:
		return nil
	}
}

func (v Value) IsBool() bool   { return v.kind == KindBool }
func (v Value) IsInt() bool    { return v.kind == KindInt }
func (v Value) IsLong() bool   { return v.kind == KindLong }
func (v Value) IsString() bool { return v.kind == KindString }

// IsNumber reports whether the Value holds an int, long or double.
func (v Value) IsNumber() bool {
	return v.kind == KindInt || v.kind == KindLong || v.kind == KindDouble
}

// IsDouble reports whether the Value holds a float64. Integral kinds are not
// doubles even though they coerce to one.
func (v Value) IsDouble() bool { return v.kind == KindDouble }

// number returns the held number as float64.
func (v Value) number() float64 {
	if v.kind == KindDouble {
		return v.f
	}
	return float64(v.i)
}

// CanCastToInt reports whether the Value is a number within the int32 range.
func (v Value) CanCastToInt() bool {
	if !v.IsNumber() {
		return false
	}
	n := v.number()
	return n >= math.MinInt32 && n <= math.MaxInt32
}

// CanCastToLong reports whether the Value is a number within the int64 range.
func (v Value) CanCastToLong() bool {
	if !v.IsNumber() {
		return false
	}
	n := v.number()
	return n >= math.MinInt64 && n <= math.MaxInt64
}

// CanCastToDouble reports whether the Value is a number.
func (v Value) CanCastToDouble() bool { return v.IsNumber() }

// AsBool coerces to bool with false as the fallback.
func (v Value) AsBool() bool { return v.AsBoolOr(false) }

// AsBoolOr coerces to bool. Numbers are true when non-zero; the strings
// "true"/"false" (any case) and "1"/"0" convert; anything else yields def.
func (v Value) AsBoolOr(def bool) bool {
	switch v.kind {
	case KindBool:
		return v.b
	case KindInt, KindLong, KindDouble:
		return v.number() != 0
	case KindString:
		switch {
		case strings.EqualFold(v.s, "true") || v.s == "1":
			return true
		case strings.EqualFold(v.s, "false") || v.s == "0":
			return false
		}
	}
	return def
}

// AsInt coerces to int32 with 0 as the fallback.
func (v Value) AsInt() int32 { return v.AsIntOr(0) }

// AsIntOr coerces to int32. Doubles truncate toward zero and saturate at the
// int32 range, NaN becomes 0; longs wrap; strings must parse as a decimal
// int32, otherwise def is returned.
func (v Value) AsIntOr(def int32) int32 {
	switch v.kind {
	case KindInt, KindLong:
		return int32(v.i)
	case KindDouble:
		return int32(truncate(v.f, math.MinInt32, math.MaxInt32))
	case KindBool:
		if v.b {
			return 1
		}
		return 0
	case KindString:
		if n, err := strconv.ParseInt(strings.TrimSpace(v.s), 10, 32); err == nil {
			return int32(n)
		}
	}
	return def
}

// AsLong coerces to int64 with 0 as the fallback.
func (v Value) AsLong() int64 { return v.AsLongOr(0) }

// AsLongOr coerces to int64 following the AsIntOr rules with the int64 range.
func (v Value) AsLongOr(def int64) int64 {
	switch v.kind {
	case KindInt, KindLong:
		return v.i
	case KindDouble:
		return int64(truncate(v.f, math.MinInt64, math.MaxInt64))
	case KindBool:
		if v.b {
			return 1
		}
		return 0
	case KindString:
		if n, err := strconv.ParseInt(strings.TrimSpace(v.s), 10, 64); err == nil {
			return n
		}
	}
	return def
}

// AsDouble coerces to float64 with 0 as the fallback.
func (v Value) AsDouble() float64 { return v.AsDoubleOr(0) }

// AsDoubleOr coerces to float64. Strings must parse as a float, otherwise
// def is returned.
func (v Value) AsDoubleOr(def float64) float64 {
	switch v.kind {
	case KindInt, KindLong, KindDouble:
		return v.number()
	case KindBool:
		if v.b {
			return 1
		}
		return 0
	case KindString:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v.s), 64); err == nil {
			return f
		}
	}
	return def
}

// AsString coerces to string with "" as the fallback.
func (v Value) AsString() string { return v.AsStringOr("") }

// AsStringOr formats any held scalar; only an unset Value yields def.
func (v Value) AsStringOr(def string) string {
	switch v.kind {
	case KindString:
		return v.s
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt, KindLong:
		return strconv.FormatInt(v.i, 10)
	case KindDouble:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	}
	return def
}

// String implements fmt.Stringer.
func (v Value) String() string { return v.AsString() }

func truncate(f, lo, hi float64) float64 {
	switch {
	case math.IsNaN(f):
		return 0
	case f <= lo:
		return lo
	case f >= hi:
		return hi
	}
	return math.Trunc(f)
}

// MarshalJSON writes the scalar as a JSON literal. Doubles always carry a
// fraction or exponent so that they decode back as doubles; non-finite
// doubles are written as strings.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindBool:
		return []byte(strconv.FormatBool(v.b)), nil
	case KindInt, KindLong:
		return []byte(strconv.FormatInt(v.i, 10)), nil
	case KindDouble:
		if math.IsNaN(v.f) || math.IsInf(v.f, 0) {
			return json.Marshal(strconv.FormatFloat(v.f, 'g', -1, 64))
		}
		s := strconv.FormatFloat(v.f, 'g', -1, 64)
		if !strings.ContainsAny(s, ".e") {
			s += ".0"
		}
		return []byte(s), nil
	case KindString:
		return json.Marshal(v.s)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON reads a JSON literal. Integral numbers decode as longs,
// numbers with a fraction or exponent as doubles.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	switch x := raw.(type) {
	case nil:
		*v = Value{}
	case bool:
		*v = BoolValue(x)
	case string:
		*v = StringValue(x)
	case json.Number:
		s := x.String()
		if strings.ContainsAny(s, ".eE") {
			f, err := x.Float64()
			if err != nil {
				return err
			}
			*v = DoubleValue(f)
			return nil
		}
		n, err := x.Int64()
		if err != nil {
			return err
		}
		*v = LongValue(n)
	default:
		return fmt.Errorf("%w: value must be a scalar, got %T", ErrInvalidData, raw)
	}
	return nil
}

// ArrayValue is an ordered list of scalars, stored as a JSON array.
type ArrayValue []Value

// Doubles returns the double-typed entries in their original order.
// Strings holding a non-finite double as written by MarshalJSON count as
// doubles; entries of other kinds are skipped.
func (a ArrayValue) Doubles() []float64 {
	var out []float64
	for _, v := range a {
		switch {
		case v.IsDouble():
			out = append(out, v.f)
		case v.IsString():
			if f, ok := nonFinite(v.s); ok {
				out = append(out, f)
			}
		}
	}
	return out
}

// nonFinite parses the string forms of NaN and the infinities.
func nonFinite(s string) (float64, bool) {
	switch strings.ToLower(s) {
	case "nan":
		return math.NaN(), true
	case "inf", "+inf", "infinity", "+infinity":
		return math.Inf(1), true
	case "-inf", "-infinity":
		return math.Inf(-1), true
	}
	return 0, false
}
