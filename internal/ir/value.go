package ir

import (
	"fmt"
	"math"
)

// Value is a sealed interface representing constrained literal types.
// Only Null, String, Int and Bool implement it.
// NO Float - fractional values cannot be compared deterministically.
type Value interface {
	irValue() // Sealed - only these types implement it
}

// Null represents SQL NULL in a literal position.
type Null struct{}

func (Null) irValue() {}

// String is a text literal.
type String string

func (String) irValue() {}

// Int is an integer literal. Always int64, never float64.
type Int int64

func (Int) irValue() {}

// Bool is a boolean literal.
type Bool bool

func (Bool) irValue() {}

// Kind names the literal type: "null", "string", "int" or "bool".
// Kind of an unknown or nil value is "".
func Kind(v Value) string {
	switch v.(type) {
	case Null:
		return "null"
	case String:
		return "string"
	case Int:
		return "int"
	case Bool:
		return "bool"
	default:
		return ""
	}
}

// Native converts a Value to the Go type handed to database/sql drivers.
func Native(v Value) (any, error) {
	switch val := v.(type) {
	case String:
		return string(val), nil
	case Int:
		return int64(val), nil
	case Bool:
		return bool(val), nil
	case Null:
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported value type: %T", v)
	}
}

// FromAny converts a decoded YAML/JSON/Go scalar to a Value.
//
// Accepted: nil, string, bool, every Go integer kind, and float64 values
// that carry an integral number (YAML and JSON decoders may produce those).
// Fractional floats are rejected.
func FromAny(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return val, nil
	case string:
		return String(val), nil
	case bool:
		return Bool(val), nil
	case int:
		return Int(val), nil
	case int8:
		return Int(val), nil
	case int16:
		return Int(val), nil
	case int32:
		return Int(val), nil
	case int64:
		return Int(val), nil
	case uint8:
		return Int(val), nil
	case uint16:
		return Int(val), nil
	case uint32:
		return Int(val), nil
	case uint:
		if uint64(val) > math.MaxInt64 {
			return nil, fmt.Errorf("integer out of int64 range: %d", val)
		}
		return Int(val), nil
	case uint64:
		if val > math.MaxInt64 {
			return nil, fmt.Errorf("integer out of int64 range: %d", val)
		}
		return Int(val), nil
	case float64:
		if val != math.Trunc(val) || math.IsInf(val, 0) || math.IsNaN(val) {
			return nil, fmt.Errorf("floats are forbidden in literals: %v", val)
		}
		// float64(math.MaxInt64) rounds up to 2^63, which int64 cannot hold.
		if val >= math.MaxInt64 || val < math.MinInt64 {
			return nil, fmt.Errorf("integer out of int64 range: %v", val)
		}
		return Int(int64(val)), nil
	case float32:
		return FromAny(float64(val))
	default:
		return nil, fmt.Errorf("unsupported literal type: %T", v)
	}
}
