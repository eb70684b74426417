package ir

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromAny(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected Value
	}{
		{"nil", nil, Null{}},
		{"string", "Charles", String("Charles")},
		{"bool", true, Bool(true)},
		{"int", 42, Int(42)},
		{"int64", int64(-7), Int(-7)},
		{"uint16", uint16(9), Int(9)},
		{"integral float", float64(3), Int(3)},
		{"already a value", String("Paul"), String("Paul")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := FromAny(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, v)
		})
	}
}

func TestFromAnyRejects(t *testing.T) {
	tests := []struct {
		name  string
		input any
	}{
		{"fractional float", 1.5},
		{"huge uint", uint64(1 << 63)},
		{"float at 2^63", float64(1 << 63)},
		{"float above int64", 1e19},
		{"slice", []any{"a"}},
		{"map", map[string]any{"a": 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromAny(tt.input)
			assert.Error(t, err)
		})
	}
}

func TestFromAnyFloatBounds(t *testing.T) {
	v, err := FromAny(float64(math.MinInt64))
	require.NoError(t, err)
	assert.Equal(t, Int(math.MinInt64), v)

	v, err = FromAny(float64(1 << 62))
	require.NoError(t, err)
	assert.Equal(t, Int(1<<62), v)
}

func TestKind(t *testing.T) {
	assert.Equal(t, "null", Kind(Null{}))
	assert.Equal(t, "string", Kind(String("x")))
	assert.Equal(t, "int", Kind(Int(1)))
	assert.Equal(t, "bool", Kind(Bool(false)))
	assert.Equal(t, "", Kind(nil))
}

func TestNative(t *testing.T) {
	v, err := Native(String("dog"))
	require.NoError(t, err)
	assert.Equal(t, "dog", v)

	v, err = Native(Int(5))
	require.NoError(t, err)
	assert.Equal(t, int64(5), v)

	v, err = Native(Null{})
	require.NoError(t, err)
	assert.Nil(t, v)

	_, err = Native(nil)
	assert.Error(t, err)
}
