package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalParams(t *testing.T) {
	got, err := marshalParams([]any{"Charles", int64(10), true})
	require.NoError(t, err)
	assert.Equal(t, `["Charles",10,true]`, got)

	got, err = marshalParams(nil)
	require.NoError(t, err)
	assert.Equal(t, `[]`, got)
}

func TestMarshalParamsRejects(t *testing.T) {
	for _, p := range []any{1.5, nil, struct{}{}} {
		_, err := marshalParams([]any{p})
		assert.Error(t, err, "%v", p)
	}
}

func TestUnmarshalParams(t *testing.T) {
	got, err := unmarshalParams(`["Charles",9007199254740993,false]`)
	require.NoError(t, err)
	assert.Equal(t, []any{"Charles", int64(9007199254740993), false}, got)

	got, err = unmarshalParams("")
	require.NoError(t, err)
	assert.Equal(t, []any{}, got)

	_, err = unmarshalParams(`[1.5]`)
	assert.Error(t, err)
	_, err = unmarshalParams(`[{"a":1}]`)
	assert.Error(t, err)
}

func TestNamesRoundTrip(t *testing.T) {
	data, err := marshalNames(nil)
	require.NoError(t, err)
	assert.Equal(t, `[]`, data)

	data, err = marshalNames([]string{"charles", "pauls"})
	require.NoError(t, err)
	names, err := unmarshalNames(data)
	require.NoError(t, err)
	assert.Equal(t, []string{"charles", "pauls"}, names)
}
