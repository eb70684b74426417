package store

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/roach88/cteq/internal/ir"
)

// marshalParams converts bound parameters to canonical JSON TEXT for storage.
// Every parameter must be a string, integer or bool literal.
func marshalParams(params []any) (string, error) {
	arr := make([]any, len(params))
	for i, p := range params {
		v, err := ir.FromAny(p)
		if err != nil {
			return "", fmt.Errorf("marshal params: param[%d]: %w", i, err)
		}
		arr[i] = v
	}
	data, err := ir.MarshalCanonical(arr)
	if err != nil {
		return "", fmt.Errorf("marshal params: %w", err)
	}
	return string(data), nil
}

// unmarshalParams parses canonical JSON TEXT back to driver values.
// Numbers are decoded via json.Number so large integers keep full precision.
func unmarshalParams(data string) ([]any, error) {
	if data == "" || data == "[]" {
		return []any{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(data)))
	dec.UseNumber()
	var raw []any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("unmarshal params: %w", err)
	}
	params := make([]any, len(raw))
	for i, r := range raw {
		switch val := r.(type) {
		case json.Number:
			n, err := val.Int64()
			if err != nil {
				return nil, fmt.Errorf("unmarshal params: param[%d]: %w", i, err)
			}
			params[i] = n
		case string, bool:
			params[i] = val
		default:
			return nil, fmt.Errorf("unmarshal params: param[%d]: unsupported type %T", i, r)
		}
	}
	return params, nil
}

// marshalNames converts CTE names to canonical JSON TEXT.
func marshalNames(names []string) (string, error) {
	if names == nil {
		names = []string{}
	}
	data, err := ir.MarshalCanonical(names)
	if err != nil {
		return "", fmt.Errorf("marshal cte names: %w", err)
	}
	return string(data), nil
}

func unmarshalNames(data string) ([]string, error) {
	if data == "" || data == "[]" {
		return []string{}, nil
	}
	var names []string
	if err := json.Unmarshal([]byte(data), &names); err != nil {
		return nil, fmt.Errorf("unmarshal cte names: %w", err)
	}
	return names, nil
}
