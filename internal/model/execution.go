package model

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"

	"github.com/goccy/go-json"
)

// idKeys are the top-level fields tried, in order, when an execution's
// identifier is needed for display.
var idKeys = []string{"id", "executionId", "execution_id"}

// ExecutionSummary is one execution record as reported by the backend.
// The payload is opaque: it is kept as raw JSON and re-encoded unchanged.
type ExecutionSummary struct {
	raw []byte
}

// NewExecutionSummary wraps raw JSON. The input is copied.
func NewExecutionSummary(raw []byte) ExecutionSummary {
	return ExecutionSummary{raw: append([]byte(nil), raw...)}
}

// MustExecutionSummary builds an ExecutionSummary from any JSON-encodable
// value. It panics on encoding errors and is meant for fixtures.
func MustExecutionSummary(v any) ExecutionSummary {
	data, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("encode execution summary: %v", err))
	}
	return ExecutionSummary{raw: data}
}

// MarshalJSON implements json.Marshaler.
func (e ExecutionSummary) MarshalJSON() ([]byte, error) {
	if len(e.raw) == 0 {
		return []byte("null"), nil
	}
	return e.raw, nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *ExecutionSummary) UnmarshalJSON(data []byte) error {
	e.raw = append(e.raw[:0:0], data...)
	return nil
}

// Raw returns the raw JSON payload.
func (e ExecutionSummary) Raw() []byte {
	return e.raw
}

// ID returns the execution identifier, or "" when the record has none.
func (e ExecutionSummary) ID() string {
	fields := e.fields()
	for _, key := range idKeys {
		if v, ok := fields[key]; ok && v != nil {
			return formatValue(v)
		}
	}
	return ""
}

// Field renders a top-level field as display text. Missing fields and
// nulls render as "-".
func (e ExecutionSummary) Field(name string) string {
	v, ok := e.fields()[name]
	if !ok || v == nil {
		return "-"
	}
	return formatValue(v)
}

// Keys returns the sorted top-level field names of an object payload.
func (e ExecutionSummary) Keys() []string {
	fields := e.fields()
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Compact returns the payload as single-line JSON.
func (e ExecutionSummary) Compact() string {
	if len(e.raw) == 0 {
		return "null"
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, e.raw); err != nil {
		return string(e.raw)
	}
	return buf.String()
}

// Pretty returns the payload as indented JSON.
func (e ExecutionSummary) Pretty() string {
	if len(e.raw) == 0 {
		return "null"
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, e.raw, "", "  "); err != nil {
		return string(e.raw)
	}
	return buf.String()
}

func (e ExecutionSummary) fields() map[string]any {
	if len(e.raw) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(e.raw))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		// Scalars and arrays have no fields.
		return nil
	}
	return fields
}

func formatValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	case nil:
		return "-"
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(data)
	}
}
