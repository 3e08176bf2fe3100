package webextract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
)

// StructuredResult is an immutable structured value produced by the model
// pipeline. Each result shape has its own implementation, chosen when the
// value is built: DefaultResult, SchemaResult or ErrorResult.
type StructuredResult interface {
	// Get returns a copy of the value stored under key.
	Get(key string) (any, bool)

	// Keys returns the field names in serialization order.
	Keys() []string

	// Map returns a deep copy of all fields.
	Map() map[string]any

	// ErrorMessage returns the "error" field as text, or "" when unset.
	ErrorMessage() string

	// ExtractionError reports whether the result is a safe fallback.
	ExtractionError() bool

	// With returns a copy of the result with key set to value.
	With(key string, value any) StructuredResult

	json.Marshaler
}

var (
	_ StructuredResult = (*DefaultResult)(nil)
	_ StructuredResult = (*SchemaResult)(nil)
	_ StructuredResult = (*ErrorResult)(nil)
)

// fields is an insertion-ordered set of JSON-compatible values.
type fields struct {
	keys   []string
	values map[string]any
}

func (f *fields) set(key string, value any) {
	if f.values == nil {
		f.values = make(map[string]any)
	}
	if _, ok := f.values[key]; !ok {
		f.keys = append(f.keys, key)
	}
	f.values[key] = cloneValue(value)
}

func (f fields) clone() fields {
	out := fields{keys: slices.Clone(f.keys), values: make(map[string]any, len(f.values))}
	for k, v := range f.values {
		out.values[k] = cloneValue(v)
	}
	return out
}

func (f fields) Get(key string) (any, bool) {
	v, ok := f.values[key]
	if !ok {
		return nil, false
	}
	return cloneValue(v), true
}

func (f fields) Keys() []string {
	return slices.Clone(f.keys)
}

func (f fields) Map() map[string]any {
	return f.clone().values
}

func (f fields) ErrorMessage() string {
	v, ok := f.values[FieldError]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case bool:
		if t {
			return "true"
		}
		return ""
	}
	return fmt.Sprint(v)
}

func (f fields) ExtractionError() bool {
	b, _ := f.values[FieldExtractionError].(bool)
	return b
}

// marshalOrdered writes the named keys first, then any remaining keys in
// insertion order.
func (f fields) marshalOrdered(leading []string) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	written := make(map[string]bool, len(f.keys))
	first := true
	write := func(key string) error {
		v, ok := f.values[key]
		if !ok || written[key] {
			return nil
		}
		written[key] = true
		if !first {
			buf.WriteByte(',')
		}
		first = false
		k, _ := json.Marshal(key)
		buf.Write(k)
		buf.WriteByte(':')
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		buf.Write(b)
		return nil
	}
	for _, key := range leading {
		if err := write(key); err != nil {
			return nil, err
		}
	}
	for _, key := range f.keys {
		if err := write(key); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// DefaultResult is a result conforming to the default schema.
type DefaultResult struct {
	fields
}

var defaultOrder = []string{
	FieldSummary, FieldTopics, FieldCategory, FieldSentiment, FieldEntities,
	FieldKeyFacts, FieldImportantDates, FieldStatistics, FieldError, FieldExtractionError,
}

// Summary returns the summary field, or "" if it is not a string.
func (r *DefaultResult) Summary() string {
	s, _ := r.values[FieldSummary].(string)
	return s
}

// Topics returns the string items of the topics field.
func (r *DefaultResult) Topics() []string {
	return StringItems(r.values[FieldTopics])
}

// Entities returns the string items of the named entity sub-list.
func (r *DefaultResult) Entities(kind string) []string {
	m, _ := r.values[FieldEntities].(map[string]any)
	return StringItems(m[kind])
}

func (r *DefaultResult) With(key string, value any) StructuredResult {
	out := &DefaultResult{fields: r.clone()}
	out.set(key, value)
	return out
}

func (r *DefaultResult) MarshalJSON() ([]byte, error) {
	return r.marshalOrdered(defaultOrder)
}

// SchemaResult is a result conforming to a caller-supplied schema.
type SchemaResult struct {
	fields
	schema *Schema
}

// Schema returns the schema the result was built against.
func (r *SchemaResult) Schema() *Schema {
	return r.schema
}

func (r *SchemaResult) With(key string, value any) StructuredResult {
	out := &SchemaResult{fields: r.clone(), schema: r.schema}
	out.set(key, value)
	return out
}

func (r *SchemaResult) MarshalJSON() ([]byte, error) {
	var leading []string
	if r.schema != nil {
		leading = r.schema.Names()
	}
	return r.marshalOrdered(leading)
}

// ErrorResult describes a pipeline failure. It always carries error,
// summary and extraction_error.
type ErrorResult struct {
	fields
}

var errorOrder = []string{FieldError, FieldSummary, FieldExtractionError}

// NewErrorResult returns the structured info of a failed extraction.
func NewErrorResult(message string) *ErrorResult {
	r := &ErrorResult{}
	r.set(FieldError, message)
	r.set(FieldSummary, "Failed to extract content: "+message)
	r.set(FieldExtractionError, true)
	return r
}

func (r *ErrorResult) With(key string, value any) StructuredResult {
	out := &ErrorResult{fields: r.clone()}
	out.set(key, value)
	return out
}

func (r *ErrorResult) MarshalJSON() ([]byte, error) {
	return r.marshalOrdered(errorOrder)
}

// ResultBuilder accumulates fields and produces an immutable result.
// The builder copies every value it is given, so later changes to the
// caller's data never reach a built result.
type ResultBuilder struct {
	f fields
}

// NewResultBuilder returns an empty builder.
func NewResultBuilder() *ResultBuilder {
	return &ResultBuilder{}
}

// Set stores value under key, keeping first-insertion order.
func (b *ResultBuilder) Set(key string, value any) *ResultBuilder {
	b.f.set(key, value)
	return b
}

// Has reports whether key has been set.
func (b *ResultBuilder) Has(key string) bool {
	_, ok := b.f.values[key]
	return ok
}

// Value returns the value stored under key without copying it.
func (b *ResultBuilder) Value(key string) (any, bool) {
	v, ok := b.f.values[key]
	return v, ok
}

// Default builds a DefaultResult.
func (b *ResultBuilder) Default() *DefaultResult {
	return &DefaultResult{fields: b.f.clone()}
}

// WithSchema builds a SchemaResult for schema.
func (b *ResultBuilder) WithSchema(schema *Schema) *SchemaResult {
	return &SchemaResult{fields: b.f.clone(), schema: schema}
}

// StringItems returns the string elements of a list value, skipping
// anything that is not a non-empty string.
func StringItems(v any) []string {
	var out []string
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
	case []string:
		for _, s := range t {
			if s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

// cloneValue deep-copies maps and slices of JSON-compatible values.
func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = cloneValue(item)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = cloneValue(item)
		}
		return out
	case []string:
		return slices.Clone(t)
	}
	return v
}
