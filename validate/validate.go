// Package validate checks parsed model output against the default
// extraction shape or a caller-supplied schema and builds a repaired copy.
package validate

import (
	"bytes"
	"encoding/json"
	"slices"
	"sort"
	"sync"

	"github.com/HimashaHerath/webextract"
	"github.com/cespare/xxhash/v2"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

type kind int

const (
	kindString kind = iota
	kindList
	kindObject
)

var defaultFields = []struct {
	name string
	kind kind
}{
	{webextract.FieldSummary, kindString},
	{webextract.FieldTopics, kindList},
	{webextract.FieldCategory, kindString},
	{webextract.FieldSentiment, kindString},
	{webextract.FieldEntities, kindObject},
	{webextract.FieldKeyFacts, kindList},
	{webextract.FieldImportantDates, kindList},
	{webextract.FieldStatistics, kindList},
}

// ValidateAndFix reports whether value conforms to schema (the default
// shape when schema is nil) and returns a repaired copy. The input is never
// modified. A false result means the value is usable but incomplete.
func ValidateAndFix(value map[string]any, schema *webextract.Schema) (bool, webextract.StructuredResult) {
	if schema == nil {
		return fixDefault(value)
	}
	return fixSchema(value, schema)
}

func fixDefault(value map[string]any) (bool, webextract.StructuredResult) {
	b := webextract.NewResultBuilder()
	valid := true

	for _, f := range defaultFields {
		v, ok := value[f.name]
		if !ok {
			b.Set(f.name, emptyValue(f.kind))
			valid = false
			continue
		}
		fixed, ok := coerce(f.kind, v)
		if !ok {
			valid = false
		}
		b.Set(f.name, fixed)
	}

	if entities, ok := b.Value(webextract.FieldEntities); ok {
		if m, ok := entities.(map[string]any); ok {
			b.Set(webextract.FieldEntities, fixEntities(m))
		}
	}

	for _, key := range sortedKeys(value) {
		if !b.Has(key) {
			b.Set(key, value[key])
		}
	}
	return valid, b.Default()
}

func fixSchema(value map[string]any, schema *webextract.Schema) (bool, webextract.StructuredResult) {
	b := webextract.NewResultBuilder()
	valid := true

	for _, name := range schema.Names() {
		if v, ok := value[name]; ok {
			b.Set(name, v)
		}
	}
	for _, name := range schema.Required {
		if _, ok := value[name]; !ok {
			b.Set(name, nil)
			valid = false
		}
	}
	for _, key := range sortedKeys(value) {
		if !b.Has(key) {
			b.Set(key, value[key])
		}
	}

	result := b.WithSchema(schema)
	if schema.Document != nil && !conforms(schema, result.Map()) {
		valid = false
	}
	return valid, result
}

func emptyValue(k kind) any {
	switch k {
	case kindList:
		return []any{}
	case kindObject:
		return map[string]any{}
	}
	return ""
}

// coerce converts v to kind where the conversion is safe. The second
// result is false when v had to be left with the wrong type.
func coerce(k kind, v any) (any, bool) {
	switch k {
	case kindString:
		switch t := v.(type) {
		case string:
			return t, true
		case nil:
			return "", true
		}
		return v, false
	case kindList:
		switch t := v.(type) {
		case []any:
			return t, true
		case []string:
			out := make([]any, len(t))
			for i, s := range t {
				out[i] = s
			}
			return out, true
		case string:
			if t == "" {
				return []any{}, true
			}
			return []any{t}, true
		}
		return v, false
	case kindObject:
		if m, ok := v.(map[string]any); ok {
			return m, true
		}
		return map[string]any{}, true
	}
	return v, false
}

// fixEntities guarantees the three entity sub-lists exist and are lists.
func fixEntities(m map[string]any) map[string]any {
	out := make(map[string]any, len(m)+len(webextract.EntityKinds))
	for k, v := range m {
		out[k] = v
	}
	for _, kind := range webextract.EntityKinds {
		v, ok := m[kind]
		if !ok {
			out[kind] = []any{}
			continue
		}
		if fixed, ok := coerce(kindList, v); ok {
			out[kind] = fixed
		} else {
			out[kind] = []any{}
		}
	}
	return out
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// MaxCompiledSchemas bounds the compiled schema cache. The cache is
// emptied when it fills.
const MaxCompiledSchemas = 256

// compiled caches compiled documents by the xxhash of their JSON encoding,
// so equal schemas parsed separately share one entry.
var compiled = struct {
	sync.Mutex
	m map[uint64]*jsonschema.Schema
}{m: map[uint64]*jsonschema.Schema{}}

// CompiledSchemas returns the number of cached compiled documents.
func CompiledSchemas() int {
	compiled.Lock()
	defer compiled.Unlock()
	return len(compiled.m)
}

// conforms validates v against the schema's JSON Schema document. A
// document that fails to compile is treated as imposing no constraint.
func conforms(schema *webextract.Schema, v map[string]any) bool {
	js, err := compile(schema)
	if err != nil {
		return true
	}
	// Round-trip so the validator sees plain decoded JSON types.
	b, err := json.Marshal(v)
	if err != nil {
		return false
	}
	var doc any
	if err := json.Unmarshal(b, &doc); err != nil {
		return false
	}
	return js.Validate(doc) == nil
}

func compile(schema *webextract.Schema) (*jsonschema.Schema, error) {
	// Map keys marshal sorted, so b is canonical for a given document.
	b, err := json.Marshal(schema.Document)
	if err != nil {
		return nil, err
	}
	key := xxhash.Sum64(b)

	compiled.Lock()
	js, ok := compiled.m[key]
	compiled.Unlock()
	if ok {
		return js, nil
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return nil, err
	}
	js, err = compiler.Compile("schema.json")
	if err != nil {
		return nil, err
	}

	compiled.Lock()
	defer compiled.Unlock()
	if len(compiled.m) >= MaxCompiledSchemas {
		clear(compiled.m)
	}
	compiled.m[key] = js
	return js, nil
}

// Missing returns the required schema fields absent from value, in
// declaration order.
func Missing(value map[string]any, schema *webextract.Schema) []string {
	var missing []string
	if schema == nil {
		for _, f := range defaultFields {
			if _, ok := value[f.name]; !ok {
				missing = append(missing, f.name)
			}
		}
		return missing
	}
	for _, name := range schema.Required {
		if _, ok := value[name]; !ok && !slices.Contains(missing, name) {
			missing = append(missing, name)
		}
	}
	return missing
}
