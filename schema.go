package webextract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"slices"
)

// Canonical field names of the default extraction schema.
const (
	FieldSummary         = "summary"
	FieldTopics          = "topics"
	FieldCategory        = "category"
	FieldSentiment       = "sentiment"
	FieldEntities        = "entities"
	FieldKeyFacts        = "key_facts"
	FieldImportantDates  = "important_dates"
	FieldStatistics      = "statistics"
	FieldError           = "error"
	FieldExtractionError = "extraction_error"
)

// Entity sub-list names of the default schema.
const (
	EntityPeople        = "people"
	EntityOrganizations = "organizations"
	EntityLocations     = "locations"
)

// EntityKinds lists the entity sub-lists in canonical order.
var EntityKinds = []string{EntityPeople, EntityOrganizations, EntityLocations}

// Schema describes the shape a structured result must take.
// Field order is significant and preserved from the source document.
type Schema struct {
	Fields   []SchemaField
	Required []string

	// Document holds the original JSON Schema when the schema was parsed
	// from one (an object with "properties"). Nil for plain field maps.
	Document map[string]any

	raw []byte
}

// SchemaField is one named field of a schema. A field with nested Fields
// describes an object.
type SchemaField struct {
	Name        string
	Description string
	Fields      []SchemaField
}

// DefaultSchema returns the canonical schema used when the caller does not
// supply one.
func DefaultSchema() *Schema {
	return &Schema{
		Fields: []SchemaField{
			{Name: FieldSummary, Description: "Clear, concise summary of the main content (2-3 sentences)"},
			{Name: FieldTopics, Description: "List of main topics or themes"},
			{Name: FieldCategory, Description: "Primary category (technology, business, news, education, etc.)"},
			{Name: FieldSentiment, Description: "Overall tone (positive, negative, neutral)"},
			{Name: FieldEntities, Description: "Named entities", Fields: []SchemaField{
				{Name: EntityPeople, Description: "Names of people mentioned"},
				{Name: EntityOrganizations, Description: "Companies, institutions, groups"},
				{Name: EntityLocations, Description: "Places, cities, countries"},
			}},
			{Name: FieldKeyFacts, Description: "Important facts or claims"},
			{Name: FieldImportantDates, Description: "Significant dates mentioned"},
			{Name: FieldStatistics, Description: "Numbers, percentages, metrics"},
		},
	}
}

// Names returns the top-level field names in order.
func (s *Schema) Names() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// IsRequired reports whether name is listed as required.
func (s *Schema) IsRequired(name string) bool {
	return slices.Contains(s.Required, name)
}

// ParseSchema decodes a schema from JSON. Two forms are accepted: a plain
// mapping of field name to description (or nested mapping), optionally with
// a "required" list, and a JSON Schema object with "properties".
func ParseSchema(data []byte) (*Schema, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	root, err := decodeOrdered(dec)
	if err != nil {
		return nil, Errorf(EINVALID, "invalid schema JSON: %v", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, Errorf(EINVALID, "invalid schema JSON: trailing data")
	}
	obj, ok := root.(*orderedObject)
	if !ok {
		return nil, Errorf(EINVALID, "schema must be a JSON object")
	}

	s := &Schema{raw: bytes.TrimSpace(data)}
	if props, ok := obj.get("properties").(*orderedObject); ok {
		var doc map[string]any
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, Errorf(EINVALID, "invalid schema JSON: %v", err)
		}
		s.Document = doc
		s.Fields = propertiesToFields(props)
	} else {
		s.Fields = mappingToFields(obj)
	}
	s.Required = stringList(obj.get("required"))

	if len(s.Fields) == 0 {
		return nil, Errorf(EINVALID, "schema declares no fields")
	}
	return s, nil
}

// MarshalJSON echoes the schema with its field order intact.
func (s *Schema) MarshalJSON() ([]byte, error) {
	if len(s.raw) > 0 {
		var buf bytes.Buffer
		if err := json.Compact(&buf, s.raw); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	var buf bytes.Buffer
	writeFields(&buf, s.Fields)
	if len(s.Required) > 0 {
		buf.Truncate(buf.Len() - 1)
		if len(s.Fields) > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(`"required":`)
		req, _ := json.Marshal(s.Required)
		buf.Write(req)
		buf.WriteByte('}')
	}
	return buf.Bytes(), nil
}

// ToolSchema renders the schema as a JSON Schema object suitable for a
// function or tool declaration.
func (s *Schema) ToolSchema() map[string]any {
	if s.Document != nil {
		return s.Document
	}
	out := fieldsToJSONSchema(s.Fields)
	if len(s.Required) > 0 {
		out["required"] = slices.Clone(s.Required)
	}
	return out
}

func fieldsToJSONSchema(fields []SchemaField) map[string]any {
	props := make(map[string]any, len(fields))
	for _, f := range fields {
		if len(f.Fields) > 0 {
			nested := fieldsToJSONSchema(f.Fields)
			if f.Description != "" {
				nested["description"] = f.Description
			}
			props[f.Name] = nested
			continue
		}
		props[f.Name] = map[string]any{"description": f.Description}
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
	}
}

func writeFields(buf *bytes.Buffer, fields []SchemaField) {
	buf.WriteByte('{')
	for i, f := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, _ := json.Marshal(f.Name)
		buf.Write(name)
		buf.WriteByte(':')
		if len(f.Fields) > 0 {
			writeFields(buf, f.Fields)
			continue
		}
		desc, _ := json.Marshal(f.Description)
		buf.Write(desc)
	}
	buf.WriteByte('}')
}

func mappingToFields(obj *orderedObject) []SchemaField {
	var fields []SchemaField
	for _, key := range obj.keys {
		if key == "required" {
			continue
		}
		field := SchemaField{Name: key}
		switch v := obj.values[key].(type) {
		case string:
			field.Description = v
		case *orderedObject:
			field.Fields = mappingToFields(v)
		default:
			b, _ := json.Marshal(plain(v))
			field.Description = string(b)
		}
		fields = append(fields, field)
	}
	return fields
}

func propertiesToFields(props *orderedObject) []SchemaField {
	var fields []SchemaField
	for _, key := range props.keys {
		field := SchemaField{Name: key}
		if prop, ok := props.values[key].(*orderedObject); ok {
			if desc, ok := prop.get("description").(string); ok {
				field.Description = desc
			} else if typ, ok := prop.get("type").(string); ok {
				field.Description = typ
			}
			if nested, ok := prop.get("properties").(*orderedObject); ok {
				field.Fields = propertiesToFields(nested)
			}
		}
		fields = append(fields, field)
	}
	return fields
}

func stringList(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// orderedObject is a JSON object that remembers key order.
type orderedObject struct {
	keys   []string
	values map[string]any
}

func (o *orderedObject) get(key string) any {
	return o.values[key]
}

// decodeOrdered reads one JSON value, keeping object key order.
func decodeOrdered(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			obj := &orderedObject{values: make(map[string]any)}
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("object key is %T", keyTok)
				}
				val, err := decodeOrdered(dec)
				if err != nil {
					return nil, err
				}
				if _, dup := obj.values[key]; !dup {
					obj.keys = append(obj.keys, key)
				}
				obj.values[key] = val
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return obj, nil
		case '[':
			var list []any
			for dec.More() {
				val, err := decodeOrdered(dec)
				if err != nil {
					return nil, err
				}
				list = append(list, val)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			if list == nil {
				list = []any{}
			}
			return list, nil
		}
		return nil, fmt.Errorf("unexpected delimiter %v", t)
	default:
		return tok, nil
	}
}

// plain converts ordered values back into ordinary maps.
func plain(v any) any {
	switch t := v.(type) {
	case *orderedObject:
		m := make(map[string]any, len(t.keys))
		for _, k := range t.keys {
			m[k] = plain(t.values[k])
		}
		return m
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = plain(item)
		}
		return out
	}
	return v
}
