package workflow

import "fmt"

// FieldType enumerates the scalar/aggregate kinds a Schema field may
// declare. Schemas are intentionally shallow (no nested object schemas):
// spec §4.2 only requires presence and primitive-type checks at the
// workflow boundary, not a full JSON Schema implementation.
type FieldType string

const (
	TypeString  FieldType = "string"
	TypeNumber  FieldType = "number"
	TypeBool    FieldType = "bool"
	TypeArray   FieldType = "array"
	TypeObject  FieldType = "object"
	TypeAny     FieldType = "any"
)

// Schema validates the shape of Context.Data at a workflow's input or
// output boundary (spec §4.2, input_schema/output_schema).
type Schema struct {
	Fields   map[string]FieldType
	Required []string
}

// NewSchema builds a Schema from a field-type map and a required-field list.
func NewSchema(fields map[string]FieldType, required ...string) Schema {
	return Schema{Fields: fields, Required: required}
}

// Validate checks data against the schema, returning a SchemaError
// describing every violation found (not just the first), grounded on the
// teacher's practice of returning aggregate validation errors rather than
// failing fast on the first field.
func (s Schema) Validate(data map[string]any) error {
	var violations []string

	for _, req := range s.Required {
		if _, ok := data[req]; !ok {
			violations = append(violations, fmt.Sprintf("missing required field %q", req))
		}
	}

	for key, val := range data {
		want, known := s.Fields[key]
		if !known || want == TypeAny {
			continue
		}
		if !matchesType(val, want) {
			violations = append(violations, fmt.Sprintf("field %q: expected %s, got %T", key, want, val))
		}
	}

	if len(violations) == 0 {
		return nil
	}
	return &SchemaError{Violations: violations}
}

func matchesType(val any, want FieldType) bool {
	switch want {
	case TypeString:
		_, ok := val.(string)
		return ok
	case TypeNumber:
		switch val.(type) {
		case float64, float32, int, int32, int64:
			return true
		}
		return false
	case TypeBool:
		_, ok := val.(bool)
		return ok
	case TypeArray:
		_, ok := val.([]any)
		return ok
	case TypeObject:
		_, ok := val.(map[string]any)
		return ok
	default:
		return true
	}
}

// SchemaError reports every violation found during Schema.Validate.
type SchemaError struct {
	Violations []string
}

func (e *SchemaError) Error() string {
	msg := "schema validation failed:"
	for _, v := range e.Violations {
		msg += " " + v + ";"
	}
	return msg
}
