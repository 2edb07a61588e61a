package workflow

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSchemaValidateAcceptsConformingData(t *testing.T) {
	s := NewSchema(map[string]FieldType{
		"name": TypeString,
		"age":  TypeNumber,
	}, "name")

	err := s.Validate(map[string]any{"name": "ada", "age": 36})
	require.NoError(t, err)
}

func TestSchemaValidateReportsMissingRequiredField(t *testing.T) {
	s := NewSchema(map[string]FieldType{"name": TypeString}, "name")

	err := s.Validate(map[string]any{})
	require.Error(t, err)

	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	require.Len(t, schemaErr.Violations, 1)
}

func TestSchemaValidateReportsAllTypeMismatchesNotJustFirst(t *testing.T) {
	s := NewSchema(map[string]FieldType{
		"name": TypeString,
		"age":  TypeNumber,
	})

	err := s.Validate(map[string]any{"name": 42, "age": "old"})
	require.Error(t, err)

	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	require.Len(t, schemaErr.Violations, 2)
}

func TestSchemaValidateIgnoresUnknownAndAnyFields(t *testing.T) {
	s := NewSchema(map[string]FieldType{"extra": TypeAny})

	err := s.Validate(map[string]any{"extra": []any{1, 2}, "unlisted": "whatever"})
	require.NoError(t, err)
}
