package apievents

import (
	"strings"
	"testing"
)

const petSchema = `{
	"type": "object",
	"required": ["name"],
	"properties": {
		"name": {"type": "string"},
		"age": {"type": "integer", "minimum": 0}
	}
}`

func TestCompileSchema(t *testing.T) {
	if _, err := CompileSchema([]byte(petSchema)); err != nil {
		t.Fatalf("CompileSchema() error = %v", err)
	}
	if _, err := CompileSchema([]byte(`{"type": 42}`)); err == nil {
		t.Errorf("expected error for an invalid schema document")
	}
}

func TestMustCompileSchemaPanics(t *testing.T) {
	expectPanic(t, func() {
		MustCompileSchema(`{"type": 42}`)
	})
}

func TestCompiledSchemaValidate(t *testing.T) {
	schema := MustCompileSchema(petSchema)

	if err := schema.Validate(map[string]interface{}{"name": "rex"}); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	err := schema.Validate(map[string]interface{}{"age": float64(3)})
	violation, ok := err.(*PayloadSchemaViolationError)
	if !ok {
		t.Fatalf("error = %T, want *PayloadSchemaViolationError", err)
	}
	if violation.ValidationMessage == "" {
		t.Errorf("ValidationMessage is empty")
	}
	if violation.StatusCode() != 400 {
		t.Errorf("StatusCode() = %d", violation.StatusCode())
	}
}

func TestValidateAgainstSchemaBackends(t *testing.T) {
	payload := map[string]interface{}{"name": "rex"}

	tests := []struct {
		name   string
		schema interface{}
	}{
		{"compiled", MustCompileSchema(petSchema)},
		{"string document", petSchema},
		{"byte document", []byte(petSchema)},
		{
			"map document",
			map[string]interface{}{
				"type":     "object",
				"required": []interface{}{"name"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := validateAgainstSchema(tt.schema, payload); err != nil {
				t.Errorf("validateAgainstSchema() error = %v", err)
			}
			if err := validateAgainstSchema(tt.schema, map[string]interface{}{}); err == nil {
				t.Errorf("expected violation for a payload missing name")
			}
		})
	}
}

func TestValidateAgainstSchemaRejectsUnknownType(t *testing.T) {
	expectPanic(t, func() {
		_ = validateAgainstSchema(42, map[string]interface{}{})
	})
}

func TestDecodeJSONBody(t *testing.T) {
	type createPet struct {
		Name string `json:"name" validate:"required"`
		Age  int    `json:"age" validate:"min=0"`
	}

	var pet createPet
	event := eventWithBody(`{"name":"rex","age":3}`, false)
	if err := DecodeJSONBody(event, &pet, nil); err != nil {
		t.Fatalf("DecodeJSONBody() error = %v", err)
	}
	if pet.Name != "rex" || pet.Age != 3 {
		t.Errorf("decoded = %+v", pet)
	}
}

func TestDecodeJSONBodyFieldViolations(t *testing.T) {
	type createPet struct {
		Name string `json:"name" validate:"required"`
	}

	var pet createPet
	err := DecodeJSONBody(eventWithBody(`{"age":3}`, false), &pet, nil)
	violation, ok := err.(*PayloadSchemaViolationError)
	if !ok {
		t.Fatalf("error = %T, want *PayloadSchemaViolationError", err)
	}
	if !strings.Contains(violation.ValidationMessage, "Name is required") {
		t.Errorf("ValidationMessage = %q", violation.ValidationMessage)
	}
}

func TestDecodeJSONBodyRequiresBody(t *testing.T) {
	type createPet struct {
		Name string `json:"name"`
	}

	var pet createPet
	event := eventWithBody(nil, false)
	event["requestContext"].(map[string]interface{})["http"].(map[string]interface{})["method"] = "GET"

	err := DecodeJSONBody(event, &pet, nil)
	if _, ok := err.(*PayloadJSONDecodeError); !ok {
		t.Fatalf("error = %T, want *PayloadJSONDecodeError", err)
	}
}
