package apievents

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// SchemaValidator validates a parsed JSON payload. Validation failures are
// returned as *PayloadSchemaViolationError.
type SchemaValidator interface {
	Validate(payload interface{}) error
}

// CompiledSchema is a JSON schema compiled ahead of time. Compile once and
// cache it when the same schema is validated on every invocation.
type CompiledSchema struct {
	schema *jsonschema.Schema
}

// the resource URL schemas are compiled under; arbitrary, never dereferenced
const schemaResourceURL = "schema.json"

// CompileSchema compiles a JSON schema document for repeated validation.
func CompileSchema(document []byte) (*CompiledSchema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaResourceURL, bytes.NewReader(document)); err != nil {
		return nil, fmt.Errorf("adding schema resource: %w", err)
	}
	schema, err := compiler.Compile(schemaResourceURL)
	if err != nil {
		return nil, fmt.Errorf("compiling schema: %w", err)
	}
	return &CompiledSchema{schema: schema}, nil
}

// MustCompileSchema is CompileSchema, panicking on a schema that does not
// compile.
func MustCompileSchema(document string) *CompiledSchema {
	compiled, err := CompileSchema([]byte(document))
	if err != nil {
		panic(fmt.Sprintf("apievents: %v", err))
	}
	return compiled
}

// Validate checks the payload against the schema, returning a
// *PayloadSchemaViolationError on violation.
func (s *CompiledSchema) Validate(payload interface{}) error {
	if err := s.schema.Validate(payload); err != nil {
		return newPayloadSchemaViolationError(schemaViolationMessage(err))
	}
	return nil
}

// schemaViolationMessage extracts the most specific human-readable message
// from a jsonschema validation error.
func schemaViolationMessage(err error) string {
	if validationErr, ok := err.(*jsonschema.ValidationError); ok {
		leaf := validationErr
		for len(leaf.Causes) > 0 {
			leaf = leaf.Causes[0]
		}
		return leaf.Message
	}
	return err.Error()
}

// validateAgainstSchema validates a payload against either an
// ahead-of-time-compiled schema or a raw schema document compiled per call.
// An unusable schema value is an integration bug and panics.
func validateAgainstSchema(schema interface{}, payload interface{}) error {
	switch s := schema.(type) {
	case *CompiledSchema:
		return s.Validate(payload)
	case SchemaValidator:
		return s.Validate(payload)
	case []byte:
		return validatePerCall(s, payload)
	case string:
		return validatePerCall([]byte(s), payload)
	case map[string]interface{}:
		document, err := json.Marshal(s)
		if err != nil {
			panic(fmt.Sprintf("apievents: schema document is not serializable: %v", err))
		}
		return validatePerCall(document, payload)
	default:
		panic(fmt.Sprintf("apievents: unsupported schema type %T", schema))
	}
}

func validatePerCall(document []byte, payload interface{}) error {
	compiled, err := CompileSchema(document)
	if err != nil {
		panic(fmt.Sprintf("apievents: %v", err))
	}
	return compiled.Validate(payload)
}

// structValidator validates decoded struct bodies by their validate tags.
var structValidator = validator.New()

// DecodeJSONBody parses the request body as JSON into target and runs
// struct-tag validation on the result. Violations are returned as
// *PayloadSchemaViolationError with one message per failed field.
func DecodeJSONBody(event Event, target interface{}, opts *JSONBodyOptions) error {
	payload, err := GetJSONBody(event, opts)
	if err != nil {
		return err
	}
	if payload == nil {
		return newPayloadJSONDecodeError("Request has no body")
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("re-encoding payload: %w", err)
	}
	if err := json.Unmarshal(data, target); err != nil {
		return newPayloadJSONDecodeError(err.Error())
	}

	if err := structValidator.Struct(target); err != nil {
		if violations, ok := err.(validator.ValidationErrors); ok {
			return newPayloadSchemaViolationError(describeFieldViolations(violations))
		}
		return err
	}
	return nil
}

func describeFieldViolations(violations validator.ValidationErrors) string {
	messages := make([]string, 0, len(violations))
	for _, violation := range violations {
		var message string
		switch violation.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", violation.Field())
		case "email":
			message = fmt.Sprintf("%s must be a valid email address", violation.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", violation.Field(), violation.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", violation.Field(), violation.Param())
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", violation.Field(), violation.Param())
		default:
			message = fmt.Sprintf("%s is invalid", violation.Field())
		}
		messages = append(messages, message)
	}
	return "Invalid fields: " + strings.Join(messages, "; ")
}
