package apievents

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// BodyType constrains the type a request body must decode to.
type BodyType int

const (
	// BodyTypeAny accepts text, binary, or an already-parsed body.
	BodyTypeAny BodyType = iota
	// BodyTypeText requires a text body.
	BodyTypeText
	// BodyTypeBinary requires a binary body.
	BodyTypeBinary
)

// GetBody retrieves the body from the event, decoding base64-encoded binary
// bodies.
//
// An absent body returns nil for BodyTypeAny, "" for BodyTypeText and an
// empty []byte for BodyTypeBinary. A base64-encoded body is decoded to
// []byte; a plain body is returned as string. A body that is already a
// non-string value (something upstream parsed it) is returned as-is.
//
// A *PayloadBinaryTypeError is returned when the demanded type does not
// match the delivered body. Demanding a type on an already-parsed non-binary
// body is an integration bug and panics.
func GetBody(event Event, bodyType BodyType) (interface{}, error) {
	requireKnownFormat(event, "GetBody")

	body, present := event["body"]
	if !present || body == nil {
		switch bodyType {
		case BodyTypeBinary:
			return []byte{}, nil
		case BodyTypeText:
			return "", nil
		default:
			return nil, nil
		}
	}

	text, isString := body.(string)
	if !isString {
		// Something upstream already parsed the body.
		if _, isBinary := body.([]byte); bodyType != BodyTypeAny && !(bodyType == BodyTypeBinary && isBinary) {
			panic("apievents: cannot enforce binary status on parsed body")
		}
		return body, nil
	}

	if isBase64, _ := event["isBase64Encoded"].(bool); isBase64 {
		if bodyType == BodyTypeText {
			return nil, newPayloadBinaryTypeError(false)
		}
		decoded, err := base64.StdEncoding.DecodeString(text)
		if err != nil {
			return nil, fmt.Errorf("decoding base64 body: %w", err)
		}
		return decoded, nil
	}

	if bodyType == BodyTypeBinary {
		return nil, newPayloadBinaryTypeError(true)
	}
	return text, nil
}

// GetTextBody retrieves the body as text, requiring a non-binary body.
func GetTextBody(event Event) (string, error) {
	body, err := GetBody(event, BodyTypeText)
	if err != nil {
		return "", err
	}
	text, ok := body.(string)
	if !ok {
		panic("apievents: cannot enforce text status on parsed body")
	}
	return text, nil
}

// GetBinaryBody retrieves the body as binary, requiring a base64-encoded
// body.
func GetBinaryBody(event Event) ([]byte, error) {
	body, err := GetBody(event, BodyTypeBinary)
	if err != nil {
		return nil, err
	}
	data, _ := body.([]byte)
	return data, nil
}

// optionalBodyMethods are the HTTP methods that conventionally carry no
// request body.
var optionalBodyMethods = map[string]bool{
	"GET":     true,
	"HEAD":    true,
	"DELETE":  true,
	"CONNECT": true,
	"OPTIONS": true,
	"TRACE":   true,
}

// JSONBodyOptions holds the options for GetJSONBody and WithJSONBody.
type JSONBodyOptions struct {
	// Schema validates the parsed payload. It may be a *CompiledSchema, or
	// a raw schema document (string, []byte or map[string]interface{})
	// compiled per call.
	Schema interface{}
	// EnforceContentType requires the Content-Type to be application/json
	// before the body is read.
	EnforceContentType bool
	// EnforceOnOptionalMethods disallows empty bodies even for methods that
	// conventionally have none (GET, HEAD, DELETE, CONNECT, OPTIONS, TRACE).
	EnforceOnOptionalMethods bool
}

// GetJSONBody parses and validates the request body as JSON.
//
// Returns *PayloadJSONDecodeError when the body is missing (and required) or
// is not valid JSON, *PayloadSchemaViolationError when it violates the
// schema, and *ContentTypeError when content type enforcement is on and the
// Content-Type is not application/json.
func GetJSONBody(event Event, opts *JSONBodyOptions) (interface{}, error) {
	if opts == nil {
		opts = &JSONBodyOptions{}
	}

	if opts.EnforceContentType {
		if _, err := ValidateContentType(event, "application/json"); err != nil {
			return nil, err
		}
	}

	body, err := GetBody(event, BodyTypeAny)
	if err != nil {
		return nil, err
	}

	// A body that is already parsed (for example by WithJSONBody) is
	// returned as-is; schema checks were done when it was parsed.
	switch body.(type) {
	case nil, string, []byte:
	default:
		return body, nil
	}

	allowEmptyBody := false
	if !opts.EnforceOnOptionalMethods {
		allowEmptyBody = optionalBodyMethods[GetMethod(event)]
	}

	raw := rawJSONBytes(body)
	if len(raw) == 0 {
		if allowEmptyBody {
			return nil, nil
		}
		return nil, newPayloadJSONDecodeError("Request has no body")
	}

	var payload interface{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, newPayloadJSONDecodeError(err.Error())
	}

	// The schema is checked only once the body parses; an empty body is
	// allowed by the method rules above, not by the schema.
	if opts.Schema != nil {
		if err := validateAgainstSchema(opts.Schema, payload); err != nil {
			return nil, err
		}
	}

	return payload, nil
}

// replaceJSONBody writes the parsed payload back into the event in place,
// dropping the base64 flag that is meaningless for a parsed body.
func replaceJSONBody(event Event, payload interface{}) {
	requireKnownFormat(event, "replaceJSONBody")
	event["body"] = payload
	delete(event, "isBase64Encoded")
}

// rawJSONBytes returns the body as bytes for JSON parsing.
func rawJSONBytes(body interface{}) []byte {
	switch b := body.(type) {
	case string:
		return []byte(b)
	case []byte:
		return b
	default:
		return nil
	}
}
