package apievents

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// APIError is an error that can be turned into a Lambda function response.
//
// Errors of this kind are client-facing and recoverable: the handler wrapper
// catches them and converts them into well-formed response envelopes via
// ErrorResponse. Anything else that goes wrong is treated as an integration
// fault and propagates uncaught.
type APIError interface {
	error

	// StatusCode is the fixed HTTP status code for this error kind.
	StatusCode() int
	// ErrorCode is the machine-readable code returned to the client.
	ErrorCode() string
	// ErrorMessage is the human-readable message returned to the client.
	ErrorMessage() string
	// InternalMessage is intended for logging and is never returned to the
	// client.
	InternalMessage() string
	// DefaultHeaders are merged into the response headers without
	// overwriting, letting an error kind contribute headers such as Allow.
	DefaultHeaders() map[string]string
}

// apiError is the shared base for the concrete error kinds. An override
// message supplied at construction wins over the kind's own message logic.
type apiError struct {
	status          int
	code            string
	messageOverride string
	internalMessage string
}

func (e *apiError) StatusCode() int { return e.status }

func (e *apiError) ErrorCode() string { return e.code }

func (e *apiError) ErrorMessage() string {
	if e.messageOverride != "" {
		return e.messageOverride
	}
	return "An error occurred."
}

func (e *apiError) InternalMessage() string { return e.internalMessage }

func (e *apiError) DefaultHeaders() map[string]string { return nil }

func (e *apiError) Error() string {
	return fmt.Sprintf("%s: %s", e.code, e.internalMessage)
}

// ErrorBodyFields names the fields of the default error response body. An
// empty Parent flattens Code and Message to the top level.
type ErrorBodyFields struct {
	Parent  string
	Code    string
	Message string
}

var errorBodyFields atomic.Value // ErrorBodyFields

func init() {
	errorBodyFields.Store(ErrorBodyFields{Parent: "Error", Code: "Code", Message: "Message"})
}

// SetErrorBodyFields replaces the process-wide error body field names.
func SetErrorBodyFields(fields ErrorBodyFields) {
	errorBodyFields.Store(fields)
}

// GetErrorBodyFields returns the process-wide error body field names.
func GetErrorBodyFields() ErrorBodyFields {
	fields, _ := errorBodyFields.Load().(ErrorBodyFields)
	return fields
}

// MakeErrorBody builds the default error response body for a code and
// message, honoring the configured field names.
func MakeErrorBody(code, message string) map[string]interface{} {
	fields := GetErrorBodyFields()
	inner := map[string]interface{}{
		fields.Code:    code,
		fields.Message: message,
	}
	if fields.Parent == "" {
		return inner
	}
	return map[string]interface{}{fields.Parent: inner}
}

// ErrorResponseOptions holds explicit per-response overrides for
// ErrorResponse. Explicit values win over the error's own body, headers and
// cookies.
type ErrorResponseOptions struct {
	Body       interface{}
	Headers    *Headers
	Cookies    []string
	CORS       *CORSConfig
	JSONConfig *JSONSerializationConfig
}

// ErrorResponse converts an APIError into a response envelope in the given
// format. The error's default headers are merged in without overwriting any
// explicitly supplied header of the same name.
func ErrorResponse(apiErr APIError, format FormatSource, opts *ErrorResponseOptions) (*Response, error) {
	if opts == nil {
		opts = &ErrorResponseOptions{}
	}

	body := opts.Body
	if body == nil {
		body = MakeErrorBody(apiErr.ErrorCode(), apiErr.ErrorMessage())
	}

	headers := opts.Headers.Clone()
	headers.mergeDefaults(apiErr.DefaultHeaders())

	return MakeResponse(apiErr.StatusCode(), body, format, &ResponseOptions{
		Headers:    headers,
		Cookies:    opts.Cookies,
		CORS:       opts.CORS,
		JSONConfig: opts.JSONConfig,
	})
}

// decoratorLogger is the process-wide logging target for errors caught by
// the handler wrapper. It holds either a logrus.FieldLogger or a plain
// func(string); updates are atomic value swaps so concurrent invocations
// never observe a partial write.
var (
	decoratorLogger          atomic.Value // loggerHolder
	decoratorLoggerTraceback atomic.Bool
)

type loggerHolder struct {
	logger logrus.FieldLogger
	fn     func(string)
}

// SetDecoratorLogger sets a structured logger for errors caught by the
// handler wrapper. Pass nil to disable logging.
func SetDecoratorLogger(logger logrus.FieldLogger) {
	decoratorLogger.Store(loggerHolder{logger: logger})
}

// SetDecoratorLoggerFunc sets a plain callable as the logging target for
// errors caught by the handler wrapper.
func SetDecoratorLoggerFunc(fn func(string)) {
	decoratorLogger.Store(loggerHolder{fn: fn})
}

// SetDecoratorLoggerTraceback controls whether a stack trace is included
// when a caught error is logged.
func SetDecoratorLoggerTraceback(enabled bool) {
	decoratorLoggerTraceback.Store(enabled)
}

// logAPIError emits the stringified error at error severity to the
// configured target, if any. Logging is best effort and never blocks
// response construction.
func logAPIError(apiErr APIError) {
	holder, _ := decoratorLogger.Load().(loggerHolder)
	message := apiErr.Error()
	includeTrace := decoratorLoggerTraceback.Load()

	switch {
	case holder.logger != nil:
		if includeTrace {
			holder.logger.WithField("stack", string(debug.Stack())).Error(message)
		} else {
			holder.logger.Error(message)
		}
	case holder.fn != nil:
		if includeTrace {
			holder.fn(string(debug.Stack()))
		}
		holder.fn(message)
	}
}

// InvalidRequestError is the generic client input fault. The error code and
// message are supplied by the raiser and returned to the client.
type InvalidRequestError struct {
	apiError
}

// NewInvalidRequestError creates an InvalidRequestError with the given
// client-visible message.
func NewInvalidRequestError(errorMessage string) *InvalidRequestError {
	return NewInvalidRequestErrorWithCode("InvalidRequest", errorMessage, "")
}

// NewInvalidRequestErrorWithCode creates an InvalidRequestError with a
// custom error code. An empty internalMessage defaults to
// "<code>: <message>".
func NewInvalidRequestErrorWithCode(errorCode, errorMessage, internalMessage string) *InvalidRequestError {
	if internalMessage == "" {
		internalMessage = fmt.Sprintf("%s: %s", errorCode, errorMessage)
	}
	return &InvalidRequestError{apiError{
		status:          http.StatusBadRequest,
		code:            errorCode,
		messageOverride: errorMessage,
		internalMessage: internalMessage,
	}}
}

// PayloadBinaryTypeError reports a request body that does not match the
// expected binary status.
type PayloadBinaryTypeError struct {
	apiError
	// BinaryExpected is whether the body was expected to be binary.
	BinaryExpected bool
}

func newPayloadBinaryTypeError(binaryExpected bool) *PayloadBinaryTypeError {
	internal := "Body was binary"
	if binaryExpected {
		internal = "Body was not binary"
	}
	return &PayloadBinaryTypeError{
		apiError: apiError{
			status:          http.StatusBadRequest,
			code:            "InvalidPayload",
			internalMessage: internal,
		},
		BinaryExpected: binaryExpected,
	}
}

func (e *PayloadBinaryTypeError) ErrorMessage() string {
	if e.messageOverride != "" {
		return e.messageOverride
	}
	return "The request body is invalid."
}

// PayloadJSONDecodeError reports a request body that could not be parsed as
// JSON, including a required body that is missing.
type PayloadJSONDecodeError struct {
	apiError
	// DecodeError is the underlying parse failure, or a description of it.
	DecodeError string
}

func newPayloadJSONDecodeError(decodeError string) *PayloadJSONDecodeError {
	return &PayloadJSONDecodeError{
		apiError: apiError{
			status:          http.StatusBadRequest,
			code:            "InvalidPayload",
			internalMessage: fmt.Sprintf("Payload is not valid JSON: %s.", decodeError),
		},
		DecodeError: decodeError,
	}
}

func (e *PayloadJSONDecodeError) ErrorMessage() string {
	if e.messageOverride != "" {
		return e.messageOverride
	}
	return "Request body must be valid JSON."
}

// PayloadSchemaViolationError reports a parsed JSON body that fails schema
// validation. The validator's own diagnostic message is returned to the
// client.
type PayloadSchemaViolationError struct {
	apiError
	// ValidationMessage is the diagnostic from the schema validator.
	ValidationMessage string
}

func newPayloadSchemaViolationError(validationMessage string) *PayloadSchemaViolationError {
	return &PayloadSchemaViolationError{
		apiError: apiError{
			status:          http.StatusBadRequest,
			code:            "InvalidPayload",
			internalMessage: fmt.Sprintf("Payload violates schema: %s", validationMessage),
		},
		ValidationMessage: validationMessage,
	}
}

func (e *PayloadSchemaViolationError) ErrorMessage() string {
	if e.messageOverride != "" {
		return e.messageOverride
	}
	return e.ValidationMessage
}

// FormatVersionError reports an event format that does not match the format
// a handler requires. This is a deployment misconfiguration, so the
// client-visible message carries no details.
type FormatVersionError struct {
	apiError
	ExpectedVersion FormatVersion
	ActualVersion   FormatVersion
}

func newFormatVersionError(expected, actual FormatVersion) *FormatVersionError {
	var internal string
	if actual == FormatVersionUnknown {
		internal = fmt.Sprintf("Expected event version %s, but received an unknown event", expected)
	} else {
		internal = fmt.Sprintf("Expected event version %s, but received %s", expected, actual)
	}
	return &FormatVersionError{
		apiError: apiError{
			status:          http.StatusInternalServerError,
			code:            "InternalServerError",
			messageOverride: "An error occurred.",
			internalMessage: internal,
		},
		ExpectedVersion: expected,
		ActualVersion:   actual,
	}
}

// UnsupportedMethodError reports a request method outside the allowed set.
// The response carries an Allow header listing the valid methods, as
// required by RFC 7231.
type UnsupportedMethodError struct {
	apiError
	EventMethod  string
	ValidMethods []string
}

func newUnsupportedMethodError(eventMethod string, validMethods []string) *UnsupportedMethodError {
	return &UnsupportedMethodError{
		apiError: apiError{
			status:          http.StatusMethodNotAllowed,
			code:            "UnsupportedMethod",
			internalMessage: fmt.Sprintf("Method %s not in valid set {%s}.", eventMethod, strings.Join(validMethods, ", ")),
		},
		EventMethod:  eventMethod,
		ValidMethods: validMethods,
	}
}

func (e *UnsupportedMethodError) ErrorMessage() string {
	if e.messageOverride != "" {
		return e.messageOverride
	}
	return fmt.Sprintf("%s is not a valid HTTP method. Valid methods are %s", e.EventMethod, strings.Join(e.ValidMethods, " "))
}

func (e *UnsupportedMethodError) DefaultHeaders() map[string]string {
	return map[string]string{"Allow": strings.Join(e.ValidMethods, ", ")}
}

// PathNotFoundError reports a request path outside the allowed set.
type PathNotFoundError struct {
	apiError
	EventPath  string
	ValidPaths []string
	IsRegex    bool
}

func newPathNotFoundError(eventPath string, validPaths []string, isRegex bool) *PathNotFoundError {
	var internal string
	if len(validPaths) == 1 {
		internal = fmt.Sprintf("Path %s does not match %s.", eventPath, validPaths[0])
	} else {
		internal = fmt.Sprintf("Path %s not in valid set {%s}.", eventPath, strings.Join(validPaths, " "))
	}
	return &PathNotFoundError{
		apiError: apiError{
			status:          http.StatusNotFound,
			code:            "PathNotFound",
			internalMessage: internal,
		},
		EventPath:  eventPath,
		ValidPaths: validPaths,
		IsRegex:    isRegex,
	}
}

func (e *PathNotFoundError) ErrorMessage() string {
	if e.messageOverride != "" {
		return e.messageOverride
	}
	return fmt.Sprintf("Path %s not found.", e.EventPath)
}

// PathParameterError reports missing or invalid path parameters. All
// violations are aggregated into one error. The client sees the same
// message as PathNotFoundError, since bad parameters mean the path does not
// exist from the client's point of view.
type PathParameterError struct {
	apiError
	EventPath string
	// BadKeys are required parameters missing from the path.
	BadKeys []string
	// BadValues are parameters present with an invalid value.
	BadValues map[string]string
}

func newPathParameterError(eventPath string, badKeys []string, badValues map[string]string) *PathParameterError {
	return &PathParameterError{
		apiError: apiError{
			status:          http.StatusNotFound,
			code:            "PathNotFound",
			internalMessage: fmt.Sprintf("Bad path parameters: %s.", describeViolations(badKeys, badValues)),
		},
		EventPath: eventPath,
		BadKeys:   badKeys,
		BadValues: badValues,
	}
}

func (e *PathParameterError) ErrorMessage() string {
	if e.messageOverride != "" {
		return e.messageOverride
	}
	return fmt.Sprintf("Path %s not found.", e.EventPath)
}

// HeaderError reports missing or invalid headers. All violations are
// aggregated into one error.
type HeaderError struct {
	apiError
	EventHeaders *Headers
	BadKeys      []string
	BadValues    map[string]string
}

func newHeaderError(eventHeaders *Headers, badKeys []string, badValues map[string]string) *HeaderError {
	return &HeaderError{
		apiError: apiError{
			status:          http.StatusBadRequest,
			code:            "InvalidRequest",
			internalMessage: fmt.Sprintf("Bad headers: %s.", describeViolations(badKeys, badValues)),
		},
		EventHeaders: eventHeaders,
		BadKeys:      badKeys,
		BadValues:    badValues,
	}
}

func (e *HeaderError) ErrorMessage() string {
	if e.messageOverride != "" {
		return e.messageOverride
	}
	return fmt.Sprintf("Missing or invalid headers: %s.", joinViolatedKeys(e.BadKeys, e.BadValues))
}

// ContentTypeError reports a content type outside the allowed set, or a
// missing Content-Type header.
type ContentTypeError struct {
	apiError
	// EventContentType is empty when the header was missing entirely.
	EventContentType  string
	ValidContentTypes []string
}

func newContentTypeError(eventContentType string, validContentTypes []string) *ContentTypeError {
	var internal string
	if eventContentType == "" {
		internal = "Content-Type is missing."
	} else {
		internal = fmt.Sprintf("Content-Type %s not in valid set {%s}.", eventContentType, strings.Join(validContentTypes, ", "))
	}
	return &ContentTypeError{
		apiError: apiError{
			status:          http.StatusUnsupportedMediaType,
			code:            "InvalidContentType",
			internalMessage: internal,
		},
		EventContentType:  eventContentType,
		ValidContentTypes: validContentTypes,
	}
}

func (e *ContentTypeError) ErrorMessage() string {
	if e.messageOverride != "" {
		return e.messageOverride
	}
	if len(e.ValidContentTypes) == 1 {
		return fmt.Sprintf("Content type must be %s.", e.ValidContentTypes[0])
	}
	return fmt.Sprintf("Content type must be one of: %s.", strings.Join(e.ValidContentTypes, ", "))
}

// QueryParameterError reports missing or invalid query parameters. All
// violations are aggregated into one error.
type QueryParameterError struct {
	apiError
	EventQueryParameters map[string]string
	BadKeys              []string
	BadValues            map[string]string
}

func newQueryParameterError(eventQueryParameters map[string]string, badKeys []string, badValues map[string]string) *QueryParameterError {
	return &QueryParameterError{
		apiError: apiError{
			status:          http.StatusBadRequest,
			code:            "InvalidRequest",
			internalMessage: fmt.Sprintf("Bad parameters: %s.", describeViolations(badKeys, badValues)),
		},
		EventQueryParameters: eventQueryParameters,
		BadKeys:              badKeys,
		BadValues:            badValues,
	}
}

func (e *QueryParameterError) ErrorMessage() string {
	if e.messageOverride != "" {
		return e.messageOverride
	}
	return fmt.Sprintf("Invalid query parameters: %s.", joinViolatedKeys(e.BadKeys, e.BadValues))
}

// dynamicError is the runtime-constructed error kind used by FromStatusCode
// and FromError.
type dynamicError struct {
	apiError
}

// FromStatusCode creates an APIError from an HTTP status code. The status
// code must be 4xx or 5xx. A 400 yields an InvalidRequestError; other codes
// yield a dynamic error whose code is the status phrase with spaces removed.
func FromStatusCode(statusCode int, errorMessage, internalMessage string) (APIError, error) {
	if statusCode/100 != 4 && statusCode/100 != 5 {
		return nil, fmt.Errorf("status code %d is not 4XX or 5XX", statusCode)
	}

	if statusCode == http.StatusBadRequest {
		if errorMessage == "" {
			errorMessage = "Invalid request."
		}
		return NewInvalidRequestErrorWithCode("InvalidRequest", errorMessage, internalMessage), nil
	}

	phrase := http.StatusText(statusCode)
	if phrase == "" {
		return nil, fmt.Errorf("status code %d is not a known HTTP status", statusCode)
	}
	errorCode := strings.ReplaceAll(phrase, " ", "")
	if errorMessage == "" {
		errorMessage = phrase + "."
	}
	if internalMessage == "" {
		internalMessage = fmt.Sprintf("%s: %s", errorCode, errorMessage)
	}
	return &dynamicError{apiError{
		status:          statusCode,
		code:            errorCode,
		messageOverride: errorMessage,
		internalMessage: internalMessage,
	}}, nil
}

// FromError creates an APIError from an arbitrary error, with the error
// code set to the error's type name and the message set to its Error()
// string. If err is already an APIError with a matching status code it is
// returned as-is; a mismatched status code is an error.
func FromError(statusCode int, err error) (APIError, error) {
	if apiErr, ok := err.(APIError); ok {
		if apiErr.StatusCode() != statusCode {
			return nil, fmt.Errorf("status code mismatch: %d %d", apiErr.StatusCode(), statusCode)
		}
		return apiErr, nil
	}

	errorCode := fmt.Sprintf("%T", err)
	if i := strings.LastIndexAny(errorCode, ".*"); i >= 0 {
		errorCode = errorCode[i+1:]
	}
	errorMessage := err.Error()
	return &dynamicError{apiError{
		status:          statusCode,
		code:            errorCode,
		messageOverride: errorMessage,
		internalMessage: fmt.Sprintf("%s: %s", errorCode, errorMessage),
	}}, nil
}

// describeViolations renders bad keys and values for internal log messages.
func describeViolations(badKeys []string, badValues map[string]string) string {
	var parts []string
	if len(badKeys) > 0 {
		parts = append(parts, fmt.Sprintf("missing keys %s", strings.Join(badKeys, ",")))
	}
	if len(badValues) > 0 {
		pairs := make([]string, 0, len(badValues))
		for key, value := range badValues {
			pairs = append(pairs, fmt.Sprintf("%s=%s", key, value))
		}
		sort.Strings(pairs)
		parts = append(parts, "invalid values "+strings.Join(pairs, ","))
	}
	return strings.Join(parts, " and ")
}

// joinViolatedKeys renders the union of violated keys for client messages.
func joinViolatedKeys(badKeys []string, badValues map[string]string) string {
	seen := make(map[string]struct{}, len(badKeys)+len(badValues))
	for _, key := range badKeys {
		seen[key] = struct{}{}
	}
	for key := range badValues {
		seen[key] = struct{}{}
	}
	keys := make([]string, 0, len(seen))
	for key := range seen {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return strings.Join(keys, ", ")
}
