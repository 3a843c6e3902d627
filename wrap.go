package apievents

import (
	"context"
	"errors"
	"fmt"
	"regexp"
)

// HandlerFunc is the business-logic signature the wrapper calls: the raw
// event after validation, plus the Lambda context.
type HandlerFunc func(ctx context.Context, event Event) (interface{}, error)

// Validator runs one request check before the handler. Validators are
// created by the With* constructors in this file and run in the order they
// are given to Wrap; the first structured error stops the chain.
type Validator func(ctx context.Context, event Event) error

// ResponseConfig carries response settings from the wrapper to the final
// response: defaults established at wrap time that the handler can adjust
// through ResponseConfigFromContext before returning.
type ResponseConfig struct {
	Headers    *Headers
	Cookies    []string
	CORS       *CORSConfig
	JSONConfig *JSONSerializationConfig
}

type responseConfigContextKey struct{}

// ResponseConfigFromContext returns the response configuration the wrapper
// placed in the context. Outside a wrapped handler it returns a transient
// config whose changes affect nothing.
func ResponseConfigFromContext(ctx context.Context) *ResponseConfig {
	if config, ok := ctx.Value(responseConfigContextKey{}).(*ResponseConfig); ok {
		return config
	}
	return &ResponseConfig{Headers: NewHeaders()}
}

func (rc *ResponseConfig) responseOptions() *ResponseOptions {
	return &ResponseOptions{
		Headers:    rc.Headers,
		Cookies:    rc.Cookies,
		CORS:       rc.CORS,
		JSONConfig: rc.JSONConfig,
	}
}

func (rc *ResponseConfig) errorResponseOptions() *ErrorResponseOptions {
	return &ErrorResponseOptions{
		Headers:    rc.Headers,
		Cookies:    rc.Cookies,
		CORS:       rc.CORS,
		JSONConfig: rc.JSONConfig,
	}
}

// wrapSettings holds the wrap-time defaults the With* options populate.
type wrapSettings struct {
	response ResponseConfig
	format   FormatVersion
}

// WrapOption adjusts the wrapper itself rather than adding a validation.
type WrapOption func(*wrapSettings)

// WithResponseHeaders sets default headers on every response the wrapper
// builds.
func WithResponseHeaders(headers *Headers) WrapOption {
	return func(s *wrapSettings) { s.response.Headers = headers }
}

// WithResponseCookies sets cookies on every response the wrapper builds.
func WithResponseCookies(cookies []string) WrapOption {
	return func(s *wrapSettings) { s.response.Cookies = cookies }
}

// WithCORS applies the CORS configuration to every response the wrapper
// builds, including error responses.
func WithCORS(cors *CORSConfig) WrapOption {
	return func(s *wrapSettings) { s.response.CORS = cors }
}

// WithJSONSerialization overrides the process default JSON serialization
// settings for responses built by this wrapper.
func WithJSONSerialization(config *JSONSerializationConfig) WrapOption {
	return func(s *wrapSettings) { s.response.JSONConfig = config }
}

// WithResponseFormat fixes the response format instead of detecting it from
// the event.
func WithResponseFormat(version FormatVersion) WrapOption {
	return func(s *wrapSettings) { s.format = version }
}

// Wrap turns a HandlerFunc into a Lambda-compatible handler. Before the
// handler runs, the response format version is resolved — WithResponseFormat
// if given, otherwise detected from the event, with an unrecognized event
// aborting immediately with a plain error — and the validators run in
// order. Structured errors from validators or the handler become error
// responses; any other error propagates to the runtime uncaught.
//
// A handler result that already is a complete response (a *Response, an
// API Gateway response struct, or a map with a statusCode key) passes
// through untouched; any other result is serialized as the body of a 200.
func Wrap(handler HandlerFunc, validators []Validator, opts ...WrapOption) func(context.Context, Event) (interface{}, error) {
	settings := &wrapSettings{}
	for _, opt := range opts {
		opt(settings)
	}

	return func(ctx context.Context, event Event) (interface{}, error) {
		version := settings.format
		if version == FormatVersionUnknown {
			version = GetEventFormatVersion(event)
		}
		if version == FormatVersionUnknown {
			return nil, fmt.Errorf("unknown event format version")
		}

		config := &ResponseConfig{
			Headers:    settings.response.Headers.Clone(),
			Cookies:    append([]string(nil), settings.response.Cookies...),
			CORS:       settings.response.CORS,
			JSONConfig: settings.response.JSONConfig,
		}
		ctx = context.WithValue(ctx, responseConfigContextKey{}, config)

		respond := func(apiErr APIError) (interface{}, error) {
			logAPIError(apiErr)
			response, err := ErrorResponse(apiErr, version, config.errorResponseOptions())
			if err != nil {
				return nil, err
			}
			return response, nil
		}

		for _, validate := range validators {
			if err := validate(ctx, event); err != nil {
				var apiErr APIError
				if errors.As(err, &apiErr) {
					return respond(apiErr)
				}
				return nil, err
			}
		}

		result, err := handler(ctx, event)
		if err != nil {
			var apiErr APIError
			if errors.As(err, &apiErr) {
				return respond(apiErr)
			}
			return nil, err
		}

		if looksLikeResponse(result) {
			return result, nil
		}

		response, err := MakeResponse(200, result, version, config.responseOptions())
		if err != nil {
			return nil, err
		}
		return response, nil
	}
}

// WithEventFormatVersion validates the event format version; see
// ValidateEventFormatVersion.
func WithEventFormatVersion(expected FormatVersion, useErrorResponse bool) Validator {
	return func(ctx context.Context, event Event) error {
		_, err := ValidateEventFormatVersion(event, expected, useErrorResponse)
		return err
	}
}

// WithMethod validates the request method; see ValidateMethod.
func WithMethod(methods ...string) Validator {
	return func(ctx context.Context, event Event) error {
		_, err := ValidateMethod(event, methods...)
		return err
	}
}

// WithPath validates the request path; see ValidatePath.
func WithPath(paths ...string) Validator {
	return func(ctx context.Context, event Event) error {
		_, _, err := ValidatePath(event, paths, nil)
		return err
	}
}

// WithPathRegex validates the request path against a pattern, merging any
// named capture groups into the event's path parameters; see
// ValidatePathRegex.
func WithPathRegex(pattern *regexp.Regexp) Validator {
	return func(ctx context.Context, event Event) error {
		_, _, err := ValidatePathRegex(event, pattern, true, nil)
		return err
	}
}

// WithPathParameters validates the path parameters; see
// ValidatePathParameters.
func WithPathParameters(requirements Requirements) Validator {
	return func(ctx context.Context, event Event) error {
		_, _, err := ValidatePathParameters(event, requirements, nil)
		return err
	}
}

// WithHeaders validates the request headers; see ValidateHeaders.
func WithHeaders(requirements Requirements) Validator {
	return func(ctx context.Context, event Event) error {
		_, err := ValidateHeaders(event, requirements)
		return err
	}
}

// WithQueryParameters validates the query parameters; see
// ValidateQueryParameters.
func WithQueryParameters(requirements Requirements) Validator {
	return func(ctx context.Context, event Event) error {
		_, err := ValidateQueryParameters(event, requirements)
		return err
	}
}

// WithContentType validates the request content type; see
// ValidateContentType.
func WithContentType(contentTypes ...string) Validator {
	return func(ctx context.Context, event Event) error {
		_, err := ValidateContentType(event, contentTypes...)
		return err
	}
}

// WithJSONBody parses and validates the request body as JSON and replaces
// the event's body with the parsed value, so the handler reads it back
// through GetJSONBody without reparsing; see GetJSONBody.
func WithJSONBody(opts *JSONBodyOptions) Validator {
	return func(ctx context.Context, event Event) error {
		payload, err := GetJSONBody(event, opts)
		if err != nil {
			return err
		}
		replaceJSONBody(event, payload)
		return nil
	}
}
