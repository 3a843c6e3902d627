package apievents

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/aws/aws-lambda-go/events"
)

// Response is an outbound envelope suitable for returning from a Lambda
// function behind API Gateway. Exactly one of Headers and MultiValueHeaders
// is populated, depending on the target format and on whether any header
// carries multiple values. Cookies is only populated for formats that
// support a first-class cookie field.
type Response struct {
	StatusCode        int                 `json:"statusCode"`
	Body              string              `json:"body"`
	IsBase64Encoded   bool                `json:"isBase64Encoded,omitempty"`
	Headers           map[string]string   `json:"headers,omitempty"`
	MultiValueHeaders map[string][]string `json:"multiValueHeaders,omitempty"`
	Cookies           []string            `json:"cookies,omitempty"`
}

// ResponseOptions holds the optional inputs to MakeResponse and
// MakeRedirect.
type ResponseOptions struct {
	Headers *Headers
	Cookies []string
	CORS    *CORSConfig
	// JSONConfig overrides the process-wide default JSON serialization
	// config when the body is serialized as JSON.
	JSONConfig *JSONSerializationConfig
}

// MakeResponse creates a response envelope in the format matching the given
// target. The target may be a FormatVersion or the input Event to run
// detection on; failing to resolve a supported format is an error, since
// there is no safe default response format.
//
// Body handling by type: nil produces an empty body with no content-type
// inference; []byte is base64-encoded with default content type
// application/octet-stream; string is used verbatim with default content
// type text/plain; anything else is serialized as JSON with default content
// type application/json. The default Content-Type header is only added when
// no Content-Type key is already present under any casing.
func MakeResponse(statusCode int, body interface{}, format FormatSource, opts *ResponseOptions) (*Response, error) {
	if format == nil {
		return nil, fmt.Errorf("response format version is required")
	}
	version := format.resolveFormatVersion()
	if version != FormatVersionAPIGW10 && version != FormatVersionAPIGW20 {
		return nil, fmt.Errorf("unknown response format version %s", version)
	}

	if opts == nil {
		opts = &ResponseOptions{}
	}
	if opts.Cookies != nil && version == FormatVersionAPIGW10 {
		return nil, fmt.Errorf("cookies are not supported in format version %s", version)
	}

	headers := opts.Headers.Clone()
	response := &Response{StatusCode: statusCode}

	if body != nil {
		var defaultContentType string
		switch b := body.(type) {
		case []byte:
			response.Body = base64.StdEncoding.EncodeToString(b)
			response.IsBase64Encoded = true
			defaultContentType = "application/octet-stream"
		case string:
			response.Body = b
			defaultContentType = "text/plain"
		default:
			serialized, err := jsonMarshal(body, opts.JSONConfig)
			if err != nil {
				return nil, err
			}
			response.Body = serialized
			defaultContentType = "application/json"
		}
		headers.SetDefault("Content-Type", defaultContentType)
	}

	if opts.CORS != nil {
		headers.mergeDefaults(opts.CORS.Headers())
	}

	response.Cookies = opts.Cookies

	if headers.Len() > 0 {
		if headers.allSingleValued() {
			response.Headers = headers.flatMap()
		} else if version == FormatVersionAPIGW10 {
			response.MultiValueHeaders = headers.multiValueMap()
		} else {
			// HTTP 2.0 has no multi-value header field; repeated values are
			// comma-joined in the flat map.
			response.Headers = headers.flatMap()
		}
	}

	return response, nil
}

// MakeRedirect creates a 3xx redirect response. Any caller-supplied Location
// header is replaced by url.
func MakeRedirect(statusCode int, url string, format FormatSource, opts *ResponseOptions) (*Response, error) {
	if statusCode/100 != 3 {
		return nil, fmt.Errorf("status code %d is not 3XX", statusCode)
	}
	if opts == nil {
		opts = &ResponseOptions{}
	}
	headers := opts.Headers.Clone()
	headers.Delete("Location")
	headers.Set("Location", url)

	redirectOpts := *opts
	redirectOpts.Headers = headers
	return MakeResponse(statusCode, nil, format, &redirectOpts)
}

// looksLikeResponse reports whether a handler result already is a complete
// response envelope.
func looksLikeResponse(result interface{}) bool {
	switch v := result.(type) {
	case *Response, Response, events.APIGatewayProxyResponse, events.APIGatewayV2HTTPResponse:
		return true
	case map[string]interface{}:
		_, ok := v["statusCode"]
		return ok
	default:
		return false
	}
}

// ToAPIGatewayProxyResponse converts the response to the typed aws-lambda-go
// REST/HTTP 1.0 response.
func (r *Response) ToAPIGatewayProxyResponse() events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		StatusCode:        r.StatusCode,
		Body:              r.Body,
		IsBase64Encoded:   r.IsBase64Encoded,
		Headers:           r.Headers,
		MultiValueHeaders: r.MultiValueHeaders,
	}
}

// ToAPIGatewayV2HTTPResponse converts the response to the typed
// aws-lambda-go HTTP 2.0 response. Multi-value headers are comma-joined, as
// in the 2.0 wire format.
func (r *Response) ToAPIGatewayV2HTTPResponse() events.APIGatewayV2HTTPResponse {
	headers := r.Headers
	if headers == nil && r.MultiValueHeaders != nil {
		headers = make(map[string]string, len(r.MultiValueHeaders))
		for key, values := range r.MultiValueHeaders {
			headers[key] = strings.Join(values, ",")
		}
	}
	return events.APIGatewayV2HTTPResponse{
		StatusCode:      r.StatusCode,
		Body:            r.Body,
		IsBase64Encoded: r.IsBase64Encoded,
		Headers:         headers,
		Cookies:         r.Cookies,
	}
}
