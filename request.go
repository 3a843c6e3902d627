package apievents

import (
	"strings"

	"github.com/aws/aws-lambda-go/events"
)

// GetMethod returns the HTTP method from the format-specific location.
// It panics on an unrecognized event format.
func GetMethod(event Event) string {
	switch requireKnownFormat(event, "GetMethod") {
	case FormatVersionAPIGW10:
		method, _ := event["httpMethod"].(string)
		return method
	default:
		method, _ := keyPath{"requestContext", "http", "method"}.get(event)
		s, _ := method.(string)
		return s
	}
}

func getStage(event Event) string {
	requireKnownFormat(event, "getStage")
	stage, _ := keyPath{"requestContext", "stage"}.get(event)
	s, _ := stage.(string)
	return s
}

func stripStage(path, stage string, version FormatVersion) string {
	if stage == "" {
		return path
	}
	// HTTP API $default stages are never present in the literal path.
	if version == FormatVersionAPIGW20 && stage == "$default" {
		return path
	}
	if prefix := "/" + stage; strings.HasPrefix(path, prefix) {
		return path[len(prefix):]
	}
	return path
}

// GetPathAndParameters returns the request path and any path parameters the
// gateway supplied. When stripStagePrefix is true, a leading "/{stage}"
// segment is removed from the path. It panics on an unrecognized event
// format.
func GetPathAndParameters(event Event, stripStagePrefix bool) (string, map[string]string) {
	version := requireKnownFormat(event, "GetPathAndParameters")

	var path string
	if version == FormatVersionAPIGW10 {
		path, _ = event["path"].(string)
	} else {
		path, _ = event["rawPath"].(string)
	}

	parameters := stringMap(event["pathParameters"])

	if stripStagePrefix {
		path = stripStage(path, getStage(event), version)
	}
	return path, parameters
}

// updatePathParameters merges parameters into the event's path parameters in
// place and returns the merged map.
func updatePathParameters(event Event, parameters map[string]string) map[string]string {
	requireKnownFormat(event, "updatePathParameters")
	if len(parameters) == 0 {
		if existing, ok := event["pathParameters"].(map[string]interface{}); ok && existing != nil {
			return stringMap(existing)
		}
		return map[string]string{}
	}

	existing, ok := event["pathParameters"].(map[string]interface{})
	if !ok || existing == nil {
		existing = map[string]interface{}{}
		event["pathParameters"] = existing
	}
	for key, value := range parameters {
		existing[key] = value
	}
	return stringMap(existing)
}

// GetHeaders returns the request headers as a Headers bag. The 1.0 format's
// multi-value representation is collapsed to a single comma-joined string
// per key. It panics on an unrecognized event format.
func GetHeaders(event Event) *Headers {
	version := requireKnownFormat(event, "GetHeaders")
	headers := NewHeaders()

	if version == FormatVersionAPIGW10 {
		raw, _ := event["multiValueHeaders"].(map[string]interface{})
		for key, value := range raw {
			headers.Set(strings.ToLower(key), strings.Join(stringSlice(value), ","))
		}
		return headers
	}

	raw, _ := event["headers"].(map[string]interface{})
	for key, value := range raw {
		s, _ := value.(string)
		headers.Set(key, s)
	}
	return headers
}

// GetQueryParameters returns the query parameters as a single comma-joined
// string per key. It panics on an unrecognized event format.
func GetQueryParameters(event Event) map[string]string {
	version := requireKnownFormat(event, "GetQueryParameters")

	if version == FormatVersionAPIGW10 {
		raw, _ := event["multiValueQueryStringParameters"].(map[string]interface{})
		out := make(map[string]string, len(raw))
		for key, value := range raw {
			out[key] = strings.Join(stringSlice(value), ",")
		}
		return out
	}

	return stringMap(event["queryStringParameters"])
}

// stringMap converts a decoded-JSON map value into map[string]string,
// returning an empty map for nil or non-map input.
func stringMap(value interface{}) map[string]string {
	raw, _ := value.(map[string]interface{})
	out := make(map[string]string, len(raw))
	for key, item := range raw {
		s, _ := item.(string)
		out[key] = s
	}
	return out
}

// stringSlice converts a decoded-JSON list value into []string.
func stringSlice(value interface{}) []string {
	switch v := value.(type) {
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, _ := item.(string)
			out = append(out, s)
		}
		return out
	case string:
		return []string{v}
	default:
		return nil
	}
}

// EventFromAPIGatewayProxyRequest converts a typed aws-lambda-go REST/HTTP
// 1.0 request into an Event.
func EventFromAPIGatewayProxyRequest(req *events.APIGatewayProxyRequest) Event {
	event := Event{
		"httpMethod":                      req.HTTPMethod,
		"path":                            req.Path,
		"pathParameters":                  toInterfaceMap(req.PathParameters),
		"headers":                         toInterfaceMap(req.Headers),
		"multiValueHeaders":               toInterfaceListMap(req.MultiValueHeaders),
		"queryStringParameters":           toInterfaceMap(req.QueryStringParameters),
		"multiValueQueryStringParameters": toInterfaceListMap(req.MultiValueQueryStringParameters),
		"body":                            req.Body,
		"isBase64Encoded":                 req.IsBase64Encoded,
	}
	event["requestContext"] = map[string]interface{}{
		"stage": req.RequestContext.Stage,
	}
	return event
}

// EventFromAPIGatewayV2HTTPRequest converts a typed aws-lambda-go HTTP 2.0
// request into an Event.
func EventFromAPIGatewayV2HTTPRequest(req *events.APIGatewayV2HTTPRequest) Event {
	event := Event{
		"version":         req.Version,
		"rawPath":         req.RawPath,
		"rawQueryString":  req.RawQueryString,
		"headers":         toInterfaceMap(req.Headers),
		"isBase64Encoded": req.IsBase64Encoded,
	}
	if req.Version == "" {
		event["version"] = "2.0"
	}
	if req.PathParameters != nil {
		event["pathParameters"] = toInterfaceMap(req.PathParameters)
	}
	if req.QueryStringParameters != nil {
		event["queryStringParameters"] = toInterfaceMap(req.QueryStringParameters)
	}
	if req.Body != "" {
		event["body"] = req.Body
	}
	if len(req.Cookies) > 0 {
		cookies := make([]interface{}, len(req.Cookies))
		for i, c := range req.Cookies {
			cookies[i] = c
		}
		event["cookies"] = cookies
	}
	event["requestContext"] = map[string]interface{}{
		"stage": req.RequestContext.Stage,
		"http": map[string]interface{}{
			"method": req.RequestContext.HTTP.Method,
			"path":   req.RequestContext.HTTP.Path,
		},
	}
	return event
}

func toInterfaceMap(m map[string]string) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func toInterfaceListMap(m map[string][]string) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		list := make([]interface{}, len(v))
		for i, item := range v {
			list[i] = item
		}
		out[k] = list
	}
	return out
}
