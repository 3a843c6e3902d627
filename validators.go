package apievents

import (
	"fmt"
	"regexp"
	"strings"
)

// Requirements describes constraints on a named-value collection (path
// parameters, headers, or query parameters). All fields are optional; every
// violation across all fields is aggregated into a single error so the
// client learns everything wrong with the request in one round trip.
type Requirements struct {
	// Keys must all be present.
	Keys []string
	// Values maps names to the exact value each must hold.
	Values map[string]string
	// ValuePatterns maps names to a regular expression each value must
	// match (search semantics).
	ValuePatterns map[string]*regexp.Regexp
}

// checkRequirements evaluates the requirements against a value lookup,
// returning the union of missing keys and mismatched values.
func (r Requirements) check(lookup func(string) (string, bool), foldKeys bool) (badKeys []string, badValues map[string]string) {
	badValues = map[string]string{}

	key := func(k string) string {
		if foldKeys {
			return strings.ToLower(k)
		}
		return k
	}

	for _, k := range r.Keys {
		if _, ok := lookup(key(k)); !ok {
			badKeys = append(badKeys, k)
		}
	}
	for k, want := range r.Values {
		value, ok := lookup(key(k))
		if !ok {
			badKeys = append(badKeys, k)
		} else if value != want {
			badValues[key(k)] = value
		}
	}
	for k, pattern := range r.ValuePatterns {
		value, ok := lookup(key(k))
		if !ok {
			badKeys = append(badKeys, k)
		} else if !pattern.MatchString(value) {
			badValues[key(k)] = value
		}
	}
	return badKeys, badValues
}

// ValidateEventFormatVersion validates that the event uses the given format
// version.
//
// By default a mismatch returns a plain error, because the event format is a
// deployment-time invariant, not a client fault; the handler wrapper will
// propagate it uncaught. Set useErrorResponse to get a *FormatVersionError
// (status 500, no details exposed) instead.
func ValidateEventFormatVersion(event Event, expected FormatVersion, useErrorResponse bool) (FormatVersion, error) {
	actual := GetEventFormatVersion(event)
	if actual != expected {
		formatErr := newFormatVersionError(expected, actual)
		if !useErrorResponse {
			return actual, fmt.Errorf("%s", formatErr.InternalMessage())
		}
		return actual, formatErr
	}
	return actual, nil
}

// ValidateMethod validates the request method against the given method(s),
// returning the method or an *UnsupportedMethodError.
func ValidateMethod(event Event, methods ...string) (string, error) {
	eventMethod := GetMethod(event)
	for _, method := range methods {
		if eventMethod == method {
			return eventMethod, nil
		}
	}
	return "", newUnsupportedMethodError(eventMethod, methods)
}

// PathOptions holds the shared options for the path validators.
type PathOptions struct {
	// DisableStageRemoval preserves the original path with the stage
	// prefix.
	DisableStageRemoval bool
}

// ValidatePath validates the stage-stripped request path against the given
// path literal(s), returning the path and path parameters or a
// *PathNotFoundError.
func ValidatePath(event Event, paths []string, opts *PathOptions) (string, map[string]string, error) {
	if opts == nil {
		opts = &PathOptions{}
	}
	eventPath, parameters := GetPathAndParameters(event, !opts.DisableStageRemoval)
	for _, path := range paths {
		if eventPath == path {
			return eventPath, parameters, nil
		}
	}
	return "", nil, newPathNotFoundError(eventPath, paths, false)
}

// ValidatePathRegex validates the request path against a pattern with
// search semantics (the pattern need not anchor to the start of the path).
// Named capture groups become path parameters; when updateEvent is true
// they are also merged into the event's path-parameters field in place.
func ValidatePathRegex(event Event, pattern *regexp.Regexp, updateEvent bool, opts *PathOptions) (string, map[string]string, error) {
	if opts == nil {
		opts = &PathOptions{}
	}
	eventPath, parameters := GetPathAndParameters(event, !opts.DisableStageRemoval)

	match := pattern.FindStringSubmatch(eventPath)
	if match == nil {
		return "", nil, newPathNotFoundError(eventPath, []string{pattern.String()}, true)
	}

	captured := map[string]string{}
	for i, name := range pattern.SubexpNames() {
		if i > 0 && i < len(match) && name != "" {
			captured[name] = match[i]
		}
	}

	if updateEvent {
		parameters = updatePathParameters(event, captured)
	} else {
		for name, value := range captured {
			parameters[name] = value
		}
	}
	return eventPath, parameters, nil
}

// ValidatePathParameters validates the path parameters against the given
// requirements, aggregating all violations into one *PathParameterError.
func ValidatePathParameters(event Event, requirements Requirements, opts *PathOptions) (string, map[string]string, error) {
	if opts == nil {
		opts = &PathOptions{}
	}
	eventPath, parameters := GetPathAndParameters(event, !opts.DisableStageRemoval)

	badKeys, badValues := requirements.check(func(key string) (string, bool) {
		value, ok := parameters[key]
		return value, ok
	}, false)

	if len(badKeys) > 0 || len(badValues) > 0 {
		return "", nil, newPathParameterError(eventPath, badKeys, badValues)
	}
	return eventPath, parameters, nil
}

// ValidateHeaders validates the request headers against the given
// requirements, aggregating all violations into one *HeaderError. Header
// names are matched case-insensitively.
func ValidateHeaders(event Event, requirements Requirements) (*Headers, error) {
	eventHeaders := GetHeaders(event)

	badKeys, badValues := requirements.check(eventHeaders.Get, true)

	if len(badKeys) > 0 || len(badValues) > 0 {
		return nil, newHeaderError(eventHeaders, badKeys, badValues)
	}
	return eventHeaders, nil
}

// ValidateQueryParameters validates the query parameters against the given
// requirements, aggregating all violations into one *QueryParameterError.
func ValidateQueryParameters(event Event, requirements Requirements) (map[string]string, error) {
	eventQueryParameters := GetQueryParameters(event)

	badKeys, badValues := requirements.check(func(key string) (string, bool) {
		value, ok := eventQueryParameters[key]
		return value, ok
	}, false)

	if len(badKeys) > 0 || len(badValues) > 0 {
		return nil, newQueryParameterError(eventQueryParameters, badKeys, badValues)
	}
	return eventQueryParameters, nil
}

// contentTypeMatches applies MIME wildcard semantics: "*/*" matches
// anything, "type/*" matches any subtype of type, anything else is an exact
// match on the media type (parameters such as charset are ignored).
func contentTypeMatches(contentType, accept string) bool {
	if accept == "*/*" {
		return true
	}
	mimeType := strings.TrimSpace(strings.Split(contentType, ";")[0])
	if strings.HasSuffix(accept, "/*") {
		return strings.Split(mimeType, "/")[0] == strings.Split(accept, "/")[0]
	}
	return mimeType == accept
}

// ValidateContentType validates the request content type against the given
// content type(s), with MIME wildcard matching. A missing Content-Type
// header is its own *ContentTypeError.
func ValidateContentType(event Event, contentTypes ...string) (string, error) {
	eventContentType, ok := GetHeaders(event).Get("Content-Type")
	if !ok || eventContentType == "" {
		return "", newContentTypeError("", contentTypes)
	}
	for _, accept := range contentTypes {
		if contentTypeMatches(eventContentType, accept) {
			return eventContentType, nil
		}
	}
	return "", newContentTypeError(eventContentType, contentTypes)
}

// ValidateJSONBody parses and validates the request body as JSON; see
// GetJSONBody. Present as a validator so the checks compose with the rest
// of this file under the handler wrapper.
func ValidateJSONBody(event Event, opts *JSONBodyOptions) (interface{}, error) {
	return GetJSONBody(event, opts)
}
