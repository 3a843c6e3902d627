package apievents

import "fmt"

// Event is the raw input event for a Lambda function behind API Gateway,
// as decoded from JSON. It is owned by the caller for the duration of one
// invocation and is mutated in place in a few documented ways: the detected
// format version is cached under EventFormatVersionCacheKey, a JSON body
// validated through the handler wrapper replaces the "body" field with its
// parsed form, and path parameters captured by ValidatePathRegex can be
// merged into "pathParameters".
type Event map[string]interface{}

// FormatVersion identifies one of the supported event envelope formats.
type FormatVersion string

const (
	// FormatVersionUnknown means the event matched no known format.
	FormatVersionUnknown FormatVersion = ""
	// FormatVersionAPIGW10 is the API Gateway HTTP 1.0 and REST format.
	FormatVersionAPIGW10 FormatVersion = "APIGW_10"
	// FormatVersionAPIGW20 is the API Gateway HTTP 2.0 format.
	FormatVersionAPIGW20 FormatVersion = "APIGW_20"
)

// EventFormatVersionCacheKey is the event field the detected format version
// is cached under.
const EventFormatVersionCacheKey = "__event_format_version__"

func (v FormatVersion) String() string {
	if v == FormatVersionUnknown {
		return "unknown"
	}
	return string(v)
}

// FormatSource is anything a response format version can be resolved from:
// either a FormatVersion directly, or an Event to run detection on.
type FormatSource interface {
	resolveFormatVersion() FormatVersion
}

func (v FormatVersion) resolveFormatVersion() FormatVersion { return v }

func (e Event) resolveFormatVersion() FormatVersion { return GetEventFormatVersion(e) }

// keyPath is an ordered list of key segments for nested lookups in an event.
type keyPath []string

// get traverses the path, reporting whether every segment exists. A missing
// intermediate key anywhere along the path counts as absent.
func (p keyPath) get(e map[string]interface{}) (interface{}, bool) {
	var value interface{} = e
	for _, k := range p {
		m, ok := value.(map[string]interface{})
		if !ok {
			return nil, false
		}
		value, ok = m[k]
		if !ok {
			return nil, false
		}
	}
	return value, true
}

// discriminator is a key whose value must equal an exact literal for a
// format to match.
type discriminator struct {
	key   string
	value string
}

// formatDescriptor is the static matching data for one format version.
type formatDescriptor struct {
	version FormatVersion
	// discriminator is optional; the legacy REST format has none.
	discriminator *discriminator
	required      []keyPath
}

func (d formatDescriptor) matches(event Event) bool {
	if d.discriminator != nil {
		if v, _ := event[d.discriminator.key].(string); v != d.discriminator.value {
			return false
		}
	}
	for _, key := range d.required {
		if _, ok := key.get(event); !ok {
			return false
		}
	}
	return true
}

// formatDescriptors is evaluated in order. The ordering matters: the legacy
// REST envelope carries no version discriminator and its required keys are a
// strict subset of the 1.0 envelope's, so the discriminated formats must be
// checked first and the subset-only format last.
var formatDescriptors = []formatDescriptor{
	{
		version:       FormatVersionAPIGW10,
		discriminator: &discriminator{key: "version", value: "1.0"},
		required: []keyPath{
			{"httpMethod"},
			{"path"},
			{"pathParameters"},
			{"headers"},
			{"multiValueHeaders"},
			{"queryStringParameters"},
			{"multiValueQueryStringParameters"},
			{"body"},
			{"isBase64Encoded"},
		},
	},
	{
		version:       FormatVersionAPIGW20,
		discriminator: &discriminator{key: "version", value: "2.0"},
		required: []keyPath{
			{"requestContext", "http", "method"},
			{"rawPath"},
			// pathParameters, queryStringParameters and body may be missing
			{"headers"},
			{"rawQueryString"},
			{"isBase64Encoded"},
		},
	},
	{
		// REST APIs deliver the 1.0 shape without a version field.
		version: FormatVersionAPIGW10,
		required: []keyPath{
			{"httpMethod"},
			{"path"},
			{"pathParameters"},
			{"headers"},
			{"multiValueHeaders"},
			{"queryStringParameters"},
			{"multiValueQueryStringParameters"},
			{"body"},
			{"isBase64Encoded"},
		},
	},
}

// GetEventFormatVersion returns the format version of the event, or
// FormatVersionUnknown if the event matches no known format.
//
// The result is cached within the event under EventFormatVersionCacheKey so
// repeated lookups do not re-run detection.
func GetEventFormatVersion(event Event) FormatVersion {
	return detectFormatVersion(event, false)
}

// GetEventFormatVersionUncached behaves like GetEventFormatVersion but
// leaves the event unmodified and ignores any cached value's absence. A
// previously cached value is still honored.
func GetEventFormatVersionUncached(event Event) FormatVersion {
	return detectFormatVersion(event, true)
}

func detectFormatVersion(event Event, disableCache bool) FormatVersion {
	if cached, ok := event[EventFormatVersionCacheKey]; ok {
		switch v := cached.(type) {
		case FormatVersion:
			return v
		case string:
			return FormatVersion(v)
		}
	}

	version := FormatVersionUnknown
	for _, descriptor := range formatDescriptors {
		if descriptor.matches(event) {
			version = descriptor.version
			break
		}
	}

	if version != FormatVersionUnknown && !disableCache {
		event[EventFormatVersionCacheKey] = string(version)
	}
	return version
}

// requireKnownFormat panics on an unrecognized or unimplemented format.
// Extractors call this before reading format-specific fields: an unknown
// format at that point is an integration bug, not a client-facing condition.
func requireKnownFormat(event Event, caller string) FormatVersion {
	version := GetEventFormatVersion(event)
	switch version {
	case FormatVersionAPIGW10, FormatVersionAPIGW20:
		return version
	default:
		panic(fmt.Sprintf("apievents: %s: unsupported event format version %s", caller, version))
	}
}
