package apievents

import (
	"strconv"
	"strings"
	"time"
)

// Common Access-Control-Allow-Headers lists.
var (
	CORSHeadersContentType   = []string{"Content-Type", "Accept"}
	CORSHeadersAuthorization = []string{"Authorization"}
	CORSHeadersSigV4         = []string{"Authorization", "Content-Type", "X-Amz-Date", "X-Amz-Security-Token"}
	CORSHeadersAPIKey        = []string{"X-Api-Key"}
)

// CORSOptions holds the inputs for NewCORSConfig.
type CORSOptions struct {
	AllowOrigin      string
	AllowMethods     []string
	AllowHeaders     []string
	ExposeHeaders    []string
	MaxAge           time.Duration
	AllowCredentials bool
}

// CORSConfig is an immutable CORS policy. Both header sets are derived once
// at construction; method and header name lists are deduplicated
// case-insensitively with first-seen casing kept, a "*" entry short-circuits
// the whole list to just "*", and OPTIONS is always included in the allowed
// methods.
type CORSConfig struct {
	allowOrigin      string
	allowMethods     []string
	allowHeaders     []string
	exposeHeaders    []string
	maxAge           time.Duration
	allowCredentials bool

	preflightHeaders map[string]string
	headers          map[string]string
}

// NewCORSConfig constructs a CORSConfig from the given options.
func NewCORSConfig(opts CORSOptions) *CORSConfig {
	c := &CORSConfig{
		allowOrigin:      opts.AllowOrigin,
		allowMethods:     normalizeNameList(opts.AllowMethods),
		allowHeaders:     normalizeNameList(opts.AllowHeaders),
		exposeHeaders:    normalizeNameList(opts.ExposeHeaders),
		maxAge:           opts.MaxAge,
		allowCredentials: opts.AllowCredentials,
	}

	if (len(c.allowMethods) == 0 || c.allowMethods[0] != "*") && !containsFold(c.allowMethods, "OPTIONS") {
		c.allowMethods = append([]string{"OPTIONS"}, c.allowMethods...)
	}

	c.preflightHeaders = c.buildPreflightHeaders()
	c.headers = c.buildHeaders()
	return c
}

// normalizeNameList deduplicates case-insensitively, keeping first-seen
// casing. A "*" entry collapses the list to just "*".
func normalizeNameList(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		if name == "*" {
			return []string{"*"}
		}
		lower := strings.ToLower(name)
		if _, ok := seen[lower]; ok {
			continue
		}
		seen[lower] = struct{}{}
		out = append(out, name)
	}
	return out
}

func containsFold(list []string, name string) bool {
	for _, item := range list {
		if strings.EqualFold(item, name) {
			return true
		}
	}
	return false
}

func (c *CORSConfig) buildPreflightHeaders() map[string]string {
	headers := map[string]string{
		"Access-Control-Allow-Origin":  c.allowOrigin,
		"Access-Control-Allow-Methods": strings.Join(c.allowMethods, ", "),
	}
	if len(c.allowHeaders) > 0 {
		headers["Access-Control-Allow-Headers"] = strings.Join(c.allowHeaders, ", ")
	}
	if c.maxAge > 0 {
		headers["Access-Control-Max-Age"] = strconv.Itoa(int(c.maxAge / time.Second))
	}
	if c.allowCredentials {
		headers["Access-Control-Allow-Credentials"] = "true"
	}
	return headers
}

func (c *CORSConfig) buildHeaders() map[string]string {
	headers := map[string]string{
		"Access-Control-Allow-Origin": c.allowOrigin,
	}
	if len(c.exposeHeaders) > 0 {
		headers["Access-Control-Expose-Headers"] = strings.Join(c.exposeHeaders, ", ")
	}
	if c.allowCredentials {
		headers["Access-Control-Allow-Credentials"] = "true"
	}
	return headers
}

// AllowMethods returns the effective allowed methods.
func (c *CORSConfig) AllowMethods() []string {
	return append([]string(nil), c.allowMethods...)
}

// AllowHeaders returns the effective allowed headers.
func (c *CORSConfig) AllowHeaders() []string {
	return append([]string(nil), c.allowHeaders...)
}

// Headers returns the headers added to ordinary (non-preflight) responses.
func (c *CORSConfig) Headers() map[string]string {
	out := make(map[string]string, len(c.headers))
	for k, v := range c.headers {
		out[k] = v
	}
	return out
}

// PreflightHeaders returns the headers for a preflight response.
func (c *CORSConfig) PreflightHeaders() map[string]string {
	out := make(map[string]string, len(c.preflightHeaders))
	for k, v := range c.preflightHeaders {
		out[k] = v
	}
	return out
}

// IsPreflightRequest reports whether the event is a CORS preflight request
// (an OPTIONS request carrying an Access-Control-Request-Method header).
func IsPreflightRequest(event Event) bool {
	if GetMethod(event) != "OPTIONS" {
		return false
	}
	_, ok := GetHeaders(event).Get("Access-Control-Request-Method")
	return ok
}

// MakePreflightResponse generates a 204 preflight response carrying the
// policy's preflight header set.
func (c *CORSConfig) MakePreflightResponse(format FormatSource) (*Response, error) {
	headers := NewHeaders()
	headers.mergeDefaults(c.preflightHeaders)
	return MakeResponse(204, nil, format, &ResponseOptions{Headers: headers})
}
