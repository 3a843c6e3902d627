package apievents

import (
	"reflect"
	"testing"
	"time"
)

func TestNewCORSConfigEmptyMethods(t *testing.T) {
	config := NewCORSConfig(CORSOptions{AllowOrigin: "https://example.com"})

	if got := config.AllowMethods(); !reflect.DeepEqual(got, []string{"OPTIONS"}) {
		t.Errorf("AllowMethods() = %v, want [OPTIONS]", got)
	}
	headers := config.PreflightHeaders()
	if got := headers["Access-Control-Allow-Methods"]; got != "OPTIONS" {
		t.Errorf("Access-Control-Allow-Methods = %q, want %q", got, "OPTIONS")
	}
}

func TestNewCORSConfigNormalization(t *testing.T) {
	config := NewCORSConfig(CORSOptions{
		AllowOrigin:  "https://example.com",
		AllowMethods: []string{"GET", "get", "POST"},
		AllowHeaders: []string{"Content-Type", "content-type", "X-Api-Key"},
	})

	wantMethods := []string{"OPTIONS", "GET", "POST"}
	if got := config.AllowMethods(); !reflect.DeepEqual(got, wantMethods) {
		t.Errorf("AllowMethods() = %v, want %v", got, wantMethods)
	}

	wantHeaders := []string{"Content-Type", "X-Api-Key"}
	if got := config.AllowHeaders(); !reflect.DeepEqual(got, wantHeaders) {
		t.Errorf("AllowHeaders() = %v, want %v", got, wantHeaders)
	}
}

func TestNewCORSConfigWildcard(t *testing.T) {
	config := NewCORSConfig(CORSOptions{
		AllowOrigin:  "*",
		AllowMethods: []string{"GET", "*", "POST"},
	})

	if got := config.AllowMethods(); !reflect.DeepEqual(got, []string{"*"}) {
		t.Errorf("AllowMethods() = %v, want collapsed wildcard", got)
	}
}

func TestNewCORSConfigKeepsExplicitOptions(t *testing.T) {
	config := NewCORSConfig(CORSOptions{
		AllowOrigin:  "*",
		AllowMethods: []string{"options", "GET"},
	})

	// OPTIONS is already present (in whatever casing) so nothing is added.
	if got := config.AllowMethods(); !reflect.DeepEqual(got, []string{"options", "GET"}) {
		t.Errorf("AllowMethods() = %v", got)
	}
}

func TestCORSPreflightHeaders(t *testing.T) {
	config := NewCORSConfig(CORSOptions{
		AllowOrigin:      "https://example.com",
		AllowMethods:     []string{"GET", "POST"},
		AllowHeaders:     CORSHeadersContentType,
		MaxAge:           10 * time.Minute,
		AllowCredentials: true,
	})

	headers := config.PreflightHeaders()
	tests := []struct {
		key  string
		want string
	}{
		{"Access-Control-Allow-Origin", "https://example.com"},
		{"Access-Control-Allow-Methods", "OPTIONS, GET, POST"},
		{"Access-Control-Allow-Headers", "Content-Type, Accept"},
		{"Access-Control-Max-Age", "600"},
		{"Access-Control-Allow-Credentials", "true"},
	}
	for _, tt := range tests {
		if got := headers[tt.key]; got != tt.want {
			t.Errorf("%s = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestCORSOrdinaryHeaders(t *testing.T) {
	config := NewCORSConfig(CORSOptions{
		AllowOrigin:   "*",
		AllowMethods:  []string{"GET"},
		ExposeHeaders: []string{"X-Request-Id"},
	})

	headers := config.Headers()
	if got := headers["Access-Control-Allow-Origin"]; got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
	if got := headers["Access-Control-Expose-Headers"]; got != "X-Request-Id" {
		t.Errorf("Access-Control-Expose-Headers = %q", got)
	}
	if _, ok := headers["Access-Control-Allow-Methods"]; ok {
		t.Errorf("ordinary response headers should not carry Allow-Methods")
	}
}

func TestIsPreflightRequest(t *testing.T) {
	preflight := makeV2Event()
	preflight["requestContext"].(map[string]interface{})["http"].(map[string]interface{})["method"] = "OPTIONS"
	preflight["headers"] = map[string]interface{}{
		"access-control-request-method": "POST",
		"origin":                        "https://example.com",
	}

	if !IsPreflightRequest(preflight) {
		t.Errorf("IsPreflightRequest() = false for an OPTIONS request with Access-Control-Request-Method")
	}

	plainOptions := makeV2Event()
	plainOptions["requestContext"].(map[string]interface{})["http"].(map[string]interface{})["method"] = "OPTIONS"
	if IsPreflightRequest(plainOptions) {
		t.Errorf("IsPreflightRequest() = true for a plain OPTIONS request")
	}

	if IsPreflightRequest(makeV2Event()) {
		t.Errorf("IsPreflightRequest() = true for a POST request")
	}
}

func TestMakePreflightResponse(t *testing.T) {
	config := NewCORSConfig(CORSOptions{
		AllowOrigin:  "*",
		AllowMethods: []string{"GET", "POST"},
		AllowHeaders: CORSHeadersAuthorization,
	})

	response, err := config.MakePreflightResponse(FormatVersionAPIGW20)
	if err != nil {
		t.Fatalf("MakePreflightResponse() error = %v", err)
	}
	if response.StatusCode != 204 {
		t.Errorf("StatusCode = %d, want 204", response.StatusCode)
	}
	if response.Body != "" {
		t.Errorf("Body = %q, want empty", response.Body)
	}
	if got := response.Headers["Access-Control-Allow-Methods"]; got != "OPTIONS, GET, POST" {
		t.Errorf("Access-Control-Allow-Methods = %q", got)
	}
	if got := response.Headers["Access-Control-Allow-Headers"]; got != "Authorization" {
		t.Errorf("Access-Control-Allow-Headers = %q", got)
	}
}
