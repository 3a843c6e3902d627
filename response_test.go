package apievents

import (
	"encoding/base64"
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestMakeResponseBodyTypes(t *testing.T) {
	tests := []struct {
		name            string
		body            interface{}
		wantBody        string
		wantB64         bool
		wantContentType string
	}{
		{"nil body", nil, "", false, ""},
		{"string body", "hello", "hello", false, "text/plain"},
		{
			"binary body",
			[]byte{0x01, 0x02},
			base64.StdEncoding.EncodeToString([]byte{0x01, 0x02}),
			true,
			"application/octet-stream",
		},
		{
			"json body",
			map[string]interface{}{"ok": true},
			`{"ok":true}`,
			false,
			"application/json",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			response, err := MakeResponse(200, tt.body, FormatVersionAPIGW10, nil)
			if err != nil {
				t.Fatalf("MakeResponse() error = %v", err)
			}
			if response.Body != tt.wantBody {
				t.Errorf("Body = %q, want %q", response.Body, tt.wantBody)
			}
			if response.IsBase64Encoded != tt.wantB64 {
				t.Errorf("IsBase64Encoded = %v, want %v", response.IsBase64Encoded, tt.wantB64)
			}
			if got := response.Headers["Content-Type"]; got != tt.wantContentType {
				t.Errorf("Content-Type = %q, want %q", got, tt.wantContentType)
			}
		})
	}
}

func TestMakeResponseKeepsCallerContentType(t *testing.T) {
	headers := NewHeaders().Set("content-type", "application/xml")
	response, err := MakeResponse(200, "<x/>", FormatVersionAPIGW10, &ResponseOptions{Headers: headers})
	if err != nil {
		t.Fatalf("MakeResponse() error = %v", err)
	}

	if len(response.Headers) != 1 {
		t.Fatalf("Headers = %v, want a single content type entry", response.Headers)
	}
	if got := response.Headers["content-type"]; got != "application/xml" {
		t.Errorf("content-type = %q, want caller value kept under caller casing", got)
	}
}

func TestMakeResponseHeaderShapes(t *testing.T) {
	multi := NewHeaders().SetList("Set-Cookie", []string{"a=1", "b=2"})

	v1, err := MakeResponse(200, nil, FormatVersionAPIGW10, &ResponseOptions{Headers: multi})
	if err != nil {
		t.Fatalf("MakeResponse() error = %v", err)
	}
	if v1.Headers != nil {
		t.Errorf("v1.0 multi-valued response set flat Headers: %v", v1.Headers)
	}
	if !reflect.DeepEqual(v1.MultiValueHeaders["Set-Cookie"], []string{"a=1", "b=2"}) {
		t.Errorf("MultiValueHeaders = %v", v1.MultiValueHeaders)
	}

	v2, err := MakeResponse(200, nil, FormatVersionAPIGW20, &ResponseOptions{Headers: multi.Clone()})
	if err != nil {
		t.Fatalf("MakeResponse() error = %v", err)
	}
	if v2.MultiValueHeaders != nil {
		t.Errorf("v2.0 response set MultiValueHeaders: %v", v2.MultiValueHeaders)
	}
	if got := v2.Headers["Set-Cookie"]; got != "a=1,b=2" {
		t.Errorf("v2.0 Set-Cookie = %q, want comma-joined", got)
	}
}

func TestMakeResponseCookies(t *testing.T) {
	cookies := []string{"session=abc"}

	if _, err := MakeResponse(200, nil, FormatVersionAPIGW10, &ResponseOptions{Cookies: cookies}); err == nil {
		t.Errorf("expected error for cookies on format 1.0")
	}

	response, err := MakeResponse(200, nil, FormatVersionAPIGW20, &ResponseOptions{Cookies: cookies})
	if err != nil {
		t.Fatalf("MakeResponse() error = %v", err)
	}
	if !reflect.DeepEqual(response.Cookies, cookies) {
		t.Errorf("Cookies = %v", response.Cookies)
	}
}

func TestMakeResponseRequiresFormat(t *testing.T) {
	if _, err := MakeResponse(200, nil, nil, nil); err == nil {
		t.Errorf("expected error for nil format")
	}
	if _, err := MakeResponse(200, nil, FormatVersionUnknown, nil); err == nil {
		t.Errorf("expected error for unknown format")
	}
	if _, err := MakeResponse(200, nil, Event{}, nil); err == nil {
		t.Errorf("expected error for an undetectable event")
	}
}

func TestMakeResponseFromEvent(t *testing.T) {
	response, err := MakeResponse(200, "ok", makeV2Event(), nil)
	if err != nil {
		t.Fatalf("MakeResponse() error = %v", err)
	}
	if response.StatusCode != 200 {
		t.Errorf("StatusCode = %d", response.StatusCode)
	}
}

func TestMakeResponseCORS(t *testing.T) {
	cors := NewCORSConfig(CORSOptions{AllowOrigin: "*", AllowMethods: []string{"GET"}})
	headers := NewHeaders().Set("Access-Control-Allow-Origin", "https://example.com")

	response, err := MakeResponse(200, "ok", FormatVersionAPIGW20, &ResponseOptions{
		Headers: headers,
		CORS:    cors,
	})
	if err != nil {
		t.Fatalf("MakeResponse() error = %v", err)
	}
	if got := response.Headers["Access-Control-Allow-Origin"]; got != "https://example.com" {
		t.Errorf("CORS overwrote an explicit header: %q", got)
	}

	bare, err := MakeResponse(200, "ok", FormatVersionAPIGW20, &ResponseOptions{CORS: cors})
	if err != nil {
		t.Fatalf("MakeResponse() error = %v", err)
	}
	if got := bare.Headers["Access-Control-Allow-Origin"]; got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want policy value", got)
	}
}

func TestMakeRedirect(t *testing.T) {
	headers := NewHeaders().Set("Location", "https://stale.example.com")
	response, err := MakeRedirect(302, "https://example.com/next", FormatVersionAPIGW10, &ResponseOptions{Headers: headers})
	if err != nil {
		t.Fatalf("MakeRedirect() error = %v", err)
	}
	if response.StatusCode != 302 {
		t.Errorf("StatusCode = %d", response.StatusCode)
	}

	count := 0
	for key, value := range response.Headers {
		if strings.EqualFold(key, "Location") {
			count++
			if value != "https://example.com/next" {
				t.Errorf("Location = %q", value)
			}
		}
	}
	if count != 1 {
		t.Errorf("Location header count = %d, want exactly 1", count)
	}
}

func TestMakeRedirectRejectsNon3XX(t *testing.T) {
	if _, err := MakeRedirect(200, "https://example.com", FormatVersionAPIGW10, nil); err == nil {
		t.Errorf("expected error for a non-3XX redirect")
	}
}

func TestLooksLikeResponse(t *testing.T) {
	tests := []struct {
		name   string
		result interface{}
		want   bool
	}{
		{"response pointer", &Response{StatusCode: 200}, true},
		{"plain map with statusCode", map[string]interface{}{"statusCode": 200}, true},
		{"plain map without statusCode", map[string]interface{}{"ok": true}, false},
		{"string", "hello", false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := looksLikeResponse(tt.result); got != tt.want {
				t.Errorf("looksLikeResponse() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResponseSerializesToWireShape(t *testing.T) {
	response, err := MakeResponse(201, map[string]interface{}{"id": "7"}, FormatVersionAPIGW20, nil)
	if err != nil {
		t.Fatalf("MakeResponse() error = %v", err)
	}

	data, err := json.Marshal(response)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var wire map[string]interface{}
	if err := json.Unmarshal(data, &wire); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if wire["statusCode"] != float64(201) {
		t.Errorf("statusCode = %v", wire["statusCode"])
	}
	if _, ok := wire["multiValueHeaders"]; ok {
		t.Errorf("empty multiValueHeaders not omitted: %v", wire)
	}
}

func TestToAPIGatewayV2HTTPResponseJoinsMultiValues(t *testing.T) {
	response := &Response{
		StatusCode:        200,
		MultiValueHeaders: map[string][]string{"Accept": {"a", "b"}},
	}
	typed := response.ToAPIGatewayV2HTTPResponse()
	if got := typed.Headers["Accept"]; got != "a,b" {
		t.Errorf("Accept = %q, want comma-joined", got)
	}
}
