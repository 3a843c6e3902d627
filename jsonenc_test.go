package apievents

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestDatetimeSerialization(t *testing.T) {
	utc := time.Date(2023, 4, 5, 6, 7, 8, 0, time.UTC)
	offset := time.Date(2023, 4, 5, 6, 7, 8, 0, time.FixedZone("", 2*3600))

	tests := []struct {
		name   string
		config DatetimeSerializationConfig
		value  time.Time
		want   string
	}{
		{
			"utc gets z suffix",
			DatetimeSerializationConfig{UseZFormat: true},
			utc,
			"2023-04-05T06:07:08Z",
		},
		{
			"utc without z format",
			DatetimeSerializationConfig{},
			utc,
			"2023-04-05T06:07:08+00:00",
		},
		{
			"non-utc keeps offset",
			DatetimeSerializationConfig{UseZFormat: true},
			offset,
			"2023-04-05T06:07:08+02:00",
		},
		{
			"custom separator",
			DatetimeSerializationConfig{UseZFormat: true, Sep: " "},
			utc,
			"2023-04-05 06:07:08Z",
		},
		{
			"milliseconds",
			DatetimeSerializationConfig{UseZFormat: true, Timespec: "milliseconds"},
			time.Date(2023, 4, 5, 6, 7, 8, 120_000_000, time.UTC),
			"2023-04-05T06:07:08.120Z",
		},
		{
			"seconds truncates fraction",
			DatetimeSerializationConfig{UseZFormat: true, Timespec: "seconds"},
			time.Date(2023, 4, 5, 6, 7, 8, 120_000_000, time.UTC),
			"2023-04-05T06:07:08Z",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.config.format(tt.value); got != tt.want {
				t.Errorf("format() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestJSONMarshalDatetime(t *testing.T) {
	body := map[string]interface{}{
		"at": time.Date(2023, 4, 5, 6, 7, 8, 0, time.UTC),
	}
	got, err := jsonMarshal(body, nil)
	if err != nil {
		t.Fatalf("jsonMarshal() error = %v", err)
	}
	if got != `{"at":"2023-04-05T06:07:08Z"}` {
		t.Errorf("jsonMarshal() = %s", got)
	}
}

func TestJSONMarshalDatetimeDisabled(t *testing.T) {
	config := &JSONSerializationConfig{Datetime: nil, DecimalType: DecimalAsFloat}
	_, err := jsonMarshal(map[string]interface{}{"at": time.Now()}, config)
	if err == nil {
		t.Fatalf("expected error for disabled datetime serialization")
	}
}

func TestJSONMarshalDecimal(t *testing.T) {
	value := decimal.RequireFromString("1.5")

	tests := []struct {
		name        string
		decimalType DecimalType
		want        string
		wantErr     bool
	}{
		{"as float", DecimalAsFloat, `{"price":1.5}`, false},
		{"as string", DecimalAsString, `{"price":"1.5"}`, false},
		{"disabled", DecimalDisabled, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := &JSONSerializationConfig{
				Datetime:    DefaultDatetimeSerializationConfig(),
				DecimalType: tt.decimalType,
			}
			got, err := jsonMarshal(map[string]interface{}{"price": value}, config)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("jsonMarshal() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("jsonMarshal() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestJSONMarshalNested(t *testing.T) {
	body := map[string]interface{}{
		"items": []interface{}{
			map[string]interface{}{"price": decimal.RequireFromString("2.25")},
		},
	}
	got, err := jsonMarshal(body, nil)
	if err != nil {
		t.Fatalf("jsonMarshal() error = %v", err)
	}
	if !strings.Contains(got, "2.25") {
		t.Errorf("jsonMarshal() = %s, want converted nested decimal", got)
	}
}

func TestDefaultJSONSerializationConfigSwap(t *testing.T) {
	original := GetDefaultJSONSerializationConfig()
	defer SetDefaultJSONSerializationConfig(original)

	SetDefaultJSONSerializationConfig(&JSONSerializationConfig{
		Datetime:    DefaultDatetimeSerializationConfig(),
		DecimalType: DecimalAsString,
	})

	got, err := jsonMarshal(map[string]interface{}{"v": decimal.RequireFromString("3")}, nil)
	if err != nil {
		t.Fatalf("jsonMarshal() error = %v", err)
	}
	if got != `{"v":"3"}` {
		t.Errorf("jsonMarshal() = %s, want string decimal from swapped default", got)
	}
}
