package apievents

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
)

// DecimalType selects how decimal.Decimal values are serialized to JSON.
type DecimalType int

const (
	// DecimalDisabled makes decimal values a serialization error.
	DecimalDisabled DecimalType = iota
	// DecimalAsFloat serializes decimal values as JSON numbers.
	DecimalAsFloat
	// DecimalAsString serializes decimal values as JSON strings.
	DecimalAsString
)

// DatetimeSerializationConfig holds options for serializing time.Time values.
//
// When UseZFormat is true, a UTC timestamp whose rendered offset is "+00:00"
// is rewritten to end in "Z". Sep replaces the "T" separator between the date
// and time parts, and Timespec truncates the fractional seconds ("seconds",
// "milliseconds", "microseconds" or "nanoseconds"; empty keeps whatever
// precision the value carries).
type DatetimeSerializationConfig struct {
	UseZFormat bool
	Sep        string
	Timespec   string
}

// DefaultDatetimeSerializationConfig returns the stock datetime options:
// Z-suffix rewriting enabled, default separator and precision.
func DefaultDatetimeSerializationConfig() *DatetimeSerializationConfig {
	return &DatetimeSerializationConfig{UseZFormat: true}
}

// JSONSerializationConfig controls how non-JSON-native scalar types are
// converted when a response body is serialized. A nil Datetime disables
// serialization of time.Time values entirely.
//
// Configs are immutable value types; replacing the process-wide default does
// not affect previously-captured configs or in-flight calls.
type JSONSerializationConfig struct {
	Datetime    *DatetimeSerializationConfig
	DecimalType DecimalType
}

var defaultJSONSerializationConfig atomic.Value // *JSONSerializationConfig

func init() {
	defaultJSONSerializationConfig.Store(&JSONSerializationConfig{
		Datetime:    DefaultDatetimeSerializationConfig(),
		DecimalType: DecimalAsFloat,
	})
}

// SetDefaultJSONSerializationConfig replaces the process-wide default JSON
// serialization config. The swap is atomic; concurrent readers see either
// the old or the new value, never a partial write.
func SetDefaultJSONSerializationConfig(config *JSONSerializationConfig) {
	defaultJSONSerializationConfig.Store(config)
}

// GetDefaultJSONSerializationConfig returns the process-wide default JSON
// serialization config. It initializes to serializing time.Time with the
// "Z" designator for UTC and decimal.Decimal as float.
func GetDefaultJSONSerializationConfig() *JSONSerializationConfig {
	config, _ := defaultJSONSerializationConfig.Load().(*JSONSerializationConfig)
	return config
}

var utcOffsetSuffix = regexp.MustCompile(`\+00(:?00)?$`)

func (c *DatetimeSerializationConfig) format(t time.Time) string {
	sep := "T"
	if c.Sep != "" {
		sep = c.Sep
	}

	var timeLayout string
	switch c.Timespec {
	case "", "auto":
		timeLayout = "15:04:05.999999999"
	case "seconds":
		timeLayout = "15:04:05"
	case "milliseconds":
		timeLayout = "15:04:05.000"
	case "microseconds":
		timeLayout = "15:04:05.000000"
	case "nanoseconds":
		timeLayout = "15:04:05.000000000"
	default:
		timeLayout = "15:04:05"
	}

	value := t.Format("2006-01-02" + sep + timeLayout + "-07:00")
	if c.UseZFormat {
		value = utcOffsetSuffix.ReplaceAllString(value, "Z")
	}
	return value
}

// convertForJSON rewrites scalar types the config knows about into
// JSON-native values, recursing through maps and slices. Values the config
// does not cover are returned unchanged for encoding/json to handle.
func convertForJSON(value interface{}, config *JSONSerializationConfig) (interface{}, error) {
	switch v := value.(type) {
	case time.Time:
		if config == nil || config.Datetime == nil {
			return nil, fmt.Errorf("value of type time.Time is not JSON serializable with this config")
		}
		return config.Datetime.format(v), nil
	case decimal.Decimal:
		if config == nil || config.DecimalType == DecimalDisabled {
			return nil, fmt.Errorf("value of type decimal.Decimal is not JSON serializable with this config")
		}
		if config.DecimalType == DecimalAsString {
			return v.String(), nil
		}
		f, _ := v.Float64()
		return f, nil
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for key, item := range v {
			converted, err := convertForJSON(item, config)
			if err != nil {
				return nil, err
			}
			out[key] = converted
		}
		return out, nil
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			converted, err := convertForJSON(item, config)
			if err != nil {
				return nil, err
			}
			out[i] = converted
		}
		return out, nil
	default:
		return value, nil
	}
}

// jsonMarshal serializes a body using the given config, falling back to the
// process-wide default when config is nil.
func jsonMarshal(value interface{}, config *JSONSerializationConfig) (string, error) {
	if config == nil {
		config = GetDefaultJSONSerializationConfig()
	}
	converted, err := convertForJSON(value, config)
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(converted)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
