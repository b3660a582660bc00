package transform

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Unknown is the label every unresolved code or missing field maps to.
// Mapping misses are never errors: coverage totals must not drop records.
const Unknown = "Unknown"

// MapValue maps a raw coded value to its label. Missing values, values
// of unexpected type and codes absent from the mapping all resolve to
// def. Numeric coercion is attempted before giving up, so "3" and 3.0
// both match code 3.
func MapValue(val any, mapping map[int]string, def string) string {
	code, ok := toInt(val)
	if !ok {
		return def
	}
	if label, ok := mapping[code]; ok {
		return label
	}
	return def
}

// MapCountries maps a country value, which may be a scalar code or a
// list of codes, to one label per code using the business unit's country
// table. A nil value, empty list or empty table yields a single Unknown
// label.
func MapCountries(val any, countries map[string]string) []string {
	switch v := val.(type) {
	case nil:
		return []string{Unknown}
	case []any:
		if len(v) == 0 {
			return []string{Unknown}
		}
		labels := make([]string, 0, len(v))
		for _, item := range v {
			labels = append(labels, mapCountryCode(item, countries))
		}
		return labels
	case []string:
		if len(v) == 0 {
			return []string{Unknown}
		}
		labels := make([]string, 0, len(v))
		for _, item := range v {
			labels = append(labels, mapCountryCode(item, countries))
		}
		return labels
	default:
		return []string{mapCountryCode(val, countries)}
	}
}

func mapCountryCode(val any, countries map[string]string) string {
	if val == nil {
		return Unknown
	}

	key := strings.TrimSpace(toString(val))
	if key == "" {
		return Unknown
	}
	if label, ok := countries[key]; ok {
		return label
	}

	// Codes sometimes arrive as floats ("5.0"); retry with the integer form.
	if code, ok := toInt(val); ok {
		if label, ok := countries[strconv.Itoa(code)]; ok {
			return label
		}
	}

	return Unknown
}

// MapPriority maps a priority id to its label. Non-numeric values fall
// back to substring matching on the priority name.
func MapPriority(val any) string {
	if val == nil {
		return Unknown
	}

	if code, ok := toInt(val); ok {
		if label, ok := priorityMappings[code]; ok {
			return label
		}
		return Unknown
	}

	text := strings.ToLower(strings.TrimSpace(toString(val)))
	switch {
	case strings.Contains(text, "highest"):
		return "Highest"
	case strings.Contains(text, "high"):
		return "High"
	case strings.Contains(text, "medium"):
		return "Medium"
	}
	return Unknown
}

// mapStatus maps a framework automation-status id to its label, empty
// string when the value is missing or unrecognized. The empty string
// marks "no signal from this framework" and is resolved by finalStatus.
func mapStatus(val any, mapping map[int]string) string {
	if val == nil {
		return ""
	}
	code, ok := toInt(val)
	if !ok {
		return ""
	}
	return mapping[code]
}

// toInt coerces the scalar types a JSON decode can produce into an int.
func toInt(val any) (int, bool) {
	switch v := val.(type) {
	case int:
		return v, true
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case float32:
		return int(v), true
	case float64:
		return int(v), true
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		return int(f), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		return int(f), true
	}
	return 0, false
}

func toString(val any) string {
	switch v := val.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		// Render whole floats without the trailing ".0" JSON gives them.
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	}
	return ""
}
