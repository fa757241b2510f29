package fields

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// datetimeLayouts are the accepted input forms of a datetime widget; naive forms use local time
var datetimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// isoMillis matches the timestamp form the tracker accepts for datetime fields
const isoMillis = "2006-01-02T15:04:05.000Z"

// Coerce converts a raw widget value into the typed JSON value sent to the tracker.
// It never fails: anything that does not fit the widget's shape comes back as the trimmed string.
func Coerce(raw string, w Widget) any {
	value := strings.TrimSpace(raw)

	switch w.Kind {
	case WidgetSelectSingle:
		return coerceSelection(value, w)
	case WidgetMultiValueText:
		return coerceList(value)
	case WidgetNumber:
		if n, ok := parseFinite(value); ok {
			return n
		}
		return value
	case WidgetDateTime:
		return coerceDateTime(value)
	default:
		// text, textarea, date, url, user-picker
		return value
	}
}

func coerceSelection(value string, w Widget) any {
	switch value {
	case "true":
		return true
	case "false":
		return false
	}

	if strings.HasPrefix(value, "{") && strings.HasSuffix(value, "}") {
		var obj map[string]any
		if err := json.Unmarshal([]byte(value), &obj); err == nil {
			return obj
		}
		return value
	}

	// An option id is an identifier, not a quantity
	if w.HasOption(value) {
		return value
	}

	if n, ok := parseFinite(value); ok {
		return n
	}
	return value
}

func coerceList(value string) any {
	var items []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	if len(items) == 0 {
		return []string{}
	}

	numbers := make([]float64, 0, len(items))
	for _, item := range items {
		n, ok := parseFinite(item)
		if !ok {
			return items
		}
		numbers = append(numbers, n)
	}
	return numbers
}

func coerceDateTime(value string) any {
	for _, layout := range datetimeLayouts {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t.UTC().Format(isoMillis)
		}
	}
	return value
}

// parseFinite parses a decimal number, rejecting NaN and infinities
func parseFinite(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}
