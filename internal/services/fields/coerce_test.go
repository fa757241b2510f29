package fields

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/mailticket/internal/models"
)

func widget(kind WidgetKind) Widget {
	return Widget{Kind: kind}
}

func TestCoerce_BooleanField(t *testing.T) {
	w := InferWidget(models.FieldDescriptor{SchemaType: "boolean"})

	assert.Equal(t, true, Coerce("true", w))
	assert.Equal(t, false, Coerce("false", w))
}

func TestCoerce_AllowedValueIDStaysString(t *testing.T) {
	w := InferWidget(models.FieldDescriptor{AllowedValues: []models.AllowedValue{{ID: "1", Name: "High"}}})

	assert.Equal(t, "1", Coerce("1", w))
}

func TestCoerce_SelectSingle(t *testing.T) {
	w := widget(WidgetSelectSingle)

	assert.Equal(t, 42.0, Coerce("42", w))
	assert.Equal(t, -1.5, Coerce(" -1.5 ", w))
	assert.Equal(t, map[string]any{"id": "10001"}, Coerce(`{"id":"10001"}`, w))
	assert.Equal(t, "{not json}", Coerce("{not json}", w))
	assert.Equal(t, "High", Coerce("High", w))
	assert.Equal(t, "NaN", Coerce("NaN", w))
	assert.Equal(t, "Inf", Coerce("Inf", w))
}

func TestCoerce_MultiValueText(t *testing.T) {
	w := widget(WidgetMultiValueText)

	assert.Equal(t, []float64{1, 2, 3}, Coerce("1, 2, 3", w))
	assert.Equal(t, []string{"a", "b"}, Coerce("a, b", w))
	assert.Equal(t, []string{"1", "b"}, Coerce("1,b", w))
	assert.Equal(t, []string{"solo"}, Coerce("solo", w))
	assert.Equal(t, []string{"a", "b"}, Coerce("a,, b,", w))
	assert.Equal(t, []string{}, Coerce(" , ", w))
}

func TestCoerce_Number(t *testing.T) {
	w := widget(WidgetNumber)

	assert.Equal(t, 3.25, Coerce("3.25", w))
	assert.Equal(t, "abc", Coerce("abc", w))
	assert.Equal(t, "NaN", Coerce("NaN", w))
}

func TestCoerce_DateTime(t *testing.T) {
	w := widget(WidgetDateTime)

	assert.Equal(t, "2025-03-03T09:14:00.000Z", Coerce("2025-03-03T09:14:00Z", w))
	assert.Equal(t, "2025-03-03T07:14:00.000Z", Coerce("2025-03-03T09:14:00+02:00", w))

	local := time.Date(2025, 3, 3, 9, 14, 0, 0, time.Local)
	assert.Equal(t, local.UTC().Format(isoMillis), Coerce("2025-03-03T09:14", w))
	assert.Equal(t, "next tuesday", Coerce("next tuesday", w))
}

func TestCoerce_PassThroughKinds(t *testing.T) {
	for _, kind := range []WidgetKind{WidgetText, WidgetTextarea, WidgetDate, WidgetURL, WidgetUserPicker} {
		assert.Equal(t, "2025-03-03", Coerce(" 2025-03-03 ", widget(kind)), kind)
		assert.Equal(t, "42", Coerce("42", widget(kind)), kind)
	}
}

func TestCoerce_NeverPanics(t *testing.T) {
	inputs := []string{"", " ", "{", "}", "{}", "[1,2]", ",", "true", "1e400", "-0", "∞", "\x00"}
	kinds := []WidgetKind{WidgetText, WidgetTextarea, WidgetNumber, WidgetDate, WidgetDateTime, WidgetURL, WidgetSelectSingle, WidgetUserPicker, WidgetMultiValueText}

	for _, in := range inputs {
		for _, kind := range kinds {
			assert.NotPanics(t, func() { Coerce(in, widget(kind)) })
		}
	}
}

func TestCoerce_RoundTrip(t *testing.T) {
	cases := []struct {
		raw string
		w   Widget
	}{
		{`{"id":"10001","nested":{"a":1}}`, widget(WidgetSelectSingle)},
		{"12.5", widget(WidgetSelectSingle)},
		{"true", widget(WidgetSelectSingle)},
		{"7", widget(WidgetNumber)},
	}
	for _, c := range cases {
		first := Coerce(c.raw, c.w)
		encoded, err := json.Marshal(first)
		require.NoError(t, err)
		assert.Equal(t, first, Coerce(string(encoded), c.w), c.raw)
	}
}
