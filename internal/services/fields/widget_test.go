package fields

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/mailticket/internal/models"
)

func TestInferWidget_DecisionOrder(t *testing.T) {
	tests := []struct {
		name  string
		field models.FieldDescriptor
		want  WidgetKind
	}{
		{"allowed values win", models.FieldDescriptor{SchemaType: "number", CustomSubtype: "x:textarea", AllowedValues: []models.AllowedValue{{ID: "1"}}}, WidgetSelectSingle},
		{"multiselect subtype", models.FieldDescriptor{SchemaType: "array", CustomSubtype: "com.atlassian.jira.plugin.system.customfieldtypes:multiselect"}, WidgetMultiValueText},
		{"labels subtype", models.FieldDescriptor{CustomSubtype: "com.atlassian.jira.plugin.system.customfieldtypes:labels"}, WidgetMultiValueText},
		{"checkboxes subtype", models.FieldDescriptor{CustomSubtype: "customfieldtypes:multicheckboxes"}, WidgetMultiValueText},
		{"userpicker subtype", models.FieldDescriptor{SchemaType: "user", CustomSubtype: "customfieldtypes:userpicker"}, WidgetUserPicker},
		{"userlist subtype", models.FieldDescriptor{CustomSubtype: "customfieldtypes:multiuserlist"}, WidgetUserPicker},
		{"textarea subtype", models.FieldDescriptor{SchemaType: "string", CustomSubtype: "customfieldtypes:textarea"}, WidgetTextarea},
		{"url subtype", models.FieldDescriptor{SchemaType: "string", CustomSubtype: "customfieldtypes:url"}, WidgetURL},
		{"datepicker subtype", models.FieldDescriptor{SchemaType: "date", CustomSubtype: "customfieldtypes:datepicker"}, WidgetDate},
		{"unknown subtype falls through to schema", models.FieldDescriptor{SchemaType: "number", CustomSubtype: "customfieldtypes:float"}, WidgetNumber},
		{"date schema", models.FieldDescriptor{SchemaType: "date"}, WidgetDate},
		{"datetime schema", models.FieldDescriptor{SchemaType: "datetime"}, WidgetDateTime},
		{"number schema", models.FieldDescriptor{SchemaType: "number"}, WidgetNumber},
		{"boolean schema", models.FieldDescriptor{SchemaType: "boolean"}, WidgetSelectSingle},
		{"user schema", models.FieldDescriptor{SchemaType: "user"}, WidgetUserPicker},
		{"array schema", models.FieldDescriptor{SchemaType: "array"}, WidgetMultiValueText},
		{"string schema", models.FieldDescriptor{SchemaType: "string"}, WidgetText},
		{"nothing set", models.FieldDescriptor{ID: "customfield_1"}, WidgetText},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InferWidget(tt.field).Kind)
		})
	}
}

func TestInferWidget_OptionsFromAllowedValues(t *testing.T) {
	field := models.FieldDescriptor{AllowedValues: []models.AllowedValue{
		{ID: "1", Name: "High"},
		{Value: "blue", Label: "Blue"},
		{Key: "K", DisplayName: "Key Only"},
		{Value: "plain"},
	}}

	w := InferWidget(field)
	require.Len(t, w.Options, 4)
	assert.Equal(t, Option{Value: "1", Label: "High"}, w.Options[0])
	assert.Equal(t, Option{Value: "blue", Label: "Blue"}, w.Options[1])
	assert.Equal(t, Option{Value: "K", Label: "Key Only"}, w.Options[2])
	assert.Equal(t, Option{Value: "plain", Label: "plain"}, w.Options[3])
}

func TestInferWidget_BooleanOptions(t *testing.T) {
	w := InferWidget(models.FieldDescriptor{SchemaType: "boolean"})

	assert.Equal(t, []Option{{Value: "true", Label: "Yes"}, {Value: "false", Label: "No"}}, w.Options)
}

func TestInferWidget_Deterministic(t *testing.T) {
	field := models.FieldDescriptor{SchemaType: "array", CustomSubtype: "labels", AllowedValues: []models.AllowedValue{{ID: "a", Name: "A"}}}

	first := InferWidget(field)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, InferWidget(field))
	}
}

func TestPlaceholder(t *testing.T) {
	tests := []struct {
		field models.FieldDescriptor
		want  string
	}{
		{models.FieldDescriptor{}, "Field Value"},
		{models.FieldDescriptor{CustomSubtype: "gh-sprint"}, "Sprint ID or name"},
		{models.FieldDescriptor{CustomSubtype: "customfieldtypes:multiversion"}, "Version IDs (comma separated)"},
		{models.FieldDescriptor{CustomSubtype: "customfieldtypes:labels"}, "Values (comma separated)"},
		{models.FieldDescriptor{CustomSubtype: "customfieldtypes:userpicker"}, "Username or account ID"},
		{models.FieldDescriptor{CustomSubtype: "customfieldtypes:url"}, "https://example.com"},
		{models.FieldDescriptor{SchemaType: "date"}, "YYYY-MM-DD"},
		{models.FieldDescriptor{SchemaType: "datetime"}, "YYYY-MM-DD HH:MM"},
		{models.FieldDescriptor{SchemaType: "number"}, "0.00"},
		{models.FieldDescriptor{SchemaType: "string", Name: "Team"}, "Team value"},
		{models.FieldDescriptor{SchemaType: "option", AllowedValues: []models.AllowedValue{{ID: "1"}}}, "Select a value"},
		{models.FieldDescriptor{SchemaType: "priority"}, "Priority name"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Placeholder(tt.field))
	}
}
