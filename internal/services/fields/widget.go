package fields

import (
	"strings"

	"github.com/ternarybob/mailticket/internal/models"
)

// WidgetKind is the input control rendered for a custom field
type WidgetKind string

const (
	WidgetText           WidgetKind = "text"
	WidgetTextarea       WidgetKind = "textarea"
	WidgetNumber         WidgetKind = "number"
	WidgetDate           WidgetKind = "date"
	WidgetDateTime       WidgetKind = "datetime"
	WidgetURL            WidgetKind = "url"
	WidgetSelectSingle   WidgetKind = "select-single"
	WidgetUserPicker     WidgetKind = "user-picker"
	WidgetMultiValueText WidgetKind = "multi-value-text"
)

// Option is one choice of a select-single widget
type Option struct {
	Value string `json:"value" yaml:"value"`
	Label string `json:"label" yaml:"label"`
}

// Widget is the rendered form of a field: its kind, the choices for selects and placeholder text
type Widget struct {
	Kind        WidgetKind `json:"kind" yaml:"kind"`
	Options     []Option   `json:"options,omitempty" yaml:"options,omitempty"`
	Placeholder string     `json:"placeholder" yaml:"placeholder"`
}

// HasOption reports whether value is the machine value of one of the widget's options
func (w Widget) HasOption(value string) bool {
	for _, o := range w.Options {
		if o.Value == value {
			return true
		}
	}
	return false
}

var booleanOptions = []Option{
	{Value: "true", Label: "Yes"},
	{Value: "false", Label: "No"},
}

// subtypeRules map custom-subtype substrings to widgets, checked in order
var subtypeRules = []struct {
	patterns []string
	kind     WidgetKind
}{
	{[]string{"multiselect", "labels", "checkboxes"}, WidgetMultiValueText},
	{[]string{"userpicker", "userlist"}, WidgetUserPicker},
	{[]string{"textarea"}, WidgetTextarea},
	{[]string{"url"}, WidgetURL},
	{[]string{"date"}, WidgetDate},
}

// InferWidget decides which widget renders a field. It depends only on the descriptor.
func InferWidget(field models.FieldDescriptor) Widget {
	w := Widget{Kind: inferKind(field)}

	switch {
	case len(field.AllowedValues) > 0:
		w.Options = optionsFrom(field.AllowedValues)
	case w.Kind == WidgetSelectSingle:
		w.Options = append([]Option(nil), booleanOptions...)
	}

	w.Placeholder = Placeholder(field)
	return w
}

func inferKind(field models.FieldDescriptor) WidgetKind {
	if len(field.AllowedValues) > 0 {
		return WidgetSelectSingle
	}

	if subtype := strings.ToLower(field.CustomSubtype); subtype != "" {
		for _, rule := range subtypeRules {
			for _, p := range rule.patterns {
				if strings.Contains(subtype, p) {
					return rule.kind
				}
			}
		}
	}

	switch strings.ToLower(field.SchemaType) {
	case "date":
		return WidgetDate
	case "datetime":
		return WidgetDateTime
	case "number":
		return WidgetNumber
	case "boolean":
		return WidgetSelectSingle
	case "user":
		return WidgetUserPicker
	case "array":
		return WidgetMultiValueText
	default:
		return WidgetText
	}
}

func optionsFrom(values []models.AllowedValue) []Option {
	options := make([]Option, 0, len(values))
	for _, v := range values {
		options = append(options, Option{
			Value: firstNonEmpty(v.ID, v.Value, v.Key),
			Label: firstNonEmpty(v.Name, v.Label, v.Value, v.DisplayName),
		})
	}
	return options
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Placeholder returns the hint text shown in an empty input for the field
func Placeholder(field models.FieldDescriptor) string {
	if field.SchemaType == "" && field.CustomSubtype == "" {
		if len(field.AllowedValues) > 0 {
			return "Select a value"
		}
		return "Field Value"
	}

	if custom := field.CustomSubtype; custom != "" {
		switch {
		case strings.Contains(custom, "sprint"):
			return "Sprint ID or name"
		case strings.Contains(custom, "epic"):
			return "Epic ID or name"
		case strings.Contains(custom, "multiversion"):
			return "Version IDs (comma separated)"
		case strings.Contains(custom, "version"):
			return "Version ID or name"
		case strings.Contains(custom, "multiselect"),
			strings.Contains(custom, "labels"),
			strings.Contains(custom, "multi-checkbox"),
			strings.Contains(custom, "multicheckboxes"):
			return "Values (comma separated)"
		case strings.Contains(custom, "userpicker"):
			return "Username or account ID"
		case strings.Contains(custom, "textarea"):
			return "Text (supports multiple lines)"
		case strings.Contains(custom, "url"):
			return "https://example.com"
		}
	}

	switch field.SchemaType {
	case "date":
		return "YYYY-MM-DD"
	case "datetime":
		return "YYYY-MM-DD HH:MM"
	case "time":
		return "HH:MM"
	case "number":
		return "0.00"
	case "integer":
		return "0"
	case "option", "array":
		if len(field.AllowedValues) > 0 {
			return "Select a value"
		}
		return "Field Value"
	case "user":
		return "Username or account ID"
	case "group":
		return "Group name"
	case "string":
		if field.Name != "" {
			return field.Name + " value"
		}
		return "Text"
	case "project":
		return "Project key"
	case "priority":
		return "Priority name"
	case "issuetype":
		return "Issue type name"
	case "resolution":
		return "Resolution name"
	case "status":
		return "Status name"
	default:
		return "Field Value"
	}
}
