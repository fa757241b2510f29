package ticket

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ternarybob/mailticket/internal/models"
	"github.com/ternarybob/mailticket/internal/services/fields"
)

// ValidationMessage is shown when a required standard field is missing
const ValidationMessage = "Project key and summary are required."

// StandardFields are the fields every ticket carries
type StandardFields struct {
	ProjectKey  string `validate:"required"`
	IssueType   string
	Summary     string `validate:"required"`
	Description string
}

// CustomFieldInput is the raw state of one configured custom field at submit time
type CustomFieldInput struct {
	ID       string
	RawValue string
	Widget   fields.Widget
}

// ValidationError reports which required standard fields were empty
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return ValidationMessage
}

var validate = validator.New()

// Build assembles the issue payload. Custom fields with a blank raw value are left out.
func Build(std StandardFields, custom []CustomFieldInput) (*models.TicketPayload, error) {
	std.ProjectKey = strings.TrimSpace(std.ProjectKey)
	std.Summary = strings.TrimSpace(std.Summary)
	std.IssueType = strings.TrimSpace(std.IssueType)

	if err := validate.Struct(std); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			missing := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				missing = append(missing, fieldName(fe.Field()))
			}
			return nil, &ValidationError{Missing: missing}
		}
		return nil, err
	}

	payload := map[string]any{
		"project":     map[string]any{"key": std.ProjectKey},
		"summary":     std.Summary,
		"description": std.Description,
		"issuetype":   map[string]any{"name": std.IssueType},
	}

	for _, cf := range custom {
		id := strings.TrimSpace(cf.ID)
		if id == "" || strings.TrimSpace(cf.RawValue) == "" {
			continue
		}
		payload[id] = fields.Coerce(cf.RawValue, cf.Widget)
	}

	return &models.TicketPayload{Fields: payload}, nil
}

func fieldName(structField string) string {
	switch structField {
	case "ProjectKey":
		return "projectKey"
	case "Summary":
		return "summary"
	default:
		return structField
	}
}
