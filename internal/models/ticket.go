package models

// TicketRequest is a ticket draft as submitted by the form (or the CLI).
// CustomFields maps a field id to its raw text; coercion happens when the payload is built.
type TicketRequest struct {
	ProjectKey   string            `json:"projectKey" yaml:"projectKey"`
	IssueType    string            `json:"issueType" yaml:"issueType"`
	Summary      string            `json:"summary" yaml:"summary"`
	Description  string            `json:"description" yaml:"description"`
	CustomFields map[string]string `json:"customFields,omitempty" yaml:"customFields,omitempty"`
}

// TicketPayload is the issue-creation request body: {"fields": {...}}
type TicketPayload struct {
	Fields map[string]any `json:"fields"`
}

// CreatedIssue is the tracker's answer to a successful issue creation
type CreatedIssue struct {
	ID   string `json:"id" yaml:"id"`
	Key  string `json:"key" yaml:"key"`
	Self string `json:"self,omitempty" yaml:"self,omitempty"`
	URL  string `json:"url" yaml:"url"`
}
