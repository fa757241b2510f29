package jira

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Operation names the API call an error came from; status texts differ per call.
type Operation string

const (
	OpMyself      Operation = "myself"
	OpFields      Operation = "fields"
	OpCreateMeta  Operation = "createmeta"
	OpCreateIssue Operation = "create_issue"
)

// APIError represents a non-2xx answer from the Jira API.
type APIError struct {
	Operation  Operation
	StatusCode int
	Status     string
	Message    string
	Endpoint   string
}

func newAPIError(op Operation, resp *http.Response, endpoint string, body []byte) *APIError {
	return &APIError{
		Operation:  op,
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Message:    detailMessage(body),
		Endpoint:   endpoint,
	}
}

func (e *APIError) Error() string {
	return fmt.Sprintf("jira API error: %s (status %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// UserMessage is the status line shown to the user
func (e *APIError) UserMessage() string {
	switch e.Operation {
	case OpCreateIssue:
		switch {
		case e.StatusCode == http.StatusUnauthorized:
			return "Authentication failed. Please check your Jira credentials in the Options page."
		case e.StatusCode == http.StatusForbidden:
			return "Permission denied. Your account may not have permission to create tickets in this project."
		case e.StatusCode == http.StatusNotFound:
			return "Project not found. Check if the project key is correct."
		case e.StatusCode == http.StatusBadRequest && strings.Contains(e.Message, "customfield"):
			return "Invalid custom field value. Please check the format of your custom fields."
		}
		return fmt.Sprintf("%s: %s", e.Status, e.Message)

	case OpCreateMeta:
		return fmt.Sprintf("HTTP error %d when fetching issue metadata", e.StatusCode)
	}

	switch e.StatusCode {
	case http.StatusUnauthorized:
		return "Authentication failed. Check your email and API token."
	case http.StatusForbidden:
		return "Permission denied. Your account may not have appropriate access."
	case http.StatusNotFound:
		if e.Operation == OpMyself {
			return "API endpoint not found. Check your Jira URL."
		}
	}
	return fmt.Sprintf("HTTP error %d", e.StatusCode)
}

// UserMessage returns the user-facing text of err: the mapped status line for API errors,
// otherwise the error text itself.
func UserMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.UserMessage()
	}
	return err.Error()
}
