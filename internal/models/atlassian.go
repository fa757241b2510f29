package models

import "encoding/json"

// JiraFieldSchema describes the type of a tracker field as reported by the REST API
type JiraFieldSchema struct {
	Type     string `json:"type,omitempty"`
	Items    string `json:"items,omitempty"`
	System   string `json:"system,omitempty"`
	Custom   string `json:"custom,omitempty"`
	CustomID int64  `json:"customId,omitempty"`
}

// JiraField is one entry of GET /rest/api/3/field
type JiraField struct {
	ID     string           `json:"id"`
	Key    string           `json:"key,omitempty"`
	Name   string           `json:"name"`
	Custom bool             `json:"custom"`
	Schema *JiraFieldSchema `json:"schema,omitempty"`
}

// CreateMetaField is the per-issue-type field metadata returned by createmeta
type CreateMetaField struct {
	Key           string           `json:"key,omitempty"`
	Name          string           `json:"name"`
	Required      bool             `json:"required"`
	Schema        *JiraFieldSchema `json:"schema,omitempty"`
	AllowedValues []AllowedValue   `json:"allowedValues,omitempty"`
	DefaultValue  json.RawMessage  `json:"defaultValue,omitempty"`
}

// CreateMetaIssueType groups the fields available when creating one issue type
type CreateMetaIssueType struct {
	ID     string                     `json:"id"`
	Name   string                     `json:"name"`
	Fields map[string]CreateMetaField `json:"fields"`
}

// CreateMetaProject represents a project in a createmeta response
type CreateMetaProject struct {
	ID         string                `json:"id"`
	Key        string                `json:"key"`
	Name       string                `json:"name"`
	IssueTypes []CreateMetaIssueType `json:"issuetypes"`
}

// CreateMetaResponse is the body of GET /rest/api/3/issue/createmeta
type CreateMetaResponse struct {
	Projects []CreateMetaProject `json:"projects"`
}

// JiraUser is the body of GET /rest/api/3/myself
type JiraUser struct {
	AccountID    string `json:"accountId"`
	DisplayName  string `json:"displayName"`
	EmailAddress string `json:"emailAddress,omitempty"`
	Active       bool   `json:"active"`
}

// JiraErrorResponse is the error envelope returned by the REST API
type JiraErrorResponse struct {
	ErrorMessages []string          `json:"errorMessages,omitempty"`
	Errors        map[string]string `json:"errors,omitempty"`
}
