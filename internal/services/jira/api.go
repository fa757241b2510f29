package jira

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ternarybob/mailticket/internal/interfaces"
	"github.com/ternarybob/mailticket/internal/models"
)

var _ interfaces.JiraClient = (*Client)(nil)

const (
	pathMyself     = "/rest/api/3/myself"
	pathFields     = "/rest/api/3/field"
	pathCreateMeta = "/rest/api/3/issue/createmeta"
	pathIssue      = "/rest/api/2/issue/"
)

// Myself returns the authenticated user; used as the connection test.
func (c *Client) Myself(ctx context.Context) (*models.JiraUser, error) {
	var user models.JiraUser
	if err := c.do(ctx, OpMyself, http.MethodGet, pathMyself, nil, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Fields lists every field of the site.
func (c *Client) Fields(ctx context.Context) ([]models.JiraField, error) {
	var out []models.JiraField
	if err := c.do(ctx, OpFields, http.MethodGet, pathFields, nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateMeta returns create-screen metadata with field details. Without a project key
// the first project is returned.
func (c *Client) CreateMeta(ctx context.Context, projectKey string) (*models.CreateMetaResponse, error) {
	params := url.Values{}
	params.Set("expand", "projects.issuetypes.fields")
	if key := strings.TrimSpace(projectKey); key != "" {
		params.Set("projectKeys", key)
	} else {
		params.Set("maxResults", "1")
	}

	var meta models.CreateMetaResponse
	if err := c.do(ctx, OpCreateMeta, http.MethodGet, pathCreateMeta, params, nil, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// CreateIssue posts the payload and returns the new issue with its browse URL.
func (c *Client) CreateIssue(ctx context.Context, payload *models.TicketPayload) (*models.CreatedIssue, error) {
	if payload == nil {
		return nil, fmt.Errorf("payload is required")
	}

	var issue models.CreatedIssue
	if err := c.do(ctx, OpCreateIssue, http.MethodPost, pathIssue, nil, payload, &issue); err != nil {
		return nil, err
	}
	issue.URL = c.BrowseURL(issue.Key)

	if c.logger != nil {
		c.logger.Info().Str("key", issue.Key).Msg("Jira issue created")
	}
	return &issue, nil
}
