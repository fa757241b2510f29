package interfaces

import (
	"context"

	"github.com/ternarybob/mailticket/internal/models"
)

// JiraClient is the subset of the tracker REST API the application uses
type JiraClient interface {
	Myself(ctx context.Context) (*models.JiraUser, error)
	CreateIssue(ctx context.Context, payload *models.TicketPayload) (*models.CreatedIssue, error)
	Fields(ctx context.Context) ([]models.JiraField, error)
	CreateMeta(ctx context.Context, projectKey string) (*models.CreateMetaResponse, error)
	BaseURL() string
}
