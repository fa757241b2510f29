package ticket

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/mailticket/internal/common"
	"github.com/ternarybob/mailticket/internal/interfaces"
	"github.com/ternarybob/mailticket/internal/models"
	"github.com/ternarybob/mailticket/internal/services/fields"
)

// LastProjectKey is the settings key of the project used by the last successful submission
const LastProjectKey = "projectKey"

// ErrBusy is returned while another submission is in flight
var ErrBusy = errors.New("a ticket is already being created")

// Settings are the [jira] and [ticket] values the service needs
type Settings struct {
	DefaultProject      string
	DefaultIssueType    string
	DescriptionTemplate string
}

// Service drafts tickets from extracted emails and submits them to the tracker
type Service struct {
	client   interfaces.JiraClient
	fields   interfaces.FieldStorage
	kv       interfaces.KeyValueStorage
	settings Settings
	logger   arbor.ILogger
	inFlight atomic.Bool
}

func NewService(client interfaces.JiraClient, fieldStorage interfaces.FieldStorage, kv interfaces.KeyValueStorage, settings Settings, logger arbor.ILogger) *Service {
	if strings.TrimSpace(settings.DefaultIssueType) == "" {
		settings.DefaultIssueType = "Task"
	}
	return &Service{
		client:   client,
		fields:   fieldStorage,
		kv:       kv,
		settings: settings,
		logger:   logger,
	}
}

// Draft pre-fills a ticket from an extracted email. Custom fields start with their stored values.
func (s *Service) Draft(ctx context.Context, email models.ExtractedEmail) (*models.TicketRequest, error) {
	req := &models.TicketRequest{
		ProjectKey:   s.projectKey(ctx),
		IssueType:    s.settings.DefaultIssueType,
		Summary:      email.Subject,
		Description:  common.FormatDescription(s.settings.DescriptionTemplate, email, s.logger),
		CustomFields: map[string]string{},
	}

	configured, err := s.fields.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	for _, f := range configured {
		req.CustomFields[f.ID] = f.Value
	}

	return req, nil
}

func (s *Service) projectKey(ctx context.Context) string {
	if s.kv != nil {
		if key, err := s.kv.Get(ctx, LastProjectKey); err == nil && key != "" {
			return key
		} else if err != nil && !errors.Is(err, interfaces.ErrKeyNotFound) {
			s.logger.Warn().Err(err).Msg("Failed to read last used project")
		}
	}
	return s.settings.DefaultProject
}

// Submit builds the payload and creates the issue. Only one submission runs at a time;
// a concurrent call fails with ErrBusy.
func (s *Service) Submit(ctx context.Context, req models.TicketRequest) (*models.CreatedIssue, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer s.inFlight.Store(false)

	if strings.TrimSpace(req.IssueType) == "" {
		req.IssueType = s.settings.DefaultIssueType
	}

	custom, err := s.customInputs(ctx, req.CustomFields)
	if err != nil {
		return nil, err
	}

	payload, err := Build(StandardFields{
		ProjectKey:  req.ProjectKey,
		IssueType:   req.IssueType,
		Summary:     req.Summary,
		Description: req.Description,
	}, custom)
	if err != nil {
		return nil, err
	}

	issue, err := s.client.CreateIssue(ctx, payload)
	if err != nil {
		s.logger.Error().Err(err).Str("project", req.ProjectKey).Msg("Failed to create ticket")
		return nil, err
	}

	if s.kv != nil {
		projectKey := strings.TrimSpace(req.ProjectKey)
		if err := s.kv.Set(ctx, LastProjectKey, projectKey, "Project of the last created ticket"); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to remember project key")
		}
	}

	s.logger.Info().Str("key", issue.Key).Str("url", issue.URL).Msg("Ticket created")
	return issue, nil
}

// Busy reports whether a submission is in flight
func (s *Service) Busy() bool {
	return s.inFlight.Load()
}

// customInputs pairs raw values with the widget of their configured field.
// Configured fields missing from raw fall back to their stored value; unknown ids are sent as text.
func (s *Service) customInputs(ctx context.Context, raw map[string]string) ([]CustomFieldInput, error) {
	configured, err := s.fields.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(configured))
	inputs := make([]CustomFieldInput, 0, len(configured)+len(raw))
	for _, f := range configured {
		seen[f.ID] = true
		value, ok := raw[f.ID]
		if !ok {
			value = f.Value
		}
		inputs = append(inputs, CustomFieldInput{ID: f.ID, RawValue: value, Widget: fields.InferWidget(f)})
	}

	for id, value := range raw {
		if seen[id] {
			continue
		}
		inputs = append(inputs, CustomFieldInput{ID: id, RawValue: value, Widget: fields.Widget{Kind: fields.WidgetText}})
	}

	return inputs, nil
}
