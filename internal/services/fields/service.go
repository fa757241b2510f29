package fields

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/mailticket/internal/interfaces"
	"github.com/ternarybob/mailticket/internal/models"
)

// ConfiguredField is a stored FieldDescriptor together with the widget that renders it
type ConfiguredField struct {
	models.FieldDescriptor
	Widget Widget `json:"widget"`
}

// DiscoveryResult is the field explorer listing
type DiscoveryResult struct {
	Fields    []models.DiscoveredField `json:"fields"`
	FromCache bool                     `json:"fromCache"`
	CachedAt  time.Time                `json:"cachedAt"`
}

// Service manages configured custom fields and discovers tracker field metadata
type Service struct {
	client         interfaces.JiraClient
	storage        interfaces.FieldStorage
	cache          interfaces.FieldCacheStorage
	email          string
	defaultProject string
	ttl            time.Duration
	logger         arbor.ILogger
	now            func() time.Time
}

// NewService creates a field service. email and defaultProject come from the [jira] config.
func NewService(
	client interfaces.JiraClient,
	storage interfaces.FieldStorage,
	cache interfaces.FieldCacheStorage,
	email string,
	defaultProject string,
	ttl time.Duration,
	logger arbor.ILogger,
) *Service {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Service{
		client:         client,
		storage:        storage,
		cache:          cache,
		email:          email,
		defaultProject: defaultProject,
		ttl:            ttl,
		logger:         logger,
		now:            time.Now,
	}
}

// CacheKey identifies the discovery cache entry of one tracker account
func CacheKey(baseURL, email string) string {
	return fmt.Sprintf("fieldCache_%s_%s", baseURL, email)
}

// Discover lists every tracker field enriched with create metadata. A cached listing
// younger than the TTL is reused unless refresh is set, which drops the cache first.
func (s *Service) Discover(ctx context.Context, refresh bool) (*DiscoveryResult, error) {
	key := CacheKey(s.client.BaseURL(), s.email)

	if refresh {
		if err := s.cache.Delete(ctx, key); err != nil && !errors.Is(err, interfaces.ErrCacheMiss) {
			s.logger.Warn().Err(err).Str("key", key).Msg("Failed to drop field cache")
		}
	} else if entry, err := s.cache.Get(ctx, key); err == nil {
		if age := s.now().Sub(entry.CachedAt); age < s.ttl {
			s.logger.Debug().Str("key", key).Dur("age", age).Msg("Using cached field data")
			return &DiscoveryResult{Fields: entry.Fields, FromCache: true, CachedAt: entry.CachedAt}, nil
		}
	} else if !errors.Is(err, interfaces.ErrCacheMiss) {
		s.logger.Warn().Err(err).Str("key", key).Msg("Failed to read field cache")
	}

	jiraFields, err := s.client.Fields(ctx)
	if err != nil {
		return nil, err
	}

	meta, err := s.client.CreateMeta(ctx, s.defaultProject)
	if err != nil {
		return nil, err
	}

	merged := Merge(jiraFields, meta)
	entry := &models.FieldCacheEntry{Key: key, Fields: merged, CachedAt: s.now()}
	if err := s.cache.Put(ctx, entry); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("Failed to cache field data")
	}

	s.logger.Info().Int("fields", len(merged)).Msg("Discovered tracker fields")
	return &DiscoveryResult{Fields: merged, CachedAt: entry.CachedAt}, nil
}

// Merge folds allowed values, default value and required flag from the first project's
// first issue type into the field list
func Merge(jiraFields []models.JiraField, meta *models.CreateMetaResponse) []models.DiscoveredField {
	var metaFields map[string]models.CreateMetaField
	if meta != nil && len(meta.Projects) > 0 && len(meta.Projects[0].IssueTypes) > 0 {
		metaFields = meta.Projects[0].IssueTypes[0].Fields
	}

	out := make([]models.DiscoveredField, 0, len(jiraFields))
	for _, f := range jiraFields {
		df := models.DiscoveredField{
			ID:     f.ID,
			Name:   f.Name,
			Custom: f.Custom,
		}
		if f.Schema != nil {
			df.SchemaType = f.Schema.Type
			df.CustomSubtype = f.Schema.Custom
			df.Items = f.Schema.Items
		}
		if m, ok := metaFields[f.ID]; ok {
			if len(m.AllowedValues) > 0 {
				df.AllowedValues = m.AllowedValues
			}
			if len(m.DefaultValue) > 0 && string(m.DefaultValue) != "null" {
				df.DefaultValue = m.DefaultValue
			}
			df.Required = m.Required
		}
		out = append(out, df)
	}
	return out
}

// Search filters fields by a case-insensitive substring of id, name or schema type
// and lists custom fields before standard ones
func Search(all []models.DiscoveredField, term string) []models.DiscoveredField {
	term = strings.ToLower(strings.TrimSpace(term))

	var out []models.DiscoveredField
	for _, f := range all {
		if term == "" ||
			strings.Contains(strings.ToLower(f.ID), term) ||
			strings.Contains(strings.ToLower(f.Name), term) ||
			(f.SchemaType != "" && strings.Contains(strings.ToLower(f.SchemaType), term)) {
			out = append(out, f)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Custom && !out[j].Custom
	})
	return out
}

// List returns the configured fields with their widgets
func (s *Service) List(ctx context.Context) ([]ConfiguredField, error) {
	descriptors, err := s.storage.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]ConfiguredField, 0, len(descriptors))
	for _, d := range descriptors {
		out = append(out, ConfiguredField{FieldDescriptor: d, Widget: InferWidget(d)})
	}
	return out, nil
}

// Get returns one configured field
func (s *Service) Get(ctx context.Context, id string) (*ConfiguredField, error) {
	d, err := s.storage.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &ConfiguredField{FieldDescriptor: *d, Widget: InferWidget(*d)}, nil
}

// Add configures a discovered field. Adding an id that is already configured changes nothing
// and reports false.
func (s *Service) Add(ctx context.Context, field models.DiscoveredField) (*models.FieldDescriptor, bool, error) {
	if strings.TrimSpace(field.ID) == "" {
		return nil, false, fmt.Errorf("field id is required")
	}

	if existing, err := s.storage.GetByID(ctx, field.ID); err == nil {
		s.logger.Debug().Str("field_id", field.ID).Msg("Field already configured")
		return existing, false, nil
	} else if !errors.Is(err, interfaces.ErrFieldNotFound) {
		return nil, false, err
	}

	d := DescriptorFrom(field)
	if err := s.storage.Upsert(ctx, &d); err != nil {
		return nil, false, err
	}

	s.logger.Info().Str("field_id", d.ID).Str("name", d.Name).Msg("Custom field added")
	return &d, true, nil
}

// Save creates or replaces a configured field (manual entry or edit)
func (s *Service) Save(ctx context.Context, d *models.FieldDescriptor) error {
	if strings.TrimSpace(d.ID) == "" {
		return fmt.Errorf("field id is required")
	}
	d.ID = strings.TrimSpace(d.ID)
	if d.AllowedValues == nil {
		d.AllowedValues = []models.AllowedValue{}
	}
	return s.storage.Upsert(ctx, d)
}

// Remove deletes a configured field
func (s *Service) Remove(ctx context.Context, id string) error {
	if err := s.storage.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Str("field_id", id).Msg("Custom field removed")
	return nil
}

// Lookup returns a discovered field by id from the current listing
func (s *Service) Lookup(ctx context.Context, id string) (*models.DiscoveredField, error) {
	result, err := s.Discover(ctx, false)
	if err != nil {
		return nil, err
	}
	for _, f := range result.Fields {
		if f.ID == id {
			return &f, nil
		}
	}
	return nil, interfaces.ErrFieldNotFound
}

// DescriptorFrom builds the stored form of a discovered field. A name mentioning a
// date makes the field a date field unless it already carries a date or datetime type.
func DescriptorFrom(field models.DiscoveredField) models.FieldDescriptor {
	d := models.FieldDescriptor{
		ID:            field.ID,
		Name:          field.Name,
		SchemaType:    field.SchemaType,
		CustomSubtype: field.CustomSubtype,
		AllowedValues: field.AllowedValues,
		Required:      field.Required,
	}
	if d.AllowedValues == nil {
		d.AllowedValues = []models.AllowedValue{}
	}

	if strings.Contains(strings.ToLower(field.Name), "date") &&
		d.SchemaType != "date" && d.SchemaType != "datetime" {
		d.SchemaType = "date"
	}

	return d
}
