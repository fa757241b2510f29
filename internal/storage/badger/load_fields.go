package badger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/ternarybob/mailticket/internal/interfaces"
	"github.com/ternarybob/mailticket/internal/models"
)

// FieldFile is one field entry of a seed file, keyed by field id.
// Format:
//
//	[customfield_10010]
//	name = "Severity"
//	schema_type = "option"
//	value = "2"
//	allowed_values = [{ id = "1", name = "High" }, { id = "2", name = "Low" }]
type FieldFile struct {
	Name          string             `toml:"name"`
	SchemaType    string             `toml:"schema_type"`
	CustomSubtype string             `toml:"custom_subtype"`
	Value         string             `toml:"value"`
	Required      bool               `toml:"required"`
	AllowedValues []AllowedValueFile `toml:"allowed_values"`
}

type AllowedValueFile struct {
	ID    string `toml:"id"`
	Value string `toml:"value"`
	Key   string `toml:"key"`
	Name  string `toml:"name"`
	Label string `toml:"label"`
}

// LoadFieldsFromFile configures the fields listed in a TOML seed file.
// Fields that are already configured are left untouched so edits made later survive restarts.
func (m *Manager) LoadFieldsFromFile(ctx context.Context, path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read field file %s: %w", path, err)
	}

	var entries map[string]FieldFile
	if err := toml.Unmarshal(content, &entries); err != nil {
		return fmt.Errorf("failed to parse field file %s: %w", path, err)
	}

	ids := make([]string, 0, len(entries))
	for id := range entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	fileName := filepath.Base(path)
	loaded, skipped := 0, 0
	for _, id := range ids {
		entry := entries[id]
		id = strings.TrimSpace(id)

		_, err := m.fields.GetByID(ctx, id)
		if err == nil {
			m.logger.Debug().Str("file", fileName).Str("field_id", id).Msg("Field already configured, skipping")
			skipped++
			continue
		}
		if !errors.Is(err, interfaces.ErrFieldNotFound) {
			return err
		}

		field := entry.descriptor(id)
		if err := m.fields.Upsert(ctx, &field); err != nil {
			return err
		}
		loaded++
	}

	m.logger.Info().
		Str("file", fileName).
		Int("loaded", loaded).
		Int("skipped", skipped).
		Msg("Loaded fields from file")

	return nil
}

func (f FieldFile) descriptor(id string) models.FieldDescriptor {
	name := f.Name
	if name == "" {
		name = id
	}

	allowed := make([]models.AllowedValue, 0, len(f.AllowedValues))
	for _, av := range f.AllowedValues {
		allowed = append(allowed, models.AllowedValue{
			ID:    av.ID,
			Value: av.Value,
			Key:   av.Key,
			Name:  av.Name,
			Label: av.Label,
		})
	}

	return models.FieldDescriptor{
		ID:            id,
		Name:          name,
		SchemaType:    f.SchemaType,
		CustomSubtype: f.CustomSubtype,
		AllowedValues: allowed,
		Value:         f.Value,
		Required:      f.Required,
	}
}
