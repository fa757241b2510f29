package models

import (
	"encoding/json"
	"time"
)

// AllowedValue is one permitted value of a tracker field. The tracker uses
// different keys depending on the field, so every variant is kept.
type AllowedValue struct {
	ID          string `json:"id,omitempty"`
	Value       string `json:"value,omitempty"`
	Key         string `json:"key,omitempty"`
	Name        string `json:"name,omitempty"`
	Label       string `json:"label,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
}

// FieldDescriptor is a tracker field the user has chosen to expose on the ticket form.
// Value holds the raw text form (never a coerced value).
type FieldDescriptor struct {
	ID            string         `json:"id" badgerhold:"key"`
	Name          string         `json:"name"`
	SchemaType    string         `json:"schemaType,omitempty"`
	CustomSubtype string         `json:"customSubtype,omitempty"`
	AllowedValues []AllowedValue `json:"allowedValues"`
	Value         string         `json:"value"`
	Required      bool           `json:"required,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

// DiscoveredField is a tracker field merged with create metadata, as shown by the field explorer
type DiscoveredField struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Custom        bool            `json:"custom"`
	SchemaType    string          `json:"schemaType,omitempty"`
	CustomSubtype string          `json:"customSubtype,omitempty"`
	Items         string          `json:"items,omitempty"`
	Required      bool            `json:"required"`
	AllowedValues []AllowedValue  `json:"allowedValues,omitempty"`
	DefaultValue  json.RawMessage `json:"defaultValue,omitempty"`
}

// FieldCacheEntry is a timestamped snapshot of discovered fields for one tracker account
type FieldCacheEntry struct {
	Key      string            `json:"key" badgerhold:"key"`
	Fields   []DiscoveredField `json:"fields"`
	CachedAt time.Time         `json:"cachedAt"`
}
