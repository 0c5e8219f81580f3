package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Ref points at a directory entity. The directory sends either the bare id
// string or the populated document, so both decode into Ref.
type Ref struct {
	ID      string `json:"_id,omitempty"`
	Name    string `json:"name,omitempty"`
	Section string `json:"section,omitempty"`
}

// UnmarshalJSON accepts "id", {"_id": "..."} and {"id": "..."} forms.
func (r *Ref) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*r = Ref{}
		return nil
	}
	if data[0] == '"' {
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		*r = Ref{ID: id}
		return nil
	}
	var doc struct {
		MongoID string `json:"_id"`
		ID      string `json:"id"`
		Name    string `json:"name"`
		Section string `json:"section"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("decode reference: %w", err)
	}
	r.ID = doc.MongoID
	if r.ID == "" {
		r.ID = doc.ID
	}
	r.Name = doc.Name
	r.Section = doc.Section
	return nil
}

// Label renders "name - section" the way class pickers show it.
func (r *Ref) Label() string {
	if r == nil {
		return ""
	}
	switch {
	case r.Name != "" && r.Section != "":
		return r.Name + " - " + r.Section
	case r.Name != "":
		return r.Name
	default:
		return r.ID
	}
}

// Class is a read-only reference entity used to populate forms.
type Class struct {
	ID      string `json:"_id"`
	Name    string `json:"name"`
	Section string `json:"section"`
}

// Ref converts the class into a reference.
func (c Class) Ref() Ref {
	return Ref{ID: c.ID, Name: c.Name, Section: c.Section}
}

// Vaccine is a read-only reference entity.
type Vaccine struct {
	ID          string `json:"_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// Timestamp decodes the assorted date formats the directory and the console forms produce.
type Timestamp struct {
	time.Time
}

// ParseTimestamp parses raw using the accepted layouts.
func ParseTimestamp(raw string) (Timestamp, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return Timestamp{Time: t}, nil
		}
	}
	return Timestamp{}, fmt.Errorf("unrecognised timestamp %q", raw)
}

// NewTimestamp wraps t.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*t = Timestamp{}
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode timestamp: %w", err)
	}
	if raw == "" {
		*t = Timestamp{}
		return nil
	}
	parsed, err := ParseTimestamp(raw)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// MarshalJSON implements json.Marshaler. Zero values encode as null.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339))
}
