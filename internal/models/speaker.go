package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Speaker is a public speaker profile as served by the Gateway.
// Fields the client does not interpret are kept in Extra so the record
// round-trips unchanged.
type Speaker struct {
	ID          int64  `json:"id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name,omitempty"`
	Description string `json:"description,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// speakerFields is the set of keys decoded into typed Speaker fields.
var speakerFields = map[string]bool{
	"id":          true,
	"first_name":  true,
	"last_name":   true,
	"description": true,
}

// UnmarshalJSON decodes the typed fields and keeps the rest in Extra.
func (s *Speaker) UnmarshalJSON(data []byte) error {
	type plain Speaker
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for k := range raw {
		if speakerFields[k] {
			delete(raw, k)
		}
	}
	if len(raw) > 0 {
		p.Extra = raw
	}
	*s = Speaker(p)
	return nil
}

// MarshalJSON writes the typed fields merged with Extra.
func (s Speaker) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(s.Extra)+4)
	for k, v := range s.Extra {
		out[k] = v
	}
	out["id"] = s.ID
	out["first_name"] = s.FirstName
	if s.LastName != "" {
		out["last_name"] = s.LastName
	}
	if s.Description != "" {
		out["description"] = s.Description
	}
	return json.Marshal(out)
}

// FullName joins first and last name.
func (s Speaker) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

// SpeakerNamePath returns the canonical slug of a speaker, e.g. "jane-doe-42".
// A detail view reached with any other slug is redirected to SpeakerProfilePath.
func SpeakerNamePath(s Speaker) string {
	name := Slugify(s.FullName())
	if name == "" {
		return fmt.Sprintf("%d", s.ID)
	}
	return fmt.Sprintf("%s-%d", name, s.ID)
}

// SpeakerProfilePath returns the canonical route of a speaker detail view.
func SpeakerProfilePath(s Speaker) string {
	return "/speakers/" + SpeakerNamePath(s)
}
