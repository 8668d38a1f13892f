// Package models defines the data structures shared by the speaker directory
// client: speaker profiles, search queries and the account record.
package models

import (
	"fmt"
	"strings"
)

// Slugify lowercases s, turns spaces and underscores into dashes and drops
// everything that is not an ASCII letter, digit or dash.
func Slugify(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		case r == ' ', r == '_':
			b.WriteByte('-')
		}
	}
	return b.String()
}

// idString renders a JSON-decoded identifier (float64, json.Number, string)
// without exponent formatting.
func idString(v any) string {
	switch id := v.(type) {
	case nil:
		return ""
	case float64:
		return fmt.Sprintf("%.0f", id)
	case string:
		return id
	default:
		return fmt.Sprint(id)
	}
}
