package models

import "testing"

func TestSlugify(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercase", "jane", "jane"},
		{"uppercase", "Jane Doe", "jane-doe"},
		{"underscores", "mary_ann_lee", "mary-ann-lee"},
		{"special chars stripped", "O'Brien, Pat!", "obrien-pat"},
		{"numbers preserved", "speaker-v2.1", "speaker-v21"},
		{"consecutive spaces", "jane   doe", "jane---doe"},
		{"unicode stripped", "José Gómez", "jos-gmez"},
		{"empty string", "", ""},
		{"only special chars", "!@#$%", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Slugify(tt.in)
			if got != tt.want {
				t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestIDString(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{float64(7), "7"},
		{float64(1234567890), "1234567890"},
		{"abc", "abc"},
		{int64(42), "42"},
	}
	for _, tt := range tests {
		if got := idString(tt.in); got != tt.want {
			t.Errorf("idString(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
