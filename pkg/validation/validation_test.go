package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateEntityID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr string
	}{
		{"valid simple", "course-123", ""},
		{"valid uuid", "8f14e45f-ceea-4e5b-aab4-9292c4b5cfd8", ""},
		{"valid underscores", "entity_ID_9", ""},
		{"empty", "", "empty"},
		{"too long", strings.Repeat("a", 51), "exceeds 50"},
		{"max length ok", strings.Repeat("a", 50), ""},
		{"contains undefined", "abc-undefined-xyz", "placeholder"},
		{"contains null", "null-42", "placeholder"},
		{"uppercase placeholder", "ABC-Undefined", "placeholder"},
		{"disallowed space", "has space", "disallowed"},
		{"disallowed slash", "a/b", "disallowed"},
		{"disallowed unicode", "käse", "disallowed"},
		{"corrupted numeric prefix", "1234567890abc", "corrupted"},
		{"corrupted all digits", "12345678901234", "corrupted"},
		{"nine digits ok", "123456789", ""},
		{"digits then dash ok", "1234567890-x", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEntityID(tt.id)
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "a_b.pdf", SanitizeFilename("a/b.pdf"))
	assert.Equal(t, "report.pdf", SanitizeFilename("  report.pdf "))
	assert.Equal(t, "x_y", SanitizeFilename(`x\y`))
	assert.Equal(t, "q.png", SanitizeFilename("\"q\".png"))
}
