package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateIdentifier(t *testing.T) {
	tests := []struct {
		name       string
		identifier string
		valid      bool
		code       string
	}{
		{"slug", "jane-doe", true, ""},
		{"single character", "j", true, ""},
		{"custom domain", "cards.example.com", true, ""},
		{"underscore slug", "maria_silva2024", true, ""},
		{"empty", "", false, "STRING_GTE"},
		{"path traversal", "../etc/passwd", false, "PATTERN"},
		{"leading dash", "-jane", false, "PATTERN"},
		{"whitespace", "jane doe", false, "PATTERN"},
		{"query injection", "jane?x=1", false, "PATTERN"},
		{"too long", strings.Repeat("a", MaxIdentifierLength+1), false, "STRING_LTE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateIdentifier(tt.identifier)
			assert.Equal(t, tt.valid, result.Valid, result.Summary())
			if !tt.valid {
				assert.NotEmpty(t, result.Errors)
				assert.Equal(t, "identifier", result.Errors[0].Field)
				assert.Equal(t, tt.code, result.Errors[0].Code)
			}
		})
	}
}

func TestNormalizeIdentifier(t *testing.T) {
	assert.Equal(t, "cards.example.com", NormalizeIdentifier("  cards.example.com. "))
	assert.Equal(t, "jane-doe", NormalizeIdentifier("jane-doe"))
}
