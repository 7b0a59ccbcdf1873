package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInitials(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"two tokens", "Jane Doe", "JD"},
		{"single token", "cher", "C"},
		{"three tokens truncated", "Maria da Silva", "MD"},
		{"extra whitespace", "  ana \t  beatriz  ", "AB"},
		{"blank", "   ", "?"},
		{"empty", "", "?"},
		{"accented precomposed", "Élodie Ørsted", "ÉØ"},
		{"accented decomposed", "Élodie Durand", "ÉD"},
		{"non latin", "김 민준", "김민"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Initials(tt.in))
		})
	}
}

func TestJoinNonBlank(t *testing.T) {
	assert.Equal(t, "Mayor • Springfield • 2024", JoinNonBlank(Separator, "Mayor", "Springfield", "2024"))
	assert.Equal(t, "Mayor • 2024", JoinNonBlank(Separator, "Mayor", "  ", "2024"))
	assert.Equal(t, "Springfield", JoinNonBlank(Separator, "", "Springfield", ""))
	assert.Equal(t, "", JoinNonBlank(Separator, "", " ", ""))
}

func TestEndorsementLabel(t *testing.T) {
	assert.Equal(t, "1 endorsement", EndorsementLabel(1))
	assert.Equal(t, "7 endorsements", EndorsementLabel(7))
	assert.Equal(t, "1204 endorsements", EndorsementLabel(1204))
}

func TestQuote(t *testing.T) {
	assert.Equal(t, "“Clean streets”", Quote(" Clean streets "))
}
