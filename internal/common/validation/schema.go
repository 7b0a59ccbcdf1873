package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// MaxIdentifierLength bounds identifiers at the longest legal domain name.
const MaxIdentifierLength = 253

// identifierSchema accepts a public slug ("jane-doe") or a custom domain
// ("cards.example.com").
var identifierSchema = gojsonschema.NewGoLoader(map[string]interface{}{
	"type":     "object",
	"required": []string{"identifier"},
	"properties": map[string]interface{}{
		"identifier": map[string]interface{}{
			"type":      "string",
			"minLength": 1,
			"maxLength": MaxIdentifierLength,
			"pattern":   `^[A-Za-z0-9](?:[A-Za-z0-9._-]*[A-Za-z0-9])?$`,
		},
	},
	"additionalProperties": false,
})

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Summary joins the messages of r for logs and error details.
func (r *ValidationResult) Summary() string {
	parts := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		parts = append(parts, fmt.Sprintf("%s: %s", e.Field, e.Message))
	}
	return strings.Join(parts, "; ")
}

// NormalizeIdentifier trims whitespace and a trailing root dot.
func NormalizeIdentifier(raw string) string {
	return strings.TrimSuffix(strings.TrimSpace(raw), ".")
}

// ValidateIdentifier checks a public card identifier before any lookup runs.
func ValidateIdentifier(identifier string) *ValidationResult {
	document := gojsonschema.NewGoLoader(map[string]interface{}{"identifier": identifier})

	result, err := gojsonschema.Validate(identifierSchema, document)
	if err != nil {
		return &ValidationResult{
			Valid:  false,
			Errors: []ValidationError{{Field: "identifier", Message: err.Error(), Code: "SCHEMA_ERROR"}},
		}
	}

	if result.Valid() {
		return &ValidationResult{Valid: true}
	}

	errs := make([]ValidationError, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		errs = append(errs, ValidationError{
			Field:   strings.TrimPrefix(desc.Field(), "(root)."),
			Message: desc.Description(),
			Code:    strings.ToUpper(desc.Type()),
		})
	}
	return &ValidationResult{Valid: false, Errors: errs}
}
