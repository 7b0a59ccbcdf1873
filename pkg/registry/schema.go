// pkg/registry/schema.go
package registry

// FontRegistry lists the font files the preview renderer may download.
type FontRegistry struct {
	Version     string       `json:"version"`
	LastUpdated string       `json:"lastUpdated"`
	Fonts       []FontSource `json:"fonts"`
}

// FontSource is one downloadable face of a family.
type FontSource struct {
	Family string `json:"family"`
	Weight int    `json:"weight"`
	Style  string `json:"style"`
	URL    string `json:"url"`
	// Format is the container format; only "ttf" and "otf" are parseable.
	Format string `json:"format"`
}

const (
	WeightRegular = 400
	WeightBold    = 700
)
