// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultFamily is the typeface every preview is set in.
const DefaultFamily = "Inter"

// Default returns the compiled-in sources: the regular and bold weights of
// one typeface.
func Default() *FontRegistry {
	return &FontRegistry{
		Version:     "1",
		LastUpdated: "2026-01-01",
		Fonts: []FontSource{
			{
				Family: DefaultFamily,
				Weight: WeightRegular,
				Style:  "normal",
				URL:    "https://cdn.jsdelivr.net/fontsource/fonts/inter@latest/latin-400-normal.ttf",
				Format: "ttf",
			},
			{
				Family: DefaultFamily,
				Weight: WeightBold,
				Style:  "normal",
				URL:    "https://cdn.jsdelivr.net/fontsource/fonts/inter@latest/latin-700-normal.ttf",
				Format: "ttf",
			},
		},
	}
}

// LoadRegistry reads a JSON registry, e.g. one pointing at an internal
// mirror for air-gapped deployments.
func LoadRegistry(path string) (*FontRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg FontRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse font registry %s: %w", path, err)
	}
	if err := reg.Validate(); err != nil {
		return nil, fmt.Errorf("font registry %s: %w", path, err)
	}
	return &reg, nil
}

// Validate checks that every entry is fetchable and that the registry
// provides a regular and a bold face of one family.
func (r *FontRegistry) Validate() error {
	if len(r.Fonts) == 0 {
		return fmt.Errorf("no fonts listed")
	}
	for i, f := range r.Fonts {
		if strings.TrimSpace(f.Family) == "" {
			return fmt.Errorf("font %d: family is required", i)
		}
		if f.Weight < 100 || f.Weight > 900 {
			return fmt.Errorf("font %d: weight %d out of range", i, f.Weight)
		}
		if !strings.HasPrefix(f.URL, "http://") && !strings.HasPrefix(f.URL, "https://") {
			return fmt.Errorf("font %d: url must be http(s)", i)
		}
		switch strings.ToLower(f.Format) {
		case "", "ttf", "otf":
		default:
			return fmt.Errorf("font %d: unsupported format %q", i, f.Format)
		}
	}
	if _, _, err := r.Primary(); err != nil {
		return err
	}
	return nil
}

// Lookup returns the source registered for family and weight.
func (r *FontRegistry) Lookup(family string, weight int) (FontSource, bool) {
	for _, f := range r.Fonts {
		if strings.EqualFold(f.Family, family) && f.Weight == weight {
			return f, true
		}
	}
	return FontSource{}, false
}

// Primary returns the regular and bold faces of the first listed family.
func (r *FontRegistry) Primary() (regular, bold FontSource, err error) {
	if len(r.Fonts) == 0 {
		return FontSource{}, FontSource{}, fmt.Errorf("no fonts listed")
	}
	family := r.Fonts[0].Family
	regular, okR := r.Lookup(family, WeightRegular)
	bold, okB := r.Lookup(family, WeightBold)
	if !okR || !okB {
		return FontSource{}, FontSource{}, fmt.Errorf("family %s needs weights %d and %d", family, WeightRegular, WeightBold)
	}
	return regular, bold, nil
}

// Add appends src, rejecting a second entry for the same family and weight.
func (r *FontRegistry) Add(src FontSource) error {
	if _, ok := r.Lookup(src.Family, src.Weight); ok {
		return fmt.Errorf("font %s/%d already registered", src.Family, src.Weight)
	}
	r.Fonts = append(r.Fonts, src)
	r.LastUpdated = time.Now().UTC().Format(time.RFC3339)
	return nil
}

// SaveRegistry writes reg as indented JSON, creating parent directories.
func SaveRegistry(reg *FontRegistry, path string) error {
	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write registry file: %w", err)
	}
	return nil
}
