package assets

import (
	"fmt"

	"github.com/gogpu/gg/text"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"

	"card-preview/pkg/registry"
)

// BuiltinFamily names the Go fonts bundled with golang.org/x/image.
const BuiltinFamily = "Go"

// NewFontSet parses font bytes that are already at hand, bypassing the
// download cache.
func NewFontSet(family string, regular, bold []byte) (FontSet, error) {
	r, err := newAsset(family, registry.WeightRegular, regular)
	if err != nil {
		return FontSet{}, err
	}
	b, err := newAsset(family, registry.WeightBold, bold)
	if err != nil {
		return FontSet{}, err
	}
	return FontSet{Regular: r, Bold: b}, nil
}

// BuiltinFontSet returns the bundled Go fonts. It is used for offline
// rendering and tests.
func BuiltinFontSet() (FontSet, error) {
	return NewFontSet(BuiltinFamily, goregular.TTF, gobold.TTF)
}

func newAsset(family string, weight int, data []byte) (*FontAsset, error) {
	source, err := text.NewFontSource(data)
	if err != nil {
		return nil, fmt.Errorf("parse font %s/%d: %w", family, weight, err)
	}
	return &FontAsset{Family: family, Weight: weight, Data: data, Source: source}, nil
}
