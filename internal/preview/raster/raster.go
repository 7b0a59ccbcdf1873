// Package raster paints an engine.Document into a PNG with gogpu/gg.
package raster

import (
	"bytes"
	"fmt"
	"image/color"
	"math"

	"github.com/gogpu/gg"

	"card-preview/internal/common/config"
	"card-preview/internal/preview/assets"
	"card-preview/internal/preview/engine"
)

const ContentTypePNG = "image/png"

// Bitmap is the encoded preview.
type Bitmap struct {
	PNG          []byte
	Width        int
	Height       int
	ContentType  string
	CacheControl string
}

// Rasterizer encodes documents. The zero value uses the default cache
// directive.
type Rasterizer struct {
	CacheControl string
}

// Rasterize renders doc with the default cache directive.
func Rasterize(doc *engine.Document) (*Bitmap, error) {
	return Rasterizer{}.Rasterize(doc)
}

// Rasterize paints every primitive in order and encodes the canvas as PNG.
// The output is deterministic for a given document.
func (r Rasterizer) Rasterize(doc *engine.Document) (*Bitmap, error) {
	if doc == nil {
		return nil, fmt.Errorf("nil document")
	}
	if doc.Width <= 0 || doc.Height <= 0 {
		return nil, fmt.Errorf("invalid canvas %dx%d", doc.Width, doc.Height)
	}

	dc := gg.NewContext(doc.Width, doc.Height)
	defer dc.Close()
	dc.ClearWithColor(toRGBA(doc.Background))

	p := painter{dc: dc, fonts: doc.Fonts}
	for i, prim := range doc.Primitives {
		if err := p.paint(prim); err != nil {
			return nil, fmt.Errorf("primitive %d: %w", i, err)
		}
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}

	return &Bitmap{
		PNG:          buf.Bytes(),
		Width:        doc.Width,
		Height:       doc.Height,
		ContentType:  ContentTypePNG,
		CacheControl: r.CacheControlOrDefault(),
	}, nil
}

type painter struct {
	dc    *gg.Context
	fonts assets.FontSet
}

func (p painter) paint(prim engine.Primitive) error {
	switch v := prim.(type) {
	case *engine.Shape:
		return p.shape(v)
	case *engine.Picture:
		return p.picture(v)
	case *engine.TextRun:
		return p.text(v)
	default:
		return fmt.Errorf("unknown primitive %T", prim)
	}
}

func (p painter) shape(s *engine.Shape) error {
	if !s.Fill.IsZero() {
		p.path(s, 0)
		switch {
		case s.Fill.Gradient != nil:
			g := s.Fill.Gradient
			brush := gg.NewLinearGradientBrush(g.X0, g.Y0, g.X1, g.Y1)
			for _, stop := range g.Stops {
				brush.AddColorStop(stop.Offset, toRGBA(stop.Color))
			}
			p.dc.SetFillBrush(brush)
		default:
			p.dc.SetColor(*s.Fill.Color)
		}
		if err := p.dc.Fill(); err != nil {
			return fmt.Errorf("fill %s: %w", s.Role, err)
		}
	}

	if s.Stroke.Width > 0 {
		p.path(s, s.Stroke.Width/2)
		p.dc.SetColor(s.Stroke.Color)
		p.dc.SetLineWidth(s.Stroke.Width)
		if err := p.dc.Stroke(); err != nil {
			return fmt.Errorf("stroke %s: %w", s.Role, err)
		}
	}
	return nil
}

// path traces s shrunk by inset on every side.
func (p painter) path(s *engine.Shape, inset float64) {
	r := s.Rect
	x, y := r.X+inset, r.Y+inset
	w, h := math.Max(0, r.W-2*inset), math.Max(0, r.H-2*inset)
	switch {
	case s.Ellipse:
		p.dc.DrawEllipse(x+w/2, y+h/2, w/2, h/2)
	case s.Radius > 0:
		p.dc.DrawRoundedRectangle(x, y, w, h, math.Max(0, s.Radius-inset))
	default:
		p.dc.DrawRectangle(x, y, w, h)
	}
}

func toRGBA(c color.NRGBA) gg.RGBA {
	return gg.RGBA2(float64(c.R)/255, float64(c.G)/255, float64(c.B)/255, float64(c.A)/255)
}

// CacheControlOrDefault is the directive attached to rendered output.
func (r Rasterizer) CacheControlOrDefault() string {
	if r.CacheControl == "" {
		return config.DefaultCacheControl
	}
	return r.CacheControl
}
