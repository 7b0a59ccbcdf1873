package engine

import (
	"image/color"

	"card-preview/internal/preview/assets"
	"card-preview/internal/preview/layout"
)

// Rect is an axis-aligned box in canvas pixels.
type Rect struct {
	X, Y, W, H float64
}

// Stop is a gradient color stop.
type Stop struct {
	Offset float64
	Color  color.NRGBA
}

// LinearGradient runs between two canvas points.
type LinearGradient struct {
	X0, Y0, X1, Y1 float64
	Stops          []Stop
}

// Fill is a resolved paint; both fields nil means unpainted.
type Fill struct {
	Color    *color.NRGBA
	Gradient *LinearGradient
}

func (f Fill) IsZero() bool { return f.Color == nil && f.Gradient == nil }

// Primitive is one paint operation of a Document.
type Primitive interface {
	Bounds() Rect
	primitive()
}

// Shape is a filled and optionally stroked rectangle or ellipse.
type Shape struct {
	Role    string
	Rect    Rect
	Ellipse bool
	Radius  float64
	Fill    Fill
	Stroke  layout.Border
}

// TextRun is a single line of shaped text. Y is the baseline.
type TextRun struct {
	Role    string
	X, Y    float64
	Width   float64
	Height  float64
	Content string
	Size    float64
	Weight  int
	Bold    bool
	Italic  bool
	Color   color.NRGBA
	Family  string
}

// Picture is embedded raster content, clipped to an ellipse when Ellipse.
type Picture struct {
	Role    string
	Rect    Rect
	Ellipse bool
	Image   *layout.Image
}

func (s *Shape) Bounds() Rect   { return s.Rect }
func (t *TextRun) Bounds() Rect { return Rect{X: t.X, Y: t.Y - t.Height, W: t.Width, H: t.Height} }
func (p *Picture) Bounds() Rect { return p.Rect }

func (*Shape) primitive()   {}
func (*TextRun) primitive() {}
func (*Picture) primitive() {}

// Document is a fully positioned preview, primitives in paint order.
type Document struct {
	Width      int
	Height     int
	Background color.NRGBA
	Primitives []Primitive
	Fonts      assets.FontSet
}

// Texts returns the text runs in paint order.
func (d *Document) Texts() []*TextRun {
	var out []*TextRun
	for _, p := range d.Primitives {
		if t, ok := p.(*TextRun); ok {
			out = append(out, t)
		}
	}
	return out
}

// ByRole returns the primitives tagged role.
func (d *Document) ByRole(role string) []Primitive {
	var out []Primitive
	for _, p := range d.Primitives {
		switch v := p.(type) {
		case *Shape:
			if v.Role == role {
				out = append(out, p)
			}
		case *TextRun:
			if v.Role == role {
				out = append(out, p)
			}
		case *Picture:
			if v.Role == role {
				out = append(out, p)
			}
		}
	}
	return out
}
