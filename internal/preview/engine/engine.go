// Package engine positions a layout tree on the preview canvas and
// serializes the result. Text is measured with the same faces the
// rasterizer draws with.
package engine

import (
	"errors"
	"fmt"
	"image/color"
	"math"

	"github.com/gogpu/gg/text"

	"card-preview/internal/preview/assets"
	"card-preview/internal/preview/layout"
)

const ellipsis = "…"

var ErrMissingFont = errors.New("no font loaded for text")

type size struct{ w, h float64 }

// engine holds the state of one Layout call. Intrinsic sizes are computed
// once per node and reused by the placement pass.
type engine struct {
	fonts     assets.FontSet
	intrinsic map[*layout.Node]size
	faces     map[faceKey]text.Face
	doc       *Document
}

type faceKey struct {
	bold bool
	size float64
}

// Layout places root on the 1200x630 canvas. root is not modified.
func Layout(root *layout.Node, fonts assets.FontSet) (*Document, error) {
	if root == nil {
		return nil, errors.New("nil layout tree")
	}
	if err := root.Validate(); err != nil {
		return nil, err
	}
	if fonts.Regular == nil || fonts.Bold == nil {
		return nil, ErrMissingFont
	}

	e := &engine{
		fonts:     fonts,
		intrinsic: make(map[*layout.Node]size),
		faces:     make(map[faceKey]text.Face),
		doc: &Document{
			Width:      layout.CanvasWidth,
			Height:     layout.CanvasHeight,
			Background: color.NRGBA{R: 255, G: 255, B: 255, A: 255},
			Fonts:      fonts,
		},
	}

	canvas := Rect{W: layout.CanvasWidth, H: layout.CanvasHeight}
	w := resolve(root.Width, canvas.W, e.measure(root).w)
	h := resolve(root.Height, canvas.H, e.measure(root).h)
	if err := e.place(root, Rect{W: w, H: h}); err != nil {
		return nil, err
	}
	return e.doc, nil
}

// resolve turns a Size into pixels against the parent's extent. Fill is
// resolved by the parent and falls back to the whole extent here.
func resolve(s layout.Size, parent, natural float64) float64 {
	switch s.Kind {
	case layout.SizePx:
		return s.Value
	case layout.SizePercent:
		return parent * s.Value / 100
	case layout.SizeFill:
		return parent
	default:
		return natural
	}
}

func (e *engine) face(t *layout.Text) text.Face {
	asset := e.fonts.ForWeight(t.Weight)
	k := faceKey{bold: asset == e.fonts.Bold, size: t.Size}
	if f, ok := e.faces[k]; ok {
		return f
	}
	f := asset.Face(t.Size)
	e.faces[k] = f
	return f
}

func lineHeight(f text.Face) float64 {
	m := f.Metrics()
	return m.Ascent + m.Descent
}

// measure returns the natural border-box size of n.
func (e *engine) measure(n *layout.Node) size {
	if s, ok := e.intrinsic[n]; ok {
		return s
	}

	var s size
	switch {
	case n.Text != nil:
		f := e.face(n.Text)
		s = size{w: f.Advance(n.Text.Content), h: lineHeight(f)}
	default:
		flow := inFlow(n)
		for i, c := range flow {
			cs := e.measure(c)
			cw := fixedOr(c.Width, cs.w)
			ch := fixedOr(c.Height, cs.h)
			if n.Direction == layout.Row {
				s.w += cw
				s.h = math.Max(s.h, ch)
				if i > 0 {
					s.w += n.Gap
				}
			} else {
				s.h += ch
				s.w = math.Max(s.w, cw)
				if i > 0 {
					s.h += n.Gap
				}
			}
		}
	}

	s.w += n.Padding.Left + n.Padding.Right
	s.h += n.Padding.Top + n.Padding.Bottom
	if n.Width.Kind == layout.SizePx {
		s.w = n.Width.Value
	}
	if n.Height.Kind == layout.SizePx {
		s.h = n.Height.Value
	}

	e.intrinsic[n] = s
	return s
}

// fixedOr is the contribution of a child dimension to its parent's natural
// size. Relative sizes contribute nothing.
func fixedOr(s layout.Size, natural float64) float64 {
	switch s.Kind {
	case layout.SizePx:
		return s.Value
	case layout.SizeAuto:
		return natural
	default:
		return 0
	}
}

func inFlow(n *layout.Node) []*layout.Node {
	out := make([]*layout.Node, 0, len(n.Children))
	for _, c := range n.Children {
		if c.Absolute == nil {
			out = append(out, c)
		}
	}
	return out
}

// place emits n at box, then its absolute children, then its in-flow
// children.
func (e *engine) place(n *layout.Node, box Rect) error {
	e.paintBox(n, box)

	if n.Text != nil {
		return e.placeText(n, box)
	}

	for _, c := range n.Children {
		if c.Absolute == nil {
			continue
		}
		cs := e.measure(c)
		child := Rect{
			X: box.X + c.Absolute.Left,
			Y: box.Y + c.Absolute.Top,
			W: resolve(c.Width, box.W, cs.w),
			H: resolve(c.Height, box.H, cs.h),
		}
		if err := e.place(c, child); err != nil {
			return err
		}
	}

	flow := inFlow(n)
	if len(flow) == 0 {
		return nil
	}

	content := Rect{
		X: box.X + n.Padding.Left,
		Y: box.Y + n.Padding.Top,
		W: math.Max(0, box.W-n.Padding.Left-n.Padding.Right),
		H: math.Max(0, box.H-n.Padding.Top-n.Padding.Bottom),
	}
	row := n.Direction == layout.Row
	mainExtent, crossExtent := content.H, content.W
	if row {
		mainExtent, crossExtent = content.W, content.H
	}

	mains := make([]float64, len(flow))
	crosses := make([]float64, len(flow))
	used := n.Gap * float64(len(flow)-1)
	fills := 0
	for i, c := range flow {
		cs := e.measure(c)
		mainSize, crossSize := c.Height, c.Width
		mainNatural, crossNatural := cs.h, cs.w
		if row {
			mainSize, crossSize = c.Width, c.Height
			mainNatural, crossNatural = cs.w, cs.h
		}

		if mainSize.Kind == layout.SizeFill {
			fills++
		} else {
			mains[i] = resolve(mainSize, mainExtent, mainNatural)
			used += mains[i]
		}

		switch {
		case crossSize.Kind == layout.SizeAuto && n.Align == layout.AlignStretch:
			crosses[i] = crossExtent
		case crossSize.Kind == layout.SizeAuto:
			crosses[i] = math.Min(crossNatural, crossExtent)
		default:
			crosses[i] = resolve(crossSize, crossExtent, crossNatural)
		}
	}

	free := mainExtent - used
	if fills > 0 {
		share := math.Max(0, free) / float64(fills)
		for i, c := range flow {
			if (row && c.Width.Kind == layout.SizeFill) || (!row && c.Height.Kind == layout.SizeFill) {
				mains[i] = share
			}
		}
		free = 0
	}

	offset, gap := 0.0, n.Gap
	if free > 0 {
		switch n.Justify {
		case layout.JustifyCenter:
			offset = free / 2
		case layout.JustifyEnd:
			offset = free
		case layout.JustifySpaceBetween:
			if len(flow) > 1 {
				gap += free / float64(len(flow)-1)
			}
		}
	}

	cursor := offset
	for i, c := range flow {
		crossOffset := 0.0
		switch n.Align {
		case layout.AlignCenter:
			crossOffset = (crossExtent - crosses[i]) / 2
		case layout.AlignEnd:
			crossOffset = crossExtent - crosses[i]
		}

		var child Rect
		if row {
			child = Rect{X: content.X + cursor, Y: content.Y + crossOffset, W: mains[i], H: crosses[i]}
		} else {
			child = Rect{X: content.X + crossOffset, Y: content.Y + cursor, W: crosses[i], H: mains[i]}
		}
		if err := e.place(c, child); err != nil {
			return err
		}
		cursor += mains[i] + gap
	}
	return nil
}

// paintBox emits the background, the picture and the border of n, in
// that order.
func (e *engine) paintBox(n *layout.Node, box Rect) {
	ellipse := n.Shape == layout.ShapeEllipse
	radius := math.Min(n.Radius, math.Min(box.W, box.H)/2)
	fill := resolveFill(n.Background, box)

	if n.Image == nil {
		if fill.IsZero() && n.Border.Width <= 0 {
			return
		}
		e.doc.Primitives = append(e.doc.Primitives, &Shape{
			Role: n.Role, Rect: box, Ellipse: ellipse, Radius: radius, Fill: fill, Stroke: n.Border,
		})
		return
	}

	if !fill.IsZero() {
		e.doc.Primitives = append(e.doc.Primitives, &Shape{
			Role: n.Role, Rect: box, Ellipse: ellipse, Radius: radius, Fill: fill,
		})
	}
	e.doc.Primitives = append(e.doc.Primitives, &Picture{
		Role: n.Role, Rect: box, Ellipse: ellipse, Image: n.Image,
	})
	if n.Border.Width > 0 {
		e.doc.Primitives = append(e.doc.Primitives, &Shape{
			Role: n.Role, Rect: box, Ellipse: ellipse, Radius: radius, Stroke: n.Border,
		})
	}
}

func (e *engine) placeText(n *layout.Node, box Rect) error {
	t := n.Text
	asset := e.fonts.ForWeight(t.Weight)
	if asset == nil || asset.Source == nil {
		return fmt.Errorf("%w: role %q weight %d", ErrMissingFont, n.Role, t.Weight)
	}
	f := e.face(t)

	content := t.Content
	width := f.Advance(content)
	if avail := box.W - n.Padding.Left - n.Padding.Right; width > avail && avail > 0 {
		content, width = truncate(f, content, avail)
	}

	m := f.Metrics()
	lh := m.Ascent + m.Descent
	baseline := box.Y + n.Padding.Top + (box.H-n.Padding.Top-n.Padding.Bottom-lh)/2 + m.Ascent

	e.doc.Primitives = append(e.doc.Primitives, &TextRun{
		Role:    n.Role,
		X:       box.X + n.Padding.Left,
		Y:       baseline,
		Width:   width,
		Height:  lh,
		Content: content,
		Size:    t.Size,
		Weight:  t.Weight,
		Bold:    asset == e.fonts.Bold,
		Italic:  t.Italic,
		Color:   t.Color,
		Family:  asset.Family,
	})
	return nil
}

// truncate shortens s with a trailing ellipsis until it fits in maxWidth.
func truncate(f text.Face, s string, maxWidth float64) (string, float64) {
	runes := []rune(s)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		candidate := string(runes) + ellipsis
		if w := f.Advance(candidate); w <= maxWidth {
			return candidate, w
		}
	}
	return ellipsis, f.Advance(ellipsis)
}

func resolveFill(p layout.Paint, box Rect) Fill {
	switch {
	case p.Gradient != nil:
		g := p.Gradient
		stops := make([]Stop, len(g.Stops))
		for i, s := range g.Stops {
			stops[i] = Stop{Offset: s.Offset, Color: s.Color}
		}
		return Fill{Gradient: &LinearGradient{
			X0: box.X + g.X0*box.W, Y0: box.Y + g.Y0*box.H,
			X1: box.X + g.X1*box.W, Y1: box.Y + g.Y1*box.H,
			Stops: stops,
		}}
	case p.Color != nil:
		c := *p.Color
		return Fill{Color: &c}
	default:
		return Fill{}
	}
}
