// Package layout describes a preview as a tree of boxes and builds that tree
// from a card snapshot. Trees are plain values; nothing here measures text
// or positions boxes.
package layout

import (
	"fmt"
	"image"
	"image/color"
)

// Canvas dimensions of every preview.
const (
	CanvasWidth  = 1200
	CanvasHeight = 630
)

type SizeKind int

const (
	SizeAuto SizeKind = iota
	SizePx
	SizePercent
	SizeFill
)

// Size is a box dimension. The zero value is Auto.
type Size struct {
	Kind  SizeKind
	Value float64
}

func Px(v float64) Size      { return Size{Kind: SizePx, Value: v} }
func Percent(v float64) Size { return Size{Kind: SizePercent, Value: v} }
func Fill() Size             { return Size{Kind: SizeFill} }
func Auto() Size             { return Size{} }

type Direction int

const (
	Column Direction = iota
	Row
)

type Justify int

const (
	JustifyStart Justify = iota
	JustifyCenter
	JustifyEnd
	JustifySpaceBetween
)

type Align int

const (
	AlignStart Align = iota
	AlignCenter
	AlignEnd
	AlignStretch
)

type Shape int

const (
	ShapeRect Shape = iota
	ShapeEllipse
)

// Edges are per-side insets.
type Edges struct {
	Top, Right, Bottom, Left float64
}

func Uniform(v float64) Edges { return Edges{v, v, v, v} }

func Symmetric(vertical, horizontal float64) Edges {
	return Edges{Top: vertical, Right: horizontal, Bottom: vertical, Left: horizontal}
}

// GradientStop is a color at an offset in [0, 1].
type GradientStop struct {
	Offset float64
	Color  color.NRGBA
}

// Gradient is a linear gradient whose endpoints are fractions of the
// painted box, so (0,0)-(1,1) runs corner to corner.
type Gradient struct {
	X0, Y0, X1, Y1 float64
	Stops          []GradientStop
}

// Paint is a solid color, a gradient, or nothing.
type Paint struct {
	Color    *color.NRGBA
	Gradient *Gradient
}

func (p Paint) IsZero() bool { return p.Color == nil && p.Gradient == nil }

func Solid(c color.NRGBA) Paint { return Paint{Color: &c} }

type Border struct {
	Width float64
	Color color.NRGBA
}

// Text is a single-line run.
type Text struct {
	Content string
	Size    float64
	Weight  int
	Color   color.NRGBA
	Italic  bool
}

// Image is embedded raster content painted into the node's box.
type Image struct {
	ContentType string
	Data        []byte
	DataURI     string
	// Decoded, when set, spares the rasterizer a second decode.
	Decoded image.Image
}

// Offset positions an absolute node relative to its parent's border box.
type Offset struct {
	Left, Top float64
}

// Node is a box. It holds children or text, never both. Absolute nodes
// are taken out of flow and drawn beneath their in-flow siblings.
type Node struct {
	Role string

	Width, Height Size
	Direction     Direction
	Justify       Justify
	Align         Align
	Gap           float64
	Padding       Edges

	Background Paint
	Border     Border
	Radius     float64
	Shape      Shape
	Image      *Image
	Absolute   *Offset

	Children []*Node
	Text     *Text
}

// Validate checks the children-or-text invariant across the subtree.
func (n *Node) Validate() error {
	if n.Text != nil && len(n.Children) > 0 {
		return fmt.Errorf("node %q has both text and children", n.Role)
	}
	if n.Image != nil && (n.Text != nil || len(n.Children) > 0) {
		return fmt.Errorf("image node %q must be a leaf", n.Role)
	}
	for _, c := range n.Children {
		if c == nil {
			return fmt.Errorf("node %q has a nil child", n.Role)
		}
		if err := c.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Walk visits n and its descendants depth-first in document order.
func (n *Node) Walk(fn func(*Node)) {
	fn(n)
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// FindAll returns every node tagged role.
func (n *Node) FindAll(role string) []*Node {
	var out []*Node
	n.Walk(func(x *Node) {
		if x.Role == role {
			out = append(out, x)
		}
	})
	return out
}

// Find returns the first node tagged role, or nil.
func (n *Node) Find(role string) *Node {
	if all := n.FindAll(role); len(all) > 0 {
		return all[0]
	}
	return nil
}

// TextOf returns the concatenated text under the first node tagged role.
func (n *Node) TextOf(role string) string {
	found := n.Find(role)
	if found == nil {
		return ""
	}
	var s string
	found.Walk(func(x *Node) {
		if x.Text != nil {
			s += x.Text.Content
		}
	})
	return s
}

func textNode(role, content string, size float64, weight int, c color.NRGBA) *Node {
	return &Node{
		Role: role,
		Text: &Text{Content: content, Size: size, Weight: weight, Color: c},
	}
}
