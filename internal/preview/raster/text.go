package raster

import (
	"fmt"
	"image"
	"math"

	"github.com/gogpu/gg"
	"github.com/gogpu/gg/text"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"card-preview/internal/preview/engine"
)

// italicSlant is the horizontal shift per pixel of height for faux italics.
const italicSlant = 0.2

func (p painter) text(run *engine.TextRun) error {
	asset := p.fonts.Regular
	if run.Bold {
		asset = p.fonts.Bold
	}
	if asset == nil || asset.Source == nil {
		return fmt.Errorf("no face for %s", run.Role)
	}
	face := asset.Face(run.Size)

	if !run.Italic {
		p.dc.SetFont(face)
		p.dc.SetColor(run.Color)
		p.dc.DrawString(run.Content, run.X, run.Y)
		return nil
	}

	p.italic(run, face)
	return nil
}

// italic draws the run upright offscreen, shears it around the baseline
// and composites the result.
func (p painter) italic(run *engine.TextRun, face text.Face) {
	m := face.Metrics()
	pad := int(math.Ceil(m.Ascent*italicSlant)) + 2
	w := int(math.Ceil(run.Width)) + 2*pad
	h := int(math.Ceil(m.Ascent+m.Descent)) + 2
	baseline := m.Ascent + 1

	upright := image.NewNRGBA(image.Rect(0, 0, w, h))
	text.Draw(upright, run.Content, face, float64(pad), baseline, run.Color)

	sheared := image.NewNRGBA(upright.Bounds())
	shear := f64.Aff3{
		1, -italicSlant, italicSlant * baseline,
		0, 1, 0,
	}
	xdraw.BiLinear.Transform(sheared, shear, upright, upright.Bounds(), xdraw.Over, nil)

	p.dc.DrawImageEx(gg.ImageBufFromImage(sheared), gg.DrawImageOptions{
		X:       run.X - float64(pad),
		Y:       run.Y - baseline,
		Opacity: 1,
	})
}
