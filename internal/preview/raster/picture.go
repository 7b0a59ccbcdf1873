package raster

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"strings"

	"github.com/gogpu/gg"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/vector"
	_ "golang.org/x/image/webp"

	"card-preview/internal/preview/engine"
	"card-preview/internal/preview/layout"
)

// circleK places cubic control points for a quarter circle.
const circleK = 0.5522847498307936

func (p painter) picture(pic *engine.Picture) error {
	src, err := decode(pic.Image)
	if err != nil {
		return fmt.Errorf("decode %s: %w", pic.Role, err)
	}

	w := int(math.Round(pic.Rect.W))
	h := int(math.Round(pic.Rect.H))
	if w <= 0 || h <= 0 {
		return nil
	}

	img := cover(src, w, h)
	if pic.Ellipse {
		img = maskEllipse(img)
	}

	p.dc.DrawImageEx(gg.ImageBufFromImage(img), gg.DrawImageOptions{
		X:       pic.Rect.X,
		Y:       pic.Rect.Y,
		Opacity: 1,
	})
	return nil
}

func decode(img *layout.Image) (image.Image, error) {
	if img.Decoded != nil {
		return img.Decoded, nil
	}
	data := img.Data
	if len(data) == 0 {
		_, payload, ok := strings.Cut(img.DataURI, ";base64,")
		if !ok {
			return nil, fmt.Errorf("no image data")
		}
		var err error
		if data, err = base64.StdEncoding.DecodeString(payload); err != nil {
			return nil, err
		}
	}
	decoded, _, err := image.Decode(bytes.NewReader(data))
	return decoded, err
}

// cover scales src to fill w x h, cropping the overflow around the center.
func cover(src image.Image, w, h int) *image.NRGBA {
	b := src.Bounds()
	sw, sh := float64(b.Dx()), float64(b.Dy())
	crop := b
	if sw/sh > float64(w)/float64(h) {
		cw := int(math.Round(sh * float64(w) / float64(h)))
		x0 := b.Min.X + (b.Dx()-cw)/2
		crop = image.Rect(x0, b.Min.Y, x0+cw, b.Max.Y)
	} else {
		ch := int(math.Round(sw * float64(h) / float64(w)))
		y0 := b.Min.Y + (b.Dy()-ch)/2
		crop = image.Rect(b.Min.X, y0, b.Max.X, y0+ch)
	}

	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, crop, xdraw.Src, nil)
	return dst
}

// maskEllipse keeps the pixels inside the inscribed ellipse, anti-aliased.
func maskEllipse(src *image.NRGBA) *image.NRGBA {
	b := src.Bounds()
	w, h := float32(b.Dx()), float32(b.Dy())
	cx, cy, rx, ry := w/2, h/2, w/2, h/2
	ox, oy := rx*circleK, ry*circleK

	z := vector.NewRasterizer(b.Dx(), b.Dy())
	z.MoveTo(cx+rx, cy)
	z.CubeTo(cx+rx, cy+oy, cx+ox, cy+ry, cx, cy+ry)
	z.CubeTo(cx-ox, cy+ry, cx-rx, cy+oy, cx-rx, cy)
	z.CubeTo(cx-rx, cy-oy, cx-ox, cy-ry, cx, cy-ry)
	z.CubeTo(cx+ox, cy-ry, cx+rx, cy-oy, cx+rx, cy)
	z.ClosePath()

	mask := image.NewAlpha(b)
	z.Draw(mask, b, image.Opaque, image.Point{})

	out := image.NewNRGBA(b)
	draw.DrawMask(out, b, src, b.Min, mask, b.Min, draw.Over)
	return out
}
