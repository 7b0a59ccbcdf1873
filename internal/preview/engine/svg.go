package engine

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// SVG serializes the document as a standalone SVG 1.1 file. Pictures are
// embedded as data URIs; text references the font family by name.
func (d *Document) SVG() []byte {
	var defs, body strings.Builder
	ids := 0
	nextID := func(prefix string) string {
		ids++
		return prefix + strconv.Itoa(ids)
	}

	for _, p := range d.Primitives {
		switch v := p.(type) {
		case *Shape:
			writeShape(&defs, &body, v, nextID)
		case *Picture:
			writePicture(&defs, &body, v, nextID)
		case *TextRun:
			writeText(&body, v)
		}
	}

	var out strings.Builder
	fmt.Fprintf(&out, `<?xml version="1.0" encoding="UTF-8"?>`+"\n")
	fmt.Fprintf(&out, `<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" version="1.1" width="%d" height="%d" viewBox="0 0 %d %d">`+"\n",
		d.Width, d.Height, d.Width, d.Height)
	if defs.Len() > 0 {
		out.WriteString("<defs>\n")
		out.WriteString(defs.String())
		out.WriteString("</defs>\n")
	}
	fmt.Fprintf(&out, `<rect width="%d" height="%d" fill="%s"/>`+"\n", d.Width, d.Height, hexColor(d.Background))
	out.WriteString(body.String())
	out.WriteString("</svg>\n")
	return []byte(out.String())
}

func writeShape(defs, body *strings.Builder, s *Shape, nextID func(string) string) {
	attrs := `fill="none"`
	switch {
	case s.Fill.Gradient != nil:
		id := nextID("g")
		writeGradient(defs, id, s.Fill.Gradient)
		attrs = `fill="url(#` + id + `)"`
	case s.Fill.Color != nil:
		attrs = `fill="` + hexColor(*s.Fill.Color) + `"` + opacityAttr("fill-opacity", *s.Fill.Color)
	}
	if s.Stroke.Width > 0 {
		attrs += fmt.Sprintf(` stroke="%s" stroke-width="%s"%s`,
			hexColor(s.Stroke.Color), num(s.Stroke.Width), opacityAttr("stroke-opacity", s.Stroke.Color))
	}

	r := s.Rect
	if s.Ellipse {
		// The stroke is kept inside the box.
		inset := s.Stroke.Width / 2
		fmt.Fprintf(body, `<ellipse cx="%s" cy="%s" rx="%s" ry="%s" %s/>`+"\n",
			num(r.X+r.W/2), num(r.Y+r.H/2), num(r.W/2-inset), num(r.H/2-inset), attrs)
		return
	}
	radius := ""
	if s.Radius > 0 {
		radius = fmt.Sprintf(` rx="%s" ry="%s"`, num(s.Radius), num(s.Radius))
	}
	fmt.Fprintf(body, `<rect x="%s" y="%s" width="%s" height="%s"%s %s/>`+"\n",
		num(r.X), num(r.Y), num(r.W), num(r.H), radius, attrs)
}

func writeGradient(defs *strings.Builder, id string, g *LinearGradient) {
	fmt.Fprintf(defs, `<linearGradient id="%s" gradientUnits="userSpaceOnUse" x1="%s" y1="%s" x2="%s" y2="%s">`+"\n",
		id, num(g.X0), num(g.Y0), num(g.X1), num(g.Y1))
	for _, s := range g.Stops {
		fmt.Fprintf(defs, `<stop offset="%s" stop-color="%s"%s/>`+"\n",
			num(s.Offset), hexColor(s.Color), opacityAttr("stop-opacity", s.Color))
	}
	defs.WriteString("</linearGradient>\n")
}

func writePicture(defs, body *strings.Builder, p *Picture, nextID func(string) string) {
	r := p.Rect
	clip := ""
	if p.Ellipse {
		id := nextID("c")
		fmt.Fprintf(defs, `<clipPath id="%s"><ellipse cx="%s" cy="%s" rx="%s" ry="%s"/></clipPath>`+"\n",
			id, num(r.X+r.W/2), num(r.Y+r.H/2), num(r.W/2), num(r.H/2))
		clip = ` clip-path="url(#` + id + `)"`
	}
	fmt.Fprintf(body, `<image x="%s" y="%s" width="%s" height="%s" preserveAspectRatio="xMidYMid slice" xlink:href="%s"%s/>`+"\n",
		num(r.X), num(r.Y), num(r.W), num(r.H), p.Image.DataURI, clip)
}

func writeText(body *strings.Builder, t *TextRun) {
	style := ""
	if t.Italic {
		style = ` font-style="italic"`
	}
	fmt.Fprintf(body, `<text x="%s" y="%s" font-family="%s" font-size="%s" font-weight="%d" fill="%s"%s%s>%s</text>`+"\n",
		num(t.X), num(t.Y), escape(t.Family), num(t.Size), t.Weight,
		hexColor(t.Color), opacityAttr("fill-opacity", t.Color), style, escape(t.Content))
}

func hexColor(c color.NRGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func opacityAttr(name string, c color.NRGBA) string {
	if c.A == 255 {
		return ""
	}
	return fmt.Sprintf(` %s="%s"`, name, num(float64(c.A)/255))
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func escape(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
