package layout

import "image/color"

func rgb(r, g, b uint8) color.NRGBA { return color.NRGBA{R: r, G: g, B: b, A: 255} }

func rgba(r, g, b uint8, a float64) color.NRGBA {
	return color.NRGBA{R: r, G: g, B: b, A: uint8(a*255 + 0.5)}
}

type theme struct {
	backgroundFrom color.NRGBA
	backgroundTo   color.NRGBA
	accent         color.NRGBA
	primaryText    color.NRGBA
	secondaryText  color.NRGBA
	mutedText      color.NRGBA
	avatarFrom     color.NRGBA
	avatarTo       color.NRGBA
	footer         color.NRGBA
}

var civicTheme = theme{
	backgroundFrom: rgb(0x0b, 0x1f, 0x3a),
	backgroundTo:   rgb(0x13, 0x3c, 0x6b),
	accent:         rgb(0xf5, 0xb7, 0x01),
	primaryText:    rgb(0xff, 0xff, 0xff),
	secondaryText:  rgb(0xd6, 0xe2, 0xf0),
	mutedText:      rgb(0x9f, 0xb5, 0xcf),
	avatarFrom:     rgb(0xf5, 0xb7, 0x01),
	avatarTo:       rgb(0xe0, 0x7a, 0x00),
	footer:         rgba(0, 0, 0, 0.28),
}

var standardTheme = theme{
	backgroundFrom: rgb(0x1e, 0x1b, 0x4b),
	backgroundTo:   rgb(0x43, 0x38, 0xca),
	accent:         rgb(0xa5, 0xb4, 0xfc),
	primaryText:    rgb(0xff, 0xff, 0xff),
	secondaryText:  rgb(0xe0, 0xe7, 0xff),
	mutedText:      rgb(0xc7, 0xd2, 0xfe),
	avatarFrom:     rgb(0x81, 0x8c, 0xf8),
	avatarTo:       rgb(0xc0, 0x84, 0xfc),
	footer:         rgba(0, 0, 0, 0.22),
}

func (t theme) background() Paint {
	return Paint{Gradient: &Gradient{
		X0: 0, Y0: 0, X1: 1, Y1: 1,
		Stops: []GradientStop{{0, t.backgroundFrom}, {1, t.backgroundTo}},
	}}
}

func (t theme) avatarFill() Paint {
	return Paint{Gradient: &Gradient{
		X0: 0, Y0: 0, X1: 1, Y1: 1,
		Stops: []GradientStop{{0, t.avatarFrom}, {1, t.avatarTo}},
	}}
}
