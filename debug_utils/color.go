package debug_utils

import "image/color"

type Colorb [4]uint8

func (c Colorb) R() uint8 { return c[0] }
func (c Colorb) G() uint8 { return c[1] }
func (c Colorb) B() uint8 { return c[2] }
func (c Colorb) A() uint8 { return c[3] }

func (c Colorb) Int() uint32 {
	return uint32(c.R()) | (uint32(c.G()) << 8) | (uint32(c.B()) << 16) | (uint32(c.A()) << 24)
}

func (c *Colorb) FromInt(col uint32) {
	c[0] = uint8(col & 0xff)
	c[1] = uint8((col >> 8) & 0xff)
	c[2] = uint8((col >> 16) & 0xff)
	c[3] = uint8((col >> 24) & 0xff)
}

// / Straight alpha color for image/draw.
func (c Colorb) NRGBA() color.NRGBA {
	return color.NRGBA{R: c[0], G: c[1], B: c[2], A: c[3]}
}

func DuRGBA[T int | int32 | uint8](r, g, b, a T) Colorb {
	return Colorb{uint8(r), uint8(g), uint8(b), uint8(a)}
}

func DuRGBAf(fr, fg, fb, fa float32) Colorb {
	return DuRGBA(int(fr*255), int(fg*255), int(fb*255), int(fa*255))
}

func bit(a, b int) int {
	return (a & (1 << b)) >> b
}

func DuIntToCol(i, a int) Colorb {
	r := bit(i, 1) + bit(i, 3)*2 + 1
	g := bit(i, 2) + bit(i, 4)*2 + 1
	b := bit(i, 0) + bit(i, 5)*2 + 1
	return DuRGBA(r*63, g*63, b*63, a)
}

func DuCalcBoxColors(colors []Colorb, colTop Colorb, colSide Colorb) {
	if len(colors) < 6 {
		return
	}
	colors[0] = DuMultCol(colTop, 250)
	colors[1] = DuMultCol(colSide, 140)
	colors[2] = DuMultCol(colSide, 165)
	colors[3] = DuMultCol(colSide, 217)
	colors[4] = DuMultCol(colSide, 165)
	colors[5] = DuMultCol(colSide, 217)
}

func DuMultCol(col Colorb, d uint8) Colorb {
	di := int(d)
	return DuRGBA(int(col.R())*di>>8, int(col.G())*di>>8, int(col.B())*di>>8, int(col.A()))
}

func DuDarkenCol(col Colorb) (res Colorb) {
	i := col.Int()
	res.FromInt(((i >> 1) & 0x007f7f7f) | (i & 0xff000000))
	return res
}

func DuLerpCol(ca, cb Colorb, u uint8) Colorb {
	ui := int(u)
	lerp := func(a, b uint8) int { return (int(a)*(255-ui) + int(b)*ui) / 255 }
	return DuRGBA(lerp(ca.R(), cb.R()), lerp(ca.G(), cb.G()), lerp(ca.B(), cb.B()), lerp(ca.A(), cb.A()))
}

func DuTransCol(c Colorb, a uint8) Colorb {
	return Colorb{c.R(), c.G(), c.B(), a}
}

// / Color for an area id. Area 0 is the default walkable area.
func AreaToCol(area uint8) Colorb {
	if area == 0 {
		return DuRGBA(0, 192, 255, 255)
	}
	return DuIntToCol(int(area), 255)
}
