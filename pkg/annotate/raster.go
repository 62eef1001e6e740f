package annotate

import (
	"image"
	"image/color"
)

// drawThickLine walks the line with Bresenham's algorithm and stamps a square
// brush of the given width at every step.
func drawThickLine(img *image.NRGBA, x0, y0, x1, y1, width int, c color.NRGBA) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := -1, -1
	if x0 < x1 {
		sx = 1
	}
	if y0 < y1 {
		sy = 1
	}
	err := dx + dy
	for {
		stamp(img, x0, y0, width, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

const (
	outLeft = 1 << iota
	outRight
	outBottom
	outTop
)

// clipRect is a rectangle in float pixel space
type clipRect struct {
	minX, minY, maxX, maxY float64
}

func (r clipRect) outcode(x, y float64) int {
	code := 0
	if x < r.minX {
		code |= outLeft
	} else if x > r.maxX {
		code |= outRight
	}
	if y < r.minY {
		code |= outTop
	} else if y > r.maxY {
		code |= outBottom
	}
	return code
}

// clipSegment trims the segment to r with Cohen-Sutherland. ok is false when
// no part of it lies inside r.
func clipSegment(x0, y0, x1, y1 float64, r clipRect) (cx0, cy0, cx1, cy1 float64, ok bool) {
	c0, c1 := r.outcode(x0, y0), r.outcode(x1, y1)
	for {
		switch {
		case c0|c1 == 0:
			return x0, y0, x1, y1, true
		case c0&c1 != 0:
			return 0, 0, 0, 0, false
		}
		out := c0
		if out == 0 {
			out = c1
		}
		var x, y float64
		switch {
		case out&outTop != 0:
			x = x0 + (x1-x0)*(r.minY-y0)/(y1-y0)
			y = r.minY
		case out&outBottom != 0:
			x = x0 + (x1-x0)*(r.maxY-y0)/(y1-y0)
			y = r.maxY
		case out&outRight != 0:
			y = y0 + (y1-y0)*(r.maxX-x0)/(x1-x0)
			x = r.maxX
		default:
			y = y0 + (y1-y0)*(r.minX-x0)/(x1-x0)
			x = r.minX
		}
		if out == c0 {
			x0, y0 = x, y
			c0 = r.outcode(x0, y0)
		} else {
			x1, y1 = x, y
			c1 = r.outcode(x1, y1)
		}
	}
}

// stamp fills a width x width square whose centre pixel is (x, y)
func stamp(img *image.NRGBA, x, y, width int, c color.NRGBA) {
	lo := -(width - 1) / 2
	hi := width / 2
	for yy := y + lo; yy <= y+hi; yy++ {
		drawHLine(img, yy, x+lo, x+hi+1, c)
	}
}

func fillCircle(img *image.NRGBA, cx, cy, r int, c color.NRGBA) {
	if r < 1 {
		stamp(img, cx, cy, 1, c)
		return
	}
	for dy := -r; dy <= r; dy++ {
		span := 0
		for span*span+dy*dy <= r*r {
			span++
		}
		drawHLine(img, cy+dy, cx-span+1, cx+span, c)
	}
}

// drawHLine paints [x0, x1) on row y, clipped to the image bounds
func drawHLine(img *image.NRGBA, y, x0, x1 int, c color.NRGBA) {
	b := img.Bounds()
	if y < b.Min.Y || y >= b.Max.Y {
		return
	}
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	if x0 < b.Min.X {
		x0 = b.Min.X
	}
	if x1 > b.Max.X {
		x1 = b.Max.X
	}
	if x0 >= x1 {
		return
	}
	i := img.PixOffset(x0, y)
	for x := x0; x < x1; x++ {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
		i += 4
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
