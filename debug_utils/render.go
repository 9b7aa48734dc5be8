package debug_utils

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"

	"golang.org/x/image/vector"
)

// / Projection of world XZ onto a square image, y axis dropped.
type topDown struct {
	minx, minz float32
	scale      float32
	size       int
}

func newTopDown(bmin, bmax [3]float32, size int) topDown {
	ext := max(bmax[0]-bmin[0], bmax[2]-bmin[2])
	if ext <= 0 {
		ext = 1
	}
	return topDown{minx: bmin[0], minz: bmin[2], scale: float32(size) / ext, size: size}
}

func (t topDown) project(p [3]float32) (float32, float32) {
	return (p[0] - t.minx) * t.scale, (p[2] - t.minz) * t.scale
}

// / Renders primitives seen from above into a PNG of size x size pixels.
// / Triangles are filled, lines are drawn as thin quads and points as squares.
func RenderTopDownPNG(w io.Writer, primitives []Primitive, bmin, bmax [3]float32, size int) error {
	if size <= 0 {
		return fmt.Errorf("debug_utils: render: invalid size %d", size)
	}
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.NRGBA{R: 255, G: 255, B: 255, A: 255}), image.Point{}, draw.Src)

	t := newTopDown(bmin, bmax, size)
	for _, p := range primitives {
		switch p.Type {
		case DU_DRAW_TRIS:
			for i := 0; i+2 < len(p.Vertices); i += 3 {
				var pts [6]float32
				for k := 0; k < 3; k++ {
					pts[k*2], pts[k*2+1] = t.project(p.Vertices[i+k].Pos)
				}
				fillPolygon(img, p.Vertices[i].Color, pts[:])
			}
		case DU_DRAW_LINES:
			width := max(p.Size, 1) / 2
			for i := 0; i+1 < len(p.Vertices); i += 2 {
				ax, ay := t.project(p.Vertices[i].Pos)
				bx, by := t.project(p.Vertices[i+1].Pos)
				dx, dy := bx-ax, by-ay
				l := float32(math.Hypot(float64(dx), float64(dy)))
				if l == 0 {
					continue
				}
				nx, ny := -dy/l*width, dx/l*width
				fillPolygon(img, p.Vertices[i].Color, []float32{
					ax + nx, ay + ny, bx + nx, by + ny, bx - nx, by - ny, ax - nx, ay - ny,
				})
			}
		case DU_DRAW_POINTS:
			r := max(p.Size, 1) / 2
			for _, v := range p.Vertices {
				x, y := t.project(v.Pos)
				fillPolygon(img, v.Color, []float32{x - r, y - r, x + r, y - r, x + r, y + r, x - r, y + r})
			}
		}
	}
	return png.Encode(w, img)
}

// fillPolygon rasterizes the closed polygon pts (x,y pairs) over dst.
// The rasterizer only covers the polygon bounds.
func fillPolygon(dst *image.NRGBA, col Colorb, pts []float32) {
	minx, miny := pts[0], pts[1]
	maxx, maxy := minx, miny
	for i := 2; i+1 < len(pts); i += 2 {
		minx, maxx = min(minx, pts[i]), max(maxx, pts[i])
		miny, maxy = min(miny, pts[i+1]), max(maxy, pts[i+1])
	}
	r := image.Rect(int(math.Floor(float64(minx))), int(math.Floor(float64(miny))),
		int(math.Ceil(float64(maxx)))+1, int(math.Ceil(float64(maxy)))+1).Intersect(dst.Bounds())
	if r.Empty() {
		return
	}
	// Parts outside the image are flattened onto its border.
	w, h := float32(r.Dx()), float32(r.Dy())
	ox, oy := float32(r.Min.X), float32(r.Min.Y)
	z := vector.NewRasterizer(r.Dx(), r.Dy())
	z.DrawOp = draw.Over
	for i := 0; i+1 < len(pts); i += 2 {
		x := min(max(pts[i]-ox, 0), w)
		y := min(max(pts[i+1]-oy, 0), h)
		if i == 0 {
			z.MoveTo(x, y)
		} else {
			z.LineTo(x, y)
		}
	}
	z.ClosePath()
	z.Draw(dst, r, image.NewUniform(col.NRGBA()), image.Point{})
}
