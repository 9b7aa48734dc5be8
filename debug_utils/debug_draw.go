package debug_utils

import (
	"math"
)

type DuDebugDrawPrimitives int

const (
	DU_DRAW_POINTS DuDebugDrawPrimitives = iota
	DU_DRAW_LINES
	DU_DRAW_TRIS
	DU_DRAW_QUADS
)

// / Abstract debug draw interface.
type DuDebugDraw interface {
	DepthMask(state bool)

	Texture(state bool)

	/// Begin drawing primitives.
	///  @param prim [in] primitive type to draw, one of DuDebugDrawPrimitives.
	///  @param size [in] size of a primitive, applies to point size and line width only. Defaults to 1.
	Begin(prim DuDebugDrawPrimitives, size ...float32)

	/// Submit a vertex
	///  @param pos [in] position of the verts.
	///  @param color [in] color of the verts.
	Vertex(pos []float32, color Colorb)

	/// Submit a vertex
	///  @param x,y,z [in] position of the verts.
	///  @param color [in] color of the verts.
	Vertex1(x, y, z float32, color Colorb)

	/// End drawing primitives.
	End()
}

type DebugVertex struct {
	Pos   [3]float32
	Color Colorb
}

// / One batch of vertices. Quads are stored as triangles.
type Primitive struct {
	Type     DuDebugDrawPrimitives
	Size     float32
	Vertices []DebugVertex
}

// / PrimitiveCollector records everything drawn into it, for export or offline rendering.
type PrimitiveCollector struct {
	Primitives []Primitive

	cur       *Primitive
	depthMask bool
}

func NewPrimitiveCollector() *PrimitiveCollector {
	return &PrimitiveCollector{depthMask: true}
}

func (c *PrimitiveCollector) DepthMask(state bool) { c.depthMask = state }
func (c *PrimitiveCollector) Texture(bool)         {}

func (c *PrimitiveCollector) Begin(prim DuDebugDrawPrimitives, size ...float32) {
	s := float32(1)
	if len(size) > 0 {
		s = size[0]
	}
	c.cur = &Primitive{Type: prim, Size: s}
}

func (c *PrimitiveCollector) Vertex(pos []float32, color Colorb) {
	c.Vertex1(pos[0], pos[1], pos[2], color)
}

func (c *PrimitiveCollector) Vertex1(x, y, z float32, color Colorb) {
	if c.cur == nil {
		return
	}
	c.cur.Vertices = append(c.cur.Vertices, DebugVertex{Pos: [3]float32{x, y, z}, Color: color})
}

func (c *PrimitiveCollector) End() {
	p := c.cur
	c.cur = nil
	if p == nil || len(p.Vertices) == 0 {
		return
	}
	if p.Type == DU_DRAW_QUADS {
		tris := make([]DebugVertex, 0, len(p.Vertices)/4*6)
		for i := 0; i+3 < len(p.Vertices); i += 4 {
			q := p.Vertices[i : i+4]
			tris = append(tris, q[0], q[1], q[2], q[0], q[2], q[3])
		}
		p.Type, p.Vertices = DU_DRAW_TRIS, tris
	}
	c.Primitives = append(c.Primitives, *p)
}

// / Number of vertices recorded for primitives of type prim.
func (c *PrimitiveCollector) Count(prim DuDebugDrawPrimitives) int {
	n := 0
	for _, p := range c.Primitives {
		if p.Type == prim {
			n += len(p.Vertices)
		}
	}
	return n
}

// / XZ bounds of all recorded vertices.
func (c *PrimitiveCollector) Bounds() (bmin, bmax [3]float32, ok bool) {
	for _, p := range c.Primitives {
		for _, v := range p.Vertices {
			if !ok {
				bmin, bmax, ok = v.Pos, v.Pos, true
				continue
			}
			for k := 0; k < 3; k++ {
				bmin[k] = min(bmin[k], v.Pos[k])
				bmax[k] = max(bmax[k], v.Pos[k])
			}
		}
	}
	return
}

func DuDebugDrawCylinderWire(dd DuDebugDraw, minx, miny, minz,
	maxx, maxy, maxz float32, col Colorb, lineWidth float32) {
	if dd == nil {
		return
	}
	dd.Begin(DU_DRAW_LINES, lineWidth)
	DuAppendCylinderWire(dd, minx, miny, minz, maxx, maxy, maxz, col)
	dd.End()
}

func DuDebugDrawBoxWire(dd DuDebugDraw, minx, miny, minz,
	maxx, maxy, maxz float32, col Colorb, lineWidth float32) {
	if dd == nil {
		return
	}
	dd.Begin(DU_DRAW_LINES, lineWidth)
	DuAppendBoxWire(dd, minx, miny, minz, maxx, maxy, maxz, col)
	dd.End()
}

func DuDebugDrawCross(dd DuDebugDraw, x, y, z,
	size float32, col Colorb, lineWidth float32) {
	if dd == nil {
		return
	}
	dd.Begin(DU_DRAW_LINES, lineWidth)
	DuAppendCross(dd, x, y, z, size, col)
	dd.End()
}

func circleDirs(n int) []float32 {
	dir := make([]float32, n*2)
	for i := 0; i < n; i++ {
		a := float64(i) / float64(n) * math.Pi * 2
		dir[i*2] = float32(math.Cos(a))
		dir[i*2+1] = float32(math.Sin(a))
	}
	return dir
}

var (
	cylinderDirs = circleDirs(16)
	circleDirs40 = circleDirs(40)
)

func DuAppendCylinderWire(dd DuDebugDraw, minx, miny, minz,
	maxx, maxy, maxz float32, col Colorb) {
	const numSeg = 16
	dir := cylinderDirs

	cx := (maxx + minx) / 2
	cz := (maxz + minz) / 2
	rx := (maxx - minx) / 2
	rz := (maxz - minz) / 2

	for i, j := 0, numSeg-1; i < numSeg; j, i = i, i+1 {
		dd.Vertex1(cx+dir[j*2+0]*rx, miny, cz+dir[j*2+1]*rz, col)
		dd.Vertex1(cx+dir[i*2+0]*rx, miny, cz+dir[i*2+1]*rz, col)
		dd.Vertex1(cx+dir[j*2+0]*rx, maxy, cz+dir[j*2+1]*rz, col)
		dd.Vertex1(cx+dir[i*2+0]*rx, maxy, cz+dir[i*2+1]*rz, col)
	}
	for i := 0; i < numSeg; i += numSeg / 4 {
		dd.Vertex1(cx+dir[i*2+0]*rx, miny, cz+dir[i*2+1]*rz, col)
		dd.Vertex1(cx+dir[i*2+0]*rx, maxy, cz+dir[i*2+1]*rz, col)
	}
}

func DuAppendBoxWire(dd DuDebugDraw, minx, miny, minz, maxx, maxy, maxz float32, col Colorb) {
	// Top
	dd.Vertex1(minx, miny, minz, col)
	dd.Vertex1(maxx, miny, minz, col)
	dd.Vertex1(maxx, miny, minz, col)
	dd.Vertex1(maxx, miny, maxz, col)
	dd.Vertex1(maxx, miny, maxz, col)
	dd.Vertex1(minx, miny, maxz, col)
	dd.Vertex1(minx, miny, maxz, col)
	dd.Vertex1(minx, miny, minz, col)

	// bottom
	dd.Vertex1(minx, maxy, minz, col)
	dd.Vertex1(maxx, maxy, minz, col)
	dd.Vertex1(maxx, maxy, minz, col)
	dd.Vertex1(maxx, maxy, maxz, col)
	dd.Vertex1(maxx, maxy, maxz, col)
	dd.Vertex1(minx, maxy, maxz, col)
	dd.Vertex1(minx, maxy, maxz, col)
	dd.Vertex1(minx, maxy, minz, col)

	// Sides
	dd.Vertex1(minx, miny, minz, col)
	dd.Vertex1(minx, maxy, minz, col)
	dd.Vertex1(maxx, miny, minz, col)
	dd.Vertex1(maxx, maxy, minz, col)
	dd.Vertex1(maxx, miny, maxz, col)
	dd.Vertex1(maxx, maxy, maxz, col)
	dd.Vertex1(minx, miny, maxz, col)
	dd.Vertex1(minx, maxy, maxz, col)
}

// / Appends the six faces of a box as quads, one color per face.
func DuAppendBox(dd DuDebugDraw, minx, miny, minz,
	maxx, maxy, maxz float32, fcol []Colorb) {
	verts := [8 * 3]float32{
		minx, miny, minz,
		maxx, miny, minz,
		maxx, miny, maxz,
		minx, miny, maxz,
		minx, maxy, minz,
		maxx, maxy, minz,
		maxx, maxy, maxz,
		minx, maxy, maxz,
	}
	inds := [6 * 4]int{
		7, 6, 5, 4,
		0, 1, 2, 3,
		1, 5, 6, 2,
		3, 7, 4, 0,
		2, 6, 7, 3,
		0, 4, 5, 1,
	}
	for i := 0; i < 6; i++ {
		for k := 0; k < 4; k++ {
			dd.Vertex(verts[inds[i*4+k]*3:], fcol[i])
		}
	}
}

func DuAppendCircle(dd DuDebugDraw, x, y, z,
	r float32, col Colorb) {
	const numSeg = 40
	dir := circleDirs40
	for i, j := 0, numSeg-1; i < numSeg; j, i = i, i+1 {
		dd.Vertex1(x+dir[j*2+0]*r, y, z+dir[j*2+1]*r, col)
		dd.Vertex1(x+dir[i*2+0]*r, y, z+dir[i*2+1]*r, col)
	}
}

func DuAppendCross(dd DuDebugDraw, x, y, z,
	s float32, col Colorb) {
	dd.Vertex1(x-s, y, z, col)
	dd.Vertex1(x+s, y, z, col)
	dd.Vertex1(x, y-s, z, col)
	dd.Vertex1(x, y+s, z, col)
	dd.Vertex1(x, y, z-s, col)
	dd.Vertex1(x, y, z+s, col)
}
