package debug_utils

import (
	"github.com/gorustyt/navbind/recast"
)

func spanColor(area uint8, walkable, null Colorb) Colorb {
	switch area {
	case recast.RC_WALKABLE_AREA:
		return walkable
	case recast.RC_NULL_AREA:
		return null
	}
	return AreaToCol(area)
}

func DuDebugDrawHeightfieldSolid(dd DuDebugDraw, hf *recast.RcHeightfield) {
	if dd == nil || hf == nil {
		return
	}
	orig := hf.Bmin
	cs, ch := hf.Cs, hf.Ch

	fcol := make([]Colorb, 6)
	DuCalcBoxColors(fcol, DuRGBA(255, 255, 255, 255), DuRGBA(255, 255, 255, 255))

	dd.Begin(DU_DRAW_QUADS)
	for y := int32(0); y < hf.Height; y++ {
		for x := int32(0); x < hf.Width; x++ {
			fx := orig[0] + float32(x)*cs
			fz := orig[2] + float32(y)*cs
			for s := hf.Spans[x+y*hf.Width]; s != nil; s = s.Next {
				DuAppendBox(dd, fx, orig[1]+float32(s.Smin)*ch, fz, fx+cs, orig[1]+float32(s.Smax)*ch, fz+cs, fcol)
			}
		}
	}
	dd.End()
}

// / Like DuDebugDrawHeightfieldSolid with the top face colored by span area.
func DuDebugDrawHeightfieldWalkable(dd DuDebugDraw, hf *recast.RcHeightfield) {
	if dd == nil || hf == nil {
		return
	}
	orig := hf.Bmin
	cs, ch := hf.Cs, hf.Ch

	fcol := make([]Colorb, 6)
	DuCalcBoxColors(fcol, DuRGBA(255, 255, 255, 255), DuRGBA(217, 217, 217, 255))

	dd.Begin(DU_DRAW_QUADS)
	for y := int32(0); y < hf.Height; y++ {
		for x := int32(0); x < hf.Width; x++ {
			fx := orig[0] + float32(x)*cs
			fz := orig[2] + float32(y)*cs
			for s := hf.Spans[x+y*hf.Width]; s != nil; s = s.Next {
				fcol[0] = spanColor(s.Area, DuRGBA(64, 128, 160, 255), DuRGBA(64, 64, 64, 255))
				DuAppendBox(dd, fx, orig[1]+float32(s.Smin)*ch, fz, fx+cs, orig[1]+float32(s.Smax)*ch, fz+cs, fcol)
			}
		}
	}
	dd.End()
}

func DuDebugDrawCompactHeightfieldSolid(dd DuDebugDraw, chf *recast.RcCompactHeightfield) {
	if dd == nil || chf == nil {
		return
	}
	cs, ch := chf.Cs, chf.Ch

	dd.Begin(DU_DRAW_QUADS)
	for y := int32(0); y < chf.Height; y++ {
		for x := int32(0); x < chf.Width; x++ {
			fx := chf.Bmin[0] + float32(x)*cs
			fz := chf.Bmin[2] + float32(y)*cs
			c := chf.Cells[x+y*chf.Width]
			for i := c.Index; i < c.Index+c.Count; i++ {
				color := spanColor(chf.Areas[i], DuRGBA(0, 192, 255, 64), DuRGBA(0, 0, 0, 64))
				fy := chf.Bmin[1] + float32(chf.Spans[i].Y+1)*ch
				dd.Vertex1(fx, fy, fz, color)
				dd.Vertex1(fx, fy, fz+cs, color)
				dd.Vertex1(fx+cs, fy, fz+cs, color)
				dd.Vertex1(fx+cs, fy, fz, color)
			}
		}
	}
	dd.End()
}

func DuDebugDrawContours(dd DuDebugDraw, cset *recast.RcContourSet, alphas ...float32) {
	if dd == nil || cset == nil {
		return
	}
	alpha := float32(1.0)
	if len(alphas) > 0 {
		alpha = alphas[0]
	}
	orig := cset.Bmin
	cs, ch := cset.Cs, cset.Ch
	a := int(alpha * 255.0)

	dd.Begin(DU_DRAW_LINES, 2.5)
	for i, c := range cset.Conts {
		if c.Nverts == 0 {
			continue
		}
		lift := int32(1 + i&1)
		color := DuIntToCol(int(c.Reg), a)
		bcolor := DuLerpCol(color, DuRGBA(255, 255, 255, a), 128)
		for j, k := int32(0), c.Nverts-1; j < c.Nverts; k, j = j, j+1 {
			va := c.Verts[k*4:]
			vb := c.Verts[j*4:]
			col := color
			if va[3]&recast.RC_AREA_BORDER != 0 {
				col = bcolor
			}
			dd.Vertex1(orig[0]+float32(va[0])*cs, orig[1]+float32(va[1]+lift)*ch, orig[2]+float32(va[2])*cs, col)
			dd.Vertex1(orig[0]+float32(vb[0])*cs, orig[1]+float32(vb[1]+lift)*ch, orig[2]+float32(vb[2])*cs, col)
		}
	}
	dd.End()

	dd.Begin(DU_DRAW_POINTS, 3.0)
	for i, c := range cset.Conts {
		lift := int32(1 + i&1)
		color := DuDarkenCol(DuIntToCol(int(c.Reg), a))
		for j := int32(0); j < c.Nverts; j++ {
			v := c.Verts[j*4:]
			off := float32(0)
			colv := color
			if v[3]&recast.RC_BORDER_VERTEX != 0 {
				colv = DuRGBA(255, 255, 255, a)
				off = ch * 2
			}
			dd.Vertex1(orig[0]+float32(v[0])*cs, orig[1]+float32(v[1]+lift)*ch+off, orig[2]+float32(v[2])*cs, colv)
		}
	}
	dd.End()
}

func DuDebugDrawPolyMesh(dd DuDebugDraw, mesh *recast.RcPolyMesh) {
	if dd == nil || mesh == nil {
		return
	}
	nvp := mesh.Nvp
	cs, ch := mesh.Cs, mesh.Ch
	orig := mesh.Bmin
	vertex := func(vi uint16, off float32, col Colorb) {
		v := mesh.Verts[int(vi)*3:]
		dd.Vertex1(orig[0]+float32(v[0])*cs, orig[1]+float32(v[1]+1)*ch+off, orig[2]+float32(v[2])*cs, col)
	}

	dd.Begin(DU_DRAW_TRIS)
	for i := int32(0); i < mesh.Npolys; i++ {
		p := mesh.Poly(i)
		color := spanColor(mesh.Areas[i], DuRGBA(0, 192, 255, 64), DuRGBA(0, 0, 0, 64))
		for j := int32(2); j < nvp; j++ {
			if p[j] == recast.RC_MESH_NULL_IDX {
				break
			}
			vertex(p[0], 0, color)
			vertex(p[j-1], 0, color)
			vertex(p[j], 0, color)
		}
	}
	dd.End()

	// Neighbour edges are thin, boundary edges thick. Portal edges are white.
	edges := func(boundary bool, width float32, col Colorb) {
		dd.Begin(DU_DRAW_LINES, width)
		for i := int32(0); i < mesh.Npolys; i++ {
			p := mesh.Poly(i)
			for j := int32(0); j < nvp; j++ {
				if p[j] == recast.RC_MESH_NULL_IDX {
					break
				}
				if (p[nvp+j]&0x8000 != 0) != boundary {
					continue
				}
				nj := j + 1
				if nj >= nvp || p[nj] == recast.RC_MESH_NULL_IDX {
					nj = 0
				}
				c := col
				if boundary && p[nvp+j]&0xf != 0xf {
					c = DuRGBA(255, 255, 255, 128)
				}
				vertex(p[j], 0.1, c)
				vertex(p[nj], 0.1, c)
			}
		}
		dd.End()
	}
	edges(false, 1.5, DuRGBA(0, 48, 64, 32))
	edges(true, 2.5, DuRGBA(0, 48, 64, 220))

	dd.Begin(DU_DRAW_POINTS, 3.0)
	colv := DuRGBA(0, 0, 0, 220)
	for i := int32(0); i < mesh.Nverts; i++ {
		vertex(uint16(i), 0.1, colv)
	}
	dd.End()
}

func DuDebugDrawPolyMeshDetail(dd DuDebugDraw, dmesh *recast.RcPolyMeshDetail) {
	if dd == nil || dmesh == nil {
		return
	}
	dd.Begin(DU_DRAW_TRIS)
	for i := int32(0); i < dmesh.Nmeshes; i++ {
		m := dmesh.Meshes[i*4:]
		verts := dmesh.Verts[m[0]*3:]
		tris := dmesh.Tris[m[2]*4:]
		color := DuIntToCol(int(i), 192)
		for j := uint32(0); j < m[3]; j++ {
			for k := uint32(0); k < 3; k++ {
				dd.Vertex(verts[int(tris[j*4+k])*3:], color)
			}
		}
	}
	dd.End()

	// External edges.
	dd.Begin(DU_DRAW_LINES, 2.0)
	cole := DuRGBA(0, 0, 0, 64)
	for i := int32(0); i < dmesh.Nmeshes; i++ {
		m := dmesh.Meshes[i*4:]
		verts := dmesh.Verts[m[0]*3:]
		tris := dmesh.Tris[m[2]*4:]
		for j := uint32(0); j < m[3]; j++ {
			t := tris[j*4:]
			for k, kp := 0, 2; k < 3; kp, k = k, k+1 {
				if (t[3]>>(kp*2))&0x3 != 0 {
					dd.Vertex(verts[int(t[kp])*3:], cole)
					dd.Vertex(verts[int(t[k])*3:], cole)
				}
			}
		}
	}
	dd.End()
}
