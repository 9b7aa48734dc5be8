package debug_utils

import (
	"github.com/gorustyt/navbind/detour"
	dtc "github.com/gorustyt/navbind/detour_tile_cache"
)

const (
	DU_DRAWNAVMESH_CLOSEDLIST  = 0x02
	DU_DRAWNAVMESH_COLOR_TILES = 0x04
)

func distancePtLine2d(pt, p, q []float32) float32 {
	pqx := q[0] - p[0]
	pqz := q[2] - p[2]
	dx := pt[0] - p[0]
	dz := pt[2] - p[2]
	d := pqx*pqx + pqz*pqz
	t := pqx*dx + pqz*dz
	if d != 0 {
		t /= d
	}
	dx = p[0] + t*pqx - pt[0]
	dz = p[2] + t*pqz - pt[2]
	return dx*dx + dz*dz
}

func detailTriVert(tile *detour.DtMeshTile, p *detour.DtPoly, pd *detour.DtPolyDetail, v uint8) []float32 {
	if v < p.VertCount {
		return tile.Verts[int(p.Verts[v])*3:]
	}
	return tile.DetailVerts[int(pd.VertBase+uint32(v-p.VertCount))*3:]
}

func drawPolyBoundaries(dd DuDebugDraw, tile *detour.DtMeshTile, col Colorb, linew float32, inner bool) {
	const thr = 0.01 * 0.01

	dd.Begin(DU_DRAW_LINES, linew)
	for i := int32(0); i < tile.Header.PolyCount; i++ {
		p := &tile.Polys[i]
		if p.GetType() == detour.DT_POLYTYPE_OFFMESH_CONNECTION {
			continue
		}
		pd := &tile.DetailMeshes[i]
		nj := int32(p.VertCount)
		for j := int32(0); j < nj; j++ {
			c := col
			if inner {
				if p.Neis[j] == 0 {
					continue
				}
				if p.Neis[j]&detour.DT_EXT_LINK != 0 {
					con := false
					for k := p.FirstLink; k != detour.DT_NULL_LINK; k = tile.Links[k].Next {
						if int32(tile.Links[k].Edge) == j {
							con = true
							break
						}
					}
					if con {
						c = DuRGBA(255, 255, 255, 48)
					} else {
						c = DuRGBA(0, 0, 0, 48)
					}
				} else {
					c = DuRGBA(0, 48, 64, 32)
				}
			} else if p.Neis[j] != 0 {
				continue
			}

			v0 := tile.Verts[int(p.Verts[j])*3:]
			v1 := tile.Verts[int(p.Verts[(j+1)%nj])*3:]

			// Draw detail mesh edges which align with the actual poly edge.
			for k := uint32(0); k < uint32(pd.TriCount); k++ {
				t := tile.DetailTris[(pd.TriBase+k)*4:]
				var tv [3][]float32
				for m := 0; m < 3; m++ {
					tv[m] = detailTriVert(tile, p, pd, t[m])
				}
				for m, n := int32(0), int32(2); m < 3; n, m = m, m+1 {
					if detour.DtGetDetailTriEdgeFlags(t[3], n)&detour.DT_DETAIL_EDGE_BOUNDARY == 0 {
						continue
					}
					if distancePtLine2d(tv[n], v0, v1) < thr && distancePtLine2d(tv[m], v0, v1) < thr {
						dd.Vertex(tv[n], c)
						dd.Vertex(tv[m], c)
					}
				}
			}
		}
	}
	dd.End()
}

func drawMeshTile(dd DuDebugDraw, mesh *detour.DtNavMesh, query *detour.DtNavMeshQuery, tile *detour.DtMeshTile, flags int) {
	base := mesh.GetPolyRefBase(tile)
	_, tileNum, _ := mesh.DecodePolyId(base)
	tileColor := DuIntToCol(int(tileNum), 128)

	dd.DepthMask(false)

	dd.Begin(DU_DRAW_TRIS)
	for i := int32(0); i < tile.Header.PolyCount; i++ {
		p := &tile.Polys[i]
		if p.GetType() == detour.DT_POLYTYPE_OFFMESH_CONNECTION {
			continue
		}
		pd := &tile.DetailMeshes[i]

		var col Colorb
		switch {
		case query != nil && query.IsInClosedList(base|detour.DtPolyRef(i)):
			col = DuRGBA(255, 196, 0, 64)
		case flags&DU_DRAWNAVMESH_COLOR_TILES != 0:
			col = tileColor
		default:
			col = DuTransCol(AreaToCol(p.GetArea()), 64)
		}

		for j := uint32(0); j < uint32(pd.TriCount); j++ {
			t := tile.DetailTris[(pd.TriBase+j)*4:]
			for k := 0; k < 3; k++ {
				dd.Vertex(detailTriVert(tile, p, pd, t[k]), col)
			}
		}
	}
	dd.End()

	// Draw inter poly boundaries
	drawPolyBoundaries(dd, tile, DuRGBA(0, 48, 64, 32), 1.5, true)

	// Draw outer poly boundaries
	drawPolyBoundaries(dd, tile, DuRGBA(0, 48, 64, 220), 2.5, false)

	vcol := DuRGBA(0, 0, 0, 196)
	dd.Begin(DU_DRAW_POINTS, 3.0)
	for i := int32(0); i < tile.Header.VertCount; i++ {
		dd.Vertex(tile.Verts[i*3:], vcol)
	}
	dd.End()

	dd.DepthMask(true)
}

func DuDebugDrawNavMesh(dd DuDebugDraw, mesh *detour.DtNavMesh, flags int) {
	DuDebugDrawNavMeshWithClosedList(dd, mesh, nil, flags)
}

// / Like DuDebugDrawNavMesh, highlighting the polygons the last search of query visited.
func DuDebugDrawNavMeshWithClosedList(dd DuDebugDraw, mesh *detour.DtNavMesh, query *detour.DtNavMeshQuery, flags int) {
	if dd == nil || mesh == nil {
		return
	}
	if flags&DU_DRAWNAVMESH_CLOSEDLIST == 0 {
		query = nil
	}
	for i := int32(0); i < mesh.GetMaxTiles(); i++ {
		tile := mesh.GetTile(i)
		if tile == nil || tile.Header == nil {
			continue
		}
		drawMeshTile(dd, mesh, query, tile, flags)
	}
}

func DuDebugDrawNavMeshPolysWithFlags(dd DuDebugDraw, mesh *detour.DtNavMesh, polyFlags uint16, col Colorb) {
	if dd == nil || mesh == nil {
		return
	}
	for i := int32(0); i < mesh.GetMaxTiles(); i++ {
		tile := mesh.GetTile(i)
		if tile == nil || tile.Header == nil {
			continue
		}
		base := mesh.GetPolyRefBase(tile)
		for j := int32(0); j < tile.Header.PolyCount; j++ {
			if tile.Polys[j].Flags&polyFlags == 0 {
				continue
			}
			DuDebugDrawNavMeshPoly(dd, mesh, base|detour.DtPolyRef(j), col)
		}
	}
}

func DuDebugDrawNavMeshPoly(dd DuDebugDraw, mesh *detour.DtNavMesh, ref detour.DtPolyRef, col Colorb) {
	if dd == nil {
		return
	}
	tile, poly, status := mesh.GetTileAndPolyByRef(ref)
	if status.Failed() || poly.GetType() == detour.DT_POLYTYPE_OFFMESH_CONNECTION {
		return
	}
	_, _, ip := mesh.DecodePolyId(ref)
	pd := &tile.DetailMeshes[ip]

	dd.DepthMask(false)
	c := DuTransCol(col, 64)
	dd.Begin(DU_DRAW_TRIS)
	for i := uint32(0); i < uint32(pd.TriCount); i++ {
		t := tile.DetailTris[(pd.TriBase+i)*4:]
		for j := 0; j < 3; j++ {
			dd.Vertex(detailTriVert(tile, poly, pd, t[j]), c)
		}
	}
	dd.End()
	dd.DepthMask(true)
}

// / Draws a straight path as a line strip with a cross on every corner.
func DuDebugDrawPath(dd DuDebugDraw, points []float32, col Colorb) {
	if dd == nil || len(points) < 3 {
		return
	}
	dd.Begin(DU_DRAW_LINES, 2.0)
	for i := 3; i+2 < len(points); i += 3 {
		dd.Vertex(points[i-3:], col)
		dd.Vertex(points[i:], col)
	}
	for i := 0; i+2 < len(points); i += 3 {
		DuAppendCross(dd, points[i], points[i+1]+0.1, points[i+2], 0.2, col)
	}
	dd.End()
}

// / Draws every live obstacle of the cache, colored by its state.
func DuDebugDrawTileCacheObstacles(dd DuDebugDraw, tc *dtc.DtTileCache) {
	if dd == nil || tc == nil {
		return
	}
	for _, ob := range tc.GetObstacles() {
		var col Colorb
		switch ob.State {
		case dtc.DT_OBSTACLE_PROCESSING:
			col = DuRGBA(255, 255, 0, 128)
		case dtc.DT_OBSTACLE_REMOVING:
			col = DuRGBA(220, 0, 0, 128)
		default:
			col = DuRGBA(255, 255, 255, 128)
		}
		bmin, bmax := tc.GetObstacleBounds(ob)
		switch ob.Type {
		case dtc.DT_OBSTACLE_CYLINDER:
			DuDebugDrawCylinderWire(dd, bmin[0], bmin[1], bmin[2], bmax[0], bmax[1], bmax[2], DuDarkenCol(col), 2)
		default:
			DuDebugDrawBoxWire(dd, bmin[0], bmin[1], bmin[2], bmax[0], bmax[1], bmax[2], DuDarkenCol(col), 2)
		}
	}
}
