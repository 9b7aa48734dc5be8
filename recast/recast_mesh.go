package recast

import (
	"github.com/gorustyt/navbind/common"
)

const VERTEX_BUCKET_COUNT = 1 << 12

// / Represents a polygon mesh suitable for use in building a navigation mesh.
// / @ingroup recast
type RcPolyMesh struct {
	Verts        []uint16   ///< The mesh vertices. [Form: (x, y, z) * #nverts]
	Polys        []uint16   ///< Polygon and neighbor data. [Length: #maxpolys * 2 * #nvp]
	Regs         []uint16   ///< The region id assigned to each polygon. [Length: #maxpolys]
	Flags        []uint16   ///< The user defined flags for each polygon. [Length: #maxpolys]
	Areas        []uint8    ///< The area id assigned to each polygon. [Length: #maxpolys]
	Nverts       int32      ///< The number of vertices.
	Npolys       int32      ///< The number of polygons.
	Maxpolys     int32      ///< The number of allocated polygons.
	Nvp          int32      ///< The maximum number of vertices per polygon.
	Bmin         [3]float32 ///< The minimum bounds in world space. [(x, y, z)]
	Bmax         [3]float32 ///< The maximum bounds in world space. [(x, y, z)]
	Cs           float32    ///< The size of each cell. (On the xz-plane.)
	Ch           float32    ///< The height of each cell. (The minimum increment along the y-axis.)
	BorderSize   int32      ///< The AABB border size used to generate the source data from which the mesh was derived.
	MaxEdgeError float32    ///< The max error of the polygon edges in the mesh.
}

// / Returns the vertex indices of polygon i. Unused slots hold #RC_MESH_NULL_IDX.
func (mesh *RcPolyMesh) Poly(i int32) []uint16 {
	return mesh.Polys[i*2*mesh.Nvp : i*2*mesh.Nvp+2*mesh.Nvp]
}

type rcEdge struct {
	vert     [2]uint16
	polyEdge [2]uint16
	poly     [2]uint16
}

func buildMeshAdjacency(polys []uint16, npolys, nverts, vertsPerPoly int32) {
	// Based on code by Eric Lengyel from:
	// https://web.archive.org/web/20080704083314/http://www.terathon.com/code/edges.php
	maxEdgeCount := npolys * vertsPerPoly
	firstEdge := make([]uint16, nverts)
	nextEdge := make([]uint16, maxEdgeCount)
	edges := make([]rcEdge, 0, maxEdgeCount)
	for i := range firstEdge {
		firstEdge[i] = RC_MESH_NULL_IDX
	}

	polyEdge := func(t []uint16, j int32) (v0, v1 uint16) {
		v0 = t[j]
		if j+1 >= vertsPerPoly || t[j+1] == RC_MESH_NULL_IDX {
			return v0, t[0]
		}
		return v0, t[j+1]
	}

	for i := int32(0); i < npolys; i++ {
		t := polys[i*vertsPerPoly*2:]
		for j := int32(0); j < vertsPerPoly; j++ {
			if t[j] == RC_MESH_NULL_IDX {
				break
			}
			v0, v1 := polyEdge(t, j)
			if v0 < v1 {
				// Insert edge
				nextEdge[len(edges)] = firstEdge[v0]
				firstEdge[v0] = uint16(len(edges))
				edges = append(edges, rcEdge{
					vert:     [2]uint16{v0, v1},
					poly:     [2]uint16{uint16(i), uint16(i)},
					polyEdge: [2]uint16{uint16(j), 0},
				})
			}
		}
	}

	for i := int32(0); i < npolys; i++ {
		t := polys[i*vertsPerPoly*2:]
		for j := int32(0); j < vertsPerPoly; j++ {
			if t[j] == RC_MESH_NULL_IDX {
				break
			}
			v0, v1 := polyEdge(t, j)
			if v0 <= v1 {
				continue
			}
			for e := firstEdge[v1]; e != RC_MESH_NULL_IDX; e = nextEdge[e] {
				edge := &edges[e]
				if edge.vert[1] == v0 && edge.poly[0] == edge.poly[1] {
					edge.poly[1] = uint16(i)
					edge.polyEdge[1] = uint16(j)
					break
				}
			}
		}
	}

	// Store adjacency
	for _, e := range edges {
		if e.poly[0] != e.poly[1] {
			p0 := polys[int32(e.poly[0])*vertsPerPoly*2:]
			p1 := polys[int32(e.poly[1])*vertsPerPoly*2:]
			p0[vertsPerPoly+int32(e.polyEdge[0])] = e.poly[1]
			p1[vertsPerPoly+int32(e.polyEdge[1])] = e.poly[0]
		}
	}
}

func computeVertexHash(x, y, z int32) int32 {
	const (
		h1 = 0x8da6b343 // Large multiplicative constants;
		h2 = 0xd8163841 // here arbitrarily chosen primes
		h3 = 0xcb1ab31f
	)
	n := uint32(h1*int64(x) + h2*int64(y) + h3*int64(z))
	return int32(n & (VERTEX_BUCKET_COUNT - 1))
}

type vertexWelder struct {
	verts     []uint16
	firstVert []int32
	nextVert  []int32
}

func newVertexWelder(maxVertices int32) *vertexWelder {
	w := &vertexWelder{
		verts:     make([]uint16, 0, maxVertices*3),
		firstVert: make([]int32, VERTEX_BUCKET_COUNT),
		nextVert:  make([]int32, 0, maxVertices),
	}
	for i := range w.firstVert {
		w.firstVert[i] = -1
	}
	return w
}

// add returns the index of the vertex at (x,y,z), creating it when no
// vertex within a height tolerance of 2 exists.
func (w *vertexWelder) add(x, y, z int32) uint16 {
	bucket := computeVertexHash(x, 0, z)
	for i := w.firstVert[bucket]; i != -1; i = w.nextVert[i] {
		v := common.GetVert3(w.verts, i)
		if int32(v[0]) == x && common.Abs(int32(v[1])-y) <= 2 && int32(v[2]) == z {
			return uint16(i)
		}
	}
	// Could not find, create new.
	i := int32(len(w.verts) / 3)
	w.verts = append(w.verts, uint16(x), uint16(y), uint16(z))
	w.nextVert = append(w.nextVert, w.firstVert[bucket])
	w.firstVert[bucket] = i
	return uint16(i)
}

func countPolyVerts(p []uint16, nvp int32) int32 {
	for i := int32(0); i < nvp; i++ {
		if p[i] == RC_MESH_NULL_IDX {
			return i
		}
	}
	return nvp
}

func uleft(verts []uint16, a, b, c uint16) bool {
	ax, az := int32(verts[int32(a)*3]), int32(verts[int32(a)*3+2])
	bx, bz := int32(verts[int32(b)*3]), int32(verts[int32(b)*3+2])
	cx, cz := int32(verts[int32(c)*3]), int32(verts[int32(c)*3+2])
	return (bx-ax)*(cz-az)-(cx-ax)*(bz-az) < 0
}

func getPolyMergeValue(pa, pb []uint16, verts []uint16, nvp int32) (value, ea, eb int32) {
	na := countPolyVerts(pa, nvp)
	nb := countPolyVerts(pb, nvp)

	// If the merged polygon would be too big, do not merge.
	if na+nb-2 > nvp {
		return -1, -1, -1
	}

	// Check if the polygons share an edge.
	ea, eb = -1, -1
	for i := int32(0); i < na && ea == -1; i++ {
		va0 := pa[i]
		va1 := pa[(i+1)%na]
		if va0 > va1 {
			va0, va1 = va1, va0
		}
		for j := int32(0); j < nb; j++ {
			vb0 := pb[j]
			vb1 := pb[(j+1)%nb]
			if vb0 > vb1 {
				vb0, vb1 = vb1, vb0
			}
			if va0 == vb0 && va1 == vb1 {
				ea = i
				eb = j
				break
			}
		}
	}

	// No common edge, cannot merge.
	if ea == -1 || eb == -1 {
		return -1, -1, -1
	}

	// Check to see if the merged polygon would be convex.
	if !uleft(verts, pa[(ea+na-1)%na], pa[ea], pb[(eb+2)%nb]) {
		return -1, -1, -1
	}
	if !uleft(verts, pb[(eb+nb-1)%nb], pb[eb], pa[(ea+2)%na]) {
		return -1, -1, -1
	}

	va := int32(pa[ea])
	vb := int32(pa[(ea+1)%na])
	dx := int32(verts[va*3]) - int32(verts[vb*3])
	dz := int32(verts[va*3+2]) - int32(verts[vb*3+2])
	return dx*dx + dz*dz, ea, eb
}

func mergePolyVerts(pa, pb []uint16, ea, eb int32, tmp []uint16, nvp int32) {
	na := countPolyVerts(pa, nvp)
	nb := countPolyVerts(pb, nvp)

	for i := int32(0); i < nvp; i++ {
		tmp[i] = RC_MESH_NULL_IDX
	}
	// Merge polygons.
	n := 0
	// Add pa
	for i := int32(0); i < na-1; i++ {
		tmp[n] = pa[(ea+1+i)%na]
		n++
	}
	// Add pb
	for i := int32(0); i < nb-1; i++ {
		tmp[n] = pb[(eb+1+i)%nb]
		n++
	}
	copy(pa[:nvp], tmp[:nvp])
}

// / Builds a polygon mesh from the provided contours.
// /
// / @note If the mesh data is to be used to construct a Detour navigation mesh, then the upper
// / limit must be restricted to <= #DT_VERTS_PER_POLYGON.
func RcBuildPolyMesh(ctx *RcContext, cset *RcContourSet, nvp int32) (*RcPolyMesh, bool) {
	ctx.StartTimer(RC_TIMER_BUILD_POLYMESH)
	defer ctx.StopTimer(RC_TIMER_BUILD_POLYMESH)

	mesh := &RcPolyMesh{
		Bmin:         cset.Bmin,
		Bmax:         cset.Bmax,
		Cs:           cset.Cs,
		Ch:           cset.Ch,
		BorderSize:   cset.BorderSize,
		MaxEdgeError: cset.MaxError,
		Nvp:          nvp,
	}

	maxVertices := int32(0)
	maxTris := int32(0)
	maxVertsPerCont := int32(0)
	for _, cont := range cset.Conts {
		// Skip null contours.
		if cont.Nverts < 3 {
			continue
		}
		maxVertices += cont.Nverts
		maxTris += cont.Nverts - 2
		maxVertsPerCont = max(maxVertsPerCont, cont.Nverts)
	}
	if maxVertices >= 0xfffe {
		ctx.Errorf("rcBuildPolyMesh: Too many vertices %d.", maxVertices)
		return nil, false
	}

	welder := newVertexWelder(maxVertices)
	mesh.Maxpolys = maxTris
	mesh.Polys = make([]uint16, 0, maxTris*nvp*2)
	mesh.Regs = make([]uint16, 0, maxTris)
	mesh.Areas = make([]uint8, 0, maxTris)

	indices := make([]int32, maxVertsPerCont)
	tris := make([]int32, maxVertsPerCont*3)
	polys := make([]uint16, (maxVertsPerCont+1)*nvp)
	tmpPoly := polys[maxVertsPerCont*nvp:]

	for i, cont := range cset.Conts {
		// Skip null contours.
		if cont.Nverts < 3 {
			continue
		}

		// Triangulate contour
		for j := int32(0); j < cont.Nverts; j++ {
			indices[j] = j
		}
		ntris := common.Triangulate(cont.Nverts, cont.Verts, indices[:cont.Nverts], tris)
		if ntris <= 0 {
			// Bad triangulation, should not happen.
			ctx.Warnf("rcBuildPolyMesh: Bad triangulation Contour %d.", i)
			ntris = -ntris
		}

		// Add and merge vertices.
		for j := int32(0); j < cont.Nverts; j++ {
			v := common.GetVert4(cont.Verts, j)
			indices[j] = int32(welder.add(v[0], v[1], v[2]))
		}

		// Build initial polygons.
		npolys := int32(0)
		for j := range polys[:maxVertsPerCont*nvp] {
			polys[j] = RC_MESH_NULL_IDX
		}
		for j := int32(0); j < ntris; j++ {
			t := common.GetVert3(tris, j)
			if t[0] != t[1] && t[0] != t[2] && t[1] != t[2] {
				polys[npolys*nvp+0] = uint16(indices[t[0]])
				polys[npolys*nvp+1] = uint16(indices[t[1]])
				polys[npolys*nvp+2] = uint16(indices[t[2]])
				npolys++
			}
		}
		if npolys == 0 {
			continue
		}

		// Merge polygons.
		if nvp > 3 {
			for {
				// Find best polygons to merge.
				bestMergeVal := int32(0)
				bestPa, bestPb, bestEa, bestEb := int32(0), int32(0), int32(0), int32(0)
				for j := int32(0); j < npolys-1; j++ {
					pj := polys[j*nvp : (j+1)*nvp]
					for k := j + 1; k < npolys; k++ {
						pk := polys[k*nvp : (k+1)*nvp]
						v, ea, eb := getPolyMergeValue(pj, pk, welder.verts, nvp)
						if v > bestMergeVal {
							bestMergeVal = v
							bestPa, bestPb, bestEa, bestEb = j, k, ea, eb
						}
					}
				}
				if bestMergeVal <= 0 {
					// Could not merge any polygons, stop.
					break
				}
				// Found best, merge.
				pa := polys[bestPa*nvp : (bestPa+1)*nvp]
				pb := polys[bestPb*nvp : (bestPb+1)*nvp]
				mergePolyVerts(pa, pb, bestEa, bestEb, tmpPoly, nvp)
				last := polys[(npolys-1)*nvp : npolys*nvp]
				if bestPb != npolys-1 {
					copy(pb, last)
				}
				npolys--
			}
		}

		// Store polygons.
		for j := int32(0); j < npolys; j++ {
			mesh.Polys = append(mesh.Polys, polys[j*nvp:(j+1)*nvp]...)
			for k := int32(0); k < nvp; k++ {
				mesh.Polys = append(mesh.Polys, RC_MESH_NULL_IDX)
			}
			mesh.Regs = append(mesh.Regs, cont.Reg)
			mesh.Areas = append(mesh.Areas, cont.Area)
			mesh.Npolys++
		}
	}

	mesh.Verts = welder.verts
	mesh.Nverts = int32(len(welder.verts) / 3)
	mesh.Maxpolys = mesh.Npolys
	mesh.Flags = make([]uint16, mesh.Npolys)

	// Calculate adjacency.
	buildMeshAdjacency(mesh.Polys, mesh.Npolys, mesh.Nverts, nvp)

	// Find portal edges
	if mesh.BorderSize > 0 {
		RcMarkPortalEdges(mesh, cset.Width, cset.Height)
	}

	if mesh.Nverts > 0xffff {
		ctx.Errorf("rcBuildPolyMesh: The resulting mesh has too many vertices %d (max %d). Data can be corrupted.", mesh.Nverts, 0xffff)
	}
	if mesh.Npolys > 0xfffe {
		ctx.Errorf("rcBuildPolyMesh: The resulting mesh has too many polygons %d (max %d). Data can be corrupted.", mesh.Npolys, 0xfffe)
	}
	return mesh, true
}

// / Flags the open polygon edges lying on the tile bounds [0, w] x [0, h]
// / as portals (0x8000 | side), so Detour can link them to neighbour tiles.
func RcMarkPortalEdges(mesh *RcPolyMesh, w, h int32) {
	nvp := mesh.Nvp
	uw := uint16(w)
	uh := uint16(h)
	for i := int32(0); i < mesh.Npolys; i++ {
		p := mesh.Poly(i)
		for j := int32(0); j < nvp; j++ {
			if p[j] == RC_MESH_NULL_IDX {
				break
			}
			// Skip connected edges.
			if p[nvp+j] != RC_MESH_NULL_IDX {
				continue
			}
			nj := j + 1
			if nj >= nvp || p[nj] == RC_MESH_NULL_IDX {
				nj = 0
			}
			va := common.GetVert3(mesh.Verts, int32(p[j]))
			vb := common.GetVert3(mesh.Verts, int32(p[nj]))
			switch {
			case va[0] == 0 && vb[0] == 0:
				p[nvp+j] = 0x8000 | 0
			case va[2] == uh && vb[2] == uh:
				p[nvp+j] = 0x8000 | 1
			case va[0] == uw && vb[0] == uw:
				p[nvp+j] = 0x8000 | 2
			case va[2] == 0 && vb[2] == 0:
				p[nvp+j] = 0x8000 | 3
			}
		}
	}
}
