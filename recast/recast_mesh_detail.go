package recast

import (
	"math"

	"github.com/gorustyt/navbind/common"
)

// / Detail triangle edge flag: the edge lies on the boundary of the source polygon.
const RC_DETAIL_EDGE_BOUNDARY = 0x01

// / Contains triangle meshes that represent detailed height data associated
// / with the polygons in its associated polygon mesh object.
// / @ingroup recast
type RcPolyMeshDetail struct {
	Meshes  []uint32  ///< The sub-mesh data. [Size: 4*#nmeshes]
	Verts   []float32 ///< The mesh vertices. [Size: 3*#nverts]
	Tris    []uint8   ///< The mesh triangles. [Size: 4*#ntris]
	Nmeshes int32     ///< The number of sub-meshes defined by #meshes.
	Nverts  int32     ///< The number of vertices in #verts.
	Ntris   int32     ///< The number of triangles in #tris.
}

// sampleHeight returns the compact span height closest to hint at the
// field space position (fx,fz), or false when the column is empty.
func sampleHeight(chf *RcCompactHeightfield, fx, fz float32, hint int32) (int32, bool) {
	ix := int32(math.Floor(float64(fx/chf.Cs))) + chf.BorderSize
	iz := int32(math.Floor(float64(fz/chf.Cs))) + chf.BorderSize
	if ix < 0 || iz < 0 || ix >= chf.Width || iz >= chf.Height {
		return 0, false
	}
	c := chf.Cells[ix+iz*chf.Width]
	best := int32(-1)
	bestDist := int32(math.MaxInt32)
	for i := c.Index; i < c.Index+c.Count; i++ {
		if d := common.Abs(chf.Spans[i].Y - hint); d < bestDist {
			bestDist = d
			best = chf.Spans[i].Y
		}
	}
	return best, best >= 0
}

func fanEdgeFlags(a, b, n int32) uint8 {
	if a >= n || b >= n {
		return 0
	}
	if common.Next(a, n) == b || common.Next(b, n) == a {
		return RC_DETAIL_EDGE_BOUNDARY
	}
	return 0
}

func triFlags(a, b, c, n int32) uint8 {
	return fanEdgeFlags(a, b, n) | fanEdgeFlags(b, c, n)<<2 | fanEdgeFlags(c, a, n)<<4
}

// / Builds a detail mesh from the provided polygon mesh.
// /
// / The polygon vertices are kept. When @p sampleDist is positive, the height at the
// / polygon centroid is sampled from the compact heightfield and added as an extra vertex
// / if it deviates from the polygon more than @p sampleMaxError.
func RcBuildPolyMeshDetail(ctx *RcContext, mesh *RcPolyMesh, chf *RcCompactHeightfield, sampleDist, sampleMaxError float32) (*RcPolyMeshDetail, bool) {
	ctx.StartTimer(RC_TIMER_BUILD_POLYMESHDETAIL)
	defer ctx.StopTimer(RC_TIMER_BUILD_POLYMESHDETAIL)

	dmesh := &RcPolyMeshDetail{
		Meshes: make([]uint32, 0, mesh.Npolys*4),
	}
	if mesh.Nverts == 0 || mesh.Npolys == 0 {
		return dmesh, true
	}

	nvp := mesh.Nvp
	cs := mesh.Cs
	ch := mesh.Ch
	orig := mesh.Bmin
	poly := make([]float32, (nvp+1)*3)

	for i := int32(0); i < mesh.Npolys; i++ {
		p := mesh.Poly(i)
		npoly := countPolyVerts(p, nvp)
		var centroid [3]float32
		for j := int32(0); j < npoly; j++ {
			v := common.GetVert3(mesh.Verts, int32(p[j]))
			pv := common.GetVert3(poly, j)
			pv[0] = float32(v[0]) * cs
			pv[1] = float32(v[1]) * ch
			pv[2] = float32(v[2]) * cs
			common.Vadd(centroid[:], centroid[:], pv)
		}
		common.Vscale(centroid[:], centroid[:], 1/float32(npoly))
		nverts := npoly

		if sampleDist > 0 {
			hint := int32(centroid[1] / ch)
			if h, ok := sampleHeight(chf, centroid[0], centroid[2], hint); ok {
				sy := float32(h) * ch
				if common.Abs(sy-centroid[1]) > sampleMaxError {
					centroid[1] = sy
					copy(common.GetVert3(poly, npoly), centroid[:])
					nverts++
				}
			}
		}

		vertBase := dmesh.Nverts
		triBase := dmesh.Ntris
		// Move detail verts to world space.
		for j := int32(0); j < nverts; j++ {
			v := common.GetVert3(poly, j)
			dmesh.Verts = append(dmesh.Verts, v[0]+orig[0], v[1]+orig[1]+ch, v[2]+orig[2])
		}
		dmesh.Nverts += nverts

		if nverts > npoly {
			// Fan around the sampled centroid.
			for j := int32(0); j < npoly; j++ {
				a, b, c := npoly, j, common.Next(j, npoly)
				dmesh.Tris = append(dmesh.Tris, uint8(a), uint8(b), uint8(c), triFlags(a, b, c, npoly))
				dmesh.Ntris++
			}
		} else {
			for j := int32(2); j < npoly; j++ {
				a, b, c := int32(0), j-1, j
				dmesh.Tris = append(dmesh.Tris, uint8(a), uint8(b), uint8(c), triFlags(a, b, c, npoly))
				dmesh.Ntris++
			}
		}
		dmesh.Meshes = append(dmesh.Meshes, uint32(vertBase), uint32(nverts), uint32(triBase), uint32(dmesh.Ntris-triBase))
		dmesh.Nmeshes++
	}
	return dmesh, true
}
