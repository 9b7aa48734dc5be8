package detour

import (
	"math"

	"github.com/gorustyt/navbind/common"
)

// / Derives the squared distance on the xz-plane between pt and segment pq,
// / along with the parametric position of the closest point.
func DtDistancePtSegSqr2D(pt, p, q []float32) (t float32, res float32) {
	pqx := q[0] - p[0]
	pqz := q[2] - p[2]
	dx := pt[0] - p[0]
	dz := pt[2] - p[2]
	d := pqx*pqx + pqz*pqz
	t = pqx*dx + pqz*dz
	if d > 0 {
		t /= d
	}
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	dx = p[0] + t*pqx - pt[0]
	dz = p[2] + t*pqz - pt[2]
	return t, dx*dx + dz*dz
}

func dtDistancePtSegSqr(pt, p, q []float32) float32 {
	var pq, d [3]float32
	common.Vsub(pq[:], q, p)
	common.Vsub(d[:], pt, p)
	den := common.Vdot(pq[:], pq[:])
	t := common.Vdot(pq[:], d[:])
	if den > 0 {
		t /= den
	}
	t = common.Clamp(t, 0, 1)
	var c [3]float32
	common.Vmad(c[:], p, pq[:], t)
	return common.VdistSqr(c[:], pt)
}

func dtCalcPolyCenter(idx []uint16, nidx int32, verts []float32) (tc [3]float32) {
	for j := int32(0); j < nidx; j++ {
		v := common.GetVert3(verts, int32(idx[j]))
		tc[0] += v[0]
		tc[1] += v[1]
		tc[2] += v[2]
	}
	s := 1.0 / float32(nidx)
	tc[0] *= s
	tc[1] *= s
	tc[2] *= s
	return tc
}

func dtClosestHeightPointTriangle(p, a, b, c []float32) (h float32, ok bool) {
	const EPS = 1e-6
	var v0, v1, v2 [3]float32
	common.Vsub(v0[:], c, a)
	common.Vsub(v1[:], b, a)
	common.Vsub(v2[:], p, a)

	// Compute scaled barycentric coordinates
	denom := v0[0]*v1[2] - v0[2]*v1[0]
	if math.Abs(float64(denom)) < EPS {
		return h, false
	}
	u := v1[2]*v2[0] - v1[0]*v2[2]
	v := v0[0]*v2[2] - v0[2]*v2[0]

	if denom < 0 {
		denom = -denom
		u = -u
		v = -v
	}

	// If point lies inside the triangle, return interpolated ycoord.
	if u >= 0.0 && v >= 0.0 && (u+v) <= denom {
		h = a[1] + (v0[1]*u+v1[1]*v)/denom
		return h, true
	}
	return h, false
}

func dtOppositeTile(side int32) int32 { return (side + 4) & 0x7 }

// / Returns a random point in a convex polygon.
// / Adapted from Graphics Gems article.
func dtRandomPointInConvexPoly(pts []float32, npts int32, s, t float32) (pt [3]float32) {
	// Calc triangle areas
	areas := make([]float32, npts)
	areasum := float32(0.0)
	for i := int32(2); i < npts; i++ {
		areas[i] = common.Abs(common.TriArea2D(common.GetVert3(pts, 0), common.GetVert3(pts, i-1), common.GetVert3(pts, i)))
		areasum += max(0.001, areas[i])
	}
	// Find sub triangle weighted by area.
	thr := s * areasum
	acc := float32(0.0)
	u := float32(1.0)
	tri := npts - 1
	for i := int32(2); i < npts; i++ {
		dacc := areas[i]
		if thr >= acc && thr < (acc+dacc) {
			u = (thr - acc) / dacc
			tri = i
			break
		}
		acc += dacc
	}

	v := common.Sqrtf(t)

	a := 1 - v
	b := (1 - u) * v
	c := u * v
	pa := common.GetVert3(pts, 0)
	pb := common.GetVert3(pts, tri-1)
	pc := common.GetVert3(pts, tri)

	pt[0] = a*pa[0] + b*pb[0] + c*pc[0]
	pt[1] = a*pa[1] + b*pb[1] + c*pc[1]
	pt[2] = a*pa[2] + b*pb[2] + c*pc[2]
	return pt
}

// / Reports whether pt lies inside the polygon and fills ed/et with the
// / squared distance and segment parameter to every edge.
func dtDistancePtPolyEdgesSqr(pt, verts []float32, nverts int32, ed, et []float32) (c bool) {
	for i, j := int32(0), nverts-1; i < nverts; j, i = i, i+1 {
		vi := common.GetVert3(verts, i)
		vj := common.GetVert3(verts, j)
		if ((vi[2] > pt[2]) != (vj[2] > pt[2])) && (pt[0] < (vj[0]-vi[0])*(pt[2]-vi[2])/(vj[2]-vi[2])+vi[0]) {
			c = !c
		}
		et[j], ed[j] = DtDistancePtSegSqr2D(pt, vj, vi)
	}
	return c
}

func dtPointInPolygon(pt, verts []float32, nverts int32) (c bool) {
	for i, j := int32(0), nverts-1; i < nverts; j, i = i, i+1 {
		vi := common.GetVert3(verts, i)
		vj := common.GetVert3(verts, j)
		if ((vi[2] > pt[2]) != (vj[2] > pt[2])) && (pt[0] < (vj[0]-vi[0])*(pt[2]-vi[2])/(vj[2]-vi[2])+vi[0]) {
			c = !c
		}
	}
	return c
}

func vperpXZ(a, b []float32) float32 { return a[0]*b[2] - a[2]*b[0] }

func dtIntersectSegSeg2D(ap, aq, bp, bq []float32) (s, t float32, ok bool) {
	var u, v, w [3]float32
	common.Vsub(u[:], aq, ap)
	common.Vsub(v[:], bq, bp)
	common.Vsub(w[:], ap, bp)
	d := vperpXZ(u[:], v[:])
	if math.Abs(float64(d)) < 1e-6 {
		return s, t, false
	}
	s = vperpXZ(v[:], w[:]) / d
	t = vperpXZ(u[:], w[:]) / d
	return s, t, true
}

func dtIntersectSegmentPoly2D(p0, p1, verts []float32, nverts int32) (tmin, tmax float32, segMin, segMax int32, ok bool) {
	const EPS = 0.000001

	tmin = 0
	tmax = 1
	segMin = -1
	segMax = -1
	var dir [3]float32
	common.Vsub(dir[:], p1, p0)

	for i, j := int32(0), nverts-1; i < nverts; j, i = i, i+1 {
		var edge, diff [3]float32
		common.Vsub(edge[:], common.GetVert3(verts, i), common.GetVert3(verts, j))
		common.Vsub(diff[:], p0, common.GetVert3(verts, j))
		n := common.Vperp2D(edge[:], diff[:])
		d := common.Vperp2D(dir[:], edge[:])
		if math.Abs(float64(d)) < EPS {
			// S is nearly parallel to this edge
			if n < 0 {
				return tmin, tmax, segMin, segMax, false
			}
			continue
		}
		t := n / d
		if d < 0 {
			// segment S is entering across this edge
			if t > tmin {
				tmin = t
				segMin = j
				// S enters after leaving polygon
				if tmin > tmax {
					return tmin, tmax, segMin, segMax, false
				}
			}
		} else {
			// segment S is leaving across this edge
			if t < tmax {
				tmax = t
				segMax = j
				// S leaves before entering polygon
				if tmax < tmin {
					return tmin, tmax, segMin, segMax, false
				}
			}
		}
	}
	return tmin, tmax, segMin, segMax, true
}

// / All vertices are projected onto the xz-plane, so the y-values are ignored.
func dtOverlapPolyPoly2D(polya []float32, npolya int32, polyb []float32, npolyb int32) bool {
	const eps = float32(1e-4)
	separated := func(src []float32, nsrc int32) bool {
		for i, j := int32(0), nsrc-1; i < nsrc; j, i = i, i+1 {
			va := src[j*3 : j*3+3]
			vb := src[i*3 : i*3+3]
			n := [3]float32{vb[2] - va[2], 0, -(vb[0] - va[0])}
			amin, amax := projectPoly(n[:], polya, npolya)
			bmin, bmax := projectPoly(n[:], polyb, npolyb)
			if !overlapRange(amin, amax, bmin, bmax, eps) {
				// Found separating axis
				return true
			}
		}
		return false
	}
	return !separated(polya, npolya) && !separated(polyb, npolyb)
}

func projectPoly(axis, poly []float32, npoly int32) (rmin, rmax float32) {
	rmax = common.Vdot2D(axis, poly[0:3])
	rmin = rmax
	for i := int32(1); i < npoly; i++ {
		d := common.Vdot2D(axis, poly[i*3:i*3+3])
		rmin = min(rmin, d)
		rmax = max(rmax, d)
	}
	return rmin, rmax
}

func overlapRange(amin, amax, bmin, bmax, eps float32) bool {
	return !((amin+eps) > bmax || (amax-eps) < bmin)
}

// / Deterministic pseudo random source used by the random point queries.
// / Values are in the range [0,1].
type FastRand struct {
	seed uint32
}

func NewFastRand(seed uint32) *FastRand {
	return &FastRand{seed: seed}
}

// / The seed used when callers do not supply their own source.
const DefaultFastRandSeed = 1337

func (r *FastRand) Float32() float32 {
	r.seed = 214013*r.seed + 2531011
	return float32((r.seed>>16)&0x7fff) / 32767
}
