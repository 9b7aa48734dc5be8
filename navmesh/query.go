package navmesh

import (
	"github.com/gorustyt/navbind/bind"
	"github.com/gorustyt/navbind/common"
	"github.com/gorustyt/navbind/detour"
)

const (
	DefaultMaxNodes   = 2048
	maxPathPolys      = 256
	maxStraightPoints = 256
)

// / Optional overrides for a single query.
type QueryOpts struct {
	HalfExtents *common.Vec3
	Filter      *detour.DtQueryFilter
}

// / NavMeshQuery answers spatial and path queries against a NavMesh.
type NavMeshQuery struct {
	Raw    *detour.DtNavMeshQuery
	Filter *detour.DtQueryFilter

	DefaultQueryHalfExtents common.Vec3

	rng *detour.FastRand
}

func NewNavMeshQuery(nav *NavMesh, maxNodes int32) (*NavMeshQuery, error) {
	if maxNodes <= 0 {
		maxNodes = DefaultMaxNodes
	}
	q, status := detour.NewDtNavMeshQuery(nav.Raw, maxNodes)
	if err := status.Err(); err != nil {
		return nil, err
	}
	return &NavMeshQuery{
		Raw:                     q,
		Filter:                  detour.NewDtQueryFilter(),
		DefaultQueryHalfExtents: common.Vec3{1, 1, 1},
		rng:                     detour.NewFastRand(detour.DefaultFastRandSeed),
	}, nil
}

func (q *NavMeshQuery) opts(o *QueryOpts) (common.Vec3, *detour.DtQueryFilter) {
	he, filter := q.DefaultQueryHalfExtents, q.Filter
	if o != nil {
		if o.HalfExtents != nil {
			he = *o.HalfExtents
		}
		if o.Filter != nil {
			filter = o.Filter
		}
	}
	return he, filter
}

func (q *NavMeshQuery) random(rng *detour.FastRand) *detour.FastRand {
	if rng == nil {
		return q.rng
	}
	return rng
}

func (q *NavMeshQuery) FindNearestPoly(pos common.Vec3, o *QueryOpts) bind.FindNearestPolyResult {
	he, filter := q.opts(o)
	ref, pt, over, status := q.Raw.FindNearestPoly(pos[:], he[:], filter)
	return bind.FindNearestPolyResult{Status: status, NearestRef: ref, NearestPoint: pt, IsOverPoly: over}
}

// / Closest point on the navmesh to pos. PolyRef is zero when nothing is within the default extents.
func (q *NavMeshQuery) GetClosestPoint(pos common.Vec3, o *QueryOpts) bind.ClosestPointResult {
	he, filter := q.opts(o)
	ref, _, _, status := q.Raw.FindNearestPoly(pos[:], he[:], filter)
	if status.Failed() || ref == 0 {
		if status.Succeed() {
			status = detour.DT_FAILURE
		}
		return bind.ClosestPointResult{Status: status}
	}
	pt, over, status := q.Raw.ClosestPointOnPoly(ref, pos[:])
	return bind.ClosestPointResult{Status: status, PolyRef: ref, ClosestPoint: pt, IsPointOverPoly: over}
}

func (q *NavMeshQuery) ClosestPointOnPoly(ref detour.DtPolyRef, pos common.Vec3) bind.ClosestPointResult {
	pt, over, status := q.Raw.ClosestPointOnPoly(ref, pos[:])
	return bind.ClosestPointResult{Status: status, PolyRef: ref, ClosestPoint: pt, IsPointOverPoly: over}
}

func (q *NavMeshQuery) ClosestPointOnPolyBoundary(ref detour.DtPolyRef, pos common.Vec3) bind.ClosestPointResult {
	pt, status := q.Raw.ClosestPointOnPolyBoundary(ref, pos[:])
	return bind.ClosestPointResult{Status: status, PolyRef: ref, ClosestPoint: pt}
}

func (q *NavMeshQuery) GetPolyHeight(ref detour.DtPolyRef, pos common.Vec3) bind.PolyHeightResult {
	h, status := q.Raw.GetPolyHeight(ref, pos[:])
	return bind.PolyHeightResult{Status: status, Height: h}
}

func (q *NavMeshQuery) IsValidPolyRef(ref detour.DtPolyRef) bool {
	return q.Raw.IsValidPolyRef(ref, q.Filter)
}

func (q *NavMeshQuery) QueryPolygons(center, halfExtents common.Vec3, maxPolys int32) bind.FindPathResult {
	polys, status := q.Raw.QueryPolygons(center[:], halfExtents[:], q.Filter, maxPolys)
	return bind.FindPathResult{Status: status, Path: polys}
}

func (q *NavMeshQuery) FindPath(startRef, endRef detour.DtPolyRef, start, end common.Vec3, maxPath int32) bind.FindPathResult {
	if maxPath <= 0 {
		maxPath = maxPathPolys
	}
	path, status := q.Raw.FindPath(startRef, endRef, start[:], end[:], q.Filter, maxPath)
	return bind.FindPathResult{Status: status, Path: path}
}

func (q *NavMeshQuery) FindStraightPath(start, end common.Vec3, path []detour.DtPolyRef, maxStraightPath, options int32) bind.FindStraightPathResult {
	if maxStraightPath <= 0 {
		maxStraightPath = maxStraightPoints
	}
	pts, flags, refs, status := q.Raw.FindStraightPath(start[:], end[:], path, maxStraightPath, options)
	return bind.FindStraightPathResult{Status: status, Points: toVec3s(pts), Flags: flags, Refs: refs}
}

// / Finds a straight path between two world positions.
// / The end is clamped to the last polygon of a partial path.
func (q *NavMeshQuery) ComputePath(start, end common.Vec3, o *QueryOpts) bind.ComputePathResult {
	fail := func(e bind.ComputePathError, status detour.DtStatus) bind.ComputePathResult {
		return bind.ComputePathResult{Error: e, Status: status}
	}
	he, filter := q.opts(o)
	startRef, _, _, status := q.Raw.FindNearestPoly(start[:], he[:], filter)
	if status.Failed() || startRef == 0 {
		return fail(bind.ComputePathNoStartPoly, status)
	}
	endRef, _, _, status := q.Raw.FindNearestPoly(end[:], he[:], filter)
	if status.Failed() || endRef == 0 {
		return fail(bind.ComputePathNoEndPoly, status)
	}
	path, status := q.Raw.FindPath(startRef, endRef, start[:], end[:], filter, maxPathPolys)
	if status.Failed() {
		return fail(bind.ComputePathFindPath, status)
	}
	if len(path) == 0 {
		return fail(bind.ComputePathNoPolygonPath, status)
	}
	target := end
	if last := path[len(path)-1]; last != endRef {
		pt, _, st := q.Raw.ClosestPointOnPoly(last, end[:])
		if st.Succeed() {
			target = pt
		}
	}
	pts, _, _, status := q.Raw.FindStraightPath(start[:], target[:], path, maxStraightPoints, 0)
	if status.Failed() {
		return fail(bind.ComputePathStraightPath, status)
	}
	if len(pts) == 0 {
		return fail(bind.ComputePathNoPoints, status)
	}
	return bind.ComputePathResult{Success: true, Status: status, Path: toVec3s(pts)}
}

func (q *NavMeshQuery) Raycast(startRef detour.DtPolyRef, start, end common.Vec3, options int32, prevRef detour.DtPolyRef) bind.RaycastResult {
	hit, status := q.Raw.Raycast(startRef, start[:], end[:], q.Filter, options, maxPathPolys, prevRef)
	if hit == nil {
		return bind.RaycastResult{Status: status}
	}
	return bind.RaycastResult{
		Status:       status,
		T:            hit.T,
		HitNormal:    hit.HitNormal,
		HitEdgeIndex: hit.HitEdgeIndex,
		Path:         hit.Path,
		PathCost:     hit.PathCost,
	}
}

func (q *NavMeshQuery) MoveAlongSurface(startRef detour.DtPolyRef, start, end common.Vec3) bind.MoveAlongSurfaceResult {
	pos, visited, status := q.Raw.MoveAlongSurface(startRef, start[:], end[:], q.Filter, maxPathPolys)
	return bind.MoveAlongSurfaceResult{Status: status, ResultPosition: pos, Visited: visited}
}

// / A nil rng uses the query's own source, seeded with detour.DefaultFastRandSeed.
func (q *NavMeshQuery) FindRandomPoint(rng *detour.FastRand) bind.RandomPointResult {
	ref, pt, status := q.Raw.FindRandomPoint(q.Filter, q.random(rng))
	return bind.RandomPointResult{Status: status, RandomPolyRef: ref, RandomPoint: pt}
}

func (q *NavMeshQuery) FindRandomPointAroundCircle(startRef detour.DtPolyRef, center common.Vec3, radius float32, rng *detour.FastRand) bind.RandomPointResult {
	ref, pt, status := q.Raw.FindRandomPointAroundCircle(startRef, center[:], radius, q.Filter, q.random(rng))
	return bind.RandomPointResult{Status: status, RandomPolyRef: ref, RandomPoint: pt}
}

func (q *NavMeshQuery) InitSlicedFindPath(startRef, endRef detour.DtPolyRef, start, end common.Vec3, options int32) detour.DtStatus {
	return q.Raw.InitSlicedFindPath(startRef, endRef, start[:], end[:], q.Filter, options)
}

func (q *NavMeshQuery) UpdateSlicedFindPath(maxIter int32) bind.SlicedPathResult {
	done, status := q.Raw.UpdateSlicedFindPath(maxIter)
	return bind.SlicedPathResult{Status: status, DoneIterations: done}
}

func (q *NavMeshQuery) FinalizeSlicedFindPath(maxPath int32) bind.SlicedPathResult {
	path, status := q.Raw.FinalizeSlicedFindPath(maxPath)
	return bind.SlicedPathResult{Status: status, Path: path}
}

func (q *NavMeshQuery) Destroy() {
	q.Raw = nil
}

func toVec3s(flat []float32) []common.Vec3 {
	if len(flat) == 0 {
		return nil
	}
	out := make([]common.Vec3, len(flat)/3)
	for i := range out {
		out[i] = common.Vec3{flat[i*3], flat[i*3+1], flat[i*3+2]}
	}
	return out
}
