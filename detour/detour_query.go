package detour

import (
	"math"

	"github.com/gorustyt/navbind/common"
)

const (
	H_SCALE = 0.999 // Search heuristic scale.
)

// / Defines polygon filtering and traversal costs for navigation mesh query operations.
// / @ingroup detour
type DtQueryFilter struct {
	m_areaCost     [DT_MAX_AREAS]float32 ///< Cost per area type. (Used by default implementation.)
	m_includeFlags uint16                ///< Flags for polygons that can be visited. (Used by default implementation.)
	m_excludeFlags uint16                ///< Flags for polygons that should not be visited. (Used by default implementation.)
}

// / Returns a filter which accepts every polygon with unit area costs.
func NewDtQueryFilter() *DtQueryFilter {
	f := &DtQueryFilter{m_includeFlags: 0xffff}
	for i := range f.m_areaCost {
		f.m_areaCost[i] = 1.0
	}
	return f
}

// / Returns the traversal cost of the area.
func (filter *DtQueryFilter) GetAreaCost(i int32) float32 { return filter.m_areaCost[i] }

// / Sets the traversal cost of the area.
func (filter *DtQueryFilter) SetAreaCost(i int32, cost float32) { filter.m_areaCost[i] = cost }

// / Returns the include flags for the filter.
// / Any polygons that include one or more of these flags will be
// / included in the operation.
func (filter *DtQueryFilter) GetIncludeFlags() uint16 { return filter.m_includeFlags }

// / Sets the include flags for the filter.
func (filter *DtQueryFilter) SetIncludeFlags(flags uint16) { filter.m_includeFlags = flags }

// / Returns the exclude flags for the filter.
// / Any polygons that include one ore more of these flags will be
// / excluded from the operation.
func (filter *DtQueryFilter) GetExcludeFlags() uint16 { return filter.m_excludeFlags }

// / Sets the exclude flags for the filter.
func (filter *DtQueryFilter) SetExcludeFlags(flags uint16) { filter.m_excludeFlags = flags }

// / Returns true if the polygon can be visited.
func (filter *DtQueryFilter) PassFilter(poly *DtPoly) bool {
	return (poly.Flags&filter.m_includeFlags) != 0 && (poly.Flags&filter.m_excludeFlags) == 0
}

// / Returns cost to move from the beginning to the end of a line segment
// / that is fully contained within a polygon.
func (filter *DtQueryFilter) GetCost(pa, pb []float32, curPoly *DtPoly) float32 {
	return common.Vdist(pa, pb) * filter.m_areaCost[curPoly.GetArea()]
}

// / Provides information about raycast hit
// / filled by DtNavMeshQuery::raycast
// / @ingroup detour
type DtRaycastHit struct {
	/// The hit parameter. (FLT_MAX if no wall hit.)
	T float32

	/// hitNormal	The normal of the nearest wall hit. [(x, y, z)]
	HitNormal [3]float32

	/// The index of the edge on the final polygon where the wall was hit.
	HitEdgeIndex int32

	/// The visited polygon references.
	Path []DtPolyRef

	/// The cost of the path until hit.
	PathCost float32
}

type dtQueryData struct {
	status           DtStatus
	lastBestNode     *DtNode
	lastBestNodeCost float32
	startRef, endRef DtPolyRef
	startPos         [3]float32
	endPos           [3]float32
	filter           *DtQueryFilter
	options          int32
}

// / Provides the ability to perform pathfinding related queries against
// / a navigation mesh.
// / @ingroup detour
type DtNavMeshQuery struct {
	m_nav          *DtNavMesh   ///< Pointer to navmesh data.
	m_query        dtQueryData  ///< Sliced query state.
	m_tinyNodePool *DtNodePool  ///< Pointer to small node pool.
	m_nodePool     *DtNodePool  ///< Pointer to node pool.
	m_openList     *DtNodeQueue ///< Pointer to open list queue.
}

// / Creates a query object bound to nav.
// /  @param[in]		nav			Pointer to the DtNavMesh object to use for all queries.
// /  @param[in]		maxNodes	Maximum number of search nodes. [Limits: 0 < value <= 65535]
func NewDtNavMeshQuery(nav *DtNavMesh, maxNodes int32) (*DtNavMeshQuery, DtStatus) {
	q := &DtNavMeshQuery{}
	if status := q.Init(nav, maxNodes); status.Failed() {
		return nil, status
	}
	return q, DT_SUCCESS
}

// / Initializes the query object.
func (q *DtNavMeshQuery) Init(nav *DtNavMesh, maxNodes int32) DtStatus {
	if nav == nil || maxNodes <= 0 || maxNodes > (1<<DT_NODE_PARENT_BITS)-1 {
		return DT_FAILURE | DT_INVALID_PARAM
	}
	q.m_nav = nav
	hashSize := max(int32(common.NextPow2(uint32(maxNodes/4))), 1)
	if q.m_nodePool == nil || q.m_nodePool.GetMaxNodes() < maxNodes {
		q.m_nodePool = NewDtNodePool(maxNodes, hashSize)
	} else {
		q.m_nodePool.Clear()
	}
	if q.m_tinyNodePool == nil {
		q.m_tinyNodePool = NewDtNodePool(64, 32)
	} else {
		q.m_tinyNodePool.Clear()
	}
	if q.m_openList == nil {
		q.m_openList = NewDtNodeQueue(int(maxNodes))
	} else {
		q.m_openList.Clear()
	}
	q.m_query = dtQueryData{}
	return DT_SUCCESS
}

// / Gets the navigation mesh the query object is using.
func (q *DtNavMeshQuery) GetAttachedNavMesh() *DtNavMesh { return q.m_nav }

// / Gets the node pool.
func (q *DtNavMeshQuery) GetNodePool() *DtNodePool { return q.m_nodePool }

func validPos(v []float32) bool {
	return len(v) >= 3 && common.Visfinite(v)
}

func polyVerts(tile *DtMeshTile, poly *DtPoly, verts []float32) int32 {
	nv := int32(poly.VertCount)
	for i := int32(0); i < nv; i++ {
		copy(verts[i*3:i*3+3], common.GetVert3(tile.Verts, int32(poly.Verts[i])))
	}
	return nv
}

func polyArea2D(tile *DtMeshTile, poly *DtPoly) float32 {
	area := float32(0)
	va := common.GetVert3(tile.Verts, int32(poly.Verts[0]))
	for j := int32(2); j < int32(poly.VertCount); j++ {
		vb := common.GetVert3(tile.Verts, int32(poly.Verts[j-1]))
		vc := common.GetVert3(tile.Verts, int32(poly.Verts[j]))
		area += common.TriArea2D(va, vb, vc)
	}
	return common.Abs(area)
}

// / Returns random location on navmesh.
// / Polygons are chosen weighted by area. The search runs in linear related to number of polygon.
// /  @param[in]		filter			The polygon filter to apply to the query.
// /  @param[in]		rng				Random source returning values in [0,1].
// / @returns The reference id and location of the random point.
func (q *DtNavMeshQuery) FindRandomPoint(filter *DtQueryFilter, rng *FastRand) (randomRef DtPolyRef, randomPt [3]float32, status DtStatus) {
	if filter == nil || rng == nil {
		return 0, randomPt, DT_FAILURE | DT_INVALID_PARAM
	}

	// Randomly pick one tile. Assume that all tiles cover roughly the same area.
	var tile *DtMeshTile
	tsum := float32(0)
	for i := int32(0); i < q.m_nav.GetMaxTiles(); i++ {
		t := q.m_nav.GetTile(i)
		if t == nil || t.Header == nil {
			continue
		}
		// Choose random tile using reservoir sampling.
		const area = 1.0
		tsum += area
		u := rng.Float32()
		if u*tsum <= area {
			tile = t
		}
	}
	if tile == nil {
		return 0, randomPt, DT_FAILURE
	}

	// Randomly pick one polygon weighted by polygon area.
	var poly *DtPoly
	var polyRef DtPolyRef
	base := q.m_nav.GetPolyRefBase(tile)
	areaSum := float32(0)
	for i := int32(0); i < tile.Header.PolyCount; i++ {
		p := &tile.Polys[i]
		// Do not return off-mesh connection polygons.
		if p.GetType() != DT_POLYTYPE_GROUND {
			continue
		}
		// Must pass filter
		if !filter.PassFilter(p) {
			continue
		}
		// Choose random polygon weighted by area, using reservoir sampling.
		polyArea := polyArea2D(tile, p)
		areaSum += polyArea
		u := rng.Float32()
		if u*areaSum <= polyArea {
			poly = p
			polyRef = base | DtPolyRef(i)
		}
	}
	if poly == nil {
		return 0, randomPt, DT_FAILURE
	}

	// Randomly pick point on polygon.
	var verts [3 * DT_VERTS_PER_POLYGON]float32
	nv := polyVerts(tile, poly, verts[:])
	s := rng.Float32()
	t := rng.Float32()
	pt := dtRandomPointInConvexPoly(verts[:], nv, s, t)
	pt, _ = q.m_nav.closestPointOnPoly(polyRef, pt[:])
	return polyRef, pt, DT_SUCCESS
}

// / Returns random location on navmesh within the reach of specified location.
// / Polygons are chosen weighted by area. The search runs in linear related to number of polygon.
// / The location is not exactly constrained by the circle, but it limits the visited polygons.
// /  @param[in]		startRef		The reference id of the polygon where the search starts.
// /  @param[in]		centerPos		The center of the search circle. [(x, y, z)]
// /  @param[in]		maxRadius		The radius of the search circle. [Units: wu]
// /  @param[in]		filter			The polygon filter to apply to the query.
// /  @param[in]		rng				Random source returning values in [0,1].
func (q *DtNavMeshQuery) FindRandomPointAroundCircle(startRef DtPolyRef, centerPos []float32, maxRadius float32,
	filter *DtQueryFilter, rng *FastRand) (randomRef DtPolyRef, randomPt [3]float32, status DtStatus) {
	// Validate input
	if !q.m_nav.IsValidPolyRef(startRef) || !validPos(centerPos) || maxRadius < 0 ||
		!common.IsFinite(maxRadius) || filter == nil || rng == nil {
		return 0, randomPt, DT_FAILURE | DT_INVALID_PARAM
	}
	_, startPoly := q.m_nav.GetTileAndPolyByRefUnsafe(startRef)
	if !filter.PassFilter(startPoly) {
		return 0, randomPt, DT_FAILURE | DT_INVALID_PARAM
	}

	q.m_nodePool.Clear()
	q.m_openList.Clear()

	startNode := q.m_nodePool.GetNode(startRef, 0)
	copy(startNode.Pos[:], centerPos)
	startNode.Pidx = 0
	startNode.Cost = 0
	startNode.Total = 0
	startNode.Id = startRef
	startNode.Flags = DT_NODE_OPEN
	q.m_openList.Push(startNode)

	status = DT_SUCCESS
	radiusSqr := common.Sqr(maxRadius)
	areaSum := float32(0.0)

	var randomTile *DtMeshTile
	var randomPoly *DtPoly
	var randomPolyRef DtPolyRef

	for !q.m_openList.Empty() {
		bestNode := q.m_openList.Pop()
		bestNode.Flags &^= DT_NODE_OPEN
		bestNode.Flags |= DT_NODE_CLOSED

		// Get poly and tile.
		// The API input has been checked already, skip checking internal data.
		bestRef := bestNode.Id
		bestTile, bestPoly := q.m_nav.GetTileAndPolyByRefUnsafe(bestRef)

		// Place random locations on on ground.
		if bestPoly.GetType() == DT_POLYTYPE_GROUND {
			// Calc area of the polygon.
			polyArea := polyArea2D(bestTile, bestPoly)
			// Choose random polygon weighted by area, using reservoir sampling.
			areaSum += polyArea
			u := rng.Float32()
			if u*areaSum <= polyArea {
				randomTile = bestTile
				randomPoly = bestPoly
				randomPolyRef = bestRef
			}
		}

		// Get parent poly and tile.
		var parentRef DtPolyRef
		if bestNode.Pidx != 0 {
			parentRef = q.m_nodePool.GetNodeAtIdx(bestNode.Pidx).Id
		}

		for i := bestPoly.FirstLink; i != DT_NULL_LINK; i = bestTile.Links[i].Next {
			link := &bestTile.Links[i]
			neighbourRef := link.Ref
			// Skip invalid neighbours and do not follow back to parent.
			if neighbourRef == 0 || neighbourRef == parentRef {
				continue
			}

			// Expand to neighbour
			neighbourTile, neighbourPoly := q.m_nav.GetTileAndPolyByRefUnsafe(neighbourRef)

			// Do not advance if the polygon is excluded by the filter.
			if !filter.PassFilter(neighbourPoly) {
				continue
			}

			// Find edge and calc distance to the edge.
			va, vb, st := q.getPortalPoints(bestRef, bestPoly, bestTile, neighbourRef, neighbourPoly, neighbourTile)
			if st.Failed() {
				continue
			}

			// If the circle is not touching the next polygon, skip it.
			_, distSqr := DtDistancePtSegSqr2D(centerPos, va[:], vb[:])
			if distSqr > radiusSqr {
				continue
			}

			neighbourNode := q.m_nodePool.GetNode(neighbourRef, 0)
			if neighbourNode == nil {
				status |= DT_OUT_OF_NODES
				continue
			}

			if neighbourNode.Flags&DT_NODE_CLOSED != 0 {
				continue
			}

			// Cost
			if neighbourNode.Flags == 0 {
				common.Vlerp(neighbourNode.Pos[:], va[:], vb[:], 0.5)
			}

			total := bestNode.Total + common.Vdist(bestNode.Pos[:], neighbourNode.Pos[:])

			// The node is already in open list and the new result is worse, skip.
			if neighbourNode.Flags&DT_NODE_OPEN != 0 && total >= neighbourNode.Total {
				continue
			}

			neighbourNode.Id = neighbourRef
			neighbourNode.Flags &^= DT_NODE_CLOSED
			neighbourNode.Pidx = q.m_nodePool.GetNodeIdx(bestNode)
			neighbourNode.Total = total

			if neighbourNode.Flags&DT_NODE_OPEN != 0 {
				q.m_openList.Modify(neighbourNode)
			} else {
				neighbourNode.Flags = DT_NODE_OPEN
				q.m_openList.Push(neighbourNode)
			}
		}
	}

	if randomPoly == nil {
		return 0, randomPt, DT_FAILURE
	}

	// Randomly pick point on polygon.
	var verts [3 * DT_VERTS_PER_POLYGON]float32
	nv := polyVerts(randomTile, randomPoly, verts[:])
	s := rng.Float32()
	t := rng.Float32()
	pt := dtRandomPointInConvexPoly(verts[:], nv, s, t)
	pt, _ = q.m_nav.closestPointOnPoly(randomPolyRef, pt[:])
	return randomPolyRef, pt, status
}

// / Finds the closest point on the specified polygon.
// /  @param[in]		ref			The reference id of the polygon.
// /  @param[in]		pos			The position to check. [(x, y, z)]
// / @returns The closest point, whether pos is over the polygon, and the status flags.
func (q *DtNavMeshQuery) ClosestPointOnPoly(ref DtPolyRef, pos []float32) (closest [3]float32, posOverPoly bool, status DtStatus) {
	if !q.m_nav.IsValidPolyRef(ref) || !validPos(pos) {
		return closest, false, DT_FAILURE | DT_INVALID_PARAM
	}
	closest, posOverPoly = q.m_nav.closestPointOnPoly(ref, pos)
	return closest, posOverPoly, DT_SUCCESS
}

// / Returns a point on the boundary closest to the source point if the source point is outside the
// / polygon's xz-bounds.
// /  @param[in]		ref			The reference id to the polygon.
// /  @param[in]		pos			The position to check. [(x, y, z)]
func (q *DtNavMeshQuery) ClosestPointOnPolyBoundary(ref DtPolyRef, pos []float32) (closest [3]float32, status DtStatus) {
	tile, poly, status := q.m_nav.GetTileAndPolyByRef(ref)
	if status.Failed() {
		return closest, DT_FAILURE | DT_INVALID_PARAM
	}
	if !validPos(pos) {
		return closest, DT_FAILURE | DT_INVALID_PARAM
	}

	// Collect vertices.
	var verts [DT_VERTS_PER_POLYGON * 3]float32
	var edged, edget [DT_VERTS_PER_POLYGON]float32
	nv := polyVerts(tile, poly, verts[:])

	inside := dtDistancePtPolyEdgesSqr(pos, verts[:], nv, edged[:], edget[:])
	if inside {
		// Point is inside the polygon, return the point.
		copy(closest[:], pos)
		return closest, DT_SUCCESS
	}
	// Point is outside the polygon, dtClamp to nearest edge.
	dmin := edged[0]
	imin := int32(0)
	for i := int32(1); i < nv; i++ {
		if edged[i] < dmin {
			dmin = edged[i]
			imin = i
		}
	}
	va := verts[imin*3 : imin*3+3]
	vb := verts[((imin+1)%nv)*3 : ((imin+1)%nv)*3+3]
	common.Vlerp(closest[:], va, vb, edget[imin])
	return closest, DT_SUCCESS
}

// / Gets the height of the polygon at the provided position using the height detail. (Most accurate.)
// /  @param[in]		ref			The reference id of the polygon.
// /  @param[in]		pos			A position within the xz-bounds of the polygon. [(x, y, z)]
// / @returns The height at the surface of the polygon and the status flags for the query.
func (q *DtNavMeshQuery) GetPolyHeight(ref DtPolyRef, pos []float32) (height float32, status DtStatus) {
	tile, poly, status := q.m_nav.GetTileAndPolyByRef(ref)
	if status.Failed() {
		return 0, DT_FAILURE | DT_INVALID_PARAM
	}
	if !validPos(pos) {
		return 0, DT_FAILURE | DT_INVALID_PARAM
	}
	if poly.GetType() == DT_POLYTYPE_OFFMESH_CONNECTION {
		return 0, DT_FAILURE | DT_INVALID_PARAM
	}
	h, ok := q.m_nav.getPolyHeight(tile, q.m_nav.DecodePolyIdPoly(ref), pos)
	if !ok {
		return 0, DT_FAILURE | DT_INVALID_PARAM
	}
	return h, DT_SUCCESS
}

// / Returns true if the polygon reference is valid and passes the filter restrictions.
func (q *DtNavMeshQuery) IsValidPolyRef(ref DtPolyRef, filter *DtQueryFilter) bool {
	_, poly, status := q.m_nav.GetTileAndPolyByRef(ref)
	// If cannot get polygon, assume it does not exists and boundary is invalid.
	if status.Failed() {
		return false
	}
	// If cannot pass filter, assume flags has changed and boundary is invalid.
	if filter != nil && !filter.PassFilter(poly) {
		return false
	}
	return true
}

// / Returns true if the polygon reference is in the closed list.
func (q *DtNavMeshQuery) IsInClosedList(ref DtPolyRef) bool {
	if q.m_nodePool == nil {
		return false
	}
	for _, n := range q.m_nodePool.FindNodes(ref, DT_MAX_STATES_PER_NODE) {
		if n.Flags&DT_NODE_CLOSED != 0 {
			return true
		}
	}
	return false
}

// / Returns portal points between two polygons.
func (q *DtNavMeshQuery) GetPortalPoints(from, to DtPolyRef) (left, right [3]float32, status DtStatus) {
	fromTile, fromPoly, status := q.m_nav.GetTileAndPolyByRef(from)
	if status.Failed() {
		return left, right, DT_FAILURE | DT_INVALID_PARAM
	}
	toTile, toPoly, status := q.m_nav.GetTileAndPolyByRef(to)
	if status.Failed() {
		return left, right, DT_FAILURE | DT_INVALID_PARAM
	}
	return q.getPortalPoints(from, fromPoly, fromTile, to, toPoly, toTile)
}

func (q *DtNavMeshQuery) getPortalPoints(from DtPolyRef, fromPoly *DtPoly, fromTile *DtMeshTile,
	to DtPolyRef, toPoly *DtPoly, toTile *DtMeshTile) (left, right [3]float32, status DtStatus) {
	// Find the link that points to the 'to' polygon.
	var link *DtLink
	for i := fromPoly.FirstLink; i != DT_NULL_LINK; i = fromTile.Links[i].Next {
		if fromTile.Links[i].Ref == to {
			link = &fromTile.Links[i]
			break
		}
	}
	if link == nil {
		return left, right, DT_FAILURE | DT_INVALID_PARAM
	}

	// Find portal vertices.
	v0 := fromPoly.Verts[link.Edge]
	v1 := fromPoly.Verts[(link.Edge+1)%fromPoly.VertCount]
	copy(left[:], common.GetVert3(fromTile.Verts, int32(v0)))
	copy(right[:], common.GetVert3(fromTile.Verts, int32(v1)))

	// If the link is at tile boundary, dtClamp the vertices to
	// the link width.
	if link.Side != 0xff {
		// Unpack portal limits.
		if link.Bmin != 0 || link.Bmax != 255 {
			const s = 1.0 / 255.0
			tmin := float32(link.Bmin) * s
			tmax := float32(link.Bmax) * s
			common.Vlerp(left[:], common.GetVert3(fromTile.Verts, int32(v0)), common.GetVert3(fromTile.Verts, int32(v1)), tmin)
			common.Vlerp(right[:], common.GetVert3(fromTile.Verts, int32(v0)), common.GetVert3(fromTile.Verts, int32(v1)), tmax)
		}
	}
	return left, right, DT_SUCCESS
}

// Returns edge mid point between two polygons.
func (q *DtNavMeshQuery) getEdgeMidPoint(from DtPolyRef, fromPoly *DtPoly, fromTile *DtMeshTile,
	to DtPolyRef, toPoly *DtPoly, toTile *DtMeshTile) (mid [3]float32, status DtStatus) {
	left, right, status := q.getPortalPoints(from, fromPoly, fromTile, to, toPoly, toTile)
	if status.Failed() {
		return mid, DT_FAILURE | DT_INVALID_PARAM
	}
	mid[0] = (left[0] + right[0]) * 0.5
	mid[1] = (left[1] + right[1]) * 0.5
	mid[2] = (left[2] + right[2]) * 0.5
	return mid, DT_SUCCESS
}

// / Visits every polygon overlapping the query box that passes the filter.
func (q *DtNavMeshQuery) queryPolygons(center, halfExtents []float32, filter *DtQueryFilter, visit func(tile *DtMeshTile, refs []DtPolyRef)) {
	var bmin, bmax [3]float32
	common.Vsub(bmin[:], center, halfExtents)
	common.Vadd(bmax[:], center, halfExtents)

	// Find tiles the query touches.
	minx, miny := q.m_nav.CalcTileLoc(bmin[:])
	maxx, maxy := q.m_nav.CalcTileLoc(bmax[:])

	const MAX_NEIS = 32
	for y := miny; y <= maxy; y++ {
		for x := minx; x <= maxx; x++ {
			for _, tile := range q.m_nav.GetTilesAt(x, y, MAX_NEIS) {
				refs := q.m_nav.queryPolygonsInTile(tile, bmin[:], bmax[:], math.MaxInt32)
				n := 0
				for _, ref := range refs {
					if filter.PassFilter(&tile.Polys[q.m_nav.DecodePolyIdPoly(ref)]) {
						refs[n] = ref
						n++
					}
				}
				if n > 0 {
					visit(tile, refs[:n])
				}
			}
		}
	}
}

// / Finds the polygon nearest to the specified center point.
// / [opt] means the specified parameter can be a null pointer, in that case the output parameter will not be set.
// /
// /  @param[in]		center		The center of the search box. [(x, y, z)]
// /  @param[in]		halfExtents	The search distance along each axis. [(x, y, z)]
// /  @param[in]		filter		The polygon filter to apply to the query.
// / @returns The nearest polygon (0 when none is found), the nearest point, whether the point
// / lies over the polygon, and the status flags for the query.
func (q *DtNavMeshQuery) FindNearestPoly(center, halfExtents []float32, filter *DtQueryFilter) (nearestRef DtPolyRef, nearestPt [3]float32, isOverPoly bool, status DtStatus) {
	// Validate input
	if !validPos(center) || !validPos(halfExtents) || filter == nil ||
		halfExtents[0] < 0 || halfExtents[1] < 0 || halfExtents[2] < 0 {
		return 0, nearestPt, false, DT_FAILURE | DT_INVALID_PARAM
	}

	nearestDistanceSqr := float32(math.MaxFloat32)
	copy(nearestPt[:], center)
	q.queryPolygons(center, halfExtents, filter, func(tile *DtMeshTile, refs []DtPolyRef) {
		for _, ref := range refs {
			closestPtPoly, posOverPoly := q.m_nav.closestPointOnPoly(ref, center)

			// If a point is directly over a polygon and closer than
			// climb height, favor that instead of straight line nearest point.
			var diff [3]float32
			common.Vsub(diff[:], center, closestPtPoly[:])
			var d float32
			if posOverPoly {
				d = common.Abs(diff[1]) - tile.Header.WalkableClimb
				if d > 0 {
					d = d * d
				} else {
					d = 0
				}
			} else {
				d = common.VlenSqr(diff[:])
			}

			if d < nearestDistanceSqr {
				nearestPt = closestPtPoly
				nearestDistanceSqr = d
				nearestRef = ref
				isOverPoly = posOverPoly
			}
		}
	})
	return nearestRef, nearestPt, isOverPoly, DT_SUCCESS
}

// / Finds polygons that overlap the search box.
// /  @param[in]		center		The center of the search box. [(x, y, z)]
// /  @param[in]		halfExtents		The search distance along each axis. [(x, y, z)]
// /  @param[in]		filter		The polygon filter to apply to the query.
// /  @param[in]		maxPolys	The maximum number of polygons the search result can hold.
func (q *DtNavMeshQuery) QueryPolygons(center, halfExtents []float32, filter *DtQueryFilter, maxPolys int32) (polys []DtPolyRef, status DtStatus) {
	if !validPos(center) || !validPos(halfExtents) || filter == nil || maxPolys < 0 ||
		halfExtents[0] < 0 || halfExtents[1] < 0 || halfExtents[2] < 0 {
		return nil, DT_FAILURE | DT_INVALID_PARAM
	}
	overflow := false
	q.queryPolygons(center, halfExtents, filter, func(tile *DtMeshTile, refs []DtPolyRef) {
		space := int(maxPolys) - len(polys)
		if len(refs) > space {
			overflow = true
			refs = refs[:space]
		}
		polys = append(polys, refs...)
	})
	if overflow {
		return polys, DT_SUCCESS | DT_BUFFER_TOO_SMALL
	}
	return polys, DT_SUCCESS
}

// / Finds a path from the start polygon to the end polygon.
// /  @param[in]		startRef	The reference id of the start polygon.
// /  @param[in]		endRef		The reference id of the end polygon.
// /  @param[in]		startPos	A position within the start polygon. [(x, y, z)]
// /  @param[in]		endPos		A position within the end polygon. [(x, y, z)]
// /  @param[in]		filter		The polygon filter to apply to the query.
// /  @param[in]		maxPath		The maximum number of polygons the path can hold. [Limit: >= 1]
// / @returns An ordered list of polygon references (start to end) and the status flags.
// /
// / If the end polygon cannot be reached through the navigation graph,
// / the last polygon in the path will be the nearest the end polygon.
func (q *DtNavMeshQuery) FindPath(startRef, endRef DtPolyRef, startPos, endPos []float32, filter *DtQueryFilter, maxPath int32) (path []DtPolyRef, status DtStatus) {
	// Validate input
	if !q.m_nav.IsValidPolyRef(startRef) || !q.m_nav.IsValidPolyRef(endRef) ||
		!validPos(startPos) || !validPos(endPos) || filter == nil || maxPath <= 0 {
		return nil, DT_FAILURE | DT_INVALID_PARAM
	}

	if startRef == endRef {
		return []DtPolyRef{startRef}, DT_SUCCESS
	}

	q.m_nodePool.Clear()
	q.m_openList.Clear()

	startNode := q.m_nodePool.GetNode(startRef, 0)
	copy(startNode.Pos[:], startPos)
	startNode.Pidx = 0
	startNode.Cost = 0
	startNode.Total = common.Vdist(startPos, endPos) * H_SCALE
	startNode.Id = startRef
	startNode.Flags = DT_NODE_OPEN
	q.m_openList.Push(startNode)

	lastBestNode := startNode
	lastBestNodeCost := startNode.Total
	outOfNodes := false

	for !q.m_openList.Empty() {
		// Remove node from open list and put it in closed list.
		bestNode := q.m_openList.Pop()
		bestNode.Flags &^= DT_NODE_OPEN
		bestNode.Flags |= DT_NODE_CLOSED

		// Reached the goal, stop searching.
		if bestNode.Id == endRef {
			lastBestNode = bestNode
			break
		}

		// Get current poly and tile.
		// The API input has been checked already, skip checking internal data.
		bestRef := bestNode.Id
		bestTile, bestPoly := q.m_nav.GetTileAndPolyByRefUnsafe(bestRef)

		// Get parent poly and tile.
		var parentRef DtPolyRef
		if bestNode.Pidx != 0 {
			parentRef = q.m_nodePool.GetNodeAtIdx(bestNode.Pidx).Id
		}

		for i := bestPoly.FirstLink; i != DT_NULL_LINK; i = bestTile.Links[i].Next {
			link := &bestTile.Links[i]
			neighbourRef := link.Ref

			// Skip invalid ids and do not expand back to where we came from.
			if neighbourRef == 0 || neighbourRef == parentRef {
				continue
			}

			// Get neighbour poly and tile.
			// The API input has been checked already, skip checking internal data.
			neighbourTile, neighbourPoly := q.m_nav.GetTileAndPolyByRefUnsafe(neighbourRef)
			if !filter.PassFilter(neighbourPoly) {
				continue
			}

			// deal explicitly with crossing tile boundaries
			crossSide := uint32(0)
			if link.Side != 0xff {
				crossSide = uint32(link.Side >> 1)
			}

			// get the node
			neighbourNode := q.m_nodePool.GetNode(neighbourRef, crossSide)
			if neighbourNode == nil {
				outOfNodes = true
				continue
			}

			// If the node is visited the first time, calculate node position.
			if neighbourNode.Flags == 0 {
				neighbourNode.Pos, _ = q.getEdgeMidPoint(bestRef, bestPoly, bestTile, neighbourRef, neighbourPoly, neighbourTile)
			}

			// Calculate cost and heuristic.
			var cost, heuristic float32

			// Special case for last node.
			if neighbourRef == endRef {
				// Cost
				curCost := filter.GetCost(bestNode.Pos[:], neighbourNode.Pos[:], bestPoly)
				endCost := filter.GetCost(neighbourNode.Pos[:], endPos, neighbourPoly)
				cost = bestNode.Cost + curCost + endCost
				heuristic = 0
			} else {
				// Cost
				curCost := filter.GetCost(bestNode.Pos[:], neighbourNode.Pos[:], bestPoly)
				cost = bestNode.Cost + curCost
				heuristic = common.Vdist(neighbourNode.Pos[:], endPos) * H_SCALE
			}

			total := cost + heuristic

			// The node is already in open list and the new result is worse, skip.
			if neighbourNode.Flags&DT_NODE_OPEN != 0 && total >= neighbourNode.Total {
				continue
			}
			// The node is already visited and process, and the new result is worse, skip.
			if neighbourNode.Flags&DT_NODE_CLOSED != 0 && total >= neighbourNode.Total {
				continue
			}

			// Add or update the node.
			neighbourNode.Pidx = q.m_nodePool.GetNodeIdx(bestNode)
			neighbourNode.Id = neighbourRef
			neighbourNode.Flags &^= DT_NODE_CLOSED
			neighbourNode.Cost = cost
			neighbourNode.Total = total

			if neighbourNode.Flags&DT_NODE_OPEN != 0 {
				// Already in open, update node location.
				q.m_openList.Modify(neighbourNode)
			} else {
				// Put the node in open list.
				neighbourNode.Flags |= DT_NODE_OPEN
				q.m_openList.Push(neighbourNode)
			}

			// Update nearest node to target so far.
			if heuristic < lastBestNodeCost {
				lastBestNodeCost = heuristic
				lastBestNode = neighbourNode
			}
		}
	}

	path, status = q.getPathToNode(lastBestNode, maxPath)
	if lastBestNode.Id != endRef {
		status |= DT_PARTIAL_RESULT
	}
	if outOfNodes {
		status |= DT_OUT_OF_NODES
	}
	return path, status
}

func (q *DtNavMeshQuery) getPathToNode(endNode *DtNode, maxPath int32) ([]DtPolyRef, DtStatus) {
	// Find the length of the entire path.
	length := int32(0)
	for cur := endNode; cur != nil; cur = q.m_nodePool.GetNodeAtIdx(cur.Pidx) {
		length++
	}

	// If the path cannot be fully stored then advance to the last node we will be able to store.
	curNode := endNode
	writeCount := length
	for ; writeCount > maxPath; writeCount-- {
		curNode = q.m_nodePool.GetNodeAtIdx(curNode.Pidx)
	}

	// Write path
	path := make([]DtPolyRef, writeCount)
	for i := writeCount - 1; i >= 0; i-- {
		path[i] = curNode.Id
		curNode = q.m_nodePool.GetNodeAtIdx(curNode.Pidx)
	}

	if length > maxPath {
		return path, DT_SUCCESS | DT_BUFFER_TOO_SMALL
	}
	return path, DT_SUCCESS
}

// / Intializes a sliced path query.
// /  @param[in]		startRef	The reference id of the start polygon.
// /  @param[in]		endRef		The reference id of the end polygon.
// /  @param[in]		startPos	A position within the start polygon. [(x, y, z)]
// /  @param[in]		endPos		A position within the end polygon. [(x, y, z)]
// /  @param[in]		filter		The polygon filter to apply to the query.
// /  @param[in]		options		query options
// / @returns The status flags for the query.
// /
// / @warning Calling any non-slice methods before calling finalizeSlicedFindPath()
// / or finalizeSlicedFindPathPartial() may result in corrupted data!
func (q *DtNavMeshQuery) InitSlicedFindPath(startRef, endRef DtPolyRef, startPos, endPos []float32, filter *DtQueryFilter, options int32) DtStatus {
	// Init path state.
	q.m_query = dtQueryData{
		status:   DT_FAILURE,
		startRef: startRef,
		endRef:   endRef,
		filter:   filter,
		options:  options,
	}
	if validPos(startPos) {
		copy(q.m_query.startPos[:], startPos)
	}
	if validPos(endPos) {
		copy(q.m_query.endPos[:], endPos)
	}

	// Validate input
	if !q.m_nav.IsValidPolyRef(startRef) || !q.m_nav.IsValidPolyRef(endRef) ||
		!validPos(startPos) || !validPos(endPos) || filter == nil {
		return DT_FAILURE | DT_INVALID_PARAM
	}

	if startRef == endRef {
		q.m_query.status = DT_SUCCESS
		return DT_SUCCESS
	}

	q.m_nodePool.Clear()
	q.m_openList.Clear()

	startNode := q.m_nodePool.GetNode(startRef, 0)
	copy(startNode.Pos[:], startPos)
	startNode.Pidx = 0
	startNode.Cost = 0
	startNode.Total = common.Vdist(startPos, endPos) * H_SCALE
	startNode.Id = startRef
	startNode.Flags = DT_NODE_OPEN
	q.m_openList.Push(startNode)

	q.m_query.status = DT_IN_PROGRESS
	q.m_query.lastBestNode = startNode
	q.m_query.lastBestNodeCost = startNode.Total
	return q.m_query.status
}

// / Updates an in-progress sliced path query.
// /  @param[in]		maxIter		The maximum number of iterations to perform.
// / @returns The number of iterations completed and the status flags for the query.
func (q *DtNavMeshQuery) UpdateSlicedFindPath(maxIter int32) (doneIters int32, status DtStatus) {
	if !q.m_query.status.InProgress() {
		return 0, q.m_query.status
	}

	// Make sure the request is still valid.
	if !q.m_nav.IsValidPolyRef(q.m_query.startRef) || !q.m_nav.IsValidPolyRef(q.m_query.endRef) {
		q.m_query.status = DT_FAILURE
		return 0, DT_FAILURE
	}

	iter := int32(0)
	for iter < maxIter && !q.m_openList.Empty() {
		iter++

		// Remove node from open list and put it in closed list.
		bestNode := q.m_openList.Pop()
		bestNode.Flags &^= DT_NODE_OPEN
		bestNode.Flags |= DT_NODE_CLOSED

		// Reached the goal, stop searching.
		if bestNode.Id == q.m_query.endRef {
			q.m_query.lastBestNode = bestNode
			details := q.m_query.status & DT_STATUS_DETAIL_MASK
			q.m_query.status = DT_SUCCESS | details
			return iter, q.m_query.status
		}

		// Get current poly and tile.
		// The API input has been checked already, skip checking internal data.
		bestRef := bestNode.Id
		bestTile, bestPoly, st := q.m_nav.GetTileAndPolyByRef(bestRef)
		if st.Failed() {
			// The polygon has disappeared during the sliced query, fail.
			q.m_query.status = DT_FAILURE
			return iter, q.m_query.status
		}

		// Get parent poly and tile.
		var parentRef DtPolyRef
		if bestNode.Pidx != 0 {
			parentRef = q.m_nodePool.GetNodeAtIdx(bestNode.Pidx).Id
		}
		if parentRef != 0 && !q.m_nav.IsValidPolyRef(parentRef) {
			// The polygon has disappeared during the sliced query, fail.
			q.m_query.status = DT_FAILURE
			return iter, q.m_query.status
		}

		for i := bestPoly.FirstLink; i != DT_NULL_LINK; i = bestTile.Links[i].Next {
			link := &bestTile.Links[i]
			neighbourRef := link.Ref

			// Skip invalid ids and do not expand back to where we came from.
			if neighbourRef == 0 || neighbourRef == parentRef {
				continue
			}

			// Get neighbour poly and tile.
			// The API input has been checked already, skip checking internal data.
			neighbourTile, neighbourPoly := q.m_nav.GetTileAndPolyByRefUnsafe(neighbourRef)
			if !q.m_query.filter.PassFilter(neighbourPoly) {
				continue
			}

			// deal explicitly with crossing tile boundaries
			crossSide := uint32(0)
			if link.Side != 0xff {
				crossSide = uint32(link.Side >> 1)
			}

			// get the neighbor node
			neighbourNode := q.m_nodePool.GetNode(neighbourRef, crossSide)
			if neighbourNode == nil {
				q.m_query.status |= DT_OUT_OF_NODES
				continue
			}

			// If the node is visited the first time, calculate node position.
			if neighbourNode.Flags == 0 {
				neighbourNode.Pos, _ = q.getEdgeMidPoint(bestRef, bestPoly, bestTile, neighbourRef, neighbourPoly, neighbourTile)
			}

			// Calculate cost and heuristic.
			var cost, heuristic float32
			if neighbourRef == q.m_query.endRef {
				curCost := q.m_query.filter.GetCost(bestNode.Pos[:], neighbourNode.Pos[:], bestPoly)
				endCost := q.m_query.filter.GetCost(neighbourNode.Pos[:], q.m_query.endPos[:], neighbourPoly)
				cost = bestNode.Cost + curCost + endCost
				heuristic = 0
			} else {
				curCost := q.m_query.filter.GetCost(bestNode.Pos[:], neighbourNode.Pos[:], bestPoly)
				cost = bestNode.Cost + curCost
				heuristic = common.Vdist(neighbourNode.Pos[:], q.m_query.endPos[:]) * H_SCALE
			}
			total := cost + heuristic

			// The node is already in open list and the new result is worse, skip.
			if neighbourNode.Flags&DT_NODE_OPEN != 0 && total >= neighbourNode.Total {
				continue
			}
			// The node is already visited and process, and the new result is worse, skip.
			if neighbourNode.Flags&DT_NODE_CLOSED != 0 && total >= neighbourNode.Total {
				continue
			}

			// Add or update the node.
			neighbourNode.Pidx = q.m_nodePool.GetNodeIdx(bestNode)
			neighbourNode.Id = neighbourRef
			neighbourNode.Flags &^= DT_NODE_CLOSED | DT_NODE_PARENT_DETACHED
			neighbourNode.Cost = cost
			neighbourNode.Total = total

			if neighbourNode.Flags&DT_NODE_OPEN != 0 {
				// Already in open, update node location.
				q.m_openList.Modify(neighbourNode)
			} else {
				// Put the node in open list.
				neighbourNode.Flags |= DT_NODE_OPEN
				q.m_openList.Push(neighbourNode)
			}

			// Update nearest node to target so far.
			if heuristic < q.m_query.lastBestNodeCost {
				q.m_query.lastBestNodeCost = heuristic
				q.m_query.lastBestNode = neighbourNode
			}
		}
	}

	// Exhausted all nodes, but could not find path.
	if q.m_openList.Empty() {
		details := q.m_query.status & DT_STATUS_DETAIL_MASK
		q.m_query.status = DT_SUCCESS | details
	}
	return iter, q.m_query.status
}

// / Finalizes and returns the results of a sliced path query.
// /  @param[in]		maxPath		The max number of polygons the path array can hold. [Limit: >= 1]
// / @returns An ordered list of polygon references (start to end) and the status flags.
func (q *DtNavMeshQuery) FinalizeSlicedFindPath(maxPath int32) (path []DtPolyRef, status DtStatus) {
	if maxPath <= 0 {
		return nil, DT_FAILURE | DT_INVALID_PARAM
	}
	if q.m_query.status.Failed() {
		// Reset query.
		q.m_query = dtQueryData{}
		return nil, DT_FAILURE
	}

	if q.m_query.startRef == q.m_query.endRef {
		// Special case: the search starts and ends at same poly.
		path = []DtPolyRef{q.m_query.startRef}
		status = DT_SUCCESS
	} else {
		if q.m_query.lastBestNode.Id != q.m_query.endRef {
			q.m_query.status |= DT_PARTIAL_RESULT
		}
		path, status = q.getPathToNode(q.m_query.lastBestNode, maxPath)
	}

	details := q.m_query.status & DT_STATUS_DETAIL_MASK

	// Reset query.
	q.m_query = dtQueryData{}
	return path, status | details
}

// / Finalizes and returns the results of an incomplete sliced path query, returning the path to the furthest
// / polygon on the existing path that was visited during the search.
// /  @param[in]		existing		An array of polygon references for the existing path.
// /  @param[in]		maxPath			The max number of polygons the path array can hold. [Limit: >= 1]
func (q *DtNavMeshQuery) FinalizeSlicedFindPathPartial(existing []DtPolyRef, maxPath int32) (path []DtPolyRef, status DtStatus) {
	if len(existing) == 0 || maxPath <= 0 {
		return nil, DT_FAILURE | DT_INVALID_PARAM
	}
	if q.m_query.status.Failed() {
		// Reset query.
		q.m_query = dtQueryData{}
		return nil, DT_FAILURE
	}

	if q.m_query.startRef == q.m_query.endRef {
		// Special case: the search starts and ends at same poly.
		path = []DtPolyRef{q.m_query.startRef}
		status = DT_SUCCESS
	} else {
		// Find furthest existing node that was visited.
		var node *DtNode
		for i := len(existing) - 1; i >= 0; i-- {
			if nodes := q.m_nodePool.FindNodes(existing[i], 1); len(nodes) > 0 {
				node = nodes[0]
				break
			}
		}
		if node == nil {
			q.m_query.status |= DT_PARTIAL_RESULT
			node = q.m_query.lastBestNode
		}
		path, status = q.getPathToNode(node, maxPath)
	}

	details := q.m_query.status & DT_STATUS_DETAIL_MASK

	// Reset query.
	q.m_query = dtQueryData{}
	return path, status | details
}

// straightPathBuilder accumulates the output of findStraightPath.
type straightPathBuilder struct {
	points []float32
	flags  []uint8
	refs   []DtPolyRef
	max    int32
}

func (b *straightPathBuilder) count() int32 { return int32(len(b.flags)) }

func (b *straightPathBuilder) appendVertex(pos []float32, flags uint8, ref DtPolyRef) DtStatus {
	n := b.count()
	if n > 0 && common.Vequal(b.points[(n-1)*3:(n-1)*3+3], pos) {
		// The vertices are equal, update flags and poly.
		b.flags[n-1] = flags
		b.refs[n-1] = ref
	} else {
		// Append new vertex.
		b.points = append(b.points, pos[0], pos[1], pos[2])
		b.flags = append(b.flags, flags)
		b.refs = append(b.refs, ref)

		// If there is no space to append more vertices, return.
		if b.count() >= b.max {
			return DT_SUCCESS | DT_BUFFER_TOO_SMALL
		}

		// If reached end of path, return.
		if flags == DT_STRAIGHTPATH_END {
			return DT_SUCCESS
		}
	}
	return DT_IN_PROGRESS
}

func (q *DtNavMeshQuery) appendPortals(b *straightPathBuilder, startIdx, endIdx int32, endPos []float32, path []DtPolyRef, options int32) DtStatus {
	n := b.count()
	startPos := b.points[(n-1)*3 : (n-1)*3+3]
	// Append or update last vertex
	for i := startIdx; i < endIdx; i++ {
		// Calculate portal
		from := path[i]
		fromTile, fromPoly, status := q.m_nav.GetTileAndPolyByRef(from)
		if status.Failed() {
			return DT_FAILURE | DT_INVALID_PARAM
		}

		to := path[i+1]
		toTile, toPoly, status := q.m_nav.GetTileAndPolyByRef(to)
		if status.Failed() {
			return DT_FAILURE | DT_INVALID_PARAM
		}

		left, right, status := q.getPortalPoints(from, fromPoly, fromTile, to, toPoly, toTile)
		if status.Failed() {
			break
		}

		if options&DT_STRAIGHTPATH_AREA_CROSSINGS != 0 {
			// Skip intersection if only area crossings are requested.
			if fromPoly.GetArea() == toPoly.GetArea() {
				continue
			}
		}

		// Append intersection
		if _, t, ok := dtIntersectSegSeg2D(startPos, endPos, left[:], right[:]); ok {
			var pt [3]float32
			common.Vlerp(pt[:], left[:], right[:], t)
			stat := b.appendVertex(pt[:], 0, path[i+1])
			if stat != DT_IN_PROGRESS {
				return stat
			}
		}
	}
	return DT_IN_PROGRESS
}

// / Finds the straight path from the start to the end position within the polygon corridor.
// /  @param[in]		startPos			Path start position. [(x, y, z)]
// /  @param[in]		endPos				Path end position. [(x, y, z)]
// /  @param[in]		path				An array of polygon references that represent the path corridor.
// /  @param[in]		maxStraightPath		The maximum number of points the straight path can hold.  [Limit: > 0]
// /  @param[in]		options				Query options. (see: #dtStraightPathOptions)
// / @returns The path points [(x, y, z) * n], a flag and the entered polygon per point, and the status flags.
func (q *DtNavMeshQuery) FindStraightPath(startPos, endPos []float32, path []DtPolyRef, maxStraightPath int32, options int32) (straightPath []float32, straightPathFlags []uint8, straightPathRefs []DtPolyRef, status DtStatus) {
	if !validPos(startPos) || !validPos(endPos) || len(path) == 0 || path[0] == 0 || maxStraightPath <= 0 {
		return nil, nil, nil, DT_FAILURE | DT_INVALID_PARAM
	}
	b := &straightPathBuilder{max: maxStraightPath}
	result := func(st DtStatus) ([]float32, []uint8, []DtPolyRef, DtStatus) {
		return b.points, b.flags, b.refs, st
	}
	pathSize := int32(len(path))

	// TODO: Should this be callers responsibility?
	closestStartPos, status := q.ClosestPointOnPolyBoundary(path[0], startPos)
	if status.Failed() {
		return nil, nil, nil, DT_FAILURE | DT_INVALID_PARAM
	}
	closestEndPos, status := q.ClosestPointOnPolyBoundary(path[pathSize-1], endPos)
	if status.Failed() {
		return nil, nil, nil, DT_FAILURE | DT_INVALID_PARAM
	}

	// Add start point.
	stat := b.appendVertex(closestStartPos[:], DT_STRAIGHTPATH_START, path[0])
	if stat != DT_IN_PROGRESS {
		return result(stat)
	}

	if pathSize > 1 {
		portalApex := closestStartPos
		portalLeft := portalApex
		portalRight := portalApex
		apexIndex := int32(0)
		leftIndex := int32(0)
		rightIndex := int32(0)

		leftPolyRef := path[0]
		rightPolyRef := path[0]

		for i := int32(0); i < pathSize; i++ {
			var left, right [3]float32
			if i+1 < pathSize {
				// Next portal.
				var st DtStatus
				left, right, st = q.GetPortalPoints(path[i], path[i+1])
				if st.Failed() {
					// Failed to get portal points, in practice this means that path[i+1] is invalid polygon.
					// Clamp the end point to path[i], and return the path so far.
					closestEndPos, st = q.ClosestPointOnPolyBoundary(path[i], endPos)
					if st.Failed() {
						// This should only happen when the first polygon is invalid.
						return nil, nil, nil, DT_FAILURE | DT_INVALID_PARAM
					}

					// Append portals along the current straight path segment.
					if options&(DT_STRAIGHTPATH_AREA_CROSSINGS|DT_STRAIGHTPATH_ALL_CROSSINGS) != 0 {
						// Ignore status return value as we're just about to return anyway.
						q.appendPortals(b, apexIndex, i, closestEndPos[:], path, options)
					}

					// Ignore status return value as we're just about to return anyway.
					b.appendVertex(closestEndPos[:], 0, path[i])

					st = DT_SUCCESS | DT_PARTIAL_RESULT
					if b.count() >= maxStraightPath {
						st |= DT_BUFFER_TOO_SMALL
					}
					return result(st)
				}

				// If starting really close the portal, advance.
				if i == 0 {
					if _, d := DtDistancePtSegSqr2D(portalApex[:], left[:], right[:]); d < common.Sqr(float32(0.001)) {
						continue
					}
				}
			} else {
				// End of the path.
				left = closestEndPos
				right = closestEndPos
			}

			// Right vertex.
			if common.TriArea2D(portalApex[:], portalRight[:], right[:]) <= 0.0 {
				if common.Vequal(portalApex[:], portalRight[:]) || common.TriArea2D(portalApex[:], portalLeft[:], right[:]) > 0.0 {
					portalRight = right
					rightPolyRef = 0
					if i+1 < pathSize {
						rightPolyRef = path[i+1]
					}
					rightIndex = i
				} else {
					// Append portals along the current straight path segment.
					if options&(DT_STRAIGHTPATH_AREA_CROSSINGS|DT_STRAIGHTPATH_ALL_CROSSINGS) != 0 {
						stat = q.appendPortals(b, apexIndex, leftIndex, portalLeft[:], path, options)
						if stat != DT_IN_PROGRESS {
							return result(stat)
						}
					}

					portalApex = portalLeft
					apexIndex = leftIndex

					var flags uint8
					if leftPolyRef == 0 {
						flags = DT_STRAIGHTPATH_END
					}
					// Append or update vertex
					stat = b.appendVertex(portalApex[:], flags, leftPolyRef)
					if stat != DT_IN_PROGRESS {
						return result(stat)
					}

					portalLeft = portalApex
					portalRight = portalApex
					leftIndex = apexIndex
					rightIndex = apexIndex

					// Restart
					i = apexIndex
					continue
				}
			}

			// Left vertex.
			if common.TriArea2D(portalApex[:], portalLeft[:], left[:]) >= 0.0 {
				if common.Vequal(portalApex[:], portalLeft[:]) || common.TriArea2D(portalApex[:], portalRight[:], left[:]) < 0.0 {
					portalLeft = left
					leftPolyRef = 0
					if i+1 < pathSize {
						leftPolyRef = path[i+1]
					}
					leftIndex = i
				} else {
					// Append portals along the current straight path segment.
					if options&(DT_STRAIGHTPATH_AREA_CROSSINGS|DT_STRAIGHTPATH_ALL_CROSSINGS) != 0 {
						stat = q.appendPortals(b, apexIndex, rightIndex, portalRight[:], path, options)
						if stat != DT_IN_PROGRESS {
							return result(stat)
						}
					}

					portalApex = portalRight
					apexIndex = rightIndex

					var flags uint8
					if rightPolyRef == 0 {
						flags = DT_STRAIGHTPATH_END
					}
					// Append or update vertex
					stat = b.appendVertex(portalApex[:], flags, rightPolyRef)
					if stat != DT_IN_PROGRESS {
						return result(stat)
					}

					portalLeft = portalApex
					portalRight = portalApex
					leftIndex = apexIndex
					rightIndex = apexIndex

					// Restart
					i = apexIndex
					continue
				}
			}
		}

		// Append portals along the current straight path segment.
		if options&(DT_STRAIGHTPATH_AREA_CROSSINGS|DT_STRAIGHTPATH_ALL_CROSSINGS) != 0 {
			stat = q.appendPortals(b, apexIndex, pathSize-1, closestEndPos[:], path, options)
			if stat != DT_IN_PROGRESS {
				return result(stat)
			}
		}
	}

	// Ignore status return value as we're just about to return anyway.
	b.appendVertex(closestEndPos[:], DT_STRAIGHTPATH_END, 0)

	if b.count() >= maxStraightPath {
		return result(DT_SUCCESS | DT_BUFFER_TOO_SMALL)
	}
	return result(DT_SUCCESS)
}

// / Moves from the start to the end position constrained to the navigation mesh.
// /  @param[in]		startRef		The reference id of the start polygon.
// /  @param[in]		startPos		A position of the mover within the start polygon. [(x, y, x)]
// /  @param[in]		endPos			The desired end position of the mover. [(x, y, z)]
// /  @param[in]		filter			The polygon filter to apply to the query.
// /  @param[in]		maxVisitedSize	The maximum number of polygons the visited list can hold.
// / @returns The result position, the visited polygons and the status flags for the query.
// /
// / This method is optimized for small delta movement and a small number of
// / polygons. If used for too great a distance, the result set will form an
// / incomplete path.
// /
// / The resultPos will equal the endPos if the end is reached.
// / Otherwise the closest reachable position will be returned.
// /
// / The resultPos is not projected onto the surface of the navigation
// / mesh. Use #getPolyHeight if this is needed.
func (q *DtNavMeshQuery) MoveAlongSurface(startRef DtPolyRef, startPos, endPos []float32, filter *DtQueryFilter, maxVisitedSize int32) (resultPos [3]float32, visited []DtPolyRef, status DtStatus) {
	// Validate input
	if !q.m_nav.IsValidPolyRef(startRef) || !validPos(startPos) || !validPos(endPos) ||
		filter == nil || maxVisitedSize <= 0 {
		return resultPos, nil, DT_FAILURE | DT_INVALID_PARAM
	}

	status = DT_SUCCESS

	const MAX_STACK = 48
	stack := make([]*DtNode, 0, MAX_STACK)

	q.m_tinyNodePool.Clear()

	startNode := q.m_tinyNodePool.GetNode(startRef, 0)
	startNode.Pidx = 0
	startNode.Cost = 0
	startNode.Total = 0
	startNode.Id = startRef
	startNode.Flags = DT_NODE_CLOSED
	stack = append(stack, startNode)

	var bestPos [3]float32
	copy(bestPos[:], startPos)
	bestDist := float32(math.MaxFloat32)
	var bestNode *DtNode

	// Search constraints
	var searchPos [3]float32
	common.Vlerp(searchPos[:], startPos, endPos, 0.5)
	searchRadSqr := common.Sqr(common.Vdist(startPos, endPos)/2.0 + 0.001)

	var verts [DT_VERTS_PER_POLYGON * 3]float32

	for len(stack) > 0 {
		// Pop front.
		curNode := stack[0]
		stack = stack[1:]

		// Get poly and tile.
		// The API input has been checked already, skip checking internal data.
		curRef := curNode.Id
		curTile, curPoly := q.m_nav.GetTileAndPolyByRefUnsafe(curRef)

		// Collect vertices.
		nverts := polyVerts(curTile, curPoly, verts[:])

		// If target is inside the poly, stop search.
		if dtPointInPolygon(endPos, verts[:], nverts) {
			bestNode = curNode
			copy(bestPos[:], endPos)
			break
		}

		// Find wall edges and find nearest point inside the walls.
		for i, j := int32(0), nverts-1; i < nverts; j, i = i, i+1 {
			// Find links to neighbours.
			const MAX_NEIS = 8
			neis := make([]DtPolyRef, 0, MAX_NEIS)

			if curPoly.Neis[j]&DT_EXT_LINK != 0 {
				// Tile border.
				for k := curPoly.FirstLink; k != DT_NULL_LINK; k = curTile.Links[k].Next {
					link := &curTile.Links[k]
					if int32(link.Edge) == j {
						if link.Ref != 0 {
							_, neiPoly := q.m_nav.GetTileAndPolyByRefUnsafe(link.Ref)
							if filter.PassFilter(neiPoly) {
								if len(neis) < MAX_NEIS {
									neis = append(neis, link.Ref)
								}
							}
						}
					}
				}
			} else if curPoly.Neis[j] != 0 {
				idx := uint32(curPoly.Neis[j] - 1)
				ref := q.m_nav.GetPolyRefBase(curTile) | DtPolyRef(idx)
				if filter.PassFilter(&curTile.Polys[idx]) {
					// Internal edge, encode id.
					neis = append(neis, ref)
				}
			}

			vj := verts[j*3 : j*3+3]
			vi := verts[i*3 : i*3+3]
			if len(neis) == 0 {
				// Wall edge, calc distance.
				tseg, distSqr := DtDistancePtSegSqr2D(endPos, vj, vi)
				if distSqr < bestDist {
					// Update nearest distance.
					common.Vlerp(bestPos[:], vj, vi, tseg)
					bestDist = distSqr
					bestNode = curNode
				}
			} else {
				for _, nei := range neis {
					// Skip if no node can be allocated.
					neighbourNode := q.m_tinyNodePool.GetNode(nei, 0)
					if neighbourNode == nil {
						continue
					}
					// Skip if already visited.
					if neighbourNode.Flags&DT_NODE_CLOSED != 0 {
						continue
					}

					// Skip the link if it is too far from search constraint.
					// TODO: Maybe should use getPortalPoints(), but this one is way faster.
					if _, distSqr := DtDistancePtSegSqr2D(searchPos[:], vj, vi); distSqr > searchRadSqr {
						continue
					}

					// Mark as the node as visited and push to queue.
					if len(stack) < MAX_STACK {
						neighbourNode.Pidx = q.m_tinyNodePool.GetNodeIdx(curNode)
						neighbourNode.Flags |= DT_NODE_CLOSED
						stack = append(stack, neighbourNode)
					}
				}
			}
		}
	}

	if bestNode != nil {
		// Reverse the path.
		var prev *DtNode
		node := bestNode
		for node != nil {
			next := q.m_tinyNodePool.GetNodeAtIdx(node.Pidx)
			node.Pidx = q.m_tinyNodePool.GetNodeIdx(prev)
			prev = node
			node = next
		}

		// Store result
		for node = prev; node != nil; node = q.m_tinyNodePool.GetNodeAtIdx(node.Pidx) {
			visited = append(visited, node.Id)
			if int32(len(visited)) >= maxVisitedSize {
				status |= DT_BUFFER_TOO_SMALL
				break
			}
		}
	}

	return bestPos, visited, status
}

// / Casts a 'walkability' ray along the surface of the navigation mesh from
// / the start position toward the end position.
// /  @param[in]		startRef	The reference id of the start polygon.
// /  @param[in]		startPos	A position within the start polygon representing
// /  							the start of the ray. [(x, y, z)]
// /  @param[in]		endPos		The position to cast the ray toward. [(x, y, z)]
// /  @param[in]		filter		The polygon filter to apply to the query.
// /  @param[in]		options		govern how the raycast behaves. See dtRaycastOptions
// /  @param[in]		maxPath		The maximum number of polygons the hit path can hold.
// /  @param[in]		prevRef		parent of start ref. Used during for cost calculation [opt]
// / @returns The hit information and the status flags for the query.
// /
// / The raycast ignores the y-value of the end position. (2D check.) This
// / places significant limits on how it can be used.
// /
// / If the hit parameter is FLT_MAX, then the ray has hit the end position.
func (q *DtNavMeshQuery) Raycast(startRef DtPolyRef, startPos, endPos []float32, filter *DtQueryFilter, options int32, maxPath int32, prevRef DtPolyRef) (hit *DtRaycastHit, status DtStatus) {
	hit = &DtRaycastHit{}

	// Validate input
	if !q.m_nav.IsValidPolyRef(startRef) || !validPos(startPos) || !validPos(endPos) ||
		filter == nil || maxPath < 0 || (prevRef != 0 && !q.m_nav.IsValidPolyRef(prevRef)) {
		return hit, DT_FAILURE | DT_INVALID_PARAM
	}

	status = DT_SUCCESS

	var dir, curPos, lastPos [3]float32
	var verts [DT_VERTS_PER_POLYGON*3 + 3]float32

	copy(curPos[:], startPos)
	common.Vsub(dir[:], endPos, startPos)

	tile, poly := q.m_nav.GetTileAndPolyByRefUnsafe(startRef)
	curRef := startRef

	for curRef != 0 {
		// Cast ray against current polygon.

		// Collect vertices.
		nv := polyVerts(tile, poly, verts[:])

		_, tmax, _, segMax, ok := dtIntersectSegmentPoly2D(startPos, endPos, verts[:], nv)
		if !ok {
			// Could not hit the polygon, keep the old t and report hit.
			return hit, status
		}

		hit.HitEdgeIndex = segMax

		// Keep track of furthest t so far.
		if tmax > hit.T {
			hit.T = tmax
		}

		// Store visited polygons.
		if int32(len(hit.Path)) < maxPath {
			hit.Path = append(hit.Path, curRef)
		} else {
			status |= DT_BUFFER_TOO_SMALL
		}

		// Ray end is completely inside the polygon.
		if segMax == -1 {
			hit.T = math.MaxFloat32

			// add the cost
			if options&DT_RAYCAST_USE_COSTS != 0 {
				hit.PathCost += filter.GetCost(curPos[:], endPos, poly)
			}
			return hit, status
		}

		// Follow neighbours.
		var nextRef DtPolyRef
		var nextTile *DtMeshTile
		var nextPoly *DtPoly

		for i := poly.FirstLink; i != DT_NULL_LINK; i = tile.Links[i].Next {
			link := &tile.Links[i]

			// Find link which contains this edge.
			if int32(link.Edge) != segMax {
				continue
			}

			// Get pointer to the next polygon.
			nt, np := q.m_nav.GetTileAndPolyByRefUnsafe(link.Ref)

			// Skip off-mesh connections.
			if np.GetType() == DT_POLYTYPE_OFFMESH_CONNECTION {
				continue
			}

			// Skip links based on filter.
			if !filter.PassFilter(np) {
				continue
			}

			// If the link is internal, just return the ref.
			if link.Side == 0xff {
				nextRef, nextTile, nextPoly = link.Ref, nt, np
				break
			}

			// If the link is at tile boundary,

			// Check if the link spans the whole edge, and accept.
			if link.Bmin == 0 && link.Bmax == 255 {
				nextRef, nextTile, nextPoly = link.Ref, nt, np
				break
			}

			// Check for partial edge links.
			v0 := poly.Verts[link.Edge]
			v1 := poly.Verts[(link.Edge+1)%poly.VertCount]
			left := common.GetVert3(tile.Verts, int32(v0))
			right := common.GetVert3(tile.Verts, int32(v1))

			// Check that the intersection lies inside the link portal.
			const s = 1.0 / 255.0
			if link.Side == 0 || link.Side == 4 {
				// Calculate link size.
				lmin := left[2] + (right[2]-left[2])*(float32(link.Bmin)*s)
				lmax := left[2] + (right[2]-left[2])*(float32(link.Bmax)*s)
				if lmin > lmax {
					lmin, lmax = lmax, lmin
				}

				// Find Z intersection.
				z := startPos[2] + (endPos[2]-startPos[2])*tmax
				if z >= lmin && z <= lmax {
					nextRef, nextTile, nextPoly = link.Ref, nt, np
					break
				}
			} else if link.Side == 2 || link.Side == 6 {
				// Calculate link size.
				lmin := left[0] + (right[0]-left[0])*(float32(link.Bmin)*s)
				lmax := left[0] + (right[0]-left[0])*(float32(link.Bmax)*s)
				if lmin > lmax {
					lmin, lmax = lmax, lmin
				}

				// Find X intersection.
				x := startPos[0] + (endPos[0]-startPos[0])*tmax
				if x >= lmin && x <= lmax {
					nextRef, nextTile, nextPoly = link.Ref, nt, np
					break
				}
			}
		}

		// add the cost
		if options&DT_RAYCAST_USE_COSTS != 0 {
			// compute the intersection point at the furthest end of the polygon
			// and correct the height (since the raycast moves in 2d)
			lastPos = curPos
			common.Vmad(curPos[:], startPos, dir[:], hit.T)
			e1 := verts[segMax*3 : segMax*3+3]
			e2 := verts[((segMax+1)%nv)*3 : ((segMax+1)%nv)*3+3]
			var eDir, diff [3]float32
			common.Vsub(eDir[:], e2, e1)
			common.Vsub(diff[:], curPos[:], e1)
			var s float32
			if common.Sqr(eDir[0]) > common.Sqr(eDir[2]) {
				s = diff[0] / eDir[0]
			} else {
				s = diff[2] / eDir[2]
			}
			curPos[1] = e1[1] + eDir[1]*s

			hit.PathCost += filter.GetCost(lastPos[:], curPos[:], poly)
		}

		if nextRef == 0 {
			// No neighbour, we hit a wall.

			// Calculate hit normal.
			a := segMax
			b := int32(0)
			if segMax+1 < nv {
				b = segMax + 1
			}
			va := verts[a*3 : a*3+3]
			vb := verts[b*3 : b*3+3]
			dx := vb[0] - va[0]
			dz := vb[2] - va[2]
			hit.HitNormal[0] = dz
			hit.HitNormal[1] = 0
			hit.HitNormal[2] = -dx
			common.Vnormalize(hit.HitNormal[:])
			return hit, status
		}

		// No hit, advance to neighbour polygon.
		curRef = nextRef
		tile = nextTile
		poly = nextPoly
	}
	return hit, status
}
