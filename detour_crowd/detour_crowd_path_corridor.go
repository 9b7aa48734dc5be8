package detour_crowd

import (
	"github.com/gorustyt/navbind/common"
	"github.com/gorustyt/navbind/detour"
)

// / Merges the polygons visited by a surface move into the start of the path.
// / Returns the merged path.
func DtMergeCorridorStartMoved(path []detour.DtPolyRef, maxPath int, visited []detour.DtPolyRef) []detour.DtPolyRef {
	furthestPath := -1
	furthestVisited := -1

	// Find furthest common polygon.
	for i := len(path) - 1; i >= 0; i-- {
		for j := len(visited) - 1; j >= 0; j-- {
			if path[i] == visited[j] {
				furthestPath = i
				furthestVisited = j
			}
		}
		if furthestPath != -1 {
			break
		}
	}

	// If no intersection found just return current path.
	if furthestPath == -1 {
		return path
	}

	// Concatenate paths. The visited polygons go first, reversed.
	req := len(visited) - furthestVisited
	rest := path[furthestPath+1:]
	if req+len(rest) > maxPath {
		rest = rest[:max(0, maxPath-req)]
	}
	res := make([]detour.DtPolyRef, 0, req+len(rest))
	for i := 0; i < req; i++ {
		res = append(res, visited[len(visited)-1-i])
	}
	return append(res, rest...)
}

// / Merges the polygons visited by a target move into the end of the path.
func DtMergeCorridorEndMoved(path []detour.DtPolyRef, maxPath int, visited []detour.DtPolyRef) []detour.DtPolyRef {
	furthestPath := -1
	furthestVisited := -1

	// Find furthest common polygon.
	for i := 0; i < len(path); i++ {
		for j := len(visited) - 1; j >= 0; j-- {
			if path[i] == visited[j] {
				furthestPath = i
				furthestVisited = j
			}
		}
		if furthestPath != -1 {
			break
		}
	}

	if furthestPath == -1 {
		return path
	}

	// Concatenate paths.
	ppos := furthestPath + 1
	vpos := furthestVisited + 1
	count := min(len(visited)-vpos, maxPath-ppos)
	res := make([]detour.DtPolyRef, 0, ppos+max(0, count))
	res = append(res, path[:ppos]...)
	if count > 0 {
		res = append(res, visited[vpos:vpos+count]...)
	}
	return res
}

// / Replaces the start of the path up to the furthest common polygon with a shortcut.
func DtMergeCorridorStartShortcut(path []detour.DtPolyRef, maxPath int, visited []detour.DtPolyRef) []detour.DtPolyRef {
	furthestPath := -1
	furthestVisited := -1

	// Find furthest common polygon.
	for i := len(path) - 1; i >= 0; i-- {
		for j := len(visited) - 1; j >= 0; j-- {
			if path[i] == visited[j] {
				furthestPath = i
				furthestVisited = j
			}
		}
		if furthestPath != -1 {
			break
		}
	}

	// If no intersection found just return current path.
	if furthestPath == -1 {
		return path
	}

	// Concatenate paths.
	req := furthestVisited
	if req <= 0 {
		return path
	}
	rest := path[furthestPath:]
	if req+len(rest) > maxPath {
		rest = rest[:max(0, maxPath-req)]
	}
	res := make([]detour.DtPolyRef, 0, req+len(rest))
	res = append(res, visited[:req]...)
	return append(res, rest...)
}

// / Represents a dynamic polygon corridor used to plan agent movement.
// / The position lies in the first polygon and the target in the last one.
type DtPathCorridor struct {
	m_pos     [3]float32
	m_target  [3]float32
	m_path    []detour.DtPolyRef
	m_maxPath int
}

func NewDtPathCorridor(maxPath int) *DtPathCorridor {
	return &DtPathCorridor{m_maxPath: maxPath, m_path: make([]detour.DtPolyRef, 0, maxPath)}
}

// / Gets the current position within the corridor. (In the first polygon.)
func (d *DtPathCorridor) GetPos() [3]float32 { return d.m_pos }

// / Gets the current target within the corridor. (In the last polygon.)
func (d *DtPathCorridor) GetTarget() [3]float32 { return d.m_target }

func (d *DtPathCorridor) GetFirstPoly() detour.DtPolyRef {
	if len(d.m_path) > 0 {
		return d.m_path[0]
	}
	return 0
}

func (d *DtPathCorridor) GetLastPoly() detour.DtPolyRef {
	if len(d.m_path) > 0 {
		return d.m_path[len(d.m_path)-1]
	}
	return 0
}

func (d *DtPathCorridor) GetPath() []detour.DtPolyRef { return d.m_path }
func (d *DtPathCorridor) GetPathCount() int           { return len(d.m_path) }

// / Resets the corridor to a single polygon with the target equal to the position.
func (d *DtPathCorridor) Reset(ref detour.DtPolyRef, pos []float32) {
	copy(d.m_pos[:], pos)
	copy(d.m_target[:], pos)
	d.m_path = append(d.m_path[:0], ref)
}

// / Finds the corners in the corridor from the position toward the target.
// / Corners closer than MIN_TARGET_DIST to the position are pruned.
func (d *DtPathCorridor) FindCorners(maxCorners int32, navquery *detour.DtNavMeshQuery) (verts []float32, flags []uint8, polys []detour.DtPolyRef) {
	const MIN_TARGET_DIST = 0.01

	verts, flags, polys, status := navquery.FindStraightPath(d.m_pos[:], d.m_target[:], d.m_path, maxCorners, 0)
	if status.Failed() {
		return nil, nil, nil
	}

	// Prune points in the beginning of the path which are too close.
	for len(flags) > 0 && common.Vdist2DSqr(verts, d.m_pos[:]) <= common.Sqr(float32(MIN_TARGET_DIST)) {
		verts, flags, polys = verts[3:], flags[1:], polys[1:]
	}
	return verts, flags, polys
}

// / Attempts to optimize the path if the specified point is visible from the current position.
// / The corridor changes only when the ray reaches (almost) the full range.
func (d *DtPathCorridor) OptimizePathVisibility(next []float32, pathOptimizationRange float32,
	navquery *detour.DtNavMeshQuery, filter *detour.DtQueryFilter) {
	const MAX_RES = 32
	var goal [3]float32
	copy(goal[:], next)
	dist := common.Vdist2D(d.m_pos[:], goal[:])

	// If too close to the goal, do not try to optimize.
	if dist < 0.01 {
		return
	}

	// Overshoot a little. This helps to optimize open fields in tiled meshes.
	dist = min(dist+0.01, pathOptimizationRange)

	// Adjust ray length.
	var delta [3]float32
	common.Vsub(delta[:], goal[:], d.m_pos[:])
	common.Vmad(goal[:], d.m_pos[:], delta[:], pathOptimizationRange/dist)

	hit, status := navquery.Raycast(d.m_path[0], d.m_pos[:], goal[:], filter, 0, MAX_RES, 0)
	if status.Failed() {
		return
	}
	if len(hit.Path) > 1 && hit.T > 0.99 {
		d.m_path = DtMergeCorridorStartShortcut(d.m_path, d.m_maxPath, hit.Path)
	}
}

// / Attempts to re-optimize the corridor with a small local search.
func (d *DtPathCorridor) OptimizePathTopology(navquery *detour.DtNavMeshQuery, filter *detour.DtQueryFilter) bool {
	const MAX_ITER = 32
	const MAX_RES = 32
	if len(d.m_path) < 3 {
		return false
	}

	navquery.InitSlicedFindPath(d.m_path[0], d.m_path[len(d.m_path)-1], d.m_pos[:], d.m_target[:], filter, 0)
	navquery.UpdateSlicedFindPath(MAX_ITER)
	res, status := navquery.FinalizeSlicedFindPathPartial(d.m_path, MAX_RES)
	if status.Succeed() && len(res) > 0 {
		d.m_path = DtMergeCorridorStartShortcut(d.m_path, d.m_maxPath, res)
		return true
	}
	return false
}

// / Moves the position along the surface toward npos and keeps the corridor valid.
// / The resulting position may differ from npos when it is off the mesh or out of local reach.
func (d *DtPathCorridor) MovePosition(npos []float32, navquery *detour.DtNavMeshQuery, filter *detour.DtQueryFilter) bool {
	const MAX_VISITED = 16
	result, visited, status := navquery.MoveAlongSurface(d.m_path[0], d.m_pos[:], npos, filter, MAX_VISITED)
	if status.Failed() {
		return false
	}
	d.m_path = DtMergeCorridorStartMoved(d.m_path, d.m_maxPath, visited)

	// Adjust the position to stay on top of the navmesh.
	if h, hs := navquery.GetPolyHeight(d.m_path[0], result[:]); hs.Succeed() {
		result[1] = h
	}
	d.m_pos = result
	return true
}

// / Moves the target along the surface toward npos and keeps the corridor valid.
func (d *DtPathCorridor) MoveTargetPosition(npos []float32, navquery *detour.DtNavMeshQuery, filter *detour.DtQueryFilter) bool {
	const MAX_VISITED = 16
	result, visited, status := navquery.MoveAlongSurface(d.m_path[len(d.m_path)-1], d.m_target[:], npos, filter, MAX_VISITED)
	if status.Failed() {
		return false
	}
	d.m_path = DtMergeCorridorEndMoved(d.m_path, d.m_maxPath, visited)
	d.m_target = result
	return true
}

// / Loads a new path and target into the corridor. The path is truncated to the corridor capacity.
func (d *DtPathCorridor) SetCorridor(target []float32, path []detour.DtPolyRef) {
	copy(d.m_target[:], target)
	if len(path) > d.m_maxPath {
		path = path[:d.m_maxPath]
	}
	d.m_path = append(d.m_path[:0], path...)
}

// / Replaces the first polygon with safeRef and moves the position to safePos.
func (d *DtPathCorridor) FixPathStart(safeRef detour.DtPolyRef, safePos []float32) {
	copy(d.m_pos[:], safePos)
	if len(d.m_path) < 3 && len(d.m_path) > 0 {
		last := d.m_path[len(d.m_path)-1]
		d.m_path = append(d.m_path[:0], safeRef, 0, last)
	} else if len(d.m_path) > 0 {
		d.m_path[0] = safeRef
		d.m_path[1] = 0
	} else {
		d.m_path = append(d.m_path, safeRef)
	}
}

// / Drops the invalid tail of the path and clamps the target into the last kept polygon.
func (d *DtPathCorridor) TrimInvalidPath(safeRef detour.DtPolyRef, safePos []float32,
	navquery *detour.DtNavMeshQuery, filter *detour.DtQueryFilter) {
	// Keep valid path as far as possible.
	n := 0
	for n < len(d.m_path) && navquery.IsValidPolyRef(d.m_path[n], filter) {
		n++
	}

	if n == len(d.m_path) {
		// All valid, no need to fix.
		return
	} else if n == 0 {
		// The first polyref is bad, use current safe values.
		copy(d.m_pos[:], safePos)
		d.m_path = append(d.m_path[:0], safeRef)
	} else {
		// The path is partially usable.
		d.m_path = d.m_path[:n]
	}

	// Clamp target pos to last poly
	if tgt, status := navquery.ClosestPointOnPolyBoundary(d.m_path[len(d.m_path)-1], d.m_target[:]); status.Succeed() {
		d.m_target = tgt
	}
}

// / Checks that the first maxLookAhead polygons still pass the filter.
// / The path is invalidated by tile changes or by polygon flag changes.
func (d *DtPathCorridor) IsValid(maxLookAhead int, navquery *detour.DtNavMeshQuery, filter *detour.DtQueryFilter) bool {
	n := min(len(d.m_path), maxLookAhead)
	for i := 0; i < n; i++ {
		if !navquery.IsValidPolyRef(d.m_path[i], filter) {
			return false
		}
	}
	return true
}
