package recast

import "github.com/gorustyt/navbind/common"

// chamferDistance runs the two pass 2/3 chamfer transform over dist,
// which must be seeded with 0 at boundaries. Values saturate at limit.
func chamferDistance(chf *RcCompactHeightfield, dist []uint16, limit uint16) {
	w := chf.Width
	h := chf.Height
	relax := func(i int32, ai int32, cost uint16) {
		nd := uint16(min(uint32(dist[ai])+uint32(cost), uint32(limit)))
		if nd < dist[i] {
			dist[i] = nd
		}
	}
	step := func(x, z int32, s *RcCompactSpan, i int32, d0, d1 int32) {
		ai := chf.neighbourIndex(x, z, s, d0)
		if ai < 0 {
			return
		}
		relax(i, ai, 2)
		ax := x + common.GetDirOffsetX(d0)
		az := z + common.GetDirOffsetY(d0)
		if bi := chf.neighbourIndex(ax, az, &chf.Spans[ai], d1); bi >= 0 {
			relax(i, bi, 3)
		}
	}
	// Pass 1
	for z := int32(0); z < h; z++ {
		for x := int32(0); x < w; x++ {
			c := chf.Cells[x+z*w]
			for i := c.Index; i < c.Index+c.Count; i++ {
				s := &chf.Spans[i]
				step(x, z, s, i, 0, 3) // (-1,0) then (-1,-1)
				step(x, z, s, i, 3, 2) // (0,-1) then (1,-1)
			}
		}
	}
	// Pass 2
	for z := h - 1; z >= 0; z-- {
		for x := w - 1; x >= 0; x-- {
			c := chf.Cells[x+z*w]
			for i := c.Index; i < c.Index+c.Count; i++ {
				s := &chf.Spans[i]
				step(x, z, s, i, 2, 1) // (1,0) then (1,1)
				step(x, z, s, i, 1, 0) // (0,1) then (-1,1)
			}
		}
	}
}

// / Erodes the walkable area within the heightfield by the specified radius.
func RcErodeWalkableArea(ctx *RcContext, erosionRadius int32, chf *RcCompactHeightfield) bool {
	ctx.StartTimer(RC_TIMER_ERODE_AREA)
	defer ctx.StopTimer(RC_TIMER_ERODE_AREA)

	dist := make([]uint16, chf.SpanCount)
	for i := range dist {
		dist[i] = 0xff
	}
	// Mark boundary cells.
	for z := int32(0); z < chf.Height; z++ {
		for x := int32(0); x < chf.Width; x++ {
			c := chf.Cells[x+z*chf.Width]
			for i := c.Index; i < c.Index+c.Count; i++ {
				if chf.Areas[i] == RC_NULL_AREA {
					dist[i] = 0
					continue
				}
				s := &chf.Spans[i]
				// Check that there is a non-null adjacent span in each of the 4 cardinal directions.
				neighborCount := 0
				for dir := int32(0); dir < 4; dir++ {
					ni := chf.neighbourIndex(x, z, s, dir)
					if ni < 0 || chf.Areas[ni] == RC_NULL_AREA {
						break
					}
					neighborCount++
				}
				// At least one missing neighbour, so this is a boundary cell.
				if neighborCount != 4 {
					dist[i] = 0
				}
			}
		}
	}

	chamferDistance(chf, dist, 255)

	minBoundaryDistance := uint16(erosionRadius * 2)
	for i := int32(0); i < chf.SpanCount; i++ {
		if dist[i] < minBoundaryDistance {
			chf.Areas[i] = RC_NULL_AREA
		}
	}
	return true
}

// footprint converts world bounds to a clamped cell rectangle; ok is false when it misses the grid.
func (chf *RcCompactHeightfield) footprint(bmin, bmax []float32) (minx, miny, minz, maxx, maxy, maxz int32, ok bool) {
	minx = int32((bmin[0] - chf.Bmin[0]) / chf.Cs)
	miny = int32((bmin[1] - chf.Bmin[1]) / chf.Ch)
	minz = int32((bmin[2] - chf.Bmin[2]) / chf.Cs)
	maxx = int32((bmax[0] - chf.Bmin[0]) / chf.Cs)
	maxy = int32((bmax[1] - chf.Bmin[1]) / chf.Ch)
	maxz = int32((bmax[2] - chf.Bmin[2]) / chf.Cs)
	if maxx < 0 || minx >= chf.Width || maxz < 0 || minz >= chf.Height {
		return
	}
	minx = max(minx, 0)
	maxx = min(maxx, chf.Width-1)
	minz = max(minz, 0)
	maxz = min(maxz, chf.Height-1)
	ok = true
	return
}

// / Applies an area id to all spans within the specified bounding box. (AABB)
func RcMarkBoxArea(ctx *RcContext, bmin, bmax []float32, areaId uint8, chf *RcCompactHeightfield) {
	ctx.StartTimer(RC_TIMER_MARK_BOX_AREA)
	defer ctx.StopTimer(RC_TIMER_MARK_BOX_AREA)

	minx, miny, minz, maxx, maxy, maxz, ok := chf.footprint(bmin, bmax)
	if !ok {
		return
	}
	for z := minz; z <= maxz; z++ {
		for x := minx; x <= maxx; x++ {
			c := chf.Cells[x+z*chf.Width]
			for i := c.Index; i < c.Index+c.Count; i++ {
				s := &chf.Spans[i]
				if s.Y < miny || s.Y > maxy || chf.Areas[i] == RC_NULL_AREA {
					continue
				}
				chf.Areas[i] = areaId
			}
		}
	}
}

// / Applies the area id to the all spans within the specified convex polygon.
func RcMarkConvexPolyArea(ctx *RcContext, verts []float32, numVerts int32, minY, maxY float32, areaId uint8, chf *RcCompactHeightfield) {
	ctx.StartTimer(RC_TIMER_MARK_CONVEXPOLY_AREA)
	defer ctx.StopTimer(RC_TIMER_MARK_CONVEXPOLY_AREA)

	var bmin, bmax [3]float32
	copy(bmin[:], verts[:3])
	copy(bmax[:], verts[:3])
	for i := int32(1); i < numVerts; i++ {
		common.Vmin(bmin[:], common.GetVert3(verts, i))
		common.Vmax(bmax[:], common.GetVert3(verts, i))
	}
	bmin[1] = minY
	bmax[1] = maxY

	minx, miny, minz, maxx, maxy, maxz, ok := chf.footprint(bmin[:], bmax[:])
	if !ok {
		return
	}
	for z := minz; z <= maxz; z++ {
		for x := minx; x <= maxx; x++ {
			c := chf.Cells[x+z*chf.Width]
			point := []float32{
				chf.Bmin[0] + (float32(x)+0.5)*chf.Cs,
				0,
				chf.Bmin[2] + (float32(z)+0.5)*chf.Cs,
			}
			for i := c.Index; i < c.Index+c.Count; i++ {
				s := &chf.Spans[i]
				if chf.Areas[i] == RC_NULL_AREA || s.Y < miny || s.Y > maxy {
					continue
				}
				if PointInPoly(numVerts, verts, point) {
					chf.Areas[i] = areaId
				}
			}
		}
	}
}

// / Applies the area id to all spans within the specified y-axis-aligned cylinder.
func RcMarkCylinderArea(ctx *RcContext, position []float32, radius, height float32, areaId uint8, chf *RcCompactHeightfield) {
	ctx.StartTimer(RC_TIMER_MARK_CYLINDER_AREA)
	defer ctx.StopTimer(RC_TIMER_MARK_CYLINDER_AREA)

	bmin := []float32{position[0] - radius, position[1], position[2] - radius}
	bmax := []float32{position[0] + radius, position[1] + height, position[2] + radius}
	minx, miny, minz, maxx, maxy, maxz, ok := chf.footprint(bmin, bmax)
	if !ok {
		return
	}
	radiusSq := radius * radius
	for z := minz; z <= maxz; z++ {
		for x := minx; x <= maxx; x++ {
			c := chf.Cells[x+z*chf.Width]
			cellX := chf.Bmin[0] + (float32(x)+0.5)*chf.Cs
			cellZ := chf.Bmin[2] + (float32(z)+0.5)*chf.Cs
			dx := cellX - position[0]
			dz := cellZ - position[2]
			// Skip this column if it's too far from the center point of the cylinder.
			if dx*dx+dz*dz >= radiusSq {
				continue
			}
			for i := c.Index; i < c.Index+c.Count; i++ {
				s := &chf.Spans[i]
				if chf.Areas[i] == RC_NULL_AREA {
					continue
				}
				if s.Y >= miny && s.Y <= maxy {
					chf.Areas[i] = areaId
				}
			}
		}
	}
}

// / Checks if a point is contained within a polygon, on the xz-plane.
func PointInPoly(numVerts int32, verts []float32, point []float32) bool {
	inPoly := false
	for i, j := int32(0), numVerts-1; i < numVerts; j, i = i, i+1 {
		vi := common.GetVert3(verts, i)
		vj := common.GetVert3(verts, j)
		if (vi[2] > point[2]) == (vj[2] > point[2]) {
			continue
		}
		if point[0] >= (vj[0]-vi[0])*(point[2]-vi[2])/(vj[2]-vi[2])+vi[0] {
			continue
		}
		inPoly = !inPoly
	}
	return inPoly
}
