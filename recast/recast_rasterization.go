package recast

import (
	"math"

	"github.com/gorustyt/navbind/common"
)

const (
	rcAxisX = 0
	rcAxisZ = 2
)

// / Adds a span to the heightfield.  If the new span overlaps existing spans,
// / it will merge the new span with the existing ones.
func RcAddSpan(hf *RcHeightfield, x, z int32, smin, smax int32, areaID uint8, flagMergeThreshold int32) {
	newSpan := &RcSpan{Smin: smin, Smax: smax, Area: areaID}
	columnIndex := x + z*hf.Width
	var previousSpan *RcSpan
	currentSpan := hf.Spans[columnIndex]

	// Insert the new span, possibly merging it with existing spans.
	for currentSpan != nil {
		if currentSpan.Smin > newSpan.Smax {
			// Current span is completely after the new span, break.
			break
		}
		if currentSpan.Smax < newSpan.Smin {
			// Current span is completely before the new span.  Keep going.
			previousSpan = currentSpan
			currentSpan = currentSpan.Next
			continue
		}
		// The new span overlaps with an existing span.  Merge them.
		if currentSpan.Smin < newSpan.Smin {
			newSpan.Smin = currentSpan.Smin
		}
		if currentSpan.Smax > newSpan.Smax {
			newSpan.Smax = currentSpan.Smax
		}
		// Merge flags.
		if common.Abs(newSpan.Smax-currentSpan.Smax) <= flagMergeThreshold {
			// Higher area ID numbers indicate higher resolution priority.
			newSpan.Area = max(newSpan.Area, currentSpan.Area)
		}
		next := currentSpan.Next
		if previousSpan != nil {
			previousSpan.Next = next
		} else {
			hf.Spans[columnIndex] = next
		}
		currentSpan = next
	}

	// Insert new span after prev
	if previousSpan != nil {
		newSpan.Next = previousSpan.Next
		previousSpan.Next = newSpan
	} else {
		newSpan.Next = hf.Spans[columnIndex]
		hf.Spans[columnIndex] = newSpan
	}
}

// / Divides a convex polygon of max 12 vertices into two convex polygons
// / across a separating axis.
func dividePoly(inVerts []float32, inVertsCount int32,
	outVerts1 []float32, outVerts2 []float32,
	axisOffset float32, axis int32) (outVerts1Count, outVerts2Count int32) {
	// How far positive or negative away from the separating axis is each vertex.
	var inVertAxisDelta [12]float32
	for inVert := int32(0); inVert < inVertsCount; inVert++ {
		inVertAxisDelta[inVert] = axisOffset - inVerts[inVert*3+axis]
	}

	poly1Vert := int32(0)
	poly2Vert := int32(0)
	for inVertA, inVertB := int32(0), inVertsCount-1; inVertA < inVertsCount; inVertB, inVertA = inVertA, inVertA+1 {
		// If the two vertices are on the same side of the separating axis
		sameSide := (inVertAxisDelta[inVertA] >= 0) == (inVertAxisDelta[inVertB] >= 0)
		if !sameSide {
			s := inVertAxisDelta[inVertB] / (inVertAxisDelta[inVertB] - inVertAxisDelta[inVertA])
			a := common.GetVert3(inVerts, inVertA)
			b := common.GetVert3(inVerts, inVertB)
			common.Vlerp(common.GetVert3(outVerts1, poly1Vert), b, a, s)
			copy(common.GetVert3(outVerts2, poly2Vert), common.GetVert3(outVerts1, poly1Vert))
			poly1Vert++
			poly2Vert++
			// add the inVertA point to the right polygon. Do NOT add points that are on the dividing line
			// since these were already added above
			if inVertAxisDelta[inVertA] > 0 {
				copy(common.GetVert3(outVerts1, poly1Vert), a)
				poly1Vert++
			} else if inVertAxisDelta[inVertA] < 0 {
				copy(common.GetVert3(outVerts2, poly2Vert), a)
				poly2Vert++
			}
			continue
		}
		// add the inVertA point to the right polygon. Addition is done even for points on the dividing line
		if inVertAxisDelta[inVertA] >= 0 {
			copy(common.GetVert3(outVerts1, poly1Vert), common.GetVert3(inVerts, inVertA))
			poly1Vert++
			if inVertAxisDelta[inVertA] != 0 {
				continue
			}
		}
		copy(common.GetVert3(outVerts2, poly2Vert), common.GetVert3(inVerts, inVertA))
		poly2Vert++
	}
	return poly1Vert, poly2Vert
}

// /	Rasterize a single triangle to the heightfield.
func rasterizeTri(v0, v1, v2 []float32, areaID uint8, hf *RcHeightfield,
	bmin, bmax []float32, cellSize, inverseCellSize, inverseCellHeight float32, flagMergeThreshold int32) {
	// Calculate the bounding box of the triangle.
	var triBBMin, triBBMax [3]float32
	copy(triBBMin[:], v0)
	common.Vmin(triBBMin[:], v1)
	common.Vmin(triBBMin[:], v2)
	copy(triBBMax[:], v0)
	common.Vmax(triBBMax[:], v1)
	common.Vmax(triBBMax[:], v2)

	// If the triangle does not touch the bounding box of the heightfield, skip the triangle.
	if !common.OverlapBounds(triBBMin[:], triBBMax[:], bmin, bmax) {
		return
	}

	w := hf.Width
	h := hf.Height
	by := bmax[1] - bmin[1]

	// Calculate the footprint of the triangle on the grid's z-axis
	z0 := int32((triBBMin[2] - bmin[2]) * inverseCellSize)
	z1 := int32((triBBMax[2] - bmin[2]) * inverseCellSize)
	// use -1 rather than 0 to cut the polygon properly at the start of the tile
	z0 = common.Clamp(z0, -1, h-1)
	z1 = common.Clamp(z1, 0, h-1)

	// Clip the triangle into all grid cells it touches.
	var buf [7 * 3 * 4]float32
	in := buf[0 : 7*3]
	inRow := buf[7*3 : 14*3]
	p1 := buf[14*3 : 21*3]
	p2 := buf[21*3 : 28*3]

	copy(in[0:], v0)
	copy(in[3:], v1)
	copy(in[6:], v2)
	nvIn := int32(3)

	for z := z0; z <= z1; z++ {
		// Clip polygon to row. Store the remaining polygon as well
		cellZ := bmin[2] + float32(z)*cellSize
		var nvRow int32
		nvRow, nvIn = dividePoly(in, nvIn, inRow, p1, cellZ+cellSize, rcAxisZ)
		in, p1 = p1, in
		if nvRow < 3 || z < 0 {
			continue
		}

		// find X-axis bounds of the row
		minX := inRow[0]
		maxX := inRow[0]
		for vert := int32(1); vert < nvRow; vert++ {
			minX = min(minX, inRow[vert*3])
			maxX = max(maxX, inRow[vert*3])
		}
		x0 := int32((minX - bmin[0]) * inverseCellSize)
		x1 := int32((maxX - bmin[0]) * inverseCellSize)
		if x1 < 0 || x0 >= w {
			continue
		}
		x0 = common.Clamp(x0, -1, w-1)
		x1 = common.Clamp(x1, 0, w-1)

		nv2 := nvRow
		for x := x0; x <= x1; x++ {
			// Clip polygon to column. store the remaining polygon as well
			cx := bmin[0] + float32(x)*cellSize
			var nv int32
			nv, nv2 = dividePoly(inRow, nv2, p1, p2, cx+cellSize, rcAxisX)
			inRow, p2 = p2, inRow
			if nv < 3 || x < 0 {
				continue
			}

			// Calculate min and max of the span.
			spanMin := p1[1]
			spanMax := p1[1]
			for vert := int32(1); vert < nv; vert++ {
				spanMin = min(spanMin, p1[vert*3+1])
				spanMax = max(spanMax, p1[vert*3+1])
			}
			spanMin -= bmin[1]
			spanMax -= bmin[1]
			// Skip the span if it's completely outside the heightfield bounding box
			if spanMax < 0.0 || spanMin > by {
				continue
			}
			// Clamp the span to the heightfield bounding box.
			spanMin = max(spanMin, 0)
			spanMax = min(spanMax, by)

			// Snap the span to the heightfield height grid.
			spanMinCell := common.Clamp(int32(math.Floor(float64(spanMin*inverseCellHeight))), 0, RC_SPAN_MAX_HEIGHT)
			spanMaxCell := common.Clamp(int32(math.Ceil(float64(spanMax*inverseCellHeight))), spanMinCell+1, RC_SPAN_MAX_HEIGHT)
			RcAddSpan(hf, x, z, spanMinCell, spanMaxCell, areaID, flagMergeThreshold)
		}
	}
}

// / Rasterizes an indexed triangle mesh into the specified heightfield.
func RcRasterizeTriangles(ctx *RcContext, verts []float32, tris []int32, triAreaIDs []uint8, numTris int32,
	hf *RcHeightfield, flagMergeThreshold int32) bool {
	ctx.StartTimer(RC_TIMER_RASTERIZE_TRIANGLES)
	defer ctx.StopTimer(RC_TIMER_RASTERIZE_TRIANGLES)

	inverseCellSize := 1.0 / hf.Cs
	inverseCellHeight := 1.0 / hf.Ch
	nverts := int32(len(verts) / 3)
	for triIndex := int32(0); triIndex < numTris; triIndex++ {
		i0, i1, i2 := tris[triIndex*3], tris[triIndex*3+1], tris[triIndex*3+2]
		if i0 < 0 || i1 < 0 || i2 < 0 || i0 >= nverts || i1 >= nverts || i2 >= nverts {
			ctx.Errorf("rcRasterizeTriangles: triangle %d references a missing vertex", triIndex)
			return false
		}
		rasterizeTri(common.GetVert3(verts, i0), common.GetVert3(verts, i1), common.GetVert3(verts, i2),
			triAreaIDs[triIndex], hf, hf.Bmin[:], hf.Bmax[:], hf.Cs, inverseCellSize, inverseCellHeight, flagMergeThreshold)
	}
	return true
}
