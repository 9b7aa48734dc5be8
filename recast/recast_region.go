package recast

import "github.com/gorustyt/navbind/common"

func calculateDistanceField(chf *RcCompactHeightfield, src []uint16) (maxDist uint16) {
	w := chf.Width
	h := chf.Height
	for i := range src {
		src[i] = 0xffff
	}
	// Mark boundary cells.
	for z := int32(0); z < h; z++ {
		for x := int32(0); x < w; x++ {
			c := chf.Cells[x+z*w]
			for i := c.Index; i < c.Index+c.Count; i++ {
				s := &chf.Spans[i]
				area := chf.Areas[i]
				nc := 0
				for dir := int32(0); dir < 4; dir++ {
					if ai := chf.neighbourIndex(x, z, s, dir); ai >= 0 && area == chf.Areas[ai] {
						nc++
					}
				}
				if nc != 4 {
					src[i] = 0
				}
			}
		}
	}
	chamferDistance(chf, src, 0xffff)
	for _, d := range src {
		maxDist = max(maxDist, d)
	}
	return maxDist
}

func boxBlur(chf *RcCompactHeightfield, thr uint16, src, dst []uint16) []uint16 {
	w := chf.Width
	h := chf.Height
	thr *= 2
	for z := int32(0); z < h; z++ {
		for x := int32(0); x < w; x++ {
			c := chf.Cells[x+z*w]
			for i := c.Index; i < c.Index+c.Count; i++ {
				s := &chf.Spans[i]
				cd := uint32(src[i])
				if cd <= uint32(thr) {
					dst[i] = uint16(cd)
					continue
				}
				d := cd
				for dir := int32(0); dir < 4; dir++ {
					ai := chf.neighbourIndex(x, z, s, dir)
					if ai < 0 {
						d += cd * 2
						continue
					}
					d += uint32(src[ai])
					ax := x + common.GetDirOffsetX(dir)
					az := z + common.GetDirOffsetY(dir)
					dir2 := (dir + 1) & 0x3
					if ai2 := chf.neighbourIndex(ax, az, &chf.Spans[ai], dir2); ai2 >= 0 {
						d += uint32(src[ai2])
					} else {
						d += cd
					}
				}
				dst[i] = uint16((d + 5) / 9)
			}
		}
	}
	return dst
}

// / Builds the distance field for the specified compact heightfield.
func RcBuildDistanceField(ctx *RcContext, chf *RcCompactHeightfield) bool {
	ctx.StartTimer(RC_TIMER_BUILD_DISTANCEFIELD)
	defer ctx.StopTimer(RC_TIMER_BUILD_DISTANCEFIELD)

	src := make([]uint16, chf.SpanCount)
	dst := make([]uint16, chf.SpanCount)
	chf.MaxDistance = calculateDistanceField(chf, src)
	chf.Dist = boxBlur(chf, 1, src, dst)
	return true
}

func paintRectRegion(minx, maxx, minz, maxz int32, regId uint16, chf *RcCompactHeightfield, srcReg []uint16) {
	w := chf.Width
	for z := minz; z < maxz; z++ {
		for x := minx; x < maxx; x++ {
			c := chf.Cells[x+z*w]
			for i := c.Index; i < c.Index+c.Count; i++ {
				if chf.Areas[i] != RC_NULL_AREA {
					srcReg[i] = regId
				}
			}
		}
	}
}

const rcNullNei = 0xffff

type rcSweepSpan struct {
	rid uint16 // row id
	id  uint16 // region id
	ns  uint16 // number samples
	nei uint16 // neighbour id
}

// / Builds region data for the heightfield by partitioning the heightfield in non-overlapping layers.
// /
// / Non-null regions will consist of connected, non-overlapping walkable spans that form a single contour.
// / If multiple regions form an area that is smaller than @p minRegionArea, then all spans will be
// / re-assigned to the zero (null) region.
func RcBuildRegionsMonotone(ctx *RcContext, chf *RcCompactHeightfield, borderSize, minRegionArea, mergeRegionArea int32) bool {
	ctx.StartTimer(RC_TIMER_BUILD_REGIONS)
	defer ctx.StopTimer(RC_TIMER_BUILD_REGIONS)

	w := chf.Width
	h := chf.Height
	id := uint16(1)
	srcReg := make([]uint16, chf.SpanCount)

	// Mark border regions.
	if borderSize > 0 {
		// Make sure border will not overflow.
		bw := min(w, borderSize)
		bh := min(h, borderSize)
		paintRectRegion(0, bw, 0, h, id|RC_BORDER_REG, chf, srcReg)
		id++
		paintRectRegion(w-bw, w, 0, h, id|RC_BORDER_REG, chf, srcReg)
		id++
		paintRectRegion(0, w, 0, bh, id|RC_BORDER_REG, chf, srcReg)
		id++
		paintRectRegion(0, w, h-bh, h, id|RC_BORDER_REG, chf, srcReg)
		id++
	}
	chf.BorderSize = borderSize

	var sweeps []rcSweepSpan
	var prev []uint16
	// Sweep one line at a time.
	for z := borderSize; z < h-borderSize; z++ {
		// Collect spans from this row.
		prev = append(prev[:0], make([]uint16, int(id)+1)...)
		sweeps = append(sweeps[:0], rcSweepSpan{})
		rid := uint16(1)

		for x := borderSize; x < w-borderSize; x++ {
			c := chf.Cells[x+z*w]
			for i := c.Index; i < c.Index+c.Count; i++ {
				s := &chf.Spans[i]
				if chf.Areas[i] == RC_NULL_AREA {
					continue
				}
				// -x
				previd := uint16(0)
				if ai := chf.neighbourIndex(x, z, s, 0); ai >= 0 {
					if srcReg[ai]&RC_BORDER_REG == 0 && chf.Areas[i] == chf.Areas[ai] {
						previd = srcReg[ai]
					}
				}
				if previd == 0 {
					previd = rid
					rid++
					sweeps = append(sweeps, rcSweepSpan{rid: previd})
				}
				// -z
				if ai := chf.neighbourIndex(x, z, s, 3); ai >= 0 {
					if srcReg[ai] > 0 && srcReg[ai]&RC_BORDER_REG == 0 && chf.Areas[i] == chf.Areas[ai] {
						nr := srcReg[ai]
						sw := &sweeps[previd]
						if sw.nei == 0 || sw.nei == nr {
							sw.nei = nr
							sw.ns++
							prev[nr]++
						} else {
							sw.nei = rcNullNei
						}
					}
				}
				srcReg[i] = previd
			}
		}

		// Create unique ID.
		for i := uint16(1); i < rid; i++ {
			sw := &sweeps[i]
			if sw.nei != rcNullNei && sw.nei != 0 && prev[sw.nei] == sw.ns {
				sw.id = sw.nei
			} else {
				sw.id = id
				id++
			}
		}

		// Remap IDs
		for x := borderSize; x < w-borderSize; x++ {
			c := chf.Cells[x+z*w]
			for i := c.Index; i < c.Index+c.Count; i++ {
				if srcReg[i] > 0 && srcReg[i] < rid {
					srcReg[i] = sweeps[srcReg[i]].id
				}
			}
		}
	}

	chf.MaxRegions = filterSmallRegions(chf, srcReg, id, minRegionArea)
	// Monotone partitioning does not generate overlapping regions.
	for i := range chf.Spans {
		chf.Spans[i].Reg = srcReg[i]
	}
	return true
}

// filterSmallRegions clears connected groups of regions smaller than minRegionArea
// that do not touch the tile border, then compacts the remaining region ids.
func filterSmallRegions(chf *RcCompactHeightfield, srcReg []uint16, nreg uint16, minRegionArea int32) uint16 {
	w := chf.Width
	type region struct {
		spanCount   int32
		connections map[uint16]struct{}
		border      bool
		visited     bool
		remap       uint16
	}
	regions := make([]region, nreg)
	for i := range regions {
		regions[i].connections = map[uint16]struct{}{}
	}
	for z := int32(0); z < chf.Height; z++ {
		for x := int32(0); x < w; x++ {
			c := chf.Cells[x+z*w]
			for i := c.Index; i < c.Index+c.Count; i++ {
				r := srcReg[i]
				if r == 0 || r >= nreg {
					continue
				}
				reg := &regions[r]
				reg.spanCount++
				s := &chf.Spans[i]
				for dir := int32(0); dir < 4; dir++ {
					ai := chf.neighbourIndex(x, z, s, dir)
					if ai < 0 {
						continue
					}
					if nr := srcReg[ai]; nr != r && nr != 0 {
						if nr&RC_BORDER_REG != 0 {
							reg.border = true
						} else if nr < nreg {
							reg.connections[nr] = struct{}{}
						}
					}
				}
			}
		}
	}

	// Remove too small connected groups.
	var stack, trace []uint16
	for start := uint16(1); start < nreg; start++ {
		if start&RC_BORDER_REG != 0 || regions[start].visited || regions[start].spanCount == 0 {
			continue
		}
		stack = append(stack[:0], start)
		trace = trace[:0]
		regions[start].visited = true
		spanCount := int32(0)
		connectsToBorder := false
		for len(stack) > 0 {
			ri := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			reg := &regions[ri]
			spanCount += reg.spanCount
			connectsToBorder = connectsToBorder || reg.border
			trace = append(trace, ri)
			for nei := range reg.connections {
				if !regions[nei].visited {
					regions[nei].visited = true
					stack = append(stack, nei)
				}
			}
		}
		if spanCount < minRegionArea && !connectsToBorder {
			for _, ri := range trace {
				regions[ri].spanCount = 0
			}
		}
	}

	// Compress region Ids.
	regIdGen := uint16(0)
	for r := uint16(1); r < nreg; r++ {
		if regions[r].spanCount > 0 {
			regIdGen++
			regions[r].remap = regIdGen
		}
	}
	for i, r := range srcReg {
		if r&RC_BORDER_REG != 0 || r == 0 || r >= nreg {
			continue
		}
		srcReg[i] = regions[r].remap
	}
	return regIdGen + 1
}
