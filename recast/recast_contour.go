package recast

import "github.com/gorustyt/navbind/common"

// / Contour build flags.
// / @see RcBuildContours
const (
	RC_CONTOUR_TESS_WALL_EDGES = 0x01 ///< Tessellate solid (impassable) edges during contour simplification.
	RC_CONTOUR_TESS_AREA_EDGES = 0x02 ///< Tessellate edges between areas during contour simplification.
)

// / Represents a simple, non-overlapping contour in field space.
type RcContour struct {
	Verts   []int32 ///< Simplified contour vertex and connection data. [Size: 4 * #nverts]
	Nverts  int32   ///< The number of vertices in the simplified contour.
	Rverts  []int32 ///< Raw contour vertex and connection data. [Size: 4 * #nrverts]
	Nrverts int32   ///< The number of vertices in the raw contour.
	Reg     uint16  ///< The region id of the contour.
	Area    uint8   ///< The area id of the contour.
}

// / Represents a group of related contours.
// / @ingroup recast
type RcContourSet struct {
	Conts      []*RcContour ///< An array of the contours in the set.
	Bmin       [3]float32   ///< The minimum bounds in world space. [(x, y, z)]
	Bmax       [3]float32   ///< The maximum bounds in world space. [(x, y, z)]
	Cs         float32      ///< The size of each cell. (On the xz-plane.)
	Ch         float32      ///< The height of each cell. (The minimum increment along the y-axis.)
	Width      int32        ///< The width of the set. (Along the x-axis in cell units.)
	Height     int32        ///< The height of the set. (Along the z-axis in cell units.)
	BorderSize int32        ///< The AABB border size used to generate the source data from which the contours were derived.
	MaxError   float32      ///< The max edge error that this contour set was simplified with.
}

func (cset *RcContourSet) Nconts() int32 { return int32(len(cset.Conts)) }

func getCornerHeight(x, z, i, dir int32, chf *RcCompactHeightfield) (height int32, isBorderVertex bool) {
	s := &chf.Spans[i]
	height = s.Y
	dirp := (dir + 1) & 0x3
	var regs [4]int32

	// Combine region and area codes in order to prevent
	// border vertices which are in between two areas to be removed.
	regs[0] = int32(s.Reg) | int32(chf.Areas[i])<<16

	if ai := chf.neighbourIndex(x, z, s, dir); ai >= 0 {
		as := &chf.Spans[ai]
		height = max(height, as.Y)
		regs[1] = int32(as.Reg) | int32(chf.Areas[ai])<<16
		ax := x + common.GetDirOffsetX(dir)
		az := z + common.GetDirOffsetY(dir)
		if ai2 := chf.neighbourIndex(ax, az, as, dirp); ai2 >= 0 {
			as2 := &chf.Spans[ai2]
			height = max(height, as2.Y)
			regs[2] = int32(as2.Reg) | int32(chf.Areas[ai2])<<16
		}
	}
	if ai := chf.neighbourIndex(x, z, s, dirp); ai >= 0 {
		as := &chf.Spans[ai]
		height = max(height, as.Y)
		regs[3] = int32(as.Reg) | int32(chf.Areas[ai])<<16
		ax := x + common.GetDirOffsetX(dirp)
		az := z + common.GetDirOffsetY(dirp)
		if ai2 := chf.neighbourIndex(ax, az, as, dir); ai2 >= 0 {
			as2 := &chf.Spans[ai2]
			height = max(height, as2.Y)
			regs[2] = int32(as2.Reg) | int32(chf.Areas[ai2])<<16
		}
	}

	// Check if the vertex is special edge vertex, these vertices will be removed later.
	for j := 0; j < 4; j++ {
		a := j
		b := (j + 1) & 0x3
		c := (j + 2) & 0x3
		d := (j + 3) & 0x3

		// The vertex is a border vertex there are two same exterior cells in a row,
		// followed by two interior cells and none of the regions are out of bounds.
		twoSameExts := regs[a]&regs[b]&RC_BORDER_REG != 0 && regs[a] == regs[b]
		twoInts := (regs[c]|regs[d])&RC_BORDER_REG == 0
		intsSameArea := regs[c]>>16 == regs[d]>>16
		noZeros := regs[a] != 0 && regs[b] != 0 && regs[c] != 0 && regs[d] != 0
		if twoSameExts && twoInts && intsSameArea && noZeros {
			isBorderVertex = true
			break
		}
	}
	return height, isBorderVertex
}

func walkContour(x, z, i int32, chf *RcCompactHeightfield, flags []uint8, points []int32) []int32 {
	// Choose the first non-connected edge
	dir := int32(0)
	for flags[i]&(1<<dir) == 0 {
		dir++
	}
	startDir := dir
	starti := i
	area := chf.Areas[i]

	for iter := 0; iter < 40000; iter++ {
		if flags[i]&(1<<dir) != 0 {
			// Choose the edge corner
			py, isBorderVertex := getCornerHeight(x, z, i, dir, chf)
			px := x
			pz := z
			switch dir {
			case 0:
				pz++
			case 1:
				px++
				pz++
			case 2:
				px++
			}
			r := int32(0)
			if ai := chf.neighbourIndex(x, z, &chf.Spans[i], dir); ai >= 0 {
				r = int32(chf.Spans[ai].Reg)
				if area != chf.Areas[ai] {
					r |= RC_AREA_BORDER
				}
			}
			if isBorderVertex {
				r |= RC_BORDER_VERTEX
			}
			points = append(points, px, py, pz, r)

			flags[i] &^= 1 << dir // Remove visited edges
			dir = (dir + 1) & 0x3 // Rotate CW
		} else {
			ni := chf.neighbourIndex(x, z, &chf.Spans[i], dir)
			if ni < 0 {
				// Should not happen.
				return points
			}
			x += common.GetDirOffsetX(dir)
			z += common.GetDirOffsetY(dir)
			i = ni
			dir = (dir + 3) & 0x3 // Rotate CCW
		}
		if starti == i && startDir == dir {
			break
		}
	}
	return points
}

// insertPoint inserts raw point pi after simplified vertex i.
func insertPoint(simplified []int32, i int32, points []int32, pi int32) []int32 {
	simplified = append(simplified, 0, 0, 0, 0)
	copy(simplified[(i+2)*4:], simplified[(i+1)*4:len(simplified)-4])
	simplified[(i+1)*4+0] = points[pi*4+0]
	simplified[(i+1)*4+1] = points[pi*4+1]
	simplified[(i+1)*4+2] = points[pi*4+2]
	simplified[(i+1)*4+3] = pi
	return simplified
}

func simplifyContour(points, simplified []int32, maxError float32, maxEdgeLen, buildFlags int32) []int32 {
	pn := int32(len(points) / 4)

	// Add initial points.
	hasConnections := false
	for i := int32(0); i < pn; i++ {
		if points[i*4+3]&RC_CONTOUR_REG_MASK != 0 {
			hasConnections = true
			break
		}
	}
	if hasConnections {
		// The contour has some portals to other regions.
		// Add a new point to every location where the region changes.
		for i := int32(0); i < pn; i++ {
			ii := (i + 1) % pn
			differentRegs := points[i*4+3]&RC_CONTOUR_REG_MASK != points[ii*4+3]&RC_CONTOUR_REG_MASK
			areaBorders := points[i*4+3]&RC_AREA_BORDER != points[ii*4+3]&RC_AREA_BORDER
			if differentRegs || areaBorders {
				simplified = append(simplified, points[i*4], points[i*4+1], points[i*4+2], i)
			}
		}
	}

	if len(simplified) == 0 {
		// If there is no connections at all,
		// create some initial points for the simplification process.
		// Find lower-left and upper-right vertices of the contour.
		lli, uri := int32(0), int32(0)
		for i := int32(1); i < pn; i++ {
			x, z := points[i*4], points[i*4+2]
			if x < points[lli*4] || (x == points[lli*4] && z < points[lli*4+2]) {
				lli = i
			}
			if x > points[uri*4] || (x == points[uri*4] && z > points[uri*4+2]) {
				uri = i
			}
		}
		simplified = append(simplified, points[lli*4], points[lli*4+1], points[lli*4+2], lli)
		simplified = append(simplified, points[uri*4], points[uri*4+1], points[uri*4+2], uri)
	}

	// Add points until all raw points are within
	// error tolerance to the simplified shape.
	for i := int32(0); i < int32(len(simplified)/4); {
		ii := (i + 1) % int32(len(simplified)/4)
		ax, az, ai := simplified[i*4], simplified[i*4+2], simplified[i*4+3]
		bx, bz, bi := simplified[ii*4], simplified[ii*4+2], simplified[ii*4+3]

		// Find maximum deviation from the segment.
		maxd := float32(0)
		maxi := int32(-1)
		var ci, cinc, endi int32

		// Traverse the segment in lexilogical order so that the
		// max deviation is calculated similarly when traversing
		// opposite segments.
		if bx > ax || (bx == ax && bz > az) {
			cinc = 1
			ci = (ai + cinc) % pn
			endi = bi
		} else {
			cinc = pn - 1
			ci = (bi + cinc) % pn
			endi = ai
			ax, bx = bx, ax
			az, bz = bz, az
		}

		// Tessellate only outer edges or edges between areas.
		if points[ci*4+3]&RC_CONTOUR_REG_MASK == 0 || points[ci*4+3]&RC_AREA_BORDER != 0 {
			for ci != endi {
				d := common.DistancePtSeg2D(points[ci*4], points[ci*4+2], ax, az, bx, bz)
				if d > maxd {
					maxd = d
					maxi = ci
				}
				ci = (ci + cinc) % pn
			}
		}

		// If the max deviation is larger than accepted error,
		// add new point, else continue to next segment.
		if maxi != -1 && maxd > maxError*maxError {
			simplified = insertPoint(simplified, i, points, maxi)
		} else {
			i++
		}
	}

	// Split too long edges.
	if maxEdgeLen > 0 && buildFlags&(RC_CONTOUR_TESS_WALL_EDGES|RC_CONTOUR_TESS_AREA_EDGES) != 0 {
		for i := int32(0); i < int32(len(simplified)/4); {
			ii := (i + 1) % int32(len(simplified)/4)
			ax, az, ai := simplified[i*4], simplified[i*4+2], simplified[i*4+3]
			bx, bz, bi := simplified[ii*4], simplified[ii*4+2], simplified[ii*4+3]

			maxi := int32(-1)
			ci := (ai + 1) % pn

			// Tessellate only outer edges or edges between areas.
			tess := buildFlags&RC_CONTOUR_TESS_WALL_EDGES != 0 && points[ci*4+3]&RC_CONTOUR_REG_MASK == 0
			tess = tess || buildFlags&RC_CONTOUR_TESS_AREA_EDGES != 0 && points[ci*4+3]&RC_AREA_BORDER != 0
			if tess {
				dx := bx - ax
				dz := bz - az
				if dx*dx+dz*dz > maxEdgeLen*maxEdgeLen {
					// Round based on the segments in lexilogical order so that the
					// max tesselation is consistent regardless in which direction
					// segments are traversed.
					n := bi - ai
					if bi < ai {
						n = bi + pn - ai
					}
					if n > 1 {
						if bx > ax || (bx == ax && bz > az) {
							maxi = (ai + n/2) % pn
						} else {
							maxi = (ai + (n+1)/2) % pn
						}
					}
				}
			}
			if maxi != -1 {
				simplified = insertPoint(simplified, i, points, maxi)
			} else {
				i++
			}
		}
	}

	for i := 0; i < len(simplified)/4; i++ {
		// The edge vertex flag is take from the current raw point,
		// and the neighbour region is take from the next raw point.
		ai := (simplified[i*4+3] + 1) % pn
		bi := simplified[i*4+3]
		simplified[i*4+3] = points[ai*4+3]&(RC_CONTOUR_REG_MASK|RC_AREA_BORDER) | points[bi*4+3]&RC_BORDER_VERTEX
	}
	return simplified
}

func removeDegenerateSegments(simplified []int32) []int32 {
	// Remove adjacent vertices which are equal on xz-plane,
	// or else the triangulator will get confused.
	npts := int32(len(simplified) / 4)
	for i := int32(0); i < npts; i++ {
		ni := common.Next(i, npts)
		if simplified[i*4] == simplified[ni*4] && simplified[i*4+2] == simplified[ni*4+2] {
			// Degenerate segment, remove.
			simplified = append(simplified[:i*4], simplified[(i+1)*4:]...)
			npts--
			i--
		}
	}
	return simplified
}

func calcAreaOfPolygon2D(verts []int32, nverts int32) int32 {
	area := int32(0)
	for i, j := int32(0), nverts-1; i < nverts; j, i = i, i+1 {
		vi := common.GetVert4(verts, i)
		vj := common.GetVert4(verts, j)
		area += vi[0]*vj[2] - vj[0]*vi[2]
	}
	return (area + 1) / 2
}

// / Builds a contour set from the region outlines in the provided compact heightfield.
// /
// / Simplified contours are generated such that the vertices for portals between areas match up.
// / Setting @p maxEdgeLen to zero will disabled the edge length feature.
func RcBuildContours(ctx *RcContext, chf *RcCompactHeightfield, maxError float32, maxEdgeLen int32, buildFlags int32) (*RcContourSet, bool) {
	ctx.StartTimer(RC_TIMER_BUILD_CONTOURS)
	defer ctx.StopTimer(RC_TIMER_BUILD_CONTOURS)

	w := chf.Width
	h := chf.Height
	borderSize := chf.BorderSize

	cset := &RcContourSet{
		Bmin:       chf.Bmin,
		Bmax:       chf.Bmax,
		Cs:         chf.Cs,
		Ch:         chf.Ch,
		Width:      chf.Width - chf.BorderSize*2,
		Height:     chf.Height - chf.BorderSize*2,
		BorderSize: chf.BorderSize,
		MaxError:   maxError,
		Conts:      make([]*RcContour, 0, max(int(chf.MaxRegions), 8)),
	}
	if borderSize > 0 {
		// If the heightfield was build with bordersize, remove the offset.
		pad := float32(borderSize) * chf.Cs
		cset.Bmin[0] += pad
		cset.Bmin[2] += pad
		cset.Bmax[0] -= pad
		cset.Bmax[2] -= pad
	}

	flags := make([]uint8, chf.SpanCount)
	ctx.StartTimer(RC_TIMER_BUILD_CONTOURS_TRACE)
	// Mark boundaries.
	for z := int32(0); z < h; z++ {
		for x := int32(0); x < w; x++ {
			c := chf.Cells[x+z*w]
			for i := c.Index; i < c.Index+c.Count; i++ {
				s := &chf.Spans[i]
				if s.Reg == 0 || s.Reg&RC_BORDER_REG != 0 {
					flags[i] = 0
					continue
				}
				res := uint8(0)
				for dir := int32(0); dir < 4; dir++ {
					r := uint16(0)
					if ai := chf.neighbourIndex(x, z, s, dir); ai >= 0 {
						r = chf.Spans[ai].Reg
					}
					if r == s.Reg {
						res |= 1 << dir
					}
				}
				flags[i] = res ^ 0xf // Inverse, mark non connected edges.
			}
		}
	}
	ctx.StopTimer(RC_TIMER_BUILD_CONTOURS_TRACE)

	verts := make([]int32, 0, 256)
	simplified := make([]int32, 0, 64)
	holes := 0
	for z := int32(0); z < h; z++ {
		for x := int32(0); x < w; x++ {
			c := chf.Cells[x+z*w]
			for i := c.Index; i < c.Index+c.Count; i++ {
				if flags[i] == 0 || flags[i] == 0xf {
					flags[i] = 0
					continue
				}
				reg := chf.Spans[i].Reg
				if reg == 0 || reg&RC_BORDER_REG != 0 {
					continue
				}
				area := chf.Areas[i]

				ctx.StartTimer(RC_TIMER_BUILD_CONTOURS_TRACE)
				verts = walkContour(x, z, i, chf, flags, verts[:0])
				ctx.StopTimer(RC_TIMER_BUILD_CONTOURS_TRACE)

				ctx.StartTimer(RC_TIMER_BUILD_CONTOURS_SIMPLIFY)
				simplified = simplifyContour(verts, simplified[:0], maxError, maxEdgeLen, buildFlags)
				simplified = removeDegenerateSegments(simplified)
				ctx.StopTimer(RC_TIMER_BUILD_CONTOURS_SIMPLIFY)

				// Create contour.
				if len(simplified)/4 < 3 {
					continue
				}
				cont := &RcContour{
					Nverts:  int32(len(simplified) / 4),
					Verts:   append([]int32(nil), simplified...),
					Nrverts: int32(len(verts) / 4),
					Rverts:  append([]int32(nil), verts...),
					Reg:     reg,
					Area:    area,
				}
				if borderSize > 0 {
					// If the heightfield was build with bordersize, remove the offset.
					for j := 0; j < len(cont.Verts); j += 4 {
						cont.Verts[j] -= borderSize
						cont.Verts[j+2] -= borderSize
					}
					for j := 0; j < len(cont.Rverts); j += 4 {
						cont.Rverts[j] -= borderSize
						cont.Rverts[j+2] -= borderSize
					}
				}
				// Monotone regions have no holes; a backwards wound contour
				// means simplification folded the outline, drop it.
				if calcAreaOfPolygon2D(cont.Verts, cont.Nverts) < 0 {
					holes++
					continue
				}
				cset.Conts = append(cset.Conts, cont)
			}
		}
	}
	if holes > 0 {
		ctx.Warnf("rcBuildContours: dropped %d backwards wound contours", holes)
	}
	return cset, true
}
