package recast

import (
	"math"

	"github.com/gorustyt/navbind/common"
)

// / Specifies a configuration to use when performing Recast builds.
// / @ingroup recast
type RcConfig struct {
	/// The width of the field along the x-axis. [Limit: >= 0] [Units: vx]
	Width int32
	/// The height of the field along the z-axis. [Limit: >= 0] [Units: vx]
	Height int32
	/// The width/height size of tile's on the xz-plane. [Limit: >= 0] [Units: vx]
	TileSize int32
	/// The size of the non-navigable border around the heightfield. [Limit: >=0] [Units: vx]
	BorderSize int32
	/// The xz-plane cell size to use for fields. [Limit: > 0] [Units: wu]
	Cs float32
	/// The y-axis cell size to use for fields. [Limit: > 0] [Units: wu]
	Ch float32
	/// The minimum bounds of the field's AABB. [(x, y, z)] [Units: wu]
	Bmin [3]float32
	/// The maximum bounds of the field's AABB. [(x, y, z)] [Units: wu]
	Bmax [3]float32
	/// The maximum slope that is considered walkable. [Limits: 0 <= value < 90] [Units: Degrees]
	WalkableSlopeAngle float32
	/// Minimum floor to 'ceiling' height that will still allow the floor area to
	/// be considered walkable. [Limit: >= 3] [Units: vx]
	WalkableHeight int32
	/// Maximum ledge height that is considered to still be traversable. [Limit: >=0] [Units: vx]
	WalkableClimb int32
	/// The distance to erode/shrink the walkable area of the heightfield away from
	/// obstructions.  [Limit: >=0] [Units: vx]
	WalkableRadius int32
	/// The maximum allowed length for contour edges along the border of the mesh. [Limit: >=0] [Units: vx]
	MaxEdgeLen int32
	/// The maximum distance a simplified contour's border edges should deviate
	/// the original raw contour. [Limit: >=0] [Units: vx]
	MaxSimplificationError float32
	/// The minimum number of cells allowed to form isolated island areas. [Limit: >=0] [Units: vx]
	MinRegionArea int32
	/// Any regions with a span count smaller than this value will, if possible,
	/// be merged with larger regions. [Limit: >=0] [Units: vx]
	MergeRegionArea int32
	/// The maximum number of vertices allowed for polygons generated during the
	/// contour to polygon conversion process. [Limit: >= 3]
	MaxVertsPerPoly int32
	/// Sets the sampling distance to use when generating the detail mesh.
	/// (For height detail only.) [Limits: 0 or >= 0.9] [Units: wu]
	DetailSampleDist float32
	/// The maximum distance the detail mesh surface should deviate from heightfield
	/// data. (For height detail only.) [Limit: >=0] [Units: wu]
	DetailSampleMaxError float32
}

const (
	/// Defines the number of bits allocated to RcSpan::smin and RcSpan::smax.
	RC_SPAN_HEIGHT_BITS = 13
	/// Defines the maximum value for RcSpan::smin and RcSpan::smax.
	RC_SPAN_MAX_HEIGHT = (1 << RC_SPAN_HEIGHT_BITS) - 1
	/// Represents the null area.
	/// When a data element is given this value it is considered to no longer be
	/// assigned to a usable area.  (E.g. It is un-walkable.)
	RC_NULL_AREA = 0
	/// The default area id used to indicate a walkable polygon.
	/// This is also the maximum allowed area id, and the only non-null area id
	/// recognized by some steps in the build process.
	RC_WALKABLE_AREA = 63
	/// The value returned by RcGetCon if the specified direction is not connected
	/// to another span. (Has no neighbor.)
	RC_NOT_CONNECTED = 0x3f
	/// Heighfield border flag.
	/// If a heightfield region ID has this bit set, then the region is a border
	/// region and its spans are considered unwalkable.
	RC_BORDER_REG = 0x8000
	/// Polygon touches multiple regions.
	RC_MULTIPLE_REGS = 0
	/// Border vertex flag.
	RC_BORDER_VERTEX = 0x10000
	/// Area border flag.
	RC_AREA_BORDER = 0x20000
	/// Applied to the region id field of contour vertices in order to extract the region id.
	RC_CONTOUR_REG_MASK = 0xffff
	/// An value which indicates an invalid index within a mesh.
	RC_MESH_NULL_IDX = 0xffff

	rcMaxHeight = 0xffff
)

// / Represents a span in a heightfield.
type RcSpan struct {
	Smin int32  ///< The lower limit of the span. [Limit: < #smax]
	Smax int32  ///< The upper limit of the span. [Limit: <= #RC_SPAN_MAX_HEIGHT]
	Area uint8  ///< The area id assigned to the span.
	Next *RcSpan ///< The next span higher up in column.
}

// / A dynamic heightfield representing obstructed space.
// / @ingroup recast
type RcHeightfield struct {
	Width  int32      ///< The width of the heightfield. (Along the x-axis in cell units.)
	Height int32      ///< The height of the heightfield. (Along the z-axis in cell units.)
	Bmin   [3]float32 ///< The minimum bounds in world space. [(x, y, z)]
	Bmax   [3]float32 ///< The maximum bounds in world space. [(x, y, z)]
	Cs     float32    ///< The size of each cell. (On the xz-plane.)
	Ch     float32    ///< The height of each cell. (The minimum increment along the y-axis.)
	Spans  []*RcSpan  ///< Heightfield of spans (width*height).
}

// / Provides information on the content of a cell column in a compact heightfield.
type RcCompactCell struct {
	Index int32 ///< Index to the first span in the column.
	Count int32 ///< Number of spans in the column.
}

// / Represents a span of unobstructed space within a compact heightfield.
type RcCompactSpan struct {
	Y   int32  ///< The lower extent of the span. (Measured from the heightfield's base.)
	Reg uint16 ///< The id of the region the span belongs to. (Or zero if not in a region.)
	Con uint32 ///< Packed neighbor connection data.
	H   int32  ///< The height of the span.  (Measured from #y.)
}

// / A compact, static heightfield representing unobstructed space.
// / @ingroup recast
type RcCompactHeightfield struct {
	Width          int32           ///< The width of the heightfield. (Along the x-axis in cell units.)
	Height         int32           ///< The height of the heightfield. (Along the z-axis in cell units.)
	SpanCount      int32           ///< The number of spans in the heightfield.
	WalkableHeight int32           ///< The walkable height used during the build of the field.
	WalkableClimb  int32           ///< The walkable climb used during the build of the field.
	BorderSize     int32           ///< The AABB border size used during the build of the field.
	MaxDistance    uint16          ///< The maximum distance value of any span within the field.
	MaxRegions     uint16          ///< The maximum region id of any span within the field.
	Bmin           [3]float32      ///< The minimum bounds in world space. [(x, y, z)]
	Bmax           [3]float32      ///< The maximum bounds in world space. [(x, y, z)]
	Cs             float32         ///< The size of each cell. (On the xz-plane.)
	Ch             float32         ///< The height of each cell. (The minimum increment along the y-axis.)
	Cells          []RcCompactCell ///< Array of cells. [Size: #width*#height]
	Spans          []RcCompactSpan ///< Array of spans. [Size: #spanCount]
	Dist           []uint16        ///< Array containing border distance data. [Size: #spanCount]
	Areas          []uint8         ///< Array containing area id data. [Size: #spanCount]
}

// / Sets the neighbor connection data for the specified direction.
func RcSetCon(span *RcCompactSpan, direction int32, neighborIndex int32) {
	shift := uint32(direction) * 6
	con := span.Con
	span.Con = (con & ^(uint32(0x3f) << shift)) | ((uint32(neighborIndex) & 0x3f) << shift)
}

// / Gets neighbor connection data for the specified direction.
func RcGetCon(span *RcCompactSpan, direction int32) int32 {
	shift := uint32(direction) * 6
	return int32((span.Con >> shift) & 0x3f)
}

// neighbourIndex resolves the connected span of span i (at x,z) in dir, or -1.
func (chf *RcCompactHeightfield) neighbourIndex(x, z int32, s *RcCompactSpan, dir int32) int32 {
	con := RcGetCon(s, dir)
	if con == RC_NOT_CONNECTED {
		return -1
	}
	ax := x + common.GetDirOffsetX(dir)
	az := z + common.GetDirOffsetY(dir)
	return chf.Cells[ax+az*chf.Width].Index + con
}

// / Calculates the bounding box of an array of vertices.
func RcCalcBounds(verts []float32, numVerts int32, minBounds, maxBounds []float32) {
	copy(minBounds, verts[:3])
	copy(maxBounds, verts[:3])
	for i := int32(1); i < numVerts; i++ {
		v := common.GetVert3(verts, i)
		common.Vmin(minBounds, v)
		common.Vmax(maxBounds, v)
	}
}

// / Calculates the grid size based on the bounding box and grid cell size.
func RcCalcGridSize(minBounds, maxBounds []float32, cellSize float32) (sizeX, sizeZ int32) {
	sizeX = int32((maxBounds[0]-minBounds[0])/cellSize + 0.5)
	sizeZ = int32((maxBounds[2]-minBounds[2])/cellSize + 0.5)
	return
}

// / Initializes a new heightfield.
func RcCreateHeightfield(ctx *RcContext, sizeX, sizeZ int32, minBounds, maxBounds []float32, cellSize, cellHeight float32) *RcHeightfield {
	if sizeX <= 0 || sizeZ <= 0 {
		ctx.Errorf("rcCreateHeightfield: invalid grid size %dx%d", sizeX, sizeZ)
		return nil
	}
	hf := &RcHeightfield{
		Width:  sizeX,
		Height: sizeZ,
		Cs:     cellSize,
		Ch:     cellHeight,
		Spans:  make([]*RcSpan, sizeX*sizeZ),
	}
	copy(hf.Bmin[:], minBounds)
	copy(hf.Bmax[:], maxBounds)
	return hf
}

func calcTriNormal(v0, v1, v2, faceNormal []float32) {
	var e0, e1 [3]float32
	common.Vsub(e0[:], v1, v0)
	common.Vsub(e1[:], v2, v0)
	common.Vcross(faceNormal, e0[:], e1[:])
	common.Vnormalize(faceNormal)
}

// / Sets the area id of all triangles with a slope below the specified value
// / to #RC_WALKABLE_AREA.
func RcMarkWalkableTriangles(walkableSlopeAngle float32, verts []float32, tris []int32, numTris int32, triAreaIDs []uint8) {
	walkableThr := float32(math.Cos(float64(walkableSlopeAngle) / 180.0 * math.Pi))
	var norm [3]float32
	for i := int32(0); i < numTris; i++ {
		tri := common.GetVert3(tris, i)
		calcTriNormal(common.GetVert3(verts, tri[0]), common.GetVert3(verts, tri[1]), common.GetVert3(verts, tri[2]), norm[:])
		// Check if the face is walkable.
		if norm[1] > walkableThr {
			triAreaIDs[i] = RC_WALKABLE_AREA
		}
	}
}

// / Sets the area id of all triangles with a slope greater than or equal to the specified value to #RC_NULL_AREA.
func RcClearUnwalkableTriangles(walkableSlopeAngle float32, verts []float32, tris []int32, numTris int32, triAreaIDs []uint8) {
	walkableLimitY := float32(math.Cos(float64(walkableSlopeAngle) / 180.0 * math.Pi))
	var norm [3]float32
	for i := int32(0); i < numTris; i++ {
		tri := common.GetVert3(tris, i)
		calcTriNormal(common.GetVert3(verts, tri[0]), common.GetVert3(verts, tri[1]), common.GetVert3(verts, tri[2]), norm[:])
		if norm[1] <= walkableLimitY {
			triAreaIDs[i] = RC_NULL_AREA
		}
	}
}

// / Returns the number of spans contained in the specified heightfield.
func RcGetHeightFieldSpanCount(hf *RcHeightfield) int32 {
	spanCount := int32(0)
	for _, span := range hf.Spans {
		for ; span != nil; span = span.Next {
			if span.Area != RC_NULL_AREA {
				spanCount++
			}
		}
	}
	return spanCount
}

// / Builds a compact heightfield representing open space, from a heightfield representing solid space.
func RcBuildCompactHeightfield(ctx *RcContext, walkableHeight, walkableClimb int32, hf *RcHeightfield) *RcCompactHeightfield {
	ctx.StartTimer(RC_TIMER_BUILD_COMPACTHEIGHTFIELD)
	defer ctx.StopTimer(RC_TIMER_BUILD_COMPACTHEIGHTFIELD)

	xSize := hf.Width
	zSize := hf.Height
	spanCount := RcGetHeightFieldSpanCount(hf)

	chf := &RcCompactHeightfield{
		Width:          xSize,
		Height:         zSize,
		SpanCount:      spanCount,
		WalkableHeight: walkableHeight,
		WalkableClimb:  walkableClimb,
		Bmin:           hf.Bmin,
		Bmax:           hf.Bmax,
		Cs:             hf.Cs,
		Ch:             hf.Ch,
		Cells:          make([]RcCompactCell, xSize*zSize),
		Spans:          make([]RcCompactSpan, spanCount),
		Areas:          make([]uint8, spanCount),
	}
	chf.Bmax[1] += float32(walkableHeight) * hf.Ch

	// Fill in cells and spans.
	currentCellIndex := int32(0)
	for columnIndex := int32(0); columnIndex < xSize*zSize; columnIndex++ {
		span := hf.Spans[columnIndex]
		// If there are no spans at this cell, just leave the data to index=0, count=0.
		if span == nil {
			continue
		}
		cell := &chf.Cells[columnIndex]
		cell.Index = currentCellIndex
		cell.Count = 0
		for ; span != nil; span = span.Next {
			if span.Area == RC_NULL_AREA {
				continue
			}
			bot := span.Smax
			top := int32(rcMaxHeight)
			if span.Next != nil {
				top = span.Next.Smin
			}
			chf.Spans[currentCellIndex].Y = common.Clamp(bot, 0, 0xffff)
			chf.Spans[currentCellIndex].H = common.Clamp(top-bot, 0, 0xff)
			chf.Areas[currentCellIndex] = span.Area
			currentCellIndex++
			cell.Count++
		}
	}

	// Find neighbour connections.
	const maxLayers = RC_NOT_CONNECTED - 1
	tooManyLayers := int32(0)
	for z := int32(0); z < zSize; z++ {
		for x := int32(0); x < xSize; x++ {
			cell := chf.Cells[x+z*xSize]
			for i := cell.Index; i < cell.Index+cell.Count; i++ {
				span := &chf.Spans[i]
				for dir := int32(0); dir < 4; dir++ {
					RcSetCon(span, dir, RC_NOT_CONNECTED)
					nx := x + common.GetDirOffsetX(dir)
					nz := z + common.GetDirOffsetY(dir)
					// First check that the neighbour cell is in bounds.
					if nx < 0 || nz < 0 || nx >= xSize || nz >= zSize {
						continue
					}
					// Iterate over all neighbour spans and check if any of the is
					// accessible from current cell.
					ncell := chf.Cells[nx+nz*xSize]
					for k := ncell.Index; k < ncell.Index+ncell.Count; k++ {
						ns := &chf.Spans[k]
						bot := max(span.Y, ns.Y)
						top := min(span.Y+span.H, ns.Y+ns.H)
						// Check that the gap between the spans is walkable,
						// and that the climb height between the gaps is not too high.
						if (top-bot) >= walkableHeight && common.Abs(ns.Y-span.Y) <= walkableClimb {
							layerIndex := k - ncell.Index
							if layerIndex < 0 || layerIndex > maxLayers {
								tooManyLayers = max(tooManyLayers, layerIndex)
								continue
							}
							RcSetCon(span, dir, layerIndex)
							break
						}
					}
				}
			}
		}
	}
	if tooManyLayers > maxLayers {
		ctx.Errorf("rcBuildCompactHeightfield: Heightfield has too many layers %d (max: %d)", tooManyLayers, maxLayers)
	}
	return chf
}
