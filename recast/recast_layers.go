package recast

import "github.com/gorustyt/navbind/common"

// / The maximum number of layers a column may be split into.
const RC_MAX_LAYERS = 63

// / A value which indicates an empty cell in a heightfield layer.
const RC_LAYER_EMPTY = 0xffff

// / Represents a set of heightfield layers.
// / @ingroup recast
type RcHeightfieldLayerSet struct {
	Layers []*RcHeightfieldLayer ///< The layers in the set.
}

func (lset *RcHeightfieldLayerSet) Nlayers() int32 { return int32(len(lset.Layers)) }

// / Represents a heightfield layer within a layer set.
// / @see RcHeightfieldLayerSet
type RcHeightfieldLayer struct {
	Bmin    [3]float32 ///< The minimum bounds in world space. [(x, y, z)]
	Bmax    [3]float32 ///< The maximum bounds in world space. [(x, y, z)]
	Cs      float32    ///< The size of each cell. (On the xz-plane.)
	Ch      float32    ///< The height of each cell. (The minimum increment along the y-axis.)
	Width   int32      ///< The width of the heightfield. (Along the x-axis in cell units.)
	Height  int32      ///< The height of the heightfield. (Along the z-axis in cell units.)
	Minx    int32      ///< The minimum x-bounds of usable data.
	Maxx    int32      ///< The maximum x-bounds of usable data.
	Miny    int32      ///< The minimum y-bounds of usable data. (Along the z-axis.)
	Maxy    int32      ///< The maximum y-bounds of usable data. (Along the z-axis.)
	Hmin    int32      ///< The minimum height bounds of usable data. (Along the y-axis.)
	Hmax    int32      ///< The maximum height bounds of usable data. (Along the y-axis.)
	Heights []uint16   ///< The heightfield, #RC_LAYER_EMPTY for empty cells. [Size: width * height]
	Areas   []uint8    ///< Area ids. [Size: Same as #heights]
	Cons    []uint8    ///< Packed neighbor connection information, one bit per direction. [Size: Same as #heights]
}

// / Builds a layer set from the specified compact heightfield.
// /
// / Spans are assigned to layers by their index within the column; the k-th
// / span of every column goes to layer k. A connection is kept only when the
// / neighbour span sits in the same layer.
func RcBuildHeightfieldLayers(ctx *RcContext, chf *RcCompactHeightfield, borderSize, walkableHeight int32) (*RcHeightfieldLayerSet, bool) {
	ctx.StartTimer(RC_TIMER_BUILD_LAYERS)
	defer ctx.StopTimer(RC_TIMER_BUILD_LAYERS)

	w := chf.Width
	h := chf.Height
	lset := &RcHeightfieldLayerSet{}

	maxLayers := int32(0)
	for _, c := range chf.Cells {
		maxLayers = max(maxLayers, c.Count)
	}
	if maxLayers > RC_MAX_LAYERS {
		ctx.Errorf("rcBuildHeightfieldLayers: Layer overflow (too many overlapping walkable platforms). Try increasing RC_MAX_LAYERS.")
		return nil, false
	}

	// Layer bounds exclude the border.
	lw := w - borderSize*2
	lh := h - borderSize*2
	for k := int32(0); k < maxLayers; k++ {
		layer := &RcHeightfieldLayer{
			Width:   lw,
			Height:  lh,
			Cs:      chf.Cs,
			Ch:      chf.Ch,
			Bmin:    chf.Bmin,
			Bmax:    chf.Bmax,
			Minx:    lw,
			Miny:    lh,
			Maxx:    0,
			Maxy:    0,
			Hmin:    0xffff,
			Hmax:    0,
			Heights: make([]uint16, lw*lh),
			Areas:   make([]uint8, lw*lh),
			Cons:    make([]uint8, lw*lh),
		}
		// Adjust the bbox to fit the heightfield.
		layer.Bmin[0] += float32(borderSize) * chf.Cs
		layer.Bmin[2] += float32(borderSize) * chf.Cs
		layer.Bmax[0] -= float32(borderSize) * chf.Cs
		layer.Bmax[2] -= float32(borderSize) * chf.Cs
		for i := range layer.Heights {
			layer.Heights[i] = RC_LAYER_EMPTY
		}

		walkable := 0
		for z := int32(0); z < lh; z++ {
			for x := int32(0); x < lw; x++ {
				cx := x + borderSize
				cz := z + borderSize
				c := chf.Cells[cx+cz*w]
				if c.Count <= k {
					continue
				}
				i := c.Index + k
				s := &chf.Spans[i]
				idx := x + z*lw
				layer.Heights[idx] = uint16(s.Y)
				layer.Areas[idx] = chf.Areas[i]
				if chf.Areas[i] != RC_NULL_AREA {
					walkable++
				}
				layer.Hmin = min(layer.Hmin, s.Y)
				layer.Hmax = max(layer.Hmax, s.Y)
				layer.Minx = min(layer.Minx, x)
				layer.Maxx = max(layer.Maxx, x)
				layer.Miny = min(layer.Miny, z)
				layer.Maxy = max(layer.Maxy, z)

				for dir := int32(0); dir < 4; dir++ {
					ai := chf.neighbourIndex(cx, cz, s, dir)
					if ai < 0 {
						continue
					}
					nx := cx + common.GetDirOffsetX(dir)
					nz := cz + common.GetDirOffsetY(dir)
					// Connections leaving the layer bounds are dropped.
					if nx < borderSize || nz < borderSize || nx >= w-borderSize || nz >= h-borderSize {
						continue
					}
					if ai-chf.Cells[nx+nz*w].Index == k {
						layer.Cons[idx] |= 1 << dir
					}
				}
			}
		}
		if walkable == 0 {
			continue
		}
		layer.Bmin[1] = chf.Bmin[1] + float32(layer.Hmin)*chf.Ch
		layer.Bmax[1] = chf.Bmin[1] + float32(layer.Hmax+walkableHeight)*chf.Ch
		lset.Layers = append(lset.Layers, layer)
	}
	return lset, true
}
