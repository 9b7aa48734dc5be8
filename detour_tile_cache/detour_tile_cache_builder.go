package detour_tile_cache

import (
	"fmt"
	"math"

	"github.com/gorustyt/navbind/common"
	"github.com/gorustyt/navbind/common/rw"
	"github.com/gorustyt/navbind/detour"
	"github.com/gorustyt/navbind/recast"
	"github.com/klauspost/compress/s2"
)

const (
	DT_TILECACHE_MAGIC         = 'D'<<24 | 'T'<<16 | 'L'<<8 | 'R' ///< 'DTLR'
	DT_TILECACHE_VERSION       = 1
	DT_TILECACHE_NULL_AREA     = 0
	DT_TILECACHE_WALKABLE_AREA = 63
	DT_TILECACHE_NULL_IDX      = 0xffff
)

// / Size of the uncompressed layer header in bytes.
const DT_TILECACHE_LAYER_HEADER_SIZE = 4*5 + 4*6 + 2*2 + 2*6

// / Value of an empty cell in DtTileCacheLayer.Heights.
const DT_TILECACHE_EMPTY_HEIGHT = recast.RC_LAYER_EMPTY

type DtTileCacheLayerHeader struct {
	Magic                  int32 ///< Data magic
	Version                int32 ///< Data version
	Tx, Ty, Tlayer         int32
	Bmin, Bmax             [3]float32
	Hmin, Hmax             uint16 ///< Height min/max range
	Width, Height          uint16 ///< Dimension of the layer.
	Minx, Maxx, Miny, Maxy uint16 ///< Usable sub-region.
}

func (h *DtTileCacheLayerHeader) toBin(w *rw.ReaderWriter) {
	w.WriteInt32(h.Magic)
	w.WriteInt32(h.Version)
	w.WriteInt32(h.Tx)
	w.WriteInt32(h.Ty)
	w.WriteInt32(h.Tlayer)
	w.WriteFloat32s(h.Bmin[:])
	w.WriteFloat32s(h.Bmax[:])
	w.WriteInt16s([]uint16{h.Hmin, h.Hmax, h.Width, h.Height, h.Minx, h.Maxx, h.Miny, h.Maxy})
}

func (h *DtTileCacheLayerHeader) fromBin(r *rw.ReaderWriter) error {
	h.Magic = r.ReadInt32()
	h.Version = r.ReadInt32()
	h.Tx = r.ReadInt32()
	h.Ty = r.ReadInt32()
	h.Tlayer = r.ReadInt32()
	r.ReadFloat32s(h.Bmin[:])
	r.ReadFloat32s(h.Bmax[:])
	h.Hmin = r.ReadUInt16()
	h.Hmax = r.ReadUInt16()
	h.Width = r.ReadUInt16()
	h.Height = r.ReadUInt16()
	h.Minx = r.ReadUInt16()
	h.Maxx = r.ReadUInt16()
	h.Miny = r.ReadUInt16()
	h.Maxy = r.ReadUInt16()
	return r.Err()
}

// / Decodes the header of a compressed tile.
func DecodeTileCacheLayerHeader(data []byte) (*DtTileCacheLayerHeader, detour.DtStatus) {
	if len(data) < DT_TILECACHE_LAYER_HEADER_SIZE {
		return nil, detour.DT_FAILURE | detour.DT_INVALID_PARAM
	}
	header := &DtTileCacheLayerHeader{}
	if err := header.fromBin(rw.NewNavMeshDataBinReader(data[:DT_TILECACHE_LAYER_HEADER_SIZE])); err != nil {
		return nil, detour.DT_FAILURE | detour.DT_INVALID_PARAM
	}
	if header.Magic != DT_TILECACHE_MAGIC {
		return header, detour.DT_FAILURE | detour.DT_WRONG_MAGIC
	}
	if header.Version != DT_TILECACHE_VERSION {
		return header, detour.DT_FAILURE | detour.DT_WRONG_VERSION
	}
	return header, detour.DT_SUCCESS
}

// / A decompressed layer. Heights are relative to Header.Bmin[1].
type DtTileCacheLayer struct {
	Header  *DtTileCacheLayerHeader
	Heights []uint16
	Areas   []uint8
	Cons    []uint8
}

func (l *DtTileCacheLayer) width() int32  { return int32(l.Header.Width) }
func (l *DtTileCacheLayer) height() int32 { return int32(l.Header.Height) }

// / Memory used as scratch space while a tile is decompressed and rebuilt.
type DtTileCacheAlloc interface {
	Reset()
	Alloc(size int) []byte
	Free(p []byte)
}

// / Bump allocator over a fixed buffer. Free is a no-op; Reset releases everything.
type LinearAllocator struct {
	buffer   []byte
	capacity int
	top      int
	high     int
}

func NewLinearAllocator(capacity int) *LinearAllocator {
	a := &LinearAllocator{}
	a.Resize(capacity)
	return a
}

func (a *LinearAllocator) Resize(capacity int) {
	a.buffer = make([]byte, capacity)
	a.capacity = capacity
	a.top = 0
}

func (a *LinearAllocator) Reset() {
	a.high = max(a.high, a.top)
	a.top = 0
}

// / Returns nil when the request does not fit.
func (a *LinearAllocator) Alloc(size int) []byte {
	if a.buffer == nil || size < 0 || a.top+size > a.capacity {
		return nil
	}
	mem := a.buffer[a.top : a.top+size : a.top+size]
	clear(mem)
	a.top += size
	return mem
}

func (a *LinearAllocator) Free([]byte) {}

// / High water mark of the arena, in bytes.
func (a *LinearAllocator) High() int { return max(a.high, a.top) }

func (a *LinearAllocator) Capacity() int { return a.capacity }

type DtTileCacheCompressor interface {
	MaxCompressedSize(bufferSize int) int
	Compress(src []byte) ([]byte, error)
	// / Decompresses src into dst when it fits, otherwise returns an error.
	Decompress(dst, src []byte) ([]byte, error)
	DecompressedSize(src []byte) (int, error)
}

// / Tile compressor backed by S2.
type S2Compressor struct{}

func (S2Compressor) MaxCompressedSize(bufferSize int) int { return s2.MaxEncodedLen(bufferSize) }

func (S2Compressor) Compress(src []byte) ([]byte, error) {
	return s2.Encode(nil, src), nil
}

func (S2Compressor) DecompressedSize(src []byte) (int, error) {
	return s2.DecodedLen(src)
}

func (c S2Compressor) Decompress(dst, src []byte) ([]byte, error) {
	n, err := s2.DecodedLen(src)
	if err != nil {
		return nil, err
	}
	if n > len(dst) {
		return nil, fmt.Errorf("s2: decoded size %d exceeds buffer %d", n, len(dst))
	}
	return s2.Decode(dst, src)
}

// / Lets the caller assign areas and flags to polygons before a tile is created.
type DtTileCacheMeshProcess interface {
	Process(params *detour.DtNavMeshCreateParams, polyAreas []uint8, polyFlags []uint16)
}

// / Adapts a function to DtTileCacheMeshProcess.
type MeshProcessFunc func(params *detour.DtNavMeshCreateParams, polyAreas []uint8, polyFlags []uint16)

func (f MeshProcessFunc) Process(params *detour.DtNavMeshCreateParams, polyAreas []uint8, polyFlags []uint16) {
	f(params, polyAreas, polyFlags)
}

// / Builds a compressed tile from the layer grids. Heights must be relative to header.Bmin[1].
func DtBuildTileCacheLayer(comp DtTileCacheCompressor, header *DtTileCacheLayerHeader,
	heights []uint16, areas, cons []uint8) ([]byte, detour.DtStatus) {
	gridSize := int(header.Width) * int(header.Height)
	if comp == nil || len(heights) < gridSize || len(areas) < gridSize || len(cons) < gridSize {
		return nil, detour.DT_FAILURE | detour.DT_INVALID_PARAM
	}

	payload := rw.NewNavMeshDataBinWriter()
	payload.WriteInt16s(heights[:gridSize])
	payload.WriteInt8s(areas[:gridSize])
	payload.WriteInt8s(cons[:gridSize])
	compressed, err := comp.Compress(payload.GetWriteBytes())
	if err != nil {
		return nil, detour.DT_FAILURE
	}

	w := rw.NewNavMeshDataBinWriter()
	header.toBin(w)
	w.WriteBytes(compressed)
	out := make([]byte, w.Size())
	copy(out, w.GetWriteBytes())
	return out, detour.DT_SUCCESS
}

// / Builds a compressed tile from a recast layer. Heights are rebased on Hmin.
func BuildTileCacheLayer(comp DtTileCacheCompressor, layer *recast.RcHeightfieldLayer, tx, ty, tlayer int32) ([]byte, detour.DtStatus) {
	if layer == nil || layer.Width > 0xffff || layer.Height > 0xffff {
		return nil, detour.DT_FAILURE | detour.DT_INVALID_PARAM
	}
	header := &DtTileCacheLayerHeader{
		Magic:   DT_TILECACHE_MAGIC,
		Version: DT_TILECACHE_VERSION,
		Tx:      tx,
		Ty:      ty,
		Tlayer:  tlayer,
		Bmin:    layer.Bmin,
		Bmax:    layer.Bmax,
		Hmin:    uint16(layer.Hmin),
		Hmax:    uint16(layer.Hmax),
		Width:   uint16(layer.Width),
		Height:  uint16(layer.Height),
		Minx:    uint16(layer.Minx),
		Maxx:    uint16(layer.Maxx),
		Miny:    uint16(layer.Miny),
		Maxy:    uint16(layer.Maxy),
	}
	heights := make([]uint16, len(layer.Heights))
	for i, h := range layer.Heights {
		if h == recast.RC_LAYER_EMPTY {
			heights[i] = DT_TILECACHE_EMPTY_HEIGHT
			continue
		}
		heights[i] = h - header.Hmin
	}
	return DtBuildTileCacheLayer(comp, header, heights, layer.Areas, layer.Cons)
}

// / Decompresses a tile. The area and connection grids live in scratch memory from alloc.
func DtDecompressTileCacheLayer(alloc DtTileCacheAlloc, comp DtTileCacheCompressor, data []byte) (*DtTileCacheLayer, detour.DtStatus) {
	header, status := DecodeTileCacheLayerHeader(data)
	if status.Failed() {
		return nil, status
	}
	gridSize := int(header.Width) * int(header.Height)
	src := data[DT_TILECACHE_LAYER_HEADER_SIZE:]
	n, err := comp.DecompressedSize(src)
	if err != nil || n != gridSize*4 {
		return nil, detour.DT_FAILURE | detour.DT_INVALID_PARAM
	}
	buf := alloc.Alloc(n)
	if buf == nil {
		return nil, detour.DT_FAILURE | detour.DT_OUT_OF_MEMORY
	}
	raw, err := comp.Decompress(buf, src)
	if err != nil || len(raw) != n {
		alloc.Free(buf)
		return nil, detour.DT_FAILURE | detour.DT_INVALID_PARAM
	}

	layer := &DtTileCacheLayer{
		Header:  header,
		Heights: make([]uint16, gridSize),
		Areas:   raw[gridSize*2 : gridSize*3],
		Cons:    raw[gridSize*3 : gridSize*4],
	}
	rw.NewNavMeshDataBinReader(raw[:gridSize*2]).ReadUInt16s(layer.Heights)
	return layer, detour.DT_SUCCESS
}

func layerCellRange(layer *DtTileCacheLayer, orig []float32, ics float32, bmin, bmax []float32) (minx, minz, maxx, maxz int32, ok bool) {
	w := layer.width()
	h := layer.height()
	minx = int32(math.Floor(float64((bmin[0] - orig[0]) * ics)))
	minz = int32(math.Floor(float64((bmin[2] - orig[2]) * ics)))
	maxx = int32(math.Floor(float64((bmax[0] - orig[0]) * ics)))
	maxz = int32(math.Floor(float64((bmax[2] - orig[2]) * ics)))
	if maxx < 0 || minx >= w || maxz < 0 || minz >= h {
		return 0, 0, 0, 0, false
	}
	return max(minx, 0), max(minz, 0), min(maxx, w-1), min(maxz, h-1), true
}

// / Marks the layer cells covered by a vertical cylinder with areaId.
func DtMarkCylinderArea(layer *DtTileCacheLayer, orig []float32, cs, ch float32,
	pos []float32, radius, height float32, areaId uint8) {
	bmin := []float32{pos[0] - radius, pos[1], pos[2] - radius}
	bmax := []float32{pos[0] + radius, pos[1] + height, pos[2] + radius}
	r2 := common.Sqr(radius/cs + 0.5)
	ics := 1.0 / cs
	ich := 1.0 / ch
	px := (pos[0] - orig[0]) * ics
	pz := (pos[2] - orig[2]) * ics

	minx, minz, maxx, maxz, ok := layerCellRange(layer, orig, ics, bmin, bmax)
	if !ok {
		return
	}
	miny := int32(math.Floor(float64((bmin[1] - orig[1]) * ich)))
	maxy := int32(math.Floor(float64((bmax[1] - orig[1]) * ich)))
	w := layer.width()
	for z := minz; z <= maxz; z++ {
		for x := minx; x <= maxx; x++ {
			dx := float32(x) + 0.5 - px
			dz := float32(z) + 0.5 - pz
			if dx*dx+dz*dz > r2 {
				continue
			}
			markCell(layer, x+z*w, miny, maxy, areaId)
		}
	}
}

// / Marks the layer cells covered by an axis aligned box with areaId.
func DtMarkBoxArea(layer *DtTileCacheLayer, orig []float32, cs, ch float32,
	bmin, bmax []float32, areaId uint8) {
	ics := 1.0 / cs
	ich := 1.0 / ch
	minx, minz, maxx, maxz, ok := layerCellRange(layer, orig, ics, bmin, bmax)
	if !ok {
		return
	}
	miny := int32(math.Floor(float64((bmin[1] - orig[1]) * ich)))
	maxy := int32(math.Floor(float64((bmax[1] - orig[1]) * ich)))
	w := layer.width()
	for z := minz; z <= maxz; z++ {
		for x := minx; x <= maxx; x++ {
			markCell(layer, x+z*w, miny, maxy, areaId)
		}
	}
}

// / Marks the layer cells covered by a box rotated around the y axis with areaId.
// / rotAux is {cos(a/2)*sin(-a/2), cos(a/2)*cos(a/2) - 0.5}.
func DtMarkOrientedBoxArea(layer *DtTileCacheLayer, orig []float32, cs, ch float32,
	center, halfExtents []float32, rotAux [2]float32, areaId uint8) {
	ics := 1.0 / cs
	ich := 1.0 / ch
	cx := (center[0] - orig[0]) * ics
	cz := (center[2] - orig[2]) * ics

	maxr := 1.41 * max(halfExtents[0], halfExtents[2])
	bmin := []float32{center[0] - maxr, center[1] - halfExtents[1], center[2] - maxr}
	bmax := []float32{center[0] + maxr, center[1] + halfExtents[1], center[2] + maxr}
	minx, minz, maxx, maxz, ok := layerCellRange(layer, orig, ics, bmin, bmax)
	if !ok {
		return
	}
	miny := int32(math.Floor(float64((bmin[1] - orig[1]) * ich)))
	maxy := int32(math.Floor(float64((bmax[1] - orig[1]) * ich)))

	xhalf := halfExtents[0]*ics + 0.5
	zhalf := halfExtents[2]*ics + 0.5
	w := layer.width()
	for z := minz; z <= maxz; z++ {
		for x := minx; x <= maxx; x++ {
			x2 := 2.0 * (float32(x) + 0.5 - cx)
			z2 := 2.0 * (float32(z) + 0.5 - cz)
			xrot := rotAux[1]*x2 + rotAux[0]*z2
			if xrot > xhalf || xrot < -xhalf {
				continue
			}
			zrot := rotAux[1]*z2 - rotAux[0]*x2
			if zrot > zhalf || zrot < -zhalf {
				continue
			}
			markCell(layer, x+z*w, miny, maxy, areaId)
		}
	}
}

func markCell(layer *DtTileCacheLayer, idx, miny, maxy int32, areaId uint8) {
	y := layer.Heights[idx]
	if y == DT_TILECACHE_EMPTY_HEIGHT {
		return
	}
	if int32(y) < miny || int32(y) > maxy {
		return
	}
	layer.Areas[idx] = areaId
}

// / Expands a layer into a single-span-per-cell compact heightfield so the
// / recast region, contour and polygon stages can run on it.
func buildCompactFromLayer(layer *DtTileCacheLayer, cs, ch float32, walkableHeight, walkableClimb int32) *recast.RcCompactHeightfield {
	w := layer.width()
	h := layer.height()
	chf := &recast.RcCompactHeightfield{
		Width:          w,
		Height:         h,
		WalkableHeight: walkableHeight,
		WalkableClimb:  walkableClimb,
		Bmin:           layer.Header.Bmin,
		Bmax:           layer.Header.Bmax,
		Cs:             cs,
		Ch:             ch,
		Cells:          make([]recast.RcCompactCell, w*h),
	}
	for i, y := range layer.Heights {
		if y == DT_TILECACHE_EMPTY_HEIGHT {
			continue
		}
		chf.Cells[i] = recast.RcCompactCell{Index: chf.SpanCount, Count: 1}
		chf.Spans = append(chf.Spans, recast.RcCompactSpan{Y: int32(y), H: max(walkableHeight, 1)})
		chf.Areas = append(chf.Areas, layer.Areas[i])
		chf.SpanCount++
	}

	for z := int32(0); z < h; z++ {
		for x := int32(0); x < w; x++ {
			c := chf.Cells[x+z*w]
			if c.Count == 0 {
				continue
			}
			s := &chf.Spans[c.Index]
			for dir := int32(0); dir < 4; dir++ {
				recast.RcSetCon(s, dir, recast.RC_NOT_CONNECTED)
				if layer.Cons[x+z*w]&(1<<dir) == 0 {
					continue
				}
				nx := x + common.GetDirOffsetX(dir)
				nz := z + common.GetDirOffsetY(dir)
				if nx < 0 || nz < 0 || nx >= w || nz >= h {
					continue
				}
				if chf.Cells[nx+nz*w].Count == 0 {
					continue
				}
				recast.RcSetCon(s, dir, 0)
			}
		}
	}
	return chf
}
