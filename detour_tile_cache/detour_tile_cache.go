package detour_tile_cache

import (
	"math"

	"github.com/gorustyt/navbind/common"
	"github.com/gorustyt/navbind/common/rw"
	"github.com/gorustyt/navbind/detour"
	"github.com/gorustyt/navbind/recast"
)

type DtObstacleRef uint32

type DtCompressedTileRef uint32

// / Flags for addTile
const DT_COMPRESSEDTILE_FREE_DATA = 0x01 ///< Tile cache owns the tile memory.

type DtCompressedTile struct {
	salt   uint32 ///< Counter describing modifications to the tile.
	index  uint32
	Header *DtTileCacheLayerHeader
	Data   []byte ///< Header followed by the compressed grids.
	Flags  uint32
	next   *DtCompressedTile
}

type DtObstacleState uint8

const (
	DT_OBSTACLE_EMPTY DtObstacleState = iota
	DT_OBSTACLE_PROCESSING
	DT_OBSTACLE_PROCESSED
	DT_OBSTACLE_REMOVING
)

type DtObstacleType uint8

const (
	DT_OBSTACLE_CYLINDER     DtObstacleType = iota
	DT_OBSTACLE_BOX                         // AABB
	DT_OBSTACLE_ORIENTED_BOX                // OBB
)

type DtObstacleCylinder struct {
	Pos    [3]float32
	Radius float32
	Height float32
}

type DtObstacleBox struct {
	Bmin [3]float32
	Bmax [3]float32
}

type DtObstacleOrientedBox struct {
	Center      [3]float32
	HalfExtents [3]float32
	RotAux      [2]float32 ///< { cos(0.5*angle)*sin(-0.5*angle), cos(0.5*angle)*cos(0.5*angle) - 0.5 }
}

const DT_MAX_TOUCHED_TILES = 8

type DtTileCacheObstacle struct {
	Cylinder    DtObstacleCylinder
	Box         DtObstacleBox
	OrientedBox DtObstacleOrientedBox

	touched []DtCompressedTileRef
	pending []DtCompressedTileRef
	salt    uint16
	index   uint16
	Type    DtObstacleType
	State   DtObstacleState
	next    *DtTileCacheObstacle
}

// / Tiles whose navmesh still has to be rebuilt for this obstacle.
func (ob *DtTileCacheObstacle) Pending() int { return len(ob.pending) }

// / Tiles overlapped by the obstacle bounds.
func (ob *DtTileCacheObstacle) Touched() []DtCompressedTileRef { return ob.touched }

type DtTileCacheParams struct {
	Orig                   [3]float32
	Cs, Ch                 float32
	Width, Height          int32
	WalkableHeight         float32
	WalkableRadius         float32
	WalkableClimb          float32
	MaxSimplificationError float32
	MaxTiles               int32
	MaxObstacles           int32
}

func (p *DtTileCacheParams) FromBin(r *rw.ReaderWriter) {
	r.ReadFloat32s(p.Orig[:])
	p.Cs = r.ReadFloat32()
	p.Ch = r.ReadFloat32()
	p.Width = r.ReadInt32()
	p.Height = r.ReadInt32()
	p.WalkableHeight = r.ReadFloat32()
	p.WalkableRadius = r.ReadFloat32()
	p.WalkableClimb = r.ReadFloat32()
	p.MaxSimplificationError = r.ReadFloat32()
	p.MaxTiles = r.ReadInt32()
	p.MaxObstacles = r.ReadInt32()
}

func (p *DtTileCacheParams) ToBin(w *rw.ReaderWriter) {
	w.WriteFloat32s(p.Orig[:])
	w.WriteFloat32(p.Cs)
	w.WriteFloat32(p.Ch)
	w.WriteInt32(p.Width)
	w.WriteInt32(p.Height)
	w.WriteFloat32(p.WalkableHeight)
	w.WriteFloat32(p.WalkableRadius)
	w.WriteFloat32(p.WalkableClimb)
	w.WriteFloat32(p.MaxSimplificationError)
	w.WriteInt32(p.MaxTiles)
	w.WriteInt32(p.MaxObstacles)
}

const (
	MAX_REQUESTS = 64
	MAX_UPDATE   = 64
)

type obstacleAction uint8

const (
	REQUEST_ADD obstacleAction = iota
	REQUEST_REMOVE
)

type obstacleRequest struct {
	action obstacleAction
	ref    DtObstacleRef
}

// / A cache of compressed layers with temporary obstacles. Layers touched by
// / added or removed obstacles are rebuilt into the navmesh during Update.
type DtTileCache struct {
	m_tileLutSize int32 ///< Tile hash lookup size (must be pot).
	m_tileLutMask int32 ///< Tile hash lookup mask.

	m_posLookup    []*DtCompressedTile ///< Tile hash lookup.
	m_nextFreeTile *DtCompressedTile   ///< Freelist of tiles.
	m_tiles        []DtCompressedTile  ///< List of tiles.

	m_saltBits uint32 ///< Number of salt bits in the tile ID.
	m_tileBits uint32 ///< Number of tile bits in the tile ID.

	m_params DtTileCacheParams
	m_talloc DtTileCacheAlloc
	m_tcomp  DtTileCacheCompressor
	m_tmproc DtTileCacheMeshProcess
	m_ctx    *recast.RcContext

	m_obstacles        []DtTileCacheObstacle
	m_nextFreeObstacle *DtTileCacheObstacle

	m_reqs   []obstacleRequest
	m_update []DtCompressedTileRef
}

func NewDtTileCache() *DtTileCache {
	return &DtTileCache{}
}

func (d *DtTileCache) GetAlloc() DtTileCacheAlloc           { return d.m_talloc }
func (d *DtTileCache) GetCompressor() DtTileCacheCompressor { return d.m_tcomp }
func (d *DtTileCache) GetParams() *DtTileCacheParams        { return &d.m_params }

// / Routes rebuild diagnostics and timers to ctx. A nil context is silent.
func (d *DtTileCache) SetBuildContext(ctx *recast.RcContext) { d.m_ctx = ctx }

func (d *DtTileCache) GetMaxTiles() int32 { return int32(len(d.m_tiles)) }

// / Counts the tiles currently stored in the cache.
func (d *DtTileCache) GetTileCount() int32 {
	n := int32(0)
	for i := range d.m_tiles {
		if d.m_tiles[i].Header != nil {
			n++
		}
	}
	return n
}

func (d *DtTileCache) GetTile(i int32) *DtCompressedTile {
	if i < 0 || int(i) >= len(d.m_tiles) {
		return nil
	}
	return &d.m_tiles[i]
}

func (d *DtTileCache) GetObstacleCount() int32 { return int32(len(d.m_obstacles)) }

func (d *DtTileCache) GetObstacle(i int32) *DtTileCacheObstacle {
	if i < 0 || int(i) >= len(d.m_obstacles) {
		return nil
	}
	return &d.m_obstacles[i]
}

// / Returns every obstacle slot that is not empty.
func (d *DtTileCache) GetObstacles() []*DtTileCacheObstacle {
	var res []*DtTileCacheObstacle
	for i := range d.m_obstacles {
		if d.m_obstacles[i].State != DT_OBSTACLE_EMPTY {
			res = append(res, &d.m_obstacles[i])
		}
	}
	return res
}

// / Encodes a tile id.
func (d *DtTileCache) encodeTileId(salt, it uint32) DtCompressedTileRef {
	return DtCompressedTileRef(salt<<d.m_tileBits | it)
}

// / Decodes a tile salt.
func (d *DtTileCache) decodeTileIdSalt(ref DtCompressedTileRef) uint32 {
	saltMask := uint32(1)<<d.m_saltBits - 1
	return (uint32(ref) >> d.m_tileBits) & saltMask
}

// / Decodes a tile id.
func (d *DtTileCache) decodeTileIdTile(ref DtCompressedTileRef) uint32 {
	tileMask := uint32(1)<<d.m_tileBits - 1
	return uint32(ref) & tileMask
}

// / Encodes an obstacle id.
func encodeObstacleId(salt, it uint16) DtObstacleRef {
	return DtObstacleRef(uint32(salt)<<16 | uint32(it))
}

// / Decodes an obstacle salt.
func decodeObstacleIdSalt(ref DtObstacleRef) uint16 {
	return uint16(ref >> 16)
}

// / Decodes an obstacle id.
func decodeObstacleIdObstacle(ref DtObstacleRef) uint16 {
	return uint16(ref)
}

func contains(a []DtCompressedTileRef, v DtCompressedTileRef) bool {
	for _, r := range a {
		if r == v {
			return true
		}
	}
	return false
}

func (d *DtTileCache) Init(params *DtTileCacheParams, talloc DtTileCacheAlloc,
	tcomp DtTileCacheCompressor, tmproc DtTileCacheMeshProcess) detour.DtStatus {
	if params == nil || talloc == nil || tcomp == nil {
		return detour.DT_FAILURE | detour.DT_INVALID_PARAM
	}
	if params.MaxTiles <= 0 || params.MaxObstacles < 0 || params.MaxObstacles > 0xffff ||
		params.Cs <= 0 || params.Ch <= 0 || params.Width <= 0 || params.Height <= 0 {
		return detour.DT_FAILURE | detour.DT_INVALID_PARAM
	}
	d.m_params = *params
	d.m_talloc = talloc
	d.m_tcomp = tcomp
	d.m_tmproc = tmproc
	d.m_reqs = make([]obstacleRequest, 0, MAX_REQUESTS)
	d.m_update = make([]DtCompressedTileRef, 0, MAX_UPDATE)

	// Alloc space for obstacles.
	d.m_obstacles = make([]DtTileCacheObstacle, params.MaxObstacles)
	d.m_nextFreeObstacle = nil
	for i := params.MaxObstacles - 1; i >= 0; i-- {
		ob := &d.m_obstacles[i]
		ob.salt = 1
		ob.index = uint16(i)
		ob.next = d.m_nextFreeObstacle
		d.m_nextFreeObstacle = ob
	}

	// Init tiles
	d.m_tileLutSize = int32(common.NextPow2(uint32(params.MaxTiles / 4)))
	if d.m_tileLutSize == 0 {
		d.m_tileLutSize = 1
	}
	d.m_tileLutMask = d.m_tileLutSize - 1

	d.m_tiles = make([]DtCompressedTile, params.MaxTiles)
	d.m_posLookup = make([]*DtCompressedTile, d.m_tileLutSize)
	d.m_nextFreeTile = nil
	for i := params.MaxTiles - 1; i >= 0; i-- {
		t := &d.m_tiles[i]
		t.salt = 1
		t.index = uint32(i)
		t.next = d.m_nextFreeTile
		d.m_nextFreeTile = t
	}

	// Init ID generator values.
	d.m_tileBits = common.Ilog2(common.NextPow2(uint32(params.MaxTiles)))
	// Only allow 31 salt bits, since the salt mask is calculated using 32bit uint and it will overflow.
	d.m_saltBits = min(31, 32-d.m_tileBits)
	if d.m_saltBits < 10 {
		return detour.DT_FAILURE | detour.DT_INVALID_PARAM
	}

	return detour.DT_SUCCESS
}

func (d *DtTileCache) GetTilesAt(tx, ty int32, maxTiles int) []DtCompressedTileRef {
	var tiles []DtCompressedTileRef
	// Find tile based on hash.
	h := common.ComputeTileHash(tx, ty, d.m_tileLutMask)
	for tile := d.m_posLookup[h]; tile != nil; tile = tile.next {
		if tile.Header != nil && tile.Header.Tx == tx && tile.Header.Ty == ty {
			if len(tiles) < maxTiles {
				tiles = append(tiles, d.GetTileRef(tile))
			}
		}
	}
	return tiles
}

func (d *DtTileCache) GetTileAt(tx, ty, tlayer int32) *DtCompressedTile {
	// Find tile based on hash.
	h := common.ComputeTileHash(tx, ty, d.m_tileLutMask)
	for tile := d.m_posLookup[h]; tile != nil; tile = tile.next {
		if tile.Header != nil &&
			tile.Header.Tx == tx &&
			tile.Header.Ty == ty &&
			tile.Header.Tlayer == tlayer {
			return tile
		}
	}
	return nil
}

func (d *DtTileCache) GetTileRef(tile *DtCompressedTile) DtCompressedTileRef {
	if tile == nil {
		return 0
	}
	return d.encodeTileId(tile.salt, tile.index)
}

func (d *DtTileCache) GetTileByRef(ref DtCompressedTileRef) *DtCompressedTile {
	if ref == 0 {
		return nil
	}
	tileIndex := d.decodeTileIdTile(ref)
	tileSalt := d.decodeTileIdSalt(ref)
	if int(tileIndex) >= len(d.m_tiles) {
		return nil
	}
	tile := &d.m_tiles[tileIndex]
	if tile.salt != tileSalt || tile.Header == nil {
		return nil
	}
	return tile
}

func (d *DtTileCache) GetObstacleRef(ob *DtTileCacheObstacle) DtObstacleRef {
	if ob == nil {
		return 0
	}
	return encodeObstacleId(ob.salt, ob.index)
}

func (d *DtTileCache) GetObstacleByRef(ref DtObstacleRef) *DtTileCacheObstacle {
	if ref == 0 {
		return nil
	}
	idx := decodeObstacleIdObstacle(ref)
	if int(idx) >= len(d.m_obstacles) {
		return nil
	}
	ob := &d.m_obstacles[idx]
	if ob.salt != decodeObstacleIdSalt(ref) {
		return nil
	}
	return ob
}

// / Adds a compressed tile. The registry is left untouched when the call fails.
func (d *DtTileCache) AddTile(data []byte, flags uint32) (DtCompressedTileRef, detour.DtStatus) {
	// Make sure the data is in right format.
	header, status := DecodeTileCacheLayerHeader(data)
	if status.Failed() {
		return 0, status
	}

	// Make sure the location is free.
	if d.GetTileAt(header.Tx, header.Ty, header.Tlayer) != nil {
		return 0, detour.DT_FAILURE | detour.DT_ALREADY_OCCUPIED
	}

	// Allocate a tile.
	tile := d.m_nextFreeTile
	if tile == nil {
		return 0, detour.DT_FAILURE | detour.DT_OUT_OF_MEMORY
	}
	d.m_nextFreeTile = tile.next
	tile.next = nil

	// Insert tile into the position lut.
	h := common.ComputeTileHash(header.Tx, header.Ty, d.m_tileLutMask)
	tile.next = d.m_posLookup[h]
	d.m_posLookup[h] = tile

	// Init tile.
	tile.Header = header
	tile.Data = data
	tile.Flags = flags

	return d.GetTileRef(tile), detour.DT_SUCCESS
}

// / Removes a tile. The data is handed back unless the cache owned it.
func (d *DtTileCache) RemoveTile(ref DtCompressedTileRef) ([]byte, detour.DtStatus) {
	if ref == 0 {
		return nil, detour.DT_FAILURE | detour.DT_INVALID_PARAM
	}
	tile := d.GetTileByRef(ref)
	if tile == nil {
		return nil, detour.DT_FAILURE | detour.DT_INVALID_PARAM
	}

	// Remove tile from hash lookup.
	h := common.ComputeTileHash(tile.Header.Tx, tile.Header.Ty, d.m_tileLutMask)
	var prev *DtCompressedTile
	for cur := d.m_posLookup[h]; cur != nil; cur = cur.next {
		if cur == tile {
			if prev != nil {
				prev.next = cur.next
			} else {
				d.m_posLookup[h] = cur.next
			}
			break
		}
		prev = cur
	}

	// Reset tile.
	var data []byte
	if tile.Flags&DT_COMPRESSEDTILE_FREE_DATA == 0 {
		data = tile.Data
	}
	tile.Data = nil
	tile.Header = nil
	tile.Flags = 0

	// Update salt, salt should never be zero.
	tile.salt = (tile.salt + 1) & (uint32(1)<<d.m_saltBits - 1)
	if tile.salt == 0 {
		tile.salt++
	}

	// Add to free list.
	tile.next = d.m_nextFreeTile
	d.m_nextFreeTile = tile

	return data, detour.DT_SUCCESS
}

func (d *DtTileCache) allocObstacle() (*DtTileCacheObstacle, detour.DtStatus) {
	if len(d.m_reqs) >= MAX_REQUESTS {
		return nil, detour.DT_FAILURE | detour.DT_BUFFER_TOO_SMALL
	}
	ob := d.m_nextFreeObstacle
	if ob == nil {
		return nil, detour.DT_FAILURE | detour.DT_OUT_OF_MEMORY
	}
	d.m_nextFreeObstacle = ob.next

	*ob = DtTileCacheObstacle{
		salt:    ob.salt,
		index:   ob.index,
		State:   DT_OBSTACLE_PROCESSING,
		touched: ob.touched[:0],
		pending: ob.pending[:0],
	}
	return ob, detour.DT_SUCCESS
}

func (d *DtTileCache) queueAdd(ob *DtTileCacheObstacle) DtObstacleRef {
	ref := d.GetObstacleRef(ob)
	d.m_reqs = append(d.m_reqs, obstacleRequest{action: REQUEST_ADD, ref: ref})
	return ref
}

// / Queues a vertical cylinder obstacle. It affects the navmesh after Update.
func (d *DtTileCache) AddObstacle(pos []float32, radius, height float32) (DtObstacleRef, detour.DtStatus) {
	ob, status := d.allocObstacle()
	if status.Failed() {
		return 0, status
	}
	ob.Type = DT_OBSTACLE_CYLINDER
	copy(ob.Cylinder.Pos[:], pos)
	ob.Cylinder.Radius = radius
	ob.Cylinder.Height = height
	return d.queueAdd(ob), detour.DT_SUCCESS
}

// / Queues an axis aligned box obstacle.
func (d *DtTileCache) AddBoxObstacle(bmin, bmax []float32) (DtObstacleRef, detour.DtStatus) {
	ob, status := d.allocObstacle()
	if status.Failed() {
		return 0, status
	}
	ob.Type = DT_OBSTACLE_BOX
	copy(ob.Box.Bmin[:], bmin)
	copy(ob.Box.Bmax[:], bmax)
	return d.queueAdd(ob), detour.DT_SUCCESS
}

// / Queues a box obstacle rotated by yRadians around the y axis.
func (d *DtTileCache) AddOrientedBoxObstacle(center, halfExtents []float32, yRadians float32) (DtObstacleRef, detour.DtStatus) {
	ob, status := d.allocObstacle()
	if status.Failed() {
		return 0, status
	}
	ob.Type = DT_OBSTACLE_ORIENTED_BOX
	copy(ob.OrientedBox.Center[:], center)
	copy(ob.OrientedBox.HalfExtents[:], halfExtents)

	coshalf := math.Cos(0.5 * float64(yRadians))
	sinhalf := math.Sin(-0.5 * float64(yRadians))
	ob.OrientedBox.RotAux[0] = float32(coshalf * sinhalf)
	ob.OrientedBox.RotAux[1] = float32(coshalf*coshalf) - 0.5
	return d.queueAdd(ob), detour.DT_SUCCESS
}

// / Queues the removal of an obstacle. Zero, stale and already removed refs succeed without effect.
func (d *DtTileCache) RemoveObstacle(ref DtObstacleRef) detour.DtStatus {
	ob := d.GetObstacleByRef(ref)
	if ob == nil || ob.State == DT_OBSTACLE_EMPTY || ob.State == DT_OBSTACLE_REMOVING {
		return detour.DT_SUCCESS
	}
	for _, req := range d.m_reqs {
		if req.action == REQUEST_REMOVE && req.ref == ref {
			return detour.DT_SUCCESS
		}
	}
	if len(d.m_reqs) >= MAX_REQUESTS {
		return detour.DT_FAILURE | detour.DT_BUFFER_TOO_SMALL
	}
	d.m_reqs = append(d.m_reqs, obstacleRequest{action: REQUEST_REMOVE, ref: ref})
	return detour.DT_SUCCESS
}

func (d *DtTileCache) hasRequest(ref DtObstacleRef) bool {
	for _, req := range d.m_reqs {
		if req.ref == ref {
			return true
		}
	}
	return false
}

func (d *DtTileCache) queryTiles(bmin, bmax []float32, maxResults int) []DtCompressedTileRef {
	const MAX_TILES = 32
	var results []DtCompressedTileRef

	tw := float32(d.m_params.Width) * d.m_params.Cs
	th := float32(d.m_params.Height) * d.m_params.Cs
	tx0 := int32(math.Floor(float64((bmin[0] - d.m_params.Orig[0]) / tw)))
	tx1 := int32(math.Floor(float64((bmax[0] - d.m_params.Orig[0]) / tw)))
	ty0 := int32(math.Floor(float64((bmin[2] - d.m_params.Orig[2]) / th)))
	ty1 := int32(math.Floor(float64((bmax[2] - d.m_params.Orig[2]) / th)))

	for ty := ty0; ty <= ty1; ty++ {
		for tx := tx0; tx <= tx1; tx++ {
			for _, ref := range d.GetTilesAt(tx, ty, MAX_TILES) {
				tile := &d.m_tiles[d.decodeTileIdTile(ref)]
				tbmin, tbmax := d.CalcTightTileBounds(tile.Header)
				if common.OverlapBounds(bmin, bmax, tbmin[:], tbmax[:]) && len(results) < maxResults {
					results = append(results, ref)
				}
			}
		}
	}
	return results
}

func (d *DtTileCache) queueTouched(ob *DtTileCacheObstacle) {
	ob.pending = ob.pending[:0]
	for _, ref := range ob.touched {
		if len(d.m_update) >= MAX_UPDATE {
			break
		}
		if !contains(d.m_update, ref) {
			d.m_update = append(d.m_update, ref)
		}
		ob.pending = append(ob.pending, ref)
	}
}

// / Processes queued obstacle requests and rebuilds at most one touched tile.
// / upToDate reports whether nothing is left to do.
func (d *DtTileCache) Update(navmesh *detour.DtNavMesh) (upToDate bool, status detour.DtStatus) {
	if len(d.m_update) == 0 {
		// Process requests.
		for _, req := range d.m_reqs {
			ob := d.GetObstacleByRef(req.ref)
			if ob == nil {
				continue
			}
			switch req.action {
			case REQUEST_ADD:
				// Find touched tiles.
				bmin, bmax := d.GetObstacleBounds(ob)
				ob.touched = append(ob.touched[:0], d.queryTiles(bmin[:], bmax[:], DT_MAX_TOUCHED_TILES)...)
				d.queueTouched(ob)
			case REQUEST_REMOVE:
				// Prepare to remove obstacle.
				ob.State = DT_OBSTACLE_REMOVING
				d.queueTouched(ob)
			}
		}
		d.m_reqs = d.m_reqs[:0]
	}

	status = detour.DT_SUCCESS
	var built DtCompressedTileRef
	// Process updates
	if len(d.m_update) > 0 {
		built = d.m_update[0]
		status = d.BuildNavMeshTile(built, navmesh)
		d.m_update = append(d.m_update[:0], d.m_update[1:]...)
	}

	// Update obstacle states.
	for i := range d.m_obstacles {
		ob := &d.m_obstacles[i]
		if ob.State != DT_OBSTACLE_PROCESSING && ob.State != DT_OBSTACLE_REMOVING {
			continue
		}
		// Remove handled tile from pending list.
		for j, ref := range ob.pending {
			if built != 0 && ref == built {
				ob.pending[j] = ob.pending[len(ob.pending)-1]
				ob.pending = ob.pending[:len(ob.pending)-1]
				break
			}
		}
		// If all pending tiles processed, change state.
		if len(ob.pending) > 0 || d.hasRequest(d.GetObstacleRef(ob)) {
			continue
		}
		if ob.State == DT_OBSTACLE_PROCESSING {
			ob.State = DT_OBSTACLE_PROCESSED
			continue
		}
		ob.State = DT_OBSTACLE_EMPTY
		// Update salt, salt should never be zero.
		ob.salt++
		if ob.salt == 0 {
			ob.salt++
		}
		ob.touched = ob.touched[:0]
		// Return obstacle to free list.
		ob.next = d.m_nextFreeObstacle
		d.m_nextFreeObstacle = ob
	}

	return len(d.m_update) == 0 && len(d.m_reqs) == 0, status
}

// / Rebuilds every layer stored at the tile location.
func (d *DtTileCache) BuildNavMeshTilesAt(tx, ty int32, navmesh *detour.DtNavMesh) detour.DtStatus {
	const MAX_TILES = 32
	for _, ref := range d.GetTilesAt(tx, ty, MAX_TILES) {
		status := d.BuildNavMeshTile(ref, navmesh)
		if status.Failed() {
			return status
		}
	}
	return detour.DT_SUCCESS
}

// / Decompresses a tile, stamps the live obstacles into it and replaces the
// / matching navmesh tile with the result. An empty result only removes the old tile.
func (d *DtTileCache) BuildNavMeshTile(ref DtCompressedTileRef, navmesh *detour.DtNavMesh) detour.DtStatus {
	tile := d.GetTileByRef(ref)
	if tile == nil || navmesh == nil {
		return detour.DT_FAILURE | detour.DT_INVALID_PARAM
	}
	params := &d.m_params
	walkableClimbVx := int32(params.WalkableClimb / params.Ch)
	walkableHeightVx := int32(math.Ceil(float64(params.WalkableHeight / params.Ch)))

	// Decompress tile layer data.
	d.m_talloc.Reset()
	layer, status := DtDecompressTileCacheLayer(d.m_talloc, d.m_tcomp, tile.Data)
	if status.Failed() {
		d.m_ctx.Errorf("buildNavMeshTile: decompress tile %d failed: %s", ref, status)
		return status
	}
	header := layer.Header

	// Rasterize obstacles.
	for i := range d.m_obstacles {
		ob := &d.m_obstacles[i]
		if ob.State == DT_OBSTACLE_EMPTY || ob.State == DT_OBSTACLE_REMOVING {
			continue
		}
		if !contains(ob.touched, ref) {
			continue
		}
		switch ob.Type {
		case DT_OBSTACLE_CYLINDER:
			DtMarkCylinderArea(layer, header.Bmin[:], params.Cs, params.Ch,
				ob.Cylinder.Pos[:], ob.Cylinder.Radius, ob.Cylinder.Height, DT_TILECACHE_NULL_AREA)
		case DT_OBSTACLE_BOX:
			DtMarkBoxArea(layer, header.Bmin[:], params.Cs, params.Ch,
				ob.Box.Bmin[:], ob.Box.Bmax[:], DT_TILECACHE_NULL_AREA)
		case DT_OBSTACLE_ORIENTED_BOX:
			DtMarkOrientedBoxArea(layer, header.Bmin[:], params.Cs, params.Ch,
				ob.OrientedBox.Center[:], ob.OrientedBox.HalfExtents[:], ob.OrientedBox.RotAux, DT_TILECACHE_NULL_AREA)
		}
	}

	// Build navmesh
	chf := buildCompactFromLayer(layer, params.Cs, params.Ch, walkableHeightVx, walkableClimbVx)
	if !recast.RcBuildRegionsMonotone(d.m_ctx, chf, 0, 0, 0) {
		return detour.DT_FAILURE
	}
	cset, ok := recast.RcBuildContours(d.m_ctx, chf, params.MaxSimplificationError, 0, recast.RC_CONTOUR_TESS_WALL_EDGES)
	if !ok {
		return detour.DT_FAILURE
	}
	pmesh, ok := recast.RcBuildPolyMesh(d.m_ctx, cset, detour.DT_VERTS_PER_POLYGON)
	if !ok {
		return detour.DT_FAILURE
	}
	recast.RcMarkPortalEdges(pmesh, chf.Width, chf.Height)

	oldRef := navmesh.GetTileRefAt(header.Tx, header.Ty, header.Tlayer)

	// Early out if the mesh tile is empty.
	if pmesh.Npolys == 0 {
		if oldRef != 0 {
			navmesh.RemoveTile(oldRef)
		}
		return detour.DT_SUCCESS
	}

	createParams := detour.DtNavMeshCreateParams{
		Verts:          pmesh.Verts,
		VertCount:      pmesh.Nverts,
		Polys:          pmesh.Polys,
		PolyAreas:      pmesh.Areas,
		PolyFlags:      pmesh.Flags,
		PolyCount:      pmesh.Npolys,
		Nvp:            pmesh.Nvp,
		WalkableHeight: params.WalkableHeight,
		WalkableRadius: params.WalkableRadius,
		WalkableClimb:  params.WalkableClimb,
		TileX:          header.Tx,
		TileY:          header.Ty,
		TileLayer:      header.Tlayer,
		Cs:             params.Cs,
		Ch:             params.Ch,
		BuildBvTree:    false,
		Bmin:           header.Bmin,
		Bmax:           header.Bmax,
	}
	if d.m_tmproc != nil {
		d.m_tmproc.Process(&createParams, pmesh.Areas, pmesh.Flags)
	}

	navData, ok := detour.DtCreateNavMeshData(&createParams)
	if !ok {
		return detour.DT_FAILURE
	}

	// Remove existing tile.
	if oldRef != 0 {
		navmesh.RemoveTile(oldRef)
	}

	// Add new tile. The navmesh owns the data.
	if _, status = navmesh.AddTile(navData, detour.DT_TILE_FREE_DATA, 0); status.Failed() {
		d.m_ctx.Errorf("buildNavMeshTile: add tile (%d,%d,%d) failed: %s", header.Tx, header.Ty, header.Tlayer, status)
		return status
	}
	return detour.DT_SUCCESS
}

// / Bounds of the usable cells of a layer.
func (d *DtTileCache) CalcTightTileBounds(header *DtTileCacheLayerHeader) (bmin, bmax [3]float32) {
	cs := d.m_params.Cs
	bmin[0] = header.Bmin[0] + float32(header.Minx)*cs
	bmin[1] = header.Bmin[1]
	bmin[2] = header.Bmin[2] + float32(header.Miny)*cs
	bmax[0] = header.Bmin[0] + float32(header.Maxx+1)*cs
	bmax[1] = header.Bmax[1]
	bmax[2] = header.Bmin[2] + float32(header.Maxy+1)*cs
	return bmin, bmax
}

func (d *DtTileCache) GetObstacleBounds(ob *DtTileCacheObstacle) (bmin, bmax [3]float32) {
	switch ob.Type {
	case DT_OBSTACLE_CYLINDER:
		cl := &ob.Cylinder
		bmin = [3]float32{cl.Pos[0] - cl.Radius, cl.Pos[1], cl.Pos[2] - cl.Radius}
		bmax = [3]float32{cl.Pos[0] + cl.Radius, cl.Pos[1] + cl.Height, cl.Pos[2] + cl.Radius}
	case DT_OBSTACLE_BOX:
		bmin = ob.Box.Bmin
		bmax = ob.Box.Bmax
	case DT_OBSTACLE_ORIENTED_BOX:
		box := &ob.OrientedBox
		maxr := 1.41 * max(box.HalfExtents[0], box.HalfExtents[2])
		bmin = [3]float32{box.Center[0] - maxr, box.Center[1] - box.HalfExtents[1], box.Center[2] - maxr}
		bmax = [3]float32{box.Center[0] + maxr, box.Center[1] + box.HalfExtents[1], box.Center[2] + maxr}
	}
	return bmin, bmax
}
