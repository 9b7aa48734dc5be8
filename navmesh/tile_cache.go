package navmesh

import (
	"github.com/gorustyt/navbind/bind"
	"github.com/gorustyt/navbind/common"
	"github.com/gorustyt/navbind/common/logs"
	"github.com/gorustyt/navbind/detour"
	dtc "github.com/gorustyt/navbind/detour_tile_cache"
	"go.uber.org/zap"
)

// / Scratch space used to decompress one layer.
const DefaultTileCacheArena = 32000

type ObstacleType = dtc.DtObstacleType

// / A temporary obstacle known to the tile cache. Only the fields of its type are set.
type Obstacle struct {
	Ref  dtc.DtObstacleRef
	Type ObstacleType

	Position common.Vec3
	Radius   float32
	Height   float32

	Bmin, Bmax common.Vec3

	HalfExtents common.Vec3
	Angle       float32
}

// / Adjusts area and flags of each polygon before a tile is added to the navmesh.
type MeshProcess func(params *detour.DtNavMeshCreateParams, polyAreas []uint8, polyFlags []uint16)

// / TileCache keeps compressed layers and rebuilds navmesh tiles around obstacles.
type TileCache struct {
	Raw *dtc.DtTileCache

	alloc     *dtc.LinearAllocator
	obstacles []*Obstacle
}

func NewTileCache() *TileCache {
	return &TileCache{Raw: dtc.NewDtTileCache()}
}

// / Initializes with an s2 compressor and a linear scratch allocator. process may be nil.
func (tc *TileCache) Init(params *dtc.DtTileCacheParams, process MeshProcess) bool {
	tc.alloc = dtc.NewLinearAllocator(DefaultTileCacheArena)
	var proc dtc.DtTileCacheMeshProcess
	if process != nil {
		proc = dtc.MeshProcessFunc(process)
	}
	status := tc.Raw.Init(params, tc.alloc, dtc.S2Compressor{}, proc)
	if status.Failed() {
		logs.L().Warn("tile cache init failed", zap.Stringer("status", status))
		return false
	}
	return true
}

func (tc *TileCache) GetParams() *dtc.DtTileCacheParams { return tc.Raw.GetParams() }
func (tc *TileCache) GetTileCount() int32               { return tc.Raw.GetTileCount() }
func (tc *TileCache) GetMaxTiles() int32                { return tc.Raw.GetMaxTiles() }
func (tc *TileCache) GetTile(i int32) *dtc.DtCompressedTile {
	return tc.Raw.GetTile(i)
}

// / Adds a compressed layer. With DT_COMPRESSEDTILE_FREE_DATA the cache takes ownership of data on success.
func (tc *TileCache) AddTile(data *bind.UnsignedCharArray, flags uint32) bind.TileCacheAddTileResult {
	if data == nil {
		return bind.TileCacheAddTileResult{Status: detour.DT_FAILURE | detour.DT_INVALID_PARAM}
	}
	ref, status := tc.Raw.AddTile(data.Data(), flags)
	if status.Succeed() && flags&dtc.DT_COMPRESSEDTILE_FREE_DATA != 0 {
		data.Detach()
	}
	return bind.TileCacheAddTileResult{Status: status, TileRef: ref}
}

func (tc *TileCache) RemoveTile(ref dtc.DtCompressedTileRef) bind.RemoveTileResult {
	data, status := tc.Raw.RemoveTile(ref)
	return bind.RemoveTileResult{Status: status, Data: data}
}

func (tc *TileCache) GetTileAt(tx, ty, tlayer int32) *dtc.DtCompressedTile {
	return tc.Raw.GetTileAt(tx, ty, tlayer)
}

func (tc *TileCache) GetTilesAt(tx, ty int32, maxTiles int) []dtc.DtCompressedTileRef {
	return tc.Raw.GetTilesAt(tx, ty, maxTiles)
}

func (tc *TileCache) GetTileByRef(ref dtc.DtCompressedTileRef) *dtc.DtCompressedTile {
	return tc.Raw.GetTileByRef(ref)
}

func (tc *TileCache) GetTileRef(tile *dtc.DtCompressedTile) dtc.DtCompressedTileRef {
	return tc.Raw.GetTileRef(tile)
}

func (tc *TileCache) BuildNavMeshTile(ref dtc.DtCompressedTileRef, nav *NavMesh) detour.DtStatus {
	return tc.Raw.BuildNavMeshTile(ref, nav.Raw)
}

func (tc *TileCache) BuildNavMeshTilesAt(tx, ty int32, nav *NavMesh) detour.DtStatus {
	return tc.Raw.BuildNavMeshTilesAt(tx, ty, nav.Raw)
}

// / Processes queued obstacle changes and rebuilds a bounded number of tiles.
// / Call repeatedly until UpToDate is true.
func (tc *TileCache) Update(nav *NavMesh) bind.TileCacheUpdateResult {
	upToDate, status := tc.Raw.Update(nav.Raw)
	return bind.TileCacheUpdateResult{Status: status, UpToDate: upToDate}
}

func (tc *TileCache) track(ob *Obstacle, ref dtc.DtObstacleRef, status detour.DtStatus) bind.AddObstacleResult {
	if status.Succeed() {
		ob.Ref = ref
		tc.obstacles = append(tc.obstacles, ob)
	}
	return bind.AddObstacleResult{Status: status, Ref: ref}
}

func (tc *TileCache) AddCylinderObstacle(pos common.Vec3, radius, height float32) bind.AddObstacleResult {
	ref, status := tc.Raw.AddObstacle(pos[:], radius, height)
	return tc.track(&Obstacle{Type: dtc.DT_OBSTACLE_CYLINDER, Position: pos, Radius: radius, Height: height}, ref, status)
}

func (tc *TileCache) AddBoxObstacle(bmin, bmax common.Vec3) bind.AddObstacleResult {
	ref, status := tc.Raw.AddBoxObstacle(bmin[:], bmax[:])
	return tc.track(&Obstacle{Type: dtc.DT_OBSTACLE_BOX, Bmin: bmin, Bmax: bmax}, ref, status)
}

// / angle is a rotation around the y axis in radians.
func (tc *TileCache) AddOrientedBoxObstacle(center, halfExtents common.Vec3, angle float32) bind.AddObstacleResult {
	ref, status := tc.Raw.AddOrientedBoxObstacle(center[:], halfExtents[:], angle)
	return tc.track(&Obstacle{Type: dtc.DT_OBSTACLE_ORIENTED_BOX, Position: center, HalfExtents: halfExtents, Angle: angle}, ref, status)
}

// / Removing an obstacle twice, or one the cache does not know, succeeds without effect.
func (tc *TileCache) RemoveObstacle(ob *Obstacle) detour.DtStatus {
	if ob == nil {
		return detour.DT_SUCCESS
	}
	status := tc.Raw.RemoveObstacle(ob.Ref)
	if status.Failed() {
		return status
	}
	for i, o := range tc.obstacles {
		if o == ob {
			tc.obstacles = append(tc.obstacles[:i], tc.obstacles[i+1:]...)
			break
		}
	}
	return status
}

// / Obstacles added through this cache that have not been removed, in insertion order.
func (tc *TileCache) GetObstacles() []*Obstacle { return tc.obstacles }

func (tc *TileCache) GetObstacleByRef(ref dtc.DtObstacleRef) *dtc.DtTileCacheObstacle {
	return tc.Raw.GetObstacleByRef(ref)
}

func (tc *TileCache) Destroy() {
	tc.Raw = nil
	tc.obstacles = nil
}
