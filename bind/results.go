package bind

import (
	"github.com/gorustyt/navbind/common"
	"github.com/gorustyt/navbind/detour"
	"github.com/gorustyt/navbind/detour_tile_cache"
)

// / Output of DtCreateNavMeshData. On success NavMeshData owns the tile blob
// / until it is detached into a navmesh.
type CreateNavMeshDataResult struct {
	Success     bool
	NavMeshData *UnsignedCharArray
}

type AddTileResult struct {
	Status  detour.DtStatus
	TileRef detour.DtTileRef
}

// / Data is the blob of the removed tile when the mesh did not own it.
type RemoveTileResult struct {
	Status detour.DtStatus
	Data   []byte
}

type CalcTileLocResult struct {
	TileX int32
	TileY int32
}

type DecodePolyIdResult struct {
	Salt      uint32
	TileIndex uint32
	PolyIndex uint32
}

type TileAndPolyResult struct {
	Status detour.DtStatus
	Tile   *detour.DtMeshTile
	Poly   *detour.DtPoly
}

type TileCacheAddTileResult struct {
	Status  detour.DtStatus
	TileRef detour_tile_cache.DtCompressedTileRef
}

type TileCacheUpdateResult struct {
	Status   detour.DtStatus
	UpToDate bool
}

type AddObstacleResult struct {
	Status detour.DtStatus
	Ref    detour_tile_cache.DtObstacleRef
}

type BuildTileCacheLayerResult struct {
	Status detour.DtStatus
	Data   *UnsignedCharArray
}

type FindNearestPolyResult struct {
	Status       detour.DtStatus
	NearestRef   detour.DtPolyRef
	NearestPoint common.Vec3
	IsOverPoly   bool
}

type FindPathResult struct {
	Status detour.DtStatus
	Path   []detour.DtPolyRef
}

// / Points holds one vertex per entry of Flags and Refs.
type FindStraightPathResult struct {
	Status detour.DtStatus
	Points []common.Vec3
	Flags  []uint8
	Refs   []detour.DtPolyRef
}

// / T is FLT_MAX when the ray reached the end position without hitting a wall.
type RaycastResult struct {
	Status       detour.DtStatus
	T            float32
	HitNormal    common.Vec3
	HitEdgeIndex int32
	Path         []detour.DtPolyRef
	PathCost     float32
}

type MoveAlongSurfaceResult struct {
	Status         detour.DtStatus
	ResultPosition common.Vec3
	Visited        []detour.DtPolyRef
}

type RandomPointResult struct {
	Status        detour.DtStatus
	RandomPolyRef detour.DtPolyRef
	RandomPoint   common.Vec3
}

// / PolyRef is the polygon the point was clamped to.
type ClosestPointResult struct {
	Status          detour.DtStatus
	PolyRef         detour.DtPolyRef
	ClosestPoint    common.Vec3
	IsPointOverPoly bool
}

type PolyHeightResult struct {
	Status detour.DtStatus
	Height float32
}

type SlicedPathResult struct {
	Status         detour.DtStatus
	DoneIterations int32
	Path           []detour.DtPolyRef
}

// / Reasons ComputePath can fail.
type ComputePathError string

const (
	ComputePathNoStartPoly   ComputePathError = "start_nearest_poly_failed"
	ComputePathNoEndPoly     ComputePathError = "end_nearest_poly_failed"
	ComputePathFindPath      ComputePathError = "find_path_failed"
	ComputePathNoPolygonPath ComputePathError = "no_polygon_path_found"
	ComputePathStraightPath  ComputePathError = "find_straight_path_failed"
	ComputePathNoPoints      ComputePathError = "no_straight_path_found"
)

type ComputePathResult struct {
	Success bool
	Error   ComputePathError
	Status  detour.DtStatus
	Path    []common.Vec3
}
