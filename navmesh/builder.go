package navmesh

import (
	"github.com/gorustyt/navbind/bind"
	"github.com/gorustyt/navbind/detour"
	dtc "github.com/gorustyt/navbind/detour_tile_cache"
	"github.com/gorustyt/navbind/recast"
)

// / Builds tile data. The returned array owns the blob until InitSolo or AddTile takes it.
func CreateNavMeshData(params *detour.DtNavMeshCreateParams) bind.CreateNavMeshDataResult {
	data, ok := detour.DtCreateNavMeshData(params)
	if !ok {
		return bind.CreateNavMeshDataResult{}
	}
	return bind.CreateNavMeshDataResult{Success: true, NavMeshData: bind.NewUnsignedCharArray(data)}
}

// / Compresses one heightfield layer into a tile cache tile.
func BuildTileCacheLayer(layer *recast.RcHeightfieldLayer, tx, ty, tlayer int32) bind.BuildTileCacheLayerResult {
	data, status := dtc.BuildTileCacheLayer(dtc.S2Compressor{}, layer, tx, ty, tlayer)
	if status.Failed() {
		return bind.BuildTileCacheLayerResult{Status: status}
	}
	return bind.BuildTileCacheLayerResult{Status: status, Data: bind.NewUnsignedCharArray(data)}
}
