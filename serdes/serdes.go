// Package serdes exports navmeshes and tile caches to a flat binary set and imports them back.
//
// A set starts with {magic, version, numTiles}. A navmesh set follows with the navmesh params
// and one {tileRef, dataSize, data} record per tile. A tile cache set follows with the navmesh
// params, the tile cache params and one record per compressed tile. Everything is little endian.
package serdes

import (
	"errors"
	"fmt"

	"github.com/gorustyt/navbind/bind"
	"github.com/gorustyt/navbind/common/logs"
	"github.com/gorustyt/navbind/common/rw"
	"github.com/gorustyt/navbind/detour"
	dtc "github.com/gorustyt/navbind/detour_tile_cache"
	"github.com/gorustyt/navbind/generators"
	"github.com/gorustyt/navbind/navmesh"
	"go.uber.org/zap"
)

const (
	NAVMESHSET_MAGIC     = 'M'<<24 | 'S'<<16 | 'E'<<8 | 'T' //'MSET'
	NAVMESHSET_VERSION   = 1
	TILECACHESET_MAGIC   = 'T'<<24 | 'S'<<16 | 'E'<<8 | 'T' //'TSET'
	TILECACHESET_VERSION = 1
)

var (
	ErrBadMagic   = errors.New("serdes: unknown set magic")
	ErrBadVersion = errors.New("serdes: unsupported set version")
	ErrTruncated  = errors.New("serdes: truncated set")
)

type ImportResult struct {
	Success   bool
	NavMesh   *navmesh.NavMesh
	TileCache *navmesh.TileCache // Only set for tile cache sets.
	Error     error
}

type setHeader struct {
	magic    int32
	version  int32
	numTiles int32
}

func (h *setHeader) FromBin(r *rw.ReaderWriter) {
	h.magic = r.ReadInt32()
	h.version = r.ReadInt32()
	h.numTiles = r.ReadInt32()
}

func (h *setHeader) ToBin(w *rw.ReaderWriter) {
	w.WriteInt32(h.magic)
	w.WriteInt32(h.version)
	w.WriteInt32(h.numTiles)
}

// / ExportNavMesh writes a tile cache set when tileCache is given, a navmesh set otherwise.
// / Returns nil for a nil mesh.
func ExportNavMesh(nav *navmesh.NavMesh, tileCache *navmesh.TileCache) []byte {
	if nav == nil || nav.Raw == nil {
		return nil
	}
	w := rw.NewNavMeshDataBinWriter()
	if tileCache != nil {
		exportTileCache(w, nav, tileCache)
	} else {
		exportNavMesh(w, nav)
	}
	return w.GetWriteBytes()
}

func exportNavMesh(w *rw.ReaderWriter, nav *navmesh.NavMesh) {
	var tiles []*detour.DtMeshTile
	for i := int32(0); i < nav.GetMaxTiles(); i++ {
		tile := nav.GetTile(i)
		if tile == nil || tile.Header == nil || len(tile.Data) == 0 {
			continue
		}
		tiles = append(tiles, tile)
	}

	header := setHeader{magic: NAVMESHSET_MAGIC, version: NAVMESHSET_VERSION, numTiles: int32(len(tiles))}
	header.ToBin(w)
	nav.GetParams().ToBin(w)

	for _, tile := range tiles {
		w.WriteInt32(uint32(nav.GetTileRef(tile)))
		w.WriteInt32(len(tile.Data))
		w.WriteBytes(tile.Data)
	}
}

func exportTileCache(w *rw.ReaderWriter, nav *navmesh.NavMesh, tc *navmesh.TileCache) {
	var tiles []*dtc.DtCompressedTile
	for i := int32(0); i < tc.GetMaxTiles(); i++ {
		tile := tc.GetTile(i)
		if tile == nil || tile.Header == nil || len(tile.Data) == 0 {
			continue
		}
		tiles = append(tiles, tile)
	}

	header := setHeader{magic: TILECACHESET_MAGIC, version: TILECACHESET_VERSION, numTiles: int32(len(tiles))}
	header.ToBin(w)
	nav.GetParams().ToBin(w)
	tc.GetParams().ToBin(w)

	for _, tile := range tiles {
		w.WriteInt32(uint32(tc.GetTileRef(tile)))
		w.WriteInt32(len(tile.Data))
		w.WriteBytes(tile.Data)
	}
}

// / ImportNavMesh reads a set written by ExportNavMesh. Tile cache sets rebuild their
// / navmesh tiles with generators.DefaultTileCacheMeshProcess.
func ImportNavMesh(data []byte) ImportResult {
	return ImportTileCache(data, generators.DefaultTileCacheMeshProcess)
}

// / ImportTileCache reads a set like ImportNavMesh, using meshProcess for tile cache sets.
// / A set that ends early imports the tiles read so far.
func ImportTileCache(data []byte, meshProcess navmesh.MeshProcess) ImportResult {
	r := rw.NewNavMeshDataBinReader(data)
	var header setHeader
	header.FromBin(r)
	if r.Err() != nil {
		return ImportResult{Error: fmt.Errorf("%w: %w", ErrTruncated, r.Err())}
	}

	switch header.magic {
	case NAVMESHSET_MAGIC:
		if header.version != NAVMESHSET_VERSION {
			return ImportResult{Error: fmt.Errorf("%w: navmesh set version %d", ErrBadVersion, header.version)}
		}
		return importNavMeshSet(r, header.numTiles)
	case TILECACHESET_MAGIC:
		if header.version != TILECACHESET_VERSION {
			return ImportResult{Error: fmt.Errorf("%w: tile cache set version %d", ErrBadVersion, header.version)}
		}
		return importTileCacheSet(r, header.numTiles, meshProcess)
	default:
		return ImportResult{Error: fmt.Errorf("%w: 0x%08x", ErrBadMagic, uint32(header.magic))}
	}
}

// / Reads the next tile record. ok is false once the set ends, whether by a zero record or
// / by running out of data.
func readTileRecord(r *rw.ReaderWriter) (ref uint32, data []byte, ok bool) {
	ref = r.ReadUInt32()
	size := r.ReadInt32()
	if r.Err() != nil || ref == 0 || size <= 0 {
		return 0, nil, false
	}
	if int(size) > r.Size() {
		logs.L().Warn("tile record runs past the end of the set",
			zap.Uint32("tileRef", ref), zap.Int32("dataSize", size), zap.Int("remaining", r.Size()))
		return 0, nil, false
	}
	data = r.ReadBytes(int(size))
	return ref, data, r.Err() == nil
}

func importNavMeshSet(r *rw.ReaderWriter, numTiles int32) ImportResult {
	var params detour.NavMeshParams
	params.FromBin(r)
	if r.Err() != nil {
		return ImportResult{Error: fmt.Errorf("%w: navmesh params: %w", ErrTruncated, r.Err())}
	}

	nav := navmesh.NewNavMesh()
	if !nav.InitTiled(&params) {
		return ImportResult{Error: errors.New("serdes: init tiled navmesh failed")}
	}

	for i := int32(0); i < numTiles; i++ {
		ref, data, ok := readTileRecord(r)
		if !ok {
			break
		}
		tileData := bind.NewUnsignedCharArray(data)
		res := nav.AddTile(tileData, detour.DT_TILE_FREE_DATA, detour.DtTileRef(ref))
		if res.Status.Failed() {
			logs.L().Warn("import navmesh tile failed", zap.Uint32("tileRef", ref), zap.Stringer("status", res.Status))
			tileData.Free()
		}
	}
	return ImportResult{Success: true, NavMesh: nav}
}

func importTileCacheSet(r *rw.ReaderWriter, numTiles int32, meshProcess navmesh.MeshProcess) ImportResult {
	var meshParams detour.NavMeshParams
	var cacheParams dtc.DtTileCacheParams
	meshParams.FromBin(r)
	cacheParams.FromBin(r)
	if r.Err() != nil {
		return ImportResult{Error: fmt.Errorf("%w: tile cache params: %w", ErrTruncated, r.Err())}
	}

	nav := navmesh.NewNavMesh()
	if !nav.InitTiled(&meshParams) {
		return ImportResult{Error: errors.New("serdes: init tiled navmesh failed")}
	}
	tc := navmesh.NewTileCache()
	if !tc.Init(&cacheParams, meshProcess) {
		return ImportResult{Error: errors.New("serdes: init tile cache failed")}
	}

	for i := int32(0); i < numTiles; i++ {
		ref, data, ok := readTileRecord(r)
		if !ok {
			break
		}
		tileData := bind.NewUnsignedCharArray(data)
		res := tc.AddTile(tileData, dtc.DT_COMPRESSEDTILE_FREE_DATA)
		if res.Status.Failed() {
			logs.L().Warn("import compressed tile failed", zap.Uint32("tileRef", ref), zap.Stringer("status", res.Status))
			tileData.Free()
			continue
		}
		if status := tc.BuildNavMeshTile(res.TileRef, nav); status.Failed() {
			logs.L().Warn("build imported tile failed", zap.Uint32("tileRef", uint32(res.TileRef)), zap.Stringer("status", status))
		}
	}
	return ImportResult{Success: true, NavMesh: nav, TileCache: tc}
}
