package generators

import (
	"github.com/gorustyt/navbind/bind"
	"github.com/gorustyt/navbind/common/logs"
	"github.com/gorustyt/navbind/detour"
	dtc "github.com/gorustyt/navbind/detour_tile_cache"
	"github.com/gorustyt/navbind/navmesh"
	"github.com/gorustyt/navbind/recast"
	"go.uber.org/zap"
)

// / DefaultTileCacheMeshProcess gives walkable polygons area 0 and flag 1.
func DefaultTileCacheMeshProcess(params *detour.DtNavMeshCreateParams, polyAreas []uint8, polyFlags []uint16) {
	for i := range polyAreas {
		if polyAreas[i] == dtc.DT_TILECACHE_WALKABLE_AREA {
			polyAreas[i] = 0
		}
		if polyAreas[i] == 0 {
			polyFlags[i] = 1
		}
	}
}

// / Compressed layers of tile (tx,ty), one per walkable layer.
func rasterizeTileLayers(ctx *recast.RcContext, g *tileGrid, positions []float32, chunky *ChunkyTriMesh,
	tx, ty int32, ti *TileIntermediates) ([]*bind.UnsignedCharArray, error) {
	rc := g.rc
	rc.Bmin, rc.Bmax = g.tileBounds(tx, ty)

	chf, err := rasterizeTile(ctx, &rc, positions, chunky, tx, ty, ti)
	if chf == nil {
		return nil, err
	}
	lset, ok := recast.RcBuildHeightfieldLayers(ctx, chf, rc.BorderSize, rc.WalkableHeight)
	if !ok {
		return nil, tileStageFailed("build heightfield layers", tx, ty)
	}
	ti.HeightfieldLayerSet = lset

	layers := make([]*bind.UnsignedCharArray, 0, len(lset.Layers))
	for i, layer := range lset.Layers {
		res := navmesh.BuildTileCacheLayer(layer, tx, ty, int32(i))
		if res.Status.Failed() {
			for _, l := range layers {
				l.Free()
			}
			return nil, tileStageFailed("build tile cache layer", tx, ty)
		}
		layers = append(layers, res.Data)
	}
	return layers, nil
}

// / GenerateTileCache builds a tile cache and the navmesh it maintains, with the default mesh process.
func GenerateTileCache(positions []float32, indices []int32, cfg RecastConfig, keepIntermediates bool) TileCacheGeneratorResult {
	return GenerateTileCacheWithProcess(positions, indices, cfg, DefaultTileCacheMeshProcess, keepIntermediates)
}

// / GenerateTileCacheWithProcess rasterizes every tile into compressed layers, adds them to
// / a new tile cache and builds the initial navmesh tiles from them.
func GenerateTileCacheWithProcess(positions []float32, indices []int32, cfg RecastConfig,
	process navmesh.MeshProcess, keepIntermediates bool) TileCacheGeneratorResult {
	ctx := newBuildContext()
	inter := &Intermediates{Type: IntermediatesTileCache, BuildContext: ctx}

	fail := func(err error) TileCacheGeneratorResult {
		res := TileCacheGeneratorResult{Error: err}
		if keepIntermediates {
			res.Intermediates = inter
		}
		return res
	}

	if err := cfg.Validate(); err != nil {
		return fail(err)
	}
	bmin, bmax, err := calcBounds(positions, indices)
	if err != nil {
		return fail(err)
	}
	g := newTileGrid(&cfg, bmin, bmax)
	maxTiles := g.tw * g.th * cfg.ExpectedLayersPerTile

	tc := navmesh.NewTileCache()
	if !tc.Init(&dtc.DtTileCacheParams{
		Orig:                   bmin,
		Cs:                     cfg.Cs,
		Ch:                     cfg.Ch,
		Width:                  cfg.TileSize,
		Height:                 cfg.TileSize,
		WalkableHeight:         cfg.WalkableHeight,
		WalkableRadius:         cfg.WalkableRadius,
		WalkableClimb:          cfg.WalkableClimb,
		MaxSimplificationError: cfg.MaxSimplificationError,
		MaxTiles:               maxTiles,
		MaxObstacles:           cfg.MaxObstacles,
	}, process) {
		return fail(stageFailed("init tile cache"))
	}

	tileBits, polyBits := tileAndPolyBits(maxTiles)
	nav := navmesh.NewNavMesh()
	if !nav.InitTiled(g.navMeshParams(tileBits, polyBits)) {
		return fail(stageFailed("init tiled navmesh"))
	}

	chunky := NewChunkyTriMesh(positions, indices, trisPerChunk)
	inter.ChunkyTriMesh = chunky

	// Preprocess tiles.
	for ty := int32(0); ty < g.th; ty++ {
		for tx := int32(0); tx < g.tw; tx++ {
			ti := &TileIntermediates{TileX: tx, TileY: ty}
			if keepIntermediates {
				inter.Tiles = append(inter.Tiles, ti)
			}
			layers, err := rasterizeTileLayers(ctx, g, positions, chunky, tx, ty, ti)
			if err != nil {
				continue
			}
			for _, data := range layers {
				if res := tc.AddTile(data, dtc.DT_COMPRESSEDTILE_FREE_DATA); res.Status.Failed() {
					logs.L().Warn("add tile to tile cache failed",
						zap.Int32("tx", tx), zap.Int32("ty", ty), zap.Stringer("status", res.Status))
					data.Free()
				}
			}
		}
	}

	// Build initial meshes.
	for ty := int32(0); ty < g.th; ty++ {
		for tx := int32(0); tx < g.tw; tx++ {
			if status := tc.BuildNavMeshTilesAt(tx, ty, nav); status.Failed() {
				return fail(tileStageFailed("build navmesh tiles", tx, ty))
			}
		}
	}

	res := TileCacheGeneratorResult{Success: true, NavMesh: nav, TileCache: tc}
	if keepIntermediates {
		res.Intermediates = inter
	}
	return res
}
