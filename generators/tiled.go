package generators

import (
	"github.com/gorustyt/navbind/bind"
	"github.com/gorustyt/navbind/common/logs"
	"github.com/gorustyt/navbind/detour"
	"github.com/gorustyt/navbind/navmesh"
	"github.com/gorustyt/navbind/recast"
	"go.uber.org/zap"
)

// / Grid and per tile voxel settings shared by the tiled builds.
type tileGrid struct {
	rc         recast.RcConfig
	bmin, bmax [3]float32
	tw, th     int32
	tcs        float32
}

func newTileGrid(cfg *RecastConfig, bmin, bmax [3]float32) *tileGrid {
	rc := cfg.ToRcConfig()
	gw, gh := recast.RcCalcGridSize(bmin[:], bmax[:], rc.Cs)
	ts := rc.TileSize
	rc.BorderSize = rc.WalkableRadius + 3 // Reserve enough padding.
	rc.Width = ts + rc.BorderSize*2
	rc.Height = ts + rc.BorderSize*2
	return &tileGrid{
		rc:   rc,
		bmin: bmin,
		bmax: bmax,
		tw:   (gw + ts - 1) / ts,
		th:   (gh + ts - 1) / ts,
		tcs:  float32(ts) * rc.Cs,
	}
}

// / Bounds of tile (tx,ty) grown by the border, with the full input height range.
func (g *tileGrid) tileBounds(tx, ty int32) (bmin, bmax [3]float32) {
	pad := float32(g.rc.BorderSize) * g.rc.Cs
	bmin = [3]float32{g.bmin[0] + float32(tx)*g.tcs - pad, g.bmin[1], g.bmin[2] + float32(ty)*g.tcs - pad}
	bmax = [3]float32{g.bmin[0] + float32(tx+1)*g.tcs + pad, g.bmax[1], g.bmin[2] + float32(ty+1)*g.tcs + pad}
	return bmin, bmax
}

func (g *tileGrid) navMeshParams(tileBits, polyBits uint32) *detour.NavMeshParams {
	return &detour.NavMeshParams{
		Orig:       g.bmin,
		TileWidth:  g.tcs,
		TileHeight: g.tcs,
		MaxTiles:   1 << tileBits,
		MaxPolys:   1 << polyBits,
	}
}

// / Rasterizes the triangles of one tile and filters the result into a compact
// / heightfield ready for region or layer building. A nil field means the tile is empty.
func rasterizeTile(ctx *recast.RcContext, rc *recast.RcConfig, positions []float32, chunky *ChunkyTriMesh,
	tx, ty int32, ti *TileIntermediates) (*recast.RcCompactHeightfield, error) {
	chunks := chunky.ChunksOverlappingRect([2]float32{rc.Bmin[0], rc.Bmin[2]}, [2]float32{rc.Bmax[0], rc.Bmax[2]})
	if len(chunks) == 0 {
		return nil, nil
	}

	hf := recast.RcCreateHeightfield(ctx, rc.Width, rc.Height, rc.Bmin[:], rc.Bmax[:], rc.Cs, rc.Ch)
	if hf == nil {
		return nil, tileStageFailed("create heightfield", tx, ty)
	}
	ti.Heightfield = hf
	areas := make([]uint8, chunky.MaxTrisPerChunk)
	for _, id := range chunks {
		tris := chunky.NodeTris(id)
		ntris := int32(len(tris) / 3)
		clear(areas)
		recast.RcMarkWalkableTriangles(rc.WalkableSlopeAngle, positions, tris, ntris, areas[:ntris])
		if !recast.RcRasterizeTriangles(ctx, positions, tris, areas[:ntris], ntris, hf, rc.WalkableClimb) {
			return nil, tileStageFailed("rasterize triangles", tx, ty)
		}
	}

	recast.RcFilterLowHangingWalkableObstacles(ctx, rc.WalkableClimb, hf)
	recast.RcFilterLedgeSpans(ctx, rc.WalkableHeight, rc.WalkableClimb, hf)
	recast.RcFilterWalkableLowHeightSpans(ctx, rc.WalkableHeight, hf)

	chf := recast.RcBuildCompactHeightfield(ctx, rc.WalkableHeight, rc.WalkableClimb, hf)
	if chf == nil {
		return nil, tileStageFailed("build compact heightfield", tx, ty)
	}
	ti.CompactHeightfield = chf
	if !recast.RcErodeWalkableArea(ctx, rc.WalkableRadius, chf) {
		return nil, tileStageFailed("erode walkable area", tx, ty)
	}
	return chf, nil
}

// / Builds the detour data of tile (tx,ty). Nil data with a nil error means the tile has no polygons.
func buildTileMesh(ctx *recast.RcContext, cfg *RecastConfig, g *tileGrid, positions []float32, chunky *ChunkyTriMesh,
	tx, ty int32, ti *TileIntermediates) (*bind.UnsignedCharArray, error) {
	rc := g.rc
	rc.Bmin, rc.Bmax = g.tileBounds(tx, ty)

	chf, err := rasterizeTile(ctx, &rc, positions, chunky, tx, ty, ti)
	if chf == nil {
		return nil, err
	}
	if !recast.RcBuildDistanceField(ctx, chf) {
		return nil, tileStageFailed("build distance field", tx, ty)
	}
	if !recast.RcBuildRegionsMonotone(ctx, chf, rc.BorderSize, rc.MinRegionArea, rc.MergeRegionArea) {
		return nil, tileStageFailed("build regions", tx, ty)
	}
	cset, ok := recast.RcBuildContours(ctx, chf, rc.MaxSimplificationError, rc.MaxEdgeLen, recast.RC_CONTOUR_TESS_WALL_EDGES)
	if !ok {
		return nil, tileStageFailed("build contours", tx, ty)
	}
	ti.ContourSet = cset
	if len(cset.Conts) == 0 {
		return nil, nil
	}
	pmesh, ok := recast.RcBuildPolyMesh(ctx, cset, rc.MaxVertsPerPoly)
	if !ok {
		return nil, tileStageFailed("build polymesh", tx, ty)
	}
	ti.PolyMesh = pmesh
	if pmesh.Npolys == 0 {
		return nil, nil
	}
	dmesh, ok := recast.RcBuildPolyMeshDetail(ctx, pmesh, chf, rc.DetailSampleDist, rc.DetailSampleMaxError)
	if !ok {
		return nil, tileStageFailed("build polymesh detail", tx, ty)
	}
	ti.PolyMeshDetail = dmesh

	walkablePolyFlags(pmesh)
	params := createParamsFromMesh(pmesh, dmesh, cfg)
	params.TileX = tx
	params.TileY = ty
	created := navmesh.CreateNavMeshData(params)
	if !created.Success {
		return nil, tileStageFailed("create navmesh data", tx, ty)
	}
	ctx.Log(recast.RC_LOG_PROGRESS, ">> Polymesh: %d vertices  %d polygons", pmesh.Nverts, pmesh.Npolys)
	return created.NavMeshData, nil
}

// / GenerateTiledNavMesh builds a multi tile navmesh, one tile of TileSize cells at a time.
// / Tiles without geometry are skipped. A tile whose build fails is logged and left out.
func GenerateTiledNavMesh(positions []float32, indices []int32, cfg RecastConfig, keepIntermediates bool) TiledNavMeshResult {
	ctx := newBuildContext()
	inter := &Intermediates{Type: IntermediatesTiled, BuildContext: ctx}

	fail := func(err error) TiledNavMeshResult {
		res := TiledNavMeshResult{Error: err}
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
	tileBits, polyBits := tileAndPolyBits(g.tw * g.th)
	chunky := NewChunkyTriMesh(positions, indices, trisPerChunk)
	inter.ChunkyTriMesh = chunky

	nav := navmesh.NewNavMesh()
	if !nav.InitTiled(g.navMeshParams(tileBits, polyBits)) {
		return fail(stageFailed("init tiled navmesh"))
	}

	ctx.ResetTimers()
	ctx.StartTimer(recast.RC_TIMER_TEMP)
	for ty := int32(0); ty < g.th; ty++ {
		for tx := int32(0); tx < g.tw; tx++ {
			ti := &TileIntermediates{TileX: tx, TileY: ty}
			if keepIntermediates {
				inter.Tiles = append(inter.Tiles, ti)
			}
			data, err := buildTileMesh(ctx, &cfg, g, positions, chunky, tx, ty, ti)
			if err != nil || data == nil {
				continue
			}
			if old := nav.GetTileRefAt(tx, ty, 0); old != 0 {
				nav.RemoveTile(old)
			}
			if res := nav.AddTile(data, detour.DT_TILE_FREE_DATA, 0); res.Status.Failed() {
				logs.L().Warn("add tile failed",
					zap.Int32("tx", tx), zap.Int32("ty", ty), zap.Stringer("status", res.Status))
				data.Free()
			}
		}
	}
	ctx.StopTimer(recast.RC_TIMER_TEMP)

	res := TiledNavMeshResult{Success: true, NavMesh: nav}
	if keepIntermediates {
		res.Intermediates = inter
	}
	return res
}
