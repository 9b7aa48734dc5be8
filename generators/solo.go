package generators

import (
	"github.com/gorustyt/navbind/common/logs"
	"github.com/gorustyt/navbind/navmesh"
	"github.com/gorustyt/navbind/recast"
	"go.uber.org/zap"
)

// / GenerateSoloNavMesh builds a single tile navmesh from a triangle soup.
// / positions holds x,y,z per vertex and indices three vertex indices per triangle.
func GenerateSoloNavMesh(positions []float32, indices []int32, cfg RecastConfig, keepIntermediates bool) SoloNavMeshResult {
	ctx := newBuildContext()
	inter := &Intermediates{Type: IntermediatesSolo, BuildContext: ctx}

	fail := func(err error) SoloNavMeshResult {
		res := SoloNavMeshResult{Error: err}
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
	rc := cfg.ToRcConfig()
	rc.Bmin, rc.Bmax = bmin, bmax
	rc.Width, rc.Height = recast.RcCalcGridSize(bmin[:], bmax[:], rc.Cs)
	ntris := int32(len(indices) / 3)

	ctx.ResetTimers()
	ctx.StartTimer(recast.RC_TIMER_TOTAL)
	defer ctx.StopTimer(recast.RC_TIMER_TOTAL)

	ctx.Log(recast.RC_LOG_PROGRESS, "Building navigation:")
	ctx.Log(recast.RC_LOG_PROGRESS, " - %d x %d cells", rc.Width, rc.Height)
	ctx.Log(recast.RC_LOG_PROGRESS, " - %.1fK verts, %.1fK tris", float32(len(positions)/3)/1000, float32(ntris)/1000)

	// Step 2. Rasterize input polygon soup.
	hf := recast.RcCreateHeightfield(ctx, rc.Width, rc.Height, rc.Bmin[:], rc.Bmax[:], rc.Cs, rc.Ch)
	if hf == nil {
		return fail(stageFailed("create heightfield"))
	}
	inter.Heightfield = hf

	areas := make([]uint8, ntris)
	recast.RcMarkWalkableTriangles(rc.WalkableSlopeAngle, positions, indices, ntris, areas)
	if !recast.RcRasterizeTriangles(ctx, positions, indices, areas, ntris, hf, rc.WalkableClimb) {
		return fail(stageFailed("rasterize triangles"))
	}

	// Step 3. Filter walkable surfaces.
	recast.RcFilterLowHangingWalkableObstacles(ctx, rc.WalkableClimb, hf)
	recast.RcFilterLedgeSpans(ctx, rc.WalkableHeight, rc.WalkableClimb, hf)
	recast.RcFilterWalkableLowHeightSpans(ctx, rc.WalkableHeight, hf)

	// Step 4. Partition walkable surface to simple regions.
	chf := recast.RcBuildCompactHeightfield(ctx, rc.WalkableHeight, rc.WalkableClimb, hf)
	if chf == nil {
		return fail(stageFailed("build compact heightfield"))
	}
	inter.CompactHeightfield = chf
	if !recast.RcErodeWalkableArea(ctx, rc.WalkableRadius, chf) {
		return fail(stageFailed("erode walkable area"))
	}
	if !recast.RcBuildDistanceField(ctx, chf) {
		return fail(stageFailed("build distance field"))
	}
	if !recast.RcBuildRegionsMonotone(ctx, chf, rc.BorderSize, rc.MinRegionArea, rc.MergeRegionArea) {
		return fail(stageFailed("build regions"))
	}

	// Step 5. Trace and simplify region contours.
	cset, ok := recast.RcBuildContours(ctx, chf, rc.MaxSimplificationError, rc.MaxEdgeLen, recast.RC_CONTOUR_TESS_WALL_EDGES)
	if !ok {
		return fail(stageFailed("build contours"))
	}
	inter.ContourSet = cset

	// Step 6. Build polygons mesh from contours.
	pmesh, ok := recast.RcBuildPolyMesh(ctx, cset, rc.MaxVertsPerPoly)
	if !ok {
		return fail(stageFailed("build polymesh"))
	}
	inter.PolyMesh = pmesh

	// Step 7. Create detail mesh which allows to access approximate height on each polygon.
	dmesh, ok := recast.RcBuildPolyMeshDetail(ctx, pmesh, chf, rc.DetailSampleDist, rc.DetailSampleMaxError)
	if !ok {
		return fail(stageFailed("build polymesh detail"))
	}
	inter.PolyMeshDetail = dmesh

	// Step 8. Create Detour data from Recast poly mesh.
	walkablePolyFlags(pmesh)
	created := navmesh.CreateNavMeshData(createParamsFromMesh(pmesh, dmesh, &cfg))
	if !created.Success {
		return fail(stageFailed("create navmesh data"))
	}
	nav := navmesh.NewNavMesh()
	if !nav.InitSolo(created.NavMeshData) {
		created.NavMeshData.Free()
		return fail(stageFailed("init navmesh"))
	}

	logs.L().Debug("solo navmesh built",
		zap.Int32("verts", pmesh.Nverts), zap.Int32("polys", pmesh.Npolys))

	res := SoloNavMeshResult{Success: true, NavMesh: nav}
	if keepIntermediates {
		res.Intermediates = inter
	}
	return res
}
