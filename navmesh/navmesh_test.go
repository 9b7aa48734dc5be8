package navmesh

import (
	"testing"

	"github.com/gorustyt/navbind/bind"
	"github.com/gorustyt/navbind/common"
	"github.com/gorustyt/navbind/detour"
	dtc "github.com/gorustyt/navbind/detour_tile_cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const nul = detour.MESH_NULL_IDX

// twoQuads is tile data for two 10x10 squares side by side along x,
// with poly flags 1 and 2.
func twoQuads(t *testing.T, tx int32) []byte {
	t.Helper()
	ox := float32(tx) * 20
	data, ok := detour.DtCreateNavMeshData(&detour.DtNavMeshCreateParams{
		Verts: []uint16{
			0, 0, 0,
			0, 0, 10,
			10, 0, 10,
			10, 0, 0,
			20, 0, 10,
			20, 0, 0,
		},
		VertCount: 6,
		Polys: []uint16{
			0, 1, 2, 3, nul, nul, nul, nul, 1, nul, nul, nul,
			3, 2, 4, 5, nul, nul, 0, nul, nul, nul, nul, nul,
		},
		PolyFlags:      []uint16{1, 2},
		PolyAreas:      []uint8{0, 0},
		PolyCount:      2,
		Nvp:            6,
		TileX:          tx,
		Bmin:           [3]float32{ox, 0, 0},
		Bmax:           [3]float32{ox + 20, 2, 10},
		WalkableHeight: 2,
		WalkableRadius: 0.5,
		WalkableClimb:  0.9,
		Cs:             1,
		Ch:             1,
		BuildBvTree:    true,
	})
	require.True(t, ok)
	return data
}

func newSolo(t *testing.T) *NavMesh {
	t.Helper()
	nav := NewNavMesh()
	require.True(t, nav.InitSolo(bind.NewUnsignedCharArray(twoQuads(t, 0))))
	return nav
}

func polyRefs(nav *NavMesh) (a, b detour.DtPolyRef) {
	base := nav.GetPolyRefBase(nav.GetTileAt(0, 0, 0))
	return base, base | 1
}

func TestInitSoloTakesOwnership(t *testing.T) {
	tracker := &bind.Tracker{}
	data := bind.NewArray[uint8](tracker)
	blob := twoQuads(t, 0)
	data.Copy(blob, len(blob))

	nav := NewNavMesh()
	require.True(t, nav.InitSolo(data))
	assert.False(t, data.Owned())
	assert.Empty(t, data.Data())
	assert.Zero(t, tracker.Live(), "ownership moved to the mesh")
	assert.EqualValues(t, 1, nav.GetTileCount())

	assert.False(t, NewNavMesh().InitSolo(nil))
	assert.False(t, NewNavMesh().InitSolo(bind.NewArray[uint8](nil)))

	bad := bind.NewUnsignedCharArray([]byte{1, 2, 3, 4})
	assert.False(t, NewNavMesh().InitSolo(bad))
	assert.True(t, bad.Owned(), "a rejected blob stays with the caller")
}

func TestAddTileOwnership(t *testing.T) {
	nav := NewNavMesh()
	require.True(t, nav.InitTiled(&detour.NavMeshParams{TileWidth: 20, TileHeight: 20, MaxTiles: 4, MaxPolys: 16}))

	owned := bind.NewUnsignedCharArray(twoQuads(t, 0))
	res := nav.AddTile(owned, detour.DT_TILE_FREE_DATA, 0)
	require.True(t, res.Status.Succeed())
	assert.NotZero(t, res.TileRef)
	assert.False(t, owned.Owned())

	kept := bind.NewUnsignedCharArray(twoQuads(t, 1))
	res = nav.AddTile(kept, 0, 0)
	require.True(t, res.Status.Succeed())
	assert.True(t, kept.Owned(), "without FREE_DATA the caller keeps the blob")
	assert.EqualValues(t, 2, nav.GetTileCount())

	dup := bind.NewUnsignedCharArray(twoQuads(t, 1))
	assert.True(t, nav.AddTile(dup, detour.DT_TILE_FREE_DATA, 0).Status.Failed())
	assert.True(t, dup.Owned())
	assert.True(t, nav.AddTile(nil, 0, 0).Status.Failed())

	loc := nav.CalcTileLoc(common.Vec3{25, 0, 5})
	assert.Equal(t, bind.CalcTileLocResult{TileX: 1, TileY: 0}, loc)

	removed := nav.RemoveTile(res.TileRef)
	assert.True(t, removed.Status.Succeed())
	assert.Nil(t, nav.GetTileAt(1, 0, 0))
	assert.EqualValues(t, 1, nav.GetTileCount())
}

func TestPolyAttributes(t *testing.T) {
	nav := newSolo(t)
	a, b := polyRefs(nav)

	var flags bind.UnsignedShortRef
	require.True(t, nav.GetPolyFlags(b, &flags).Succeed())
	assert.EqualValues(t, 2, flags.Value)
	require.True(t, nav.SetPolyFlags(a, 5).Succeed())
	require.True(t, nav.GetPolyFlags(a, &flags).Succeed())
	assert.EqualValues(t, 5, flags.Value)

	var area bind.UnsignedCharRef
	require.True(t, nav.SetPolyArea(b, 3).Succeed())
	require.True(t, nav.GetPolyArea(b, &area).Succeed())
	assert.EqualValues(t, 3, area.Value)

	assert.True(t, nav.GetPolyFlags(0, &flags).Failed())
	assert.True(t, nav.SetPolyArea(0, 1).Failed())

	id := nav.DecodePolyId(b)
	assert.EqualValues(t, 1, id.PolyIndex)
	assert.Equal(t, b, nav.EncodePolyId(id.Salt, id.TileIndex, id.PolyIndex))
	assert.True(t, nav.IsValidPolyRef(b))
	assert.False(t, nav.IsValidPolyRef(b+100))

	tp := nav.GetTileAndPolyByRef(b)
	require.True(t, tp.Status.Succeed())
	assert.EqualValues(t, 2, tp.Poly.Flags)
}

func TestGetPolyHeight(t *testing.T) {
	nav := newSolo(t)
	a, _ := polyRefs(nav)

	var h bind.FloatRef
	require.True(t, nav.GetPolyHeight(a, common.Vec3{4, 7, 4}, &h).Succeed())
	assert.InDelta(t, 0, h.Value, 1e-4)
	assert.True(t, nav.GetPolyHeight(a, common.Vec3{15, 0, 4}, &h).Failed())
}

func TestGetDebugNavMesh(t *testing.T) {
	nav := newSolo(t)
	dbg := nav.GetDebugNavMesh()
	assert.Equal(t, 4, dbg.TriangleCount(), "two quads fan into two triangles each")
	for _, v := range dbg.Triangles {
		assert.InDelta(t, 0, v.Pos[1], 1e-4)
	}
}

func TestQueryNearestAndClosest(t *testing.T) {
	nav := newSolo(t)
	a, b := polyRefs(nav)
	q, err := NewNavMeshQuery(nav, 0)
	require.NoError(t, err)

	near := q.FindNearestPoly(common.Vec3{5, 0.5, 5}, nil)
	require.True(t, near.Status.Succeed())
	assert.Equal(t, a, near.NearestRef)
	assert.True(t, near.IsOverPoly)

	closest := q.GetClosestPoint(common.Vec3{15, 0.5, 5}, nil)
	require.True(t, closest.Status.Succeed())
	assert.Equal(t, b, closest.PolyRef)
	assert.InDeltaSlice(t, []float32{15, 0, 5}, closest.ClosestPoint[:], 1e-4)

	far := q.GetClosestPoint(common.Vec3{100, 0, 100}, nil)
	assert.True(t, far.Status.Failed())
	assert.Zero(t, far.PolyRef)

	he := common.Vec3{200, 10, 200}
	far = q.GetClosestPoint(common.Vec3{100, 0, 5}, &QueryOpts{HalfExtents: &he})
	require.True(t, far.Status.Succeed(), "wider extents reach the mesh")
	assert.Equal(t, b, far.PolyRef)

	polys := q.QueryPolygons(common.Vec3{10, 0, 5}, common.Vec3{1, 1, 1}, 8)
	require.True(t, polys.Status.Succeed())
	assert.ElementsMatch(t, []detour.DtPolyRef{a, b}, polys.Path)
}

func TestComputePath(t *testing.T) {
	nav := newSolo(t)
	q, err := NewNavMeshQuery(nav, 0)
	require.NoError(t, err)

	res := q.ComputePath(common.Vec3{2, 0, 5}, common.Vec3{18, 0, 5}, nil)
	require.True(t, res.Success, string(res.Error))
	require.Len(t, res.Path, 2)
	assert.InDeltaSlice(t, []float32{2, 0, 5}, res.Path[0][:], 1e-4)
	assert.InDeltaSlice(t, []float32{18, 0, 5}, res.Path[1][:], 1e-4)

	res = q.ComputePath(common.Vec3{-50, 0, 5}, common.Vec3{18, 0, 5}, nil)
	assert.False(t, res.Success)
	assert.Equal(t, bind.ComputePathNoStartPoly, res.Error)

	res = q.ComputePath(common.Vec3{2, 0, 5}, common.Vec3{50, 0, 5}, nil)
	assert.False(t, res.Success)
	assert.Equal(t, bind.ComputePathNoEndPoly, res.Error)

	// The second quad is filtered out, so its end point cannot be found.
	filter := detour.NewDtQueryFilter()
	filter.SetExcludeFlags(2)
	res = q.ComputePath(common.Vec3{2, 0, 5}, common.Vec3{18, 0, 5}, &QueryOpts{Filter: filter})
	assert.False(t, res.Success)
	assert.Equal(t, bind.ComputePathNoEndPoly, res.Error)
}

func TestFindPathAndStraightPath(t *testing.T) {
	nav := newSolo(t)
	a, b := polyRefs(nav)
	q, err := NewNavMeshQuery(nav, 64)
	require.NoError(t, err)

	start, end := common.Vec3{2, 0, 5}, common.Vec3{18, 0, 5}
	path := q.FindPath(a, b, start, end, 0)
	require.True(t, path.Status.Succeed())
	assert.Equal(t, []detour.DtPolyRef{a, b}, path.Path)

	straight := q.FindStraightPath(start, end, path.Path, 0, detour.DT_STRAIGHTPATH_ALL_CROSSINGS)
	require.True(t, straight.Status.Succeed())
	require.Len(t, straight.Points, 3, "start, portal crossing, end")
	assert.Len(t, straight.Flags, 3)
	assert.Len(t, straight.Refs, 3)
	assert.InDelta(t, 10, straight.Points[1].X(), 1e-4)

	hit := q.Raycast(a, start, end, 0, 0)
	require.True(t, hit.Status.Succeed())
	assert.Equal(t, []detour.DtPolyRef{a, b}, hit.Path)

	moved := q.MoveAlongSurface(a, start, common.Vec3{30, 0, 5})
	require.True(t, moved.Status.Succeed())
	assert.InDelta(t, 20, moved.ResultPosition.X(), 1e-3)

	require.True(t, q.InitSlicedFindPath(a, b, start, end, 0).InProgress())
	sliced := q.UpdateSlicedFindPath(16)
	require.True(t, sliced.Status.Succeed())
	final := q.FinalizeSlicedFindPath(16)
	require.True(t, final.Status.Succeed())
	assert.Equal(t, []detour.DtPolyRef{a, b}, final.Path)
}

func TestRandomPointsAreDeterministic(t *testing.T) {
	nav := newSolo(t)
	a, _ := polyRefs(nav)
	q1, err := NewNavMeshQuery(nav, 0)
	require.NoError(t, err)
	q2, err := NewNavMeshQuery(nav, 0)
	require.NoError(t, err)

	p1 := q1.FindRandomPoint(detour.NewFastRand(42))
	p2 := q2.FindRandomPoint(detour.NewFastRand(42))
	require.True(t, p1.Status.Succeed())
	assert.Equal(t, p1, p2)
	assert.True(t, nav.IsValidPolyRef(p1.RandomPolyRef))

	// The default source is seeded the same way on every query.
	assert.Equal(t, q1.FindRandomPoint(nil), q2.FindRandomPoint(nil))

	around := q1.FindRandomPointAroundCircle(a, common.Vec3{5, 0, 5}, 2, nil)
	require.True(t, around.Status.Succeed())
	assert.Equal(t, a, around.RandomPolyRef, "the circle only touches the first quad")
}

func TestCrowd(t *testing.T) {
	nav := newSolo(t)
	crowd, err := NewCrowd(nav, 2, 0.6)
	require.NoError(t, err)

	params := DefaultCrowdAgentParams()
	params.MaxSpeed = 3.5
	ag, err := crowd.AddAgent(common.Vec3{2, 0, 5}, params)
	require.NoError(t, err)
	assert.True(t, ag.Active())
	assert.Equal(t, params.MaxSpeed, ag.Parameters().MaxSpeed)

	require.True(t, ag.Goto(common.Vec3{18, 0, 5}))
	assert.Equal(t, 10, crowd.FixedStep(0.5, 10), "steps are capped")
	assert.Zero(t, crowd.FixedStep(0.001, 10), "less than one step is carried over")
	assert.Greater(t, ag.Position().X(), float32(2))
	assert.InDelta(t, 18, ag.NextTargetInPath().X(), 1e-3)

	other, err := crowd.AddAgent(common.Vec3{15, 0, 5}, params)
	require.NoError(t, err)
	_, err = crowd.AddAgent(common.Vec3{5, 0, 2}, params)
	assert.ErrorIs(t, err, ErrCrowdFull)
	assert.Len(t, crowd.GetAgents(), 2)

	require.True(t, other.Teleport(common.Vec3{16, 0, 2}))
	pos := other.Position()
	assert.InDeltaSlice(t, []float32{16, 0, 2}, pos[:], 1e-4)
	require.True(t, other.RequestMoveVelocity(common.Vec3{1, 0, 0}))
	require.True(t, other.ResetMoveTarget())

	crowd.RemoveAgent(other)
	assert.Nil(t, crowd.GetAgent(other.Index))
	assert.Len(t, crowd.GetAgents(), 1)
}

func TestCrowdStaleHandles(t *testing.T) {
	nav := newSolo(t)
	crowd, err := NewCrowd(nav, 2, 0.6)
	require.NoError(t, err)
	ag, err := crowd.AddAgent(common.Vec3{2, 0, 5}, DefaultCrowdAgentParams())
	require.NoError(t, err)

	assert.NotPanics(t, func() { crowd.RemoveAgent(nil) })
	other, err := NewCrowd(nav, 2, 0.6)
	require.NoError(t, err)
	other.RemoveAgent(ag)
	assert.True(t, ag.Active(), "another crowd cannot remove the agent")

	for _, idx := range []int{-1, 2, 100} {
		bad := &CrowdAgent{crowd: crowd, Index: idx}
		assert.NotPanics(t, func() {
			assert.False(t, bad.Active())
			assert.Equal(t, common.Vec3{}, bad.Position())
			assert.Equal(t, common.Vec3{}, bad.Velocity())
			assert.Equal(t, common.Vec3{}, bad.NextTargetInPath())
			assert.Empty(t, bad.Corners())
			assert.False(t, bad.Goto(common.Vec3{5, 0, 5}))
			assert.False(t, bad.Teleport(common.Vec3{5, 0, 5}))
			bad.UpdateParameters(DefaultCrowdAgentParams())
			crowd.RemoveAgent(bad)
		}, "index %d", idx)
	}
	assert.Len(t, crowd.GetAgents(), 1)
}

const layerSize = 8

func flatTileCacheLayer(t *testing.T, tx, ty int32) []byte {
	t.Helper()
	header := &dtc.DtTileCacheLayerHeader{
		Magic:   dtc.DT_TILECACHE_MAGIC,
		Version: dtc.DT_TILECACHE_VERSION,
		Tx:      tx,
		Ty:      ty,
		Bmin:    [3]float32{float32(tx * layerSize), 0, float32(ty * layerSize)},
		Bmax:    [3]float32{float32((tx + 1) * layerSize), 2, float32((ty + 1) * layerSize)},
		Width:   layerSize,
		Height:  layerSize,
		Maxx:    layerSize - 1,
		Maxy:    layerSize - 1,
	}
	n := layerSize * layerSize
	heights := make([]uint16, n)
	areas := make([]uint8, n)
	cons := make([]uint8, n)
	for z := int32(0); z < layerSize; z++ {
		for x := int32(0); x < layerSize; x++ {
			idx := x + z*layerSize
			areas[idx] = dtc.DT_TILECACHE_WALKABLE_AREA
			for dir := int32(0); dir < 4; dir++ {
				nx, nz := x+common.GetDirOffsetX(dir), z+common.GetDirOffsetY(dir)
				if nx >= 0 && nz >= 0 && nx < layerSize && nz < layerSize {
					cons[idx] |= 1 << dir
				}
			}
		}
	}
	data, status := dtc.DtBuildTileCacheLayer(dtc.S2Compressor{}, header, heights, areas, cons)
	require.True(t, status.Succeed())
	return data
}

func newTileCache(t *testing.T, maxObstacles int32) (*TileCache, *NavMesh) {
	t.Helper()
	tc := NewTileCache()
	processed := 0
	require.True(t, tc.Init(&dtc.DtTileCacheParams{
		Cs:                     1,
		Ch:                     1,
		Width:                  layerSize,
		Height:                 layerSize,
		WalkableHeight:         2,
		WalkableRadius:         0.5,
		WalkableClimb:          0.9,
		MaxSimplificationError: 1.3,
		MaxTiles:               16,
		MaxObstacles:           maxObstacles,
	}, func(params *detour.DtNavMeshCreateParams, polyAreas []uint8, polyFlags []uint16) {
		processed++
		for i := range polyFlags {
			polyFlags[i] = 1
		}
	}))
	nav := NewNavMesh()
	require.True(t, nav.InitTiled(&detour.NavMeshParams{
		TileWidth: layerSize, TileHeight: layerSize, MaxTiles: 16, MaxPolys: 256,
	}))

	data := bind.NewUnsignedCharArray(flatTileCacheLayer(t, 0, 0))
	res := tc.AddTile(data, dtc.DT_COMPRESSEDTILE_FREE_DATA)
	require.True(t, res.Status.Succeed())
	assert.False(t, data.Owned())
	require.True(t, tc.BuildNavMeshTilesAt(0, 0, nav).Succeed())
	assert.Equal(t, 1, processed)
	return tc, nav
}

func TestTileCacheObstacles(t *testing.T) {
	tc, nav := newTileCache(t, 2)
	assert.EqualValues(t, 1, tc.GetTileCount())
	assert.EqualValues(t, 1, nav.GetTileCount())
	assert.Len(t, tc.GetTilesAt(0, 0, 4), 1)

	cyl := tc.AddCylinderObstacle(common.Vec3{4, 0, 4}, 1, 2)
	require.True(t, cyl.Status.Succeed())
	box := tc.AddBoxObstacle(common.Vec3{1, 0, 1}, common.Vec3{2, 2, 2})
	require.True(t, box.Status.Succeed())

	// The pool holds two obstacles; a failed add is not tracked.
	full := tc.AddOrientedBoxObstacle(common.Vec3{6, 0, 6}, common.Vec3{1, 1, 1}, 0.5)
	assert.True(t, full.Status.Failed())
	require.Len(t, tc.GetObstacles(), 2)
	assert.Equal(t, cyl.Ref, tc.GetObstacles()[0].Ref)
	assert.Equal(t, dtc.DT_OBSTACLE_BOX, tc.GetObstacles()[1].Type)
	assert.NotNil(t, tc.GetObstacleByRef(cyl.Ref))

	upToDate := false
	for i := 0; i < 8 && !upToDate; i++ {
		res := tc.Update(nav)
		require.True(t, res.Status.Succeed())
		upToDate = res.UpToDate
	}
	require.True(t, upToDate)

	first := tc.GetObstacles()[0]
	require.True(t, tc.RemoveObstacle(first).Succeed())
	require.True(t, tc.RemoveObstacle(first).Succeed(), "a second removal is a no-op")
	require.True(t, tc.RemoveObstacle(nil).Succeed())
	require.Len(t, tc.GetObstacles(), 1)
	assert.Equal(t, box.Ref, tc.GetObstacles()[0].Ref)
}

func TestTileCacheRemoveTile(t *testing.T) {
	tc, _ := newTileCache(t, 1)
	refs := tc.GetTilesAt(0, 0, 4)
	require.Len(t, refs, 1)
	tile := tc.GetTileByRef(refs[0])
	require.NotNil(t, tile)
	assert.Equal(t, refs[0], tc.GetTileRef(tile))
	assert.Same(t, tile, tc.GetTileAt(0, 0, 0))

	res := tc.RemoveTile(refs[0])
	require.True(t, res.Status.Succeed())
	assert.Zero(t, tc.GetTileCount())
	assert.True(t, tc.RemoveTile(refs[0]).Status.Failed())
}
