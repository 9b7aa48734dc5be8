package detour_tile_cache

import (
	"math"
	"testing"

	"github.com/gorustyt/navbind/common"
	"github.com/gorustyt/navbind/detour"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const layerSize = 8

// flatLayer is a fully walkable layer of layerSize x layerSize cells at height 0.
func flatLayer(tx, ty int32) (*DtTileCacheLayerHeader, []uint16, []uint8, []uint8) {
	n := layerSize * layerSize
	header := &DtTileCacheLayerHeader{
		Magic:   DT_TILECACHE_MAGIC,
		Version: DT_TILECACHE_VERSION,
		Tx:      tx,
		Ty:      ty,
		Bmin:    [3]float32{float32(tx * layerSize), 0, float32(ty * layerSize)},
		Bmax:    [3]float32{float32((tx + 1) * layerSize), 2, float32((ty + 1) * layerSize)},
		Width:   layerSize,
		Height:  layerSize,
		Maxx:    layerSize - 1,
		Maxy:    layerSize - 1,
	}
	heights := make([]uint16, n)
	areas := make([]uint8, n)
	cons := make([]uint8, n)
	for z := int32(0); z < layerSize; z++ {
		for x := int32(0); x < layerSize; x++ {
			idx := x + z*layerSize
			areas[idx] = DT_TILECACHE_WALKABLE_AREA
			for dir := int32(0); dir < 4; dir++ {
				nx := x + common.GetDirOffsetX(dir)
				nz := z + common.GetDirOffsetY(dir)
				if nx >= 0 && nz >= 0 && nx < layerSize && nz < layerSize {
					cons[idx] |= 1 << dir
				}
			}
		}
	}
	return header, heights, areas, cons
}

func compressedLayer(t *testing.T, tx, ty int32) []byte {
	t.Helper()
	header, heights, areas, cons := flatLayer(tx, ty)
	data, status := DtBuildTileCacheLayer(S2Compressor{}, header, heights, areas, cons)
	require.True(t, status.Succeed(), status.String())
	return data
}

var walkableFlags = MeshProcessFunc(func(params *detour.DtNavMeshCreateParams, polyAreas []uint8, polyFlags []uint16) {
	for i := range polyFlags {
		polyFlags[i] = 1
	}
})

func newTestCache(t *testing.T, maxObstacles int32, alloc DtTileCacheAlloc) (*DtTileCache, *detour.DtNavMesh) {
	t.Helper()
	tc := NewDtTileCache()
	status := tc.Init(&DtTileCacheParams{
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
	}, alloc, S2Compressor{}, walkableFlags)
	require.True(t, status.Succeed())

	nav := detour.NewDtNavMesh()
	require.True(t, nav.Init(&detour.NavMeshParams{
		TileWidth:  layerSize,
		TileHeight: layerSize,
		MaxTiles:   16,
		MaxPolys:   1 << 10,
	}).Succeed())
	return tc, nav
}

func overPoly(t *testing.T, nav *detour.DtNavMesh, pos []float32) (detour.DtPolyRef, bool) {
	t.Helper()
	q, status := detour.NewDtNavMeshQuery(nav, 512)
	require.True(t, status.Succeed())
	ref, _, over, status := q.FindNearestPoly(pos, []float32{0.2, 1, 0.2}, detour.NewDtQueryFilter())
	require.True(t, status.Succeed())
	return ref, over
}

func updateUntilDone(t *testing.T, tc *DtTileCache, nav *detour.DtNavMesh) {
	t.Helper()
	for i := 0; i < 100; i++ {
		upToDate, status := tc.Update(nav)
		require.True(t, status.Succeed(), status.String())
		if upToDate {
			return
		}
	}
	t.Fatal("tile cache never became up to date")
}

func TestLayerRoundTrip(t *testing.T) {
	header, heights, areas, cons := flatLayer(2, 3)
	heights[5] = DT_TILECACHE_EMPTY_HEIGHT
	areas[7] = DT_TILECACHE_NULL_AREA
	data, status := DtBuildTileCacheLayer(S2Compressor{}, header, heights, areas, cons)
	require.True(t, status.Succeed())

	decoded, status := DecodeTileCacheLayerHeader(data)
	require.True(t, status.Succeed())
	assert.Equal(t, *header, *decoded)

	alloc := NewLinearAllocator(32000)
	layer, status := DtDecompressTileCacheLayer(alloc, S2Compressor{}, data)
	require.True(t, status.Succeed())
	assert.Equal(t, heights, layer.Heights)
	assert.Equal(t, areas, layer.Areas)
	assert.Equal(t, cons, layer.Cons)
	assert.Equal(t, layerSize*layerSize*4, alloc.High())

	tiny := NewLinearAllocator(16)
	_, status = DtDecompressTileCacheLayer(tiny, S2Compressor{}, data)
	assert.True(t, status.Detail(detour.DT_OUT_OF_MEMORY))

	bad := append([]byte(nil), data...)
	bad[0] ^= 0xff
	_, status = DecodeTileCacheLayerHeader(bad)
	assert.True(t, status.Detail(detour.DT_WRONG_MAGIC))

	_, status = DecodeTileCacheLayerHeader(data[:10])
	assert.True(t, status.Detail(detour.DT_INVALID_PARAM))
}

func TestLinearAllocator(t *testing.T) {
	a := NewLinearAllocator(10)
	require.Len(t, a.Alloc(6), 6)
	assert.Nil(t, a.Alloc(6), "request past capacity fails")
	require.Len(t, a.Alloc(4), 4)
	a.Reset()
	assert.Equal(t, 10, a.High())
	assert.Len(t, a.Alloc(10), 10)
}

func TestMarkAreas(t *testing.T) {
	countNull := func(layer *DtTileCacheLayer) int {
		n := 0
		for _, a := range layer.Areas {
			if a == DT_TILECACHE_NULL_AREA {
				n++
			}
		}
		return n
	}
	newLayer := func() *DtTileCacheLayer {
		header, heights, areas, cons := flatLayer(0, 0)
		return &DtTileCacheLayer{Header: header, Heights: heights, Areas: areas, Cons: cons}
	}
	orig := []float32{0, 0, 0}

	layer := newLayer()
	DtMarkCylinderArea(layer, orig, 1, 1, []float32{4, -1, 4}, 1, 3, DT_TILECACHE_NULL_AREA)
	assert.Equal(t, 4, countNull(layer))

	layer = newLayer()
	DtMarkBoxArea(layer, orig, 1, 1, []float32{2, -1, 2}, []float32{3.9, 1, 3.9}, DT_TILECACHE_NULL_AREA)
	assert.Equal(t, 4, countNull(layer))

	layer = newLayer()
	DtMarkBoxArea(layer, orig, 1, 1, []float32{2, 5, 2}, []float32{3.9, 6, 3.9}, DT_TILECACHE_NULL_AREA)
	assert.Equal(t, 0, countNull(layer), "box above the floor marks nothing")

	layer = newLayer()
	DtMarkBoxArea(layer, orig, 1, 1, []float32{20, -1, 20}, []float32{30, 1, 30}, DT_TILECACHE_NULL_AREA)
	assert.Equal(t, 0, countNull(layer), "box outside the layer marks nothing")

	layer = newLayer()
	DtMarkOrientedBoxArea(layer, orig, 1, 1, []float32{4, 0, 4}, []float32{1, 1, 1}, [2]float32{0, 0.5}, DT_TILECACHE_NULL_AREA)
	assert.Equal(t, 16, countNull(layer))

	// Rotated by 0.5 rad the box covers a staircase of 8 cells.
	layer = newLayer()
	coshalf := math.Cos(0.25)
	rotAux := [2]float32{float32(coshalf * math.Sin(-0.25)), float32(coshalf*coshalf) - 0.5}
	DtMarkOrientedBoxArea(layer, orig, 1, 1, []float32{6, 0, 6}, []float32{1, 1, 1}, rotAux, DT_TILECACHE_NULL_AREA)
	assert.Equal(t, 8, countNull(layer))
	assert.EqualValues(t, DT_TILECACHE_NULL_AREA, layer.Areas[5+5*layerSize])
	assert.EqualValues(t, DT_TILECACHE_WALKABLE_AREA, layer.Areas[7+7*layerSize])
}

func TestAddRemoveTile(t *testing.T) {
	tc, _ := newTestCache(t, 4, NewLinearAllocator(32000))
	data := compressedLayer(t, 0, 0)

	ref, status := tc.AddTile(data, 0)
	require.True(t, status.Succeed())
	require.NotZero(t, ref)
	assert.EqualValues(t, 1, tc.GetTileCount())
	assert.Equal(t, tc.GetTileAt(0, 0, 0), tc.GetTileByRef(ref))
	assert.Equal(t, []DtCompressedTileRef{ref}, tc.GetTilesAt(0, 0, 8))

	_, status = tc.AddTile(data, 0)
	assert.True(t, status.Detail(detour.DT_ALREADY_OCCUPIED))

	bad := append([]byte(nil), compressedLayer(t, 1, 0)...)
	bad[4] = 9
	_, status = tc.AddTile(bad, 0)
	assert.True(t, status.Detail(detour.DT_WRONG_VERSION))
	assert.EqualValues(t, 1, tc.GetTileCount(), "failed adds leave the registry unchanged")

	out, status := tc.RemoveTile(ref)
	require.True(t, status.Succeed())
	assert.Equal(t, data, out, "caller owned data is handed back")
	assert.Nil(t, tc.GetTileByRef(ref), "stale ref after removal")
	_, status = tc.RemoveTile(ref)
	assert.True(t, status.Failed())

	ref, status = tc.AddTile(data, DT_COMPRESSEDTILE_FREE_DATA)
	require.True(t, status.Succeed())
	out, status = tc.RemoveTile(ref)
	require.True(t, status.Succeed())
	assert.Nil(t, out, "cache owned data is released")
}

func TestAddTileOutOfSlots(t *testing.T) {
	tc := NewDtTileCache()
	require.True(t, tc.Init(&DtTileCacheParams{Cs: 1, Ch: 1, Width: layerSize, Height: layerSize, MaxTiles: 1},
		NewLinearAllocator(32000), S2Compressor{}, nil).Succeed())
	_, status := tc.AddTile(compressedLayer(t, 0, 0), 0)
	require.True(t, status.Succeed())
	_, status = tc.AddTile(compressedLayer(t, 1, 0), 0)
	assert.True(t, status.Detail(detour.DT_OUT_OF_MEMORY))
}

func TestInitRejectsBadParams(t *testing.T) {
	tc := NewDtTileCache()
	status := tc.Init(&DtTileCacheParams{Cs: 1, Ch: 1, Width: 8, Height: 8, MaxTiles: 0}, NewLinearAllocator(10), S2Compressor{}, nil)
	assert.True(t, status.Detail(detour.DT_INVALID_PARAM))
	status = tc.Init(&DtTileCacheParams{Cs: 1, Ch: 1, Width: 8, Height: 8, MaxTiles: 4}, nil, S2Compressor{}, nil)
	assert.True(t, status.Detail(detour.DT_INVALID_PARAM))
}

func TestBuildNavMeshTiles(t *testing.T) {
	tc, nav := newTestCache(t, 4, NewLinearAllocator(32000))
	for tx := int32(0); tx < 2; tx++ {
		_, status := tc.AddTile(compressedLayer(t, tx, 0), DT_COMPRESSEDTILE_FREE_DATA)
		require.True(t, status.Succeed())
		require.True(t, tc.BuildNavMeshTilesAt(tx, 0, nav).Succeed())
	}
	assert.EqualValues(t, 2, nav.GetTileCount())

	start, over := overPoly(t, nav, []float32{2, 0, 4})
	require.True(t, over)
	end, over := overPoly(t, nav, []float32{14, 0, 4})
	require.True(t, over)

	q, status := detour.NewDtNavMeshQuery(nav, 512)
	require.True(t, status.Succeed())
	path, status := q.FindPath(start, end, []float32{2, 0, 4}, []float32{14, 0, 4}, detour.NewDtQueryFilter(), 32)
	require.True(t, status.Succeed())
	assert.False(t, status.Detail(detour.DT_PARTIAL_RESULT), "tiles are linked through their portal edges")
	assert.Equal(t, end, path[len(path)-1])

	assert.True(t, tc.BuildNavMeshTile(0, nav).Failed())
}

func TestBuildNavMeshTileOutOfScratch(t *testing.T) {
	tc, nav := newTestCache(t, 4, NewLinearAllocator(64))
	ref, status := tc.AddTile(compressedLayer(t, 0, 0), 0)
	require.True(t, status.Succeed())
	status = tc.BuildNavMeshTile(ref, nav)
	assert.True(t, status.Detail(detour.DT_OUT_OF_MEMORY))
	assert.EqualValues(t, 0, nav.GetTileCount())
}

func TestObstacleLifecycle(t *testing.T) {
	tc, nav := newTestCache(t, 4, NewLinearAllocator(32000))
	_, status := tc.AddTile(compressedLayer(t, 0, 0), DT_COMPRESSEDTILE_FREE_DATA)
	require.True(t, status.Succeed())
	require.True(t, tc.BuildNavMeshTilesAt(0, 0, nav).Succeed())

	center := []float32{4, 0, 4}
	_, over := overPoly(t, nav, center)
	require.True(t, over)

	ref, status := tc.AddObstacle([]float32{4, -1, 4}, 2, 3)
	require.True(t, status.Succeed())
	ob := tc.GetObstacleByRef(ref)
	require.NotNil(t, ob)
	assert.Equal(t, DT_OBSTACLE_PROCESSING, ob.State)
	assert.Len(t, tc.GetObstacles(), 1)

	updateUntilDone(t, tc, nav)
	assert.Equal(t, DT_OBSTACLE_PROCESSED, ob.State)
	assert.Len(t, ob.Touched(), 1)
	_, over = overPoly(t, nav, center)
	assert.False(t, over, "the obstacle carves a hole")
	for _, p := range [][]float32{{7.5, 0, 7.5}, {1, 0, 4}} {
		_, over = overPoly(t, nav, p)
		assert.True(t, over, "cells away from the obstacle stay walkable at %v", p)
	}

	require.True(t, tc.RemoveObstacle(ref).Succeed())
	require.True(t, tc.RemoveObstacle(ref).Succeed(), "queued twice is a no-op")
	updateUntilDone(t, tc, nav)
	assert.Equal(t, DT_OBSTACLE_EMPTY, ob.State)
	assert.Nil(t, tc.GetObstacleByRef(ref), "salt is bumped on free")
	assert.Empty(t, tc.GetObstacles())
	_, over = overPoly(t, nav, center)
	assert.True(t, over)

	assert.True(t, tc.RemoveObstacle(ref).Succeed(), "stale ref")
	assert.True(t, tc.RemoveObstacle(0).Succeed(), "zero ref")
	upToDate, status := tc.Update(nav)
	assert.True(t, upToDate)
	assert.True(t, status.Succeed())
}

func TestUpdateRebuildsOneTilePerCall(t *testing.T) {
	tc, nav := newTestCache(t, 4, NewLinearAllocator(64000))
	for ty := int32(0); ty < 2; ty++ {
		for tx := int32(0); tx < 2; tx++ {
			_, status := tc.AddTile(compressedLayer(t, tx, ty), DT_COMPRESSEDTILE_FREE_DATA)
			require.True(t, status.Succeed())
			require.True(t, tc.BuildNavMeshTilesAt(tx, ty, nav).Succeed())
		}
	}

	ref, status := tc.AddObstacle([]float32{8, -1, 8}, 2, 3)
	require.True(t, status.Succeed())
	ob := tc.GetObstacleByRef(ref)
	require.NotNil(t, ob)

	for i := 0; i < 3; i++ {
		upToDate, status := tc.Update(nav)
		require.True(t, status.Succeed())
		assert.False(t, upToDate, "call %d", i+1)
		assert.Equal(t, DT_OBSTACLE_PROCESSING, ob.State)
		assert.Len(t, ob.pending, 3-i, "one touched tile is rebuilt per call")
	}
	upToDate, status := tc.Update(nav)
	require.True(t, status.Succeed())
	assert.True(t, upToDate)
	assert.Equal(t, DT_OBSTACLE_PROCESSED, ob.State)
	assert.Len(t, ob.Touched(), 4)
}

func TestObstacleShapesAndCapacity(t *testing.T) {
	tc, nav := newTestCache(t, 2, NewLinearAllocator(32000))
	_, status := tc.AddTile(compressedLayer(t, 0, 0), DT_COMPRESSEDTILE_FREE_DATA)
	require.True(t, status.Succeed())
	require.True(t, tc.BuildNavMeshTilesAt(0, 0, nav).Succeed())

	box, status := tc.AddBoxObstacle([]float32{1, -1, 1}, []float32{3, 1, 3})
	require.True(t, status.Succeed())
	obb, status := tc.AddOrientedBoxObstacle([]float32{6, 0, 6}, []float32{1, 1, 1}, 0)
	require.True(t, status.Succeed())
	assert.NotEqual(t, box, obb)

	_, status = tc.AddObstacle([]float32{4, 0, 4}, 1, 1)
	assert.True(t, status.Detail(detour.DT_OUT_OF_MEMORY), "no free obstacle slot")

	bmin, bmax := tc.GetObstacleBounds(tc.GetObstacleByRef(box))
	assert.Equal(t, [3]float32{1, -1, 1}, bmin)
	assert.Equal(t, [3]float32{3, 1, 3}, bmax)

	updateUntilDone(t, tc, nav)
	_, over := overPoly(t, nav, []float32{2, 0, 2})
	assert.False(t, over)
	_, over = overPoly(t, nav, []float32{6, 0, 6})
	assert.False(t, over)
	_, over = overPoly(t, nav, []float32{6, 0, 1.5})
	assert.True(t, over)
}
