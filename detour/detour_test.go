package detour

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const nul = MESH_NULL_IDX

// twoQuadParams describes two 10x10 quads side by side along x, sharing the edge at x=10.
func twoQuadParams() *DtNavMeshCreateParams {
	return &DtNavMeshCreateParams{
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
		PolyFlags:      []uint16{1, 1},
		PolyAreas:      []uint8{0, 0},
		PolyCount:      2,
		Nvp:            6,
		Bmin:           [3]float32{0, 0, 0},
		Bmax:           [3]float32{20, 2, 10},
		WalkableHeight: 2,
		WalkableRadius: 0.5,
		WalkableClimb:  0.9,
		Cs:             1,
		Ch:             1,
		BuildBvTree:    true,
	}
}

func buildTwoQuads(t *testing.T) (*DtNavMesh, *DtNavMeshQuery) {
	t.Helper()
	data, ok := DtCreateNavMeshData(twoQuadParams())
	require.True(t, ok)
	nav := NewDtNavMesh()
	require.True(t, nav.InitSingle(data, DT_TILE_FREE_DATA).Succeed())
	q, status := NewDtNavMeshQuery(nav, 256)
	require.True(t, status.Succeed())
	return nav, q
}

func polyRefs(nav *DtNavMesh) (a, b DtPolyRef) {
	base := nav.GetPolyRefBase(nav.GetTileAt(0, 0, 0))
	return base, base | 1
}

func TestStatus(t *testing.T) {
	s := DT_FAILURE | DT_WRONG_MAGIC
	assert.True(t, s.Failed())
	assert.False(t, s.Succeed())
	assert.True(t, s.Detail(DT_WRONG_MAGIC))
	assert.False(t, s.Detail(DT_WRONG_VERSION))
	assert.Equal(t, "failure (wrong magic)", s.String())
	assert.Equal(t, "success (buffer too small, partial result)", (DT_SUCCESS | DT_BUFFER_TOO_SMALL | DT_PARTIAL_RESULT).String())
	assert.NoError(t, DT_SUCCESS.Err())

	err := (DT_FAILURE | DT_INVALID_PARAM).Err()
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, DT_FAILURE|DT_INVALID_PARAM, se.Status)
}

func TestTileDataRoundTrip(t *testing.T) {
	data, ok := DtCreateNavMeshData(twoQuadParams())
	require.True(t, ok)

	header, status := DecodeMeshHeader(data)
	require.True(t, status.Succeed())
	assert.EqualValues(t, DT_NAVMESH_MAGIC, header.Magic)
	assert.EqualValues(t, DT_NAVMESH_VERSION, header.Version)
	assert.EqualValues(t, 2, header.PolyCount)
	assert.EqualValues(t, 6, header.VertCount)
	assert.EqualValues(t, 8, header.MaxLinkCount, "eight edges, no portals")
	assert.EqualValues(t, 4, header.DetailTriCount)
	assert.EqualValues(t, 0, header.DetailVertCount)
	assert.Greater(t, header.BvNodeCount, int32(0))

	tile, status := decodeTileData(data)
	require.True(t, status.Succeed())
	assert.Equal(t, []uint16{0, 0, 2, 0}, tile.Polys[0].Neis[:4], "internal edge stores neighbour index plus one")
	assert.Equal(t, []uint16{0, 0, 0, 0}, tile.Polys[1].Neis[1:5])
	assert.EqualValues(t, 1, tile.Polys[1].Neis[0])
	assert.EqualValues(t, 4, tile.Polys[0].VertCount)
	assert.Equal(t, []float32{20, 0, 0}, tile.Verts[15:18])

	bad := append([]byte(nil), data...)
	bad[0] ^= 0xff
	_, status = DecodeMeshHeader(bad)
	assert.True(t, status.Failed())
	assert.True(t, status.Detail(DT_WRONG_MAGIC))

	_, status = DecodeMeshHeader(data[:8])
	assert.True(t, status.Failed())
}

func TestCreateNavMeshDataRejectsBadInput(t *testing.T) {
	p := twoQuadParams()
	p.Nvp = 7
	_, ok := DtCreateNavMeshData(p)
	assert.False(t, ok)

	p = twoQuadParams()
	p.PolyCount = 0
	_, ok = DtCreateNavMeshData(p)
	assert.False(t, ok)
}

func TestPolyRefEncoding(t *testing.T) {
	nav, _ := buildTwoQuads(t)
	a, b := polyRefs(nav)
	assert.True(t, nav.IsValidPolyRef(a))
	assert.True(t, nav.IsValidPolyRef(b))
	assert.False(t, nav.IsValidPolyRef(nav.EncodePolyId(7, 0, 0)), "salt mismatch")
	assert.False(t, nav.IsValidPolyRef(0))

	salt, it, ip := nav.DecodePolyId(b)
	assert.EqualValues(t, 1, salt)
	assert.EqualValues(t, 0, it)
	assert.EqualValues(t, 1, ip)
	assert.Equal(t, b, nav.EncodePolyId(salt, it, ip))

	tile, poly, status := nav.GetTileAndPolyByRef(b)
	require.True(t, status.Succeed())
	assert.Same(t, &tile.Polys[1], poly)
	assert.Equal(t, tile, nav.GetTileByRef(nav.GetTileRef(tile)))
	assert.EqualValues(t, 1, nav.GetTileCount())
}

func TestRemoveTileBumpsSalt(t *testing.T) {
	data, ok := DtCreateNavMeshData(twoQuadParams())
	require.True(t, ok)
	nav := NewDtNavMesh()
	require.True(t, nav.InitSingle(data, 0).Succeed())

	a, _ := polyRefs(nav)
	tileRef := nav.GetTileRefAt(0, 0, 0)
	require.NotZero(t, tileRef)

	_, status := nav.AddTile(data, 0, 0)
	assert.True(t, status.Detail(DT_ALREADY_OCCUPIED))

	removed, status := nav.RemoveTile(tileRef)
	require.True(t, status.Succeed())
	assert.Equal(t, data, removed, "data without FREE_DATA is handed back")
	assert.False(t, nav.IsValidPolyRef(a), "stale refs are rejected after removal")
	assert.Nil(t, nav.GetTileAt(0, 0, 0))

	_, status = nav.RemoveTile(tileRef)
	assert.True(t, status.Failed())

	newRef, status := nav.AddTile(removed, DT_TILE_FREE_DATA, 0)
	require.True(t, status.Succeed())
	assert.NotEqual(t, tileRef, newRef)
	assert.EqualValues(t, 2, nav.DecodePolyIdSalt(DtPolyRef(newRef)))
}

func TestFindNearestPoly(t *testing.T) {
	nav, q := buildTwoQuads(t)
	a, b := polyRefs(nav)
	filter := NewDtQueryFilter()
	ext := []float32{2, 4, 2}

	ref, pt, over, status := q.FindNearestPoly([]float32{5, 1, 5}, ext, filter)
	require.True(t, status.Succeed())
	assert.Equal(t, a, ref)
	assert.True(t, over)
	assert.InDeltaSlice(t, []float32{5, 0, 5}, pt[:], 1e-4)

	ref, _, _, status = q.FindNearestPoly([]float32{15, 0, 5}, ext, filter)
	require.True(t, status.Succeed())
	assert.Equal(t, b, ref)

	ref, _, _, status = q.FindNearestPoly([]float32{50, 0, 50}, ext, filter)
	assert.True(t, status.Succeed())
	assert.Zero(t, ref, "nothing in range")

	_, _, _, status = q.FindNearestPoly([]float32{5, 0, 5}, []float32{-1, 1, 1}, filter)
	assert.True(t, status.Detail(DT_INVALID_PARAM))
}

func TestQueryPolygons(t *testing.T) {
	nav, q := buildTwoQuads(t)
	a, b := polyRefs(nav)
	filter := NewDtQueryFilter()

	polys, status := q.QueryPolygons([]float32{10, 0, 5}, []float32{1, 1, 1}, filter, 8)
	require.True(t, status.Succeed())
	assert.ElementsMatch(t, []DtPolyRef{a, b}, polys)

	polys, status = q.QueryPolygons([]float32{10, 0, 5}, []float32{1, 1, 1}, filter, 1)
	assert.True(t, status.Detail(DT_BUFFER_TOO_SMALL))
	assert.Len(t, polys, 1)

	filter.SetExcludeFlags(1)
	polys, status = q.QueryPolygons([]float32{10, 0, 5}, []float32{1, 1, 1}, filter, 8)
	require.True(t, status.Succeed())
	assert.Empty(t, polys)
}

func TestFindPathAndStraightPath(t *testing.T) {
	nav, q := buildTwoQuads(t)
	a, b := polyRefs(nav)
	filter := NewDtQueryFilter()
	start := []float32{2, 0, 5}
	end := []float32{18, 0, 5}

	path, status := q.FindPath(a, b, start, end, filter, 16)
	require.True(t, status.Succeed())
	assert.False(t, status.Detail(DT_PARTIAL_RESULT))
	assert.Equal(t, []DtPolyRef{a, b}, path)

	pts, flags, refs, status := q.FindStraightPath(start, end, path, 8, 0)
	require.True(t, status.Succeed())
	want := []float32{2, 0, 5, 18, 0, 5}
	if diff := cmp.Diff(want, pts, cmpopts.EquateApprox(0, 1e-4)); diff != "" {
		t.Errorf("straight path mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []uint8{DT_STRAIGHTPATH_START, DT_STRAIGHTPATH_END}, flags)
	assert.Equal(t, []DtPolyRef{a, 0}, refs)

	pts, _, _, status = q.FindStraightPath(start, end, path, 8, DT_STRAIGHTPATH_ALL_CROSSINGS)
	require.True(t, status.Succeed())
	require.Len(t, pts, 9, "portal crossing adds a vertex")
	assert.InDelta(t, 10, pts[3], 1e-4)

	_, _, _, status = q.FindStraightPath(start, end, path, 1, 0)
	assert.True(t, status.Detail(DT_BUFFER_TOO_SMALL))

	path, status = q.FindPath(a, a, start, start, filter, 16)
	require.True(t, status.Succeed())
	assert.Equal(t, []DtPolyRef{a}, path)

	path, status = q.FindPath(a, b, start, end, filter, 1)
	assert.True(t, status.Detail(DT_BUFFER_TOO_SMALL))
	assert.Equal(t, []DtPolyRef{a}, path)
}

func TestFindPathPartialWhenBlocked(t *testing.T) {
	nav, q := buildTwoQuads(t)
	a, b := polyRefs(nav)
	require.True(t, nav.SetPolyFlags(b, 2).Succeed())
	flags, status := nav.GetPolyFlags(b)
	require.True(t, status.Succeed())
	assert.EqualValues(t, 2, flags)

	filter := NewDtQueryFilter()
	filter.SetIncludeFlags(1)
	path, status := q.FindPath(a, b, []float32{2, 0, 5}, []float32{18, 0, 5}, filter, 16)
	require.True(t, status.Succeed())
	assert.True(t, status.Detail(DT_PARTIAL_RESULT))
	assert.Equal(t, []DtPolyRef{a}, path)
}

func TestSlicedFindPath(t *testing.T) {
	nav, q := buildTwoQuads(t)
	a, b := polyRefs(nav)
	filter := NewDtQueryFilter()

	status := q.InitSlicedFindPath(a, b, []float32{2, 0, 5}, []float32{18, 0, 5}, filter, 0)
	require.True(t, status.InProgress())
	for status.InProgress() {
		_, status = q.UpdateSlicedFindPath(1)
	}
	require.True(t, status.Succeed())
	path, status := q.FinalizeSlicedFindPath(16)
	require.True(t, status.Succeed())
	assert.Equal(t, []DtPolyRef{a, b}, path)

	status = q.InitSlicedFindPath(a, b, []float32{2, 0, 5}, []float32{18, 0, 5}, filter, 0)
	require.True(t, status.InProgress())
	path, status = q.FinalizeSlicedFindPathPartial([]DtPolyRef{a, b}, 16)
	require.True(t, status.Succeed())
	assert.Equal(t, []DtPolyRef{a}, path, "only the start node was visited")

	_, status = q.FinalizeSlicedFindPathPartial(nil, 16)
	assert.True(t, status.Detail(DT_INVALID_PARAM))
}

func TestRaycast(t *testing.T) {
	nav, q := buildTwoQuads(t)
	a, b := polyRefs(nav)
	filter := NewDtQueryFilter()

	hit, status := q.Raycast(a, []float32{2, 0, 5}, []float32{18, 0, 5}, filter, DT_RAYCAST_USE_COSTS, 8, 0)
	require.True(t, status.Succeed())
	assert.EqualValues(t, math.MaxFloat32, hit.T)
	assert.Equal(t, []DtPolyRef{a, b}, hit.Path)
	assert.InDelta(t, 16, hit.PathCost, 1e-3)

	hit, status = q.Raycast(a, []float32{2, 0, 5}, []float32{25, 0, 5}, filter, 0, 8, 0)
	require.True(t, status.Succeed())
	assert.InDelta(t, 18.0/23.0, hit.T, 1e-4)
	assert.EqualValues(t, 2, hit.HitEdgeIndex)
	assert.InDeltaSlice(t, []float32{-1, 0, 0}, hit.HitNormal[:], 1e-4)

	hit, status = q.Raycast(a, []float32{2, 0, 5}, []float32{18, 0, 5}, filter, 0, 1, 0)
	assert.True(t, status.Detail(DT_BUFFER_TOO_SMALL))
	assert.Len(t, hit.Path, 1)
}

func TestMoveAlongSurface(t *testing.T) {
	nav, q := buildTwoQuads(t)
	a, b := polyRefs(nav)
	filter := NewDtQueryFilter()

	pos, visited, status := q.MoveAlongSurface(a, []float32{8, 0, 5}, []float32{12, 0, 5}, filter, 8)
	require.True(t, status.Succeed())
	assert.InDeltaSlice(t, []float32{12, 0, 5}, pos[:], 1e-4)
	assert.Equal(t, []DtPolyRef{a, b}, visited)

	pos, visited, status = q.MoveAlongSurface(a, []float32{5, 0, 8}, []float32{5, 0, 14}, filter, 8)
	require.True(t, status.Succeed())
	assert.InDeltaSlice(t, []float32{5, 0, 10}, pos[:], 1e-4, "slides to the wall")
	assert.Equal(t, []DtPolyRef{a}, visited)
}

func TestClosestPointAndHeight(t *testing.T) {
	nav, q := buildTwoQuads(t)
	a, _ := polyRefs(nav)

	closest, over, status := q.ClosestPointOnPoly(a, []float32{5, 3, 5})
	require.True(t, status.Succeed())
	assert.True(t, over)
	assert.InDeltaSlice(t, []float32{5, 0, 5}, closest[:], 1e-4)

	closest, status = q.ClosestPointOnPolyBoundary(a, []float32{-3, 0, 5})
	require.True(t, status.Succeed())
	assert.InDeltaSlice(t, []float32{0, 0, 5}, closest[:], 1e-4)

	h, status := q.GetPolyHeight(a, []float32{4, 7, 4})
	require.True(t, status.Succeed())
	assert.InDelta(t, 0, h, 1e-4)

	_, status = q.GetPolyHeight(a, []float32{15, 0, 4})
	assert.True(t, status.Failed())

	_, _, status = q.ClosestPointOnPoly(0, []float32{5, 0, 5})
	assert.True(t, status.Detail(DT_INVALID_PARAM))
}

func TestRandomPoints(t *testing.T) {
	nav, q := buildTwoQuads(t)
	a, _ := polyRefs(nav)
	filter := NewDtQueryFilter()
	rng := NewFastRand(DefaultFastRandSeed)

	for i := 0; i < 32; i++ {
		ref, pt, status := q.FindRandomPoint(filter, rng)
		require.True(t, status.Succeed())
		require.True(t, nav.IsValidPolyRef(ref))
		assert.GreaterOrEqual(t, pt[0], float32(0))
		assert.LessOrEqual(t, pt[0], float32(20))
		assert.GreaterOrEqual(t, pt[2], float32(0))
		assert.LessOrEqual(t, pt[2], float32(10))
	}

	ref, _, status := q.FindRandomPointAroundCircle(a, []float32{5, 0, 5}, 2, filter, rng)
	require.True(t, status.Succeed())
	assert.Equal(t, a, ref, "circle does not reach the neighbour")

	// Same seed, same sequence.
	r1, p1, _ := q.FindRandomPoint(filter, NewFastRand(7))
	r2, p2, _ := q.FindRandomPoint(filter, NewFastRand(7))
	assert.Equal(t, r1, r2)
	assert.Equal(t, p1, p2)

	filter.SetExcludeFlags(0xffff)
	_, _, status = q.FindRandomPoint(filter, rng)
	assert.True(t, status.Failed())
}

func TestFastRand(t *testing.T) {
	r := NewFastRand(1)
	// 214013*1 + 2531011 = 2745024, >>16 = 41
	assert.InDelta(t, float32(41)/32767, r.Float32(), 1e-7)
	for i := 0; i < 100; i++ {
		v := r.Float32()
		assert.GreaterOrEqual(t, v, float32(0))
		assert.LessOrEqual(t, v, float32(1))
	}
}

func TestMultiTileLinks(t *testing.T) {
	nav := NewDtNavMesh()
	require.True(t, nav.Init(&NavMeshParams{
		TileWidth:  10,
		TileHeight: 10,
		MaxTiles:   4,
		MaxPolys:   4,
	}).Succeed())

	quad := func(tx int32, portal uint16, edge int) []byte {
		polys := []uint16{0, 1, 2, 3, nul, nul, nul, nul, nul, nul, nul, nul}
		polys[6+edge] = 0x8000 | portal
		data, ok := DtCreateNavMeshData(&DtNavMeshCreateParams{
			Verts:          []uint16{0, 0, 0, 0, 0, 10, 10, 0, 10, 10, 0, 0},
			VertCount:      4,
			Polys:          polys,
			PolyFlags:      []uint16{1},
			PolyAreas:      []uint8{0},
			PolyCount:      1,
			Nvp:            6,
			TileX:          tx,
			Bmin:           [3]float32{float32(tx) * 10, 0, 0},
			Bmax:           [3]float32{float32(tx)*10 + 10, 2, 10},
			WalkableHeight: 2,
			WalkableClimb:  0.9,
			Cs:             1,
			Ch:             1,
		})
		require.True(t, ok)
		return data
	}

	// Edge 2 of the left tile lies on x+, edge 0 of the right tile on x-.
	leftRef, status := nav.AddTile(quad(0, 2, 2), DT_TILE_FREE_DATA, 0)
	require.True(t, status.Succeed())
	_, status = nav.AddTile(quad(1, 0, 0), DT_TILE_FREE_DATA, 0)
	require.True(t, status.Succeed())
	assert.EqualValues(t, 2, nav.GetTileCount())

	q, status := NewDtNavMeshQuery(nav, 128)
	require.True(t, status.Succeed())
	filter := NewDtQueryFilter()
	a := nav.GetPolyRefBase(nav.GetTileAt(0, 0, 0))
	b := nav.GetPolyRefBase(nav.GetTileAt(1, 0, 0))

	path, status := q.FindPath(a, b, []float32{5, 0, 5}, []float32{15, 0, 5}, filter, 8)
	require.True(t, status.Succeed())
	assert.Equal(t, []DtPolyRef{a, b}, path)

	left, right, status := q.GetPortalPoints(a, b)
	require.True(t, status.Succeed())
	assert.InDelta(t, 10, left[0], 1e-4)
	assert.InDelta(t, 10, right[0], 1e-4)

	// Removing the left tile unlinks the right one.
	_, status = nav.RemoveTile(leftRef)
	require.True(t, status.Succeed())
	_, _, status = q.GetPortalPoints(b, a)
	assert.True(t, status.Failed())
}
