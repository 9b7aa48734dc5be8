package recast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalcBounds(t *testing.T) {
	verts := []float32{1, 2, 3}
	bmin := make([]float32, 3)
	bmax := make([]float32, 3)
	RcCalcBounds(verts, 1, bmin, bmax)
	assert.Equal(t, verts, bmin, "bounds of one vector")
	assert.Equal(t, verts, bmax, "bounds of one vector")

	verts = []float32{1, 2, 3,
		0, 2, 5}
	RcCalcBounds(verts, 2, bmin, bmax)
	assert.Equal(t, []float32{0, 2, 3}, bmin)
	assert.Equal(t, []float32{1, 2, 5}, bmax)
}

func TestCalcGridSize(t *testing.T) {
	verts := []float32{1, 2, 3,
		0, 2, 6}
	bmin := make([]float32, 3)
	bmax := make([]float32, 3)
	RcCalcBounds(verts, 2, bmin, bmax)

	width, height := RcCalcGridSize(bmin, bmax, 1.5)
	assert.EqualValues(t, 1, width)
	assert.EqualValues(t, 2, height)
}

func TestCreateHeightfield(t *testing.T) {
	bmin := []float32{0, 2, 3}
	bmax := []float32{1, 2, 6}
	hf := RcCreateHeightfield(nil, 1, 2, bmin, bmax, 1.5, 2)
	require.NotNil(t, hf)
	assert.EqualValues(t, 1, hf.Width)
	assert.EqualValues(t, 2, hf.Height)
	assert.Equal(t, [3]float32{0, 2, 3}, hf.Bmin)
	assert.Equal(t, [3]float32{1, 2, 6}, hf.Bmax)
	assert.EqualValues(t, 1.5, hf.Cs)
	assert.EqualValues(t, 2, hf.Ch)
	assert.Len(t, hf.Spans, 2)

	assert.Nil(t, RcCreateHeightfield(nil, 0, 2, bmin, bmax, 1.5, 2), "empty grid is rejected")
}

func TestMarkWalkableTriangles(t *testing.T) {
	verts := []float32{
		0, 0, 0,
		1, 0, 0,
		0, 0, -1,
	}
	walkableTri := []int32{0, 1, 2}
	unwalkableTri := []int32{0, 2, 1}

	areas := []uint8{RC_NULL_AREA}
	RcMarkWalkableTriangles(45, verts, walkableTri, 1, areas)
	assert.EqualValues(t, RC_WALKABLE_AREA, areas[0], "One walkable triangle")

	areas = []uint8{RC_NULL_AREA}
	RcMarkWalkableTriangles(45, verts, unwalkableTri, 1, areas)
	assert.EqualValues(t, RC_NULL_AREA, areas[0], "One non-walkable triangle")

	areas = []uint8{42}
	RcMarkWalkableTriangles(45, verts, unwalkableTri, 1, areas)
	assert.EqualValues(t, 42, areas[0], "Non-walkable triangle area id's are not modified")

	areas = []uint8{RC_NULL_AREA}
	RcMarkWalkableTriangles(0, verts, walkableTri, 1, areas)
	assert.EqualValues(t, RC_NULL_AREA, areas[0], "Slopes equal to the max slope are considered unwalkable.")
}

func TestClearUnwalkableTriangles(t *testing.T) {
	verts := []float32{
		0, 0, 0,
		1, 0, 0,
		0, 0, -1,
	}
	areas := []uint8{42}
	RcClearUnwalkableTriangles(45, verts, []int32{0, 2, 1}, 1, areas)
	assert.EqualValues(t, RC_NULL_AREA, areas[0], "Sets area ID of unwalkable triangle to RC_NULL_AREA")

	areas = []uint8{42}
	RcClearUnwalkableTriangles(45, verts, []int32{0, 1, 2}, 1, areas)
	assert.EqualValues(t, 42, areas[0], "Does not modify walkable triangle area ID's")

	areas = []uint8{42}
	RcClearUnwalkableTriangles(0, verts, []int32{0, 1, 2}, 1, areas)
	assert.EqualValues(t, RC_NULL_AREA, areas[0], "Slopes equal to the max slope are considered unwalkable.")
}

func TestAddSpan(t *testing.T) {
	hf := RcCreateHeightfield(nil, 2, 2, []float32{0, 0, 0}, []float32{2, 10, 2}, 1, 1)
	require.NotNil(t, hf)

	RcAddSpan(hf, 0, 0, 0, 10, 1, 1)
	RcAddSpan(hf, 0, 0, 20, 30, 2, 1)
	span := hf.Spans[0]
	require.NotNil(t, span)
	assert.EqualValues(t, 0, span.Smin)
	assert.EqualValues(t, 10, span.Smax)
	require.NotNil(t, span.Next)
	assert.EqualValues(t, 20, span.Next.Smin)
	assert.Nil(t, span.Next.Next)

	// Overlapping spans merge and keep the highest area when the tops are close.
	RcAddSpan(hf, 0, 0, 5, 11, 42, 1)
	span = hf.Spans[0]
	assert.EqualValues(t, 0, span.Smin)
	assert.EqualValues(t, 11, span.Smax)
	assert.EqualValues(t, 42, span.Area)

	// Bridging span swallows both.
	RcAddSpan(hf, 0, 0, 8, 25, 3, 1)
	span = hf.Spans[0]
	assert.EqualValues(t, 0, span.Smin)
	assert.EqualValues(t, 30, span.Smax)
	assert.Nil(t, span.Next)
	assert.Nil(t, hf.Spans[1], "other columns are untouched")
}

func TestRasterizeTriangle(t *testing.T) {
	verts := []float32{
		0, 0, 0,
		1, 0, 0,
		0, 0, -1,
	}
	bmin := make([]float32, 3)
	bmax := make([]float32, 3)
	RcCalcBounds(verts, 3, bmin, bmax)
	width, height := RcCalcGridSize(bmin, bmax, 0.5)
	solid := RcCreateHeightfield(nil, width, height, bmin, bmax, 0.5, 0.5)
	require.NotNil(t, solid)

	require.True(t, RcRasterizeTriangles(nil, verts, []int32{0, 1, 2}, []uint8{42}, 1, solid, 1))

	assert.NotNil(t, solid.Spans[0+0*width])
	assert.Nil(t, solid.Spans[1+0*width])
	assert.NotNil(t, solid.Spans[0+1*width])
	assert.NotNil(t, solid.Spans[1+1*width])
	for _, idx := range []int32{0 + 0*width, 0 + 1*width, 1 + 1*width} {
		span := solid.Spans[idx]
		assert.EqualValues(t, 0, span.Smin)
		assert.EqualValues(t, 1, span.Smax)
		assert.EqualValues(t, 42, span.Area)
		assert.Nil(t, span.Next)
	}
}

func TestRasterizeTriangleOutsideHeightfield(t *testing.T) {
	hf := RcCreateHeightfield(nil, 10, 10, []float32{0, 0, 0}, []float32{10, 10, 10}, 1, 1)
	require.NotNil(t, hf)
	// The triangle bounds overlap the heightfield but the triangle itself does not.
	verts := []float32{
		-10.0, 5.5, -10.0,
		-10.0, 5.5, 3,
		3.0, 5.5, -10.0,
	}
	require.True(t, RcRasterizeTriangles(nil, verts, []int32{0, 1, 2}, []uint8{42}, 1, hf, 1))
	for _, span := range hf.Spans {
		assert.Nil(t, span)
	}
}

func TestRasterizeTrianglesRejectsMissingVertex(t *testing.T) {
	hf := RcCreateHeightfield(nil, 2, 2, []float32{0, 0, 0}, []float32{2, 2, 2}, 1, 1)
	verts := []float32{0, 0, 0, 1, 0, 0, 0, 0, 1}
	assert.False(t, RcRasterizeTriangles(nil, verts, []int32{0, 1, 3}, []uint8{1}, 1, hf, 1))
}

func TestFilterWalkableLowHeightSpans(t *testing.T) {
	hf := RcCreateHeightfield(nil, 1, 1, []float32{0, 0, 0}, []float32{1, 10, 1}, 1, 1)
	RcAddSpan(hf, 0, 0, 0, 1, RC_WALKABLE_AREA, 1)
	RcAddSpan(hf, 0, 0, 3, 4, RC_WALKABLE_AREA, 1)
	RcFilterWalkableLowHeightSpans(nil, 5, hf)
	assert.EqualValues(t, RC_NULL_AREA, hf.Spans[0].Area, "low clearance span is cleared")
	assert.EqualValues(t, RC_WALKABLE_AREA, hf.Spans[0].Next.Area, "top span has open sky")
}

func TestFilterLowHangingWalkableObstacles(t *testing.T) {
	hf := RcCreateHeightfield(nil, 1, 1, []float32{0, 0, 0}, []float32{1, 10, 1}, 1, 1)
	RcAddSpan(hf, 0, 0, 0, 1, RC_WALKABLE_AREA, 1)
	RcAddSpan(hf, 0, 0, 2, 3, RC_NULL_AREA, 1)
	RcAddSpan(hf, 0, 0, 5, 9, RC_NULL_AREA, 1)
	RcFilterLowHangingWalkableObstacles(nil, 2, hf)
	span := hf.Spans[0]
	assert.EqualValues(t, RC_WALKABLE_AREA, span.Next.Area, "step within climb becomes walkable")
	assert.EqualValues(t, RC_NULL_AREA, span.Next.Next.Area, "does not propagate past obstacles")
}

// flatQuad is a 10x10 ground plane at y=0 with upward facing triangles.
func flatQuad() ([]float32, []int32) {
	verts := []float32{
		0, 0, 0,
		10, 0, 0,
		10, 0, 10,
		0, 0, 10,
	}
	return verts, []int32{0, 2, 1, 0, 3, 2}
}

func buildCompact(t *testing.T, ctx *RcContext) *RcCompactHeightfield {
	t.Helper()
	verts, tris := flatQuad()
	bmin := make([]float32, 3)
	bmax := make([]float32, 3)
	RcCalcBounds(verts, 4, bmin, bmax)
	w, h := RcCalcGridSize(bmin, bmax, 0.3)
	hf := RcCreateHeightfield(ctx, w, h, bmin, bmax, 0.3, 0.2)
	require.NotNil(t, hf)
	areas := make([]uint8, 2)
	RcMarkWalkableTriangles(45, verts, tris, 2, areas)
	require.Equal(t, []uint8{RC_WALKABLE_AREA, RC_WALKABLE_AREA}, areas)
	require.True(t, RcRasterizeTriangles(ctx, verts, tris, areas, 2, hf, 4))
	RcFilterLowHangingWalkableObstacles(ctx, 4, hf)
	RcFilterLedgeSpans(ctx, 10, 4, hf)
	RcFilterWalkableLowHeightSpans(ctx, 10, hf)
	chf := RcBuildCompactHeightfield(ctx, 10, 4, hf)
	require.NotNil(t, chf)
	require.True(t, RcErodeWalkableArea(ctx, 2, chf))
	return chf
}

func TestBuildPipelineFlatQuad(t *testing.T) {
	ctx := NewRcContext(nil, true)
	chf := buildCompact(t, ctx)

	// The ledge filter removes the outer ring and erosion two more cells.
	walkable := 0
	for _, a := range chf.Areas {
		if a != RC_NULL_AREA {
			walkable++
		}
	}
	assert.Equal(t, 27*27, walkable)

	require.True(t, RcBuildDistanceField(ctx, chf))
	assert.Greater(t, chf.MaxDistance, uint16(0))
	require.True(t, RcBuildRegionsMonotone(ctx, chf, 0, 8, 20))
	assert.EqualValues(t, 2, chf.MaxRegions, "a flat square is a single region")

	cset, ok := RcBuildContours(ctx, chf, 1.3, 12, RC_CONTOUR_TESS_WALL_EDGES)
	require.True(t, ok)
	require.Len(t, cset.Conts, 1)
	assert.GreaterOrEqual(t, cset.Conts[0].Nverts, int32(4))
	assert.EqualValues(t, 1, cset.Conts[0].Reg)

	pmesh, ok := RcBuildPolyMesh(ctx, cset, 6)
	require.True(t, ok)
	require.Greater(t, pmesh.Npolys, int32(0))
	for i := int32(0); i < pmesh.Npolys; i++ {
		assert.EqualValues(t, RC_WALKABLE_AREA, pmesh.Areas[i])
		assert.GreaterOrEqual(t, countPolyVerts(pmesh.Poly(i), pmesh.Nvp), int32(3))
	}

	dmesh, ok := RcBuildPolyMeshDetail(ctx, pmesh, chf, 1.8, 0.2)
	require.True(t, ok)
	assert.Equal(t, pmesh.Npolys, dmesh.Nmeshes)
	assert.Greater(t, dmesh.Ntris, int32(0))
	for i := 0; i < len(dmesh.Verts); i += 3 {
		assert.InDelta(t, 0.4, dmesh.Verts[i+1], 1e-4, "detail height is the span top plus one cell")
	}

	assert.GreaterOrEqual(t, ctx.GetAccumulatedTime(RC_TIMER_BUILD_REGIONS), time.Duration(0))
	var nilCtx *RcContext
	assert.EqualValues(t, -1, nilCtx.GetAccumulatedTime(RC_TIMER_BUILD_REGIONS))
}

func TestBuildHeightfieldLayers(t *testing.T) {
	chf := buildCompact(t, nil)
	lset, ok := RcBuildHeightfieldLayers(nil, chf, 0, 10)
	require.True(t, ok)
	require.Len(t, lset.Layers, 1)
	layer := lset.Layers[0]
	assert.Equal(t, chf.Width, layer.Width)
	assert.EqualValues(t, RC_LAYER_EMPTY, layer.Heights[0], "ledge filtered corner is empty")
	center := chf.Width/2 + chf.Height/2*chf.Width
	assert.EqualValues(t, 1, layer.Heights[center])
	assert.EqualValues(t, RC_WALKABLE_AREA, layer.Areas[center])
	assert.EqualValues(t, 0xf, layer.Cons[center], "interior cell connects in all directions")
	assert.EqualValues(t, 1, layer.Hmin)
	assert.EqualValues(t, 1, layer.Hmax)
}

func TestMarkAreas(t *testing.T) {
	chf := buildCompact(t, nil)
	center := []float32{5, 0, 5}
	RcMarkCylinderArea(nil, center, 1, 1, 7, chf)
	marked := 0
	for _, a := range chf.Areas {
		if a == 7 {
			marked++
		}
	}
	assert.Greater(t, marked, 0)

	RcMarkBoxArea(nil, []float32{3, -1, 3}, []float32{4, 1, 4}, 9, chf)
	found := false
	for _, a := range chf.Areas {
		found = found || a == 9
	}
	assert.True(t, found)

	square := []float32{6, 0, 6, 8, 0, 6, 8, 0, 8, 6, 0, 8}
	assert.True(t, PointInPoly(4, square, []float32{7, 0, 7}))
	assert.False(t, PointInPoly(4, square, []float32{5, 0, 7}))
}
