package generators

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/gorustyt/navbind/bind"
	"github.com/gorustyt/navbind/common"
	"github.com/gorustyt/navbind/navmesh"
	"github.com/gorustyt/navbind/recast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flatQuad is a 10x10 square at y=0.
func flatQuad() ([]float32, []int32) {
	verts := []float32{
		0, 0, 0,
		10, 0, 0,
		10, 0, 10,
		0, 0, 10,
	}
	return verts, []int32{0, 2, 1, 0, 3, 2}
}

func testConfig() RecastConfig {
	cfg := DefaultRecastConfig()
	cfg.Cs = 0.25
	cfg.Ch = 0.25
	cfg.WalkableHeight = 2
	cfg.WalkableClimb = 0.5
	cfg.WalkableRadius = 0.5
	cfg.TileSize = 16
	return cfg
}

func TestToRcConfig(t *testing.T) {
	cfg := DefaultRecastConfig()
	cfg.Cs = 0.25
	cfg.Ch = 0.5
	cfg.WalkableClimb = 0.9
	cfg.WalkableRadius = 0.6
	rc := cfg.ToRcConfig()
	want := recast.RcConfig{
		TileSize:               32,
		Cs:                     0.25,
		Ch:                     0.5,
		WalkableSlopeAngle:     60,
		WalkableHeight:         4,
		WalkableClimb:          1,
		WalkableRadius:         3,
		MaxEdgeLen:             48,
		MaxSimplificationError: 1.3,
		MinRegionArea:          64,
		MergeRegionArea:        400,
		MaxVertsPerPoly:        6,
		DetailSampleDist:       1.5,
		DetailSampleMaxError:   0.5,
	}
	if diff := cmp.Diff(want, rc); diff != "" {
		t.Errorf("ToRcConfig mismatch (-want +got):\n%s", diff)
	}

	cfg.DetailSampleDist = 0.5
	assert.Zero(t, cfg.ToRcConfig().DetailSampleDist, "sample distance below 0.9 disables sampling")
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}

	cfg, err := LoadConfig(write("partial.json", `{"cs": 0.5, "tileSize": 64}`))
	require.NoError(t, err)
	want := DefaultRecastConfig()
	want.Cs = 0.5
	want.TileSize = 64
	assert.Equal(t, want, cfg)

	tests := []struct {
		name    string
		path    string
		wantErr string
	}{
		{"extension", write("config.yaml", `{}`), ".json extension"},
		{"missing", filepath.Join(dir, "missing.json"), "failed to stat"},
		{"syntax", write("broken.json", `{"cs":`), "failed to parse"},
		{"verts per poly", write("nvp.json", `{"maxVertsPerPoly": 9}`), "maxVertsPerPoly"},
		{"cell size", write("cs.json", `{"cs": 0}`), "cs must be positive"},
		{"too large", write("big.json", `{"cs": 0.3}`+strings.Repeat(" ", 1<<20)), "too large"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(tt.path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestTileAndPolyBits(t *testing.T) {
	tests := []struct {
		tiles              int32
		tileBits, polyBits uint32
	}{
		{1, 0, 22},
		{9, 4, 18},
		{16, 4, 18},
		{1 << 20, 14, 8},
	}
	for _, tt := range tests {
		tileBits, polyBits := tileAndPolyBits(tt.tiles)
		assert.Equal(t, tt.tileBits, tileBits, "tiles %d", tt.tiles)
		assert.Equal(t, tt.polyBits, polyBits, "tiles %d", tt.tiles)
	}
}

func TestGenerateRejectsBadInput(t *testing.T) {
	verts, _ := flatQuad()

	res := GenerateSoloNavMesh(verts, nil, testConfig(), false)
	assert.False(t, res.Success)
	assert.Nil(t, res.NavMesh)
	assert.ErrorIs(t, res.Error, ErrEmptyInput)
	assert.Nil(t, res.Intermediates)

	res = GenerateSoloNavMesh(verts, []int32{0, 1, 7}, testConfig(), true)
	assert.False(t, res.Success)
	require.Error(t, res.Error)
	assert.Contains(t, res.Error.Error(), "out of range")
	require.NotNil(t, res.Intermediates)
	assert.Nil(t, res.Intermediates.Heightfield)

	bad := testConfig()
	bad.MaxVertsPerPoly = 2
	tiled := GenerateTiledNavMesh(verts, []int32{0, 2, 1}, bad, false)
	assert.False(t, tiled.Success)
	assert.Error(t, tiled.Error)

	cache := GenerateTileCache(verts, nil, testConfig(), false)
	assert.False(t, cache.Success)
	assert.Nil(t, cache.TileCache)
}

func TestGenerateSoloNavMesh(t *testing.T) {
	verts, tris := flatQuad()
	res := GenerateSoloNavMesh(verts, tris, testConfig(), true)
	require.True(t, res.Success, "%v", res.Error)
	require.NotNil(t, res.NavMesh)
	assert.EqualValues(t, 1, res.NavMesh.GetTileCount())

	inter := res.Intermediates
	require.NotNil(t, inter)
	assert.Equal(t, IntermediatesSolo, inter.Type)
	assert.NotNil(t, inter.Heightfield)
	assert.NotNil(t, inter.CompactHeightfield)
	assert.NotNil(t, inter.ContourSet)
	require.NotNil(t, inter.PolyMesh)
	assert.Greater(t, inter.PolyMesh.Npolys, int32(0))
	for i := int32(0); i < inter.PolyMesh.Npolys; i++ {
		assert.EqualValues(t, 0, inter.PolyMesh.Areas[i], "walkable polygons use area 0")
		assert.EqualValues(t, 1, inter.PolyMesh.Flags[i])
	}
	assert.GreaterOrEqual(t, inter.BuildContext.GetAccumulatedTime(recast.RC_TIMER_TOTAL), time.Duration(0))

	q, err := navmesh.NewNavMeshQuery(res.NavMesh, 0)
	require.NoError(t, err)
	near := q.FindNearestPoly(common.Vec3{5, 0, 5}, nil)
	require.True(t, near.Status.Succeed())
	assert.NotZero(t, near.NearestRef)

	path := q.ComputePath(common.Vec3{2, 0, 2}, common.Vec3{8, 0, 8}, nil)
	require.True(t, path.Success, string(path.Error))
	require.Len(t, path.Path, 2, "a straight line across one polygon")
	first, last := path.Path[0], path.Path[1]
	assert.InDeltaSlice(t, []float32{2, 0, 2}, first[:], 0.05)
	assert.InDeltaSlice(t, []float32{8, 0, 8}, last[:], 0.05)

	assert.Nil(t, GenerateSoloNavMesh(verts, tris, testConfig(), false).Intermediates)
}

func TestGenerateSoloNavMeshFromArrays(t *testing.T) {
	verts, tris := flatQuad()
	positions := bind.NewFloatArray(verts)
	indices := bind.NewIntArray(tris)
	defer positions.Free()
	defer indices.Free()

	res := GenerateSoloNavMeshFromArrays(positions, indices, testConfig(), false)
	require.True(t, res.Success, "%v", res.Error)
	assert.True(t, positions.Owned(), "inputs stay with the caller")

	res = GenerateSoloNavMeshFromArrays(nil, indices, testConfig(), false)
	assert.ErrorIs(t, res.Error, ErrEmptyInput)
}

func TestGenerateTiledNavMesh(t *testing.T) {
	verts, tris := flatQuad()
	res := GenerateTiledNavMesh(verts, tris, testConfig(), true)
	require.True(t, res.Success, "%v", res.Error)
	require.NotNil(t, res.NavMesh)

	params := res.NavMesh.GetParams()
	assert.EqualValues(t, 4, params.TileWidth, "16 cells of 0.25")
	assert.EqualValues(t, 16, params.MaxTiles, "a 3x3 grid rounds up to 16 tiles")
	assert.EqualValues(t, 1<<18, params.MaxPolys)

	require.NotNil(t, res.Intermediates)
	assert.Equal(t, IntermediatesTiled, res.Intermediates.Type)
	assert.Len(t, res.Intermediates.Tiles, 9)
	require.NotNil(t, res.Intermediates.ChunkyTriMesh)
	assert.Equal(t, 2, res.Intermediates.ChunkyTriMesh.MaxTrisPerChunk)
	assert.Greater(t, res.NavMesh.GetTileCount(), int32(1))
	assert.NotNil(t, res.NavMesh.GetTileAt(0, 0, 0))

	q, err := navmesh.NewNavMeshQuery(res.NavMesh, 0)
	require.NoError(t, err)
	near := q.FindNearestPoly(common.Vec3{9, 0, 9}, nil)
	require.True(t, near.Status.Succeed())
	assert.NotZero(t, near.NearestRef)
}

func TestGenerateTileCache(t *testing.T) {
	verts, tris := flatQuad()
	res := GenerateTileCache(verts, tris, testConfig(), true)
	require.True(t, res.Success, "%v", res.Error)
	require.NotNil(t, res.NavMesh)
	require.NotNil(t, res.TileCache)

	assert.Greater(t, res.TileCache.GetTileCount(), int32(0))
	assert.EqualValues(t, 16, res.TileCache.GetParams().Width)
	assert.EqualValues(t, 9*4, res.TileCache.GetParams().MaxTiles)
	assert.EqualValues(t, 64, res.NavMesh.GetParams().MaxTiles, "36 layers round up to 64")
	assert.Greater(t, res.NavMesh.GetTileCount(), int32(0))

	require.NotNil(t, res.Intermediates)
	assert.Equal(t, IntermediatesTileCache, res.Intermediates.Type)
	assert.NotNil(t, res.Intermediates.ChunkyTriMesh)
	require.Len(t, res.Intermediates.Tiles, 9)
	assert.NotNil(t, res.Intermediates.Tiles[0].HeightfieldLayerSet)

	ob := res.TileCache.AddCylinderObstacle(common.Vec3{5, 0, 5}, 1, 2)
	require.True(t, ob.Status.Succeed())
	assert.Len(t, res.TileCache.GetObstacles(), 1)

	upToDate := false
	for i := 0; i < 16 && !upToDate; i++ {
		up := res.TileCache.Update(res.NavMesh)
		require.True(t, up.Status.Succeed())
		upToDate = up.UpToDate
	}
	assert.True(t, upToDate)
}

func TestMergePositionsAndIndices(t *testing.T) {
	// Two quads sharing the edge x=10, each with its own copy of the shared corners.
	left := MeshInput{
		Positions: []float32{0, 0, 0, 10, 0, 0, 10, 0, 10, 0, 0, 10},
		Indices:   []int32{0, 2, 1, 0, 3, 2},
	}
	right := MeshInput{
		Positions: []float32{10, 0, 0, 20, 0, 0, 20, 0, 10, 10, 0, 10, 99, 99, 99},
		Indices:   []int32{0, 2, 1, 0, 3, 2},
	}
	positions, indices, err := MergePositionsAndIndices(left, right)
	require.NoError(t, err)
	built := GenerateSoloNavMesh(positions, indices, testConfig(), false)
	require.True(t, built.Success, "%v", built.Error)
	assert.Len(t, positions, 6*3, "shared corners are stored once and unused vertices dropped")
	assert.Equal(t, []int32{0, 1, 2, 0, 3, 1, 2, 4, 5, 2, 1, 4}, indices)
	for i, idx := range indices {
		src, in := left, i
		if i >= len(left.Indices) {
			src, in = right, i-len(left.Indices)
		}
		s := src.Indices[in]
		assert.Equal(t, src.Positions[s*3:s*3+3], positions[idx*3:idx*3+3], "corner %d moved", i)
	}

	// The first vertex is matched like any other.
	positions, indices, err = MergePositionsAndIndices(MeshInput{
		Positions: []float32{1, 2, 3, 4, 5, 6, 1, 2, 3},
		Indices:   []int32{0, 1, 2, 2, 1, 0},
	})
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3, 4, 5, 6}, positions)
	assert.Equal(t, []int32{0, 1, 0, 0, 1, 0}, indices)

	_, _, err = MergePositionsAndIndices(MeshInput{Positions: []float32{0, 0, 0}, Indices: []int32{0, 1, 0}})
	assert.ErrorContains(t, err, "out of range")

	positions, indices, err = MergePositionsAndIndices()
	require.NoError(t, err)
	assert.Empty(t, positions)
	assert.Empty(t, indices)
}
