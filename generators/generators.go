package generators

import (
	"errors"
	"fmt"
	"math"

	"github.com/gorustyt/navbind/bind"
	"github.com/gorustyt/navbind/common"
	"github.com/gorustyt/navbind/common/logs"
	"github.com/gorustyt/navbind/detour"
	"github.com/gorustyt/navbind/navmesh"
	"github.com/gorustyt/navbind/recast"
	"go.uber.org/zap"
)

var ErrEmptyInput = errors.New("generators: no triangles to build")

// / Kind of build an Intermediates value comes from.
type IntermediatesType string

const (
	IntermediatesSolo      IntermediatesType = "solo"
	IntermediatesTiled     IntermediatesType = "tiled"
	IntermediatesTileCache IntermediatesType = "tilecache"
)

// / Artifacts of one tile of a tiled or tile cache build. Unused stages stay nil.
type TileIntermediates struct {
	TileX, TileY int32

	Heightfield         *recast.RcHeightfield
	CompactHeightfield  *recast.RcCompactHeightfield
	ContourSet          *recast.RcContourSet
	PolyMesh            *recast.RcPolyMesh
	PolyMeshDetail      *recast.RcPolyMeshDetail
	HeightfieldLayerSet *recast.RcHeightfieldLayerSet
}

// / Intermediates are the stage artifacts kept with keepIntermediates.
// / Solo builds fill the top level fields, tiled builds fill Tiles.
type Intermediates struct {
	Type         IntermediatesType
	BuildContext *recast.RcContext

	Heightfield        *recast.RcHeightfield
	CompactHeightfield *recast.RcCompactHeightfield
	ContourSet         *recast.RcContourSet
	PolyMesh           *recast.RcPolyMesh
	PolyMeshDetail     *recast.RcPolyMeshDetail

	ChunkyTriMesh *ChunkyTriMesh
	Tiles         []*TileIntermediates
}

type SoloNavMeshResult struct {
	Success       bool
	NavMesh       *navmesh.NavMesh
	Intermediates *Intermediates
	Error         error
}

type TiledNavMeshResult struct {
	Success       bool
	NavMesh       *navmesh.NavMesh
	Intermediates *Intermediates
	Error         error
}

type TileCacheGeneratorResult struct {
	Success       bool
	NavMesh       *navmesh.NavMesh
	TileCache     *navmesh.TileCache
	Intermediates *Intermediates
	Error         error
}

// / stageError is returned when a pipeline stage fails.
type stageError struct {
	stage string
	tx    int32
	ty    int32
	tiled bool
}

func (e *stageError) Error() string {
	if e.tiled {
		return fmt.Sprintf("tile (%d,%d): %s failed", e.tx, e.ty, e.stage)
	}
	return e.stage + " failed"
}

func newBuildContext() *recast.RcContext {
	return recast.NewRcContext(logs.L().Named("recast"), true)
}

func stageFailed(stage string) error {
	logs.L().Warn("navmesh build stage failed", zap.String("stage", stage))
	return &stageError{stage: stage}
}

func tileStageFailed(stage string, tx, ty int32) error {
	logs.L().Warn("navmesh tile build stage failed",
		zap.String("stage", stage), zap.Int32("tx", tx), zap.Int32("ty", ty))
	return &stageError{stage: stage, tx: tx, ty: ty, tiled: true}
}

// / Bounds of the vertices referenced by indices.
func calcBounds(positions []float32, indices []int32) (bmin, bmax [3]float32, err error) {
	if len(indices) < 3 || len(indices)%3 != 0 {
		return bmin, bmax, ErrEmptyInput
	}
	nverts := int32(len(positions) / 3)
	bmin = [3]float32{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32}
	bmax = [3]float32{-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32}
	for _, idx := range indices {
		if idx < 0 || idx >= nverts {
			return bmin, bmax, fmt.Errorf("generators: index %d out of range [0,%d)", idx, nverts)
		}
		v := common.GetVert3(positions, idx)
		common.Vmin(bmin[:], v)
		common.Vmax(bmax[:], v)
	}
	return bmin, bmax, nil
}

// / Walkable polygons get area 0 and polygons of area 0 get flag 1.
func walkablePolyFlags(pmesh *recast.RcPolyMesh) {
	for i := int32(0); i < pmesh.Npolys; i++ {
		if pmesh.Areas[i] == recast.RC_WALKABLE_AREA {
			pmesh.Areas[i] = 0
		}
		if pmesh.Areas[i] == 0 {
			pmesh.Flags[i] = 1
		}
	}
}

// / Splits the 22 bits of a poly ref between tiles and polygons.
func tileAndPolyBits(tiles int32) (tileBits, polyBits uint32) {
	tileBits = min(common.Ilog2(common.NextPow2(uint32(max(tiles, 1)))), 14)
	return tileBits, 22 - tileBits
}

func createParamsFromMesh(pmesh *recast.RcPolyMesh, dmesh *recast.RcPolyMeshDetail, cfg *RecastConfig) *detour.DtNavMeshCreateParams {
	params := &detour.DtNavMeshCreateParams{
		Verts:          pmesh.Verts,
		VertCount:      pmesh.Nverts,
		Polys:          pmesh.Polys,
		PolyAreas:      pmesh.Areas,
		PolyFlags:      pmesh.Flags,
		PolyCount:      pmesh.Npolys,
		Nvp:            pmesh.Nvp,
		WalkableHeight: cfg.WalkableHeight,
		WalkableRadius: cfg.WalkableRadius,
		WalkableClimb:  cfg.WalkableClimb,
		Cs:             pmesh.Cs,
		Ch:             pmesh.Ch,
		Bmin:           pmesh.Bmin,
		Bmax:           pmesh.Bmax,
		BuildBvTree:    true,
	}
	if dmesh != nil {
		params.DetailMeshes = dmesh.Meshes
		params.DetailVerts = dmesh.Verts
		params.DetailVertsCount = dmesh.Nverts
		params.DetailTris = dmesh.Tris
		params.DetailTriCount = dmesh.Ntris
	}
	return params
}

// / GenerateSoloNavMeshFromArrays builds from typed arrays without copying them.
func GenerateSoloNavMeshFromArrays(positions *bind.FloatArray, indices *bind.IntArray, cfg RecastConfig, keepIntermediates bool) SoloNavMeshResult {
	if positions == nil || indices == nil {
		return SoloNavMeshResult{Error: ErrEmptyInput}
	}
	return GenerateSoloNavMesh(positions.Data(), indices.Data(), cfg, keepIntermediates)
}
