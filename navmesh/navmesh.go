package navmesh

import (
	"github.com/gorustyt/navbind/bind"
	"github.com/gorustyt/navbind/common"
	"github.com/gorustyt/navbind/debug_utils"
	"github.com/gorustyt/navbind/detour"
)

// / NavMesh wraps a detour navigation mesh for the binding boundary.
type NavMesh struct {
	Raw *detour.DtNavMesh

	query *detour.DtNavMeshQuery
}

func NewNavMesh() *NavMesh {
	return &NavMesh{Raw: detour.NewDtNavMesh()}
}

// / Initializes a single tile mesh. On success the mesh takes ownership of data.
func (m *NavMesh) InitSolo(data *bind.UnsignedCharArray) bool {
	if data == nil || len(data.Data()) == 0 {
		return false
	}
	if m.Raw.InitSingle(data.Data(), detour.DT_TILE_FREE_DATA).Failed() {
		return false
	}
	data.Detach()
	return true
}

func (m *NavMesh) InitTiled(params *detour.NavMeshParams) bool {
	return m.Raw.Init(params).Succeed()
}

func (m *NavMesh) GetParams() *detour.NavMeshParams { return m.Raw.GetParams() }
func (m *NavMesh) GetMaxTiles() int32               { return m.Raw.GetMaxTiles() }
func (m *NavMesh) GetTileCount() int32              { return m.Raw.GetTileCount() }

// / Returns the tile slot i. The tile may be empty (nil header).
func (m *NavMesh) GetTile(i int32) *detour.DtMeshTile { return m.Raw.GetTile(i) }

func (m *NavMesh) GetTileAt(x, y, layer int32) *detour.DtMeshTile {
	return m.Raw.GetTileAt(x, y, layer)
}

func (m *NavMesh) GetTilesAt(x, y, maxTiles int32) []*detour.DtMeshTile {
	return m.Raw.GetTilesAt(x, y, maxTiles)
}

func (m *NavMesh) GetTileRefAt(x, y, layer int32) detour.DtTileRef {
	return m.Raw.GetTileRefAt(x, y, layer)
}

func (m *NavMesh) GetTileRef(tile *detour.DtMeshTile) detour.DtTileRef { return m.Raw.GetTileRef(tile) }

func (m *NavMesh) GetTileByRef(ref detour.DtTileRef) *detour.DtMeshTile {
	return m.Raw.GetTileByRef(ref)
}

func (m *NavMesh) GetPolyRefBase(tile *detour.DtMeshTile) detour.DtPolyRef {
	return m.Raw.GetPolyRefBase(tile)
}

// / Adds a tile. With DT_TILE_FREE_DATA the mesh takes ownership of data on success.
func (m *NavMesh) AddTile(data *bind.UnsignedCharArray, flags int32, lastRef detour.DtTileRef) bind.AddTileResult {
	if data == nil {
		return bind.AddTileResult{Status: detour.DT_FAILURE | detour.DT_INVALID_PARAM}
	}
	ref, status := m.Raw.AddTile(data.Data(), flags, lastRef)
	if status.Succeed() && flags&detour.DT_TILE_FREE_DATA != 0 {
		data.Detach()
	}
	return bind.AddTileResult{Status: status, TileRef: ref}
}

func (m *NavMesh) RemoveTile(ref detour.DtTileRef) bind.RemoveTileResult {
	data, status := m.Raw.RemoveTile(ref)
	return bind.RemoveTileResult{Status: status, Data: data}
}

func (m *NavMesh) CalcTileLoc(pos common.Vec3) bind.CalcTileLocResult {
	tx, ty := m.Raw.CalcTileLoc(pos[:])
	return bind.CalcTileLocResult{TileX: tx, TileY: ty}
}

func (m *NavMesh) EncodePolyId(salt, it, ip uint32) detour.DtPolyRef {
	return m.Raw.EncodePolyId(salt, it, ip)
}

func (m *NavMesh) DecodePolyId(ref detour.DtPolyRef) bind.DecodePolyIdResult {
	salt, it, ip := m.Raw.DecodePolyId(ref)
	return bind.DecodePolyIdResult{Salt: salt, TileIndex: it, PolyIndex: ip}
}

func (m *NavMesh) GetTileAndPolyByRef(ref detour.DtPolyRef) bind.TileAndPolyResult {
	tile, poly, status := m.Raw.GetTileAndPolyByRef(ref)
	return bind.TileAndPolyResult{Status: status, Tile: tile, Poly: poly}
}

func (m *NavMesh) IsValidPolyRef(ref detour.DtPolyRef) bool { return m.Raw.IsValidPolyRef(ref) }

func (m *NavMesh) SetPolyFlags(ref detour.DtPolyRef, flags uint16) detour.DtStatus {
	return m.Raw.SetPolyFlags(ref, flags)
}

func (m *NavMesh) GetPolyFlags(ref detour.DtPolyRef, out *bind.UnsignedShortRef) detour.DtStatus {
	flags, status := m.Raw.GetPolyFlags(ref)
	out.Value = flags
	return status
}

func (m *NavMesh) SetPolyArea(ref detour.DtPolyRef, area uint8) detour.DtStatus {
	return m.Raw.SetPolyArea(ref, area)
}

func (m *NavMesh) GetPolyArea(ref detour.DtPolyRef, out *bind.UnsignedCharRef) detour.DtStatus {
	area, status := m.Raw.GetPolyArea(ref)
	out.Value = area
	return status
}

// / Height of the polygon surface below pos. Fails when pos is outside the polygon.
func (m *NavMesh) GetPolyHeight(ref detour.DtPolyRef, pos common.Vec3, out *bind.FloatRef) detour.DtStatus {
	if m.query == nil {
		q, status := detour.NewDtNavMeshQuery(m.Raw, 1)
		if status.Failed() {
			return status
		}
		m.query = q
	}
	h, status := m.query.GetPolyHeight(ref, pos[:])
	out.Value = h
	return status
}

// / Triangles of every polygon of the mesh, one color per vertex.
type DebugNavMesh struct {
	Triangles []debug_utils.DebugVertex
}

func (d *DebugNavMesh) TriangleCount() int { return len(d.Triangles) / 3 }

// / Collects the detail triangles of all polygons, the way a renderer would draw them.
func (m *NavMesh) GetDebugNavMesh() DebugNavMesh {
	c := debug_utils.NewPrimitiveCollector()
	debug_utils.DuDebugDrawNavMeshPolysWithFlags(c, m.Raw, 0xffff, debug_utils.DuRGBA(0, 192, 255, 255))
	var out DebugNavMesh
	for _, p := range c.Primitives {
		if p.Type == debug_utils.DU_DRAW_TRIS {
			out.Triangles = append(out.Triangles, p.Vertices...)
		}
	}
	return out
}

func (m *NavMesh) Destroy() {
	m.Raw = nil
	m.query = nil
}
