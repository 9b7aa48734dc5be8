package detour

import (
	"github.com/gorustyt/navbind/common/rw"
)

// / A handle to a polygon within a navigation mesh tile.
// / Packs the tile salt, the tile index and the polygon index.
type DtPolyRef uint32

// / A handle to a tile within a navigation mesh.
type DtTileRef uint32

// / The maximum number of vertices per navigation polygon.
const DT_VERTS_PER_POLYGON = 6

// / A magic number used to detect compatibility of navigation tile data.
const DT_NAVMESH_MAGIC = 'D'<<24 | 'N'<<16 | 'A'<<8 | 'V'

// / A version number used to detect compatibility of navigation tile data.
const DT_NAVMESH_VERSION = 7

// / A flag that indicates that an entity links to an external entity.
// / (E.g. A polygon edge is a portal that links to another polygon.)
const DT_EXT_LINK = 0x8000

// / A value that indicates the entity does not link to anything.
const DT_NULL_LINK = 0xffffffff

// / The maximum number of user defined area ids.
const DT_MAX_AREAS = 64

// / Total number of bits used by a polygon reference.
const DT_REF_BITS = 32

// / Bits reserved for the tile salt when the mesh is initialised. Salt takes the rest.
const DT_MAX_TILE_AND_POLY_BITS = 22

// / Tile flags used for various functions and fields.
const (
	/// The navigation mesh owns the tile memory and is responsible for freeing it.
	DT_TILE_FREE_DATA = 0x01
)

// / Flags representing the type of a navigation mesh polygon.
const (
	/// The polygon is a standard convex polygon that is part of the surface of the mesh.
	DT_POLYTYPE_GROUND = 0
	/// The polygon is an off-mesh connection consisting of two vertices.
	DT_POLYTYPE_OFFMESH_CONNECTION = 1
)

// / Detail triangle edge flags.
const DT_DETAIL_EDGE_BOUNDARY = 0x01

// / Vertex flags returned by DtNavMeshQuery::findStraightPath.
const (
	DT_STRAIGHTPATH_START = 0x01 ///< The vertex is the start position in the path.
	DT_STRAIGHTPATH_END   = 0x02 ///< The vertex is the end position in the path.
)

// / Options for DtNavMeshQuery::findStraightPath.
const (
	DT_STRAIGHTPATH_AREA_CROSSINGS = 0x01 ///< Add a vertex at every polygon edge crossing where area changes.
	DT_STRAIGHTPATH_ALL_CROSSINGS  = 0x02 ///< Add a vertex at every polygon edge crossing.
)

// / Options for DtNavMeshQuery::raycast
const (
	DT_RAYCAST_USE_COSTS = 0x01 ///< Raycast should calculate movement cost along the ray and fill RaycastHit::cost
)

// / Defines a polygon within a DtMeshTile object.
// / @ingroup detour
type DtPoly struct {
	/// Index to first link in linked list. (Or #DT_NULL_LINK if there is no link.)
	FirstLink uint32

	/// The indices of the polygon's vertices.
	/// The actual vertices are located in DtMeshTile::verts.
	Verts [DT_VERTS_PER_POLYGON]uint16

	/// Packed data representing neighbor polygons references and flags for each edge.
	Neis [DT_VERTS_PER_POLYGON]uint16

	/// The user defined polygon flags.
	Flags uint16

	/// The number of vertices in the polygon.
	VertCount uint8

	/// The bit packed area id and polygon type.
	/// @note Use the structure's set and get methods to access this value.
	AreaAndtype uint8
}

func (p *DtPoly) ToBin(w *rw.ReaderWriter) {
	w.WriteInt32(p.FirstLink)
	w.WriteInt16s(p.Verts[:])
	w.WriteInt16s(p.Neis[:])
	w.WriteInt16(p.Flags)
	w.WriteInt8(p.VertCount)
	w.WriteInt8(p.AreaAndtype)
}

func (p *DtPoly) FromBin(r *rw.ReaderWriter) *DtPoly {
	p.FirstLink = r.ReadUInt32()
	r.ReadUInt16s(p.Verts[:])
	r.ReadUInt16s(p.Neis[:])
	p.Flags = r.ReadUInt16()
	p.VertCount = r.ReadUInt8()
	p.AreaAndtype = r.ReadUInt8()
	return p
}

// / Sets the user defined area id. [Limit: < #DT_MAX_AREAS]
func (p *DtPoly) SetArea(a uint8) { p.AreaAndtype = (p.AreaAndtype & 0xc0) | (a & 0x3f) }

// / Sets the polygon type. (See: #dtPolyTypes.)
func (p *DtPoly) SetType(t uint8) { p.AreaAndtype = (p.AreaAndtype & 0x3f) | (t << 6) }

// / Gets the user defined area id.
func (p *DtPoly) GetArea() uint8 { return p.AreaAndtype & 0x3f }

// / Gets the polygon type. (See: #dtPolyTypes)
func (p *DtPoly) GetType() uint8 { return p.AreaAndtype >> 6 }

// / Defines the location of detail sub-mesh data within a DtMeshTile.
type DtPolyDetail struct {
	VertBase  uint32 ///< The offset of the vertices in the DtMeshTile::detailVerts array.
	TriBase   uint32 ///< The offset of the triangles in the DtMeshTile::detailTris array.
	VertCount uint8  ///< The number of vertices in the sub-mesh.
	TriCount  uint8  ///< The number of triangles in the sub-mesh.
}

func (d *DtPolyDetail) ToBin(w *rw.ReaderWriter) {
	w.WriteInt32(d.VertBase)
	w.WriteInt32(d.TriBase)
	w.WriteInt8(d.VertCount)
	w.WriteInt8(d.TriCount)
}

func (d *DtPolyDetail) FromBin(r *rw.ReaderWriter) *DtPolyDetail {
	d.VertBase = r.ReadUInt32()
	d.TriBase = r.ReadUInt32()
	d.VertCount = r.ReadUInt8()
	d.TriCount = r.ReadUInt8()
	return d
}

// / Defines a link between polygons.
// / Links are runtime state and are never part of the tile blob.
type DtLink struct {
	Ref  DtPolyRef ///< Neighbour reference. (The neighbor that is linked to.)
	Next uint32    ///< Index of the next link.
	Edge uint8     ///< Index of the polygon edge that owns this link.
	Side uint8     ///< If a boundary link, defines on which side the link is.
	Bmin uint8     ///< If a boundary link, defines the minimum sub-edge area.
	Bmax uint8     ///< If a boundary link, defines the maximum sub-edge area.
}

// / Bounding volume node.
// / @see DtMeshTile
type DtBVNode struct {
	Bmin [3]uint16 ///< Minimum bounds of the node's AABB. [(x, y, z)]
	Bmax [3]uint16 ///< Maximum bounds of the node's AABB. [(x, y, z)]
	I    int32     ///< The node's index. (Negative for escape sequence.)
}

func (d *DtBVNode) ToBin(w *rw.ReaderWriter) {
	w.WriteInt16s(d.Bmin[:])
	w.WriteInt16s(d.Bmax[:])
	w.WriteInt32(d.I)
}

func (d *DtBVNode) FromBin(r *rw.ReaderWriter) *DtBVNode {
	r.ReadUInt16s(d.Bmin[:])
	r.ReadUInt16s(d.Bmax[:])
	d.I = r.ReadInt32()
	return d
}

// / Provides high level information related to a DtMeshTile object.
// / @ingroup detour
type DtMeshHeader struct {
	Magic           int32  ///< Tile magic number. (Used to identify the data format.)
	Version         int32  ///< Tile data format version number.
	X               int32  ///< The x-position of the tile within the DtNavMesh tile grid. (x, y, layer)
	Y               int32  ///< The y-position of the tile within the DtNavMesh tile grid. (x, y, layer)
	Layer           int32  ///< The layer of the tile within the DtNavMesh tile grid. (x, y, layer)
	UserId          uint32 ///< The user defined id of the tile.
	PolyCount       int32  ///< The number of polygons in the tile.
	VertCount       int32  ///< The number of vertices in the tile.
	MaxLinkCount    int32  ///< The number of allocated links.
	DetailMeshCount int32  ///< The number of sub-meshes in the detail mesh.

	/// The number of unique vertices in the detail mesh. (In addition to the polygon vertices.)
	DetailVertCount int32

	DetailTriCount int32      ///< The number of triangles in the detail mesh.
	BvNodeCount    int32      ///< The number of bounding volume nodes. (Zero if bounding volumes are disabled.)
	WalkableHeight float32    ///< The height of the agents using the tile.
	WalkableRadius float32    ///< The radius of the agents using the tile.
	WalkableClimb  float32    ///< The maximum climb height of the agents using the tile.
	Bmin           [3]float32 ///< The minimum bounds of the tile's AABB. [(x, y, z)]
	Bmax           [3]float32 ///< The maximum bounds of the tile's AABB. [(x, y, z)]

	/// The bounding volume quantization factor.
	BvQuantFactor float32
}

func (d *DtMeshHeader) ToBin(w *rw.ReaderWriter) {
	w.WriteInt32(d.Magic)
	w.WriteInt32(d.Version)
	w.WriteInt32(d.X)
	w.WriteInt32(d.Y)
	w.WriteInt32(d.Layer)
	w.WriteInt32(d.UserId)
	w.WriteInt32(d.PolyCount)
	w.WriteInt32(d.VertCount)
	w.WriteInt32(d.MaxLinkCount)
	w.WriteInt32(d.DetailMeshCount)
	w.WriteInt32(d.DetailVertCount)
	w.WriteInt32(d.DetailTriCount)
	w.WriteInt32(d.BvNodeCount)
	w.WriteFloat32(d.WalkableHeight)
	w.WriteFloat32(d.WalkableRadius)
	w.WriteFloat32(d.WalkableClimb)
	w.WriteFloat32s(d.Bmin[:])
	w.WriteFloat32s(d.Bmax[:])
	w.WriteFloat32(d.BvQuantFactor)
}

func (d *DtMeshHeader) FromBin(r *rw.ReaderWriter) *DtMeshHeader {
	d.Magic = r.ReadInt32()
	d.Version = r.ReadInt32()
	d.X = r.ReadInt32()
	d.Y = r.ReadInt32()
	d.Layer = r.ReadInt32()
	d.UserId = r.ReadUInt32()
	d.PolyCount = r.ReadInt32()
	d.VertCount = r.ReadInt32()
	d.MaxLinkCount = r.ReadInt32()
	d.DetailMeshCount = r.ReadInt32()
	d.DetailVertCount = r.ReadInt32()
	d.DetailTriCount = r.ReadInt32()
	d.BvNodeCount = r.ReadInt32()
	d.WalkableHeight = r.ReadFloat32()
	d.WalkableRadius = r.ReadFloat32()
	d.WalkableClimb = r.ReadFloat32()
	r.ReadFloat32s(d.Bmin[:])
	r.ReadFloat32s(d.Bmax[:])
	d.BvQuantFactor = r.ReadFloat32()
	return d
}

// / Defines a navigation mesh tile.
// / @ingroup detour
type DtMeshTile struct {
	Salt uint32 ///< Counter describing modifications to the tile.
	idx  uint32 // slot index inside the owning mesh

	linksFreeList uint32         ///< Index to the next free link.
	Header        *DtMeshHeader  ///< The tile header.
	Polys         []DtPoly       ///< The tile polygons. [Size: DtMeshHeader::polyCount]
	Verts         []float32      ///< The tile vertices. [(x, y, z) * DtMeshHeader::vertCount]
	Links         []DtLink       ///< The tile links. [Size: DtMeshHeader::maxLinkCount]
	DetailMeshes  []DtPolyDetail ///< The tile's detail sub-meshes. [Size: DtMeshHeader::detailMeshCount]

	/// The detail mesh's unique vertices. [(x, y, z) * DtMeshHeader::detailVertCount]
	DetailVerts []float32

	/// The detail mesh's triangles. [(vertA, vertB, vertC, triFlags) * DtMeshHeader::detailTriCount].
	DetailTris []uint8

	/// The tile bounding volume nodes. [Size: DtMeshHeader::bvNodeCount]
	BvTree []DtBVNode

	Flags int32       ///< Tile flags. (See: #dtTileFlags)
	next  *DtMeshTile ///< The next free tile, or the next tile in the spatial grid.

	/// The raw tile blob the tile was parsed from.
	Data []byte
}

// / Returns the detail triangle vertex for the given poly, resolving indices
// / below the polygon vertex count to the polygon's own vertices.
func (t *DtMeshTile) detailTriVert(poly *DtPoly, pd *DtPolyDetail, idx uint8) []float32 {
	if idx < poly.VertCount {
		return t.Verts[int32(poly.Verts[idx])*3 : int32(poly.Verts[idx])*3+3]
	}
	i := (pd.VertBase + uint32(idx-poly.VertCount)) * 3
	return t.DetailVerts[i : i+3]
}

// / Get flags for edge in detail triangle.
// / @param[in]	triFlags		The flags for the triangle (last component of detail vertices above).
// / @param[in]	edgeIndex		The index of the first vertex of the edge. For instance, if 0,
// /								returns flags for edge AB.
func DtGetDetailTriEdgeFlags(triFlags uint8, edgeIndex int32) int32 {
	return int32(triFlags>>(edgeIndex*2)) & 0x3
}

// / Writes a tile blob from the provided sections.
func encodeTileData(header *DtMeshHeader, verts []float32, polys []DtPoly, dmeshes []DtPolyDetail,
	dverts []float32, dtris []uint8, bvtree []DtBVNode) []byte {
	w := rw.NewNavMeshDataBinWriter()
	header.ToBin(w)
	w.WriteFloat32s(verts)
	for i := range polys {
		polys[i].ToBin(w)
	}
	for i := range dmeshes {
		dmeshes[i].ToBin(w)
	}
	w.WriteFloat32s(dverts)
	w.WriteInt8s(dtris)
	for i := range bvtree {
		bvtree[i].ToBin(w)
	}
	return w.GetWriteBytes()
}

// / Reads only the header of a tile blob.
func DecodeMeshHeader(data []byte) (*DtMeshHeader, DtStatus) {
	r := rw.NewNavMeshDataBinReader(data)
	header := (&DtMeshHeader{}).FromBin(r)
	if r.Err() != nil {
		return nil, DT_FAILURE | DT_INVALID_PARAM
	}
	if header.Magic != DT_NAVMESH_MAGIC {
		return nil, DT_FAILURE | DT_WRONG_MAGIC
	}
	if header.Version != DT_NAVMESH_VERSION {
		return nil, DT_FAILURE | DT_WRONG_VERSION
	}
	return header, DT_SUCCESS
}

// / Parses a tile blob into a fresh tile. Links are not allocated.
func decodeTileData(data []byte) (*DtMeshTile, DtStatus) {
	r := rw.NewNavMeshDataBinReader(data)
	header := (&DtMeshHeader{}).FromBin(r)
	if r.Err() != nil {
		return nil, DT_FAILURE | DT_INVALID_PARAM
	}
	if header.Magic != DT_NAVMESH_MAGIC {
		return nil, DT_FAILURE | DT_WRONG_MAGIC
	}
	if header.Version != DT_NAVMESH_VERSION {
		return nil, DT_FAILURE | DT_WRONG_VERSION
	}
	if header.PolyCount < 0 || header.VertCount < 0 || header.DetailMeshCount < 0 ||
		header.DetailVertCount < 0 || header.DetailTriCount < 0 || header.BvNodeCount < 0 ||
		int(header.VertCount)*12 > len(data) || int(header.PolyCount)*32 > len(data) {
		return nil, DT_FAILURE | DT_INVALID_PARAM
	}
	tile := &DtMeshTile{Header: header, Data: data}
	tile.Verts = make([]float32, header.VertCount*3)
	r.ReadFloat32s(tile.Verts)
	tile.Polys = make([]DtPoly, header.PolyCount)
	for i := range tile.Polys {
		tile.Polys[i].FromBin(r)
	}
	tile.DetailMeshes = make([]DtPolyDetail, header.DetailMeshCount)
	for i := range tile.DetailMeshes {
		tile.DetailMeshes[i].FromBin(r)
	}
	tile.DetailVerts = make([]float32, header.DetailVertCount*3)
	r.ReadFloat32s(tile.DetailVerts)
	tile.DetailTris = make([]uint8, header.DetailTriCount*4)
	r.ReadUInt8s(tile.DetailTris)
	tile.BvTree = make([]DtBVNode, header.BvNodeCount)
	for i := range tile.BvTree {
		tile.BvTree[i].FromBin(r)
	}
	if r.Err() != nil {
		return nil, DT_FAILURE | DT_INVALID_PARAM
	}
	return tile, DT_SUCCESS
}

// / Configuration parameters used to define multi-tile navigation meshes.
// / The values are used to allocate space during the initialization of a navigation mesh.
// / @see DtNavMesh::init()
// / @ingroup detour
type NavMeshParams struct {
	Orig       [3]float32 ///< The world space origin of the navigation mesh's tile space. [(x, y, z)]
	TileWidth  float32    ///< The width of each tile. (Along the x-axis.)
	TileHeight float32    ///< The height of each tile. (Along the z-axis.)
	MaxTiles   int32      ///< The maximum number of tiles the navigation mesh can contain. This and maxPolys are used to calculate how many bits are needed to identify tiles and polygons uniquely.
	MaxPolys   int32      ///< The maximum number of polygons each tile can contain. This and maxTiles are used to calculate how many bits are needed to identify tiles and polygons uniquely.
}

func (d *NavMeshParams) FromBin(r *rw.ReaderWriter) {
	r.ReadFloat32s(d.Orig[:])
	d.TileWidth = r.ReadFloat32()
	d.TileHeight = r.ReadFloat32()
	d.MaxTiles = r.ReadInt32()
	d.MaxPolys = r.ReadInt32()
}

func (d *NavMeshParams) ToBin(w *rw.ReaderWriter) {
	w.WriteFloat32s(d.Orig[:])
	w.WriteFloat32(d.TileWidth)
	w.WriteFloat32(d.TileHeight)
	w.WriteInt32(d.MaxTiles)
	w.WriteInt32(d.MaxPolys)
}
