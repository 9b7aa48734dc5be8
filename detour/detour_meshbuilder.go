package detour

import (
	"math"
	"slices"

	"github.com/gorustyt/navbind/common"
)

// / Represents the source data used to build an navigation mesh tile.
// / @ingroup detour
type DtNavMeshCreateParams struct {

	/// @name Polygon Mesh Attributes
	/// Used to create the base navigation graph.
	/// See #RcPolyMesh for details related to these attributes.
	/// @{

	Verts     []uint16 ///< The polygon mesh vertices. [(x, y, z) * #vertCount] [Unit: vx]
	VertCount int32    ///< The number vertices in the polygon mesh. [Limit: >= 3]
	Polys     []uint16 ///< The polygon data. [Size: #polyCount * 2 * #nvp]
	PolyFlags []uint16 ///< The user defined flags assigned to each polygon. [Size: #polyCount]
	PolyAreas []uint8  ///< The user defined area ids assigned to each polygon. [Size: #polyCount]
	PolyCount int32    ///< Number of polygons in the mesh. [Limit: >= 1]
	Nvp       int32    ///< Number maximum number of vertices per polygon. [Limit: >= 3]

	/// @}
	/// @name Height Detail Attributes (Optional)
	/// See #RcPolyMeshDetail for details related to these attributes.
	/// @{

	DetailMeshes     []uint32  ///< The height detail sub-mesh data. [Size: 4 * #polyCount]
	DetailVerts      []float32 ///< The detail mesh vertices. [Size: 3 * #detailVertsCount] [Unit: wu]
	DetailVertsCount int32     ///< The number of vertices in the detail mesh.
	DetailTris       []uint8   ///< The detail mesh triangles. [Size: 4 * #detailTriCount]
	DetailTriCount   int32     ///< The number of triangles in the detail mesh.

	/// @}
	/// @name Tile Attributes
	/// @note The tile grid/layer data can be left at zero if the destination is a single tile mesh.
	/// @{

	UserId    uint32     ///< The user defined id of the tile.
	TileX     int32      ///< The tile's x-grid location within the multi-tile destination mesh. (Along the x-axis.)
	TileY     int32      ///< The tile's y-grid location within the multi-tile destination mesh. (Along the z-axis.)
	TileLayer int32      ///< The tile's layer within the layered destination mesh. [Limit: >= 0] (Along the y-axis.)
	Bmin      [3]float32 ///< The minimum bounds of the tile. [(x, y, z)] [Unit: wu]
	Bmax      [3]float32 ///< The maximum bounds of the tile. [(x, y, z)] [Unit: wu]

	/// @}
	/// @name General Configuration Attributes
	/// @{

	WalkableHeight float32 ///< The agent height. [Unit: wu]
	WalkableRadius float32 ///< The agent radius. [Unit: wu]
	WalkableClimb  float32 ///< The agent maximum traversable ledge. (Up/Down) [Unit: wu]
	Cs             float32 ///< The xz-plane cell size of the polygon mesh. [Limit: > 0] [Unit: wu]
	Ch             float32 ///< The y-axis cell height of the polygon mesh. [Limit: > 0] [Unit: wu]

	/// True if a bounding volume tree should be built for the tile.
	/// @note The BVTree is not normally needed for layered navigation meshes.
	BuildBvTree bool

	/// @}
}

const MESH_NULL_IDX = 0xffff

type bvItem struct {
	bmin [3]uint16
	bmax [3]uint16
	i    int32
}

func calcExtends(items []bvItem) (bmin, bmax [3]uint16) {
	bmin = items[0].bmin
	bmax = items[0].bmax
	for _, it := range items[1:] {
		for k := 0; k < 3; k++ {
			bmin[k] = min(bmin[k], it.bmin[k])
			bmax[k] = max(bmax[k], it.bmax[k])
		}
	}
	return
}

func longestAxis(x, y, z uint16) int {
	axis := 0
	maxVal := x
	if y > maxVal {
		axis = 1
		maxVal = y
	}
	if z > maxVal {
		axis = 2
	}
	return axis
}

func subdivide(items []bvItem, nodes []DtBVNode, curNode *int32) {
	icur := *curNode
	node := &nodes[*curNode]
	*curNode++

	if len(items) == 1 {
		// Leaf
		node.Bmin = items[0].bmin
		node.Bmax = items[0].bmax
		node.I = items[0].i
		return
	}

	// Split
	node.Bmin, node.Bmax = calcExtends(items)
	axis := longestAxis(node.Bmax[0]-node.Bmin[0], node.Bmax[1]-node.Bmin[1], node.Bmax[2]-node.Bmin[2])
	slices.SortFunc(items, func(a, b bvItem) int {
		return int(a.bmin[axis]) - int(b.bmin[axis])
	})

	isplit := len(items) / 2
	subdivide(items[:isplit], nodes, curNode)
	subdivide(items[isplit:], nodes, curNode)

	// Negative index means escape.
	node.I = -(*curNode - icur)
}

func quantize(v, orig, factor float32) uint16 {
	return uint16(common.Clamp((v-orig)*factor, 0, 0xffff))
}

func createBVTree(params *DtNavMeshCreateParams, nodes []DtBVNode) int32 {
	// Build tree
	quantFactor := 1 / params.Cs
	items := make([]bvItem, params.PolyCount)
	nvp := params.Nvp
	for i := int32(0); i < params.PolyCount; i++ {
		it := &items[i]
		it.i = i
		// Calc polygon bounds. Use detail meshes if available.
		if len(params.DetailMeshes) > 0 {
			vb := int32(params.DetailMeshes[i*4+0])
			ndv := int32(params.DetailMeshes[i*4+1])
			var bmin, bmax [3]float32
			copy(bmin[:], common.GetVert3(params.DetailVerts, vb))
			copy(bmax[:], common.GetVert3(params.DetailVerts, vb))
			for j := int32(1); j < ndv; j++ {
				common.Vmin(bmin[:], common.GetVert3(params.DetailVerts, vb+j))
				common.Vmax(bmax[:], common.GetVert3(params.DetailVerts, vb+j))
			}
			// BV-tree uses cs for all dimensions
			for k := 0; k < 3; k++ {
				it.bmin[k] = quantize(bmin[k], params.Bmin[k], quantFactor)
				it.bmax[k] = quantize(bmax[k], params.Bmin[k], quantFactor)
			}
			continue
		}
		p := params.Polys[i*nvp*2:]
		v := common.GetVert3(params.Verts, int32(p[0]))
		copy(it.bmin[:], v)
		copy(it.bmax[:], v)
		for j := int32(1); j < nvp; j++ {
			if p[j] == MESH_NULL_IDX {
				break
			}
			v := common.GetVert3(params.Verts, int32(p[j]))
			for k := 0; k < 3; k++ {
				it.bmin[k] = min(it.bmin[k], v[k])
				it.bmax[k] = max(it.bmax[k], v[k])
			}
		}
		// Remap y
		it.bmin[1] = uint16(math.Floor(float64(float32(it.bmin[1]) * params.Ch / params.Cs)))
		it.bmax[1] = uint16(math.Ceil(float64(float32(it.bmax[1]) * params.Ch / params.Cs)))
	}

	curNode := int32(0)
	subdivide(items, nodes, &curNode)
	return curNode
}

// / Builds navigation mesh tile data from the provided tile creation data.
// / @ingroup detour
// /  @param[in]		params		Tile creation data.
// / @return The tile blob and true when the data was created.
func DtCreateNavMeshData(params *DtNavMeshCreateParams) ([]byte, bool) {
	if params.Nvp > DT_VERTS_PER_POLYGON || params.Nvp < 3 {
		return nil, false
	}
	if params.VertCount >= 0xffff {
		return nil, false
	}
	if params.VertCount == 0 || len(params.Verts) == 0 {
		return nil, false
	}
	if params.PolyCount == 0 || len(params.Polys) == 0 {
		return nil, false
	}
	nvp := params.Nvp

	// Find portal edges which are at tile borders.
	edgeCount := int32(0)
	portalCount := int32(0)
	for i := int32(0); i < params.PolyCount; i++ {
		p := params.Polys[i*2*nvp:]
		for j := int32(0); j < nvp; j++ {
			if p[j] == MESH_NULL_IDX {
				break
			}
			edgeCount++
			if p[nvp+j]&0x8000 != 0 {
				dir := p[nvp+j] & 0xf
				if dir != 0xf {
					portalCount++
				}
			}
		}
	}
	maxLinkCount := edgeCount + portalCount*2

	// Find unique detail vertices.
	uniqueDetailVertCount := int32(0)
	detailTriCount := int32(0)
	if len(params.DetailMeshes) > 0 {
		// Has detail mesh, count unique detail vertex count and use input detail tri count.
		detailTriCount = params.DetailTriCount
		for i := int32(0); i < params.PolyCount; i++ {
			ndv := int32(params.DetailMeshes[i*4+1])
			nv := polyVertCount(params.Polys[i*nvp*2:], nvp)
			uniqueDetailVertCount += ndv - nv
		}
	} else {
		// No input detail mesh, build detail mesh from nav polys.
		for i := int32(0); i < params.PolyCount; i++ {
			detailTriCount += polyVertCount(params.Polys[i*nvp*2:], nvp) - 2
		}
	}

	header := &DtMeshHeader{
		Magic:           DT_NAVMESH_MAGIC,
		Version:         DT_NAVMESH_VERSION,
		X:               params.TileX,
		Y:               params.TileY,
		Layer:           params.TileLayer,
		UserId:          params.UserId,
		PolyCount:       params.PolyCount,
		VertCount:       params.VertCount,
		MaxLinkCount:    maxLinkCount,
		DetailMeshCount: params.PolyCount,
		DetailVertCount: uniqueDetailVertCount,
		DetailTriCount:  detailTriCount,
		WalkableHeight:  params.WalkableHeight,
		WalkableRadius:  params.WalkableRadius,
		WalkableClimb:   params.WalkableClimb,
		Bmin:            params.Bmin,
		Bmax:            params.Bmax,
		BvQuantFactor:   1.0 / params.Cs,
	}

	// Store vertices
	navVerts := make([]float32, 3*params.VertCount)
	for i := int32(0); i < params.VertCount; i++ {
		iv := common.GetVert3(params.Verts, i)
		v := common.GetVert3(navVerts, i)
		v[0] = params.Bmin[0] + float32(iv[0])*params.Cs
		v[1] = params.Bmin[1] + float32(iv[1])*params.Ch
		v[2] = params.Bmin[2] + float32(iv[2])*params.Cs
	}

	// Store polygons
	navPolys := make([]DtPoly, params.PolyCount)
	for i := int32(0); i < params.PolyCount; i++ {
		src := params.Polys[i*nvp*2:]
		p := &navPolys[i]
		p.FirstLink = DT_NULL_LINK
		p.Flags = params.PolyFlags[i]
		p.SetArea(params.PolyAreas[i])
		p.SetType(DT_POLYTYPE_GROUND)
		for j := int32(0); j < nvp; j++ {
			if src[j] == MESH_NULL_IDX {
				break
			}
			p.Verts[j] = src[j]
			if src[nvp+j]&0x8000 != 0 {
				// Border or portal edge.
				switch src[nvp+j] & 0xf {
				case 0xf: // Border
					p.Neis[j] = 0
				case 0: // Portal x-
					p.Neis[j] = DT_EXT_LINK | 4
				case 1: // Portal z+
					p.Neis[j] = DT_EXT_LINK | 2
				case 2: // Portal x+
					p.Neis[j] = DT_EXT_LINK | 0
				case 3: // Portal z-
					p.Neis[j] = DT_EXT_LINK | 6
				}
			} else if src[nvp+j] == MESH_NULL_IDX {
				p.Neis[j] = 0
			} else {
				// Normal connection
				p.Neis[j] = src[nvp+j] + 1
			}
			p.VertCount++
		}
	}

	// Store detail meshes and vertices.
	// The nav polygon vertices are stored as the first vertices on each mesh.
	// We compress the mesh data by skipping them and using the navmesh coordinates.
	navDMeshes := make([]DtPolyDetail, params.PolyCount)
	navDVerts := make([]float32, 0, 3*uniqueDetailVertCount)
	var navDTris []uint8
	if len(params.DetailMeshes) > 0 {
		vbase := uint32(0)
		for i := int32(0); i < params.PolyCount; i++ {
			dtl := &navDMeshes[i]
			vb := params.DetailMeshes[i*4+0]
			ndv := params.DetailMeshes[i*4+1]
			nv := uint32(navPolys[i].VertCount)
			dtl.VertBase = vbase
			dtl.VertCount = uint8(ndv - nv)
			dtl.TriBase = params.DetailMeshes[i*4+2]
			dtl.TriCount = uint8(params.DetailMeshes[i*4+3])
			// Copy vertices except the first 'nv' verts which are equal to nav poly verts.
			if ndv > nv {
				navDVerts = append(navDVerts, params.DetailVerts[(vb+nv)*3:(vb+ndv)*3]...)
				vbase += ndv - nv
			}
		}
		// Store triangles.
		navDTris = append(navDTris, params.DetailTris[:4*params.DetailTriCount]...)
	} else {
		// Create dummy detail mesh by triangulating polys.
		tbase := uint32(0)
		for i := int32(0); i < params.PolyCount; i++ {
			dtl := &navDMeshes[i]
			nv := int32(navPolys[i].VertCount)
			dtl.TriBase = tbase
			dtl.TriCount = uint8(nv - 2)
			// Triangulate polygon (local indices).
			for j := int32(2); j < nv; j++ {
				flags := uint8(1 << 2) // Edge 1-2 is always on the boundary.
				if j == 2 {
					flags |= 1 << 0 // First edge 0-1.
				}
				if j == nv-1 {
					flags |= 1 << 4 // Last edge 2-0.
				}
				navDTris = append(navDTris, 0, uint8(j-1), uint8(j), flags)
				tbase++
			}
		}
	}

	// Store and create BVtree.
	var navBvtree []DtBVNode
	if params.BuildBvTree {
		navBvtree = make([]DtBVNode, params.PolyCount*2)
		header.BvNodeCount = createBVTree(params, navBvtree)
		navBvtree = navBvtree[:header.BvNodeCount]
	}

	return encodeTileData(header, navVerts, navPolys, navDMeshes, navDVerts, navDTris, navBvtree), true
}

func polyVertCount(p []uint16, nvp int32) int32 {
	nv := int32(0)
	for j := int32(0); j < nvp; j++ {
		if p[j] == MESH_NULL_IDX {
			break
		}
		nv++
	}
	return nv
}
