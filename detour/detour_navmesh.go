package detour

import (
	"math"

	"github.com/gorustyt/navbind/common"
)

// / A navigation mesh based on tiles of convex polygons.
// / @ingroup detour
type DtNavMesh struct {
	m_params                  NavMeshParams ///< Current initialization params.
	m_orig                    [3]float32    ///< Origin of the tile (0,0)
	m_tileWidth, m_tileHeight float32       ///< Dimensions of each tile.
	m_maxTiles                int32         ///< Max number of tiles.
	m_tileLutSize             int32         ///< Tile hash lookup size (must be pot).
	m_tileLutMask             int32         ///< Tile hash lookup mask.
	m_posLookup               []*DtMeshTile ///< Tile hash lookup.
	m_nextFree                *DtMeshTile   ///< Freelist of tiles.
	m_tiles                   []DtMeshTile  ///< List of tiles.

	m_saltBits uint32 ///< Number of salt bits in the tile ID.
	m_tileBits uint32 ///< Number of tile bits in the tile ID.
	m_polyBits uint32 ///< Number of poly bits in the tile ID.
}

func NewDtNavMesh() *DtNavMesh {
	return &DtNavMesh{}
}

// / Initializes the navigation mesh for tiled use.
// /  @param[in]	params		Initialization parameters.
// / @return The status flags for the operation.
func (mesh *DtNavMesh) Init(params *NavMeshParams) DtStatus {
	if params.MaxTiles <= 0 || params.MaxPolys <= 0 {
		return DT_FAILURE | DT_INVALID_PARAM
	}
	mesh.m_params = *params
	mesh.m_orig = params.Orig
	mesh.m_tileWidth = params.TileWidth
	mesh.m_tileHeight = params.TileHeight

	// Init tiles
	mesh.m_maxTiles = params.MaxTiles
	mesh.m_tileLutSize = int32(common.NextPow2(uint32(params.MaxTiles / 4)))
	if mesh.m_tileLutSize == 0 {
		mesh.m_tileLutSize = 1
	}
	mesh.m_tileLutMask = mesh.m_tileLutSize - 1

	mesh.m_tiles = make([]DtMeshTile, mesh.m_maxTiles)
	mesh.m_posLookup = make([]*DtMeshTile, mesh.m_tileLutSize)
	mesh.m_nextFree = nil
	for i := mesh.m_maxTiles - 1; i >= 0; i-- {
		mesh.m_tiles[i].Salt = 1
		mesh.m_tiles[i].idx = uint32(i)
		mesh.m_tiles[i].next = mesh.m_nextFree
		mesh.m_nextFree = &mesh.m_tiles[i]
	}

	// Init ID generator values.
	mesh.m_tileBits = common.Ilog2(common.NextPow2(uint32(params.MaxTiles)))
	mesh.m_polyBits = common.Ilog2(common.NextPow2(uint32(params.MaxPolys)))
	// Only allow 31 salt bits, since the salt mask is calculated using 32bit uint and it will overflow.
	if mesh.m_tileBits+mesh.m_polyBits >= DT_REF_BITS {
		return DT_FAILURE | DT_INVALID_PARAM
	}
	mesh.m_saltBits = min(31, DT_REF_BITS-mesh.m_tileBits-mesh.m_polyBits)
	if mesh.m_saltBits < 10 {
		return DT_FAILURE | DT_INVALID_PARAM
	}
	return DT_SUCCESS
}

// / Initializes the navigation mesh for single tile use.
// /  @param[in]	data		Data of the new tile. (See: #dtCreateNavMeshData)
// /  @param[in]	flags		The tile flags. (See: #dtTileFlags)
// / @return The status flags for the operation.
// /  @see dtCreateNavMeshData
func (mesh *DtNavMesh) InitSingle(data []byte, flags int32) DtStatus {
	header, status := DecodeMeshHeader(data)
	if status.Failed() {
		return status
	}
	params := &NavMeshParams{
		Orig:       header.Bmin,
		TileWidth:  header.Bmax[0] - header.Bmin[0],
		TileHeight: header.Bmax[2] - header.Bmin[2],
		MaxTiles:   1,
		MaxPolys:   max(header.PolyCount, 1),
	}
	if status := mesh.Init(params); status.Failed() {
		return status
	}
	_, status = mesh.AddTile(data, flags, 0)
	return status
}

// / The navigation mesh initialization params.
func (mesh *DtNavMesh) GetParams() *NavMeshParams {
	return &mesh.m_params
}

func (mesh *DtNavMesh) GetMaxTiles() int32 {
	return mesh.m_maxTiles
}

// / Gets the tile at the specified index.
func (mesh *DtNavMesh) GetTile(i int32) *DtMeshTile {
	return &mesh.m_tiles[i]
}

// / Derives a standard polygon reference.
// /  @note This function is generally meant for internal use only.
// /  @param[in]	salt	The tile's salt value.
// /  @param[in]	it		The index of the tile.
// /  @param[in]	ip		The index of the polygon within the tile.
func (mesh *DtNavMesh) EncodePolyId(salt, it, ip uint32) DtPolyRef {
	return DtPolyRef(salt<<(mesh.m_polyBits+mesh.m_tileBits) | it<<mesh.m_polyBits | ip)
}

// / Decodes a standard polygon reference.
// /  @note This function is generally meant for internal use only.
// /  @param[in]	ref   The polygon reference to decode.
// /  @param[out]	salt	The tile's salt value.
// /  @param[out]	it		The index of the tile.
// /  @param[out]	ip		The index of the polygon within the tile.
// /  @see #encodePolyId
func (mesh *DtNavMesh) DecodePolyId(ref DtPolyRef) (salt, it, ip uint32) {
	saltMask := uint32(1)<<mesh.m_saltBits - 1
	tileMask := uint32(1)<<mesh.m_tileBits - 1
	polyMask := uint32(1)<<mesh.m_polyBits - 1
	salt = (uint32(ref) >> (mesh.m_polyBits + mesh.m_tileBits)) & saltMask
	it = (uint32(ref) >> mesh.m_polyBits) & tileMask
	ip = uint32(ref) & polyMask
	return
}

// / Extracts a tile's salt value from the specified polygon reference.
func (mesh *DtNavMesh) DecodePolyIdSalt(ref DtPolyRef) uint32 {
	saltMask := uint32(1)<<mesh.m_saltBits - 1
	return (uint32(ref) >> (mesh.m_polyBits + mesh.m_tileBits)) & saltMask
}

// / Extracts the tile's index from the specified polygon reference.
func (mesh *DtNavMesh) DecodePolyIdTile(ref DtPolyRef) uint32 {
	tileMask := uint32(1)<<mesh.m_tileBits - 1
	return (uint32(ref) >> mesh.m_polyBits) & tileMask
}

// / Extracts the polygon's index (within its tile) from the specified polygon reference.
func (mesh *DtNavMesh) DecodePolyIdPoly(ref DtPolyRef) uint32 {
	polyMask := uint32(1)<<mesh.m_polyBits - 1
	return uint32(ref) & polyMask
}

// / Calculates the tile grid location for the specified world position.
func (mesh *DtNavMesh) CalcTileLoc(pos []float32) (tx, ty int32) {
	tx = int32(math.Floor(float64((pos[0] - mesh.m_orig[0]) / mesh.m_tileWidth)))
	ty = int32(math.Floor(float64((pos[2] - mesh.m_orig[2]) / mesh.m_tileHeight)))
	return tx, ty
}

// / Gets the tile for the specified tile reference, or nil if the reference is stale.
func (mesh *DtNavMesh) GetTileByRef(ref DtTileRef) *DtMeshTile {
	if ref == 0 {
		return nil
	}
	tileIndex := mesh.DecodePolyIdTile(DtPolyRef(ref))
	tileSalt := mesh.DecodePolyIdSalt(DtPolyRef(ref))
	if int32(tileIndex) >= mesh.m_maxTiles {
		return nil
	}
	tile := &mesh.m_tiles[tileIndex]
	if tile.Salt != tileSalt || tile.Header == nil {
		return nil
	}
	return tile
}

// / Gets the tile reference for the specified tile.
func (mesh *DtNavMesh) GetTileRef(tile *DtMeshTile) DtTileRef {
	if tile == nil {
		return 0
	}
	return DtTileRef(mesh.EncodePolyId(tile.Salt, tile.idx, 0))
}

// / Gets the polygon reference for the tile's base polygon.
func (mesh *DtNavMesh) GetPolyRefBase(tile *DtMeshTile) DtPolyRef {
	if tile == nil {
		return 0
	}
	return mesh.EncodePolyId(tile.Salt, tile.idx, 0)
}

// / Gets the tile at the specified grid location.
func (mesh *DtNavMesh) GetTileAt(x, y, layer int32) *DtMeshTile {
	// Find tile based on hash.
	h := common.ComputeTileHash(x, y, mesh.m_tileLutMask)
	for tile := mesh.m_posLookup[h]; tile != nil; tile = tile.next {
		if tile.Header != nil && tile.Header.X == x && tile.Header.Y == y && tile.Header.Layer == layer {
			return tile
		}
	}
	return nil
}

// / Gets all tiles at the specified grid location. (All layers.)
func (mesh *DtNavMesh) GetTilesAt(x, y int32, maxTiles int32) []*DtMeshTile {
	var tiles []*DtMeshTile
	// Find tile based on hash.
	h := common.ComputeTileHash(x, y, mesh.m_tileLutMask)
	for tile := mesh.m_posLookup[h]; tile != nil; tile = tile.next {
		if tile.Header != nil && tile.Header.X == x && tile.Header.Y == y {
			if int32(len(tiles)) < maxTiles {
				tiles = append(tiles, tile)
			}
		}
	}
	return tiles
}

// / Gets the tile reference for the tile at specified grid location.
func (mesh *DtNavMesh) GetTileRefAt(x, y, layer int32) DtTileRef {
	return mesh.GetTileRef(mesh.GetTileAt(x, y, layer))
}

func (mesh *DtNavMesh) getNeighbourTilesAt(x, y, side, maxTiles int32) []*DtMeshTile {
	nx, ny := x, y
	switch side {
	case 0:
		nx++
	case 1:
		nx++
		ny++
	case 2:
		ny++
	case 3:
		nx--
		ny++
	case 4:
		nx--
	case 5:
		nx--
		ny--
	case 6:
		ny--
	case 7:
		nx++
		ny--
	}
	return mesh.GetTilesAt(nx, ny, maxTiles)
}

// / Gets the tile and polygon for the specified polygon reference.
func (mesh *DtNavMesh) GetTileAndPolyByRef(ref DtPolyRef) (tile *DtMeshTile, poly *DtPoly, status DtStatus) {
	if ref == 0 {
		return nil, nil, DT_FAILURE | DT_INVALID_PARAM
	}
	salt, it, ip := mesh.DecodePolyId(ref)
	if int32(it) >= mesh.m_maxTiles {
		return nil, nil, DT_FAILURE | DT_INVALID_PARAM
	}
	t := &mesh.m_tiles[it]
	if t.Salt != salt || t.Header == nil {
		return nil, nil, DT_FAILURE | DT_INVALID_PARAM
	}
	if int32(ip) >= t.Header.PolyCount {
		return nil, nil, DT_FAILURE | DT_INVALID_PARAM
	}
	return t, &t.Polys[ip], DT_SUCCESS
}

// / Returns the tile and polygon for the specified polygon reference.
// / @warning Only use this function if it is known that the provided polygon reference is valid.
func (mesh *DtNavMesh) GetTileAndPolyByRefUnsafe(ref DtPolyRef) (tile *DtMeshTile, poly *DtPoly) {
	_, it, ip := mesh.DecodePolyId(ref)
	tile = &mesh.m_tiles[it]
	return tile, &tile.Polys[ip]
}

// / Checks the validity of a polygon reference.
func (mesh *DtNavMesh) IsValidPolyRef(ref DtPolyRef) bool {
	_, _, status := mesh.GetTileAndPolyByRef(ref)
	return status.Succeed()
}

func allocLink(tile *DtMeshTile) uint32 {
	if tile.linksFreeList == DT_NULL_LINK {
		return DT_NULL_LINK
	}
	link := tile.linksFreeList
	tile.linksFreeList = tile.Links[link].Next
	return link
}

func freeLink(tile *DtMeshTile, link uint32) {
	tile.Links[link].Next = tile.linksFreeList
	tile.linksFreeList = link
}

func getSlabCoord(va []float32, side int32) float32 {
	if side == 0 || side == 4 {
		return va[0]
	} else if side == 2 || side == 6 {
		return va[2]
	}
	return 0
}

func calcSlabEndPoints(va, vb []float32, side int32) (bmin, bmax [2]float32) {
	if side == 0 || side == 4 {
		if va[2] < vb[2] {
			bmin = [2]float32{va[2], va[1]}
			bmax = [2]float32{vb[2], vb[1]}
		} else {
			bmin = [2]float32{vb[2], vb[1]}
			bmax = [2]float32{va[2], va[1]}
		}
	} else if side == 2 || side == 6 {
		if va[0] < vb[0] {
			bmin = [2]float32{va[0], va[1]}
			bmax = [2]float32{vb[0], vb[1]}
		} else {
			bmin = [2]float32{vb[0], vb[1]}
			bmax = [2]float32{va[0], va[1]}
		}
	}
	return
}

func overlapSlabs(amin, amax, bmin, bmax [2]float32, px, py float32) bool {
	// Check for horizontal overlap.
	// The segment is shrunken a little so that slabs which touch
	// at end points are not connected.
	minx := max(amin[0]+px, bmin[0]+px)
	maxx := min(amax[0]-px, bmax[0]-px)
	if minx > maxx {
		return false
	}

	// Check vertical overlap.
	ad := (amax[1] - amin[1]) / (amax[0] - amin[0])
	ak := amin[1] - ad*amin[0]
	bd := (bmax[1] - bmin[1]) / (bmax[0] - bmin[0])
	bk := bmin[1] - bd*bmin[0]
	aminy := ad*minx + ak
	amaxy := ad*maxx + ak
	bminy := bd*minx + bk
	bmaxy := bd*maxx + bk
	dmin := bminy - aminy
	dmax := bmaxy - amaxy

	// Crossing segments always overlap.
	if dmin*dmax < 0 {
		return true
	}

	// Check for overlap at endpoints.
	thr := common.Sqr(py * 2)
	return dmin*dmin <= thr || dmax*dmax <= thr
}

// / Returns the polygons of tile whose portal edge on side overlaps the segment va-vb,
// / together with the overlapping sub range of each.
func (mesh *DtNavMesh) findConnectingPolys(va, vb []float32, tile *DtMeshTile, side int32, maxcon int) (con []DtPolyRef, conarea []float32) {
	if tile == nil {
		return nil, nil
	}
	amin, amax := calcSlabEndPoints(va, vb, side)
	apos := getSlabCoord(va, side)

	// Remove links pointing to 'side' and compact the links array.
	m := uint16(DT_EXT_LINK | side)
	base := mesh.GetPolyRefBase(tile)
	for i := int32(0); i < tile.Header.PolyCount; i++ {
		poly := &tile.Polys[i]
		nv := int32(poly.VertCount)
		for j := int32(0); j < nv; j++ {
			// Skip edges which do not point to the right side.
			if poly.Neis[j] != m {
				continue
			}
			vc := common.GetVert3(tile.Verts, int32(poly.Verts[j]))
			vd := common.GetVert3(tile.Verts, int32(poly.Verts[(j+1)%nv]))
			bpos := getSlabCoord(vc, side)

			// Segments are not close enough.
			if common.Abs(apos-bpos) > 0.01 {
				continue
			}

			// Check if the segments touch.
			bmin, bmax := calcSlabEndPoints(vc, vd, side)
			if !overlapSlabs(amin, amax, bmin, bmax, 0.01, tile.Header.WalkableClimb) {
				continue
			}

			// Add return value.
			if len(con) < maxcon {
				conarea = append(conarea, max(amin[0], bmin[0]), min(amax[0], bmax[0]))
				con = append(con, base|DtPolyRef(i))
			}
			break
		}
	}
	return con, conarea
}

func (mesh *DtNavMesh) unconnectLinks(tile, target *DtMeshTile) {
	if tile == nil || target == nil {
		return
	}
	targetNum := mesh.DecodePolyIdTile(DtPolyRef(mesh.GetTileRef(target)))
	for i := int32(0); i < tile.Header.PolyCount; i++ {
		poly := &tile.Polys[i]
		j := poly.FirstLink
		pj := uint32(DT_NULL_LINK)
		for j != DT_NULL_LINK {
			if mesh.DecodePolyIdTile(tile.Links[j].Ref) == targetNum {
				// Remove link.
				nj := tile.Links[j].Next
				if pj == DT_NULL_LINK {
					poly.FirstLink = nj
				} else {
					tile.Links[pj].Next = nj
				}
				freeLink(tile, j)
				j = nj
			} else {
				// Advance
				pj = j
				j = tile.Links[j].Next
			}
		}
	}
}

func (mesh *DtNavMesh) connectExtLinks(tile, target *DtMeshTile, side int32) {
	if tile == nil {
		return
	}
	// Connect border links.
	for i := int32(0); i < tile.Header.PolyCount; i++ {
		poly := &tile.Polys[i]
		nv := int32(poly.VertCount)
		for j := int32(0); j < nv; j++ {
			// Skip non-portal edges.
			if poly.Neis[j]&DT_EXT_LINK == 0 {
				continue
			}
			dir := int32(poly.Neis[j] & 0xff)
			if side != -1 && dir != side {
				continue
			}

			// Create new links
			va := common.GetVert3(tile.Verts, int32(poly.Verts[j]))
			vb := common.GetVert3(tile.Verts, int32(poly.Verts[(j+1)%nv]))
			nei, neia := mesh.findConnectingPolys(va, vb, target, dtOppositeTile(dir), 4)
			for k := range nei {
				idx := allocLink(tile)
				if idx == DT_NULL_LINK {
					continue
				}
				link := &tile.Links[idx]
				link.Ref = nei[k]
				link.Edge = uint8(j)
				link.Side = uint8(dir)
				link.Next = poly.FirstLink
				poly.FirstLink = idx

				// Compress portal limits to a byte value.
				var tmin, tmax float32
				if dir == 0 || dir == 4 {
					tmin = (neia[k*2+0] - va[2]) / (vb[2] - va[2])
					tmax = (neia[k*2+1] - va[2]) / (vb[2] - va[2])
				} else if dir == 2 || dir == 6 {
					tmin = (neia[k*2+0] - va[0]) / (vb[0] - va[0])
					tmax = (neia[k*2+1] - va[0]) / (vb[0] - va[0])
				}
				if tmin > tmax {
					tmin, tmax = tmax, tmin
				}
				link.Bmin = uint8(math.Round(float64(common.Clamp(tmin, 0, 1) * 255)))
				link.Bmax = uint8(math.Round(float64(common.Clamp(tmax, 0, 1) * 255)))
			}
		}
	}
}

func (mesh *DtNavMesh) connectIntLinks(tile *DtMeshTile) {
	if tile == nil {
		return
	}
	base := mesh.GetPolyRefBase(tile)
	for i := int32(0); i < tile.Header.PolyCount; i++ {
		poly := &tile.Polys[i]
		poly.FirstLink = DT_NULL_LINK
		if poly.GetType() == DT_POLYTYPE_OFFMESH_CONNECTION {
			continue
		}

		// Build edge links backwards so that the links will be
		// in the linked list from lowest index to highest.
		for j := int32(poly.VertCount) - 1; j >= 0; j-- {
			// Skip hard and non-internal edges.
			if poly.Neis[j] == 0 || poly.Neis[j]&DT_EXT_LINK != 0 {
				continue
			}
			idx := allocLink(tile)
			if idx == DT_NULL_LINK {
				continue
			}
			link := &tile.Links[idx]
			link.Ref = base | DtPolyRef(poly.Neis[j]-1)
			link.Edge = uint8(j)
			link.Side = 0xff
			link.Bmin = 0
			link.Bmax = 0
			// Add to linked list.
			link.Next = poly.FirstLink
			poly.FirstLink = idx
		}
	}
}

// / Adds a tile to the navigation mesh.
// /  @param[in]		data		Data for the new tile mesh. (See: #dtCreateNavMeshData)
// /  @param[in]		flags		Tile flags. (See: #dtTileFlags)
// /  @param[in]		lastRef		The desired reference for the tile. (When reloading a tile.) [opt] [Default: 0]
// / @return The tile reference and the status flags for the operation.
// /
// / The add operation will fail if the data is in the wrong format, the allocated tile
// / space is full, or there is a tile already at the specified reference.
func (mesh *DtNavMesh) AddTile(data []byte, flags int32, lastRef DtTileRef) (result DtTileRef, status DtStatus) {
	// Make sure the data is in right format.
	parsed, status := decodeTileData(data)
	if status.Failed() {
		return 0, status
	}
	header := parsed.Header

	// Do not allow adding more polygons than specified in the NavMesh's maxPolys constraint.
	// Otherwise, the poly ID cannot be represented with the given number of bits.
	if mesh.m_polyBits < common.Ilog2(common.NextPow2(uint32(header.PolyCount))) {
		return 0, DT_FAILURE | DT_INVALID_PARAM
	}

	// Make sure the location is free.
	if mesh.GetTileAt(header.X, header.Y, header.Layer) != nil {
		return 0, DT_FAILURE | DT_ALREADY_OCCUPIED
	}

	var tile *DtMeshTile
	if lastRef == 0 {
		if mesh.m_nextFree != nil {
			tile = mesh.m_nextFree
			mesh.m_nextFree = tile.next
			tile.next = nil
		}
	} else {
		// Try to relocate the tile to specific index with same salt.
		tileIndex := mesh.DecodePolyIdTile(DtPolyRef(lastRef))
		if int32(tileIndex) >= mesh.m_maxTiles {
			return 0, DT_FAILURE | DT_OUT_OF_MEMORY
		}
		// Try to find the specific tile id from the free list.
		target := &mesh.m_tiles[tileIndex]
		var prev *DtMeshTile
		tile = mesh.m_nextFree
		for tile != nil && tile != target {
			prev = tile
			tile = tile.next
		}
		// Could not find the correct location.
		if tile != target {
			return 0, DT_FAILURE | DT_OUT_OF_MEMORY
		}
		// Remove from freelist
		if prev == nil {
			mesh.m_nextFree = tile.next
		} else {
			prev.next = tile.next
		}
		// Restore salt.
		tile.Salt = mesh.DecodePolyIdSalt(DtPolyRef(lastRef))
	}

	// Make sure we could allocate a tile.
	if tile == nil {
		return 0, DT_FAILURE | DT_OUT_OF_MEMORY
	}

	// Insert tile into the position lut.
	h := common.ComputeTileHash(header.X, header.Y, mesh.m_tileLutMask)
	tile.next = mesh.m_posLookup[h]
	mesh.m_posLookup[h] = tile

	// Patch header pointers.
	tile.Verts = parsed.Verts
	tile.Polys = parsed.Polys
	tile.DetailMeshes = parsed.DetailMeshes
	tile.DetailVerts = parsed.DetailVerts
	tile.DetailTris = parsed.DetailTris
	tile.BvTree = parsed.BvTree

	// Build links freelist
	tile.Links = make([]DtLink, header.MaxLinkCount)
	tile.linksFreeList = DT_NULL_LINK
	if header.MaxLinkCount > 0 {
		tile.linksFreeList = 0
		for i := int32(0); i < header.MaxLinkCount-1; i++ {
			tile.Links[i].Next = uint32(i) + 1
		}
		tile.Links[header.MaxLinkCount-1].Next = DT_NULL_LINK
	}

	// Init tile.
	tile.Header = header
	tile.Data = data
	tile.Flags = flags

	mesh.connectIntLinks(tile)

	// Create connections with neighbour tiles.
	const MAX_NEIS = 32

	// Connect with layers in current tile.
	for _, nei := range mesh.GetTilesAt(header.X, header.Y, MAX_NEIS) {
		if nei == tile {
			continue
		}
		mesh.connectExtLinks(tile, nei, -1)
		mesh.connectExtLinks(nei, tile, -1)
	}

	// Connect with neighbour tiles.
	for i := int32(0); i < 8; i++ {
		for _, nei := range mesh.getNeighbourTilesAt(header.X, header.Y, i, MAX_NEIS) {
			mesh.connectExtLinks(tile, nei, i)
			mesh.connectExtLinks(nei, tile, dtOppositeTile(i))
		}
	}

	return mesh.GetTileRef(tile), DT_SUCCESS
}

// / Removes the specified tile from the navigation mesh.
// /  @param[in]		ref			The reference of the tile to remove.
// / @return The tile data when the caller owns it, and the status flags for the operation.
// /
// / This function returns the data for the tile so that, if desired,
// / it can be added back to the navigation mesh at a later point.
func (mesh *DtNavMesh) RemoveTile(ref DtTileRef) (data []byte, status DtStatus) {
	if ref == 0 {
		return nil, DT_FAILURE | DT_INVALID_PARAM
	}
	tileIndex := mesh.DecodePolyIdTile(DtPolyRef(ref))
	tileSalt := mesh.DecodePolyIdSalt(DtPolyRef(ref))
	if int32(tileIndex) >= mesh.m_maxTiles {
		return nil, DT_FAILURE | DT_INVALID_PARAM
	}
	tile := &mesh.m_tiles[tileIndex]
	if tile.Salt != tileSalt || tile.Header == nil {
		return nil, DT_FAILURE | DT_INVALID_PARAM
	}

	// Remove tile from hash lookup.
	h := common.ComputeTileHash(tile.Header.X, tile.Header.Y, mesh.m_tileLutMask)
	var prev *DtMeshTile
	for cur := mesh.m_posLookup[h]; cur != nil; cur = cur.next {
		if cur == tile {
			if prev != nil {
				prev.next = cur.next
			} else {
				mesh.m_posLookup[h] = cur.next
			}
			break
		}
		prev = cur
	}

	// Remove connections to neighbour tiles.
	const MAX_NEIS = 32

	// Disconnect from other layers in current tile.
	for _, nei := range mesh.GetTilesAt(tile.Header.X, tile.Header.Y, MAX_NEIS) {
		if nei == tile {
			continue
		}
		mesh.unconnectLinks(nei, tile)
	}

	// Disconnect from neighbour tiles.
	for i := int32(0); i < 8; i++ {
		for _, nei := range mesh.getNeighbourTilesAt(tile.Header.X, tile.Header.Y, i, MAX_NEIS) {
			mesh.unconnectLinks(nei, tile)
		}
	}

	if tile.Flags&DT_TILE_FREE_DATA == 0 {
		data = tile.Data
	}

	// Reset tile.
	tile.Header = nil
	tile.Flags = 0
	tile.linksFreeList = 0
	tile.Polys = nil
	tile.Verts = nil
	tile.Links = nil
	tile.DetailMeshes = nil
	tile.DetailVerts = nil
	tile.DetailTris = nil
	tile.BvTree = nil
	tile.Data = nil

	// Update salt, salt should never be zero.
	tile.Salt = (tile.Salt + 1) & (uint32(1)<<mesh.m_saltBits - 1)
	if tile.Salt == 0 {
		tile.Salt++
	}

	// Add to free list.
	tile.next = mesh.m_nextFree
	mesh.m_nextFree = tile

	return data, DT_SUCCESS
}

// / Returns the polygon height at pos, or false when pos is outside the polygon.
func (mesh *DtNavMesh) getPolyHeight(tile *DtMeshTile, ip uint32, pos []float32) (float32, bool) {
	poly := &tile.Polys[ip]
	// Off-mesh connections do not have detail polys and getting height
	// over them does not make sense.
	if poly.GetType() == DT_POLYTYPE_OFFMESH_CONNECTION {
		return 0, false
	}

	nv := int32(poly.VertCount)
	var verts [3 * DT_VERTS_PER_POLYGON]float32
	for i := int32(0); i < nv; i++ {
		copy(verts[i*3:i*3+3], common.GetVert3(tile.Verts, int32(poly.Verts[i])))
	}
	if !dtPointInPolygon(pos, verts[:], nv) {
		return 0, false
	}

	// Find height at the location.
	pd := &tile.DetailMeshes[ip]
	for j := uint32(0); j < uint32(pd.TriCount); j++ {
		t := tile.DetailTris[(pd.TriBase+j)*4:]
		v0 := tile.detailTriVert(poly, pd, t[0])
		v1 := tile.detailTriVert(poly, pd, t[1])
		v2 := tile.detailTriVert(poly, pd, t[2])
		if h, ok := dtClosestHeightPointTriangle(pos, v0, v1, v2); ok {
			return h, true
		}
	}

	// If all triangle checks failed above (can happen with degenerate triangles
	// or larger floating point values) the point is on an edge, so just select
	// closest. This should almost never happen so the extra iteration here is
	// ok.
	closest := closestPointOnDetailEdges(false, tile, ip, pos)
	return closest[1], true
}

func closestPointOnDetailEdges(onlyBoundary bool, tile *DtMeshTile, ip uint32, pos []float32) (closest [3]float32) {
	poly := &tile.Polys[ip]
	pd := &tile.DetailMeshes[ip]

	dmin := float32(math.MaxFloat32)
	tmin := float32(0)
	var pmin, pmax []float32

	const ANY_BOUNDARY_EDGE = DT_DETAIL_EDGE_BOUNDARY<<0 | DT_DETAIL_EDGE_BOUNDARY<<2 | DT_DETAIL_EDGE_BOUNDARY<<4
	for i := uint32(0); i < uint32(pd.TriCount); i++ {
		tris := tile.DetailTris[(pd.TriBase+i)*4:]
		if onlyBoundary && tris[3]&ANY_BOUNDARY_EDGE == 0 {
			continue
		}
		v := [3][]float32{
			tile.detailTriVert(poly, pd, tris[0]),
			tile.detailTriVert(poly, pd, tris[1]),
			tile.detailTriVert(poly, pd, tris[2]),
		}
		for k, j := int32(0), int32(2); k < 3; j, k = k, k+1 {
			if DtGetDetailTriEdgeFlags(tris[3], j)&DT_DETAIL_EDGE_BOUNDARY == 0 &&
				(onlyBoundary || tris[j] < tris[k]) {
				// Only looking at boundary edges and this is internal, or
				// this is an inner edge that we will see again or have already seen.
				continue
			}
			t, d := DtDistancePtSegSqr2D(pos, v[j], v[k])
			if d < dmin {
				dmin = d
				tmin = t
				pmin = v[j]
				pmax = v[k]
			}
		}
	}
	if pmin == nil {
		copy(closest[:], pos)
		return closest
	}
	common.Vlerp(closest[:], pmin, pmax, tmin)
	return closest
}

// / Finds the closest point on the specified polygon.
// / posOverPoly is true when pos lies over the polygon in the xz-plane.
func (mesh *DtNavMesh) closestPointOnPoly(ref DtPolyRef, pos []float32) (closest [3]float32, posOverPoly bool) {
	tile, _ := mesh.GetTileAndPolyByRefUnsafe(ref)
	ip := mesh.DecodePolyIdPoly(ref)
	copy(closest[:], pos)
	if h, ok := mesh.getPolyHeight(tile, ip, pos); ok {
		closest[1] = h
		return closest, true
	}
	return closestPointOnDetailEdges(true, tile, ip, pos), false
}

// / Finds the polygon in tile nearest to center within halfExtents.
func (mesh *DtNavMesh) findNearestPolyInTile(tile *DtMeshTile, center, halfExtents []float32) (nearest DtPolyRef, nearestPt [3]float32) {
	var bmin, bmax [3]float32
	common.Vsub(bmin[:], center, halfExtents)
	common.Vadd(bmax[:], center, halfExtents)

	// Get nearby polygons from proximity grid.
	polys := mesh.queryPolygonsInTile(tile, bmin[:], bmax[:], 128)

	// Find nearest polygon amongst the nearby polygons.
	nearestDistanceSqr := float32(math.MaxFloat32)
	for _, ref := range polys {
		closestPtPoly, posOverPoly := mesh.closestPointOnPoly(ref, center)

		// If a point is directly over a polygon and closer than
		// climb height, favor that instead of straight line nearest point.
		var diff [3]float32
		common.Vsub(diff[:], center, closestPtPoly[:])
		var d float32
		if posOverPoly {
			d = common.Abs(diff[1]) - tile.Header.WalkableClimb
			if d > 0 {
				d = d * d
			} else {
				d = 0
			}
		} else {
			d = common.VlenSqr(diff[:])
		}
		if d < nearestDistanceSqr {
			nearestPt = closestPtPoly
			nearestDistanceSqr = d
			nearest = ref
		}
	}
	return nearest, nearestPt
}

// / Returns the polygons in tile overlapping the query box.
func (mesh *DtNavMesh) queryPolygonsInTile(tile *DtMeshTile, qmin, qmax []float32, maxPolys int) []DtPolyRef {
	var polys []DtPolyRef
	base := mesh.GetPolyRefBase(tile)
	if len(tile.BvTree) > 0 {
		tbmin := tile.Header.Bmin
		tbmax := tile.Header.Bmax
		qfac := tile.Header.BvQuantFactor

		// Calculate quantized box
		var bmin, bmax [3]uint16
		// dtClamp query box to world box.
		minx := common.Clamp(qmin[0], tbmin[0], tbmax[0]) - tbmin[0]
		miny := common.Clamp(qmin[1], tbmin[1], tbmax[1]) - tbmin[1]
		minz := common.Clamp(qmin[2], tbmin[2], tbmax[2]) - tbmin[2]
		maxx := common.Clamp(qmax[0], tbmin[0], tbmax[0]) - tbmin[0]
		maxy := common.Clamp(qmax[1], tbmin[1], tbmax[1]) - tbmin[1]
		maxz := common.Clamp(qmax[2], tbmin[2], tbmax[2]) - tbmin[2]
		// Quantize
		bmin[0] = uint16(int32(qfac*minx) & 0xfffe)
		bmin[1] = uint16(int32(qfac*miny) & 0xfffe)
		bmin[2] = uint16(int32(qfac*minz) & 0xfffe)
		bmax[0] = uint16(int32(qfac*maxx+1) | 1)
		bmax[1] = uint16(int32(qfac*maxy+1) | 1)
		bmax[2] = uint16(int32(qfac*maxz+1) | 1)

		// Traverse tree
		for i := 0; i < len(tile.BvTree); {
			node := &tile.BvTree[i]
			overlap := common.OverlapQuantBounds(bmin[:], bmax[:], node.Bmin[:], node.Bmax[:])
			isLeafNode := node.I >= 0

			if isLeafNode && overlap {
				if len(polys) < maxPolys {
					polys = append(polys, base|DtPolyRef(node.I))
				}
			}
			if overlap || isLeafNode {
				i++
			} else {
				i += int(-node.I)
			}
		}
		return polys
	}

	for i := int32(0); i < tile.Header.PolyCount; i++ {
		p := &tile.Polys[i]
		// Do not return off-mesh connection polygons.
		if p.GetType() == DT_POLYTYPE_OFFMESH_CONNECTION {
			continue
		}
		// Calc polygon bounds.
		var bmin, bmax [3]float32
		v := common.GetVert3(tile.Verts, int32(p.Verts[0]))
		copy(bmin[:], v)
		copy(bmax[:], v)
		for j := int32(1); j < int32(p.VertCount); j++ {
			v = common.GetVert3(tile.Verts, int32(p.Verts[j]))
			common.Vmin(bmin[:], v)
			common.Vmax(bmax[:], v)
		}
		if common.OverlapBounds(qmin, qmax, bmin[:], bmax[:]) {
			if len(polys) < maxPolys {
				polys = append(polys, base|DtPolyRef(i))
			}
		}
	}
	return polys
}

// / Sets the user defined flags for the specified polygon.
func (mesh *DtNavMesh) SetPolyFlags(ref DtPolyRef, flags uint16) DtStatus {
	_, poly, status := mesh.GetTileAndPolyByRef(ref)
	if status.Failed() {
		return status
	}
	poly.Flags = flags
	return DT_SUCCESS
}

// / Gets the user defined flags for the specified polygon.
func (mesh *DtNavMesh) GetPolyFlags(ref DtPolyRef) (uint16, DtStatus) {
	_, poly, status := mesh.GetTileAndPolyByRef(ref)
	if status.Failed() {
		return 0, status
	}
	return poly.Flags, DT_SUCCESS
}

// / Sets the user defined area for the specified polygon.
func (mesh *DtNavMesh) SetPolyArea(ref DtPolyRef, area uint8) DtStatus {
	_, poly, status := mesh.GetTileAndPolyByRef(ref)
	if status.Failed() {
		return status
	}
	poly.SetArea(area)
	return DT_SUCCESS
}

// / Gets the user defined area for the specified polygon.
func (mesh *DtNavMesh) GetPolyArea(ref DtPolyRef) (uint8, DtStatus) {
	_, poly, status := mesh.GetTileAndPolyByRef(ref)
	if status.Failed() {
		return 0, status
	}
	return poly.GetArea(), DT_SUCCESS
}

// / Counts the tiles currently resident in the mesh.
func (mesh *DtNavMesh) GetTileCount() int32 {
	n := int32(0)
	for i := range mesh.m_tiles {
		if mesh.m_tiles[i].Header != nil {
			n++
		}
	}
	return n
}
