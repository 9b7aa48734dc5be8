package generators

import (
	"sort"
)

// / Triangles per leaf used by the tiled builds.
const trisPerChunk = 256

// / A node of the xz bounding box tree. Leaves have I >= 0 and own Tris[I*3:(I+N)*3].
// / Interior nodes store the negated number of nodes in their subtree in I.
type ChunkyTriMeshNode struct {
	Bmin, Bmax [2]float32
	I, N       int
}

// / ChunkyTriMesh partitions triangles into spatial chunks so a tile only
// / rasterizes the triangles near it.
type ChunkyTriMesh struct {
	Nodes           []ChunkyTriMeshNode
	Tris            []int32
	MaxTrisPerChunk int
}

type boundsItem struct {
	bmin, bmax [2]float32
	i          int
}

func calcExtends(items []boundsItem) (bmin, bmax [2]float32) {
	bmin, bmax = items[0].bmin, items[0].bmax
	for _, it := range items[1:] {
		bmin[0] = min(bmin[0], it.bmin[0])
		bmin[1] = min(bmin[1], it.bmin[1])
		bmax[0] = max(bmax[0], it.bmax[0])
		bmax[1] = max(bmax[1], it.bmax[1])
	}
	return bmin, bmax
}

func longestAxis(x, y float32) int {
	if y > x {
		return 1
	}
	return 0
}

func (cm *ChunkyTriMesh) subdivide(items []boundsItem, perChunk int, inTris []int32) {
	icur := len(cm.Nodes)
	cm.Nodes = append(cm.Nodes, ChunkyTriMeshNode{})
	bmin, bmax := calcExtends(items)

	if len(items) <= perChunk {
		// Leaf
		node := &cm.Nodes[icur]
		node.Bmin, node.Bmax = bmin, bmax
		node.I = len(cm.Tris) / 3
		node.N = len(items)
		for _, it := range items {
			cm.Tris = append(cm.Tris, inTris[it.i*3:it.i*3+3]...)
		}
		return
	}

	// Split
	axis := longestAxis(bmax[0]-bmin[0], bmax[1]-bmin[1])
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].bmin[axis] < items[j].bmin[axis]
	})
	isplit := len(items) / 2
	cm.subdivide(items[:isplit], perChunk, inTris)
	cm.subdivide(items[isplit:], perChunk, inTris)

	node := &cm.Nodes[icur]
	node.Bmin, node.Bmax = bmin, bmax
	// Negative index means escape.
	node.I = -(len(cm.Nodes) - icur)
}

// / NewChunkyTriMesh builds the tree over the xz bounds of the triangles.
// / Returns nil when there are no triangles.
func NewChunkyTriMesh(verts []float32, tris []int32, perChunk int) *ChunkyTriMesh {
	ntris := len(tris) / 3
	if ntris == 0 || perChunk <= 0 {
		return nil
	}
	nchunks := (ntris + perChunk - 1) / perChunk
	cm := &ChunkyTriMesh{
		Nodes: make([]ChunkyTriMeshNode, 0, nchunks*4),
		Tris:  make([]int32, 0, ntris*3),
	}

	items := make([]boundsItem, ntris)
	for i := range items {
		t := tris[i*3 : i*3+3]
		it := &items[i]
		it.i = i
		// Calc triangle XZ bounds.
		it.bmin = [2]float32{verts[t[0]*3], verts[t[0]*3+2]}
		it.bmax = it.bmin
		for _, v := range t[1:] {
			x, z := verts[v*3], verts[v*3+2]
			it.bmin[0], it.bmax[0] = min(it.bmin[0], x), max(it.bmax[0], x)
			it.bmin[1], it.bmax[1] = min(it.bmin[1], z), max(it.bmax[1], z)
		}
	}

	cm.subdivide(items, perChunk, tris)

	for _, node := range cm.Nodes {
		if node.I >= 0 && node.N > cm.MaxTrisPerChunk {
			cm.MaxTrisPerChunk = node.N
		}
	}
	return cm
}

func checkOverlapRect(amin, amax, bmin, bmax [2]float32) bool {
	return amin[0] <= bmax[0] && amax[0] >= bmin[0] &&
		amin[1] <= bmax[1] && amax[1] >= bmin[1]
}

// / Ids of the leaves whose bounds overlap the xz rect [bmin, bmax].
func (cm *ChunkyTriMesh) ChunksOverlappingRect(bmin, bmax [2]float32) []int {
	if cm == nil {
		return nil
	}
	var ids []int
	for i := 0; i < len(cm.Nodes); {
		node := &cm.Nodes[i]
		overlap := checkOverlapRect(bmin, bmax, node.Bmin, node.Bmax)
		isLeaf := node.I >= 0
		if isLeaf && overlap {
			ids = append(ids, i)
		}
		if overlap || isLeaf {
			i++
		} else {
			i += -node.I
		}
	}
	return ids
}

// / Triangle indices owned by leaf id.
func (cm *ChunkyTriMesh) NodeTris(id int) []int32 {
	node := &cm.Nodes[id]
	return cm.Tris[node.I*3 : (node.I+node.N)*3]
}
