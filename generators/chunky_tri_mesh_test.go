package generators

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gridMesh is an n x n grid of unit quads, two triangles each, with its own
// vertices per quad so every triangle has a unique index triple.
func gridMesh(n int) ([]float32, []int32) {
	var verts []float32
	var tris []int32
	for z := 0; z < n; z++ {
		for x := 0; x < n; x++ {
			base := int32(len(verts) / 3)
			fx, fz := float32(x), float32(z)
			verts = append(verts, fx, 0, fz, fx+1, 0, fz, fx+1, 0, fz+1, fx, 0, fz+1)
			tris = append(tris, base, base+2, base+1, base, base+3, base+2)
		}
	}
	return verts, tris
}

type triKey [3]int32

func overlappingTris(verts []float32, tris []int32, bmin, bmax [2]float32) map[triKey]bool {
	out := map[triKey]bool{}
	for i := 0; i+2 < len(tris); i += 3 {
		minx, minz := verts[tris[i]*3], verts[tris[i]*3+2]
		maxx, maxz := minx, minz
		for _, v := range tris[i+1 : i+3] {
			minx, maxx = min(minx, verts[v*3]), max(maxx, verts[v*3])
			minz, maxz = min(minz, verts[v*3+2]), max(maxz, verts[v*3+2])
		}
		if minx > bmax[0] || maxx < bmin[0] || minz > bmax[1] || maxz < bmin[1] {
			continue
		}
		out[triKey(tris[i:i+3])] = true
	}
	return out
}

func TestChunkyTriMeshLeaves(t *testing.T) {
	verts, tris := gridMesh(20)
	cm := NewChunkyTriMesh(verts, tris, 16)
	require.NotNil(t, cm)
	assert.LessOrEqual(t, cm.MaxTrisPerChunk, 16)
	assert.Len(t, cm.Tris, len(tris), "every triangle lands in exactly one leaf")

	seen := map[triKey]bool{}
	leaves := 0
	for id, node := range cm.Nodes {
		if node.I < 0 {
			assert.LessOrEqual(t, id-node.I, len(cm.Nodes), "escape index stays in the tree")
			continue
		}
		leaves++
		nt := cm.NodeTris(id)
		assert.Len(t, nt, node.N*3)
		for i := 0; i < len(nt); i += 3 {
			k := triKey(nt[i : i+3])
			assert.False(t, seen[k], "triangle %v in two leaves", k)
			seen[k] = true
			for _, v := range k {
				x, z := verts[v*3], verts[v*3+2]
				assert.True(t, x >= node.Bmin[0] && x <= node.Bmax[0] && z >= node.Bmin[1] && z <= node.Bmax[1],
					"leaf %d bounds miss vertex %d", id, v)
			}
		}
	}
	assert.Len(t, seen, len(tris)/3)
	assert.GreaterOrEqual(t, leaves, 800/16)
}

func TestChunksOverlappingRect(t *testing.T) {
	verts, tris := gridMesh(20)
	cm := NewChunkyTriMesh(verts, tris, 16)
	require.NotNil(t, cm)

	rects := []struct {
		name       string
		bmin, bmax [2]float32
	}{
		{"corner", [2]float32{-1, -1}, [2]float32{2.5, 2.5}},
		{"center", [2]float32{8.2, 9.1}, [2]float32{12.7, 11.3}},
		{"thin strip", [2]float32{-5, 4.5}, [2]float32{25, 4.6}},
		{"whole mesh", [2]float32{-1, -1}, [2]float32{21, 21}},
	}
	for _, tt := range rects {
		t.Run(tt.name, func(t *testing.T) {
			got := map[triKey]bool{}
			for _, id := range cm.ChunksOverlappingRect(tt.bmin, tt.bmax) {
				require.GreaterOrEqual(t, cm.Nodes[id].I, 0, "only leaves are returned")
				nt := cm.NodeTris(id)
				for i := 0; i < len(nt); i += 3 {
					got[triKey(nt[i:i+3])] = true
				}
			}
			want := overlappingTris(verts, tris, tt.bmin, tt.bmax)
			require.NotEmpty(t, want)
			for k := range want {
				assert.True(t, got[k], "triangle %v overlaps the rect but no chunk holds it", k)
			}
		})
	}

	assert.Empty(t, cm.ChunksOverlappingRect([2]float32{30, 30}, [2]float32{31, 31}))
	assert.Len(t, cm.ChunksOverlappingRect([2]float32{-1, -1}, [2]float32{21, 21}), countLeaves(cm))
}

func countLeaves(cm *ChunkyTriMesh) int {
	n := 0
	for _, node := range cm.Nodes {
		if node.I >= 0 {
			n++
		}
	}
	return n
}

func TestChunkyTriMeshEmpty(t *testing.T) {
	assert.Nil(t, NewChunkyTriMesh(nil, nil, trisPerChunk))
	var cm *ChunkyTriMesh
	assert.Nil(t, cm.ChunksOverlappingRect([2]float32{0, 0}, [2]float32{1, 1}))

	verts, tris := flatQuad()
	cm = NewChunkyTriMesh(verts, tris, trisPerChunk)
	require.Len(t, cm.Nodes, 1)
	assert.Equal(t, tris, cm.NodeTris(0))
}
