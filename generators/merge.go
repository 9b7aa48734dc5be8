package generators

import (
	"fmt"
)

// / One triangle soup handed to MergePositionsAndIndices.
type MeshInput struct {
	Positions []float32
	Indices   []int32
}

// / MergePositionsAndIndices joins meshes into one soup, sharing vertices whose
// / coordinates are exactly equal. Triangle order is kept.
func MergePositionsAndIndices(meshes ...MeshInput) (positions []float32, indices []int32, err error) {
	toIndex := map[[3]float32]int32{}
	for mi, m := range meshes {
		nverts := int32(len(m.Positions) / 3)
		for _, src := range m.Indices {
			if src < 0 || src >= nverts {
				return nil, nil, fmt.Errorf("generators: mesh %d: index %d out of range [0,%d)", mi, src, nverts)
			}
			key := [3]float32(m.Positions[src*3 : src*3+3])
			idx, ok := toIndex[key]
			if !ok {
				idx = int32(len(positions) / 3)
				toIndex[key] = idx
				positions = append(positions, key[:]...)
			}
			indices = append(indices, idx)
		}
	}
	return positions, indices, nil
}
