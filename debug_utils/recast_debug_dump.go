package debug_utils

import (
	"bufio"
	"fmt"
	"io"

	"github.com/gorustyt/navbind/recast"
)

// / Writes the polygon mesh as a Wavefront OBJ, triangulated as fans.
func DuDumpPolyMeshToObj(pmesh *recast.RcPolyMesh, w io.Writer) error {
	if pmesh == nil || w == nil {
		return fmt.Errorf("debug_utils: dump poly mesh: nil input")
	}
	bw := bufio.NewWriter(w)
	nvp := pmesh.Nvp
	cs, ch := pmesh.Cs, pmesh.Ch
	orig := pmesh.Bmin

	fmt.Fprint(bw, "# Recast Navmesh\no NavMesh\n\n")
	for i := int32(0); i < pmesh.Nverts; i++ {
		v := pmesh.Verts[i*3:]
		x := orig[0] + float32(v[0])*cs
		y := orig[1] + float32(v[1]+1)*ch + 0.1
		z := orig[2] + float32(v[2])*cs
		fmt.Fprintf(bw, "v %f %f %f\n", x, y, z)
	}
	fmt.Fprint(bw, "\n")
	for i := int32(0); i < pmesh.Npolys; i++ {
		p := pmesh.Poly(i)
		for j := int32(2); j < nvp; j++ {
			if p[j] == recast.RC_MESH_NULL_IDX {
				break
			}
			fmt.Fprintf(bw, "f %d %d %d\n", int(p[0])+1, int(p[j-1])+1, int(p[j])+1)
		}
	}
	return bw.Flush()
}

func DuDumpPolyMeshDetailToObj(dmesh *recast.RcPolyMeshDetail, w io.Writer) error {
	if dmesh == nil || w == nil {
		return fmt.Errorf("debug_utils: dump detail mesh: nil input")
	}
	bw := bufio.NewWriter(w)
	fmt.Fprint(bw, "# Recast Navmesh\no NavMesh\n\n")
	for i := int32(0); i < dmesh.Nverts; i++ {
		v := dmesh.Verts[i*3:]
		fmt.Fprintf(bw, "v %f %f %f\n", v[0], v[1], v[2])
	}
	fmt.Fprint(bw, "\n")
	for i := int32(0); i < dmesh.Nmeshes; i++ {
		m := dmesh.Meshes[i*4:]
		bverts := m[0]
		tris := dmesh.Tris[m[2]*4:]
		for j := uint32(0); j < m[3]; j++ {
			fmt.Fprintf(bw, "f %d %d %d\n",
				bverts+uint32(tris[j*4+0])+1,
				bverts+uint32(tris[j*4+1])+1,
				bverts+uint32(tris[j*4+2])+1)
		}
	}
	return bw.Flush()
}
