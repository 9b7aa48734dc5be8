package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/gorustyt/navbind/generators"
)

// objMesh is the triangle soup read from a Wavefront OBJ file.
type objMesh struct {
	verts []float32
	tris  []int32
}

func (m *objMesh) vertCount() int { return len(m.verts) / 3 }
func (m *objMesh) triCount() int  { return len(m.tris) / 3 }

// merged shares vertices with equal coordinates, which OBJ exporters often
// duplicate per face or per object.
func (m *objMesh) merged() (*objMesh, error) {
	verts, tris, err := generators.MergePositionsAndIndices(generators.MeshInput{Positions: m.verts, Indices: m.tris})
	if err != nil {
		return nil, err
	}
	return &objMesh{verts: verts, tris: tris}, nil
}

func loadObjFile(path string) (*objMesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	m, err := parseObj(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// parseObj reads v and f lines. Faces with more than three corners are fanned
// around their first corner; texture and normal indices are ignored.
func parseObj(r io.Reader) (*objMesh, error) {
	m := &objMesh{}
	sc := bufio.NewScanner(r)
	for line := 1; sc.Scan(); line++ {
		row := strings.TrimSpace(sc.Text())
		if row == "" || strings.HasPrefix(row, "#") {
			continue
		}
		fields := strings.Fields(row)
		var err error
		switch fields[0] {
		case "v":
			err = m.parseVertex(fields[1:])
		case "f":
			err = m.parseFace(fields[1:])
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *objMesh) parseVertex(ss []string) error {
	if len(ss) < 3 {
		return fmt.Errorf("vertex needs 3 coordinates, got %d", len(ss))
	}
	for _, s := range ss[:3] {
		v, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return fmt.Errorf("vertex: %w", err)
		}
		m.verts = append(m.verts, float32(v))
	}
	return nil
}

func (m *objMesh) parseFace(ss []string) error {
	nverts := m.vertCount()
	face := make([]int32, 0, len(ss))
	for _, s := range ss {
		vs := strings.SplitN(s, "/", 2)
		vi, err := strconv.Atoi(vs[0])
		if err != nil {
			return fmt.Errorf("face: %w", err)
		}
		if vi < 0 {
			vi += nverts
		} else {
			vi--
		}
		if vi < 0 || vi >= nverts {
			return fmt.Errorf("face: vertex %s out of range", vs[0])
		}
		face = append(face, int32(vi))
	}
	for i := 2; i < len(face); i++ {
		m.tris = append(m.tris, face[0], face[i-1], face[i])
	}
	return nil
}
