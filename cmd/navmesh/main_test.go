package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gorustyt/navbind/bind"
	"github.com/gorustyt/navbind/common"
	"github.com/gorustyt/navbind/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const floorObj = `# floor
v 0 0 0
v 10 0 0
v 10 0 10
v 0 0 10
f 1 3 2
f 1/1/1 4/4/4 3/3/3
`

func TestParseObj(t *testing.T) {
	m, err := parseObj(strings.NewReader(floorObj))
	require.NoError(t, err)
	assert.Equal(t, 4, m.vertCount())
	assert.Equal(t, []int32{0, 2, 1, 0, 3, 2}, m.tris)

	m, err = parseObj(strings.NewReader("v 0 0 0\nv 1 0 0\nv 1 0 1\nv 0 0 1\nf -4 -3 -2 -1\n"))
	require.NoError(t, err)
	assert.Equal(t, []int32{0, 1, 2, 0, 2, 3}, m.tris, "quads fan around the first corner")

	tests := []struct {
		name, src, wantErr string
	}{
		{"short vertex", "v 1 2\n", "line 1"},
		{"bad float", "v 1 x 2\n", "vertex"},
		{"out of range", "v 0 0 0\nf 1 2 3\n", "out of range"},
		{"bad index", "v 0 0 0\nf a b c\n", "line 2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseObj(strings.NewReader(tt.src))
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestObjMerged(t *testing.T) {
	// Two faces written with their own corners, as many exporters do.
	src := "v 0 0 0\nv 10 0 0\nv 10 0 10\nv 0 0 0\nv 10 0 10\nv 0 0 10\nf 1 3 2\nf 4 6 5\n"
	m, err := parseObj(strings.NewReader(src))
	require.NoError(t, err)
	require.Equal(t, 6, m.vertCount())

	merged, err := m.merged()
	require.NoError(t, err)
	assert.Equal(t, 4, merged.vertCount())
	assert.Equal(t, 2, merged.triCount())
	assert.Equal(t, []int32{0, 1, 2, 0, 3, 1}, merged.tris)

	bad := &objMesh{verts: []float32{0, 0, 0}, tris: []int32{0, 0, 3}}
	_, err = bad.merged()
	assert.ErrorContains(t, err, "out of range")
}

func TestParseVec3(t *testing.T) {
	v, err := parseVec3("1, 2.5,-3")
	require.NoError(t, err)
	assert.Equal(t, common.Vec3{1, 2.5, -3}, v)

	_, err = parseVec3("1,2")
	assert.Error(t, err)
	_, err = parseVec3("1,b,3")
	assert.Error(t, err)
}

func TestRunRejectsUnknownCommand(t *testing.T) {
	assert.ErrorIs(t, run(nil, &bytes.Buffer{}), errUsage)
	assert.ErrorIs(t, run([]string{"frobnicate"}, &bytes.Buffer{}), errUsage)
	assert.ErrorIs(t, run([]string{"build"}, &bytes.Buffer{}), errUsage)
}

func TestBuildInspectPath(t *testing.T) {
	dir := t.TempDir()
	objPath := filepath.Join(dir, "floor.obj")
	require.NoError(t, os.WriteFile(objPath, []byte(floorObj), 0o644))
	cfgPath := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`{"cs": 0.25, "ch": 0.25, "walkableClimb": 0.5, "tileSize": 16}`), 0o644))

	for _, mode := range []string{"solo", "tiled", "tilecache"} {
		t.Run(mode, func(t *testing.T) {
			out := filepath.Join(dir, mode+".bin")
			png := filepath.Join(dir, mode+".png")
			db := filepath.Join(dir, "navmesh.db")
			var stdout bytes.Buffer
			err := run([]string{"build", "-obj", objPath, "-config", cfgPath, "-mode", mode,
				"-out", out, "-png", png, "-png-size", "64", "-db", db, "-log-level", "error"}, &stdout)
			require.NoError(t, err)
			assert.Contains(t, stdout.String(), "built "+mode+" navmesh")

			pngData, err := os.ReadFile(png)
			require.NoError(t, err)
			assert.True(t, bytes.HasPrefix(pngData, []byte("\x89PNG")))

			stdout.Reset()
			require.NoError(t, run([]string{"inspect", "-in", out}, &stdout))
			assert.Contains(t, stdout.String(), "tiles:")
			if mode == "tilecache" {
				assert.Contains(t, stdout.String(), "set:        tilecache")
			}

			stdout.Reset()
			require.NoError(t, run([]string{"path", "-in", out, "-from", "2,0,2", "-to", "8,0,8"}, &stdout))
			lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
			assert.GreaterOrEqual(t, len(lines), 2)
		})
	}

	s, err := store.Open(filepath.Join(dir, "navmesh.db"))
	require.NoError(t, err)
	defer s.Close()
	records, err := s.List(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "floor", records[0].Name)

	var stdout bytes.Buffer
	require.NoError(t, run([]string{"inspect", "-db", filepath.Join(dir, "navmesh.db"), "-id", records[0].ID.String()}, &stdout))
	assert.Contains(t, stdout.String(), "max tiles:")
}

func TestBuildDumpObj(t *testing.T) {
	dir := t.TempDir()
	objPath := filepath.Join(dir, "floor.obj")
	require.NoError(t, os.WriteFile(objPath, []byte(floorObj), 0o644))
	dump := filepath.Join(dir, "mesh.obj")

	var stdout bytes.Buffer
	require.NoError(t, runBuild(context.Background(), buildOptions{objPath: objPath, mode: "solo", dumpObj: dump}, &stdout))
	m, err := loadObjFile(dump)
	require.NoError(t, err)
	assert.Greater(t, m.triCount(), 0)

	err = runBuild(context.Background(), buildOptions{objPath: objPath, mode: "tiled", dumpObj: dump}, &stdout)
	assert.ErrorContains(t, err, "solo")
}

func TestPathFormats(t *testing.T) {
	dir := t.TempDir()
	objPath := filepath.Join(dir, "floor.obj")
	require.NoError(t, os.WriteFile(objPath, []byte(floorObj), 0o644))
	out := filepath.Join(dir, "floor.bin")
	require.NoError(t, runBuild(context.Background(), buildOptions{objPath: objPath, mode: "solo", outPath: out}, &bytes.Buffer{}))

	var stdout bytes.Buffer
	require.NoError(t, run([]string{"path", "-in", out, "-from", "2,0,2", "-to", "8,0,8", "-format", "json"}, &stdout))
	var decoded struct {
		Success bool        `json:"success"`
		Error   string      `json:"error"`
		Path    [][]float64 `json:"path"`
	}
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &decoded))
	assert.True(t, decoded.Success)
	assert.Empty(t, decoded.Error)
	require.GreaterOrEqual(t, len(decoded.Path), 2)
	last := decoded.Path[len(decoded.Path)-1]
	require.Len(t, last, 3)
	assert.InDelta(t, 8, last[0], 0.01)
	assert.InDelta(t, 8, last[2], 0.01)

	stdout.Reset()
	require.NoError(t, run([]string{"path", "-in", out, "-from", "-50,0,2", "-to", "8,0,8", "-format", "json"}, &stdout),
		"json output reports failures in the record")
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &decoded))
	assert.False(t, decoded.Success)
	assert.Equal(t, string(bind.ComputePathNoStartPoly), decoded.Error)

	stdout.Reset()
	require.NoError(t, run([]string{"path", "-in", out, "-from", "2,0,2", "-to", "8,0,8", "-format", "proto"}, &stdout))
	s, err := bind.Decode(stdout.Bytes())
	require.NoError(t, err)
	assert.Equal(t, true, s.AsMap()["success"])

	err = run([]string{"path", "-in", out, "-from", "-50,0,2", "-to", "8,0,8"}, &bytes.Buffer{})
	assert.ErrorContains(t, err, string(bind.ComputePathNoStartPoly))
	assert.ErrorIs(t, run([]string{"path", "-in", out, "-from", "2,0,2", "-to", "8,0,8", "-format", "xml"}, &bytes.Buffer{}), errUsage)
}
