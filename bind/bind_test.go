package bind

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gorustyt/navbind/common"
	"github.com/gorustyt/navbind/detour"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArrayNoLeakAcrossMutations(t *testing.T) {
	tests := []struct {
		name string
		run  func(a *FloatArray)
	}{
		{"copy then copy", func(a *FloatArray) {
			a.Copy([]float32{1, 2, 3}, 3)
			a.Copy([]float32{4, 5}, 2)
		}},
		{"copy then view", func(a *FloatArray) {
			a.Copy([]float32{1, 2, 3}, 3)
			a.View(make([]float32, 8))
		}},
		{"view then resize", func(a *FloatArray) {
			a.View(make([]float32, 8))
			a.Resize(16)
		}},
		{"resize twice", func(a *FloatArray) {
			a.Resize(4)
			a.Resize(2)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracker := &Tracker{}
			a := NewArray[float32](tracker)
			tt.run(a)
			a.Free()
			a.Free()
			assert.Equal(t, tracker.Allocs(), tracker.Frees())
			assert.Zero(t, tracker.LiveBytes())
			assert.Zero(t, tracker.Live())
		})
	}
}

func TestArrayCopyOwnsStorage(t *testing.T) {
	tracker := &Tracker{}
	a := NewArray[int32](tracker)
	src := []int32{7, 8, 9, 10}
	a.Copy(src, 3)
	src[0] = 0

	assert.False(t, a.IsView)
	assert.True(t, a.Owned())
	assert.Equal(t, 3, a.Size)
	assert.Equal(t, []int32{7, 8, 9}, a.Data())
	assert.EqualValues(t, 12, tracker.LiveBytes())

	a.Set(1, 42)
	assert.EqualValues(t, 42, a.Get(1))
	a.Free()
	assert.EqualValues(t, 1, tracker.Frees())
}

func TestArrayViewNeverReleases(t *testing.T) {
	tracker := &Tracker{}
	external := []uint16{0xdead, 0xbeef, 0xcafe}
	a := NewArray[uint16](tracker)
	a.View(external)
	assert.True(t, a.IsView)
	assert.Zero(t, a.Size)

	a.Set(0, 1)
	a.Free()

	assert.Equal(t, []uint16{1, 0xbeef, 0xcafe}, external)
	assert.Zero(t, tracker.Allocs())
	assert.Zero(t, tracker.Frees())
}

func TestArrayResizeZeroes(t *testing.T) {
	a := NewArray[uint8](&Tracker{})
	a.Copy([]uint8{1, 2, 3}, 3)
	a.Resize(5)
	assert.Equal(t, []uint8{0, 0, 0, 0, 0}, a.Data())
	assert.Equal(t, 5, a.Size)
}

func TestArrayDetach(t *testing.T) {
	tracker := &Tracker{}
	a := NewArray[uint8](tracker)
	a.Copy([]uint8{1, 2}, 2)
	data := a.Detach()
	assert.Equal(t, []uint8{1, 2}, data)
	assert.Nil(t, a.Data())
	assert.False(t, a.Owned())

	// Freeing after a detach is a no-op.
	a.Free()
	assert.EqualValues(t, 1, tracker.Frees())
	assert.Zero(t, tracker.Live())
}

func TestArrayDefaultTracker(t *testing.T) {
	before := DefaultTracker.Live()
	a := NewFloatArray([]float32{1, 2})
	assert.Equal(t, before+1, DefaultTracker.Live())
	assert.Same(t, DefaultTracker, a.Allocator())
	a.Free()
	assert.Equal(t, before, DefaultTracker.Live())
}

func TestArrayGetOutOfRangePanics(t *testing.T) {
	a := NewIntArray([]int32{1})
	defer a.Free()
	assert.Panics(t, func() { a.Get(1) })
}

func TestRefs(t *testing.T) {
	var h FloatRef
	h.Set(1.5)
	assert.EqualValues(t, 1.5, h.Get())

	var v Vec3Ref
	v.Set(common.Vec3{1, 2, 3})
	assert.Equal(t, common.Vec3{1, 2, 3}, v.Value)

	var b BoolRef
	assert.False(t, b.Get())
}

func TestToStruct(t *testing.T) {
	res := FindNearestPolyResult{
		Status:       detour.DT_SUCCESS,
		NearestRef:   5,
		NearestPoint: common.Vec3{1, 0.5, 2},
		IsOverPoly:   true,
	}
	s, err := ToStruct(res)
	require.NoError(t, err)
	want := map[string]any{
		"status":       float64(detour.DT_SUCCESS),
		"nearestRef":   float64(5),
		"nearestPoint": []any{1.0, 0.5, 2.0},
		"isOverPoly":   true,
	}
	if diff := cmp.Diff(want, s.AsMap()); diff != "" {
		t.Errorf("ToStruct mismatch (-want +got):\n%s", diff)
	}
}

func TestToStructWithArray(t *testing.T) {
	data := NewArray[uint8](&Tracker{})
	data.Copy([]uint8{3, 4}, 2)
	s, err := ToStruct(&CreateNavMeshDataResult{Success: true, NavMeshData: data})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"success":     true,
		"navMeshData": []any{3.0, 4.0},
	}, s.AsMap())

	_, err = ToStruct(42)
	assert.Error(t, err)
}

func TestJSONAndBinaryRoundTrip(t *testing.T) {
	res := ComputePathResult{
		Success: false,
		Error:   ComputePathNoStartPoly,
		Status:  detour.DT_FAILURE | detour.DT_INVALID_PARAM,
	}
	js, err := ToJSON(res)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(js, &decoded))
	assert.Equal(t, "start_nearest_poly_failed", decoded["error"])
	assert.Nil(t, decoded["path"])

	bin, err := Encode(res)
	require.NoError(t, err)
	back, err := Decode(bin)
	require.NoError(t, err)
	assert.Equal(t, false, back.AsMap()["success"])
	assert.Equal(t, float64(detour.DT_FAILURE|detour.DT_INVALID_PARAM), back.AsMap()["status"])

	_, err = Decode([]byte{0xff, 0xff})
	assert.Error(t, err)
}
