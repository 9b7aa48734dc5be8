package bind

import (
	"sync/atomic"
	"unsafe"
)

// / Element types a typed array can carry across the binding boundary.
type Elem interface {
	~uint8 | ~int16 | ~uint16 | ~int32 | ~uint32 | ~float32
}

// / Allocator accounts for the storage owned by arrays.
type Allocator interface {
	OnAlloc(bytes int)
	OnFree(bytes int)
}

// / Tracker counts allocations, releases and live bytes.
type Tracker struct {
	allocs    atomic.Int64
	frees     atomic.Int64
	liveBytes atomic.Int64
}

func (t *Tracker) OnAlloc(bytes int) {
	t.allocs.Add(1)
	t.liveBytes.Add(int64(bytes))
}

func (t *Tracker) OnFree(bytes int) {
	t.frees.Add(1)
	t.liveBytes.Add(-int64(bytes))
}

func (t *Tracker) Allocs() int64    { return t.allocs.Load() }
func (t *Tracker) Frees() int64     { return t.frees.Load() }
func (t *Tracker) LiveBytes() int64 { return t.liveBytes.Load() }

// Live is the number of allocations not yet released.
func (t *Tracker) Live() int64 { return t.Allocs() - t.Frees() }

// / Used by arrays created without an allocator.
var DefaultTracker = &Tracker{}

// / A typed buffer that either owns its storage or views memory owned elsewhere.
// /
// / Every mutating call releases previously owned storage first. Get and Set are
// / unchecked beyond the runtime bounds check.
type Array[T Elem] struct {
	data  []T
	alloc Allocator
	owned bool

	// IsView is set when the array aliases external memory.
	IsView bool
	// Size is the element count of owned storage. Views report 0.
	Size int
}

type (
	UnsignedCharArray  = Array[uint8]
	ShortArray         = Array[int16]
	UnsignedShortArray = Array[uint16]
	IntArray           = Array[int32]
	UnsignedIntArray   = Array[uint32]
	FloatArray         = Array[float32]
)

func NewArray[T Elem](alloc Allocator) *Array[T] {
	if alloc == nil {
		alloc = DefaultTracker
	}
	return &Array[T]{alloc: alloc}
}

func NewFloatArray(src []float32) *FloatArray {
	a := NewArray[float32](nil)
	a.Copy(src, len(src))
	return a
}

func NewIntArray(src []int32) *IntArray {
	a := NewArray[int32](nil)
	a.Copy(src, len(src))
	return a
}

func NewUnsignedCharArray(src []uint8) *UnsignedCharArray {
	a := NewArray[uint8](nil)
	a.Copy(src, len(src))
	return a
}

func (a *Array[T]) allocator() Allocator {
	if a.alloc == nil {
		a.alloc = DefaultTracker
	}
	return a.alloc
}

func elemSize[T Elem]() int {
	var zero T
	return int(unsafe.Sizeof(zero))
}

func (a *Array[T]) own(n int) {
	a.allocator().OnAlloc(n * elemSize[T]())
	a.data = make([]T, n)
	a.owned = true
	a.IsView = false
	a.Size = n
}

// / Duplicates the first count elements of src into freshly owned storage.
func (a *Array[T]) Copy(src []T, count int) {
	a.Free()
	a.own(count)
	copy(a.data, src[:count])
}

// / Aliases src without taking ownership.
func (a *Array[T]) View(src []T) {
	a.Free()
	a.data = src
	a.IsView = true
	a.Size = 0
}

// / Replaces the contents with count zeroed elements.
func (a *Array[T]) Resize(count int) {
	a.Free()
	a.own(count)
}

// / Releases owned storage. Views are only detached, never released.
func (a *Array[T]) Free() {
	if a.owned {
		a.allocator().OnFree(cap(a.data) * elemSize[T]())
	}
	a.data = nil
	a.owned = false
	a.IsView = false
	a.Size = 0
}

// / Hands the owned storage to the callee. The array becomes empty and
// / the release is no longer accounted here.
func (a *Array[T]) Detach() []T {
	data := a.data
	if a.owned {
		a.allocator().OnFree(cap(data) * elemSize[T]())
	}
	a.data = nil
	a.owned = false
	a.IsView = false
	a.Size = 0
	return data
}

func (a *Array[T]) Get(i int) T          { return a.data[i] }
func (a *Array[T]) Set(i int, v T)       { a.data[i] = v }
func (a *Array[T]) Data() []T            { return a.data }
func (a *Array[T]) Owned() bool          { return a.owned }
func (a *Array[T]) Allocator() Allocator { return a.allocator() }
