package bind

import "github.com/gorustyt/navbind/common"

// / A boxed output slot written by exactly one call.
// / The value is meaningful only when the status of that call says so.
type Ref[T any] struct {
	Value T
}

type (
	BoolRef          = Ref[bool]
	IntRef           = Ref[int32]
	UnsignedIntRef   = Ref[uint32]
	UnsignedCharRef  = Ref[uint8]
	UnsignedShortRef = Ref[uint16]
	FloatRef         = Ref[float32]
	Vec3Ref          = Ref[common.Vec3]
)

func (r *Ref[T]) Set(v T) { r.Value = v }
func (r *Ref[T]) Get() T  { return r.Value }
