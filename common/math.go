package common

import (
	"cmp"
	"math"
)

// / Returns the square of the value.
func Sqr[T IT](a T) T {
	return a * a
}

// / Returns the absolute value.
func Abs[T IT](a T) T {
	if a < 0 {
		return -a
	}
	return a
}

// / Clamps the value to the specified range.
// / @param[in]		value			The value to clamp.
// / @param[in]		minInclusive	The minimum permitted return value.
// / @param[in]		maxInclusive	The maximum permitted return value.
// / @return The value, clamped to the specified range.
func Clamp[T cmp.Ordered](value, minInclusive, maxInclusive T) T {
	if value < minInclusive {
		return minInclusive
	}
	if value > maxInclusive {
		return maxInclusive
	}
	return value
}

func Sqrtf(x float32) float32 {
	return float32(math.Sqrt(float64(x)))
}

// / Performs a vector addition. (@p v1 + @p v2)
func Vadd(res, v1, v2 []float32) {
	res[0] = v1[0] + v2[0]
	res[1] = v1[1] + v2[1]
	res[2] = v1[2] + v2[2]
}

// / Performs a vector subtraction. (@p v1 - @p v2)
func Vsub(res, v1, v2 []float32) {
	res[0] = v1[0] - v2[0]
	res[1] = v1[1] - v2[1]
	res[2] = v1[2] - v2[2]
}

// / Scales the vector by the specified value. (@p v * @p t)
func Vscale(res, v []float32, t float32) {
	res[0] = v[0] * t
	res[1] = v[1] * t
	res[2] = v[2] * t
}

// / Performs a scaled vector addition. (@p v1 + (@p v2 * @p s))
func Vmad(res, v1, v2 []float32, s float32) {
	res[0] = v1[0] + v2[0]*s
	res[1] = v1[1] + v2[1]*s
	res[2] = v1[2] + v2[2]*s
}

// / Selects the minimum value of each element from the specified vectors.
func Vmin(mn, v []float32) {
	mn[0] = min(mn[0], v[0])
	mn[1] = min(mn[1], v[1])
	mn[2] = min(mn[2], v[2])
}

// / Selects the maximum value of each element from the specified vectors.
func Vmax(mx, v []float32) {
	mx[0] = max(mx[0], v[0])
	mx[1] = max(mx[1], v[1])
	mx[2] = max(mx[2], v[2])
}

func Vcopy(dest, a []float32) {
	dest[0] = a[0]
	dest[1] = a[1]
	dest[2] = a[2]
}

func Vset(dest []float32, x, y, z float32) {
	dest[0] = x
	dest[1] = y
	dest[2] = z
}

// / Derives the cross product of two vectors. (@p v1 x @p v2)
func Vcross(res, v1, v2 []float32) {
	res[0] = v1[1]*v2[2] - v1[2]*v2[1]
	res[1] = v1[2]*v2[0] - v1[0]*v2[2]
	res[2] = v1[0]*v2[1] - v1[1]*v2[0]
}

func Vdot(v1, v2 []float32) float32 {
	return v1[0]*v2[0] + v1[1]*v2[1] + v1[2]*v2[2]
}

func Vlen(v []float32) float32 {
	return Sqrtf(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

func VlenSqr(v []float32) float32 {
	return v[0]*v[0] + v[1]*v[1] + v[2]*v[2]
}

func Vdist(v1, v2 []float32) float32 {
	return Sqrtf(VdistSqr(v1, v2))
}

func VdistSqr(v1, v2 []float32) float32 {
	dx := v2[0] - v1[0]
	dy := v2[1] - v1[1]
	dz := v2[2] - v1[2]
	return dx*dx + dy*dy + dz*dz
}

// / Derives the distance between the specified points on the xz-plane.
func Vdist2D(v1, v2 []float32) float32 {
	return Sqrtf(Vdist2DSqr(v1, v2))
}

func Vdist2DSqr(v1, v2 []float32) float32 {
	dx := v2[0] - v1[0]
	dz := v2[2] - v1[2]
	return dx*dx + dz*dz
}

// / Normalizes the vector.
func Vnormalize(v []float32) {
	d := Vlen(v)
	if d <= 0 {
		return
	}
	d = 1.0 / d
	v[0] *= d
	v[1] *= d
	v[2] *= d
}

// / Performs a 'sloppy' colocation check of the specified points.
func Vequal(p0, p1 []float32) bool {
	const thr = (1.0 / 16384.0) * (1.0 / 16384.0)
	return VdistSqr(p0, p1) < thr
}

// / Performs a linear interpolation between two vectors. (@p v1 toward @p v2)
func Vlerp(dest, v1, v2 []float32, t float32) {
	dest[0] = v1[0] + (v2[0]-v1[0])*t
	dest[1] = v1[1] + (v2[1]-v1[1])*t
	dest[2] = v1[2] + (v2[2]-v1[2])*t
}

// / Derives the xz-plane 2D perp product of the two vectors. (uz*vx - ux*vz)
func Vperp2D(u, v []float32) float32 {
	return u[2]*v[0] - u[0]*v[2]
}

func Vdot2D(u, v []float32) float32 {
	return u[0]*v[0] + u[2]*v[2]
}

func IsFinite(v float32) bool {
	return !math.IsInf(float64(v), 0) && !math.IsNaN(float64(v))
}

func Visfinite(v []float32) bool {
	return IsFinite(v[0]) && IsFinite(v[1]) && IsFinite(v[2])
}

// / Derives the signed xz-plane area of the triangle ABC, or the relationship of line AB to point C.
func TriArea2D(a, b, c []float32) float32 {
	abx := b[0] - a[0]
	abz := b[2] - a[2]
	acx := c[0] - a[0]
	acz := c[2] - a[2]
	return acx*abz - abx*acz
}

// / Gets the standard width (x-axis) offset for the specified direction.
func GetDirOffsetX(direction int32) int32 {
	offset := [4]int32{-1, 0, 1, 0}
	return offset[direction&0x03]
}

// / Gets the standard height (z-axis) offset for the specified direction.
func GetDirOffsetY(direction int32) int32 {
	offset := [4]int32{0, 1, 0, -1}
	return offset[direction&0x03]
}

// / Gets the direction for the specified offset. One of x and y should be 0.
func GetDirForOffset(offsetX, offsetZ int32) int32 {
	dirs := [5]int32{3, 0, -1, 2, 1}
	return dirs[((offsetZ+1)<<1)+offsetX]
}

func NextPow2(v uint32) uint32 {
	v--
	v |= v >> 1
	v |= v >> 2
	v |= v >> 4
	v |= v >> 8
	v |= v >> 16
	v++
	return v
}

func Ilog2(v uint32) uint32 {
	b2u := func(b bool) uint32 {
		if b {
			return 1
		}
		return 0
	}
	r := b2u(v > 0xffff) << 4
	v >>= r
	shift := b2u(v > 0xff) << 3
	v >>= shift
	r |= shift
	shift = b2u(v > 0xf) << 2
	v >>= shift
	r |= shift
	shift = b2u(v > 0x3) << 1
	v >>= shift
	r |= shift
	r |= v >> 1
	return r
}

// / Determines if two axis-aligned bounding boxes overlap.
func OverlapBounds(amin, amax, bmin, bmax []float32) bool {
	if amin[0] > bmax[0] || amax[0] < bmin[0] {
		return false
	}
	if amin[1] > bmax[1] || amax[1] < bmin[1] {
		return false
	}
	if amin[2] > bmax[2] || amax[2] < bmin[2] {
		return false
	}
	return true
}

// / Determines if two axis-aligned bounding boxes overlap, in quantized space.
func OverlapQuantBounds(amin, amax, bmin, bmax []uint16) bool {
	if amin[0] > bmax[0] || amax[0] < bmin[0] {
		return false
	}
	if amin[1] > bmax[1] || amax[1] < bmin[1] {
		return false
	}
	if amin[2] > bmax[2] || amax[2] < bmin[2] {
		return false
	}
	return true
}

func ComputeTileHash(x, y, mask int32) int32 {
	const h1 uint32 = 0x8da6b343 // Large multiplicative constants;
	const h2 uint32 = 0xd8163841 // here arbitrarily chosen primes
	n := h1*uint32(x) + h2*uint32(y)
	return int32(n & uint32(mask))
}
