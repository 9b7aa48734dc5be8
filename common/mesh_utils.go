package common

// Prev and Next walk a polygon ring of n vertices.
func Prev[T IT](i, n T) T {
	if i-1 >= 0 {
		return i - 1
	}
	return n - 1
}

func Next[T IT](i, n T) T {
	if i+1 < n {
		return i + 1
	}
	return 0
}

func Area2[T IT](a, b, c []T) T {
	return (b[0]-a[0])*(c[2]-a[2]) - (c[0]-a[0])*(b[2]-a[2])
}

// Returns true iff c is strictly to the left of the directed
// line through a to b.
func Left[T IT](a, b, c []T) bool {
	return Area2(a, b, c) < 0
}

func LeftOn[T IT](a, b, c []T) bool {
	return Area2(a, b, c) <= 0
}

func Collinear[T IT](a, b, c []T) bool {
	return Area2(a, b, c) == 0
}

// Returns true iff ab properly intersects cd: they share
// a point interior to both segments.  The properness of the
// intersection is ensured by using strict leftness.
func IntersectProp[T IT](a, b, c, d []T) bool {
	if Collinear(a, b, c) || Collinear(a, b, d) ||
		Collinear(c, d, a) || Collinear(c, d, b) {
		return false
	}
	return (Left(a, b, c) != Left(a, b, d)) && (Left(c, d, a) != Left(c, d, b))
}

// Returns true iff (a,b,c) are collinear and point c lies
// on the closed segement ab.
func Between[T IT](a, b, c []T) bool {
	if !Collinear(a, b, c) {
		return false
	}
	// If ab not vertical, check betweenness on x; else on y.
	if a[0] != b[0] {
		return ((a[0] <= c[0]) && (c[0] <= b[0])) || ((a[0] >= c[0]) && (c[0] >= b[0]))
	}
	return ((a[2] <= c[2]) && (c[2] <= b[2])) || ((a[2] >= c[2]) && (c[2] >= b[2]))
}

// Returns true iff segments ab and cd intersect, properly or improperly.
func Intersect[T IT](a, b, c, d []T) bool {
	if IntersectProp(a, b, c, d) {
		return true
	}
	return Between(a, b, c) || Between(a, b, d) || Between(c, d, a) || Between(c, d, b)
}

// Vequal2 compares the xz components of two grid vertices.
func Vequal2[T IT](a, b []T) bool {
	return a[0] == b[0] && a[2] == b[2]
}

const (
	triIndexMask   = 0x0fffffff
	triIndexRemove = 0x40000000
)

func triVert(verts []int32, idx int32) []int32 {
	return GetVert4(verts, idx&triIndexMask)
}

// Returns T iff (v_i, v_j) is a proper internal *or* external
// diagonal of P, *ignoring edges incident to v_i and v_j*.
func diagonalie(i, j, n int32, verts, indices []int32, loose bool) bool {
	d0 := triVert(verts, indices[i])
	d1 := triVert(verts, indices[j])
	for k := int32(0); k < n; k++ {
		k1 := Next(k, n)
		if k == i || k1 == i || k == j || k1 == j {
			continue
		}
		p0 := triVert(verts, indices[k])
		p1 := triVert(verts, indices[k1])
		if Vequal2(d0, p0) || Vequal2(d1, p0) || Vequal2(d0, p1) || Vequal2(d1, p1) {
			continue
		}
		if loose {
			if IntersectProp(d0, d1, p0, p1) {
				return false
			}
		} else if Intersect(d0, d1, p0, p1) {
			return false
		}
	}
	return true
}

// Returns true iff the diagonal (i,j) is strictly internal to the
// polygon P in the neighborhood of the i endpoint.
func inCone(i, j, n int32, verts, indices []int32, loose bool) bool {
	pi := triVert(verts, indices[i])
	pj := triVert(verts, indices[j])
	pi1 := triVert(verts, indices[Next(i, n)])
	pin1 := triVert(verts, indices[Prev(i, n)])
	// If P[i] is a convex vertex [ i+1 left or on (i-1,i) ].
	if LeftOn(pin1, pi, pi1) {
		if loose {
			return LeftOn(pi, pj, pin1) && LeftOn(pj, pi, pi1)
		}
		return Left(pi, pj, pin1) && Left(pj, pi, pi1)
	}
	// else P[i] is reflex.
	return !(LeftOn(pi, pj, pi1) && LeftOn(pj, pi, pin1))
}

func Diagonal(i, j, n int32, verts, indices []int32) bool {
	return inCone(i, j, n, verts, indices, false) && diagonalie(i, j, n, verts, indices, false)
}

func DiagonalLoose(i, j, n int32, verts, indices []int32) bool {
	return inCone(i, j, n, verts, indices, true) && diagonalie(i, j, n, verts, indices, true)
}

// Triangulate ear-clips the contour polygon described by indices into verts
// (4 ints per vertex). It returns the triangle count, negated when the
// contour was too broken to finish.
func Triangulate(n int32, verts []int32, indices []int32, tris []int32) int32 {
	ntris := int32(0)
	dst := 0
	// The high bit of the index marks a vertex whose ear can be removed.
	for i := int32(0); i < n; i++ {
		i1 := Next(i, n)
		i2 := Next(i1, n)
		if Diagonal(i, i2, n, verts, indices) {
			indices[i1] |= triIndexRemove
		}
	}

	for n > 3 {
		minLen := int32(-1)
		mini := int32(-1)
		for i := int32(0); i < n; i++ {
			i1 := Next(i, n)
			if indices[i1]&triIndexRemove != 0 {
				p0 := triVert(verts, indices[i])
				p2 := triVert(verts, indices[Next(i1, n)])
				dx := p2[0] - p0[0]
				dy := p2[2] - p0[2]
				l := dx*dx + dy*dy
				if minLen < 0 || l < minLen {
					minLen = l
					mini = i
				}
			}
		}

		if mini == -1 {
			// Overlapping segments, retry with the loose diagonal test.
			for i := int32(0); i < n; i++ {
				i1 := Next(i, n)
				i2 := Next(i1, n)
				if DiagonalLoose(i, i2, n, verts, indices) {
					p0 := triVert(verts, indices[i])
					p2 := triVert(verts, indices[Next(i2, n)])
					dx := p2[0] - p0[0]
					dy := p2[2] - p0[2]
					l := dx*dx + dy*dy
					if minLen < 0 || l < minLen {
						minLen = l
						mini = i
					}
				}
			}
			if mini == -1 {
				return -ntris
			}
		}

		i := mini
		i1 := Next(i, n)
		i2 := Next(i1, n)

		tris[dst] = indices[i] & triIndexMask
		tris[dst+1] = indices[i1] & triIndexMask
		tris[dst+2] = indices[i2] & triIndexMask
		dst += 3
		ntris++

		// Removes P[i1] by copying P[i+1]...P[n-1] left one index.
		n--
		for k := i1; k < n; k++ {
			indices[k] = indices[k+1]
		}
		if i1 >= n {
			i1 = 0
		}
		i = Prev(i1, n)
		// Update diagonal flags.
		if Diagonal(Prev(i, n), i1, n, verts, indices) {
			indices[i] |= triIndexRemove
		} else {
			indices[i] &= triIndexMask
		}
		if Diagonal(i, Next(i1, n), n, verts, indices) {
			indices[i1] |= triIndexRemove
		} else {
			indices[i1] &= triIndexMask
		}
	}

	// Append the remaining triangle.
	tris[dst] = indices[0] & triIndexMask
	tris[dst+1] = indices[1] & triIndexMask
	tris[dst+2] = indices[2] & triIndexMask
	ntris++
	return ntris
}

// DistancePtSeg2D returns the squared xz distance from (x,z) to segment pq on an integer grid.
func DistancePtSeg2D(x, z, px, pz, qx, qz int32) float32 {
	pqx := float32(qx - px)
	pqz := float32(qz - pz)
	dx := float32(x - px)
	dz := float32(z - pz)
	d := pqx*pqx + pqz*pqz
	t := pqx*dx + pqz*dz
	if d > 0 {
		t /= d
	}
	t = Clamp(t, 0, 1)
	dx = float32(px) + t*pqx - float32(x)
	dz = float32(pz) + t*pqz - float32(z)
	return dx*dx + dz*dz
}
