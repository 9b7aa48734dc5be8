package detour_crowd

import (
	"math"

	"github.com/gorustyt/navbind/common"
)

const proximityNullIdx = 0xffff

type proximityItem struct {
	id   uint16
	x, y int32
	next uint16
}

// / Spatial hash of agent footprints on the xz plane, rebuilt every crowd update.
type DtProximityGrid struct {
	m_cellSize    float32
	m_invCellSize float32
	m_pool        []proximityItem
	m_poolHead    int
	m_buckets     []uint16
	m_bounds      [4]int32
}

func hashPos2(x, y, n int32) int32 {
	return ((x * 73856093) ^ (y * 19349663)) & (n - 1)
}

// / Creates a grid holding at most poolSize cell entries. Returns nil on bad parameters.
func NewDtProximityGrid(poolSize int32, cellSize float32) *DtProximityGrid {
	if poolSize <= 0 || poolSize > proximityNullIdx || cellSize <= 0 {
		return nil
	}
	d := &DtProximityGrid{
		m_cellSize:    cellSize,
		m_invCellSize: 1.0 / cellSize,
		m_pool:        make([]proximityItem, poolSize),
		m_buckets:     make([]uint16, common.NextPow2(uint32(poolSize))),
	}
	d.Clear()
	return d
}

func (d *DtProximityGrid) GetBounds() [4]int32  { return d.m_bounds }
func (d *DtProximityGrid) GetCellSize() float32 { return d.m_cellSize }

func (d *DtProximityGrid) Clear() {
	for i := range d.m_buckets {
		d.m_buckets[i] = proximityNullIdx
	}
	d.m_poolHead = 0
	d.m_bounds = [4]int32{0xffff, 0xffff, -0xffff, -0xffff}
}

func (d *DtProximityGrid) cell(v float32) int32 {
	return int32(math.Floor(float64(v * d.m_invCellSize)))
}

// / Registers id in every cell overlapped by the rectangle. Entries past the pool size are dropped.
func (d *DtProximityGrid) AddItem(id uint16, minx, miny, maxx, maxy float32) {
	iminx, iminy := d.cell(minx), d.cell(miny)
	imaxx, imaxy := d.cell(maxx), d.cell(maxy)

	d.m_bounds[0] = min(d.m_bounds[0], iminx)
	d.m_bounds[1] = min(d.m_bounds[1], iminy)
	d.m_bounds[2] = max(d.m_bounds[2], imaxx)
	d.m_bounds[3] = max(d.m_bounds[3], imaxy)

	n := int32(len(d.m_buckets))
	for y := iminy; y <= imaxy; y++ {
		for x := iminx; x <= imaxx; x++ {
			if d.m_poolHead >= len(d.m_pool) {
				return
			}
			h := hashPos2(x, y, n)
			idx := uint16(d.m_poolHead)
			d.m_poolHead++
			d.m_pool[idx] = proximityItem{id: id, x: x, y: y, next: d.m_buckets[h]}
			d.m_buckets[h] = idx
		}
	}
}

// / Returns the distinct ids registered in cells overlapped by the rectangle, at most maxIds of them.
func (d *DtProximityGrid) QueryItems(minx, miny, maxx, maxy float32, maxIds int) []uint16 {
	iminx, iminy := d.cell(minx), d.cell(miny)
	imaxx, imaxy := d.cell(maxx), d.cell(maxy)

	var ids []uint16
	n := int32(len(d.m_buckets))
	for y := iminy; y <= imaxy; y++ {
		for x := iminx; x <= imaxx; x++ {
			for idx := d.m_buckets[hashPos2(x, y, n)]; idx != proximityNullIdx; idx = d.m_pool[idx].next {
				item := &d.m_pool[idx]
				if item.x != x || item.y != y {
					continue
				}
				found := false
				for _, id := range ids {
					if id == item.id {
						found = true
						break
					}
				}
				if found {
					continue
				}
				if len(ids) >= maxIds {
					return ids
				}
				ids = append(ids, item.id)
			}
		}
	}
	return ids
}

func (d *DtProximityGrid) GetItemCountAt(x, y int32) int {
	n := 0
	for idx := d.m_buckets[hashPos2(x, y, int32(len(d.m_buckets)))]; idx != proximityNullIdx; idx = d.m_pool[idx].next {
		item := &d.m_pool[idx]
		if item.x == x && item.y == y {
			n++
		}
	}
	return n
}
