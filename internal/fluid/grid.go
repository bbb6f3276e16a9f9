package fluid

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Hash multipliers for the three cell axes.
const (
	primeX = 73856093
	primeY = 19349663
	primeZ = 83492791
)

type cellKey struct{ x, y, z int32 }

// Grid is a spatial hash over particle positions. Cells are addressed by
// their exact integer coordinates; the prime hash only picks a starting slot
// in an open-addressing table, so two distinct cells never share a bucket.
//
// Particle indices are stored grouped by cell in one flat slice
// (counting-sort layout). After the first few frames Rebuild does not
// allocate.
type Grid struct {
	cellSize float64
	pos      []r3.Vec

	// open-addressing table, len is a power of two
	keys  []cellKey
	stamp []uint32
	start []int32
	count []int32
	mask  uint32
	gen   uint32

	occupied []int32
	slotOf   []int32
	items    []int32
}

// NewGrid returns an empty grid.
func NewGrid() *Grid {
	return &Grid{}
}

// CellSize is the edge length used by the last Rebuild.
func (g *Grid) CellSize() float64 { return g.cellSize }

func (g *Grid) key(p r3.Vec) cellKey {
	return cellKey{
		x: int32(math.Floor(p.X / g.cellSize)),
		y: int32(math.Floor(p.Y / g.cellSize)),
		z: int32(math.Floor(p.Z / g.cellSize)),
	}
}

func hashKey(k cellKey) uint32 {
	h := uint32(k.x)*primeX ^ uint32(k.y)*primeY ^ uint32(k.z)*primeZ
	h ^= h >> 16
	h *= 0x85ebca6b
	h ^= h >> 13
	return h
}

func (g *Grid) ensure(n int) {
	size := 64
	for size < 2*n {
		size <<= 1
	}
	if size != len(g.keys) {
		g.keys = make([]cellKey, size)
		g.stamp = make([]uint32, size)
		g.start = make([]int32, size)
		g.count = make([]int32, size)
		g.mask = uint32(size - 1)
		g.gen = 0
	}
	if cap(g.slotOf) < n {
		g.slotOf = make([]int32, n)
		g.items = make([]int32, n)
	}
	g.slotOf = g.slotOf[:n]
	g.items = g.items[:n]

	g.gen++
	if g.gen == 0 {
		for i := range g.stamp {
			g.stamp[i] = 0
		}
		g.gen = 1
	}
	g.occupied = g.occupied[:0]
}

// insert returns the slot for k, claiming a fresh one when k is new.
func (g *Grid) insert(k cellKey) int32 {
	h := hashKey(k) & g.mask
	for {
		if g.stamp[h] != g.gen {
			g.stamp[h] = g.gen
			g.keys[h] = k
			g.count[h] = 0
			g.occupied = append(g.occupied, int32(h))
			return int32(h)
		}
		if g.keys[h] == k {
			return int32(h)
		}
		h = (h + 1) & g.mask
	}
}

func (g *Grid) lookup(k cellKey) int32 {
	h := hashKey(k) & g.mask
	for {
		if g.stamp[h] != g.gen {
			return -1
		}
		if g.keys[h] == k {
			return int32(h)
		}
		h = (h + 1) & g.mask
	}
}

// Rebuild clears the grid and buckets every position by
// floor(coord/cellSize). The grid keeps a reference to pos for queries.
func (g *Grid) Rebuild(pos []r3.Vec, cellSize float64) {
	g.cellSize = cellSize
	g.pos = pos
	g.ensure(len(pos))

	for i, p := range pos {
		slot := g.insert(g.key(p))
		g.slotOf[i] = slot
		g.count[slot]++
	}

	var offset int32
	for _, slot := range g.occupied {
		g.start[slot] = offset
		offset += g.count[slot]
		g.count[slot] = 0
	}

	for i, slot := range g.slotOf {
		g.items[g.start[slot]+g.count[slot]] = int32(i)
		g.count[slot]++
	}
}

// QueryNeighbors appends to dst every particle j != i with
// |p_i - p_j| < h and returns the extended slice.
func (g *Grid) QueryNeighbors(i int, h float64, dst []int) []int {
	return g.query(g.pos[i], i, h, dst)
}

// QueryPoint appends every particle strictly closer than radius to p.
func (g *Grid) QueryPoint(p r3.Vec, radius float64, dst []int) []int {
	return g.query(p, -1, radius, dst)
}

func (g *Grid) query(p r3.Vec, self int, radius float64, dst []int) []int {
	if len(g.pos) == 0 {
		return dst
	}
	span := 1.0
	if radius > g.cellSize {
		span = math.Ceil(radius / g.cellSize)
	}
	c := g.key(p)

	// A wide query would visit more empty lattice cells than there are
	// occupied ones; walk the occupied list instead.
	if side := 2*span + 1; side*side*side > float64(len(g.occupied)) {
		for _, slot := range g.occupied {
			k := g.keys[slot]
			if math.Abs(float64(k.x)-float64(c.x)) > span ||
				math.Abs(float64(k.y)-float64(c.y)) > span ||
				math.Abs(float64(k.z)-float64(c.z)) > span {
				continue
			}
			dst = g.collect(slot, p, self, radius, dst)
		}
		return dst
	}

	reach := int32(span)
	for dx := -reach; dx <= reach; dx++ {
		for dy := -reach; dy <= reach; dy++ {
			for dz := -reach; dz <= reach; dz++ {
				slot := g.lookup(cellKey{c.x + dx, c.y + dy, c.z + dz})
				if slot < 0 {
					continue
				}
				dst = g.collect(slot, p, self, radius, dst)
			}
		}
	}
	return dst
}

// collect appends the particles of one cell strictly closer than radius
// to p, skipping self.
func (g *Grid) collect(slot int32, p r3.Vec, self int, radius float64, dst []int) []int {
	r2 := radius * radius
	s := g.start[slot]
	for _, j := range g.items[s : s+g.count[slot]] {
		if int(j) == self {
			continue
		}
		if r3.Norm2(r3.Sub(p, g.pos[j])) < r2 {
			dst = append(dst, int(j))
		}
	}
	return dst
}
