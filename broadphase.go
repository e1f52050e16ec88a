package impulse2d

import (
	"math"
	"slices"

	"github.com/gekko3d/impulse2d/collision"
)

type proxy struct {
	aabb    collision.AABB
	fixture *Fixture
}

// BroadPhase is a uniform hashed grid over fixture bounds. It is rebuilt
// from scratch whenever new pairs are searched; proxy ids are only valid
// until the next Clear.
type BroadPhase struct {
	cellSize float64
	// cell hash -> proxy ids, in insertion order
	cells   map[uint64][]int
	proxies []proxy

	// Query scratch: a proxy is seen in the current query when its mark
	// equals stamp.
	marks     []uint32
	stamp     uint32
	results   []int
	neighbors []int
}

func NewBroadPhase(cellSize float64) *BroadPhase {
	return &BroadPhase{
		cellSize: cellSize,
		cells:    make(map[uint64][]int),
	}
}

// Clear drops every proxy. Cell buckets keep their storage for the next
// rebuild.
func (bp *BroadPhase) Clear() {
	for key, ids := range bp.cells {
		bp.cells[key] = ids[:0]
	}
	bp.proxies = bp.proxies[:0]
}

func (bp *BroadPhase) ProxyCount() int { return len(bp.proxies) }

// Insert adds a proxy and returns its id.
func (bp *BroadPhase) Insert(f *Fixture, aabb collision.AABB) int {
	id := len(bp.proxies)
	bp.proxies = append(bp.proxies, proxy{aabb: aabb, fixture: f})

	minX, maxX := bp.cellIndex(aabb.Lower[0]), bp.cellIndex(aabb.Upper[0])
	minY, maxY := bp.cellIndex(aabb.Lower[1]), bp.cellIndex(aabb.Upper[1])
	for x := minX; x <= maxX; x++ {
		for y := minY; y <= maxY; y++ {
			key := hashKey(x, y)
			bp.cells[key] = append(bp.cells[key], id)
		}
	}
	return id
}

// QueryAABB returns the ids of proxies sharing a cell with aabb, in
// ascending order. Candidates are not tested against aabb. The slice is
// reused by the next query.
func (bp *BroadPhase) QueryAABB(aabb collision.AABB) []int {
	if len(bp.marks) < len(bp.proxies) {
		bp.marks = append(bp.marks, make([]uint32, len(bp.proxies)-len(bp.marks))...)
	}
	bp.stamp++
	if bp.stamp == 0 {
		clear(bp.marks)
		bp.stamp = 1
	}
	results := bp.results[:0]

	minX, maxX := bp.cellIndex(aabb.Lower[0]), bp.cellIndex(aabb.Upper[0])
	minY, maxY := bp.cellIndex(aabb.Lower[1]), bp.cellIndex(aabb.Upper[1])
	for x := minX; x <= maxX; x++ {
		for y := minY; y <= maxY; y++ {
			for _, id := range bp.cells[hashKey(x, y)] {
				if bp.marks[id] != bp.stamp {
					bp.marks[id] = bp.stamp
					results = append(results, id)
				}
			}
		}
	}
	slices.Sort(results)
	bp.results = results
	return results
}

func (bp *BroadPhase) TestOverlap(proxyA, proxyB int) bool {
	return bp.proxies[proxyA].aabb.Overlaps(bp.proxies[proxyB].aabb)
}

func (bp *BroadPhase) Fixture(proxyID int) *Fixture {
	return bp.proxies[proxyID].fixture
}

// UpdatePairs calls callback once for every pair of overlapping proxies,
// ordered by the lower proxy id, then the higher.
func (bp *BroadPhase) UpdatePairs(callback func(fixtureA, fixtureB *Fixture)) {
	for a := range bp.proxies {
		bp.neighbors = bp.neighbors[:0]
		for _, b := range bp.QueryAABB(bp.proxies[a].aabb) {
			if b <= a || !bp.TestOverlap(a, b) {
				continue
			}
			bp.neighbors = append(bp.neighbors, b)
		}
		for _, b := range bp.neighbors {
			callback(bp.proxies[a].fixture, bp.proxies[b].fixture)
		}
	}
}

func (bp *BroadPhase) cellIndex(pos float64) int {
	return int(math.Floor(pos / bp.cellSize))
}

// hashKey mixes 2D cell coordinates with large primes. Collisions only cost
// extra candidates.
func hashKey(x, y int) uint64 {
	const p1 = 73856093
	const p2 = 19349663
	return uint64(x*p1 ^ y*p2)
}
