// Package spatial provides nearest-neighbour and radius lookups over
// coordinates, used to snap locations to the graph and to group co-located
// intersection vertices.
package spatial

import (
	"math"
	"sort"
)

const metersPerDegree = 111_320.0

// Entry is an indexed coordinate. ID is chosen by the caller, typically a vertex ID.
type Entry struct {
	ID  int
	Lat float64
	Lng float64
}

// SpatialIndex provides efficient nearest-neighbor lookup for coordinates
type SpatialIndex interface {
	// Nearest finds the entry closest to the given coordinate
	// Returns the entry ID and true if found, or -1 and false if the index is empty
	Nearest(lat, lng float64) (id int, ok bool)

	// Build constructs the spatial index from entries
	Build(entries []Entry)

	// Size returns the number of entries in the index
	Size() int
}

// GridIndex buckets entries into square cells of roughly cellSizeKm.
// Distances are compared in an equirectangular projection scaled at the
// centre latitude of the indexed data.
type GridIndex struct {
	entries    []Entry
	grid       map[gridKey][]int // cell -> positions in entries
	cellSizeKm float64
	cellDeg    float64 // cell size in projected degrees
	lngScale   float64 // cos(centre latitude)
	minLat     float64
	maxLat     float64
	minLng     float64
	maxLng     float64
	latCells   int // highest populated cell index
	lngCells   int
}

type gridKey struct {
	latCell int
	lngCell int
}

// NewGridIndex creates a new grid-based spatial index
// cellSizeKm determines the grid cell size (smaller = more cells, faster lookup but more memory)
func NewGridIndex(cellSizeKm float64) *GridIndex {
	if cellSizeKm <= 0 {
		cellSizeKm = 1.0
	}

	return &GridIndex{
		grid:       make(map[gridKey][]int),
		cellSizeKm: cellSizeKm,
		cellDeg:    cellSizeKm * 1000 / metersPerDegree,
		lngScale:   1,
	}
}

// Build constructs the grid index from entries
func (g *GridIndex) Build(entries []Entry) {
	g.entries = entries
	g.grid = make(map[gridKey][]int)

	if len(entries) == 0 {
		return
	}

	g.minLat, g.maxLat = entries[0].Lat, entries[0].Lat
	g.minLng, g.maxLng = entries[0].Lng, entries[0].Lng
	for _, entry := range entries {
		g.minLat = min(g.minLat, entry.Lat)
		g.maxLat = max(g.maxLat, entry.Lat)
		g.minLng = min(g.minLng, entry.Lng)
		g.maxLng = max(g.maxLng, entry.Lng)
	}

	// Keep the scale away from zero near the poles
	centreLat := (g.minLat + g.maxLat) / 2
	g.lngScale = math.Max(math.Cos(centreLat*math.Pi/180), 0.01)

	top := g.getGridKey(g.maxLat, g.maxLng)
	g.latCells, g.lngCells = top.latCell, top.lngCell

	for pos, entry := range entries {
		key := g.getGridKey(entry.Lat, entry.Lng)
		g.grid[key] = append(g.grid[key], pos)
	}
}

// Size returns the number of entries in the index
func (g *GridIndex) Size() int {
	return len(g.entries)
}

// Nearest finds the nearest entry to the given coordinate
func (g *GridIndex) Nearest(lat, lng float64) (id int, ok bool) {
	if len(g.entries) == 0 {
		return -1, false
	}

	key := g.getGridKey(lat, lng)
	bestPos := -1
	bestDistSq := math.MaxFloat64

	for ring := 0; ring <= g.maxSearchRing(key); ring++ {
		g.visitRing(key, ring, func(pos int) {
			distSq := g.squaredDistance(lat, lng, g.entries[pos])
			if distSq < bestDistSq {
				bestDistSq = distSq
				bestPos = pos
			}
		})

		// Nothing in the next ring can beat the current best
		if bestPos >= 0 && g.minDistanceToRingSq(ring+1) >= bestDistSq {
			break
		}
	}

	if bestPos < 0 {
		return -1, false
	}

	return g.entries[bestPos].ID, true
}

// distIdx holds an entry position and its squared distance for sorting.
type distIdx struct {
	pos    int
	distSq float64
}

// NearestK finds the k nearest entries to the given coordinate using ring expansion.
// Returns entry IDs sorted by distance (closest first).
func (g *GridIndex) NearestK(lat, lng float64, count int) []int {
	if len(g.entries) == 0 || count <= 0 {
		return nil
	}

	key := g.getGridKey(lat, lng)
	var candidates []distIdx

	for ring := 0; ring <= g.maxSearchRing(key); ring++ {
		g.visitRing(key, ring, func(pos int) {
			candidates = append(candidates, distIdx{pos: pos, distSq: g.squaredDistance(lat, lng, g.entries[pos])})
		})

		if len(candidates) >= count {
			sortByDistance(candidates)
			kthDistSq := candidates[count-1].distSq
			if g.minDistanceToRingSq(ring+1) >= kthDistSq {
				break
			}
		}
	}

	sortByDistance(candidates)

	result := make([]int, 0, min(count, len(candidates)))
	for idx := 0; idx < len(candidates) && idx < count; idx++ {
		result = append(result, g.entries[candidates[idx].pos].ID)
	}

	return result
}

// Within returns the IDs of all entries whose distance to the coordinate,
// measured with distance, is at most radiusMeters. Results are sorted by
// distance, ties broken by ID.
func (g *GridIndex) Within(lat, lng, radiusMeters float64, distance func(lat1, lng1, lat2, lng2 float64) float64) []int {
	if len(g.entries) == 0 || radiusMeters < 0 {
		return nil
	}

	key := g.getGridKey(lat, lng)
	// One extra ring absorbs the error of the projection
	rings := int(math.Ceil(radiusMeters/(g.cellSizeKm*1000)/g.lngScale)) + 1

	type hit struct {
		id   int
		dist float64
	}
	var hits []hit
	for ring := 0; ring <= rings; ring++ {
		g.visitRing(key, ring, func(pos int) {
			entry := g.entries[pos]
			if dist := distance(lat, lng, entry.Lat, entry.Lng); dist <= radiusMeters {
				hits = append(hits, hit{id: entry.ID, dist: dist})
			}
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].dist != hits[j].dist {
			return hits[i].dist < hits[j].dist
		}

		return hits[i].id < hits[j].id
	})

	result := make([]int, 0, len(hits))
	for _, h := range hits {
		result = append(result, h.id)
	}

	return result
}

// Entry returns the entry with the given position in build order
func (g *GridIndex) Entry(pos int) (Entry, bool) {
	if pos < 0 || pos >= len(g.entries) {
		return Entry{}, false
	}

	return g.entries[pos], true
}

func (g *GridIndex) getGridKey(lat, lng float64) gridKey {
	latCell := int(math.Floor((lat - g.minLat) / g.cellDeg))
	lngCell := int(math.Floor((lng - g.minLng) * g.lngScale / g.cellDeg))

	return gridKey{latCell: latCell, lngCell: lngCell}
}

// visitRing calls fn for every entry in the cells at Chebyshev distance ring
// from centerKey. Cells outside the populated extent are skipped.
func (g *GridIndex) visitRing(centerKey gridKey, ring int, fn func(pos int)) {
	visit := func(latCell, lngCell int) {
		for _, pos := range g.grid[gridKey{latCell: latCell, lngCell: lngCell}] {
			fn(pos)
		}
	}

	if ring == 0 {
		visit(centerKey.latCell, centerKey.lngCell)

		return
	}

	lngFrom := max(centerKey.lngCell-ring, 0)
	lngTo := min(centerKey.lngCell+ring, g.lngCells)
	for _, latCell := range []int{centerKey.latCell - ring, centerKey.latCell + ring} {
		if latCell < 0 || latCell > g.latCells {
			continue
		}
		for lngCell := lngFrom; lngCell <= lngTo; lngCell++ {
			visit(latCell, lngCell)
		}
	}

	// Side columns without the corners already visited above
	latFrom := max(centerKey.latCell-ring+1, 0)
	latTo := min(centerKey.latCell+ring-1, g.latCells)
	for _, lngCell := range []int{centerKey.lngCell - ring, centerKey.lngCell + ring} {
		if lngCell < 0 || lngCell > g.lngCells {
			continue
		}
		for latCell := latFrom; latCell <= latTo; latCell++ {
			visit(latCell, lngCell)
		}
	}
}

// maxSearchRing is the ring that covers the whole populated extent from key,
// including queries outside of it
func (g *GridIndex) maxSearchRing(key gridKey) int {
	return max(abs(key.latCell), abs(key.lngCell), abs(key.latCell-g.latCells), abs(key.lngCell-g.lngCells)) + 1
}

// minDistanceToRingSq is a lower bound of the squared projected distance from
// any point of the centre cell to any point of the ring
func (g *GridIndex) minDistanceToRingSq(ring int) float64 {
	if ring <= 1 {
		return 0
	}
	dist := float64(ring-1) * g.cellDeg

	return dist * dist
}

func (g *GridIndex) squaredDistance(lat, lng float64, entry Entry) float64 {
	dLat := entry.Lat - lat
	dLng := (entry.Lng - lng) * g.lngScale

	return dLat*dLat + dLng*dLng
}

func sortByDistance(candidates []distIdx) {
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].distSq < candidates[j].distSq
	})
}

func abs(x int) int {
	if x < 0 {
		return -x
	}

	return x
}
