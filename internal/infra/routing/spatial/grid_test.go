package spatial

import (
	"testing"

	"streetsearch/internal/infra/routing/geo"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGridIndex_Build(t *testing.T) {
	entries := []Entry{
		{ID: 0, Lat: 25.0330, Lng: 121.5654}, // Taipei 101
		{ID: 1, Lat: 25.0478, Lng: 121.5170}, // Taipei Main Station
		{ID: 2, Lat: 23.5711, Lng: 119.5793}, // Penghu
	}

	index := NewGridIndex(1.0)
	index.Build(entries)

	assert.Equal(t, 3, index.Size())
}

func TestGridIndex_Nearest(t *testing.T) {
	entries := []Entry{
		{ID: 10, Lat: 25.0330, Lng: 121.5654},
		{ID: 11, Lat: 25.0478, Lng: 121.5170},
		{ID: 12, Lat: 24.1500, Lng: 120.6800}, // Taichung
	}

	index := NewGridIndex(1.0)
	index.Build(entries)

	id, ok := index.Nearest(25.0340, 121.5660)
	assert.True(t, ok)
	assert.Equal(t, 10, id)

	id, ok = index.Nearest(25.0480, 121.5175)
	assert.True(t, ok)
	assert.Equal(t, 11, id)

	id, ok = index.Nearest(24.1490, 120.6810)
	assert.True(t, ok)
	assert.Equal(t, 12, id)

	// Far outside the bounding box
	id, ok = index.Nearest(10.0, 100.0)
	assert.True(t, ok)
	assert.Equal(t, 12, id)
}

func TestGridIndex_Nearest_Empty(t *testing.T) {
	index := NewGridIndex(1.0)
	index.Build([]Entry{})

	id, ok := index.Nearest(25.0, 121.0)
	assert.False(t, ok)
	assert.Equal(t, -1, id)
	assert.Nil(t, index.NearestK(25.0, 121.0, 3))
}

func TestGridIndex_Nearest_ScalesLongitude(t *testing.T) {
	// At 60N a degree of longitude is half a degree of latitude, so the
	// eastern entry is closer even though its raw degree offset is larger.
	entries := []Entry{
		{ID: 1, Lat: 60.0090, Lng: 10.0},
		{ID: 2, Lat: 60.0, Lng: 10.0150},
	}

	index := NewGridIndex(0.5)
	index.Build(entries)

	id, ok := index.Nearest(60.0, 10.0)
	require.True(t, ok)
	assert.Equal(t, 2, id)
}

func TestGridIndex_Entry(t *testing.T) {
	entries := []Entry{
		{ID: 0, Lat: 25.0330, Lng: 121.5654},
		{ID: 1, Lat: 25.0478, Lng: 121.5170},
	}

	index := NewGridIndex(1.0)
	index.Build(entries)

	entry, ok := index.Entry(0)
	require.True(t, ok)
	assert.Equal(t, 0, entry.ID)
	assert.InDelta(t, 25.0330, entry.Lat, 0.0001)

	_, ok = index.Entry(-1)
	assert.False(t, ok)

	_, ok = index.Entry(10)
	assert.False(t, ok)
}

func TestGridIndex_NearestK(t *testing.T) {
	var entries []Entry
	for i := range 10 {
		entries = append(entries, Entry{ID: i, Lat: 25.0, Lng: 121.0 + float64(i)*0.001})
	}

	index := NewGridIndex(0.2)
	index.Build(entries)

	got := index.NearestK(25.0, 121.0031, 3)
	assert.Equal(t, []int{3, 4, 2}, got)

	assert.Len(t, index.NearestK(25.0, 121.0, 50), 10)
}

func TestGridIndex_Within(t *testing.T) {
	entries := []Entry{
		{ID: 0, Lat: 25.0, Lng: 121.0},
		{ID: 1, Lat: 25.0, Lng: 121.00005}, // ~5 m east
		{ID: 2, Lat: 25.0001, Lng: 121.0},  // ~11 m north
		{ID: 3, Lat: 25.01, Lng: 121.0},    // ~1.1 km north
	}

	index := NewGridIndex(0.5)
	index.Build(entries)

	assert.Equal(t, []int{0, 1}, index.Within(25.0, 121.0, 8, geo.Haversine))
	assert.Equal(t, []int{0, 1, 2}, index.Within(25.0, 121.0, 20, geo.Haversine))
	assert.Len(t, index.Within(25.0, 121.0, 5000, geo.Haversine), 4)
	assert.Nil(t, index.Within(25.0, 121.0, -1, geo.Haversine))
}

func TestGridIndex_LargeDataset(t *testing.T) {
	var entries []Entry
	id := 0
	for lat := 22.0; lat <= 25.5; lat += 0.1 {
		for lng := 120.0; lng <= 122.0; lng += 0.1 {
			entries = append(entries, Entry{ID: id, Lat: lat, Lng: lng})
			id++
		}
	}

	index := NewGridIndex(0.5)
	index.Build(entries)

	assert.Equal(t, len(entries), index.Size())

	found, ok := index.Nearest(23.51, 121.02)
	require.True(t, ok)

	// Brute force agrees with the grid
	best, bestDist := -1, 0.0
	for _, entry := range entries {
		dist := geo.Haversine(23.51, 121.02, entry.Lat, entry.Lng)
		if best < 0 || dist < bestDist {
			best, bestDist = entry.ID, dist
		}
	}
	assert.Equal(t, best, found)
}

func BenchmarkGridIndex_Nearest(b *testing.B) {
	var entries []Entry
	id := 0
	for lat := 22.0; lat <= 25.5; lat += 0.01 {
		for lng := 120.0; lng <= 122.0; lng += 0.01 {
			entries = append(entries, Entry{ID: id, Lat: lat, Lng: lng})
			id++
		}
	}

	index := NewGridIndex(1.0)
	index.Build(entries)

	b.ResetTimer()
	for b.Loop() {
		index.Nearest(23.5123, 121.0456)
	}
}
