package scatter

import (
	"slices"

	"github.com/df-mc/foliage/scatter/dither"
)

// Cache holds the latest positions of every region that has any. It is owned
// by the goroutine that ticks the Generator and is not safe for concurrent
// use.
type Cache struct {
	entries map[RegionID]dither.Positions
}

func newCache() *Cache {
	return &Cache{entries: make(map[RegionID]dither.Positions)}
}

// Positions returns the positions installed for a region and true if the
// region has any. The slice is shared and must not be modified.
func (c *Cache) Positions(id RegionID) (dither.Positions, bool) {
	p, ok := c.entries[id]
	return p, ok
}

// Len returns the amount of regions with positions.
func (c *Cache) Len() int {
	return len(c.entries)
}

// Instances returns the total amount of positions across all regions.
func (c *Cache) Instances() int {
	n := 0
	for _, p := range c.entries {
		n += len(p)
	}
	return n
}

// Regions returns the regions with positions in Morton order.
func (c *Cache) Regions() []RegionID {
	ids := make([]RegionID, 0, len(c.entries))
	for id := range c.entries {
		ids = append(ids, id)
	}
	sortMorton(ids)
	return ids
}

func (c *Cache) install(id RegionID, positions dither.Positions) {
	c.entries[id] = positions
}

func (c *Cache) remove(id RegionID) {
	delete(c.entries, id)
}

func sortMorton(ids []RegionID) {
	slices.SortFunc(ids, func(a, b RegionID) int {
		ma, mb := a.Morton(), b.Morton()
		switch {
		case ma < mb:
			return -1
		case ma > mb:
			return 1
		}
		return 0
	})
}
