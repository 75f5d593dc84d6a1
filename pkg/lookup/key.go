package lookup

import (
	"fmt"
	"net/netip"
)

// coordPrecision is the number of decimal places kept when a
// coordinate pair becomes a cache key. Four places is roughly 11m at
// the equator, well below the resolution of zone polygons, so nearby
// queries share an entry.
const coordPrecision = 4

// ipKey returns the cache key for a compact address lookup. IPv4-mapped
// IPv6 addresses collapse onto their IPv4 form so both spellings share
// one entry.
func ipKey(addr netip.Addr) string {
	return "ip:" + addr.Unmap().String()
}

// ipFullKey returns the cache key for a v1 (full) address lookup.
func ipFullKey(addr netip.Addr) string {
	return "ipf:" + addr.Unmap().String()
}

// coordKey returns the cache key for a coordinate query.
func coordKey(lat, lon float64) string {
	return fmt.Sprintf("tz:%.*f:%.*f", coordPrecision, lat, coordPrecision, lon)
}
