package geo

import (
	"fmt"

	"github.com/ringsaturn/tzf"

	"github.com/pkeller/tripstitch/internal/domain"
)

// ZoneResolver maps coordinates to IANA timezone names using an embedded
// polygon dataset. Resolution is fully offline, so it never fails for
// transport reasons, only for coordinates outside the dataset (open ocean).
type ZoneResolver struct {
	finder tzf.F
}

// NewZoneResolver builds a resolver over the default compressed dataset.
// Construction is expensive (tens of MB decompressed); build one at startup
// and share it.
func NewZoneResolver() (*ZoneResolver, error) {
	finder, err := tzf.NewDefaultFinder()
	if err != nil {
		return nil, fmt.Errorf("geo.NewZoneResolver: %w", err)
	}
	return &ZoneResolver{finder: finder}, nil
}

// Resolve returns the IANA zone name at the given coordinates, or
// domain.ErrNotFound when the point falls outside every known zone polygon.
func (z *ZoneResolver) Resolve(lat, lng float64) (string, error) {
	name := z.finder.GetTimezoneName(lng, lat)
	if name == "" {
		return "", fmt.Errorf("geo.ZoneResolver.Resolve: (%f, %f): %w", lat, lng, domain.ErrNotFound)
	}
	return name, nil
}
