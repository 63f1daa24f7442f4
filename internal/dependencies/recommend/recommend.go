// Package recommend ranks regions by their distance from a client.
package recommend

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/mcoot/matchmaker/internal/model"
)

const (
	earthRadiusKm = 6371.0
	kmPerMile     = 1.609344
)

// Recommendation is a candidate region with its distance from the client
type Recommendation struct {
	RegionID   model.RegionID
	Coord      model.Coord
	DistanceKm float64
}

// DistanceMiles returns the distance in statute miles
func (r Recommendation) DistanceMiles() float64 {
	return r.DistanceKm / kmPerMile
}

// Recommender ranks candidate regions for a client, nearest first
type Recommender interface {
	Recommend(ctx context.Context, coord model.Coord, candidates []model.RegionID) ([]Recommendation, error)
}

// RegionSource loads region records by id
type RegionSource interface {
	GetRegions(ctx context.Context, ids []model.RegionID) ([]*model.Region, error)
}

// Haversine ranks regions by great-circle distance
type Haversine struct {
	regions RegionSource
}

// New creates a Haversine recommender over the given region source
func New(regions RegionSource) *Haversine {
	return &Haversine{regions: regions}
}

// Recommend returns every known candidate sorted by distance. Unknown
// candidates are skipped; ties keep candidate order.
func (h *Haversine) Recommend(ctx context.Context, coord model.Coord, candidates []model.RegionID) ([]Recommendation, error) {
	regions, err := h.regions.GetRegions(ctx, candidates)
	if err != nil {
		return nil, fmt.Errorf("loading candidate regions: %w", err)
	}

	recs := make([]Recommendation, len(regions))
	for i, r := range regions {
		recs[i] = Recommendation{
			RegionID:   r.ID,
			Coord:      r.Coord,
			DistanceKm: Distance(coord, r.Coord),
		}
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].DistanceKm < recs[j].DistanceKm
	})
	return recs, nil
}

// Distance returns the great-circle distance between a and b in kilometres
func Distance(a, b model.Coord) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := lat2 - lat1
	dLong := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Pow(math.Sin(dLat/2), 2) + math.Cos(lat1)*math.Cos(lat2)*math.Pow(math.Sin(dLong/2), 2)
	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}
