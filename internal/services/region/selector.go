// Package region picks the regions a find request may be served from.
package region

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mcoot/matchmaker/internal/dependencies/recommend"
	"github.com/mcoot/matchmaker/internal/model"
)

// Directory resolves region names
type Directory interface {
	ResolveRegionNames(ctx context.Context, names []string) ([]*model.Region, error)
}

// Selector resolves requested region names or recommends the nearest region
type Selector struct {
	directory   Directory
	recommender recommend.Recommender
	logger      *slog.Logger
}

// NewSelector creates a new Selector
func NewSelector(directory Directory, recommender recommend.Recommender, logger *slog.Logger) *Selector {
	return &Selector{
		directory:   directory,
		recommender: recommender,
		logger:      logger,
	}
}

// Select returns the region priority list for a request.
//
// When requested is non-nil every name must resolve, and the result has the
// same length and order as requested. When requested is nil the single region
// nearest to coord among those enabled for any of modes is returned.
func (s *Selector) Select(ctx context.Context, requested []string, modes []model.GameMode, coord model.Coord) ([]model.RegionID, error) {
	if requested != nil {
		return s.resolve(ctx, requested)
	}
	return s.recommend(ctx, modes, coord)
}

func (s *Selector) resolve(ctx context.Context, names []string) ([]model.RegionID, error) {
	regions, err := s.directory.ResolveRegionNames(ctx, names)
	if err != nil {
		return nil, fmt.Errorf("resolving regions: %w", err)
	}
	if len(regions) != len(names) {
		return nil, model.ErrRegionNotFound
	}

	ids := make([]model.RegionID, len(regions))
	for i, r := range regions {
		ids[i] = r.ID
	}
	return ids, nil
}

func (s *Selector) recommend(ctx context.Context, modes []model.GameMode, coord model.Coord) ([]model.RegionID, error) {
	candidates := EnabledRegions(modes)

	recs, err := s.recommender.Recommend(ctx, coord, candidates)
	if err != nil {
		return nil, fmt.Errorf("recommending region: %w", err)
	}
	if len(recs) == 0 {
		s.logger.Error("no recommended region",
			slog.Int("candidates", len(candidates)),
		)
		return nil, fmt.Errorf("%w: no recommended region", model.ErrInternal)
	}

	return []model.RegionID{recs[0].RegionID}, nil
}

// EnabledRegions returns the union of the modes' enabled regions in first-seen order
func EnabledRegions(modes []model.GameMode) []model.RegionID {
	seen := make(map[model.RegionID]struct{})
	out := make([]model.RegionID, 0)
	for _, gm := range modes {
		for _, id := range gm.Regions {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}
