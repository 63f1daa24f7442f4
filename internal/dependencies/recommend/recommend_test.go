package recommend

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/matchmaker/internal/model"
	"github.com/mcoot/matchmaker/internal/storage/memory"
)

var (
	newYork = model.Coord{Latitude: 40.7128, Longitude: -74.0060}
	london  = model.Coord{Latitude: 51.5074, Longitude: -0.1278}
	sydney  = model.Coord{Latitude: -33.8688, Longitude: 151.2093}
)

func TestDistance(t *testing.T) {
	assert.InDelta(t, 5570, Distance(newYork, london), 10)
	assert.InDelta(t, 0, Distance(london, london), 1e-9)
	assert.InDelta(t, Distance(london, sydney), Distance(sydney, london), 1e-9)
}

func TestDistanceMiles(t *testing.T) {
	rec := Recommendation{DistanceKm: 1.609344}
	assert.InDelta(t, 1, rec.DistanceMiles(), 1e-9)
}

type HaversineSuite struct {
	suite.Suite
	storage *memory.Storage
	rec     *Haversine
	ctx     context.Context
}

func TestHaversineSuite(t *testing.T) {
	suite.Run(t, new(HaversineSuite))
}

func (s *HaversineSuite) SetupTest() {
	s.storage = memory.New()
	s.ctx = context.Background()
	s.rec = New(s.storage)

	for _, r := range []*model.Region{
		{ID: "r-us", NameID: "us-east", Coord: newYork},
		{ID: "r-eu", NameID: "eu-west", Coord: london},
		{ID: "r-ap", NameID: "ap-southeast", Coord: sydney},
	} {
		s.Require().NoError(s.storage.SaveRegion(s.ctx, r))
	}
}

func (s *HaversineSuite) TestRanksNearestFirst() {
	paris := model.Coord{Latitude: 48.8566, Longitude: 2.3522}

	recs, err := s.rec.Recommend(s.ctx, paris, []model.RegionID{"r-ap", "r-us", "r-eu"})
	s.Require().NoError(err)
	s.Require().Len(recs, 3)
	s.Equal(model.RegionID("r-eu"), recs[0].RegionID)
	s.Equal(model.RegionID("r-us"), recs[1].RegionID)
	s.Equal(model.RegionID("r-ap"), recs[2].RegionID)
}

func (s *HaversineSuite) TestRestrictsToCandidates() {
	recs, err := s.rec.Recommend(s.ctx, london, []model.RegionID{"r-us", "r-ap"})
	s.Require().NoError(err)
	s.Require().Len(recs, 2)
	s.Equal(model.RegionID("r-us"), recs[0].RegionID)
}

func (s *HaversineSuite) TestSkipsUnknownCandidates() {
	recs, err := s.rec.Recommend(s.ctx, london, []model.RegionID{"r-missing"})
	require.NoError(s.T(), err)
	s.Empty(recs)
}
