// Package listing lists the joinable sessions of a namespace.
package listing

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/mcoot/matchmaker/internal/dependencies/recommend"
	"github.com/mcoot/matchmaker/internal/model"
	"github.com/mcoot/matchmaker/internal/services/auth"
	"github.com/mcoot/matchmaker/internal/services/region"
	"github.com/mcoot/matchmaker/internal/storage"
)

// GameModeInfo is a listed game mode
type GameModeInfo struct {
	NameID string
}

// RegionInfo is a region with its distance from the client
type RegionInfo struct {
	NameID              string
	DisplayName         string
	ProviderDisplayName string
	Coord               model.Coord
	DistanceKm          float64
	DistanceMiles       float64
}

// LobbyInfo is a listed session
type LobbyInfo struct {
	RegionNameID     string
	GameModeNameID   string
	LobbyID          model.SessionID
	MaxPlayersNormal int
	MaxPlayersDirect int
	MaxPlayersParty  int
	TotalPlayerCount int
}

// Result is the lobby list for a namespace
type Result struct {
	GameModes []GameModeInfo
	Regions   []RegionInfo // nearest first
	Lobbies   []LobbyInfo
}

// Service lists sessions
type Service struct {
	storage     storage.Storage
	recommender recommend.Recommender
	logger      *slog.Logger
}

// New creates a new listing Service
func New(storage storage.Storage, recommender recommend.Recommender, logger *slog.Logger) *Service {
	return &Service{
		storage:     storage,
		recommender: recommender,
		logger:      logger,
	}
}

type meta struct {
	version *model.Version
	regions map[model.RegionID]RegionInfo
	ranked  []RegionInfo
}

type entry struct {
	session *model.Session
	players int
}

// List returns the namespace's game modes, their regions ranked by distance
// from coord, and the sessions worth showing to players
func (s *Service) List(ctx context.Context, ident *auth.Identity, coord model.Coord) (*Result, error) {
	if ident.IsDev() {
		return s.devList(ctx, ident)
	}

	var (
		m       *meta
		entries []entry
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		m, err = s.fetchMeta(gctx, ident.NamespaceID, coord)
		return err
	})
	g.Go(func() error {
		var err error
		entries, err = s.fetchLobbies(gctx, ident.NamespaceID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &Result{
		GameModes: make([]GameModeInfo, len(m.version.GameModes)),
		Regions:   m.ranked,
		Lobbies:   make([]LobbyInfo, 0, len(entries)),
	}
	for i, gm := range m.version.GameModes {
		result.GameModes[i] = GameModeInfo{NameID: gm.NameID}
	}

	for _, e := range visible(m.version, entries) {
		gm := m.version.GameModeByID(e.session.GameModeID)
		r, ok := m.regions[e.session.RegionID]
		if !ok {
			s.logger.Error("listed lobby in unknown region",
				slog.String("lobby_id", string(e.session.ID)),
				slog.String("region_id", string(e.session.RegionID)),
			)
			return nil, fmt.Errorf("%w: lobby %s in unknown region %s", model.ErrInternal, e.session.ID, e.session.RegionID)
		}

		result.Lobbies = append(result.Lobbies, LobbyInfo{
			RegionNameID:     r.NameID,
			GameModeNameID:   gm.NameID,
			LobbyID:          e.session.ID,
			MaxPlayersNormal: e.session.MaxPlayersNormal,
			MaxPlayersDirect: e.session.MaxPlayersDirect,
			MaxPlayersParty:  e.session.MaxPlayersParty,
			TotalPlayerCount: e.players,
		})
	}

	return result, nil
}

// visible drops sessions of game modes the version no longer has, and idle
// sessions unless they are the only session of their game mode
func visible(version *model.Version, entries []entry) []entry {
	perMode := make(map[model.GameModeID]int)
	for _, e := range entries {
		perMode[e.session.GameModeID]++
	}

	out := make([]entry, 0, len(entries))
	for _, e := range entries {
		if version.GameModeByID(e.session.GameModeID) == nil {
			continue
		}
		if e.players == 0 && perMode[e.session.GameModeID] != 1 {
			continue
		}
		out = append(out, e)
	}
	return out
}

func (s *Service) fetchMeta(ctx context.Context, nsID model.NamespaceID, coord model.Coord) (*meta, error) {
	ns, err := s.storage.GetNamespace(ctx, nsID)
	if err != nil {
		return nil, err
	}
	version, err := s.storage.GetVersion(ctx, ns.VersionID)
	if err != nil {
		return nil, err
	}

	regionIDs := region.EnabledRegions(version.GameModes)

	var (
		regions []*model.Region
		recs    []recommend.Recommendation
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		regions, err = s.storage.GetRegions(gctx, regionIDs)
		return err
	})
	g.Go(func() error {
		var err error
		recs, err = s.recommender.Recommend(gctx, coord, regionIDs)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	byID := make(map[model.RegionID]*model.Region, len(regions))
	for _, r := range regions {
		byID[r.ID] = r
	}

	m := &meta{
		version: version,
		regions: make(map[model.RegionID]RegionInfo, len(recs)),
		ranked:  make([]RegionInfo, 0, len(recs)),
	}
	for _, rec := range recs {
		r, ok := byID[rec.RegionID]
		if !ok {
			return nil, fmt.Errorf("%w: recommended region %s not found", model.ErrInternal, rec.RegionID)
		}
		info := RegionInfo{
			NameID:              r.NameID,
			DisplayName:         r.DisplayName,
			ProviderDisplayName: r.ProviderDisplayName,
			Coord:               r.Coord,
			DistanceKm:          rec.DistanceKm,
			DistanceMiles:       rec.DistanceMiles(),
		}
		m.regions[r.ID] = info
		m.ranked = append(m.ranked, info)
	}
	return m, nil
}

func (s *Service) fetchLobbies(ctx context.Context, nsID model.NamespaceID) ([]entry, error) {
	ids, err := s.storage.ListSessionIDs(ctx, nsID)
	if err != nil {
		return nil, err
	}

	var (
		sessions []*model.Session
		counts   map[model.SessionID]int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		sessions, err = s.storage.GetSessions(gctx, ids)
		return err
	})
	g.Go(func() error {
		var err error
		counts, err = s.storage.GetPlayerCounts(gctx, ids)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	slices.SortFunc(sessions, func(a, b *model.Session) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	entries := make([]entry, len(sessions))
	for i, session := range sessions {
		entries[i] = entry{session: session, players: counts[session.ID]}
	}
	return entries, nil
}

// devList lists one placeholder session per game mode in the local region
func (s *Service) devList(ctx context.Context, ident *auth.Identity) (*Result, error) {
	ns, err := s.storage.GetNamespace(ctx, ident.NamespaceID)
	if err != nil {
		return nil, err
	}
	version, err := s.storage.GetVersion(ctx, ns.VersionID)
	if err != nil {
		return nil, err
	}

	result := &Result{
		GameModes: make([]GameModeInfo, len(version.GameModes)),
		Regions: []RegionInfo{{
			NameID:              model.DevRegionID,
			DisplayName:         model.DevRegionDisplayName,
			ProviderDisplayName: model.DevProviderName,
		}},
		Lobbies: make([]LobbyInfo, len(version.GameModes)),
	}
	for i, gm := range version.GameModes {
		result.GameModes[i] = GameModeInfo{NameID: gm.NameID}
		result.Lobbies[i] = LobbyInfo{
			RegionNameID:     model.DevRegionID,
			GameModeNameID:   gm.NameID,
			LobbyID:          model.NilSessionID,
			MaxPlayersNormal: gm.MaxPlayersNormal,
			MaxPlayersDirect: gm.MaxPlayersDirect,
			MaxPlayersParty:  gm.MaxPlayersParty,
		}
	}
	return result, nil
}
