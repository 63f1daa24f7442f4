package testutil

import (
	"context"
	"time"

	"github.com/mcoot/matchmaker/internal/model"
	"github.com/mcoot/matchmaker/internal/storage"
)

// Fixture ids
const (
	NamespaceID = model.NamespaceID("ns-test")
	VersionID   = model.VersionID("v-test")

	DefaultModeID = model.GameModeID("gm-default")
	RankedModeID  = model.GameModeID("gm-ranked")

	USEastID = model.RegionID("r-us-east")
	EUWestID = model.RegionID("r-eu-west")
)

// Fixture coordinates
var (
	NewYork = model.Coord{Latitude: 40.7128, Longitude: -74.0060}
	London  = model.Coord{Latitude: 51.5074, Longitude: -0.1278}
)

// Regions returns the fixture regions
func Regions() []*model.Region {
	return []*model.Region{
		{ID: USEastID, NameID: "us-east", DisplayName: "US East", ProviderDisplayName: "Linode", Coord: NewYork},
		{ID: EUWestID, NameID: "eu-west", DisplayName: "EU West", ProviderDisplayName: "Linode", Coord: London},
	}
}

// Version returns the fixture version. "default" is enabled only in us-east
// and serves one HTTPS port; "ranked" is enabled in eu-west then us-east and
// serves a host-network UDP range.
func Version() *model.Version {
	target := uint16(7777)
	return &model.Version{
		ID: VersionID,
		GameModes: []model.GameMode{
			{
				ID:      DefaultModeID,
				NameID:  "default",
				Regions: []model.RegionID{USEastID},
				Ports: []model.PortDecl{{
					Label:         "default",
					TargetPort:    &target,
					ProxyKind:     model.ProxyKindProxied,
					ProxyProtocol: model.ProxyProtocolHTTPS,
				}},
				MaxPlayersNormal: 8,
				MaxPlayersDirect: 10,
				MaxPlayersParty:  12,
			},
			{
				ID:      RankedModeID,
				NameID:  "ranked",
				Regions: []model.RegionID{EUWestID, USEastID},
				Ports: []model.PortDecl{{
					Label:         "voice",
					PortRange:     &model.PortRange{Min: 26000, Max: 26010},
					ProxyKind:     model.ProxyKindDirect,
					ProxyProtocol: model.ProxyProtocolUDP,
				}},
				MaxPlayersNormal: 2,
				MaxPlayersDirect: 2,
				MaxPlayersParty:  2,
			},
		},
	}
}

// SeedNamespace stores the fixture namespace, version and regions
func SeedNamespace(ctx context.Context, s storage.Storage) error {
	for _, r := range Regions() {
		if err := s.SaveRegion(ctx, r); err != nil {
			return err
		}
	}
	if err := s.SaveVersion(ctx, Version()); err != nil {
		return err
	}
	return s.SaveNamespace(ctx, &model.Namespace{
		ID:        NamespaceID,
		NameID:    "test",
		VersionID: VersionID,
	})
}

// SeedSession stores a running session of the given game mode with a run
// exposing every fixture port
func SeedSession(ctx context.Context, s storage.Storage, id model.SessionID, gm model.GameModeID, region model.RegionID, players int) error {
	run := &model.Run{
		ID:       model.RunID("run-" + string(id)),
		RegionID: region,
		ProxiedPorts: []model.ProxiedPort{{
			TargetLabel:      "game_default",
			IngressHostnames: []string{string(id) + ".lobby.example.com"},
			IngressPort:      443,
			Protocol:         model.RunProxyProtocolHTTPS,
		}},
		Networks: []model.Network{{Mode: model.HostNetworkMode, IP: "10.0.0.1"}},
	}
	if err := s.SaveRun(ctx, run); err != nil {
		return err
	}
	if err := s.SaveSession(ctx, &model.Session{
		ID:               id,
		NamespaceID:      NamespaceID,
		RegionID:         region,
		GameModeID:       gm,
		RunID:            run.ID,
		MaxPlayersNormal: 8,
		MaxPlayersDirect: 10,
		MaxPlayersParty:  12,
		CreatedAt:        time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}); err != nil {
		return err
	}
	return s.SetPlayerCount(ctx, id, players)
}
