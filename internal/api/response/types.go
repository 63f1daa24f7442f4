package response

import (
	"github.com/mcoot/matchmaker/internal/model"
	"github.com/mcoot/matchmaker/internal/services/listing"
)

// PortRange is an inclusive port range
type PortRange struct {
	Min uint16 `json:"min"`
	Max uint16 `json:"max"`
}

// JoinPort is a client-facing endpoint
type JoinPort struct {
	Host      *string    `json:"host,omitempty"`
	Hostname  string     `json:"hostname"`
	Port      *uint16    `json:"port,omitempty"`
	PortRange *PortRange `json:"port_range,omitempty"`
	IsTLS     bool       `json:"is_tls"`
}

// JoinRegion describes the lobby's region
type JoinRegion struct {
	RegionID    string `json:"region_id"`
	DisplayName string `json:"display_name"`
}

// JoinPlayer carries the player's token
type JoinPlayer struct {
	Token string `json:"token"`
}

// JoinLobby is the joined lobby
type JoinLobby struct {
	LobbyID string              `json:"lobby_id"`
	Region  JoinRegion          `json:"region"`
	Ports   map[string]JoinPort `json:"ports"`
	Player  JoinPlayer          `json:"player"`
}

// JoinResponse is the response for find and join
type JoinResponse struct {
	Lobby  JoinLobby           `json:"lobby"`
	Ports  map[string]JoinPort `json:"ports"`
	Player JoinPlayer          `json:"player"`
}

// JoinResponseFromModel converts a join result
func JoinResponseFromModel(res *model.JoinResult) JoinResponse {
	ports := make(map[string]JoinPort, len(res.Ports))
	for label, p := range res.Ports {
		jp := JoinPort{
			Host:     p.Host,
			Hostname: p.Hostname,
			Port:     p.Port,
			IsTLS:    p.IsTLS,
		}
		if p.PortRange != nil {
			jp.PortRange = &PortRange{Min: p.PortRange.Min, Max: p.PortRange.Max}
		}
		ports[label] = jp
	}
	player := JoinPlayer{Token: res.Player.Token}

	return JoinResponse{
		Lobby: JoinLobby{
			LobbyID: string(res.SessionID),
			Region: JoinRegion{
				RegionID:    res.Region.ID,
				DisplayName: res.Region.DisplayName,
			},
			Ports:  ports,
			Player: player,
		},
		Ports:  ports,
		Player: player,
	}
}

// GameModeInfo is a listed game mode
type GameModeInfo struct {
	GameModeID string `json:"game_mode_id"`
}

// GeoCoord is a datacenter coordinate
type GeoCoord struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// GeoDistance is a distance in both units
type GeoDistance struct {
	Kilometers float64 `json:"kilometers"`
	Miles      float64 `json:"miles"`
}

// RegionInfo is a listed region
type RegionInfo struct {
	RegionID                     string      `json:"region_id"`
	ProviderDisplayName          string      `json:"provider_display_name"`
	RegionDisplayName            string      `json:"region_display_name"`
	DatacenterCoord              GeoCoord    `json:"datacenter_coord"`
	DatacenterDistanceFromClient GeoDistance `json:"datacenter_distance_from_client"`
}

// LobbyInfo is a listed lobby
type LobbyInfo struct {
	RegionID         string `json:"region_id"`
	GameModeID       string `json:"game_mode_id"`
	LobbyID          string `json:"lobby_id"`
	MaxPlayersNormal int    `json:"max_players_normal"`
	MaxPlayersDirect int    `json:"max_players_direct"`
	MaxPlayersParty  int    `json:"max_players_party"`
	TotalPlayerCount int    `json:"total_player_count"`
}

// ListLobbiesResponse is the response for listing lobbies
type ListLobbiesResponse struct {
	GameModes []GameModeInfo `json:"game_modes"`
	Regions   []RegionInfo   `json:"regions"`
	Lobbies   []LobbyInfo    `json:"lobbies"`
}

// ListLobbiesResponseFromResult converts a listing result
func ListLobbiesResponseFromResult(res *listing.Result) ListLobbiesResponse {
	out := ListLobbiesResponse{
		GameModes: make([]GameModeInfo, len(res.GameModes)),
		Regions:   make([]RegionInfo, len(res.Regions)),
		Lobbies:   make([]LobbyInfo, len(res.Lobbies)),
	}
	for i, gm := range res.GameModes {
		out.GameModes[i] = GameModeInfo{GameModeID: gm.NameID}
	}
	for i, r := range res.Regions {
		out.Regions[i] = RegionInfo{
			RegionID:            r.NameID,
			ProviderDisplayName: r.ProviderDisplayName,
			RegionDisplayName:   r.DisplayName,
			DatacenterCoord:     GeoCoord{Latitude: r.Coord.Latitude, Longitude: r.Coord.Longitude},
			DatacenterDistanceFromClient: GeoDistance{
				Kilometers: r.DistanceKm,
				Miles:      r.DistanceMiles,
			},
		}
	}
	for i, l := range res.Lobbies {
		out.Lobbies[i] = LobbyInfo{
			RegionID:         l.RegionNameID,
			GameModeID:       l.GameModeNameID,
			LobbyID:          string(l.LobbyID),
			MaxPlayersNormal: l.MaxPlayersNormal,
			MaxPlayersDirect: l.MaxPlayersDirect,
			MaxPlayersParty:  l.MaxPlayersParty,
			TotalPlayerCount: l.TotalPlayerCount,
		}
	}
	return out
}

// Health is the health check response
type Health struct {
	Status string `json:"status"`
}
