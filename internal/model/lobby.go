package model

import "time"

// Session is a running instance of a game mode that players join (a lobby).
// Sessions are created and stopped by the allocation collaborator.
type Session struct {
	ID               SessionID
	NamespaceID      NamespaceID
	RegionID         RegionID
	GameModeID       GameModeID
	RunID            RunID
	IsClosed         bool
	MaxPlayersNormal int
	MaxPlayersDirect int
	MaxPlayersParty  int
	CreatedAt        time.Time
	StoppedAt        *time.Time
}

// IsStopped reports whether the session has been stopped
func (s *Session) IsStopped() bool {
	return s.StoppedAt != nil
}

// JoinRegion is the region descriptor returned to joining players
type JoinRegion struct {
	ID          string // region name id
	DisplayName string
}

// JoinPort is a client-facing endpoint for one port label.
// Either Port or PortRange is set.
type JoinPort struct {
	Host      *string
	Hostname  string
	Port      *uint16
	PortRange *PortRange
	IsTLS     bool
}

// JoinResult is the outcome of a successful find or join
type JoinResult struct {
	SessionID SessionID
	Region    JoinRegion
	Ports     map[string]JoinPort
	Player    Player
}
