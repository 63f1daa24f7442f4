package model

// Identifiers are uuid strings unless noted otherwise

type (
	NamespaceID string
	VersionID   string
	GameModeID  string
	RegionID    string
	SessionID   string
	RunID       string
	PlayerID    string
	QueryID     string
)

// NilSessionID is returned for sessions fabricated for development identities
const NilSessionID = SessionID("00000000-0000-0000-0000-000000000000")

