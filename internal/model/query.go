package model

import "time"

// FindQuery selects how the allocation collaborator picks a session.
// The set of implementations is closed: DirectQuery and GameModeQuery.
type FindQuery interface {
	isFindQuery()
}

// DirectQuery joins a specific session
type DirectQuery struct {
	SessionID SessionID
}

// GameModeQuery joins any session of the listed game modes in the listed
// regions, creating one from AutoCreate when none can be joined.
type GameModeQuery struct {
	GameModeIDs []GameModeID // caller order
	RegionIDs   []RegionID   // priority order, never empty
	AutoCreate  *AutoCreate  // nil when creation is prevented
}

func (DirectQuery) isFindQuery()   {}
func (GameModeQuery) isFindQuery() {}

// AutoCreate is the (game mode, region) pair used to create a session
type AutoCreate struct {
	GameModeID GameModeID
	RegionID   RegionID
}

// JoinKind distinguishes how a player joins
type JoinKind int

const (
	JoinKindNormal JoinKind = iota
	JoinKindDirect
	JoinKindParty
)

// FindPlayer is a player entry in a find request
type FindPlayer struct {
	PlayerID       PlayerID
	TokenSessionID string
	ClientInfo     ClientInfo
}

// FindRequest is sent once to the allocation collaborator
type FindRequest struct {
	QueryID     QueryID
	NamespaceID NamespaceID
	JoinKind    JoinKind
	Players     []FindPlayer
	Query       FindQuery
	// SentAt is when the request was dispatched. The allocator refuses
	// requests older than its message age limit.
	SentAt time.Time
}

// FailureCode is a typed failure reported by the allocation collaborator
type FailureCode int

const (
	FailureUnknown FailureCode = iota
	FailureStaleMessage
	FailureTooManyPlayersFromSource
	FailureLobbyStopped
	FailureLobbyStoppedPrematurely
	FailureLobbyClosed
	FailureLobbyNotFound
	FailureNoAvailableLobbies
	FailureLobbyFull
	FailureLobbyCountOverMax
	FailureRegionNotEnabled
	FailureDevTeamInvalidStatus
)

var failureCodeNames = map[FailureCode]string{
	FailureUnknown:                  "unknown",
	FailureStaleMessage:             "stale_message",
	FailureTooManyPlayersFromSource: "too_many_players_from_source",
	FailureLobbyStopped:             "lobby_stopped",
	FailureLobbyStoppedPrematurely:  "lobby_stopped_prematurely",
	FailureLobbyClosed:              "lobby_closed",
	FailureLobbyNotFound:            "lobby_not_found",
	FailureNoAvailableLobbies:       "no_available_lobbies",
	FailureLobbyFull:                "lobby_full",
	FailureLobbyCountOverMax:        "lobby_count_over_max",
	FailureRegionNotEnabled:         "region_not_enabled",
	FailureDevTeamInvalidStatus:     "dev_team_invalid_status",
}

func (c FailureCode) String() string {
	if name, ok := failureCodeNames[c]; ok {
		return name
	}
	return "invalid"
}

// FindOutcome is the single reply to a FindRequest.
// Exactly one of SessionID and Failure is meaningful: Failure is set when
// the request failed.
type FindOutcome struct {
	SessionID SessionID
	Failure   *FailureCode
}
