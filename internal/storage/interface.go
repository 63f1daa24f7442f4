package storage

import (
	"context"

	"github.com/mcoot/matchmaker/internal/model"
)

// Storage defines the interface for the matchmaker's configuration and
// session records. Batch getters skip ids that do not exist.
type Storage interface {
	// Namespace and version operations
	SaveNamespace(ctx context.Context, ns *model.Namespace) error
	GetNamespace(ctx context.Context, id model.NamespaceID) (*model.Namespace, error)
	SaveVersion(ctx context.Context, version *model.Version) error
	GetVersion(ctx context.Context, id model.VersionID) (*model.Version, error)
	// ResolveGameModeVersion returns the version that currently owns a game mode
	ResolveGameModeVersion(ctx context.Context, id model.GameModeID) (model.VersionID, error)

	// Region operations
	SaveRegion(ctx context.Context, region *model.Region) error
	GetRegions(ctx context.Context, ids []model.RegionID) ([]*model.Region, error)
	ResolveRegionNames(ctx context.Context, names []string) ([]*model.Region, error)

	// Session operations
	SaveSession(ctx context.Context, session *model.Session) error
	GetSession(ctx context.Context, id model.SessionID) (*model.Session, error)
	// GetSessions skips missing and stopped sessions
	GetSessions(ctx context.Context, ids []model.SessionID) ([]*model.Session, error)
	ListSessionIDs(ctx context.Context, ns model.NamespaceID) ([]model.SessionID, error)
	DeleteSession(ctx context.Context, id model.SessionID) error

	// Player count operations
	SetPlayerCount(ctx context.Context, id model.SessionID, registered int) error
	// GetPlayerCounts reports 0 for sessions without a recorded count
	GetPlayerCounts(ctx context.Context, ids []model.SessionID) (map[model.SessionID]int, error)

	// Run operations
	SaveRun(ctx context.Context, run *model.Run) error
	GetRun(ctx context.Context, id model.RunID) (*model.Run, error)

	// Public token operations
	SavePublicToken(ctx context.Context, token *model.PublicToken) error
	GetPublicToken(ctx context.Context, id string) (*model.PublicToken, error)
}
