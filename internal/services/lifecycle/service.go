// Package lifecycle lets a lobby's game server report that it is ready for
// players or closed to new ones.
package lifecycle

import (
	"context"
	"log/slog"

	"github.com/mcoot/matchmaker/internal/model"
	"github.com/mcoot/matchmaker/internal/services/auth"
)

// Publisher delivers lifecycle events to the session allocator
type Publisher interface {
	PublishLobbyReady(ctx context.Context, ns model.NamespaceID, lobbyID model.SessionID) error
	PublishLobbyClosed(ctx context.Context, ns model.NamespaceID, lobbyID model.SessionID, isClosed bool) error
}

// Service handles lobby lifecycle reports
type Service struct {
	publisher Publisher
	logger    *slog.Logger
}

// New creates a new lifecycle Service
func New(publisher Publisher, logger *slog.Logger) *Service {
	return &Service{
		publisher: publisher,
		logger:    logger,
	}
}

// Ready marks the caller's lobby as ready for players
func (s *Service) Ready(ctx context.Context, ident *auth.Identity) error {
	if ident.IsDev() {
		return nil
	}
	if ident.Kind != auth.IdentityLobby {
		return model.ErrForbidden
	}

	if err := s.publisher.PublishLobbyReady(ctx, ident.NamespaceID, ident.LobbyID); err != nil {
		return err
	}

	s.logger.Info("lobby ready",
		slog.String("lobby_id", string(ident.LobbyID)),
	)
	return nil
}

// SetClosed opens or closes the caller's lobby to new players
func (s *Service) SetClosed(ctx context.Context, ident *auth.Identity, isClosed bool) error {
	if ident.IsDev() {
		return nil
	}
	if ident.Kind != auth.IdentityLobby {
		return model.ErrForbidden
	}

	if err := s.publisher.PublishLobbyClosed(ctx, ident.NamespaceID, ident.LobbyID, isClosed); err != nil {
		return err
	}

	s.logger.Info("lobby closed set",
		slog.String("lobby_id", string(ident.LobbyID)),
		slog.Bool("is_closed", isClosed),
	)
	return nil
}
