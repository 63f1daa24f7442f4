package natsalloc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/mcoot/matchmaker/internal/model"
)

// Publisher publishes lobby lifecycle events
type Publisher struct {
	conn *nats.Conn
}

// NewPublisher creates a Publisher on an open connection
func NewPublisher(conn *nats.Conn) *Publisher {
	return &Publisher{conn: conn}
}

// PublishLobbyReady announces that a lobby's game server is ready
func (p *Publisher) PublishLobbyReady(ctx context.Context, ns model.NamespaceID, lobbyID model.SessionID) error {
	return p.publish(ctx, readySubject(lobbyID), lifecycleMsg{NamespaceID: ns, LobbyID: lobbyID})
}

// PublishLobbyClosed announces that a lobby was closed or reopened
func (p *Publisher) PublishLobbyClosed(ctx context.Context, ns model.NamespaceID, lobbyID model.SessionID, isClosed bool) error {
	return p.publish(ctx, closedSubject(lobbyID), lifecycleMsg{NamespaceID: ns, LobbyID: lobbyID, IsClosed: &isClosed})
}

func (p *Publisher) publish(ctx context.Context, subject string, msg lifecycleMsg) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("publishing %s: %w", subject, err)
	}
	// Wait for the server to accept the message
	return p.conn.FlushWithContext(ctx)
}
