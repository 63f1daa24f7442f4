package lifecycle

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/matchmaker/internal/model"
	"github.com/mcoot/matchmaker/internal/services/auth"
	"github.com/mcoot/matchmaker/internal/testutil"
)

type event struct {
	lobbyID  model.SessionID
	ready    bool
	isClosed bool
}

type recordingPublisher struct {
	events []event
	err    error
}

func (p *recordingPublisher) PublishLobbyReady(_ context.Context, _ model.NamespaceID, lobbyID model.SessionID) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event{lobbyID: lobbyID, ready: true})
	return nil
}

func (p *recordingPublisher) PublishLobbyClosed(_ context.Context, _ model.NamespaceID, lobbyID model.SessionID, isClosed bool) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event{lobbyID: lobbyID, isClosed: isClosed})
	return nil
}

type ServiceSuite struct {
	suite.Suite
	publisher *recordingPublisher
	service   *Service
	lobby     *auth.Identity
	ctx       context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.publisher = &recordingPublisher{}
	s.service = New(s.publisher, testutil.NopLogger())
	s.lobby = &auth.Identity{Kind: auth.IdentityLobby, NamespaceID: testutil.NamespaceID, LobbyID: "lobby-1"}
	s.ctx = context.Background()
}

func (s *ServiceSuite) TestReadyPublishes() {
	s.Require().NoError(s.service.Ready(s.ctx, s.lobby))
	s.Equal([]event{{lobbyID: "lobby-1", ready: true}}, s.publisher.events)
}

func (s *ServiceSuite) TestSetClosedPublishes() {
	s.Require().NoError(s.service.SetClosed(s.ctx, s.lobby, true))
	s.Require().NoError(s.service.SetClosed(s.ctx, s.lobby, false))
	s.Equal([]event{
		{lobbyID: "lobby-1", isClosed: true},
		{lobbyID: "lobby-1", isClosed: false},
	}, s.publisher.events)
}

func (s *ServiceSuite) TestDevIdentityIsNoOp() {
	dev := &auth.Identity{Kind: auth.IdentityDev, NamespaceID: testutil.NamespaceID}

	s.NoError(s.service.Ready(s.ctx, dev))
	s.NoError(s.service.SetClosed(s.ctx, dev, true))
	s.Empty(s.publisher.events)
}

func (s *ServiceSuite) TestPublicIdentityIsForbidden() {
	public := &auth.Identity{Kind: auth.IdentityPublic, NamespaceID: testutil.NamespaceID}

	s.ErrorIs(s.service.Ready(s.ctx, public), model.ErrForbidden)
	s.ErrorIs(s.service.SetClosed(s.ctx, public, true), model.ErrForbidden)
	s.Empty(s.publisher.events)
}

func (s *ServiceSuite) TestPublishErrorPropagates() {
	s.publisher.err = errors.New("bus down")

	s.Error(s.service.Ready(s.ctx, s.lobby))
}
