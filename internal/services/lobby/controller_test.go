package lobby

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/matchmaker/internal/dependencies/mocks"
	"github.com/mcoot/matchmaker/internal/model"
	"github.com/mcoot/matchmaker/internal/storage/memory"
	"github.com/mcoot/matchmaker/internal/testutil"
)

type ControllerTestSuite struct {
	suite.Suite
	ctx        context.Context
	storage    *memory.Storage
	clock      *mocks.MockClock
	random     *mocks.MockRandom
	controller *Controller
}

func TestControllerSuite(t *testing.T) {
	suite.Run(t, new(ControllerTestSuite))
}

func (s *ControllerTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.controller = NewController(s.storage, s.clock, s.random, testutil.NopLogger(), DefaultConfig())
	s.Require().NoError(testutil.SeedNamespace(s.ctx, s.storage))
}

func players(n int) []model.FindPlayer {
	out := make([]model.FindPlayer, n)
	for i := range out {
		out[i] = model.FindPlayer{
			PlayerID:   model.PlayerID(fmt.Sprintf("p-%d", i)),
			ClientInfo: model.ClientInfo{RemoteAddress: fmt.Sprintf("203.0.113.%d", i)},
		}
	}
	return out
}

func (s *ControllerTestSuite) findRequest(q model.FindQuery, kind model.JoinKind, n int) *model.FindRequest {
	return &model.FindRequest{
		QueryID:     "q-1",
		NamespaceID: testutil.NamespaceID,
		JoinKind:    kind,
		Players:     players(n),
		Query:       q,
	}
}

func (s *ControllerTestSuite) requireFailure(outcome *model.FindOutcome, expected model.FailureCode) {
	s.Require().NotNil(outcome.Failure)
	s.Equal(expected, *outcome.Failure)
}

func (s *ControllerTestSuite) count(id model.SessionID) int {
	counts, err := s.storage.GetPlayerCounts(s.ctx, []model.SessionID{id})
	s.Require().NoError(err)
	return counts[id]
}

func (s *ControllerTestSuite) TestJoinsExistingLobbyInPriorityOrder() {
	s.Require().NoError(testutil.SeedSession(s.ctx, s.storage, "lobby-us", testutil.RankedModeID, testutil.USEastID, 1))
	s.Require().NoError(testutil.SeedSession(s.ctx, s.storage, "lobby-eu", testutil.RankedModeID, testutil.EUWestID, 0))

	outcome, err := s.controller.Dispatch(s.ctx, s.findRequest(model.GameModeQuery{
		GameModeIDs: []model.GameModeID{testutil.RankedModeID},
		RegionIDs:   []model.RegionID{testutil.EUWestID, testutil.USEastID},
	}, model.JoinKindNormal, 1))

	s.Require().NoError(err)
	s.Nil(outcome.Failure)
	s.Equal(model.SessionID("lobby-eu"), outcome.SessionID)
	s.Equal(1, s.count("lobby-eu"))
}

func (s *ControllerTestSuite) TestPrefersFullerLobbyWithinRegion() {
	s.Require().NoError(testutil.SeedSession(s.ctx, s.storage, "lobby-a", testutil.DefaultModeID, testutil.USEastID, 2))
	s.Require().NoError(testutil.SeedSession(s.ctx, s.storage, "lobby-b", testutil.DefaultModeID, testutil.USEastID, 5))

	outcome, err := s.controller.Dispatch(s.ctx, s.findRequest(model.GameModeQuery{
		GameModeIDs: []model.GameModeID{testutil.DefaultModeID},
		RegionIDs:   []model.RegionID{testutil.USEastID},
	}, model.JoinKindNormal, 1))

	s.Require().NoError(err)
	s.Equal(model.SessionID("lobby-b"), outcome.SessionID)
	s.Equal(6, s.count("lobby-b"))
}

func (s *ControllerTestSuite) TestSkipsClosedAndFullLobbies() {
	s.Require().NoError(testutil.SeedSession(s.ctx, s.storage, "lobby-full", testutil.DefaultModeID, testutil.USEastID, 8))
	s.Require().NoError(testutil.SeedSession(s.ctx, s.storage, "lobby-closed", testutil.DefaultModeID, testutil.USEastID, 0))
	s.Require().NoError(s.controller.PublishLobbyClosed(s.ctx, testutil.NamespaceID, "lobby-closed", true))

	outcome, err := s.controller.Dispatch(s.ctx, s.findRequest(model.GameModeQuery{
		GameModeIDs: []model.GameModeID{testutil.DefaultModeID},
		RegionIDs:   []model.RegionID{testutil.USEastID},
	}, model.JoinKindNormal, 1))

	s.Require().NoError(err)
	s.requireFailure(outcome, model.FailureNoAvailableLobbies)
}

func (s *ControllerTestSuite) TestAutoCreatesLobbyWithRun() {
	s.random.QueueID("lobby-new", "run-new")

	outcome, err := s.controller.Dispatch(s.ctx, s.findRequest(model.GameModeQuery{
		GameModeIDs: []model.GameModeID{testutil.DefaultModeID},
		RegionIDs:   []model.RegionID{testutil.USEastID},
		AutoCreate:  &model.AutoCreate{GameModeID: testutil.DefaultModeID, RegionID: testutil.USEastID},
	}, model.JoinKindNormal, 2))

	s.Require().NoError(err)
	s.Require().Nil(outcome.Failure)
	s.Equal(model.SessionID("lobby-new"), outcome.SessionID)
	s.Equal(2, s.count("lobby-new"))

	session, err := s.storage.GetSession(s.ctx, "lobby-new")
	s.Require().NoError(err)
	s.Equal(testutil.NamespaceID, session.NamespaceID)
	s.Equal(model.RunID("run-new"), session.RunID)
	s.Equal(8, session.MaxPlayersNormal)
	s.Equal(s.clock.Now(), session.CreatedAt)

	run, err := s.storage.GetRun(s.ctx, "run-new")
	s.Require().NoError(err)
	s.Require().Len(run.ProxiedPorts, 1)
	s.Equal("game_default", run.ProxiedPorts[0].TargetLabel)
	s.Equal([]string{"lobby-new-default.lobby.localhost"}, run.ProxiedPorts[0].IngressHostnames)
	s.Equal(uint16(443), run.ProxiedPorts[0].IngressPort)
	s.Equal(model.RunProxyProtocolHTTPS, run.ProxiedPorts[0].Protocol)
	s.Require().NotNil(run.HostNetwork())
	s.Equal("127.0.0.1", run.HostNetwork().IP)
}

func (s *ControllerTestSuite) TestAutoCreateRejectsDisabledRegion() {
	outcome, err := s.controller.Dispatch(s.ctx, s.findRequest(model.GameModeQuery{
		GameModeIDs: []model.GameModeID{testutil.DefaultModeID},
		RegionIDs:   []model.RegionID{testutil.EUWestID},
		AutoCreate:  &model.AutoCreate{GameModeID: testutil.DefaultModeID, RegionID: testutil.EUWestID},
	}, model.JoinKindNormal, 1))

	s.Require().NoError(err)
	s.requireFailure(outcome, model.FailureRegionNotEnabled)
}

func (s *ControllerTestSuite) TestAutoCreateRespectsLobbyCap() {
	cfg := DefaultConfig()
	cfg.MaxLobbiesPerNamespace = 1
	s.controller = NewController(s.storage, s.clock, s.random, testutil.NopLogger(), cfg)
	s.Require().NoError(testutil.SeedSession(s.ctx, s.storage, "lobby-full", testutil.DefaultModeID, testutil.USEastID, 8))

	outcome, err := s.controller.Dispatch(s.ctx, s.findRequest(model.GameModeQuery{
		GameModeIDs: []model.GameModeID{testutil.DefaultModeID},
		RegionIDs:   []model.RegionID{testutil.USEastID},
		AutoCreate:  &model.AutoCreate{GameModeID: testutil.DefaultModeID, RegionID: testutil.USEastID},
	}, model.JoinKindNormal, 1))

	s.Require().NoError(err)
	s.requireFailure(outcome, model.FailureLobbyCountOverMax)
}

func (s *ControllerTestSuite) TestDirectJoin() {
	s.Require().NoError(testutil.SeedSession(s.ctx, s.storage, "lobby-1", testutil.DefaultModeID, testutil.USEastID, 8))

	// Direct joins use the larger direct capacity
	outcome, err := s.controller.Dispatch(s.ctx, s.findRequest(model.DirectQuery{SessionID: "lobby-1"}, model.JoinKindDirect, 2))
	s.Require().NoError(err)
	s.Require().Nil(outcome.Failure)
	s.Equal(model.SessionID("lobby-1"), outcome.SessionID)
	s.Equal(10, s.count("lobby-1"))

	outcome, err = s.controller.Dispatch(s.ctx, s.findRequest(model.DirectQuery{SessionID: "lobby-1"}, model.JoinKindDirect, 1))
	s.Require().NoError(err)
	s.requireFailure(outcome, model.FailureLobbyFull)
}

func (s *ControllerTestSuite) TestDirectJoinFailures() {
	s.Require().NoError(testutil.SeedSession(s.ctx, s.storage, "lobby-1", testutil.DefaultModeID, testutil.USEastID, 0))
	s.Require().NoError(s.controller.PublishLobbyClosed(s.ctx, testutil.NamespaceID, "lobby-1", true))

	outcome, err := s.controller.Dispatch(s.ctx, s.findRequest(model.DirectQuery{SessionID: "lobby-1"}, model.JoinKindDirect, 1))
	s.Require().NoError(err)
	s.requireFailure(outcome, model.FailureLobbyClosed)

	outcome, err = s.controller.Dispatch(s.ctx, s.findRequest(model.DirectQuery{SessionID: "missing"}, model.JoinKindDirect, 1))
	s.Require().NoError(err)
	s.requireFailure(outcome, model.FailureLobbyNotFound)

	req := s.findRequest(model.DirectQuery{SessionID: "lobby-1"}, model.JoinKindDirect, 1)
	req.NamespaceID = "ns-other"
	outcome, err = s.controller.Dispatch(s.ctx, req)
	s.Require().NoError(err)
	s.requireFailure(outcome, model.FailureLobbyNotFound)
}

func (s *ControllerTestSuite) TestTooManyPlayersFromSource() {
	req := s.findRequest(model.DirectQuery{SessionID: "lobby-1"}, model.JoinKindParty, 9)
	for i := range req.Players {
		req.Players[i].ClientInfo.RemoteAddress = "203.0.113.1"
	}

	outcome, err := s.controller.Dispatch(s.ctx, req)
	s.Require().NoError(err)
	s.requireFailure(outcome, model.FailureTooManyPlayersFromSource)
}

func (s *ControllerTestSuite) TestDispatchHonoursCancelledContext() {
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()

	_, err := s.controller.Dispatch(ctx, s.findRequest(model.DirectQuery{SessionID: "lobby-1"}, model.JoinKindDirect, 1))
	s.ErrorIs(err, context.Canceled)
}

func (s *ControllerTestSuite) TestStaleRequestIsRefused() {
	s.Require().NoError(testutil.SeedSession(s.ctx, s.storage, "lobby-1", testutil.DefaultModeID, testutil.USEastID, 0))

	req := s.findRequest(model.DirectQuery{SessionID: "lobby-1"}, model.JoinKindDirect, 1)
	req.SentAt = s.clock.Now()
	s.clock.Advance(31 * time.Second)

	outcome, err := s.controller.Dispatch(s.ctx, req)
	s.Require().NoError(err)
	s.requireFailure(outcome, model.FailureStaleMessage)
	s.Zero(s.count("lobby-1"))
}

func (s *ControllerTestSuite) TestRecentRequestIsServed() {
	s.Require().NoError(testutil.SeedSession(s.ctx, s.storage, "lobby-1", testutil.DefaultModeID, testutil.USEastID, 0))

	req := s.findRequest(model.DirectQuery{SessionID: "lobby-1"}, model.JoinKindDirect, 1)
	req.SentAt = s.clock.Now()
	s.clock.Advance(30 * time.Second)

	outcome, err := s.controller.Dispatch(s.ctx, req)
	s.Require().NoError(err)
	s.Require().Nil(outcome.Failure)
	s.Equal(1, s.count("lobby-1"))
}

func (s *ControllerTestSuite) TestDispatchStopsWaitingWhenContextEnds() {
	// Another allocation holds the controller
	s.controller.sem <- struct{}{}
	defer s.controller.unlock()

	ctx, cancel := context.WithTimeout(s.ctx, 20*time.Millisecond)
	defer cancel()

	_, err := s.controller.Dispatch(ctx, s.findRequest(model.DirectQuery{SessionID: "lobby-1"}, model.JoinKindDirect, 1))
	s.ErrorIs(err, context.DeadlineExceeded)

	err = s.controller.PublishLobbyClosed(ctx, testutil.NamespaceID, "lobby-1", true)
	s.ErrorIs(err, context.DeadlineExceeded)
}

func (s *ControllerTestSuite) TestLifecycleRequiresOwnLobby() {
	s.Require().NoError(testutil.SeedSession(s.ctx, s.storage, "lobby-1", testutil.DefaultModeID, testutil.USEastID, 0))

	s.NoError(s.controller.PublishLobbyReady(s.ctx, testutil.NamespaceID, "lobby-1"))
	s.ErrorIs(s.controller.PublishLobbyReady(s.ctx, "ns-other", "lobby-1"), model.ErrLobbyNotFound)
	s.ErrorIs(s.controller.PublishLobbyClosed(s.ctx, testutil.NamespaceID, "missing", true), model.ErrLobbyNotFound)

	s.Require().NoError(s.controller.PublishLobbyClosed(s.ctx, testutil.NamespaceID, "lobby-1", true))
	session, err := s.storage.GetSession(s.ctx, "lobby-1")
	s.Require().NoError(err)
	s.True(session.IsClosed)

	s.Require().NoError(s.controller.PublishLobbyClosed(s.ctx, testutil.NamespaceID, "lobby-1", false))
	session, err = s.storage.GetSession(s.ctx, "lobby-1")
	s.Require().NoError(err)
	s.False(session.IsClosed)
}

func TestPickRanksByModeThenRegionThenFullness(t *testing.T) {
	sessions := []*model.Session{
		{ID: "b", GameModeID: "gm-2", RegionID: "r-1", MaxPlayersNormal: 4},
		{ID: "c", GameModeID: "gm-1", RegionID: "r-2", MaxPlayersNormal: 4},
		{ID: "d", GameModeID: "gm-1", RegionID: "r-1", MaxPlayersNormal: 4},
		{ID: "e", GameModeID: "gm-1", RegionID: "r-1", MaxPlayersNormal: 4},
	}
	counts := map[model.SessionID]int{"b": 3, "c": 3, "d": 1, "e": 2}
	q := model.GameModeQuery{
		GameModeIDs: []model.GameModeID{"gm-1", "gm-2"},
		RegionIDs:   []model.RegionID{"r-1", "r-2"},
	}

	best := pick(sessions, counts, q, &model.FindRequest{Players: players(1)})
	require.NotNil(t, best)
	assert.Equal(t, model.SessionID("e"), best.ID)

	best = pick(sessions, counts, q, &model.FindRequest{Players: players(3)})
	require.NotNil(t, best)
	assert.Equal(t, model.SessionID("d"), best.ID)

	best = pick(sessions, counts, q, &model.FindRequest{Players: players(4)})
	assert.Nil(t, best)
}
