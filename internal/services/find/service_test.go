package find

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/matchmaker/internal/dependencies/captcha"
	"github.com/mcoot/matchmaker/internal/dependencies/mocks"
	"github.com/mcoot/matchmaker/internal/dependencies/recommend"
	"github.com/mcoot/matchmaker/internal/model"
	"github.com/mcoot/matchmaker/internal/services/auth"
	"github.com/mcoot/matchmaker/internal/services/region"
	"github.com/mcoot/matchmaker/internal/storage/memory"
	"github.com/mcoot/matchmaker/internal/testutil"
)

// fakeAllocator records requests and replies with respond
type fakeAllocator struct {
	mu       sync.Mutex
	requests []*model.FindRequest
	respond  func(ctx context.Context, req *model.FindRequest) (*model.FindOutcome, error)
}

func (a *fakeAllocator) Dispatch(ctx context.Context, req *model.FindRequest) (*model.FindOutcome, error) {
	a.mu.Lock()
	a.requests = append(a.requests, req)
	a.mu.Unlock()
	return a.respond(ctx, req)
}

func (a *fakeAllocator) dispatched() []*model.FindRequest {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.requests
}

// countingGate counts the calls that reach the wrapped captcha service
type countingGate struct {
	captcha.Service
	checks   int
	verifies int
}

func (g *countingGate) NeedsVerification(ctx context.Context, remoteAddr string, cfg *model.CaptchaConfig) (bool, error) {
	g.checks++
	return g.Service.NeedsVerification(ctx, remoteAddr, cfg)
}

func (g *countingGate) Verify(ctx context.Context, remoteAddr string, cfg *model.CaptchaConfig, resp model.CaptchaResponse) error {
	g.verifies++
	return g.Service.Verify(ctx, remoteAddr, cfg, resp)
}

func failWith(code model.FailureCode) func(context.Context, *model.FindRequest) (*model.FindOutcome, error) {
	return func(context.Context, *model.FindRequest) (*model.FindOutcome, error) {
		return &model.FindOutcome{Failure: &code}, nil
	}
}

type ServiceSuite struct {
	suite.Suite
	storage   *memory.Storage
	clock     *mocks.MockClock
	random    *mocks.MockRandom
	auth      *auth.Service
	allocator *fakeAllocator
	gate      *countingGate
	service   *Service
	ident     *auth.Identity
	ctx       context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.storage = memory.New()
	s.Require().NoError(testutil.SeedNamespace(s.ctx, s.storage))

	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.auth = auth.New(s.storage, s.clock, s.random, auth.Config{Secret: "test-secret"})

	// By default the allocator creates the requested session
	s.allocator = &fakeAllocator{}
	s.allocator.respond = s.createFromQuery

	logger := testutil.NopLogger()
	selector := region.NewSelector(s.storage, recommend.New(s.storage), logger)
	s.gate = &countingGate{Service: captcha.NewGate(captcha.StaticVerifier{Response: "solved"}, s.clock)}

	s.service = New(s.storage, selector, s.gate, s.auth, s.allocator, s.clock, s.random, logger, Config{FindTimeout: time.Second})
	s.ident = &auth.Identity{Kind: auth.IdentityPublic, NamespaceID: testutil.NamespaceID}
}

func (s *ServiceSuite) createFromQuery(ctx context.Context, req *model.FindRequest) (*model.FindOutcome, error) {
	var (
		id     model.SessionID
		gm     model.GameModeID
		region model.RegionID
	)
	switch q := req.Query.(type) {
	case model.GameModeQuery:
		if q.AutoCreate == nil {
			code := model.FailureNoAvailableLobbies
			return &model.FindOutcome{Failure: &code}, nil
		}
		id, gm, region = "lobby-new", q.AutoCreate.GameModeID, q.AutoCreate.RegionID
	case model.DirectQuery:
		id, gm, region = q.SessionID, testutil.DefaultModeID, testutil.USEastID
	}
	if err := testutil.SeedSession(ctx, s.storage, id, gm, region, 1); err != nil {
		return nil, err
	}
	return &model.FindOutcome{SessionID: id}, nil
}

func (s *ServiceSuite) client() model.ClientInfo {
	coord := testutil.NewYork
	return model.ClientInfo{RemoteAddress: "1.2.3.4", Coord: &coord}
}

func (s *ServiceSuite) setCaptcha(cfg *model.CaptchaConfig) {
	version := testutil.Version()
	version.Captcha = cfg
	s.Require().NoError(s.storage.SaveVersion(s.ctx, version))
}

// Scenario tests

func (s *ServiceSuite) TestFindAutoCreatesInNearestRegion() {
	result, err := s.service.Find(s.ctx, s.ident, Request{
		GameModes: []string{"default"},
		Client:    s.client(),
	})
	s.Require().NoError(err)

	reqs := s.allocator.dispatched()
	s.Require().Len(reqs, 1)
	query, ok := reqs[0].Query.(model.GameModeQuery)
	s.Require().True(ok)
	s.Equal([]model.GameModeID{testutil.DefaultModeID}, query.GameModeIDs)
	s.Equal([]model.RegionID{testutil.USEastID}, query.RegionIDs)
	s.Equal(&model.AutoCreate{GameModeID: testutil.DefaultModeID, RegionID: testutil.USEastID}, query.AutoCreate)
	s.Equal(s.clock.Now(), reqs[0].SentAt)

	s.Equal(model.SessionID("lobby-new"), result.SessionID)
	s.Equal(model.JoinRegion{ID: "us-east", DisplayName: "US East"}, result.Region)
	s.Require().Contains(result.Ports, "default")
	port := result.Ports["default"]
	s.Equal("lobby-new.lobby.example.com:443", *port.Host)
	s.True(port.IsTLS)
	s.NotEmpty(result.Player.Token)
}

func (s *ServiceSuite) TestFindAutoCreatesInFirstEnabledRequestedRegion() {
	_, err := s.service.Find(s.ctx, s.ident, Request{
		GameModes: []string{"default"},
		Regions:   []string{"eu-west", "us-east"},
		Client:    s.client(),
	})
	s.Require().NoError(err)

	query := s.allocator.dispatched()[0].Query.(model.GameModeQuery)
	s.Equal([]model.RegionID{testutil.EUWestID, testutil.USEastID}, query.RegionIDs)
	s.Equal(testutil.USEastID, query.AutoCreate.RegionID)
}

func (s *ServiceSuite) TestFindLobbyFull() {
	s.allocator.respond = failWith(model.FailureLobbyFull)

	_, err := s.service.Find(s.ctx, s.ident, Request{GameModes: []string{"default"}, Client: s.client()})
	s.ErrorIs(err, model.ErrLobbyFull)
}

func (s *ServiceSuite) TestFindMissingLobbyAfterSuccessIsInternal() {
	s.allocator.respond = func(context.Context, *model.FindRequest) (*model.FindOutcome, error) {
		return &model.FindOutcome{SessionID: "lobby-vanished"}, nil
	}

	result, err := s.service.Find(s.ctx, s.ident, Request{GameModes: []string{"default"}, Client: s.client()})
	s.ErrorIs(err, model.ErrInternal)
	s.Nil(result)
}

// Request validation tests

func (s *ServiceSuite) TestFindUnknownGameMode() {
	_, err := s.service.Find(s.ctx, s.ident, Request{GameModes: []string{"default", "casual"}, Client: s.client()})
	s.ErrorIs(err, model.ErrGameModeNotFound)
	s.Empty(s.allocator.dispatched())
}

func (s *ServiceSuite) TestFindUnknownRegion() {
	_, err := s.service.Find(s.ctx, s.ident, Request{
		GameModes: []string{"default"},
		Regions:   []string{"mars"},
		Client:    s.client(),
	})
	s.ErrorIs(err, model.ErrRegionNotFound)
	s.Empty(s.allocator.dispatched())
}

func (s *ServiceSuite) TestFindWithoutCoordsOrRegions() {
	_, err := s.service.Find(s.ctx, s.ident, Request{
		GameModes: []string{"default"},
		Client:    model.ClientInfo{RemoteAddress: "1.2.3.4"},
	})
	s.ErrorIs(err, model.ErrMissingCoords)
}

func (s *ServiceSuite) TestFindWithRegionsDoesNotNeedCoords() {
	_, err := s.service.Find(s.ctx, s.ident, Request{
		GameModes: []string{"default"},
		Regions:   []string{"us-east"},
		Client:    model.ClientInfo{RemoteAddress: "1.2.3.4"},
	})
	s.NoError(err)
}

func (s *ServiceSuite) TestFindNoValidPair() {
	_, err := s.service.Find(s.ctx, s.ident, Request{
		GameModes: []string{"default"},
		Regions:   []string{"eu-west"},
		Client:    s.client(),
	})
	s.ErrorIs(err, model.ErrNoValidGameModeRegionPair)
	s.Empty(s.allocator.dispatched())
}

func (s *ServiceSuite) TestPreventAutoCreateStillRequiresValidPair() {
	_, err := s.service.Find(s.ctx, s.ident, Request{
		GameModes:         []string{"default"},
		Regions:           []string{"eu-west"},
		PreventAutoCreate: true,
		Client:            s.client(),
	})
	s.ErrorIs(err, model.ErrNoValidGameModeRegionPair)
	s.Empty(s.allocator.dispatched())
}

func (s *ServiceSuite) TestPreventAutoCreateClearsAutoCreate() {
	s.Require().NoError(testutil.SeedSession(s.ctx, s.storage, "lobby-1", testutil.DefaultModeID, testutil.USEastID, 3))
	s.allocator.respond = func(_ context.Context, req *model.FindRequest) (*model.FindOutcome, error) {
		return &model.FindOutcome{SessionID: "lobby-1"}, nil
	}

	result, err := s.service.Find(s.ctx, s.ident, Request{
		GameModes:         []string{"default"},
		PreventAutoCreate: true,
		Client:            s.client(),
	})
	s.Require().NoError(err)
	s.Equal(model.SessionID("lobby-1"), result.SessionID)

	query := s.allocator.dispatched()[0].Query.(model.GameModeQuery)
	s.Nil(query.AutoCreate)
	s.Equal([]model.RegionID{testutil.USEastID}, query.RegionIDs)
}

// Dispatch tests

func (s *ServiceSuite) TestDispatchCarriesPlayer() {
	result, err := s.service.Find(s.ctx, s.ident, Request{GameModes: []string{"default"}, Client: s.client()})
	s.Require().NoError(err)

	req := s.allocator.dispatched()[0]
	s.NotEmpty(req.QueryID)
	s.Equal(testutil.NamespaceID, req.NamespaceID)
	s.Equal(model.JoinKindNormal, req.JoinKind)
	s.Require().Len(req.Players, 1)
	s.Equal(result.Player.ID, req.Players[0].PlayerID)
	s.Equal(result.Player.TokenSessionID, req.Players[0].TokenSessionID)
	s.Equal("1.2.3.4", req.Players[0].ClientInfo.RemoteAddress)
	s.NotEqual(string(req.QueryID), string(req.Players[0].PlayerID))

	playerID, err := s.auth.ValidatePlayerToken(result.Player.Token)
	s.Require().NoError(err)
	s.Equal(result.Player.ID, playerID)
}

func (s *ServiceSuite) TestEachRequestGetsFreshPlayer() {
	first, err := s.service.Find(s.ctx, s.ident, Request{GameModes: []string{"default"}, Client: s.client()})
	s.Require().NoError(err)
	second, err := s.service.Find(s.ctx, s.ident, Request{GameModes: []string{"default"}, Client: s.client()})
	s.Require().NoError(err)

	s.NotEqual(first.Player.ID, second.Player.ID)
}

func (s *ServiceSuite) TestDispatchTimeout() {
	s.service.cfg.FindTimeout = 20 * time.Millisecond
	s.allocator.respond = func(ctx context.Context, _ *model.FindRequest) (*model.FindOutcome, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	_, err := s.service.Find(s.ctx, s.ident, Request{GameModes: []string{"default"}, Client: s.client()})
	s.ErrorIs(err, model.ErrFindTimeout)
}

func (s *ServiceSuite) TestCallerCancellation() {
	ctx, cancel := context.WithCancel(s.ctx)
	s.allocator.respond = func(ctx context.Context, _ *model.FindRequest) (*model.FindOutcome, error) {
		cancel()
		<-ctx.Done()
		return nil, ctx.Err()
	}

	_, err := s.service.Find(ctx, s.ident, Request{GameModes: []string{"default"}, Client: s.client()})
	s.ErrorIs(err, context.Canceled)
	s.NotErrorIs(err, model.ErrFindTimeout)
}

func (s *ServiceSuite) TestTransportErrorPropagates() {
	transportErr := errors.New("no responders")
	s.allocator.respond = func(context.Context, *model.FindRequest) (*model.FindOutcome, error) {
		return nil, transportErr
	}

	_, err := s.service.Find(s.ctx, s.ident, Request{GameModes: []string{"default"}, Client: s.client()})
	s.ErrorIs(err, transportErr)
}

func (s *ServiceSuite) TestStoppedCodesCollapse() {
	for _, code := range []model.FailureCode{model.FailureLobbyStopped, model.FailureLobbyStoppedPrematurely} {
		s.allocator.respond = failWith(code)
		_, err := s.service.Find(s.ctx, s.ident, Request{GameModes: []string{"default"}, Client: s.client()})
		s.ErrorIs(err, model.ErrLobbyStopped, code.String())
	}
}

func (s *ServiceSuite) TestUnknownFailureIsInternal() {
	for _, code := range []model.FailureCode{model.FailureUnknown, model.FailureCode(42)} {
		s.allocator.respond = failWith(code)
		_, err := s.service.Find(s.ctx, s.ident, Request{GameModes: []string{"default"}, Client: s.client()})
		s.ErrorIs(err, model.ErrInternal)
	}
}

func TestFailureErrorMapping(t *testing.T) {
	cases := map[model.FailureCode]error{
		model.FailureStaleMessage:             model.ErrStaleMessage,
		model.FailureTooManyPlayersFromSource: model.ErrTooManyPlayersFromSource,
		model.FailureLobbyStopped:             model.ErrLobbyStopped,
		model.FailureLobbyStoppedPrematurely:  model.ErrLobbyStopped,
		model.FailureLobbyClosed:              model.ErrLobbyClosed,
		model.FailureLobbyNotFound:            model.ErrLobbyNotFound,
		model.FailureNoAvailableLobbies:       model.ErrNoAvailableLobbies,
		model.FailureLobbyFull:                model.ErrLobbyFull,
		model.FailureLobbyCountOverMax:        model.ErrLobbyCountOverMax,
		model.FailureRegionNotEnabled:         model.ErrRegionNotEnabled,
		model.FailureDevTeamInvalidStatus:     model.ErrDevTeamInvalidStatus,
		model.FailureUnknown:                  model.ErrInternal,
	}
	for code, want := range cases {
		assert.ErrorIs(t, FailureError(code), want, code.String())
	}
}

// Session resolution tests

func (s *ServiceSuite) TestDirectPortsUseHostNetwork() {
	result, err := s.service.Find(s.ctx, s.ident, Request{
		GameModes: []string{"ranked"},
		Regions:   []string{"eu-west"},
		Client:    s.client(),
	})
	s.Require().NoError(err)

	s.Equal(model.JoinRegion{ID: "eu-west", DisplayName: "EU West"}, result.Region)
	s.Require().Contains(result.Ports, "voice")
	voice := result.Ports["voice"]
	s.Equal("10.0.0.1", voice.Hostname)
	s.Equal(&model.PortRange{Min: 26000, Max: 26010}, voice.PortRange)
	s.Nil(voice.Port)
	s.False(voice.IsTLS)
}

func (s *ServiceSuite) TestPortsComeFromCurrentVersion() {
	s.allocator.respond = func(ctx context.Context, req *model.FindRequest) (*model.FindOutcome, error) {
		outcome, err := s.createFromQuery(ctx, req)
		if err != nil {
			return nil, err
		}

		// The game mode moves to a new version while the request is in flight
		next := testutil.Version()
		next.ID = "v-next"
		next.GameModes[0].Ports[0].ProxyProtocol = model.ProxyProtocolHTTP
		return outcome, s.storage.SaveVersion(ctx, next)
	}

	result, err := s.service.Find(s.ctx, s.ident, Request{GameModes: []string{"default"}, Client: s.client()})
	s.Require().NoError(err)
	s.Empty(result.Ports)
}

func (s *ServiceSuite) TestInvalidPortConfigIsInternal() {
	version := testutil.Version()
	version.GameModes[0].Ports = append(version.GameModes[0].Ports, model.PortDecl{
		Label:         "bad",
		ProxyKind:     model.ProxyKindDirect,
		ProxyProtocol: model.ProxyProtocolHTTPS,
	})
	s.Require().NoError(s.storage.SaveVersion(s.ctx, version))

	_, err := s.service.Find(s.ctx, s.ident, Request{GameModes: []string{"default"}, Client: s.client()})
	s.ErrorIs(err, model.ErrInvalidPortConfig)
}

// Join tests

func (s *ServiceSuite) TestJoinSendsDirectQuery() {
	result, err := s.service.Join(s.ctx, s.ident, JoinRequest{LobbyID: "lobby-42", Client: s.client()})
	s.Require().NoError(err)
	s.Equal(model.SessionID("lobby-42"), result.SessionID)

	req := s.allocator.dispatched()[0]
	s.Equal(model.JoinKindDirect, req.JoinKind)
	s.Equal(model.DirectQuery{SessionID: "lobby-42"}, req.Query)
}

func (s *ServiceSuite) TestJoinFindAndJoinShareResponseShape() {
	s.Require().NoError(testutil.SeedSession(s.ctx, s.storage, "lobby-1", testutil.DefaultModeID, testutil.USEastID, 1))
	s.allocator.respond = func(context.Context, *model.FindRequest) (*model.FindOutcome, error) {
		return &model.FindOutcome{SessionID: "lobby-1"}, nil
	}

	found, err := s.service.Find(s.ctx, s.ident, Request{GameModes: []string{"default"}, Client: s.client()})
	s.Require().NoError(err)
	joined, err := s.service.Join(s.ctx, s.ident, JoinRequest{LobbyID: "lobby-1", Client: s.client()})
	s.Require().NoError(err)

	s.Equal(found.SessionID, joined.SessionID)
	s.Equal(found.Region, joined.Region)
	s.Equal(found.Ports, joined.Ports)
}

func (s *ServiceSuite) TestJoinLobbyClosed() {
	s.allocator.respond = failWith(model.FailureLobbyClosed)

	_, err := s.service.Join(s.ctx, s.ident, JoinRequest{LobbyID: "lobby-1", Client: s.client()})
	s.ErrorIs(err, model.ErrLobbyClosed)
}

// Captcha tests

func (s *ServiceSuite) TestCaptchaRequiredHCaptcha() {
	s.setCaptcha(&model.CaptchaConfig{
		RequestsBeforeReverify: 5,
		VerificationTTL:        time.Hour,
		HCaptcha:               &model.HCaptchaConfig{SiteKey: "site-key", Secret: "secret"},
	})

	_, err := s.service.Find(s.ctx, s.ident, Request{GameModes: []string{"default"}, Client: s.client()})

	var required *model.CaptchaRequiredError
	s.Require().ErrorAs(err, &required)
	s.Equal(map[string]any{"hcaptcha": map[string]any{"site_id": "site-key"}}, required.Metadata)
	s.Empty(s.allocator.dispatched())
}

func (s *ServiceSuite) TestCaptchaRequiredTurnstile() {
	s.setCaptcha(&model.CaptchaConfig{
		RequestsBeforeReverify: 5,
		VerificationTTL:        time.Hour,
		Turnstile:              &model.TurnstileConfig{SiteKey: "site-key", Secret: "secret"},
	})

	_, err := s.service.Join(s.ctx, s.ident, JoinRequest{LobbyID: "lobby-1", Client: s.client()})

	var required *model.CaptchaRequiredError
	s.Require().ErrorAs(err, &required)
	s.Equal(map[string]any{"turnstile": map[string]any{}}, required.Metadata)
}

func (s *ServiceSuite) TestCaptchaSolvedAllowsFind() {
	s.setCaptcha(&model.CaptchaConfig{
		RequestsBeforeReverify: 1,
		VerificationTTL:        time.Hour,
		HCaptcha:               &model.HCaptchaConfig{SiteKey: "site-key", Secret: "secret"},
	})

	_, err := s.service.Find(s.ctx, s.ident, Request{
		GameModes: []string{"default"},
		Captcha:   &model.CaptchaResponse{Provider: model.CaptchaProviderHCaptcha, ClientResponse: "solved"},
		Client:    s.client(),
	})
	s.Require().NoError(err)

	// One more request is allowed without a response, then the captcha is required again
	_, err = s.service.Find(s.ctx, s.ident, Request{GameModes: []string{"default"}, Client: s.client()})
	s.Require().NoError(err)

	_, err = s.service.Find(s.ctx, s.ident, Request{GameModes: []string{"default"}, Client: s.client()})
	var required *model.CaptchaRequiredError
	s.ErrorAs(err, &required)
}

func (s *ServiceSuite) TestCaptchaInvalidResponse() {
	s.setCaptcha(&model.CaptchaConfig{
		RequestsBeforeReverify: 1,
		VerificationTTL:        time.Hour,
		HCaptcha:               &model.HCaptchaConfig{SiteKey: "site-key", Secret: "secret"},
	})

	_, err := s.service.Find(s.ctx, s.ident, Request{
		GameModes: []string{"default"},
		Captcha:   &model.CaptchaResponse{Provider: model.CaptchaProviderHCaptcha, ClientResponse: "guess"},
		Client:    s.client(),
	})
	s.ErrorIs(err, model.ErrCaptchaInvalid)
	s.Empty(s.allocator.dispatched())
}

func (s *ServiceSuite) TestCaptchaWithoutProviderIsInternal() {
	s.setCaptcha(&model.CaptchaConfig{RequestsBeforeReverify: 1, VerificationTTL: time.Hour})

	_, err := s.service.Find(s.ctx, s.ident, Request{GameModes: []string{"default"}, Client: s.client()})
	s.ErrorIs(err, model.ErrInternal)
	s.Empty(s.allocator.dispatched())
}

func (s *ServiceSuite) TestCaptchaWithBothProvidersLeavesClientAllowance() {
	valid := &model.CaptchaConfig{
		RequestsBeforeReverify: 1,
		VerificationTTL:        time.Hour,
		HCaptcha:               &model.HCaptchaConfig{SiteKey: "site-key", Secret: "secret"},
	}
	s.setCaptcha(valid)
	_, err := s.service.Find(s.ctx, s.ident, Request{
		GameModes: []string{"default"},
		Captcha:   &model.CaptchaResponse{Provider: model.CaptchaProviderHCaptcha, ClientResponse: "solved"},
		Client:    s.client(),
	})
	s.Require().NoError(err)

	both := *valid
	both.Turnstile = &model.TurnstileConfig{SiteKey: "site-key", Secret: "secret"}
	s.setCaptcha(&both)
	checks, verifies := s.gate.checks, s.gate.verifies

	_, err = s.service.Find(s.ctx, s.ident, Request{GameModes: []string{"default"}, Client: s.client()})
	s.ErrorIs(err, model.ErrInternal)
	s.Equal(checks, s.gate.checks)
	s.Equal(verifies, s.gate.verifies)

	// The allowance granted by the earlier solve is still available
	s.setCaptcha(valid)
	_, err = s.service.Find(s.ctx, s.ident, Request{GameModes: []string{"default"}, Client: s.client()})
	s.NoError(err)
}

// Development identity tests

func (s *ServiceSuite) TestDevIdentityGetsLocalLobby() {
	port := uint16(7777)
	dev := &auth.Identity{
		Kind:        auth.IdentityDev,
		NamespaceID: testutil.NamespaceID,
		Dev: &auth.DevBindings{
			Hostname: "127.0.0.1",
			Ports: []auth.DevPort{
				{Label: "default", TargetPort: &port, ProxyProtocol: model.ProxyProtocolHTTPS},
				{Label: "voice", PortRange: &model.PortRange{Min: 26000, Max: 26010}, ProxyProtocol: model.ProxyProtocolUDP},
			},
		},
	}

	for _, run := range []func() (*model.JoinResult, error){
		func() (*model.JoinResult, error) {
			return s.service.Find(s.ctx, dev, Request{GameModes: []string{"does-not-matter"}})
		},
		func() (*model.JoinResult, error) {
			return s.service.Join(s.ctx, dev, JoinRequest{LobbyID: "anything"})
		},
	} {
		result, err := run()
		s.Require().NoError(err)

		s.Equal(model.NilSessionID, result.SessionID)
		s.Equal(model.JoinRegion{ID: "dev-lcl", DisplayName: "Local"}, result.Region)
		s.Equal("127.0.0.1:7777", *result.Ports["default"].Host)
		s.True(result.Ports["default"].IsTLS)
		s.Nil(result.Ports["voice"].Host)
		s.Equal(&model.PortRange{Min: 26000, Max: 26010}, result.Ports["voice"].PortRange)
		s.NotEmpty(result.Player.Token)
	}
	s.Empty(s.allocator.dispatched())
}
