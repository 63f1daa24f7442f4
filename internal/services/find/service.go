// Package find resolves find and join requests to a session a player can
// connect to.
package find

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mcoot/matchmaker/internal/dependencies/captcha"
	"github.com/mcoot/matchmaker/internal/dependencies/clock"
	"github.com/mcoot/matchmaker/internal/dependencies/random"
	"github.com/mcoot/matchmaker/internal/model"
	"github.com/mcoot/matchmaker/internal/services/auth"
	"github.com/mcoot/matchmaker/internal/services/autocreate"
	"github.com/mcoot/matchmaker/internal/services/ports"
	"github.com/mcoot/matchmaker/internal/services/region"
	"github.com/mcoot/matchmaker/internal/storage"
)

// Allocator hands a find request to the session allocator and waits for its
// single reply. Implementations must return when ctx is done.
type Allocator interface {
	Dispatch(ctx context.Context, req *model.FindRequest) (*model.FindOutcome, error)
}

// TokenIssuer issues the per-request player token
type TokenIssuer interface {
	IssuePlayerToken(playerID model.PlayerID) (model.Player, error)
	IssueDevPlayerToken(ns model.NamespaceID, playerID model.PlayerID) (model.Player, error)
}

// Config holds configuration for the find service
type Config struct {
	// FindTimeout bounds the wait for the allocator's reply
	FindTimeout time.Duration `env:"TIMEOUT" envDefault:"30s"`
}

// DefaultConfig returns default find configuration
func DefaultConfig() Config {
	return Config{
		FindTimeout: 30 * time.Second,
	}
}

// Request is a find by game modes
type Request struct {
	GameModes         []string // name ids, in preference order
	Regions           []string // name ids; nil picks the nearest region
	PreventAutoCreate bool
	Captcha           *model.CaptchaResponse
	Client            model.ClientInfo
}

// JoinRequest is a join of a specific session
type JoinRequest struct {
	LobbyID model.SessionID
	Captcha *model.CaptchaResponse
	Client  model.ClientInfo
}

// Service implements find and join
type Service struct {
	storage   storage.Storage
	selector  *region.Selector
	captcha   captcha.Service
	tokens    TokenIssuer
	allocator Allocator
	clock     clock.Clock
	random    random.Random
	logger    *slog.Logger
	cfg       Config
}

// New creates a new find Service
func New(
	storage storage.Storage,
	selector *region.Selector,
	captcha captcha.Service,
	tokens TokenIssuer,
	allocator Allocator,
	clock clock.Clock,
	random random.Random,
	logger *slog.Logger,
	cfg Config,
) *Service {
	if cfg.FindTimeout == 0 {
		cfg.FindTimeout = DefaultConfig().FindTimeout
	}
	return &Service{
		storage:   storage,
		selector:  selector,
		captcha:   captcha,
		tokens:    tokens,
		allocator: allocator,
		clock:     clock,
		random:    random,
		logger:    logger,
		cfg:       cfg,
	}
}

// Find places the player in a session of one of the requested game modes,
// creating one when allowed and none can take the player
func (s *Service) Find(ctx context.Context, ident *auth.Identity, req Request) (*model.JoinResult, error) {
	if ident.IsDev() {
		return s.devLobby(ident)
	}

	version, err := s.namespaceVersion(ctx, ident.NamespaceID)
	if err != nil {
		return nil, err
	}

	modes := make([]model.GameMode, 0, len(req.GameModes))
	for _, name := range req.GameModes {
		gm := version.GameModeByName(name)
		if gm == nil {
			return nil, fmt.Errorf("%w: %s", model.ErrGameModeNotFound, name)
		}
		modes = append(modes, *gm)
	}

	if req.Regions == nil && req.Client.Coord == nil {
		return nil, model.ErrMissingCoords
	}
	var coord model.Coord
	if req.Client.Coord != nil {
		coord = *req.Client.Coord
	}

	regionIDs, err := s.selector.Select(ctx, req.Regions, modes, coord)
	if err != nil {
		return nil, err
	}

	autoCreate, ok := autocreate.Derive(modes, regionIDs)
	if !ok {
		return nil, model.ErrNoValidGameModeRegionPair
	}
	if req.PreventAutoCreate {
		autoCreate = nil
	}

	modeIDs := make([]model.GameModeID, len(modes))
	for i, gm := range modes {
		modeIDs[i] = gm.ID
	}

	query := model.GameModeQuery{
		GameModeIDs: modeIDs,
		RegionIDs:   regionIDs,
		AutoCreate:  autoCreate,
	}
	return s.findInner(ctx, ident.NamespaceID, version, model.JoinKindNormal, query, req.Captcha, req.Client)
}

// Join places the player in a specific session
func (s *Service) Join(ctx context.Context, ident *auth.Identity, req JoinRequest) (*model.JoinResult, error) {
	if ident.IsDev() {
		return s.devLobby(ident)
	}

	version, err := s.namespaceVersion(ctx, ident.NamespaceID)
	if err != nil {
		return nil, err
	}

	query := model.DirectQuery{SessionID: req.LobbyID}
	return s.findInner(ctx, ident.NamespaceID, version, model.JoinKindDirect, query, req.Captcha, req.Client)
}

func (s *Service) namespaceVersion(ctx context.Context, nsID model.NamespaceID) (*model.Version, error) {
	ns, err := s.storage.GetNamespace(ctx, nsID)
	if err != nil {
		return nil, err
	}
	return s.storage.GetVersion(ctx, ns.VersionID)
}

// findInner gates, dispatches and resolves a query shared by find and join
func (s *Service) findInner(
	ctx context.Context,
	nsID model.NamespaceID,
	version *model.Version,
	kind model.JoinKind,
	query model.FindQuery,
	captchaResp *model.CaptchaResponse,
	client model.ClientInfo,
) (*model.JoinResult, error) {
	if version.Captcha != nil {
		if err := s.checkCaptcha(ctx, version.Captcha, captchaResp, client); err != nil {
			return nil, err
		}
	}

	playerID := model.PlayerID(s.random.NewID())
	player, err := s.tokens.IssuePlayerToken(playerID)
	if err != nil {
		return nil, fmt.Errorf("issuing player token: %w", err)
	}

	req := &model.FindRequest{
		QueryID:     model.QueryID(s.random.NewID()),
		NamespaceID: nsID,
		JoinKind:    kind,
		Players: []model.FindPlayer{{
			PlayerID:       playerID,
			TokenSessionID: player.TokenSessionID,
			ClientInfo:     client,
		}},
		Query:  query,
		SentAt: s.clock.Now(),
	}

	sessionID, err := s.dispatch(ctx, req)
	if err != nil {
		return nil, err
	}

	return s.resolveSession(ctx, req.QueryID, sessionID, player)
}

func (s *Service) checkCaptcha(ctx context.Context, cfg *model.CaptchaConfig, resp *model.CaptchaResponse, client model.ClientInfo) error {
	provider, ok := cfg.Provider()
	if !ok {
		s.logger.Error("captcha config must name exactly one provider")
		return fmt.Errorf("%w: captcha config must name exactly one provider", model.ErrInternal)
	}

	if resp != nil {
		return s.captcha.Verify(ctx, client.RemoteAddress, cfg, *resp)
	}

	needs, err := s.captcha.NeedsVerification(ctx, client.RemoteAddress, cfg)
	if err != nil {
		return fmt.Errorf("checking captcha: %w", err)
	}
	if !needs {
		return nil
	}

	switch provider {
	case model.CaptchaProviderHCaptcha:
		return &model.CaptchaRequiredError{Metadata: map[string]any{
			"hcaptcha": map[string]any{"site_id": cfg.HCaptcha.SiteKey},
		}}
	case model.CaptchaProviderTurnstile:
		return &model.CaptchaRequiredError{Metadata: map[string]any{
			"turnstile": map[string]any{},
		}}
	}
	return fmt.Errorf("%w: unknown captcha provider %q", model.ErrInternal, provider)
}

// dispatch sends the request once and maps the reply
func (s *Service) dispatch(ctx context.Context, req *model.FindRequest) (model.SessionID, error) {
	dctx, cancel := context.WithTimeout(ctx, s.cfg.FindTimeout)
	defer cancel()

	outcome, err := s.allocator.Dispatch(dctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(dctx.Err(), context.DeadlineExceeded) {
			s.logger.Warn("find request timed out",
				slog.String("query_id", string(req.QueryID)),
				slog.Duration("timeout", s.cfg.FindTimeout),
			)
			return "", model.ErrFindTimeout
		}
		return "", fmt.Errorf("dispatching find request: %w", err)
	}

	if outcome.Failure != nil {
		err := FailureError(*outcome.Failure)
		if errors.Is(err, model.ErrInternal) {
			s.logger.Error("find request failed",
				slog.String("query_id", string(req.QueryID)),
				slog.String("failure", outcome.Failure.String()),
			)
		}
		return "", err
	}
	return outcome.SessionID, nil
}

// FailureError maps an allocator failure code to the error callers see
func FailureError(code model.FailureCode) error {
	switch code {
	case model.FailureStaleMessage:
		return model.ErrStaleMessage
	case model.FailureTooManyPlayersFromSource:
		return model.ErrTooManyPlayersFromSource
	case model.FailureLobbyStopped, model.FailureLobbyStoppedPrematurely:
		return model.ErrLobbyStopped
	case model.FailureLobbyClosed:
		return model.ErrLobbyClosed
	case model.FailureLobbyNotFound:
		return model.ErrLobbyNotFound
	case model.FailureNoAvailableLobbies:
		return model.ErrNoAvailableLobbies
	case model.FailureLobbyFull:
		return model.ErrLobbyFull
	case model.FailureLobbyCountOverMax:
		return model.ErrLobbyCountOverMax
	case model.FailureRegionNotEnabled:
		return model.ErrRegionNotEnabled
	case model.FailureDevTeamInvalidStatus:
		return model.ErrDevTeamInvalidStatus
	case model.FailureUnknown:
		return fmt.Errorf("%w: allocator reported an unknown failure", model.ErrInternal)
	}
	return fmt.Errorf("%w: unrecognized failure code %d", model.ErrInternal, int(code))
}

// resolveSession builds the response for an allocated session
func (s *Service) resolveSession(ctx context.Context, queryID model.QueryID, sessionID model.SessionID, player model.Player) (*model.JoinResult, error) {
	session, err := s.storage.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, model.ErrSessionNotFound) {
			// The allocator guarantees the session exists when it replies
			s.logger.Error("lobby not found in race condition",
				slog.String("query_id", string(queryID)),
				slog.String("lobby_id", string(sessionID)),
			)
			return nil, fmt.Errorf("%w: allocated lobby %s not found", model.ErrInternal, sessionID)
		}
		return nil, err
	}

	var (
		run      *model.Run
		gameMode *model.GameMode
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		run, err = s.storage.GetRun(gctx, session.RunID)
		return err
	})
	g.Go(func() error {
		versionID, err := s.storage.ResolveGameModeVersion(gctx, session.GameModeID)
		if err != nil {
			return err
		}
		version, err := s.storage.GetVersion(gctx, versionID)
		if err != nil {
			return err
		}
		gameMode = version.GameModeByID(session.GameModeID)
		if gameMode == nil {
			return fmt.Errorf("%w: game mode %s missing from version %s", model.ErrInternal, session.GameModeID, versionID)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("failed to resolve lobby config",
			slog.String("lobby_id", string(sessionID)),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	joinPorts, err := ports.TranslateAll(run, gameMode.Ports)
	if err != nil {
		s.logger.Error("failed to translate lobby ports",
			slog.String("lobby_id", string(sessionID)),
			slog.String("game_mode_id", string(gameMode.ID)),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	regions, err := s.storage.GetRegions(ctx, []model.RegionID{session.RegionID})
	if err != nil {
		return nil, err
	}
	if len(regions) == 0 {
		return nil, fmt.Errorf("%w: region %s not found", model.ErrInternal, session.RegionID)
	}

	return &model.JoinResult{
		SessionID: session.ID,
		Region: model.JoinRegion{
			ID:          regions[0].NameID,
			DisplayName: regions[0].DisplayName,
		},
		Ports:  joinPorts,
		Player: player,
	}, nil
}
