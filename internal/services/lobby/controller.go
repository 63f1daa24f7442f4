// Package lobby is an in-process session allocator. It serves find requests
// from storage and creates sessions with synthetic compute runs, for single
// node deployments and development.
package lobby

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mcoot/matchmaker/internal/dependencies/clock"
	"github.com/mcoot/matchmaker/internal/dependencies/random"
	"github.com/mcoot/matchmaker/internal/model"
	"github.com/mcoot/matchmaker/internal/services/ports"
	"github.com/mcoot/matchmaker/internal/storage"
)

// Config holds configuration for the local allocator
type Config struct {
	// IngressDomain is the parent domain of proxied hostnames
	IngressDomain string `env:"INGRESS_DOMAIN" envDefault:"lobby.localhost"`
	// HostIP is the address reported for host networks
	HostIP string `env:"HOST_IP" envDefault:"127.0.0.1"`
	// MaxLobbiesPerNamespace caps auto-created sessions
	MaxLobbiesPerNamespace int `env:"MAX_LOBBIES" envDefault:"100"`
	// MaxPlayersPerSource caps players sharing a remote address in one request
	MaxPlayersPerSource int `env:"MAX_PLAYERS_PER_SOURCE" envDefault:"8"`
	// MaxMessageAge is how old a find request may be when it is served
	MaxMessageAge time.Duration `env:"MAX_MESSAGE_AGE" envDefault:"30s"`
}

// DefaultConfig returns default allocator configuration
func DefaultConfig() Config {
	return Config{
		IngressDomain:          "lobby.localhost",
		HostIP:                 "127.0.0.1",
		MaxLobbiesPerNamespace: 100,
		MaxPlayersPerSource:    8,
		MaxMessageAge:          30 * time.Second,
	}
}

// Ingress ports by protocol
var ingressPorts = map[model.RunProxyProtocol]uint16{
	model.RunProxyProtocolHTTP:   80,
	model.RunProxyProtocolHTTPS:  443,
	model.RunProxyProtocolTCP:    20000,
	model.RunProxyProtocolTCPTLS: 20443,
	model.RunProxyProtocolUDP:    26000,
}

// Controller allocates sessions. Allocations are serialized.
type Controller struct {
	storage storage.Storage
	clock   clock.Clock
	random  random.Random
	logger  *slog.Logger
	cfg     Config

	// sem holds one token while an allocation or lifecycle update runs
	sem chan struct{}
}

// NewController creates a new local allocator
func NewController(
	storage storage.Storage,
	clock clock.Clock,
	random random.Random,
	logger *slog.Logger,
	cfg Config,
) *Controller {
	defaults := DefaultConfig()
	if cfg.IngressDomain == "" {
		cfg.IngressDomain = defaults.IngressDomain
	}
	if cfg.HostIP == "" {
		cfg.HostIP = defaults.HostIP
	}
	if cfg.MaxLobbiesPerNamespace == 0 {
		cfg.MaxLobbiesPerNamespace = defaults.MaxLobbiesPerNamespace
	}
	if cfg.MaxPlayersPerSource == 0 {
		cfg.MaxPlayersPerSource = defaults.MaxPlayersPerSource
	}
	if cfg.MaxMessageAge == 0 {
		cfg.MaxMessageAge = defaults.MaxMessageAge
	}
	return &Controller{
		storage: storage,
		clock:   clock,
		random:  random,
		logger:  logger,
		cfg:     cfg,
		sem:     make(chan struct{}, 1),
	}
}

// Interface for dependency injection
type ControllerInterface interface {
	Dispatch(ctx context.Context, req *model.FindRequest) (*model.FindOutcome, error)
	PublishLobbyReady(ctx context.Context, ns model.NamespaceID, lobbyID model.SessionID) error
	PublishLobbyClosed(ctx context.Context, ns model.NamespaceID, lobbyID model.SessionID, isClosed bool) error
}

var _ ControllerInterface = (*Controller)(nil)

func failure(code model.FailureCode) *model.FindOutcome {
	return &model.FindOutcome{Failure: &code}
}

// lock waits for exclusive access or until ctx is done
func (c *Controller) lock(ctx context.Context) error {
	select {
	case c.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Controller) unlock() {
	<-c.sem
}

// stale reports whether req was sent too long ago to serve. Requests
// without a send time are never stale.
func (c *Controller) stale(req *model.FindRequest) bool {
	return !req.SentAt.IsZero() && c.clock.Since(req.SentAt) > c.cfg.MaxMessageAge
}

// Dispatch serves a find request
func (c *Controller) Dispatch(ctx context.Context, req *model.FindRequest) (*model.FindOutcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if c.stale(req) {
		c.logger.Warn("dropping stale find request",
			slog.String("query_id", string(req.QueryID)),
			slog.Time("sent_at", req.SentAt),
		)
		return failure(model.FailureStaleMessage), nil
	}

	if tooManyFromSource(req.Players, c.cfg.MaxPlayersPerSource) {
		return failure(model.FailureTooManyPlayersFromSource), nil
	}

	if err := c.lock(ctx); err != nil {
		return nil, err
	}
	defer c.unlock()

	var (
		outcome *model.FindOutcome
		err     error
	)
	switch q := req.Query.(type) {
	case model.DirectQuery:
		outcome, err = c.joinDirect(ctx, req, q)
	case model.GameModeQuery:
		outcome, err = c.findOrCreate(ctx, req, q)
	default:
		return nil, fmt.Errorf("unsupported query type %T", req.Query)
	}
	if err != nil {
		return nil, err
	}

	if outcome.Failure != nil {
		c.logger.Info("find request failed",
			slog.String("query_id", string(req.QueryID)),
			slog.String("failure", outcome.Failure.String()),
		)
	} else {
		c.logger.Info("find request allocated",
			slog.String("query_id", string(req.QueryID)),
			slog.String("lobby_id", string(outcome.SessionID)),
		)
	}
	return outcome, nil
}

func tooManyFromSource(players []model.FindPlayer, limit int) bool {
	if limit <= 0 {
		return false
	}
	perSource := make(map[string]int)
	for _, p := range players {
		perSource[p.ClientInfo.RemoteAddress]++
		if perSource[p.ClientInfo.RemoteAddress] > limit {
			return true
		}
	}
	return false
}

func (c *Controller) joinDirect(ctx context.Context, req *model.FindRequest, q model.DirectQuery) (*model.FindOutcome, error) {
	session, err := c.storage.GetSession(ctx, q.SessionID)
	if err != nil {
		if errors.Is(err, model.ErrSessionNotFound) {
			return failure(model.FailureLobbyNotFound), nil
		}
		return nil, err
	}
	if session.NamespaceID != req.NamespaceID {
		return failure(model.FailureLobbyNotFound), nil
	}
	if session.IsClosed {
		return failure(model.FailureLobbyClosed), nil
	}

	counts, err := c.storage.GetPlayerCounts(ctx, []model.SessionID{session.ID})
	if err != nil {
		return nil, err
	}
	current := counts[session.ID]
	if current+len(req.Players) > capacity(session, req.JoinKind) {
		return failure(model.FailureLobbyFull), nil
	}

	return c.admit(ctx, session.ID, current, len(req.Players))
}

func (c *Controller) findOrCreate(ctx context.Context, req *model.FindRequest, q model.GameModeQuery) (*model.FindOutcome, error) {
	ids, err := c.storage.ListSessionIDs(ctx, req.NamespaceID)
	if err != nil {
		return nil, err
	}
	sessions, err := c.storage.GetSessions(ctx, ids)
	if err != nil {
		return nil, err
	}
	counts, err := c.storage.GetPlayerCounts(ctx, ids)
	if err != nil {
		return nil, err
	}

	if best := pick(sessions, counts, q, req); best != nil {
		return c.admit(ctx, best.ID, counts[best.ID], len(req.Players))
	}

	if q.AutoCreate == nil {
		return failure(model.FailureNoAvailableLobbies), nil
	}
	if len(sessions) >= c.cfg.MaxLobbiesPerNamespace {
		return failure(model.FailureLobbyCountOverMax), nil
	}
	return c.create(ctx, req, *q.AutoCreate)
}

// pick returns the fullest joinable session, preferring earlier game modes
// then earlier regions
func pick(sessions []*model.Session, counts map[model.SessionID]int, q model.GameModeQuery, req *model.FindRequest) *model.Session {
	var (
		best     *model.Session
		bestRank [3]int
	)
	for _, session := range sessions {
		if session.IsClosed {
			continue
		}
		modeRank := indexOf(q.GameModeIDs, session.GameModeID)
		regionRank := indexOf(q.RegionIDs, session.RegionID)
		if modeRank < 0 || regionRank < 0 {
			continue
		}
		current := counts[session.ID]
		if current+len(req.Players) > capacity(session, req.JoinKind) {
			continue
		}

		rank := [3]int{modeRank, regionRank, -current}
		if best == nil || less(rank, bestRank) {
			best, bestRank = session, rank
		}
	}
	return best
}

func less(a, b [3]int) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

func indexOf[T comparable](items []T, v T) int {
	for i, item := range items {
		if item == v {
			return i
		}
	}
	return -1
}

func capacity(session *model.Session, kind model.JoinKind) int {
	switch kind {
	case model.JoinKindDirect:
		return session.MaxPlayersDirect
	case model.JoinKindParty:
		return session.MaxPlayersParty
	default:
		return session.MaxPlayersNormal
	}
}

func (c *Controller) admit(ctx context.Context, id model.SessionID, current, joining int) (*model.FindOutcome, error) {
	if err := c.storage.SetPlayerCount(ctx, id, current+joining); err != nil {
		return nil, err
	}
	return &model.FindOutcome{SessionID: id}, nil
}

func (c *Controller) create(ctx context.Context, req *model.FindRequest, ac model.AutoCreate) (*model.FindOutcome, error) {
	versionID, err := c.storage.ResolveGameModeVersion(ctx, ac.GameModeID)
	if err != nil {
		return nil, err
	}
	version, err := c.storage.GetVersion(ctx, versionID)
	if err != nil {
		return nil, err
	}
	gm := version.GameModeByID(ac.GameModeID)
	if gm == nil {
		return nil, fmt.Errorf("game mode %s missing from version %s", ac.GameModeID, versionID)
	}
	if !gm.EnabledIn(ac.RegionID) {
		return failure(model.FailureRegionNotEnabled), nil
	}

	sessionID := model.SessionID(c.random.NewID())
	run := c.newRun(sessionID, ac.RegionID, gm)
	if err := c.storage.SaveRun(ctx, run); err != nil {
		return nil, err
	}

	session := &model.Session{
		ID:               sessionID,
		NamespaceID:      req.NamespaceID,
		RegionID:         ac.RegionID,
		GameModeID:       gm.ID,
		RunID:            run.ID,
		MaxPlayersNormal: gm.MaxPlayersNormal,
		MaxPlayersDirect: gm.MaxPlayersDirect,
		MaxPlayersParty:  gm.MaxPlayersParty,
		CreatedAt:        c.clock.Now(),
	}
	if err := c.storage.SaveSession(ctx, session); err != nil {
		return nil, err
	}

	c.logger.Info("lobby created",
		slog.String("lobby_id", string(sessionID)),
		slog.String("game_mode_id", string(gm.ID)),
		slog.String("region_id", string(ac.RegionID)),
	)

	return c.admit(ctx, sessionID, 0, len(req.Players))
}

// newRun synthesizes the compute run for a new session. Proxied ports are
// exposed under the ingress domain and every run gets a host network.
func (c *Controller) newRun(sessionID model.SessionID, region model.RegionID, gm *model.GameMode) *model.Run {
	run := &model.Run{
		ID:       model.RunID(c.random.NewID()),
		RegionID: region,
		Networks: []model.Network{{Mode: model.HostNetworkMode, IP: c.cfg.HostIP}},
	}
	for _, decl := range gm.Ports {
		if decl.ProxyKind != model.ProxyKindProxied {
			continue
		}
		protocol, ok := model.RunProtocolFor(decl.ProxyProtocol)
		if !ok {
			continue
		}
		run.ProxiedPorts = append(run.ProxiedPorts, model.ProxiedPort{
			TargetLabel:      ports.RunPortLabel(decl.Label),
			IngressHostnames: []string{fmt.Sprintf("%s-%s.%s", sessionID, decl.Label, c.cfg.IngressDomain)},
			IngressPort:      ingressPorts[protocol],
			Protocol:         protocol,
		})
	}
	return run
}

// PublishLobbyReady records that a lobby's game server is ready
func (c *Controller) PublishLobbyReady(ctx context.Context, ns model.NamespaceID, lobbyID model.SessionID) error {
	if _, err := c.lobby(ctx, ns, lobbyID); err != nil {
		return err
	}
	c.logger.Info("lobby ready",
		slog.String("lobby_id", string(lobbyID)),
	)
	return nil
}

// PublishLobbyClosed opens or closes a lobby to new players
func (c *Controller) PublishLobbyClosed(ctx context.Context, ns model.NamespaceID, lobbyID model.SessionID, isClosed bool) error {
	if err := c.lock(ctx); err != nil {
		return err
	}
	defer c.unlock()

	session, err := c.lobby(ctx, ns, lobbyID)
	if err != nil {
		return err
	}
	session.IsClosed = isClosed
	return c.storage.SaveSession(ctx, session)
}

func (c *Controller) lobby(ctx context.Context, ns model.NamespaceID, lobbyID model.SessionID) (*model.Session, error) {
	session, err := c.storage.GetSession(ctx, lobbyID)
	if err != nil {
		if errors.Is(err, model.ErrSessionNotFound) {
			return nil, model.ErrLobbyNotFound
		}
		return nil, err
	}
	if session.NamespaceID != ns {
		return nil, model.ErrLobbyNotFound
	}
	return session, nil
}
