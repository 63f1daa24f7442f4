package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/matchmaker/internal/dependencies/clock"
	"github.com/mcoot/matchmaker/internal/dependencies/random"
	"github.com/mcoot/matchmaker/internal/model"
	"github.com/mcoot/matchmaker/internal/storage"
)

// Errors
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// publicTokenPrefix marks namespace public tokens, which are not JWTs
const publicTokenPrefix = "pub_"

// Config holds configuration for the auth service
type Config struct {
	Secret         string        `env:"SECRET"`
	Issuer         string        `env:"ISSUER" envDefault:"api-matchmaker"`
	PlayerTokenTTL time.Duration `env:"PLAYER_TTL" envDefault:"2160h"`
	DevTokenTTL    time.Duration `env:"DEV_TTL" envDefault:"720h"`
	LobbyTokenTTL  time.Duration `env:"LOBBY_TTL" envDefault:"24h"`
}

// DefaultConfig returns default auth configuration
func DefaultConfig() Config {
	return Config{
		Issuer:         "api-matchmaker",
		PlayerTokenTTL: 90 * 24 * time.Hour,
		DevTokenTTL:    30 * 24 * time.Hour,
		LobbyTokenTTL:  24 * time.Hour,
	}
}

// Service issues and authenticates matchmaker tokens
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	random  random.Random
	cfg     Config
}

// New creates a new auth Service
func New(storage storage.Storage, clock clock.Clock, random random.Random, cfg Config) *Service {
	defaults := DefaultConfig()
	if cfg.Issuer == "" {
		cfg.Issuer = defaults.Issuer
	}
	if cfg.PlayerTokenTTL == 0 {
		cfg.PlayerTokenTTL = defaults.PlayerTokenTTL
	}
	if cfg.DevTokenTTL == 0 {
		cfg.DevTokenTTL = defaults.DevTokenTTL
	}
	if cfg.LobbyTokenTTL == 0 {
		cfg.LobbyTokenTTL = defaults.LobbyTokenTTL
	}
	return &Service{
		storage: storage,
		clock:   clock,
		random:  random,
		cfg:     cfg,
	}
}

// IssuePlayerToken issues a token entitling the holder to act as playerID
func (s *Service) IssuePlayerToken(playerID model.PlayerID) (model.Player, error) {
	return s.issuePlayer(KindPlayer, "", playerID)
}

// IssueDevPlayerToken issues a player token for a development namespace
func (s *Service) IssueDevPlayerToken(ns model.NamespaceID, playerID model.PlayerID) (model.Player, error) {
	return s.issuePlayer(KindDevPlayer, ns, playerID)
}

func (s *Service) issuePlayer(kind TokenKind, ns model.NamespaceID, playerID model.PlayerID) (model.Player, error) {
	claims := s.newClaims(kind, string(playerID), s.cfg.PlayerTokenTTL)
	claims.NamespaceID = ns

	token, err := s.sign(claims)
	if err != nil {
		return model.Player{}, err
	}
	return model.Player{
		ID:             playerID,
		Token:          token,
		TokenSessionID: claims.ID,
	}, nil
}

// IssueDevToken issues a namespace development token describing the
// developer's local game server
func (s *Service) IssueDevToken(ns model.NamespaceID, hostname string, ports []DevPort) (string, error) {
	claims := s.newClaims(KindDevNamespace, string(ns), s.cfg.DevTokenTTL)
	claims.NamespaceID = ns
	claims.Hostname = hostname
	claims.Ports = ports
	return s.sign(claims)
}

// IssueLobbyToken issues the token a lobby's game server uses to report its lifecycle
func (s *Service) IssueLobbyToken(ns model.NamespaceID, lobbyID model.SessionID) (string, error) {
	claims := s.newClaims(KindLobby, string(lobbyID), s.cfg.LobbyTokenTTL)
	claims.NamespaceID = ns
	return s.sign(claims)
}

// CreatePublicToken creates a namespace public token. The returned string is
// the only copy of the secret.
func (s *Service) CreatePublicToken(ctx context.Context, ns model.NamespaceID) (string, error) {
	id := s.random.NewID()
	secret := s.random.Secret(24)

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	if err := s.storage.SavePublicToken(ctx, &model.PublicToken{
		ID:          id,
		NamespaceID: ns,
		SecretHash:  string(hash),
	}); err != nil {
		return "", err
	}

	return publicTokenPrefix + id + "." + secret, nil
}

// Authenticate resolves a bearer token to the identity it grants
func (s *Service) Authenticate(ctx context.Context, token string) (*Identity, error) {
	if strings.HasPrefix(token, publicTokenPrefix) {
		return s.authenticatePublic(ctx, strings.TrimPrefix(token, publicTokenPrefix))
	}

	claims, err := s.parse(token)
	if err != nil {
		return nil, err
	}

	switch claims.Kind {
	case KindDevNamespace:
		return &Identity{
			Kind:        IdentityDev,
			NamespaceID: claims.NamespaceID,
			Dev: &DevBindings{
				Hostname: claims.Hostname,
				Ports:    claims.Ports,
			},
		}, nil
	case KindLobby:
		return &Identity{
			Kind:        IdentityLobby,
			NamespaceID: claims.NamespaceID,
			LobbyID:     model.SessionID(claims.Subject),
		}, nil
	default:
		// Player tokens authenticate game servers' player checks, not API calls
		return nil, ErrInvalidToken
	}
}

// ValidatePlayerToken checks a player token and returns the player it names
func (s *Service) ValidatePlayerToken(token string) (model.PlayerID, error) {
	claims, err := s.parse(token)
	if err != nil {
		return "", err
	}
	if claims.Kind != KindPlayer && claims.Kind != KindDevPlayer {
		return "", ErrInvalidToken
	}
	return model.PlayerID(claims.Subject), nil
}

func (s *Service) authenticatePublic(ctx context.Context, raw string) (*Identity, error) {
	id, secret, ok := strings.Cut(raw, ".")
	if !ok {
		return nil, ErrInvalidCredentials
	}

	pt, err := s.storage.GetPublicToken(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrPublicTokenNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(pt.SecretHash), []byte(secret)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return &Identity{
		Kind:        IdentityPublic,
		NamespaceID: pt.NamespaceID,
	}, nil
}

func (s *Service) newClaims(kind TokenKind, subject string, ttl time.Duration) *Claims {
	now := s.clock.Now()
	return &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.cfg.Issuer,
			Subject:   subject,
			ID:        s.random.NewID(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Kind: kind,
	}
}

func (s *Service) sign(claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

func (s *Service) parse(raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(
		raw,
		claims,
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(s.cfg.Secret), nil
		},
		jwt.WithIssuer(s.cfg.Issuer),
		jwt.WithTimeFunc(s.clock.Now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}
