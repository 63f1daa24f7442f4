// Package bootstrap seeds storage with regions, namespaces and their active
// versions from a JSON document, and mints credentials for each namespace.
package bootstrap

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/mcoot/matchmaker/internal/model"
	"github.com/mcoot/matchmaker/internal/services/auth"
	"github.com/mcoot/matchmaker/internal/storage"
)

// TokenMinter creates namespace credentials
type TokenMinter interface {
	CreatePublicToken(ctx context.Context, ns model.NamespaceID) (string, error)
	IssueDevToken(ns model.NamespaceID, hostname string, ports []auth.DevPort) (string, error)
}

// Document is the bootstrap file format
type Document struct {
	Regions    []RegionDoc    `json:"regions"`
	Namespaces []NamespaceDoc `json:"namespaces"`
}

type RegionDoc struct {
	ID                  model.RegionID `json:"id"`
	NameID              string         `json:"name_id"`
	DisplayName         string         `json:"display_name"`
	ProviderDisplayName string         `json:"provider_display_name"`
	Coord               model.Coord    `json:"coord"`
}

type NamespaceDoc struct {
	ID      model.NamespaceID `json:"id"`
	NameID  string            `json:"name_id"`
	Version VersionDoc        `json:"version"`
	// DevHostname mints a development token pointing at this host when set
	DevHostname string `json:"dev_hostname,omitempty"`
}

type VersionDoc struct {
	ID        model.VersionID `json:"id"`
	GameModes []GameModeDoc   `json:"game_modes"`
	Captcha   *CaptchaDoc     `json:"captcha,omitempty"`
}

type GameModeDoc struct {
	ID               model.GameModeID `json:"id"`
	NameID           string           `json:"name_id"`
	Regions          []string         `json:"regions"` // region name ids
	Ports            []PortDoc        `json:"ports"`
	MaxPlayersNormal int              `json:"max_players_normal"`
	MaxPlayersDirect int              `json:"max_players_direct"`
	MaxPlayersParty  int              `json:"max_players_party"`
}

type PortDoc struct {
	Label         string              `json:"label"`
	TargetPort    *uint16             `json:"target_port,omitempty"`
	PortRange     *model.PortRange    `json:"port_range,omitempty"`
	ProxyKind     model.ProxyKind     `json:"proxy_kind"`
	ProxyProtocol model.ProxyProtocol `json:"proxy_protocol"`
}

type CaptchaDoc struct {
	RequestsBeforeReverify int    `json:"requests_before_reverify"`
	VerificationTTL        string `json:"verification_ttl"`
	HCaptcha               *struct {
		SiteKey string `json:"site_key"`
		Secret  string `json:"secret"`
	} `json:"hcaptcha,omitempty"`
	Turnstile *struct {
		SiteKey string `json:"site_key"`
		Secret  string `json:"secret"`
	} `json:"turnstile,omitempty"`
}

// Credentials are the tokens minted for one namespace
type Credentials struct {
	NamespaceID model.NamespaceID
	NameID      string
	PublicToken string
	DevToken    string
}

// Service loads bootstrap documents
type Service struct {
	storage storage.Storage
	tokens  TokenMinter
	logger  *slog.Logger
}

// New creates a new bootstrap Service
func New(storage storage.Storage, tokens TokenMinter, logger *slog.Logger) *Service {
	return &Service{
		storage: storage,
		tokens:  tokens,
		logger:  logger,
	}
}

// LoadFromFile seeds storage from a JSON file
func (s *Service) LoadFromFile(ctx context.Context, path string) ([]Credentials, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return s.Load(ctx, file)
}

// Load seeds storage from a JSON document
func (s *Service) Load(ctx context.Context, r io.Reader) ([]Credentials, error) {
	var doc Document
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding bootstrap document: %w", err)
	}
	return s.Apply(ctx, &doc)
}

// Apply seeds storage from a decoded document
func (s *Service) Apply(ctx context.Context, doc *Document) ([]Credentials, error) {
	regionIDs := make(map[string]model.RegionID, len(doc.Regions))
	for _, r := range doc.Regions {
		if err := s.storage.SaveRegion(ctx, &model.Region{
			ID:                  r.ID,
			NameID:              r.NameID,
			DisplayName:         r.DisplayName,
			ProviderDisplayName: r.ProviderDisplayName,
			Coord:               r.Coord,
		}); err != nil {
			return nil, err
		}
		regionIDs[r.NameID] = r.ID
	}

	creds := make([]Credentials, 0, len(doc.Namespaces))
	for _, ns := range doc.Namespaces {
		version, err := ns.Version.toModel(regionIDs)
		if err != nil {
			return nil, fmt.Errorf("namespace %s: %w", ns.NameID, err)
		}
		if err := s.storage.SaveVersion(ctx, version); err != nil {
			return nil, err
		}
		if err := s.storage.SaveNamespace(ctx, &model.Namespace{
			ID:        ns.ID,
			NameID:    ns.NameID,
			VersionID: version.ID,
		}); err != nil {
			return nil, err
		}

		c, err := s.mint(ctx, ns, version)
		if err != nil {
			return nil, err
		}
		creds = append(creds, c)

		s.logger.Info("namespace bootstrapped",
			slog.String("namespace_id", string(ns.ID)),
			slog.String("version_id", string(version.ID)),
			slog.Int("game_modes", len(version.GameModes)),
		)
	}
	return creds, nil
}

func (s *Service) mint(ctx context.Context, ns NamespaceDoc, version *model.Version) (Credentials, error) {
	c := Credentials{NamespaceID: ns.ID, NameID: ns.NameID}

	var err error
	if c.PublicToken, err = s.tokens.CreatePublicToken(ctx, ns.ID); err != nil {
		return c, err
	}
	if ns.DevHostname != "" {
		if c.DevToken, err = s.tokens.IssueDevToken(ns.ID, ns.DevHostname, devPorts(version)); err != nil {
			return c, err
		}
	}
	return c, nil
}

// devPorts binds every declared port of every game mode, first label wins
func devPorts(version *model.Version) []auth.DevPort {
	seen := make(map[string]bool)
	var ports []auth.DevPort
	for _, gm := range version.GameModes {
		for _, p := range gm.Ports {
			if seen[p.Label] {
				continue
			}
			seen[p.Label] = true
			ports = append(ports, auth.DevPort{
				Label:         p.Label,
				TargetPort:    p.TargetPort,
				PortRange:     p.PortRange,
				ProxyProtocol: p.ProxyProtocol,
			})
		}
	}
	return ports
}

func (v VersionDoc) toModel(regionIDs map[string]model.RegionID) (*model.Version, error) {
	version := &model.Version{
		ID:        v.ID,
		GameModes: make([]model.GameMode, 0, len(v.GameModes)),
	}

	for _, gm := range v.GameModes {
		mode := model.GameMode{
			ID:               gm.ID,
			NameID:           gm.NameID,
			MaxPlayersNormal: gm.MaxPlayersNormal,
			MaxPlayersDirect: gm.MaxPlayersDirect,
			MaxPlayersParty:  gm.MaxPlayersParty,
		}
		for _, name := range gm.Regions {
			id, ok := regionIDs[name]
			if !ok {
				return nil, fmt.Errorf("game mode %s: %w: %s", gm.NameID, model.ErrRegionNotFound, name)
			}
			mode.Regions = append(mode.Regions, id)
		}
		for _, p := range gm.Ports {
			mode.Ports = append(mode.Ports, model.PortDecl(p))
		}
		version.GameModes = append(version.GameModes, mode)
	}

	if v.Captcha != nil {
		cfg := &model.CaptchaConfig{RequestsBeforeReverify: v.Captcha.RequestsBeforeReverify}
		if v.Captcha.VerificationTTL != "" {
			ttl, err := time.ParseDuration(v.Captcha.VerificationTTL)
			if err != nil {
				return nil, fmt.Errorf("captcha verification_ttl: %w", err)
			}
			cfg.VerificationTTL = ttl
		}
		if h := v.Captcha.HCaptcha; h != nil {
			cfg.HCaptcha = &model.HCaptchaConfig{SiteKey: h.SiteKey, Secret: h.Secret}
		}
		if t := v.Captcha.Turnstile; t != nil {
			cfg.Turnstile = &model.TurnstileConfig{SiteKey: t.SiteKey, Secret: t.Secret}
		}
		if _, ok := cfg.Provider(); !ok {
			return nil, fmt.Errorf("captcha config must name exactly one provider")
		}
		version.Captcha = cfg
	}

	return version, nil
}
