package auth

import (
	"context"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mcoot/matchmaker/internal/model"
)

// TokenKind distinguishes the tokens this service issues
type TokenKind string

const (
	KindPlayer       TokenKind = "player"
	KindDevPlayer    TokenKind = "dev_player"
	KindDevNamespace TokenKind = "dev_namespace"
	KindLobby        TokenKind = "lobby"
)

// Claims is the JWT payload of every matchmaker token
type Claims struct {
	jwt.RegisteredClaims
	Kind        TokenKind         `json:"kind"`
	NamespaceID model.NamespaceID `json:"ns,omitempty"`
	Hostname    string            `json:"hostname,omitempty"`
	Ports       []DevPort         `json:"ports,omitempty"`
}

// DevPort is a port the developer's local game server listens on
type DevPort struct {
	Label         string              `json:"label"`
	TargetPort    *uint16             `json:"target_port,omitempty"`
	PortRange     *model.PortRange    `json:"port_range,omitempty"`
	ProxyProtocol model.ProxyProtocol `json:"protocol"`
}

// DevBindings describe a developer's local game server
type DevBindings struct {
	Hostname string
	Ports    []DevPort
}

// IdentityKind is the kind of caller behind a request
type IdentityKind int

const (
	// IdentityPublic is a game client holding a namespace public token
	IdentityPublic IdentityKind = iota
	// IdentityDev is a developer testing against a local game server
	IdentityDev
	// IdentityLobby is a lobby's game server
	IdentityLobby
)

// Identity is an authenticated caller
type Identity struct {
	Kind        IdentityKind
	NamespaceID model.NamespaceID
	Dev         *DevBindings    // IdentityDev only
	LobbyID     model.SessionID // IdentityLobby only
}

// IsDev reports whether the identity is a development identity
func (i *Identity) IsDev() bool {
	return i.Kind == IdentityDev
}

type contextKey struct{}

// WithIdentity returns a context carrying the identity
func WithIdentity(ctx context.Context, ident *Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, ident)
}

// IdentityFromContext returns the identity stored by WithIdentity, or nil
func IdentityFromContext(ctx context.Context) *Identity {
	ident, _ := ctx.Value(contextKey{}).(*Identity)
	return ident
}
