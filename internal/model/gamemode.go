package model

import "time"

// ProxyKind is how traffic reaches a session's port
type ProxyKind string

const (
	// ProxyKindProxied terminates traffic at the shared ingress
	ProxyKindProxied ProxyKind = "proxied"
	// ProxyKindDirect exposes the compute run's host network
	ProxyKindDirect ProxyKind = "direct"
)

// ProxyProtocol is the matchmaking-layer port protocol
type ProxyProtocol string

const (
	ProxyProtocolHTTP   ProxyProtocol = "http"
	ProxyProtocolHTTPS  ProxyProtocol = "https"
	ProxyProtocolTCP    ProxyProtocol = "tcp"
	ProxyProtocolTCPTLS ProxyProtocol = "tcp_tls"
	ProxyProtocolUDP    ProxyProtocol = "udp"
)

// IsTLS reports whether clients must speak TLS to this protocol
func (p ProxyProtocol) IsTLS() bool {
	return p == ProxyProtocolHTTPS || p == ProxyProtocolTCPTLS
}

// PortRange is an inclusive range of ports
type PortRange struct {
	Min uint16 `json:"min"`
	Max uint16 `json:"max"`
}

// PortDecl is a port declared by a game mode's runtime
type PortDecl struct {
	Label         string
	TargetPort    *uint16
	PortRange     *PortRange
	ProxyKind     ProxyKind
	ProxyProtocol ProxyProtocol
}

// GameMode is a configured variant of gameplay (a lobby group)
type GameMode struct {
	ID               GameModeID
	NameID           string
	Regions          []RegionID // enabled regions
	Ports            []PortDecl
	MaxPlayersNormal int
	MaxPlayersDirect int
	MaxPlayersParty  int
}

// EnabledIn reports whether the game mode is enabled in the region
func (g *GameMode) EnabledIn(id RegionID) bool {
	for _, r := range g.Regions {
		if r == id {
			return true
		}
	}
	return false
}

// CaptchaConfig configures the captcha gate for a version.
// Exactly one of HCaptcha and Turnstile is expected to be set.
type CaptchaConfig struct {
	RequestsBeforeReverify int
	VerificationTTL        time.Duration
	HCaptcha               *HCaptchaConfig
	Turnstile              *TurnstileConfig
}

type HCaptchaConfig struct {
	SiteKey string
	Secret  string
}

type TurnstileConfig struct {
	SiteKey string
	Secret  string
}

// Version is an immutable snapshot of a namespace's matchmaker configuration
type Version struct {
	ID        VersionID
	GameModes []GameMode
	Captcha   *CaptchaConfig
}

// GameModeByName returns the game mode with the given name id, or nil
func (v *Version) GameModeByName(nameID string) *GameMode {
	for i := range v.GameModes {
		if v.GameModes[i].NameID == nameID {
			return &v.GameModes[i]
		}
	}
	return nil
}

// GameModeByID returns the game mode with the given id, or nil
func (v *Version) GameModeByID(id GameModeID) *GameMode {
	for i := range v.GameModes {
		if v.GameModes[i].ID == id {
			return &v.GameModes[i]
		}
	}
	return nil
}

// Namespace points a game environment at its active version
type Namespace struct {
	ID        NamespaceID
	NameID    string
	VersionID VersionID
}
