package request

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/mcoot/matchmaker/internal/model"
)

// CoordsHeader carries the client's "latitude,longitude"
const CoordsHeader = "X-Coords"

// CaptchaSolution is the client's response to a challenge
type CaptchaSolution struct {
	ClientResponse string `json:"client_response"`
}

// Captcha is a solved captcha supplied with a find or join.
// Exactly one provider field is set.
type Captcha struct {
	HCaptcha  *CaptchaSolution `json:"hcaptcha,omitempty"`
	Turnstile *CaptchaSolution `json:"turnstile,omitempty"`
}

// ToModel converts the captcha to a model response
func (c *Captcha) ToModel() (*model.CaptchaResponse, error) {
	if c == nil {
		return nil, nil
	}
	switch {
	case c.HCaptcha != nil && c.Turnstile == nil:
		return &model.CaptchaResponse{Provider: model.CaptchaProviderHCaptcha, ClientResponse: c.HCaptcha.ClientResponse}, nil
	case c.Turnstile != nil && c.HCaptcha == nil:
		return &model.CaptchaResponse{Provider: model.CaptchaProviderTurnstile, ClientResponse: c.Turnstile.ClientResponse}, nil
	default:
		return nil, errors.New("captcha must name exactly one provider")
	}
}

// FindLobbyRequest is the request body for finding a lobby
type FindLobbyRequest struct {
	GameModes              []string `json:"game_modes"`
	Regions                []string `json:"regions,omitempty"`
	PreventAutoCreateLobby bool     `json:"prevent_auto_create_lobby,omitempty"`
	Captcha                *Captcha `json:"captcha,omitempty"`
}

// JoinLobbyRequest is the request body for joining a lobby by id
type JoinLobbyRequest struct {
	LobbyID string   `json:"lobby_id"`
	Captcha *Captcha `json:"captcha,omitempty"`
}

// SetLobbyClosedRequest is the request body for opening or closing a lobby
type SetLobbyClosedRequest struct {
	IsClosed bool `json:"is_closed"`
}

// ClientInfo describes the calling client from its request headers
func ClientInfo(r *http.Request) (model.ClientInfo, error) {
	info := model.ClientInfo{
		RemoteAddress: remoteAddress(r),
		UserAgent:     r.UserAgent(),
	}
	if origin := r.Header.Get("Origin"); origin != "" {
		if i := strings.Index(origin, "://"); i >= 0 {
			origin = origin[i+3:]
		}
		info.OriginHost = origin
	}

	if raw := r.Header.Get(CoordsHeader); raw != "" {
		coord, err := ParseCoords(raw)
		if err != nil {
			return info, err
		}
		info.Coord = &coord
	}
	return info, nil
}

// remoteAddress prefers the first X-Forwarded-For hop
func remoteAddress(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// ParseCoords parses "latitude,longitude"
func ParseCoords(raw string) (model.Coord, error) {
	latRaw, longRaw, ok := strings.Cut(raw, ",")
	if !ok {
		return model.Coord{}, fmt.Errorf("invalid %s header", CoordsHeader)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latRaw), 64)
	if err != nil || lat < -90 || lat > 90 {
		return model.Coord{}, fmt.Errorf("invalid latitude in %s header", CoordsHeader)
	}
	long, err := strconv.ParseFloat(strings.TrimSpace(longRaw), 64)
	if err != nil || long < -180 || long > 180 {
		return model.Coord{}, fmt.Errorf("invalid longitude in %s header", CoordsHeader)
	}
	return model.Coord{Latitude: lat, Longitude: long}, nil
}
