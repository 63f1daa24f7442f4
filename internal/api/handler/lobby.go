package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/mcoot/matchmaker/internal/api/apierr"
	"github.com/mcoot/matchmaker/internal/api/middleware"
	"github.com/mcoot/matchmaker/internal/api/request"
	"github.com/mcoot/matchmaker/internal/api/response"
	"github.com/mcoot/matchmaker/internal/model"
	"github.com/mcoot/matchmaker/internal/services/auth"
	"github.com/mcoot/matchmaker/internal/services/find"
	"github.com/mcoot/matchmaker/internal/services/lifecycle"
	"github.com/mcoot/matchmaker/internal/services/listing"
)

// LobbyHandler handles matchmaking endpoints
type LobbyHandler struct {
	findService      *find.Service
	listingService   *listing.Service
	lifecycleService *lifecycle.Service
}

// NewLobbyHandler creates a new lobby handler
func NewLobbyHandler(findService *find.Service, listingService *listing.Service, lifecycleService *lifecycle.Service) *LobbyHandler {
	return &LobbyHandler{
		findService:      findService,
		listingService:   listingService,
		lifecycleService: lifecycleService,
	}
}

// Find handles POST /matchmaker/v1/lobbies/find
func (h *LobbyHandler) Find(w http.ResponseWriter, r *http.Request) {
	ident, ok := playerIdentity(w, r)
	if !ok {
		return
	}

	var req request.FindLobbyRequest
	if err := decodeBody(r, &req); err != nil {
		apierr.WriteError(w, errInvalidBody)
		return
	}
	if len(req.GameModes) == 0 {
		apierr.WriteError(w, errNoGameModes)
		return
	}

	client, captcha, ok := clientAndCaptcha(w, r, req.Captcha)
	if !ok {
		return
	}

	res, err := h.findService.Find(r.Context(), ident, find.Request{
		GameModes:         req.GameModes,
		Regions:           req.Regions,
		PreventAutoCreate: req.PreventAutoCreateLobby,
		Captcha:           captcha,
		Client:            client,
	})
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.Joined(w, res)
}

// Join handles POST /matchmaker/v1/lobbies/join
func (h *LobbyHandler) Join(w http.ResponseWriter, r *http.Request) {
	ident, ok := playerIdentity(w, r)
	if !ok {
		return
	}

	var req request.JoinLobbyRequest
	if err := decodeBody(r, &req); err != nil {
		apierr.WriteError(w, errInvalidBody)
		return
	}
	if req.LobbyID == "" {
		apierr.WriteError(w, errNoLobbyID)
		return
	}

	client, captcha, ok := clientAndCaptcha(w, r, req.Captcha)
	if !ok {
		return
	}

	res, err := h.findService.Join(r.Context(), ident, find.JoinRequest{
		LobbyID: model.SessionID(req.LobbyID),
		Captcha: captcha,
		Client:  client,
	})
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.Joined(w, res)
}

// List handles GET /matchmaker/v1/lobbies/list
func (h *LobbyHandler) List(w http.ResponseWriter, r *http.Request) {
	ident, ok := playerIdentity(w, r)
	if !ok {
		return
	}

	client, err := request.ClientInfo(r)
	if err != nil {
		apierr.WriteError(w, invalidRequest(err))
		return
	}
	var coord model.Coord
	switch {
	case client.Coord != nil:
		coord = *client.Coord
	case !ident.IsDev():
		apierr.WriteError(w, model.ErrMissingCoords)
		return
	}

	res, err := h.listingService.List(r.Context(), ident, coord)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.Lobbies(w, res)
}

// Ready handles POST /matchmaker/v1/lobbies/ready
func (h *LobbyHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ident := middleware.MustGetIdentity(r.Context())

	if err := h.lifecycleService.Ready(r.Context(), ident); err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.NoContent(w)
}

// SetClosed handles PUT /matchmaker/v1/lobbies/closed
func (h *LobbyHandler) SetClosed(w http.ResponseWriter, r *http.Request) {
	ident := middleware.MustGetIdentity(r.Context())

	var req request.SetLobbyClosedRequest
	if err := decodeBody(r, &req); err != nil {
		apierr.WriteError(w, errInvalidBody)
		return
	}

	if err := h.lifecycleService.SetClosed(r.Context(), ident, req.IsClosed); err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.NoContent(w)
}

// playerIdentity admits the identities players call with
func playerIdentity(w http.ResponseWriter, r *http.Request) (*auth.Identity, bool) {
	ident := middleware.MustGetIdentity(r.Context())
	if ident.Kind != auth.IdentityPublic && ident.Kind != auth.IdentityDev {
		apierr.WriteError(w, model.ErrForbidden)
		return nil, false
	}
	return ident, true
}

func clientAndCaptcha(w http.ResponseWriter, r *http.Request, c *request.Captcha) (model.ClientInfo, *model.CaptchaResponse, bool) {
	client, err := request.ClientInfo(r)
	if err != nil {
		apierr.WriteError(w, invalidRequest(err))
		return client, nil, false
	}
	captcha, err := c.ToModel()
	if err != nil {
		apierr.WriteError(w, invalidRequest(err))
		return client, nil, false
	}
	return client, captcha, true
}

// decodeBody decodes a JSON body, treating an empty body as {}
func decodeBody(r *http.Request, dst any) error {
	err := json.NewDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
