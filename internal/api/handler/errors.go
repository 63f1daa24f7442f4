package handler

import (
	"github.com/mcoot/matchmaker/internal/api/apierr"
)

// Request validation failures, all reported as INVALID_REQUEST
var (
	errInvalidBody = apierr.NewInvalidRequestError("Invalid request body")
	errNoGameModes = apierr.NewInvalidRequestError("game_modes must not be empty")
	errNoLobbyID   = apierr.NewInvalidRequestError("lobby_id is required")
)

// invalidRequest reports a malformed header or captcha as INVALID_REQUEST
func invalidRequest(err error) error {
	return apierr.NewInvalidRequestError(err.Error())
}
