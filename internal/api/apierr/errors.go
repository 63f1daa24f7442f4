package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/matchmaker/internal/model"
	"github.com/mcoot/matchmaker/internal/services/auth"
)

// APIError represents an API error response
type APIError struct {
	Code     string         `json:"code"`
	Message  string         `json:"message"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest            = "INVALID_REQUEST"
	CodeUnauthorized              = "UNAUTHORIZED"
	CodeForbidden                 = "FORBIDDEN"
	CodeInvalidCredentials        = "INVALID_CREDENTIALS"
	CodeNotFound                  = "NOT_FOUND"
	CodeInternalError             = "INTERNAL_ERROR"
	CodeCaptchaRequired           = "CAPTCHA_CAPTCHA_REQUIRED"
	CodeCaptchaInvalid            = "CAPTCHA_CAPTCHA_INVALID"
	CodeGameModeNotFound          = "MATCHMAKER_GAME_MODE_NOT_FOUND"
	CodeRegionNotFound            = "MATCHMAKER_REGION_NOT_FOUND"
	CodeMissingCoords             = "MATCHMAKER_MISSING_COORDS"
	CodeNoValidGameModeRegionPair = "MATCHMAKER_NO_VALID_GAME_MODE_REGION_PAIR"
	CodeStaleMessage              = "MATCHMAKER_STALE_MESSAGE"
	CodeTooManyPlayersFromSource  = "MATCHMAKER_TOO_MANY_PLAYERS_FROM_SOURCE"
	CodeLobbyStopped              = "MATCHMAKER_LOBBY_STOPPED"
	CodeLobbyClosed               = "MATCHMAKER_LOBBY_CLOSED"
	CodeLobbyNotFound             = "MATCHMAKER_LOBBY_NOT_FOUND"
	CodeNoAvailableLobbies        = "MATCHMAKER_NO_AVAILABLE_LOBBIES"
	CodeLobbyFull                 = "MATCHMAKER_LOBBY_FULL"
	CodeTooManyLobbies            = "MATCHMAKER_TOO_MANY_LOBBIES"
	CodeRegionNotEnabled          = "MATCHMAKER_REGION_NOT_ENABLED_FOR_GAME_MODE"
	CodeDevTeamInvalidStatus      = "MATCHMAKER_DEV_TEAM_INVALID_STATUS"
	CodeFindTimeout               = "MATCHMAKER_FIND_TIMEOUT"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// Status returns the HTTP status an error is written with
func Status(err error) int {
	return toHTTPError(err).status
}

// sentinels maps model errors to responses, checked in order
var sentinels = []struct {
	err    error
	status int
	code   string
}{
	{model.ErrGameModeNotFound, http.StatusBadRequest, CodeGameModeNotFound},
	{model.ErrRegionNotFound, http.StatusBadRequest, CodeRegionNotFound},
	{model.ErrMissingCoords, http.StatusBadRequest, CodeMissingCoords},
	{model.ErrNoValidGameModeRegionPair, http.StatusBadRequest, CodeNoValidGameModeRegionPair},
	{model.ErrCaptchaInvalid, http.StatusBadRequest, CodeCaptchaInvalid},
	{model.ErrForbidden, http.StatusForbidden, CodeForbidden},

	{model.ErrStaleMessage, http.StatusConflict, CodeStaleMessage},
	{model.ErrTooManyPlayersFromSource, http.StatusTooManyRequests, CodeTooManyPlayersFromSource},
	{model.ErrLobbyStopped, http.StatusConflict, CodeLobbyStopped},
	{model.ErrLobbyClosed, http.StatusConflict, CodeLobbyClosed},
	{model.ErrLobbyNotFound, http.StatusNotFound, CodeLobbyNotFound},
	{model.ErrNoAvailableLobbies, http.StatusNotFound, CodeNoAvailableLobbies},
	{model.ErrLobbyFull, http.StatusConflict, CodeLobbyFull},
	{model.ErrLobbyCountOverMax, http.StatusTooManyRequests, CodeTooManyLobbies},
	{model.ErrRegionNotEnabled, http.StatusBadRequest, CodeRegionNotEnabled},
	{model.ErrDevTeamInvalidStatus, http.StatusForbidden, CodeDevTeamInvalidStatus},
	{model.ErrFindTimeout, http.StatusGatewayTimeout, CodeFindTimeout},

	{model.ErrNamespaceNotFound, http.StatusNotFound, CodeNotFound},

	{auth.ErrInvalidCredentials, http.StatusUnauthorized, CodeInvalidCredentials},
	{auth.ErrInvalidToken, http.StatusUnauthorized, CodeUnauthorized},
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	var captchaErr *model.CaptchaRequiredError
	if errors.As(err, &captchaErr) {
		return &httpError{http.StatusBadRequest, APIError{
			Code:     CodeCaptchaRequired,
			Message:  "A captcha must be solved before finding a lobby",
			Metadata: captchaErr.Metadata,
		}}
	}

	// Internal errors carry no detail for callers
	if errors.Is(err, model.ErrInternal) {
		return internalError()
	}

	for _, s := range sentinels {
		if errors.Is(err, s.err) {
			return &httpError{s.status, APIError{Code: s.code, Message: messageOf(s.err)}}
		}
	}

	return internalError()
}

// messageOf capitalizes a sentinel's text for display
func messageOf(err error) string {
	msg := err.Error()
	if msg == "" {
		return msg
	}
	if c := msg[0]; c >= 'a' && c <= 'z' {
		return string(c-'a'+'A') + msg[1:]
	}
	return msg
}

func internalError() *httpError {
	return &httpError{http.StatusInternalServerError, APIError{Code: CodeInternalError, Message: "Internal server error"}}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{Code: CodeInvalidRequest, Message: message}}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return &httpError{http.StatusUnauthorized, APIError{Code: CodeUnauthorized, Message: "Authentication required"}}
}

// NewNotFoundError creates a not found error for unmatched routes
func NewNotFoundError() error {
	return &httpError{http.StatusNotFound, APIError{Code: CodeNotFound, Message: "Not found"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return internalError()
}
