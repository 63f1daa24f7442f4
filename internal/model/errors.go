package model

import (
	"errors"
	"fmt"
)

// Common errors used across the application
var (
	// Request errors
	ErrGameModeNotFound = errors.New("game mode not found")
	ErrRegionNotFound   = errors.New("region not found")
	ErrMissingCoords    = errors.New("client coordinates are required")
	ErrForbidden        = errors.New("identity cannot perform this action")

	// Policy errors
	ErrNoValidGameModeRegionPair = errors.New("no valid game mode and region pair for auto-create")
	ErrCaptchaInvalid            = errors.New("captcha response is invalid")

	// Allocation errors
	ErrStaleMessage             = errors.New("find request went stale")
	ErrTooManyPlayersFromSource = errors.New("too many players from this source")
	ErrLobbyStopped             = errors.New("lobby has stopped")
	ErrLobbyClosed              = errors.New("lobby is closed")
	ErrLobbyNotFound            = errors.New("lobby not found")
	ErrNoAvailableLobbies       = errors.New("no available lobbies")
	ErrLobbyFull                = errors.New("lobby is full")
	ErrLobbyCountOverMax        = errors.New("too many lobbies")
	ErrRegionNotEnabled         = errors.New("region not enabled for game mode")
	ErrDevTeamInvalidStatus     = errors.New("developer team has an invalid status")
	ErrFindTimeout              = errors.New("timed out waiting for a lobby")

	// Storage errors
	ErrNamespaceNotFound   = errors.New("namespace not found")
	ErrVersionNotFound     = errors.New("version not found")
	ErrSessionNotFound     = errors.New("session not found")
	ErrRunNotFound         = errors.New("run not found")
	ErrPublicTokenNotFound = errors.New("public token not found")

	// Internal errors. These indicate a broken invariant or configuration
	// and are reported to callers without detail.
	ErrInternal          = errors.New("internal error")
	ErrInvalidPortConfig = fmt.Errorf("%w: invalid port configuration", ErrInternal)
)

// CaptchaRequiredError is returned when a captcha must be solved before
// finding a lobby. Metadata carries the provider-specific challenge config.
type CaptchaRequiredError struct {
	Metadata map[string]any
}

func (e *CaptchaRequiredError) Error() string {
	return "captcha required"
}
