package response

import (
	"encoding/json"
	"net/http"

	"github.com/mcoot/matchmaker/internal/model"
	"github.com/mcoot/matchmaker/internal/services/listing"
)

// JSON writes a JSON response. Matchmaker responses carry player tokens and
// per-client lobby state, so they are never cached.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// Joined writes the endpoints of a found or joined lobby
func Joined(w http.ResponseWriter, res *model.JoinResult) {
	JSON(w, http.StatusOK, JoinResponseFromModel(res))
}

// Lobbies writes a lobby listing
func Lobbies(w http.ResponseWriter, res *listing.Result) {
	JSON(w, http.StatusOK, ListLobbiesResponseFromResult(res))
}

// NoContent acknowledges a lifecycle report
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
