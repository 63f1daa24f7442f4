package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/matchmaker/internal/api/apierr"
	"github.com/mcoot/matchmaker/internal/api/handler"
	"github.com/mcoot/matchmaker/internal/api/middleware"
	"github.com/mcoot/matchmaker/internal/services/auth"
	"github.com/mcoot/matchmaker/internal/services/find"
	"github.com/mcoot/matchmaker/internal/services/lifecycle"
	"github.com/mcoot/matchmaker/internal/services/listing"
)

// BasePath prefixes every matchmaker route
const BasePath = "/matchmaker/v1"

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger           *slog.Logger
	AuthService      *auth.Service
	FindService      *find.Service
	ListingService   *listing.Service
	LifecycleService *lifecycle.Service
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	lobbyHandler := handler.NewLobbyHandler(cfg.FindService, cfg.ListingService, cfg.LifecycleService)

	api := r.PathPrefix(BasePath).Subrouter()
	api.Use(middleware.Recovery(cfg.Logger))
	api.Use(middleware.Logging(cfg.Logger))

	api.HandleFunc("/health", handler.Health).Methods(http.MethodGet)

	lobbies := api.PathPrefix("/lobbies").Subrouter()
	lobbies.Use(middleware.Auth(cfg.AuthService))
	lobbies.HandleFunc("/find", lobbyHandler.Find).Methods(http.MethodPost)
	lobbies.HandleFunc("/join", lobbyHandler.Join).Methods(http.MethodPost)
	lobbies.HandleFunc("/list", lobbyHandler.List).Methods(http.MethodGet)
	lobbies.HandleFunc("/ready", lobbyHandler.Ready).Methods(http.MethodPost)
	lobbies.HandleFunc("/closed", lobbyHandler.SetClosed).Methods(http.MethodPut)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		apierr.WriteError(w, apierr.NewNotFoundError())
	})

	return r
}
