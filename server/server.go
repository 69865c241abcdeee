package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/radarhk/radar/auth"
	"github.com/radarhk/radar/core/scoring"
	"github.com/radarhk/radar/model"
	"github.com/radarhk/radar/resolver"
)

// Service is the application surface the HTTP handlers call into
type Service interface {
	ImportFromURL(ctx context.Context, ownerID int64, url string) (*model.SavedPlace, error)
	ExtractPlaces(ctx context.Context, ownerID int64, url string) ([]*model.PlaceCandidate, *resolver.LinkMetadata, error)
	SearchPlaces(ctx context.Context, ownerID int64, query string) ([]*model.PlaceCandidate, error)
	AddPlaceByID(ctx context.Context, ownerID int64, externalID string) (*model.SavedPlace, error)
	PinPlace(ctx context.Context, ownerID int64, name string, district string, category string, tags model.Tags) (*model.SavedPlace, error)
	User(id int64) (*model.User, error)
	PlacesForOwner(ownerID int64, category *string, district *string, favoritesOnly bool) ([]*model.SavedPlace, error)
	Place(rid uuid.UUID, ownerID int64) (*model.SavedPlace, error)
	UpdatePlace(rid uuid.UUID, ownerID int64, isVisited *bool, isFavorite *bool, tags *model.Tags) (*model.SavedPlace, error)
	DeletePlace(rid uuid.UUID, ownerID int64) error
	NearbyPlaces(ownerID int64, lat float64, lng float64) ([]scoring.PlaceDistance, error)
	Trending() ([]*model.TrendingPlace, error)
	FriendTasteMatch(ownerID int64) ([]*model.FriendMatch, error)
	SemanticSearch(ctx context.Context, ownerID int64, query string) ([]*model.SemanticMatch, error)
}

// Server routes the HTTP surface onto the application service
type Server struct {
	service Service
	otp     *auth.OTPService
	issuer  *auth.TokenIssuer
	mvpMode bool
	log     *slog.Logger
	router  chi.Router
}

// New creates a Server with all routes registered
func New(service Service, otp *auth.OTPService, issuer *auth.TokenIssuer, mvpMode bool, logger *slog.Logger) *Server {
	s := &Server{
		service: service,
		otp:     otp,
		issuer:  issuer,
		mvpMode: mvpMode,
		log:     logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Post("/auth/send-otp", s.handleSendOTP)
	r.Post("/auth/verify-otp", s.handleVerifyOTP)

	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)

		r.Post("/import-url", s.handleImportURL)
		r.Post("/extract-places", s.handleExtractPlaces)
		r.Get("/search-places", s.handleSearchPlaces)
		r.Post("/add-place-by-id", s.handleAddPlaceByID)
		r.Post("/pin-place", s.handlePinPlace)
		r.Get("/auth/me", s.handleMe)

		r.Get("/places", s.handlePlaces)
		r.Get("/places/{rid}", s.handlePlace)
		r.Patch("/places/{rid}", s.handleUpdatePlace)
		r.Delete("/places/{rid}", s.handleDeletePlace)

		r.Get("/categories", s.handleCategories)
		r.Get("/nearby", s.handleNearby)
		r.Get("/trending", s.handleTrending)
		r.Get("/friend-taste-match", s.handleFriendTasteMatch)
		r.Get("/search-saved", s.handleSearchSaved)
	})

	s.router = r
	return s
}

// Router returns the configured handler for mounting or serving
func (s *Server) Router() http.Handler {
	return s.router
}
