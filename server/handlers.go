package server

import (
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/radarhk/radar/model"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type sendOTPRequest struct {
	PhoneNumber string `json:"phone_number"`
}

type verifyOTPRequest struct {
	PhoneNumber string `json:"phone_number"`
	OTPCode     string `json:"otp_code"`
}

type importURLRequest struct {
	URL string `json:"url"`
}

type addPlaceRequest struct {
	PlaceID string `json:"place_id"`
}

type pinPlaceRequest struct {
	Name     string     `json:"name"`
	District string     `json:"district"`
	Category string     `json:"category"`
	Tags     model.Tags `json:"tags"`
}

type updatePlaceRequest struct {
	IsVisited  *bool       `json:"is_visited"`
	IsFavorite *bool       `json:"is_favorite"`
	Tags       *model.Tags `json:"tags"`
}

func (s *Server) respondBadRequest(w http.ResponseWriter, message string) {
	respondJSON(w, http.StatusBadRequest, detailResponse{Detail: message})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondJSON(w, http.StatusBadRequest, detailResponse{Detail: "invalid request body"})
		return false
	}
	return true
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"ok":       true,
		"mvp_mode": s.mvpMode,
	})
}

func (s *Server) handleSendOTP(w http.ResponseWriter, r *http.Request) {
	var req sendOTPRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.PhoneNumber == "" {
		s.respondBadRequest(w, "phone_number is required")
		return
	}

	challenge, err := s.otp.SendOTP(req.PhoneNumber)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, challenge)
}

func (s *Server) handleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyOTPRequest
	if !decodeBody(w, r, &req) {
		return
	}

	session, err := s.otp.VerifyOTP(req.PhoneNumber, req.OTPCode)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, session)
}

func (s *Server) handleImportURL(w http.ResponseWriter, r *http.Request) {
	var req importURLRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.URL == "" {
		s.respondBadRequest(w, "url is required")
		return
	}

	place, err := s.service.ImportFromURL(r.Context(), ownerID(r), req.URL)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, place)
}

func (s *Server) handleExtractPlaces(w http.ResponseWriter, r *http.Request) {
	var req importURLRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.URL == "" {
		s.respondBadRequest(w, "url is required")
		return
	}

	candidates, _, err := s.service.ExtractPlaces(r.Context(), ownerID(r), req.URL)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"places": candidates})
}

func (s *Server) handleSearchPlaces(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if len(query) < 2 {
		respondJSON(w, http.StatusOK, map[string]interface{}{"results": []*model.PlaceCandidate{}})
		return
	}

	candidates, err := s.service.SearchPlaces(r.Context(), ownerID(r), query)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"results": candidates})
}

func (s *Server) handleAddPlaceByID(w http.ResponseWriter, r *http.Request) {
	var req addPlaceRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.PlaceID == "" {
		s.respondBadRequest(w, "place_id is required")
		return
	}

	place, err := s.service.AddPlaceByID(r.Context(), ownerID(r), req.PlaceID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, place)
}

func (s *Server) handlePinPlace(w http.ResponseWriter, r *http.Request) {
	var req pinPlaceRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Name == "" {
		s.respondBadRequest(w, "name is required")
		return
	}

	place, err := s.service.PinPlace(r.Context(), ownerID(r), req.Name, req.District, req.Category, req.Tags)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, place)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, err := s.service.User(ownerID(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, user)
}

func (s *Server) handlePlaces(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var category, district *string
	if v := query.Get("category"); v != "" {
		category = &v
	}
	if v := query.Get("district"); v != "" {
		district = &v
	}
	favoritesOnly := query.Get("favorites_only") == "true"

	places, err := s.service.PlacesForOwner(ownerID(r), category, district, favoritesOnly)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, places)
}

func placeRID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	rid, err := uuid.Parse(chi.URLParam(r, "rid"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, detailResponse{Detail: "invalid place id"})
		return uuid.Nil, false
	}
	return rid, true
}

func (s *Server) handlePlace(w http.ResponseWriter, r *http.Request) {
	rid, ok := placeRID(w, r)
	if !ok {
		return
	}

	place, err := s.service.Place(rid, ownerID(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, place)
}

func (s *Server) handleUpdatePlace(w http.ResponseWriter, r *http.Request) {
	rid, ok := placeRID(w, r)
	if !ok {
		return
	}

	var req updatePlaceRequest
	if !decodeBody(w, r, &req) {
		return
	}

	place, err := s.service.UpdatePlace(rid, ownerID(r), req.IsVisited, req.IsFavorite, req.Tags)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, place)
}

func (s *Server) handleDeletePlace(w http.ResponseWriter, r *http.Request) {
	rid, ok := placeRID(w, r)
	if !ok {
		return
	}

	err := s.service.DeletePlace(rid, ownerID(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Place deleted successfully"})
}

type categoryEntry struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Emoji string `json:"emoji"`
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	ids := make([]string, 0, len(model.CategoryEmojis))
	for id := range model.CategoryEmojis {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	title := cases.Title(language.English)
	categories := make([]categoryEntry, 0, len(ids))
	for _, id := range ids {
		categories = append(categories, categoryEntry{
			ID:    id,
			Name:  title.String(strings.ReplaceAll(id, "_", " ")),
			Emoji: model.CategoryEmojis[id],
		})
	}

	respondJSON(w, http.StatusOK, categories)
}

func (s *Server) handleNearby(w http.ResponseWriter, r *http.Request) {
	lat, latErr := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lng, lngErr := strconv.ParseFloat(r.URL.Query().Get("lng"), 64)
	if latErr != nil || lngErr != nil {
		s.respondBadRequest(w, "lat and lng are required")
		return
	}

	nearby, err := s.service.NearbyPlaces(ownerID(r), lat, lng)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, nearby)
}

func (s *Server) handleTrending(w http.ResponseWriter, r *http.Request) {
	trending, err := s.service.Trending()
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, trending)
}

func (s *Server) handleFriendTasteMatch(w http.ResponseWriter, r *http.Request) {
	matches, err := s.service.FriendTasteMatch(ownerID(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, matches)
}

func (s *Server) handleSearchSaved(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if query == "" {
		s.respondBadRequest(w, "query is required")
		return
	}

	matches, err := s.service.SemanticSearch(r.Context(), ownerID(r), query)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"results": matches})
}
