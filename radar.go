package radar

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/radarhk/radar/core/importer"
	"github.com/radarhk/radar/core/pipeline"
	"github.com/radarhk/radar/core/scoring"
	"github.com/radarhk/radar/database"
	"github.com/radarhk/radar/helper"
	"github.com/radarhk/radar/model"
	"github.com/radarhk/radar/resolver"
	loadSql "github.com/radarhk/radar/sql"
)

// defaultBias centers place search on Hong Kong
var defaultBias = &resolver.Coordinate{Lat: 22.3193, Lng: 114.1694}

const (
	trendingWindow  = 7 * 24 * time.Hour
	trendingLimit   = 20
	semanticLimit   = 10
	maxSaveTagCount = 5
)

// Radar provides a unified interface to the import pipeline, resolvers,
// scoring, and all database handlers
type Radar struct {
	DB       *helper.Database
	Users    *database.UsersDBHandler
	Places   *database.PlacesDBHandler
	Pipeline *pipeline.Pipeline
	Importer *importer.Orchestrator
	Unfurler resolver.Unfurler
	Searcher resolver.PlaceSearcher
	Embedder pipeline.EmbedFunc // Optional embedder for semantic search
	// Logging
	log *slog.Logger
}

// NewRadar creates a new Radar instance with all database handlers initialized
func NewRadar(config *helper.DatabaseConfiguration, embeddingDim int) (*Radar, error) {
	// Logger
	opts := helper.PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{
			Level: slog.LevelInfo,
		},
	}
	logger := slog.New(helper.NewPrettyHandler(os.Stdout, opts))

	// Initialize database
	db := helper.NewDatabase("radar", config, logger)
	err := loadSql.Init(db.Instance)
	if err != nil {
		return nil, helper.NewError("initialize database extensions", err)
	}

	// force=false to not reload if functions already exist
	users, err := database.NewUsersDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create users handler", err)
	}

	places, err := database.NewPlacesDBHandler(db, embeddingDim, false)
	if err != nil {
		return nil, helper.NewError("create places handler", err)
	}

	return &Radar{
		DB:       db,
		Users:    users,
		Places:   places,
		Importer: importer.NewOrchestrator(places, logger),
		log:      logger,
	}, nil
}

// Close closes the database connection
func (r *Radar) Close() error {
	if r.DB != nil && r.DB.Instance != nil {
		return r.DB.Instance.Close()
	}
	return nil
}

// Logger returns the instance logger
func (r *Radar) Logger() *slog.Logger {
	return r.log
}

// SetResolvers wires the external unfurl and place-search clients and builds
// the import pipeline with the rule-based extractor
func (r *Radar) SetResolvers(unfurler resolver.Unfurler, searcher resolver.PlaceSearcher) {
	r.Unfurler = unfurler
	r.Searcher = searcher
	r.Pipeline = pipeline.NewPipeline(pipeline.RuleBasedExtractor(), pipeline.NewMatcher(searcher))
}

// UseDefaultExtractor upgrades the pipeline to the NER-backed extractor.
// This downloads the token classification model on first use.
func (r *Radar) UseDefaultExtractor() error {
	if r.Pipeline == nil {
		return helper.NewError("use default extractor", fmt.Errorf("resolvers not set, use SetResolvers() first"))
	}
	extractor, err := pipeline.DefaultExtractor()
	if err != nil {
		return helper.NewError("create default extractor", err)
	}
	r.Pipeline.Extractor = extractor
	return nil
}

// UseDefaultEmbedder enables semantic search over saved places with the
// all-MiniLM-L6-v2 sentence transformer (384 dimensions)
func (r *Radar) UseDefaultEmbedder() error {
	embedder, err := pipeline.DefaultEmbedder()
	if err != nil {
		return helper.NewError("create default embedder", err)
	}
	r.Embedder = embedder
	return nil
}

// SourceTypeForURL classifies a shared URL by its host
func SourceTypeForURL(url string) model.SourceType {
	lowered := strings.ToLower(url)
	switch {
	case strings.Contains(lowered, "instagram.com"):
		return model.SourceInstagram
	case strings.Contains(lowered, "tiktok.com"):
		return model.SourceTikTok
	default:
		return model.SourceManual
	}
}

// ExtractPlaces runs unfurl, extraction, matching, and dedup for a shared URL
// and returns ranked candidates flagged against the owner's saved set. The
// unfurled metadata is returned alongside so callers can derive tags from the
// caption.
func (r *Radar) ExtractPlaces(ctx context.Context, ownerID int64, url string) ([]*model.PlaceCandidate, *resolver.LinkMetadata, error) {
	if r.Unfurler == nil || r.Pipeline == nil {
		return nil, nil, helper.NewError("extract places", fmt.Errorf("resolvers not set, use SetResolvers() first"))
	}

	meta, err := r.Unfurler.Unfurl(ctx, url)
	if err != nil {
		return nil, nil, err
	}

	saved, err := r.Places.SelectPlacesByOwner(ownerID, nil, nil, false)
	if err != nil {
		return nil, nil, err
	}

	candidates, err := r.Pipeline.Run(ctx, meta, defaultBias, saved)
	if err != nil {
		return nil, nil, err
	}

	r.log.Info("Extracted place candidates", slog.String("url", url), slog.Int("num_candidates", len(candidates)))

	return candidates, meta, nil
}

// SavePlaces persists the user-selected candidates as one batch and returns
// per-item outcomes in input order. Saved places are embedded afterwards when
// an embedder is set.
func (r *Radar) SavePlaces(ctx context.Context, ownerID int64, sourceType model.SourceType, sourceURL string, tags model.Tags, candidates []*model.PlaceCandidate) *model.ImportResult {
	result := r.Importer.SaveAll(ctx, importer.SaveRequest{
		OwnerID:    ownerID,
		SourceType: sourceType,
		SourceURL:  sourceURL,
		Tags:       tags,
	}, candidates)

	for _, item := range result.Items {
		if item.Outcome == model.OutcomeSaved {
			r.embedPlace(item.Place)
		}
	}

	return result
}

// ImportFromURL runs the full import for a shared URL and persists the top
// candidate. When the top candidate is already in the owner's saved set, the
// existing row is returned instead of a new write.
func (r *Radar) ImportFromURL(ctx context.Context, ownerID int64, url string) (*model.SavedPlace, error) {
	candidates, meta, err := r.ExtractPlaces(ctx, ownerID, url)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, helper.NewError("import url", fmt.Errorf("%w: no place found in post", model.ErrNotFound))
	}

	top := candidates[0]
	if top.AlreadySaved {
		existing, err := r.savedPlaceByExternalID(ownerID, top.ExternalID)
		if err != nil {
			return nil, err
		}
		return existing, nil
	}

	top.Selected = true
	tags := model.Tags(pipeline.ExtractTags(meta.Caption()))
	result := r.SavePlaces(ctx, ownerID, SourceTypeForURL(url), url, tags, []*model.PlaceCandidate{top})

	item := result.Items[0]
	if item.Outcome != model.OutcomeSaved {
		return nil, helper.NewError("import url", fmt.Errorf("%s", item.Reason))
	}

	return item.Place, nil
}

// savedPlaceByExternalID finds the owner's saved row for an external id
func (r *Radar) savedPlaceByExternalID(ownerID int64, externalID string) (*model.SavedPlace, error) {
	saved, err := r.Places.SelectPlacesByOwner(ownerID, nil, nil, false)
	if err != nil {
		return nil, err
	}
	for _, place := range saved {
		if place.ExternalID != nil && *place.ExternalID == externalID {
			return place, nil
		}
	}
	return nil, helper.NewError("select place by external id", model.ErrNotFound)
}

// SearchPlaces resolves a free-text query through the matcher's autocomplete
// path (bounded output) and flags results already in the owner's saved set
func (r *Radar) SearchPlaces(ctx context.Context, ownerID int64, query string) ([]*model.PlaceCandidate, error) {
	if r.Pipeline == nil {
		return nil, helper.NewError("search places", fmt.Errorf("resolvers not set, use SetResolvers() first"))
	}

	candidates, err := r.Pipeline.Matcher.Autocomplete(ctx, query, defaultBias)
	if err != nil {
		return nil, err
	}

	saved, err := r.Places.SelectPlacesByOwner(ownerID, nil, nil, false)
	if err != nil {
		return nil, err
	}
	pipeline.MarkSaved(candidates, saved)

	return candidates, nil
}

// AddPlaceByID saves one place by its external id, equivalent to a
// single-item batch. A storage uniqueness rejection surfaces as
// model.ErrDuplicateKey.
func (r *Radar) AddPlaceByID(ctx context.Context, ownerID int64, externalID string) (*model.SavedPlace, error) {
	if r.Searcher == nil {
		return nil, helper.NewError("add place by id", fmt.Errorf("resolvers not set, use SetResolvers() first"))
	}

	details, err := r.Searcher.Details(ctx, externalID)
	if err != nil {
		return nil, err
	}

	tags := details.Types
	if len(tags) > maxSaveTagCount {
		tags = tags[:maxSaveTagCount]
	}
	category := model.CategoryFromTags(tags)

	place := &model.SavedPlace{
		OwnerID:    ownerID,
		ExternalID: &details.ExternalID,
		Name:       details.Name,
		Address:    details.Address,
		District:   pipeline.FindLocality(details.Address),
		Lat:        details.Lat,
		Lng:        details.Lng,
		Category:   category,
		Emoji:      model.EmojiForCategory(category),
		PhotoURL:   details.PhotoURL,
		Rating:     details.Rating,
		SourceType: model.SourceSearch,
	}

	err = r.Places.InsertPlace(place)
	if err != nil {
		return nil, err
	}

	r.log.Info("Added place by id", slog.String("name", place.Name), slog.Int64("owner_id", ownerID))

	r.embedPlace(place)

	return place, nil
}

// PinPlace saves a place the user typed by name. The name, with an optional
// district hint, is resolved against place search for enrichment; the top
// match is persisted as a manual pin. No match at all is model.ErrNotFound.
func (r *Radar) PinPlace(ctx context.Context, ownerID int64, name string, district string, category string, tags model.Tags) (*model.SavedPlace, error) {
	if r.Searcher == nil {
		return nil, helper.NewError("pin place", fmt.Errorf("resolvers not set, use SetResolvers() first"))
	}

	query := name
	if district != "" {
		query = name + " " + district
	}

	results, err := r.Searcher.Search(ctx, query, defaultBias)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, helper.NewError("pin place", fmt.Errorf("%w: no match for %q", model.ErrNotFound, name))
	}

	match := results[0]
	if category == "" {
		if len(tags) > 0 {
			category = model.CategoryFromTags(tags)
		} else {
			category = model.CategoryFromTags(match.Types)
		}
	}
	if district == "" {
		district = pipeline.FindLocality(match.Address)
	}

	place := &model.SavedPlace{
		OwnerID:    ownerID,
		Name:       match.Name,
		Address:    match.Address,
		District:   district,
		Lat:        match.Lat,
		Lng:        match.Lng,
		Category:   category,
		Emoji:      model.EmojiForCategory(category),
		PhotoURL:   match.PhotoURL,
		Rating:     match.Rating,
		SourceType: model.SourceManual,
		Tags:       tags,
	}
	if match.ExternalID != "" {
		place.ExternalID = &match.ExternalID
	}

	err = r.Places.InsertPlace(place)
	if err != nil {
		return nil, err
	}

	r.log.Info("Pinned place", slog.String("name", place.Name), slog.Int64("owner_id", ownerID))

	r.embedPlace(place)

	return place, nil
}

// embedPlace stores the embedding for a saved place. Best effort: embedding
// failures are logged, never surfaced.
func (r *Radar) embedPlace(place *model.SavedPlace) {
	if r.Embedder == nil || place == nil {
		return
	}

	text := pipeline.EmbeddingText(place.Name, place.Address, place.Category, place.Tags)
	embedding, err := r.Embedder(text)
	if err != nil {
		r.log.Warn("Could not embed place", slog.String("name", place.Name), slog.String("error", err.Error()))
		return
	}

	err = r.Places.UpdatePlaceEmbedding(place.RID, place.OwnerID, embedding)
	if err != nil {
		r.log.Warn("Could not store place embedding", slog.String("name", place.Name), slog.String("error", err.Error()))
	}
}

// PlacesForOwner returns the owner's saved set, optionally filtered by
// category, district, or favorites
func (r *Radar) PlacesForOwner(ownerID int64, category *string, district *string, favoritesOnly bool) ([]*model.SavedPlace, error) {
	return r.Places.SelectPlacesByOwner(ownerID, category, district, favoritesOnly)
}

// User returns one account by id
func (r *Radar) User(id int64) (*model.User, error) {
	return r.Users.SelectUser(id)
}

// Place returns one saved place by its public id
func (r *Radar) Place(rid uuid.UUID, ownerID int64) (*model.SavedPlace, error) {
	return r.Places.SelectPlace(rid, ownerID)
}

// UpdatePlace changes visited/favorite flags and tags for one saved place
func (r *Radar) UpdatePlace(rid uuid.UUID, ownerID int64, isVisited *bool, isFavorite *bool, tags *model.Tags) (*model.SavedPlace, error) {
	return r.Places.UpdatePlaceState(rid, ownerID, isVisited, isFavorite, tags)
}

// DeletePlace removes one saved place
func (r *Radar) DeletePlace(rid uuid.UUID, ownerID int64) error {
	return r.Places.DeletePlace(rid, ownerID)
}

// NearbyPlaces returns the owner's saved places within walking distance of a
// coordinate, closest first
func (r *Radar) NearbyPlaces(ownerID int64, lat float64, lng float64) ([]scoring.PlaceDistance, error) {
	saved, err := r.Places.SelectPlacesByOwner(ownerID, nil, nil, false)
	if err != nil {
		return nil, err
	}
	return scoring.Nearby(lat, lng, saved), nil
}

// Trending ranks places saved across all owners in the last week
func (r *Radar) Trending() ([]*model.TrendingPlace, error) {
	counts, err := r.Places.SelectTrendingCounts(time.Now().Add(-trendingWindow), trendingLimit)
	if err != nil {
		return nil, err
	}
	return scoring.RankTrending(counts), nil
}

// FriendTasteMatch ranks other owners by saved-set overlap with the owner
func (r *Radar) FriendTasteMatch(ownerID int64) ([]*model.FriendMatch, error) {
	own, err := r.Places.SelectExternalIDsByOwner(ownerID)
	if err != nil {
		return nil, err
	}

	otherIDs, err := r.Places.SelectOwnerIDsWithPlaces(ownerID)
	if err != nil {
		return nil, err
	}

	others := make(map[int64][]string, len(otherIDs))
	for _, otherID := range otherIDs {
		ids, err := r.Places.SelectExternalIDsByOwner(otherID)
		if err != nil {
			return nil, err
		}
		others[otherID] = ids
	}

	return scoring.RankFriendMatches(own, others), nil
}

// SemanticSearch finds the owner's saved places closest to a free-text query
// by embedding cosine similarity
func (r *Radar) SemanticSearch(ctx context.Context, ownerID int64, query string) ([]*model.SemanticMatch, error) {
	if r.Embedder == nil {
		return nil, helper.NewError("semantic search", fmt.Errorf("embedder not set, use UseDefaultEmbedder() first"))
	}

	embedding, err := r.Embedder(query)
	if err != nil {
		return nil, helper.NewError("generate embedding", err)
	}

	return r.Places.SelectPlacesBySimilarity(ownerID, embedding, semanticLimit)
}
