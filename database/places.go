package database

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	dbsql "database/sql"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/radarhk/radar/helper"
	"github.com/radarhk/radar/model"
	loadSql "github.com/radarhk/radar/sql"
)

// PlacesDBHandlerFunctions defines the interface for Places database operations.
type PlacesDBHandlerFunctions interface {
	InsertPlace(place *model.SavedPlace) error
	SelectPlace(rid uuid.UUID, ownerID int64) (*model.SavedPlace, error)
	SelectPlacesByOwner(ownerID int64, category *string, district *string, favoritesOnly bool) ([]*model.SavedPlace, error)
	UpdatePlaceState(rid uuid.UUID, ownerID int64, isVisited *bool, isFavorite *bool, tags *model.Tags) (*model.SavedPlace, error)
	DeletePlace(rid uuid.UUID, ownerID int64) error
	SelectTrendingCounts(since time.Time, limit int) ([]*model.TrendingPlace, error)
	SelectExternalIDsByOwner(ownerID int64) ([]string, error)
	SelectOwnerIDsWithPlaces(excludeOwnerID int64) ([]int64, error)
	UpdatePlaceEmbedding(rid uuid.UUID, ownerID int64, embedding []float32) error
	SelectPlacesBySimilarity(ownerID int64, embedding []float32, limit int) ([]*model.SemanticMatch, error)
}

// PlacesDBHandler handles place-related database operations
type PlacesDBHandler struct {
	db *helper.Database
}

// NewPlacesDBHandler creates a new places database handler.
// It initializes the database connection and loads place-related SQL functions.
// embeddingDim sets the dimension of the optional semantic vector column.
// If force is true, it will reload the SQL functions even if they already exist.
func NewPlacesDBHandler(db *helper.Database, embeddingDim int, force bool) (*PlacesDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	placesDbHandler := &PlacesDBHandler{
		db: db,
	}

	err := loadSql.LoadPlacesSql(placesDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load places sql", err)
	}

	err = placesDbHandler.CreateTable(embeddingDim)
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized PlacesDBHandler")

	return placesDbHandler, nil
}

// CreateTable creates the 'places' table in the database.
// If the table already exists, it does not create it again.
// It also creates all necessary indexes, including the partial unique index
// on (owner_id, external_id).
func (h *PlacesDBHandler) CreateTable(embeddingDim int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_places($1);`, embeddingDim)
	if err != nil {
		log.Panicf("error initializing places table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table places")

	return nil
}

// scanPlace reads one full place row in function column order
func scanPlace(row interface{ Scan(...interface{}) error }, place *model.SavedPlace) error {
	return row.Scan(
		&place.ID,
		&place.RID,
		&place.OwnerID,
		&place.ExternalID,
		&place.Name,
		&place.Address,
		&place.District,
		&place.Lat,
		&place.Lng,
		&place.Category,
		&place.Emoji,
		&place.PhotoURL,
		&place.Rating,
		&place.SourceType,
		&place.SourceURL,
		&place.IsVisited,
		&place.IsFavorite,
		&place.Tags,
		&place.CreatedAt,
		&place.UpdatedAt,
	)
}

// InsertPlace inserts a new place for its owner.
// A violation of the (owner_id, external_id) uniqueness constraint is reported
// as model.ErrDuplicateKey; any other write failure as model.ErrStorageUnavailable.
func (h *PlacesDBHandler) InsertPlace(place *model.SavedPlace) error {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM insert_place($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		place.OwnerID,
		place.ExternalID,
		place.Name,
		place.Address,
		place.District,
		place.Lat,
		place.Lng,
		place.Category,
		place.Emoji,
		place.PhotoURL,
		place.Rating,
		string(place.SourceType),
		place.SourceURL,
		place.Tags,
	)

	err := scanPlace(row, place)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return helper.NewError("insert place", model.ErrDuplicateKey)
		}
		return helper.NewError("insert place", fmt.Errorf("%w: %v", model.ErrStorageUnavailable, err))
	}

	return nil
}

// SelectPlace retrieves a place by RID, scoped to its owner
func (h *PlacesDBHandler) SelectPlace(rid uuid.UUID, ownerID int64) (*model.SavedPlace, error) {
	place := &model.SavedPlace{}
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_place($1, $2)`,
		rid,
		ownerID,
	)

	err := scanPlace(row, place)
	if err != nil {
		if errors.Is(err, dbsql.ErrNoRows) {
			return nil, helper.NewError("select place", model.ErrNotFound)
		}
		return nil, helper.NewError("scan", err)
	}

	return place, nil
}

// SelectPlacesByOwner retrieves the owner's saved set, newest first.
// Nil category/district skip that filter.
func (h *PlacesDBHandler) SelectPlacesByOwner(ownerID int64, category *string, district *string, favoritesOnly bool) ([]*model.SavedPlace, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_places_by_owner($1, $2, $3, $4)`,
		ownerID,
		category,
		district,
		favoritesOnly,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var places []*model.SavedPlace
	for rows.Next() {
		place := &model.SavedPlace{}
		err := scanPlace(rows, place)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		places = append(places, place)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return places, nil
}

// UpdatePlaceState updates the owner-mutable flags of a place.
// Nil arguments leave the current value unchanged.
func (h *PlacesDBHandler) UpdatePlaceState(rid uuid.UUID, ownerID int64, isVisited *bool, isFavorite *bool, tags *model.Tags) (*model.SavedPlace, error) {
	var tagsArg interface{}
	if tags != nil {
		tagsArg = *tags
	}

	place := &model.SavedPlace{}
	row := h.db.Instance.QueryRow(
		`SELECT * FROM update_place_state($1, $2, $3, $4, $5)`,
		rid,
		ownerID,
		isVisited,
		isFavorite,
		tagsArg,
	)

	err := scanPlace(row, place)
	if err != nil {
		if errors.Is(err, dbsql.ErrNoRows) {
			return nil, helper.NewError("update place state", model.ErrNotFound)
		}
		return nil, helper.NewError("scan", err)
	}

	return place, nil
}

// DeletePlace deletes a place by RID, scoped to its owner
func (h *PlacesDBHandler) DeletePlace(rid uuid.UUID, ownerID int64) error {
	var deleted bool
	err := h.db.Instance.QueryRow(
		`SELECT delete_place($1, $2)`,
		rid,
		ownerID,
	).Scan(&deleted)
	if err != nil {
		return helper.NewError("exec", err)
	}
	if !deleted {
		return helper.NewError("delete place", model.ErrNotFound)
	}
	return nil
}

// SelectTrendingCounts aggregates save counts per external id across all
// owners. Recent counts saves at or after since.
func (h *PlacesDBHandler) SelectTrendingCounts(since time.Time, limit int) ([]*model.TrendingPlace, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_trending_counts($1, $2)`,
		since,
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var trending []*model.TrendingPlace
	for rows.Next() {
		tp := &model.TrendingPlace{}
		err := rows.Scan(
			&tp.ExternalID,
			&tp.Name,
			&tp.Category,
			&tp.Emoji,
			&tp.RecentSaves,
			&tp.TotalSaves,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		trending = append(trending, tp)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return trending, nil
}

// SelectExternalIDsByOwner returns the owner's saved external ids
func (h *PlacesDBHandler) SelectExternalIDsByOwner(ownerID int64) ([]string, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_external_ids_by_owner($1)`,
		ownerID,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, helper.NewError("scan", err)
		}
		ids = append(ids, id)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return ids, nil
}

// SelectOwnerIDsWithPlaces returns all other owners that have saved places
func (h *PlacesDBHandler) SelectOwnerIDsWithPlaces(excludeOwnerID int64) ([]int64, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_owner_ids_with_places($1)`,
		excludeOwnerID,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, helper.NewError("scan", err)
		}
		ids = append(ids, id)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return ids, nil
}

// UpdatePlaceEmbedding stores the semantic vector for a place
func (h *PlacesDBHandler) UpdatePlaceEmbedding(rid uuid.UUID, ownerID int64, embedding []float32) error {
	embeddingVector := pgvector.NewVector(embedding)

	_, err := h.db.Instance.Exec(
		`SELECT update_place_embedding($1, $2, $3)`,
		rid,
		ownerID,
		embeddingVector,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

// SelectPlacesBySimilarity performs cosine similarity search over the owner's
// saved set. Places without an embedding are skipped.
func (h *PlacesDBHandler) SelectPlacesBySimilarity(ownerID int64, embedding []float32, limit int) ([]*model.SemanticMatch, error) {
	embeddingVector := pgvector.NewVector(embedding)

	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_places_by_similarity($1, $2, $3)`,
		ownerID,
		embeddingVector,
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var matches []*model.SemanticMatch
	for rows.Next() {
		match := &model.SemanticMatch{Place: &model.SavedPlace{}}
		place := match.Place
		err := rows.Scan(
			&place.ID,
			&place.RID,
			&place.OwnerID,
			&place.ExternalID,
			&place.Name,
			&place.Address,
			&place.District,
			&place.Lat,
			&place.Lng,
			&place.Category,
			&place.Emoji,
			&place.PhotoURL,
			&place.Rating,
			&place.SourceType,
			&place.SourceURL,
			&place.IsVisited,
			&place.IsFavorite,
			&place.Tags,
			&place.CreatedAt,
			&place.UpdatedAt,
			&match.Similarity,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		matches = append(matches, match)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return matches, nil
}
