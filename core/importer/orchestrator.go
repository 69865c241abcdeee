package importer

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/radarhk/radar/model"
)

// maxConcurrentWrites bounds the parallelism of a batch so storage is not
// overwhelmed by one large import.
const maxConcurrentWrites = 8

// PlaceStore is the single write the orchestrator needs from storage
type PlaceStore interface {
	InsertPlace(place *model.SavedPlace) error
}

// SaveRequest carries the owner identity and shared source context for one
// batch of candidate saves.
type SaveRequest struct {
	OwnerID    int64
	SourceType model.SourceType
	SourceURL  string
	Tags       model.Tags
}

// Orchestrator persists user-selected candidates as saved places.
//
// Writes are independent: a failure on one candidate never aborts or rolls
// back the others, and partial success is a first-class outcome. The
// orchestrator waits for every write before returning, and never retries a
// write within the batch.
type Orchestrator struct {
	store PlaceStore
	log   *slog.Logger
}

// NewOrchestrator creates a batch save orchestrator over the given store
func NewOrchestrator(store PlaceStore, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		store: store,
		log:   logger,
	}
}

// SaveAll persists each candidate with bounded concurrency and returns one
// outcome per input candidate, in input order regardless of write completion
// order. Candidates flagged as already saved are skipped without a write.
func (o *Orchestrator) SaveAll(ctx context.Context, req SaveRequest, candidates []*model.PlaceCandidate) *model.ImportResult {
	items := make([]model.ImportItem, len(candidates))

	var wg sync.WaitGroup
	sem := make(chan struct{}, maxConcurrentWrites)

	for i, candidate := range candidates {
		items[i].Candidate = *candidate

		if candidate.AlreadySaved {
			items[i].Outcome = model.OutcomeAlreadySaved
			continue
		}

		wg.Add(1)
		go func(i int, candidate model.PlaceCandidate) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if err := ctx.Err(); err != nil {
				items[i].Outcome = model.OutcomeFailed
				items[i].Reason = model.ErrStorageUnavailable.Error()
				return
			}

			place := o.buildPlace(req, candidate)
			err := o.store.InsertPlace(place)
			switch {
			case err == nil:
				items[i].Outcome = model.OutcomeSaved
				items[i].Place = place
				o.log.Info("Saved place", slog.String("name", place.Name), slog.Int64("owner_id", place.OwnerID))
			case errors.Is(err, model.ErrDuplicateKey):
				items[i].Outcome = model.OutcomeFailed
				items[i].Reason = model.ErrDuplicateKey.Error()
				o.log.Warn("Duplicate place rejected by storage", slog.String("name", candidate.Name))
			default:
				items[i].Outcome = model.OutcomeFailed
				items[i].Reason = model.ErrStorageUnavailable.Error()
				o.log.Error("Place write failed", slog.String("name", candidate.Name), slog.String("error", err.Error()))
			}
		}(i, *candidate)
	}

	wg.Wait()

	return &model.ImportResult{Items: items}
}

// buildPlace maps a candidate plus the batch context onto a storable place
func (o *Orchestrator) buildPlace(req SaveRequest, candidate model.PlaceCandidate) *model.SavedPlace {
	var externalID *string
	if candidate.ExternalID != "" {
		id := candidate.ExternalID
		externalID = &id
	}

	category := model.CategoryFromTags(req.Tags)
	return &model.SavedPlace{
		OwnerID:    req.OwnerID,
		ExternalID: externalID,
		Name:       candidate.Name,
		Address:    candidate.Address,
		District:   candidate.District,
		Lat:        candidate.Lat,
		Lng:        candidate.Lng,
		Category:   category,
		Emoji:      model.EmojiForCategory(category),
		PhotoURL:   candidate.PhotoURL,
		Rating:     candidate.Rating,
		SourceType: req.SourceType,
		SourceURL:  req.SourceURL,
		Tags:       req.Tags,
	}
}
