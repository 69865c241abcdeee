package pipeline

import (
	"context"

	"github.com/radarhk/radar/model"
	"github.com/radarhk/radar/resolver"
)

// MaxCandidates bounds the number of candidates returned per query so
// downstream selection and save operations stay bounded. Truncation is
// silent, not an error.
const MaxCandidates = 10

// Matcher resolves hypotheses and raw queries against the external
// place-search capability.
type Matcher struct {
	searcher resolver.PlaceSearcher
}

// NewMatcher creates a matcher over the given place searcher
func NewMatcher(searcher resolver.PlaceSearcher) *Matcher {
	return &Matcher{
		searcher: searcher,
	}
}

// Match searches for the query and returns candidates in the resolver's
// relevance order, capped at MaxCandidates. The bias coordinate is passed to
// the resolver for ranking. An empty result means no matching place, not an
// error; resolver failures surface as model.ErrResolverUnavailable.
func (m *Matcher) Match(ctx context.Context, query string, bias *resolver.Coordinate) ([]*model.PlaceCandidate, error) {
	places, err := m.searcher.Search(ctx, query, bias)
	if err != nil {
		return nil, err
	}

	return toCandidates(places), nil
}

// Autocomplete resolves a partial query through the autocomplete capability
// with the same bounded output and mapping as Match.
func (m *Matcher) Autocomplete(ctx context.Context, query string, bias *resolver.Coordinate) ([]*model.PlaceCandidate, error) {
	places, err := m.searcher.Autocomplete(ctx, query, bias)
	if err != nil {
		return nil, err
	}

	return toCandidates(places), nil
}

func toCandidates(places []*resolver.Place) []*model.PlaceCandidate {
	if len(places) > MaxCandidates {
		places = places[:MaxCandidates]
	}

	candidates := make([]*model.PlaceCandidate, 0, len(places))
	for _, place := range places {
		candidates = append(candidates, &model.PlaceCandidate{
			ExternalID: place.ExternalID,
			Name:       place.Name,
			Address:    place.Address,
			District:   FindLocality(place.Address),
			Lat:        place.Lat,
			Lng:        place.Lng,
			Rating:     place.Rating,
			PhotoURL:   place.PhotoURL,
		})
	}

	return candidates
}
