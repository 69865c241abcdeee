package pipeline

import (
	"context"
	"fmt"
	"testing"

	"github.com/radarhk/radar/model"
	"github.com/radarhk/radar/resolver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSearcher serves canned results per query
type fakeSearcher struct {
	results map[string][]*resolver.Place
	err     error
	queries []string
}

func (f *fakeSearcher) Search(ctx context.Context, query string, bias *resolver.Coordinate) ([]*resolver.Place, error) {
	f.queries = append(f.queries, query)
	if f.err != nil {
		return nil, f.err
	}
	return f.results[query], nil
}

func (f *fakeSearcher) Details(ctx context.Context, externalID string) (*resolver.Place, error) {
	return nil, model.ErrNotFound
}

func (f *fakeSearcher) Autocomplete(ctx context.Context, query string, bias *resolver.Coordinate) ([]*resolver.Place, error) {
	return f.results[query], nil
}

func TestMatcherMatch(t *testing.T) {
	rating := 4.6

	t.Run("Candidates carry resolver fields and district", func(t *testing.T) {
		searcher := &fakeSearcher{results: map[string][]*resolver.Place{
			"Bar Leone": {
				{ExternalID: "gp-1", Name: "Bar Leone", Address: "11-15 Bridges Street, Central", Lat: 22.2831, Lng: 114.1520, Rating: &rating},
			},
		}}
		matcher := NewMatcher(searcher)

		candidates, err := matcher.Match(context.Background(), "Bar Leone", nil)
		assert.NoError(t, err, "Expected Match to not return an error")
		require.Len(t, candidates, 1)
		assert.Equal(t, "gp-1", candidates[0].ExternalID)
		assert.Equal(t, "Bar Leone", candidates[0].Name)
		assert.Equal(t, "Central", candidates[0].District, "Expected district derived from the address")
		assert.Equal(t, &rating, candidates[0].Rating)
	})

	t.Run("Results capped at the candidate limit", func(t *testing.T) {
		var places []*resolver.Place
		for i := 0; i < MaxCandidates+5; i++ {
			places = append(places, &resolver.Place{ExternalID: fmt.Sprintf("gp-%d", i), Name: fmt.Sprintf("Place %d", i)})
		}
		searcher := &fakeSearcher{results: map[string][]*resolver.Place{"coffee": places}}
		matcher := NewMatcher(searcher)

		candidates, err := matcher.Match(context.Background(), "coffee", nil)
		assert.NoError(t, err)
		assert.Len(t, candidates, MaxCandidates, "Expected silent truncation at the limit")
		assert.Equal(t, "gp-0", candidates[0].ExternalID, "Expected relevance order preserved")
	})

	t.Run("Autocomplete capped at the candidate limit", func(t *testing.T) {
		var places []*resolver.Place
		for i := 0; i < MaxCandidates+5; i++ {
			places = append(places, &resolver.Place{ExternalID: fmt.Sprintf("gp-%d", i), Name: fmt.Sprintf("Place %d", i)})
		}
		searcher := &fakeSearcher{results: map[string][]*resolver.Place{"bar le": places}}
		matcher := NewMatcher(searcher)

		candidates, err := matcher.Autocomplete(context.Background(), "bar le", nil)
		assert.NoError(t, err, "Expected Autocomplete to not return an error")
		assert.Len(t, candidates, MaxCandidates, "Expected silent truncation at the limit")
		assert.Equal(t, "gp-0", candidates[0].ExternalID, "Expected prediction order preserved")
	})

	t.Run("Autocomplete maps district from the address", func(t *testing.T) {
		searcher := &fakeSearcher{results: map[string][]*resolver.Place{
			"halfway": {{ExternalID: "gp-1", Name: "Halfway Coffee", Address: "Sheung Wan"}},
		}}
		matcher := NewMatcher(searcher)

		candidates, err := matcher.Autocomplete(context.Background(), "halfway", nil)
		assert.NoError(t, err)
		require.Len(t, candidates, 1)
		assert.Equal(t, "Sheung Wan", candidates[0].District, "Expected district derived from the address")
	})

	t.Run("Empty result is not an error", func(t *testing.T) {
		matcher := NewMatcher(&fakeSearcher{results: map[string][]*resolver.Place{}})

		candidates, err := matcher.Match(context.Background(), "nonexistent", nil)
		assert.NoError(t, err, "Expected empty result to not be an error")
		assert.Len(t, candidates, 0)
	})

	t.Run("Resolver failure propagates", func(t *testing.T) {
		matcher := NewMatcher(&fakeSearcher{err: model.ErrResolverUnavailable})

		_, err := matcher.Match(context.Background(), "anything", nil)
		assert.ErrorIs(t, err, model.ErrResolverUnavailable, "Expected resolver error passed through")
	})
}
