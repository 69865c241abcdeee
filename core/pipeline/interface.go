package pipeline

import (
	"context"
	"sort"
	"strings"

	"github.com/radarhk/radar/core/scoring"
	"github.com/radarhk/radar/model"
	"github.com/radarhk/radar/resolver"
)

// Hypothesis is one place-name guess extracted from post text, optionally
// paired with a locality hint mentioned alongside it.
type Hypothesis struct {
	Name     string
	Locality string
}

// Query returns the search string for the hypothesis
func (h Hypothesis) Query() string {
	if h.Locality != "" && !strings.Contains(strings.ToLower(h.Name), strings.ToLower(h.Locality)) {
		return h.Name + " " + h.Locality
	}
	return h.Name
}

// ExtractFunc turns unfurled link metadata into zero or more place-name
// hypotheses. An empty result is a valid outcome, not an error.
type ExtractFunc func(meta *resolver.LinkMetadata) ([]Hypothesis, error)

// NERFunc runs named entity recognition over a caption text
type NERFunc func(text string) ([]NamedEntity, error)

// NamedEntity is one recognized span with its label (ORG, LOC, PER, MISC)
type NamedEntity struct {
	Word  string
	Label string
	Score float32
}

// Pipeline combines hypothesis extraction, place matching, and deduplication
type Pipeline struct {
	Extractor ExtractFunc
	Matcher   *Matcher
}

// NewPipeline creates a new import pipeline
func NewPipeline(extractor ExtractFunc, matcher *Matcher) *Pipeline {
	return &Pipeline{
		Extractor: extractor,
		Matcher:   matcher,
	}
}

// rankedCandidate carries the per-hypothesis rank for merge ordering
type rankedCandidate struct {
	candidate *model.PlaceCandidate
	rank      int
}

// Run executes extract, match, and dedup for one unfurled post.
// Candidates from different hypotheses are merged by per-hypothesis rank,
// rank ties broken by proximity to the bias coordinate; duplicates (same
// external id across hypotheses) keep their best rank. The result is capped
// at MaxCandidates and flagged against the caller's saved set.
func (p *Pipeline) Run(ctx context.Context, meta *resolver.LinkMetadata, bias *resolver.Coordinate, saved []*model.SavedPlace) ([]*model.PlaceCandidate, error) {
	hypotheses, err := p.Extractor(meta)
	if err != nil {
		return nil, err
	}
	if len(hypotheses) == 0 {
		return []*model.PlaceCandidate{}, nil
	}

	var merged []rankedCandidate
	seen := make(map[string]bool)

	for _, hypothesis := range hypotheses {
		candidates, err := p.Matcher.Match(ctx, hypothesis.Query(), bias)
		if err != nil {
			return nil, err
		}

		for rank, candidate := range candidates {
			if candidate.ExternalID != "" && seen[candidate.ExternalID] {
				continue
			}
			if candidate.ExternalID != "" {
				seen[candidate.ExternalID] = true
			}
			merged = append(merged, rankedCandidate{candidate: candidate, rank: rank})
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].rank != merged[j].rank {
			return merged[i].rank < merged[j].rank
		}
		if bias != nil {
			di := scoring.Haversine(bias.Lat, bias.Lng, merged[i].candidate.Lat, merged[i].candidate.Lng)
			dj := scoring.Haversine(bias.Lat, bias.Lng, merged[j].candidate.Lat, merged[j].candidate.Lng)
			return di < dj
		}
		return false
	})

	if len(merged) > MaxCandidates {
		merged = merged[:MaxCandidates]
	}

	result := make([]*model.PlaceCandidate, 0, len(merged))
	for _, rc := range merged {
		result = append(result, rc.candidate)
	}

	MarkSaved(result, saved)

	return result, nil
}
