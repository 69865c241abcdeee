package pipeline

import (
	"strings"
	"unicode"

	"github.com/radarhk/radar/core/scoring"
	"github.com/radarhk/radar/model"
	"golang.org/x/text/unicode/norm"
)

// duplicateRadiusKm is the proximity fallback radius for candidates without
// an external id. Small enough that two different shops in the same mall do
// not collapse into one.
const duplicateRadiusKm = 0.05

// MarkSaved sets the AlreadySaved flag on each candidate against the owner's
// saved set.
//
// The primary match is exact external-id equality. Candidates without an
// external id fall back to a proximity check: a saved place within
// duplicateRadiusKm whose folded name is equal is treated as the same place.
// The operation is idempotent and never errors; an empty saved set leaves
// every flag false.
func MarkSaved(candidates []*model.PlaceCandidate, saved []*model.SavedPlace) {
	savedIDs := make(map[string]bool, len(saved))
	for _, place := range saved {
		if place.ExternalID != nil && *place.ExternalID != "" {
			savedIDs[*place.ExternalID] = true
		}
	}

	for _, candidate := range candidates {
		if candidate.ExternalID != "" {
			candidate.AlreadySaved = savedIDs[candidate.ExternalID]
			continue
		}

		candidate.AlreadySaved = false
		folded := FoldName(candidate.Name)
		for _, place := range saved {
			if FoldName(place.Name) != folded {
				continue
			}
			if scoring.Haversine(candidate.Lat, candidate.Lng, place.Lat, place.Lng) < duplicateRadiusKm {
				candidate.AlreadySaved = true
				break
			}
		}
	}
}

// FoldName normalizes a place name for duplicate comparison: lowercase,
// diacritics stripped, runs of non-alphanumerics collapsed to single spaces.
// "Café; Kitchen" and "cafe kitchen" fold to the same key.
func FoldName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = norm.NFD.String(s)

	var b strings.Builder
	b.Grow(len(s))
	prevSpace := false

	for _, r := range s {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			prevSpace = false
			continue
		}
		if !prevSpace {
			b.WriteByte(' ')
			prevSpace = true
		}
	}

	return strings.TrimSpace(b.String())
}
