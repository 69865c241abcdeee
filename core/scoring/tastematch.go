package scoring

import (
	"math"
	"sort"

	"github.com/radarhk/radar/model"
)

// TasteMatchPercent computes the Jaccard-style overlap of two owners' saved
// external ids as an integer percentage. Two empty sets yield 0, not a
// division error.
func TasteMatchPercent(a, b []string) int {
	setA := make(map[string]struct{}, len(a))
	for _, id := range a {
		setA[id] = struct{}{}
	}
	setB := make(map[string]struct{}, len(b))
	for _, id := range b {
		setB[id] = struct{}{}
	}

	shared := 0
	for id := range setA {
		if _, ok := setB[id]; ok {
			shared++
		}
	}

	union := len(setA) + len(setB) - shared
	if union == 0 {
		return 0
	}

	return int(math.Round(float64(shared) / float64(union) * 100.0))
}

// SharedCount returns the number of external ids present in both sets
func SharedCount(a, b []string) int {
	setA := make(map[string]struct{}, len(a))
	for _, id := range a {
		setA[id] = struct{}{}
	}

	seen := make(map[string]struct{}, len(b))
	shared := 0
	for _, id := range b {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if _, ok := setA[id]; ok {
			shared++
		}
	}

	return shared
}

// RankFriendMatches computes the taste match of the owner's set against each
// other owner's set and sorts descending by match percentage. Equal
// percentages are ordered by owner id for a deterministic ranking.
func RankFriendMatches(ownerIDs []string, others map[int64][]string) []*model.FriendMatch {
	matches := make([]*model.FriendMatch, 0, len(others))
	for ownerID, ids := range others {
		matches = append(matches, &model.FriendMatch{
			OwnerID:      ownerID,
			SharedCount:  SharedCount(ownerIDs, ids),
			MatchPercent: TasteMatchPercent(ownerIDs, ids),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].MatchPercent != matches[j].MatchPercent {
			return matches[i].MatchPercent > matches[j].MatchPercent
		}
		return matches[i].OwnerID < matches[j].OwnerID
	})

	return matches
}
