package scoring

import (
	"sort"

	"github.com/radarhk/radar/model"
)

// recentWeight makes recent saves dominate total saves in the trending score.
// The value is a tunable constant; the score stays monotonic in both inputs.
const recentWeight = 3.0

// TrendingScore computes the ranking value for a place from its recent and
// total save counts across all owners. Monotonic in both inputs and
// deterministic for identical inputs.
func TrendingScore(recentSaves, totalSaves int) float64 {
	return recentWeight*float64(recentSaves) + float64(totalSaves)
}

// RankTrending fills in the score of each entry and sorts descending.
// Equal scores are ordered by external id so the ranking is deterministic.
func RankTrending(places []*model.TrendingPlace) []*model.TrendingPlace {
	for _, place := range places {
		place.Score = TrendingScore(place.RecentSaves, place.TotalSaves)
	}

	sort.SliceStable(places, func(i, j int) bool {
		if places[i].Score != places[j].Score {
			return places[i].Score > places[j].Score
		}
		return places[i].ExternalID < places[j].ExternalID
	})

	return places
}
