package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTasteMatchPercent(t *testing.T) {
	t.Run("Identical sets match fully", func(t *testing.T) {
		ids := []string{"gp-1", "gp-2", "gp-3"}
		assert.Equal(t, 100, TasteMatchPercent(ids, ids), "Expected full match for identical sets")
	})

	t.Run("Disjoint sets do not match", func(t *testing.T) {
		assert.Equal(t, 0, TasteMatchPercent([]string{"gp-1"}, []string{"gp-2"}), "Expected zero match for disjoint sets")
	})

	t.Run("Two empty sets yield zero", func(t *testing.T) {
		assert.Equal(t, 0, TasteMatchPercent(nil, nil), "Expected zero instead of a division error")
	})

	t.Run("Partial overlap rounds to nearest percent", func(t *testing.T) {
		// shared 1, union 3 -> 33.33 -> 33
		assert.Equal(t, 33, TasteMatchPercent([]string{"gp-1", "gp-2"}, []string{"gp-2", "gp-3"}), "Expected rounded percentage")
		// shared 2, union 3 -> 66.67 -> 67
		assert.Equal(t, 67, TasteMatchPercent([]string{"gp-1", "gp-2"}, []string{"gp-1", "gp-2", "gp-3"}), "Expected rounding up")
	})

	t.Run("Duplicate ids collapse before comparison", func(t *testing.T) {
		assert.Equal(t, 100, TasteMatchPercent([]string{"gp-1", "gp-1"}, []string{"gp-1"}), "Expected duplicates to not inflate the union")
	})
}

func TestSharedCount(t *testing.T) {
	t.Run("Counts common ids once", func(t *testing.T) {
		assert.Equal(t, 2, SharedCount([]string{"gp-1", "gp-2", "gp-3"}, []string{"gp-2", "gp-3", "gp-4"}), "Expected shared ids counted")
		assert.Equal(t, 1, SharedCount([]string{"gp-1"}, []string{"gp-1", "gp-1"}), "Expected duplicates counted once")
	})

	t.Run("Empty sets", func(t *testing.T) {
		assert.Equal(t, 0, SharedCount(nil, []string{"gp-1"}), "Expected no overlap with an empty set")
	})
}

func TestRankFriendMatches(t *testing.T) {
	t.Run("Orders descending by match percent", func(t *testing.T) {
		mine := []string{"gp-1", "gp-2", "gp-3"}
		matches := RankFriendMatches(mine, map[int64][]string{
			2: {"gp-1"},
			3: {"gp-1", "gp-2", "gp-3"},
			4: {"gp-9"},
		})

		require.Len(t, matches, 3)
		assert.Equal(t, int64(3), matches[0].OwnerID, "Expected best match first")
		assert.Equal(t, 100, matches[0].MatchPercent)
		assert.Equal(t, 3, matches[0].SharedCount)
		assert.Equal(t, int64(2), matches[1].OwnerID, "Expected partial match second")
		assert.Equal(t, int64(4), matches[2].OwnerID, "Expected no overlap last")
		assert.Equal(t, 0, matches[2].MatchPercent)
	})

	t.Run("Ties broken by owner id", func(t *testing.T) {
		mine := []string{"gp-1", "gp-2"}
		matches := RankFriendMatches(mine, map[int64][]string{
			9: {"gp-1", "gp-2"},
			5: {"gp-1", "gp-2"},
		})

		require.Len(t, matches, 2)
		assert.Equal(t, int64(5), matches[0].OwnerID, "Expected tie broken by owner id")
		assert.Equal(t, int64(9), matches[1].OwnerID)
	})

	t.Run("No other owners", func(t *testing.T) {
		matches := RankFriendMatches([]string{"gp-1"}, nil)
		assert.Len(t, matches, 0, "Expected empty ranking")
	})
}
