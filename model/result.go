package model

// OutcomeKind classifies the result of a single batch save item
type OutcomeKind string

const (
	OutcomeSaved        OutcomeKind = "saved"
	OutcomeAlreadySaved OutcomeKind = "already_saved"
	OutcomeFailed       OutcomeKind = "failed"
)

// ImportItem pairs one candidate with the outcome of its save attempt.
// Place is set only for OutcomeSaved; Reason only for OutcomeFailed.
type ImportItem struct {
	Candidate PlaceCandidate `json:"candidate"`
	Outcome   OutcomeKind    `json:"outcome"`
	Place     *SavedPlace    `json:"place,omitempty"`
	Reason    string         `json:"reason,omitempty"`
}

// ImportResult is the ordered output of a batch save, one item per input
// candidate in input order regardless of write completion order.
type ImportResult struct {
	Items []ImportItem `json:"items"`
}

// SavedCount returns the number of successfully persisted items
func (r *ImportResult) SavedCount() int {
	count := 0
	for _, item := range r.Items {
		if item.Outcome == OutcomeSaved {
			count++
		}
	}
	return count
}

// FailedCount returns the number of items that could not be persisted
func (r *ImportResult) FailedCount() int {
	count := 0
	for _, item := range r.Items {
		if item.Outcome == OutcomeFailed {
			count++
		}
	}
	return count
}

// TrendingPlace is a cross-owner aggregate used for the trending ranking
type TrendingPlace struct {
	ExternalID  string  `json:"external_id"`
	Name        string  `json:"name"`
	Category    string  `json:"category,omitempty"`
	Emoji       string  `json:"emoji,omitempty"`
	RecentSaves int     `json:"recent_saves"`
	TotalSaves  int     `json:"total_saves"`
	Score       float64 `json:"score"`
}

// SemanticMatch pairs a saved place with its cosine similarity to a query
type SemanticMatch struct {
	Place      *SavedPlace `json:"place"`
	Similarity float64     `json:"similarity"`
}

// FriendMatch reports taste overlap between the requesting owner and another owner
type FriendMatch struct {
	OwnerID      int64 `json:"owner_id"`
	SharedCount  int   `json:"shared_count"`
	MatchPercent int   `json:"match_percent"`
}
