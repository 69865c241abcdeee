package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// SourceType records how a saved place entered the system.
type SourceType string

const (
	SourceManual    SourceType = "manual"
	SourceInstagram SourceType = "instagram"
	SourceTikTok    SourceType = "tiktok"
	SourceSearch    SourceType = "search"
)

// SavedPlace represents a place persisted to an owner's map
type SavedPlace struct {
	ID         int64      `json:"id"`
	RID        uuid.UUID  `json:"rid"`
	OwnerID    int64      `json:"owner_id"`
	ExternalID *string    `json:"external_id,omitempty"`
	Name       string     `json:"name"`
	Address    string     `json:"address,omitempty"`
	District   string     `json:"district,omitempty"`
	Lat        float64    `json:"lat"`
	Lng        float64    `json:"lng"`
	Category   string     `json:"category"`
	Emoji      string     `json:"emoji"`
	PhotoURL   *string    `json:"photo_url,omitempty"`
	Rating     *float64   `json:"rating,omitempty"`
	SourceType SourceType `json:"source_type"`
	SourceURL  string     `json:"source_url,omitempty"`
	IsVisited  bool       `json:"is_visited"`
	IsFavorite bool       `json:"is_favorite"`
	Tags       Tags       `json:"tags,omitempty"`
	Embedding  []float32  `json:"-" db:"-"` // Optional semantic vector, stored separately
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// PlaceCandidate is an unsaved place proposal produced during import or search.
// It lives only for the duration of one user request and is never persisted directly.
type PlaceCandidate struct {
	ExternalID   string   `json:"external_id,omitempty"`
	Name         string   `json:"name"`
	Address      string   `json:"address,omitempty"`
	District     string   `json:"district,omitempty"`
	Lat          float64  `json:"lat"`
	Lng          float64  `json:"lng"`
	Rating       *float64 `json:"rating,omitempty"`
	PhotoURL     *string  `json:"photo_url,omitempty"`
	AlreadySaved bool     `json:"is_saved"`
	Selected     bool     `json:"selected,omitempty"`
}

// CategoryEmojis maps place categories to their map marker emoji
var CategoryEmojis = map[string]string{
	"eat":     "🍜",
	"cafes":   "☕",
	"bars":    "🍸",
	"shops":   "🛍️",
	"leisure": "🎭",
	"go_out":  "✨",
	"nature":  "🌳",
	"culture": "🎨",
	"fitness": "💪",
	"beauty":  "💅",
}

const defaultEmoji = "📍"

// EmojiForCategory returns the marker emoji for a category,
// falling back to the generic pin for unknown categories.
func EmojiForCategory(category string) string {
	if emoji, ok := CategoryEmojis[strings.ToLower(category)]; ok {
		return emoji
	}
	return defaultEmoji
}

var categoryKeywords = []struct {
	category string
	words    []string
}{
	{"cafes", []string{"cafe", "coffee", "espresso", "latte", "cappuccino", "bakery"}},
	{"bars", []string{"bar", "cocktail", "wine", "beer", "pub", "nightlife", "night_club"}},
	{"eat", []string{"restaurant", "dining", "food", "cuisine", "noodles", "dim sum", "meal_takeaway"}},
	{"shops", []string{"shop", "store", "boutique", "retail", "shopping"}},
	{"leisure", []string{"cinema", "theater", "entertainment", "activity", "amusement"}},
	{"go_out", []string{"event", "party", "club", "experience", "rooftop"}},
	{"nature", []string{"park", "nature", "hiking", "beach", "outdoor"}},
	{"culture", []string{"museum", "gallery", "art", "culture", "exhibition"}},
}

// CategoryFromTags derives a category from free-form tags or resolver type strings.
// Unknown tag sets default to "eat", the most common category.
func CategoryFromTags(tags []string) string {
	lowered := make([]string, 0, len(tags))
	for _, t := range tags {
		lowered = append(lowered, strings.ToLower(t))
	}

	for _, ck := range categoryKeywords {
		for _, tag := range lowered {
			for _, word := range ck.words {
				if strings.Contains(tag, word) {
					return ck.category
				}
			}
		}
	}

	return "eat"
}
