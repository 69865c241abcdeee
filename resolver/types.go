package resolver

import "context"

// LinkMetadata is the unstructured metadata unfurled from a shared URL
type LinkMetadata struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Author      string `json:"author,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	URL         string `json:"url"`
}

// Caption returns the best available caption text for extraction,
// preferring the post description over the page title.
func (m *LinkMetadata) Caption() string {
	if m.Description != "" {
		return m.Description
	}
	return m.Title
}

// Place is one result from the external place-search capability
type Place struct {
	ExternalID string   `json:"place_id"`
	Name       string   `json:"name"`
	Address    string   `json:"address,omitempty"`
	Lat        float64  `json:"lat"`
	Lng        float64  `json:"lng"`
	Rating     *float64 `json:"rating,omitempty"`
	PhotoURL   *string  `json:"photo_url,omitempty"`
	Types      []string `json:"types,omitempty"`
}

// Coordinate is a WGS84 point used to bias search ranking
type Coordinate struct {
	Lat float64
	Lng float64
}

// Unfurler retrieves metadata for a shared URL.
// Failures are reported as model.ErrUnfurl.
type Unfurler interface {
	Unfurl(ctx context.Context, url string) (*LinkMetadata, error)
}

// PlaceSearcher resolves free-text queries against the external places
// capability. Failures are reported as model.ErrResolverUnavailable; an empty
// result slice is a valid outcome, not an error.
type PlaceSearcher interface {
	Search(ctx context.Context, query string, bias *Coordinate) ([]*Place, error)
	Details(ctx context.Context, externalID string) (*Place, error)
	Autocomplete(ctx context.Context, query string, bias *Coordinate) ([]*Place, error)
}
