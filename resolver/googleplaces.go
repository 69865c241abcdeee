package resolver

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"
	"github.com/radarhk/radar/helper"
	"github.com/radarhk/radar/model"
)

const defaultPlacesURL = "https://maps.googleapis.com/maps/api/place"

// GooglePlacesClient resolves queries against the Google Places web API
type GooglePlacesClient struct {
	baseURL    string
	apiKey     string
	region     string
	httpClient *http.Client
}

// NewGooglePlacesClient creates a places client.
// region biases text search results (e.g. "hk"); baseURL overrides the
// endpoint when non-empty (used in tests).
func NewGooglePlacesClient(apiKey string, region string, baseURL string) *GooglePlacesClient {
	if baseURL == "" {
		baseURL = defaultPlacesURL
	}
	return &GooglePlacesClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		region:  region,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type placesSearchResponse struct {
	Status  string        `json:"status"`
	Results []placeResult `json:"results"`
}

type placesDetailsResponse struct {
	Status string      `json:"status"`
	Result placeResult `json:"result"`
}

type placeResult struct {
	PlaceID          string `json:"place_id"`
	Name             string `json:"name"`
	FormattedAddress string `json:"formatted_address"`
	Geometry         struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
	Rating *float64 `json:"rating,omitempty"`
	Photos []struct {
		PhotoReference string `json:"photo_reference"`
	} `json:"photos,omitempty"`
	Types []string `json:"types,omitempty"`
}

func (c *GooglePlacesClient) toPlace(r placeResult) *Place {
	place := &Place{
		ExternalID: r.PlaceID,
		Name:       r.Name,
		Address:    r.FormattedAddress,
		Lat:        r.Geometry.Location.Lat,
		Lng:        r.Geometry.Location.Lng,
		Rating:     r.Rating,
		Types:      r.Types,
	}
	if len(r.Photos) > 0 && r.Photos[0].PhotoReference != "" {
		photoURL := fmt.Sprintf("%s/photo?maxwidth=800&photo_reference=%s&key=%s", c.baseURL, r.Photos[0].PhotoReference, c.apiKey)
		place.PhotoURL = &photoURL
	}
	return place
}

func (c *GooglePlacesClient) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	params.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return helper.NewError("build places request", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return helper.NewError("places request", fmt.Errorf("%w: %v", model.ErrResolverUnavailable, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return helper.NewError("places request", fmt.Errorf("%w: status %d", model.ErrResolverUnavailable, resp.StatusCode))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return helper.NewError("places request", fmt.Errorf("%w: %v", model.ErrResolverUnavailable, err))
	}

	return nil
}

// Search performs a text search for the query.
// ZERO_RESULTS is a valid empty outcome; any other non-OK API status means the
// capability itself failed and is reported as model.ErrResolverUnavailable.
func (c *GooglePlacesClient) Search(ctx context.Context, query string, bias *Coordinate) ([]*Place, error) {
	params := url.Values{}
	params.Set("query", query)
	if c.region != "" {
		params.Set("region", c.region)
	}
	if bias != nil {
		params.Set("location", fmt.Sprintf("%f,%f", bias.Lat, bias.Lng))
		params.Set("radius", "50000")
	}

	var body placesSearchResponse
	if err := c.get(ctx, "/textsearch/json", params, &body); err != nil {
		return nil, err
	}

	if body.Status == "ZERO_RESULTS" {
		return nil, nil
	}
	if body.Status != "OK" {
		return nil, helper.NewError("places search", fmt.Errorf("%w: api status %q", model.ErrResolverUnavailable, body.Status))
	}

	places := make([]*Place, 0, len(body.Results))
	for _, r := range body.Results {
		places = append(places, c.toPlace(r))
	}

	return places, nil
}

type placesAutocompleteResponse struct {
	Status      string `json:"status"`
	Predictions []struct {
		PlaceID              string `json:"place_id"`
		Description          string `json:"description"`
		StructuredFormatting struct {
			MainText string `json:"main_text"`
		} `json:"structured_formatting"`
	} `json:"predictions"`
}

// Autocomplete resolves partial queries against the autocomplete endpoint and
// enriches each prediction with full details. Predictions whose details fetch
// fails keep the prediction text with zero coordinates.
func (c *GooglePlacesClient) Autocomplete(ctx context.Context, query string, bias *Coordinate) ([]*Place, error) {
	params := url.Values{}
	params.Set("input", query)
	params.Set("types", "establishment")
	if c.region != "" {
		params.Set("components", "country:"+c.region)
	}
	if bias != nil {
		params.Set("location", fmt.Sprintf("%f,%f", bias.Lat, bias.Lng))
		params.Set("radius", "50000")
	}

	var body placesAutocompleteResponse
	if err := c.get(ctx, "/autocomplete/json", params, &body); err != nil {
		return nil, err
	}

	if body.Status == "ZERO_RESULTS" {
		return nil, nil
	}
	if body.Status != "OK" {
		return nil, helper.NewError("places autocomplete", fmt.Errorf("%w: api status %q", model.ErrResolverUnavailable, body.Status))
	}

	places := make([]*Place, 0, len(body.Predictions))
	for _, prediction := range body.Predictions {
		details, err := c.Details(ctx, prediction.PlaceID)
		if err != nil {
			places = append(places, &Place{
				ExternalID: prediction.PlaceID,
				Name:       prediction.StructuredFormatting.MainText,
				Address:    prediction.Description,
			})
			continue
		}
		places = append(places, details)
	}

	return places, nil
}

// Details fetches the full record for one external id
func (c *GooglePlacesClient) Details(ctx context.Context, externalID string) (*Place, error) {
	params := url.Values{}
	params.Set("place_id", externalID)
	params.Set("fields", "place_id,name,formatted_address,geometry,rating,photos,types")

	var body placesDetailsResponse
	if err := c.get(ctx, "/details/json", params, &body); err != nil {
		return nil, err
	}

	if body.Status == "NOT_FOUND" || body.Status == "ZERO_RESULTS" {
		return nil, helper.NewError("places details", model.ErrNotFound)
	}
	if body.Status != "OK" {
		return nil, helper.NewError("places details", fmt.Errorf("%w: api status %q", model.ErrResolverUnavailable, body.Status))
	}

	return c.toPlace(body.Result), nil
}
