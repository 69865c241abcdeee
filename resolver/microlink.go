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

const defaultMicrolinkURL = "https://api.microlink.io"

// MicrolinkUnfurler unfurls social post URLs through the Microlink API
type MicrolinkUnfurler struct {
	baseURL    string
	httpClient *http.Client
}

// NewMicrolinkUnfurler creates an unfurler against the public Microlink API.
// baseURL overrides the endpoint when non-empty (used in tests).
func NewMicrolinkUnfurler(baseURL string) *MicrolinkUnfurler {
	if baseURL == "" {
		baseURL = defaultMicrolinkURL
	}
	return &MicrolinkUnfurler{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type microlinkResponse struct {
	Status string `json:"status"`
	Data   struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Author      string `json:"author"`
		Image       struct {
			URL string `json:"url"`
		} `json:"image"`
	} `json:"data"`
}

// Unfurl fetches post metadata for a shared URL.
// Any transport failure or non-success API status is reported as model.ErrUnfurl:
// the link is unreadable for this user and the request is not retried.
func (u *MicrolinkUnfurler) Unfurl(ctx context.Context, postURL string) (*LinkMetadata, error) {
	params := url.Values{}
	params.Set("url", postURL)
	params.Set("screenshot", "false")
	params.Set("meta", "true")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, helper.NewError("build unfurl request", err)
	}

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return nil, helper.NewError("unfurl", fmt.Errorf("%w: %v", model.ErrUnfurl, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, helper.NewError("unfurl", fmt.Errorf("%w: status %d", model.ErrUnfurl, resp.StatusCode))
	}

	var body microlinkResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, helper.NewError("unfurl", fmt.Errorf("%w: %v", model.ErrUnfurl, err))
	}

	if body.Status != "success" {
		return nil, helper.NewError("unfurl", fmt.Errorf("%w: api status %q", model.ErrUnfurl, body.Status))
	}

	return &LinkMetadata{
		Title:       body.Data.Title,
		Description: body.Data.Description,
		Author:      body.Data.Author,
		ImageURL:    body.Data.Image.URL,
		URL:         postURL,
	}, nil
}
