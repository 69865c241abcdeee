package resolver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/radarhk/radar/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMicrolinkUnfurl(t *testing.T) {
	t.Run("Successful unfurl returns metadata", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "https://instagram.com/p/abc123", r.URL.Query().Get("url"), "Expected post url forwarded")
			assert.Equal(t, "false", r.URL.Query().Get("screenshot"), "Expected screenshot disabled")
			w.Write([]byte(`{
				"status": "success",
				"data": {
					"title": "Bar Leone on Instagram",
					"description": "negroni night 📍 Bar Leone",
					"author": "@barleonehk",
					"image": {"url": "https://cdn.example.com/img.jpg"}
				}
			}`))
		}))
		defer server.Close()

		unfurler := NewMicrolinkUnfurler(server.URL)
		meta, err := unfurler.Unfurl(context.Background(), "https://instagram.com/p/abc123")
		assert.NoError(t, err, "Expected Unfurl to not return an error")
		require.NotNil(t, meta)
		assert.Equal(t, "Bar Leone on Instagram", meta.Title)
		assert.Equal(t, "negroni night 📍 Bar Leone", meta.Description)
		assert.Equal(t, "@barleonehk", meta.Author)
		assert.Equal(t, "https://cdn.example.com/img.jpg", meta.ImageURL)
		assert.Equal(t, "https://instagram.com/p/abc123", meta.URL)
	})

	t.Run("Non-success api status is an unfurl error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"status": "fail", "data": {}}`))
		}))
		defer server.Close()

		unfurler := NewMicrolinkUnfurler(server.URL)
		_, err := unfurler.Unfurl(context.Background(), "https://instagram.com/p/broken")
		assert.ErrorIs(t, err, model.ErrUnfurl, "Expected unfurl error for failed api status")
	})

	t.Run("HTTP error status is an unfurl error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()

		unfurler := NewMicrolinkUnfurler(server.URL)
		_, err := unfurler.Unfurl(context.Background(), "https://instagram.com/p/abc")
		assert.ErrorIs(t, err, model.ErrUnfurl, "Expected unfurl error for http failure")
	})

	t.Run("Unreachable endpoint is an unfurl error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		server.Close()

		unfurler := NewMicrolinkUnfurler(server.URL)
		_, err := unfurler.Unfurl(context.Background(), "https://instagram.com/p/abc")
		assert.ErrorIs(t, err, model.ErrUnfurl, "Expected unfurl error for transport failure")
	})

	t.Run("Malformed body is an unfurl error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`not json`))
		}))
		defer server.Close()

		unfurler := NewMicrolinkUnfurler(server.URL)
		_, err := unfurler.Unfurl(context.Background(), "https://instagram.com/p/abc")
		assert.ErrorIs(t, err, model.ErrUnfurl, "Expected unfurl error for undecodable body")
	})
}

func TestLinkMetadataCaption(t *testing.T) {
	t.Run("Description preferred", func(t *testing.T) {
		meta := &LinkMetadata{Title: "title", Description: "description"}
		assert.Equal(t, "description", meta.Caption(), "Expected description preferred over title")
	})

	t.Run("Title fallback", func(t *testing.T) {
		meta := &LinkMetadata{Title: "title"}
		assert.Equal(t, "title", meta.Caption(), "Expected title when no description")
	})
}
