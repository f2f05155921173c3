package confluence

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shouhanzen/confluence-sync/pkg/errors"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := New(Config{
		BaseURL:      server.URL,
		Username:     "user@example.com",
		APIToken:     "token",
		MaxRetries:   2,
		RetryBackoff: time.Millisecond,
	})
	require.NoError(t, err)
	return client
}

func TestNewValidation(t *testing.T) {
	_, err := New(Config{APIToken: "t"})
	require.Error(t, err)

	_, err = New(Config{BaseURL: "https://example.atlassian.net/wiki"})
	require.Error(t, err)
}

func TestFetch(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/api/content/42", r.URL.Path)
		assert.Contains(t, r.URL.Query().Get("expand"), "body.storage")

		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "user@example.com", user)
		assert.Equal(t, "token", pass)

		fmt.Fprint(w, `{
			"id": "42",
			"title": "Intro",
			"version": {"number": 3},
			"ancestors": [{"id": "1"}, {"id": "7"}],
			"space": {"key": "DOCS"},
			"body": {"storage": {"value": "<h1>Intro</h1><p>Hello</p>", "representation": "storage"}}
		}`)
	}))

	page, err := client.Fetch(context.Background(), "42")
	require.NoError(t, err)

	assert.Equal(t, "42", page.ID)
	assert.Equal(t, "Intro", page.Title)
	assert.Equal(t, 3, page.Version)
	assert.Equal(t, "7", page.ParentID, "parent is the last ancestor")
	assert.Equal(t, "DOCS", page.SpaceKey)
	assert.Contains(t, page.Content, "# Intro")
	assert.Contains(t, page.Content, "Hello")
}

func TestFetchNotFound(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such page", http.StatusNotFound)
	}))

	_, err := client.Fetch(context.Background(), "999")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestFetchAuthFailure(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad credentials", http.StatusUnauthorized)
	}))

	_, err := client.Fetch(context.Background(), "42")
	require.Error(t, err)
	assert.True(t, errors.IsAuth(err))
	assert.False(t, errors.IsRetryable(err))
}

func TestFetchVersion(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "version", r.URL.Query().Get("expand"))
		fmt.Fprint(w, `{"id": "42", "title": "Intro", "version": {"number": 5}}`)
	}))

	version, err := client.FetchVersion(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, 5, version)
}

func TestRetryOnRateLimit(t *testing.T) {
	var calls int
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			http.Error(w, "slow down", http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"id": "42", "title": "Intro", "version": {"number": 5}}`)
	}))

	version, err := client.FetchVersion(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, 5, version)
	assert.Equal(t, 3, calls)
}

func TestRetriesAreBounded(t *testing.T) {
	var calls int
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))

	_, err := client.FetchVersion(context.Background(), "42")
	require.Error(t, err)
	assert.True(t, errors.IsTransient(err))
	assert.Equal(t, 3, calls, "initial attempt plus MaxRetries")
}

func TestList(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/api/content", r.URL.Path)
		assert.Equal(t, "DOCS", r.URL.Query().Get("spaceKey"))
		assert.Equal(t, "page", r.URL.Query().Get("type"))

		fmt.Fprint(w, `{"results": [
			{"id": "42", "title": "Intro", "version": {"number": 3}},
			{"id": "43", "title": "Setup", "version": {"number": 1}, "ancestors": [{"id": "42"}]}
		], "start": 0, "limit": 100, "size": 2}`)
	}))

	summaries, err := client.List(context.Background(), "DOCS")
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, "42", summaries[0].ID)
	assert.Equal(t, 3, summaries[0].Version)
	assert.Equal(t, "42", summaries[1].ParentID)
}

func TestListPagination(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := r.URL.Query().Get("start")

		var results []map[string]any
		if start == "0" {
			for i := 0; i < 100; i++ {
				results = append(results, map[string]any{
					"id":      fmt.Sprintf("%d", i),
					"title":   fmt.Sprintf("Page %d", i),
					"version": map[string]any{"number": 1},
				})
			}
		} else {
			assert.Equal(t, "100", start)
			results = append(results, map[string]any{
				"id":      "100",
				"title":   "Last",
				"version": map[string]any{"number": 1},
			})
		}

		require.NoError(t, json.NewEncoder(w).Encode(map[string]any{"results": results}))
	}))

	summaries, err := client.List(context.Background(), "DOCS")
	require.NoError(t, err)
	assert.Len(t, summaries, 101)
}

func TestCreate(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)

		var payload contentPayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "page", payload.Type)
		assert.Equal(t, "New Page", payload.Title)
		assert.Equal(t, "DOCS", payload.Space.Key)
		require.Len(t, payload.Ancestors, 1)
		assert.Equal(t, "7", payload.Ancestors[0].ID)
		assert.Equal(t, "storage", payload.Body.Storage.Representation)
		assert.Contains(t, payload.Body.Storage.Value, "<p>")

		fmt.Fprint(w, `{"id": "55", "title": "New Page", "version": {"number": 1}}`)
	}))

	page, err := client.Create(context.Background(), "DOCS", "New Page", "7", "hello world")
	require.NoError(t, err)
	assert.Equal(t, "55", page.ID)
	assert.Equal(t, 1, page.Version)
	assert.Equal(t, "DOCS", page.SpaceKey)
}

func TestUpdate(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/rest/api/content/42", r.URL.Path)

		var payload contentPayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, 4, payload.Version.Number, "next version is expected+1")
		assert.Equal(t, versionMessage, payload.Version.Message)

		fmt.Fprint(w, `{"id": "42", "title": "Intro", "version": {"number": 4}}`)
	}))

	page, err := client.Update(context.Background(), "42", "Intro", "updated body", 3)
	require.NoError(t, err)
	assert.Equal(t, 4, page.Version)
}

func TestUpdateConflict(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "version mismatch", http.StatusConflict)
	}))

	_, err := client.Update(context.Background(), "42", "Intro", "body", 3)
	require.Error(t, err)
	assert.True(t, errors.IsConflict(err))
	assert.False(t, errors.IsRetryable(err))
}

func TestBearerAuthWithoutUsername(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer pat-token", r.Header.Get("Authorization"))
		fmt.Fprint(w, `{"id": "42", "title": "Intro", "version": {"number": 1}}`)
	}))
	t.Cleanup(server.Close)

	client, err := New(Config{BaseURL: server.URL, APIToken: "pat-token"})
	require.NoError(t, err)

	_, err = client.FetchVersion(context.Background(), "42")
	require.NoError(t, err)
}
