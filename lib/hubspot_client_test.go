package lib

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(server *httptest.Server, token string) HubspotClient {
	return NewHubspotClient(ClientConfig{
		BaseURL:     server.URL,
		AccessToken: token,
		UserAgent:   "tap-hubspot-test",
		RateLimit:   1000,
		RateBurst:   100,
		MaxRetries:  2,
		Timeout:     5 * time.Second,
	})
}

func TestHubspotClient_SendsAuthenticatedJSON(t *testing.T) {
	var got *http.Request
	var body map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &body)
		w.Write([]byte(`{"results": []}`))
	}))
	defer server.Close()

	resp, err := testClient(server, "pat-123").Do(context.Background(), &Request{
		Method: http.MethodPost,
		Path:   "/crm/v3/objects/deals/search",
		Body:   map[string]interface{}{"limit": 100},
	})
	require.NoError(t, err)
	assert.True(t, resp.IsSuccess())
	assert.Equal(t, `{"results": []}`, string(resp.Body))

	assert.Equal(t, "Bearer pat-123", got.Header.Get("Authorization"))
	assert.Equal(t, "tap-hubspot-test", got.Header.Get("User-Agent"))
	assert.Equal(t, "application/json", got.Header.Get("Content-Type"))
	assert.Equal(t, "/crm/v3/objects/deals/search", got.URL.Path)
	assert.Equal(t, float64(100), body["limit"])
}

func TestHubspotClient_EncodesQuery(t *testing.T) {
	var query url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query()
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	_, err := testClient(server, "").Do(context.Background(), &Request{
		Method: http.MethodGet,
		Path:   "crm/v3/owners",
		Query:  url.Values{"limit": {"100"}, "after": {"abc"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "100", query.Get("limit"))
	assert.Equal(t, "abc", query.Get("after"))
}

func TestHubspotClient_RetriesRateLimitedRequests(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"ok": true}`))
	}))
	defer server.Close()

	resp, err := testClient(server, "").Do(context.Background(), &Request{Method: http.MethodGet, Path: "/crm/v3/owners"})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, `{"ok": true}`, string(resp.Body))
}

func TestHubspotClient_ClientErrorsAreNotRetried(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message": "bad filter"}`))
	}))
	defer server.Close()

	resp, err := testClient(server, "").Do(context.Background(), &Request{Method: http.MethodGet, Path: "/crm/v3/owners"})
	require.Error(t, err)
	assert.Equal(t, 1, calls)

	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusBadRequest, httpErr.StatusCode)
	assert.Equal(t, `{"message": "bad filter"}`, httpErr.Body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHubspotClient_NoBackoffAfterLastAttempt(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewHubspotClient(ClientConfig{
		BaseURL:    server.URL,
		RateLimit:  1000,
		RateBurst:  100,
		MaxRetries: 1,
	})

	started := time.Now()
	_, err := client.Do(context.Background(), &Request{Method: http.MethodGet, Path: "/crm/v3/owners"})
	elapsed := time.Since(started)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "max retries exceeded")
	assert.Equal(t, 2, calls)
	// one 500ms backoff between the two attempts, none after the last one (1s)
	assert.Less(t, elapsed, 1200*time.Millisecond)
}
