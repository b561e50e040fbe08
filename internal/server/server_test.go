package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/linkfinder/internal/metrics"
	"github.com/cognicore/linkfinder/pkg/linkfinder"
)

type stubResolver struct {
	results map[string]linkfinder.Resolution
	err     error
}

func (s stubResolver) ResolveDetailed(keyword string) (linkfinder.Resolution, error) {
	if keyword == "" {
		return linkfinder.Resolution{}, linkfinder.ErrEmptyKeyword
	}
	if s.err != nil {
		return linkfinder.Resolution{}, s.err
	}
	return s.results[keyword], nil
}

func (s stubResolver) Keywords() []string { return []string{"drugs", "market"} }
func (s stubResolver) Records() int       { return 3 }
func (s stubResolver) RunID() string      { return "01J0000000000000000000000" }

func newTestServer(t *testing.T, r Resolver) (*Server, *metrics.Recorder) {
	t.Helper()
	rec := metrics.New()
	return New(r, rec, nil), rec
}

type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  string          `json:"error"`
}

func get(t *testing.T, s *Server, target string) (int, envelope) {
	t.Helper()
	resp, err := s.App.Test(httptest.NewRequest(http.MethodGet, target, nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func TestResolveSubstring(t *testing.T) {
	s, _ := newTestServer(t, stubResolver{results: map[string]linkfinder.Resolution{
		"market": {Keyword: "market", URLs: []string{"http://a.onion"}, Source: linkfinder.SourceSubstring},
	}})

	code, env := get(t, s, "/api/resolve?q=%20market%20")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", env.Status)

	var data ResolveResponse
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "market", data.Keyword)
	assert.Equal(t, []string{"http://a.onion"}, data.URLs)
	assert.Equal(t, "substring", data.Source)
	assert.Empty(t, data.Predicted)
}

func TestResolvePredicted(t *testing.T) {
	s, _ := newTestServer(t, stubResolver{results: map[string]linkfinder.Resolution{
		"zzz": {Keyword: "zzz", Source: linkfinder.SourcePredicted, Predicted: "retired"},
	}})

	code, env := get(t, s, "/api/resolve?q=zzz")
	assert.Equal(t, http.StatusOK, code)

	var data ResolveResponse
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "retired", data.Predicted)
	assert.NotNil(t, data.URLs)
	assert.Empty(t, data.URLs)
}

func TestResolveBlankKeyword(t *testing.T) {
	s, _ := newTestServer(t, stubResolver{})

	for _, target := range []string{"/api/resolve", "/api/resolve?q=", "/api/resolve?q=%20%20"} {
		code, env := get(t, s, target)
		assert.Equal(t, http.StatusBadRequest, code, target)
		assert.Equal(t, "error", env.Status)
		assert.Equal(t, "please enter a keyword", env.Error)
	}
}

func TestResolveFailureShowsNoResults(t *testing.T) {
	s, _ := newTestServer(t, stubResolver{err: errors.New("boom")})

	code, env := get(t, s, "/api/resolve?q=zzz")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", env.Status)

	var data ResolveResponse
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Empty(t, data.URLs)
}

func TestKeywords(t *testing.T) {
	s, _ := newTestServer(t, stubResolver{})

	code, env := get(t, s, "/api/keywords")
	assert.Equal(t, http.StatusOK, code)

	var kws []string
	require.NoError(t, json.Unmarshal(env.Data, &kws))
	assert.Equal(t, []string{"drugs", "market"}, kws)
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, stubResolver{})

	resp, err := s.App.Test(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	var h HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&h))
	assert.Equal(t, "ok", h.Status)
	assert.Equal(t, "01J0000000000000000000000", h.RunID)
	assert.Equal(t, 3, h.Records)
}

func TestMetricsCountOutcomes(t *testing.T) {
	s, _ := newTestServer(t, stubResolver{results: map[string]linkfinder.Resolution{
		"market": {URLs: []string{"http://a.onion"}, Source: linkfinder.SourceSubstring},
	}})
	get(t, s, "/api/resolve?q=market")
	get(t, s, "/api/resolve?q=")

	resp, err := s.App.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	text := string(body)
	assert.Contains(t, text, `linkfinder_resolutions_total{source="substring"} 1`)
	assert.Contains(t, text, `linkfinder_resolutions_total{source="empty_keyword"} 1`)
	assert.Contains(t, text, `linkfinder_resolutions_total{source="predicted"} 0`)
	assert.Contains(t, text, "linkfinder_dataset_records 3")
	assert.Contains(t, text, "linkfinder_dataset_keywords 2")
}
