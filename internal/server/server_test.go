package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bv-juan-bedoya/search-agent-tool/internal/agent"
	"github.com/bv-juan-bedoya/search-agent-tool/internal/config"
	"github.com/bv-juan-bedoya/search-agent-tool/internal/search"
)

func fixedNow() time.Time {
	// Thursday, May 15, 2025
	return time.Date(2025, 5, 15, 10, 30, 0, 0, time.UTC)
}

type stubSearcher struct {
	gotQuery  string
	gotFilter string
	answer    search.Answer
	err       error
}

func (s *stubSearcher) Ask(_ context.Context, query, filterExpr string) (search.Answer, error) {
	s.gotQuery = query
	s.gotFilter = filterExpr
	return s.answer, s.err
}

func newTestServer(searcher Searcher, defaultLastMonth bool) *Server {
	s := New(config.Server{ListenAddress: ":0"}, agent.Local{Now: fixedNow}, searcher, "", defaultLastMonth)
	s.now = fixedNow
	return s
}

func doGet(t *testing.T, s *Server, target string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))

	var body map[string]any
	if rec.Body.Len() > 0 && rec.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func TestResolveEndpoint(t *testing.T) {
	s := newTestServer(nil, false)

	rec, body := doGet(t, s, "/api/resolve?q=la%20semana%20pasada")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "la semana pasada", body["query"])
	assert.Equal(t, map[string]any{"start": "2025-05-05", "end": "2025-05-11"}, body["parsed_dates"])
	assert.Equal(t,
		"(metadata_spo_item_release_date ge 2025-05-05T00:00:00Z and metadata_spo_item_release_date le 2025-05-11T23:59:59Z)",
		body["filter"])
}

func TestResolveEndpointSingleDateShape(t *testing.T) {
	s := newTestServer(nil, false)

	rec, body := doGet(t, s, "/api/resolve?q=el%2029%20de%20abril")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"date": "2025-04-29"}, body["parsed_dates"])
}

func TestResolveEndpointMissingQuery(t *testing.T) {
	s := newTestServer(nil, false)

	rec, body := doGet(t, s, "/api/resolve")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body["error"], "missing 'q'")
}

func TestResolveEndpointNoDate(t *testing.T) {
	s := newTestServer(nil, false)

	rec, body := doGet(t, s, "/api/resolve?q=sin%20fecha%20alguna")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "no valid date found in query", body["error"])
}

func TestResolveEndpointDefaultLastMonth(t *testing.T) {
	s := newTestServer(nil, true)

	rec, body := doGet(t, s, "/api/resolve?q=sin%20fecha%20alguna")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"start": "2025-04-01", "end": "2025-04-30"}, body["parsed_dates"])
}

func TestSearchEndpoint(t *testing.T) {
	searcher := &stubSearcher{answer: search.Answer{Text: "La producción fue 1200 BOE."}}
	s := newTestServer(searcher, false)

	rec, body := doGet(t, s, "/api/search?q=producci%C3%B3n%20el%2029%20de%20abril")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "La producción fue 1200 BOE.", body["answer"])
	assert.Equal(t, "producción el 29 de abril", searcher.gotQuery)
	assert.Equal(t, "metadata_spo_item_release_date eq 2025-04-29T00:00:00Z", searcher.gotFilter)
}

func TestSearchEndpointBackendFailure(t *testing.T) {
	searcher := &stubSearcher{err: errors.New("backend down")}
	s := newTestServer(searcher, false)

	rec, body := doGet(t, s, "/api/search?q=ayer")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "search backend failed", body["error"])
}

func TestSearchEndpointWithoutBackend(t *testing.T) {
	s := newTestServer(nil, false)

	rec, _ := doGet(t, s, "/api/search?q=ayer")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSearchEndpointUnescapesQuery(t *testing.T) {
	searcher := &stubSearcher{}
	s := newTestServer(searcher, false)

	// HTML entities in the query are unescaped before resolution.
	rec, _ := doGet(t, s, "/api/search?q=producci%C3%B3n%20%26quot%3Bayer%26quot%3B")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, searcher.gotQuery, `"ayer"`)
}

func TestHealthz(t *testing.T) {
	s := newTestServer(nil, false)

	rec, _ := doGet(t, s, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsExposed(t *testing.T) {
	s := newTestServer(nil, false)

	_, _ = doGet(t, s, "/api/resolve?q=ayer")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "searchdate_requests_total")
	assert.Contains(t, rec.Body.String(), "searchdate_resolve_total")
}
