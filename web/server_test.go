package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veridict/caselaw/core"
	"github.com/veridict/caselaw/search"
	"github.com/veridict/caselaw/storage"
)

type stubSearchService struct {
	searchFunc  func(ctx context.Context, req search.Request) (*core.SearchResponse, error)
	lastRequest search.Request
}

func (s *stubSearchService) SearchRequest(ctx context.Context, req search.Request) (*core.SearchResponse, error) {
	s.lastRequest = req
	if s.searchFunc != nil {
		return s.searchFunc(ctx, req)
	}
	return &core.SearchResponse{Results: []*core.SearchResult{}}, nil
}

type stubCaseReader struct {
	cases map[core.CaseID]*core.Case
}

func (s *stubCaseReader) GetCase(ctx context.Context, id core.CaseID) (*core.Case, error) {
	if c, ok := s.cases[id]; ok {
		return c, nil
	}
	return nil, storage.ErrNotFound
}

func setupTestServer(t *testing.T, search SearchService, cases CaseReader) *Server {
	srv, err := NewServer(search, cases)
	require.NoError(t, err)
	return srv
}

func doRequest(srv *Server, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echoContentType, echoJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

const (
	echoContentType = "Content-Type"
	echoJSON        = "application/json"
)

func TestNewServer(t *testing.T) {
	svc := &stubSearchService{}
	cases := &stubCaseReader{}

	t.Run("valid", func(t *testing.T) {
		srv, err := NewServer(svc, cases)
		require.NoError(t, err)
		assert.NotNil(t, srv)
	})

	t.Run("nil search service", func(t *testing.T) {
		_, err := NewServer(nil, cases)
		assert.ErrorIs(t, err, ErrSearchServiceRequired)
	})

	t.Run("nil case reader", func(t *testing.T) {
		_, err := NewServer(svc, nil)
		assert.ErrorIs(t, err, ErrCaseReaderRequired)
	})
}

func TestHealth(t *testing.T) {
	srv := setupTestServer(t, &stubSearchService{}, &stubCaseReader{})

	rec := doRequest(srv, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestSearchEndpoint(t *testing.T) {
	svc := &stubSearchService{
		searchFunc: func(ctx context.Context, req search.Request) (*core.SearchResponse, error) {
			return &core.SearchResponse{
				Results: []*core.SearchResult{
					{
						CaseID: "case-001",
						Case: &core.Case{
							ID:           "case-001",
							Name:         "State v. Harmon",
							Citation:     "100 F.3d 1",
							DecisionDate: time.Date(2019, 4, 12, 0, 0, 0, 0, time.UTC),
						},
						Score:            0.91,
						Stage:            core.StagePrecise,
						HoldingDirection: core.DirectionForDefendant,
						CitingCases: []core.CitingCase{
							{CaseID: "case-002", Name: "Miller v. City of Fairview", Citation: "200 F.3d 2", Context: "relying on Harmon"},
						},
					},
				},
				Count:   1,
				Partial: true,
			}, nil
		},
	}
	srv := setupTestServer(t, svc, &stubCaseReader{})

	rec := doRequest(srv, http.MethodPost, "/api/search", `{"query": "warrantless arrest with probable cause", "limit": 5}`)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "warrantless arrest with probable cause", svc.lastRequest.Query)
	assert.Equal(t, 5, svc.lastRequest.Limit)
	assert.Equal(t, core.PolarityNone, svc.lastRequest.Polarity)

	var resp searchResponseDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
	assert.True(t, resp.Partial)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "case-001", resp.Results[0].CaseID)
	assert.Equal(t, "precise", resp.Results[0].Stage)
	assert.Equal(t, "for_defendant", resp.Results[0].HoldingDirection)
	assert.Equal(t, "2019-04-12", resp.Results[0].DecisionDate)
	require.Len(t, resp.Results[0].CitingCases, 1)
	assert.Equal(t, "case-002", resp.Results[0].CitingCases[0].CaseID)
}

func TestSearchEndpointDefaultLimit(t *testing.T) {
	svc := &stubSearchService{}
	srv := setupTestServer(t, svc, &stubCaseReader{})

	rec := doRequest(srv, http.MethodPost, "/api/search", `{"query": "negligence"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, search.DefaultLimit, svc.lastRequest.Limit)
}

func TestSearchEndpointFilterDirection(t *testing.T) {
	svc := &stubSearchService{}
	srv := setupTestServer(t, svc, &stubCaseReader{})

	rec := doRequest(srv, http.MethodPost, "/api/search",
		`{"query": "cases for the defendant", "filter_direction": "for_defendant"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, core.PolarityForDefendant, svc.lastRequest.Polarity)

	t.Run("unknown direction rejected", func(t *testing.T) {
		rec := doRequest(srv, http.MethodPost, "/api/search",
			`{"query": "negligence", "filter_direction": "sideways"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestSearchEndpointValidation(t *testing.T) {
	srv := setupTestServer(t, &stubSearchService{}, &stubCaseReader{})

	t.Run("empty query", func(t *testing.T) {
		rec := doRequest(srv, http.MethodPost, "/api/search", `{"query": "   "}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		rec := doRequest(srv, http.MethodPost, "/api/search", `{not json`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestSearchEndpointFailure(t *testing.T) {
	svc := &stubSearchService{
		searchFunc: func(ctx context.Context, req search.Request) (*core.SearchResponse, error) {
			return nil, errors.New("backend down")
		},
	}
	srv := setupTestServer(t, svc, &stubCaseReader{})

	rec := doRequest(srv, http.MethodPost, "/api/search", `{"query": "negligence"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestGetCaseEndpoint(t *testing.T) {
	cases := &stubCaseReader{
		cases: map[core.CaseID]*core.Case{
			"case-001": {
				ID:       "case-001",
				Name:     "State v. Harmon",
				Citation: "100 F.3d 1",
				Status:   core.StatusAnalyzed,
			},
		},
	}
	srv := setupTestServer(t, &stubSearchService{}, cases)

	t.Run("found", func(t *testing.T) {
		rec := doRequest(srv, http.MethodGet, "/api/case/case-001", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var dto caseDTO
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
		assert.Equal(t, "case-001", dto.CaseID)
		assert.Equal(t, "State v. Harmon", dto.Name)
		assert.True(t, dto.Analyzed)
	})

	t.Run("not found", func(t *testing.T) {
		rec := doRequest(srv, http.MethodGet, "/api/case/case-999", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
