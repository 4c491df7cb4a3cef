package web

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/veridict/caselaw/core"
	"github.com/veridict/caselaw/search"
	"github.com/veridict/caselaw/storage"
)

type searchRequest struct {
	Query           string `json:"query"`
	FilterDirection string `json:"filter_direction"`
	Limit           int    `json:"limit"`
}

// filterPolarity maps a request's optional filter_direction to the polarity
// override passed to the searcher. An empty field leaves the query-derived
// polarity in effect.
func filterPolarity(filter string) (core.Polarity, bool) {
	switch p := core.Polarity(filter); p {
	case "":
		return core.PolarityNone, true
	case core.PolarityForDefendant, core.PolarityPlaintiff, core.PolarityNeutral, core.PolarityNone:
		return p, true
	default:
		return core.PolarityNone, false
	}
}

type citingCaseDTO struct {
	CaseID   string `json:"case_id"`
	Name     string `json:"name"`
	Citation string `json:"citation"`
	Context  string `json:"context,omitempty"`
}

type searchResultDTO struct {
	CaseID           string          `json:"case_id"`
	Name             string          `json:"name"`
	Citation         string          `json:"citation"`
	CourtName        string          `json:"court_name,omitempty"`
	DecisionDate     string          `json:"decision_date,omitempty"`
	Score            float32         `json:"score"`
	Stage            string          `json:"stage"`
	HoldingDirection string          `json:"holding_direction,omitempty"`
	CitingCases      []citingCaseDTO `json:"citing_cases,omitempty"`
}

type searchResponseDTO struct {
	Results []searchResultDTO `json:"results"`
	Count   int               `json:"count"`
	Partial bool              `json:"partial"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleSearch(c echo.Context) error {
	req := new(searchRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}

	if strings.TrimSpace(req.Query) == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "query is required"})
	}
	polarity, ok := filterPolarity(req.FilterDirection)
	if !ok {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "unknown filter_direction"})
	}
	if req.Limit <= 0 {
		req.Limit = search.DefaultLimit
	}

	resp, err := s.search.SearchRequest(c.Request().Context(), search.Request{
		Query:    req.Query,
		Polarity: polarity,
		Limit:    req.Limit,
	})
	if err != nil {
		s.logger.Error("search failed", "err", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "search failed"})
	}

	return c.JSON(http.StatusOK, toSearchResponseDTO(resp))
}

func (s *Server) handleGetCase(c echo.Context) error {
	id := core.CaseID(c.Param("id"))

	cs, err := s.cases.GetCase(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return c.JSON(http.StatusNotFound, errorResponse{Error: "case not found"})
		}
		s.logger.Error("case lookup failed", "caseID", id, "err", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "case lookup failed"})
	}
	if cs == nil {
		return c.JSON(http.StatusNotFound, errorResponse{Error: "case not found"})
	}

	return c.JSON(http.StatusOK, toCaseDTO(cs))
}

type caseDTO struct {
	CaseID       string `json:"case_id"`
	Name         string `json:"name"`
	Citation     string `json:"citation"`
	CourtName    string `json:"court_name,omitempty"`
	DecisionDate string `json:"decision_date,omitempty"`
	OpinionText  string `json:"opinion_text,omitempty"`
	Analyzed     bool   `json:"analyzed"`
}

func toCaseDTO(c *core.Case) caseDTO {
	return caseDTO{
		CaseID:       string(c.ID),
		Name:         c.Name,
		Citation:     c.Citation,
		CourtName:    c.CourtName,
		DecisionDate: formatDate(c.DecisionDate),
		OpinionText:  c.OpinionText,
		Analyzed:     c.Status == core.StatusAnalyzed,
	}
}

func toSearchResponseDTO(resp *core.SearchResponse) searchResponseDTO {
	out := searchResponseDTO{
		Results: make([]searchResultDTO, 0, len(resp.Results)),
		Count:   resp.Count,
		Partial: resp.Partial,
	}

	for _, r := range resp.Results {
		dto := searchResultDTO{
			CaseID:           string(r.CaseID),
			Score:            r.Score,
			Stage:            string(r.Stage),
			HoldingDirection: string(r.HoldingDirection),
		}
		if r.Case != nil {
			dto.Name = r.Case.Name
			dto.Citation = r.Case.Citation
			dto.CourtName = r.Case.CourtName
			dto.DecisionDate = formatDate(r.Case.DecisionDate)
		}
		for _, cc := range r.CitingCases {
			dto.CitingCases = append(dto.CitingCases, citingCaseDTO{
				CaseID:   string(cc.CaseID),
				Name:     cc.Name,
				Citation: cc.Citation,
				Context:  cc.Context,
			})
		}
		out.Results = append(out.Results, dto)
	}

	return out
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
