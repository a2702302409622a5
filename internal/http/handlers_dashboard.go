package http

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/smilior/kakeibo/internal/narrative"
	"github.com/smilior/kakeibo/internal/period"
)

func (s *Server) handleDashboardSummary(w http.ResponseWriter, r *http.Request) {
	householdID, err := parseHouseholdID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	refDate, err := parseRefDate(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	summary, err := s.dashboard.Summary(r.Context(), householdID, refDate)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handlePeriodAnalytics(w http.ResponseWriter, r *http.Request) {
	householdID, err := parseHouseholdID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	refDate, err := parseRefDate(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	granularity, err := parseGranularity(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	comparison, err := s.analytics.Comparison(r.Context(), householdID, granularity, refDate)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, comparison)
}

func (s *Server) handleYearlyOverview(w http.ResponseWriter, r *http.Request) {
	householdID, err := parseHouseholdID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	year, err := parseYear(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	buckets, err := s.analytics.YearlyOverview(r.Context(), householdID, year)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"year": year, "buckets": buckets})
}

type generateNarrativeRequest struct {
	HouseholdID uuid.UUID `json:"household_id"`
	PeriodType  string    `json:"period_type"`
	Date        string    `json:"date"`
	Force       bool      `json:"force"`
}

type narrativeResponse struct {
	State  narrative.State `json:"state"`
	Text   string          `json:"text,omitempty"`
	Cached bool            `json:"cached"`
}

func (s *Server) handleGenerateNarrative(w http.ResponseWriter, r *http.Request) {
	var req generateNarrativeRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.HouseholdID == uuid.Nil {
		writeError(w, http.StatusBadRequest, "household_id is required")
		return
	}

	refDate := period.DateOnly(time.Now())
	if req.Date != "" {
		d, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
			return
		}
		refDate = d
	}

	var result narrative.Result
	var err error
	switch req.PeriodType {
	case "", "month":
		result, err = s.analytics.Narrative(r.Context(), req.HouseholdID, period.Month, refDate, req.Force)
	case "week":
		result, err = s.analytics.Narrative(r.Context(), req.HouseholdID, period.Week, refDate, req.Force)
	case "advice":
		result, err = s.analytics.DailyAdvice(r.Context(), req.HouseholdID, refDate, req.Force)
	case "diary":
		result, err = s.analytics.Diary(r.Context(), req.HouseholdID, refDate, req.Force)
	default:
		writeError(w, http.StatusBadRequest, "invalid period_type, expected month, week, advice or diary")
		return
	}
	if err != nil {
		if result.State == narrative.StateFailed {
			writeJSON(w, http.StatusBadGateway, narrativeResponse{State: result.State})
			return
		}
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, narrativeResponse{
		State:  result.State,
		Text:   result.Text,
		Cached: result.Cached,
	})
}
