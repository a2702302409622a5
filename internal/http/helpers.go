package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/smilior/kakeibo/internal/core"
	"github.com/smilior/kakeibo/internal/period"
	"github.com/smilior/kakeibo/internal/storage"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeStoreError maps repository and validation failures to status codes.
func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidDate),
		errors.Is(err, core.ErrInvalidResetDay),
		errors.Is(err, core.ErrMissingCategory),
		errors.Is(err, core.ErrMissingHousehold),
		errors.Is(err, core.ErrMissingOwner),
		errors.Is(err, core.ErrInvalidLimit),
		errors.Is(err, core.ErrEmptyName),
		errors.Is(err, core.ErrMissingPreset),
		errors.Is(err, core.ErrEmptyPreset),
		errors.Is(err, period.ErrResetDayOutOfRange):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// parseHouseholdID reads the household_id query parameter. Request-scoped
// tenancy keeps handlers free of session state.
func parseHouseholdID(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("household_id"))
	if raw == "" {
		return uuid.Nil, fmt.Errorf("household_id is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid household_id")
	}
	return id, nil
}

// parseRefDate reads the date query parameter, defaulting to today.
func parseRefDate(r *http.Request) (time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("date"))
	if raw == "" {
		return period.DateOnly(time.Now()), nil
	}
	d, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date, expected YYYY-MM-DD")
	}
	return d, nil
}

// parseGranularity reads the period query parameter ("month" default).
func parseGranularity(r *http.Request) (period.Granularity, error) {
	switch strings.TrimSpace(r.URL.Query().Get("period")) {
	case "", "month":
		return period.Month, nil
	case "week":
		return period.Week, nil
	default:
		return period.Month, fmt.Errorf("invalid period, expected month or week")
	}
}

func parseYear(r *http.Request) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("year"))
	if raw == "" {
		return time.Now().Year(), nil
	}
	year, err := strconv.Atoi(raw)
	if err != nil || year < 2000 || year > 2200 {
		return 0, fmt.Errorf("invalid year")
	}
	return year, nil
}

// pathID extracts the trailing UUID of a /api/<resource>/<id> path.
func pathID(r *http.Request, prefix string) (uuid.UUID, error) {
	raw := strings.TrimPrefix(r.URL.Path, prefix)
	raw = strings.Trim(raw, "/")
	if raw == "" || strings.Contains(raw, "/") {
		return uuid.Nil, fmt.Errorf("invalid resource path")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid id")
	}
	return id, nil
}

func decodeBody(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
