package http

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/smilior/kakeibo/internal/core"
	"github.com/smilior/kakeibo/internal/services"
)

// --- presets ---

type presetRequest struct {
	HouseholdID uuid.UUID `json:"household_id"`
	Name        string    `json:"name"`
	SortOrder   int       `json:"sort_order"`
}

func (s *Server) handlePresets(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		householdID, err := parseHouseholdID(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		presets, err := s.repo.ListActivePresets(r.Context(), householdID)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"presets": presets})
	case http.MethodPost:
		var req presetRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		preset := core.Preset{
			ID:          uuid.New(),
			HouseholdID: req.HouseholdID,
			Name:        req.Name,
			SortOrder:   req.SortOrder,
			IsActive:    true,
			CreatedAt:   time.Now().UTC(),
		}
		if err := preset.Validate(); err != nil {
			writeStoreError(w, err)
			return
		}
		if err := s.repo.CreatePreset(r.Context(), preset); err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, preset)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handlePresetByID(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "/api/presets/")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	switch r.Method {
	case http.MethodPut:
		var req presetRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if req.Name == "" {
			writeError(w, http.StatusBadRequest, core.ErrEmptyName.Error())
			return
		}
		if err := s.repo.RenamePreset(r.Context(), req.HouseholdID, id, req.Name); err != nil {
			writeStoreError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	case http.MethodDelete:
		householdID, err := parseHouseholdID(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		// soft delete: the preset vanishes from the picker, nothing else
		if err := s.repo.DeactivatePreset(r.Context(), householdID, id); err != nil {
			writeStoreError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// --- preset items ---

type presetItemRequest struct {
	HouseholdID    uuid.UUID `json:"household_id"`
	PresetID       uuid.UUID `json:"preset_id"`
	CategoryID     uuid.UUID `json:"category_id"`
	FamilyMemberID uuid.UUID `json:"family_member_id"`
	Amount         int64     `json:"amount"`
	Memo           string    `json:"memo"`
	SortOrder      int       `json:"sort_order"`
}

func (r presetItemRequest) toItem(id uuid.UUID) core.PresetItem {
	return core.PresetItem{
		ID:             id,
		PresetID:       r.PresetID,
		CategoryID:     r.CategoryID,
		FamilyMemberID: r.FamilyMemberID,
		Amount:         r.Amount,
		Memo:           r.Memo,
		SortOrder:      r.SortOrder,
	}
}

func (s *Server) handlePresetItems(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req presetItemRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	item := req.toItem(uuid.New())
	if err := item.Validate(); err != nil {
		writeStoreError(w, err)
		return
	}
	// the preset must exist and belong to the household
	if _, err := s.repo.GetPreset(r.Context(), req.HouseholdID, req.PresetID); err != nil {
		writeStoreError(w, err)
		return
	}
	if err := s.repo.CreatePresetItem(r.Context(), item); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (s *Server) handlePresetItemByID(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "/api/preset-items/")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	switch r.Method {
	case http.MethodPut:
		var req presetItemRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		item := req.toItem(id)
		if err := item.Validate(); err != nil {
			writeStoreError(w, err)
			return
		}
		if err := s.repo.UpdatePresetItem(r.Context(), req.HouseholdID, item); err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, item)
	case http.MethodDelete:
		householdID, err := parseHouseholdID(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := s.repo.DeletePresetItem(r.Context(), householdID, id); err != nil {
			writeStoreError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// --- bulk registration ---

type bulkExpenseRequest struct {
	HouseholdID uuid.UUID            `json:"household_id"`
	UserID      uuid.UUID            `json:"user_id"`
	PresetID    uuid.UUID            `json:"preset_id"`
	Date        string               `json:"date"`
	Amounts     map[uuid.UUID]int64  `json:"amounts"`
}

func (s *Server) handleBulkExpenses(w http.ResponseWriter, r *http.Request) {
	var req bulkExpenseRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.HouseholdID == uuid.Nil || req.PresetID == uuid.Nil {
		writeError(w, http.StatusBadRequest, "household_id and preset_id are required")
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}

	created, err := s.expenses.BulkCreateFromPreset(r.Context(), services.BulkRequest{
		HouseholdID: req.HouseholdID,
		UserID:      req.UserID,
		PresetID:    req.PresetID,
		Date:        date,
		Amounts:     req.Amounts,
	})
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"count":    len(created),
		"expenses": created,
	})
}
