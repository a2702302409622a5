package http

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/smilior/kakeibo/internal/core"
	"github.com/smilior/kakeibo/internal/period"
)

// --- household ---

type householdSettingsRequest struct {
	ID                  uuid.UUID `json:"id"`
	Name                string    `json:"name"`
	ResetDay            int       `json:"reset_day"`
	SkipHolidays        bool      `json:"skip_holidays"`
	LineNotifyToken     string    `json:"line_notify_token"`
	HighAmountThreshold int64     `json:"high_amount_threshold"`
	AIModel             string    `json:"ai_model"`
	AISystemPrompt      string    `json:"ai_system_prompt"`
}

func (s *Server) handleHousehold(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		householdID, err := parseHouseholdID(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		household, err := s.repo.GetHousehold(r.Context(), householdID)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		// the token never leaves the server
		household.LineNotifyToken = ""
		writeJSON(w, http.StatusOK, household)
	case http.MethodPut:
		var req householdSettingsRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		current, err := s.repo.GetHousehold(r.Context(), req.ID)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		updated := current
		updated.Name = req.Name
		updated.ResetDay = req.ResetDay
		updated.SkipHolidays = req.SkipHolidays
		updated.HighAmountThreshold = req.HighAmountThreshold
		updated.AIModel = req.AIModel
		updated.AISystemPrompt = req.AISystemPrompt
		if req.LineNotifyToken != "" {
			updated.LineNotifyToken = req.LineNotifyToken
		}
		if err := updated.Validate(); err != nil {
			writeStoreError(w, err)
			return
		}
		if err := s.repo.UpdateHouseholdSettings(r.Context(), updated); err != nil {
			writeStoreError(w, err)
			return
		}
		updated.LineNotifyToken = ""
		writeJSON(w, http.StatusOK, updated)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// --- rules ---

type ruleRequest struct {
	HouseholdID  uuid.UUID `json:"household_id"`
	CategoryID   uuid.UUID `json:"category_id"`
	MonthlyLimit int       `json:"monthly_limit"`
	IsActive     bool      `json:"is_active"`
}

func (s *Server) handleRules(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		householdID, err := parseHouseholdID(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		rules, err := s.repo.ListActiveRules(r.Context(), householdID)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"rules": rules})
	case http.MethodPost:
		var req ruleRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		rule := core.Rule{
			ID:           uuid.New(),
			HouseholdID:  req.HouseholdID,
			CategoryID:   req.CategoryID,
			MonthlyLimit: req.MonthlyLimit,
			IsActive:     true,
		}
		if err := rule.Validate(); err != nil {
			writeStoreError(w, err)
			return
		}
		if err := s.repo.CreateRule(r.Context(), rule); err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, rule)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleRuleByID(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "/api/rules/")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	switch r.Method {
	case http.MethodPut:
		var req ruleRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		rule := core.Rule{
			ID:           id,
			HouseholdID:  req.HouseholdID,
			CategoryID:   req.CategoryID,
			MonthlyLimit: req.MonthlyLimit,
			IsActive:     req.IsActive,
		}
		if err := rule.Validate(); err != nil {
			writeStoreError(w, err)
			return
		}
		if err := s.repo.UpdateRule(r.Context(), rule); err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rule)
	case http.MethodDelete:
		householdID, err := parseHouseholdID(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := s.repo.DeleteRule(r.Context(), householdID, id); err != nil {
			writeStoreError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// --- trackers ---

type trackerRequest struct {
	HouseholdID uuid.UUID `json:"household_id"`
	CategoryID  uuid.UUID `json:"category_id"`
	SortOrder   int       `json:"sort_order"`
}

func (s *Server) handleTrackers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		householdID, err := parseHouseholdID(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		trackers, err := s.repo.ListActiveTrackers(r.Context(), householdID)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"trackers": trackers})
	case http.MethodPost:
		var req trackerRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if req.HouseholdID == uuid.Nil || req.CategoryID == uuid.Nil {
			writeError(w, http.StatusBadRequest, "household_id and category_id are required")
			return
		}
		tr := core.Tracker{
			ID:          uuid.New(),
			HouseholdID: req.HouseholdID,
			CategoryID:  req.CategoryID,
			SortOrder:   req.SortOrder,
			IsActive:    true,
		}
		if err := s.repo.CreateTracker(r.Context(), tr); err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, tr)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleTrackerByID(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "/api/trackers/")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if r.Method != http.MethodDelete {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	householdID, err := parseHouseholdID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.repo.DeleteTracker(r.Context(), householdID, id); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- subscriptions ---

type subscriptionRequest struct {
	HouseholdID   uuid.UUID `json:"household_id"`
	CategoryID    uuid.UUID `json:"category_id"`
	Name          string    `json:"name"`
	MonthlyAmount int64     `json:"monthly_amount"`
	ContractDate  string    `json:"contract_date"`
	RenewalDate   string    `json:"renewal_date"`
	Memo          string    `json:"memo"`
}

func (s *Server) handleSubscriptions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		householdID, err := parseHouseholdID(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		subs, err := s.repo.ListActiveSubscriptions(r.Context(), householdID)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"subscriptions": subs})
	case http.MethodPost:
		var req subscriptionRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		sub := core.Subscription{
			ID:            uuid.New(),
			HouseholdID:   req.HouseholdID,
			CategoryID:    req.CategoryID,
			Name:          req.Name,
			MonthlyAmount: req.MonthlyAmount,
			Memo:          req.Memo,
			IsActive:      true,
		}
		if req.ContractDate != "" {
			d, err := time.Parse("2006-01-02", req.ContractDate)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid contract_date")
				return
			}
			sub.ContractDate = d
		}
		if req.RenewalDate != "" {
			d, err := time.Parse("2006-01-02", req.RenewalDate)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid renewal_date")
				return
			}
			sub.RenewalDate = d
		}
		if err := sub.Validate(); err != nil {
			writeStoreError(w, err)
			return
		}
		if err := s.repo.CreateSubscription(r.Context(), sub); err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, sub)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleSubscriptionByID(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "/api/subscriptions/")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if r.Method != http.MethodDelete {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	householdID, err := parseHouseholdID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	// cancellation keeps the row for history
	if err := s.repo.CancelSubscription(r.Context(), householdID, id, period.DateOnly(time.Now())); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- family members ---

type familyMemberRequest struct {
	HouseholdID uuid.UUID `json:"household_id"`
	Name        string    `json:"name"`
	SortOrder   int       `json:"sort_order"`
}

func (s *Server) handleFamilyMembers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		householdID, err := parseHouseholdID(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		members, err := s.repo.ListActiveFamilyMembers(r.Context(), householdID)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"family_members": members})
	case http.MethodPost:
		var req familyMemberRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if req.HouseholdID == uuid.Nil {
			writeError(w, http.StatusBadRequest, "household_id is required")
			return
		}
		if req.Name == "" {
			writeError(w, http.StatusBadRequest, core.ErrEmptyName.Error())
			return
		}
		member := core.FamilyMember{
			ID:          uuid.New(),
			HouseholdID: req.HouseholdID,
			Name:        req.Name,
			SortOrder:   req.SortOrder,
			IsActive:    true,
			CreatedAt:   time.Now().UTC(),
		}
		if err := s.repo.CreateFamilyMember(r.Context(), member); err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, member)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleFamilyMemberByID(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "/api/family-members/")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if r.Method != http.MethodDelete {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	// soft delete keeps attribution on past expenses
	if err := s.repo.DeactivateFamilyMember(r.Context(), id); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
