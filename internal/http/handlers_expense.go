package http

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/smilior/kakeibo/internal/core"
)

type expenseRequest struct {
	HouseholdID    uuid.UUID `json:"household_id"`
	UserID         uuid.UUID `json:"user_id"`
	FamilyMemberID uuid.UUID `json:"family_member_id"`
	CategoryID     uuid.UUID `json:"category_id"`
	Amount         int64     `json:"amount"`
	Date           string    `json:"date"`
	Memo           string    `json:"memo"`
}

func (req expenseRequest) toExpense() (core.Expense, error) {
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return core.Expense{}, core.ErrInvalidDate
	}
	return core.Expense{
		HouseholdID:    req.HouseholdID,
		UserID:         req.UserID,
		FamilyMemberID: req.FamilyMemberID,
		CategoryID:     req.CategoryID,
		Amount:         req.Amount,
		Date:           date,
		Memo:           req.Memo,
	}, nil
}

func (s *Server) handleExpenses(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listExpenses(w, r)
	case http.MethodPost:
		s.createExpense(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) listExpenses(w http.ResponseWriter, r *http.Request) {
	householdID, err := parseHouseholdID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	from, err := time.Parse("2006-01-02", r.URL.Query().Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "from is required, expected YYYY-MM-DD")
		return
	}
	to, err := time.Parse("2006-01-02", r.URL.Query().Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "to is required, expected YYYY-MM-DD")
		return
	}

	expenses, err := s.repo.ListExpenses(r.Context(), householdID, from, to)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"expenses": expenses})
}

func (s *Server) createExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	expense, err := req.toExpense()
	if err != nil {
		writeStoreError(w, err)
		return
	}

	created, err := s.expenses.Create(r.Context(), expense)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleExpenseByID(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "/api/expenses/")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	switch r.Method {
	case http.MethodGet:
		expense, err := s.repo.GetExpense(r.Context(), id)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, expense)
	case http.MethodPut:
		var req expenseRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		expense, err := req.toExpense()
		if err != nil {
			writeStoreError(w, err)
			return
		}
		expense.ID = id
		if err := s.expenses.Update(r.Context(), expense); err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, expense)
	case http.MethodDelete:
		householdID, err := parseHouseholdID(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := s.expenses.Delete(r.Context(), householdID, id); err != nil {
			writeStoreError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}
