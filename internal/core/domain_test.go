package core

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func validExpense() Expense {
	return Expense{
		ID:          uuid.New(),
		HouseholdID: uuid.New(),
		UserID:      uuid.New(),
		CategoryID:  uuid.New(),
		Amount:      1200,
		Date:        time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
	}
}

func TestExpenseValidate(t *testing.T) {
	if err := validExpense().Validate(); err != nil {
		t.Fatalf("valid expense rejected: %v", err)
	}

	e := validExpense()
	e.Amount = 0
	if err := e.Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("zero amount: got %v, want ErrInvalidAmount", err)
	}

	e = validExpense()
	e.Amount = -300
	if err := e.Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("negative amount: got %v, want ErrInvalidAmount", err)
	}

	e = validExpense()
	e.CategoryID = uuid.Nil
	if err := e.Validate(); !errors.Is(err, ErrMissingCategory) {
		t.Errorf("missing category: got %v, want ErrMissingCategory", err)
	}

	e = validExpense()
	e.UserID = uuid.Nil
	if err := e.Validate(); !errors.Is(err, ErrMissingOwner) {
		t.Errorf("no owner: got %v, want ErrMissingOwner", err)
	}

	// family-member attribution alone is sufficient
	e = validExpense()
	e.UserID = uuid.Nil
	e.FamilyMemberID = uuid.New()
	if err := e.Validate(); err != nil {
		t.Errorf("family-member owned expense rejected: %v", err)
	}
}

func TestHouseholdValidate(t *testing.T) {
	h := Household{Name: "我が家", ResetDay: 25}
	if err := h.Validate(); err != nil {
		t.Fatalf("valid household rejected: %v", err)
	}
	for _, day := range []int{0, -1, 29, 31} {
		h.ResetDay = day
		if err := h.Validate(); !errors.Is(err, ErrInvalidResetDay) {
			t.Errorf("reset day %d: got %v, want ErrInvalidResetDay", day, err)
		}
	}
}

func TestOwnerLabel(t *testing.T) {
	member := uuid.New()
	cases := []struct {
		name string
		e    ExpenseDetail
		want string
	}{
		{"nickname wins", ExpenseDetail{UserName: "Taro Yamada", UserNickname: "たろ"}, "たろ"},
		{"name fallback", ExpenseDetail{UserName: "Taro Yamada"}, "Taro Yamada"},
		{"family member precedence", ExpenseDetail{
			Expense:          Expense{FamilyMemberID: member},
			UserNickname:     "たろ",
			FamilyMemberName: "はなちゃん",
		}, "はなちゃん"},
		{"family fallback", ExpenseDetail{Expense: Expense{FamilyMemberID: member}}, FamilyFallbackLabel},
		{"unknown", ExpenseDetail{}, UnknownOwnerLabel},
	}
	for _, tc := range cases {
		if got := tc.e.OwnerLabel(); got != tc.want {
			t.Errorf("%s: got %q, want %q", tc.name, got, tc.want)
		}
	}
}
