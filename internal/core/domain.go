package core

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	RoleOwner  UserRole = "owner"
	RoleMember UserRole = "member"
)

type (
	UserRole string

	// Household is the top-level tenant. ResetDay anchors the billing cycle;
	// SkipHolidays shifts a cycle start off weekends and public holidays.
	Household struct {
		ID                  uuid.UUID
		Name                string
		ResetDay            int
		SkipHolidays        bool
		LineNotifyToken     string
		HighAmountThreshold int64
		AIModel             string
		AISystemPrompt      string
		CreatedAt           time.Time
	}

	User struct {
		ID          uuid.UUID
		HouseholdID uuid.UUID
		Email       string
		Name        string
		Nickname    string
		Role        UserRole
		CreatedAt   time.Time
	}

	// FamilyMember is a non-account attribution target (e.g. a child).
	FamilyMember struct {
		ID          uuid.UUID
		HouseholdID uuid.UUID
		Name        string
		SortOrder   int
		IsActive    bool
		CreatedAt   time.Time
	}

	Category struct {
		ID          uuid.UUID
		HouseholdID uuid.UUID
		Name        string
		Icon        string
		SortOrder   int
		IsActive    bool
	}

	// Expense is one spending event. Amount is in minor currency units
	// (yen). FamilyMemberID, when set, takes precedence over UserID for
	// person-based aggregation.
	Expense struct {
		ID             uuid.UUID
		HouseholdID    uuid.UUID
		UserID         uuid.UUID
		FamilyMemberID uuid.UUID
		CategoryID     uuid.UUID
		Amount         int64
		Date           time.Time
		Memo           string
		CreatedAt      time.Time
	}

	// Rule caps how many expenses a category may receive per billing
	// period, counted jointly across the whole household.
	Rule struct {
		ID           uuid.UUID
		HouseholdID  uuid.UUID
		CategoryID   uuid.UUID
		MonthlyLimit int
		IsActive     bool
	}

	// Tracker pins a category for continuous period-over-period monitoring.
	Tracker struct {
		ID          uuid.UUID
		HouseholdID uuid.UUID
		CategoryID  uuid.UUID
		SortOrder   int
		IsActive    bool
	}

	Subscription struct {
		ID            uuid.UUID
		HouseholdID   uuid.UUID
		CategoryID    uuid.UUID
		Name          string
		MonthlyAmount int64
		ContractDate  time.Time
		RenewalDate   time.Time
		Memo          string
		IsActive      bool
		CancelledAt   time.Time
	}

	// Preset is a reusable bundle of expense lines (e.g. a weekly grocery
	// run) registered in one action.
	Preset struct {
		ID          uuid.UUID
		HouseholdID uuid.UUID
		Name        string
		SortOrder   int
		IsActive    bool
		CreatedAt   time.Time
	}

	// PresetItem is one line of a preset. Amount is the default and may be
	// overridden at registration time.
	PresetItem struct {
		ID             uuid.UUID
		PresetID       uuid.UUID
		CategoryID     uuid.UUID
		FamilyMemberID uuid.UUID
		Amount         int64
		Memo           string
		SortOrder      int
	}

	// Narrative is a cached AI-generated text keyed by household, period
	// type and period start. The storage layer enforces uniqueness on that
	// triple.
	Narrative struct {
		ID          uuid.UUID
		HouseholdID uuid.UUID
		PeriodType  string
		PeriodStart time.Time
		PeriodEnd   time.Time
		Text        string
		Prompt      string
		CreatedAt   time.Time
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidResetDay  = errors.New("reset day must be between 1 and 28")
	ErrMissingCategory  = errors.New("missing category")
	ErrMissingHousehold = errors.New("missing household")
	ErrMissingOwner     = errors.New("expense needs a user or family member")
	ErrInvalidLimit     = errors.New("monthly limit must be positive")
	ErrMissingPreset    = errors.New("missing preset")
	ErrEmptyPreset      = errors.New("preset has no registrable items")
	ErrEmptyName        = errors.New("empty name")
)

func (h Household) Validate() error {
	if strings.TrimSpace(h.Name) == "" {
		return ErrEmptyName
	}
	if h.ResetDay < 1 || h.ResetDay > 28 {
		return ErrInvalidResetDay
	}
	return nil
}

func (e Expense) Validate() error {
	if e.HouseholdID == uuid.Nil {
		return ErrMissingHousehold
	}
	if e.CategoryID == uuid.Nil {
		return ErrMissingCategory
	}
	if e.Amount <= 0 {
		return ErrInvalidAmount
	}
	if e.Date.IsZero() {
		return ErrInvalidDate
	}
	if e.UserID == uuid.Nil && e.FamilyMemberID == uuid.Nil {
		return ErrMissingOwner
	}
	if len(e.Memo) > 500 {
		return errors.New("memo too long (max 500 characters)")
	}
	return nil
}

func (r Rule) Validate() error {
	if r.HouseholdID == uuid.Nil {
		return ErrMissingHousehold
	}
	if r.CategoryID == uuid.Nil {
		return ErrMissingCategory
	}
	if r.MonthlyLimit < 1 {
		return ErrInvalidLimit
	}
	return nil
}

func (p Preset) Validate() error {
	if p.HouseholdID == uuid.Nil {
		return ErrMissingHousehold
	}
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

func (i PresetItem) Validate() error {
	if i.PresetID == uuid.Nil {
		return ErrMissingPreset
	}
	if i.CategoryID == uuid.Nil {
		return ErrMissingCategory
	}
	if i.Amount <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (s Subscription) Validate() error {
	if s.HouseholdID == uuid.Nil {
		return ErrMissingHousehold
	}
	if s.CategoryID == uuid.Nil {
		return ErrMissingCategory
	}
	if strings.TrimSpace(s.Name) == "" {
		return ErrEmptyName
	}
	if s.MonthlyAmount <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// DisplayName resolves the label for a user: nickname first, name as
// fallback, mirroring how expenses are attributed in notifications.
func (u User) DisplayName() string {
	if strings.TrimSpace(u.Nickname) != "" {
		return u.Nickname
	}
	return u.Name
}
