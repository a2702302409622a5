package core

import "github.com/google/uuid"

// Joined read shapes returned by the storage layer. The related names are
// resolved at query time so aggregation never has to chase foreign keys.
type (
	ExpenseDetail struct {
		Expense
		CategoryName     string
		CategoryIcon     string
		UserName         string
		UserNickname     string
		FamilyMemberName string
	}

	RuleDetail struct {
		Rule
		CategoryName string
		CategoryIcon string
	}

	TrackerDetail struct {
		Tracker
		CategoryName string
		CategoryIcon string
	}

	PresetItemDetail struct {
		PresetItem
		CategoryName     string
		CategoryIcon     string
		FamilyMemberName string
	}

	PresetDetail struct {
		Preset
		Items []PresetItemDetail
	}
)

// OwnerLabel resolves the display label for the expense's owner dimension:
// family member name when the expense is attributed to one, otherwise the
// user's nickname (name as fallback).
func (e ExpenseDetail) OwnerLabel() string {
	if e.FamilyMemberID != uuid.Nil {
		if e.FamilyMemberName != "" {
			return e.FamilyMemberName
		}
		return FamilyFallbackLabel
	}
	if e.UserNickname != "" {
		return e.UserNickname
	}
	if e.UserName != "" {
		return e.UserName
	}
	return UnknownOwnerLabel
}
