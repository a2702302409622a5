package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/smilior/kakeibo/internal/core"
)

func (r *Repository) CreateExpense(ctx context.Context, e core.Expense) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO expenses (id, household_id, user_id, family_member_id,
			category_id, amount, date, memo, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID.String(), e.HouseholdID.String(), uuidOrEmpty(e.UserID),
		uuidOrEmpty(e.FamilyMemberID), e.CategoryID.String(),
		e.Amount, fmtDate(e.Date), e.Memo, fmtTime(e.CreatedAt))
	if err != nil {
		return fmt.Errorf("create expense: %w", err)
	}
	return nil
}

func (r *Repository) GetExpense(ctx context.Context, id uuid.UUID) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, household_id, user_id, family_member_id, category_id,
			amount, date, memo, created_at
		FROM expenses WHERE id = ?`, id.String())

	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, ErrNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	return e, nil
}

func (r *Repository) UpdateExpense(ctx context.Context, e core.Expense) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE expenses
		SET user_id = ?, family_member_id = ?, category_id = ?,
			amount = ?, date = ?, memo = ?
		WHERE id = ? AND household_id = ?`,
		uuidOrEmpty(e.UserID), uuidOrEmpty(e.FamilyMemberID), e.CategoryID.String(),
		e.Amount, fmtDate(e.Date), e.Memo, e.ID.String(), e.HouseholdID.String())
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	return requireRow(res, "update expense")
}

func (r *Repository) DeleteExpense(ctx context.Context, householdID, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM expenses WHERE id = ? AND household_id = ?`,
		id.String(), householdID.String())
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return requireRow(res, "delete expense")
}

// ListExpenses returns the household's expenses with dates in [from, to]
// inclusive, joined with category and owner names. Categories and members
// are LEFT JOINed so rows survive a deactivated or missing reference.
func (r *Repository) ListExpenses(ctx context.Context, householdID uuid.UUID, from, to time.Time) ([]core.ExpenseDetail, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT e.id, e.household_id, e.user_id, e.family_member_id, e.category_id,
			e.amount, e.date, e.memo, e.created_at,
			COALESCE(c.name, ''), COALESCE(c.icon, ''),
			COALESCE(u.name, ''), COALESCE(u.nickname, ''),
			COALESCE(fm.name, '')
		FROM expenses e
		LEFT JOIN categories c ON c.id = e.category_id
		LEFT JOIN users u ON u.id = e.user_id
		LEFT JOIN family_members fm ON fm.id = e.family_member_id
		WHERE e.household_id = ? AND e.date >= ? AND e.date <= ?
		ORDER BY e.date, e.created_at`,
		householdID.String(), fmtDate(from), fmtDate(to))
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var out []core.ExpenseDetail
	for rows.Next() {
		var d core.ExpenseDetail
		var idStr, hhStr, userStr, fmStr, catStr, dateStr, createdAt string
		if err := rows.Scan(&idStr, &hhStr, &userStr, &fmStr, &catStr,
			&d.Amount, &dateStr, &d.Memo, &createdAt,
			&d.CategoryName, &d.CategoryIcon,
			&d.UserName, &d.UserNickname, &d.FamilyMemberName); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		d.ID = parseUUID(idStr)
		d.HouseholdID = parseUUID(hhStr)
		d.UserID = parseUUID(userStr)
		d.FamilyMemberID = parseUUID(fmStr)
		d.CategoryID = parseUUID(catStr)
		d.Date = parseDate(dateStr)
		d.CreatedAt = parseTime(createdAt)
		out = append(out, d)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (core.Expense, error) {
	var e core.Expense
	var idStr, hhStr, userStr, fmStr, catStr, dateStr, createdAt string
	err := row.Scan(&idStr, &hhStr, &userStr, &fmStr, &catStr,
		&e.Amount, &dateStr, &e.Memo, &createdAt)
	if err != nil {
		return core.Expense{}, err
	}
	e.ID = parseUUID(idStr)
	e.HouseholdID = parseUUID(hhStr)
	e.UserID = parseUUID(userStr)
	e.FamilyMemberID = parseUUID(fmStr)
	e.CategoryID = parseUUID(catStr)
	e.Date = parseDate(dateStr)
	e.CreatedAt = parseTime(createdAt)
	return e, nil
}
