package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/smilior/kakeibo/internal/core"
)

// --- rules ---

func (r *Repository) CreateRule(ctx context.Context, rule core.Rule) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO rules (id, household_id, category_id, monthly_limit, is_active)
		VALUES (?, ?, ?, ?, ?)`,
		rule.ID.String(), rule.HouseholdID.String(), rule.CategoryID.String(),
		rule.MonthlyLimit, boolToInt(rule.IsActive))
	if err != nil {
		return fmt.Errorf("create rule: %w", err)
	}
	return nil
}

func (r *Repository) UpdateRule(ctx context.Context, rule core.Rule) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE rules SET category_id = ?, monthly_limit = ?, is_active = ?
		WHERE id = ? AND household_id = ?`,
		rule.CategoryID.String(), rule.MonthlyLimit, boolToInt(rule.IsActive),
		rule.ID.String(), rule.HouseholdID.String())
	if err != nil {
		return fmt.Errorf("update rule: %w", err)
	}
	return requireRow(res, "update rule")
}

func (r *Repository) DeleteRule(ctx context.Context, householdID, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM rules WHERE id = ? AND household_id = ?`,
		id.String(), householdID.String())
	if err != nil {
		return fmt.Errorf("delete rule: %w", err)
	}
	return requireRow(res, "delete rule")
}

func (r *Repository) ListActiveRules(ctx context.Context, householdID uuid.UUID) ([]core.RuleDetail, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT r.id, r.household_id, r.category_id, r.monthly_limit, r.is_active,
			COALESCE(c.name, ''), COALESCE(c.icon, '')
		FROM rules r
		LEFT JOIN categories c ON c.id = r.category_id
		WHERE r.household_id = ? AND r.is_active = 1
		ORDER BY c.sort_order`, householdID.String())
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	defer rows.Close()

	var out []core.RuleDetail
	for rows.Next() {
		var d core.RuleDetail
		var idStr, hhStr, catStr string
		var active int
		if err := rows.Scan(&idStr, &hhStr, &catStr, &d.MonthlyLimit, &active,
			&d.CategoryName, &d.CategoryIcon); err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		d.ID = parseUUID(idStr)
		d.HouseholdID = parseUUID(hhStr)
		d.CategoryID = parseUUID(catStr)
		d.IsActive = active != 0
		out = append(out, d)
	}
	return out, rows.Err()
}

// --- trackers ---

func (r *Repository) CreateTracker(ctx context.Context, t core.Tracker) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO expense_trackers (id, household_id, category_id, sort_order, is_active)
		VALUES (?, ?, ?, ?, ?)`,
		t.ID.String(), t.HouseholdID.String(), t.CategoryID.String(),
		t.SortOrder, boolToInt(t.IsActive))
	if err != nil {
		return fmt.Errorf("create tracker: %w", err)
	}
	return nil
}

func (r *Repository) DeleteTracker(ctx context.Context, householdID, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM expense_trackers WHERE id = ? AND household_id = ?`,
		id.String(), householdID.String())
	if err != nil {
		return fmt.Errorf("delete tracker: %w", err)
	}
	return requireRow(res, "delete tracker")
}

func (r *Repository) ListActiveTrackers(ctx context.Context, householdID uuid.UUID) ([]core.TrackerDetail, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT t.id, t.household_id, t.category_id, t.sort_order, t.is_active,
			COALESCE(c.name, ''), COALESCE(c.icon, '')
		FROM expense_trackers t
		LEFT JOIN categories c ON c.id = t.category_id
		WHERE t.household_id = ? AND t.is_active = 1
		ORDER BY t.sort_order`, householdID.String())
	if err != nil {
		return nil, fmt.Errorf("list trackers: %w", err)
	}
	defer rows.Close()

	var out []core.TrackerDetail
	for rows.Next() {
		var d core.TrackerDetail
		var idStr, hhStr, catStr string
		var active int
		if err := rows.Scan(&idStr, &hhStr, &catStr, &d.SortOrder, &active,
			&d.CategoryName, &d.CategoryIcon); err != nil {
			return nil, fmt.Errorf("scan tracker: %w", err)
		}
		d.ID = parseUUID(idStr)
		d.HouseholdID = parseUUID(hhStr)
		d.CategoryID = parseUUID(catStr)
		d.IsActive = active != 0
		out = append(out, d)
	}
	return out, rows.Err()
}

// --- subscriptions ---

func (r *Repository) CreateSubscription(ctx context.Context, s core.Subscription) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO subscriptions (id, household_id, category_id, name,
			monthly_amount, contract_date, renewal_date, memo, is_active, cancelled_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID.String(), s.HouseholdID.String(), s.CategoryID.String(), s.Name,
		s.MonthlyAmount, fmtDateOrEmpty(s.ContractDate), fmtDateOrEmpty(s.RenewalDate),
		s.Memo, boolToInt(s.IsActive), fmtDateOrEmpty(s.CancelledAt))
	if err != nil {
		return fmt.Errorf("create subscription: %w", err)
	}
	return nil
}

// CancelSubscription records the cancellation date and deactivates the row.
func (r *Repository) CancelSubscription(ctx context.Context, householdID, id uuid.UUID, cancelledAt time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE subscriptions SET is_active = 0, cancelled_at = ?
		WHERE id = ? AND household_id = ?`,
		fmtDate(cancelledAt), id.String(), householdID.String())
	if err != nil {
		return fmt.Errorf("cancel subscription: %w", err)
	}
	return requireRow(res, "cancel subscription")
}

func (r *Repository) ListActiveSubscriptions(ctx context.Context, householdID uuid.UUID) ([]core.Subscription, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, household_id, category_id, name, monthly_amount,
			contract_date, renewal_date, memo, is_active, cancelled_at
		FROM subscriptions WHERE household_id = ? AND is_active = 1
		ORDER BY name`, householdID.String())
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	defer rows.Close()

	var out []core.Subscription
	for rows.Next() {
		var s core.Subscription
		var idStr, hhStr, catStr, contract, renewal, cancelled string
		var active int
		if err := rows.Scan(&idStr, &hhStr, &catStr, &s.Name, &s.MonthlyAmount,
			&contract, &renewal, &s.Memo, &active, &cancelled); err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		s.ID = parseUUID(idStr)
		s.HouseholdID = parseUUID(hhStr)
		s.CategoryID = parseUUID(catStr)
		s.ContractDate = parseDate(contract)
		s.RenewalDate = parseDate(renewal)
		s.CancelledAt = parseDate(cancelled)
		s.IsActive = active != 0
		out = append(out, s)
	}
	return out, rows.Err()
}
