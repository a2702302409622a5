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

// GetNarrative looks up the cached analysis for one period. Misses return
// ErrNotFound.
func (r *Repository) GetNarrative(ctx context.Context, householdID uuid.UUID, periodType string, periodStart time.Time) (core.Narrative, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, household_id, period_type, period_start, period_end,
			analysis, prompt, created_at
		FROM period_analyses
		WHERE household_id = ? AND period_type = ? AND period_start = ?`,
		householdID.String(), periodType, fmtDate(periodStart))

	n, err := scanNarrative(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Narrative{}, ErrNotFound
	}
	if err != nil {
		return core.Narrative{}, fmt.Errorf("get narrative: %w", err)
	}
	return n, nil
}

// InsertNarrative writes a freshly generated analysis. The unique index on
// (household_id, period_type, period_start) arbitrates concurrent writers:
// the loser gets ErrDuplicateNarrative and should re-read the winner's row.
func (r *Repository) InsertNarrative(ctx context.Context, n core.Narrative) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO period_analyses (id, household_id, period_type, period_start,
			period_end, analysis, prompt, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID.String(), n.HouseholdID.String(), n.PeriodType, fmtDate(n.PeriodStart),
		fmtDate(n.PeriodEnd), n.Text, n.Prompt, fmtTime(n.CreatedAt))
	if isUniqueViolation(err) {
		return ErrDuplicateNarrative
	}
	if err != nil {
		return fmt.Errorf("insert narrative: %w", err)
	}
	return nil
}

// ReplaceNarrative discards any cached analysis for the period and writes
// the new one in a single transaction (the force-regenerate path).
func (r *Repository) ReplaceNarrative(ctx context.Context, n core.Narrative) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace narrative: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		DELETE FROM period_analyses
		WHERE household_id = ? AND period_type = ? AND period_start = ?`,
		n.HouseholdID.String(), n.PeriodType, fmtDate(n.PeriodStart))
	if err != nil {
		return fmt.Errorf("replace narrative delete: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO period_analyses (id, household_id, period_type, period_start,
			period_end, analysis, prompt, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID.String(), n.HouseholdID.String(), n.PeriodType, fmtDate(n.PeriodStart),
		fmtDate(n.PeriodEnd), n.Text, n.Prompt, fmtTime(n.CreatedAt))
	if err != nil {
		return fmt.Errorf("replace narrative insert: %w", err)
	}

	return tx.Commit()
}

// DeleteNarrativesCovering drops every cached analysis whose period
// contains the given date. Used when an expense mutation invalidates
// already-generated texts.
func (r *Repository) DeleteNarrativesCovering(ctx context.Context, householdID uuid.UUID, date time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM period_analyses
		WHERE household_id = ? AND period_start <= ? AND period_end >= ?`,
		householdID.String(), fmtDate(date), fmtDate(date))
	if err != nil {
		return 0, fmt.Errorf("delete narratives: %w", err)
	}
	return res.RowsAffected()
}

func scanNarrative(row rowScanner) (core.Narrative, error) {
	var n core.Narrative
	var idStr, hhStr, startStr, endStr, createdAt string
	err := row.Scan(&idStr, &hhStr, &n.PeriodType, &startStr, &endStr,
		&n.Text, &n.Prompt, &createdAt)
	if err != nil {
		return core.Narrative{}, err
	}
	n.ID = parseUUID(idStr)
	n.HouseholdID = parseUUID(hhStr)
	n.PeriodStart = parseDate(startStr)
	n.PeriodEnd = parseDate(endStr)
	n.CreatedAt = parseTime(createdAt)
	return n, nil
}
