package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/smilior/kakeibo/internal/core"
)

// --- presets ---

func (r *Repository) CreatePreset(ctx context.Context, p core.Preset) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO expense_presets (id, household_id, name, sort_order, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID.String(), p.HouseholdID.String(), p.Name,
		p.SortOrder, boolToInt(p.IsActive), fmtTime(p.CreatedAt))
	if err != nil {
		return fmt.Errorf("create preset: %w", err)
	}
	return nil
}

func (r *Repository) RenamePreset(ctx context.Context, householdID, id uuid.UUID, name string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE expense_presets SET name = ?
		WHERE id = ? AND household_id = ?`,
		name, id.String(), householdID.String())
	if err != nil {
		return fmt.Errorf("rename preset: %w", err)
	}
	return requireRow(res, "rename preset")
}

// DeactivatePreset soft-deletes; registered expenses keep no reference to
// the preset, so the rows only ever back the picker UI.
func (r *Repository) DeactivatePreset(ctx context.Context, householdID, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE expense_presets SET is_active = 0
		WHERE id = ? AND household_id = ?`,
		id.String(), householdID.String())
	if err != nil {
		return fmt.Errorf("deactivate preset: %w", err)
	}
	return requireRow(res, "deactivate preset")
}

func (r *Repository) CreatePresetItem(ctx context.Context, item core.PresetItem) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO expense_preset_items
			(id, preset_id, category_id, family_member_id, amount, memo, sort_order)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		item.ID.String(), item.PresetID.String(), item.CategoryID.String(),
		uuidOrEmpty(item.FamilyMemberID), item.Amount, item.Memo, item.SortOrder)
	if err != nil {
		return fmt.Errorf("create preset item: %w", err)
	}
	return nil
}

func (r *Repository) UpdatePresetItem(ctx context.Context, householdID uuid.UUID, item core.PresetItem) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE expense_preset_items
		SET category_id = ?, family_member_id = ?, amount = ?, memo = ?, sort_order = ?
		WHERE id = ? AND preset_id IN
			(SELECT id FROM expense_presets WHERE household_id = ?)`,
		item.CategoryID.String(), uuidOrEmpty(item.FamilyMemberID),
		item.Amount, item.Memo, item.SortOrder,
		item.ID.String(), householdID.String())
	if err != nil {
		return fmt.Errorf("update preset item: %w", err)
	}
	return requireRow(res, "update preset item")
}

// DeletePresetItem removes the row outright; items carry no history worth
// keeping once they leave the preset.
func (r *Repository) DeletePresetItem(ctx context.Context, householdID, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM expense_preset_items
		WHERE id = ? AND preset_id IN
			(SELECT id FROM expense_presets WHERE household_id = ?)`,
		id.String(), householdID.String())
	if err != nil {
		return fmt.Errorf("delete preset item: %w", err)
	}
	return requireRow(res, "delete preset item")
}

// GetPreset loads one active preset with its items in sort order.
func (r *Repository) GetPreset(ctx context.Context, householdID, id uuid.UUID) (core.PresetDetail, error) {
	presets, err := r.listPresets(ctx, householdID, id)
	if err != nil {
		return core.PresetDetail{}, err
	}
	if len(presets) == 0 {
		return core.PresetDetail{}, ErrNotFound
	}
	return presets[0], nil
}

// ListActivePresets returns the household's presets with their items,
// both in sort order.
func (r *Repository) ListActivePresets(ctx context.Context, householdID uuid.UUID) ([]core.PresetDetail, error) {
	return r.listPresets(ctx, householdID, uuid.Nil)
}

func (r *Repository) listPresets(ctx context.Context, householdID, only uuid.UUID) ([]core.PresetDetail, error) {
	query := `
		SELECT id, household_id, name, sort_order, is_active, created_at
		FROM expense_presets
		WHERE household_id = ? AND is_active = 1`
	args := []any{householdID.String()}
	if only != uuid.Nil {
		query += ` AND id = ?`
		args = append(args, only.String())
	}
	query += ` ORDER BY sort_order, name`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list presets: %w", err)
	}
	defer rows.Close()

	var out []core.PresetDetail
	index := make(map[uuid.UUID]int)
	for rows.Next() {
		var p core.PresetDetail
		var idStr, hhStr, created string
		var active int
		if err := rows.Scan(&idStr, &hhStr, &p.Name, &p.SortOrder, &active, &created); err != nil {
			return nil, fmt.Errorf("scan preset: %w", err)
		}
		p.ID = parseUUID(idStr)
		p.HouseholdID = parseUUID(hhStr)
		p.IsActive = active != 0
		p.CreatedAt = parseTime(created)
		index[p.ID] = len(out)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	itemRows, err := r.db.QueryContext(ctx, `
		SELECT i.id, i.preset_id, i.category_id, i.family_member_id,
			i.amount, i.memo, i.sort_order,
			COALESCE(c.name, ''), COALESCE(c.icon, ''), COALESCE(f.name, '')
		FROM expense_preset_items i
		LEFT JOIN categories c ON c.id = i.category_id
		LEFT JOIN family_members f ON f.id = i.family_member_id
		WHERE i.preset_id IN
			(SELECT id FROM expense_presets WHERE household_id = ? AND is_active = 1)
		ORDER BY i.sort_order`, householdID.String())
	if err != nil {
		return nil, fmt.Errorf("list preset items: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var d core.PresetItemDetail
		var idStr, presetStr, catStr, famStr string
		if err := itemRows.Scan(&idStr, &presetStr, &catStr, &famStr,
			&d.Amount, &d.Memo, &d.SortOrder,
			&d.CategoryName, &d.CategoryIcon, &d.FamilyMemberName); err != nil {
			return nil, fmt.Errorf("scan preset item: %w", err)
		}
		d.ID = parseUUID(idStr)
		d.PresetID = parseUUID(presetStr)
		d.CategoryID = parseUUID(catStr)
		d.FamilyMemberID = parseUUID(famStr)
		if i, ok := index[d.PresetID]; ok {
			out[i].Items = append(out[i].Items, d)
		}
	}
	return out, itemRows.Err()
}
