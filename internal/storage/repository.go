package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/smilior/kakeibo/internal/core"
)

var (
	ErrNotFound           = errors.New("record not found")
	ErrDuplicateNarrative = errors.New("narrative already exists for this period")
)

// Repository is the SQLite-backed data store. Dates are stored as
// YYYY-MM-DD text, timestamps as RFC 3339 text, and ids as UUID strings.
type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

const dateLayout = "2006-01-02"

func fmtDate(t time.Time) string {
	return t.Format(dateLayout)
}

func fmtDateOrEmpty(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

func parseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func fmtTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) time.Time {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	// CURRENT_TIMESTAMP defaults come back in SQLite's own layout
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t.UTC()
	}
	return time.Time{}
}

func uuidOrEmpty(id uuid.UUID) string {
	if id == uuid.Nil {
		return ""
	}
	return id.String()
}

func parseUUID(s string) uuid.UUID {
	if s == "" {
		return uuid.Nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil
	}
	return id
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// --- households ---

func (r *Repository) CreateHousehold(ctx context.Context, h core.Household) error {
	if h.ID == uuid.Nil {
		return fmt.Errorf("create household: missing id")
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO households (id, name, reset_day, skip_holidays, line_notify_token,
			high_amount_threshold, ai_model, ai_system_prompt, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		h.ID.String(), h.Name, h.ResetDay, boolToInt(h.SkipHolidays), h.LineNotifyToken,
		h.HighAmountThreshold, h.AIModel, h.AISystemPrompt, fmtTime(h.CreatedAt))
	if err != nil {
		return fmt.Errorf("create household: %w", err)
	}
	return nil
}

func (r *Repository) GetHousehold(ctx context.Context, id uuid.UUID) (core.Household, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, reset_day, skip_holidays, line_notify_token,
			high_amount_threshold, ai_model, ai_system_prompt, created_at
		FROM households WHERE id = ?`, id.String())

	var h core.Household
	var idStr, createdAt string
	var skipHolidays int
	err := row.Scan(&idStr, &h.Name, &h.ResetDay, &skipHolidays, &h.LineNotifyToken,
		&h.HighAmountThreshold, &h.AIModel, &h.AISystemPrompt, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Household{}, ErrNotFound
	}
	if err != nil {
		return core.Household{}, fmt.Errorf("get household: %w", err)
	}
	h.ID = parseUUID(idStr)
	h.SkipHolidays = skipHolidays != 0
	h.CreatedAt = parseTime(createdAt)
	return h, nil
}

// UpdateHouseholdSettings overwrites the cycle and notification settings.
// Validation happens at the boundary; an out-of-range reset day is also
// rejected here by the table's CHECK constraint.
func (r *Repository) UpdateHouseholdSettings(ctx context.Context, h core.Household) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE households
		SET name = ?, reset_day = ?, skip_holidays = ?, line_notify_token = ?,
			high_amount_threshold = ?, ai_model = ?, ai_system_prompt = ?
		WHERE id = ?`,
		h.Name, h.ResetDay, boolToInt(h.SkipHolidays), h.LineNotifyToken,
		h.HighAmountThreshold, h.AIModel, h.AISystemPrompt, h.ID.String())
	if err != nil {
		return fmt.Errorf("update household: %w", err)
	}
	return requireRow(res, "update household")
}

// --- users ---

func (r *Repository) CreateUser(ctx context.Context, u core.User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, household_id, email, name, nickname, role, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.ID.String(), u.HouseholdID.String(), u.Email, u.Name, u.Nickname,
		string(u.Role), fmtTime(u.CreatedAt))
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *Repository) ListUsers(ctx context.Context, householdID uuid.UUID) ([]core.User, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, household_id, email, name, nickname, role, created_at
		FROM users WHERE household_id = ? ORDER BY created_at`, householdID.String())
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []core.User
	for rows.Next() {
		var u core.User
		var idStr, hhStr, role, createdAt string
		if err := rows.Scan(&idStr, &hhStr, &u.Email, &u.Name, &u.Nickname, &role, &createdAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		u.ID = parseUUID(idStr)
		u.HouseholdID = parseUUID(hhStr)
		u.Role = core.UserRole(role)
		u.CreatedAt = parseTime(createdAt)
		out = append(out, u)
	}
	return out, rows.Err()
}

// --- family members ---

func (r *Repository) CreateFamilyMember(ctx context.Context, m core.FamilyMember) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO family_members (id, household_id, name, sort_order, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID.String(), m.HouseholdID.String(), m.Name, m.SortOrder,
		boolToInt(m.IsActive), fmtTime(m.CreatedAt))
	if err != nil {
		return fmt.Errorf("create family member: %w", err)
	}
	return nil
}

func (r *Repository) ListActiveFamilyMembers(ctx context.Context, householdID uuid.UUID) ([]core.FamilyMember, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, household_id, name, sort_order, is_active, created_at
		FROM family_members WHERE household_id = ? AND is_active = 1
		ORDER BY sort_order`, householdID.String())
	if err != nil {
		return nil, fmt.Errorf("list family members: %w", err)
	}
	defer rows.Close()

	var out []core.FamilyMember
	for rows.Next() {
		var m core.FamilyMember
		var idStr, hhStr, createdAt string
		var active int
		if err := rows.Scan(&idStr, &hhStr, &m.Name, &m.SortOrder, &active, &createdAt); err != nil {
			return nil, fmt.Errorf("scan family member: %w", err)
		}
		m.ID = parseUUID(idStr)
		m.HouseholdID = parseUUID(hhStr)
		m.IsActive = active != 0
		m.CreatedAt = parseTime(createdAt)
		out = append(out, m)
	}
	return out, rows.Err()
}

// DeactivateFamilyMember soft-deletes: past expenses keep their attribution.
func (r *Repository) DeactivateFamilyMember(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE family_members SET is_active = 0 WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("deactivate family member: %w", err)
	}
	return requireRow(res, "deactivate family member")
}

// --- categories ---

func (r *Repository) CreateCategory(ctx context.Context, c core.Category) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO categories (id, household_id, name, icon, sort_order, is_active)
		VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID.String(), c.HouseholdID.String(), c.Name, c.Icon, c.SortOrder, boolToInt(c.IsActive))
	if err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

func (r *Repository) ListActiveCategories(ctx context.Context, householdID uuid.UUID) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, household_id, name, icon, sort_order, is_active
		FROM categories WHERE household_id = ? AND is_active = 1
		ORDER BY sort_order`, householdID.String())
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var c core.Category
		var idStr, hhStr string
		var active int
		if err := rows.Scan(&idStr, &hhStr, &c.Name, &c.Icon, &c.SortOrder, &active); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.ID = parseUUID(idStr)
		c.HouseholdID = parseUUID(hhStr)
		c.IsActive = active != 0
		out = append(out, c)
	}
	return out, rows.Err()
}

// CreateDefaultCategories seeds the standard set for a new household.
func (r *Repository) CreateDefaultCategories(ctx context.Context, householdID uuid.UUID) error {
	defaults := []struct {
		name string
		icon string
	}{
		{"食費", "🍙"},
		{"日用品", "🧻"},
		{"外食", "🍜"},
		{"交通費", "🚃"},
		{"娯楽", "🎮"},
		{"衣服", "👕"},
		{"医療", "💊"},
		{"教育", "📚"},
		{"その他", "📁"},
	}
	for i, d := range defaults {
		c := core.Category{
			ID:          uuid.New(),
			HouseholdID: householdID,
			Name:        d.name,
			Icon:        d.icon,
			SortOrder:   i,
			IsActive:    true,
		}
		if err := r.CreateCategory(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func requireRow(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
