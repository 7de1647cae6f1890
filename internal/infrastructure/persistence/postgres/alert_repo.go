package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	alertDomain "stock-alert/internal/domain/alert"

	"github.com/google/uuid"
)

var nowFunc = time.Now

// AlertRepo Postgres 版提醒規則儲存。
type AlertRepo struct {
	db  *sql.DB
	loc *time.Location
}

// NewAlertRepo 建立 AlertRepo；loc 決定統計「今日」的日界。
func NewAlertRepo(db *sql.DB, loc *time.Location) *AlertRepo {
	if loc == nil {
		loc = time.UTC
	}
	return &AlertRepo{db: db, loc: loc}
}

const ruleColumns = `id, owner_email, ticker, stock_name, kind, comparator, threshold, channel, is_active, trigger_count, last_triggered_at, created_at, updated_at`

// ListActive owner 為空時回傳全部使用者的啟用規則。
func (r *AlertRepo) ListActive(ctx context.Context, owner string) ([]alertDomain.Rule, error) {
	const q = `
SELECT ` + ruleColumns + `
FROM alert_rules
WHERE is_active AND ($1::text = '' OR owner_email = $1)
ORDER BY created_at DESC, id;
`
	return r.query(ctx, q, owner)
}

func (r *AlertRepo) List(ctx context.Context, owner string) ([]alertDomain.Rule, error) {
	const q = `
SELECT ` + ruleColumns + `
FROM alert_rules
WHERE owner_email = $1
ORDER BY created_at DESC, id;
`
	return r.query(ctx, q, owner)
}

func (r *AlertRepo) Create(ctx context.Context, rule alertDomain.Rule) (alertDomain.Rule, error) {
	const q = `
INSERT INTO alert_rules (owner_email, ticker, stock_name, kind, comparator, threshold, channel, is_active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
RETURNING id;
`
	if err := r.db.QueryRowContext(ctx, q,
		rule.Owner,
		rule.Ticker,
		rule.StockName,
		string(rule.Kind),
		string(rule.Comparator),
		rule.Threshold,
		string(rule.Channel),
		rule.Active,
		rule.CreatedAt,
	).Scan(&rule.ID); err != nil {
		return alertDomain.Rule{}, err
	}
	return rule, nil
}

func (r *AlertRepo) Delete(ctx context.Context, owner, id string) error {
	if !validRuleID(id) {
		return alertDomain.ErrNotFound
	}
	const q = `DELETE FROM alert_rules WHERE id = $1 AND owner_email = $2;`
	res, err := r.db.ExecContext(ctx, q, id, owner)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

func (r *AlertRepo) SetActive(ctx context.Context, owner, id string, active bool) error {
	if !validRuleID(id) {
		return alertDomain.ErrNotFound
	}
	const q = `UPDATE alert_rules SET is_active = $3, updated_at = $4 WHERE id = $1 AND owner_email = $2;`
	res, err := r.db.ExecContext(ctx, q, id, owner, active, nowFunc())
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

// RecordTrigger 以單一 UPDATE 累加，並發觸發不會互相覆蓋。
func (r *AlertRepo) RecordTrigger(ctx context.Context, id string, at time.Time) error {
	if !validRuleID(id) {
		return alertDomain.ErrNotFound
	}
	const q = `
UPDATE alert_rules
SET trigger_count = trigger_count + 1, last_triggered_at = $2, updated_at = $2
WHERE id = $1;
`
	res, err := r.db.ExecContext(ctx, q, id, at)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

// Stats 在 DB 端聚合，今日範圍依 loc 的日曆日計算。
func (r *AlertRepo) Stats(ctx context.Context, owner string, now time.Time) (alertDomain.Stats, error) {
	const q = `
SELECT
	COUNT(*),
	COUNT(*) FILTER (WHERE is_active),
	COALESCE(SUM(trigger_count), 0),
	COUNT(*) FILTER (WHERE last_triggered_at >= $2 AND last_triggered_at < $3)
FROM alert_rules
WHERE owner_email = $1;
`
	local := now.In(r.loc)
	dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, r.loc)
	dayEnd := dayStart.AddDate(0, 0, 1)

	var st alertDomain.Stats
	if err := r.db.QueryRowContext(ctx, q, owner, dayStart, dayEnd).Scan(
		&st.Total, &st.Active, &st.TotalTriggered, &st.TriggeredToday,
	); err != nil {
		return alertDomain.Stats{}, err
	}
	return st, nil
}

func (r *AlertRepo) query(ctx context.Context, q string, args ...any) ([]alertDomain.Rule, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]alertDomain.Rule, 0)
	for rows.Next() {
		var (
			rule                      alertDomain.Rule
			kind, comparator, channel string
			last                      sql.NullTime
		)
		if err := rows.Scan(
			&rule.ID,
			&rule.Owner,
			&rule.Ticker,
			&rule.StockName,
			&kind,
			&comparator,
			&rule.Threshold,
			&channel,
			&rule.Active,
			&rule.TriggerCount,
			&last,
			&rule.CreatedAt,
			&rule.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan alert rule: %w", err)
		}
		rule.Kind = alertDomain.Kind(kind)
		rule.Comparator = alertDomain.Comparator(comparator)
		rule.Channel = alertDomain.Channel(channel)
		if last.Valid {
			t := last.Time
			rule.LastTriggeredAt = &t
		}
		out = append(out, rule)
	}
	return out, rows.Err()
}

// validRuleID alert_rules.id 為 UUID 欄位，非 UUID 的 id 不可能存在。
func validRuleID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return alertDomain.ErrNotFound
	}
	return nil
}

// WatchlistRepo Postgres 版關注清單。
type WatchlistRepo struct {
	db *sql.DB
}

func NewWatchlistRepo(db *sql.DB) *WatchlistRepo {
	return &WatchlistRepo{db: db}
}

// Add 以主鍵 (owner_email, ticker) 去重，重複時回傳 ErrConflict。
func (w *WatchlistRepo) Add(ctx context.Context, e alertDomain.WatchlistEntry) (alertDomain.WatchlistEntry, error) {
	const q = `
INSERT INTO watchlist (owner_email, ticker, display_name, created_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (owner_email, ticker) DO NOTHING;
`
	res, err := w.db.ExecContext(ctx, q, e.Owner, e.Ticker, e.DisplayName, e.CreatedAt)
	if err != nil {
		return alertDomain.WatchlistEntry{}, err
	}
	if err := expectOneRow(res); err != nil {
		if errors.Is(err, alertDomain.ErrNotFound) {
			return alertDomain.WatchlistEntry{}, alertDomain.ErrConflict
		}
		return alertDomain.WatchlistEntry{}, err
	}
	return e, nil
}

func (w *WatchlistRepo) Remove(ctx context.Context, owner, ticker string) error {
	res, err := w.db.ExecContext(ctx, `DELETE FROM watchlist WHERE owner_email = $1 AND ticker = $2;`, owner, ticker)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

func (w *WatchlistRepo) List(ctx context.Context, owner string) ([]alertDomain.WatchlistEntry, error) {
	const q = `
SELECT owner_email, ticker, display_name, created_at
FROM watchlist
WHERE owner_email = $1
ORDER BY ticker;
`
	return w.query(ctx, q, owner)
}

func (w *WatchlistRepo) ListAll(ctx context.Context) ([]alertDomain.WatchlistEntry, error) {
	const q = `
SELECT owner_email, ticker, display_name, created_at
FROM watchlist
ORDER BY owner_email, ticker;
`
	return w.query(ctx, q)
}

func (w *WatchlistRepo) query(ctx context.Context, q string, args ...any) ([]alertDomain.WatchlistEntry, error) {
	rows, err := w.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]alertDomain.WatchlistEntry, 0)
	for rows.Next() {
		var e alertDomain.WatchlistEntry
		if err := rows.Scan(&e.Owner, &e.Ticker, &e.DisplayName, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
