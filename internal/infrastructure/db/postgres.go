package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"stock-alert/internal/infrastructure/config"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const defaultPingTimeout = 5 * time.Second

// requiredTables 由 db/migrations 建立；缺少時請先執行 cmd/migrate。
var requiredTables = []string{"users", "auth_sessions", "alert_rules", "watchlist"}

// Connect 建立 PostgreSQL 連線池；若未設定 DSN 則回傳 nil，呼叫端改用記憶體儲存。
func Connect(ctx context.Context, cfg config.DBConfig) (*sql.DB, error) {
	if cfg.DSN == "" {
		return nil, nil
	}

	pool, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	pool.SetMaxOpenConns(cfg.MaxOpenConns)
	pool.SetMaxIdleConns(cfg.MaxIdleConns)
	pool.SetConnMaxIdleTime(cfg.MaxIdleTime)

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultPingTimeout)
		defer cancel()
	}
	if err := pool.PingContext(ctx); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

// MissingTables 回傳尚未建立的資料表名稱。
func MissingTables(ctx context.Context, pool *sql.DB) ([]string, error) {
	var missing []string
	for _, name := range requiredTables {
		var reg sql.NullString
		if err := pool.QueryRowContext(ctx, `SELECT to_regclass($1)::text`, "public."+name).Scan(&reg); err != nil {
			return nil, fmt.Errorf("check table %s: %w", name, err)
		}
		if !reg.Valid {
			missing = append(missing, name)
		}
	}
	return missing, nil
}
