package httpapi

import (
	"context"
	"fmt"
)

type defaultSeeder interface {
	SeedDefaults(ctx context.Context) error
}

// seedAuth 將預設帳號寫入儲存層。
func seedAuth(ctx context.Context, repo defaultSeeder) error {
	if err := repo.SeedDefaults(ctx); err != nil {
		return fmt.Errorf("seed defaults: %w", err)
	}
	return nil
}
