package reporting

import (
	"context"

	domain "rollcall/internal/domain/reporting"
)

// Store persists reporting Settings, one row per business.
type Store interface {
	GetByBusinessID(ctx context.Context, businessID string) (domain.Settings, error)
	Save(ctx context.Context, value domain.Settings) error
	ListEnabled(ctx context.Context) ([]domain.Settings, error)
}
