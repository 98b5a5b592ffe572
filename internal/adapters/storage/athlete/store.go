package athlete

import (
	"context"

	domain "rollcall/internal/domain/athlete"
)

// Store persists Athlete state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Athlete, error)

	// GetByPIN resolves the kiosk identity: PINs are unique per
	// business, not globally.
	GetByPIN(ctx context.Context, businessID, pin string) (domain.Athlete, error)

	Save(ctx context.Context, value domain.Athlete) error
	Delete(ctx context.Context, id string) error
	ListByBusinessID(ctx context.Context, businessID string) ([]domain.Athlete, error)
	ListByIDs(ctx context.Context, ids []string) ([]domain.Athlete, error)
}
