package business

import (
	"context"

	domain "rollcall/internal/domain/business"
)

// Store persists Business state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Business, error)
	Save(ctx context.Context, value domain.Business) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]domain.Business, error)
	ListByStatus(ctx context.Context, status string) ([]domain.Business, error)
}
