package group

import (
	"context"

	domain "rollcall/internal/domain/group"
)

// Store persists AthleteGroup state and the group membership junction.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.AthleteGroup, error)
	Save(ctx context.Context, value domain.AthleteGroup) error
	Delete(ctx context.Context, id string) error
	ListByBusinessID(ctx context.Context, businessID string) ([]domain.AthleteGroup, error)

	// AddMember links an athlete to a group. Adding an existing member
	// is a no-op.
	AddMember(ctx context.Context, groupID, athleteID string) error

	// RemoveMember unlinks an athlete from a group.
	RemoveMember(ctx context.Context, groupID, athleteID string) error

	// ListMemberIDs returns the athlete IDs in a group.
	ListMemberIDs(ctx context.Context, groupID string) ([]string, error)
}
