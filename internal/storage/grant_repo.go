package storage

import (
	"context"

	"github.com/google/uuid"
)

// GrantRepo provides owner-scoped file grant operations.
type GrantRepo struct {
	*Scope[FileGrant, *FileGrant]
}

// RedeemGrant gets the grant with id and its file regardless of owner: the grant id itself
// is the credential. Expiry is left to the caller.
func (s *Store) RedeemGrant(ctx context.Context, id string) (*FileGrant, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	var grant FileGrant
	err := s.db.WithContext(ctx).Preload("File").First(&grant, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &grant, nil
}
