package storage

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// UserRepo provides methods for user operations.
type UserRepo struct {
	db *gorm.DB
}

// FindOrCreate gets the user for an identity-provider subject, creating it on first sight.
func (r *UserRepo) FindOrCreate(ctx context.Context, notaryID string) (*User, error) {
	var user User
	err := r.db.WithContext(ctx).Where(User{NotaryID: notaryID}).FirstOrCreate(&user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// A concurrent first request created it between our read and insert.
		user = User{}
		err = r.db.WithContext(ctx).Where(User{NotaryID: notaryID}).First(&user).Error
	}
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// FindByID gets a user by local id.
func (r *UserRepo) FindByID(ctx context.Context, id string) (*User, error) {
	var user User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}
