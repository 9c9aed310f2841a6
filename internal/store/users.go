package store

import (
	"context"
	"fmt"
	"time"

	"arcade-inventory-backend/internal/model"
)

// FindActiveUserByIdentifier looks up an active admin by username or email.
func (s *gormStore) FindActiveUserByIdentifier(ctx context.Context, identifier string) (*model.AdminUser, error) {
	var u model.AdminUser
	if err := s.db.WithContext(ctx).
		Where("(username = ? OR email = ?) AND active = ?", identifier, identifier, true).
		First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// FindActiveUserByID looks up an active admin by id.
func (s *gormStore) FindActiveUserByID(ctx context.Context, id uint) (*model.AdminUser, error) {
	var u model.AdminUser
	if err := s.db.WithContext(ctx).Where("id = ? AND active = ?", id, true).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *gormStore) TouchLastLogin(ctx context.Context, id uint, at time.Time) error {
	if err := s.db.WithContext(ctx).Model(&model.AdminUser{}).
		Where("id = ?", id).
		Update("last_login", at).Error; err != nil {
		return fmt.Errorf("update last_login for user %d: %w", id, err)
	}
	return nil
}

func (s *gormStore) CreateAdminUser(ctx context.Context, u *model.AdminUser) error {
	if u.Role == "" {
		u.Role = model.RoleAdmin
	}
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		return fmt.Errorf("create admin user %q: %w", u.Username, err)
	}
	return nil
}
