package database

import (
	"context"
	"errors"
	"time"

	"github.com/Brosquire/nodemaster/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserQueryFields maps user JSON field names to database columns. Password
// and the reset token pair are deliberately absent.
var UserQueryFields = map[string]QueryField{
	"id":        {Column: "id"},
	"name":      {Column: "name"},
	"email":     {Column: "email"},
	"role":      {Column: "role"},
	"createdAt": {Column: "created_at"},
}

type UserRepo struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) *UserRepo {
	return &UserRepo{db}
}

// List returns one page of users matching opts.
func (r *UserRepo) List(ctx context.Context, opts QueryOptions) (Page[models.User], error) {
	return listPage[models.User](r.db.WithContext(ctx), opts, nil)
}

// FindByID returns the user or nil when no such record exists.
func (r *UserRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail returns the user or nil when no account uses the email.
func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).First(&user, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByResetToken returns the user holding a non-expired reset token
// digest, or nil when the token is unknown or expired.
func (r *UserRepo) FindByResetToken(ctx context.Context, hashedToken string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("reset_password_token = ?", hashedToken).
		Where("reset_password_expire > ?", time.Now()).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Add inserts a new user. The password must already be hashed.
func (r *UserRepo) Add(ctx context.Context, user *models.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	return r.db.WithContext(ctx).Create(user).Error
}

// Update persists every field of an existing user, including a cleared
// reset token pair.
func (r *UserRepo) Update(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

// Delete removes a user from the database by id
func (r *UserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.User{}, "id = ?", id).Error
}
