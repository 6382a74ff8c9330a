//go:build !wasm
// +build !wasm

package gorm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	ob "github.com/panyam/oneblog"
)

// AutoMigrate runs database migrations for all oneblog tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&UserModel{},
		&BlogModel{},
		&OTCModel{},
	)
}

// =============================================================================
// UserStore
// =============================================================================

// UserStore implements ob.UserStore using GORM
type UserStore struct {
	db *gorm.DB
}

func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) CreateUser(ctx context.Context, user *ob.User) error {
	model := UserToModel(user)
	err := s.db.WithContext(ctx).Create(model).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ob.ErrEmailExists
	}
	if err != nil {
		// not every dialector translates constraint errors, so recheck
		if _, lookupErr := s.GetUserByEmail(ctx, user.Email); lookupErr == nil {
			return ob.ErrEmailExists
		}
		return err
	}
	user.CreatedAt = model.CreatedAt
	user.UpdatedAt = model.UpdatedAt
	return nil
}

func (s *UserStore) getUser(ctx context.Context, query string, arg string) (*ob.User, error) {
	var model UserModel
	if err := s.db.WithContext(ctx).First(&model, query, arg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ob.ErrUserNotFound
		}
		return nil, err
	}
	return model.ToUser(), nil
}

func (s *UserStore) GetUserByEmail(ctx context.Context, email string) (*ob.User, error) {
	return s.getUser(ctx, "email = ?", email)
}

func (s *UserStore) GetUserById(ctx context.Context, userID string) (*ob.User, error) {
	return s.getUser(ctx, "id = ?", userID)
}

func (s *UserStore) UpdatePasswordHash(ctx context.Context, userID string, passwordHash string) error {
	result := s.db.WithContext(ctx).Model(&UserModel{}).
		Where("id = ?", userID).
		Update("password_hash", passwordHash)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ob.ErrUserNotFound
	}
	return nil
}

// =============================================================================
// BlogStore
// =============================================================================

// BlogStore implements ob.BlogStore using GORM
type BlogStore struct {
	db *gorm.DB
}

func NewBlogStore(db *gorm.DB) *BlogStore {
	return &BlogStore{db: db}
}

func (s *BlogStore) CreateBlog(ctx context.Context, blog *ob.Blog) error {
	return s.db.WithContext(ctx).Create(BlogToModel(blog)).Error
}

func (s *BlogStore) GetBlog(ctx context.Context, blogID string) (*ob.Blog, error) {
	var model BlogModel
	if err := s.db.WithContext(ctx).First(&model, "id = ?", blogID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ob.ErrBlogNotFound
		}
		return nil, err
	}
	return model.ToBlog(), nil
}

func (s *BlogStore) ListBlogsByAuthor(ctx context.Context, authorEmail string) ([]*ob.Blog, error) {
	var models []BlogModel
	if err := s.db.WithContext(ctx).
		Where("author_email = ?", authorEmail).
		Order("created_at ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}

	blogs := make([]*ob.Blog, len(models))
	for i := range models {
		blogs[i] = models[i].ToBlog()
	}
	return blogs, nil
}

func (s *BlogStore) SaveBlog(ctx context.Context, blog *ob.Blog) error {
	result := s.db.WithContext(ctx).Model(&BlogModel{}).
		Where("id = ?", blog.ID).
		Updates(map[string]any{
			"title":       blog.Title,
			"description": blog.Description,
			"updated_at":  blog.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ob.ErrBlogNotFound
	}
	return nil
}

func (s *BlogStore) DeleteBlog(ctx context.Context, blogID string) error {
	result := s.db.WithContext(ctx).Delete(&BlogModel{}, "id = ?", blogID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ob.ErrBlogNotFound
	}
	return nil
}

// =============================================================================
// OTCStore
// =============================================================================

// OTCStore implements ob.OTCStore using GORM
type OTCStore struct {
	db  *gorm.DB
	now func() time.Time
}

func NewOTCStore(db *gorm.DB) *OTCStore {
	return &OTCStore{db: db, now: time.Now}
}

// WithClock returns a copy of the store using now for expiry checks
func (s *OTCStore) WithClock(now func() time.Time) *OTCStore {
	return &OTCStore{db: s.db, now: now}
}

// SaveOTC deletes any previous code and inserts the new one in one transaction
func (s *OTCStore) SaveOTC(ctx context.Context, rec *ob.OTCRecord) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&OTCModel{}, "email = ?", rec.Email).Error; err != nil {
			return fmt.Errorf("failed to clear previous codes: %w", err)
		}
		return tx.Create(OTCRecordToModel(rec)).Error
	})
}

func (s *OTCStore) FindOTC(ctx context.Context, email, code string) (*ob.OTCRecord, error) {
	var model OTCModel
	err := s.db.WithContext(ctx).
		Where("email = ? AND code = ? AND expires_at > ?", email, code, s.now()).
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ob.ErrOTCNotFound
	}
	if err != nil {
		return nil, err
	}
	return model.ToOTCRecord(), nil
}

func (s *OTCStore) DeleteOTCs(ctx context.Context, email string) error {
	return s.db.WithContext(ctx).Delete(&OTCModel{}, "email = ?", email).Error
}

func (s *OTCStore) DeleteExpiredOTCs(ctx context.Context) error {
	return s.db.WithContext(ctx).Delete(&OTCModel{}, "expires_at <= ?", s.now()).Error
}
