//go:build !wasm
// +build !wasm

package gorm

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	ob "github.com/panyam/oneblog"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "oneblog.db")
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate() error = %v", err)
	}
	return db
}

func TestUserStore(t *testing.T) {
	ctx := context.Background()
	store := NewUserStore(setupTestDB(t))

	if err := store.CreateUser(ctx, &ob.User{ID: "u1", Name: "A", Email: "a@x.com", PasswordHash: "h"}); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	err := store.CreateUser(ctx, &ob.User{ID: "u2", Name: "B", Email: "a@x.com", PasswordHash: "h"})
	if !errors.Is(err, ob.ErrEmailExists) {
		t.Errorf("duplicate email error = %v, want ErrEmailExists", err)
	}

	u, err := store.GetUserByEmail(ctx, "a@x.com")
	if err != nil || u.ID != "u1" {
		t.Fatalf("GetUserByEmail() = %v, %v", u, err)
	}
	if _, err := store.GetUserById(ctx, "u2"); !errors.Is(err, ob.ErrUserNotFound) {
		t.Errorf("GetUserById(u2) error = %v", err)
	}

	if err := store.UpdatePasswordHash(ctx, "u1", "h2"); err != nil {
		t.Fatalf("UpdatePasswordHash() error = %v", err)
	}
	u, _ = store.GetUserById(ctx, "u1")
	if u.PasswordHash != "h2" {
		t.Errorf("PasswordHash = %q", u.PasswordHash)
	}
	if err := store.UpdatePasswordHash(ctx, "nobody", "x"); !errors.Is(err, ob.ErrUserNotFound) {
		t.Errorf("UpdatePasswordHash(nobody) error = %v", err)
	}
}

func TestBlogStore(t *testing.T) {
	ctx := context.Background()
	store := NewBlogStore(setupTestDB(t))
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	store.CreateBlog(ctx, &ob.Blog{ID: "b2", Title: "2", Description: "d", AuthorEmail: "a@x.com", CreatedAt: base.Add(time.Minute)})
	store.CreateBlog(ctx, &ob.Blog{ID: "b1", Title: "1", Description: "d", AuthorEmail: "a@x.com", CreatedAt: base})
	store.CreateBlog(ctx, &ob.Blog{ID: "b3", Title: "3", Description: "d", AuthorEmail: "b@x.com", CreatedAt: base})

	list, err := store.ListBlogsByAuthor(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("ListBlogsByAuthor() error = %v", err)
	}
	if len(list) != 2 || list[0].ID != "b1" {
		t.Fatalf("unexpected list: %d entries", len(list))
	}

	b, _ := store.GetBlog(ctx, "b1")
	b.Title = "renamed"
	b.AuthorEmail = "b@x.com"
	if err := store.SaveBlog(ctx, b); err != nil {
		t.Fatalf("SaveBlog() error = %v", err)
	}
	b, _ = store.GetBlog(ctx, "b1")
	if b.Title != "renamed" || b.AuthorEmail != "a@x.com" {
		t.Errorf("after save: %+v", b)
	}

	if err := store.DeleteBlog(ctx, "b1"); err != nil {
		t.Fatalf("DeleteBlog() error = %v", err)
	}
	if err := store.DeleteBlog(ctx, "b1"); !errors.Is(err, ob.ErrBlogNotFound) {
		t.Errorf("second delete error = %v", err)
	}
	if _, err := store.GetBlog(ctx, "b1"); !errors.Is(err, ob.ErrBlogNotFound) {
		t.Errorf("GetBlog after delete error = %v", err)
	}
}

func TestOTCStore(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store := NewOTCStore(setupTestDB(t)).WithClock(func() time.Time { return now })

	rec := func(code string, ttl time.Duration) *ob.OTCRecord {
		return &ob.OTCRecord{Email: "a@x.com", Code: code, CreatedAt: now, ExpiresAt: now.Add(ttl)}
	}
	if err := store.SaveOTC(ctx, rec("111111", 10*time.Minute)); err != nil {
		t.Fatalf("SaveOTC() error = %v", err)
	}
	if err := store.SaveOTC(ctx, rec("222222", 10*time.Minute)); err != nil {
		t.Fatalf("SaveOTC() replace error = %v", err)
	}
	if _, err := store.FindOTC(ctx, "a@x.com", "111111"); !errors.Is(err, ob.ErrOTCNotFound) {
		t.Errorf("replaced code found: %v", err)
	}
	if _, err := store.FindOTC(ctx, "a@x.com", "222222"); err != nil {
		t.Errorf("current code not found: %v", err)
	}

	now = now.Add(10 * time.Minute)
	if _, err := store.FindOTC(ctx, "a@x.com", "222222"); !errors.Is(err, ob.ErrOTCNotFound) {
		t.Errorf("expired code found: %v", err)
	}
	if err := store.DeleteExpiredOTCs(ctx); err != nil {
		t.Fatalf("DeleteExpiredOTCs() error = %v", err)
	}
	var count int64
	store.db.Model(&OTCModel{}).Count(&count)
	if count != 0 {
		t.Errorf("%d rows left after reaping", count)
	}

	store.SaveOTC(ctx, rec("333333", time.Hour))
	if err := store.DeleteOTCs(ctx, "a@x.com"); err != nil {
		t.Fatalf("DeleteOTCs() error = %v", err)
	}
	if _, err := store.FindOTC(ctx, "a@x.com", "333333"); !errors.Is(err, ob.ErrOTCNotFound) {
		t.Errorf("deleted code found: %v", err)
	}
}
