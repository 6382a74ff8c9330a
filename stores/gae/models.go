//go:build !wasm
// +build !wasm

package gae

import (
	"time"

	"cloud.google.com/go/datastore"
	ob "github.com/panyam/oneblog"
)

// UserEntity is the Datastore entity for users, keyed by user id
type UserEntity struct {
	Key          *datastore.Key `datastore:"__key__"`
	Name         string         `datastore:"name,noindex"`
	Email        string         `datastore:"email"`
	PasswordHash string         `datastore:"password_hash,noindex"`
	CreatedAt    time.Time      `datastore:"created_at"`
	UpdatedAt    time.Time      `datastore:"updated_at"`
}

func (e *UserEntity) ToUser() *ob.User {
	return &ob.User{
		ID:           e.Key.Name,
		Name:         e.Name,
		Email:        e.Email,
		PasswordHash: e.PasswordHash,
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
	}
}

func UserToEntity(u *ob.User, key *datastore.Key) *UserEntity {
	return &UserEntity{
		Key:          key,
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

// UserEmailEntity reserves an email for a user. Keyed by the email itself so
// a transactional Get+Put enforces uniqueness.
type UserEmailEntity struct {
	Key       *datastore.Key `datastore:"__key__"`
	UserID    string         `datastore:"user_id"`
	CreatedAt time.Time      `datastore:"created_at"`
}

// BlogEntity is the Datastore entity for blogs, keyed by blog id
type BlogEntity struct {
	Key         *datastore.Key `datastore:"__key__"`
	Title       string         `datastore:"title,noindex"`
	Description string         `datastore:"description,noindex"`
	AuthorEmail string         `datastore:"author_email"`
	CreatedAt   time.Time      `datastore:"created_at"`
	UpdatedAt   time.Time      `datastore:"updated_at"`
}

func (e *BlogEntity) ToBlog() *ob.Blog {
	return &ob.Blog{
		ID:          e.Key.Name,
		Title:       e.Title,
		Description: e.Description,
		AuthorEmail: e.AuthorEmail,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

func BlogToEntity(b *ob.Blog, key *datastore.Key) *BlogEntity {
	return &BlogEntity{
		Key:         key,
		Title:       b.Title,
		Description: b.Description,
		AuthorEmail: b.AuthorEmail,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}

// OTCEntity holds the outstanding code for an email, keyed by the email
type OTCEntity struct {
	Key       *datastore.Key `datastore:"__key__"`
	Code      string         `datastore:"code,noindex"`
	CreatedAt time.Time      `datastore:"created_at"`
	ExpiresAt time.Time      `datastore:"expires_at"`
}

func (e *OTCEntity) ToOTCRecord() *ob.OTCRecord {
	return &ob.OTCRecord{
		Email:     e.Key.Name,
		Code:      e.Code,
		CreatedAt: e.CreatedAt,
		ExpiresAt: e.ExpiresAt,
	}
}

func OTCRecordToEntity(r *ob.OTCRecord, key *datastore.Key) *OTCEntity {
	return &OTCEntity{
		Key:       key,
		Code:      r.Code,
		CreatedAt: r.CreatedAt,
		ExpiresAt: r.ExpiresAt,
	}
}
