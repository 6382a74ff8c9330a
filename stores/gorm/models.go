//go:build !wasm
// +build !wasm

package gorm

import (
	"time"

	ob "github.com/panyam/oneblog"
)

// UserModel is the GORM model for users
type UserModel struct {
	ID           string    `gorm:"primaryKey;size:64"`
	Name         string    `gorm:"size:255"`
	Email        string    `gorm:"size:320;uniqueIndex;not null"`
	PasswordHash string    `gorm:"size:255;not null"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

func (UserModel) TableName() string {
	return "users"
}

func (m *UserModel) ToUser() *ob.User {
	return &ob.User{
		ID:           m.ID,
		Name:         m.Name,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func UserToModel(u *ob.User) *UserModel {
	return &UserModel{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

// BlogModel is the GORM model for blogs
type BlogModel struct {
	ID          string    `gorm:"primaryKey;size:64"`
	Title       string    `gorm:"size:512;not null"`
	Description string    `gorm:"type:text;not null"`
	AuthorEmail string    `gorm:"size:320;index;not null"`
	CreatedAt   time.Time `gorm:"index"`
	UpdatedAt   time.Time
}

func (BlogModel) TableName() string {
	return "blogs"
}

func (m *BlogModel) ToBlog() *ob.Blog {
	return &ob.Blog{
		ID:          m.ID,
		Title:       m.Title,
		Description: m.Description,
		AuthorEmail: m.AuthorEmail,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func BlogToModel(b *ob.Blog) *BlogModel {
	return &BlogModel{
		ID:          b.ID,
		Title:       b.Title,
		Description: b.Description,
		AuthorEmail: b.AuthorEmail,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}

// OTCModel holds the single outstanding code for an email
type OTCModel struct {
	Email     string    `gorm:"primaryKey;size:320"`
	Code      string    `gorm:"size:16;not null"`
	CreatedAt time.Time `gorm:"not null"`
	ExpiresAt time.Time `gorm:"index;not null"`
}

func (OTCModel) TableName() string {
	return "otps"
}

func (m *OTCModel) ToOTCRecord() *ob.OTCRecord {
	return &ob.OTCRecord{
		Email:     m.Email,
		Code:      m.Code,
		CreatedAt: m.CreatedAt,
		ExpiresAt: m.ExpiresAt,
	}
}

func OTCRecordToModel(r *ob.OTCRecord) *OTCModel {
	return &OTCModel{
		Email:     r.Email,
		Code:      r.Code,
		CreatedAt: r.CreatedAt,
		ExpiresAt: r.ExpiresAt,
	}
}
