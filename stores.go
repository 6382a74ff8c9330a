package oneblog

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"
)

// Sentinel errors returned by store implementations
var (
	ErrUserNotFound = errors.New("user not found")
	ErrBlogNotFound = errors.New("blog not found")
	ErrOTCNotFound  = errors.New("otc not found")
	ErrEmailExists  = errors.New("email already registered")
)

// User is a registered account. Email is the natural key and is compared
// exactly as stored.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Blog is a post owned by the user whose email matches AuthorEmail
type Blog struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	AuthorEmail string    `json:"author_email"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// OwnedBy reports whether the blog belongs to the given user
func (b *Blog) OwnedBy(u *User) bool {
	return u != nil && b.AuthorEmail == u.Email
}

// OTCRecord is an outstanding one-time code for an email address
type OTCRecord struct {
	Email     string    `json:"email"`
	Code      string    `json:"otp"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IsExpiredAt returns true once now has reached ExpiresAt
func (r *OTCRecord) IsExpiredAt(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// Matches compares the stored code against a candidate in constant time
func (r *OTCRecord) Matches(code string) bool {
	return subtle.ConstantTimeCompare([]byte(r.Code), []byte(code)) == 1
}

// UserStore manages user accounts
type UserStore interface {
	// CreateUser persists a new user. Returns ErrEmailExists if the email is
	// already registered, including when two creates race.
	CreateUser(ctx context.Context, user *User) error

	// GetUserByEmail returns ErrUserNotFound if no user has this email
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// GetUserById returns ErrUserNotFound if the id is unknown
	GetUserById(ctx context.Context, userID string) (*User, error)

	// UpdatePasswordHash replaces the stored digest for a user
	UpdatePasswordHash(ctx context.Context, userID string, passwordHash string) error
}

// BlogStore manages blog posts
type BlogStore interface {
	CreateBlog(ctx context.Context, blog *Blog) error
	GetBlog(ctx context.Context, blogID string) (*Blog, error)

	// ListBlogsByAuthor returns the author's blogs, oldest first
	ListBlogsByAuthor(ctx context.Context, authorEmail string) ([]*Blog, error)

	// SaveBlog writes the title, description and UpdatedAt of an existing blog
	SaveBlog(ctx context.Context, blog *Blog) error
	DeleteBlog(ctx context.Context, blogID string) error
}

// OTCStore persists one-time codes keyed by email
type OTCStore interface {
	// SaveOTC replaces every outstanding record for rec.Email with rec as a
	// single atomic step.
	SaveOTC(ctx context.Context, rec *OTCRecord) error

	// FindOTC returns the unexpired record matching both email and code, or
	// ErrOTCNotFound.
	FindOTC(ctx context.Context, email, code string) (*OTCRecord, error)

	// DeleteOTCs removes all records for the email. Missing records are not an error.
	DeleteOTCs(ctx context.Context, email string) error

	// DeleteExpiredOTCs purges records past their expiry
	DeleteExpiredOTCs(ctx context.Context) error
}
