package mongo

import (
	"time"

	ob "github.com/panyam/oneblog"
)

// Collection names
const (
	CollectionUsers = "users"
	CollectionBlogs = "blogs"
	CollectionOTPs  = "otps"
)

type userDoc struct {
	ID           string    `bson:"_id"`
	Name         string    `bson:"name"`
	Email        string    `bson:"email"`
	PasswordHash string    `bson:"password"`
	CreatedAt    time.Time `bson:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt"`
}

func (d *userDoc) toUser() *ob.User {
	return &ob.User{
		ID:           d.ID,
		Name:         d.Name,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

func userToDoc(u *ob.User) *userDoc {
	return &userDoc{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

type blogDoc struct {
	ID          string    `bson:"_id"`
	Title       string    `bson:"title"`
	Description string    `bson:"description"`
	AuthorEmail string    `bson:"author_email"`
	CreatedAt   time.Time `bson:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt"`
}

func (d *blogDoc) toBlog() *ob.Blog {
	return &ob.Blog{
		ID:          d.ID,
		Title:       d.Title,
		Description: d.Description,
		AuthorEmail: d.AuthorEmail,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

func blogToDoc(b *ob.Blog) *blogDoc {
	return &blogDoc{
		ID:          b.ID,
		Title:       b.Title,
		Description: b.Description,
		AuthorEmail: b.AuthorEmail,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}

// otpDoc uses the email as _id so there is at most one document per email
type otpDoc struct {
	Email     string    `bson:"_id"`
	Code      string    `bson:"otp"`
	CreatedAt time.Time `bson:"createdAt"`
	ExpiresAt time.Time `bson:"expiresAt"`
}

func (d *otpDoc) toOTCRecord() *ob.OTCRecord {
	return &ob.OTCRecord{
		Email:     d.Email,
		Code:      d.Code,
		CreatedAt: d.CreatedAt,
		ExpiresAt: d.ExpiresAt,
	}
}

func otcRecordToDoc(r *ob.OTCRecord) *otpDoc {
	return &otpDoc{
		Email:     r.Email,
		Code:      r.Code,
		CreatedAt: r.CreatedAt,
		ExpiresAt: r.ExpiresAt,
	}
}
