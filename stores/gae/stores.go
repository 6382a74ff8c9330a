//go:build !wasm
// +build !wasm

package gae

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"cloud.google.com/go/datastore"
	"google.golang.org/api/iterator"

	ob "github.com/panyam/oneblog"
)

// Kind constants for Datastore entities
const (
	KindUser      = "User"
	KindUserEmail = "UserEmail"
	KindBlog      = "Blog"
	KindOTC       = "OTC"
)

// base holds what every store needs to build keys
type base struct {
	client    *datastore.Client
	namespace string
}

func (b base) namespacedKey(kind, name string) *datastore.Key {
	key := datastore.NameKey(kind, name, nil)
	key.Namespace = b.namespace
	return key
}

func (b base) query(kind string) *datastore.Query {
	return datastore.NewQuery(kind).Namespace(b.namespace)
}

// ============================================================================
// UserStore
// ============================================================================

// UserStore implements ob.UserStore using Google Cloud Datastore
type UserStore struct {
	base
}

// NewUserStore creates a new Datastore-backed UserStore
func NewUserStore(client *datastore.Client, namespace string) *UserStore {
	return &UserStore{base{client: client, namespace: namespace}}
}

// CreateUser reserves the email and writes the user in one transaction
func (s *UserStore) CreateUser(ctx context.Context, user *ob.User) error {
	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = user.CreatedAt
	}
	emailKey := s.namespacedKey(KindUserEmail, user.Email)
	userKey := s.namespacedKey(KindUser, user.ID)

	_, err := s.client.RunInTransaction(ctx, func(tx *datastore.Transaction) error {
		var existing UserEmailEntity
		err := tx.Get(emailKey, &existing)
		if err == nil {
			return ob.ErrEmailExists
		}
		if !errors.Is(err, datastore.ErrNoSuchEntity) {
			return err
		}
		if _, err := tx.Put(emailKey, &UserEmailEntity{UserID: user.ID, CreatedAt: now}); err != nil {
			return err
		}
		_, err = tx.Put(userKey, UserToEntity(user, userKey))
		return err
	})
	return err
}

func (s *UserStore) GetUserById(ctx context.Context, userID string) (*ob.User, error) {
	key := s.namespacedKey(KindUser, userID)
	var entity UserEntity
	if err := s.client.Get(ctx, key, &entity); err != nil {
		if errors.Is(err, datastore.ErrNoSuchEntity) {
			return nil, ob.ErrUserNotFound
		}
		return nil, err
	}
	return entity.ToUser(), nil
}

func (s *UserStore) GetUserByEmail(ctx context.Context, email string) (*ob.User, error) {
	var reservation UserEmailEntity
	if err := s.client.Get(ctx, s.namespacedKey(KindUserEmail, email), &reservation); err != nil {
		if errors.Is(err, datastore.ErrNoSuchEntity) {
			return nil, ob.ErrUserNotFound
		}
		return nil, err
	}
	return s.GetUserById(ctx, reservation.UserID)
}

func (s *UserStore) UpdatePasswordHash(ctx context.Context, userID string, passwordHash string) error {
	key := s.namespacedKey(KindUser, userID)
	_, err := s.client.RunInTransaction(ctx, func(tx *datastore.Transaction) error {
		var entity UserEntity
		if err := tx.Get(key, &entity); err != nil {
			if errors.Is(err, datastore.ErrNoSuchEntity) {
				return ob.ErrUserNotFound
			}
			return err
		}
		entity.PasswordHash = passwordHash
		entity.UpdatedAt = time.Now()
		_, err := tx.Put(key, &entity)
		return err
	})
	return err
}

// ============================================================================
// BlogStore
// ============================================================================

// BlogStore implements ob.BlogStore using Google Cloud Datastore
type BlogStore struct {
	base
}

func NewBlogStore(client *datastore.Client, namespace string) *BlogStore {
	return &BlogStore{base{client: client, namespace: namespace}}
}

func (s *BlogStore) CreateBlog(ctx context.Context, blog *ob.Blog) error {
	key := s.namespacedKey(KindBlog, blog.ID)
	_, err := s.client.Put(ctx, key, BlogToEntity(blog, key))
	return err
}

func (s *BlogStore) GetBlog(ctx context.Context, blogID string) (*ob.Blog, error) {
	var entity BlogEntity
	if err := s.client.Get(ctx, s.namespacedKey(KindBlog, blogID), &entity); err != nil {
		if errors.Is(err, datastore.ErrNoSuchEntity) {
			return nil, ob.ErrBlogNotFound
		}
		return nil, err
	}
	return entity.ToBlog(), nil
}

// ListBlogsByAuthor filters on author_email and sorts in memory, which avoids
// needing a composite index.
func (s *BlogStore) ListBlogsByAuthor(ctx context.Context, authorEmail string) ([]*ob.Blog, error) {
	q := s.query(KindBlog).FilterField("author_email", "=", authorEmail)
	it := s.client.Run(ctx, q)

	blogs := []*ob.Blog{}
	for {
		var entity BlogEntity
		_, err := it.Next(&entity)
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list blogs: %w", err)
		}
		blogs = append(blogs, entity.ToBlog())
	}
	sort.SliceStable(blogs, func(i, j int) bool {
		return blogs[i].CreatedAt.Before(blogs[j].CreatedAt)
	})
	return blogs, nil
}

func (s *BlogStore) SaveBlog(ctx context.Context, blog *ob.Blog) error {
	key := s.namespacedKey(KindBlog, blog.ID)
	_, err := s.client.RunInTransaction(ctx, func(tx *datastore.Transaction) error {
		var entity BlogEntity
		if err := tx.Get(key, &entity); err != nil {
			if errors.Is(err, datastore.ErrNoSuchEntity) {
				return ob.ErrBlogNotFound
			}
			return err
		}
		entity.Title = blog.Title
		entity.Description = blog.Description
		entity.UpdatedAt = blog.UpdatedAt
		_, err := tx.Put(key, &entity)
		return err
	})
	return err
}

func (s *BlogStore) DeleteBlog(ctx context.Context, blogID string) error {
	key := s.namespacedKey(KindBlog, blogID)
	_, err := s.client.RunInTransaction(ctx, func(tx *datastore.Transaction) error {
		var entity BlogEntity
		if err := tx.Get(key, &entity); err != nil {
			if errors.Is(err, datastore.ErrNoSuchEntity) {
				return ob.ErrBlogNotFound
			}
			return err
		}
		return tx.Delete(key)
	})
	return err
}

// ============================================================================
// OTCStore
// ============================================================================

// OTCStore implements ob.OTCStore using Google Cloud Datastore. Each email
// has at most one OTC entity, so a Put replaces the previous code atomically.
type OTCStore struct {
	base
	now func() time.Time
}

func NewOTCStore(client *datastore.Client, namespace string) *OTCStore {
	return &OTCStore{base: base{client: client, namespace: namespace}, now: time.Now}
}

func (s *OTCStore) SaveOTC(ctx context.Context, rec *ob.OTCRecord) error {
	key := s.namespacedKey(KindOTC, rec.Email)
	_, err := s.client.Put(ctx, key, OTCRecordToEntity(rec, key))
	return err
}

func (s *OTCStore) FindOTC(ctx context.Context, email, code string) (*ob.OTCRecord, error) {
	var entity OTCEntity
	if err := s.client.Get(ctx, s.namespacedKey(KindOTC, email), &entity); err != nil {
		if errors.Is(err, datastore.ErrNoSuchEntity) {
			return nil, ob.ErrOTCNotFound
		}
		return nil, err
	}
	rec := entity.ToOTCRecord()
	if !rec.Matches(code) || rec.IsExpiredAt(s.now()) {
		return nil, ob.ErrOTCNotFound
	}
	return rec, nil
}

func (s *OTCStore) DeleteOTCs(ctx context.Context, email string) error {
	err := s.client.Delete(ctx, s.namespacedKey(KindOTC, email))
	if errors.Is(err, datastore.ErrNoSuchEntity) {
		return nil
	}
	return err
}

func (s *OTCStore) DeleteExpiredOTCs(ctx context.Context) error {
	q := s.query(KindOTC).FilterField("expires_at", "<=", s.now()).KeysOnly()
	keys, err := s.client.GetAll(ctx, q, nil)
	if err != nil {
		return fmt.Errorf("failed to query expired codes: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	return s.client.DeleteMulti(ctx, keys)
}
