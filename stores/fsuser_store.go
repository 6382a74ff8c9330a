package stores

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	ob "github.com/panyam/oneblog"
)

// emailIndex maps an email to the owning user id
type emailIndex struct {
	Email  string `json:"email"`
	UserID string `json:"user_id"`
}

// FSUserStore stores users as JSON files.
//
//	{StoragePath}/
//	├── users/<user id>.json
//	└── user_emails/<sha256(email)>.json   # {"email": ..., "user_id": ...}
//
// A process wide mutex serialises writes so email uniqueness holds for a
// single process. Do not point two processes at the same directory.
type FSUserStore struct {
	StoragePath string
	mu          sync.RWMutex
}

func NewFSUserStore(storagePath string) *FSUserStore {
	return &FSUserStore{StoragePath: storagePath}
}

func (s *FSUserStore) getUserPath(userID string) string {
	return filepath.Join(s.StoragePath, "users", userID+".json")
}

func (s *FSUserStore) getEmailPath(email string) string {
	return filepath.Join(s.StoragePath, "user_emails", fileKey(email)+".json")
}

func (s *FSUserStore) CreateUser(ctx context.Context, user *ob.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var idx emailIndex
	found, err := readJSONFile(s.getEmailPath(user.Email), &idx)
	if err != nil {
		return err
	}
	if found {
		return ob.ErrEmailExists
	}

	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = user.CreatedAt
	}
	if err := writeJSONFile(s.getUserPath(user.ID), user); err != nil {
		return err
	}
	return writeJSONFile(s.getEmailPath(user.Email), &emailIndex{Email: user.Email, UserID: user.ID})
}

func (s *FSUserStore) readUser(userID string) (*ob.User, error) {
	var user ob.User
	found, err := readJSONFile(s.getUserPath(userID), &user)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ob.ErrUserNotFound
	}
	return &user, nil
}

func (s *FSUserStore) GetUserById(ctx context.Context, userID string) (*ob.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.readUser(userID)
}

func (s *FSUserStore) GetUserByEmail(ctx context.Context, email string) (*ob.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var idx emailIndex
	found, err := readJSONFile(s.getEmailPath(email), &idx)
	if err != nil {
		return nil, err
	}
	// guards against hash collisions, however unlikely
	if !found || idx.Email != email {
		return nil, ob.ErrUserNotFound
	}
	return s.readUser(idx.UserID)
}

func (s *FSUserStore) UpdatePasswordHash(ctx context.Context, userID string, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.readUser(userID)
	if err != nil {
		return err
	}
	user.PasswordHash = passwordHash
	user.UpdatedAt = time.Now()
	return writeJSONFile(s.getUserPath(userID), user)
}
