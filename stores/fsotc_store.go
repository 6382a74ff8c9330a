package stores

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	ob "github.com/panyam/oneblog"
)

// FSOTCStore keeps at most one code per email in
// {StoragePath}/otcs/<sha256(email)>.json. Writing the file replaces the
// previous code in one rename, so SaveOTC is atomic per email.
type FSOTCStore struct {
	StoragePath string

	// Now is the clock used for expiry checks. Defaults to time.Now.
	Now func() time.Time

	mu sync.Mutex
}

func NewFSOTCStore(storagePath string) *FSOTCStore {
	return &FSOTCStore{StoragePath: storagePath}
}

func (s *FSOTCStore) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *FSOTCStore) otcDir() string {
	return filepath.Join(s.StoragePath, "otcs")
}

func (s *FSOTCStore) getOTCPath(email string) string {
	return filepath.Join(s.otcDir(), fileKey(email)+".json")
}

func (s *FSOTCStore) SaveOTC(ctx context.Context, rec *ob.OTCRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeJSONFile(s.getOTCPath(rec.Email), rec)
}

func (s *FSOTCStore) FindOTC(ctx context.Context, email, code string) (*ob.OTCRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rec ob.OTCRecord
	found, err := readJSONFile(s.getOTCPath(email), &rec)
	if err != nil {
		return nil, err
	}
	if !found || rec.Email != email || !rec.Matches(code) {
		return nil, ob.ErrOTCNotFound
	}
	if rec.IsExpiredAt(s.now()) {
		_ = removeFile(s.getOTCPath(email))
		return nil, ob.ErrOTCNotFound
	}
	return &rec, nil
}

func (s *FSOTCStore) DeleteOTCs(ctx context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return removeFile(s.getOTCPath(email))
}

func (s *FSOTCStore) DeleteExpiredOTCs(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.otcDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	now := s.now()
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(s.otcDir(), entry.Name())
		var rec ob.OTCRecord
		if _, err := readJSONFile(path, &rec); err != nil {
			continue
		}
		if rec.IsExpiredAt(now) {
			_ = removeFile(path)
		}
	}
	return nil
}
