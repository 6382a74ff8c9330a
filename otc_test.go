package oneblog

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"testing"
	"time"
)

// memOTCStore is a map backed OTCStore for tests in this package
type memOTCStore struct {
	mu   sync.Mutex
	recs map[string]OTCRecord
	now  func() time.Time
}

func newMemOTCStore(now func() time.Time) *memOTCStore {
	return &memOTCStore{recs: map[string]OTCRecord{}, now: now}
}

func (s *memOTCStore) SaveOTC(ctx context.Context, rec *OTCRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs[rec.Email] = *rec
	return nil
}

func (s *memOTCStore) FindOTC(ctx context.Context, email, code string) (*OTCRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.recs[email]
	if !ok || rec.Code != code || rec.IsExpiredAt(s.now()) {
		return nil, ErrOTCNotFound
	}
	return &rec, nil
}

func (s *memOTCStore) DeleteOTCs(ctx context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.recs, email)
	return nil
}

func (s *memOTCStore) DeleteExpiredOTCs(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, rec := range s.recs {
		if rec.IsExpiredAt(s.now()) {
			delete(s.recs, k)
		}
	}
	return nil
}

func TestGenerateOTC(t *testing.T) {
	for i := 0; i < 1000; i++ {
		code, err := GenerateOTC()
		if err != nil {
			t.Fatalf("GenerateOTC() error = %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("code %q is not 6 characters", code)
		}
		n, err := strconv.Atoi(code)
		if err != nil || n < 100000 || n > 999999 {
			t.Fatalf("code %q out of range", code)
		}
	}
}

func TestOTCManager_IssueReplacesPrevious(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	seq := 0
	m := &OTCManager{
		Store: newMemOTCStore(clock),
		Now:   clock,
		Generate: func() (string, error) {
			seq++
			return fmt.Sprintf("%06d", 100000+seq), nil
		},
	}

	first, _ := m.Issue(ctx, "a@example.com")
	second, _ := m.Issue(ctx, "a@example.com")
	if first == second {
		t.Fatal("expected distinct codes")
	}
	if err := m.Consume(ctx, "a@example.com", first); !errors.Is(err, ErrInvalidCode) {
		t.Errorf("superseded code accepted: %v", err)
	}
	if err := m.Consume(ctx, "a@example.com", second); err != nil {
		t.Errorf("latest code rejected: %v", err)
	}
	// Consume does not delete
	if err := m.Consume(ctx, "a@example.com", second); err != nil {
		t.Errorf("code should remain until discarded: %v", err)
	}
	if err := m.Discard(ctx, "a@example.com"); err != nil {
		t.Fatalf("Discard() error = %v", err)
	}
	if err := m.Consume(ctx, "a@example.com", second); !errors.Is(err, ErrInvalidCode) {
		t.Errorf("discarded code accepted: %v", err)
	}
}

func TestOTCManager_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	m := &OTCManager{Store: newMemOTCStore(clock), Now: clock, Expiry: 10 * time.Minute}

	code, _ := m.Issue(ctx, "a@example.com")

	now = now.Add(10*time.Minute - time.Second)
	if err := m.Consume(ctx, "a@example.com", code); err != nil {
		t.Errorf("code rejected just before expiry: %v", err)
	}
	now = now.Add(time.Second)
	if err := m.Consume(ctx, "a@example.com", code); !errors.Is(err, ErrInvalidCode) {
		t.Errorf("code accepted at expiry: %v", err)
	}

	if err := m.Reap(ctx); err != nil {
		t.Fatalf("Reap() error = %v", err)
	}
}

func TestOTCManager_WrongEmailOrCode(t *testing.T) {
	ctx := context.Background()
	m := &OTCManager{Store: newMemOTCStore(time.Now)}
	code, _ := m.Issue(ctx, "a@example.com")

	if err := m.Consume(ctx, "b@example.com", code); !errors.Is(err, ErrInvalidCode) {
		t.Errorf("code accepted for other email: %v", err)
	}
	if err := m.Consume(ctx, "a@example.com", "000000"); !errors.Is(err, ErrInvalidCode) {
		t.Errorf("wrong code accepted: %v", err)
	}
}

func TestOTCManager_ConcurrentIssue(t *testing.T) {
	ctx := context.Background()
	m := &OTCManager{Store: newMemOTCStore(time.Now)}

	var wg sync.WaitGroup
	codes := make([]string, 20)
	for i := range codes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			codes[i], _ = m.Issue(ctx, "a@example.com")
		}(i)
	}
	wg.Wait()

	usable := map[string]bool{}
	for _, c := range codes {
		if m.Consume(ctx, "a@example.com", c) == nil {
			usable[c] = true
		}
	}
	if len(usable) != 1 {
		t.Errorf("%d distinct usable codes after concurrent issue, want 1", len(usable))
	}
	if len(m.locks) != 0 {
		t.Errorf("per-email locks leaked: %d", len(m.locks))
	}
}
