package oneblog

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"
)

// DefaultOTCExpiry is how long an issued code stays valid
const DefaultOTCExpiry = 10 * time.Minute

const (
	otcMin = 100000
	otcMax = 999999
)

// ErrInvalidCode covers unknown, mismatched and expired codes alike
var ErrInvalidCode = errors.New("invalid or expired code")

// GenerateOTC returns a uniformly random six digit code
func GenerateOTC() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(otcMax-otcMin+1))
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+otcMin), nil
}

// OTCManager issues and checks password reset codes. At most one code is
// outstanding per email; issuing a new one invalidates the previous.
type OTCManager struct {
	Store    OTCStore
	Expiry   time.Duration
	Now      func() time.Time
	Generate func() (string, error)

	mu    sync.Mutex
	locks map[string]*emailLock
}

type emailLock struct {
	sync.Mutex
	refs int
}

func NewOTCManager(store OTCStore, expiry time.Duration) *OTCManager {
	return &OTCManager{Store: store, Expiry: expiry}
}

func (m *OTCManager) expiry() time.Duration {
	if m.Expiry <= 0 {
		return DefaultOTCExpiry
	}
	return m.Expiry
}

func (m *OTCManager) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

func (m *OTCManager) generate() (string, error) {
	if m.Generate != nil {
		return m.Generate()
	}
	return GenerateOTC()
}

func (m *OTCManager) lock(email string) func() {
	m.mu.Lock()
	if m.locks == nil {
		m.locks = make(map[string]*emailLock)
	}
	l, ok := m.locks[email]
	if !ok {
		l = &emailLock{}
		m.locks[email] = l
	}
	l.refs++
	m.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		m.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(m.locks, email)
		}
		m.mu.Unlock()
	}
}

// Issue creates a fresh code for the email, replacing any outstanding one
func (m *OTCManager) Issue(ctx context.Context, email string) (string, error) {
	code, err := m.generate()
	if err != nil {
		return "", err
	}
	unlock := m.lock(email)
	defer unlock()

	now := m.now()
	rec := &OTCRecord{
		Email:     email,
		Code:      code,
		CreatedAt: now,
		ExpiresAt: now.Add(m.expiry()),
	}
	if err := m.Store.SaveOTC(ctx, rec); err != nil {
		return "", fmt.Errorf("failed to save code: %w", err)
	}
	return code, nil
}

// Consume checks a submitted code. It does not delete it; call Discard
// once the reset has been applied.
func (m *OTCManager) Consume(ctx context.Context, email, code string) error {
	rec, err := m.Store.FindOTC(ctx, email, code)
	if errors.Is(err, ErrOTCNotFound) {
		return ErrInvalidCode
	} else if err != nil {
		return fmt.Errorf("failed to look up code: %w", err)
	}
	if rec.IsExpiredAt(m.now()) || !rec.Matches(code) {
		return ErrInvalidCode
	}
	return nil
}

// Discard removes every code held for the email
func (m *OTCManager) Discard(ctx context.Context, email string) error {
	unlock := m.lock(email)
	defer unlock()
	return m.Store.DeleteOTCs(ctx, email)
}

// Reap purges expired codes from the store
func (m *OTCManager) Reap(ctx context.Context) error {
	return m.Store.DeleteExpiredOTCs(ctx)
}
