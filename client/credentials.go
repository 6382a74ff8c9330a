// Package client is a Go client for the oneblog HTTP API. It logs in, keeps
// the session token in a CredentialStore and attaches it to later calls.
package client

import (
	"time"
)

// ServerCredential is the session token held for one server
type ServerCredential struct {
	AccessToken string    `json:"access_token"`
	UserEmail   string    `json:"user_email,omitempty"`
	ExpiresAt   time.Time `json:"expires_at,omitzero"`
	CreatedAt   time.Time `json:"created_at"`
}

// IsExpired returns true if the token has expired. Tokens issued without an
// expiry (zero ExpiresAt) never expire on the client side.
func (c *ServerCredential) IsExpired() bool {
	if c.ExpiresAt.IsZero() {
		return false
	}
	return !time.Now().Before(c.ExpiresAt)
}

// CredentialStore defines the interface for storing and retrieving credentials
type CredentialStore interface {
	// GetCredential retrieves a credential for a server URL
	// Returns nil, nil if no credential exists for the server
	GetCredential(serverURL string) (*ServerCredential, error)

	// SetCredential stores a credential for a server URL
	SetCredential(serverURL string, cred *ServerCredential) error

	// RemoveCredential removes a credential for a server URL
	RemoveCredential(serverURL string) error

	// ListServers returns all server URLs with stored credentials
	ListServers() ([]string, error)

	// Save persists any pending changes (for stores that batch writes)
	Save() error
}

// MemoryStore is a CredentialStore that never touches disk
type MemoryStore struct {
	servers map[string]*ServerCredential
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{servers: make(map[string]*ServerCredential)}
}

func (m *MemoryStore) GetCredential(serverURL string) (*ServerCredential, error) {
	return m.servers[serverURL], nil
}

func (m *MemoryStore) SetCredential(serverURL string, cred *ServerCredential) error {
	m.servers[serverURL] = cred
	return nil
}

func (m *MemoryStore) RemoveCredential(serverURL string) error {
	delete(m.servers, serverURL)
	return nil
}

func (m *MemoryStore) ListServers() ([]string, error) {
	out := make([]string, 0, len(m.servers))
	for k := range m.servers {
		out = append(out, k)
	}
	return out, nil
}

func (m *MemoryStore) Save() error { return nil }
