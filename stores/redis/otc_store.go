// Package redis provides a Redis backed OTCStore. Each email maps to one
// key whose TTL matches the code's expiry, so Redis drops codes on its own.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	ob "github.com/panyam/oneblog"
)

type OTCStore struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

func NewOTCStore(client redis.UniversalClient, prefix string) *OTCStore {
	if prefix == "" {
		prefix = "otc"
	}
	return &OTCStore{client: client, prefix: prefix, now: time.Now}
}

func (s *OTCStore) redisKey(email string) string {
	return fmt.Sprintf("%s:%s", s.prefix, email)
}

// SaveOTC overwrites the email's key, which drops any earlier code
func (s *OTCStore) SaveOTC(ctx context.Context, rec *ob.OTCRecord) error {
	ttl := rec.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return fmt.Errorf("code for %s already expired", rec.Email)
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.redisKey(rec.Email), data, ttl).Err()
}

func (s *OTCStore) FindOTC(ctx context.Context, email, code string) (*ob.OTCRecord, error) {
	data, err := s.client.Get(ctx, s.redisKey(email)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ob.ErrOTCNotFound
	}
	if err != nil {
		return nil, err
	}
	var rec ob.OTCRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("corrupt code record: %w", err)
	}
	if rec.Email != email || !rec.Matches(code) || rec.IsExpiredAt(s.now()) {
		return nil, ob.ErrOTCNotFound
	}
	return &rec, nil
}

func (s *OTCStore) DeleteOTCs(ctx context.Context, email string) error {
	return s.client.Del(ctx, s.redisKey(email)).Err()
}

// DeleteExpiredOTCs is a no-op: key TTLs handle expiry
func (s *OTCStore) DeleteExpiredOTCs(ctx context.Context) error {
	return nil
}
