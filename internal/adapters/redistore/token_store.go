// Package redistore provides a Redis-backed token store. Records expire
// with their token type's TTL, so abandoned sessions clean themselves up
// without a reaper.
package redistore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	domainauth "github.com/sajansharmanz/accountd/internal/domain/auth"
	"github.com/sajansharmanz/accountd/internal/domain/model"
	apperrors "github.com/sajansharmanz/accountd/internal/errors"
	"github.com/sajansharmanz/accountd/internal/ports"
)

// Ensure compile-time conformance to ports.
var _ ports.TokenStore = (*TokenStore)(nil)

// TokenStore keeps token records in Redis: one JSON value per record
// plus a per-user index set used for bulk revocation.
type TokenStore struct {
	client redis.UniversalClient
	prefix string
	ttls   map[domainauth.TokenType]time.Duration
}

// NewTokenStore creates a Redis token store with per-type TTLs.
func NewTokenStore(client redis.UniversalClient, ttls map[domainauth.TokenType]time.Duration) *TokenStore {
	return &TokenStore{client: client, prefix: "token:", ttls: ttls}
}

func (s *TokenStore) recordKey(typ domainauth.TokenType, hash string) string {
	return fmt.Sprintf("%s%s:%s", s.prefix, typ, hash)
}

func (s *TokenStore) indexKey(userID string, typ domainauth.TokenType) string {
	return fmt.Sprintf("%suser:%s:%s", s.prefix, userID, typ)
}

// Create stores a record with the type's TTL. The user index expires
// alongside its newest member.
func (s *TokenStore) Create(ctx context.Context, userID, tokenHash string, typ domainauth.TokenType) error {
	rec := model.TokenRecord{
		UserID:    userID,
		TokenHash: tokenHash,
		Type:      typ,
		CreatedAt: time.Now().UTC(),
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal token record: %w", err)
	}

	ttl := s.ttls[typ]
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.recordKey(typ, tokenHash), data, ttl)
	pipe.SAdd(ctx, s.indexKey(userID, typ), tokenHash)
	if ttl > 0 {
		pipe.Expire(ctx, s.indexKey(userID, typ), ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store token record: %w", err)
	}
	return nil
}

// FindByHash returns the record or NotFound once it expired or was
// revoked.
func (s *TokenStore) FindByHash(ctx context.Context, tokenHash string, typ domainauth.TokenType) (model.TokenRecord, error) {
	data, err := s.client.Get(ctx, s.recordKey(typ, tokenHash)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.TokenRecord{}, apperrors.NotFound("token not found")
		}
		return model.TokenRecord{}, fmt.Errorf("redis get: %w", err)
	}

	var rec model.TokenRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return model.TokenRecord{}, fmt.Errorf("unmarshal token record: %w", err)
	}
	return rec, nil
}

// DeleteByHash removes a record and its index entry. Absent records are
// a no-op.
func (s *TokenStore) DeleteByHash(ctx context.Context, tokenHash string, typ domainauth.TokenType) error {
	rec, err := s.FindByHash(ctx, tokenHash, typ)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil
		}
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.recordKey(typ, tokenHash))
	pipe.SRem(ctx, s.indexKey(rec.UserID, typ), tokenHash)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete token record: %w", err)
	}
	return nil
}

// DeleteForUser removes every record of the given type for a user.
func (s *TokenStore) DeleteForUser(ctx context.Context, userID string, typ domainauth.TokenType) error {
	hashes, err := s.client.SMembers(ctx, s.indexKey(userID, typ)).Result()
	if err != nil {
		return fmt.Errorf("read token index: %w", err)
	}

	pipe := s.client.TxPipeline()
	for _, h := range hashes {
		pipe.Del(ctx, s.recordKey(typ, h))
	}
	pipe.Del(ctx, s.indexKey(userID, typ))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete token records: %w", err)
	}
	return nil
}
