package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/beta-access-portal/internal/model"
)

// SessionCache is the durable home of "current session account"
// copies, decoupled from the primary store. The directory reads
// through it and rehydrates from MySQL on a miss.
type SessionCache interface {
	SaveAccount(ctx context.Context, a model.Account) error
	GetAccount(ctx context.Context, accountID uint64) (model.Account, bool, error)
	DeleteAccount(ctx context.Context, accountID uint64) error
}

// RedisSessions implements SessionCache on Redis with a fixed TTL.
type RedisSessions struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisSessions(rdb *redis.Client, ttl time.Duration) *RedisSessions {
	return &RedisSessions{rdb: rdb, ttl: ttl}
}

func accountKey(id uint64) string { return fmt.Sprintf("session:account:%d", id) }

func (s *RedisSessions) SaveAccount(ctx context.Context, a model.Account) error {
	body, err := json.Marshal(a)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, accountKey(a.ID), body, s.ttl).Err()
}

func (s *RedisSessions) GetAccount(ctx context.Context, accountID uint64) (model.Account, bool, error) {
	body, err := s.rdb.Get(ctx, accountKey(accountID)).Bytes()
	if err == redis.Nil {
		return model.Account{}, false, nil
	}
	if err != nil {
		return model.Account{}, false, err
	}
	var a model.Account
	if err := json.Unmarshal(body, &a); err != nil {
		// Corrupt cache entry: treat as a miss so the caller rehydrates.
		return model.Account{}, false, nil
	}
	return a, true, nil
}

func (s *RedisSessions) DeleteAccount(ctx context.Context, accountID uint64) error {
	return s.rdb.Del(ctx, accountKey(accountID)).Err()
}
