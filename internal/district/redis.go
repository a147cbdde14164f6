package district

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore shares the resolution cache across instances. Same contract as
// MemStore; redis handles expiry server-side so there is no injected clock.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore wraps an existing client. Nil client yields a nil store so
// callers can fall back to memory without a special case.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

// OpenRedisFromEnv builds a client from REDIS_HOST/REDIS_PORT/REDIS_PASS/
// REDIS_DB. Returns nil when REDIS_HOST is unset, which disables the redis
// store entirely.
func OpenRedisFromEnv() *redis.Client {
	host := os.Getenv("REDIS_HOST")
	if host == "" {
		return nil
	}
	port := os.Getenv("REDIS_PORT")
	if port == "" {
		port = "6379"
	}
	db := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			db = n
		}
	}
	return redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: os.Getenv("REDIS_PASS"),
		DB:       db,
	})
}

const redisKeyPrefix = "district:zip:"

func (s *RedisStore) Get(ctx context.Context, zip string) (Record, bool) {
	raw, err := s.client.Get(ctx, redisKeyPrefix+zip).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("[RedisStore] get zip=%s err=%v", zip, err)
		}
		return Record{}, false
	}
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		log.Printf("[RedisStore] decode zip=%s err=%v", zip, err)
		return Record{}, false
	}
	return rec, true
}

func (s *RedisStore) Set(ctx context.Context, zip string, rec Record) {
	raw, err := json.Marshal(rec)
	if err != nil {
		log.Printf("[RedisStore] encode zip=%s err=%v", zip, err)
		return
	}
	if err := s.client.Set(ctx, redisKeyPrefix+zip, raw, s.ttl).Err(); err != nil {
		log.Printf("[RedisStore] set zip=%s err=%v", zip, err)
	}
}

func (s *RedisStore) Flush(ctx context.Context) {
	iter := s.client.Scan(ctx, 0, redisKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			log.Printf("[RedisStore] flush key=%s err=%v", iter.Val(), err)
		}
	}
	if err := iter.Err(); err != nil {
		log.Printf("[RedisStore] flush scan err=%v", err)
	}
}
