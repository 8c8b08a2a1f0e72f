package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

// ログイン失敗回数の上限管理。複数インスタンスで共有するためRedisに持つ
type LoginLimiter interface {
	// 上限に達していればtrue
	Blocked(ctx context.Context, identity string) (bool, error)
	// 失敗を1回記録
	RecordFailure(ctx context.Context, identity string) error
	// 成功時にリセット
	Reset(ctx context.Context, identity string) error
}

type RedisLoginLimiter struct {
	rdb         *redis.Client
	maxAttempts int64
	window      time.Duration
}

func NewRedisLoginLimiter(rdb *redis.Client, maxAttempts int, window time.Duration) *RedisLoginLimiter {
	return &RedisLoginLimiter{
		rdb:         rdb,
		maxAttempts: int64(maxAttempts),
		window:      window,
	}
}

// NewClient はRedisに接続し、疎通確認まで行う
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return rdb, nil
}

func key(identity string) string {
	return "login_fail:" + strings.ToLower(strings.TrimSpace(identity))
}

func (l *RedisLoginLimiter) Blocked(ctx context.Context, identity string) (bool, error) {
	n, err := l.rdb.Get(ctx, key(identity)).Int64()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return n >= l.maxAttempts, nil
}

// 最初の失敗でTTLを付ける（固定ウィンドウ）
func (l *RedisLoginLimiter) RecordFailure(ctx context.Context, identity string) error {
	k := key(identity)
	n, err := l.rdb.Incr(ctx, k).Result()
	if err != nil {
		return err
	}
	if n == 1 {
		return l.rdb.Expire(ctx, k, l.window).Err()
	}
	return nil
}

func (l *RedisLoginLimiter) Reset(ctx context.Context, identity string) error {
	return l.rdb.Del(ctx, key(identity)).Err()
}

// Redis未設定時（ローカル開発）用
type NoopLoginLimiter struct{}

func (NoopLoginLimiter) Blocked(context.Context, string) (bool, error) { return false, nil }
func (NoopLoginLimiter) RecordFailure(context.Context, string) error   { return nil }
func (NoopLoginLimiter) Reset(context.Context, string) error           { return nil }
