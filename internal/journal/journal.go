// Package journal 在 Redis 中记录投票交易的提交状态，调用方据此判断某个意图是否已经提交过。
// 这里只记录，不做自动重试。
package journal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	intentPrefix    = "governance:intent"
	signaturePrefix = "governance:signature"

	defaultTTL = 24 * time.Hour
)

// ErrAlreadySubmitted 意图处于 pending、confirmed 或 unconfirmed 状态
var ErrAlreadySubmitted = errors.New("intent already submitted")

// RedisJournal 管理 Redis 中的意图状态记录（幂等控制）
type RedisJournal struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisJournal(rdb *redis.Client, ttl time.Duration) *RedisJournal {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RedisJournal{rdb: rdb, ttl: ttl}
}

func intentKey(intent Intent) string {
	return fmt.Sprintf("%s:%s", intentPrefix, intent)
}

func signatureKey(intent Intent) string {
	return fmt.Sprintf("%s:%s", signaturePrefix, intent)
}

// GetStatus 获取意图状态
func (j *RedisJournal) GetStatus(ctx context.Context, intent Intent) (Status, error) {
	val, err := j.rdb.Get(ctx, intentKey(intent)).Int()
	switch {
	case errors.Is(err, redis.Nil):
		return StatusUnknown, nil
	case err != nil:
		return StatusUnknown, fmt.Errorf("redis get error: %w", err)
	}
	switch s := Status(val); s {
	case StatusConfirmed, StatusFailed, StatusPending, StatusUnconfirmed:
		return s, nil
	default:
		return StatusUnknown, nil
	}
}

// Begin 原子地把意图标记为 pending。
// 意图不存在或上次失败时成功；pending / confirmed / unconfirmed 时返回 ErrAlreadySubmitted。
// unconfirmed 需要调用方按签名查明结果后用 MarkStatus 改写。
func (j *RedisJournal) Begin(ctx context.Context, intent Intent) error {
	key := intentKey(intent)
	ok, err := j.rdb.SetNX(ctx, key, int(StatusPending), j.ttl).Result()
	if err != nil {
		return fmt.Errorf("redis setnx error: %w", err)
	}
	if ok {
		return nil
	}

	// 只允许从 failed 切换回 pending，用 WATCH 保证并发下只有一个调用方成功
	err = j.rdb.Watch(ctx, func(tx *redis.Tx) error {
		val, err := tx.Get(ctx, key).Int()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if err == nil && Status(val) != StatusFailed {
			return fmt.Errorf("%w: %s is %s", ErrAlreadySubmitted, intent, Status(val))
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, int(StatusPending), j.ttl)
			return nil
		})
		return err
	}, key)
	if errors.Is(err, redis.TxFailedErr) {
		return fmt.Errorf("%w: %s changed concurrently", ErrAlreadySubmitted, intent)
	}
	return err
}

// MarkStatus 通用设置意图状态
func (j *RedisJournal) MarkStatus(ctx context.Context, intent Intent, status Status) error {
	return j.rdb.Set(ctx, intentKey(intent), int(status), j.ttl).Err()
}

// MarkConfirmed 标记已确认并记录签名
func (j *RedisJournal) MarkConfirmed(ctx context.Context, intent Intent, signature string) error {
	_, err := j.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, intentKey(intent), int(StatusConfirmed), j.ttl)
		pipe.Set(ctx, signatureKey(intent), signature, j.ttl)
		return nil
	})
	return err
}

// MarkFailed 标记失败；signature 可能为空（未发送成功）
func (j *RedisJournal) MarkFailed(ctx context.Context, intent Intent, signature string) error {
	return j.finish(ctx, intent, StatusFailed, signature)
}

// MarkUnconfirmed 交易已发送但确认超时或被取消
func (j *RedisJournal) MarkUnconfirmed(ctx context.Context, intent Intent, signature string) error {
	return j.finish(ctx, intent, StatusUnconfirmed, signature)
}

func (j *RedisJournal) finish(ctx context.Context, intent Intent, status Status, signature string) error {
	_, err := j.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, intentKey(intent), int(status), j.ttl)
		if signature != "" {
			pipe.Set(ctx, signatureKey(intent), signature, j.ttl)
		}
		return nil
	})
	return err
}

// Signature 返回意图最后一次提交的交易签名，不存在时返回空串
func (j *RedisJournal) Signature(ctx context.Context, intent Intent) (string, error) {
	sig, err := j.rdb.Get(ctx, signatureKey(intent)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("redis get error: %w", err)
	}
	return sig, nil
}
