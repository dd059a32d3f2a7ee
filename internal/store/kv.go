package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

var ErrMiss = errors.New("cache miss")

// KV 键值缓存接口（最近净重等实时数据）
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
}

type RedisKV struct {
	c *redis.Client
}

func NewRedisKV(c *redis.Client) *RedisKV { return &RedisKV{c: c} }

func (r *RedisKV) Get(ctx context.Context, key string) (string, error) {
	val, err := r.c.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", ErrMiss
		}
		return "", err
	}
	return val, nil
}

func (r *RedisKV) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	return r.c.Set(ctx, key, value, ttl).Err()
}

// BinCurrentWeightKey 垃圾桶最近净重缓存键
func BinCurrentWeightKey(binID string) string {
	return "waste:bin:" + binID + ":current"
}

// SetBinCurrentWeight 写入垃圾桶最近净重（缓存值，非权威记录）
func SetBinCurrentWeight(ctx context.Context, kv KV, binID string, netWeight float64) error {
	return kv.Set(ctx, BinCurrentWeightKey(binID), strconv.FormatFloat(netWeight, 'f', -1, 64), 0)
}

// GetBinCurrentWeight 读取垃圾桶最近净重
func GetBinCurrentWeight(ctx context.Context, kv KV, binID string) (float64, error) {
	val, err := kv.Get(ctx, BinCurrentWeightKey(binID))
	if err != nil {
		return 0, err
	}
	weight, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid cached weight %q: %w", val, err)
	}
	return weight, nil
}
