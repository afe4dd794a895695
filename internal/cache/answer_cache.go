package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// AnswerCache 基于Redis的答案缓存。未配置时所有操作静默跳过，
// 问答流程不依赖缓存可用性
type AnswerCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewAnswerCache 创建答案缓存
func NewAnswerCache(addr, password string, db int, ttl time.Duration) *AnswerCache {
	if addr == "" {
		return &AnswerCache{}
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &AnswerCache{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
		ttl: ttl,
	}
}

// Key 由问题与top_k构造缓存键
func Key(question string, topK int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%d:%s", topK, question)))
	return "answer:" + hex.EncodeToString(sum[:16])
}

// Get 返回缓存的序列化答案；未命中或Redis不可用返回false
func (c *AnswerCache) Get(ctx context.Context, key string) ([]byte, bool) {
	if c.client == nil {
		return nil, false
	}
	val, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return val, true
}

// Set 写入缓存，错误忽略
func (c *AnswerCache) Set(ctx context.Context, key string, value []byte) {
	if c.client == nil {
		return
	}
	_ = c.client.Set(ctx, key, value, c.ttl).Err()
}

// Enabled 缓存是否可用
func (c *AnswerCache) Enabled() bool {
	return c.client != nil
}

// Close 关闭Redis连接
func (c *AnswerCache) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}
