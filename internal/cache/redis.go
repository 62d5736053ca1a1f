// Package cache wraps Redis for ephemeral counters shared across handlers.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/chatrizz/backend/internal/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisClient wraps the redis.Client with centralized connection pooling
type RedisClient struct {
	client *redis.Client
}

// NewRedisClient creates and initializes a Redis client with connection pooling
func NewRedisClient(host, port, password string) (*RedisClient, error) {
	if host == "" {
		host = "localhost"
	}
	if port == "" {
		port = "6379"
	}

	addr := fmt.Sprintf("%s:%s", host, port)

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           0,
		MaxRetries:   3,
		PoolSize:     10,
		MinIdleConns: 5,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		DialTimeout:  5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.ErrorWithFields("Failed to connect to Redis", err)
		return nil, err
	}

	logger.Log.Info("Redis client connected", zap.String("address", addr))

	return &RedisClient{client: client}, nil
}

// Close closes the Redis connection gracefully
func (rc *RedisClient) Close() error {
	if rc == nil || rc.client == nil {
		return nil
	}
	return rc.client.Close()
}

func unreadKey(userID, chatID string) string {
	return fmt.Sprintf("unread:%s:%s", userID, chatID)
}

// IncrUnread bumps the unread counter for (user, chat)
func (rc *RedisClient) IncrUnread(ctx context.Context, userID, chatID string) error {
	if rc == nil {
		return nil
	}
	return rc.client.Incr(ctx, unreadKey(userID, chatID)).Err()
}

// ResetUnread clears the unread counter for (user, chat)
func (rc *RedisClient) ResetUnread(ctx context.Context, userID, chatID string) error {
	if rc == nil {
		return nil
	}
	return rc.client.Del(ctx, unreadKey(userID, chatID)).Err()
}

// UnreadCount returns the unread counter for (user, chat); 0 when absent
func (rc *RedisClient) UnreadCount(ctx context.Context, userID, chatID string) (int64, error) {
	if rc == nil {
		return 0, nil
	}
	n, err := rc.client.Get(ctx, unreadKey(userID, chatID)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return n, err
}
