package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"omnitask/backend/internal/models"

	"github.com/redis/go-redis/v9"
)

// SnapshotKey is the single process-wide slot holding the serialized task
// list, the server-side analog of the browser local-storage key.
const SnapshotKey = "omnitask:data"

type RedisStorage struct {
	client       *redis.Client
	key          string
	readTimeout  time.Duration
	writeTimeout time.Duration
}

type RedisConfig struct {
	Addr         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	MaxRetries   int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

func DefaultRedisConfig() *RedisConfig {
	return &RedisConfig{
		Addr:         "localhost:6379",
		Password:     "",
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 5,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

func NewRedisStorage(config *RedisConfig) *RedisStorage {
	if config == nil {
		config = DefaultRedisConfig()
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         config.Addr,
		Password:     config.Password,
		DB:           config.DB,
		PoolSize:     config.PoolSize,
		MinIdleConns: config.MinIdleConns,
		MaxRetries:   config.MaxRetries,
		DialTimeout:  config.DialTimeout,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	})

	return &RedisStorage{
		client:       rdb,
		key:          SnapshotKey,
		readTimeout:  config.ReadTimeout,
		writeTimeout: config.WriteTimeout,
	}
}

// Client exposes the underlying connection for collaborators that share the
// same redis instance, such as the reminder worker.
func (r *RedisStorage) Client() *redis.Client {
	return r.client
}

func (r *RedisStorage) Load(ctx context.Context) ([]models.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, r.readTimeout)
	defer cancel()

	data, err := r.client.Get(ctx, r.key).Result()
	if err != nil {
		if err == redis.Nil {
			return []models.Task{}, nil
		}
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	var tasks []models.Task
	if err := json.Unmarshal([]byte(data), &tasks); err != nil {
		log.Printf("Corrupt snapshot at %s, starting empty: %v", r.key, err)
		return []models.Task{}, nil
	}

	return models.NormalizeAll(tasks), nil
}

func (r *RedisStorage) Save(ctx context.Context, tasks []models.Task) error {
	data, err := json.Marshal(tasks)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.writeTimeout)
	defer cancel()

	if err := r.client.Set(ctx, r.key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}

	return nil
}

func (r *RedisStorage) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	return r.client.Ping(ctx).Err()
}

func (r *RedisStorage) Close() error {
	return r.client.Close()
}
