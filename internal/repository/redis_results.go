package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/anime-shed/anemia-screen-go/pkg/models"

	"github.com/redis/go-redis/v9"
)

const (
	resultKeyPrefix  = "anemia:result:"
	historyKeyPrefix = "anemia:history:"

	// concurrent saves for one user retry the history update this often
	maxSaveAttempts = 3
)

// redisResultRepository stores results as JSON values with a capped
// per-user list of IDs, newest first
type redisResultRepository struct {
	rdb          *redis.Client
	historyLimit int64
}

// NewRedisResultRepository connects to Redis and verifies the connection
func NewRedisResultRepository(addr, password string, db int, historyLimit int) (ResultRepository, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("%w: redis ping: %v", ErrRepositoryUnavailable, err)
	}

	return newRedisResultRepository(rdb, historyLimit), nil
}

func newRedisResultRepository(rdb *redis.Client, historyLimit int) *redisResultRepository {
	if historyLimit <= 0 {
		historyLimit = 100
	}
	return &redisResultRepository{rdb: rdb, historyLimit: int64(historyLimit)}
}

func resultKey(id string) string {
	return resultKeyPrefix + id
}

func historyKey(userID string) string {
	return historyKeyPrefix + userID
}

func (r *redisResultRepository) Save(ctx context.Context, result *models.AnalysisResult) error {
	if result == nil || result.ID == "" {
		return ErrInvalidResult
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	if result.UserID == "" {
		if err := r.rdb.Set(ctx, resultKey(result.ID), payload, 0).Err(); err != nil {
			return fmt.Errorf("redis save: %w", err)
		}
		return nil
	}

	key := historyKey(result.UserID)
	save := func(tx *redis.Tx) error {
		// IDs from historyLimit-1 on drop off the list once the new ID is pushed
		evicted, err := tx.LRange(ctx, key, r.historyLimit-1, -1).Result()
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, resultKey(result.ID), payload, 0)
			pipe.LPush(ctx, key, result.ID)
			pipe.LTrim(ctx, key, 0, r.historyLimit-1)
			for _, id := range evicted {
				if id != result.ID {
					pipe.Del(ctx, resultKey(id))
				}
			}
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxSaveAttempts; attempt++ {
		err = r.rdb.Watch(ctx, save, key)
		if !errors.Is(err, redis.TxFailedErr) {
			break
		}
	}
	if err != nil {
		return fmt.Errorf("redis save: %w", err)
	}
	return nil
}

func (r *redisResultRepository) Get(ctx context.Context, id string) (*models.AnalysisResult, error) {
	payload, err := r.rdb.Get(ctx, resultKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrResultNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var result models.AnalysisResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("decode result %s: %w", id, err)
	}
	return &result, nil
}

func (r *redisResultRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*models.AnalysisResult, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}

	ids, err := r.rdb.LRange(ctx, historyKey(userID), 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("redis history: %w", err)
	}
	if len(ids) == 0 {
		return []*models.AnalysisResult{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = resultKey(id)
	}
	values, err := r.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis mget: %w", err)
	}

	return decodeHistory(values)
}

// decodeHistory skips entries whose value expired or was deleted
func decodeHistory(values []interface{}) ([]*models.AnalysisResult, error) {
	list := make([]*models.AnalysisResult, 0, len(values))
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var result models.AnalysisResult
		if err := json.Unmarshal([]byte(s), &result); err != nil {
			return nil, fmt.Errorf("decode history entry: %w", err)
		}
		list = append(list, &result)
	}
	sortNewestFirst(list)
	return list, nil
}

func (r *redisResultRepository) Close() error {
	return r.rdb.Close()
}
