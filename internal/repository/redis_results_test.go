package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/anime-shed/anemia-screen-go/pkg/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisRepository(t *testing.T, historyLimit int) (*redisResultRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	repo := newRedisResultRepository(redis.NewClient(&redis.Options{Addr: mr.Addr()}), historyLimit)
	t.Cleanup(func() { repo.Close() })
	return repo, mr
}

func TestRedisKeys(t *testing.T) {
	assert.Equal(t, "anemia:result:abc", resultKey("abc"))
	assert.Equal(t, "anemia:history:user-1", historyKey("user-1"))
}

func TestNewRedisResultRepository_DefaultHistoryLimit(t *testing.T) {
	repo := newRedisResultRepository(nil, 0)
	assert.Equal(t, int64(100), repo.historyLimit)

	repo = newRedisResultRepository(nil, 7)
	assert.Equal(t, int64(7), repo.historyLimit)
}

func TestDecodeHistory(t *testing.T) {
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	older, err := json.Marshal(sampleResult("older", "u", base, models.TierNormal))
	require.NoError(t, err)
	newer, err := json.Marshal(sampleResult("newer", "u", base.Add(time.Hour), models.TierMildRisk))
	require.NoError(t, err)

	// nil marks an ID whose value expired
	list, err := decodeHistory([]interface{}{string(older), nil, string(newer)})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "newer", list[0].ID)
	assert.Equal(t, models.TierMildRisk, list[0].Assessment.Tier)

	_, err = decodeHistory([]interface{}{"not json"})
	assert.Error(t, err)
}

func TestRedisResultRepository_SaveAndGet(t *testing.T) {
	repo, mr := newTestRedisRepository(t, 10)
	ctx := context.Background()
	result := sampleResult("a", "user-1", time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC), models.TierHighRisk)

	require.NoError(t, repo.Save(ctx, result))

	got, err := repo.Get(ctx, "a")
	require.NoError(t, err)
	if diff := cmp.Diff(result, got); diff != "" {
		t.Errorf("stored result mismatch (-want +got):\n%s", diff)
	}

	ids, err := mr.List(historyKey("user-1"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ids)

	_, err = repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrResultNotFound)

	assert.ErrorIs(t, repo.Save(ctx, &models.AnalysisResult{}), ErrInvalidResult)
}

func TestRedisResultRepository_AnonymousResultHasNoHistory(t *testing.T) {
	repo, mr := newTestRedisRepository(t, 10)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, sampleResult("anon", "", time.Now().UTC(), models.TierNormal)))

	assert.True(t, mr.Exists(resultKey("anon")))
	assert.False(t, mr.Exists(historyKey("")))
}

func TestRedisResultRepository_ListByUserNewestFirst(t *testing.T) {
	repo, _ := newTestRedisRepository(t, 10)
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	// saved out of timestamp order
	require.NoError(t, repo.Save(ctx, sampleResult("mid", "user-1", base.Add(time.Hour), models.TierMildRisk)))
	require.NoError(t, repo.Save(ctx, sampleResult("new", "user-1", base.Add(2*time.Hour), models.TierNormal)))
	require.NoError(t, repo.Save(ctx, sampleResult("old", "user-1", base, models.TierHighRisk)))
	require.NoError(t, repo.Save(ctx, sampleResult("other", "user-2", base, models.TierNormal)))

	list, err := repo.ListByUser(ctx, "user-1", 0)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "new", list[0].ID)
	assert.Equal(t, "mid", list[1].ID)
	assert.Equal(t, "old", list[2].ID)

	limited, err := repo.ListByUser(ctx, "user-1", 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	empty, err := repo.ListByUser(ctx, "nobody", 5)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestRedisResultRepository_HistoryCapDeletesTrimmedResults(t *testing.T) {
	const limit = 3
	repo, mr := newTestRedisRepository(t, limit)
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < limit+2; i++ {
		id := fmt.Sprintf("r%d", i)
		require.NoError(t, repo.Save(ctx, sampleResult(id, "user-1", base.Add(time.Duration(i)*time.Minute), models.TierNormal)))
	}

	ids, err := mr.List(historyKey("user-1"))
	require.NoError(t, err)
	assert.Equal(t, []string{"r4", "r3", "r2"}, ids)

	for _, gone := range []string{"r0", "r1"} {
		assert.False(t, mr.Exists(resultKey(gone)), "trimmed result %s should be deleted", gone)
		_, err := repo.Get(ctx, gone)
		assert.ErrorIs(t, err, ErrResultNotFound)
	}
	for _, kept := range ids {
		assert.True(t, mr.Exists(resultKey(kept)))
	}

	list, err := repo.ListByUser(ctx, "user-1", 0)
	require.NoError(t, err)
	assert.Len(t, list, limit)
}

func TestRedisResultRepository_ResaveKeepsValue(t *testing.T) {
	repo, _ := newTestRedisRepository(t, 1)
	ctx := context.Background()
	result := sampleResult("same", "user-1", time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), models.TierNormal)

	require.NoError(t, repo.Save(ctx, result))
	result.Assessment.Tier = models.TierSevereRisk
	require.NoError(t, repo.Save(ctx, result))

	got, err := repo.Get(ctx, "same")
	require.NoError(t, err)
	assert.Equal(t, models.TierSevereRisk, got.Assessment.Tier)
}

func TestRedisResultRepository_Unavailable(t *testing.T) {
	repo, mr := newTestRedisRepository(t, 10)
	mr.Close()

	err := repo.Save(context.Background(), sampleResult("a", "user-1", time.Now().UTC(), models.TierNormal))
	assert.Error(t, err)
}
