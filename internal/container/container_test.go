package container

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/anime-shed/anemia-screen-go/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewContainer_MemoryBackend(t *testing.T) {
	cfg := &config.Config{
		Host:               "127.0.0.1",
		Port:               "8080",
		RequestTimeout:     5 * time.Second,
		FetchTimeout:       5 * time.Second,
		ValidationTimeout:  5 * time.Second,
		MaxRequestBodySize: 1 << 20,
		SampleStride:       4,
		RenderHeatmap:      true,
		BatchWorkers:       2,
		MaxBatchSize:       4,
		StoreBackend:       config.StoreMemory,
		RedisHistoryLimit:  50,
	}

	c, err := NewContainer(cfg)
	require.NoError(t, err)
	defer c.Close()

	assert.Same(t, cfg, c.Config())
	assert.NotNil(t, c.Service())

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
