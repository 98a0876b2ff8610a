package embedder

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bodhirag/catalog-backend/internal/cfg"
	"github.com/bodhirag/catalog-backend/pkg/e"
	"github.com/bodhirag/catalog-backend/pkg/logger"
)

func newTestEmbedder(probe func(ctx context.Context) error) *Embedder {
	em := NewEmbedder(&cfg.EmbedderCfg{Model: "test-model", Dimensions: 3}, logger.NewSlogLogger())
	em.probe = probe
	return em
}

func TestInitIdempotent(t *testing.T) {
	probes := 0
	em := newTestEmbedder(func(_ context.Context) error {
		probes++
		return nil
	})

	require.NoError(t, em.Init(context.Background()))
	require.NoError(t, em.Init(context.Background()))

	assert.True(t, em.Ready())
	assert.Equal(t, 1, probes, "repeated Init must not re-probe a ready embedder")
}

func TestEnsureReadyRecoversAfterFailedStartup(t *testing.T) {
	probeErr := errors.New("model endpoint unavailable")
	probes := 0
	em := newTestEmbedder(func(_ context.Context) error {
		probes++
		if probes == 1 {
			return probeErr
		}
		return nil
	})

	// сбой фоновой инициализации на старте
	require.Error(t, em.Init(context.Background()))
	require.False(t, em.Ready())

	// следующий запрос лениво повторяет инициализацию и восстанавливается
	em.nextInit = time.Time{}
	require.NoError(t, em.ensureReady(context.Background()))
	assert.True(t, em.Ready())
	assert.Equal(t, 2, probes)
}

func TestEnsureReadyThrottlesProbes(t *testing.T) {
	probes := 0
	em := newTestEmbedder(func(_ context.Context) error {
		probes++
		return errors.New("still down")
	})

	err := em.ensureReady(context.Background())
	assert.ErrorIs(t, err, e.ErrEmbedderNotReady)
	require.Equal(t, 1, probes)

	// повторный вызов внутри интервала не бьёт по API
	err = em.ensureReady(context.Background())
	assert.ErrorIs(t, err, e.ErrEmbedderNotReady)
	assert.Equal(t, 1, probes, "probe must be rate limited while not ready")
}
