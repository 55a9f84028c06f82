package syncer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"cart-tracker/internal/types"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSyncer(t *testing.T, endpoint string) *Syncer {
	t.Helper()
	settings := types.Settings{SyncEnabled: true, APIEndpoint: endpoint}
	config := types.DefaultConfig()
	config.RequestDelay = time.Millisecond
	config.MaxRetries = 0
	s := New(settings, config, logrus.New())
	t.Cleanup(s.Stop)
	return s
}

func products(n int) []types.Product {
	out := make([]types.Product, n)
	for i := range out {
		out[i] = types.Product{ID: string(rune('a' + i)), Title: "Product"}
	}
	return out
}

func TestSyncer_Enabled(t *testing.T) {
	config := types.DefaultConfig()
	logger := logrus.New()

	assert.False(t, New(types.Settings{}, config, logger).Enabled())
	assert.False(t, New(types.Settings{SyncEnabled: true}, config, logger).Enabled())
	assert.False(t, New(types.Settings{APIEndpoint: "http://b.test"}, config, logger).Enabled())
	assert.True(t, New(types.Settings{SyncEnabled: true, APIEndpoint: "http://b.test"}, config, logger).Enabled())
}

func TestSyncer_FlushDisabled(t *testing.T) {
	s := New(types.Settings{}, types.DefaultConfig(), logrus.New())
	err := s.Flush(context.Background())
	assert.ErrorIs(t, err, ErrSyncDisabled)
}

func TestSyncer_FlushPostsBatch(t *testing.T) {
	var got SyncRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/cart/sync", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"success":true}`))
	}))
	defer server.Close()

	s := testSyncer(t, server.URL)
	s.queue = products(3)

	require.NoError(t, s.Flush(context.Background()))

	assert.Len(t, got.Products, 3)
	assert.Equal(t, "cart-tracker", got.Source)
	assert.NotZero(t, got.Timestamp)
	assert.Zero(t, s.QueueLen())
}

func TestSyncer_FlushCapsBatchSize(t *testing.T) {
	var batchLens []int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req SyncRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		batchLens = append(batchLens, len(req.Products))
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	s := testSyncer(t, server.URL)
	s.queue = products(12)

	require.NoError(t, s.Flush(context.Background()))
	assert.Equal(t, 2, s.QueueLen())

	require.NoError(t, s.Flush(context.Background()))
	assert.Zero(t, s.QueueLen())

	assert.Equal(t, []int{10, 2}, batchLens)
}

func TestSyncer_FailedBatchIsRequeued(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	s := testSyncer(t, server.URL)
	s.queue = products(4)

	err := s.Flush(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to sync 4 products")
	assert.Equal(t, 4, s.QueueLen())
}

func TestSyncer_FlushEmptyQueueIsNoop(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer server.Close()

	s := testSyncer(t, server.URL)

	require.NoError(t, s.Flush(context.Background()))
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestSyncer_EnqueueTriggersFlush(t *testing.T) {
	var synced int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req SyncRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		atomic.AddInt32(&synced, int32(len(req.Products)))
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	s := testSyncer(t, server.URL)
	s.Enqueue(types.Product{ID: "a", Title: "Mouse"})

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&synced) == 1 && s.QueueLen() == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSyncer_EnqueueWhenDisabled(t *testing.T) {
	s := New(types.Settings{}, types.DefaultConfig(), logrus.New())
	s.Enqueue(types.Product{ID: "a"})
	assert.Zero(t, s.QueueLen())
}
