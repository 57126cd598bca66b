package metrics

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var collectorNamespaceSeq uint64

func nextTestNamespace() string {
	seq := atomic.AddUint64(&collectorNamespaceSeq, 1)
	return fmt.Sprintf("test_%d", seq)
}

func newTestCollector(t *testing.T) *Collector {
	t.Helper()
	return NewCollectorWithRegistry(nextTestNamespace(), prometheus.NewRegistry(), zap.NewNop())
}

// =============================================================================
// 🧪 Collector 测试
// =============================================================================

func TestNewCollector(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	assert.NotNil(t, collector)
	assert.NotNil(t, collector.httpRequestsTotal)
	assert.NotNil(t, collector.workflowRunsTotal)
	assert.NotNil(t, collector.nodeExecutionsTotal)
	assert.NotNil(t, collector.generationsTotal)
	assert.NotNil(t, collector.storageOpsTotal)
	assert.NotNil(t, collector.autosavesTotal)
}

func TestNewCollectorWithRegistry_NilLogger(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector := NewCollectorWithRegistry("gtmflow", reg, nil)
	collector.RecordAutosave("saved")

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "gtmflow_autosaves_total")
}

func TestCollector_RecordHTTPRequest(t *testing.T) {
	collector := newTestCollector(t)

	collector.RecordHTTPRequest("GET", "/api/workflows", 200, 100*time.Millisecond, 0, 2048)
	collector.RecordHTTPRequest("GET", "/api/workflows", 204, 50*time.Millisecond, 0, 0)
	collector.RecordHTTPRequest("POST", "/api/generate", 502, time.Second, 128, 64)

	assert.Equal(t, float64(2), testutil.ToFloat64(collector.httpRequestsTotal.WithLabelValues("GET", "/api/workflows", "2xx")))
	assert.Equal(t, float64(1), testutil.ToFloat64(collector.httpRequestsTotal.WithLabelValues("POST", "/api/generate", "5xx")))
	// 空请求体不记录大小
	assert.Equal(t, 1, testutil.CollectAndCount(collector.httpRequestSize))
}

func TestCollector_RecordWorkflowRun(t *testing.T) {
	collector := newTestCollector(t)

	collector.RecordWorkflowRun("completed", 3*time.Second)
	collector.RecordWorkflowRun("failed", time.Second)
	collector.RecordWorkflowRun("completed", 2*time.Second)

	assert.Equal(t, float64(2), testutil.ToFloat64(collector.workflowRunsTotal.WithLabelValues("completed")))
	assert.Equal(t, float64(1), testutil.ToFloat64(collector.workflowRunsTotal.WithLabelValues("failed")))
	assert.Equal(t, 2, testutil.CollectAndCount(collector.workflowRunDuration))
}

func TestCollector_RecordNodeExecution(t *testing.T) {
	collector := newTestCollector(t)

	collector.RecordNodeExecution("blog-writer", "completed", 500*time.Millisecond)
	collector.RecordNodeExecution("blog-writer", "failed", 100*time.Millisecond)
	collector.RecordNodeExecution("seo-optimizer", "completed", time.Second)

	assert.Equal(t, float64(1), testutil.ToFloat64(collector.nodeExecutionsTotal.WithLabelValues("blog-writer", "failed")))
	assert.Equal(t, 3, testutil.CollectAndCount(collector.nodeExecutionsTotal))
	assert.Equal(t, 2, testutil.CollectAndCount(collector.nodeExecutionSeconds))
}

func TestCollector_RecordGeneration(t *testing.T) {
	collector := newTestCollector(t)

	collector.RecordGeneration("text", "success", 800*time.Millisecond)
	collector.RecordGeneration("json", "INVALID_JSON", time.Second)

	assert.Equal(t, float64(1), testutil.ToFloat64(collector.generationsTotal.WithLabelValues("json", "INVALID_JSON")))
	assert.Equal(t, 2, testutil.CollectAndCount(collector.generationDuration))
}

func TestCollector_RecordStorage(t *testing.T) {
	collector := newTestCollector(t)

	collector.RecordStorageOperation("save", "success", 2*time.Millisecond)
	collector.RecordStorageOperation("load", "NOT_FOUND", time.Millisecond)
	collector.RecordAutosave("saved")
	collector.RecordAutosave("saved")
	collector.RecordAutosave("failed")

	assert.Equal(t, float64(1), testutil.ToFloat64(collector.storageOpsTotal.WithLabelValues("load", "NOT_FOUND")))
	assert.Equal(t, float64(2), testutil.ToFloat64(collector.autosavesTotal.WithLabelValues("saved")))
	assert.Equal(t, float64(1), testutil.ToFloat64(collector.autosavesTotal.WithLabelValues("failed")))
}

func TestCollector_RecordCacheOperation(t *testing.T) {
	collector := newTestCollector(t)

	collector.RecordCacheHit("redis")
	collector.RecordCacheMiss("redis")
	collector.RecordCacheMiss("redis")

	assert.Equal(t, float64(1), testutil.ToFloat64(collector.cacheHits.WithLabelValues("redis")))
	assert.Equal(t, float64(2), testutil.ToFloat64(collector.cacheMisses.WithLabelValues("redis")))
}

func TestCollector_UpdateConnectionPool(t *testing.T) {
	collector := newTestCollector(t)

	collector.RecordDBConnections("postgres", 10, 5)
	collector.RecordDBConnections("postgres", 8, 6)

	assert.Equal(t, float64(8), testutil.ToFloat64(collector.dbConnectionsOpen.WithLabelValues("postgres")))
	assert.Equal(t, float64(6), testutil.ToFloat64(collector.dbConnectionsIdle.WithLabelValues("postgres")))
}

func TestStatusCode(t *testing.T) {
	tests := []struct {
		code int
		want string
	}{
		{200, "2xx"}, {201, "2xx"}, {302, "3xx"}, {404, "4xx"}, {422, "4xx"}, {500, "5xx"}, {502, "5xx"}, {0, "unknown"},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, statusCode(tt.code))
		})
	}
}

func TestCollector_ConcurrentRecording(t *testing.T) {
	collector := newTestCollector(t)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			collector.RecordHTTPRequest("GET", "/health", 200, 10*time.Millisecond, 0, 15)
			collector.RecordNodeExecution("social-media", "completed", time.Second)
			collector.RecordCacheHit("redis")
		}()
	}
	wg.Wait()

	assert.Equal(t, float64(10), testutil.ToFloat64(collector.httpRequestsTotal.WithLabelValues("GET", "/health", "2xx")))
	assert.Equal(t, float64(10), testutil.ToFloat64(collector.nodeExecutionsTotal.WithLabelValues("social-media", "completed")))
	assert.Equal(t, float64(10), testutil.ToFloat64(collector.cacheHits.WithLabelValues("redis")))
}
