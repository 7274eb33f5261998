package observability

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	p := NoopPipelineHooks{}
	p.OnStageStart(ctx, "normalize")
	p.OnStageComplete(ctx, "normalize", 195, time.Second, nil)

	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "source")
	c.OnCacheMiss(ctx, "report")
	c.OnCacheSet(ctx, "report", 1024)

	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "GET", "example.com", "/Canada.xlsx")
	h.OnResponse(ctx, "GET", "example.com", "/Canada.xlsx", 200, time.Second)
	h.OnError(ctx, "GET", "example.com", "/Canada.xlsx", nil)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Pipeline() should return NoopPipelineHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	SetPipelineHooks(nil)
	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("SetPipelineHooks(nil) should be ignored")
	}

	m := NewPrometheus()
	Register(m)
	if Pipeline() != PipelineHooks(m) || Cache() != CacheHooks(m) || HTTP() != HTTPHooks(m) {
		t.Error("Register should install the backend for every category")
	}

	Reset()
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Reset should restore NoopCacheHooks")
	}
}

func TestPrometheusRecords(t *testing.T) {
	ctx := context.Background()
	m := NewPrometheus()

	m.OnStageComplete(ctx, "normalize", 195, 10*time.Millisecond, nil)
	m.OnStageComplete(ctx, "load", 0, time.Millisecond, errors.New("boom"))
	m.OnCacheHit(ctx, "source")
	m.OnCacheHit(ctx, "source")
	m.OnCacheMiss(ctx, "report")
	m.OnCacheSet(ctx, "report", 512)
	m.OnResponse(ctx, "GET", "example.com", "/x", 200, time.Millisecond)
	m.OnError(ctx, "GET", "example.com", "/x", errors.New("reset"))

	if got := testutil.ToFloat64(m.StageRows.WithLabelValues("normalize")); got != 195 {
		t.Errorf("stage rows = %v, want 195", got)
	}
	if got := testutil.ToFloat64(m.StageErrors.WithLabelValues("load")); got != 1 {
		t.Errorf("stage errors = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.CacheHits.WithLabelValues("source")); got != 2 {
		t.Errorf("cache hits = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.CacheBytes.WithLabelValues("report")); got != 512 {
		t.Errorf("cache bytes = %v, want 512", got)
	}
	if got := testutil.ToFloat64(m.HTTPRequests.WithLabelValues("example.com", "200")); got != 1 {
		t.Errorf("http requests = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.HTTPErrors); got != 1 {
		t.Errorf("http errors = %v, want 1", got)
	}
}

func TestPrometheusWriteTextfile(t *testing.T) {
	m := NewPrometheus()
	m.OnCacheMiss(context.Background(), "source")

	path := filepath.Join(t.TempDir(), "widetable.prom")
	if err := m.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `widetable_cache_misses_total{type="source"} 1`) {
		t.Errorf("textfile missing cache miss counter:\n%s", data)
	}

	if err := m.WriteTextfile(""); err == nil {
		t.Error("expected error for empty path")
	}
}
