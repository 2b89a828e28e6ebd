package solrq

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	zapobserver "go.uber.org/zap/zaptest/observer"
)

func TestObserver_NilSafe(t *testing.T) {
	var o *observer
	o.observe("noop", time.Now(), nil)
}

func TestObserver_WithPrometheus(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs, err := newObserver(nil, reg)
	if err != nil {
		t.Fatalf("newObserver: %v", err)
	}

	obs.observe("select", time.Now().Add(-10*time.Millisecond), nil)
	obs.observe("select", time.Now(), errors.New("fail"))

	if got := testutil.ToFloat64(obs.metrics.operations.WithLabelValues("select", "ok")); got != 1 {
		t.Errorf("ok count = %v, want 1", got)
	}
	if got := testutil.ToFloat64(obs.metrics.operations.WithLabelValues("select", "error")); got != 1 {
		t.Errorf("error count = %v, want 1", got)
	}
	if n := testutil.CollectAndCount(obs.metrics.duration); n != 1 {
		t.Errorf("duration series = %d, want 1", n)
	}
}

func TestObserver_ReusesRegisteredMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := newObserver(nil, reg)
	if err != nil {
		t.Fatalf("first newObserver: %v", err)
	}
	second, err := newObserver(nil, reg)
	if err != nil {
		t.Fatalf("second newObserver: %v", err)
	}
	if first.metrics.operations != second.metrics.operations {
		t.Error("second observer did not reuse the registered counter")
	}
}

func TestObserver_WithLogger(t *testing.T) {
	core, logs := zapobserver.New(zapcore.DebugLevel)
	obs, err := newObserver(zap.New(core), nil)
	if err != nil {
		t.Fatalf("newObserver: %v", err)
	}
	obs.observe("ping", time.Now(), nil)
	obs.observe("ping", time.Now(), errors.New("down"))

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].Level != zapcore.DebugLevel || entries[1].Level != zapcore.WarnLevel {
		t.Errorf("levels = %v, %v", entries[0].Level, entries[1].Level)
	}
	if entries[1].ContextMap()["op"] != "ping" {
		t.Errorf("op field = %v", entries[1].ContextMap()["op"])
	}
}
