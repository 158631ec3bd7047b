package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestSyncMetricsExport(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewSyncMetrics(reg)
	m.IncPushed()
	m.IncPushed()
	m.IncPushFailure()
	m.ObserveCycle("ok", 120*time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := counterValue(mfs, "outbox_pushed_total", "", ""); err != nil {
		t.Fatalf("fetch pushed: %v", err)
	} else if got != 2 {
		t.Fatalf("expected pushed=2, got %f", got)
	}
	if got, err := counterValue(mfs, "sync_cycles_total", "result", "ok"); err != nil {
		t.Fatalf("fetch cycles: %v", err)
	} else if got != 1 {
		t.Fatalf("expected cycles=1, got %f", got)
	}
}

func TestNilReceiversAreSafe(t *testing.T) {
	var s *SyncMetrics
	var c *CheckoutMetrics
	s.IncPushed()
	s.IncPushFailure()
	s.ObserveCycle("ok", time.Second)
	c.Observe("ok", time.Second)

	empty := NewSyncMetrics(nil)
	empty.IncPushed()
}

func counterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.GetMetric() {
			if label == "" {
				return metric.GetCounter().GetValue(), nil
			}
			for _, pair := range metric.GetLabel() {
				if pair.GetName() == label && pair.GetValue() == value {
					return metric.GetCounter().GetValue(), nil
				}
			}
		}
	}
	return 0, fmt.Errorf("metric %q not found", name)
}
