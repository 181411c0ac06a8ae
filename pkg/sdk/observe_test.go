package facetdex

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserver_RegisterTwiceReusesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()

	first, err := newObserver(nil, reg)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := newObserver(nil, reg)
	if err != nil {
		t.Fatalf("second: %v", err)
	}

	first.observe("search", time.Now(), nil)
	second.observe("search", time.Now(), errors.New("boom"))

	ok := testutil.ToFloat64(first.metrics.operations.WithLabelValues("search", "ok"))
	failed := testutil.ToFloat64(first.metrics.operations.WithLabelValues("search", "error"))
	if ok != 1 || failed != 1 {
		t.Errorf("ok/error = %v/%v, want 1/1 on the shared counter", ok, failed)
	}
}

func TestObserver_NilIsNoop(t *testing.T) {
	var o *observer
	o.observe("search", time.Now(), nil)

	o, err := newObserver(nil, nil)
	if err != nil {
		t.Fatalf("newObserver: %v", err)
	}
	if o.metrics != nil {
		t.Error("metrics created without a registerer")
	}
	o.observe("search", time.Now(), errors.New("boom"))
}
