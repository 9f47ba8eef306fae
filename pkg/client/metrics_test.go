package client

import (
	"context"
	"testing"

	"github.com/Sternrassler/userposts/internal/testutil"
	"github.com/Sternrassler/userposts/pkg/metrics"
)

func TestMetrics_RegisteredWithModuleRegistry(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()

	c := newTestClient(t, 1)
	if _, err := c.FetchData(context.Background(), mock.URL()+"/users", 1); err != nil {
		t.Fatalf("FetchData failed: %v", err)
	}

	families, err := metrics.Gatherer.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}

	want := map[string]bool{
		"userposts_requests_total":           false,
		"userposts_request_duration_seconds": false,
	}
	for _, mf := range families {
		if _, ok := want[mf.GetName()]; ok {
			want[mf.GetName()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("metric %s not exposed through metrics.Gatherer", name)
		}
	}
}
