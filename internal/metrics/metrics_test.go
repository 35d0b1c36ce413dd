package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"gitlab.bluewillows.net/root/dinadns/pkg/zone"
)

func TestSetBuildInfo(t *testing.T) {
	// Reset metrics for testing
	BuildInfo.Reset()

	SetBuildInfo("v1.0.0", "go1.24")

	// Check that metric was set
	count := testutil.CollectAndCount(BuildInfo)
	if count != 1 {
		t.Errorf("expected 1 metric, got %d", count)
	}

	// Verify the value is 1
	value := testutil.ToFloat64(BuildInfo.WithLabelValues("v1.0.0", "go1.24"))
	if value != 1 {
		t.Errorf("expected value 1, got %f", value)
	}
}

func TestZoneObserver(t *testing.T) {
	CandidateAttemptsTotal.Reset()

	var observer zone.Observer = ZoneObserver{}
	observer.ObserveAttempt(zone.OutcomeZoneNotFound)
	observer.ObserveAttempt(zone.OutcomeZoneNotFound)
	observer.ObserveAttempt(zone.OutcomeAuthenticated)

	notFound := testutil.ToFloat64(CandidateAttemptsTotal.WithLabelValues("zone_not_found"))
	if notFound != 2 {
		t.Errorf("expected 2 zone_not_found attempts, got %f", notFound)
	}

	authenticated := testutil.ToFloat64(CandidateAttemptsTotal.WithLabelValues("authenticated"))
	if authenticated != 1 {
		t.Errorf("expected 1 authenticated attempt, got %f", authenticated)
	}
}

func TestObserveResolution(t *testing.T) {
	ResolutionsTotal.Reset()

	ObserveResolution(nil)
	ObserveResolution(&zone.PluginError{Kind: zone.KindExhaustedCandidates})
	ObserveResolution(errors.New("boom"))

	tests := map[string]float64{
		"resolved":             1,
		"exhausted_candidates": 1,
		"error":                1,
	}
	for label, want := range tests {
		if got := testutil.ToFloat64(ResolutionsTotal.WithLabelValues(label)); got != want {
			t.Errorf("result %s: expected %f, got %f", label, want, got)
		}
	}
}

func TestRecordMetrics(t *testing.T) {
	RecordOperationsTotal.Reset()
	OperationDuration.Reset()

	ObserveRecordOperation("add", "success")
	ObserveRecordOperation("delete", "not_found")
	ObserveRecordOperation("delete", "not_found")
	ObserveDuration("perform", time.Now().Add(-time.Second))

	added := testutil.ToFloat64(RecordOperationsTotal.WithLabelValues("add", "success"))
	if added != 1 {
		t.Errorf("expected 1 add, got %f", added)
	}

	notFound := testutil.ToFloat64(RecordOperationsTotal.WithLabelValues("delete", "not_found"))
	if notFound != 2 {
		t.Errorf("expected 2 not_found deletes, got %f", notFound)
	}

	if count := testutil.CollectAndCount(OperationDuration); count != 1 {
		t.Errorf("expected 1 duration series, got %d", count)
	}
}

func TestWriteTextfile(t *testing.T) {
	SetBuildInfo("v1.0.0", "go1.24")

	path := filepath.Join(t.TempDir(), "dinadns.prom")
	if err := WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading textfile: %v", err)
	}
	if !strings.Contains(string(data), "dinadns_build_info") {
		t.Errorf("expected build info in textfile, got:\n%s", data)
	}
}

func TestWriteTextfile_BadPath(t *testing.T) {
	if err := WriteTextfile(filepath.Join(t.TempDir(), "missing", "dir", "x.prom")); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestMetricNames(t *testing.T) {
	// Verify all metrics use the correct namespace prefix
	expectedPrefix := "dinadns_"

	metrics := []prometheus.Collector{
		BuildInfo,
		CandidateAttemptsTotal,
		ResolutionsTotal,
		RecordOperationsTotal,
		OperationDuration,
		PropagationWaitSeconds,
	}

	for _, m := range metrics {
		// Get metric descriptions
		ch := make(chan *prometheus.Desc, 10)
		m.Describe(ch)
		close(ch)

		for desc := range ch {
			name := desc.String()
			if !strings.Contains(name, expectedPrefix) {
				t.Errorf("metric %s does not have expected prefix %s", name, expectedPrefix)
			}
		}
	}
}
