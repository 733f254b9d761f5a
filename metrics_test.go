package medcore

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestMetricsIncAndValue(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	m.Inc(MetricCodeVerifySuccess)
	m.Inc(MetricCodeVerifySuccess)
	m.Inc(MetricChallengeIssued)

	if got := m.Value(MetricCodeVerifySuccess); got != 2 {
		t.Fatalf("expected 2, got %d", got)
	}
	if got := m.Value(MetricChallengeIssued); got != 1 {
		t.Fatalf("expected 1, got %d", got)
	}
	if got := m.Value(MetricChallengeExpired); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}

func TestMetricsDisabledIsInert(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: false})

	m.Inc(MetricCodeVerifySuccess)
	if got := m.Value(MetricCodeVerifySuccess); got != 0 {
		t.Fatalf("expected disabled metrics to stay zero, got %d", got)
	}

	s := m.Snapshot()
	if len(s.Counters) != 0 || len(s.Histograms) != 0 {
		t.Fatalf("expected empty snapshot, got %+v", s)
	}
}

func TestMetricsSnapshotCopies(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true, EnableLatencyHistograms: true})
	m.Inc(MetricRecoveryCodeUsed)
	m.Observe(MetricVerifyLatency, 3*time.Millisecond)

	s := m.Snapshot()
	if s.Counters[MetricRecoveryCodeUsed] != 1 {
		t.Fatalf("unexpected counter value %d", s.Counters[MetricRecoveryCodeUsed])
	}
	buckets := s.Histograms[MetricVerifyLatency]
	if len(buckets) != 8 || buckets[0] != 1 {
		t.Fatalf("unexpected histogram %v", buckets)
	}

	// Mutating the snapshot must not touch the live metrics.
	s.Counters[MetricRecoveryCodeUsed] = 99
	buckets[0] = 99
	if m.Value(MetricRecoveryCodeUsed) != 1 {
		t.Fatal("snapshot mutation leaked into live counters")
	}
	if got := m.Snapshot().Histograms[MetricVerifyLatency][0]; got != 1 {
		t.Fatalf("snapshot mutation leaked into live histogram, got %d", got)
	}
}

func TestMetricsObserveRequiresLatencyFlag(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true, EnableLatencyHistograms: false})
	m.Observe(MetricVerifyLatency, 3*time.Millisecond)

	if _, ok := m.Snapshot().Histograms[MetricVerifyLatency]; ok {
		t.Fatal("expected no histogram without the latency flag")
	}
}

func TestBucketIndexBoundaries(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want int
	}{
		{0, 0},
		{5 * time.Millisecond, 0},
		{6 * time.Millisecond, 1},
		{10 * time.Millisecond, 1},
		{25 * time.Millisecond, 2},
		{50 * time.Millisecond, 3},
		{100 * time.Millisecond, 4},
		{250 * time.Millisecond, 5},
		{500 * time.Millisecond, 6},
		{time.Second, 7},
		{time.Minute, 7},
	}
	for _, tc := range cases {
		if got := bucketIndex(tc.d); got != tc.want {
			t.Fatalf("bucketIndex(%v) = %d, want %d", tc.d, got, tc.want)
		}
	}
}

func TestMetricsConcurrentInc(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	const workers = 8
	const perWorker = 1000

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				m.Inc(MetricCodeVerifyFailure)
			}
		}()
	}
	wg.Wait()

	if got := m.Value(MetricCodeVerifyFailure); got != workers*perWorker {
		t.Fatalf("expected %d, got %d", workers*perWorker, got)
	}
}

func TestEngineVerifyRecordsMetrics(t *testing.T) {
	engine, _ := newTestEngine(t, engineTestConfig(), newMemoryProvider("u1"))
	secret := enrollUser(t, engine, "u1")

	good := codeForNow(t, secret, engine.config.TwoFactor)
	if ok, err := engine.VerifyCode(context.Background(), "u1", good); err != nil || !ok {
		t.Fatalf("verify failed, ok=%v err=%v", ok, err)
	}
	wrong := codeForOffset(t, secret, engine.config.TwoFactor, 7)
	if _, err := engine.VerifyCode(context.Background(), "u1", wrong); err != nil {
		t.Fatalf("verify errored: %v", err)
	}

	s := engine.MetricsSnapshot()
	if s.Counters[MetricCodeVerifySuccess] != 1 {
		t.Fatalf("expected 1 success, got %d", s.Counters[MetricCodeVerifySuccess])
	}
	if s.Counters[MetricCodeVerifyFailure] != 1 {
		t.Fatalf("expected 1 failure, got %d", s.Counters[MetricCodeVerifyFailure])
	}
}
