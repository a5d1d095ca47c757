package metrics

import (
	"strings"
	"testing"
)

func TestHistogramBucketsAreCumulative(t *testing.T) {
	h := newHistogram([]float64{10, 100})
	h.Observe(5)
	h.Observe(50)
	h.Observe(500)

	var buf strings.Builder
	snap := h.Snapshot()
	var cumulative uint64
	for i := range snap.buckets {
		cumulative += snap.counts[i]
		buf.WriteString(formatFloat(snap.buckets[i]))
		buf.WriteString("=")
		buf.WriteString(formatFloat(float64(cumulative)))
		buf.WriteString(" ")
	}
	if got := strings.TrimSpace(buf.String()); got != "10=1 100=2" {
		t.Fatalf("buckets = %q", got)
	}
	if snap.count != 3 || snap.sum != 555 {
		t.Fatalf("count=%d sum=%v", snap.count, snap.sum)
	}
}

func TestRenderIncludesCounters(t *testing.T) {
	IncRecommendationRequests()
	IncRecommendationFallback()
	out := Render()
	for _, name := range []string{
		"recommendation_requests_total",
		"recommendation_fallback_total",
		"recommendation_failed_total",
		"analysis_failed_total",
		"recommendation_duration_ms_bucket{le=\"+Inf\"}",
	} {
		if !strings.Contains(out, name) {
			t.Fatalf("Render() missing %s:\n%s", name, out)
		}
	}
}
