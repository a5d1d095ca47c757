package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

var (
	recommendationRequestsTotal  atomic.Uint64
	recommendationCompletedTotal atomic.Uint64
	recommendationFailedTotal    atomic.Uint64
	recommendationFallbackTotal  atomic.Uint64
	analysisFailedTotal          atomic.Uint64

	recommendationDuration = newHistogram([]float64{250, 500, 1000, 2000, 5000, 10000, 20000, 45000, 90000})
)

// IncRecommendationRequests increments the requests counter.
func IncRecommendationRequests() {
	recommendationRequestsTotal.Add(1)
}

// IncRecommendationCompleted increments the completed counter.
func IncRecommendationCompleted() {
	recommendationCompletedTotal.Add(1)
}

// IncRecommendationFailed increments the terminal failure counter.
func IncRecommendationFailed() {
	recommendationFailedTotal.Add(1)
}

// IncRecommendationFallback counts generations served by the fallback provider.
func IncRecommendationFallback() {
	recommendationFallbackTotal.Add(1)
}

// IncAnalysisFailed counts query analyses that failed open.
func IncAnalysisFailed() {
	analysisFailedTotal.Add(1)
}

// ObserveRecommendationDurationMs records a generation duration in milliseconds.
func ObserveRecommendationDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	recommendationDuration.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "recommendation_requests_total", "Total recommendation requests", recommendationRequestsTotal.Load())
	writeCounter(&buf, "recommendation_completed_total", "Total recommendation requests completed", recommendationCompletedTotal.Load())
	writeCounter(&buf, "recommendation_failed_total", "Total recommendation requests failed on every provider", recommendationFailedTotal.Load())
	writeCounter(&buf, "recommendation_fallback_total", "Total recommendations served by the fallback provider", recommendationFallbackTotal.Load())
	writeCounter(&buf, "analysis_failed_total", "Total query analyses that failed open", analysisFailedTotal.Load())
	writeHistogram(&buf, "recommendation_duration_ms", "Recommendation generation duration in milliseconds", recommendationDuration.Snapshot())
	return buf.String()
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

// Observe counts value into the first bucket whose bound it does not exceed.
func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
			return
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}
