// Package metrics collects business metrics for the triage service.
package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// TriageMetrics counts pipeline activity. Counters are lock-free; the two
// duration accumulators share one small mutex.
type TriageMetrics struct {
	assessmentsTotal  uint64
	assessmentsErrors uint64

	extractionsTotal    uint64
	extractionsDegraded uint64

	verificationsTotal    uint64
	verificationsDegraded uint64
	verdictCacheHits      uint64
	verdictCacheMisses    uint64

	safetyOverrides  uint64
	redFlagsDetected uint64
	oodInjections    uint64

	llmCallsTotal    uint64
	llmCallsErrors   uint64
	llmCallsDuration float64

	startTime  time.Time
	durationMu sync.Mutex
}

var (
	globalMetrics *TriageMetrics
	metricsOnce   sync.Once
)

// Get returns the process-wide metrics instance.
func Get() *TriageMetrics {
	metricsOnce.Do(func() {
		globalMetrics = &TriageMetrics{
			startTime: time.Now(),
		}
	})
	return globalMetrics
}

// RecordAssessment records one completed or failed triage request.
func (m *TriageMetrics) RecordAssessment(err error) {
	atomic.AddUint64(&m.assessmentsTotal, 1)
	if err != nil {
		atomic.AddUint64(&m.assessmentsErrors, 1)
	}
}

// RecordExtraction records one extraction, noting whether the AI
// normalization fallback degraded to regex-only.
func (m *TriageMetrics) RecordExtraction(degraded bool) {
	atomic.AddUint64(&m.extractionsTotal, 1)
	if degraded {
		atomic.AddUint64(&m.extractionsDegraded, 1)
	}
}

// RecordVerification records one verification, noting whether it fell back
// to the default verdict.
func (m *TriageMetrics) RecordVerification(degraded bool) {
	atomic.AddUint64(&m.verificationsTotal, 1)
	if degraded {
		atomic.AddUint64(&m.verificationsDegraded, 1)
	}
}

// RecordVerdictCache records a verdict cache lookup.
func (m *TriageMetrics) RecordVerdictCache(hit bool) {
	if hit {
		atomic.AddUint64(&m.verdictCacheHits, 1)
	} else {
		atomic.AddUint64(&m.verdictCacheMisses, 1)
	}
}

// RecordSafetyOverride records a red-flag escalation, with the number of
// triggering symptoms.
func (m *TriageMetrics) RecordSafetyOverride(triggered int) {
	atomic.AddUint64(&m.safetyOverrides, 1)
	atomic.AddUint64(&m.redFlagsDetected, uint64(triggered))
}

// RecordOODInjection records an out-of-domain diagnosis injection.
func (m *TriageMetrics) RecordOODInjection() {
	atomic.AddUint64(&m.oodInjections, 1)
}

// RecordLLMCall records one model call.
func (m *TriageMetrics) RecordLLMCall(duration time.Duration, err error) {
	atomic.AddUint64(&m.llmCallsTotal, 1)
	if err != nil {
		atomic.AddUint64(&m.llmCallsErrors, 1)
		return
	}

	m.durationMu.Lock()
	m.llmCallsDuration += duration.Seconds()
	m.durationMu.Unlock()
}

// Stats returns a snapshot for the stats endpoint.
func (m *TriageMetrics) Stats() map[string]interface{} {
	m.durationMu.Lock()
	llmDuration := m.llmCallsDuration
	m.durationMu.Unlock()

	llmTotal := atomic.LoadUint64(&m.llmCallsTotal)
	avgLLMDuration := 0.0
	if llmTotal > 0 {
		avgLLMDuration = llmDuration / float64(llmTotal)
	}

	cacheHits := atomic.LoadUint64(&m.verdictCacheHits)
	cacheMisses := atomic.LoadUint64(&m.verdictCacheMisses)
	cacheTotal := cacheHits + cacheMisses
	cacheHitRate := 0.0
	if cacheTotal > 0 {
		cacheHitRate = float64(cacheHits) / float64(cacheTotal)
	}

	return map[string]interface{}{
		"assessments": map[string]interface{}{
			"total":  atomic.LoadUint64(&m.assessmentsTotal),
			"errors": atomic.LoadUint64(&m.assessmentsErrors),
		},
		"extractions": map[string]interface{}{
			"total":    atomic.LoadUint64(&m.extractionsTotal),
			"degraded": atomic.LoadUint64(&m.extractionsDegraded),
		},
		"verifications": map[string]interface{}{
			"total":          atomic.LoadUint64(&m.verificationsTotal),
			"degraded":       atomic.LoadUint64(&m.verificationsDegraded),
			"cache_hits":     cacheHits,
			"cache_misses":   cacheMisses,
			"cache_hit_rate": cacheHitRate,
		},
		"safety": map[string]interface{}{
			"overrides":          atomic.LoadUint64(&m.safetyOverrides),
			"red_flags_detected": atomic.LoadUint64(&m.redFlagsDetected),
			"ood_injections":     atomic.LoadUint64(&m.oodInjections),
		},
		"llm": map[string]interface{}{
			"calls_total":         llmTotal,
			"errors":              atomic.LoadUint64(&m.llmCallsErrors),
			"total_duration_secs": llmDuration,
			"avg_duration_secs":   avgLLMDuration,
		},
		"uptime_seconds": time.Since(m.startTime).Seconds(),
	}
}

// Reset zeroes every counter. Tests only.
func (m *TriageMetrics) Reset() {
	atomic.StoreUint64(&m.assessmentsTotal, 0)
	atomic.StoreUint64(&m.assessmentsErrors, 0)
	atomic.StoreUint64(&m.extractionsTotal, 0)
	atomic.StoreUint64(&m.extractionsDegraded, 0)
	atomic.StoreUint64(&m.verificationsTotal, 0)
	atomic.StoreUint64(&m.verificationsDegraded, 0)
	atomic.StoreUint64(&m.verdictCacheHits, 0)
	atomic.StoreUint64(&m.verdictCacheMisses, 0)
	atomic.StoreUint64(&m.safetyOverrides, 0)
	atomic.StoreUint64(&m.redFlagsDetected, 0)
	atomic.StoreUint64(&m.oodInjections, 0)
	atomic.StoreUint64(&m.llmCallsTotal, 0)
	atomic.StoreUint64(&m.llmCallsErrors, 0)

	m.durationMu.Lock()
	m.llmCallsDuration = 0
	m.startTime = time.Now()
	m.durationMu.Unlock()
}
