package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// QuotePreviewTotal counts pricing preview outcomes.
	QuotePreviewTotal *prometheus.CounterVec
	// QuoteFinalizeTotal counts quote finalization outcomes.
	QuoteFinalizeTotal *prometheus.CounterVec
	// QuoteNumberConflicts counts quote number unique-violation retries.
	QuoteNumberConflicts prometheus.Counter
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		QuotePreviewTotal = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quote_preview_total",
			Help:      "Count of quote preview computations by result.",
		}, []string{"result"}))
		QuoteFinalizeTotal = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quote_finalize_total",
			Help:      "Count of quote finalization attempts by result.",
		}, []string{"result"}))
		conflicts := prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quote_number_conflicts_total",
			Help:      "Number of quote number collisions resolved by retry.",
		})
		if err := reg.Register(conflicts); err != nil {
			if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
				if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
					conflicts = existing
				}
			}
		}
		QuoteNumberConflicts = conflicts
	})
}

// CountFinalize records a finalize outcome when metrics are registered.
func CountFinalize(result string) {
	if QuoteFinalizeTotal != nil {
		QuoteFinalizeTotal.WithLabelValues(result).Inc()
	}
}

// CountPreview records a preview outcome when metrics are registered.
func CountPreview(result string) {
	if QuotePreviewTotal != nil {
		QuotePreviewTotal.WithLabelValues(result).Inc()
	}
}

// CountNumberConflict records a quote number collision retry.
func CountNumberConflict() {
	if QuoteNumberConflicts != nil {
		QuoteNumberConflicts.Inc()
	}
}
