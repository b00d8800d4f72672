package xmlsig

import (
	"github.com/philiph/xmlsig/internal/adapters/driven/metrics"
)

// Re-export metrics recorders. PrometheusMetricsRecorder registers
// xmlsig_signature_checks_total, xmlsig_reference_checks_total,
// xmlsig_dereferences_total and xmlsig_signings_total.
type PrometheusMetricsRecorder = metrics.PrometheusMetricsRecorder
type NoopMetricsRecorder = metrics.NoopMetricsRecorder

var (
	NewPrometheusMetricsRecorder             = metrics.NewPrometheusMetricsRecorder
	NewPrometheusMetricsRecorderWithRegistry = metrics.NewPrometheusMetricsRecorderWithRegistry
	NewNoopMetricsRecorder                   = metrics.NewNoopMetricsRecorder
)
