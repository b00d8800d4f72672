package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/philiph/xmlsig/internal/core/domain"
	"github.com/philiph/xmlsig/internal/core/ports"
)

// PrometheusMetricsRecorder records metrics using Prometheus.
// Algorithm labels use short names (RSA-SHA256), not URIs.
type PrometheusMetricsRecorder struct {
	signatureChecksTotal *prometheus.CounterVec
	referenceChecksTotal *prometheus.CounterVec
	dereferencesTotal    *prometheus.CounterVec
	signingsTotal        *prometheus.CounterVec
}

// NewPrometheusMetricsRecorder creates a new Prometheus metrics recorder
// using the default Prometheus registry.
func NewPrometheusMetricsRecorder() *PrometheusMetricsRecorder {
	return NewPrometheusMetricsRecorderWithRegistry(prometheus.DefaultRegisterer)
}

// NewPrometheusMetricsRecorderWithRegistry creates a new Prometheus metrics recorder
// with a custom registry. Use this for testing.
func NewPrometheusMetricsRecorderWithRegistry(reg prometheus.Registerer) *PrometheusMetricsRecorder {
	signatureChecksTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "xmlsig_signature_checks_total",
		Help: "Total SignatureValue checks",
	}, []string{"algorithm", "result"})

	referenceChecksTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "xmlsig_reference_checks_total",
		Help: "Total reference digest comparisons",
	}, []string{"digest_algorithm", "result"})

	dereferencesTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "xmlsig_dereferences_total",
		Help: "Total Reference URI dereferences",
	}, []string{"scheme", "result"})

	signingsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "xmlsig_signings_total",
		Help: "Total signing operations",
	}, []string{"algorithm", "result"})

	reg.MustRegister(
		signatureChecksTotal,
		referenceChecksTotal,
		dereferencesTotal,
		signingsTotal,
	)

	return &PrometheusMetricsRecorder{
		signatureChecksTotal: signatureChecksTotal,
		referenceChecksTotal: referenceChecksTotal,
		dereferencesTotal:    dereferencesTotal,
		signingsTotal:        signingsTotal,
	}
}

func validity(valid bool) string {
	if valid {
		return "valid"
	}
	return "invalid"
}

func outcome(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}

// RecordSignatureCheck records a SignatureValue check.
func (p *PrometheusMetricsRecorder) RecordSignatureCheck(algorithm string, valid bool) {
	p.signatureChecksTotal.WithLabelValues(domain.AlgorithmName(algorithm), validity(valid)).Inc()
}

// RecordReferenceCheck records one reference digest comparison.
func (p *PrometheusMetricsRecorder) RecordReferenceCheck(digestAlgorithm string, valid bool) {
	p.referenceChecksTotal.WithLabelValues(domain.AlgorithmName(digestAlgorithm), validity(valid)).Inc()
}

// RecordDereference records a resolver call.
func (p *PrometheusMetricsRecorder) RecordDereference(scheme string, success bool) {
	p.dereferencesTotal.WithLabelValues(scheme, outcome(success)).Inc()
}

// RecordSigning records a signing operation.
func (p *PrometheusMetricsRecorder) RecordSigning(algorithm string, success bool) {
	p.signingsTotal.WithLabelValues(domain.AlgorithmName(algorithm), outcome(success)).Inc()
}

// Ensure PrometheusMetricsRecorder implements ports.MetricsRecorder
var _ ports.MetricsRecorder = (*PrometheusMetricsRecorder)(nil)
