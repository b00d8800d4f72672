//go:build unit

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	io_prometheus_client "github.com/prometheus/client_model/go"

	"github.com/philiph/xmlsig/internal/core/domain"
	"github.com/philiph/xmlsig/internal/core/ports"
)

// TestNoopMetricsRecorder_Interface verifies the interface contract.
func TestNoopMetricsRecorder_Interface(t *testing.T) {
	var _ ports.MetricsRecorder = (*NoopMetricsRecorder)(nil)
}

// TestNoopMetricsRecorder_AllMethods verifies all methods don't panic.
func TestNoopMetricsRecorder_AllMethods(t *testing.T) {
	recorder := NewNoopMetricsRecorder()

	recorder.RecordSignatureCheck(domain.SignatureRSASHA256, true)
	recorder.RecordReferenceCheck(domain.DigestSHA256, false)
	recorder.RecordDereference("same-document", true)
	recorder.RecordSigning(domain.SignatureEd25519, false)
}

// findFamily gathers reg and returns the family called name.
func findFamily(t *testing.T, reg *prometheus.Registry, name string) *io_prometheus_client.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() == name {
			return mf
		}
	}
	t.Fatalf("%s metric not found", name)
	return nil
}

// counterValue returns the counter carrying all wanted label values.
func counterValue(mf *io_prometheus_client.MetricFamily, labels map[string]string) float64 {
	for _, m := range mf.GetMetric() {
		matched := 0
		for _, label := range m.GetLabel() {
			if labels[label.GetName()] == label.GetValue() {
				matched++
			}
		}
		if matched == len(labels) {
			return m.GetCounter().GetValue()
		}
	}
	return -1
}

// TestPrometheusMetricsRecorder_RecordSignatureCheck verifies labels use short
// algorithm names.
func TestPrometheusMetricsRecorder_RecordSignatureCheck(t *testing.T) {
	registry := prometheus.NewRegistry()
	recorder := NewPrometheusMetricsRecorderWithRegistry(registry)

	recorder.RecordSignatureCheck(domain.SignatureRSASHA256, true)
	recorder.RecordSignatureCheck(domain.SignatureRSASHA256, true)
	recorder.RecordSignatureCheck(domain.SignatureRSASHA256, false)

	mf := findFamily(t, registry, "xmlsig_signature_checks_total")
	if len(mf.GetMetric()) != 2 {
		t.Errorf("expected 2 metric entries, got %d", len(mf.GetMetric()))
	}
	if v := counterValue(mf, map[string]string{"algorithm": "RSA-SHA256", "result": "valid"}); v != 2 {
		t.Errorf("valid count = %v, want 2", v)
	}
	if v := counterValue(mf, map[string]string{"algorithm": "RSA-SHA256", "result": "invalid"}); v != 1 {
		t.Errorf("invalid count = %v, want 1", v)
	}
}

// TestPrometheusMetricsRecorder_Counters verifies the remaining counters.
func TestPrometheusMetricsRecorder_Counters(t *testing.T) {
	registry := prometheus.NewRegistry()
	recorder := NewPrometheusMetricsRecorderWithRegistry(registry)

	recorder.RecordReferenceCheck(domain.DigestSHA256, false)
	recorder.RecordDereference("https", true)
	recorder.RecordDereference("https", false)
	recorder.RecordSigning(domain.SignatureECDSASHA256, true)

	tests := []struct {
		family string
		labels map[string]string
		want   float64
	}{
		{"xmlsig_reference_checks_total", map[string]string{"digest_algorithm": "SHA256", "result": "invalid"}, 1},
		{"xmlsig_dereferences_total", map[string]string{"scheme": "https", "result": "success"}, 1},
		{"xmlsig_dereferences_total", map[string]string{"scheme": "https", "result": "failure"}, 1},
		{"xmlsig_signings_total", map[string]string{"algorithm": "ECDSA-SHA256", "result": "success"}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.family, func(t *testing.T) {
			mf := findFamily(t, registry, tt.family)
			if v := counterValue(mf, tt.labels); v != tt.want {
				t.Errorf("count%v = %v, want %v", tt.labels, v, tt.want)
			}
		})
	}
}
