package metrics

import (
	"github.com/philiph/xmlsig/internal/core/ports"
)

// NoopMetricsRecorder is a no-op implementation for when metrics are disabled.
// All methods are safe to call and do nothing.
type NoopMetricsRecorder struct{}

// NewNoopMetricsRecorder creates a new no-op metrics recorder.
func NewNoopMetricsRecorder() *NoopMetricsRecorder {
	return &NoopMetricsRecorder{}
}

// RecordSignatureCheck is a no-op.
func (n *NoopMetricsRecorder) RecordSignatureCheck(algorithm string, valid bool) {}

// RecordReferenceCheck is a no-op.
func (n *NoopMetricsRecorder) RecordReferenceCheck(digestAlgorithm string, valid bool) {}

// RecordDereference is a no-op.
func (n *NoopMetricsRecorder) RecordDereference(scheme string, success bool) {}

// RecordSigning is a no-op.
func (n *NoopMetricsRecorder) RecordSigning(algorithm string, success bool) {}

// Ensure NoopMetricsRecorder implements ports.MetricsRecorder
var _ ports.MetricsRecorder = (*NoopMetricsRecorder)(nil)
