package ports

// MetricsRecorder is the port interface for recording metrics.
// Implementations are adapters (PrometheusMetricsRecorder for production,
// NoopMetricsRecorder for disabled/testing).
type MetricsRecorder interface {
	// RecordSignatureCheck records a SignatureValue check.
	RecordSignatureCheck(algorithm string, valid bool)

	// RecordReferenceCheck records one reference digest comparison.
	RecordReferenceCheck(digestAlgorithm string, valid bool)

	// RecordDereference records a resolver call by URI scheme.
	RecordDereference(scheme string, success bool)

	// RecordSigning records a signing operation.
	RecordSigning(algorithm string, success bool)
}
