// Package metrics defines the sinks that observe station evaluations.
// Every sink implements MetricsSink; optional recorder interfaces such as
// DiagnosticRecorder and DriveLoadRecorder are detected with type
// assertions so sinks only implement what they can store. Sinks are built
// from configuration through NewMetricsSink, which fans out to a MultiSink
// when several are configured.
package metrics
