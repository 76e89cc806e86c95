package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequestsTotal  *prometheus.CounterVec
	httpLatencySeconds *prometheus.HistogramVec
	httpErrorsTotal    *prometheus.CounterVec

	attendanceSessionsTotal *prometheus.CounterVec
	attendanceRowsTotal     *prometheus.CounterVec
	attendanceCacheTotal    *prometheus.CounterVec

	documentUploadsTotal   *prometheus.CounterVec
	documentRejectedTotal  *prometheus.CounterVec
	documentUploadDuration prometheus.Histogram
)

// RegisterMetrics initialises the Prometheus collectors used by the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rollcall_http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rollcall_http_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rollcall_http_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		attendanceSessionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rollcall_attendance_sessions_total",
			Help: "Roll calls recorded, by stored polarity.",
		}, []string{"mode"})

		attendanceRowsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rollcall_attendance_rows_total",
			Help: "Attendance rows written, by stored polarity.",
		}, []string{"mode"})

		attendanceCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rollcall_attendance_summary_cache_total",
			Help: "Attendance summary cache lookups, by result.",
		}, []string{"result"})

		documentUploadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rollcall_document_uploads_total",
			Help: "Post documents stored, by detected type.",
		}, []string{"type"})

		documentRejectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rollcall_document_uploads_rejected_total",
			Help: "Post documents rejected, by reason.",
		}, []string{"reason"})

		documentUploadDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "rollcall_document_upload_seconds",
			Help:    "Time spent validating and storing post documents.",
			Buckets: prometheus.DefBuckets,
		})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
			attendanceSessionsTotal,
			attendanceRowsTotal,
			attendanceCacheTotal,
			documentUploadsTotal,
			documentRejectedTotal,
			documentUploadDuration,
		)
	})
}

// HTTPRequests exposes the request counter.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the request latency histogram.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the error response counter.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// AttendanceSessions counts recorded roll calls.
func AttendanceSessions() *prometheus.CounterVec {
	RegisterMetrics()
	return attendanceSessionsTotal
}

// AttendanceRows counts persisted attendance rows.
func AttendanceRows() *prometheus.CounterVec {
	RegisterMetrics()
	return attendanceRowsTotal
}

// AttendanceCache counts summary cache hits and misses.
func AttendanceCache() *prometheus.CounterVec {
	RegisterMetrics()
	return attendanceCacheTotal
}

// DocumentUploads counts stored post documents.
func DocumentUploads() *prometheus.CounterVec {
	RegisterMetrics()
	return documentUploadsTotal
}

// DocumentRejected counts rejected post documents.
func DocumentRejected() *prometheus.CounterVec {
	RegisterMetrics()
	return documentRejectedTotal
}

// DocumentUploadDuration observes document upload latency.
func DocumentUploadDuration() prometheus.Histogram {
	RegisterMetrics()
	return documentUploadDuration
}
