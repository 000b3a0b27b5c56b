package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	postsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "posts_created_total",
			Help: "Posts created, by richest attachment kind",
		},
		[]string{"type"},
	)

	likesToggled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "post_likes_toggled_total",
			Help: "Like toggles, by resulting state",
		},
		[]string{"result"},
	)

	commentsAdded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "post_comments_added_total",
			Help: "Comments appended to posts",
		},
	)

	mediaEncodedBytes = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_encoded_bytes",
			Help:    "Size of uploaded media before encoding",
			Buckets: prometheus.ExponentialBuckets(64*1024, 2, 10),
		},
		[]string{"category"},
	)

	rejectedUploads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "post_uploads_rejected_total",
			Help: "Post creations rejected, by error kind",
		},
		[]string{"reason"},
	)
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Middleware records request count and latency per route template.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		// unmatched requests share one label
		path := "unmatched"
		if route := mux.CurrentRoute(r); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil {
				path = tpl
			}
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(rec.status)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func RecordPostCreated(kind string) {
	postsCreated.WithLabelValues(kind).Inc()
}

func RecordLikeToggled(liked bool) {
	result := "unliked"
	if liked {
		result = "liked"
	}
	likesToggled.WithLabelValues(result).Inc()
}

func RecordCommentAdded() {
	commentsAdded.Inc()
}

func RecordMediaEncoded(category string, size int) {
	mediaEncodedBytes.WithLabelValues(category).Observe(float64(size))
}

func RecordUploadRejected(reason string) {
	rejectedUploads.WithLabelValues(reason).Inc()
}
