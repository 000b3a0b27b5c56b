package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMiddlewareLabelsByRouteTemplate(t *testing.T) {
	r := mux.NewRouter()
	r.Use(Middleware)
	r.HandleFunc("/api/posts/{postId}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	counter := httpRequestsTotal.WithLabelValues(http.MethodGet, "/api/posts/{postId}", "404")
	before := testutil.ToFloat64(counter)

	for _, id := range []string{"a", "b"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/posts/"+id, nil))
	}
	assert.Equal(t, before+2, testutil.ToFloat64(counter))
}

func TestRecordLikeToggled(t *testing.T) {
	liked := likesToggled.WithLabelValues("liked")
	unliked := likesToggled.WithLabelValues("unliked")
	beforeLiked, beforeUnliked := testutil.ToFloat64(liked), testutil.ToFloat64(unliked)

	RecordLikeToggled(true)
	RecordLikeToggled(false)
	RecordLikeToggled(false)

	assert.Equal(t, beforeLiked+1, testutil.ToFloat64(liked))
	assert.Equal(t, beforeUnliked+2, testutil.ToFloat64(unliked))
}

func TestMiddlewareWithoutRoute(t *testing.T) {
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	counter := httpRequestsTotal.WithLabelValues(http.MethodGet, "unmatched", "404")
	before := testutil.ToFloat64(counter)
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/whatever/123", nil))
	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}
