package handlers

import (
	"net"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"postboard/auth"
	"postboard/metrics"
	"postboard/ratelimit"
)

// NewRouter mounts the REST API under /api. Reads are public; writes and
// /users/me need a bearer token, and writes are additionally rate limited
// when a limiter is given.
func NewRouter(handler *HTTPHandler, verifier *auth.Verifier, limiter *ratelimit.Limiter) *mux.Router {
	authed := verifier.Middleware(writeError)
	throttled := ratelimit.Middleware(limiter, rateLimitKey, writeRateLimited)
	write := func(f http.HandlerFunc) http.Handler {
		return authed(throttled(f))
	}

	common := []mux.MiddlewareFunc{requestIDMiddleware, recoverMiddleware, accessLogMiddleware, metrics.Middleware}

	r := mux.NewRouter()
	r.Use(common...)
	// mux skips Use middlewares when no route matches
	var notFound http.Handler = http.HandlerFunc(writeRouteNotFound)
	for i := len(common) - 1; i >= 0; i-- {
		notFound = common[i](notFound)
	}
	r.NotFoundHandler = notFound

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/posts", handler.HandleGetPosts).Methods(http.MethodGet)
	api.Handle("/posts", write(handler.HandleCreatePost)).Methods(http.MethodPost)
	api.HandleFunc("/posts/{postId}", handler.HandleGetPost).Methods(http.MethodGet)
	api.Handle("/posts/{postId}/like", write(handler.HandleToggleLike)).Methods(http.MethodPost)
	api.Handle("/posts/{postId}/comment", write(handler.HandleAddComment)).Methods(http.MethodPost)
	api.Handle("/users/me", authed(http.HandlerFunc(handler.HandleGetCurrentUser))).Methods(http.MethodGet)

	r.HandleFunc("/maintenance/ping", handler.HandlePing).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	return r
}

// Buckets by user; the auth middleware has already run.
func rateLimitKey(r *http.Request) string {
	if userId := auth.ForContext(r.Context()); userId != "" {
		return "user:" + string(userId)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}
