package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pixelforge/pixelforge/catalog"
)

// Cache-Control values: deterministic responses are cacheable, everything
// else is not.
const (
	noCacheControl   = "private, no-cache, no-store, must-revalidate"
	cacheableControl = "public, max-age=86400, stale-while-revalidate=60, stale-if-error=43200"
)

type traceIDKey struct{}

// traceID assigns each request a trace ID, reusing the client's X-Trace-Id
// when present.
func traceID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Trace-Id")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Trace-Id", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), traceIDKey{}, id)))
	})
}

// TraceID returns the request's trace ID, or an empty string.
func TraceID(ctx context.Context) string {
	id, _ := ctx.Value(traceIDKey{}).(string)
	return id
}

// noCacheByDefault marks every response uncacheable; handlers overwrite the
// header for deterministic responses.
func noCacheByDefault(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", noCacheControl)
		next.ServeHTTP(w, r)
	})
}

// recoverer turns handler panics into plain 500 responses.
func (a *API) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				a.Log.Error("handler panic",
					zap.Any("panic", rec),
					zap.String("path", r.URL.Path),
					zap.String("trace_id", TraceID(r.Context())),
				)
				http.Error(w, "Something went wrong", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// rateLimiter is a fixed-window per-client request counter.
type rateLimiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	counts map[string]*windowCount
}

type windowCount struct {
	start time.Time
	n     int
}

func newRateLimiter(limit int, window time.Duration) *rateLimiter {
	return &rateLimiter{
		limit:  limit,
		window: window,
		counts: make(map[string]*windowCount),
	}
}

// allow counts a request for the client and reports whether it is within
// the limit, plus the seconds until the window resets when it is not.
func (l *rateLimiter) allow(client string, now time.Time) (bool, int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	wc, ok := l.counts[client]
	if !ok || now.Sub(wc.start) >= l.window {
		// Drop stale windows opportunistically instead of running a
		// janitor goroutine.
		for key, other := range l.counts {
			if now.Sub(other.start) >= l.window {
				delete(l.counts, key)
			}
		}
		l.counts[client] = &windowCount{start: now, n: 1}
		return true, 0
	}

	wc.n++
	if wc.n > l.limit {
		retry := int(l.window.Seconds() - now.Sub(wc.start).Seconds())
		if retry < 1 {
			retry = 1
		}
		return false, retry
	}
	return true, 0
}

func (l *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ok, retry := l.allow(r.RemoteAddr, time.Now()); !ok {
			w.Header().Set("Retry-After", strconv.Itoa(retry))
			http.Error(w, "Too many requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *API) badRequest(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), http.StatusBadRequest)
}

func (a *API) handleCatalogError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, catalog.ErrNotFound) {
		http.Error(w, "Image does not exist", http.StatusNotFound)
		return
	}
	a.internalError(w, r, err)
}

func (a *API) internalError(w http.ResponseWriter, r *http.Request, err error) {
	a.Log.WithError(err).Error("request failed",
		zap.String("path", r.URL.Path),
		zap.String("trace_id", TraceID(r.Context())),
	)
	http.Error(w, "Something went wrong", http.StatusInternalServerError)
}
