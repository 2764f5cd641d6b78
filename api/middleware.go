package api

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/GetStream/postboard/board"
)

type ctxKey int

const (
	ctxRequestID ctxKey = iota
	ctxCaller
)

// RequestIDHeader carries the request id on requests and responses.
const RequestIDHeader = "X-Request-ID"

// withRequestID assigns every request an id, reusing the one sent by the
// client if present, and logs the request.
func (a *API) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		r = r.WithContext(context.WithValue(r.Context(), ctxRequestID, id))

		a.logger(r).Info("Request received", "method", r.Method, "path", r.URL.Path)
		next.ServeHTTP(w, r)
	})
}

func (a *API) logger(r *http.Request) *slog.Logger {
	if id, ok := r.Context().Value(ctxRequestID).(string); ok {
		return a.Logger.With("request_id", id)
	}
	return a.Logger
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

// instrumented records request counts and durations by matched route. The
// mux sets r.Pattern on the request it is given, so next must be the mux.
func (a *API) instrumented(next http.Handler) http.Handler {
	if a.Metrics == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a.Metrics.InFlight(1)
		defer a.Metrics.InFlight(-1)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		a.Metrics.RecordHTTPRequest(r.Method, route, rec.status, time.Since(start))
	})
}

// authenticated requires a valid bearer token and stores the caller in the
// request context.
func (a *API) authenticated(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scheme, token, _ := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
		token = strings.TrimSpace(token)
		if scheme == "" || token == "" {
			a.respond(w, http.StatusForbidden, detail{Detail: "Not authenticated"})
			return
		}
		if !strings.EqualFold(scheme, "bearer") {
			a.respond(w, http.StatusForbidden, detail{Detail: "Invalid authentication credentials"})
			return
		}

		u, ok := a.Tokens.Validate(r.Context(), token)
		if !ok {
			w.Header().Set("WWW-Authenticate", "Bearer")
			a.respond(w, http.StatusUnauthorized, detail{Detail: "Не удалось подтвердить учетные данные"})
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), ctxCaller, u)))
	}
}

// caller returns the user set by authenticated.
func caller(r *http.Request) board.User {
	u, _ := r.Context().Value(ctxCaller).(board.User)
	return u
}

// maxClients bounds the number of tracked client addresses. The table is
// cleared when it fills up.
const maxClients = 10000

// RateLimiter applies a token bucket per client address.
type RateLimiter struct {
	limit rate.Limit
	burst int

	mu      sync.Mutex
	clients map[string]*rate.Limiter
}

// NewRateLimiter allows perSecond requests per client address with the
// given burst.
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	return &RateLimiter{
		limit:   rate.Limit(perSecond),
		burst:   burst,
		clients: make(map[string]*rate.Limiter),
	}
}

// Allow reports whether a request from addr may proceed.
func (l *RateLimiter) Allow(addr string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	lim, ok := l.clients[addr]
	if !ok {
		if len(l.clients) >= maxClients {
			clear(l.clients)
		}
		lim = rate.NewLimiter(l.limit, l.burst)
		l.clients[addr] = lim
	}
	return lim.Allow()
}

func (a *API) limited(next http.HandlerFunc) http.HandlerFunc {
	if a.Limiter == nil {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		if !a.Limiter.Allow(host) {
			a.logger(r).Warn("Rate limited", "client", host)
			a.respond(w, http.StatusTooManyRequests, detail{Detail: "Too many requests"})
			return
		}
		next(w, r)
	}
}
