package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"github.com/GetStream/postboard/api/validator"
	"github.com/GetStream/postboard/board"
	"github.com/GetStream/postboard/metrics"
)

// An Authenticator resolves a bearer token to the user it was issued for.
type Authenticator interface {
	Validate(ctx context.Context, token string) (board.User, bool)
}

// A Pinger reports whether the row store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// API provides the REST endpoints for the application.
type API struct {
	Logger    *slog.Logger
	Users     *board.Directory
	Posts     *board.Posts
	Reactions *board.Reactions
	Tokens    Authenticator
	DB        Pinger
	Val       *validator.Validator

	// Metrics is optional. When set, requests are counted and /metrics is
	// served.
	Metrics *metrics.Metrics

	// Limiter is optional. When set, it throttles /signup and /login per
	// client address.
	Limiter *RateLimiter

	once    sync.Once
	handler http.Handler
}

func (a *API) setupRoutes() {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /signup", a.limited(a.signup))
	mux.HandleFunc("POST /login", a.limited(a.login))

	mux.HandleFunc("GET /posts", a.authenticated(a.listPosts))
	mux.HandleFunc("POST /posts", a.authenticated(a.createPost))
	mux.HandleFunc("PUT /posts", a.authenticated(a.updatePost))
	mux.HandleFunc("DELETE /posts/{id}", a.authenticated(a.deletePost))

	mux.HandleFunc("GET /reaction/{post_id}", a.reactionCounts)
	mux.HandleFunc("POST /reaction", a.authenticated(a.createReaction))
	mux.HandleFunc("PUT /reaction", a.authenticated(a.toggleReaction))
	mux.HandleFunc("DELETE /reaction/{id}", a.authenticated(a.deleteReaction))

	mux.HandleFunc("GET /users", a.authenticated(a.listUsers))
	mux.HandleFunc("GET /users/{key}", a.authenticated(a.getUser))
	mux.HandleFunc("POST /users", a.authenticated(a.createUser))
	mux.HandleFunc("PUT /users", a.authenticated(a.updateUser))
	mux.HandleFunc("DELETE /users/{id}", a.authenticated(a.deleteUser))

	mux.HandleFunc("GET /healthz", a.health)
	if a.Metrics != nil {
		mux.Handle("GET /metrics", a.Metrics.Handler())
	}

	a.handler = a.withRequestID(a.instrumented(mux))
}

func (a *API) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.once.Do(a.setupRoutes)
	a.handler.ServeHTTP(w, r)
}

func (a *API) respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		a.Logger.Error("Could not encode JSON body", "error", err.Error())
	}
}

type detail struct {
	Detail string `json:"detail"`
}

func (a *API) respondError(w http.ResponseWriter, r *http.Request, status int, err error, msg string) {
	a.logger(r).Error("Error", "error", err.Error())
	a.respond(w, status, detail{Detail: msg})
}

// fail writes err using the status of its kind. Errors that are not rule
// violations are reported as internal errors.
func (a *API) fail(w http.ResponseWriter, r *http.Request, err error) {
	var e *board.Error
	if !errors.As(err, &e) {
		a.respondError(w, r, http.StatusInternalServerError, err, "Internal server error")
		return
	}

	a.logger(r).Info("Request rejected", "kind", e.Kind.String(), "detail", e.Message)
	if e.Kind == board.KindUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	a.respond(w, statusOf(e.Kind), detail{Detail: e.Message})
}

func statusOf(k board.Kind) int {
	switch k {
	case board.KindNotFound:
		return http.StatusNotFound
	case board.KindConflict, board.KindForbidden:
		return http.StatusForbidden
	case board.KindUnauthorized:
		return http.StatusUnauthorized
	case board.KindBadRequest:
		return http.StatusBadRequest
	case board.KindInUse:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func (a *API) validateBody(w http.ResponseWriter, s interface{}) bool {
	errs := a.Val.ValidateStruct(s)
	type response struct {
		Errors []validator.ValidationError `json:"errors"`
	}

	if len(errs) > 0 {
		a.respond(w, http.StatusBadRequest, &response{
			Errors: errs,
		})
		return false
	}
	return true
}

// decodeBody decodes a JSON request body into dst and validates it. It
// writes the error response and returns false on failure.
func (a *API) decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err != nil {
		a.respondError(w, r, http.StatusBadRequest, err, "Could not decode request body")
		return false
	}
	if err := r.Body.Close(); err != nil {
		a.respondError(w, r, http.StatusInternalServerError, err, "Could not close request body")
		return false
	}
	return a.validateBody(w, dst)
}

// pathID parses the named path value as an id. It writes the error response
// and returns false when the value is not an integer.
func (a *API) pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil {
		a.respondError(w, r, http.StatusBadRequest, err, "Invalid "+name)
		return 0, false
	}
	return id, true
}

func (a *API) health(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Status string `json:"status"`
	}
	if err := a.DB.Ping(r.Context()); err != nil {
		a.respondError(w, r, http.StatusServiceUnavailable, err, "Storage unavailable")
		return
	}
	a.respond(w, http.StatusOK, response{Status: "ok"})
}
