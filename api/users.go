package api

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strconv"

	"github.com/GetStream/postboard/board"
)

type credentials struct {
	Username string `json:"username" form:"username" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

// decodeCredentials reads a username and password from a form or a JSON
// body.
func (a *API) decodeCredentials(w http.ResponseWriter, r *http.Request) (credentials, bool) {
	var c credentials
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mt == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
			a.respondError(w, r, http.StatusBadRequest, err, "Could not decode request body")
			return c, false
		}
	} else {
		if err := r.ParseMultipartForm(1 << 20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			a.respondError(w, r, http.StatusBadRequest, err, "Could not decode request body")
			return c, false
		}
		c.Username = r.PostFormValue("username")
		c.Password = r.PostFormValue("password")
	}
	return c, a.validateBody(w, &c)
}

func (a *API) signup(w http.ResponseWriter, r *http.Request) {
	c, ok := a.decodeCredentials(w, r)
	if !ok {
		return
	}
	u, err := a.Users.Signup(r.Context(), c.Username, c.Password)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.respond(w, http.StatusOK, u)
}

func (a *API) login(w http.ResponseWriter, r *http.Request) {
	c, ok := a.decodeCredentials(w, r)
	if !ok {
		return
	}
	tok, err := a.Users.Login(r.Context(), c.Username, c.Password)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.respond(w, http.StatusOK, tok)
}

// listUsers lists every user, or the single user named by the user_id or
// username query parameter.
func (a *API) listUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var (
		u   board.User
		err error
	)
	switch {
	case q.Has("user_id"):
		id, perr := strconv.ParseInt(q.Get("user_id"), 10, 64)
		if perr != nil {
			a.respondError(w, r, http.StatusBadRequest, perr, "Invalid user_id")
			return
		}
		u, err = a.Users.Get(r.Context(), id)
	case q.Has("username"):
		u, err = a.Users.GetByUsername(r.Context(), q.Get("username"))
	default:
		users, err := a.Users.List(r.Context())
		if err != nil {
			a.fail(w, r, err)
			return
		}
		a.respond(w, http.StatusOK, users)
		return
	}

	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.respond(w, http.StatusOK, []board.User{u})
}

// getUser looks a user up by id when the key is all digits and by username
// otherwise.
func (a *API) getUser(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	var (
		u   board.User
		err error
	)
	if id, perr := strconv.ParseInt(key, 10, 64); perr == nil && isDigits(key) {
		u, err = a.Users.Get(r.Context(), id)
	} else {
		u, err = a.Users.GetByUsername(r.Context(), key)
	}
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.respond(w, http.StatusOK, u)
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return s != ""
}

func (a *API) createUser(w http.ResponseWriter, r *http.Request) {
	c, ok := a.decodeCredentials(w, r)
	if !ok {
		return
	}
	u, err := a.Users.Signup(r.Context(), c.Username, c.Password)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.respond(w, http.StatusOK, u)
}

func (a *API) updateUser(w http.ResponseWriter, r *http.Request) {
	type request struct {
		UserID   int64   `json:"user_id" validate:"required,gt=0"`
		Username *string `json:"username"`
		Password *string `json:"password"`
	}

	var body request
	if !a.decodeBody(w, r, &body) {
		return
	}

	u, err := a.Users.Update(r.Context(), body.UserID, board.UserPatch{
		Username: body.Username,
		Password: body.Password,
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.respond(w, http.StatusOK, u)
}

func (a *API) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := a.pathID(w, r, "id")
	if !ok {
		return
	}
	users, err := a.Users.Delete(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.respond(w, http.StatusOK, users)
}
