package api

import (
	"net/http"

	"github.com/GetStream/postboard/board"
)

type postsResponse struct {
	Posts []board.Post `json:"posts"`
}

func (a *API) listPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := a.Posts.List(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.respond(w, http.StatusOK, postsResponse{Posts: posts})
}

func (a *API) createPost(w http.ResponseWriter, r *http.Request) {
	type request struct {
		Content string `json:"post_content" validate:"required"`
	}

	var body request
	if !a.decodeBody(w, r, &body) {
		return
	}

	p, err := a.Posts.Create(r.Context(), caller(r), body.Content)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.respond(w, http.StatusOK, p)
}

func (a *API) updatePost(w http.ResponseWriter, r *http.Request) {
	type request struct {
		PostID  int64  `json:"post_id" validate:"required,gt=0"`
		Content string `json:"post_content" validate:"required"`
	}

	var body request
	if !a.decodeBody(w, r, &body) {
		return
	}

	p, err := a.Posts.Update(r.Context(), body.PostID, body.Content, caller(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.respond(w, http.StatusOK, p)
}

func (a *API) deletePost(w http.ResponseWriter, r *http.Request) {
	id, ok := a.pathID(w, r, "id")
	if !ok {
		return
	}
	posts, err := a.Posts.Delete(r.Context(), id, caller(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.respond(w, http.StatusOK, postsResponse{Posts: posts})
}
