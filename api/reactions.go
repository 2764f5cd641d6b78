package api

import (
	"net/http"
)

// reactionCounts reports the like and dislike counts of a post as a text
// summary. It does not require a token.
func (a *API) reactionCounts(w http.ResponseWriter, r *http.Request) {
	postID, ok := a.pathID(w, r, "post_id")
	if !ok {
		return
	}
	c, err := a.Reactions.Counts(r.Context(), postID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.respond(w, http.StatusOK, c.String())
}

func (a *API) createReaction(w http.ResponseWriter, r *http.Request) {
	type request struct {
		PostID int64  `json:"post_id" validate:"required,gt=0"`
		Kind   string `json:"reaction" validate:"required"`
	}

	var body request
	if !a.decodeBody(w, r, &body) {
		return
	}

	reaction, err := a.Reactions.Create(r.Context(), body.PostID, caller(r), body.Kind)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.respond(w, http.StatusOK, reaction)
}

// toggleReaction flips the kind of the caller's reaction between like and
// dislike.
func (a *API) toggleReaction(w http.ResponseWriter, r *http.Request) {
	type request struct {
		ReactionID int64 `json:"reaction_id" validate:"required,gt=0"`
	}

	var body request
	if !a.decodeBody(w, r, &body) {
		return
	}

	reaction, err := a.Reactions.Toggle(r.Context(), body.ReactionID, caller(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.respond(w, http.StatusOK, reaction)
}

func (a *API) deleteReaction(w http.ResponseWriter, r *http.Request) {
	id, ok := a.pathID(w, r, "id")
	if !ok {
		return
	}
	msg, err := a.Reactions.Delete(r.Context(), id, caller(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.respond(w, http.StatusOK, msg)
}
