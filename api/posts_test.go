package api

import (
	"testing"
)

func TestAPI_posts(t *testing.T) {
	srv := newServer(t)
	alice := srv.register(t, "alice", "pw1")
	bob := srv.register(t, "bob", "pw2")

	// No posts yet.
	resp := srv.do(t, "GET", "/posts", alice, "")
	checkStatus(t, resp.StatusCode, 404)
	checkBody(t, resp, `{"detail": "Не существует ни одной публикации"}`)

	resp = srv.do(t, "POST", "/posts", alice, `{"post_content": "hello"}`)
	checkStatus(t, resp.StatusCode, 200)
	checkBody(t, resp, `{"post_id": 1, "user_fk": 1, "post_content": "hello"}`)

	resp = srv.do(t, "POST", "/posts", bob, `{"post_content": "from bob"}`)
	checkStatus(t, resp.StatusCode, 200)

	resp = srv.do(t, "PUT", "/posts", alice, `{"post_id": 1, "post_content": "hello2"}`)
	checkStatus(t, resp.StatusCode, 200)
	checkBody(t, resp, `{"post_id": 1, "user_fk": 1, "post_content": "hello2"}`)

	resp = srv.do(t, "PUT", "/posts", bob, `{"post_id": 1, "post_content": "mine now"}`)
	checkStatus(t, resp.StatusCode, 403)
	checkBody(t, resp, `{"detail": "Вы не можете редактировать не свой пост / Не хватает прав на редактирование"}`)

	resp = srv.do(t, "DELETE", "/posts/1", bob, "")
	checkStatus(t, resp.StatusCode, 403)
	checkBody(t, resp, `{"detail": "Вы не можете удалить не свой пост / Не хватает прав на редактирование"}`)

	resp = srv.do(t, "DELETE", "/posts/1", alice, "")
	checkStatus(t, resp.StatusCode, 200)
	checkBody(t, resp, `{"posts": [{"post_id": 2, "user_fk": 2, "post_content": "from bob"}]}`)

	resp = srv.do(t, "GET", "/posts", alice, "")
	checkStatus(t, resp.StatusCode, 200)
	checkBody(t, resp, `{"posts": [{"post_id": 2, "user_fk": 2, "post_content": "from bob"}]}`)

	resp = srv.do(t, "DELETE", "/posts/2", bob, "")
	checkStatus(t, resp.StatusCode, 200)
	checkBody(t, resp, `{"posts": []}`)
}

func TestAPI_updatePost(t *testing.T) {
	tests := []struct {
		name       string
		req        string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "UnknownID",
			req:        `{"post_id": 42, "post_content": "x"}`,
			wantStatus: 404,
			wantBody:   `{"detail": "Не найдено ни одной публикации с данным id"}`,
		},
		{
			name:       "InvalidJSON",
			req:        `{"post_id": "one"`,
			wantStatus: 400,
			wantBody:   `{"detail": "Could not decode request body"}`,
		},
		{
			name:       "MissingFields",
			req:        `{}`,
			wantStatus: 400,
			wantBody: `{
				"errors": [
					{"Field": "post_id", "Message": "Key: 'request.post_id' Error:Field validation for 'post_id' failed on the 'required' tag"},
					{"Field": "post_content", "Message": "Key: 'request.post_content' Error:Field validation for 'post_content' failed on the 'required' tag"}
				]
			}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newServer(t)
			token := srv.register(t, "alice", "pw1")

			resp := srv.do(t, "PUT", "/posts", token, tt.req)
			checkStatus(t, resp.StatusCode, tt.wantStatus)
			checkBody(t, resp, tt.wantBody)
		})
	}
}

func TestAPI_deletePost_invalidID(t *testing.T) {
	srv := newServer(t)
	token := srv.register(t, "alice", "pw1")

	resp := srv.do(t, "DELETE", "/posts/abc", token, "")
	checkStatus(t, resp.StatusCode, 400)
	checkBody(t, resp, `{"detail": "Invalid id"}`)

	resp = srv.do(t, "DELETE", "/posts/7", token, "")
	checkStatus(t, resp.StatusCode, 404)
}
