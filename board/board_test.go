package board_test

import (
	"context"
	"errors"
	"testing"

	"github.com/neilotoole/slogt"
	"golang.org/x/crypto/bcrypt"

	"github.com/GetStream/postboard/board"
	"github.com/GetStream/postboard/memory"
)

type testissuer struct{}

func (testissuer) Issue(username string) (board.Token, error) {
	return board.Token{AccessToken: "token-" + username, TokenType: "bearer"}, nil
}

type testrecorder struct {
	signups   int
	logins    map[bool]int
	reactions map[string]int
}

func (r *testrecorder) Signup()            { r.signups++ }
func (r *testrecorder) Login(ok bool)      { r.logins[ok]++ }
func (r *testrecorder) Reaction(op string) { r.reactions[op]++ }

func newRecorder() *testrecorder {
	return &testrecorder{logins: map[bool]int{}, reactions: map[string]int{}}
}

type fixture struct {
	db        *memory.Store
	users     *board.Directory
	posts     *board.Posts
	reactions *board.Reactions
	events    *testrecorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := memory.New()
	events := newRecorder()
	logger := slogt.New(t)
	return &fixture{
		db: db,
		users: &board.Directory{
			DB:       db,
			Tokens:   testissuer{},
			Logger:   logger,
			Events:   events,
			HashCost: bcrypt.MinCost,
		},
		posts: &board.Posts{DB: db},
		reactions: &board.Reactions{
			DB:     db,
			Posts:  db,
			Logger: logger,
			Events: events,
		},
		events: events,
	}
}

func (f *fixture) signup(t *testing.T, username, password string) board.User {
	t.Helper()
	u, err := f.users.Signup(context.Background(), username, password)
	if err != nil {
		t.Fatalf("Signup(%q): %v", username, err)
	}
	return u
}

func (f *fixture) post(t *testing.T, owner board.User, content string) board.Post {
	t.Helper()
	p, err := f.posts.Create(context.Background(), owner, content)
	if err != nil {
		t.Fatalf("Create post: %v", err)
	}
	return p
}

func (f *fixture) react(t *testing.T, p board.Post, owner board.User, kind string) board.Reaction {
	t.Helper()
	r, err := f.reactions.Create(context.Background(), p.ID, owner, kind)
	if err != nil {
		t.Fatalf("Create reaction: %v", err)
	}
	return r
}

func checkKind(t *testing.T, err error, want board.Kind) {
	t.Helper()
	if got := board.KindOf(err); got != want {
		t.Errorf("Got error %v (kind %v), want kind %v", err, got, want)
	}
}

func checkMessage(t *testing.T, err error, want string) {
	t.Helper()
	var e *board.Error
	if !errors.As(err, &e) {
		t.Fatalf("Got error %v, want *board.Error", err)
	}
	if e.Message != want {
		t.Errorf("Got message %q, want %q", e.Message, want)
	}
}
