package board_test

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/GetStream/postboard/board"
)

func TestPosts_List(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.posts.List(ctx)
	checkKind(t, err, board.KindNotFound)
	checkMessage(t, err, board.MsgNoPosts)

	alice := f.signup(t, "alice", "pw")
	f.post(t, alice, "one")
	f.post(t, alice, "two")

	posts, err := f.posts.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := []board.Post{
		{ID: 1, OwnerID: alice.ID, Content: "one"},
		{ID: 2, OwnerID: alice.ID, Content: "two"},
	}
	if diff := cmp.Diff(want, posts); diff != "" {
		t.Errorf("List() mismatch (-want +got):\n%s", diff)
	}
}

func TestPosts_Update(t *testing.T) {
	tests := []struct {
		name     string
		id       int64
		caller   string
		wantKind board.Kind
		wantMsg  string
	}{
		{name: "Owner", id: 1, caller: "alice"},
		{name: "NotOwner", id: 1, caller: "bob", wantKind: board.KindForbidden, wantMsg: board.MsgPostEditDenied},
		{name: "Unknown", id: 7, caller: "alice", wantKind: board.KindNotFound, wantMsg: board.MsgPostNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			users := map[string]board.User{
				"alice": f.signup(t, "alice", "pw"),
				"bob":   f.signup(t, "bob", "pw"),
			}
			f.post(t, users["alice"], "hello")

			p, err := f.posts.Update(ctx, tt.id, "hello2", users[tt.caller])
			if tt.wantKind != 0 {
				checkKind(t, err, tt.wantKind)
				checkMessage(t, err, tt.wantMsg)

				stored, err := f.db.PostByID(ctx, 1)
				if err != nil {
					t.Fatal(err)
				}
				if stored.Content != "hello" {
					t.Errorf("Rejected update changed content to %q", stored.Content)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if p.Content != "hello2" || p.OwnerID != users["alice"].ID {
				t.Errorf("Got post %+v, want content hello2 owned by alice", p)
			}
		})
	}
}

func TestPosts_Delete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.signup(t, "alice", "pw")
	bob := f.signup(t, "bob", "pw")

	mine := f.post(t, alice, "alice's")
	b1 := f.post(t, bob, "bob 1")
	b2 := f.post(t, bob, "bob 2")

	_, err := f.posts.Delete(ctx, mine.ID, bob)
	checkKind(t, err, board.KindForbidden)
	checkMessage(t, err, board.MsgPostDeleteDenied)

	_, err = f.posts.Delete(ctx, 99, alice)
	checkKind(t, err, board.KindNotFound)

	posts, err := f.posts.Delete(ctx, mine.ID, alice)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]board.Post{b1, b2}, posts); diff != "" {
		t.Errorf("Remaining posts mismatch (-want +got):\n%s", diff)
	}
}

func TestPosts_Delete_last(t *testing.T) {
	f := newFixture(t)
	alice := f.signup(t, "alice", "pw")
	p := f.post(t, alice, "only")

	posts, err := f.posts.Delete(context.Background(), p.ID, alice)
	if err != nil {
		t.Fatalf("Delete() of the last post: %v", err)
	}
	if posts == nil || len(posts) != 0 {
		t.Errorf("Got %#v, want an empty non-nil list", posts)
	}
}
