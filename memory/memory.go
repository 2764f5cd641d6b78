// Package memory provides an in-memory row store. It is safe for concurrent
// use and is intended for tests and local development. Foreign keys are not
// enforced.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/GetStream/postboard/board"
)

// Store keeps users, posts and reactions in maps keyed by id.
type Store struct {
	mu        sync.RWMutex
	nextID    map[string]int64
	users     map[int64]board.User
	posts     map[int64]board.Post
	reactions map[int64]board.Reaction
}

var _ board.DB = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		nextID:    make(map[string]int64),
		users:     make(map[int64]board.User),
		posts:     make(map[int64]board.Post),
		reactions: make(map[int64]board.Reaction),
	}
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) nextIDLocked(table string) int64 {
	s.nextID[table]++
	return s.nextID[table]
}

func notFound(table string, id any) error {
	return fmt.Errorf("%s %v: %w", table, id, board.ErrNoRecord)
}

// sorted returns the values of m ordered by id, which is creation order.
func sorted[T any](m map[int64]T) []T {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]T, len(ids))
	for i, id := range ids {
		out[i] = m[id]
	}
	return out
}

// Users -----------------------------------------------------------------------

func (s *Store) InsertUser(_ context.Context, u board.User) (board.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.usernameTakenLocked(u.Username, 0) {
		return board.User{}, fmt.Errorf("user %q: %w", u.Username, board.ErrDuplicate)
	}
	u.ID = s.nextIDLocked("users")
	s.users[u.ID] = u
	return u, nil
}

func (s *Store) UserByID(_ context.Context, id int64) (board.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return board.User{}, notFound("user", id)
	}
	return u, nil
}

func (s *Store) UserByUsername(_ context.Context, username string) (board.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Username == username {
			return u, nil
		}
	}
	return board.User{}, notFound("user", username)
}

func (s *Store) ListUsers(context.Context) ([]board.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sorted(s.users), nil
}

func (s *Store) UpdateUser(_ context.Context, u board.User) (board.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[u.ID]; !ok {
		return board.User{}, notFound("user", u.ID)
	}
	if s.usernameTakenLocked(u.Username, u.ID) {
		return board.User{}, fmt.Errorf("user %q: %w", u.Username, board.ErrDuplicate)
	}
	s.users[u.ID] = u
	return u, nil
}

func (s *Store) DeleteUser(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return notFound("user", id)
	}
	delete(s.users, id)
	return nil
}

func (s *Store) usernameTakenLocked(username string, except int64) bool {
	for id, u := range s.users {
		if id != except && u.Username == username {
			return true
		}
	}
	return false
}

// Posts -----------------------------------------------------------------------

func (s *Store) InsertPost(_ context.Context, p board.Post) (board.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p.ID = s.nextIDLocked("posts")
	s.posts[p.ID] = p
	return p, nil
}

func (s *Store) PostByID(_ context.Context, id int64) (board.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.posts[id]
	if !ok {
		return board.Post{}, notFound("post", id)
	}
	return p, nil
}

func (s *Store) ListPosts(context.Context) ([]board.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sorted(s.posts), nil
}

func (s *Store) UpdatePost(_ context.Context, p board.Post) (board.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[p.ID]; !ok {
		return board.Post{}, notFound("post", p.ID)
	}
	s.posts[p.ID] = p
	return p, nil
}

func (s *Store) DeletePost(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[id]; !ok {
		return notFound("post", id)
	}
	delete(s.posts, id)
	return nil
}

// Reactions -------------------------------------------------------------------

func (s *Store) InsertReaction(_ context.Context, r board.Reaction) (board.Reaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, other := range s.reactions {
		if other.PostID == r.PostID && other.OwnerID == r.OwnerID {
			return board.Reaction{}, fmt.Errorf("reaction on post %d by user %d: %w", r.PostID, r.OwnerID, board.ErrDuplicate)
		}
	}
	r.ID = s.nextIDLocked("reactions")
	s.reactions[r.ID] = r
	return r, nil
}

func (s *Store) ReactionByID(_ context.Context, id int64) (board.Reaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.reactions[id]
	if !ok {
		return board.Reaction{}, notFound("reaction", id)
	}
	return r, nil
}

func (s *Store) ReactionByOwner(_ context.Context, postID, ownerID int64) (board.Reaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.reactions {
		if r.PostID == postID && r.OwnerID == ownerID {
			return r, nil
		}
	}
	return board.Reaction{}, notFound("reaction", fmt.Sprintf("%d/%d", postID, ownerID))
}

func (s *Store) ListReactions(_ context.Context, postID int64) ([]board.Reaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []board.Reaction
	for _, r := range sorted(s.reactions) {
		if r.PostID == postID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Store) UpdateReaction(_ context.Context, r board.Reaction) (board.Reaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reactions[r.ID]; !ok {
		return board.Reaction{}, notFound("reaction", r.ID)
	}
	s.reactions[r.ID] = r
	return r, nil
}

func (s *Store) DeleteReaction(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reactions[id]; !ok {
		return notFound("reaction", id)
	}
	delete(s.reactions, id)
	return nil
}
