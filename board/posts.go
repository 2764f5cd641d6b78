package board

import (
	"context"
	"errors"
	"fmt"
)

// Posts manages posts. Only the owner of a post may change or remove it.
type Posts struct {
	DB PostDB
}

// List returns all posts in creation order. No posts is reported as NotFound.
func (s *Posts) List(ctx context.Context) ([]Post, error) {
	posts, err := s.DB.ListPosts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	if len(posts) == 0 {
		return nil, newError(KindNotFound, MsgNoPosts)
	}
	return posts, nil
}

// Create stores a new post owned by owner.
func (s *Posts) Create(ctx context.Context, owner User, content string) (Post, error) {
	p, err := s.DB.InsertPost(ctx, Post{OwnerID: owner.ID, Content: content})
	if err != nil {
		return Post{}, fmt.Errorf("insert post: %w", err)
	}
	return p, nil
}

// Update replaces the content of post id on behalf of caller.
func (s *Posts) Update(ctx context.Context, id int64, content string, caller User) (Post, error) {
	p, err := s.owned(ctx, id, caller, MsgPostEditDenied)
	if err != nil {
		return Post{}, err
	}

	p.Content = content
	p, err = s.DB.UpdatePost(ctx, p)
	if err != nil {
		return Post{}, fmt.Errorf("update post: %w", err)
	}
	return p, nil
}

// Delete removes post id on behalf of caller and returns the remaining posts.
// Unlike List, an empty result is not an error.
func (s *Posts) Delete(ctx context.Context, id int64, caller User) ([]Post, error) {
	if _, err := s.owned(ctx, id, caller, MsgPostDeleteDenied); err != nil {
		return nil, err
	}

	err := s.DB.DeletePost(ctx, id)
	if errors.Is(err, ErrReferenced) {
		return nil, newError(KindInUse, msgPostInUse, id)
	}
	if err != nil {
		return nil, fmt.Errorf("delete post: %w", err)
	}

	posts, err := s.DB.ListPosts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	if posts == nil {
		posts = []Post{}
	}
	return posts, nil
}

func (s *Posts) owned(ctx context.Context, id int64, caller User, denied string) (Post, error) {
	p, err := s.DB.PostByID(ctx, id)
	if errors.Is(err, ErrNoRecord) {
		return Post{}, newError(KindNotFound, MsgPostNotFound)
	}
	if err != nil {
		return Post{}, fmt.Errorf("get post: %w", err)
	}
	if p.OwnerID != caller.ID {
		return Post{}, newError(KindForbidden, denied)
	}
	return p, nil
}
