package board

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Reactions manages likes and dislikes. A user holds at most one reaction per
// post and only the owner may toggle or remove it.
type Reactions struct {
	DB     ReactionDB
	Posts  PostDB
	Cache  Cache
	Logger *slog.Logger
	Events Recorder
}

// Counts returns the likes and dislikes of a post. A post without reactions
// is reported as NotFound.
func (s *Reactions) Counts(ctx context.Context, postID int64) (Counts, error) {
	var (
		version int64
		store   bool
	)
	if s.Cache != nil {
		c, v, ok, err := s.Cache.Counts(ctx, postID)
		switch {
		case err != nil:
			s.Logger.Error("Could not read cached reaction counts", "post_id", postID, "error", err.Error())
		case ok:
			return c, nil
		default:
			version, store = v, true
		}
	}

	reactions, err := s.DB.ListReactions(ctx, postID)
	if err != nil {
		return Counts{}, fmt.Errorf("list reactions: %w", err)
	}
	if len(reactions) == 0 {
		return Counts{}, newError(KindNotFound, MsgNoReactions)
	}

	var c Counts
	for _, r := range reactions {
		if r.Kind == Like {
			c.Likes++
		}
	}
	c.Dislikes = len(reactions) - c.Likes

	if store {
		if err := s.Cache.StoreCounts(ctx, postID, version, c); err != nil {
			s.Logger.Error("Could not cache reaction counts", "post_id", postID, "error", err.Error())
		}
	}
	return c, nil
}

// Create adds a reaction of the given kind to a post on behalf of owner.
func (s *Reactions) Create(ctx context.Context, postID int64, owner User, kind string) (Reaction, error) {
	_, err := s.Posts.PostByID(ctx, postID)
	if errors.Is(err, ErrNoRecord) {
		return Reaction{}, newError(KindNotFound, MsgReactionPostMissing)
	}
	if err != nil {
		return Reaction{}, fmt.Errorf("get post: %w", err)
	}

	_, err = s.DB.ReactionByOwner(ctx, postID, owner.ID)
	switch {
	case err == nil:
		return Reaction{}, newError(KindForbidden, MsgDuplicateReaction)
	case !errors.Is(err, ErrNoRecord):
		return Reaction{}, fmt.Errorf("lookup reaction: %w", err)
	}

	r, err := s.DB.InsertReaction(ctx, Reaction{PostID: postID, OwnerID: owner.ID, Kind: kind})
	if errors.Is(err, ErrDuplicate) {
		return Reaction{}, newError(KindForbidden, MsgDuplicateReaction)
	}
	if err != nil {
		return Reaction{}, fmt.Errorf("insert reaction: %w", err)
	}

	s.invalidate(ctx, postID)
	s.events().Reaction("create")
	return r, nil
}

// Toggle flips reaction id between like and dislike on behalf of caller.
func (s *Reactions) Toggle(ctx context.Context, id int64, caller User) (Reaction, error) {
	r, err := s.owned(ctx, id, caller, MsgReactionEditDenied)
	if err != nil {
		return Reaction{}, err
	}

	r.Kind = Toggled(r.Kind)
	r, err = s.DB.UpdateReaction(ctx, r)
	if err != nil {
		return Reaction{}, fmt.Errorf("update reaction: %w", err)
	}

	s.invalidate(ctx, r.PostID)
	s.events().Reaction("toggle")
	return r, nil
}

// Delete removes reaction id on behalf of caller and returns a confirmation.
func (s *Reactions) Delete(ctx context.Context, id int64, caller User) (string, error) {
	r, err := s.owned(ctx, id, caller, MsgReactionDeleteDenied)
	if err != nil {
		return "", err
	}

	if err := s.DB.DeleteReaction(ctx, id); err != nil {
		return "", fmt.Errorf("delete reaction: %w", err)
	}

	s.invalidate(ctx, r.PostID)
	s.events().Reaction("delete")
	return MsgReactionDeleted, nil
}

func (s *Reactions) owned(ctx context.Context, id int64, caller User, denied string) (Reaction, error) {
	r, err := s.DB.ReactionByID(ctx, id)
	if errors.Is(err, ErrNoRecord) {
		return Reaction{}, newError(KindNotFound, MsgReactionNotFound)
	}
	if err != nil {
		return Reaction{}, fmt.Errorf("get reaction: %w", err)
	}
	if r.OwnerID != caller.ID {
		return Reaction{}, newError(KindForbidden, denied)
	}
	return r, nil
}

func (s *Reactions) invalidate(ctx context.Context, postID int64) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.InvalidateCounts(ctx, postID); err != nil {
		s.Logger.Error("Could not invalidate reaction counts", "post_id", postID, "error", err.Error())
	}
}

func (s *Reactions) events() Recorder {
	if s.Events == nil {
		return NopRecorder{}
	}
	return s.Events
}
