package board

import "context"

// A UserDB persists users. Lookups return an error wrapping ErrNoRecord when
// no row matches.
type UserDB interface {
	InsertUser(ctx context.Context, u User) (User, error)
	UserByID(ctx context.Context, id int64) (User, error)
	UserByUsername(ctx context.Context, username string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	UpdateUser(ctx context.Context, u User) (User, error)
	DeleteUser(ctx context.Context, id int64) error
}

// A PostDB persists posts. ListPosts returns posts in creation order.
type PostDB interface {
	InsertPost(ctx context.Context, p Post) (Post, error)
	PostByID(ctx context.Context, id int64) (Post, error)
	ListPosts(ctx context.Context) ([]Post, error)
	UpdatePost(ctx context.Context, p Post) (Post, error)
	DeletePost(ctx context.Context, id int64) error
}

// A ReactionDB persists reactions.
type ReactionDB interface {
	InsertReaction(ctx context.Context, r Reaction) (Reaction, error)
	ReactionByID(ctx context.Context, id int64) (Reaction, error)
	ReactionByOwner(ctx context.Context, postID, ownerID int64) (Reaction, error)
	ListReactions(ctx context.Context, postID int64) ([]Reaction, error)
	UpdateReaction(ctx context.Context, r Reaction) (Reaction, error)
	DeleteReaction(ctx context.Context, id int64) error
}

// A DB provides the row store behind all services.
type DB interface {
	UserDB
	PostDB
	ReactionDB
	Ping(ctx context.Context) error
}

// A Cache keeps aggregated reaction counts. A miss is reported with ok set
// to false and a nil error, along with the current version of the entry.
// StoreCounts keeps c only while that version is current, so counts read
// before an InvalidateCounts are never stored after it.
type Cache interface {
	Counts(ctx context.Context, postID int64) (c Counts, version int64, ok bool, err error)
	StoreCounts(ctx context.Context, postID int64, version int64, c Counts) error
	InvalidateCounts(ctx context.Context, postID int64) error
}

// An Issuer creates bearer tokens for a username.
type Issuer interface {
	Issue(username string) (Token, error)
}

// A Recorder observes domain events.
type Recorder interface {
	Signup()
	Login(ok bool)
	Reaction(op string)
}

// NopRecorder discards all events.
type NopRecorder struct{}

func (NopRecorder) Signup()         {}
func (NopRecorder) Login(bool)      {}
func (NopRecorder) Reaction(string) {}
