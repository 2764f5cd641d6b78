package postgres

import (
	"github.com/uptrace/bun"

	"github.com/GetStream/postboard/board"
)

// A user represents a user in the database.
type user struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID       int64  `bun:"user_id,pk,autoincrement"`
	Username string `bun:"username,notnull,unique"`
	Password string `bun:"password,notnull"`
}

// A post represents a post in the database.
type post struct {
	bun.BaseModel `bun:"table:posts,alias:p"`

	ID      int64  `bun:"post_id,pk,autoincrement"`
	UserFK  int64  `bun:"user_fk,notnull"`
	Content string `bun:"post_content,notnull"`
	Owner   *user  `bun:"rel:belongs-to,join:user_fk=user_id"`
}

// A reaction represents a reaction in the database. A user reacts to a post
// at most once.
type reaction struct {
	bun.BaseModel `bun:"table:reactions,alias:r"`

	ID       int64  `bun:"reaction_id,pk,autoincrement"`
	PostFK   int64  `bun:"post_fk,notnull,unique:post_user"`
	UserFK   int64  `bun:"user_fk,notnull,unique:post_user"`
	Reaction string `bun:"reaction,notnull"`
	Post     *post  `bun:"rel:belongs-to,join:post_fk=post_id"`
	Owner    *user  `bun:"rel:belongs-to,join:user_fk=user_id"`
}

func (u user) BoardUser() board.User {
	return board.User{
		ID:       u.ID,
		Username: u.Username,
		Password: u.Password,
	}
}

func (p post) BoardPost() board.Post {
	return board.Post{
		ID:      p.ID,
		OwnerID: p.UserFK,
		Content: p.Content,
	}
}

func (r reaction) BoardReaction() board.Reaction {
	return board.Reaction{
		ID:      r.ID,
		PostID:  r.PostFK,
		OwnerID: r.UserFK,
		Kind:    r.Reaction,
	}
}
