package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/GetStream/postboard/board"
)

// Postgres provides storage in PostgreSQL.
type Postgres struct {
	bun *bun.DB
}

var _ board.DB = (*Postgres)(nil)

// Connect connects to the database and ping the DB to ensure the connection is
// working.
func Connect(ctx context.Context, connStr string) (*Postgres, error) {
	sqlDB := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(connStr)))
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return New(sqlDB), nil
}

// New wraps an open database handle.
func New(sqlDB *sql.DB) *Postgres {
	return &Postgres{
		bun: bun.NewDB(sqlDB, pgdialect.New()),
	}
}

// Ping checks that the database is reachable.
func (pg *Postgres) Ping(ctx context.Context) error {
	return pg.bun.PingContext(ctx)
}

// Close closes the underlying connection pool.
func (pg *Postgres) Close() error {
	return pg.bun.Close()
}

// SQLSTATE codes translated into board errors.
const (
	codeForeignKeyViolation = "23503"
	codeUniqueViolation     = "23505"
)

// translate maps driver errors onto the board storage errors.
func translate(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %w", board.ErrNoRecord, err)
	}
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		switch pgErr.Field('C') {
		case codeUniqueViolation:
			return fmt.Errorf("%w: %w", board.ErrDuplicate, err)
		case codeForeignKeyViolation:
			return fmt.Errorf("%w: %w", board.ErrReferenced, err)
		}
	}
	return err
}

// affected reports ErrNoRecord when a statement matched no rows.
func affected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return board.ErrNoRecord
	}
	return nil
}

// Users -----------------------------------------------------------------------

// InsertUser inserts a user. The returned user holds the generated id.
func (pg *Postgres) InsertUser(ctx context.Context, u board.User) (board.User, error) {
	m := &user{
		Username: u.Username,
		Password: u.Password,
	}
	if _, err := pg.bun.NewInsert().Model(m).Exec(ctx); err != nil {
		return board.User{}, fmt.Errorf("insert: %w", translate(err))
	}
	return m.BoardUser(), nil
}

// UserByID returns the user with the given id.
func (pg *Postgres) UserByID(ctx context.Context, id int64) (board.User, error) {
	var m user
	err := pg.bun.NewSelect().
		Model(&m).
		Where("u.user_id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return board.User{}, fmt.Errorf("scan: %w", translate(err))
	}
	return m.BoardUser(), nil
}

// UserByUsername returns the user with the given username.
func (pg *Postgres) UserByUsername(ctx context.Context, username string) (board.User, error) {
	var m user
	err := pg.bun.NewSelect().
		Model(&m).
		Where("u.username = ?", username).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return board.User{}, fmt.Errorf("scan: %w", translate(err))
	}
	return m.BoardUser(), nil
}

// ListUsers returns all users ordered by id.
func (pg *Postgres) ListUsers(ctx context.Context) ([]board.User, error) {
	var users []user
	if err := pg.bun.NewSelect().Model(&users).Order("u.user_id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	out := make([]board.User, len(users))
	for i, u := range users {
		out[i] = u.BoardUser()
	}
	return out, nil
}

// UpdateUser writes the username and password of u.
func (pg *Postgres) UpdateUser(ctx context.Context, u board.User) (board.User, error) {
	m := &user{
		ID:       u.ID,
		Username: u.Username,
		Password: u.Password,
	}
	res, err := pg.bun.NewUpdate().
		Model(m).
		Column("username", "password").
		WherePK().
		Exec(ctx)
	if err != nil {
		return board.User{}, fmt.Errorf("update: %w", translate(err))
	}
	if err := affected(res); err != nil {
		return board.User{}, fmt.Errorf("update: %w", err)
	}
	return m.BoardUser(), nil
}

// DeleteUser removes the user with the given id.
func (pg *Postgres) DeleteUser(ctx context.Context, id int64) error {
	res, err := pg.bun.NewDelete().
		Model((*user)(nil)).
		Where("user_id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete: %w", translate(err))
	}
	if err := affected(res); err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	return nil
}

// Posts -----------------------------------------------------------------------

// InsertPost inserts a post. The returned post holds the generated id.
func (pg *Postgres) InsertPost(ctx context.Context, p board.Post) (board.Post, error) {
	m := &post{
		UserFK:  p.OwnerID,
		Content: p.Content,
	}
	if _, err := pg.bun.NewInsert().Model(m).Exec(ctx); err != nil {
		return board.Post{}, fmt.Errorf("insert: %w", translate(err))
	}
	return m.BoardPost(), nil
}

// PostByID returns the post with the given id.
func (pg *Postgres) PostByID(ctx context.Context, id int64) (board.Post, error) {
	var m post
	err := pg.bun.NewSelect().
		Model(&m).
		Where("p.post_id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return board.Post{}, fmt.Errorf("scan: %w", translate(err))
	}
	return m.BoardPost(), nil
}

// ListPosts returns all posts in creation order.
func (pg *Postgres) ListPosts(ctx context.Context) ([]board.Post, error) {
	var posts []post
	if err := pg.bun.NewSelect().Model(&posts).Order("p.post_id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	out := make([]board.Post, len(posts))
	for i, p := range posts {
		out[i] = p.BoardPost()
	}
	return out, nil
}

// UpdatePost writes the content of p.
func (pg *Postgres) UpdatePost(ctx context.Context, p board.Post) (board.Post, error) {
	m := &post{
		ID:      p.ID,
		UserFK:  p.OwnerID,
		Content: p.Content,
	}
	res, err := pg.bun.NewUpdate().
		Model(m).
		Column("post_content").
		WherePK().
		Exec(ctx)
	if err != nil {
		return board.Post{}, fmt.Errorf("update: %w", translate(err))
	}
	if err := affected(res); err != nil {
		return board.Post{}, fmt.Errorf("update: %w", err)
	}
	return m.BoardPost(), nil
}

// DeletePost removes the post with the given id.
func (pg *Postgres) DeletePost(ctx context.Context, id int64) error {
	res, err := pg.bun.NewDelete().
		Model((*post)(nil)).
		Where("post_id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete: %w", translate(err))
	}
	if err := affected(res); err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	return nil
}

// Reactions -------------------------------------------------------------------

// InsertReaction inserts a post reaction into the database.
func (pg *Postgres) InsertReaction(ctx context.Context, r board.Reaction) (board.Reaction, error) {
	m := &reaction{
		PostFK:   r.PostID,
		UserFK:   r.OwnerID,
		Reaction: r.Kind,
	}
	if _, err := pg.bun.NewInsert().Model(m).Exec(ctx); err != nil {
		return board.Reaction{}, fmt.Errorf("insert: %w", translate(err))
	}
	return m.BoardReaction(), nil
}

// ReactionByID returns the reaction with the given id.
func (pg *Postgres) ReactionByID(ctx context.Context, id int64) (board.Reaction, error) {
	var m reaction
	err := pg.bun.NewSelect().
		Model(&m).
		Where("r.reaction_id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return board.Reaction{}, fmt.Errorf("scan: %w", translate(err))
	}
	return m.BoardReaction(), nil
}

// ReactionByOwner returns the reaction a user left on a post.
func (pg *Postgres) ReactionByOwner(ctx context.Context, postID, ownerID int64) (board.Reaction, error) {
	var m reaction
	err := pg.bun.NewSelect().
		Model(&m).
		Where("r.post_fk = ?", postID).
		Where("r.user_fk = ?", ownerID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return board.Reaction{}, fmt.Errorf("scan: %w", translate(err))
	}
	return m.BoardReaction(), nil
}

// ListReactions returns all reactions to a post.
func (pg *Postgres) ListReactions(ctx context.Context, postID int64) ([]board.Reaction, error) {
	var reactions []reaction
	err := pg.bun.NewSelect().
		Model(&reactions).
		Where("r.post_fk = ?", postID).
		Order("r.reaction_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	out := make([]board.Reaction, len(reactions))
	for i, r := range reactions {
		out[i] = r.BoardReaction()
	}
	return out, nil
}

// UpdateReaction writes the kind of r.
func (pg *Postgres) UpdateReaction(ctx context.Context, r board.Reaction) (board.Reaction, error) {
	m := &reaction{
		ID:       r.ID,
		PostFK:   r.PostID,
		UserFK:   r.OwnerID,
		Reaction: r.Kind,
	}
	res, err := pg.bun.NewUpdate().
		Model(m).
		Column("reaction").
		WherePK().
		Exec(ctx)
	if err != nil {
		return board.Reaction{}, fmt.Errorf("update: %w", translate(err))
	}
	if err := affected(res); err != nil {
		return board.Reaction{}, fmt.Errorf("update: %w", err)
	}
	return m.BoardReaction(), nil
}

// DeleteReaction removes the reaction with the given id.
func (pg *Postgres) DeleteReaction(ctx context.Context, id int64) error {
	res, err := pg.bun.NewDelete().
		Model((*reaction)(nil)).
		Where("reaction_id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete: %w", translate(err))
	}
	if err := affected(res); err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	return nil
}
