package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/GetStream/postboard/board"
)

// Redis caches reaction counts in Redis.
type Redis struct {
	cli *redis.Client
	ttl time.Duration
}

var _ board.Cache = (*Redis)(nil)

// Connect connects to the Redis server and pings the server to ensure the
// connection is working. Cached entries expire after ttl.
func Connect(ctx context.Context, addr string, ttl time.Duration) (*Redis, error) {
	cli := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	if err := cli.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return New(cli, ttl), nil
}

// New wraps an existing client.
func New(cli *redis.Client, ttl time.Duration) *Redis {
	return &Redis{
		cli: cli,
		ttl: ttl,
	}
}

// Close closes the client.
func (r *Redis) Close() error {
	return r.cli.Close()
}

const countsPrefix = "posts"

func countsKey(postID int64) string {
	return fmt.Sprintf("%s:%d:counts", countsPrefix, postID)
}

// versionKey holds a counter bumped on every invalidation of the counts of
// a post.
func versionKey(postID int64) string {
	return fmt.Sprintf("%s:%d:counts:version", countsPrefix, postID)
}

// Counts returns the cached counts of a post. On a miss it returns the
// version to pass to StoreCounts.
func (r *Redis) Counts(ctx context.Context, postID int64) (board.Counts, int64, bool, error) {
	var (
		hash    *redis.MapStringStringCmd
		version *redis.StringCmd
	)
	_, err := r.cli.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		hash = pipe.HGetAll(ctx, countsKey(postID))
		version = pipe.Get(ctx, versionKey(postID))
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return board.Counts{}, 0, false, fmt.Errorf("read counts: %w", err)
	}

	v, err := parseVersion(version)
	if err != nil {
		return board.Counts{}, 0, false, err
	}
	if len(hash.Val()) == 0 {
		return board.Counts{}, v, false, nil
	}

	var c counts
	if err := hash.Scan(&c); err != nil {
		return board.Counts{}, 0, false, fmt.Errorf("scan: %w", err)
	}
	return c.BoardCounts(), v, true, nil
}

func parseVersion(cmd *redis.StringCmd) (int64, error) {
	v, err := cmd.Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("parse counts version: %w", err)
	}
	return v, nil
}

var errStale = errors.New("counts version changed")

// StoreCounts caches the counts of a post unless the counts were invalidated
// since version was read.
func (r *Redis) StoreCounts(ctx context.Context, postID, version int64, bc board.Counts) error {
	c := &counts{
		Likes:    bc.Likes,
		Dislikes: bc.Dislikes,
	}
	key, vkey := countsKey(postID), versionKey(postID)

	err := r.cli.Watch(ctx, func(tx *redis.Tx) error {
		current, err := parseVersion(tx.Get(ctx, vkey))
		if err != nil {
			return err
		}
		if current != version {
			return errStale
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, c)
			if r.ttl > 0 {
				pipe.Expire(ctx, key, r.ttl)
			}
			return nil
		})
		return err
	}, vkey)
	if errors.Is(err, errStale) || errors.Is(err, redis.TxFailedErr) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("redis store counts: %w", err)
	}
	return nil
}

// InvalidateCounts drops the cached counts of a post and bumps its version.
func (r *Redis) InvalidateCounts(ctx context.Context, postID int64) error {
	_, err := r.cli.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, versionKey(postID))
		pipe.Del(ctx, countsKey(postID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("invalidate counts: %w", err)
	}
	return nil
}
