package redis

import "github.com/GetStream/postboard/board"

// counts represents the cached reaction counts of a post.
type counts struct {
	Likes    int `redis:"likes"`
	Dislikes int `redis:"dislikes"`
}

func (c counts) BoardCounts() board.Counts {
	return board.Counts{
		Likes:    c.Likes,
		Dislikes: c.Dislikes,
	}
}
