package board

import "fmt"

// A User represents a registered account.
type User struct {
	ID       int64  `json:"user_id"`
	Username string `json:"username"`
	Password string `json:"-"`
}

// A Post represents a text post owned by a user.
type Post struct {
	ID      int64  `json:"post_id"`
	OwnerID int64  `json:"user_fk"`
	Content string `json:"post_content"`
}

// A Reaction represents a user's like or dislike of a post.
type Reaction struct {
	ID      int64  `json:"reaction_id"`
	PostID  int64  `json:"post_fk"`
	OwnerID int64  `json:"user_fk"`
	Kind    string `json:"reaction"`
}

// Reaction kinds. Kind values are not validated: anything other than Like
// counts as a dislike.
const (
	Like    = "like"
	Dislike = "dislike"
)

// Toggled returns the opposite kind of k.
func Toggled(k string) string {
	if k == Like {
		return Dislike
	}
	return Like
}

// Counts holds the aggregated reactions of a single post.
type Counts struct {
	Likes    int `json:"likes"`
	Dislikes int `json:"dislikes"`
}

// String formats c as the public summary line.
func (c Counts) String() string {
	return fmt.Sprintf("likes: %d, dislikes: %d", c.Likes, c.Dislikes)
}

// Token is a bearer credential issued on login.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// UserPatch carries the optional fields of a user update. Nil fields are left
// untouched.
type UserPatch struct {
	Username *string
	Password *string
}
