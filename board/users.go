package board

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"
)

// Directory manages user accounts and credentials.
type Directory struct {
	DB     UserDB
	Tokens Issuer
	Logger *slog.Logger
	Events Recorder

	// HashCost is the bcrypt cost for stored passwords. Zero means
	// bcrypt.DefaultCost.
	HashCost int
}

// Signup registers a new user. The username must not be taken.
func (d *Directory) Signup(ctx context.Context, username, password string) (User, error) {
	_, err := d.DB.UserByUsername(ctx, username)
	switch {
	case err == nil:
		return User{}, newError(KindConflict, MsgUsernameTaken)
	case !errors.Is(err, ErrNoRecord):
		return User{}, fmt.Errorf("lookup user: %w", err)
	}

	hash, err := d.hash(password)
	if err != nil {
		return User{}, err
	}
	u, err := d.DB.InsertUser(ctx, User{Username: username, Password: hash})
	if errors.Is(err, ErrDuplicate) {
		return User{}, newError(KindConflict, MsgUsernameTaken)
	}
	if err != nil {
		return User{}, fmt.Errorf("insert user: %w", err)
	}

	d.events().Signup()
	d.Logger.Info("User signed up", "user_id", u.ID, "username", u.Username)
	return u, nil
}

// Login checks the credentials and issues a fresh token.
func (d *Directory) Login(ctx context.Context, username, password string) (Token, error) {
	u, err := d.DB.UserByUsername(ctx, username)
	if errors.Is(err, ErrNoRecord) {
		d.events().Login(false)
		return Token{}, newError(KindUnauthorized, MsgBadCredentials)
	}
	if err != nil {
		return Token{}, fmt.Errorf("lookup user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), prehash(password)) != nil {
		d.events().Login(false)
		return Token{}, newError(KindUnauthorized, MsgBadCredentials)
	}

	tok, err := d.Tokens.Issue(u.Username)
	if err != nil {
		return Token{}, fmt.Errorf("issue token: %w", err)
	}
	d.events().Login(true)
	return tok, nil
}

// List returns every user. An empty directory is reported as NotFound.
func (d *Directory) List(ctx context.Context) ([]User, error) {
	users, err := d.DB.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	if len(users) == 0 {
		return nil, newError(KindNotFound, MsgNoUsers)
	}
	return users, nil
}

// Get returns the user with the given id.
func (d *Directory) Get(ctx context.Context, id int64) (User, error) {
	u, err := d.DB.UserByID(ctx, id)
	if errors.Is(err, ErrNoRecord) {
		return User{}, newError(KindNotFound, msgUserIDNotFound, id)
	}
	if err != nil {
		return User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// GetByUsername returns the user with the given username.
func (d *Directory) GetByUsername(ctx context.Context, username string) (User, error) {
	u, err := d.DB.UserByUsername(ctx, username)
	if errors.Is(err, ErrNoRecord) {
		return User{}, newError(KindNotFound, msgUsernameNotFound, username)
	}
	if err != nil {
		return User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// Update applies the non-nil fields of p to the user with the given id. A new
// username must not belong to a different user.
func (d *Directory) Update(ctx context.Context, id int64, p UserPatch) (User, error) {
	u, err := d.Get(ctx, id)
	if err != nil {
		return User{}, err
	}

	if p.Username != nil && *p.Username != "" {
		other, err := d.DB.UserByUsername(ctx, *p.Username)
		switch {
		case err == nil && other.ID != u.ID:
			return User{}, newError(KindBadRequest, msgUsernameExists, *p.Username)
		case err != nil && !errors.Is(err, ErrNoRecord):
			return User{}, fmt.Errorf("lookup user: %w", err)
		}
	}

	if p.Username != nil {
		u.Username = *p.Username
	}
	if p.Password != nil {
		hash, err := d.hash(*p.Password)
		if err != nil {
			return User{}, err
		}
		u.Password = hash
	}

	name := u.Username
	u, err = d.DB.UpdateUser(ctx, u)
	if errors.Is(err, ErrDuplicate) {
		return User{}, newError(KindBadRequest, msgUsernameExists, name)
	}
	if err != nil {
		return User{}, fmt.Errorf("update user: %w", err)
	}
	return u, nil
}

// Delete removes the user with the given id and returns the remaining users
// with the same rules as List.
func (d *Directory) Delete(ctx context.Context, id int64) ([]User, error) {
	if _, err := d.Get(ctx, id); err != nil {
		return nil, err
	}

	err := d.DB.DeleteUser(ctx, id)
	if errors.Is(err, ErrReferenced) {
		return nil, newError(KindInUse, msgUserInUse, id)
	}
	if err != nil {
		return nil, fmt.Errorf("delete user: %w", err)
	}
	return d.List(ctx)
}

func (d *Directory) hash(password string) (string, error) {
	cost := d.HashCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword(prehash(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

func (d *Directory) events() Recorder {
	if d.Events == nil {
		return NopRecorder{}
	}
	return d.Events
}

// prehash reduces a password of any length to a fixed size input that fits
// within the 72 byte bcrypt limit.
func prehash(password string) []byte {
	sum := sha256.Sum256([]byte(password))
	out := make([]byte, base64.StdEncoding.EncodedLen(len(sum)))
	base64.StdEncoding.Encode(out, sum[:])
	return out
}
