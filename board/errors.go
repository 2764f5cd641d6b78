package board

import (
	"errors"
	"fmt"
)

// Storage errors. Row stores wrap these so the rule services can tell a
// missing row or a violated constraint apart from a failing store.
var (
	ErrNoRecord   = errors.New("no record")
	ErrDuplicate  = errors.New("duplicate record")
	ErrReferenced = errors.New("record is referenced")
)

// Kind classifies a rule violation.
type Kind int

const (
	KindNotFound Kind = iota + 1
	KindConflict
	KindForbidden
	KindUnauthorized
	KindBadRequest
	KindInUse
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindConflict:
		return "conflict"
	case KindForbidden:
		return "forbidden"
	case KindUnauthorized:
		return "unauthorized"
	case KindBadRequest:
		return "bad request"
	case KindInUse:
		return "in use"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is returned by the rule services when an operation is rejected. The
// message is meant for the end caller.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Kind.String() + ": " + e.Message
}

func newError(k Kind, format string, args ...any) *Error {
	return &Error{Kind: k, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of err, or zero when err is not a rule violation.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// Messages returned to callers. Clients of the service match on these.
const (
	MsgUsernameTaken    = "Пользователь с таким именем уже существует"
	MsgBadCredentials   = "Некорректный логин или пароль"
	MsgNoUsers          = "Не существует ни одного пользователя"
	msgUserIDNotFound   = "Пользователь с id %d не найден"
	msgUsernameNotFound = "Пользователь с username %s не найден"
	msgUsernameExists   = "Пользователь с именем %s уже существует"
	msgUserInUse        = "Пользователь %d всё ещё используется"

	MsgNoPosts          = "Не существует ни одной публикации"
	MsgPostNotFound     = "Не найдено ни одной публикации с данным id"
	MsgPostEditDenied   = "Вы не можете редактировать не свой пост / Не хватает прав на редактирование"
	MsgPostDeleteDenied = "Вы не можете удалить не свой пост / Не хватает прав на редактирование"
	msgPostInUse        = "Публикация %d всё ещё используется"

	MsgNoReactions          = "Нет ни одной реакции для данного поста"
	MsgReactionPostMissing  = "Нет публикации, чтобы поставить реакцию"
	MsgDuplicateReaction    = "Нельзя поставить больше одной реакции на публикацию"
	MsgReactionNotFound     = "Не найдено реакции с данным id"
	MsgReactionEditDenied   = "Вы не можете изменить не свою реакцию / Недостаточно прав"
	MsgReactionDeleteDenied = "Вы не можете удалять не свою реакцию / Недостаточно прав"
	MsgReactionDeleted      = "Реакция удалена"
)
