package domain

import (
	"chat-room/errors"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateNickname enforces the nickname shape rule: non-empty, ASCII
// letters and digits only. The validator "alphanum" rule matches exactly
// [A-Za-z0-9]+, which is the historical behavior clients rely on.
func ValidateNickname(nickname string) error {
	if err := validate.Var(nickname, "required,alphanum"); err != nil {
		return errors.ErrInvalidNickname
	}
	return nil
}
