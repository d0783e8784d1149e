package userplan

import "errors"

var (
	ErrUserNotFound = errors.New("userplan: user not found")
)
