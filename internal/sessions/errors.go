package sessions

import "errors"

var (
	ErrNotFound     = errors.New("session not found")
	ErrNoImage      = errors.New("session has no image")
	ErrInvalidOwner = errors.New("owner id required")
)
