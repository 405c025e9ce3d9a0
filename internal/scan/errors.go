package scan

import "errors"

var (
	ErrGameNotFound   = errors.New("game not found")
	ErrInvalidRequest = errors.New("invalid scan request")
	ErrInvalidRange   = errors.New("invalid seed range")
)
