package storage

import "errors"

var (
	ErrEntityNotFound    = errors.New("entity not found")
	ErrComponentNotFound = errors.New("component not found")
	ErrEntityExists      = errors.New("entity already exists")
	ErrInvalidEntity     = errors.New("invalid entity")
)
