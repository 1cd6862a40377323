package model

import (
	"errors"
	"fmt"
	"io/fs"
)

var (
	// ErrNotFound is returned when an entity is not part of its expected
	// container or an identifier kind is not supported.
	ErrNotFound = errors.New("not found")
	// ErrInvalidState is returned when an operation is not valid in the
	// current tracking state.
	ErrInvalidState = errors.New("invalid state")
	// ErrInvalidValue is returned for values that cannot be parsed or violate
	// an invariant.
	ErrInvalidValue = errors.New("invalid value")
	// ErrInvalidArgument is returned for unsupported argument types or field
	// names.
	ErrInvalidArgument = errors.New("invalid argument")
)

// ErrFileNotFound is returned when a study file does not exist. It matches
// fs.ErrNotExist as well.
var ErrFileNotFound = fmt.Errorf("study file %w", fs.ErrNotExist)
