package types

import "errors"

// Flatten errors.
var (
	ErrFieldNotFound = errors.New("field not found")
	ErrEmptyResult   = errors.New("result is empty")
	ErrCyclicInput   = errors.New("cyclic input")
)

// Store errors.
var (
	ErrAlreadyExists = errors.New("path already exists")
	ErrPathNotFound  = errors.New("path not found")
	ErrSerialization = errors.New("serialization failed")
	ErrNotRecord     = errors.New("not a record type")
)

// Frame errors.
var (
	ErrLengthMismatch  = errors.New("column length mismatch")
	ErrDuplicateColumn = errors.New("duplicate column")
	ErrColumnNotFound  = errors.New("column not found")
)
