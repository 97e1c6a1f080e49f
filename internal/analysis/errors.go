package analysis

import "errors"

var (
	// ErrNotFound indicates no analysis exists for the request.
	ErrNotFound = errors.New("analysis not found")
	// ErrProvider indicates the AI provider call failed.
	ErrProvider = errors.New("analysis provider failed")
	// ErrParse indicates the provider reply could not be interpreted.
	ErrParse = errors.New("analysis reply unparseable")
)
