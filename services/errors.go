package services

import "errors"

// Shared service-level errors, mapped to HTTP statuses by the handlers.
var (
	// Validation and business rules
	ErrBracketNameRequired  = errors.New("bracket name is required")
	ErrInvalidSortPolicy    = errors.New("invalid sort policy")
	ErrNoFinalistCategories = errors.New("no finalist categories provided")

	// Not found
	ErrBracketNotFound = errors.New("bracket not found")
	ErrTeamNotFound    = errors.New("team not found")

	// Conflicts
	ErrBracketExists = errors.New("bracket already exists")
)
