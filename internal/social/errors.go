package social

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var (
	ErrUnauthenticated     = errors.New("authentication required")
	ErrInvalidInput        = errors.New("invalid input")
	ErrDuplicateReview     = errors.New("review already exists for this movie")
	ErrAlreadyWishlisted   = errors.New("movie is already in the wishlist")
	ErrAlreadyFollowing    = errors.New("already following this user")
	ErrNotFoundOrForbidden = errors.New("record not found or not owned by caller")
	ErrNotFound            = errors.New("not found")
	ErrUpstreamUnavailable = errors.New("movie catalog unavailable")
	ErrStoreUnavailable    = errors.New("store unavailable")
)

// InvalidInputError carries a message per offending field, keyed by the
// field's json name. errors.Is(err, ErrInvalidInput) holds for it.
type InvalidInputError struct {
	Fields map[string]string
}

func (e *InvalidInputError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		parts = append(parts, k+" "+e.Fields[k])
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

func (e *InvalidInputError) Is(target error) bool { return target == ErrInvalidInput }

func invalid(field, msg string) error {
	return &InvalidInputError{Fields: map[string]string{field: msg}}
}

func storeFailure(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}
