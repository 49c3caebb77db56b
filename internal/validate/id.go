package validate

import (
	"errors"
	"fmt"
	"regexp"
)

// ID validation errors
var (
	ErrInvalidID = errors.New("invalid identifier")
)

// idPattern matches opaque stable IDs: UUIDs, provider account IDs, and the
// listing IDs minted by the scraper. No whitespace, no path separators.
var idPattern = regexp.MustCompile(`^[A-Za-z0-9_\-:\.]{1,128}$`)

// UserID validates a user identifier. Every engine entry point calls this
// before any storage access.
func UserID(id string) error {
	return checkID("user id", id)
}

// GroupID validates a group identifier.
func GroupID(id string) error {
	return checkID("group id", id)
}

// ListingID validates a listing identifier.
func ListingID(id string) error {
	return checkID("listing id", id)
}

func checkID(kind, id string) error {
	if id == "" {
		return fmt.Errorf("%w: %s is empty", ErrInvalidID, kind)
	}
	if !idPattern.MatchString(id) {
		return fmt.Errorf("%w: %s contains invalid characters or is too long", ErrInvalidID, kind)
	}
	return nil
}
