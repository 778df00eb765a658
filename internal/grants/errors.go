package grants

import "errors"

var (
	// ErrNotFound indicates no live grant matches the lookup.
	ErrNotFound = errors.New("grants: not found")
	// ErrStoreUnavailable wraps infrastructure failures during lookups.
	ErrStoreUnavailable = errors.New("grants: store unavailable")
	// ErrDuplicateGrantKey reports a natural-key uniqueness violation.
	ErrDuplicateGrantKey = errors.New("grants: duplicate grant key")
	// ErrInvalidGrant reports a grant or key that cannot be stored.
	ErrInvalidGrant = errors.New("grants: invalid grant")
)
