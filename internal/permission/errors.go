package permission

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownPermission marks a reference to an id outside the catalog.
	ErrUnknownPermission = errors.New("permission: unknown permission id")
	// ErrCatalogOverflow marks an attempt to address more ids than a Set can hold.
	ErrCatalogOverflow = errors.New("permission: catalog overflow")
	// ErrUnknownContentType marks a content type missing from the registry.
	ErrUnknownContentType = errors.New("permission: unknown content type")
)

// UnknownPermissionError carries the offending id. It unwraps to ErrUnknownPermission.
type UnknownPermissionError struct {
	ID ID
}

func (e *UnknownPermissionError) Error() string {
	return fmt.Sprintf("permission: unknown permission id %d (catalog has %d)", e.ID, Count)
}

func (e *UnknownPermissionError) Unwrap() error {
	return ErrUnknownPermission
}
