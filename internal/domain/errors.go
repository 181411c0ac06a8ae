package domain

import "errors"

var (
	// ErrNotFound signals an unknown search entity.
	ErrNotFound = errors.New("not found")
	// ErrInvalidSchema signals an entity definition that cannot be addressed (empty name, duplicate facet).
	ErrInvalidSchema = errors.New("invalid schema")
	// ErrInvalidParams signals search parameters that cannot be decoded.
	ErrInvalidParams = errors.New("invalid search params")
	// ErrBackendUnavailable signals a failed call to the search backend.
	ErrBackendUnavailable = errors.New("search backend unavailable")
	// ErrUnsupportedQuery signals a query the configured backend cannot express.
	ErrUnsupportedQuery = errors.New("query not supported by backend")
)
