package facetdex

import (
	"errors"

	"github.com/kailas-cloud/facetdex/internal/domain"
)

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNotFound           = domain.ErrNotFound
	ErrInvalidSchema      = domain.ErrInvalidSchema
	ErrInvalidParams      = domain.ErrInvalidParams
	ErrBackendUnavailable = domain.ErrBackendUnavailable
	ErrUnsupportedQuery   = domain.ErrUnsupportedQuery
)

// ErrIndexingNotSupported is returned by Index on backends the client does not write to.
var ErrIndexingNotSupported = errors.New("facetdex: indexing requires the bleve backend")
