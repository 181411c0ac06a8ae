package db

import (
	"errors"
	"fmt"

	"github.com/kailas-cloud/facetdex/internal/domain"
)

// Sentinel errors for backend operations.
var (
	ErrKeyNotFound      = errors.New("db: key not found")
	ErrIndexNotFound    = errors.New("db: index not found")
	ErrUnsupportedQuery = fmt.Errorf("db: %w", domain.ErrUnsupportedQuery)
)

// Op names used for error context.
const (
	OpSearch    = "search"
	OpPing      = "ping"
	OpOpenIndex = "open_index"
	OpIndex     = "index"
	OpDel       = "DEL"
	OpHGetAll   = "HGETALL"
	OpHSet      = "HSET"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
