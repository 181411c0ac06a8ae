package elastic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	elasticsearch7 "github.com/elastic/go-elasticsearch/v7"
	"github.com/elastic/go-elasticsearch/v7/esapi"

	"github.com/kailas-cloud/facetdex/internal/db"
)

// Compile-time check: Store implements db.Backend.
var _ db.Backend = (*Store)(nil)

// Config holds connection parameters for an Elasticsearch cluster.
type Config struct {
	Addrs    []string
	Username string
	Password string
	// Transport overrides the HTTP transport (tests).
	Transport http.RoundTripper
}

// Store executes compiled queries against Elasticsearch.
type Store struct {
	client *elasticsearch7.Client
}

// NewStore creates an Elasticsearch store.
func NewStore(cfg Config) (*Store, error) {
	if len(cfg.Addrs) == 0 {
		return nil, errors.New("addrs is required")
	}

	client, err := elasticsearch7.NewClient(elasticsearch7.Config{
		Addresses: cfg.Addrs,
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: cfg.Transport,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return &Store{client: client}, nil
}

// Ping checks cluster connectivity.
func (s *Store) Ping(ctx context.Context) error {
	res, err := s.client.Ping(s.client.Ping.WithContext(ctx))
	if err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	defer drain(res)
	if res.IsError() {
		return &db.Error{Op: db.OpPing, Err: fmt.Errorf("status %s", res.Status())}
	}
	return nil
}

// Close satisfies db.Backend; the HTTP client needs no shutdown.
func (s *Store) Close() error {
	return nil
}

// WaitForReady polls Ping until the cluster responds or timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for elasticsearch: %w", ctx.Err())
		case <-ticker.C:
			if err := s.Ping(ctx); err == nil {
				return nil
			}
		}
	}
}

type errorBody struct {
	Error  json.RawMessage `json:"error"`
	Status int             `json:"status"`
}

type errorCause struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

const indexNotFound = "index_not_found_exception"

// responseError turns an error response into a db.Error.
func responseError(op string, res *esapi.Response) error {
	var body errorBody
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil || len(body.Error) == 0 {
		return &db.Error{Op: op, Err: fmt.Errorf("status %s", res.Status())}
	}

	var cause errorCause
	if err := json.Unmarshal(body.Error, &cause); err != nil {
		var reason string
		_ = json.Unmarshal(body.Error, &reason)
		return &db.Error{Op: op, Err: fmt.Errorf("[%s] %s", res.Status(), reason)}
	}
	if cause.Type == indexNotFound {
		return &db.Error{Op: op, Err: fmt.Errorf("%s: %w", cause.Reason, db.ErrIndexNotFound)}
	}
	return &db.Error{Op: op, Err: fmt.Errorf("[%s] %s: %s", res.Status(), cause.Type, cause.Reason)}
}

func drain(res *esapi.Response) {
	_, _ = io.Copy(io.Discard, res.Body)
	_ = res.Body.Close()
}
