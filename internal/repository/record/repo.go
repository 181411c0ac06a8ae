package record

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/facetdex/internal/domain/search/result"
	"github.com/kailas-cloud/facetdex/internal/logger"
)

// SourceHydrator builds records from the document source returned with each hit.
type SourceHydrator struct{}

// NewSourceHydrator creates a source hydrator.
func NewSourceHydrator() *SourceHydrator {
	return &SourceHydrator{}
}

// Hydrate converts hits into records without I/O.
func (*SourceHydrator) Hydrate(_ context.Context, hits []result.Hit) ([]result.Record, error) {
	out := make([]result.Record, len(hits))
	for i, h := range hits {
		out[i] = result.NewRecord(h.ID, h.Index, h.Score, h.Source)
	}
	return out, nil
}

// hashStore is the consumer interface for hash hydration (ISP).
type hashStore interface {
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
}

// HashHydrator loads records from Redis hashes keyed by index and document id.
type HashHydrator struct {
	store     hashStore
	keyPrefix string
}

// NewHashHydrator creates a hash hydrator.
func NewHashHydrator(s hashStore, keyPrefix string) *HashHydrator {
	return &HashHydrator{store: s, keyPrefix: keyPrefix}
}

// Key returns the hash key of a document: {prefix}{index}:{id}.
func Key(prefix, index, id string) string {
	return prefix + index + ":" + id
}

// Hydrate fetches every hit's hash in one round trip. Hits whose hash is
// missing are skipped; the remaining records keep hit order.
func (h *HashHydrator) Hydrate(ctx context.Context, hits []result.Hit) ([]result.Record, error) {
	if len(hits) == 0 {
		return []result.Record{}, nil
	}

	keys := make([]string, len(hits))
	for i, hit := range hits {
		keys[i] = Key(h.keyPrefix, hit.Index, hit.ID)
	}

	hashes, err := h.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("hydrate %d records: %w", len(hits), err)
	}

	out := make([]result.Record, 0, len(hits))
	var missing []string
	for i, hit := range hits {
		if i >= len(hashes) || len(hashes[i]) == 0 {
			missing = append(missing, keys[i])
			continue
		}
		fields := make(map[string]any, len(hashes[i]))
		for k, v := range hashes[i] {
			fields[k] = v
		}
		out = append(out, result.NewRecord(hit.ID, hit.Index, hit.Score, fields))
	}

	if len(missing) > 0 {
		logger.FromContext(ctx).Warn("records missing from hash store",
			zap.Int("count", len(missing)),
			zap.Strings("keys", missing),
		)
	}
	return out, nil
}
