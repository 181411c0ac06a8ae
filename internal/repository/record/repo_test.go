package record

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/facetdex/internal/domain/search/result"
)

type mockHashStore struct {
	hgetAllMultiFn func(ctx context.Context, keys []string) ([]map[string]string, error)
	calls          int
}

func (m *mockHashStore) HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error) {
	m.calls++
	if m.hgetAllMultiFn != nil {
		return m.hgetAllMultiFn(ctx, keys)
	}
	return make([]map[string]string, len(keys)), nil
}

func testHits() []result.Hit {
	return []result.Hit{
		{ID: "1", Index: "products", Score: 2, Source: map[string]any{"title": "boots"}},
		{ID: "2", Index: "products", Score: 1, Source: map[string]any{"title": "hat"}},
	}
}

func TestSourceHydrator(t *testing.T) {
	recs, err := NewSourceHydrator().Hydrate(context.Background(), testHits())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("len = %d, want 2", len(recs))
	}
	if recs[0].ID() != "1" || recs[0].Score() != 2 || recs[0].Fields()["title"] != "boots" {
		t.Errorf("recs[0] = %+v", recs[0])
	}
	if recs[1].Index() != "products" {
		t.Errorf("recs[1].Index() = %q", recs[1].Index())
	}
}

func TestKey(t *testing.T) {
	if got := Key("facetdex:", "products", "42"); got != "facetdex:products:42" {
		t.Errorf("Key() = %q", got)
	}
}

func TestHashHydrator_HappyPath(t *testing.T) {
	ms := &mockHashStore{}
	ms.hgetAllMultiFn = func(_ context.Context, keys []string) ([]map[string]string, error) {
		if len(keys) != 2 || keys[0] != "fd:products:1" || keys[1] != "fd:products:2" {
			t.Errorf("keys = %v", keys)
		}
		return []map[string]string{
			{"title": "Boots", "price": "120"},
			{"title": "Hat"},
		}, nil
	}

	recs, err := NewHashHydrator(ms, "fd:").Hydrate(context.Background(), testHits())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("len = %d, want 2", len(recs))
	}
	if recs[0].Fields()["title"] != "Boots" || recs[0].Fields()["price"] != "120" {
		t.Errorf("recs[0].Fields() = %v", recs[0].Fields())
	}
	if recs[0].Score() != 2 {
		t.Errorf("recs[0].Score() = %f, want 2", recs[0].Score())
	}
	if ms.calls != 1 {
		t.Errorf("calls = %d, want 1 round trip", ms.calls)
	}
}

func TestHashHydrator_SkipsMissing(t *testing.T) {
	ms := &mockHashStore{}
	ms.hgetAllMultiFn = func(_ context.Context, _ []string) ([]map[string]string, error) {
		return []map[string]string{{}, {"title": "Hat"}}, nil
	}

	recs, err := NewHashHydrator(ms, "fd:").Hydrate(context.Background(), testHits())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 1 || recs[0].ID() != "2" {
		t.Errorf("recs = %+v, want only 2", recs)
	}
}

func TestHashHydrator_Empty(t *testing.T) {
	ms := &mockHashStore{}
	recs, err := NewHashHydrator(ms, "fd:").Hydrate(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("recs = %v", recs)
	}
	if ms.calls != 0 {
		t.Errorf("store called for no hits")
	}
}

func TestHashHydrator_Error(t *testing.T) {
	ms := &mockHashStore{}
	ms.hgetAllMultiFn = func(_ context.Context, _ []string) ([]map[string]string, error) {
		return nil, errors.New("connection lost")
	}

	_, err := NewHashHydrator(ms, "fd:").Hydrate(context.Background(), testHits())
	if err == nil {
		t.Fatal("expected error")
	}
}
