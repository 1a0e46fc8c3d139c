package groundtruth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"meshveil/pkg/socialgraph"
)

func testKey() Key {
	return Key{N: 20, Seed: 7, PIntimate: 0.05, PFriend: 0.1, PAcquaintance: 0.2}
}

func testRecord(t *testing.T, key Key) Record {
	t.Helper()
	g, tiers := socialgraph.Build(key.N, socialgraph.Config{
		PIntimate: key.PIntimate, PFriend: key.PFriend, PAcquaintance: key.PAcquaintance,
		PBridge: 0.1, Seed: key.Seed,
	}, nil)
	return NewRecord(key, g, tiers, "2026-08-03T00:00:00Z")
}

func TestKeyFileNameReplacesDotsWithUnderscores(t *testing.T) {
	key := Key{N: 100, Seed: 42, PIntimate: 0.05, PFriend: 0.12, PAcquaintance: 0.25}
	got := key.FileName()
	want := "graph_N100_seed42_0_05-0_12-0_25.json"
	if got != want {
		t.Fatalf("FileName() = %q, want %q", got, want)
	}
}

func TestFileStoreLoadMissingReturnsErrNotFound(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	_, err = store.Load(context.Background(), testKey())
	if err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFileStoreSaveThenLoadRoundTrips(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	key := testKey()
	rec := testRecord(t, key)

	ctx := context.Background()
	if err := store.Save(ctx, key, rec); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := store.Load(ctx, key)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Graph.N() != rec.Graph.N() {
		t.Fatalf("node count mismatch: got %d want %d", loaded.Graph.N(), rec.Graph.N())
	}
	for _, e := range rec.Graph.Edges() {
		if !loaded.Graph.HasEdge(e.Lo, e.Hi) {
			t.Fatalf("missing edge %v after round trip", e)
		}
	}
}

func TestLoadOrGenerateOnlyGeneratesOnce(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	key := testKey()
	calls := 0
	gen := func() Record {
		calls++
		return testRecord(t, key)
	}

	ctx := context.Background()
	first, err := LoadOrGenerate(ctx, store, key, gen)
	if err != nil {
		t.Fatalf("LoadOrGenerate (first): %v", err)
	}
	second, err := LoadOrGenerate(ctx, store, key, gen)
	if err != nil {
		t.Fatalf("LoadOrGenerate (second): %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected generator called once, got %d", calls)
	}
	if first.Graph.N() != second.Graph.N() {
		t.Fatalf("expected identical node counts across calls")
	}
}

func TestCachedStorePopulatesOnMissThenHits(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run: %v", err)
	}
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	base, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	key := testKey()
	rec := testRecord(t, key)

	ctx := context.Background()
	if err := base.Save(ctx, key, rec); err != nil {
		t.Fatalf("Save: %v", err)
	}

	cached := NewCachedStore(base, rdb, time.Minute)
	if _, err := cached.Load(ctx, key); err != nil {
		t.Fatalf("Load (miss): %v", err)
	}
	if mr.Exists(key.cacheKey()) == false {
		t.Fatalf("expected cache to be populated after a miss")
	}

	loaded, err := cached.Load(ctx, key)
	if err != nil {
		t.Fatalf("Load (hit): %v", err)
	}
	if loaded.Graph.N() != rec.Graph.N() {
		t.Fatalf("node count mismatch on cache hit")
	}
}
