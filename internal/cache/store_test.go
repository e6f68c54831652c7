package cache

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/yasumu-org/tanxium/internal/module"
)

func mustSpec(t *testing.T, raw string) module.Specifier {
	t.Helper()
	spec, err := module.ParseSpecifier(raw)
	if err != nil {
		t.Fatalf("parse specifier: %v", err)
	}
	return spec
}

func TestStorePathUsesMD5OfSpecifier(t *testing.T) {
	dir := filepath.Join(t.TempDir(), ".module_cache")
	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	spec := mustSpec(t, "https://example.com/mod.ts")
	sum := md5.Sum([]byte("https://example.com/mod.ts"))
	want := filepath.Join(dir, hex.EncodeToString(sum[:])+".js")
	if got := store.PathFor(spec); got != want {
		t.Fatalf("PathFor = %s, want %s", got, want)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Fatalf("cache dir should be created lazily, stat err=%v", err)
	}
}

func TestStorePutAndGet(t *testing.T) {
	store := newTestStore(t)
	spec := mustSpec(t, "https://example.com/lib/mod.js")

	payload := []byte("const x = 1;")
	entry, err := store.Put(context.Background(), spec, bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("put error: %v", err)
	}
	if entry.SizeBytes != int64(len(payload)) {
		t.Fatalf("size mismatch: %d", entry.SizeBytes)
	}

	result, err := store.Get(context.Background(), spec)
	if err != nil {
		t.Fatalf("get error: %v", err)
	}
	defer result.Reader.Close()

	body, err := io.ReadAll(result.Reader)
	if err != nil {
		t.Fatalf("read cached body error: %v", err)
	}
	if string(body) != string(payload) {
		t.Fatalf("cached payload mismatch: %s", string(body))
	}
	if result.Entry.Specifier != spec.String() || result.Entry.Key != Key(spec) {
		t.Fatalf("unexpected entry: %#v", result.Entry)
	}
}

func TestStoreGetMissing(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Get(context.Background(), mustSpec(t, "https://example.com/missing.js"))
	if err == nil || err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStoreRemove(t *testing.T) {
	store := newTestStore(t)
	spec := mustSpec(t, "https://example.com/remove.js")
	if _, err := store.Put(context.Background(), spec, bytes.NewReader([]byte("data"))); err != nil {
		t.Fatalf("put error: %v", err)
	}
	if err := store.Remove(context.Background(), spec); err != nil {
		t.Fatalf("remove error: %v", err)
	}
	if _, err := store.Get(context.Background(), spec); err == nil || err != ErrNotFound {
		t.Fatalf("expected not found after remove, got %v", err)
	}
	if err := store.Remove(context.Background(), spec); err != nil {
		t.Fatalf("removing a missing entry should succeed, got %v", err)
	}
}

func TestStoreIgnoresDirectories(t *testing.T) {
	store := newTestStore(t)
	spec := mustSpec(t, "https://example.com/dir.js")

	if err := os.MkdirAll(store.PathFor(spec), 0o755); err != nil {
		t.Fatalf("mkdir error: %v", err)
	}
	if _, err := store.Get(context.Background(), spec); err == nil || err != ErrNotFound {
		t.Fatalf("expected ErrNotFound for directory, got %v", err)
	}
}

func TestStoreListAndClear(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	entries, err := store.List(ctx)
	if err != nil || len(entries) != 0 {
		t.Fatalf("expected empty list before first write, got %v %v", entries, err)
	}

	for _, raw := range []string{"https://a.test/1.js", "https://a.test/2.js", "https://cdn.test/npm/x/+esm"} {
		spec := mustSpec(t, raw)
		if _, err := store.Put(ctx, spec, bytes.NewReader([]byte(raw))); err != nil {
			t.Fatalf("put %s: %v", raw, err)
		}
	}

	entries, err = store.List(ctx)
	if err != nil {
		t.Fatalf("list error: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}

	removed, err := store.Clear(ctx)
	if err != nil || removed != 3 {
		t.Fatalf("clear removed=%d err=%v", removed, err)
	}
	entries, _ = store.List(ctx)
	if len(entries) != 0 {
		t.Fatalf("expected empty cache after clear, got %d", len(entries))
	}
}

func TestStoreConcurrentPuts(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	spec := mustSpec(t, "https://example.com/shared.js")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := store.Put(ctx, spec, bytes.NewReader([]byte("same"))); err != nil {
				t.Errorf("put %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	cache := NewSourceCache(store)
	body, err := cache.Lookup(ctx, spec)
	if err != nil || string(body) != "same" {
		t.Fatalf("unexpected body %q err=%v", body, err)
	}
}

func TestSourceCacheWithoutStore(t *testing.T) {
	cache := NewSourceCache(nil)
	if cache.Enabled() {
		t.Fatalf("nil store should disable cache")
	}
	spec := mustSpec(t, "https://example.com/a.js")
	if _, err := cache.Lookup(context.Background(), spec); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := cache.Save(context.Background(), spec, []byte("x")); err != ErrStoreUnavailable {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

// newTestStore returns a Store backed by a temporary directory.
func newTestStore(t *testing.T) Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), ".module_cache"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	return store
}
