package routes

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/yasumu-org/tanxium/internal/cache"
	"github.com/yasumu-org/tanxium/internal/loader"
	"github.com/yasumu-org/tanxium/internal/logging"
	"github.com/yasumu-org/tanxium/internal/module"
	"github.com/yasumu-org/tanxium/internal/server"
	"github.com/yasumu-org/tanxium/internal/specifier"
	"github.com/yasumu-org/tanxium/internal/transpile"
)

type diagnostics struct {
	app     *fiber.App
	store   cache.Store
	workDir string
}

func newDiagnostics(t *testing.T) *diagnostics {
	t.Helper()
	app, err := server.NewApp(server.AppOptions{Logger: logging.Discard(), ListenPort: 7070})
	if err != nil {
		t.Fatalf("failed to create app: %v", err)
	}
	work := t.TempDir()
	classifier, err := specifier.New(work, "")
	if err != nil {
		t.Fatalf("classifier error: %v", err)
	}
	store, err := cache.NewStore(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatalf("store error: %v", err)
	}
	tr, err := transpile.New(transpile.Options{})
	if err != nil {
		t.Fatalf("transpiler error: %v", err)
	}
	reg := prometheus.NewRegistry()
	metrics := loader.NewMetrics(reg)
	metrics.Observe(loader.Transition{Specifier: "file:///main.js", From: loader.StateClassifying, To: loader.StateFetching})

	RegisterModuleRoutes(app)
	RegisterCacheRoutes(app, store)
	RegisterResolveRoutes(app, classifier)
	RegisterTranspileRoutes(app, tr)
	RegisterMetricsRoute(app, reg)
	return &diagnostics{app: app, store: store, workDir: work}
}

func (d *diagnostics) do(t *testing.T, method, target string, body io.Reader) (int, []byte) {
	t.Helper()
	resp, err := d.app.Test(httptest.NewRequest(method, target, body))
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, target, err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, data
}

func TestModulesListsSchemes(t *testing.T) {
	d := newDiagnostics(t)
	status, body := d.do(t, http.MethodGet, "/-/modules", nil)
	if status != fiber.StatusOK {
		t.Fatalf("unexpected status %d: %s", status, body)
	}
	var payload struct {
		Schemes []schemePayload `json:"schemes"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	keys := make([]string, 0, len(payload.Schemes))
	for _, s := range payload.Schemes {
		keys = append(keys, s.Key)
	}
	if strings.Join(keys, ",") != "file,http,https,npm" {
		t.Fatalf("unexpected schemes %v", keys)
	}

	status, body = d.do(t, http.MethodGet, "/-/modules/NPM", nil)
	if status != fiber.StatusOK || !strings.Contains(string(body), `"alias":true`) {
		t.Fatalf("unexpected npm detail %d: %s", status, body)
	}
	if status, _ = d.do(t, http.MethodGet, "/-/modules/ftp", nil); status != fiber.StatusNotFound {
		t.Fatalf("expected 404 for unknown scheme, got %d", status)
	}
}

func TestCacheListAndClear(t *testing.T) {
	d := newDiagnostics(t)
	spec, err := module.ParseSpecifier("https://example.com/mod.ts")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if _, err := d.store.Put(context.Background(), spec, strings.NewReader("const x = 1;")); err != nil {
		t.Fatalf("put error: %v", err)
	}

	status, body := d.do(t, http.MethodGet, "/-/cache", nil)
	if status != fiber.StatusOK {
		t.Fatalf("unexpected status %d", status)
	}
	var listing struct {
		Count      int           `json:"count"`
		TotalBytes int64         `json:"total_bytes"`
		Entries    []cache.Entry `json:"entries"`
	}
	if err := json.Unmarshal(body, &listing); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if listing.Count != 1 || listing.TotalBytes != int64(len("const x = 1;")) || listing.Entries[0].Key != cache.Key(spec) {
		t.Fatalf("unexpected listing %+v", listing)
	}

	status, body = d.do(t, http.MethodDelete, "/-/cache", nil)
	if status != fiber.StatusOK || !strings.Contains(string(body), `"removed":1`) {
		t.Fatalf("unexpected clear response %d: %s", status, body)
	}
	if _, err := os.Stat(d.store.PathFor(spec)); !os.IsNotExist(err) {
		t.Fatalf("cache file should be removed, stat err=%v", err)
	}
}

func TestResolveClassifiesSpecifiers(t *testing.T) {
	d := newDiagnostics(t)
	if err := os.MkdirAll(filepath.Join(d.workDir, "utils"), 0o755); err != nil {
		t.Fatalf("mkdir error: %v", err)
	}
	if err := os.WriteFile(filepath.Join(d.workDir, "utils", "index.mts"), []byte("export {}"), 0o644); err != nil {
		t.Fatalf("write error: %v", err)
	}

	status, body := d.do(t, http.MethodGet, "/-/resolve?specifier=./utils", nil)
	if status != fiber.StatusOK {
		t.Fatalf("unexpected status %d: %s", status, body)
	}
	var payload resolvePayload
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if payload.Category != module.LocalFile.String() || !strings.HasSuffix(payload.Path, "index.mts") {
		t.Fatalf("unexpected resolution %+v", payload)
	}

	status, body = d.do(t, http.MethodGet, "/-/resolve?specifier=npm:zod@3", nil)
	if status != fiber.StatusOK || !strings.Contains(string(body), `"category":"package-alias"`) {
		t.Fatalf("unexpected alias resolution %d: %s", status, body)
	}

	status, body = d.do(t, http.MethodGet, "/-/resolve?specifier=./missing.js", nil)
	if status != fiber.StatusNotFound || !strings.Contains(string(body), string(module.KindNotFound)) {
		t.Fatalf("unexpected missing resolution %d: %s", status, body)
	}

	if status, _ = d.do(t, http.MethodGet, "/-/resolve", nil); status != fiber.StatusBadRequest {
		t.Fatalf("expected 400 without specifier, got %d", status)
	}
}

func TestTranspileStripsTypes(t *testing.T) {
	d := newDiagnostics(t)
	status, body := d.do(t, http.MethodPost, "/-/transpile", strings.NewReader("const n: number = 1;"))
	if status != fiber.StatusOK || string(body) != "const n = 1;\n" {
		t.Fatalf("unexpected transpile result %d: %q", status, body)
	}

	status, body = d.do(t, http.MethodPost, "/-/transpile", strings.NewReader("const = ;"))
	if status != fiber.StatusUnprocessableEntity || !strings.Contains(string(body), string(module.KindTranspile)) {
		t.Fatalf("unexpected syntax error response %d: %s", status, body)
	}

	if status, _ = d.do(t, http.MethodPost, "/-/transpile?syntax=coffee", strings.NewReader("x")); status != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for unknown syntax, got %d", status)
	}
}

func TestMetricsExposesLoaderCollectors(t *testing.T) {
	d := newDiagnostics(t)
	status, body := d.do(t, http.MethodGet, "/-/metrics", nil)
	if status != fiber.StatusOK {
		t.Fatalf("unexpected status %d", status)
	}
	if !strings.Contains(string(body), `tanxium_loader_state_transitions_total{state="fetching"} 1`) {
		t.Fatalf("metrics body missing transition counter:\n%s", body)
	}
}
