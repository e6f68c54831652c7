package specifier

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/yasumu-org/tanxium/internal/module"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
}

func newClassifier(t *testing.T) (*Classifier, string) {
	t.Helper()
	dir := t.TempDir()
	c, err := New(dir, "")
	if err != nil {
		t.Fatalf("new classifier: %v", err)
	}
	return c, c.WorkDir()
}

func TestClassifyRemoteAndAlias(t *testing.T) {
	c, _ := newClassifier(t)

	cat, err := c.Classify("https://Example.com/lib/../mod.ts", nil)
	if err != nil {
		t.Fatalf("classify remote: %v", err)
	}
	if cat.Kind != module.Remote || cat.URL != "https://example.com/mod.ts" {
		t.Fatalf("unexpected remote category: %s", cat)
	}

	cat, err = c.Classify("npm:zod@3", nil)
	if err != nil {
		t.Fatalf("classify npm: %v", err)
	}
	if cat.Kind != module.PackageAlias || cat.Name != "zod@3" {
		t.Fatalf("unexpected alias category: %s", cat)
	}
	if cat.Specifier.String() != "https://cdn.jsdelivr.net/npm/zod@3/+esm" {
		t.Fatalf("unexpected alias specifier: %s", cat.Specifier)
	}
	if !cat.IsRemote() {
		t.Fatalf("alias should be treated as remote")
	}

	// Load and the cache only ever see the rewritten CDN URL.
	spec, err := c.Resolve("npm:zod@3", nil)
	if err != nil {
		t.Fatalf("resolve npm: %v", err)
	}
	if spec.String() != cat.Specifier.String() {
		t.Fatalf("resolve should yield the rewritten specifier, got %s", spec)
	}
}

func TestClassifyRelativeToRemoteReferrer(t *testing.T) {
	c, _ := newClassifier(t)
	referrer, _ := module.ParseSpecifier("https://example.com/pkg/main.js")

	cases := map[string]string{
		"./util.js":     "https://example.com/pkg/util.js",
		"../shared.ts":  "https://example.com/shared.ts",
		"/npm/x@1/+esm": "https://example.com/npm/x@1/+esm",
	}
	for raw, want := range cases {
		cat, err := c.Classify(raw, &referrer)
		if err != nil {
			t.Fatalf("classify %s: %v", raw, err)
		}
		if cat.Kind != module.Remote || cat.Specifier.String() != want {
			t.Fatalf("classify %s = %s, want %s", raw, cat.Specifier, want)
		}
	}
}

func TestClassifyLocalFiles(t *testing.T) {
	c, root := newClassifier(t)
	writeFile(t, filepath.Join(root, "src", "main.ts"), "export {}")
	writeFile(t, filepath.Join(root, "src", "dep.js"), "export {}")

	cat, err := c.Classify("./src/main.ts", nil)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if cat.Kind != module.LocalFile || cat.Path != filepath.Join(root, "src", "main.ts") {
		t.Fatalf("unexpected category: %s", cat)
	}

	referrer := cat.Specifier
	dep, err := c.Resolve("./dep.js", &referrer)
	if err != nil {
		t.Fatalf("resolve dep: %v", err)
	}
	if dep.FilePath() != filepath.Join(root, "src", "dep.js") {
		t.Fatalf("unexpected dep path: %s", dep.FilePath())
	}

	bare, err := c.Resolve("src/dep.js", &referrer)
	if err != nil {
		t.Fatalf("resolve bare: %v", err)
	}
	if !bare.Equal(dep) {
		t.Fatalf("bare specifier should resolve against work dir, got %s", bare)
	}

	abs, err := c.Resolve(filepath.Join(root, "src", "dep.js"), nil)
	if err != nil || !abs.Equal(dep) {
		t.Fatalf("absolute path resolution mismatch: %s %v", abs, err)
	}

	fileURL, err := c.Resolve(dep.String(), nil)
	if err != nil || !fileURL.Equal(dep) {
		t.Fatalf("file URL resolution mismatch: %s %v", fileURL, err)
	}
}

func TestClassifyDirectoryIndexOrder(t *testing.T) {
	c, root := newClassifier(t)
	writeFile(t, filepath.Join(root, "utils", "index.ts"), "export const a = 1")
	writeFile(t, filepath.Join(root, "utils", "index.js"), "export const a = 2")

	cat, err := c.Classify("./utils", nil)
	if err != nil {
		t.Fatalf("classify dir: %v", err)
	}
	if cat.Kind != module.LocalFile || filepath.Base(cat.Path) != "index.js" {
		t.Fatalf("expected index.js to win, got %s", cat)
	}

	writeFile(t, filepath.Join(root, "only", "index.mts"), "export {}")
	cat, err = c.Classify("./only", nil)
	if err != nil {
		t.Fatalf("classify mts dir: %v", err)
	}
	if filepath.Base(cat.Path) != "index.mts" {
		t.Fatalf("expected index.mts, got %s", cat)
	}
}

func TestClassifyErrors(t *testing.T) {
	c, root := newClassifier(t)
	if err := os.MkdirAll(filepath.Join(root, "empty"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	cases := []struct {
		raw  string
		want error
	}{
		{"./missing.js", module.ErrNotFound},
		{"./empty", module.ErrNotFound},
		{"", module.ErrResolution},
		{"node:fs", module.ErrResolution},
		{"https://", module.ErrResolution},
		{"npm:", module.ErrResolution},
	}
	for _, tc := range cases {
		_, err := c.Classify(tc.raw, nil)
		if !errors.Is(err, tc.want) {
			t.Fatalf("classify %q: expected %v, got %v", tc.raw, tc.want, err)
		}
	}
}
