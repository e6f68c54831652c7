package npm

import (
	"testing"

	"github.com/yasumu-org/tanxium/internal/scheme"
)

func TestNpmSchemeRegistered(t *testing.T) {
	meta, ok := scheme.Resolve("npm")
	if !ok {
		t.Fatalf("npm scheme not registered")
	}
	if !meta.Remote || !meta.Alias || meta.Rewrite == nil {
		t.Fatalf("unexpected npm metadata: %#v", meta)
	}
	if !meta.Cacheable() {
		t.Fatalf("npm modules should be cacheable")
	}
}

func TestRewrite(t *testing.T) {
	cases := []struct {
		raw  string
		cdn  string
		want string
	}{
		{"npm:lodash", "", "https://cdn.jsdelivr.net/npm/lodash/+esm"},
		{"npm:preact@10.19.0", "", "https://cdn.jsdelivr.net/npm/preact@10.19.0/+esm"},
		{"NPM:@scope/pkg@1/sub", "https://cdn.example.com/npm", "https://cdn.example.com/npm/@scope/pkg@1/sub/+esm"},
	}
	for _, tc := range cases {
		if got := Rewrite(tc.raw, tc.cdn); got != tc.want {
			t.Fatalf("Rewrite(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}
