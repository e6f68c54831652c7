package scheme

import "testing"

func TestRegistryRegisterAndResolve(t *testing.T) {
	r := newRegistry()
	if err := r.register(Metadata{Key: " Demo ", Prefixes: []string{"demo:"}}); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	meta, ok := r.resolve("DEMO")
	if !ok {
		t.Fatalf("expected demo scheme to resolve")
	}
	if meta.Key != "demo" {
		t.Fatalf("expected normalized key, got %s", meta.Key)
	}
	if err := r.register(Metadata{Key: "demo", Prefixes: []string{"demo:"}}); err == nil {
		t.Fatalf("duplicate registration should fail")
	}
}

func TestRegistryRejectsInvalidMetadata(t *testing.T) {
	r := newRegistry()
	cases := []Metadata{
		{Key: "", Prefixes: []string{"x:"}},
		{Key: "noprefix"},
		{Key: "alias", Prefixes: []string{"a:"}, Alias: true},
	}
	for _, meta := range cases {
		if err := r.register(meta); err == nil {
			t.Fatalf("expected error registering %#v", meta)
		}
	}
}

func TestRegistryMatchPrefersLongestPrefix(t *testing.T) {
	r := newRegistry()
	_ = r.register(Metadata{Key: "http", Prefixes: []string{"http://"}})
	_ = r.register(Metadata{Key: "https", Prefixes: []string{"https://"}})
	_ = r.register(Metadata{Key: "h", Prefixes: []string{"h"}})

	meta, ok := r.match("HTTPS://example.com/mod.js")
	if !ok || meta.Key != "https" {
		t.Fatalf("expected https match, got %#v", meta)
	}
	if _, ok := r.match("./local.js"); ok {
		t.Fatalf("relative path should not match any scheme")
	}
}

func TestRegistryListSorted(t *testing.T) {
	r := newRegistry()
	_ = r.register(Metadata{Key: "b", Prefixes: []string{"b:"}})
	_ = r.register(Metadata{Key: "a", Prefixes: []string{"a:"}})
	items := r.list()
	if len(items) != 2 || items[0].Key != "a" || items[1].Key != "b" {
		t.Fatalf("unexpected order: %#v", items)
	}
}
