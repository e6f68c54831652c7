package engine

import (
	"reflect"
	"strings"
	"testing"

	"github.com/yasumu-org/tanxium/internal/module"
)

func TestExtractAttributes(t *testing.T) {
	source := strings.Join([]string{
		`import data from "./data.json" with { type: "json" };`,
		`import legacy from './legacy.json' assert { type: 'json' };`,
		`import note from "./note.txt" with { type: "text" };`,
		`import plain from "./plain.js";`,
		`const lazy = import("./lazy.json", { with: { type: "json" } });`,
	}, "\n")

	stripped, attrs := extractAttributes(source)
	want := map[string]module.RequestedType{
		"./data.json":   module.RequestJSON,
		"./legacy.json": module.RequestJSON,
		"./note.txt":    module.RequestedType("text"),
		"./lazy.json":   module.RequestJSON,
	}
	if !reflect.DeepEqual(attrs, want) {
		t.Fatalf("unexpected attributes %v", attrs)
	}
	for _, keyword := range []string{"with", "assert"} {
		if strings.Contains(stripped, keyword) {
			t.Fatalf("attributes not stripped: %s", stripped)
		}
	}
	if !strings.Contains(stripped, `import("./lazy.json")`) {
		t.Fatalf("dynamic import not rewritten: %s", stripped)
	}
}

func TestLowerModule(t *testing.T) {
	code, err := lowerModule("file:///main.js", strings.Join([]string{
		`import { a } from "./a.js";`,
		`export const c = a + 1;`,
	}, "\n"))
	if err != nil {
		t.Fatalf("lower error: %v", err)
	}
	if strings.Contains(code, "import ") || !strings.Contains(code, `require("./a.js")`) {
		t.Fatalf("module not lowered:\n%s", code)
	}
}

func TestScanDependencies(t *testing.T) {
	source := strings.Join([]string{
		`import { a } from "./a.js";`,
		`import b from "https://example.com/b.js";`,
		`export { a as again } from "./a.js";`,
		`export const c = a + b;`,
		`const later = () => import("./later.js");`,
		`const text = 'call require("left-pad") to load';`,
		`// require("commented")`,
		`let opt;`,
		`try { opt = require("optional-dep") } catch (e) { opt = null }`,
		`const both = require("./a.js");`,
	}, "\n")

	got := scanDependencies("file:///main.js", source)
	want := []dependency{
		{raw: "./a.js"},
		{raw: "https://example.com/b.js"},
		{raw: "./later.js", soft: true},
		{raw: "optional-dep", soft: true},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected dependencies %+v", got)
	}
}

func TestLowerModuleReportsSyntaxError(t *testing.T) {
	_, err := lowerModule("file:///bad.js", "export const = ;")
	if module.KindOf(err) != module.KindTranspile {
		t.Fatalf("expected transpile error, got %v", err)
	}
}

func TestNativeModuleName(t *testing.T) {
	for raw, want := range map[string]string{"node:util": "util", "buffer": "buffer", "node:fs": "", "./util": ""} {
		got, _ := nativeModuleName(raw)
		if got != want {
			t.Fatalf("nativeModuleName(%q) = %q, want %q", raw, got, want)
		}
	}
}
