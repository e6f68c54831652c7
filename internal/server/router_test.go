package server

import (
	"bytes"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"

	"github.com/yasumu-org/tanxium/internal/logging"
)

func TestRouterSetsRequestID(t *testing.T) {
	app := newTestApp(t)
	app.Get("/-/ping", func(c fiber.Ctx) error {
		return c.SendString(RequestID(c))
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/-/ping", nil))
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	reqID := resp.Header.Get("X-Request-ID")
	if reqID == "" {
		t.Fatalf("expected X-Request-ID header to be set")
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != reqID {
		t.Fatalf("handler saw request id %q, header has %q", string(body), reqID)
	}
}

func TestRouterRendersUnknownRouteAsJSON(t *testing.T) {
	app := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/-/unknown", nil))
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("expected 404 status, got %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !bytes.Contains(body, []byte(`"error"`)) {
		t.Fatalf("expected json error body, got %s", string(body))
	}
}

func TestRouterHidesInternalErrors(t *testing.T) {
	app := newTestApp(t)
	app.Get("/-/fail", func(fiber.Ctx) error {
		return errors.New("disk on fire")
	})
	app.Get("/-/panic", func(fiber.Ctx) error {
		panic("boom")
	})

	for _, path := range []string{"/-/fail", "/-/panic"} {
		resp, err := app.Test(httptest.NewRequest("GET", path, nil))
		if err != nil {
			t.Fatalf("app.Test %s failed: %v", path, err)
		}
		if resp.StatusCode != fiber.StatusInternalServerError {
			t.Fatalf("%s: expected 500 status, got %d", path, resp.StatusCode)
		}
		body, _ := io.ReadAll(resp.Body)
		if bytes.Contains(body, []byte("disk on fire")) || !bytes.Contains(body, []byte("internal_error")) {
			t.Fatalf("%s: unexpected body %s", path, string(body))
		}
	}
}

func TestNewAppValidatesOptions(t *testing.T) {
	if _, err := NewApp(AppOptions{ListenPort: 7070}); err == nil {
		t.Fatalf("expected error without logger")
	}
	if _, err := NewApp(AppOptions{Logger: logging.Discard()}); err == nil {
		t.Fatalf("expected error without listen port")
	}
}

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	app, err := NewApp(AppOptions{Logger: logging.Discard(), ListenPort: 7070})
	if err != nil {
		t.Fatalf("failed to create app: %v", err)
	}
	return app
}
