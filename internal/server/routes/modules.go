package routes

import (
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/yasumu-org/tanxium/internal/scheme"
)

// RegisterModuleRoutes 暴露 /-/modules 诊断接口，列出已注册的 specifier scheme。
func RegisterModuleRoutes(app *fiber.App) {
	if app == nil {
		return
	}

	app.Get("/-/modules", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"schemes":         encodeSchemes(scheme.List()),
			"remote_prefixes": scheme.RemotePrefixes(),
		})
	})

	app.Get("/-/modules/:key", func(c fiber.Ctx) error {
		key := strings.ToLower(strings.TrimSpace(c.Params("key")))
		if key == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "scheme_key_required"})
		}
		meta, ok := scheme.Resolve(key)
		if !ok {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "scheme_not_found"})
		}
		return c.JSON(encodeScheme(meta))
	})
}

type schemePayload struct {
	Key         string   `json:"key"`
	Description string   `json:"description"`
	Prefixes    []string `json:"prefixes"`
	Remote      bool     `json:"remote"`
	Alias       bool     `json:"alias"`
	Cacheable   bool     `json:"cacheable"`
}

func encodeSchemes(metas []scheme.Metadata) []schemePayload {
	if len(metas) == 0 {
		return nil
	}
	result := make([]schemePayload, 0, len(metas))
	for _, meta := range metas {
		result = append(result, encodeScheme(meta))
	}
	return result
}

func encodeScheme(meta scheme.Metadata) schemePayload {
	return schemePayload{
		Key:         meta.Key,
		Description: meta.Description,
		Prefixes:    append([]string(nil), meta.Prefixes...),
		Remote:      meta.Remote,
		Alias:       meta.Alias,
		Cacheable:   meta.Cacheable(),
	}
}
