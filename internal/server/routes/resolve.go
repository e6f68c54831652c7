package routes

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/yasumu-org/tanxium/internal/module"
)

// Classifier 是 /-/resolve 依赖的分类能力，由 internal/specifier 实现。
type Classifier interface {
	Classify(raw string, referrer *module.Specifier) (module.Category, error)
}

type resolvePayload struct {
	Specifier string `json:"specifier"`
	Category  string `json:"category"`
	Path      string `json:"path,omitempty"`
	URL       string `json:"url,omitempty"`
	Name      string `json:"name,omitempty"`
	Remote    bool   `json:"remote"`
}

// RegisterResolveRoutes 暴露 /-/resolve?specifier=&referrer=，返回分类结果而不读取模块内容。
func RegisterResolveRoutes(app *fiber.App, classifier Classifier) {
	if app == nil || classifier == nil {
		return
	}

	app.Get("/-/resolve", func(c fiber.Ctx) error {
		raw := strings.TrimSpace(c.Query("specifier"))
		if raw == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "specifier_required"})
		}

		var referrer *module.Specifier
		if ref := strings.TrimSpace(c.Query("referrer")); ref != "" {
			parsed, err := module.ParseSpecifier(ref)
			if err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_referrer"})
			}
			referrer = &parsed
		}

		category, err := classifier.Classify(raw, referrer)
		if err != nil {
			return renderLoadError(c, err)
		}
		return c.JSON(resolvePayload{
			Specifier: category.Specifier.String(),
			Category:  category.Kind.String(),
			Path:      category.Path,
			URL:       category.URL,
			Name:      category.Name,
			Remote:    category.IsRemote(),
		})
	})
}

// renderLoadError 按错误类别映射 HTTP 状态码。
func renderLoadError(c fiber.Ctx, err error) error {
	var le *module.Error
	if !errors.As(err, &le) {
		return err
	}
	status := fiber.StatusBadRequest
	switch le.Kind {
	case module.KindNotFound:
		status = fiber.StatusNotFound
	case module.KindIO, module.KindNetwork, module.KindRemoteStatus:
		status = fiber.StatusBadGateway
	case module.KindTranspile, module.KindTypeMismatch:
		status = fiber.StatusUnprocessableEntity
	}
	return c.Status(status).JSON(fiber.Map{
		"error":   string(le.Kind),
		"message": le.Error(),
	})
}
