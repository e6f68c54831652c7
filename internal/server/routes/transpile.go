package routes

import (
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/yasumu-org/tanxium/internal/transpile"
)

// RegisterTranspileRoutes 暴露 POST /-/transpile：请求体为 TypeScript，响应为去除类型后的 JavaScript。
// ?syntax= 可选 ts、tsx、jsx，默认 ts。
func RegisterTranspileRoutes(app *fiber.App, transpiler transpile.Transpiler) {
	if app == nil || transpiler == nil {
		return
	}

	app.Post("/-/transpile", func(c fiber.Ctx) error {
		syntax := transpile.Syntax(strings.ToLower(strings.TrimSpace(c.Query("syntax", string(transpile.SyntaxTS)))))
		switch syntax {
		case transpile.SyntaxTS, transpile.SyntaxTSX, transpile.SyntaxJSX:
		default:
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unsupported_syntax"})
		}
		filename := strings.TrimSpace(c.Query("filename", "input."+string(syntax)))

		code, err := transpiler.Transpile(filename, string(c.Body()), syntax)
		if err != nil {
			return renderLoadError(c, err)
		}
		c.Set(fiber.HeaderContentType, "application/javascript; charset=utf-8")
		return c.SendString(code)
	})
}
