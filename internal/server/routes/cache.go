package routes

import (
	"github.com/gofiber/fiber/v3"

	"github.com/yasumu-org/tanxium/internal/cache"
)

// RegisterCacheRoutes 暴露 /-/cache：GET 列出缓存条目，DELETE 清空缓存目录。
func RegisterCacheRoutes(app *fiber.App, store cache.Store) {
	if app == nil || store == nil {
		return
	}

	app.Get("/-/cache", func(c fiber.Ctx) error {
		entries, err := store.List(c.Context())
		if err != nil {
			return err
		}
		var total int64
		for _, entry := range entries {
			total += entry.SizeBytes
		}
		if entries == nil {
			entries = []cache.Entry{}
		}
		return c.JSON(fiber.Map{
			"entries":     entries,
			"count":       len(entries),
			"total_bytes": total,
		})
	})

	app.Delete("/-/cache", func(c fiber.Ctx) error {
		removed, err := store.Clear(c.Context())
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"removed": removed})
	})
}
