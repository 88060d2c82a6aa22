package habits

import (
	"github.com/gofiber/fiber/v2"
	"github.com/purepath/recovery-backend/internal/config"
	"gorm.io/gorm"
)

type Plugin struct{}

func NewPlugin() *Plugin {
	return &Plugin{}
}

func (p *Plugin) ID() string {
	return "habits"
}

func (p *Plugin) Models() []interface{} {
	return []interface{}{&Habit{}}
}

func (p *Plugin) RegisterRoutes(router fiber.Router, db *gorm.DB, cfg *config.Config) {
	handler := NewHandler(NewService(db))

	router.Get("/", handler.List)
	router.Post("/", handler.Create)
	router.Put("/:id", handler.Update)
	router.Delete("/:id", handler.Delete)
	router.Post("/:id/toggle", handler.Toggle)
	router.Get("/:id/stats", handler.Stats)
}
