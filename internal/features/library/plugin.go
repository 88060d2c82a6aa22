package library

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
	return "library"
}

func (p *Plugin) Models() []interface{} {
	return []interface{}{&Category{}, &Book{}}
}

func (p *Plugin) RegisterRoutes(router fiber.Router, db *gorm.DB, cfg *config.Config) {
	handler := NewHandler(NewService(db))

	router.Get("/categories", handler.ListCategories)
	router.Get("/books", handler.ListBooks)
}

func (p *Plugin) RegisterAdminRoutes(router fiber.Router, db *gorm.DB, cfg *config.Config) {
	handler := NewHandler(NewService(db))

	router.Post("/categories", handler.CreateCategory)
	router.Delete("/categories/:id", handler.DeleteCategory)
	router.Post("/books", handler.CreateBook)
	router.Put("/books/:id", handler.UpdateBook)
	router.Delete("/books/:id", handler.DeleteBook)
}
