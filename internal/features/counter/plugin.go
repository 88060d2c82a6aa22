package counter

import (
	"github.com/gofiber/fiber/v2"
	"github.com/purepath/recovery-backend/internal/cache"
	"github.com/purepath/recovery-backend/internal/config"
	"gorm.io/gorm"
)

// Plugin wires the recovery counter, badges, leaderboard and the curated
// content rotation.
type Plugin struct {
	store cache.Store
}

func NewPlugin(store cache.Store) *Plugin {
	return &Plugin{store: store}
}

func (p *Plugin) ID() string {
	return "counter"
}

func (p *Plugin) Models() []interface{} {
	return []interface{}{&RotationEntry{}}
}

func (p *Plugin) RegisterRoutes(router fiber.Router, db *gorm.DB, cfg *config.Config) {
	handler := NewHandler(NewService(db, p.store))

	router.Get("/status", handler.Status)
	router.Post("/start", handler.Start)
	router.Post("/reset", handler.Reset)
	router.Get("/badges", handler.Badges)
	router.Post("/badges/celebrate", handler.Celebrate)
	router.Get("/leaderboard", handler.Leaderboard)
	router.Get("/content/:kind/next", handler.Next)
}

func (p *Plugin) RegisterAdminRoutes(router fiber.Router, db *gorm.DB, cfg *config.Config) {
	handler := NewHandler(NewService(db, p.store))

	router.Get("/content", handler.ListEntries)
	router.Post("/content", handler.CreateEntry)
	router.Delete("/content/:id", handler.DeleteEntry)
}
