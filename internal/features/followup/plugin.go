package followup

import (
	"github.com/gofiber/fiber/v2"
	"github.com/purepath/recovery-backend/internal/cache"
	"github.com/purepath/recovery-backend/internal/config"
	"gorm.io/gorm"
)

// Plugin wires the daily check-in calendar.
type Plugin struct {
	store cache.Store
}

func NewPlugin(store cache.Store) *Plugin {
	return &Plugin{store: store}
}

func (p *Plugin) ID() string {
	return "followup"
}

func (p *Plugin) Models() []interface{} {
	return []interface{}{&Log{}}
}

func (p *Plugin) RegisterRoutes(router fiber.Router, db *gorm.DB, cfg *config.Config) {
	handler := NewHandler(NewService(db, p.store))

	router.Get("/", handler.Range)
	router.Post("/", handler.Record)
	router.Post("/confirm-reset", handler.ConfirmReset)
	router.Get("/stats", handler.Stats)
}
