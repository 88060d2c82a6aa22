package groups

import (
	"github.com/gofiber/fiber/v2"
	"github.com/purepath/recovery-backend/internal/cache"
	"github.com/purepath/recovery-backend/internal/config"
	"github.com/purepath/recovery-backend/internal/services"
	"gorm.io/gorm"
)

// Plugin wires the support-group chat feature.
type Plugin struct {
	store cache.Store
}

func NewPlugin(store cache.Store) *Plugin {
	return &Plugin{store: store}
}

func (p *Plugin) ID() string {
	return "groups"
}

func (p *Plugin) Models() []interface{} {
	return []interface{}{&Group{}, &Member{}, &Message{}, &Reaction{}}
}

func (p *Plugin) RegisterRoutes(router fiber.Router, db *gorm.DB, cfg *config.Config) {
	moderation := services.NewModerationService(db, p.store)
	handler := NewHandler(NewService(db, moderation, cfg.PublicFeedLimit))

	router.Get("/", handler.List)
	router.Post("/", handler.Create)
	router.Get("/:id", handler.Get)
	router.Put("/:id", handler.Update)
	router.Delete("/:id", handler.Delete)

	router.Post("/:id/join", handler.Join)
	router.Post("/:id/leave", handler.Leave)
	router.Post("/:id/requests/accept", handler.Accept)
	router.Post("/:id/requests/decline", handler.Decline)
	router.Post("/:id/kick", handler.Kick)
	router.Post("/:id/promote", handler.Promote)
	router.Post("/:id/demote", handler.Demote)

	router.Get("/:id/messages", handler.Open)
	router.Post("/:id/messages", handler.SendMessage)
	router.Put("/:id/messages/:msgId", handler.EditMessage)
	router.Delete("/:id/messages/:msgId", handler.DeleteMessage)
	router.Post("/:id/messages/:msgId/reactions", handler.React)

	router.Post("/:id/pin", handler.Pin)
	router.Delete("/:id/pin", handler.Unpin)
}
