package chat

import (
	"github.com/gofiber/fiber/v2"
	"github.com/purepath/recovery-backend/internal/cache"
	"github.com/purepath/recovery-backend/internal/config"
	"github.com/purepath/recovery-backend/internal/services"
	"gorm.io/gorm"
)

// Plugin wires the public room and private conversations feature.
type Plugin struct {
	store cache.Store
}

func NewPlugin(store cache.Store) *Plugin {
	return &Plugin{store: store}
}

func (p *Plugin) ID() string {
	return "chat"
}

func (p *Plugin) Models() []interface{} {
	return []interface{}{&Message{}, &Reaction{}, &Pin{}, &PrivateMessage{}, &Conversation{}}
}

func (p *Plugin) RegisterRoutes(router fiber.Router, db *gorm.DB, cfg *config.Config) {
	moderation := services.NewModerationService(db, p.store)
	handler := NewHandler(NewService(db, moderation, cfg.PublicFeedLimit))

	router.Get("/messages", handler.ListMessages)
	router.Post("/messages", handler.SendMessage)
	router.Put("/messages/:id", handler.EditMessage)
	router.Delete("/messages/:id", handler.DeleteMessage)
	router.Post("/messages/:id/reactions", handler.React)

	router.Post("/pin", handler.PinMessage)
	router.Delete("/pin", handler.Unpin)

	router.Get("/conversations", handler.ListConversations)
	router.Delete("/conversations/:peer", handler.DeleteConversation)
	router.Post("/conversations/:peer/open", handler.OpenConversation)
	router.Post("/conversations/:peer/messages", handler.SendPrivate)
	router.Put("/private/:id", handler.EditPrivate)
	router.Delete("/private/:id", handler.DeletePrivate)
}
