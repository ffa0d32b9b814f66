package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/olugbengaakindele/handyhubclean/internal/constants"
)

// SetupRoutes mounts the full API surface on the router. Global middleware
// (logging, recovery, CORS) is attached by the caller before this runs.
func SetupRoutes(r chi.Router, a *API) {
	// Public surface.
	r.Group(func(r chi.Router) {
		r.Post("/api/auth/register", a.Register)
		r.Post("/api/auth/login", a.Login)
		r.Post("/api/auth/logout", a.Logout)

		r.Get("/api/categories", a.GetCategories)
		r.Get("/api/tradespeople", a.SearchTradespeople)
		r.Get("/api/tradespeople/{userID}", a.GetTradespersonProfile)
		r.Get("/api/tradespeople/{userID}/qr", a.GetTradespersonQR)
	})

	// Authenticated surface.
	r.Group(func(r chi.Router) {
		r.Use(a.AuthMiddleware)

		r.Get("/api/me", a.GetMe)

		r.Group(func(r chi.Router) {
			r.Use(a.RoleMiddleware(constants.ROLE_TRADESPERSON))
			r.Put("/api/me/services", a.UpdateMyServices)
		})

		r.Post("/api/conversations/start/{targetUserID}", a.StartConversation)
		r.Get("/api/conversations/{conversationID}", a.GetConversationDetail)
		r.Post("/api/conversations/{conversationID}/send", a.SendMessage)
		r.Get("/api/conversations/{conversationID}/poll", a.PollMessages)
		r.Get("/api/inbox", a.GetInbox)

		// Attachment bytes, participant-gated.
		r.Get("/api/media/chat/{conversationID}/{filename}", a.ServeMedia)

		r.Route("/api/admin", func(r chi.Router) {
			r.Use(a.RoleMiddleware(constants.ROLE_ADMIN))
			r.Get("/export/messaging.xlsx", a.ExportMessagingActivity)
		})
	})
}
