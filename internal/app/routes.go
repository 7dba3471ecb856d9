package app

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hyy110/SoulMate/internal/auth"
	"github.com/hyy110/SoulMate/internal/character"
	"github.com/hyy110/SoulMate/internal/conversation"
)

// RegisterRoutes sets up all application routes. This is the single place
// where feature packages are constructed and wired together: repositories
// over the shared DB pool, services over repositories, handlers over
// services.
func (a *App) RegisterRoutes() {
	e := a.Echo

	// Health check endpoint for Docker health monitoring.
	e.GET("/healthz", func(c echo.Context) error {
		if err := a.DB.PingContext(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{
				"status": "degraded", "database": "down",
			})
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// --- Construct feature packages ---

	userRepo := auth.NewUserRepository(a.DB)
	tokenIssuer := auth.NewTokenIssuer(a.Config.JWT)
	authService := auth.NewAuthService(userRepo, tokenIssuer)
	authHandler := auth.NewHandler(authService)

	characterRepo := character.NewCharacterRepository(a.DB)
	characterService := character.NewCharacterService(characterRepo)
	characterHandler := character.NewHandler(characterService)

	conversationRepo := conversation.NewConversationRepository(a.DB)
	messageRepo := conversation.NewMessageRepository(a.DB)
	conversationService := conversation.NewConversationService(
		conversationRepo,
		messageRepo,
		conversation.NewCharacterFinderAdapter(characterRepo),
		slog.Default(),
	)
	conversationHandler := conversation.NewHandler(conversationService)

	// --- API Routes ---

	api := e.Group("/api")

	// Auth routes register their own public and authenticated sub-groups.
	auth.RegisterRoutes(api, authHandler, a.Redis)

	// Everything else requires a valid bearer access token.
	authed := api.Group("", auth.RequireAuth(authService))
	character.RegisterRoutes(authed, characterHandler)
	conversation.RegisterRoutes(authed, conversationHandler)
}
