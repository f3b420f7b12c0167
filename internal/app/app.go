package app

import (
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/rs/zerolog"

	_ "github.com/qybridge/wecom-relay/docs" // Import Swagger docs
	"github.com/qybridge/wecom-relay/internal/clients/wecom"
	"github.com/qybridge/wecom-relay/internal/config"
	"github.com/qybridge/wecom-relay/internal/controllers/callback"
	"github.com/qybridge/wecom-relay/internal/controllers/message"
	"github.com/qybridge/wecom-relay/internal/fibercommon"
	"github.com/qybridge/wecom-relay/internal/services/forwarder"
	"github.com/qybridge/wecom-relay/internal/services/tokencache"
	"github.com/qybridge/wecom-relay/internal/wecomcrypt"
)

// CreateServers validates the callback configuration and wires the
// relay's clients, services and controllers into a fiber app.
func CreateServers(settings *config.Settings, logger zerolog.Logger) (*fiber.App, error) {
	// Malformed key material can never verify a handshake; refuse to
	// start rather than fail every callback at runtime.
	if _, err := wecomcrypt.DecodeAESKey(settings.EncodingAESKey); err != nil {
		return nil, fmt.Errorf("invalid WECOM_ENCODING_AES_KEY: %w", err)
	}

	wecomClient, err := wecom.New(settings.WecomAPIBaseURL, settings.WecomCorpID, settings.WecomCorpSecret, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create WeCom client: %w", err)
	}
	tokens := tokencache.New(wecomClient, settings.TokenSafetyWindow)

	backendForwarder, err := forwarder.New(settings.BackendBaseURL, &http.Client{Timeout: settings.BackendTimeout})
	if err != nil {
		return nil, fmt.Errorf("failed to create backend forwarder: %w", err)
	}

	return CreateFiberApp(logger, settings, tokens, wecomClient, backendForwarder)
}

// CreateFiberApp sets up the API routes for the relay.
func CreateFiberApp(logger zerolog.Logger, settings *config.Settings,
	tokens *tokencache.Cache,
	wecomClient *wecom.Client,
	backendForwarder *forwarder.Forwarder) (*fiber.App, error) {
	logger.Info().Msg("Starting WeCom Relay...")

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return fibercommon.ErrorHandler(c, err)
		},
		DisableStartupMessage: true,
	})
	app.Use(fibercommon.ContextLoggerMiddleware)

	app.Get("/swagger/*", swagger.HandlerDefault)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"data": "Server is up and running",
		})
	})

	callbackController := callback.NewCallbackController(
		settings.CallbackToken,
		settings.EncodingAESKey,
		settings.WecomCorpID,
		backendForwarder,
	)
	messageController := message.NewMessageController(tokens, wecomClient, settings.WecomAgentID)
	logger.Info().Msg("Registering routes...")

	// WeCom callback surface
	app.Get("/wecom/callback", callbackController.VerifyURL)
	app.Post("/wecom/callback", callbackController.ReceiveCallback)

	// Outbound send surface for the backend
	app.Post("/v1/messages", messageController.SendMessage)

	return app, nil
}
