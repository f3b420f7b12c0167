// Package message exposes the outbound message-send surface. The
// backend calls it instead of the WeCom API directly so token handling
// stays inside the relay.
package message

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/qybridge/wecom-relay/internal/richerrors"
)

// TokenProvider supplies a valid access token.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// Sender delivers a message payload to the WeCom API.
type Sender interface {
	SendMessage(ctx context.Context, accessToken string, message []byte) error
}

// MessageController relays message-send requests to the WeCom API with
// a cached access token and the configured agent id injected.
type MessageController struct {
	tokens  TokenProvider
	sender  Sender
	agentID int64
}

// NewMessageController creates a new MessageController. agentID is the
// WeCom app the relay sends on behalf of; 0 disables injection.
func NewMessageController(tokens TokenProvider, sender Sender, agentID int64) *MessageController {
	return &MessageController{
		tokens:  tokens,
		sender:  sender,
		agentID: agentID,
	}
}

// SendMessageResponse is returned after a message is accepted.
type SendMessageResponse struct {
	// Message provides a brief status message for the operation.
	Message string `json:"message"`
}

// SendMessage godoc
// @Summary      Send a WeCom message
// @Description  Forwards the message payload to the WeCom send API with a cached access token. The payload is the WeCom message JSON; the configured agent id is injected when the payload does not set one.
// @Tags         Messages
// @Accept       json
// @Produce      json
// @Success      200  {object}  SendMessageResponse  "Message accepted by the platform"
// @Failure      400  "Empty or malformed payload"
// @Failure      502  "Platform rejected the message or token fetch failed"
// @Router       /v1/messages [post]
func (mc *MessageController) SendMessage(c *fiber.Ctx) error {
	body := c.Body()
	if len(body) == 0 {
		return richerrors.Error{
			Code:        fiber.StatusBadRequest,
			ExternalMsg: "Empty message payload",
			Err:         errors.New("send request with empty body"),
		}
	}

	body, err := mc.withAgentID(body)
	if err != nil {
		return richerrors.Error{
			Code:        fiber.StatusBadRequest,
			ExternalMsg: "Invalid message payload",
			Err:         err,
		}
	}

	token, err := mc.tokens.Token(c.Context())
	if err != nil {
		return richerrors.Error{
			Code:        fiber.StatusBadGateway,
			ExternalMsg: "Failed to obtain access token",
			Err:         fmt.Errorf("token refresh failed: %w", err),
		}
	}

	if err := mc.sender.SendMessage(c.Context(), token, body); err != nil {
		return richerrors.Error{
			Code:        fiber.StatusBadGateway,
			ExternalMsg: "Message delivery failed",
			Err:         fmt.Errorf("send API call failed: %w", err),
		}
	}
	return c.JSON(SendMessageResponse{Message: "Message sent"})
}

// withAgentID injects the configured agent id into the payload when the
// caller did not set one. A payload carrying its own agentid wins.
func (mc *MessageController) withAgentID(body []byte) ([]byte, error) {
	if mc.agentID == 0 {
		return body, nil
	}
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("send request body is not a JSON object: %w", err)
	}
	if _, ok := payload["agentid"]; ok {
		return body, nil
	}
	agentID, err := json.Marshal(mc.agentID)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal agent id: %w", err)
	}
	payload["agentid"] = agentID
	return json.Marshal(payload)
}
