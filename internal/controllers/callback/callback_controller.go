// Package callback handles the inbound WeCom callback surface: the URL
// verification handshake and forwarding of verified callback events.
package callback

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/qybridge/wecom-relay/internal/fibercommon"
	"github.com/qybridge/wecom-relay/internal/metrics"
	"github.com/qybridge/wecom-relay/internal/richerrors"
	"github.com/qybridge/wecom-relay/internal/services/forwarder"
	"github.com/qybridge/wecom-relay/internal/wecomcrypt"
)

// BackendForwarder relays a verified callback body to the backend.
type BackendForwarder interface {
	Forward(ctx context.Context, path, rawQuery, contentType string, body []byte) (*forwarder.Response, error)
}

// CallbackController answers the WeCom verification handshake and
// relays callback events.
type CallbackController struct {
	token          string
	encodingAESKey string
	corpID         string
	forwarder      BackendForwarder
}

// NewCallbackController creates a new CallbackController.
func NewCallbackController(token, encodingAESKey, corpID string, fwd BackendForwarder) *CallbackController {
	return &CallbackController{
		token:          token,
		encodingAESKey: encodingAESKey,
		corpID:         corpID,
		forwarder:      fwd,
	}
}

// VerifyURL godoc
// @Summary      WeCom URL verification handshake
// @Description  Verifies the callback signature, decrypts the echostr challenge and echoes the plaintext back. The body is exactly the decrypted challenge; WeCom compares it byte for byte.
// @Tags         Callback
// @Produce      plain
// @Param        msg_signature  query  string  true  "Callback signature"
// @Param        timestamp      query  string  true  "Callback timestamp"
// @Param        nonce          query  string  true  "Callback nonce"
// @Param        echostr        query  string  true  "Encrypted challenge"
// @Success      200  {string}  string  "Decrypted challenge"
// @Failure      400  "Missing verification parameters"
// @Failure      403  "Signature or decryption failure"
// @Failure      500  "Key material misconfigured"
// @Router       /wecom/callback [get]
func (ct *CallbackController) VerifyURL(c *fiber.Ctx) error {
	signature := c.Query("msg_signature")
	timestamp := c.Query("timestamp")
	nonce := c.Query("nonce")
	echostr := c.Query("echostr")
	if signature == "" || timestamp == "" || nonce == "" || echostr == "" {
		return richerrors.Error{
			Code:        fiber.StatusBadRequest,
			ExternalMsg: "Missing verification parameters",
			Err:         errors.New("handshake request with empty verification parameters"),
		}
	}

	if !wecomcrypt.VerifySignature(ct.token, timestamp, nonce, signature, echostr) {
		metrics.VerificationsTotal.WithLabelValues("rejected").Inc()
		return richerrors.Error{
			Code:        fiber.StatusForbidden,
			ExternalMsg: "verification failed",
			Err:         errors.New("callback signature mismatch"),
		}
	}
	metrics.VerificationsTotal.WithLabelValues("ok").Inc()

	plaintext, err := wecomcrypt.DecryptChallenge(ct.encodingAESKey, ct.corpID, echostr)
	if err != nil {
		return mapDecryptErr(err)
	}
	metrics.ChallengeDecryptionsTotal.WithLabelValues("ok").Inc()

	// The response body must be exactly the decrypted plaintext; any
	// wrapping or trailing content fails the handshake on the platform
	// side.
	return c.SendString(plaintext)
}

// ReceiveCallback godoc
// @Summary      Receive a callback event
// @Description  Verifies the callback signature over the raw body and forwards it to the backend function host unchanged. The backend's status and body are relayed back as-is.
// @Tags         Callback
// @Param        msg_signature  query  string  true  "Callback signature"
// @Param        timestamp      query  string  true  "Callback timestamp"
// @Param        nonce          query  string  true  "Callback nonce"
// @Success      200  "Backend response"
// @Failure      400  "Missing verification parameters"
// @Failure      403  "Signature failure"
// @Failure      502  "Backend unavailable"
// @Router       /wecom/callback [post]
func (ct *CallbackController) ReceiveCallback(c *fiber.Ctx) error {
	signature := c.Query("msg_signature")
	timestamp := c.Query("timestamp")
	nonce := c.Query("nonce")
	if signature == "" || timestamp == "" || nonce == "" {
		return richerrors.Error{
			Code:        fiber.StatusBadRequest,
			ExternalMsg: "Missing verification parameters",
			Err:         errors.New("callback request with empty verification parameters"),
		}
	}

	body := c.Body()
	if !wecomcrypt.VerifySignature(ct.token, timestamp, nonce, signature, string(body)) {
		metrics.VerificationsTotal.WithLabelValues("rejected").Inc()
		return richerrors.Error{
			Code:        fiber.StatusForbidden,
			ExternalMsg: "verification failed",
			Err:         errors.New("callback signature mismatch"),
		}
	}
	metrics.VerificationsTotal.WithLabelValues("ok").Inc()

	resp, err := ct.forwarder.Forward(c.Context(), c.Path(), string(c.Request().URI().QueryString()), c.Get(fiber.HeaderContentType), body)
	if err != nil {
		metrics.ForwardsTotal.WithLabelValues("error").Inc()
		return err
	}
	metrics.ForwardsTotal.WithLabelValues(statusClass(resp.StatusCode)).Inc()
	fibercommon.CtxLogger(c).Debug().Int("backendStatus", resp.StatusCode).Msg("callback forwarded")

	if resp.ContentType != "" {
		c.Set(fiber.HeaderContentType, resp.ContentType)
	}
	return c.Status(resp.StatusCode).Send(resp.Body)
}

// mapDecryptErr maps the crypto error taxonomy onto responses. Every
// decryption failure mode shares one external body so responses cannot
// be used as a padding oracle; only the internal wrapped error says
// which check tripped.
func mapDecryptErr(err error) error {
	if errors.Is(err, wecomcrypt.ErrConfig) {
		metrics.ChallengeDecryptionsTotal.WithLabelValues("config_error").Inc()
		return richerrors.Error{
			Code:        fiber.StatusInternalServerError,
			ExternalMsg: "verification unavailable",
			Err:         fmt.Errorf("challenge decryption misconfigured: %w", err),
		}
	}
	metrics.ChallengeDecryptionsTotal.WithLabelValues("decrypt_error").Inc()
	return richerrors.Error{
		Code:        fiber.StatusForbidden,
		ExternalMsg: "decryption failed",
		Err:         fmt.Errorf("challenge decryption failed: %w", err),
	}
}

func statusClass(code int) string {
	switch {
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
