package callback

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qybridge/wecom-relay/internal/fibercommon"
	"github.com/qybridge/wecom-relay/internal/services/forwarder"
	"github.com/qybridge/wecom-relay/internal/wecomcrypt"
)

const (
	testToken  = "tok"
	testCorpID = "wxCORP123"
)

// testEncodingKey is a deterministic 32-byte key in its 43-character
// EncodingAESKey form.
func testEncodingKey(t *testing.T) string {
	t.Helper()
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	return strings.TrimSuffix(base64.StdEncoding.EncodeToString(key), "=")
}

type fakeForwarder struct {
	gotPath        string
	gotQuery       string
	gotContentType string
	gotBody        []byte
	resp           *forwarder.Response
	err            error
}

func (f *fakeForwarder) Forward(ctx context.Context, path, rawQuery, contentType string, body []byte) (*forwarder.Response, error) {
	f.gotPath = path
	f.gotQuery = rawQuery
	f.gotContentType = contentType
	f.gotBody = body
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func newApp(controller *CallbackController) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return fibercommon.ErrorHandler(c, err)
		},
		DisableStartupMessage: true,
	})
	app.Get("/wecom/callback", controller.VerifyURL)
	app.Post("/wecom/callback", controller.ReceiveCallback)
	return app
}

func handshakeURL(token, timestamp, nonce, echostr string) string {
	query := url.Values{}
	query.Set("msg_signature", wecomcrypt.Signature(token, timestamp, nonce, echostr))
	query.Set("timestamp", timestamp)
	query.Set("nonce", nonce)
	query.Set("echostr", echostr)
	return "/wecom/callback?" + query.Encode()
}

func TestCallbackController_VerifyURL(t *testing.T) {
	t.Parallel()

	encodingKey := testEncodingKey(t)

	t.Run("successful handshake echoes the decrypted challenge", func(t *testing.T) {
		controller := NewCallbackController(testToken, encodingKey, testCorpID, &fakeForwarder{})
		app := newApp(controller)

		echostr, err := wecomcrypt.EncryptMessage(encodingKey, testCorpID, "verification-ok")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, handshakeURL(testToken, "1700000000", "abc123", echostr), nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		// The platform compares the body byte for byte.
		assert.Equal(t, "verification-ok", string(body))
	})

	t.Run("missing parameters are rejected with 400", func(t *testing.T) {
		controller := NewCallbackController(testToken, encodingKey, testCorpID, &fakeForwarder{})
		app := newApp(controller)

		req := httptest.NewRequest(http.MethodGet, "/wecom/callback?timestamp=1&nonce=2&echostr=x", nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})

	t.Run("bad signature is rejected with 403", func(t *testing.T) {
		controller := NewCallbackController(testToken, encodingKey, testCorpID, &fakeForwarder{})
		app := newApp(controller)

		echostr, err := wecomcrypt.EncryptMessage(encodingKey, testCorpID, "verification-ok")
		require.NoError(t, err)

		target := handshakeURL("wrong-token", "1700000000", "abc123", echostr)
		req := httptest.NewRequest(http.MethodGet, target, nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, "verification failed", string(body))
	})

	t.Run("tenant mismatch is a generic 403 decryption failure", func(t *testing.T) {
		controller := NewCallbackController(testToken, encodingKey, "wxOTHER", &fakeForwarder{})
		app := newApp(controller)

		echostr, err := wecomcrypt.EncryptMessage(encodingKey, testCorpID, "verification-ok")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, handshakeURL(testToken, "1700000000", "abc123", echostr), nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, "decryption failed", string(body))
	})

	t.Run("garbage ciphertext gets the same 403 body as a tenant mismatch", func(t *testing.T) {
		controller := NewCallbackController(testToken, encodingKey, testCorpID, &fakeForwarder{})
		app := newApp(controller)

		echostr := base64.StdEncoding.EncodeToString(make([]byte, 32))
		req := httptest.NewRequest(http.MethodGet, handshakeURL(testToken, "1700000000", "abc123", echostr), nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, "decryption failed", string(body))
	})

	t.Run("malformed key material is a 500", func(t *testing.T) {
		controller := NewCallbackController(testToken, encodingKey[:42], testCorpID, &fakeForwarder{})
		app := newApp(controller)

		echostr, err := wecomcrypt.EncryptMessage(encodingKey, testCorpID, "verification-ok")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, handshakeURL(testToken, "1700000000", "abc123", echostr), nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, "verification unavailable", string(body))
	})
}

func TestCallbackController_ReceiveCallback(t *testing.T) {
	t.Parallel()

	encodingKey := testEncodingKey(t)

	t.Run("verified callback is forwarded and the backend response relayed", func(t *testing.T) {
		fwd := &fakeForwarder{resp: &forwarder.Response{
			StatusCode:  fiber.StatusOK,
			ContentType: "text/plain",
			Body:        []byte("handled"),
		}}
		controller := NewCallbackController(testToken, encodingKey, testCorpID, fwd)
		app := newApp(controller)

		payload := "<xml>event</xml>"
		query := url.Values{}
		query.Set("msg_signature", wecomcrypt.Signature(testToken, "1700000000", "abc123", payload))
		query.Set("timestamp", "1700000000")
		query.Set("nonce", "abc123")

		req := httptest.NewRequest(http.MethodPost, "/wecom/callback?"+query.Encode(), strings.NewReader(payload))
		req.Header.Set("Content-Type", "text/xml")
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, "handled", string(body))

		assert.Equal(t, "/wecom/callback", fwd.gotPath)
		assert.Equal(t, "text/xml", fwd.gotContentType)
		assert.True(t, bytes.Equal([]byte(payload), fwd.gotBody))
	})

	t.Run("unsigned callback is rejected before forwarding", func(t *testing.T) {
		fwd := &fakeForwarder{resp: &forwarder.Response{StatusCode: fiber.StatusOK}}
		controller := NewCallbackController(testToken, encodingKey, testCorpID, fwd)
		app := newApp(controller)

		req := httptest.NewRequest(http.MethodPost, "/wecom/callback?msg_signature=bad&timestamp=1&nonce=2", strings.NewReader("<xml/>"))
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
		assert.Nil(t, fwd.gotBody)
	})

	t.Run("backend failure surfaces as a server error", func(t *testing.T) {
		fwd := &fakeForwarder{err: fmt.Errorf("dial failed")}
		controller := NewCallbackController(testToken, encodingKey, testCorpID, fwd)
		app := newApp(controller)

		payload := "<xml>event</xml>"
		query := url.Values{}
		query.Set("msg_signature", wecomcrypt.Signature(testToken, "1700000000", "abc123", payload))
		query.Set("timestamp", "1700000000")
		query.Set("nonce", "abc123")

		req := httptest.NewRequest(http.MethodPost, "/wecom/callback?"+query.Encode(), strings.NewReader(payload))
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		// A plain error carries no rich code; the handler maps it to 500.
		assert.GreaterOrEqual(t, resp.StatusCode, fiber.StatusInternalServerError)
	})
}
