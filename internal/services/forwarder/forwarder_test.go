package forwarder

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qybridge/wecom-relay/internal/richerrors"
)

func TestForwarder_Forward(t *testing.T) {
	t.Parallel()

	t.Run("relays body, path and query to the backend", func(t *testing.T) {
		testServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/wecom/callback", r.URL.Path)
			assert.Equal(t, "ts-1", r.URL.Query().Get("timestamp"))
			assert.Equal(t, "text/xml", r.Header.Get("Content-Type"))
			assert.Equal(t, "WeCom-Relay/1.0", r.Header.Get("User-Agent"))

			body, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			assert.Equal(t, "<xml>payload</xml>", string(body))

			w.Header().Set("Content-Type", "text/plain")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("success"))
		}))
		defer testServer.Close()

		fwd, err := New(testServer.URL, nil)
		require.NoError(t, err)

		resp, err := fwd.Forward(context.Background(), "/wecom/callback", "timestamp=ts-1", "text/xml", []byte("<xml>payload</xml>"))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "text/plain", resp.ContentType)
		assert.Equal(t, "success", string(resp.Body))
	})

	t.Run("backend error status is relayed, not translated", func(t *testing.T) {
		testServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte("nope"))
		}))
		defer testServer.Close()

		fwd, err := New(testServer.URL, nil)
		require.NoError(t, err)

		resp, err := fwd.Forward(context.Background(), "/wecom/callback", "", "", []byte("{}"))
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		assert.Equal(t, "nope", string(resp.Body))
	})

	t.Run("configured client timeout bounds the request", func(t *testing.T) {
		testServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(250 * time.Millisecond)
			w.WriteHeader(http.StatusOK)
		}))
		defer testServer.Close()

		// A backend slower than the configured timeout must fail the
		// forward instead of waiting out the response.
		fwd, err := New(testServer.URL, &http.Client{Timeout: 50 * time.Millisecond})
		require.NoError(t, err)

		_, err = fwd.Forward(context.Background(), "/wecom/callback", "", "", []byte("{}"))
		require.Error(t, err)
		var richErr richerrors.Error
		require.True(t, errors.As(err, &richErr))
		assert.Equal(t, fiber.StatusBadGateway, richErr.Code)
	})

	t.Run("unreachable backend maps to 502", func(t *testing.T) {
		testServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		testServer.Close()

		fwd, err := New(testServer.URL, nil)
		require.NoError(t, err)

		_, err = fwd.Forward(context.Background(), "/wecom/callback", "", "", nil)
		require.Error(t, err)
		var richErr richerrors.Error
		require.True(t, errors.As(err, &richErr))
		assert.Equal(t, fiber.StatusBadGateway, richErr.Code)
	})
}
