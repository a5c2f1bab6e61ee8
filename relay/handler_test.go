package relay_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/terraworkdynamics/skenterprises/relay"
)

// routerContext renames the embedded interface so the field does not
// collide with the stub's own Context method.
type routerContext = router.Context

// stubContext satisfies router.Context through embedding; only the methods
// the handler touches are implemented.
type stubContext struct {
	routerContext

	body    []byte
	bindErr error

	status  int
	payload any
}

func (s *stubContext) Bind(v any) error {
	if s.bindErr != nil {
		return s.bindErr
	}
	return json.Unmarshal(s.body, v)
}

func (s *stubContext) Context() context.Context {
	return context.Background()
}

func (s *stubContext) JSON(code int, v any) error {
	s.status = code
	s.payload = v
	return nil
}

type handlerResult struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	MessageID string `json:"message_id"`
	Error     string `json:"error"`
}

func decodeResult(t *testing.T, payload any) handlerResult {
	t.Helper()

	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	var out handlerResult
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func postBody(t *testing.T, msg relay.Message) []byte {
	t.Helper()

	raw, err := json.Marshal(msg)
	require.NoError(t, err)
	return raw
}

func TestSendPostDeliversConfirmation(t *testing.T) {
	sender := newSender(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"message_id": "msg-77"}`))
	})
	handler := relay.NewHandler(sender, nil)

	ctx := &stubContext{body: postBody(t, testMessage())}
	require.NoError(t, handler.SendPost(ctx))

	assert.Equal(t, http.StatusOK, ctx.status)
	result := decodeResult(t, ctx.payload)
	assert.True(t, result.Success)
	assert.Equal(t, "WhatsApp message sent successfully", result.Message)
	assert.Equal(t, "msg-77", result.MessageID)
}

func TestSendPostRejectsMalformedPayload(t *testing.T) {
	sender := newSender(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("vendor must not be called for malformed payloads")
	})
	handler := relay.NewHandler(sender, nil)

	ctx := &stubContext{bindErr: errors.New("unexpected end of JSON input")}
	require.NoError(t, handler.SendPost(ctx))

	assert.Equal(t, http.StatusBadRequest, ctx.status)
	result := decodeResult(t, ctx.payload)
	assert.False(t, result.Success)
	assert.Equal(t, "Invalid JSON input", result.Error)
}

func TestSendPostSurfacesValidationFailure(t *testing.T) {
	sender := newSender(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("vendor must not be called for invalid messages")
	})
	handler := relay.NewHandler(sender, nil)

	msg := testMessage()
	msg.Phone = ""

	ctx := &stubContext{body: postBody(t, msg)}
	require.NoError(t, handler.SendPost(ctx))

	assert.Equal(t, http.StatusBadRequest, ctx.status)
	result := decodeResult(t, ctx.payload)
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Error)
}

func TestSendPostMapsVendorFailureToBadGateway(t *testing.T) {
	sender := newSender(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error": "vendor unavailable"}`))
	})
	handler := relay.NewHandler(sender, nil)

	ctx := &stubContext{body: postBody(t, testMessage())}
	require.NoError(t, handler.SendPost(ctx))

	assert.Equal(t, http.StatusBadGateway, ctx.status)
	result := decodeResult(t, ctx.payload)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "vendor unavailable")
}
