package utils

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondError(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, http.StatusTeapot, "nope")

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"nope"}`, rec.Body.String())
}

func TestDecodeJSONEmptyBody(t *testing.T) {
	var payload struct {
		Subject string `json:"subject"`
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	require.NoError(t, DecodeJSON(req, &payload, true))

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	assert.Error(t, DecodeJSON(req, &payload, false))

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{bad"))
	assert.Error(t, DecodeJSON(req, &payload, true))
}

func TestSSEWriterFramesEvents(t *testing.T) {
	rec := httptest.NewRecorder()
	sse, err := NewSSEWriter(rec)
	require.NoError(t, err)

	require.NoError(t, sse.Send(map[string]string{"event": "start"}))
	require.NoError(t, sse.Send(map[string]string{"event": "end"}))

	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, "data: {\"event\":\"start\"}\n\ndata: {\"event\":\"end\"}\n\n", rec.Body.String())
	assert.True(t, rec.Flushed)
}
