package chatclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdapterCall(t *testing.T) {
	t.Run("no token fails before any network traffic", func(t *testing.T) {
		hits := 0
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits++
		}))
		defer srv.Close()

		a := NewAdapter(srv.URL, "ws://unused", testLogger())
		err := a.Call(context.Background(), http.MethodGet, "/chat/conversations", nil, nil)

		var authErr *AuthError
		require.ErrorAs(t, err, &authErr)
		assert.Equal(t, "not authenticated", authErr.Reason)
		assert.Zero(t, hits)
	})

	t.Run("success envelope unpacks the data payload", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))
			json.NewEncoder(w).Encode(map[string]interface{}{
				"success": true,
				"data":    map[string]string{"value": "hello"},
			})
		}))
		defer srv.Close()

		a := NewAdapter(srv.URL, "ws://unused", testLogger())
		a.SetToken("token")

		var out struct {
			Value string `json:"value"`
		}
		require.NoError(t, a.Call(context.Background(), http.MethodGet, "/x", nil, &out))
		assert.Equal(t, "hello", out.Value)
	})

	t.Run("failure envelope carries the server message", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"success": false,
				"message": "conversation not found",
			})
		}))
		defer srv.Close()

		a := NewAdapter(srv.URL, "ws://unused", testLogger())
		a.SetToken("token")

		err := a.Call(context.Background(), http.MethodPost, "/chat/send", map[string]string{"text": "x"}, nil)

		var transportErr *TransportError
		require.ErrorAs(t, err, &transportErr)
		assert.Equal(t, http.StatusBadRequest, transportErr.Status)
		assert.Equal(t, "conversation not found", transportErr.Message)
		assert.Contains(t, err.Error(), "conversation not found")
	})

	t.Run("success=false with status 200 still fails", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]interface{}{
				"success": false,
				"message": "nope",
			})
		}))
		defer srv.Close()

		a := NewAdapter(srv.URL, "ws://unused", testLogger())
		a.SetToken("token")

		var transportErr *TransportError
		require.ErrorAs(t, a.Call(context.Background(), http.MethodGet, "/x", nil, nil), &transportErr)
		assert.Equal(t, "nope", transportErr.Message)
	})

	t.Run("401 maps to AuthError", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"success": false,
				"message": "token expired",
			})
		}))
		defer srv.Close()

		a := NewAdapter(srv.URL, "ws://unused", testLogger())
		a.SetToken("stale")

		var authErr *AuthError
		require.ErrorAs(t, a.Call(context.Background(), http.MethodGet, "/x", nil, nil), &authErr)
		assert.Equal(t, "token expired", authErr.Reason)
	})

	t.Run("malformed body is a TransportError", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("not json"))
		}))
		defer srv.Close()

		a := NewAdapter(srv.URL, "ws://unused", testLogger())
		a.SetToken("token")

		var transportErr *TransportError
		require.ErrorAs(t, a.Call(context.Background(), http.MethodGet, "/x", nil, nil), &transportErr)
	})
}

func TestAdapterUpload(t *testing.T) {
	t.Run("multipart form carries the file and the data field", func(t *testing.T) {
		var gotFilename, gotData string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, r.ParseMultipartForm(1<<20))
			file, header, err := r.FormFile("attachments")
			require.NoError(t, err)
			file.Close()
			gotFilename = header.Filename
			gotData = r.FormValue("data")
			json.NewEncoder(w).Encode(map[string]interface{}{"success": true})
		}))
		defer srv.Close()

		path := filepath.Join(t.TempDir(), "invoice.pdf")
		require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o644))

		a := NewAdapter(srv.URL, "ws://unused", testLogger())
		a.SetToken("token")

		err := a.Upload(context.Background(), "/uploads/chat/send-with-attachments", path,
			map[string]string{"conversation_id": "c1"}, nil)
		require.NoError(t, err)

		assert.Equal(t, "invoice.pdf", gotFilename)
		assert.JSONEq(t, `{"conversation_id":"c1"}`, gotData)
	})

	t.Run("no token fails before opening the file", func(t *testing.T) {
		a := NewAdapter("http://unused", "ws://unused", testLogger())

		var authErr *AuthError
		err := a.Upload(context.Background(), "/x", "/does/not/exist", nil, nil)
		require.ErrorAs(t, err, &authErr)
	})
}

func TestDecodeEvent(t *testing.T) {
	t.Run("known variants decode to typed events", func(t *testing.T) {
		ev, err := DecodeEvent([]byte(`{"type":"typingStatus","data":{"conversation_id":"c1","user_id":"u2","is_typing":true}}`))
		require.NoError(t, err)
		typing, ok := ev.(*TypingStatusEvent)
		require.True(t, ok)
		assert.True(t, typing.IsTyping)
		assert.Equal(t, "c1", typing.ConversationID)
	})

	t.Run("newMessage requires message and conversation ids", func(t *testing.T) {
		_, err := DecodeEvent([]byte(`{"type":"newMessage","data":{"message":{"id":"","conversation_id":""}}}`))
		require.Error(t, err)
	})

	t.Run("unknown type is rejected", func(t *testing.T) {
		_, err := DecodeEvent([]byte(`{"type":"somethingElse","data":{}}`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "somethingElse")
	})

	t.Run("garbage frame is rejected", func(t *testing.T) {
		_, err := DecodeEvent([]byte(`{{`))
		require.Error(t, err)
	})
}
