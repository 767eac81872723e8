package chatclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"supplyhub/internal/lib/sl"
)

const (
	reconnectAttempts = 3
	reconnectBackoff  = 2 * time.Second
)

// Transport is the adapter between the session core and the wire:
// request/response calls plus the persistent event channel.
type Transport interface {
	Call(ctx context.Context, method, endpoint string, body, out interface{}) error
	Anonymous(ctx context.Context, method, endpoint string, body, out interface{}) error
	Upload(ctx context.Context, endpoint, filePath string, data, out interface{}) error
	SetToken(token string)
	Connect(token string) error
	CloseChannel()
	Connected() bool
	SendEvent(name string, payload interface{}) error
	Subscribe(fn func(ev interface{})) func()
}

// envelope mirrors the server's uniform response shape.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Adapter is the concrete Transport over HTTP and a websocket channel.
type Adapter struct {
	apiURL string
	wsURL  string
	http   *http.Client
	log    *slog.Logger

	mu        sync.Mutex
	token     string
	conn      *websocket.Conn
	connected bool
	closed    bool
	sub       func(ev interface{})
}

func NewAdapter(apiURL, wsURL string, log *slog.Logger) *Adapter {
	return &Adapter{
		apiURL: apiURL,
		wsURL:  wsURL,
		http:   &http.Client{Timeout: 15 * time.Second},
		log:    log.With(sl.Module("transport")),
	}
}

func (a *Adapter) SetToken(token string) {
	a.mu.Lock()
	a.token = token
	a.mu.Unlock()
}

// Call performs an authenticated request/response exchange. It fails
// with AuthError before any network I/O when no credential is present.
func (a *Adapter) Call(ctx context.Context, method, endpoint string, body, out interface{}) error {
	a.mu.Lock()
	token := a.token
	a.mu.Unlock()

	if token == "" {
		return &AuthError{Reason: "not authenticated"}
	}
	return a.do(ctx, method, endpoint, token, body, out)
}

// Anonymous performs the one unauthenticated exchange: login.
func (a *Adapter) Anonymous(ctx context.Context, method, endpoint string, body, out interface{}) error {
	return a.do(ctx, method, endpoint, "", body, out)
}

func (a *Adapter) do(ctx context.Context, method, endpoint, token string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return &TransportError{Endpoint: endpoint, Err: fmt.Errorf("marshal request: %w", err)}
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.apiURL+endpoint, reader)
	if err != nil {
		return &TransportError{Endpoint: endpoint, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := a.http.Do(req)
	if err != nil {
		return &TransportError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	return a.decode(endpoint, resp, out)
}

// Upload sends a multipart request with the file under `attachments`
// and the JSON-encoded data under `data`.
func (a *Adapter) Upload(ctx context.Context, endpoint, filePath string, data, out interface{}) error {
	a.mu.Lock()
	token := a.token
	a.mu.Unlock()

	if token == "" {
		return &AuthError{Reason: "not authenticated"}
	}

	file, err := os.Open(filePath)
	if err != nil {
		return &TransportError{Endpoint: endpoint, Err: fmt.Errorf("open %s: %w", filePath, err)}
	}
	defer file.Close()

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)

	part, err := form.CreateFormFile("attachments", filepath.Base(filePath))
	if err != nil {
		return &TransportError{Endpoint: endpoint, Err: err}
	}
	if _, err := io.Copy(part, file); err != nil {
		return &TransportError{Endpoint: endpoint, Err: err}
	}

	rawData, err := json.Marshal(data)
	if err != nil {
		return &TransportError{Endpoint: endpoint, Err: fmt.Errorf("marshal data: %w", err)}
	}
	if err := form.WriteField("data", string(rawData)); err != nil {
		return &TransportError{Endpoint: endpoint, Err: err}
	}
	if err := form.Close(); err != nil {
		return &TransportError{Endpoint: endpoint, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.apiURL+endpoint, &buf)
	if err != nil {
		return &TransportError{Endpoint: endpoint, Err: err}
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := a.http.Do(req)
	if err != nil {
		return &TransportError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	return a.decode(endpoint, resp, out)
}

// decode unpacks the response envelope, surfacing the server message
// on failure and unmarshaling the data payload on success. Envelope
// fields may be absent; absence is not an error.
func (a *Adapter) decode(endpoint string, resp *http.Response, out interface{}) error {
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Endpoint: endpoint, Status: resp.StatusCode, Err: err}
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return &TransportError{Endpoint: endpoint, Status: resp.StatusCode, Err: fmt.Errorf("parse response: %w", err)}
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return &AuthError{Reason: env.Message}
	}
	if resp.StatusCode >= 400 || !env.Success {
		return &TransportError{Endpoint: endpoint, Status: resp.StatusCode, Message: env.Message}
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return &TransportError{Endpoint: endpoint, Status: resp.StatusCode, Err: fmt.Errorf("parse data: %w", err)}
		}
	}
	return nil
}

// Subscribe registers the single event consumer. The returned function
// detaches it; after detaching, no further events are delivered.
func (a *Adapter) Subscribe(fn func(ev interface{})) func() {
	a.mu.Lock()
	a.sub = fn
	a.mu.Unlock()

	return func() {
		a.mu.Lock()
		a.sub = nil
		a.mu.Unlock()
	}
}

// Connect opens the persistent channel, authenticating the handshake
// with the token. It never attempts an unauthenticated connect.
func (a *Adapter) Connect(token string) error {
	if token == "" {
		return &AuthError{Reason: "cannot connect without a credential"}
	}

	conn, err := a.dial(token)
	if err != nil {
		return fmt.Errorf("connect channel: %w", err)
	}

	a.mu.Lock()
	a.token = token
	a.conn = conn
	a.connected = true
	a.closed = false
	a.mu.Unlock()

	go a.readLoop(conn, token)
	return nil
}

func (a *Adapter) dial(token string) (*websocket.Conn, error) {
	url := a.wsURL + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	return conn, err
}

// readLoop delivers channel events to the subscriber in arrival order.
// On a broken connection it retries a bounded number of times with a
// fixed backoff; when the retries are exhausted it surfaces a
// ChannelDownEvent instead of failing out of the loop.
func (a *Adapter) readLoop(conn *websocket.Conn, token string) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			a.mu.Lock()
			closed := a.closed
			a.mu.Unlock()
			if closed {
				return
			}

			next, ok := a.reconnect(token)
			if !ok {
				a.mu.Lock()
				a.connected = false
				a.conn = nil
				a.mu.Unlock()
				a.deliver(&ChannelDownEvent{})
				return
			}
			conn = next
			continue
		}

		ev, err := DecodeEvent(raw)
		if err != nil {
			a.log.With(sl.Err(err)).Warn("dropped malformed event")
			continue
		}
		a.deliver(ev)
	}
}

func (a *Adapter) reconnect(token string) (*websocket.Conn, bool) {
	for attempt := 1; attempt <= reconnectAttempts; attempt++ {
		time.Sleep(reconnectBackoff)

		a.mu.Lock()
		closed := a.closed
		a.mu.Unlock()
		if closed {
			return nil, false
		}

		conn, err := a.dial(token)
		if err != nil {
			a.log.With(
				slog.Int("attempt", attempt),
				sl.Err(err),
			).Warn("channel reconnect failed")
			continue
		}

		a.mu.Lock()
		a.conn = conn
		a.connected = true
		a.mu.Unlock()
		a.log.With(slog.Int("attempt", attempt)).Info("channel reconnected")
		return conn, true
	}
	return nil, false
}

func (a *Adapter) deliver(ev interface{}) {
	a.mu.Lock()
	sub := a.sub
	a.mu.Unlock()
	if sub != nil {
		sub(ev)
	}
}

// Connected reports whether the channel is currently open.
func (a *Adapter) Connected() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.connected
}

// SendEvent writes one frame to the channel.
func (a *Adapter) SendEvent(name string, payload interface{}) error {
	a.mu.Lock()
	conn := a.conn
	connected := a.connected
	a.mu.Unlock()

	if !connected || conn == nil {
		return ErrChannelDown
	}

	frame := struct {
		Type string      `json:"type"`
		Data interface{} `json:"data"`
	}{Type: name, Data: payload}

	if err := conn.WriteJSON(frame); err != nil {
		return fmt.Errorf("send %s: %w", name, err)
	}
	return nil
}

// CloseChannel shuts the channel down for good: no reconnection, no
// further deliveries. Safe to call more than once.
func (a *Adapter) CloseChannel() {
	a.mu.Lock()
	conn := a.conn
	a.closed = true
	a.connected = false
	a.conn = nil
	a.mu.Unlock()

	if conn != nil {
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		_ = conn.Close()
	}
}
