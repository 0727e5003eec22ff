package testutil

import (
	"encoding/json"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/cantetik/hepsiemlak-todo-case/internal/websocket"
	gorillaWS "github.com/gorilla/websocket"
)

// WSClient is a test WebSocket client
type WSClient struct {
	t        *testing.T
	conn     *gorillaWS.Conn
	messages chan *websocket.Message
	closed   chan struct{}
	done     chan struct{}
	mu       sync.Mutex
}

// NewWSClient connects to url and starts reading in the background
func NewWSClient(t *testing.T, url string) *WSClient {
	t.Helper()

	conn, resp, err := DialWS(url)
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		t.Fatalf("failed to connect to websocket (status %d): %v", status, err)
	}

	client := &WSClient{
		t:        t,
		conn:     conn,
		messages: make(chan *websocket.Message, 100),
		closed:   make(chan struct{}),
		done:     make(chan struct{}),
	}

	go client.readPump()

	t.Cleanup(func() {
		client.Close()
	})

	return client
}

// DialWS opens a raw connection, returning the handshake response for
// callers that expect the upgrade to be refused
func DialWS(url string) (*gorillaWS.Conn, *http.Response, error) {
	dialer := *gorillaWS.DefaultDialer
	dialer.HandshakeTimeout = 5 * time.Second
	return dialer.Dial(url, nil)
}

func (c *WSClient) readPump() {
	defer close(c.closed)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var msg websocket.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}

		select {
		case c.messages <- &msg:
		case <-c.done:
			return
		}
	}
}

// Close closes the WebSocket connection gracefully
func (c *WSClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	select {
	case <-c.done:
		return
	default:
		close(c.done)
		c.conn.WriteMessage(gorillaWS.CloseMessage, gorillaWS.FormatCloseMessage(gorillaWS.CloseNormalClosure, ""))
		c.conn.Close()
	}
}

// ExpectMessage waits for a message of msgType, skipping others
func (c *WSClient) ExpectMessage(msgType websocket.MessageType, timeout time.Duration) *websocket.Message {
	c.t.Helper()

	deadline := time.After(timeout)
	for {
		select {
		case msg := <-c.messages:
			if msg.Type == msgType {
				return msg
			}
		case <-c.closed:
			c.t.Fatalf("connection closed while waiting for %s", msgType)
		case <-deadline:
			c.t.Fatalf("timeout waiting for message type %s", msgType)
		}
	}
}

// ExpectTodo waits for msgType and decodes its payload
func (c *WSClient) ExpectTodo(msgType websocket.MessageType, timeout time.Duration) websocket.TodoPayload {
	c.t.Helper()

	msg := c.ExpectMessage(msgType, timeout)
	var payload websocket.TodoPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		c.t.Fatalf("failed to decode %s payload: %v", msgType, err)
	}
	return payload
}

// ExpectNoMessage fails if any message arrives within timeout
func (c *WSClient) ExpectNoMessage(timeout time.Duration) {
	c.t.Helper()

	select {
	case msg := <-c.messages:
		c.t.Fatalf("unexpected message received: %s", msg.Type)
	case <-time.After(timeout):
	}
}

// ExpectClosed waits for the server to end the connection
func (c *WSClient) ExpectClosed(timeout time.Duration) {
	c.t.Helper()

	select {
	case <-c.closed:
	case <-time.After(timeout):
		c.t.Fatal("timeout waiting for server to close the connection")
	}
}
