package websocket

import (
	"context"
	"sync"

	"github.com/cantetik/hepsiemlak-todo-case/internal/domain"
	"github.com/cantetik/hepsiemlak-todo-case/internal/logging"
)

const publishBuffer = 256

type delivery struct {
	username string
	event    domain.TodoEvent
}

// Hub routes todo events to the connections of the todo's owner. All client
// bookkeeping happens on the Run goroutine.
type Hub struct {
	clients    map[string]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	publish    chan delivery
	closeUser  chan string
	stop       chan struct{}
	done       chan struct{}
	stopOnce   sync.Once
	log        logging.Logger
	mu         sync.RWMutex
}

func NewHub(log logging.Logger) *Hub {
	if log == nil {
		log = logging.Discard()
	}
	return &Hub{
		clients:    make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		publish:    make(chan delivery, publishBuffer),
		closeUser:  make(chan string, publishBuffer),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
		log:        log,
	}
}

func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.stop:
			h.mu.Lock()
			for _, set := range h.clients {
				for client := range set {
					client.Close()
				}
			}
			h.clients = make(map[string]map[*Client]struct{})
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			set, ok := h.clients[client.username]
			if !ok {
				set = make(map[*Client]struct{})
				h.clients[client.username] = set
			}
			set[client] = struct{}{}
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()

		case d := <-h.publish:
			h.deliver(d)

		case username := <-h.closeUser:
			h.mu.Lock()
			for client := range h.clients[username] {
				h.remove(client)
			}
			h.mu.Unlock()
		}
	}
}

// remove drops and closes client. Callers hold mu.
func (h *Hub) remove(client *Client) {
	set, ok := h.clients[client.username]
	if !ok {
		return
	}
	if _, ok := set[client]; !ok {
		return
	}
	delete(set, client)
	if len(set) == 0 {
		delete(h.clients, client.username)
	}
	client.Close()
}

func (h *Hub) deliver(d delivery) {
	data, err := eventMessage(d.event)
	if err != nil {
		h.log.Error(context.Background(), "encode todo event", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients[d.username] {
		select {
		case client.send <- data:
		default:
			// Slow consumer; it reconnects and refetches.
			h.log.Warn(context.Background(), "dropping slow websocket client", "username", d.username)
			h.remove(client)
		}
	}
}

// Stop closes every client and blocks until Run has returned.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.stop) })
	<-h.done
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		client.Close()
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Publish queues event for username's clients without blocking. Events are
// dropped when the queue is full or the hub has stopped.
func (h *Hub) Publish(username string, event domain.TodoEvent) {
	select {
	case <-h.done:
		return
	default:
	}
	select {
	case h.publish <- delivery{username: username, event: event}:
	default:
		h.log.Warn(context.Background(), "todo event queue full", "type", event.Type)
	}
}

// CloseUser disconnects every client of username.
func (h *Hub) CloseUser(username string) {
	select {
	case <-h.done:
		return
	default:
	}
	select {
	case h.closeUser <- username:
	default:
		h.log.Warn(context.Background(), "close queue full", "username", username)
	}
}

// ClientCount reports how many live connections username has.
func (h *Hub) ClientCount(username string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[username])
}
