package websocket

import (
	"encoding/json"
	"time"

	"github.com/cantetik/hepsiemlak-todo-case/internal/domain"
)

type MessageType string

const (
	MessageTypeTodoCreated MessageType = MessageType(domain.TodoEventCreated)
	MessageTypeTodoUpdated MessageType = MessageType(domain.TodoEventUpdated)
	MessageTypeTodoDeleted MessageType = MessageType(domain.TodoEventDeleted)
)

type Message struct {
	Type      MessageType     `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp int64           `json:"timestamp"`
}

func NewMessage(msgType MessageType, payload interface{}) (*Message, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Message{
		Type:      msgType,
		Payload:   payloadBytes,
		Timestamp: time.Now().UnixMilli(),
	}, nil
}

// TodoPayload is the item carried by every todo event.
type TodoPayload struct {
	ID          string `json:"id"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Completed   bool   `json:"completed"`
}

func eventMessage(event domain.TodoEvent) ([]byte, error) {
	payload := TodoPayload{}
	if event.Todo != nil {
		payload = TodoPayload{
			ID:          event.Todo.ID.String(),
			Title:       event.Todo.Title,
			Description: event.Todo.Description,
			Completed:   event.Todo.Completed,
		}
	}
	msg, err := NewMessage(MessageType(event.Type), payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(msg)
}
