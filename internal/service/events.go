package service

import "github.com/cantetik/hepsiemlak-todo-case/internal/domain"

// EventPublisher fans todo changes out to the owner's live connections.
// Implementations must not block; a failed delivery never fails the
// operation that produced the event.
type EventPublisher interface {
	Publish(username string, event domain.TodoEvent)
	CloseUser(username string)
}

type NopPublisher struct{}

func (NopPublisher) Publish(string, domain.TodoEvent) {}

func (NopPublisher) CloseUser(string) {}
