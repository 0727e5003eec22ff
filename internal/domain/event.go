package domain

type TodoEventType string

const (
	TodoEventCreated TodoEventType = "TODO_CREATED"
	TodoEventUpdated TodoEventType = "TODO_UPDATED"
	TodoEventDeleted TodoEventType = "TODO_DELETED"
)

type TodoEvent struct {
	Type TodoEventType `json:"type"`
	Todo *Todo         `json:"todo"`
}
