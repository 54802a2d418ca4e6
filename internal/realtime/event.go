package realtime

// EventType identifies an application event pushed over the transport.
type EventType string

// The event type catalog. Clients switch on these values; adding a type is
// backward compatible, renaming one is not.
const (
	// EventConnected confirms a successful handshake and carries the
	// resolved user id.
	EventConnected EventType = "connected"

	EventTaskCreated        EventType = "task_created"
	EventTaskUpdated        EventType = "task_updated"
	EventTaskStatusChanged  EventType = "task_status_changed"
	EventTaskDueDateUpdated EventType = "task_due_date_updated"
	EventTaskDeleted        EventType = "task_deleted"

	EventPrivateMessage       EventType = "private_message"
	EventNewGroupMessage      EventType = "new_group_message"
	EventChannelMemberAdded   EventType = "channel_member_added"
	EventChannelMemberRemoved EventType = "channel_member_removed"

	// EventNotification mirrors a persisted notification record.
	EventNotification EventType = "notification"

	// EventError is the in-band error frame for message-processing
	// failures; transport-level failures just close the connection.
	EventError EventType = "error"
)

// Event is the tagged payload shape every frame on the wire uses.
type Event struct {
	Type EventType   `json:"type"`
	Data interface{} `json:"data"`
}

// NewEvent creates an Event with the given type and data payload.
func NewEvent(eventType EventType, data interface{}) Event {
	return Event{Type: eventType, Data: data}
}

// ChatEvent reports whether the event type carries chat traffic, which is
// what the fanout layer pushes over the transport in addition to persisting
// notification records.
func ChatEvent(eventType EventType) bool {
	switch eventType {
	case EventPrivateMessage, EventNewGroupMessage:
		return true
	default:
		return false
	}
}
