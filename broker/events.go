package broker

type EventType string

const (
	// Standardized event types in format: <resource>.<action>
	NoteCreated EventType = "note.created"
	NoteUpdated EventType = "note.updated"
	NoteDeleted EventType = "note.deleted"

	ReminderDue EventType = "reminder.due"

	SubscriptionUpdated EventType = "subscription.updated"
)
