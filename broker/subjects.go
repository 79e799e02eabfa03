package broker

const (
	// SyncEventsSubject is the root subject for note change events. Events
	// are published on a per-user child subject so consumers can filter
	// without decoding payloads.
	SyncEventsSubject = "sync.events"

	// SyncEventsWildcard matches the sync events of every user.
	SyncEventsWildcard = SyncEventsSubject + ".>"

	// ReminderEventsSubject carries reminders that have come due.
	ReminderEventsSubject = "reminders.due"
)

// UserSyncSubject returns the subject a user's note change events are
// published on.
func UserSyncSubject(userID string) string {
	return SyncEventsSubject + "." + userID
}
