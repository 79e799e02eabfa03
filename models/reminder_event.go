package models

import "encoding/json"

// ReminderEvent is the broker payload published when a reminder comes due.
// Title and body are the plaintext the user typed for the notification;
// reminders opt out of end to end encryption because the push provider has
// to render them.
type ReminderEvent struct {
	ReminderID   string `json:"reminder_id"`
	UserID       string `json:"user_id"`
	ClientNoteID int64  `json:"client_note_id"`
	Title        string `json:"title"`
	Body         string `json:"body"`
	Timestamp    string `json:"timestamp"`
}

func (e *ReminderEvent) FromJSON(data []byte) error {
	return json.Unmarshal(data, e)
}

func (e *ReminderEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}
