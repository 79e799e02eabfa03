package services

import (
	"log"
	"time"

	"pinpoint-notes/pinpoint/broker"
	"pinpoint-notes/pinpoint/database"
	"pinpoint-notes/pinpoint/models"
	"pinpoint-notes/pinpoint/utils/clock"
)

type ReminderDispatcherServiceInterface interface {
	Start()
	Stop()
	DispatchDueReminders()
}

// ReminderDispatcherService fires reminders whose time has come. A reminder
// is marked triggered only after its event reached the broker, so a failed
// publish is retried on the next tick.
type ReminderDispatcherService struct {
	db              *database.Database
	reminderService ReminderServiceInterface
	clock           clock.Clock
	isRunning       bool
	ticker          *time.Ticker
}

func NewReminderDispatcherService(db *database.Database, reminderService ReminderServiceInterface, clk clock.Clock, pollInterval time.Duration) *ReminderDispatcherService {
	if pollInterval <= 0 {
		pollInterval = 30 * time.Second
	}
	return &ReminderDispatcherService{
		db:              db,
		reminderService: reminderService,
		clock:           clk,
		isRunning:       false,
		ticker:          time.NewTicker(pollInterval),
	}
}

func (s *ReminderDispatcherService) Start() {
	if s.isRunning {
		return
	}
	s.isRunning = true
	go s.DispatchDueReminders()
}

func (s *ReminderDispatcherService) Stop() {
	if !s.isRunning {
		return
	}
	s.isRunning = false
	s.ticker.Stop()
}

func (s *ReminderDispatcherService) DispatchDueReminders() {
	for range s.ticker.C {
		if !s.isRunning {
			return
		}

		due, err := s.reminderService.DueReminders(s.db, dispatchBatchSize)
		if err != nil {
			log.Printf("Error fetching due reminders: %v", err)
			continue
		}

		if len(due) > 0 {
			log.Printf("Found %d due reminders to dispatch", len(due))
		}

		for _, reminder := range due {
			if err := s.dispatchReminder(reminder); err != nil {
				log.Printf("Error dispatching reminder %s: %v", reminder.ID, err)
				continue
			}
		}
	}
}

func (s *ReminderDispatcherService) dispatchReminder(reminder models.Reminder) error {
	event := models.ReminderEvent{
		ReminderID:   reminder.ID.String(),
		UserID:       reminder.UserID.String(),
		ClientNoteID: reminder.ClientNoteID,
		Title:        reminder.Title,
		Body:         reminder.Description,
		Timestamp:    s.clock.Now().UTC().Format(time.RFC3339),
	}

	payload, err := event.ToJSON()
	if err != nil {
		return err
	}

	if err := broker.PublishMessage(broker.ReminderEventsSubject, string(broker.ReminderDue), string(payload)); err != nil {
		return err
	}

	return s.reminderService.MarkTriggered(s.db, reminder.ID)
}

var ReminderDispatcherServiceInstance ReminderDispatcherServiceInterface
