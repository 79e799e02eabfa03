package services

import (
	"log"
	"time"

	"pinpoint-notes/pinpoint/broker"
	"pinpoint-notes/pinpoint/database"
	"pinpoint-notes/pinpoint/models"
	"pinpoint-notes/pinpoint/utils/clock"
)

const dispatchBatchSize = 256

type EventDispatcherServiceInterface interface {
	Start()
	Stop()
	DispatchPendingEvents()
}

// EventDispatcherService drains the sync event outbox. Events are written in
// the same transaction as the note change they describe; this service
// publishes them to the broker afterwards and marks them dispatched, so a
// broker outage delays fan-out without losing it.
type EventDispatcherService struct {
	db        *database.Database
	clock     clock.Clock
	isRunning bool
	ticker    *time.Ticker
}

func NewEventDispatcherService(db *database.Database, clk clock.Clock, pollInterval time.Duration) *EventDispatcherService {
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	return &EventDispatcherService{
		db:        db,
		clock:     clk,
		isRunning: false,
		ticker:    time.NewTicker(pollInterval),
	}
}

func (s *EventDispatcherService) Start() {
	if s.isRunning {
		return
	}
	s.isRunning = true
	go s.DispatchPendingEvents()
}

func (s *EventDispatcherService) Stop() {
	if !s.isRunning {
		return
	}
	s.isRunning = false
	s.ticker.Stop()
}

func (s *EventDispatcherService) DispatchPendingEvents() {
	for range s.ticker.C {
		if !s.isRunning {
			return
		}

		var events []models.SyncEvent
		if err := s.db.DB.Where("dispatched = ?", false).
			Order("timestamp ASC").
			Limit(dispatchBatchSize).
			Find(&events).Error; err != nil {
			log.Printf("Error fetching pending sync events: %v", err)
			continue
		}

		if len(events) > 0 {
			log.Printf("Found %d pending sync events to dispatch", len(events))
		}

		for _, event := range events {
			if err := s.dispatchEvent(event); err != nil {
				log.Printf("Error dispatching sync event %s: %v", event.ID, err)
				continue
			}
		}
	}
}

func (s *EventDispatcherService) dispatchEvent(event models.SyncEvent) error {
	payload, err := event.ToJSON()
	if err != nil {
		return err
	}

	subject := broker.UserSyncSubject(event.UserID.String())
	eventType := EventTypeForOperation(event.Operation)
	if err := broker.PublishMessage(subject, string(eventType), string(payload)); err != nil {
		return err
	}

	// Mark dispatched only after the broker accepted it
	now := s.clock.Now()
	return s.db.DB.Model(&event).Updates(map[string]interface{}{
		"dispatched":    true,
		"dispatched_at": now,
	}).Error
}

// EventTypeForOperation maps a stored sync operation to the event type
// broadcast to clients.
func EventTypeForOperation(op models.SyncOperation) broker.EventType {
	switch op {
	case models.SyncOpCreate:
		return broker.NoteCreated
	case models.SyncOpDelete:
		return broker.NoteDeleted
	default:
		return broker.NoteUpdated
	}
}

var EventDispatcherServiceInstance EventDispatcherServiceInterface
