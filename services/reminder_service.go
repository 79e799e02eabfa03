package services

import (
	"errors"
	"time"

	"pinpoint-notes/pinpoint/database"
	"pinpoint-notes/pinpoint/models"
	"pinpoint-notes/pinpoint/utils/clock"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReminderServiceInterface interface {
	CreateReminder(db *database.Database, userID uuid.UUID, clientNoteID int64, title, description string, remindAt time.Time) (models.Reminder, error)
	ListReminders(db *database.Database, userID uuid.UUID) ([]models.Reminder, error)
	UpdateReminder(db *database.Database, userID, reminderID uuid.UUID, title, description string, remindAt time.Time) (models.Reminder, error)
	DeleteReminder(db *database.Database, userID, reminderID uuid.UUID) error
	DueReminders(db *database.Database, limit int) ([]models.Reminder, error)
	MarkTriggered(db *database.Database, reminderID uuid.UUID) error
}

type ReminderService struct {
	clock clock.Clock
}

func NewReminderService(clk clock.Clock) *ReminderService {
	return &ReminderService{clock: clk}
}

func (s *ReminderService) CreateReminder(db *database.Database, userID uuid.UUID, clientNoteID int64, title, description string, remindAt time.Time) (models.Reminder, error) {
	if title == "" || remindAt.IsZero() || clientNoteID <= 0 {
		return models.Reminder{}, ErrInvalidInput
	}

	now := s.clock.Now()
	reminder := models.Reminder{
		UserID:       userID,
		ClientNoteID: clientNoteID,
		Title:        title,
		Description:  description,
		RemindAt:     remindAt.UTC(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := db.DB.Create(&reminder).Error; err != nil {
		return models.Reminder{}, err
	}
	return reminder, nil
}

func (s *ReminderService) ListReminders(db *database.Database, userID uuid.UUID) ([]models.Reminder, error) {
	var reminders []models.Reminder
	if err := db.DB.Where("user_id = ?", userID).Order("remind_at ASC").Find(&reminders).Error; err != nil {
		return nil, err
	}
	return reminders, nil
}

// UpdateReminder reschedules a reminder. Moving remind_at re-arms it so a
// previously fired reminder fires again at the new time.
func (s *ReminderService) UpdateReminder(db *database.Database, userID, reminderID uuid.UUID, title, description string, remindAt time.Time) (models.Reminder, error) {
	if title == "" || remindAt.IsZero() {
		return models.Reminder{}, ErrInvalidInput
	}

	var reminder models.Reminder
	if err := db.DB.Where("id = ? AND user_id = ?", reminderID, userID).First(&reminder).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Reminder{}, ErrReminderNotFound
		}
		return models.Reminder{}, err
	}

	now := s.clock.Now()
	changes := map[string]interface{}{
		"title":       title,
		"description": description,
		"updated_at":  now,
	}
	if !remindAt.UTC().Equal(reminder.RemindAt) {
		changes["remind_at"] = remindAt.UTC()
		changes["is_triggered"] = false
		changes["triggered_at"] = nil
	}

	if err := db.DB.Model(&reminder).Updates(changes).Error; err != nil {
		return models.Reminder{}, err
	}

	if err := db.DB.First(&reminder, "id = ?", reminderID).Error; err != nil {
		return models.Reminder{}, err
	}
	return reminder, nil
}

func (s *ReminderService) DeleteReminder(db *database.Database, userID, reminderID uuid.UUID) error {
	result := db.DB.Where("id = ? AND user_id = ?", reminderID, userID).Delete(&models.Reminder{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrReminderNotFound
	}
	return nil
}

func (s *ReminderService) DueReminders(db *database.Database, limit int) ([]models.Reminder, error) {
	now := s.clock.Now()
	var reminders []models.Reminder
	query := db.DB.Where("is_triggered = ? AND remind_at <= ?", false, now).Order("remind_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&reminders).Error; err != nil {
		return nil, err
	}
	return reminders, nil
}

func (s *ReminderService) MarkTriggered(db *database.Database, reminderID uuid.UUID) error {
	now := s.clock.Now()
	return db.DB.Model(&models.Reminder{}).
		Where("id = ?", reminderID).
		Updates(map[string]interface{}{
			"is_triggered": true,
			"triggered_at": now,
			"updated_at":   now,
		}).Error
}

var ReminderServiceInstance ReminderServiceInterface
