package services

import (
	"fmt"
	"log"
	"strconv"
	"time"

	"pinpoint-notes/pinpoint/broker"
	"pinpoint-notes/pinpoint/database"
	"pinpoint-notes/pinpoint/models"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

const defaultFCMEndpoint = "https://fcm.googleapis.com/fcm/send"

type NotificationServiceInterface interface {
	Start(natsURL string)
	Stop()
	SendPush(tokens []string, title, body string, data map[string]string) error
}

type fcmNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type fcmRequest struct {
	RegistrationIDs []string          `json:"registration_ids"`
	Notification    fcmNotification   `json:"notification"`
	Data            map[string]string `json:"data,omitempty"`
}

// NotificationService delivers push notifications over FCM. It consumes due
// reminder events from the broker and fans them out to the owner's devices.
type NotificationService struct {
	db            *database.Database
	deviceService DeviceServiceInterface
	client        *resty.Client
	serverKey     string
	endpoint      string
	consumer      *broker.Consumer
}

func NewNotificationService(db *database.Database, deviceService DeviceServiceInterface, serverKey string) *NotificationService {
	client := resty.New().
		SetTimeout(10 * time.Second).
		SetRetryCount(2)

	return &NotificationService{
		db:            db,
		deviceService: deviceService,
		client:        client,
		serverKey:     serverKey,
		endpoint:      defaultFCMEndpoint,
	}
}

// SetEndpoint overrides the FCM endpoint. Used by tests.
func (s *NotificationService) SetEndpoint(url string) {
	s.endpoint = url
}

func (s *NotificationService) Start(natsURL string) {
	consumer, err := broker.InitConsumer(natsURL, []string{broker.ReminderEventsSubject}, "notification-service")
	if err != nil {
		log.Printf("Failed to initialize reminder consumer: %v", err)
		log.Println("Push notifications for reminders are disabled")
		return
	}
	s.consumer = consumer
	go s.consumeReminders()
}

func (s *NotificationService) Stop() {
	if s.consumer != nil {
		s.consumer.Close()
	}
}

func (s *NotificationService) consumeReminders() {
	for msg := range s.consumer.Messages() {
		var event models.ReminderEvent
		if err := event.FromJSON(msg.Data); err != nil {
			log.Printf("Failed to unmarshal reminder event: %v", err)
			continue
		}

		userID, err := uuid.Parse(event.UserID)
		if err != nil {
			log.Printf("Reminder event carries invalid user id %q: %v", event.UserID, err)
			continue
		}

		tokens, err := s.deviceService.PushTokens(s.db, userID, "")
		if err != nil {
			log.Printf("Failed to load push tokens for user %s: %v", event.UserID, err)
			continue
		}
		if len(tokens) == 0 {
			continue
		}

		data := map[string]string{
			"reminder_id":    event.ReminderID,
			"client_note_id": strconv.FormatInt(event.ClientNoteID, 10),
		}
		if err := s.SendPush(tokens, event.Title, event.Body, data); err != nil {
			log.Printf("Failed to send reminder push for user %s: %v", event.UserID, err)
		}
	}
}

func (s *NotificationService) SendPush(tokens []string, title, body string, data map[string]string) error {
	if s.serverKey == "" {
		log.Println("FCM server key not configured, skipping push notification")
		return nil
	}
	if len(tokens) == 0 {
		return nil
	}

	payload := fcmRequest{
		RegistrationIDs: tokens,
		Notification:    fcmNotification{Title: title, Body: body},
		Data:            data,
	}

	resp, err := s.client.R().
		SetHeader("Authorization", "key="+s.serverKey).
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		Post(s.endpoint)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("fcm returned status %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}

var NotificationServiceInstance NotificationServiceInterface
