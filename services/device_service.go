package services

import (
	"errors"

	"pinpoint-notes/pinpoint/database"
	"pinpoint-notes/pinpoint/models"
	"pinpoint-notes/pinpoint/utils/clock"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DeviceServiceInterface interface {
	RegisterDevice(db *database.Database, userID uuid.UUID, deviceID, platform, pushToken string) (models.Device, error)
	TouchLastSeen(db *database.Database, userID uuid.UUID, deviceID string) error
	ListDevices(db *database.Database, userID uuid.UUID) ([]models.Device, error)
	RemoveDevice(db *database.Database, userID uuid.UUID, deviceID string) error
	PushTokens(db *database.Database, userID uuid.UUID, excludeDeviceID string) ([]string, error)
}

type DeviceService struct {
	clock clock.Clock
}

func NewDeviceService(clk clock.Clock) *DeviceService {
	return &DeviceService{clock: clk}
}

// RegisterDevice upserts the (user, device) row. Clients call this on every
// app start, so an existing row just gets its token and last seen refreshed.
func (s *DeviceService) RegisterDevice(db *database.Database, userID uuid.UUID, deviceID, platform, pushToken string) (models.Device, error) {
	now := s.clock.Now()

	var device models.Device
	err := db.DB.Where("user_id = ? AND device_id = ?", userID, deviceID).First(&device).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		device = models.Device{
			UserID:     userID,
			DeviceID:   deviceID,
			Platform:   platform,
			PushToken:  pushToken,
			LastSeenAt: &now,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if device.Platform == "" {
			device.Platform = "android"
		}
		if err := db.DB.Create(&device).Error; err != nil {
			// Lost a race with another request from the same install
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return s.RegisterDevice(db, userID, deviceID, platform, pushToken)
			}
			return models.Device{}, err
		}
		return device, nil
	}
	if err != nil {
		return models.Device{}, err
	}

	changes := map[string]interface{}{
		"last_seen_at": now,
		"updated_at":   now,
	}
	if pushToken != "" {
		changes["push_token"] = pushToken
	}
	if platform != "" {
		changes["platform"] = platform
	}
	if err := db.DB.Model(&device).Updates(changes).Error; err != nil {
		return models.Device{}, err
	}

	return device, nil
}

func (s *DeviceService) TouchLastSeen(db *database.Database, userID uuid.UUID, deviceID string) error {
	now := s.clock.Now()
	return db.DB.Model(&models.Device{}).
		Where("user_id = ? AND device_id = ?", userID, deviceID).
		Updates(map[string]interface{}{"last_seen_at": now, "updated_at": now}).Error
}

func (s *DeviceService) ListDevices(db *database.Database, userID uuid.UUID) ([]models.Device, error) {
	var devices []models.Device
	if err := db.DB.Where("user_id = ?", userID).Order("created_at ASC").Find(&devices).Error; err != nil {
		return nil, err
	}
	return devices, nil
}

func (s *DeviceService) RemoveDevice(db *database.Database, userID uuid.UUID, deviceID string) error {
	result := db.DB.Where("user_id = ? AND device_id = ?", userID, deviceID).Delete(&models.Device{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrDeviceNotFound
	}
	return nil
}

// PushTokens returns the notification tokens of the user's other devices.
// The originating device is excluded so a sync does not notify itself.
func (s *DeviceService) PushTokens(db *database.Database, userID uuid.UUID, excludeDeviceID string) ([]string, error) {
	var devices []models.Device
	query := db.DB.Where("user_id = ? AND push_token <> ''", userID)
	if excludeDeviceID != "" {
		query = query.Where("device_id <> ?", excludeDeviceID)
	}
	if err := query.Find(&devices).Error; err != nil {
		return nil, err
	}

	tokens := make([]string, 0, len(devices))
	for _, device := range devices {
		tokens = append(tokens, device.PushToken)
	}
	return tokens, nil
}

var DeviceServiceInstance DeviceServiceInterface
