package services

import (
	"errors"

	"pinpoint-notes/pinpoint/database"
	"pinpoint-notes/pinpoint/models"
	"pinpoint-notes/pinpoint/utils/clock"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EncryptionKeyServiceInterface stores the user's wrapped master key so a
// fresh install can restore it after login. The key arrives already
// encrypted with a passphrase only the user knows; the server never sees
// plaintext key material.
type EncryptionKeyServiceInterface interface {
	PutKey(db *database.Database, userID uuid.UUID, keyData string) (models.EncryptionKey, error)
	GetKey(db *database.Database, userID uuid.UUID) (models.EncryptionKey, error)
}

type EncryptionKeyService struct {
	clock clock.Clock
}

func NewEncryptionKeyService(clk clock.Clock) *EncryptionKeyService {
	return &EncryptionKeyService{clock: clk}
}

func (s *EncryptionKeyService) PutKey(db *database.Database, userID uuid.UUID, keyData string) (models.EncryptionKey, error) {
	if keyData == "" {
		return models.EncryptionKey{}, ErrInvalidInput
	}

	now := s.clock.Now()

	var key models.EncryptionKey
	err := db.DB.Where("user_id = ?", userID).First(&key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		key = models.EncryptionKey{
			UserID:    userID,
			KeyData:   keyData,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := db.DB.Create(&key).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return s.PutKey(db, userID, keyData)
			}
			return models.EncryptionKey{}, err
		}
		return key, nil
	}
	if err != nil {
		return models.EncryptionKey{}, err
	}

	key.KeyData = keyData
	key.UpdatedAt = now
	if err := db.DB.Model(&key).Updates(map[string]interface{}{
		"key_data":   keyData,
		"updated_at": now,
	}).Error; err != nil {
		return models.EncryptionKey{}, err
	}

	return key, nil
}

func (s *EncryptionKeyService) GetKey(db *database.Database, userID uuid.UUID) (models.EncryptionKey, error) {
	var key models.EncryptionKey
	if err := db.DB.Where("user_id = ?", userID).First(&key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.EncryptionKey{}, ErrKeyNotFound
		}
		return models.EncryptionKey{}, err
	}
	return key, nil
}

var EncryptionKeyServiceInstance EncryptionKeyServiceInterface
