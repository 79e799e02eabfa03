package services

import (
	"errors"

	"pinpoint-notes/pinpoint/database"
	"pinpoint-notes/pinpoint/models"
	"pinpoint-notes/pinpoint/utils/clock"

	"gorm.io/gorm"
)

type UserServiceInterface interface {
	Register(db *database.Database, email, password, displayName string) (models.User, error)
	GetUserById(db *database.Database, id string) (models.User, error)
	UpdateUser(db *database.Database, id string, update UserUpdate) (models.User, error)
	DeleteUser(db *database.Database, id string) error
}

// UserUpdate carries the self-service profile fields a user may change.
type UserUpdate struct {
	DisplayName *string `json:"display_name"`
	Password    *string `json:"password"`
}

type UserService struct {
	authService AuthServiceInterface
	clock       clock.Clock
}

func NewUserService(authService AuthServiceInterface, clk clock.Clock) *UserService {
	return &UserService{authService: authService, clock: clk}
}

func (s *UserService) Register(db *database.Database, email, password, displayName string) (models.User, error) {
	hash, err := s.authService.HashPassword(password)
	if err != nil {
		return models.User{}, err
	}

	now := s.clock.Now()
	user := models.User{
		Email:            email,
		PasswordHash:     hash,
		DisplayName:      displayName,
		IsActive:         true,
		SubscriptionTier: models.TierFree,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	tx := db.DB.Begin()
	if tx.Error != nil {
		return models.User{}, tx.Error
	}

	if err := tx.Create(&user).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return models.User{}, ErrResourceExists
		}
		return models.User{}, err
	}

	// Every account carries a usage row so quota checks never miss
	tracking := models.UsageTracking{
		UserID:      user.ID,
		PeriodStart: now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := tx.Create(&tracking).Error; err != nil {
		tx.Rollback()
		return models.User{}, err
	}

	if err := tx.Commit().Error; err != nil {
		tx.Rollback()
		return models.User{}, err
	}

	return user, nil
}

func (s *UserService) GetUserById(db *database.Database, id string) (models.User, error) {
	var user models.User
	if err := db.DB.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

func (s *UserService) UpdateUser(db *database.Database, id string, update UserUpdate) (models.User, error) {
	tx := db.DB.Begin()
	if tx.Error != nil {
		return models.User{}, tx.Error
	}

	var user models.User
	if err := tx.First(&user, "id = ?", id).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}

	changes := map[string]interface{}{"updated_at": s.clock.Now()}
	if update.DisplayName != nil {
		changes["display_name"] = *update.DisplayName
	}
	if update.Password != nil {
		hash, err := s.authService.HashPassword(*update.Password)
		if err != nil {
			tx.Rollback()
			return models.User{}, err
		}
		changes["password_hash"] = hash
	}

	if err := tx.Model(&user).Updates(changes).Error; err != nil {
		tx.Rollback()
		return models.User{}, err
	}

	if err := tx.Commit().Error; err != nil {
		tx.Rollback()
		return models.User{}, err
	}

	return user, nil
}

// DeleteUser removes the account and everything attached to it. Notes and
// tombstones go too, so this is a full wipe rather than a deactivation.
func (s *UserService) DeleteUser(db *database.Database, id string) error {
	tx := db.DB.Begin()
	if tx.Error != nil {
		return tx.Error
	}

	var user models.User
	if err := tx.First(&user, "id = ?", id).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	owned := []interface{}{
		&models.EncryptedNote{},
		&models.NoteDeletion{},
		&models.SyncEvent{},
		&models.Device{},
		&models.Folder{},
		&models.Reminder{},
		&models.EncryptionKey{},
		&models.UsageTracking{},
		&models.SubscriptionEvent{},
	}
	for _, model := range owned {
		if err := tx.Where("user_id = ?", user.ID).Delete(model).Error; err != nil {
			tx.Rollback()
			return err
		}
	}

	if err := tx.Delete(&user).Error; err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}

var UserServiceInstance UserServiceInterface
