package services

import (
	"errors"

	"pinpoint-notes/pinpoint/database"
	"pinpoint-notes/pinpoint/models"
	"pinpoint-notes/pinpoint/utils/clock"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type FolderServiceInterface interface {
	UpsertFolder(db *database.Database, userID uuid.UUID, clientUUID, title string) (models.Folder, error)
	ListFolders(db *database.Database, userID uuid.UUID) ([]models.Folder, error)
	DeleteFolder(db *database.Database, userID uuid.UUID, clientUUID string) error
}

type FolderService struct {
	clock clock.Clock
}

func NewFolderService(clk clock.Clock) *FolderService {
	return &FolderService{clock: clk}
}

// UpsertFolder creates the folder or renames it if the client id is already
// known. Devices derive the same client id for the same folder, so two
// devices pushing the folder concurrently converge on one row.
func (s *FolderService) UpsertFolder(db *database.Database, userID uuid.UUID, clientUUID, title string) (models.Folder, error) {
	if clientUUID == "" || title == "" {
		return models.Folder{}, ErrInvalidInput
	}

	now := s.clock.Now()

	var folder models.Folder
	err := db.DB.Where("user_id = ? AND client_uuid = ?", userID, clientUUID).First(&folder).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		folder = models.Folder{
			UserID:     userID,
			ClientUUID: clientUUID,
			Title:      title,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := db.DB.Create(&folder).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return s.UpsertFolder(db, userID, clientUUID, title)
			}
			return models.Folder{}, err
		}
		return folder, nil
	}
	if err != nil {
		return models.Folder{}, err
	}

	if folder.Title == title {
		return folder, nil
	}

	folder.Title = title
	folder.UpdatedAt = now
	if err := db.DB.Model(&folder).Updates(map[string]interface{}{
		"title":      title,
		"updated_at": now,
	}).Error; err != nil {
		return models.Folder{}, err
	}

	return folder, nil
}

func (s *FolderService) ListFolders(db *database.Database, userID uuid.UUID) ([]models.Folder, error) {
	var folders []models.Folder
	if err := db.DB.Where("user_id = ?", userID).Order("title ASC").Find(&folders).Error; err != nil {
		return nil, err
	}
	return folders, nil
}

func (s *FolderService) DeleteFolder(db *database.Database, userID uuid.UUID, clientUUID string) error {
	result := db.DB.Where("user_id = ? AND client_uuid = ?", userID, clientUUID).Delete(&models.Folder{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrFolderNotFound
	}
	return nil
}

var FolderServiceInstance FolderServiceInterface
