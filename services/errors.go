package services

import "errors"

// Common errors
var (
	ErrNotFound             = errors.New("resource not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrNoteNotFound         = errors.New("note not found")
	ErrFolderNotFound       = errors.New("folder not found")
	ErrDeviceNotFound       = errors.New("device not found")
	ErrReminderNotFound     = errors.New("reminder not found")
	ErrKeyNotFound          = errors.New("encryption key not found")
	ErrInvalidInput         = errors.New("invalid input")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrInvalidToken         = errors.New("invalid token")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrInternal             = errors.New("internal server error")
	ErrResourceExists       = errors.New("resource already exists")
	ErrValidation           = errors.New("validation error")
	ErrQuotaExceeded        = errors.New("note limit reached")
	ErrIdentityGone         = errors.New("note identity was permanently deleted")
	ErrStorageFailure       = errors.New("storage failure")
	ErrPurchaseVerification = errors.New("purchase verification failed")
	ErrWebSocketConnection  = errors.New("websocket connection error")
)
