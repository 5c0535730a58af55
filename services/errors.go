package services

import "errors"

var (
	// ErrNotAuthenticated is returned when an operation needs an owner but none was given
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrOrderNotFound is returned when an order does not exist or is not owned by the caller
	ErrOrderNotFound = errors.New("custom order not found")
	// ErrUploadFailed is returned when an image could not be stored
	ErrUploadFailed = errors.New("image upload failed")
	// ErrUserSyncFailed is returned when the owner record could not be ensured
	ErrUserSyncFailed = errors.New("user sync failed")
	// ErrSaveFailed is returned when the order row could not be inserted
	ErrSaveFailed = errors.New("custom order save failed")
	// ErrObjectExists is returned when an upload would overwrite an existing object
	ErrObjectExists = errors.New("object already exists")
)
