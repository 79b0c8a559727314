package models

import "errors"

var (
	// ErrValidation marks input rejected before any provider request is made
	ErrValidation = errors.New("validation failed")
	// ErrGenerationFailed means the provider returned no usable result
	ErrGenerationFailed = errors.New("generation failed")
	// ErrStorageFull means the library write was rejected by the storage medium
	ErrStorageFull = errors.New("could not save image, storage might be full")
	// ErrMissingResult means a video job finished without a result locator
	ErrMissingResult = errors.New("video generation completed, but no video URI was found")
	// ErrCredentialMissing means no usable API key is selected
	ErrCredentialMissing = errors.New("API key not found")
	// ErrNetworkFailure wraps transport-level failures
	ErrNetworkFailure = errors.New("network failure")
	// ErrBusy is returned when a screen already has a request in flight
	ErrBusy = errors.New("a request is already in progress")
	// ErrNotFound is returned for unknown library ids
	ErrNotFound = errors.New("not found")
)
