package gateway

import (
	"errors"
	"net/http"
)

var (
	// ErrStoreNotBound means the gateway was built without a store.
	ErrStoreNotBound = errors.New("store not bound")

	// ErrInvalidToken covers both missing and wrong tokens. The response
	// says nothing more.
	ErrInvalidToken = errors.New("invalid token")

	ErrMissingFile     = errors.New("no file uploaded")
	ErrReservedKey     = errors.New("reserved key")
	ErrUploadTooLarge  = errors.New("upload too large")
	ErrMalformedUpload = errors.New("malformed upload")
)

// StorageError wraps a failure of the underlying store. Its message is the
// store's own.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return e.Err.Error()
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// statusFor maps an error to the response status. Store failures are the
// only 5xx.
func statusFor(err error) int {
	var serr *StorageError
	switch {
	case errors.As(err, &serr):
		return http.StatusInternalServerError
	case errors.Is(err, ErrUploadTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrStoreNotBound),
		errors.Is(err, ErrInvalidToken),
		errors.Is(err, ErrMissingFile),
		errors.Is(err, ErrReservedKey),
		errors.Is(err, ErrMalformedUpload):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
