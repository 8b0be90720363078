package storage

import "errors"

var (
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrRemoteWriteFailed  = errors.New("remote write failed")
	ErrNoDocument         = errors.New("no document")
	ErrMalformedDocument  = errors.New("malformed document")
	ErrEntryNotFound      = errors.New("directory entry not found")
)
