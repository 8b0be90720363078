package service

import "errors"

var (
	ErrDuplicateAsset       = errors.New("duplicate asset")
	ErrVideoNotFound        = errors.New("video not found")
	ErrArchiveUnavailable   = errors.New("archive unavailable")
	ErrMalformedReplacement = errors.New("malformed replacement document")

	ErrUsernameNotFound     = errors.New("username not found")
	ErrConfirmationRejected = errors.New("confirmation rejected")
	ErrSessionExpired       = errors.New("session expired")
	ErrSessionInactive      = errors.New("session inactive")
)
