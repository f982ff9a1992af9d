package usecase

import "errors"

var (
	ErrPostNotFound        = errors.New("post not found")
	ErrRetryInProgress     = errors.New("a retry for this platform is already in progress")
	ErrUnsupportedPlatform = errors.New("unsupported platform")
	ErrPublishFailed       = errors.New("publish failed")
	ErrInvalidSource       = errors.New("invalid source collection")
	ErrInvalidPost         = errors.New("invalid post")
	ErrAlreadyPublished    = errors.New("post is already published")
)
