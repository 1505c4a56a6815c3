package domain

import "errors"

var (
	ErrInvalidURL         = errors.New("invalid url")
	ErrInvalidFormat      = errors.New("invalid format")
	ErrAlreadyInProgress  = errors.New("a download is already in progress")
	ErrRecordNotFound     = errors.New("history record not found")
	ErrPersistenceCorrupt = errors.New("persisted history is corrupt")
	ErrShuttingDown       = errors.New("downloader is shutting down")
)
