package models

import (
	"errors"
	"fmt"
)

var (
	ErrNoProducts        = errors.New("no products found")
	ErrSyncInProgress    = errors.New("sync already in progress")
	ErrUserCancelled     = errors.New("sync stopped by user")
	ErrUnknownConnection = errors.New("unknown connection")
	ErrNotFound          = errors.New("not found")
)

// ConfigurationError marks a connection that cannot be used at all.
type ConfigurationError struct {
	ConnectionID string
	Field        string
	Reason       string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("connection %q: invalid %s: %s", e.ConnectionID, e.Field, e.Reason)
}

// ValidationError marks a fetched record missing a mandatory field.
type ValidationError struct {
	RemoteID string
	Field    string
}

func (e *ValidationError) Error() string {
	if e.RemoteID == "" {
		return fmt.Sprintf("remote product is missing %s", e.Field)
	}
	return fmt.Sprintf("remote product %s is missing %s", e.RemoteID, e.Field)
}

// StorageError wraps a failure of the local store.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
