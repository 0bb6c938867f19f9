package datastore

import "errors"

var (
	// ErrStoreUnavailable means the database could not be opened or initialized.
	ErrStoreUnavailable = errors.New("snapshot store unavailable")
	// ErrStoreClosed is returned for operations on a closed store.
	ErrStoreClosed = errors.New("snapshot store closed")
)
