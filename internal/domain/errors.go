package domain

import "errors"

var (
	// ErrUnsupportedRecord signals a record variant with no document mapping.
	// This is a programming error: fix it by adding a mapping, not by catching.
	ErrUnsupportedRecord = errors.New("unsupported record type")
	// ErrRecordNotFound signals a record that can no longer be loaded.
	ErrRecordNotFound = errors.New("record not found")
	// ErrEngineUnavailable signals that no search engine client is configured.
	ErrEngineUnavailable = errors.New("search engine unavailable")
	// ErrIndexNotFound signals an operation against a missing index.
	ErrIndexNotFound = errors.New("index not found")
)
