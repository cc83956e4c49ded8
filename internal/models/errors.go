package models

import "errors"

var (
	// ErrUnsupportedFormat is returned when an uploaded file name carries
	// a suffix outside the supported set (csv, xlsx, xls, json).
	ErrUnsupportedFormat = errors.New("unsupported file format (allowed: csv, xlsx, xls, json)")

	// ErrMalformedInput is returned when a file with a supported suffix
	// cannot be decoded into records.
	ErrMalformedInput = errors.New("malformed input data")

	// ErrDatasetNotFound covers lookups by id and by address.
	ErrDatasetNotFound = errors.New("dataset not found")

	// ErrDuplicateAddress is surfaced by the storage layer when an insert
	// hits the unique address constraint. The service retries allocation.
	ErrDuplicateAddress = errors.New("dataset address already taken")

	// ErrAddressExhausted is returned after the allocation retry budget is
	// spent. Distinct from a generic store failure so callers can tell
	// "address space exhausted" apart from "store down".
	ErrAddressExhausted = errors.New("could not allocate a unique dataset address")
)
