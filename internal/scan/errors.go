package scan

import "errors"

var (
	// ErrNotScanning is returned when rows are requested outside a scan.
	ErrNotScanning = errors.New("scan: reader not initialized, call Begin first")

	// ErrReadOnly rejects any modification of the dataset.
	ErrReadOnly = errors.New("modify on foreign table is not supported")
)
