package gateway

import (
	"errors"

	"github.com/pnerg/restful-zookeeper-properties/store"
	"github.com/pnerg/restful-zookeeper-properties/storeadapter"
)

var (
	ErrMalformedInput = errors.New("malformed input")

	// ErrWriteConflict is reserved for a conditional merge. Merges are
	// currently last-writer-wins and never return it.
	ErrWriteConflict = errors.New("write conflict")
)

// IsConnectivityFailure reports whether err means the store could not be
// reached, either at connect time or mid-operation.
func IsConnectivityFailure(err error) bool {
	var connectivityErr store.ConnectivityError
	if errors.As(err, &connectivityErr) {
		return true
	}
	return storeadapter.IsUnreachableError(err)
}

// IsSetTooLarge reports a set with more properties than the backend can
// write atomically.
func IsSetTooLarge(err error) bool {
	return storeadapter.IsTooManyNodesError(err)
}
