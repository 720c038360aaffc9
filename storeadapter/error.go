package storeadapter

import "errors"

type StoreErrorReason string

const (
	StoreErrorKeyNotFound     StoreErrorReason = "KeyNotFound"
	StoreErrorIsDirectory     StoreErrorReason = "IsDirectory"
	StoreErrorIsNotDirectory  StoreErrorReason = "IsNotDirectory"
	StoreErrorTimeout         StoreErrorReason = "Timeout Reaching Store"
	StoreErrorAuthFailed      StoreErrorReason = "Store Authentication Failed"
	StoreErrorInvalidNodeName StoreErrorReason = "InvalidNodeName"
	StoreErrorTooManyNodes    StoreErrorReason = "Too Many Nodes For One Write"
)

var (
	ErrorKeyNotFound        = NewStoreError(StoreErrorKeyNotFound)
	ErrorNodeIsDirectory    = NewStoreError(StoreErrorIsDirectory)
	ErrorNodeIsNotDirectory = NewStoreError(StoreErrorIsNotDirectory)
	ErrorTimeout            = NewStoreError(StoreErrorTimeout)
	ErrorAuthFailed         = NewStoreError(StoreErrorAuthFailed)
	ErrorInvalidNodeName    = NewStoreError(StoreErrorInvalidNodeName)
	ErrorTooManyNodes       = NewStoreError(StoreErrorTooManyNodes)
)

type StoreError struct {
	reason StoreErrorReason
}

func NewStoreError(reason StoreErrorReason) StoreError {
	return StoreError{reason: reason}
}

func (err StoreError) Error() string {
	return string(err.reason)
}

func (err StoreError) Reason() StoreErrorReason {
	return err.reason
}

func IsKeyNotFoundError(err error) bool {
	return hasReason(err, StoreErrorKeyNotFound)
}

func IsDirectoryError(err error) bool {
	return hasReason(err, StoreErrorIsDirectory)
}

func IsNotDirectoryError(err error) bool {
	return hasReason(err, StoreErrorIsNotDirectory)
}

// IsTooManyNodesError reports a directory too large for the backend to
// write in one atomic request.
func IsTooManyNodesError(err error) bool {
	return hasReason(err, StoreErrorTooManyNodes)
}

func IsTimeoutError(err error) bool {
	return hasReason(err, StoreErrorTimeout)
}

// IsUnreachableError reports errors that mean the store could not be
// talked to at all, as opposed to errors about the data in it.
func IsUnreachableError(err error) bool {
	return hasReason(err, StoreErrorTimeout) || hasReason(err, StoreErrorAuthFailed)
}

func hasReason(err error, reason StoreErrorReason) bool {
	var storeErr StoreError
	if !errors.As(err, &storeErr) {
		return false
	}
	return storeErr.reason == reason
}
