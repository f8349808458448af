package addin

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrHostUnavailable means the direct transport's probe found no API
	// object. The probe is retried on the next call.
	ErrHostUnavailable = errors.New("host API object is not available")

	// ErrMethodNotFound means the resolved API object has no such method.
	ErrMethodNotFound = errors.New("host API method not found")

	errMissingChannel = errors.New("environment has no message channel")
)

// HostError carries the detail payload of a host-reported failure, i.e. a
// message-transport response envelope with success set to false.
type HostError struct {
	Detail any
}

func (e *HostError) Error() string {
	return fmt.Sprintf("host reported failure: %v", e.Detail)
}
