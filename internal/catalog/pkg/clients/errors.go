package clients

import (
	"errors"
	"fmt"
)

const bodyPrefixLimit = 512

var ErrBatchTooLarge = errors.New("batch exceeds remote capacity")

// TransportError is a failed call to the remote catalog: no response, a non-2xx
// status, or a body that is not the expected JSON. Status is 0 when no response arrived.
type TransportError struct {
	Op     string
	URL    string
	Status int
	Body   string
	Err    error
}

func (e *TransportError) Error() string {
	switch {
	case e.Status == 0:
		return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s %s: status %d: %v: %s", e.Op, e.URL, e.Status, e.Err, e.Body)
	default:
		return fmt.Sprintf("%s %s: status %d: %s", e.Op, e.URL, e.Status, e.Body)
	}
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func bodyPrefix(body []byte) string {
	if len(body) > bodyPrefixLimit {
		return string(body[:bodyPrefixLimit])
	}
	return string(body)
}

// IsNotFound reports whether err is a TransportError with status 404.
func IsNotFound(err error) bool {
	var te *TransportError
	return errors.As(err, &te) && te.Status == 404
}
