package fcm

import (
	"context"
	"errors"
	"net"
	"net/http"

	"firebase.google.com/go/v4/errorutils"
	"firebase.google.com/go/v4/messaging"
)

// Outcome says what a failed send means for the caller
type Outcome int

const (
	// Transient failures are worth retrying
	Transient Outcome = iota
	// Terminal failures will not improve on retry
	Terminal
	// DeadToken is terminal and the token should be deactivated
	DeadToken
)

func (o Outcome) String() string {
	switch o {
	case Transient:
		return "transient"
	case Terminal:
		return "terminal"
	case DeadToken:
		return "dead_token"
	}
	return "unknown"
}

// statusCoder is implemented by errors that know their HTTP status
type statusCoder interface {
	HTTPStatus() int
}

// Classify sorts a gateway error into retry, give up, or give up and
// deactivate the token.
func Classify(err error) Outcome {
	if errors.Is(err, context.DeadlineExceeded) || errorutils.IsDeadlineExceeded(err) {
		return Transient
	}
	if messaging.IsUnregistered(err) || messaging.IsSenderIDMismatch(err) {
		return DeadToken
	}
	if errorutils.IsUnavailable(err) || errorutils.IsInternal(err) {
		return Transient
	}
	if errorutils.IsInvalidArgument(err) || errorutils.IsNotFound(err) {
		return DeadToken
	}

	if status := statusOf(err); status != 0 {
		switch {
		case status == http.StatusBadRequest, status == http.StatusNotFound, status == http.StatusGone:
			return DeadToken
		case status >= http.StatusInternalServerError:
			return Transient
		case status >= http.StatusBadRequest:
			return Terminal
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return Transient
	}
	return Terminal
}

func statusOf(err error) int {
	var coder statusCoder
	if errors.As(err, &coder) {
		return coder.HTTPStatus()
	}
	if resp := errorutils.HTTPResponse(err); resp != nil {
		return resp.StatusCode
	}
	return 0
}
