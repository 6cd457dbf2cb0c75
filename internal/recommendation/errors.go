package recommendation

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// FailureKind classifies why a remote fetch fell back.
type FailureKind string

const (
	KindTimeout       FailureKind = "timeout"
	KindConnection    FailureKind = "connection"
	KindHTTPStatus    FailureKind = "http_status"
	KindMalformedBody FailureKind = "malformed_body"
	KindEncode        FailureKind = "encode"
)

// TransportError describes a failed fetch. It never leaves the client as
// an error value; callers only see it through Notice.Cause.
type TransportError struct {
	Kind       FailureKind
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.Kind == KindHTTPStatus {
		return fmt.Sprintf("recommendation service returned status %d", e.StatusCode)
	}
	if e.Err == nil {
		return "recommendation " + string(e.Kind)
	}
	return fmt.Sprintf("recommendation %s: %v", e.Kind, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// NoticeMessage is shown whenever a fallback result is served.
const NoticeMessage = "We couldn't reach our recommendation service, so here is a starter routine based on your answers. Try regenerating in a moment."

// Notice is the user-facing signal that a fallback was served.
type Notice struct {
	Message    string          `json:"message"`
	Kind       FailureKind     `json:"kind"`
	StatusCode int             `json:"statusCode,omitempty"`
	Cause      *TransportError `json:"-"`
}

func newNotice(cause *TransportError) *Notice {
	return &Notice{
		Message:    NoticeMessage,
		Kind:       cause.Kind,
		StatusCode: cause.StatusCode,
		Cause:      cause,
	}
}

func classifyTransport(err error) FailureKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}
	return KindConnection
}
