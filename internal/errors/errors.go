// Package errors provides the client's error taxonomy. Each kind maps onto a
// gRPC canonical code so notices carry the same vocabulary as the backend.
package errors

import (
	stderrors "errors"
	"fmt"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Domain tags every ErrorInfo detail produced by this client.
const Domain = "speaksee.client"

// Kind classifies where a failure came from.
type Kind string

const (
	KindDevice   Kind = "DEVICE"   // no input device or permission denied
	KindChannel  Kind = "CHANNEL"  // duplex channel closed or unavailable
	KindProtocol Kind = "PROTOCOL" // malformed control message
	KindServer   Kind = "SERVER"   // explicit error message from the backend
)

// Sentinel causes for device failures.
var (
	ErrNoDevice         = stderrors.New("no audio input device")
	ErrPermissionDenied = stderrors.New("microphone permission denied")
	ErrChannelClosed    = stderrors.New("channel not open")
)

var grpcCodeMap = map[Kind]codes.Code{
	KindDevice:   codes.FailedPrecondition,
	KindChannel:  codes.Unavailable,
	KindProtocol: codes.InvalidArgument,
	KindServer:   codes.Internal,
}

// AppError is the base error type with a kind and metadata.
type AppError struct {
	Kind     Kind
	Message  string
	Metadata map[string]string
	Cause    error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	s := fmt.Sprintf("[%s] %s", e.Kind, e.Message)
	if len(e.Metadata) > 0 {
		s += fmt.Sprintf(" %v", e.Metadata)
	}
	if e.Cause != nil {
		s += fmt.Sprintf(" caused by: %v", e.Cause)
	}
	return s
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *AppError) Unwrap() error { return e.Cause }

// GRPCCode returns the canonical code for the error's kind.
func (e *AppError) GRPCCode() codes.Code {
	if e.Kind == KindDevice && stderrors.Is(e.Cause, ErrPermissionDenied) {
		return codes.PermissionDenied
	}
	if c, ok := grpcCodeMap[e.Kind]; ok {
		return c
	}
	return codes.Unknown
}

// ToProto converts to an ErrorInfo detail.
func (e *AppError) ToProto() *errdetails.ErrorInfo {
	info := &errdetails.ErrorInfo{Reason: string(e.Kind), Domain: Domain}
	if len(e.Metadata) > 0 {
		info.Metadata = e.Metadata
	}
	return info
}

// GRPCStatus returns a status with the ErrorInfo attached.
func (e *AppError) GRPCStatus() *status.Status {
	st := status.New(e.GRPCCode(), e.Message)
	if withDetail, err := st.WithDetails(e.ToProto()); err == nil {
		return withDetail
	}
	return st
}

// New creates an AppError of the given kind.
func New(kind Kind, msg string) *AppError {
	return &AppError{Kind: kind, Message: msg}
}

// Wrap wraps an existing error with an AppError.
func Wrap(err error, kind Kind, msg string) *AppError {
	return &AppError{Kind: kind, Message: msg, Cause: err}
}

// Wrapf wraps an existing error with a formatted message.
func Wrapf(err error, kind Kind, format string, args ...any) *AppError {
	return &AppError{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: err}
}

// Device wraps a device failure.
func Device(err error) *AppError { return Wrap(err, KindDevice, "microphone unavailable") }

// Channel wraps a channel failure.
func Channel(err error) *AppError { return Wrap(err, KindChannel, "channel unavailable") }

// Protocol wraps a decode failure.
func Protocol(err error, msgType string) *AppError {
	return Wrap(err, KindProtocol, "malformed control message").WithMetadata("type", msgType)
}

// Server records an explicit error message from the backend.
func Server(message, detail string) *AppError {
	e := New(KindServer, message)
	if detail != "" {
		e.WithMetadata("detail", detail)
	}
	return e
}

// WithMetadata adds metadata to an AppError.
func (e *AppError) WithMetadata(key, value string) *AppError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]string)
	}
	e.Metadata[key] = value
	return e
}

// KindOf returns the kind of the first AppError in err's chain.
func KindOf(err error) (Kind, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Kind, true
	}
	return "", false
}

// IsKind checks if an error has a specific kind.
func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// IsRetryable reports whether the failure is retried automatically. Only
// channel failures are; everything else waits for an explicit user retry.
func IsRetryable(err error) bool {
	return IsKind(err, KindChannel)
}

// FromStatus rebuilds an AppError from a status carrying an ErrorInfo.
func FromStatus(st *status.Status) *AppError {
	for _, detail := range st.Details() {
		if info, ok := detail.(*errdetails.ErrorInfo); ok && info.Domain == Domain {
			return &AppError{Kind: Kind(info.Reason), Message: st.Message(), Metadata: info.Metadata}
		}
	}
	return &AppError{Kind: kindFromCode(st.Code()), Message: st.Message()}
}

func kindFromCode(c codes.Code) Kind {
	switch c {
	case codes.FailedPrecondition, codes.PermissionDenied:
		return KindDevice
	case codes.Unavailable:
		return KindChannel
	case codes.InvalidArgument:
		return KindProtocol
	default:
		return KindServer
	}
}
