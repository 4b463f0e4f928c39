package hwdecoder

import (
	"errors"
	"fmt"
)

type ErrorKind uint

const (
	ErrorKindUndefined = ErrorKind(iota)
	ErrorKindUnsupportedBackend
	ErrorKindOpen
	ErrorKindProbe
	ErrorKindNoVideoStream
	ErrorKindNoHardwareConfig
	ErrorKindDeviceInit
	ErrorKindCodecOpen
	ErrorKindSubmit
	ErrorKindDecode
	ErrorKindTransfer
	ErrorKindAlloc
	ErrorKindPack
	ErrorKindCodecParameters
	ErrorKindSink
	ErrorKindCanceled
	EndOfErrorKind
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorKindUndefined:
		return "<undefined>"
	case ErrorKindUnsupportedBackend:
		return "UnsupportedBackend"
	case ErrorKindOpen:
		return "OpenError"
	case ErrorKindProbe:
		return "ProbeError"
	case ErrorKindNoVideoStream:
		return "NoVideoStream"
	case ErrorKindNoHardwareConfig:
		return "NoHardwareConfig"
	case ErrorKindDeviceInit:
		return "DeviceInitError"
	case ErrorKindCodecOpen:
		return "CodecOpenError"
	case ErrorKindSubmit:
		return "SubmitError"
	case ErrorKindDecode:
		return "DecodeError"
	case ErrorKindTransfer:
		return "TransferError"
	case ErrorKindAlloc:
		return "AllocError"
	case ErrorKindPack:
		return "PackError"
	case ErrorKindCodecParameters:
		return "CodecParametersError"
	case ErrorKindSink:
		return "SinkError"
	case ErrorKindCanceled:
		return "Canceled"
	}
	return fmt.Sprintf("unexpected_error_kind_%d", uint(k))
}

// Stage is the name of the pipeline stage the kind of error originates from.
func (k ErrorKind) Stage() string {
	switch k {
	case ErrorKindUnsupportedBackend:
		return "device probing"
	case ErrorKindOpen, ErrorKindProbe, ErrorKindNoVideoStream:
		return "stream opening"
	case ErrorKindNoHardwareConfig, ErrorKindDeviceInit, ErrorKindCodecOpen, ErrorKindCodecParameters:
		return "decoder initialization"
	case ErrorKindSubmit, ErrorKindDecode, ErrorKindTransfer, ErrorKindAlloc, ErrorKindPack:
		return "decoding"
	case ErrorKindSink:
		return "frame output"
	case ErrorKindCanceled:
		return "cancellation"
	}
	return "unknown stage"
}

// ExitCode is the process exit status used by the command line tool.
func (k ErrorKind) ExitCode() int {
	switch k {
	case ErrorKindCanceled:
		return 130
	case ErrorKindUndefined:
		return 1
	}
	if k >= EndOfErrorKind {
		return 1
	}
	return int(k) + 1
}

type Error struct {
	Kind ErrorKind
	Err  error
}

var (
	ErrUnsupportedBackend = &Error{Kind: ErrorKindUnsupportedBackend}
	ErrOpen               = &Error{Kind: ErrorKindOpen}
	ErrProbe              = &Error{Kind: ErrorKindProbe}
	ErrNoVideoStream      = &Error{Kind: ErrorKindNoVideoStream}
	ErrNoHardwareConfig   = &Error{Kind: ErrorKindNoHardwareConfig}
	ErrDeviceInit         = &Error{Kind: ErrorKindDeviceInit}
	ErrCodecOpen          = &Error{Kind: ErrorKindCodecOpen}
	ErrSubmit             = &Error{Kind: ErrorKindSubmit}
	ErrDecode             = &Error{Kind: ErrorKindDecode}
	ErrTransfer           = &Error{Kind: ErrorKindTransfer}
	ErrAlloc              = &Error{Kind: ErrorKindAlloc}
	ErrPack               = &Error{Kind: ErrorKindPack}
	ErrCodecParameters    = &Error{Kind: ErrorKindCodecParameters}
	ErrSink               = &Error{Kind: ErrorKindSink}
	ErrCanceled           = &Error{Kind: ErrorKindCanceled}
)

func NewError(kind ErrorKind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind.Stage(), e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind.Stage(), e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of the first *Error in the chain of err.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ErrorKindUndefined
}

// ExitCode returns the process exit status for err (0 for nil).
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return KindOf(err).ExitCode()
}
