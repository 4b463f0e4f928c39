package hwdecoder

import (
	"context"
	"errors"
	"io"
)

// ErrAgain is returned by DecoderContext.ReceiveFrame when the decoder needs more input.
var ErrAgain = errors.New("resource temporarily unavailable")

// Library is the multimedia library the decoding session delegates to.
type Library interface {
	FindHardwareDeviceType(name HardwareDeviceTypeName) HardwareDeviceType
	HardwareDeviceTypeName(HardwareDeviceType) HardwareDeviceTypeName
	PixelFormatName(PixelFormat) string

	OpenInput(ctx context.Context, url string, options DictionaryItems) (Input, error)
	AllocCodecContext(ctx context.Context, codec Codec) (DecoderContext, error)
	CreateHardwareDeviceContext(
		ctx context.Context,
		deviceType HardwareDeviceType,
		deviceName HardwareDeviceName,
		options DictionaryItems,
	) (HardwareDeviceContext, error)
	AllocPacket() (Packet, error)
	AllocFrame() (Frame, error)
}

type Input interface {
	io.Closer

	FindStreamInfo(ctx context.Context) error

	// FindBestStream returns the best scoring stream of the given type and its decoder.
	FindBestStream(ctx context.Context, mediaType MediaType) (Stream, Codec, error)

	// ReadPacket returns io.EOF at the end of the stream.
	ReadPacket(ctx context.Context, pkt Packet) error
}

type Stream interface {
	Index() int
	MediaType() MediaType
}

type Codec interface {
	Name() string
	HardwareConfigs() []HardwareConfig
}

type PixelFormatCallback func(offered []PixelFormat) PixelFormat

type DecoderContext interface {
	ApplyStreamParameters(stream Stream) error
	SetPixelFormatCallback(callback PixelFormatCallback)
	SetHardwareDeviceContext(hwDeviceCtx HardwareDeviceContext) error
	Open(ctx context.Context) error

	// SendPacket submits a packet; a nil packet flushes the decoder.
	SendPacket(ctx context.Context, pkt Packet) error

	// ReceiveFrame returns ErrAgain if more input is needed and io.EOF
	// if the decoder is fully drained.
	ReceiveFrame(ctx context.Context, frame Frame) error

	Free()
}

type HardwareDeviceContext interface {
	Free()
}

type Packet interface {
	StreamIndex() int
	Size() int
	Unref()
	Free()
}

type Frame interface {
	PixelFormat() PixelFormat
	Width() int
	Height() int
	Pts() int64
	SetPts(int64)
	TransferHardwareData(dst Frame) error
	ImageBufferSize(align int) (int, error)
	ImageCopyToBuffer(buf []byte, align int) (int, error)
	Unref()
	Free()
}

// FrameSink consumes fully decoded host-resident frames.
type FrameSink interface {
	io.Closer
	WriteFrame(ctx context.Context, frame *FrameRecord) error
}
