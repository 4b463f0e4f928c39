// Package session sequences the hardware decoding of one input: device
// probing, stream opening, decoder initialization and the decode loop.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/asticode/go-astikit"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/hashicorp/go-multierror"
	"github.com/xaionaro-go/hwdecoder"
)

type Session struct {
	Library hwdecoder.Library
	Config  hwdecoder.Config
	Sink    hwdecoder.FrameSink

	CommonsStatistics

	hardwareDeviceType    hwdecoder.HardwareDeviceType
	hardwarePixelFormat   hwdecoder.PixelFormat
	input                 hwdecoder.Input
	stream                hwdecoder.Stream
	codec                 hwdecoder.Codec
	decoderContext        hwdecoder.DecoderContext
	hardwareDeviceContext hwdecoder.HardwareDeviceContext
	packet                hwdecoder.Packet
	nextFrameIndex        uint64

	// closer releases the packet, the decoder context and the input (LIFO);
	// deviceCloser is closed after it, the decoder context holds its own reference.
	closer       *astikit.Closer
	deviceCloser *astikit.Closer
	closeOnce    sync.Once
	closeErr     error
}

// New validates the config; a nil sink drops the decoded frames after logging them.
func New(
	lib hwdecoder.Library,
	cfg hwdecoder.Config,
	sink hwdecoder.FrameSink,
) (*Session, error) {
	if lib == nil {
		return nil, fmt.Errorf("the library is not set")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &Session{
		Library:             lib,
		Config:              cfg,
		Sink:                sink,
		hardwareDeviceType:  hwdecoder.HardwareDeviceTypeNone,
		hardwarePixelFormat: hwdecoder.PixelFormatNone,
		closer:              astikit.NewCloser(),
		deviceCloser:        astikit.NewCloser(),
	}, nil
}

// Run decodes the whole input and releases every acquired resource before returning.
func (s *Session) Run(ctx context.Context) (_err error) {
	logger.Debugf(ctx, "Run")
	defer func() { logger.Debugf(ctx, "/Run: %v", _err) }()

	defer func() {
		if err := s.Close(ctx); err != nil {
			logger.Errorf(ctx, "unable to release the resources: %v", err)
		}
	}()

	if err := s.probeDevice(ctx); err != nil {
		return err
	}
	if err := s.openInput(ctx); err != nil {
		return err
	}
	if err := s.initDecoder(ctx); err != nil {
		return err
	}
	return s.decodeLoop(ctx)
}

// Close releases the packet, the decoder context, the input and the hardware
// device context, in this order. Calling it more than once is a no-op.
func (s *Session) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		logger.Debugf(ctx, "releasing the resources")
		var result *multierror.Error
		if err := s.closer.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("unable to release the decoding resources: %w", err))
		}
		if err := s.deviceCloser.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("unable to release the hardware device context: %w", err))
		}
		s.closeErr = result.ErrorOrNil()
	})
	return s.closeErr
}

// HardwarePixelFormat is the pixel format negotiated for the hardware surfaces.
func (s *Session) HardwarePixelFormat() hwdecoder.PixelFormat {
	return s.hardwarePixelFormat
}
