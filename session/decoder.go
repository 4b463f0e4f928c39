package session

import (
	"context"
	"fmt"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/hwdecoder"
)

func (s *Session) initDecoder(ctx context.Context) (_err error) {
	logger.Debugf(ctx, "initDecoder")
	defer func() { logger.Debugf(ctx, "/initDecoder: %v", _err) }()

	decoderContext, err := s.Library.AllocCodecContext(ctx, s.codec)
	if err != nil {
		return hwdecoder.NewError(
			hwdecoder.ErrorKindAlloc,
			fmt.Errorf("unable to allocate a codec context for '%s': %w", s.codec.Name(), err),
		)
	}
	s.decoderContext = decoderContext
	s.closer.Add(decoderContext.Free)

	if err := decoderContext.ApplyStreamParameters(s.stream); err != nil {
		return hwdecoder.NewError(
			hwdecoder.ErrorKindCodecParameters,
			fmt.Errorf("unable to copy the codec parameters of stream #%d: %w", s.stream.Index(), err),
		)
	}

	hwConfig, err := findHardwareConfig(s.codec, s.hardwareDeviceType)
	if err != nil {
		return hwdecoder.NewError(
			hwdecoder.ErrorKindNoHardwareConfig,
			fmt.Errorf(
				"decoder '%s' does not support device type '%s': %w",
				s.codec.Name(), s.Library.HardwareDeviceTypeName(s.hardwareDeviceType), err,
			),
		)
	}
	s.hardwarePixelFormat = hwConfig.PixelFormat
	logger.Debugf(ctx, "hardware pixel format: %s", s.Library.PixelFormatName(s.hardwarePixelFormat))

	decoderContext.SetPixelFormatCallback(newPixelFormatNegotiator(ctx, s.Library, s.hardwarePixelFormat))

	hardwareDeviceContext, err := s.Library.CreateHardwareDeviceContext(
		ctx,
		s.hardwareDeviceType,
		s.Config.HardwareDeviceName,
		s.Config.HardwareDeviceOptions,
	)
	if err != nil {
		return hwdecoder.NewError(
			hwdecoder.ErrorKindDeviceInit,
			fmt.Errorf("unable to create hardware device context: %w", err),
		)
	}
	s.hardwareDeviceContext = hardwareDeviceContext
	s.deviceCloser.Add(hardwareDeviceContext.Free)
	if err := decoderContext.SetHardwareDeviceContext(hardwareDeviceContext); err != nil {
		return hwdecoder.NewError(
			hwdecoder.ErrorKindDeviceInit,
			fmt.Errorf("unable to attach the hardware device context to the decoder: %w", err),
		)
	}

	if err := decoderContext.Open(ctx); err != nil {
		return hwdecoder.NewError(
			hwdecoder.ErrorKindCodecOpen,
			fmt.Errorf("unable to open codec context: %w", err),
		)
	}

	return nil
}

// findHardwareConfig returns the first config attachable via a device
// context for the given device type.
func findHardwareConfig(
	codec hwdecoder.Codec,
	deviceType hwdecoder.HardwareDeviceType,
) (hwdecoder.HardwareConfig, error) {
	configs := codec.HardwareConfigs()
	for idx := 0; idx < len(configs); idx++ {
		cfg := configs[idx]
		if cfg.MethodFlags.Has(hwdecoder.HardwareConfigMethodFlagHwDeviceCtx) && cfg.HardwareDeviceType == deviceType {
			return cfg, nil
		}
	}
	return hwdecoder.HardwareConfig{}, fmt.Errorf("none of %d hardware configs matched", len(configs))
}

func newPixelFormatNegotiator(
	ctx context.Context,
	lib hwdecoder.Library,
	hardwarePixelFormat hwdecoder.PixelFormat,
) hwdecoder.PixelFormatCallback {
	return func(offered []hwdecoder.PixelFormat) hwdecoder.PixelFormat {
		for _, pf := range offered {
			if pf == hardwarePixelFormat {
				return pf
			}
		}

		logger.Errorf(ctx, "unable to get the hardware surface format %s", lib.PixelFormatName(hardwarePixelFormat))
		return hwdecoder.PixelFormatNone
	}
}
