package libav

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/asticode/go-astiav"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/hwdecoder"
)

type Codec struct {
	*astiav.Codec
}

var _ hwdecoder.Codec = (*Codec)(nil)

func (c *Codec) HardwareConfigs() []hwdecoder.HardwareConfig {
	var result []hwdecoder.HardwareConfig
	for _, cfg := range c.Codec.HardwareConfigs() {
		result = append(result, hwdecoder.HardwareConfig{
			MethodFlags:        methodFlagsFromLibav(cfg.MethodFlags()),
			HardwareDeviceType: hwdecoder.HardwareDeviceType(cfg.HardwareDeviceType()),
			PixelFormat:        hwdecoder.PixelFormat(cfg.PixelFormat()),
		})
	}
	return result
}

func methodFlagsFromLibav(flags astiav.CodecHardwareConfigMethodFlags) hwdecoder.HardwareConfigMethodFlags {
	var result hwdecoder.HardwareConfigMethodFlags
	for _, m := range []struct {
		From astiav.CodecHardwareConfigMethodFlag
		To   hwdecoder.HardwareConfigMethodFlags
	}{
		{astiav.CodecHardwareConfigMethodFlagHwDeviceCtx, hwdecoder.HardwareConfigMethodFlagHwDeviceCtx},
		{astiav.CodecHardwareConfigMethodFlagHwFramesCtx, hwdecoder.HardwareConfigMethodFlagHwFramesCtx},
		{astiav.CodecHardwareConfigMethodFlagInternal, hwdecoder.HardwareConfigMethodFlagInternal},
		{astiav.CodecHardwareConfigMethodFlagAdHoc, hwdecoder.HardwareConfigMethodFlagAdHoc},
	} {
		if flags.Has(m.From) {
			result |= m.To
		}
	}
	return result
}

type DecoderContext struct {
	*astiav.CodecContext
	codec *astiav.Codec
}

var _ hwdecoder.DecoderContext = (*DecoderContext)(nil)

func (d *DecoderContext) ApplyStreamParameters(stream hwdecoder.Stream) error {
	s, ok := stream.(*Stream)
	if !ok {
		return fmt.Errorf("unexpected stream type %T", stream)
	}

	codecParameters := s.CodecParameters()
	if err := codecParameters.ToCodecContext(d.CodecContext); err != nil {
		return fmt.Errorf("CodecParameters().ToCodecContext(...) returned error: %w", err)
	}
	if codecParameters.MediaType() == astiav.MediaTypeVideo {
		if frameRate := codecParameters.FrameRate(); frameRate.Num() != 0 {
			d.CodecContext.SetFramerate(frameRate)
		}
	}
	return nil
}

func (d *DecoderContext) SetPixelFormatCallback(callback hwdecoder.PixelFormatCallback) {
	d.CodecContext.SetPixelFormatCallback(func(pfs []astiav.PixelFormat) astiav.PixelFormat {
		offered := make([]hwdecoder.PixelFormat, 0, len(pfs))
		for _, pf := range pfs {
			offered = append(offered, hwdecoder.PixelFormat(pf))
		}
		return astiav.PixelFormat(callback(offered))
	})
}

func (d *DecoderContext) SetHardwareDeviceContext(hwDeviceCtx hwdecoder.HardwareDeviceContext) error {
	h, ok := hwDeviceCtx.(*HardwareDeviceContext)
	if !ok {
		return fmt.Errorf("unexpected hardware device context type %T", hwDeviceCtx)
	}
	d.CodecContext.SetHardwareDeviceContext(h.HardwareDeviceContext)
	return nil
}

func (d *DecoderContext) Open(ctx context.Context) error {
	logger.Debugf(ctx, "opening the decoder '%s'", d.codec.Name())
	return d.CodecContext.Open(d.codec, nil)
}

func (d *DecoderContext) SendPacket(
	ctx context.Context,
	pkt hwdecoder.Packet,
) error {
	if pkt == nil {
		return d.CodecContext.SendPacket(nil)
	}
	p, ok := pkt.(*Packet)
	if !ok {
		return fmt.Errorf("unexpected packet type %T", pkt)
	}
	return d.CodecContext.SendPacket(p.Packet)
}

func (d *DecoderContext) ReceiveFrame(
	ctx context.Context,
	frame hwdecoder.Frame,
) error {
	f, ok := frame.(*Frame)
	if !ok {
		return fmt.Errorf("unexpected frame type %T", frame)
	}

	err := d.CodecContext.ReceiveFrame(f.frame)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, astiav.ErrEagain):
		return hwdecoder.ErrAgain
	case errors.Is(err, astiav.ErrEof):
		return io.EOF
	default:
		return err
	}
}

func (d *DecoderContext) Free() {
	d.CodecContext.Free()
}
