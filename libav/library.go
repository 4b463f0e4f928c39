// Package libav implements hwdecoder.Library on top of FFmpeg (via go-astiav).
package libav

import (
	"context"
	"fmt"

	"github.com/asticode/go-astiav"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/hwdecoder"
)

type Library struct{}

var _ hwdecoder.Library = (*Library)(nil)

func New() *Library {
	return &Library{}
}

func (*Library) FindHardwareDeviceType(
	name hwdecoder.HardwareDeviceTypeName,
) hwdecoder.HardwareDeviceType {
	return hwdecoder.HardwareDeviceType(astiav.FindHardwareDeviceTypeByName(string(name)))
}

func (*Library) HardwareDeviceTypeName(
	t hwdecoder.HardwareDeviceType,
) hwdecoder.HardwareDeviceTypeName {
	return hwdecoder.HardwareDeviceTypeName(astiav.HardwareDeviceType(t).String())
}

func (*Library) PixelFormatName(pf hwdecoder.PixelFormat) string {
	return astiav.PixelFormat(pf).String()
}

func (*Library) OpenInput(
	ctx context.Context,
	url string,
	options hwdecoder.DictionaryItems,
) (hwdecoder.Input, error) {
	return openInput(ctx, url, options)
}

func (*Library) AllocCodecContext(
	ctx context.Context,
	codec hwdecoder.Codec,
) (hwdecoder.DecoderContext, error) {
	c, ok := codec.(*Codec)
	if !ok {
		return nil, fmt.Errorf("unexpected codec type %T", codec)
	}
	codecContext := astiav.AllocCodecContext(c.Codec)
	if codecContext == nil {
		return nil, fmt.Errorf("unable to allocate codec context")
	}
	return &DecoderContext{
		CodecContext: codecContext,
		codec:        c.Codec,
	}, nil
}

func (*Library) CreateHardwareDeviceContext(
	ctx context.Context,
	deviceType hwdecoder.HardwareDeviceType,
	deviceName hwdecoder.HardwareDeviceName,
	options hwdecoder.DictionaryItems,
) (hwdecoder.HardwareDeviceContext, error) {
	dict, err := newDictionary(ctx, options)
	if err != nil {
		return nil, err
	}
	if dict != nil {
		defer dict.Free()
	}

	logger.Debugf(ctx, "CreateHardwareDeviceContext(%s, '%s')", astiav.HardwareDeviceType(deviceType), deviceName)
	hwDeviceCtx, err := astiav.CreateHardwareDeviceContext(
		astiav.HardwareDeviceType(deviceType),
		string(deviceName),
		dict,
		0,
	)
	if err != nil {
		return nil, err
	}
	return &HardwareDeviceContext{HardwareDeviceContext: hwDeviceCtx}, nil
}

func (*Library) AllocPacket() (hwdecoder.Packet, error) {
	pkt := astiav.AllocPacket()
	if pkt == nil {
		return nil, fmt.Errorf("unable to allocate a packet")
	}
	return &Packet{Packet: pkt}, nil
}

func (*Library) AllocFrame() (hwdecoder.Frame, error) {
	frame := astiav.AllocFrame()
	if frame == nil {
		return nil, fmt.Errorf("unable to allocate a frame")
	}
	return &Frame{frame: frame}, nil
}

type HardwareDeviceContext struct {
	*astiav.HardwareDeviceContext
}

var _ hwdecoder.HardwareDeviceContext = (*HardwareDeviceContext)(nil)

func (h *HardwareDeviceContext) Free() {
	h.HardwareDeviceContext.Free()
}

type Packet struct {
	*astiav.Packet
}

var _ hwdecoder.Packet = (*Packet)(nil)
