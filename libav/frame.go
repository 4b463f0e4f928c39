package libav

import (
	"fmt"

	"github.com/asticode/go-astiav"
	"github.com/xaionaro-go/hwdecoder"
)

type Frame struct {
	frame *astiav.Frame
}

var _ hwdecoder.Frame = (*Frame)(nil)

func (f *Frame) PixelFormat() hwdecoder.PixelFormat {
	return hwdecoder.PixelFormat(f.frame.PixelFormat())
}

func (f *Frame) Width() int {
	return f.frame.Width()
}

func (f *Frame) Height() int {
	return f.frame.Height()
}

func (f *Frame) Pts() int64 {
	return f.frame.Pts()
}

func (f *Frame) SetPts(pts int64) {
	f.frame.SetPts(pts)
}

func (f *Frame) TransferHardwareData(dst hwdecoder.Frame) error {
	d, ok := dst.(*Frame)
	if !ok {
		return fmt.Errorf("unexpected frame type %T", dst)
	}
	return f.frame.TransferHardwareData(d.frame)
}

func (f *Frame) ImageBufferSize(align int) (int, error) {
	return f.frame.ImageBufferSize(align)
}

func (f *Frame) ImageCopyToBuffer(buf []byte, align int) (int, error) {
	return f.frame.ImageCopyToBuffer(buf, align)
}

func (f *Frame) Unref() {
	f.frame.Unref()
}

func (f *Frame) Free() {
	f.frame.Free()
}
