package hwdecoder

import (
	"fmt"
)

// HardwareDeviceType identifies a hardware acceleration backend (vdpau, vaapi, cuda, ...).
// The numeric values are owned by the Library implementation.
type HardwareDeviceType int

const HardwareDeviceTypeNone = HardwareDeviceType(0)

type HardwareDeviceTypeName string

type HardwareDeviceName string

// PixelFormat is a pixel format identifier as understood by the Library.
type PixelFormat int

const PixelFormatNone = PixelFormat(-1)

type MediaType int

const (
	MediaTypeUnknown = MediaType(iota)
	MediaTypeVideo
	MediaTypeAudio
	MediaTypeData
	MediaTypeSubtitle
	MediaTypeAttachment
	EndOfMediaType
)

func (mt MediaType) String() string {
	switch mt {
	case MediaTypeUnknown:
		return "unknown"
	case MediaTypeVideo:
		return "video"
	case MediaTypeAudio:
		return "audio"
	case MediaTypeData:
		return "data"
	case MediaTypeSubtitle:
		return "subtitle"
	case MediaTypeAttachment:
		return "attachment"
	}
	return fmt.Sprintf("unexpected_media_type_%d", int(mt))
}

type HardwareConfigMethodFlags uint

const (
	HardwareConfigMethodFlagHwDeviceCtx = HardwareConfigMethodFlags(1 << iota)
	HardwareConfigMethodFlagHwFramesCtx
	HardwareConfigMethodFlagInternal
	HardwareConfigMethodFlagAdHoc
)

func (f HardwareConfigMethodFlags) Has(flag HardwareConfigMethodFlags) bool {
	return f&flag == flag
}

// HardwareConfig is one entry of the hardware configurations a decoder advertises.
type HardwareConfig struct {
	MethodFlags        HardwareConfigMethodFlags
	HardwareDeviceType HardwareDeviceType
	PixelFormat        PixelFormat
}
