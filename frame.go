package hwdecoder

import (
	"fmt"
)

// FrameRecord is one decoded picture with its planes packed contiguously.
type FrameRecord struct {
	Index           uint64
	Pts             int64
	PixelFormat     PixelFormat
	PixelFormatName string
	Width           int
	Height          int

	// Align is the row alignment used while packing the planes. It is
	// always 1: rows carry no padding, so a plane's stride equals its row width.
	Align int

	Data []byte
}

func (f *FrameRecord) String() string {
	if f == nil {
		return "null"
	}
	return fmt.Sprintf(
		"frame#%d(pts:%d, %dx%d %s, %d bytes)",
		f.Index, f.Pts, f.Width, f.Height, f.PixelFormatName, len(f.Data),
	)
}
