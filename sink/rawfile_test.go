package sink

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/hwdecoder"
)

func record(index uint64, width, height int, fill byte) *hwdecoder.FrameRecord {
	size := width*height + 2*((width+1)/2)*((height+1)/2)
	return &hwdecoder.FrameRecord{
		Index:           index,
		Pts:             int64(index) * 40,
		PixelFormat:     23,
		PixelFormatName: "nv12",
		Width:           width,
		Height:          height,
		Align:           1,
		Data:            bytes.Repeat([]byte{fill}, size),
	}
}

func TestRawFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "frames.raw")

	s, err := New(ctx, hwdecoder.OutputConfig{Type: hwdecoder.SinkTypeRawFile, Path: path})
	require.NoError(t, err)
	r := s.(*RawFile)

	require.NoError(t, r.WriteFrame(ctx, record(0, 64, 64, 1)))
	require.NoError(t, r.WriteFrame(ctx, record(1, 64, 64, 2)))
	require.NoError(t, r.WriteFrame(ctx, record(2, 32, 16, 3)))
	require.NoError(t, r.Close())
	require.NoError(t, r.Close())
	require.Error(t, r.WriteFrame(ctx, record(3, 32, 16, 4)))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Len(t, b, 2*6144+768)
	require.Equal(t, byte(2), b[6144])
	require.Equal(t, byte(3), b[len(b)-1])

	sidecar, err := LoadSidecar(r.SidecarPath())
	require.NoError(t, err)
	require.Equal(t, &Sidecar{
		RawFile: path,
		Segments: []Segment{
			{PixelFormat: "nv12", Width: 64, Height: 64, Align: 1, FrameSize: 6144, FirstFrame: 0, FirstPts: 0, Offset: 0, FrameCount: 2},
			{PixelFormat: "nv12", Width: 32, Height: 16, Align: 1, FrameSize: 768, FirstFrame: 2, FirstPts: 80, Offset: 2 * 6144, FrameCount: 1},
		},
	}, sidecar)
}

func TestRawFileEmptyPath(t *testing.T) {
	_, err := NewRawFile(context.Background(), "")
	require.Error(t, err)
}

func TestDiscard(t *testing.T) {
	s, err := New(context.Background(), hwdecoder.OutputConfig{Type: hwdecoder.SinkTypeDiscard})
	require.NoError(t, err)
	require.NoError(t, s.WriteFrame(context.Background(), record(0, 2, 2, 0)))
	require.NoError(t, s.Close())

	_, err = New(context.Background(), hwdecoder.OutputConfig{Type: hwdecoder.EndOfSinkType})
	require.Error(t, err)
}
