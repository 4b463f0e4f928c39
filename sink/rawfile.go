package sink

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/davecgh/go-spew/spew"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/hashicorp/go-multierror"
	"github.com/xaionaro-go/hwdecoder"
	"gopkg.in/yaml.v3"
)

const sidecarSuffix = ".yaml"

// Segment describes a run of consecutive frames sharing the same geometry.
type Segment struct {
	PixelFormat string `yaml:"pixel_format"`
	Width       int    `yaml:"width"`
	Height      int    `yaml:"height"`
	Align       int    `yaml:"align"`
	FrameSize   int    `yaml:"frame_size"`
	FirstFrame  uint64 `yaml:"first_frame"`
	FirstPts    int64  `yaml:"first_pts"`
	Offset      int64  `yaml:"offset"`
	FrameCount  uint64 `yaml:"frame_count"`
}

func (s *Segment) matches(frame *hwdecoder.FrameRecord) bool {
	return s.PixelFormat == frame.PixelFormatName &&
		s.Width == frame.Width &&
		s.Height == frame.Height &&
		s.Align == frame.Align &&
		s.FrameSize == len(frame.Data)
}

// Sidecar is the index written next to the raw frames file.
type Sidecar struct {
	RawFile  string    `yaml:"raw_file"`
	Segments []Segment `yaml:"segments"`
}

// RawFile concatenates the packed frames into a file and describes them
// in a YAML sidecar "<path>.yaml" written on Close.
type RawFile struct {
	Path string

	file    *os.File
	writer  *bufio.Writer
	offset  int64
	sidecar Sidecar
}

var _ hwdecoder.FrameSink = (*RawFile)(nil)

func NewRawFile(
	ctx context.Context,
	path string,
) (*RawFile, error) {
	if path == "" {
		return nil, fmt.Errorf("the output path is empty")
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("unable to create '%s': %w", path, err)
	}
	logger.Debugf(ctx, "writing raw frames to '%s'", path)
	return &RawFile{
		Path:    path,
		file:    f,
		writer:  bufio.NewWriter(f),
		sidecar: Sidecar{RawFile: path},
	}, nil
}

func (r *RawFile) SidecarPath() string {
	return r.Path + sidecarSuffix
}

func (r *RawFile) WriteFrame(
	ctx context.Context,
	frame *hwdecoder.FrameRecord,
) error {
	if r.file == nil {
		return fmt.Errorf("the sink is closed")
	}
	if _, err := r.writer.Write(frame.Data); err != nil {
		return fmt.Errorf("unable to write %d bytes to '%s': %w", len(frame.Data), r.Path, err)
	}

	segments := r.sidecar.Segments
	if len(segments) == 0 || !segments[len(segments)-1].matches(frame) {
		r.sidecar.Segments = append(r.sidecar.Segments, Segment{
			PixelFormat: frame.PixelFormatName,
			Width:       frame.Width,
			Height:      frame.Height,
			Align:       frame.Align,
			FrameSize:   len(frame.Data),
			FirstFrame:  frame.Index,
			FirstPts:    frame.Pts,
			Offset:      r.offset,
		})
		if logger.FromCtx(ctx).Level() >= logger.LevelTrace {
			logger.Tracef(ctx, "new segment: %s", spew.Sdump(r.sidecar.Segments[len(r.sidecar.Segments)-1]))
		}
	}
	r.sidecar.Segments[len(r.sidecar.Segments)-1].FrameCount++
	r.offset += int64(len(frame.Data))
	return nil
}

// Close flushes the frames and writes the sidecar. Calling it more than once is a no-op.
func (r *RawFile) Close() error {
	if r.file == nil {
		return nil
	}

	var result *multierror.Error
	if err := r.writer.Flush(); err != nil {
		result = multierror.Append(result, fmt.Errorf("unable to flush '%s': %w", r.Path, err))
	}
	if err := r.file.Close(); err != nil {
		result = multierror.Append(result, fmt.Errorf("unable to close '%s': %w", r.Path, err))
	}
	r.file = nil

	b, err := yaml.Marshal(r.sidecar)
	if err != nil {
		result = multierror.Append(result, fmt.Errorf("unable to serialize the sidecar: %w", err))
	} else if err := os.WriteFile(r.SidecarPath(), b, 0o644); err != nil {
		result = multierror.Append(result, fmt.Errorf("unable to write '%s': %w", r.SidecarPath(), err))
	}
	return result.ErrorOrNil()
}

func LoadSidecar(path string) (*Sidecar, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read '%s': %w", path, err)
	}
	var result Sidecar
	if err := yaml.Unmarshal(b, &result); err != nil {
		return nil, fmt.Errorf("unable to parse '%s': %w", path, err)
	}
	return &result, nil
}
