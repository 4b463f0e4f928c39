// Package sink contains the destinations of the decoded frames.
package sink

import (
	"context"
	"fmt"

	"github.com/xaionaro-go/hwdecoder"
)

// New builds the sink selected by cfg.
func New(
	ctx context.Context,
	cfg hwdecoder.OutputConfig,
) (hwdecoder.FrameSink, error) {
	switch cfg.Type {
	case hwdecoder.SinkTypeUndefined, hwdecoder.SinkTypeDiscard:
		return Discard{}, nil
	case hwdecoder.SinkTypeRawFile:
		return NewRawFile(ctx, cfg.Path)
	}
	return nil, fmt.Errorf("unknown sink type: %s", cfg.Type.String())
}

// Discard drops every frame.
type Discard struct{}

var _ hwdecoder.FrameSink = Discard{}

func (Discard) WriteFrame(context.Context, *hwdecoder.FrameRecord) error {
	return nil
}

func (Discard) Close() error {
	return nil
}
