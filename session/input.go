package session

import (
	"context"
	"fmt"

	"github.com/davecgh/go-spew/spew"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/hwdecoder"
)

func (s *Session) openInput(ctx context.Context) (_err error) {
	logger.Debugf(ctx, "openInput('%s')", s.Config.InputURL)
	defer func() { logger.Debugf(ctx, "/openInput('%s'): %v", s.Config.InputURL, _err) }()

	input, err := s.Library.OpenInput(ctx, s.Config.InputURL, s.Config.InputOptions)
	if err != nil {
		return hwdecoder.NewError(
			hwdecoder.ErrorKindOpen,
			fmt.Errorf("unable to open input '%s': %w", s.Config.InputURL, err),
		)
	}
	s.input = input
	s.closer.AddWithError(input.Close)

	if err := input.FindStreamInfo(ctx); err != nil {
		return hwdecoder.NewError(
			hwdecoder.ErrorKindProbe,
			fmt.Errorf("unable to get stream info of '%s': %w", s.Config.InputURL, err),
		)
	}

	stream, codec, err := input.FindBestStream(ctx, hwdecoder.MediaTypeVideo)
	if err != nil {
		return hwdecoder.NewError(
			hwdecoder.ErrorKindNoVideoStream,
			fmt.Errorf("unable to find a video stream in '%s': %w", s.Config.InputURL, err),
		)
	}
	if stream == nil || codec == nil {
		return hwdecoder.NewError(
			hwdecoder.ErrorKindNoVideoStream,
			fmt.Errorf("no decodable video stream in '%s'", s.Config.InputURL),
		)
	}
	if stream.MediaType() != hwdecoder.MediaTypeVideo {
		return hwdecoder.NewError(
			hwdecoder.ErrorKindNoVideoStream,
			fmt.Errorf("the best stream #%d is a %s stream", stream.Index(), stream.MediaType()),
		)
	}

	s.stream = stream
	s.codec = codec
	logger.Debugf(ctx, "selected the video stream #%d, decoder '%s'", stream.Index(), codec.Name())
	if logger.FromCtx(ctx).Level() >= logger.LevelTrace {
		logger.Tracef(ctx, "selected stream: %s", spew.Sdump(stream))
	}
	return nil
}
