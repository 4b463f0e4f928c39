package session

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/hwdecoder"
)

const packAlign = 1

// receiveFrame pulls one frame from the decoder and hands it to the sink.
// It returns false if the decoder has no frame ready.
func (s *Session) receiveFrame(ctx context.Context) (_ bool, _err error) {
	frame, err := s.Library.AllocFrame()
	if err != nil {
		return false, hwdecoder.NewError(
			hwdecoder.ErrorKindAlloc,
			fmt.Errorf("unable to allocate a frame: %w", err),
		)
	}
	defer frame.Free()

	err = s.decoderContext.ReceiveFrame(ctx, frame)
	switch {
	case err == nil:
	case errors.Is(err, hwdecoder.ErrAgain), errors.Is(err, io.EOF):
		return false, nil
	default:
		return false, hwdecoder.NewError(
			hwdecoder.ErrorKindDecode,
			fmt.Errorf("unable to receive a frame from the decoder: %w", err),
		)
	}

	hostFrame := frame
	if frame.PixelFormat() == s.hardwarePixelFormat {
		ramFrame, err := s.Library.AllocFrame()
		if err != nil {
			return false, hwdecoder.NewError(
				hwdecoder.ErrorKindAlloc,
				fmt.Errorf("unable to allocate a frame: %w", err),
			)
		}
		defer ramFrame.Free()

		if err := frame.TransferHardwareData(ramFrame); err != nil {
			return false, hwdecoder.NewError(
				hwdecoder.ErrorKindTransfer,
				fmt.Errorf("failed to transfer frame from hardware decoder to RAM: %w", err),
			)
		}
		ramFrame.SetPts(frame.Pts())
		hostFrame = ramFrame
		s.FramesTransferred.Add(1)
	}

	record, err := s.packFrame(hostFrame)
	if err != nil {
		return false, err
	}
	s.FramesDecoded.Add(1)
	s.BytesPacked.Add(uint64(len(record.Data)))
	logger.Infof(ctx, "Decoded one frame: %s", record)

	if s.Sink != nil {
		if err := s.Sink.WriteFrame(ctx, record); err != nil {
			return false, hwdecoder.NewError(
				hwdecoder.ErrorKindSink,
				fmt.Errorf("unable to write %s: %w", record, err),
			)
		}
	}
	return true, nil
}

// packFrame copies the planes of a host-resident frame into one contiguous buffer.
func (s *Session) packFrame(frame hwdecoder.Frame) (*hwdecoder.FrameRecord, error) {
	size, err := frame.ImageBufferSize(packAlign)
	if err != nil {
		return nil, hwdecoder.NewError(
			hwdecoder.ErrorKindPack,
			fmt.Errorf("unable to get the image buffer size: %w", err),
		)
	}

	buf, err := s.allocBuffer(size)
	if err != nil {
		return nil, err
	}

	n, err := frame.ImageCopyToBuffer(buf, packAlign)
	if err != nil {
		return nil, hwdecoder.NewError(
			hwdecoder.ErrorKindPack,
			fmt.Errorf("unable to copy the image to the buffer: %w", err),
		)
	}
	if n != size {
		return nil, hwdecoder.NewError(
			hwdecoder.ErrorKindPack,
			fmt.Errorf("copied %d bytes instead of %d", n, size),
		)
	}

	record := &hwdecoder.FrameRecord{
		Index:           s.nextFrameIndex,
		Pts:             frame.Pts(),
		PixelFormat:     frame.PixelFormat(),
		PixelFormatName: s.Library.PixelFormatName(frame.PixelFormat()),
		Width:           frame.Width(),
		Height:          frame.Height(),
		Align:           packAlign,
		Data:            buf,
	}
	s.nextFrameIndex++
	return record, nil
}

func (s *Session) allocBuffer(size int) ([]byte, error) {
	if size <= 0 {
		return nil, hwdecoder.NewError(
			hwdecoder.ErrorKindAlloc,
			fmt.Errorf("invalid image buffer size %d", size),
		)
	}
	if uint64(size) > s.Config.MaxFrameSize {
		return nil, hwdecoder.NewError(
			hwdecoder.ErrorKindAlloc,
			fmt.Errorf("image buffer size %d exceeds the limit %d", size, s.Config.MaxFrameSize),
		)
	}
	return make([]byte, size), nil
}
