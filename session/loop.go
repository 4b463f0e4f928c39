package session

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/hwdecoder"
	"github.com/xaionaro-go/hwdecoder/internal"
)

func (s *Session) decodeLoop(ctx context.Context) (_err error) {
	logger.Debugf(ctx, "decodeLoop")
	defer func() { logger.Debugf(ctx, "/decodeLoop: %v", _err) }()

	internal.Assertf(ctx, s.decoderContext != nil, "the decoder is not initialized")
	internal.Assertf(ctx, s.hardwarePixelFormat != hwdecoder.PixelFormatNone, "the hardware pixel format is not negotiated")

	packet, err := s.Library.AllocPacket()
	if err != nil {
		return hwdecoder.NewError(
			hwdecoder.ErrorKindAlloc,
			fmt.Errorf("unable to allocate a packet: %w", err),
		)
	}
	s.packet = packet
	s.closer.Add(packet.Free)

	for {
		if err := checkCanceled(ctx); err != nil {
			return err
		}

		err := s.input.ReadPacket(ctx, packet)
		if err != nil {
			packet.Unref()
			if !errors.Is(err, io.EOF) {
				s.ReadErrors.Add(1)
				logger.Warnf(ctx, "unable to read a packet, draining the decoder: %v", err)
			}
			break
		}
		s.PacketsRead.Add(1)
		s.BytesRead.Add(uint64(packet.Size()))

		if packet.StreamIndex() != s.stream.Index() {
			logger.Tracef(ctx, "skipping a packet of stream #%d", packet.StreamIndex())
			s.PacketsSkipped.Add(1)
			packet.Unref()
			continue
		}

		err = s.decodePacket(ctx, packet)
		packet.Unref()
		if err != nil {
			return err
		}
	}

	logger.Debugf(ctx, "flushing the decoder")
	return s.decodePacket(ctx, nil)
}

// decodePacket submits the packet (nil flushes the decoder) and drains
// every frame the decoder is ready to produce.
func (s *Session) decodePacket(
	ctx context.Context,
	packet hwdecoder.Packet,
) error {
	if err := s.decoderContext.SendPacket(ctx, packet); err != nil {
		return s.applyErrorPolicy(ctx, hwdecoder.NewError(
			hwdecoder.ErrorKindSubmit,
			fmt.Errorf("unable to send the packet to the decoder: %w", err),
		))
	}
	if packet == nil {
		s.FlushesSubmitted.Add(1)
	} else {
		s.PacketsSubmitted.Add(1)
	}

	for {
		if err := checkCanceled(ctx); err != nil {
			return err
		}

		gotFrame, err := s.receiveFrame(ctx)
		if err != nil {
			return s.applyErrorPolicy(ctx, err)
		}
		if !gotFrame {
			return nil
		}
	}
}

func (s *Session) applyErrorPolicy(
	ctx context.Context,
	err error,
) error {
	if s.Config.ErrorPolicy != hwdecoder.ErrorPolicySkip {
		return err
	}
	switch hwdecoder.KindOf(err) {
	case hwdecoder.ErrorKindSubmit, hwdecoder.ErrorKindDecode:
		s.PacketsFailed.Add(1)
		logger.Warnf(ctx, "skipping a corrupt packet: %v", err)
		return nil
	default:
		return err
	}
}

func checkCanceled(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return hwdecoder.NewError(hwdecoder.ErrorKindCanceled, ctx.Err())
	default:
		return nil
	}
}
