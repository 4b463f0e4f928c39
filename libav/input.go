package libav

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/asticode/go-astiav"
	"github.com/asticode/go-astikit"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/hwdecoder"
)

// optionKeyInputFormat forces the demuxer, like "-f" of the ffmpeg CLI.
const optionKeyInputFormat = "f"

type Input struct {
	*astikit.Closer
	*astiav.FormatContext
}

var _ hwdecoder.Input = (*Input)(nil)

func openInput(
	ctx context.Context,
	url string,
	options hwdecoder.DictionaryItems,
) (_ret *Input, _err error) {
	logger.Debugf(ctx, "openInput('%s')", url)
	defer func() { logger.Debugf(ctx, "/openInput('%s'): %v", url, _err) }()

	if url == "" {
		return nil, fmt.Errorf("the provided URL is empty")
	}

	input := &Input{
		Closer: astikit.NewCloser(),
	}
	defer func() {
		if _err != nil {
			_ = input.Close()
		}
	}()

	input.FormatContext = astiav.AllocFormatContext()
	if input.FormatContext == nil {
		return nil, fmt.Errorf("unable to allocate a format context")
	}
	input.Closer.Add(input.FormatContext.Free)

	var inputFormat *astiav.InputFormat
	if formatName, ok := options.Get(optionKeyInputFormat); ok {
		inputFormat = astiav.FindInputFormat(formatName)
		if inputFormat == nil {
			return nil, fmt.Errorf("unknown input format '%s'", formatName)
		}
		options = options.Without(optionKeyInputFormat)
	}

	dict, err := newDictionary(ctx, options)
	if err != nil {
		return nil, err
	}
	if dict != nil {
		defer dict.Free()
	}

	if err := input.FormatContext.OpenInput(url, inputFormat, dict); err != nil {
		return nil, fmt.Errorf("unable to open input by URL '%s': %w", url, err)
	}
	input.Closer.Add(input.FormatContext.CloseInput)
	return input, nil
}

func (i *Input) FindStreamInfo(ctx context.Context) error {
	return i.FormatContext.FindStreamInfo(nil)
}

// FindBestStream picks the stream of the given media type the way
// av_find_best_stream ranks them; see pickBestStream.
func (i *Input) FindBestStream(
	ctx context.Context,
	mediaType hwdecoder.MediaType,
) (hwdecoder.Stream, hwdecoder.Codec, error) {
	streams := i.FormatContext.Streams()
	candidates := make([]streamCandidate, 0, len(streams))
	codecs := make([]*astiav.Codec, 0, len(streams))
	for _, stream := range streams {
		codecParameters := stream.CodecParameters()
		codec := astiav.FindDecoder(codecParameters.CodecID())
		disposition := stream.DispositionFlags()
		candidates = append(candidates, streamCandidate{
			MediaType:   mediaTypeFromLibav(codecParameters.MediaType()),
			HasDecoder:  codec != nil,
			AttachedPic: disposition.Has(astiav.DispositionFlagAttachedPic),
			Default:     disposition.Has(astiav.DispositionFlagDefault),
			BitRate:     codecParameters.BitRate(),
			Area:        codecParameters.Width() * codecParameters.Height(),
		})
		codecs = append(codecs, codec)
	}

	idx := pickBestStream(candidates, mediaType)
	if idx < 0 {
		return nil, nil, fmt.Errorf("no decodable %s stream among %d streams", mediaType, len(streams))
	}
	logger.Debugf(ctx, "best %s stream: #%d (%+v)", mediaType, streams[idx].Index(), candidates[idx])
	return &Stream{Stream: streams[idx]}, &Codec{Codec: codecs[idx]}, nil
}

type streamCandidate struct {
	MediaType   hwdecoder.MediaType
	HasDecoder  bool
	AttachedPic bool
	Default     bool
	BitRate     int64
	Area        int
}

// pickBestStream returns the position of the best candidate of the media type, or -1.
// Streams without a decoder and attached pictures (cover art) are never picked.
// The rest are ranked by default disposition, bitrate and picture area; ties keep the first.
func pickBestStream(candidates []streamCandidate, mediaType hwdecoder.MediaType) int {
	best := -1
	for idx, c := range candidates {
		if c.MediaType != mediaType || !c.HasDecoder || c.AttachedPic {
			continue
		}
		if best < 0 || c.betterThan(candidates[best]) {
			best = idx
		}
	}
	return best
}

func (c streamCandidate) betterThan(other streamCandidate) bool {
	if c.Default != other.Default {
		return c.Default
	}
	if c.BitRate != other.BitRate {
		return c.BitRate > other.BitRate
	}
	return c.Area > other.Area
}

func (i *Input) ReadPacket(
	ctx context.Context,
	pkt hwdecoder.Packet,
) error {
	p, ok := pkt.(*Packet)
	if !ok {
		return fmt.Errorf("unexpected packet type %T", pkt)
	}

	err := i.FormatContext.ReadFrame(p.Packet)
	switch {
	case err == nil:
		logger.Tracef(
			ctx,
			"received a packet (stream:%d, pos:%d, pts:%d, dts:%d, size:%d)",
			p.StreamIndex(), p.Pos(), p.Pts(), p.Dts(), p.Size(),
		)
		return nil
	case errors.Is(err, astiav.ErrEof):
		return io.EOF
	default:
		return fmt.Errorf("unable to read a frame: %w", err)
	}
}

type Stream struct {
	*astiav.Stream
}

var _ hwdecoder.Stream = (*Stream)(nil)

func (s *Stream) MediaType() hwdecoder.MediaType {
	return mediaTypeFromLibav(s.CodecParameters().MediaType())
}

func mediaTypeFromLibav(mt astiav.MediaType) hwdecoder.MediaType {
	switch mt {
	case astiav.MediaTypeVideo:
		return hwdecoder.MediaTypeVideo
	case astiav.MediaTypeAudio:
		return hwdecoder.MediaTypeAudio
	case astiav.MediaTypeData:
		return hwdecoder.MediaTypeData
	case astiav.MediaTypeSubtitle:
		return hwdecoder.MediaTypeSubtitle
	case astiav.MediaTypeAttachment:
		return hwdecoder.MediaTypeAttachment
	}
	return hwdecoder.MediaTypeUnknown
}
