package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/xaionaro-go/hwdecoder"
)

const (
	stubDeviceTypeVDPAU = hwdecoder.HardwareDeviceType(2)
	stubDeviceTypeCUDA  = hwdecoder.HardwareDeviceType(3)

	stubPixelFormatYUV420P = hwdecoder.PixelFormat(0)
	stubPixelFormatNV12    = hwdecoder.PixelFormat(23)
	stubPixelFormatVDPAU   = hwdecoder.PixelFormat(98)
	stubPixelFormatCUDA    = hwdecoder.PixelFormat(117)
)

// resource names used as keys of the allocation counters
const (
	resInput          = "input"
	resCodecContext   = "codec_context"
	resHardwareDevice = "hardware_device"
	resPacket         = "packet"
	resFrame          = "frame"
)

// failure injection points
const (
	failOpen          = "open"
	failProbe         = "probe"
	failBestStream    = "best_stream"
	failAllocCodecCtx = "alloc_codec_context"
	failApplyParams   = "apply_params"
	failCreateDevice  = "create_device"
	failAttachDevice  = "attach_device"
	failOpenCodec     = "open_codec"
	failAllocPacket   = "alloc_packet"
	failAllocFrame    = "alloc_frame"
	failRead          = "read"
	failSend          = "send"
	failReceive       = "receive"
	failTransfer      = "transfer"
	failBufferSize    = "buffer_size"
	failCopy          = "copy"
)

type stubPacketData struct {
	StreamIndex int
	Size        int

	// Frames is the amount of frames the decoder emits after receiving this packet.
	Frames int
}

type stubLibrary struct {
	DeviceTypes map[hwdecoder.HardwareDeviceTypeName]hwdecoder.HardwareDeviceType
	Streams     []*stubStream
	BestStream  int
	Codec       *stubCodec
	Packets     []stubPacketData
	FlushFrames int

	// OfferedFormats are passed to the pixel format callback on Open.
	OfferedFormats []hwdecoder.PixelFormat

	// OutputPixelFormat is the pixel format of the decoded frames.
	OutputPixelFormat hwdecoder.PixelFormat
	Width             int
	Height            int

	Fail map[string]error

	// FailAfter delays the failure of an injection point by the given amount of successful calls.
	FailAfter map[string]int

	Allocs      map[string]int
	Frees       map[string]int
	DoubleFrees []string
	Submitted   []int
	ReleaseLog  []string

	calls map[string]int
}

func newStubLibrary() *stubLibrary {
	return &stubLibrary{
		DeviceTypes: map[hwdecoder.HardwareDeviceTypeName]hwdecoder.HardwareDeviceType{
			"vdpau": stubDeviceTypeVDPAU,
			"cuda":  stubDeviceTypeCUDA,
		},
		Streams: []*stubStream{
			{index: 0, mediaType: hwdecoder.MediaTypeVideo},
			{index: 1, mediaType: hwdecoder.MediaTypeAudio},
		},
		BestStream: 0,
		Codec: &stubCodec{
			name: "h264",
			configs: []hwdecoder.HardwareConfig{
				{
					MethodFlags:        hwdecoder.HardwareConfigMethodFlagHwDeviceCtx,
					HardwareDeviceType: stubDeviceTypeCUDA,
					PixelFormat:        stubPixelFormatCUDA,
				},
				{
					MethodFlags:        hwdecoder.HardwareConfigMethodFlagHwDeviceCtx | hwdecoder.HardwareConfigMethodFlagAdHoc,
					HardwareDeviceType: stubDeviceTypeVDPAU,
					PixelFormat:        stubPixelFormatVDPAU,
				},
			},
		},
		OfferedFormats:    []hwdecoder.PixelFormat{stubPixelFormatVDPAU, stubPixelFormatYUV420P},
		OutputPixelFormat: stubPixelFormatVDPAU,
		Width:             64,
		Height:            64,
		Fail:              map[string]error{},
		FailAfter:         map[string]int{},
		Allocs:            map[string]int{},
		Frees:             map[string]int{},
		calls:             map[string]int{},
	}
}

var _ hwdecoder.Library = (*stubLibrary)(nil)

func (l *stubLibrary) fail(point string) error {
	err := l.Fail[point]
	if err == nil {
		return nil
	}
	l.calls[point]++
	if l.calls[point] <= l.FailAfter[point] {
		return nil
	}
	return err
}

func (l *stubLibrary) alloc(name string) *stubResource {
	l.Allocs[name]++
	return &stubResource{lib: l, name: name}
}

func (l *stubLibrary) totalAllocs() int {
	var total int
	for _, count := range l.Allocs {
		total += count
	}
	return total
}

// leaks lists every resource kind whose allocations and releases differ.
func (l *stubLibrary) leaks() []string {
	var result []string
	for name, count := range l.Allocs {
		if l.Frees[name] != count {
			result = append(result, fmt.Sprintf("%s: allocated %d, released %d", name, count, l.Frees[name]))
		}
	}
	sort.Strings(result)
	return result
}

func (l *stubLibrary) FindHardwareDeviceType(name hwdecoder.HardwareDeviceTypeName) hwdecoder.HardwareDeviceType {
	t, ok := l.DeviceTypes[name]
	if !ok {
		return hwdecoder.HardwareDeviceTypeNone
	}
	return t
}

func (l *stubLibrary) HardwareDeviceTypeName(t hwdecoder.HardwareDeviceType) hwdecoder.HardwareDeviceTypeName {
	for name, cmp := range l.DeviceTypes {
		if cmp == t {
			return name
		}
	}
	return ""
}

func (l *stubLibrary) PixelFormatName(pf hwdecoder.PixelFormat) string {
	switch pf {
	case stubPixelFormatYUV420P:
		return "yuv420p"
	case stubPixelFormatNV12:
		return "nv12"
	case stubPixelFormatVDPAU:
		return "vdpau"
	case stubPixelFormatCUDA:
		return "cuda"
	}
	return "none"
}

func (l *stubLibrary) OpenInput(
	ctx context.Context,
	url string,
	options hwdecoder.DictionaryItems,
) (hwdecoder.Input, error) {
	if err := l.fail(failOpen); err != nil {
		return nil, err
	}
	return &stubInput{stubResource: l.alloc(resInput)}, nil
}

func (l *stubLibrary) AllocCodecContext(
	ctx context.Context,
	codec hwdecoder.Codec,
) (hwdecoder.DecoderContext, error) {
	if err := l.fail(failAllocCodecCtx); err != nil {
		return nil, err
	}
	return &stubDecoderContext{stubResource: l.alloc(resCodecContext)}, nil
}

func (l *stubLibrary) CreateHardwareDeviceContext(
	ctx context.Context,
	deviceType hwdecoder.HardwareDeviceType,
	deviceName hwdecoder.HardwareDeviceName,
	options hwdecoder.DictionaryItems,
) (hwdecoder.HardwareDeviceContext, error) {
	if err := l.fail(failCreateDevice); err != nil {
		return nil, err
	}
	return l.alloc(resHardwareDevice), nil
}

func (l *stubLibrary) AllocPacket() (hwdecoder.Packet, error) {
	if err := l.fail(failAllocPacket); err != nil {
		return nil, err
	}
	return &stubPacket{stubResource: l.alloc(resPacket)}, nil
}

func (l *stubLibrary) AllocFrame() (hwdecoder.Frame, error) {
	if err := l.fail(failAllocFrame); err != nil {
		return nil, err
	}
	return &stubFrame{stubResource: l.alloc(resFrame), pixelFormat: hwdecoder.PixelFormatNone}, nil
}

type stubResource struct {
	lib   *stubLibrary
	name  string
	freed bool
}

func (r *stubResource) Free() {
	if r.freed {
		r.lib.DoubleFrees = append(r.lib.DoubleFrees, r.name)
		return
	}
	r.freed = true
	r.lib.Frees[r.name]++
	if r.name != resFrame {
		r.lib.ReleaseLog = append(r.lib.ReleaseLog, r.name)
	}
}

type stubInput struct {
	*stubResource
	nextPacket int
}

func (i *stubInput) Close() error {
	i.Free()
	return nil
}

func (i *stubInput) FindStreamInfo(ctx context.Context) error {
	return i.lib.fail(failProbe)
}

func (i *stubInput) FindBestStream(
	ctx context.Context,
	mediaType hwdecoder.MediaType,
) (hwdecoder.Stream, hwdecoder.Codec, error) {
	if err := i.lib.fail(failBestStream); err != nil {
		return nil, nil, err
	}
	if i.lib.BestStream < 0 {
		return nil, nil, errors.New("stream not found")
	}
	return i.lib.Streams[i.lib.BestStream], i.lib.Codec, nil
}

func (i *stubInput) ReadPacket(ctx context.Context, pkt hwdecoder.Packet) error {
	if err := i.lib.fail(failRead); err != nil {
		return err
	}
	if i.nextPacket >= len(i.lib.Packets) {
		return io.EOF
	}
	data := i.lib.Packets[i.nextPacket]
	i.nextPacket++
	pkt.(*stubPacket).data = &data
	return nil
}

type stubStream struct {
	index     int
	mediaType hwdecoder.MediaType
}

func (s *stubStream) Index() int {
	return s.index
}

func (s *stubStream) MediaType() hwdecoder.MediaType {
	return s.mediaType
}

type stubCodec struct {
	name    string
	configs []hwdecoder.HardwareConfig
}

func (c *stubCodec) Name() string {
	return c.name
}

func (c *stubCodec) HardwareConfigs() []hwdecoder.HardwareConfig {
	return c.configs
}

type stubDecoderContext struct {
	*stubResource
	callback       hwdecoder.PixelFormatCallback
	hwDevice       hwdecoder.HardwareDeviceContext
	pendingFrames  int
	flushed        bool
	nextPts        int64
	NegotiatedWith hwdecoder.PixelFormat
}

func (d *stubDecoderContext) ApplyStreamParameters(stream hwdecoder.Stream) error {
	return d.lib.fail(failApplyParams)
}

func (d *stubDecoderContext) SetPixelFormatCallback(callback hwdecoder.PixelFormatCallback) {
	d.callback = callback
}

func (d *stubDecoderContext) SetHardwareDeviceContext(hwDeviceCtx hwdecoder.HardwareDeviceContext) error {
	if err := d.lib.fail(failAttachDevice); err != nil {
		return err
	}
	d.hwDevice = hwDeviceCtx
	return nil
}

func (d *stubDecoderContext) Open(ctx context.Context) error {
	if err := d.lib.fail(failOpenCodec); err != nil {
		return err
	}
	if d.hwDevice == nil {
		return errors.New("no hardware device context attached")
	}
	if d.callback == nil {
		return errors.New("no pixel format callback")
	}
	d.NegotiatedWith = d.callback(d.lib.OfferedFormats)
	if d.NegotiatedWith == hwdecoder.PixelFormatNone {
		return errors.New("get_format failed")
	}
	return nil
}

func (d *stubDecoderContext) SendPacket(ctx context.Context, pkt hwdecoder.Packet) error {
	if err := d.lib.fail(failSend); err != nil {
		return err
	}
	if pkt == nil {
		d.lib.Submitted = append(d.lib.Submitted, -1)
		d.pendingFrames += d.lib.FlushFrames
		d.flushed = true
		return nil
	}
	data := pkt.(*stubPacket).data
	if data == nil {
		return errors.New("empty packet")
	}
	d.lib.Submitted = append(d.lib.Submitted, data.StreamIndex)
	d.pendingFrames += data.Frames
	return nil
}

func (d *stubDecoderContext) ReceiveFrame(ctx context.Context, frame hwdecoder.Frame) error {
	if err := d.lib.fail(failReceive); err != nil {
		return err
	}
	if d.pendingFrames == 0 {
		if d.flushed {
			return io.EOF
		}
		return hwdecoder.ErrAgain
	}
	d.pendingFrames--
	f := frame.(*stubFrame)
	f.pixelFormat = d.lib.OutputPixelFormat
	f.width = d.lib.Width
	f.height = d.lib.Height
	f.pts = d.nextPts
	d.nextPts += 40
	return nil
}

type stubPacket struct {
	*stubResource
	data *stubPacketData
}

func (p *stubPacket) StreamIndex() int {
	if p.data == nil {
		return -1
	}
	return p.data.StreamIndex
}

func (p *stubPacket) Size() int {
	if p.data == nil {
		return 0
	}
	return p.data.Size
}

func (p *stubPacket) Unref() {
	p.data = nil
}

type stubFrame struct {
	*stubResource
	pixelFormat hwdecoder.PixelFormat
	width       int
	height      int
	pts         int64
}

func (f *stubFrame) PixelFormat() hwdecoder.PixelFormat {
	return f.pixelFormat
}

func (f *stubFrame) Width() int {
	return f.width
}

func (f *stubFrame) Height() int {
	return f.height
}

func (f *stubFrame) Pts() int64 {
	return f.pts
}

func (f *stubFrame) SetPts(pts int64) {
	f.pts = pts
}

func (f *stubFrame) TransferHardwareData(dst hwdecoder.Frame) error {
	if err := f.lib.fail(failTransfer); err != nil {
		return err
	}
	d := dst.(*stubFrame)
	d.pixelFormat = stubPixelFormatNV12
	d.width = f.width
	d.height = f.height
	return nil
}

// ImageBufferSize mimics av_image_get_buffer_size for 4:2:0 formats.
func (f *stubFrame) ImageBufferSize(align int) (int, error) {
	if err := f.lib.fail(failBufferSize); err != nil {
		return 0, err
	}
	switch f.pixelFormat {
	case stubPixelFormatYUV420P, stubPixelFormatNV12:
	default:
		return 0, fmt.Errorf("pixel format %d is not host-resident", f.pixelFormat)
	}
	chromaW := (f.width + 1) / 2
	chromaH := (f.height + 1) / 2
	return f.width*f.height + 2*chromaW*chromaH, nil
}

func (f *stubFrame) ImageCopyToBuffer(buf []byte, align int) (int, error) {
	if err := f.lib.fail(failCopy); err != nil {
		return 0, err
	}
	size, err := f.ImageBufferSize(align)
	if err != nil {
		return 0, err
	}
	if len(buf) < size {
		return 0, fmt.Errorf("buffer is too small: %d < %d", len(buf), size)
	}
	for idx := range buf[:size] {
		buf[idx] = byte(idx)
	}
	return size, nil
}

func (f *stubFrame) Unref() {
	f.pixelFormat = hwdecoder.PixelFormatNone
}

type stubSink struct {
	Frames []*hwdecoder.FrameRecord
	Err    error
	Closed bool
}

var _ hwdecoder.FrameSink = (*stubSink)(nil)

func (s *stubSink) WriteFrame(ctx context.Context, frame *hwdecoder.FrameRecord) error {
	if s.Err != nil {
		return s.Err
	}
	s.Frames = append(s.Frames, frame)
	return nil
}

func (s *stubSink) Close() error {
	s.Closed = true
	return nil
}
