package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/facebookincubator/go-belt"
	"github.com/facebookincubator/go-belt/tool/experimental/errmon"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/facebookincubator/go-belt/tool/logger/implementation/logrus"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/pflag"
	"github.com/xaionaro-go/hwdecoder"
	"github.com/xaionaro-go/hwdecoder/libav"
	"github.com/xaionaro-go/hwdecoder/session"
	"github.com/xaionaro-go/hwdecoder/sink"
	"github.com/xaionaro-go/observability"
)

const exitCodeUsage = 1

type flags struct {
	LoggerLevel      logger.Level
	LibavLoggerLevel logger.Level
	ConfigPath       string
	DeviceName       string
	InputOptions     []string
	DeviceOptions    []string
	ErrorPolicy      hwdecoder.ErrorPolicy
	Output           string
	MaxFrameSize     uint64
	NetPprofAddr     string
}

func registerFlags(fs *pflag.FlagSet) *flags {
	f := &flags{
		LoggerLevel:      logger.LevelInfo,
		LibavLoggerLevel: logger.LevelWarning,
		ErrorPolicy:      hwdecoder.ErrorPolicyAbort,
	}
	fs.Var(&f.LoggerLevel, "log-level", "Log level")
	fs.Var(&f.LibavLoggerLevel, "libav-log-level", "Log level of the messages coming from libav")
	fs.StringVar(&f.ConfigPath, "config", "", "path to a YAML config file")
	fs.StringVar(&f.DeviceName, "device", "", "the hardware device to open (e.g. /dev/dri/renderD128); empty means the default one")
	fs.StringArrayVar(&f.InputOptions, "input-option", nil, "a demuxer option in form 'key=value' (can be repeated)")
	fs.StringArrayVar(&f.DeviceOptions, "device-option", nil, "a hardware device option in form 'key=value' (can be repeated)")
	fs.Var(&f.ErrorPolicy, "error-policy", "what to do with a packet that failed to decode: abort|skip")
	fs.StringVar(&f.Output, "output", "", "write the packed frames to this file (and the index to '<output>.yaml')")
	fs.Uint64Var(&f.MaxFrameSize, "max-frame-size", hwdecoder.DefaultMaxFrameSize, "refuse to pack frames larger than this amount of bytes")
	fs.StringVar(&f.NetPprofAddr, "net-pprof-listen-addr", "", "an address to listen for incoming net/pprof connections")
	return f
}

// applyFlags overrides cfg with the flags explicitly set on the command line.
func applyFlags(
	fs *pflag.FlagSet,
	f *flags,
	cfg *hwdecoder.Config,
) error {
	cfg.InputURL = fs.Arg(0)
	if fs.NArg() > 1 {
		cfg.HardwareDeviceType = hwdecoder.HardwareDeviceTypeName(fs.Arg(1))
	}
	if fs.Changed("device") {
		cfg.HardwareDeviceName = hwdecoder.HardwareDeviceName(f.DeviceName)
	}
	if err := applyDictionaryFlag(&cfg.InputOptions, f.InputOptions); err != nil {
		return fmt.Errorf("invalid --input-option: %w", err)
	}
	if err := applyDictionaryFlag(&cfg.HardwareDeviceOptions, f.DeviceOptions); err != nil {
		return fmt.Errorf("invalid --device-option: %w", err)
	}
	if fs.Changed("error-policy") {
		cfg.ErrorPolicy = f.ErrorPolicy
	}
	if fs.Changed("output") {
		cfg.Output = hwdecoder.OutputConfig{Type: hwdecoder.SinkTypeRawFile, Path: f.Output}
	}
	if fs.Changed("max-frame-size") {
		cfg.MaxFrameSize = f.MaxFrameSize
	}
	return cfg.Validate()
}

func main() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "syntax: %s [flags] <input> [<device type>]\n", os.Args[0])
		pflag.PrintDefaults()
	}
	f := registerFlags(pflag.CommandLine)
	pflag.Parse()
	if len(pflag.Args()) < 1 || len(pflag.Args()) > 2 {
		pflag.Usage()
		os.Exit(exitCodeUsage)
	}

	l := logrus.Default().WithLevel(f.LoggerLevel)
	ctx := logger.CtxWithLogger(context.Background(), l)
	ctx, cancelFn := context.WithCancel(ctx)
	defer cancelFn()
	logger.Default = func() logger.Logger {
		return l
	}
	exit := func(code int) {
		belt.Flush(ctx)
		os.Exit(code)
	}

	if f.NetPprofAddr != "" {
		observability.Go(ctx, func() { l.Error(http.ListenAndServe(f.NetPprofAddr, nil)) })
	}

	cfg := hwdecoder.DefaultConfig()
	if f.ConfigPath != "" {
		var err error
		cfg, err = hwdecoder.LoadConfig(f.ConfigPath)
		if err != nil {
			l.Error(err)
			exit(exitCodeUsage)
		}
	}
	if err := applyFlags(pflag.CommandLine, f, &cfg); err != nil {
		l.Errorf("invalid configuration: %v", err)
		exit(exitCodeUsage)
	}

	libav.SetLoggingLevel(ctx, f.LibavLoggerLevel)

	err := run(ctx, cfg)
	if err != nil {
		errmon.ObserveErrorCtx(ctx, err)
		l.Error(err)
	}
	exit(hwdecoder.ExitCode(err))
}

func applyDictionaryFlag(dst *hwdecoder.DictionaryItems, values []string) error {
	items, err := hwdecoder.ParseDictionaryItems(values)
	if err != nil {
		return err
	}
	*dst = append(*dst, items...)
	return nil
}

func run(
	ctx context.Context,
	cfg hwdecoder.Config,
) (_err error) {
	logger.Debugf(ctx, "run")
	defer func() { logger.Debugf(ctx, "/run: %v", _err) }()

	ctx, cancelFn := context.WithCancel(ctx)
	defer cancelFn()

	frameSink, err := sink.New(ctx, cfg.Output)
	if err != nil {
		return hwdecoder.NewError(hwdecoder.ErrorKindSink, err)
	}
	defer func() {
		if err := frameSink.Close(); err != nil {
			_err = multierror.Append(_err, hwdecoder.NewError(
				hwdecoder.ErrorKindSink,
				fmt.Errorf("unable to close the output: %w", err),
			)).ErrorOrNil()
		}
	}()

	s, err := session.New(libav.New(), cfg, frameSink)
	if err != nil {
		return fmt.Errorf("unable to initialize the decoding session: %w", err)
	}

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(signalCh)
	observability.Go(ctx, func() {
		select {
		case <-ctx.Done():
		case sig := <-signalCh:
			logger.Infof(ctx, "received signal %v, stopping", sig)
			cancelFn()
		}
	})

	errCh := make(chan error, 1)
	observability.Go(ctx, func() {
		errCh <- s.Run(ctx)
	})

	t := time.NewTicker(time.Second)
	defer t.Stop()
	for {
		select {
		case err := <-errCh:
			stats := s.GetStats()
			logger.Debugf(
				ctx,
				"finished: packets read:%d submitted:%d failed:%d; frames:%d (%d bytes)",
				stats.PacketsRead, stats.PacketsSubmitted, stats.PacketsFailed,
				stats.FramesDecoded, stats.BytesPacked,
			)
			if errors.Is(err, hwdecoder.ErrCanceled) && ctx.Err() != nil {
				logger.Warnf(ctx, "interrupted after %d frames", stats.FramesDecoded)
			}
			return err
		case <-t.C:
			stats := s.GetStats()
			logger.Debugf(
				ctx,
				"progress: r:%d (%d bytes) decoded:%d transferred:%d",
				stats.PacketsRead, stats.BytesRead, stats.FramesDecoded, stats.FramesTransferred,
			)
		}
	}
}
