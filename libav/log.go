package libav

import (
	"context"
	"strings"

	"github.com/asticode/go-astiav"
	"github.com/facebookincubator/go-belt/tool/logger"
)

// SetLoggingLevel routes the messages of FFmpeg up to the given level to the logger of ctx.
func SetLoggingLevel(ctx context.Context, level logger.Level) {
	astiav.SetLogLevel(logLevelToLibav(level))
	l := logger.FromCtx(ctx)
	astiav.SetLogCallback(func(_ astiav.Classer, libavLevel astiav.LogLevel, _, msg string) {
		msg = strings.TrimRight(msg, "\n")
		if msg == "" {
			return
		}
		l.Logf(logLevelFromLibav(libavLevel), "libav: %s", msg)
	})
}

func logLevelToLibav(level logger.Level) astiav.LogLevel {
	switch level {
	case logger.LevelUndefined:
		return astiav.LogLevelQuiet
	case logger.LevelPanic:
		return astiav.LogLevelPanic
	case logger.LevelFatal:
		return astiav.LogLevelFatal
	case logger.LevelError:
		return astiav.LogLevelError
	case logger.LevelWarning:
		return astiav.LogLevelWarning
	case logger.LevelInfo:
		return astiav.LogLevelInfo
	case logger.LevelDebug:
		return astiav.LogLevelVerbose
	case logger.LevelTrace:
		return astiav.LogLevelTrace
	}
	return astiav.LogLevelWarning
}

// logLevelFromLibav never returns Panic or Fatal: an FFmpeg message must not stop the process.
func logLevelFromLibav(level astiav.LogLevel) logger.Level {
	switch {
	case level <= astiav.LogLevelError:
		return logger.LevelError
	case level <= astiav.LogLevelWarning:
		return logger.LevelWarning
	case level <= astiav.LogLevelInfo:
		return logger.LevelInfo
	case level <= astiav.LogLevelDebug:
		return logger.LevelDebug
	}
	return logger.LevelTrace
}
