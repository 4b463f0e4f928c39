package internal

import (
	"context"
	"fmt"

	"github.com/facebookincubator/go-belt/tool/logger"
)

// Assertf panics through the logger of ctx if mustBeTrue is false.
func Assertf(
	ctx context.Context,
	mustBeTrue bool,
	format string,
	args ...any,
) {
	if mustBeTrue {
		return
	}

	msg := "assertion failed"
	if format != "" {
		msg += ": " + fmt.Sprintf(format, args...)
	}
	logger.Panic(ctx, msg)
	panic(msg) // in case the logger is configured not to panic
}
