package session

import (
	"context"
	"fmt"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/hwdecoder"
)

func (s *Session) probeDevice(ctx context.Context) (_err error) {
	logger.Debugf(ctx, "probeDevice(%s)", s.Config.HardwareDeviceType)
	defer func() { logger.Debugf(ctx, "/probeDevice(%s): %v", s.Config.HardwareDeviceType, _err) }()

	deviceType := s.Library.FindHardwareDeviceType(s.Config.HardwareDeviceType)
	if deviceType == hwdecoder.HardwareDeviceTypeNone {
		return hwdecoder.NewError(
			hwdecoder.ErrorKindUnsupportedBackend,
			fmt.Errorf("device type '%s' is not supported", s.Config.HardwareDeviceType),
		)
	}
	s.hardwareDeviceType = deviceType
	return nil
}
