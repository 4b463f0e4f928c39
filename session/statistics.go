package session

import (
	"sync/atomic"
)

type Statistics struct {
	PacketsRead       uint64
	PacketsSkipped    uint64
	PacketsSubmitted  uint64
	PacketsFailed     uint64
	FlushesSubmitted  uint64
	BytesRead         uint64
	ReadErrors        uint64
	FramesDecoded     uint64
	FramesTransferred uint64
	BytesPacked       uint64
}

type CommonsStatistics struct {
	PacketsRead       atomic.Uint64
	PacketsSkipped    atomic.Uint64
	PacketsSubmitted  atomic.Uint64
	PacketsFailed     atomic.Uint64
	FlushesSubmitted  atomic.Uint64
	BytesRead         atomic.Uint64
	ReadErrors        atomic.Uint64
	FramesDecoded     atomic.Uint64
	FramesTransferred atomic.Uint64
	BytesPacked       atomic.Uint64
}

func (stats *CommonsStatistics) Convert() Statistics {
	return Statistics{
		PacketsRead:       stats.PacketsRead.Load(),
		PacketsSkipped:    stats.PacketsSkipped.Load(),
		PacketsSubmitted:  stats.PacketsSubmitted.Load(),
		PacketsFailed:     stats.PacketsFailed.Load(),
		FlushesSubmitted:  stats.FlushesSubmitted.Load(),
		BytesRead:         stats.BytesRead.Load(),
		ReadErrors:        stats.ReadErrors.Load(),
		FramesDecoded:     stats.FramesDecoded.Load(),
		FramesTransferred: stats.FramesTransferred.Load(),
		BytesPacked:       stats.BytesPacked.Load(),
	}
}

// GetStats is safe to call concurrently with Run.
func (s *Session) GetStats() *Statistics {
	return ptr(s.CommonsStatistics.Convert())
}

func ptr[T any](in T) *T {
	return &in
}
