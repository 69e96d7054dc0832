package heartbeat

import (
	"context"
	"log/slog"
	"time"

	"traffic-lights/types"
)

// DefaultInterval is used when the configured interval is unset.
const DefaultInterval = 5 * time.Minute

// Status is the snapshot reported on every beat.
type Status struct {
	Node        string
	QueueDepth  int
	Dropped     uint64
	TimerTarget types.Color
	TimerDelay  uint32
	TimerArmed  bool
	Debug       bool
}

// sendHeartbeat logs one status line
func sendHeartbeat(logger *slog.Logger, s Status) {
	logger.Info("Heartbeat",
		"node", s.Node,
		"queue_depth", s.QueueDepth,
		"dropped", s.Dropped,
		"timer_target", s.TimerTarget.String(),
		"timer_delay_s", s.TimerDelay,
		"timer_armed", s.TimerArmed,
		"debug", s.Debug,
	)
}

// Run logs a status line immediately and then every interval until ctx is done
func Run(ctx context.Context, interval time.Duration, status func() Status, logger *slog.Logger) {
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		sendHeartbeat(logger, status())
		select {
		case <-ctx.Done():
			logger.Debug("Heartbeat stopped")
			return
		case <-ticker.C:
		}
	}
}
