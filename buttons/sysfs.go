package buttons

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

const (
	gpioRoot = "/sys/class/gpio"

	// DefaultPollInterval is how often SysfsEdges samples its lines.
	DefaultPollInterval = 10 * time.Millisecond
)

type line struct {
	number  int
	handler func()
	level   bool
	known   bool
	failing bool
}

// SysfsEdges detects rising edges by sampling exported GPIO value files.
type SysfsEdges struct {
	root     string
	interval time.Duration
	logger   *slog.Logger

	mu    sync.Mutex
	lines []*line
}

// NewSysfsEdges creates a poller for lines under /sys/class/gpio.
func NewSysfsEdges(interval time.Duration, logger *slog.Logger) *SysfsEdges {
	return newSysfsEdgesAt(gpioRoot, interval, logger)
}

func newSysfsEdgesAt(root string, interval time.Duration, logger *slog.Logger) *SysfsEdges {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &SysfsEdges{root: root, interval: interval, logger: logger}
}

// Register adds line. The line must already be exported.
func (s *SysfsEdges) Register(number int, handler func()) error {
	if _, err := os.Stat(s.valuePath(number)); err != nil {
		return fmt.Errorf("gpio%d not available: %w", number, err)
	}
	s.mu.Lock()
	s.lines = append(s.lines, &line{number: number, handler: handler})
	s.mu.Unlock()
	return nil
}

// Run samples every registered line until ctx is done.
func (s *SysfsEdges) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		s.sample()
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *SysfsEdges) sample() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, l := range s.lines {
		level, err := s.read(l.number)
		if err != nil {
			if !l.failing {
				s.logger.Warn("Failed to read button line", "gpio", l.number, "error", err)
				l.failing = true
			}
			continue
		}
		l.failing = false
		// The first sample only establishes the baseline.
		if l.known && level && !l.level {
			l.handler()
		}
		l.level = level
		l.known = true
	}
}

func (s *SysfsEdges) read(number int) (bool, error) {
	data, err := os.ReadFile(s.valuePath(number))
	if err != nil {
		return false, err
	}
	v, err := strconv.Atoi(string(bytes.TrimSpace(data)))
	if err != nil {
		return false, fmt.Errorf("gpio%d value %q: %w", number, data, err)
	}
	return v != 0, nil
}

func (s *SysfsEdges) valuePath(number int) string {
	return filepath.Join(s.root, "gpio"+strconv.Itoa(number), "value")
}
